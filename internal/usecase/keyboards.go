// File: internal/usecase/keyboards.go
package usecase

import (
	"fmt"

	"telegram-shop-bot/internal/domain/model"
	"telegram-shop-bot/internal/domain/ports/adapter"
)

// Callback data stays well under Telegram's 64-byte cap: categories are
// addressed by list index, everything else by short literal tags.

func MainMenuRows() [][]adapter.InlineButton {
	return [][]adapter.InlineButton{
		adapter.Row(
			adapter.InlineButton{Text: "🛒 Shop", Data: "cmd:shop"},
			adapter.InlineButton{Text: "💰 Wallet", Data: "cmd:wallet"},
			adapter.InlineButton{Text: "💸 Deposit", Data: "cmd:deposit"},
		),
		adapter.Row(adapter.InlineButton{Text: "📞 Help & Support", Data: "cmd:help"}),
	}
}

func BackToMainRows() [][]adapter.InlineButton {
	return [][]adapter.InlineButton{
		adapter.Row(adapter.InlineButton{Text: "🏠 Main Menu", Data: "cmd:menu"}),
	}
}

func backToShopRows() [][]adapter.InlineButton {
	return [][]adapter.InlineButton{
		adapter.Row(adapter.InlineButton{Text: "⬅️ Back to Shop", Data: "cmd:shop"}),
	}
}

func helpRows(supportURL, channelURL string) [][]adapter.InlineButton {
	var rows [][]adapter.InlineButton
	if supportURL != "" {
		rows = append(rows, adapter.Row(adapter.InlineButton{Text: "💬 Contact Support", URL: supportURL}))
	}
	if channelURL != "" {
		rows = append(rows, adapter.Row(adapter.InlineButton{Text: "📢 Join Channel", URL: channelURL}))
	}
	return append(rows, adapter.Row(adapter.InlineButton{Text: "⬅️ Back to Main", Data: "cmd:menu"}))
}

func categoriesRows(categories []model.Category) [][]adapter.InlineButton {
	if len(categories) == 0 {
		return BackToMainRows()
	}
	rows := make([][]adapter.InlineButton, 0, len(categories)+1)
	for i, c := range categories {
		rows = append(rows, adapter.Row(adapter.InlineButton{
			Text: fmt.Sprintf("%s - %s", c.Base, c.Price),
			Data: fmt.Sprintf("cat:%d", i),
		}))
	}
	return append(rows, adapter.Row(adapter.InlineButton{Text: "⬅️ Back to Main", Data: "cmd:menu"}))
}

// Year buckets run 1965-2011 in five-year spans, three per row.
func yearRangeRows() [][]adapter.InlineButton {
	var rows [][]adapter.InlineButton
	var row []adapter.InlineButton
	for from := 1965; from <= 2011; from += 5 {
		to := from + 4
		if to > 2011 {
			to = 2011
		}
		row = append(row, adapter.InlineButton{
			Text: fmt.Sprintf("%d-%d", from, to),
			Data: fmt.Sprintf("year:%d:%d", from, to),
		})
		if len(row) == 3 {
			rows = append(rows, row)
			row = nil
		}
	}
	if len(row) > 0 {
		rows = append(rows, row)
	}
	rows = append(rows, adapter.Row(adapter.InlineButton{Text: "⏭️ Skip Year Filter", Data: "year:skip"}))
	return append(rows, adapter.Row(adapter.InlineButton{Text: "⬅️ Back to Shop", Data: "cmd:shop"}))
}

var usStates = []string{
	"AL", "AK", "AZ", "AR", "CA", "CO", "CT", "DE", "FL", "GA",
	"HI", "ID", "IL", "IN", "IA", "KS", "KY", "LA", "ME", "MD",
	"MA", "MI", "MN", "MS", "MO", "MT", "NE", "NV", "NH", "NJ",
	"NM", "NY", "NC", "ND", "OH", "OK", "OR", "PA", "RI", "SC",
	"SD", "TN", "TX", "UT", "VT", "VA", "WA", "WV", "WI", "WY",
}

func stateRows() [][]adapter.InlineButton {
	var rows [][]adapter.InlineButton
	for i := 0; i < len(usStates); i += 5 {
		end := i + 5
		if end > len(usStates) {
			end = len(usStates)
		}
		row := make([]adapter.InlineButton, 0, 5)
		for _, st := range usStates[i:end] {
			row = append(row, adapter.InlineButton{Text: st, Data: "state:" + st})
		}
		rows = append(rows, row)
	}
	rows = append(rows, adapter.Row(adapter.InlineButton{Text: "⏭️ Skip State Filter", Data: "state:skip"}))
	return append(rows, adapter.Row(adapter.InlineButton{Text: "⬅️ Back to Shop", Data: "cmd:shop"}))
}

func checkoutRows() [][]adapter.InlineButton {
	return [][]adapter.InlineButton{
		adapter.Row(
			adapter.InlineButton{Text: "✅ Confirm Purchase", Data: "checkout:confirm"},
			adapter.InlineButton{Text: "❌ Cancel", Data: "checkout:cancel"},
		),
		adapter.Row(adapter.InlineButton{Text: "⬅️ Back to Shop", Data: "cmd:shop"}),
	}
}

func afterPurchaseRows() [][]adapter.InlineButton {
	return [][]adapter.InlineButton{
		adapter.Row(adapter.InlineButton{Text: "💰 Check Wallet", Data: "cmd:wallet"}),
		adapter.Row(adapter.InlineButton{Text: "🛍️ Shop Again", Data: "cmd:shop"}),
		adapter.Row(adapter.InlineButton{Text: "🏠 Main Menu", Data: "cmd:menu"}),
	}
}

func currencyRows(currencies []model.Currency) [][]adapter.InlineButton {
	rows := make([][]adapter.InlineButton, 0, len(currencies)+1)
	var row []adapter.InlineButton
	for _, c := range currencies {
		label := c.Code
		if c.Name != "" {
			label = fmt.Sprintf("%s (%s)", c.Name, c.Code)
		}
		row = append(row, adapter.InlineButton{Text: label, Data: "crypto:" + c.Code})
		if len(row) == 2 {
			rows = append(rows, row)
			row = nil
		}
	}
	if len(row) > 0 {
		rows = append(rows, row)
	}
	return append(rows, adapter.Row(adapter.InlineButton{Text: "⬅️ Back to Main", Data: "cmd:menu"}))
}

func amountRows(code string) [][]adapter.InlineButton {
	presets := []int{10, 25, 50, 100}
	rows := make([][]adapter.InlineButton, 0, len(presets)+2)
	for _, p := range presets {
		rows = append(rows, adapter.Row(adapter.InlineButton{
			Text: fmt.Sprintf("$%d", p),
			Data: fmt.Sprintf("amount:%s:%d", code, p),
		}))
	}
	rows = append(rows, adapter.Row(adapter.InlineButton{Text: "💳 Custom Amount", Data: "deposit:custom"}))
	return append(rows, adapter.Row(adapter.InlineButton{Text: "⬅️ Back to Main", Data: "cmd:menu"}))
}
