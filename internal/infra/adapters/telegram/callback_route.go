// File: internal/infra/adapters/telegram/callback_route.go
package telegram

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"telegram-shop-bot/internal/usecase"
)

var errMalformedCallback = errors.New("malformed callback payload")

// callbackEvent is an admitted, deduplicated button tap.
type callbackEvent struct {
	userID    int64
	username  string
	chatID    int64
	messageID int
	data      string
}

type cbHandler func(ctx context.Context, ev callbackEvent) (*usecase.View, error)

// Exact-match callbacks
func (r *RealBotAdapter) cbRoutes() map[string]cbHandler {
	return map[string]cbHandler{
		"cmd:menu": func(ctx context.Context, ev callbackEvent) (*usecase.View, error) {
			return r.facade.UserUC.MainMenu(), nil
		},
		"cmd:shop": func(ctx context.Context, ev callbackEvent) (*usecase.View, error) {
			return r.facade.ShopUC.OpenShop(ctx, ev.userID, ev.username)
		},
		"cmd:wallet": func(ctx context.Context, ev callbackEvent) (*usecase.View, error) {
			return r.facade.UserUC.Wallet(ctx, ev.username)
		},
		"cmd:deposit": func(ctx context.Context, ev callbackEvent) (*usecase.View, error) {
			return r.facade.PayUC.OpenDeposit(ctx, ev.username)
		},
		"cmd:help": func(ctx context.Context, ev callbackEvent) (*usecase.View, error) {
			return r.facade.UserUC.Help(ev.username), nil
		},
		"year:skip": func(ctx context.Context, ev callbackEvent) (*usecase.View, error) {
			return r.facade.ShopUC.SkipYear(ctx, ev.userID)
		},
		"state:skip": func(ctx context.Context, ev callbackEvent) (*usecase.View, error) {
			return r.facade.ShopUC.SkipState(ctx, ev.userID, ev.username)
		},
		"checkout:confirm": func(ctx context.Context, ev callbackEvent) (*usecase.View, error) {
			return r.facade.ShopUC.ConfirmCheckout(ctx, ev.userID, ev.username)
		},
		"checkout:cancel": func(ctx context.Context, ev callbackEvent) (*usecase.View, error) {
			return r.facade.ShopUC.CancelCheckout(ev.userID), nil
		},
		"deposit:custom": func(ctx context.Context, ev callbackEvent) (*usecase.View, error) {
			return r.facade.PayUC.StartCustomAmount(ev.userID), nil
		},
	}
}

// Prefix-match callbacks. Parameters are decoded here, at the boundary; a
// payload that does not parse is logged and dropped rather than guessed at.
func (r *RealBotAdapter) cbPrefixRoutes() []struct {
	Prefix string
	Fn     cbHandler
} {
	return []struct {
		Prefix string
		Fn     cbHandler
	}{
		{
			Prefix: "cat:",
			Fn: func(ctx context.Context, ev callbackEvent) (*usecase.View, error) {
				idx, err := strconv.Atoi(strings.TrimPrefix(ev.data, "cat:"))
				if err != nil {
					return nil, errMalformedCallback
				}
				return r.facade.ShopUC.SelectCategory(ctx, ev.userID, idx)
			},
		},
		{
			Prefix: "year:",
			Fn: func(ctx context.Context, ev callbackEvent) (*usecase.View, error) {
				parts := strings.Split(strings.TrimPrefix(ev.data, "year:"), ":")
				if len(parts) != 2 {
					return nil, errMalformedCallback
				}
				from, err1 := strconv.Atoi(parts[0])
				to, err2 := strconv.Atoi(parts[1])
				if err1 != nil || err2 != nil || from > to {
					return nil, errMalformedCallback
				}
				return r.facade.ShopUC.SelectYearRange(ctx, ev.userID, from, to)
			},
		},
		{
			Prefix: "state:",
			Fn: func(ctx context.Context, ev callbackEvent) (*usecase.View, error) {
				state := strings.TrimPrefix(ev.data, "state:")
				if len(state) != 2 {
					return nil, errMalformedCallback
				}
				return r.facade.ShopUC.SelectState(ctx, ev.userID, ev.username, state)
			},
		},
		{
			Prefix: "crypto:",
			Fn: func(ctx context.Context, ev callbackEvent) (*usecase.View, error) {
				code := strings.TrimPrefix(ev.data, "crypto:")
				if code == "" {
					return nil, errMalformedCallback
				}
				return r.facade.PayUC.SelectCurrency(ctx, ev.userID, ev.username, code)
			},
		},
		{
			Prefix: "amount:",
			Fn: func(ctx context.Context, ev callbackEvent) (*usecase.View, error) {
				parts := strings.SplitN(strings.TrimPrefix(ev.data, "amount:"), ":", 2)
				if len(parts) != 2 || parts[0] == "" {
					return nil, errMalformedCallback
				}
				return r.facade.PayUC.SelectAmount(ctx, ev.userID, ev.username, parts[0], parts[1])
			},
		},
	}
}

func (r *RealBotAdapter) routeCallback(ctx context.Context, ev callbackEvent) error {
	var (
		view *usecase.View
		err  error
	)
	if fn, ok := r.cbRoutes()[ev.data]; ok {
		view, err = fn(ctx, ev)
	} else {
		matched := false
		for _, pr := range r.cbPrefixRoutes() {
			if strings.HasPrefix(ev.data, pr.Prefix) {
				view, err = pr.Fn(ctx, ev)
				matched = true
				break
			}
		}
		if !matched {
			r.log.Debug().Str("data", ev.data).Msg("unknown callback, ignoring")
			return nil
		}
	}

	if err == errMalformedCallback {
		r.log.Warn().Str("data", ev.data).Msg("malformed callback payload, ignoring")
		return nil
	}
	return r.renderEdit(ctx, ev.chatID, ev.messageID, view, err)
}
