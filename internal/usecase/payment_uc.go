// File: internal/usecase/payment_uc.go
package usecase

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"telegram-shop-bot/internal/domain"
	"telegram-shop-bot/internal/domain/model"
	"telegram-shop-bot/internal/domain/ports/adapter"
	"telegram-shop-bot/internal/domain/ports/repository"
	"telegram-shop-bot/internal/infra/logging"
	"telegram-shop-bot/internal/infra/metrics"
)

// Compile-time check
var _ PaymentUseCase = (*paymentUC)(nil)

// PaymentUseCase drives the deposit workflow: pick a currency, pick a preset
// amount or type a custom one, receive payment details.
type PaymentUseCase interface {
	OpenDeposit(ctx context.Context, username string) (*View, error)
	SelectCurrency(ctx context.Context, userID int64, username, code string) (*View, error)
	SelectAmount(ctx context.Context, userID int64, username, code, amount string) (*View, error)
	StartCustomAmount(userID int64) *View
	EnterCustomAmount(ctx context.Context, userID int64, text string) (*View, error)
}

type paymentUC struct {
	api        adapter.ShopAPI
	sessions   repository.SessionRepository
	minDeposit float64
	maxDeposit float64
	log        *zerolog.Logger
}

func NewPaymentUseCase(api adapter.ShopAPI, sessions repository.SessionRepository, minDeposit, maxDeposit float64, logger *zerolog.Logger) *paymentUC {
	l := logger.With().Str("component", "PaymentUC").Logger()
	return &paymentUC{api: api, sessions: sessions, minDeposit: minDeposit, maxDeposit: maxDeposit, log: &l}
}

func (p *paymentUC) OpenDeposit(ctx context.Context, username string) (*View, error) {
	defer logging.TraceDuration(p.log, "PaymentUC.OpenDeposit")()

	if username == "" {
		return nil, domain.ErrNoUsername
	}
	currencies, err := p.api.ListCurrencies(ctx)
	if err != nil {
		return nil, fmt.Errorf("open deposit: %w", err)
	}
	return &View{
		Text: "💳 *Deposit Funds*\n\nSelect cryptocurrency:",
		Rows: currencyRows(currencies),
	}, nil
}

// SelectCurrency either continues the custom-amount flow (amount already
// collected) or shows the preset amounts for the chosen currency.
func (p *paymentUC) SelectCurrency(ctx context.Context, userID int64, username, code string) (*View, error) {
	defer logging.TraceDuration(p.log, "PaymentUC.SelectCurrency")()

	if sess := p.sessions.Get(userID); sess != nil && sess.Step == model.StepSelectingCryptoCustom {
		amount, ok := sess.Float(model.KeyAmount)
		if !ok {
			return nil, domain.ErrStaleSession
		}
		view, err := p.createDeposit(ctx, username, code, amount)
		if err != nil {
			// Keep the entered amount so the user can tap the currency again.
			return nil, err
		}
		p.sessions.Clear(userID)
		return view, nil
	}

	return &View{
		Text: fmt.Sprintf("💰 *Deposit with %s*\n\nSelect amount:", strings.ToUpper(code)),
		Rows: amountRows(code),
	}, nil
}

func (p *paymentUC) SelectAmount(ctx context.Context, userID int64, username, code, amount string) (*View, error) {
	defer logging.TraceDuration(p.log, "PaymentUC.SelectAmount")()

	value, err := p.validAmount(amount)
	if err != nil {
		if ve, ok := domain.AsValidation(err); ok {
			return &View{Text: "❌ " + ve.Reason, Rows: BackToMainRows()}, nil
		}
		return nil, err
	}
	return p.createDeposit(ctx, username, code, value)
}

// StartCustomAmount moves the user into free-text amount entry.
func (p *paymentUC) StartCustomAmount(userID int64) *View {
	p.sessions.Set(userID, model.NewSession(model.StepEnteringCustomAmount))
	return &View{
		Text: fmt.Sprintf("💳 Enter the amount you want to deposit ($%.0f-$%.0f), e.g. 25.50:", p.minDeposit, p.maxDeposit),
		Rows: BackToMainRows(),
	}
}

// EnterCustomAmount validates the typed amount and asks for the currency.
// Invalid input re-prompts without leaving the entry step.
func (p *paymentUC) EnterCustomAmount(ctx context.Context, userID int64, text string) (*View, error) {
	defer logging.TraceDuration(p.log, "PaymentUC.EnterCustomAmount")()

	sess := p.sessions.Get(userID)
	if sess == nil || sess.Step != model.StepEnteringCustomAmount {
		return nil, domain.ErrStaleSession
	}

	value, err := p.validAmount(text)
	if err != nil {
		if ve, ok := domain.AsValidation(err); ok {
			return &View{Text: "❌ " + ve.Reason, Rows: BackToMainRows()}, nil
		}
		return nil, err
	}

	currencies, cerr := p.api.ListCurrencies(ctx)
	if cerr != nil {
		return nil, fmt.Errorf("custom amount: %w", cerr)
	}
	p.sessions.Merge(userID, model.StepSelectingCryptoCustom, map[string]string{
		model.KeyAmount: strconv.FormatFloat(value, 'f', 2, 64),
	})
	return &View{
		Text: fmt.Sprintf("💰 *Deposit $%.2f*\n\nSelect cryptocurrency:", value),
		Rows: currencyRows(currencies),
	}, nil
}

func (p *paymentUC) validAmount(text string) (float64, error) {
	value, err := strconv.ParseFloat(strings.TrimSpace(text), 64)
	if err != nil {
		return 0, domain.NewValidationError("Please enter a valid amount (e.g., 25.50)")
	}
	if value < p.minDeposit {
		return 0, domain.NewValidationError(fmt.Sprintf("Minimum deposit amount is $%.0f", p.minDeposit))
	}
	if value > p.maxDeposit {
		return 0, domain.NewValidationError(fmt.Sprintf("Maximum deposit amount is $%.0f", p.maxDeposit))
	}
	return value, nil
}

func (p *paymentUC) createDeposit(ctx context.Context, username, code string, amount float64) (*View, error) {
	if username == "" {
		return nil, domain.ErrNoUsername
	}
	note := fmt.Sprintf("Telegram bot deposit %s - $%.2f", uuid.NewString()[:8], amount)
	dep, err := p.api.CreateDeposit(ctx, amount, code, username, note)
	if err != nil {
		metrics.IncDeposit(false)
		return nil, fmt.Errorf("create deposit: %w", err)
	}
	metrics.IncDeposit(true)

	cur := strings.ToUpper(dep.PayCurrency)
	sb := strings.Builder{}
	sb.WriteString("💰 *Deposit Created Successfully*\n\n")
	fmt.Fprintf(&sb, "*USD Amount:* $%.2f\n", dep.PriceAmount)
	fmt.Fprintf(&sb, "*Cryptocurrency:* %s\n", cur)
	fmt.Fprintf(&sb, "*Network:* %s\n", strings.ToUpper(dep.Network))
	fmt.Fprintf(&sb, "*Status:* %s\n", dep.Status)
	fmt.Fprintf(&sb, "*Order ID:* %s\n", dep.OrderID)
	fmt.Fprintf(&sb, "*Transaction ID:* %s\n\n", dep.TransactionID)
	fmt.Fprintf(&sb, "📍 *Payment Address:*\n`%s`\n\n", dep.PayAddress)
	fmt.Fprintf(&sb, "💎 *Amount to Send:*\n`%s %s`\n\n", dep.PayAmount, cur)
	fmt.Fprintf(&sb, "⚠️ *Important:*\n• Send exactly *%s %s* to the address above\n• Your deposit is credited automatically once confirmed\n• Do not send from an exchange, use a personal wallet", dep.PayAmount, cur)

	return &View{
		Text: sb.String(),
		Rows: [][]adapter.InlineButton{
			adapter.Row(adapter.InlineButton{Text: "💰 Check Wallet", Data: "cmd:wallet"}),
			adapter.Row(adapter.InlineButton{Text: "🏠 Main Menu", Data: "cmd:menu"}),
		},
	}, nil
}
