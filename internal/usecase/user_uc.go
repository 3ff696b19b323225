// File: internal/usecase/user_uc.go
package usecase

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"telegram-shop-bot/internal/domain"
	"telegram-shop-bot/internal/domain/ports/adapter"
	"telegram-shop-bot/internal/domain/ports/repository"
	"telegram-shop-bot/internal/infra/logging"
)

// Compile-time check
var _ UserUseCase = (*userUC)(nil)

// UserUseCase covers account-level flows: onboarding, wallet, help and reset.
type UserUseCase interface {
	Start(ctx context.Context, username, firstName string) (*View, error)
	Wallet(ctx context.Context, username string) (*View, error)
	Help(username string) *View
	MainMenu() *View
	Reset(userID int64) *View
}

type userUC struct {
	api        adapter.ShopAPI
	sessions   repository.SessionRepository
	supportURL string
	channelURL string
	log        *zerolog.Logger
}

func NewUserUseCase(api adapter.ShopAPI, sessions repository.SessionRepository, supportURL, channelURL string, logger *zerolog.Logger) *userUC {
	l := logger.With().Str("component", "UserUC").Logger()
	return &userUC{api: api, sessions: sessions, supportURL: supportURL, channelURL: channelURL, log: &l}
}

// Start creates or fetches the backend account bound to the Telegram username.
func (u *userUC) Start(ctx context.Context, username, firstName string) (*View, error) {
	defer logging.TraceDuration(u.log, "UserUC.Start")()

	if username == "" {
		return nil, domain.ErrNoUsername
	}
	if _, err := u.api.CreateOrFetchUser(ctx, username); err != nil {
		return nil, fmt.Errorf("start: %w", err)
	}
	if firstName == "" {
		firstName = "there"
	}
	return &View{
		Text: fmt.Sprintf("🎉 Welcome, %s!\n\n👤 Account: @%s\n✅ Connected to your account\n\nChoose an option below:", firstName, username),
		Rows: MainMenuRows(),
	}, nil
}

func (u *userUC) Wallet(ctx context.Context, username string) (*View, error) {
	defer logging.TraceDuration(u.log, "UserUC.Wallet")()

	if username == "" {
		return nil, domain.ErrNoUsername
	}
	w, err := u.api.GetWallet(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("wallet: %w", err)
	}

	sb := strings.Builder{}
	fmt.Fprintf(&sb, "💰 *Your Wallet*\n\n💵 *Balance:* %.2f", w.Balance)
	if len(w.Transactions) > 0 {
		sb.WriteString("\n\n📊 *Recent Transactions:*\n")
		shown := w.Transactions
		if len(shown) > 5 {
			shown = shown[:5]
		}
		for i, tx := range shown {
			fmt.Fprintf(&sb, "%d. %s %.2f %s - %s\n",
				i+1, txStatusEmoji(tx.Status), tx.PriceAmount,
				strings.ToUpper(tx.PayCurrency), tx.CreatedAt.Format("2006-01-02"))
		}
		if rest := len(w.Transactions) - len(shown); rest > 0 {
			fmt.Fprintf(&sb, "\n... and %d more", rest)
		}
	}
	return &View{Text: sb.String(), Rows: BackToMainRows()}, nil
}

func txStatusEmoji(status string) string {
	switch status {
	case "waiting":
		return "⏳"
	case "completed":
		return "✅"
	default:
		return "❌"
	}
}

func (u *userUC) Help(username string) *View {
	sb := strings.Builder{}
	sb.WriteString("❓ *Help & Support*\n\n")
	if username != "" {
		fmt.Fprintf(&sb, "You can log in on the website with username `%s`. Update your password after the first login.\n\n", username)
	}
	sb.WriteString("*Quick Start:*\n")
	sb.WriteString("• /wallet — check your balance\n")
	sb.WriteString("• /deposit — add funds\n")
	sb.WriteString("• 🛒 Shop — browse products\n")
	sb.WriteString("• /reset — restart if you get stuck\n")
	return &View{Text: sb.String(), Rows: helpRows(u.supportURL, u.channelURL)}
}

func (u *userUC) MainMenu() *View {
	return &View{
		Text: "🏠 *Main Menu*\n\nWhat would you like to do?",
		Rows: MainMenuRows(),
	}
}

// Reset clears any in-flight workflow and drops the user back to the menu.
func (u *userUC) Reset(userID int64) *View {
	u.sessions.Clear(userID)
	return &View{
		Text: "🔄 Your session has been reset.\n\nWhat would you like to do?",
		Rows: MainMenuRows(),
	}
}
