// File: internal/infra/adapters/telegram/command_route.go
package telegram

import (
	"context"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"telegram-shop-bot/internal/config"
	"telegram-shop-bot/internal/infra/memory"
)

// admissionWindow is the sliding window every per-minute quota is judged over.
const admissionWindow = time.Minute

// commandQuota picks the admission bucket for a slash command. /start and
// /wallet get tighter dedicated quotas since both hit the backend; everything
// else shares the generic command bucket.
func commandQuota(limits *config.LimitsConfig, command string) (memory.Category, int) {
	switch command {
	case "start":
		return memory.Category("start"), limits.StartsPerMinute
	case "wallet", "balance":
		return memory.Category("wallet"), limits.WalletsPerMinute
	default:
		return memory.CategoryCommand, limits.MessagesPerMinute
	}
}

func (r *RealBotAdapter) dispatchCommand(ctx context.Context, chatID int64, from *tgbotapi.User, command string) error {
	userID := from.ID
	username := from.UserName

	switch command {
	case "start":
		view, err := r.facade.UserUC.Start(ctx, username, from.FirstName)
		return r.renderOutcome(ctx, chatID, view, err)

	case "wallet", "balance":
		view, err := r.facade.UserUC.Wallet(ctx, username)
		return r.renderOutcome(ctx, chatID, view, err)

	case "shop", "buy":
		view, err := r.facade.ShopUC.OpenShop(ctx, userID, username)
		return r.renderOutcome(ctx, chatID, view, err)

	case "deposit":
		view, err := r.facade.PayUC.OpenDeposit(ctx, username)
		return r.renderOutcome(ctx, chatID, view, err)

	case "help":
		return r.renderSend(ctx, chatID, r.facade.UserUC.Help(username))

	case "reset", "cancel":
		return r.renderSend(ctx, chatID, r.facade.UserUC.Reset(userID))

	default:
		return r.renderSend(ctx, chatID, r.facade.UserUC.MainMenu())
	}
}
