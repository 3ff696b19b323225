// File: internal/infra/adapters/telegram/real_bot.go
package telegram

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"telegram-shop-bot/internal/application"
	"telegram-shop-bot/internal/config"
	"telegram-shop-bot/internal/domain"
	"telegram-shop-bot/internal/domain/model"
	"telegram-shop-bot/internal/domain/ports/repository"
	"telegram-shop-bot/internal/infra/logging"
	"telegram-shop-bot/internal/infra/memory"
	"telegram-shop-bot/internal/infra/metrics"
	"telegram-shop-bot/internal/usecase"
)

// RealBotAdapter polls Telegram updates, admits them through the rate limiter
// and duplicate suppressor, and dispatches admitted events into the facade.
// All outbound rendering goes through the Messenger: callbacks edit the tapped
// message in place, free text and commands send fresh messages.
type RealBotAdapter struct {
	bot       *tgbotapi.BotAPI
	cfg       *config.Config
	facade    *application.BotFacade
	limiter   *memory.RateLimiter
	locks     *memory.KeyedLock
	sessions  repository.SessionRepository
	messenger *Messenger
	log       *zerolog.Logger

	cancelPolling context.CancelFunc
}

func NewRealBotAdapter(cfg *config.Config, facade *application.BotFacade, limiter *memory.RateLimiter, locks *memory.KeyedLock, sessions repository.SessionRepository, logger *zerolog.Logger) (*RealBotAdapter, error) {
	if cfg == nil {
		return nil, errors.New("config is nil")
	}
	if facade == nil {
		return nil, errors.New("bot facade is nil")
	}

	bot, err := tgbotapi.NewBotAPI(cfg.Bot.Token)
	if err != nil {
		return nil, err
	}

	l := logger.With().Str("component", "TelegramBot").Logger()
	return &RealBotAdapter{
		bot:       bot,
		cfg:       cfg,
		facade:    facade,
		limiter:   limiter,
		locks:     locks,
		sessions:  sessions,
		messenger: NewMessenger(bot, locks, cfg.Bot.SendPerSec, cfg.Bot.SendBurst, &l),
		log:       &l,
	}, nil
}

// Messenger exposes the outbound path for callers that deliver out-of-band
// notifications (admin broadcasts, worker alerts).
func (r *RealBotAdapter) Messenger() *Messenger { return r.messenger }

func (r *RealBotAdapter) StartPolling(ctx context.Context) error {
	r.registerMenuCommands()

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := r.bot.GetUpdatesChan(u)

	ctx, cancel := context.WithCancel(ctx)
	r.cancelPolling = cancel

	workers := r.cfg.Bot.Workers
	var wg sync.WaitGroup
	updateChan := make(chan tgbotapi.Update, 100)

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			for {
				select {
				case <-ctx.Done():
					return
				case up := <-updateChan:
					uctx := logging.WithTraceID(ctx, uuid.NewString())
					if err := r.handleUpdate(uctx, up); err != nil {
						r.log.Error().Err(err).Int("worker", id).Msg("update handling failed")
					}
				}
			}
		}(i)
	}

	r.log.Info().Int("workers", workers).Msg("polling started")
	for {
		select {
		case <-ctx.Done():
			close(updateChan)
			wg.Wait()
			return ctx.Err()
		case up := <-updates:
			updateChan <- up
		}
	}
}

// registerMenuCommands publishes the slash-command menu. Best-effort: the bot
// works without it.
func (r *RealBotAdapter) registerMenuCommands() {
	cmds := tgbotapi.NewSetMyCommands(
		tgbotapi.BotCommand{Command: "start", Description: "Create or open your account"},
		tgbotapi.BotCommand{Command: "shop", Description: "Browse products"},
		tgbotapi.BotCommand{Command: "wallet", Description: "Balance and recent transactions"},
		tgbotapi.BotCommand{Command: "deposit", Description: "Top up with crypto"},
		tgbotapi.BotCommand{Command: "help", Description: "Help and support"},
		tgbotapi.BotCommand{Command: "reset", Description: "Cancel the current flow"},
	)
	if _, err := r.bot.Request(cmds); err != nil {
		r.log.Warn().Err(err).Msg("set menu commands failed")
	}
}

func (r *RealBotAdapter) StopPolling() {
	if r.cancelPolling != nil {
		r.cancelPolling()
	}
}

func (r *RealBotAdapter) handleUpdate(ctx context.Context, update tgbotapi.Update) error {
	if update.CallbackQuery != nil {
		return r.handleQuery(ctx, update.CallbackQuery)
	}
	if update.Message == nil || update.Message.From == nil {
		return nil
	}
	return r.handleMessage(ctx, update.Message)
}

func (r *RealBotAdapter) handleMessage(ctx context.Context, msg *tgbotapi.Message) error {
	from := msg.From
	userID := from.ID
	chatID := msg.Chat.ID
	ctx = logging.WithTgID(ctx, userID)
	limits := &r.cfg.Limits

	if msg.IsCommand() {
		cat, max := commandQuota(limits, msg.Command())
		if !r.limiter.Allow(userID, cat, max, admissionWindow) {
			metrics.IncAdmissionRejected(string(cat))
			return r.renderSend(ctx, chatID, slowDownView())
		}
		return r.dispatchCommand(ctx, chatID, from, msg.Command())
	}

	text := strings.TrimSpace(msg.Text)
	if text == "" {
		return nil
	}

	if !r.limiter.Allow(userID, memory.CategoryMessage, limits.MessagesPerMinute, admissionWindow) {
		metrics.IncAdmissionRejected(string(memory.CategoryMessage))
		return r.renderSend(ctx, chatID, slowDownView())
	}
	if r.limiter.IsDuplicate(userID, "text:"+text, limits.DuplicateInterval) {
		metrics.IncDuplicateSuppressed(string(memory.CategoryMessage))
		r.log.Debug().Int64("tg_id", userID).Msg("duplicate text suppressed")
		return nil
	}

	return r.dispatchText(ctx, chatID, userID, text)
}

// dispatchText routes free-form text by the session's current step. Text that
// arrives outside a text-expecting step gets a gentle nudge back to the menu.
func (r *RealBotAdapter) dispatchText(ctx context.Context, chatID, userID int64, text string) error {
	var step model.Step
	if sess := r.sessions.Get(userID); sess != nil {
		step = sess.Step
	}

	switch step {
	case model.StepEnteringQuantity:
		view, err := r.facade.ShopUC.EnterQuantity(ctx, userID, text)
		return r.renderOutcome(ctx, chatID, view, err)
	case model.StepEnteringCustomAmount:
		view, err := r.facade.PayUC.EnterCustomAmount(ctx, userID, text)
		return r.renderOutcome(ctx, chatID, view, err)
	default:
		return r.renderSend(ctx, chatID, &usecase.View{
			Text: "🤔 I wasn't expecting a message right now.\n\nUse the buttons below, or /start to begin.",
		})
	}
}

func (r *RealBotAdapter) handleQuery(ctx context.Context, query *tgbotapi.CallbackQuery) error {
	if query.From == nil || query.Message == nil {
		return nil
	}
	userID := query.From.ID
	chatID := query.Message.Chat.ID
	messageID := query.Message.MessageID
	data := strings.TrimSpace(query.Data)
	ctx = logging.WithTgID(ctx, userID)
	limits := &r.cfg.Limits

	if !r.limiter.Allow(userID, memory.CategoryCallback, limits.CallbacksPerMinute, admissionWindow) {
		metrics.IncAdmissionRejected(string(memory.CategoryCallback))
		r.messenger.AnswerCallback(query.ID, "⚠️ Please slow down")
		return nil
	}

	// Collapse double-taps on the same button of the same message: the first
	// tap holds the key until its handler returns, later taps only ack.
	tapKey := tapKey(userID, data, messageID)
	if !r.locks.TryAcquire(tapKey) {
		metrics.IncCallbackDedupHit()
		r.messenger.AnswerCallback(query.ID, "")
		return nil
	}
	defer r.locks.Release(tapKey)

	r.messenger.AnswerCallback(query.ID, "")

	ev := callbackEvent{
		userID:    userID,
		username:  query.From.UserName,
		chatID:    chatID,
		messageID: messageID,
		data:      data,
	}
	return r.routeCallback(ctx, ev)
}

// renderOutcome maps a facade result onto the chat as a fresh message.
func (r *RealBotAdapter) renderOutcome(ctx context.Context, chatID int64, view *usecase.View, err error) error {
	if err != nil {
		view = viewForError(err)
	}
	return r.renderSend(ctx, chatID, view)
}

func (r *RealBotAdapter) renderSend(ctx context.Context, chatID int64, view *usecase.View) error {
	if view == nil {
		return nil
	}
	_, err := r.messenger.SendView(ctx, chatID, view)
	return err
}

// renderEdit maps a facade result onto the tapped message in place.
func (r *RealBotAdapter) renderEdit(ctx context.Context, chatID int64, messageID int, view *usecase.View, err error) error {
	if err != nil {
		view = viewForError(err)
	}
	if view == nil {
		return nil
	}
	return r.messenger.EditView(ctx, chatID, messageID, view)
}

// viewForError translates domain errors into user-facing views. Unrecognized
// errors land on a generic failure screen; session state is never touched
// here, recovery is always an explicit user action.
func viewForError(err error) *usecase.View {
	switch {
	case errors.Is(err, domain.ErrStaleSession):
		return &usecase.View{
			Text: "⏰ This session has expired or moved on.\n\nStart again from the menu:",
			Rows: usecase.MainMenuRows(),
		}
	case errors.Is(err, domain.ErrNoUsername):
		return &usecase.View{
			Text: "❌ You need a Telegram username to use this bot.\n\nSet one in Telegram Settings → Username, then try again.",
		}
	case errors.Is(err, domain.ErrBackendUnavailable):
		return &usecase.View{
			Text: "😔 Something went wrong talking to the store. Please try again in a moment.",
			Rows: usecase.BackToMainRows(),
		}
	default:
		return &usecase.View{
			Text: "😔 Something went wrong. Please try again.",
			Rows: usecase.BackToMainRows(),
		}
	}
}

func slowDownView() *usecase.View {
	return &usecase.View{Text: "⚠️ Too many requests. Please slow down and try again in a minute."}
}

func tapKey(userID int64, data string, messageID int) string {
	return fmt.Sprintf("tap:%d:%s:%d", userID, data, messageID)
}
