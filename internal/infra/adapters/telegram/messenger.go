// File: internal/infra/adapters/telegram/messenger.go
package telegram

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"telegram-shop-bot/internal/domain/ports/adapter"
	"telegram-shop-bot/internal/infra/memory"
	"telegram-shop-bot/internal/infra/metrics"
	"telegram-shop-bot/internal/usecase"
)

// maxMessageLen is Telegram's hard cap on message text.
const maxMessageLen = 4096

// apiClient is the slice of tgbotapi.BotAPI the messenger needs; tests
// substitute a fake.
type apiClient interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

// Messenger is the safe-mutation path for outbound messages. It guarantees at
// most one in-flight edit per (chat, message) target, recovers edit-class
// failures by sending a replacement message, retries transient transport
// errors once, and tracks the canonical last message id per chat so edits
// aimed at a replaced message are redirected to its replacement.
type Messenger struct {
	api     apiClient
	edits   *memory.KeyedLock
	limiter *rate.Limiter
	backoff time.Duration
	log     *zerolog.Logger

	mu      sync.Mutex
	lastMsg map[int64]lastMessage
}

// lastMessage is the canonical outbound message of a chat. When a fallback
// send superseded an uneditable message, replaced holds the stale id so later
// edits against it can be retargeted.
type lastMessage struct {
	id       int
	replaced int
}

func NewMessenger(api apiClient, edits *memory.KeyedLock, sendPerSec, sendBurst int, logger *zerolog.Logger) *Messenger {
	l := logger.With().Str("component", "Messenger").Logger()
	return &Messenger{
		api:     api,
		edits:   edits,
		limiter: rate.NewLimiter(rate.Limit(sendPerSec), sendBurst),
		backoff: time.Second,
		log:     &l,
		lastMsg: make(map[int64]lastMessage),
	}
}

// SendView sends the view as a fresh message and records its id as the chat's
// canonical edit target.
func (m *Messenger) SendView(ctx context.Context, chatID int64, v *usecase.View) (int, error) {
	msg := tgbotapi.NewMessage(chatID, truncate(v.Text))
	msg.ParseMode = tgbotapi.ModeMarkdown
	msg.DisableWebPagePreview = true
	if markup, ok := rowsToMarkup(v.Rows); ok {
		msg.ReplyMarkup = markup
	}

	sent, err := m.sendWithRetry(ctx, msg)
	if err != nil {
		return 0, err
	}
	m.rememberLast(chatID, sent.MessageID)
	m.deliverDocument(ctx, chatID, v.Document)
	return sent.MessageID, nil
}

// EditView mutates the target message in place. If the same target is already
// being mutated the call is dropped (the concurrent mutation wins). An
// edit-class failure falls back to sending the view fresh; transient failures
// are retried once after a fixed backoff and then surfaced.
func (m *Messenger) EditView(ctx context.Context, chatID int64, messageID int, v *usecase.View) error {
	messageID = m.editTarget(chatID, messageID)
	key := editKey(chatID, messageID)
	if !m.edits.TryAcquire(key) {
		m.log.Debug().Str("key", key).Msg("edit already pending, dropping")
		return nil
	}
	defer m.edits.Release(key)

	edit := tgbotapi.NewEditMessageText(chatID, messageID, truncate(v.Text))
	edit.ParseMode = tgbotapi.ModeMarkdown
	if markup, ok := rowsToMarkup(v.Rows); ok {
		edit.ReplyMarkup = &markup
	}

	_, err := m.sendWithRetry(ctx, edit)
	if err != nil {
		if !isEditClassErr(err) {
			return err
		}
		// Target is gone or unchanged; replace it instead.
		metrics.IncEditFallback()
		m.log.Debug().Err(err).Int64("chat_id", chatID).Int("message_id", messageID).Msg("edit target invalid, sending replacement")
		msg := tgbotapi.NewMessage(chatID, truncate(v.Text))
		msg.ParseMode = tgbotapi.ModeMarkdown
		msg.DisableWebPagePreview = true
		if markup, ok := rowsToMarkup(v.Rows); ok {
			msg.ReplyMarkup = markup
		}
		sent, serr := m.sendWithRetry(ctx, msg)
		if serr != nil {
			return serr
		}
		m.rememberReplacement(chatID, sent.MessageID, messageID)
	}

	m.deliverDocument(ctx, chatID, v.Document)
	return nil
}

// AnswerCallback acknowledges a button tap to stop the client-side spinner.
// Best-effort: failures are logged, never propagated.
func (m *Messenger) AnswerCallback(queryID, text string) {
	cb := tgbotapi.NewCallback(queryID, text)
	if _, err := m.api.Request(cb); err != nil {
		m.log.Debug().Err(err).Msg("answer callback failed")
	}
}

// LastMessageID returns the canonical outbound message for the chat, if any.
func (m *Messenger) LastMessageID(chatID int64) (int, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	lm, ok := m.lastMsg[chatID]
	return lm.id, ok
}

// editTarget retargets an edit aimed at a message a fallback send has since
// replaced; anything else passes through untouched.
func (m *Messenger) editTarget(chatID int64, messageID int) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	if lm, ok := m.lastMsg[chatID]; ok && lm.replaced == messageID && lm.replaced != 0 {
		return lm.id
	}
	return messageID
}

func (m *Messenger) rememberLast(chatID int64, messageID int) {
	m.mu.Lock()
	m.lastMsg[chatID] = lastMessage{id: messageID}
	m.mu.Unlock()
}

func (m *Messenger) rememberReplacement(chatID int64, messageID, replaced int) {
	m.mu.Lock()
	m.lastMsg[chatID] = lastMessage{id: messageID, replaced: replaced}
	m.mu.Unlock()
}

func (m *Messenger) sendWithRetry(ctx context.Context, c tgbotapi.Chattable) (tgbotapi.Message, error) {
	if err := m.limiter.Wait(ctx); err != nil {
		return tgbotapi.Message{}, err
	}
	sent, err := m.api.Send(c)
	if err == nil || !isTransientErr(err) {
		return sent, err
	}

	metrics.IncSendRetry()
	m.log.Warn().Err(err).Msg("transient transport error, retrying once")
	select {
	case <-ctx.Done():
		return tgbotapi.Message{}, ctx.Err()
	case <-time.After(m.backoff):
	}
	if err := m.limiter.Wait(ctx); err != nil {
		return tgbotapi.Message{}, err
	}
	return m.api.Send(c)
}

func (m *Messenger) deliverDocument(ctx context.Context, chatID int64, doc *usecase.Document) {
	if doc == nil {
		return
	}
	file := tgbotapi.NewDocument(chatID, tgbotapi.FileBytes{Name: doc.Name, Bytes: doc.Data})
	file.Caption = doc.Caption
	if _, err := m.sendWithRetry(ctx, file); err != nil {
		m.log.Warn().Err(err).Str("file", doc.Name).Msg("document delivery failed")
		notice := tgbotapi.NewMessage(chatID, "⚠️ Could not send the file directly, please use the download link above")
		if _, nerr := m.sendWithRetry(ctx, notice); nerr != nil {
			m.log.Warn().Err(nerr).Msg("document failure notice failed too")
		}
	}
}

func editKey(chatID int64, messageID int) string {
	return "edit:" + strconv.FormatInt(chatID, 10) + ":" + strconv.Itoa(messageID)
}

func rowsToMarkup(rows [][]adapter.InlineButton) (tgbotapi.InlineKeyboardMarkup, bool) {
	if len(rows) == 0 {
		return tgbotapi.InlineKeyboardMarkup{}, false
	}
	kbRows := make([][]tgbotapi.InlineKeyboardButton, 0, len(rows))
	for _, row := range rows {
		if len(row) == 0 {
			continue
		}
		r := make([]tgbotapi.InlineKeyboardButton, 0, len(row))
		for _, btn := range row {
			label := strings.TrimSpace(btn.Text)
			if label == "" {
				label = "•"
			}
			switch {
			case btn.URL != "":
				r = append(r, tgbotapi.NewInlineKeyboardButtonURL(label, btn.URL))
			case btn.Data != "":
				r = append(r, tgbotapi.NewInlineKeyboardButtonData(label, btn.Data))
			default:
				r = append(r, tgbotapi.NewInlineKeyboardButtonData(label, label))
			}
		}
		kbRows = append(kbRows, r)
	}
	return tgbotapi.NewInlineKeyboardMarkup(kbRows...), true
}

// truncate trims text to the transport cap, marking the cut.
func truncate(text string) string {
	runes := []rune(text)
	if len(runes) <= maxMessageLen {
		return text
	}
	return string(runes[:maxMessageLen-6]) + "..."
}

var editClassFragments = []string{
	"message to edit not found",
	"message is not modified",
	"message can't be edited",
	"message_id_invalid",
}

// isEditClassErr reports whether the target message cannot be mutated in
// place, as opposed to a transient transport problem.
func isEditClassErr(err error) bool {
	msg := strings.ToLower(err.Error())
	for _, frag := range editClassFragments {
		if strings.Contains(msg, frag) {
			return true
		}
	}
	return false
}

func isTransientErr(err error) bool {
	var tgErr *tgbotapi.Error
	if errors.As(err, &tgErr) && tgErr.RetryAfter > 0 {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "retry after") ||
		strings.Contains(msg, "too many requests") ||
		strings.Contains(msg, "timeout")
}
