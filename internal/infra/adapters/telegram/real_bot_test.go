//go:build !integration

// File: internal/infra/adapters/telegram/real_bot_test.go
package telegram

import (
	"context"
	"io"
	"strings"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"

	"telegram-shop-bot/internal/application"
	"telegram-shop-bot/internal/config"
	"telegram-shop-bot/internal/domain/model"
	"telegram-shop-bot/internal/infra/memory"
	"telegram-shop-bot/internal/usecase"
)

// stubShopAPI is a minimal healthy backend for adapter-level tests.
type stubShopAPI struct{}

func (stubShopAPI) CreateOrFetchUser(ctx context.Context, username string) (*model.User, error) {
	return &model.User{ID: "u-1", Username: username}, nil
}
func (stubShopAPI) GetWallet(ctx context.Context, username string) (*model.Wallet, error) {
	return &model.Wallet{Balance: 10}, nil
}
func (stubShopAPI) ListCategories(ctx context.Context) ([]model.Category, error) {
	return []model.Category{{ID: "cat-a", Base: "Alpha", Price: "$4"}}, nil
}
func (stubShopAPI) ListProducts(ctx context.Context, username string, f model.Filters) (*model.Availability, error) {
	return &model.Availability{Quantity: 7}, nil
}
func (stubShopAPI) Checkout(ctx context.Context, username string, f model.Filters, quantity int) (*model.CheckoutResult, error) {
	return &model.CheckoutResult{FileName: "order.txt", Message: "ok"}, nil
}
func (stubShopAPI) ListCurrencies(ctx context.Context) ([]model.Currency, error) {
	return []model.Currency{{Code: "btc", Name: "Bitcoin"}}, nil
}
func (stubShopAPI) CreateDeposit(ctx context.Context, amount float64, currency, username, note string) (*model.Deposit, error) {
	return &model.Deposit{Status: "waiting"}, nil
}
func (stubShopAPI) Download(ctx context.Context, url string) ([]byte, error) {
	return []byte("data"), nil
}

// newTestBot wires a bot adapter over fake transport and an in-memory stack,
// skipping the network-touching constructor.
func newTestBot() (*RealBotAdapter, *fakeAPI, *memory.SessionRepo, *memory.RateLimiter) {
	logger := zerolog.New(io.Discard)
	api := &fakeAPI{}
	locks := memory.NewKeyedLock()
	limiter := memory.NewRateLimiter(0)
	sessions := memory.NewSessionRepo(0)

	shopAPI := stubShopAPI{}
	facade := application.NewBotFacade(
		usecase.NewUserUseCase(shopAPI, sessions, "", "", &logger),
		usecase.NewShopUseCase(shopAPI, sessions, &logger),
		usecase.NewPaymentUseCase(shopAPI, sessions, 10, 10000, &logger),
	)

	cfg := &config.Config{}
	cfg.Limits = config.LimitsConfig{
		MessagesPerMinute:  15,
		CallbacksPerMinute: 20,
		StartsPerMinute:    5,
		WalletsPerMinute:   10,
		DuplicateInterval:  2 * time.Second,
	}

	return &RealBotAdapter{
		cfg:       cfg,
		facade:    facade,
		limiter:   limiter,
		locks:     locks,
		sessions:  sessions,
		messenger: NewMessenger(api, locks, 1000, 1000, &logger),
		log:       &logger,
	}, api, sessions, limiter
}

func query(userID int64, data string, messageID int) *tgbotapi.CallbackQuery {
	return &tgbotapi.CallbackQuery{
		ID:      "q-1",
		From:    &tgbotapi.User{ID: userID, UserName: "alice"},
		Message: &tgbotapi.Message{MessageID: messageID, Chat: &tgbotapi.Chat{ID: userID}},
		Data:    data,
	}
}

func textMessage(userID int64, text string) *tgbotapi.Message {
	return &tgbotapi.Message{
		From: &tgbotapi.User{ID: userID, UserName: "alice"},
		Chat: &tgbotapi.Chat{ID: userID},
		Text: text,
	}
}

func TestBot_CallbackRouting(t *testing.T) {
	ctx := context.Background()

	t.Run("menu tap edits the tapped message", func(t *testing.T) {
		bot, api, _, _ := newTestBot()

		if err := bot.handleQuery(ctx, query(1, "cmd:menu", 7)); err != nil {
			t.Fatalf("handleQuery: %v", err)
		}
		if api.sentCount() != 1 {
			t.Fatalf("expected 1 outbound call, got %d", api.sentCount())
		}
		edit, ok := api.sent[0].(tgbotapi.EditMessageTextConfig)
		if !ok {
			t.Fatalf("expected edit, got %T", api.sent[0])
		}
		if edit.MessageID != 7 {
			t.Errorf("expected edit of message 7, got %d", edit.MessageID)
		}
		if !strings.Contains(edit.Text, "Main Menu") {
			t.Errorf("unexpected edit text: %q", edit.Text)
		}
	})

	t.Run("category tap advances the workflow", func(t *testing.T) {
		bot, api, sessions, _ := newTestBot()
		sessions.Set(1, model.NewSession(model.StepSelectingCategory))

		if err := bot.handleQuery(ctx, query(1, "cat:0", 7)); err != nil {
			t.Fatalf("handleQuery: %v", err)
		}
		if sess := sessions.Get(1); sess == nil || sess.Step != model.StepSelectingYear {
			t.Fatalf("expected selecting_year, got %+v", sess)
		}
		if api.sentCount() != 1 {
			t.Errorf("expected 1 edit, got %d", api.sentCount())
		}
	})

	t.Run("malformed payload is dropped silently", func(t *testing.T) {
		bot, api, _, _ := newTestBot()

		for _, data := range []string{"cat:xyz", "year:1990", "year:abc:def", "state:CALIFORNIA", "amount:btc"} {
			if err := bot.handleQuery(ctx, query(1, data, 7)); err != nil {
				t.Fatalf("handleQuery(%q): %v", data, err)
			}
		}
		if api.sentCount() != 0 {
			t.Errorf("malformed payloads must not render, got %d sends", api.sentCount())
		}
	})

	t.Run("unknown callback is ignored", func(t *testing.T) {
		bot, api, _, _ := newTestBot()

		if err := bot.handleQuery(ctx, query(1, "bogus:thing", 7)); err != nil {
			t.Fatalf("handleQuery: %v", err)
		}
		if api.sentCount() != 0 {
			t.Errorf("expected no render, got %d sends", api.sentCount())
		}
	})

	t.Run("stale workflow tap renders the expiry view", func(t *testing.T) {
		bot, api, _, _ := newTestBot()

		// No session: a year tap is out of order.
		if err := bot.handleQuery(ctx, query(1, "year:1990:1994", 7)); err != nil {
			t.Fatalf("handleQuery: %v", err)
		}
		if api.sentCount() != 1 {
			t.Fatalf("expected 1 edit, got %d", api.sentCount())
		}
		edit := api.sent[0].(tgbotapi.EditMessageTextConfig)
		if !strings.Contains(edit.Text, "expired") {
			t.Errorf("expected expiry view, got %q", edit.Text)
		}
	})
}

func TestBot_CallbackAdmission(t *testing.T) {
	ctx := context.Background()

	t.Run("quota exhaustion answers without rendering", func(t *testing.T) {
		bot, api, _, _ := newTestBot()
		bot.cfg.Limits.CallbacksPerMinute = 1

		if err := bot.handleQuery(ctx, query(1, "cmd:menu", 7)); err != nil {
			t.Fatalf("first tap: %v", err)
		}
		if err := bot.handleQuery(ctx, query(1, "cmd:menu", 8)); err != nil {
			t.Fatalf("second tap: %v", err)
		}
		// Only the first tap rendered.
		if api.sentCount() != 1 {
			t.Errorf("expected 1 render, got %d", api.sentCount())
		}
		// Both taps were acknowledged.
		if len(api.requests) != 2 {
			t.Errorf("expected 2 callback answers, got %d", len(api.requests))
		}
	})

	t.Run("double tap on the same button is collapsed", func(t *testing.T) {
		bot, api, _, _ := newTestBot()

		bot.locks.TryAcquire(tapKey(1, "cmd:menu", 7))
		defer bot.locks.Release(tapKey(1, "cmd:menu", 7))

		if err := bot.handleQuery(ctx, query(1, "cmd:menu", 7)); err != nil {
			t.Fatalf("handleQuery: %v", err)
		}
		if api.sentCount() != 0 {
			t.Errorf("duplicate tap must not render, got %d sends", api.sentCount())
		}
		if len(api.requests) != 1 {
			t.Errorf("duplicate tap must still be answered, got %d", len(api.requests))
		}
	})

	t.Run("same button on a different message is not a duplicate", func(t *testing.T) {
		bot, api, _, _ := newTestBot()

		if err := bot.handleQuery(ctx, query(1, "cmd:menu", 7)); err != nil {
			t.Fatalf("first: %v", err)
		}
		if err := bot.handleQuery(ctx, query(1, "cmd:menu", 8)); err != nil {
			t.Fatalf("second: %v", err)
		}
		if api.sentCount() != 2 {
			t.Errorf("expected both taps rendered, got %d", api.sentCount())
		}
	})
}

func TestBot_TextDispatch(t *testing.T) {
	ctx := context.Background()

	t.Run("quantity input routes into the shop workflow", func(t *testing.T) {
		bot, api, sessions, _ := newTestBot()
		sess := model.NewSession(model.StepEnteringQuantity)
		sess.Data[model.KeyBase] = "cat-a"
		sess.Data[model.KeyAvailableQuantity] = "7"
		sessions.Set(1, sess)

		if err := bot.handleMessage(ctx, textMessage(1, "5")); err != nil {
			t.Fatalf("handleMessage: %v", err)
		}
		if got := sessions.Get(1); got.Step != model.StepConfirmingCheckout {
			t.Errorf("expected confirming_checkout, got %s", got.Step)
		}
		msg := api.sent[0].(tgbotapi.MessageConfig)
		if !strings.Contains(msg.Text, "Order Summary") {
			t.Errorf("unexpected reply: %q", msg.Text)
		}
	})

	t.Run("custom amount input routes into the deposit workflow", func(t *testing.T) {
		bot, _, sessions, _ := newTestBot()
		sessions.Set(1, model.NewSession(model.StepEnteringCustomAmount))

		if err := bot.handleMessage(ctx, textMessage(1, "42.50")); err != nil {
			t.Fatalf("handleMessage: %v", err)
		}
		if got := sessions.Get(1); got.Step != model.StepSelectingCryptoCustom {
			t.Errorf("expected selecting_crypto_custom, got %s", got.Step)
		}
	})

	t.Run("unexpected text gets a hint", func(t *testing.T) {
		bot, api, _, _ := newTestBot()

		if err := bot.handleMessage(ctx, textMessage(1, "hello?")); err != nil {
			t.Fatalf("handleMessage: %v", err)
		}
		msg := api.sent[0].(tgbotapi.MessageConfig)
		if !strings.Contains(msg.Text, "/start") {
			t.Errorf("expected hint, got %q", msg.Text)
		}
	})

	t.Run("rapid duplicate text is suppressed silently", func(t *testing.T) {
		bot, api, sessions, _ := newTestBot()
		sess := model.NewSession(model.StepEnteringQuantity)
		sess.Data[model.KeyAvailableQuantity] = "7"
		sessions.Set(1, sess)

		if err := bot.handleMessage(ctx, textMessage(1, "5")); err != nil {
			t.Fatalf("first: %v", err)
		}
		if err := bot.handleMessage(ctx, textMessage(1, "5")); err != nil {
			t.Fatalf("second: %v", err)
		}
		if api.sentCount() != 1 {
			t.Errorf("expected duplicate suppressed, got %d sends", api.sentCount())
		}
	})

	t.Run("message quota rejection replies once per event", func(t *testing.T) {
		bot, api, _, _ := newTestBot()
		bot.cfg.Limits.MessagesPerMinute = 1

		if err := bot.handleMessage(ctx, textMessage(1, "first")); err != nil {
			t.Fatalf("first: %v", err)
		}
		if err := bot.handleMessage(ctx, textMessage(1, "second")); err != nil {
			t.Fatalf("second: %v", err)
		}
		last := api.sent[api.sentCount()-1].(tgbotapi.MessageConfig)
		if !strings.Contains(last.Text, "slow down") {
			t.Errorf("expected slow-down reply, got %q", last.Text)
		}
	})
}

func TestBot_CommandDispatch(t *testing.T) {
	ctx := context.Background()

	t.Run("reset clears an in-flight workflow", func(t *testing.T) {
		bot, _, sessions, _ := newTestBot()
		sessions.Set(1, model.NewSession(model.StepConfirmingCheckout))

		msg := textMessage(1, "/reset")
		msg.Entities = []tgbotapi.MessageEntity{{Type: "bot_command", Offset: 0, Length: 6}}
		if err := bot.handleMessage(ctx, msg); err != nil {
			t.Fatalf("handleMessage: %v", err)
		}
		if sessions.Get(1) != nil {
			t.Error("expected session cleared by /reset")
		}
	})

	t.Run("start quota is tighter than the message quota", func(t *testing.T) {
		bot, api, _, _ := newTestBot()
		bot.cfg.Limits.StartsPerMinute = 1

		start := func() *tgbotapi.Message {
			m := textMessage(1, "/start")
			m.Entities = []tgbotapi.MessageEntity{{Type: "bot_command", Offset: 0, Length: 6}}
			return m
		}
		if err := bot.handleMessage(ctx, start()); err != nil {
			t.Fatalf("first: %v", err)
		}
		if err := bot.handleMessage(ctx, start()); err != nil {
			t.Fatalf("second: %v", err)
		}
		last := api.sent[api.sentCount()-1].(tgbotapi.MessageConfig)
		if !strings.Contains(last.Text, "slow down") {
			t.Errorf("expected slow-down reply, got %q", last.Text)
		}
	})
}

func TestCommandQuota(t *testing.T) {
	limits := &config.LimitsConfig{
		MessagesPerMinute: 15,
		StartsPerMinute:   5,
		WalletsPerMinute:  10,
	}

	cases := []struct {
		command string
		wantCat memory.Category
		wantMax int
	}{
		{"start", memory.Category("start"), 5},
		{"wallet", memory.Category("wallet"), 10},
		{"balance", memory.Category("wallet"), 10},
		{"shop", memory.CategoryCommand, 15},
		{"help", memory.CategoryCommand, 15},
	}
	for _, tc := range cases {
		cat, max := commandQuota(limits, tc.command)
		if cat != tc.wantCat || max != tc.wantMax {
			t.Errorf("commandQuota(%q) = (%s, %d), want (%s, %d)", tc.command, cat, max, tc.wantCat, tc.wantMax)
		}
	}
}
