//go:build !integration

// File: internal/usecase/user_uc_test.go
package usecase

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"telegram-shop-bot/internal/domain"
	"telegram-shop-bot/internal/domain/model"
	"telegram-shop-bot/internal/infra/memory"
)

func newUserFixture() (*userUC, *mockShopAPI, *memory.SessionRepo) {
	api := newMockShopAPI()
	sessions := memory.NewSessionRepo(0)
	uc := NewUserUseCase(api, sessions, "https://t.me/support", "https://t.me/channel", newTestLogger())
	return uc, api, sessions
}

func TestUserUC_Start(t *testing.T) {
	ctx := context.Background()

	t.Run("creates the backend account and greets", func(t *testing.T) {
		uc, api, _ := newUserFixture()

		view, err := uc.Start(ctx, "alice", "Alice")
		if err != nil {
			t.Fatalf("Start: %v", err)
		}
		if len(api.userCalls) != 1 || api.userCalls[0] != "alice" {
			t.Errorf("unexpected user calls: %v", api.userCalls)
		}
		if !strings.Contains(view.Text, "Welcome, Alice") || !strings.Contains(view.Text, "@alice") {
			t.Errorf("unexpected greeting: %q", view.Text)
		}
	})

	t.Run("rejects accounts without a username", func(t *testing.T) {
		uc, api, _ := newUserFixture()

		if _, err := uc.Start(ctx, "", "Alice"); !errors.Is(err, domain.ErrNoUsername) {
			t.Fatalf("expected ErrNoUsername, got %v", err)
		}
		if len(api.userCalls) != 0 {
			t.Error("backend must not be called without a username")
		}
	})

	t.Run("surfaces backend failures", func(t *testing.T) {
		uc, api, _ := newUserFixture()
		api.err = domain.ErrBackendUnavailable

		if _, err := uc.Start(ctx, "alice", "Alice"); !errors.Is(err, domain.ErrBackendUnavailable) {
			t.Fatalf("expected backend error, got %v", err)
		}
	})
}

func TestUserUC_Wallet(t *testing.T) {
	ctx := context.Background()
	uc, api, _ := newUserFixture()

	created := time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC)
	api.wallet = &model.Wallet{
		Balance: 123.45,
		Transactions: []model.Transaction{
			{PriceAmount: 25, PayCurrency: "btc", Status: "completed", CreatedAt: created},
			{PriceAmount: 10, PayCurrency: "ltc", Status: "waiting", CreatedAt: created},
			{PriceAmount: 5, PayCurrency: "btc", Status: "failed", CreatedAt: created},
			{PriceAmount: 5, PayCurrency: "btc", Status: "completed", CreatedAt: created},
			{PriceAmount: 5, PayCurrency: "btc", Status: "completed", CreatedAt: created},
			{PriceAmount: 99, PayCurrency: "btc", Status: "completed", CreatedAt: created},
		},
	}

	view, err := uc.Wallet(ctx, "alice")
	if err != nil {
		t.Fatalf("Wallet: %v", err)
	}
	if !strings.Contains(view.Text, "123.45") {
		t.Errorf("balance missing: %q", view.Text)
	}
	// Only the five most recent entries are rendered.
	if strings.Contains(view.Text, "99.00") {
		t.Errorf("sixth transaction should be elided: %q", view.Text)
	}
	if !strings.Contains(view.Text, "... and 1 more") {
		t.Errorf("expected elision note: %q", view.Text)
	}
	if !strings.Contains(view.Text, "2026-03-14") {
		t.Errorf("expected formatted date: %q", view.Text)
	}
}

func TestUserUC_Reset(t *testing.T) {
	uc, _, sessions := newUserFixture()
	sessions.Set(testUser, model.NewSession(model.StepEnteringQuantity))

	view := uc.Reset(testUser)
	if !strings.Contains(view.Text, "reset") {
		t.Errorf("unexpected view: %q", view.Text)
	}
	if sessions.Get(testUser) != nil {
		t.Error("expected session cleared by reset")
	}
}

func TestUserUC_Help(t *testing.T) {
	uc, _, _ := newUserFixture()

	view := uc.Help("alice")
	if !strings.Contains(view.Text, "alice") {
		t.Errorf("expected username hint: %q", view.Text)
	}
	// Support and channel links plus the back row.
	if len(view.Rows) != 3 {
		t.Errorf("expected 3 keyboard rows, got %d", len(view.Rows))
	}

	anon := uc.Help("")
	if strings.Contains(anon.Text, "log in on the website") {
		t.Errorf("login hint should be omitted without a username: %q", anon.Text)
	}
}
