// File: internal/usecase/mocks_test.go
package usecase

import (
	"context"
	"io"

	"github.com/rs/zerolog"

	"telegram-shop-bot/internal/domain/model"
	"telegram-shop-bot/internal/domain/ports/adapter"
)

func newTestLogger() *zerolog.Logger {
	l := zerolog.New(io.Discard)
	return &l
}

// mockShopAPI is a configurable in-memory stand-in for the backend REST API.
// Zero values behave like a healthy backend with empty data; tests override
// the fields they care about and inspect the recorded calls afterwards.
type mockShopAPI struct {
	categories []model.Category
	wallet     *model.Wallet
	avail      *model.Availability
	checkout   *model.CheckoutResult
	currencies []model.Currency
	deposit    *model.Deposit
	artifact   []byte

	err         error // returned by every call when set
	downloadErr error

	checkoutCalls []checkoutCall
	depositCalls  []depositCall
	listCalls     []model.Filters
	userCalls     []string
}

type checkoutCall struct {
	username string
	filters  model.Filters
	quantity int
}

type depositCall struct {
	amount   float64
	currency string
	username string
	note     string
}

var _ adapter.ShopAPI = (*mockShopAPI)(nil)

func newMockShopAPI() *mockShopAPI {
	return &mockShopAPI{
		wallet:   &model.Wallet{},
		avail:    &model.Availability{},
		checkout: &model.CheckoutResult{FileName: "order.txt", Message: "done"},
		deposit:  &model.Deposit{Status: "waiting"},
	}
}

func (m *mockShopAPI) CreateOrFetchUser(ctx context.Context, username string) (*model.User, error) {
	m.userCalls = append(m.userCalls, username)
	if m.err != nil {
		return nil, m.err
	}
	return &model.User{ID: "u-1", Username: username}, nil
}

func (m *mockShopAPI) GetWallet(ctx context.Context, username string) (*model.Wallet, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.wallet, nil
}

func (m *mockShopAPI) ListCategories(ctx context.Context) ([]model.Category, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.categories, nil
}

func (m *mockShopAPI) ListProducts(ctx context.Context, username string, f model.Filters) (*model.Availability, error) {
	m.listCalls = append(m.listCalls, f)
	if m.err != nil {
		return nil, m.err
	}
	return m.avail, nil
}

func (m *mockShopAPI) Checkout(ctx context.Context, username string, f model.Filters, quantity int) (*model.CheckoutResult, error) {
	m.checkoutCalls = append(m.checkoutCalls, checkoutCall{username: username, filters: f, quantity: quantity})
	if m.err != nil {
		return nil, m.err
	}
	return m.checkout, nil
}

func (m *mockShopAPI) ListCurrencies(ctx context.Context) ([]model.Currency, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.currencies, nil
}

func (m *mockShopAPI) CreateDeposit(ctx context.Context, amount float64, currency, username, note string) (*model.Deposit, error) {
	m.depositCalls = append(m.depositCalls, depositCall{amount: amount, currency: currency, username: username, note: note})
	if m.err != nil {
		return nil, m.err
	}
	return m.deposit, nil
}

func (m *mockShopAPI) Download(ctx context.Context, url string) ([]byte, error) {
	if m.downloadErr != nil {
		return nil, m.downloadErr
	}
	if m.err != nil {
		return nil, m.err
	}
	return m.artifact, nil
}
