package adapter

import (
	"context"

	"telegram-shop-bot/internal/domain/model"
)

// ShopAPI is the port to the shop backend REST API. Transport failures
// (timeout, connection refused, non-2xx) are reported as errors wrapping
// domain.ErrBackendUnavailable.
type ShopAPI interface {
	CreateOrFetchUser(ctx context.Context, username string) (*model.User, error)
	GetWallet(ctx context.Context, username string) (*model.Wallet, error)
	ListCategories(ctx context.Context) ([]model.Category, error)
	ListProducts(ctx context.Context, username string, f model.Filters) (*model.Availability, error)
	// Checkout is independently idempotent per attempt: a fresh idempotency
	// key is generated for every call, so a retry after a reported failure
	// can never silently double-submit.
	Checkout(ctx context.Context, username string, f model.Filters, quantity int) (*model.CheckoutResult, error)
	ListCurrencies(ctx context.Context) ([]model.Currency, error)
	CreateDeposit(ctx context.Context, amount float64, currency, username, note string) (*model.Deposit, error)
	// Download fetches a checkout artifact by its backend URL.
	Download(ctx context.Context, url string) ([]byte, error)
}
