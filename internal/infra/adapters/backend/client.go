// File: internal/infra/adapters/backend/client.go
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"

	"telegram-shop-bot/internal/domain"
	"telegram-shop-bot/internal/domain/model"
	"telegram-shop-bot/internal/domain/ports/adapter"
	"telegram-shop-bot/internal/infra/metrics"
)

var _ adapter.ShopAPI = (*Client)(nil)

// Client talks to the shop backend REST API. Transport-level failures and
// non-2xx statuses come back wrapping domain.ErrBackendUnavailable so callers
// can treat them uniformly.
type Client struct {
	baseURL  string
	http     *http.Client
	checkout *http.Client // checkout generates a file server-side, give it longer
	log      *zerolog.Logger
}

func NewClient(baseURL string, timeout, checkoutTimeout time.Duration, logger *zerolog.Logger) (*Client, error) {
	if baseURL == "" {
		return nil, errors.New("backend base url empty")
	}
	if _, err := url.Parse(baseURL); err != nil {
		return nil, fmt.Errorf("invalid base url: %w", err)
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if checkoutTimeout <= 0 {
		checkoutTimeout = 15 * time.Second
	}
	cl := logger.With().Str("component", "ShopAPI").Logger()
	return &Client{
		baseURL:  baseURL,
		http:     &http.Client{Timeout: timeout},
		checkout: &http.Client{Timeout: checkoutTimeout},
		log:      &cl,
	}, nil
}

func (c *Client) endpoint(path string) string { return c.baseURL + path }

// do runs one request and decodes the 2xx body into out (when non-nil).
func (c *Client) do(ctx context.Context, hc *http.Client, name, method, rawURL string, body, out any, header http.Header) error {
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("%s: marshal request: %w", name, err)
		}
		rd = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, rawURL, rd)
	if err != nil {
		return fmt.Errorf("%s: build request: %w", name, err)
	}
	req.Header.Set("Content-Type", "application/json")
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}

	start := time.Now()
	resp, err := hc.Do(req)
	if err != nil {
		metrics.ObserveBackendRequest(name, false, time.Since(start))
		c.log.Warn().Err(err).Str("endpoint", name).Msg("backend request failed")
		return fmt.Errorf("%s: %w: %v", name, domain.ErrBackendUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		metrics.ObserveBackendRequest(name, false, time.Since(start))
		msg := apiErrorMessage(resp.Body)
		c.log.Warn().Int("status", resp.StatusCode).Str("endpoint", name).Str("message", msg).Msg("backend rejected request")
		if msg == "" {
			msg = http.StatusText(resp.StatusCode)
		}
		return fmt.Errorf("%s: %w: %s", name, domain.ErrBackendUnavailable, msg)
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			metrics.ObserveBackendRequest(name, false, time.Since(start))
			return fmt.Errorf("%s: decode response: %w", name, err)
		}
	}
	metrics.ObserveBackendRequest(name, true, time.Since(start))
	return nil
}

func apiErrorMessage(r io.Reader) string {
	var out struct {
		Message string `json:"message"`
	}
	if err := json.NewDecoder(r).Decode(&out); err != nil {
		return ""
	}
	return out.Message
}

func (c *Client) CreateOrFetchUser(ctx context.Context, username string) (*model.User, error) {
	var out struct {
		User model.User `json:"user"`
	}
	payload := map[string]string{"username": username}
	if err := c.do(ctx, c.http, "create-user", http.MethodPost, c.endpoint("/create-user"), payload, &out, nil); err != nil {
		return nil, err
	}
	return &out.User, nil
}

func (c *Client) GetWallet(ctx context.Context, username string) (*model.Wallet, error) {
	var out struct {
		Data model.Wallet `json:"data"`
	}
	if err := c.do(ctx, c.http, "wallet", http.MethodGet, c.endpoint("/wallet/"+url.PathEscape(username)), nil, &out, nil); err != nil {
		return nil, err
	}
	return &out.Data, nil
}

func (c *Client) ListCategories(ctx context.Context) ([]model.Category, error) {
	var out struct {
		Bases []model.Category `json:"bases"`
	}
	if err := c.do(ctx, c.http, "bases", http.MethodGet, c.endpoint("/bases"), nil, &out, nil); err != nil {
		return nil, err
	}
	return out.Bases, nil
}

func (c *Client) ListProducts(ctx context.Context, username string, f model.Filters) (*model.Availability, error) {
	q := url.Values{}
	q.Set("username", username)
	q.Set("isBot", "yes")
	if f.Base != "" {
		q.Set("base", f.Base)
	}
	if f.State != "" {
		q.Set("state", f.State)
	}
	// Year range is expressed as a date-of-birth span on the wire.
	if f.YearFrom > 0 && f.YearTo > 0 {
		q.Set("dob", strconv.Itoa(f.YearFrom))
		q.Set("dobMax", strconv.Itoa(f.YearTo))
	}

	var out struct {
		Count    int              `json:"count"`
		Products []map[string]any `json:"products"`
	}
	if err := c.do(ctx, c.http, "products", http.MethodGet, c.endpoint("/ssns")+"?"+q.Encode(), nil, &out, nil); err != nil {
		return nil, err
	}
	return &model.Availability{Quantity: out.Count, Products: out.Products}, nil
}

func (c *Client) Checkout(ctx context.Context, username string, f model.Filters, quantity int) (*model.CheckoutResult, error) {
	payload := map[string]any{
		"username": username,
		"number":   quantity,
		"filters":  filterBody(f),
	}
	// Fresh key per attempt: a retry after a reported failure is an
	// independent submission, never a replay of the failed one.
	header := http.Header{"Idempotency-Key": []string{ulid.Make().String()}}

	var out struct {
		Message  string `json:"message"`
		Filename string `json:"filename"`
		Path     string `json:"path"`
		Size     int64  `json:"size"`
	}
	if err := c.do(ctx, c.checkout, "checkout", http.MethodPost, c.endpoint("/checkout"), payload, &out, header); err != nil {
		return nil, err
	}
	if out.Filename == "" || out.Path == "" {
		return nil, fmt.Errorf("checkout: %w: response missing filename or path", domain.ErrBackendUnavailable)
	}
	return &model.CheckoutResult{
		FileName:    out.Filename,
		FileSize:    out.Size,
		DownloadURL: out.Path,
		Message:     out.Message,
	}, nil
}

func filterBody(f model.Filters) map[string]any {
	body := map[string]any{"base": f.Base}
	if f.YearFrom > 0 && f.YearTo > 0 {
		body["yearFrom"] = f.YearFrom
		body["yearTo"] = f.YearTo
	}
	if f.State != "" {
		body["state"] = f.State
	}
	return body
}

func (c *Client) ListCurrencies(ctx context.Context) ([]model.Currency, error) {
	var out struct {
		Currencies []model.Currency `json:"currencies"`
	}
	if err := c.do(ctx, c.http, "currencies", http.MethodGet, c.endpoint("/get-currencies"), nil, &out, nil); err != nil {
		return nil, err
	}
	return out.Currencies, nil
}

func (c *Client) CreateDeposit(ctx context.Context, amount float64, currency, username, note string) (*model.Deposit, error) {
	payload := map[string]any{
		"amount":         amount,
		"cryptoCurrency": currency,
		"username":       username,
		"description":    note,
	}
	var out struct {
		Data struct {
			PaymentData struct {
				PriceAmount float64 `json:"price_amount"`
				PayAmount   string  `json:"pay_amount"`
				PayCurrency string  `json:"pay_currency"`
				PayAddress  string  `json:"pay_address"`
				Network     string  `json:"network"`
				OrderID     string  `json:"order_id"`
			} `json:"paymentData"`
			TransactionID string `json:"transactionId"`
			Status        string `json:"status"`
		} `json:"data"`
	}
	if err := c.do(ctx, c.http, "deposit", http.MethodPost, c.endpoint("/deposit"), payload, &out, nil); err != nil {
		return nil, err
	}
	d := out.Data
	return &model.Deposit{
		TransactionID: d.TransactionID,
		Status:        d.Status,
		PriceAmount:   d.PaymentData.PriceAmount,
		PayAmount:     d.PaymentData.PayAmount,
		PayCurrency:   d.PaymentData.PayCurrency,
		PayAddress:    d.PaymentData.PayAddress,
		Network:       d.PaymentData.Network,
		OrderID:       d.PaymentData.OrderID,
	}, nil
}

func (c *Client) Download(ctx context.Context, rawURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("download: build request: %w", err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("download: %w: %v", domain.ErrBackendUnavailable, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("download: %w: status %d", domain.ErrBackendUnavailable, resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}
