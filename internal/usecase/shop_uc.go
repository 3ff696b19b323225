// File: internal/usecase/shop_uc.go
package usecase

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"telegram-shop-bot/internal/domain"
	"telegram-shop-bot/internal/domain/model"
	"telegram-shop-bot/internal/domain/ports/adapter"
	"telegram-shop-bot/internal/domain/ports/repository"
	"telegram-shop-bot/internal/infra/logging"
	"telegram-shop-bot/internal/infra/metrics"
)

// Compile-time check
var _ ShopUseCase = (*shopUC)(nil)

// ShopUseCase is the purchase workflow state machine:
//
//	idle → selecting_category → selecting_year → selecting_state →
//	entering_quantity → confirming_checkout → idle
//
// Every transition validates the session's current step against the trigger's
// expected predecessor. A mismatch is a stale session: the caller gets
// domain.ErrStaleSession, state is never mutated, and no recovery path is
// guessed.
type ShopUseCase interface {
	OpenShop(ctx context.Context, userID int64, username string) (*View, error)
	SelectCategory(ctx context.Context, userID int64, index int) (*View, error)
	SelectYearRange(ctx context.Context, userID int64, from, to int) (*View, error)
	SkipYear(ctx context.Context, userID int64) (*View, error)
	SelectState(ctx context.Context, userID int64, username, state string) (*View, error)
	SkipState(ctx context.Context, userID int64, username string) (*View, error)
	EnterQuantity(ctx context.Context, userID int64, text string) (*View, error)
	ConfirmCheckout(ctx context.Context, userID int64, username string) (*View, error)
	CancelCheckout(userID int64) *View
}

type shopUC struct {
	api      adapter.ShopAPI
	sessions repository.SessionRepository
	log      *zerolog.Logger
}

func NewShopUseCase(api adapter.ShopAPI, sessions repository.SessionRepository, logger *zerolog.Logger) *shopUC {
	l := logger.With().Str("component", "ShopUC").Logger()
	return &shopUC{api: api, sessions: sessions, log: &l}
}

// OpenShop discards any accumulated filters and lists the categories.
func (s *shopUC) OpenShop(ctx context.Context, userID int64, username string) (*View, error) {
	defer logging.TraceDuration(s.log, "ShopUC.OpenShop")()

	if username == "" {
		return nil, domain.ErrNoUsername
	}
	categories, err := s.api.ListCategories(ctx)
	if err != nil {
		return nil, fmt.Errorf("open shop: %w", err)
	}

	s.sessions.Set(userID, model.NewSession(model.StepSelectingCategory))
	if len(categories) == 0 {
		return &View{Text: "📭 No categories available right now.", Rows: BackToMainRows()}, nil
	}
	return &View{
		Text: "🛍️ *Shop Categories*\n\nSelect a category (base and price):",
		Rows: categoriesRows(categories),
	}, nil
}

// SelectCategory is the workflow-entering trigger; it is accepted from any
// state and replaces whatever was accumulated before.
func (s *shopUC) SelectCategory(ctx context.Context, userID int64, index int) (*View, error) {
	defer logging.TraceDuration(s.log, "ShopUC.SelectCategory")()

	categories, err := s.api.ListCategories(ctx)
	if err != nil {
		return nil, fmt.Errorf("select category: %w", err)
	}
	if index < 0 || index >= len(categories) {
		// The list changed since the keyboard was rendered.
		return nil, domain.ErrStaleSession
	}
	chosen := categories[index]

	sess := model.NewSession(model.StepSelectingYear)
	sess.Data[model.KeyBase] = chosen.ID
	sess.Data[model.KeyCategoryLabel] = chosen.Base
	s.sessions.Set(userID, sess)

	return &View{
		Text: fmt.Sprintf("📅 *Year Range Filter*\n\nSelected: %s\n\nSelect a year range or skip to see all products:", chosen.Base),
		Rows: yearRangeRows(),
	}, nil
}

func (s *shopUC) SelectYearRange(ctx context.Context, userID int64, from, to int) (*View, error) {
	defer logging.TraceDuration(s.log, "ShopUC.SelectYearRange")()

	sess := s.require(userID, model.StepSelectingYear)
	if sess == nil {
		return nil, domain.ErrStaleSession
	}
	s.sessions.Merge(userID, model.StepSelectingState, map[string]string{
		model.KeyYearFrom: strconv.Itoa(from),
		model.KeyYearTo:   strconv.Itoa(to),
	})
	return stateFilterView(), nil
}

func (s *shopUC) SkipYear(ctx context.Context, userID int64) (*View, error) {
	defer logging.TraceDuration(s.log, "ShopUC.SkipYear")()

	sess := s.require(userID, model.StepSelectingYear)
	if sess == nil {
		return nil, domain.ErrStaleSession
	}
	s.sessions.Merge(userID, model.StepSelectingState, nil)
	return stateFilterView(), nil
}

func stateFilterView() *View {
	return &View{
		Text: "🏛️ *State Filter*\n\nSelect a US state or skip to see all products:",
		Rows: stateRows(),
	}
}

func (s *shopUC) SelectState(ctx context.Context, userID int64, username, state string) (*View, error) {
	defer logging.TraceDuration(s.log, "ShopUC.SelectState")()

	sess := s.require(userID, model.StepSelectingState)
	if sess == nil {
		return nil, domain.ErrStaleSession
	}
	sess = s.sessions.Merge(userID, model.StepSelectingState, map[string]string{model.KeyState: state})
	return s.searchProducts(ctx, userID, username, sess.Filters())
}

func (s *shopUC) SkipState(ctx context.Context, userID int64, username string) (*View, error) {
	defer logging.TraceDuration(s.log, "ShopUC.SkipState")()

	sess := s.require(userID, model.StepSelectingState)
	if sess == nil {
		return nil, domain.ErrStaleSession
	}
	return s.searchProducts(ctx, userID, username, sess.Filters())
}

// searchProducts queries availability for the accumulated filters and either
// advances to quantity entry or terminates the workflow on zero results.
func (s *shopUC) searchProducts(ctx context.Context, userID int64, username string, f model.Filters) (*View, error) {
	avail, err := s.api.ListProducts(ctx, username, f)
	if err != nil {
		return nil, fmt.Errorf("search products: %w", err)
	}

	if avail.Quantity == 0 {
		s.sessions.Clear(userID)
		return &View{
			Text: "📭 *No Products Available*\n\nNo products found with your current filters.",
			Rows: [][]adapter.InlineButton{
				adapter.Row(adapter.InlineButton{Text: "🔄 Try Different Category", Data: "cmd:shop"}),
				adapter.Row(adapter.InlineButton{Text: "🏠 Main Menu", Data: "cmd:menu"}),
			},
		}, nil
	}

	s.sessions.Merge(userID, model.StepEnteringQuantity, map[string]string{
		model.KeyAvailableQuantity: strconv.Itoa(avail.Quantity),
	})
	return &View{
		Text: fmt.Sprintf("📦 *Products Found*\n\n*Available Quantity:* %d\n\nPlease type the quantity you want to purchase (1-%d):", avail.Quantity, avail.Quantity),
		Rows: backToShopRows(),
	}, nil
}

// EnterQuantity validates free-text quantity input. Invalid input re-prompts
// in the same state; the user may retry until the session expires.
func (s *shopUC) EnterQuantity(ctx context.Context, userID int64, text string) (*View, error) {
	defer logging.TraceDuration(s.log, "ShopUC.EnterQuantity")()

	sess := s.require(userID, model.StepEnteringQuantity)
	if sess == nil {
		return nil, domain.ErrStaleSession
	}
	available, ok := sess.Int(model.KeyAvailableQuantity)
	if !ok {
		return nil, domain.ErrStaleSession
	}

	qty, err := strconv.Atoi(strings.TrimSpace(text))
	if err != nil || qty <= 0 {
		return &View{
			Text: "❌ Please enter a valid number (e.g., 5)",
			Rows: backToShopRows(),
		}, nil
	}
	if qty > available {
		return &View{
			Text: fmt.Sprintf("❌ Only %d items available. Please enter a smaller number.", available),
			Rows: backToShopRows(),
		}, nil
	}

	s.sessions.Merge(userID, model.StepConfirmingCheckout, map[string]string{
		model.KeyQuantity: strconv.Itoa(qty),
	})
	return &View{
		Text: fmt.Sprintf("🛒 *Order Summary*\n\n*Quantity:* %d items\n*Available:* %d items\n\nConfirm your purchase?", qty, available),
		Rows: checkoutRows(),
	}, nil
}

// ConfirmCheckout submits the purchase. On success the session is cleared and
// the artifact is fetched for delivery; on backend failure the session is left
// untouched so the user can retry without losing progress.
func (s *shopUC) ConfirmCheckout(ctx context.Context, userID int64, username string) (*View, error) {
	defer logging.TraceDuration(s.log, "ShopUC.ConfirmCheckout")()

	sess := s.require(userID, model.StepConfirmingCheckout)
	if sess == nil {
		return nil, domain.ErrStaleSession
	}
	qty, ok := sess.Int(model.KeyQuantity)
	if !ok {
		return nil, domain.ErrStaleSession
	}

	result, err := s.api.Checkout(ctx, username, sess.Filters(), qty)
	if err != nil {
		metrics.IncCheckout(false)
		return nil, fmt.Errorf("checkout: %w", err)
	}
	metrics.IncCheckout(true)
	s.sessions.Clear(userID)

	sizeText := ""
	if result.FileSize > 0 {
		sizeText = fmt.Sprintf(" (%.2f KB)", float64(result.FileSize)/1024)
	}
	view := &View{
		Text: fmt.Sprintf("✅ *Purchase Successful!*\n\n%s\n\n📄 *File:* %s%s\n\n💡 _Copy the contents of the file and keep them safe!_",
			result.Message, result.FileName, sizeText),
		Rows: afterPurchaseRows(),
	}

	// Artifact delivery is best-effort; the purchase already succeeded.
	if result.DownloadURL != "" {
		data, err := s.api.Download(ctx, result.DownloadURL)
		if err != nil {
			s.log.Warn().Err(err).Str("file", result.FileName).Msg("artifact download failed, user keeps the link")
		} else {
			view.Document = &Document{Name: result.FileName, Caption: "📁 " + result.FileName, Data: data}
		}
	}
	return view, nil
}

// CancelCheckout discards the accumulated filters and returns to the menu.
func (s *shopUC) CancelCheckout(userID int64) *View {
	s.sessions.Clear(userID)
	return &View{
		Text: "❌ Purchase cancelled.\n\nWhat would you like to do?",
		Rows: MainMenuRows(),
	}
}

// require returns the live session only when it sits at the expected step.
func (s *shopUC) require(userID int64, step model.Step) *model.Session {
	sess := s.sessions.Get(userID)
	if sess == nil || sess.Step != step {
		metrics.IncStaleSessionHit()
		return nil
	}
	return sess
}
