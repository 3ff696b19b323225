//go:build !integration

package memory

import (
	"strconv"
	"sync"
	"testing"
	"time"

	"telegram-shop-bot/internal/domain/model"
)

func TestSessionRepo_GetExpiry(t *testing.T) {
	clock := newFakeClock()
	repo := NewSessionRepo(30 * time.Minute).WithClock(clock.Now)

	s := model.NewSession(model.StepSelectingYear)
	s.Data[model.KeyBase] = "base-1"
	repo.Set(100, s)

	if got := repo.Get(100); got == nil || got.Step != model.StepSelectingYear {
		t.Fatalf("expected live session, got %+v", got)
	}

	clock.Advance(31 * time.Minute)
	if got := repo.Get(100); got != nil {
		t.Fatalf("expected nil after TTL, got %+v", got)
	}
	// Lazy expiry must delete the entry, not just hide it.
	if n := repo.Len(); n != 0 {
		t.Fatalf("expected no residual entry, repo has %d", n)
	}
}

func TestSessionRepo_Merge(t *testing.T) {
	t.Run("distinct keys accumulate", func(t *testing.T) {
		repo := NewSessionRepo(30 * time.Minute)
		repo.Merge(5, model.StepSelectingState, map[string]string{"a": "1"})
		s := repo.Merge(5, model.StepSelectingState, map[string]string{"b": "2"})
		if s.Data["a"] != "1" || s.Data["b"] != "2" {
			t.Fatalf("expected {a:1 b:2}, got %v", s.Data)
		}
	})

	t.Run("like-named keys are overwritten", func(t *testing.T) {
		repo := NewSessionRepo(30 * time.Minute)
		repo.Merge(5, model.StepSelectingState, map[string]string{"a": "1"})
		s := repo.Merge(5, model.StepSelectingState, map[string]string{"a": "9"})
		if s.Data["a"] != "9" {
			t.Fatalf("expected a=9, got %v", s.Data)
		}
	})

	t.Run("merge over an expired session starts fresh", func(t *testing.T) {
		clock := newFakeClock()
		repo := NewSessionRepo(30 * time.Minute).WithClock(clock.Now)

		repo.Merge(5, model.StepSelectingYear, map[string]string{"stale": "x"})
		clock.Advance(31 * time.Minute)
		s := repo.Merge(5, model.StepSelectingState, map[string]string{"fresh": "y"})
		if _, ok := s.Data["stale"]; ok {
			t.Fatal("expired data must not leak into the new session")
		}
		if s.Data["fresh"] != "y" || s.Step != model.StepSelectingState {
			t.Fatalf("unexpected session %+v", s)
		}
	})
}

func TestSessionRepo_SetReplacesWholesale(t *testing.T) {
	repo := NewSessionRepo(30 * time.Minute)
	repo.Merge(8, model.StepEnteringQuantity, map[string]string{"old": "1"})

	repl := model.NewSession(model.StepConfirmingCheckout)
	repl.Data["new"] = "2"
	repo.Set(8, repl)

	s := repo.Get(8)
	if _, ok := s.Data["old"]; ok {
		t.Fatal("Set must replace, not merge")
	}
	if s.Step != model.StepConfirmingCheckout || s.Data["new"] != "2" {
		t.Fatalf("unexpected session %+v", s)
	}
}

func TestSessionRepo_SweepExpired(t *testing.T) {
	clock := newFakeClock()
	repo := NewSessionRepo(30 * time.Minute).WithClock(clock.Now)

	repo.Set(1, model.NewSession(model.StepSelectingYear))
	clock.Advance(20 * time.Minute)
	repo.Set(2, model.NewSession(model.StepSelectingState))
	clock.Advance(15 * time.Minute) // user 1 now 35m idle, user 2 only 15m

	if n := repo.SweepExpired(); n != 1 {
		t.Fatalf("expected 1 swept session, got %d", n)
	}
	if repo.Get(1) != nil {
		t.Fatal("session 1 should be gone")
	}
	if repo.Get(2) == nil {
		t.Fatal("session 2 should survive")
	}
}

func TestSessionRepo_Clear(t *testing.T) {
	repo := NewSessionRepo(30 * time.Minute)
	repo.Set(3, model.NewSession(model.StepEnteringQuantity))
	repo.Clear(3)
	if repo.Get(3) != nil || repo.Len() != 0 {
		t.Fatal("clear should delete unconditionally")
	}
}

func TestSessionRepo_HandsOutCopies(t *testing.T) {
	repo := NewSessionRepo(30 * time.Minute)

	s := model.NewSession(model.StepEnteringQuantity)
	s.Data[model.KeyAvailableQuantity] = "7"
	repo.Set(9, s)

	// Mutating the caller's session after Set must not reach the store.
	s.Data[model.KeyAvailableQuantity] = "999"
	if got := repo.Get(9); got.Data[model.KeyAvailableQuantity] != "7" {
		t.Fatalf("Set stored an aliased session: %v", got.Data)
	}

	// Mutating a Get result must not reach the store either.
	got := repo.Get(9)
	got.Data[model.KeyQuantity] = "5"
	if again := repo.Get(9); again.Data[model.KeyQuantity] != "" {
		t.Fatalf("Get returned an aliased session: %v", again.Data)
	}

	// Same for a Merge result.
	merged := repo.Merge(9, model.StepEnteringQuantity, map[string]string{"a": "1"})
	merged.Data["a"] = "2"
	if again := repo.Get(9); again.Data["a"] != "1" {
		t.Fatalf("Merge returned an aliased session: %v", again.Data)
	}
}

func TestSessionRepo_ConcurrentReadersAndWriters(t *testing.T) {
	repo := NewSessionRepo(30 * time.Minute)
	repo.Set(1, model.NewSession(model.StepEnteringQuantity))

	// A reader inspecting its session while a writer merges the same user's
	// data must never share a map. Run under -race.
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < 500; i++ {
			repo.Merge(1, model.StepEnteringQuantity, map[string]string{
				model.KeyAvailableQuantity: strconv.Itoa(i),
			})
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < 500; i++ {
			if s := repo.Get(1); s != nil {
				s.Int(model.KeyAvailableQuantity)
			}
		}
	}()
	wg.Wait()
}
