// File: internal/infra/memory/session_repo.go
package memory

import (
	"sync"
	"time"

	"telegram-shop-bot/internal/domain/model"
	"telegram-shop-bot/internal/domain/ports/repository"
)

var _ repository.SessionRepository = (*SessionRepo)(nil)

// SessionRepo manages user conversational state in process memory.
//
// Expiry is dual: lazy on every read, plus a periodic SweepExpired so idle
// sessions are reclaimed even when never read again. Each method is one
// mutex-guarded step with no I/O inside, which is what makes a dispatcher's
// check-then-act on the session safe against interleaved updates.
//
// Sessions cross the repo boundary as clones, never as the stored pointer:
// dispatcher workers handle events for the same user concurrently, and a
// shared Data map would race between a reader and a Merge.
type SessionRepo struct {
	mu       sync.Mutex
	sessions map[int64]*model.Session
	ttl      time.Duration
	now      func() time.Time
}

func NewSessionRepo(ttl time.Duration) *SessionRepo {
	if ttl <= 0 {
		ttl = 30 * time.Minute // give users time to finish a checkout they paused at a data-entry step
	}
	return &SessionRepo{
		sessions: make(map[int64]*model.Session),
		ttl:      ttl,
		now:      time.Now,
	}
}

// WithClock overrides the time source. Tests use this to control expiry
// deterministically instead of sleeping.
func (r *SessionRepo) WithClock(now func() time.Time) *SessionRepo {
	r.now = now
	return r
}

func (r *SessionRepo) Set(userID int64, s *model.Session) {
	c := s.Clone()
	c.UpdatedAt = r.now()
	r.mu.Lock()
	r.sessions[userID] = c
	r.mu.Unlock()
}

func (r *SessionRepo) Get(userID int64) *model.Session {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[userID]
	if !ok {
		return nil
	}
	if r.now().Sub(s.UpdatedAt) > r.ttl {
		delete(r.sessions, userID)
		return nil
	}
	return s.Clone()
}

func (r *SessionRepo) Merge(userID int64, step model.Step, data map[string]string) *model.Session {
	now := r.now()
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[userID]
	if !ok || now.Sub(s.UpdatedAt) > r.ttl {
		s = model.NewSession(step)
	}
	s.Step = step
	for k, v := range data {
		s.Data[k] = v
	}
	s.UpdatedAt = now
	r.sessions[userID] = s
	return s.Clone()
}

func (r *SessionRepo) Clear(userID int64) {
	r.mu.Lock()
	delete(r.sessions, userID)
	r.mu.Unlock()
}

func (r *SessionRepo) SweepExpired() int {
	now := r.now()
	r.mu.Lock()
	defer r.mu.Unlock()
	removed := 0
	for id, s := range r.sessions {
		if now.Sub(s.UpdatedAt) > r.ttl {
			delete(r.sessions, id)
			removed++
		}
	}
	return removed
}

func (r *SessionRepo) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}
