package repository

import (
	"telegram-shop-bot/internal/domain/model"
)

// SessionRepository is the port for managing any user's conversational state.
//
// Every method is a single synchronous step: implementations must not perform
// I/O or otherwise suspend inside a call, so that a read-modify-write in the
// dispatcher cannot interleave with another update for the same user.
//
// Sessions returned by Get and Merge are private copies: the caller may read
// and mutate them freely without synchronizing against other events for the
// same user. Only Set and Merge change stored state.
type SessionRepository interface {
	// Set replaces the session wholesale and stamps the current time.
	Set(userID int64, s *model.Session)
	// Get returns the session, or nil when absent or expired. An expired
	// entry is deleted as a side effect of the read.
	Get(userID int64) *model.Session
	// Merge shallow-merges data over the existing session (or a fresh one
	// when absent/expired), moves it to step, and stamps the current time.
	Merge(userID int64, step model.Step, data map[string]string) *model.Session
	// Clear deletes the session unconditionally.
	Clear(userID int64)
	// SweepExpired deletes every entry older than the TTL and reports how
	// many were removed.
	SweepExpired() int
	// Len reports the number of live entries.
	Len() int
}
