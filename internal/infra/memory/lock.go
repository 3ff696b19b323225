// File: internal/infra/memory/lock.go
package memory

import "sync"

// KeyedLock guards at-most-one in-flight mutation per key. It backs both the
// message-edit guard (key chatID:messageID) and callback deduplication
// (key userID:data:messageID).
type KeyedLock struct {
	mu   sync.Mutex
	held map[string]struct{}
}

func NewKeyedLock() *KeyedLock {
	return &KeyedLock{held: make(map[string]struct{})}
}

// TryAcquire marks key as held and returns true, or returns false when it is
// already held. The caller must abandon the operation on false.
func (l *KeyedLock) TryAcquire(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.held[key]; ok {
		return false
	}
	l.held[key] = struct{}{}
	return true
}

// Release clears the held marker. Callers release via defer so every exit
// path, success or failure, frees the key.
func (l *KeyedLock) Release(key string) {
	l.mu.Lock()
	delete(l.held, key)
	l.mu.Unlock()
}

// Held reports the number of keys currently held.
func (l *KeyedLock) Held() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.held)
}
