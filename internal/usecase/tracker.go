package usecase

import (
	"sync"

	"recserve/internal/metrics"
)

// UserTracker maintains the unique-user gauge. It is the only mutable
// shared state on the serving path; the mutex keeps concurrent requests
// from losing insertions. The set resets on restart; it is approximate
// telemetry, not a correctness structure.
type UserTracker struct {
	mu   sync.Mutex
	seen map[string]struct{}
}

func NewUserTracker() *UserTracker {
	return &UserTracker{seen: make(map[string]struct{})}
}

func (t *UserTracker) Track(userID string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.seen[userID]; ok {
		return
	}
	t.seen[userID] = struct{}{}
	metrics.ActiveUsers.Set(float64(len(t.seen)))
}

func (t *UserTracker) Count() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.seen)
}
