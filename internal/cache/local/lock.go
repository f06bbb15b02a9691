// Package local provides single-process implementations of the journal's
// shared-state interfaces for deployments without Redis.
package local

import (
	"context"
	"sync"
	"time"

	"github.com/alanyoungcy/optjournal/internal/domain"
)

// LockManager implements domain.LockManager with an in-memory table. A lock
// is held until its unlock func runs; the TTL is ignored because every
// holder lives in this process and releases on return.
type LockManager struct {
	mu   sync.Mutex
	held map[string]uint64
	next uint64
}

// NewLockManager creates an empty LockManager.
func NewLockManager() *LockManager {
	return &LockManager{held: make(map[string]uint64)}
}

// Acquire obtains the lock for key or returns domain.ErrLockHeld.
func (lm *LockManager) Acquire(_ context.Context, key string, _ time.Duration) (func(), error) {
	lm.mu.Lock()
	defer lm.mu.Unlock()

	if _, ok := lm.held[key]; ok {
		return nil, domain.ErrLockHeld
	}
	lm.next++
	token := lm.next
	lm.held[key] = token

	var once sync.Once
	return func() {
		once.Do(func() {
			lm.mu.Lock()
			defer lm.mu.Unlock()
			if lm.held[key] == token {
				delete(lm.held, key)
			}
		})
	}, nil
}

var _ domain.LockManager = (*LockManager)(nil)
