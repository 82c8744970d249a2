// Package userlock serializes mutations per user. A single registry is
// shared by every service that mutates user state, so at most one turn,
// upload, or deletion is in flight for a given user at a time.
package userlock

import "sync"

// Registry hands out one mutex per user, created on first use.
type Registry struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{locks: make(map[string]*sync.Mutex)}
}

// Lock acquires the user's mutex and returns its unlock function.
func (r *Registry) Lock(userID string) func() {
	r.mu.Lock()
	l, ok := r.locks[userID]
	if !ok {
		l = &sync.Mutex{}
		r.locks[userID] = l
	}
	r.mu.Unlock()

	l.Lock()
	return l.Unlock
}
