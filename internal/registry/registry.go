// Package registry keeps live wizard and ECG sessions addressable by id.
package registry

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Entry is anything the registry can evict when idle.
type Entry interface {
	LastActive() time.Time
}

// Registry maps session ids to sessions. Each entry is also bound to the identity
// that created it so one browser cannot drive another's session.
type Registry[T Entry] struct {
	mu      sync.RWMutex
	entries map[uuid.UUID]owned[T]
}

type owned[T Entry] struct {
	owner string
	value T
}

// New creates an empty registry.
func New[T Entry]() *Registry[T] {
	return &Registry[T]{entries: make(map[uuid.UUID]owned[T])}
}

// Put stores v under id for owner, replacing any previous entry.
func (r *Registry[T]) Put(id uuid.UUID, owner string, v T) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries[id] = owned[T]{owner: owner, value: v}
}

// Get returns the entry for id when it belongs to owner.
func (r *Registry[T]) Get(id uuid.UUID, owner string) (T, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.entries[id]
	if !ok || e.owner != owner {
		var zero T
		return zero, false
	}
	return e.value, true
}

// Delete removes the entry for id when it belongs to owner.
func (r *Registry[T]) Delete(id uuid.UUID, owner string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.entries[id]
	if !ok || e.owner != owner {
		return false
	}
	delete(r.entries, id)
	return true
}

// Len returns the number of live entries.
func (r *Registry[T]) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}

// Sweep removes entries idle for longer than ttl and returns how many were removed.
func (r *Registry[T]) Sweep(now time.Time, ttl time.Duration) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	removed := 0
	for id, e := range r.entries {
		if now.Sub(e.value.LastActive()) > ttl {
			delete(r.entries, id)
			removed++
		}
	}
	return removed
}
