// internal/store/memory.go
//
// In-memory session store for puzzle games and wallets.
// Values are held for the lifetime of the process only.
//
// Characteristics:
//   - Stores values keyed by ID in a map.
//   - Concurrency-safe via RWMutex (concurrent reads allowed, writes exclusive).
//   - Update runs a mutation under the write lock, so callers sharing one value
//     across requests are serialized.
//   - State is lost when the process restarts.

package store

import (
	"context"
	"errors"
	"sync"
)

// ErrNotFound is returned for unknown IDs.
var ErrNotFound = errors.New("not found")

// Store defines the persistence interface for sessions.
type Store[T any] interface {
	// Save persists or replaces a value.
	Save(ctx context.Context, id string, v T) error

	// Get retrieves a value by ID, or ErrNotFound.
	Get(ctx context.Context, id string) (T, error)

	// Update runs fn against the stored value while holding the write lock.
	// The error from fn is returned unchanged.
	Update(ctx context.Context, id string, fn func(T) error) error

	// Delete removes a value. Missing IDs are ignored.
	Delete(ctx context.Context, id string) error

	// Len reports the number of stored values.
	Len() int
}

// memory is an in-memory map-based Store implementation.
type memory[T any] struct {
	mu   sync.RWMutex // guards vals
	vals map[string]T
}

// NewMemoryStore constructs a new in-memory Store.
func NewMemoryStore[T any]() Store[T] {
	return &memory[T]{vals: make(map[string]T)}
}

func (m *memory[T]) Save(ctx context.Context, id string, v T) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.vals[id] = v
	return nil
}

func (m *memory[T]) Get(ctx context.Context, id string) (T, error) {
	var zero T
	if err := ctx.Err(); err != nil {
		return zero, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if v, ok := m.vals[id]; ok {
		return v, nil
	}
	return zero, ErrNotFound
}

func (m *memory[T]) Update(ctx context.Context, id string, fn func(T) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.vals[id]
	if !ok {
		return ErrNotFound
	}
	return fn(v)
}

func (m *memory[T]) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.vals, id)
	return nil
}

func (m *memory[T]) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.vals)
}
