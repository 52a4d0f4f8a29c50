// Package persist layers typed, observable values over a storage.Backend.
package persist

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/julianstephens/pillminder/internal/logger"
	"github.com/julianstephens/pillminder/internal/storage"
)

// Store pairs a backend with the registry that announces its changes.
type Store struct {
	backend  storage.Backend
	registry *Registry
}

func NewStore(backend storage.Backend) *Store {
	return &Store{
		backend:  backend,
		registry: NewRegistry(),
	}
}

func (s *Store) Backend() storage.Backend {
	return s.backend
}

func (s *Store) Registry() *Registry {
	return s.registry
}

// Subscribe registers fn for changes to key, whether written through this
// process or detected by a Watcher.
func (s *Store) Subscribe(key string, fn func()) func() {
	return s.registry.Subscribe(key, fn)
}

// Value is a typed view of one persisted key. The raw bytes are cached
// until the key is reported changed, and decoded on every Get so callers
// never share memory.
type Value[T any] struct {
	store   *Store
	key     string
	initial T

	mu      sync.Mutex
	valid   bool
	present bool
	raw     []byte
}

// Bind returns a Value for key that yields initial while nothing usable is stored.
func Bind[T any](s *Store, key string, initial T) *Value[T] {
	v := &Value[T]{
		store:   s,
		key:     key,
		initial: initial,
	}
	s.registry.onInvalidate(key, v.invalidate)
	return v
}

func (v *Value[T]) Key() string {
	return v.key
}

// Refresh drops the cached bytes so the next Get reads the backend.
// Unlike a change notification it does not reach subscribers.
func (v *Value[T]) Refresh() {
	v.invalidate()
}

func (v *Value[T]) invalidate() {
	v.mu.Lock()
	v.valid = false
	v.raw = nil
	v.mu.Unlock()
}

func (v *Value[T]) load() ([]byte, bool, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.valid {
		return v.raw, v.present, nil
	}

	raw, ok, err := v.store.backend.Get(v.key)
	if err != nil {
		// Not cached: the next read retries the backend
		return nil, false, fmt.Errorf("failed to read %s: %w", v.key, err)
	}
	v.raw, v.present, v.valid = raw, ok, true
	return raw, ok, nil
}

// Load returns the stored value, or the initial value when the key is absent
// or malformed. Backend read errors are returned so callers that write back
// what they read never replace stored data with the default.
func (v *Value[T]) Load() (T, error) {
	raw, ok, err := v.load()
	if err != nil {
		return v.initial, err
	}
	if !ok {
		return v.initial, nil
	}

	var out T
	if err := json.Unmarshal(raw, &out); err != nil {
		logger.Warn("Discarding malformed stored value, using default", "key", v.key, "error", err)
		return v.initial, nil
	}
	return out, nil
}

// Get is Load for readers: an unreadable backend also yields the initial value.
func (v *Value[T]) Get() T {
	out, err := v.Load()
	if err != nil {
		logger.Warn("Failed to read stored value, using default", "key", v.key, "error", err)
	}
	return out
}

// Set persists val. On failure nothing changes and the error is returned.
func (v *Value[T]) Set(val T) error {
	data, err := json.Marshal(val)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", v.key, err)
	}

	if err := v.store.backend.Set(v.key, data); err != nil {
		logger.Error("Failed to persist value", "key", v.key, "error", err)
		return fmt.Errorf("failed to persist %s: %w", v.key, err)
	}

	v.store.registry.Notify(v.key)
	return nil
}

// Clear removes the key so Get yields the initial value again.
func (v *Value[T]) Clear() error {
	if err := v.store.backend.Delete(v.key); err != nil {
		logger.Error("Failed to clear value", "key", v.key, "error", err)
		return fmt.Errorf("failed to clear %s: %w", v.key, err)
	}
	v.store.registry.Notify(v.key)
	return nil
}

// Subscribe registers fn for changes to this value's key.
func (v *Value[T]) Subscribe(fn func()) func() {
	return v.store.registry.Subscribe(v.key, fn)
}
