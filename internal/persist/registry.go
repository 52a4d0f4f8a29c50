package persist

import (
	"sort"
	"sync"
)

// Registry fans out change notifications for persisted keys to every
// subscriber in the process. Callbacks run synchronously on the notifying
// goroutine and must not block; they should signal, not do work.
type Registry struct {
	mu          sync.Mutex
	next        uint64
	subscribers map[string]map[uint64]func()
	invalidate  map[string][]func()
}

func NewRegistry() *Registry {
	return &Registry{
		subscribers: make(map[string]map[uint64]func()),
		invalidate:  make(map[string][]func()),
	}
}

// Subscribe registers fn for changes to key and returns its unsubscribe function.
// Calling the returned function more than once is harmless.
func (r *Registry) Subscribe(key string, fn func()) func() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.next++
	id := r.next
	if r.subscribers[key] == nil {
		r.subscribers[key] = make(map[uint64]func())
	}
	r.subscribers[key][id] = fn

	return func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		delete(r.subscribers[key], id)
	}
}

// onInvalidate registers a cache reset hook that runs before subscribers.
func (r *Registry) onInvalidate(key string, fn func()) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.invalidate[key] = append(r.invalidate[key], fn)
}

// Notify reports that keys changed. Every bound value for those keys is
// invalidated first, then each subscription is called once, even when a
// batch touched several of its keys.
func (r *Registry) Notify(keys ...string) {
	r.mu.Lock()
	var resets []func()
	seen := make(map[uint64]bool)
	type call struct {
		id uint64
		fn func()
	}
	var calls []call
	for _, key := range keys {
		resets = append(resets, r.invalidate[key]...)
		for id, fn := range r.subscribers[key] {
			if seen[id] {
				continue
			}
			seen[id] = true
			calls = append(calls, call{id: id, fn: fn})
		}
	}
	r.mu.Unlock()

	for _, reset := range resets {
		reset()
	}

	// Subscription order keeps delivery deterministic
	sort.Slice(calls, func(i, j int) bool { return calls[i].id < calls[j].id })
	for _, c := range calls {
		c.fn()
	}
}

// Subscribers returns the number of live subscriptions for key.
func (r *Registry) Subscribers(key string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.subscribers[key])
}
