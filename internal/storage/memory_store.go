package storage

import (
	"errors"
	"fmt"
	"sync"
)

var (
	// ErrWriteFailed is returned by MemoryStore while write failures are enabled.
	ErrWriteFailed = errors.New("simulated write failure")
	// ErrReadFailed is returned by MemoryStore reads queued with FailNextRead.
	ErrReadFailed = errors.New("simulated read failure")
)

// MemoryStore is a process-local Backend. It backs ":memory:" configurations
// and lets tests simulate storage errors.
type MemoryStore struct {
	mu         sync.Mutex
	values     map[string][]byte
	revisions  map[string]int64
	failWrites bool
	failReads  map[string]int
	writes     int
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		values:    make(map[string][]byte),
		revisions: make(map[string]int64),
		failReads: make(map[string]int),
	}
}

func (s *MemoryStore) Init() error  { return nil }
func (s *MemoryStore) Load() error  { return nil }
func (s *MemoryStore) Close() error { return nil }

func (s *MemoryStore) Get(key string) ([]byte, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.failReads[key] > 0 {
		s.failReads[key]--
		return nil, false, fmt.Errorf("failed to read %s: %w", key, ErrReadFailed)
	}
	v, ok := s.values[key]
	if !ok {
		return nil, false, nil
	}
	out := make([]byte, len(v))
	copy(out, v)
	return out, true, nil
}

func (s *MemoryStore) Set(key string, value []byte) error {
	return s.SetMany(map[string][]byte{key: value})
}

func (s *MemoryStore) SetMany(values map[string][]byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.failWrites {
		return fmt.Errorf("failed to write %d key(s): %w", len(values), ErrWriteFailed)
	}
	for k, v := range values {
		stored := make([]byte, len(v))
		copy(stored, v)
		s.values[k] = stored
		s.revisions[k]++
	}
	s.writes++
	return nil
}

func (s *MemoryStore) Delete(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.failWrites {
		return fmt.Errorf("failed to delete %s: %w", key, ErrWriteFailed)
	}
	delete(s.values, key)
	delete(s.revisions, key)
	s.writes++
	return nil
}

func (s *MemoryStore) Revisions() (map[string]int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make(map[string]int64, len(s.revisions))
	for k, v := range s.revisions {
		out[k] = v
	}
	return out, nil
}

func (s *MemoryStore) GetConfigPath() string {
	return MemoryPath
}

// SetFailWrites makes every subsequent write fail until reset.
func (s *MemoryStore) SetFailWrites(fail bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failWrites = fail
}

// FailNextRead makes the next Get of key fail.
func (s *MemoryStore) FailNextRead(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failReads[key]++
}

// Writes returns the number of successful write calls.
func (s *MemoryStore) Writes() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writes
}

// Raw stores value without validation, for seeding malformed data in tests.
func (s *MemoryStore) Raw(key string, value []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] = value
	s.revisions[key]++
}
