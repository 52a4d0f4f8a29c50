package storage

import "context"

// Backend is a key-value store holding whole JSON documents under stable key names.
type Backend interface {
	// Lifecycle
	Init() error
	Load() error
	Close() error

	// Values
	Get(key string) ([]byte, bool, error)
	Set(key string, value []byte) error
	// SetMany writes every value in a single transaction: either all keys change or none do.
	SetMany(values map[string][]byte) error
	Delete(key string) error

	// Revisions returns a per-key counter that increases on every write.
	// Watchers diff successive snapshots to detect changes made by other processes.
	Revisions() (map[string]int64, error)

	// Utils
	GetConfigPath() string
}

// ChangeNotifier is implemented by backends that can push a signal when the
// underlying storage changes outside this process.
type ChangeNotifier interface {
	// WatchChanges blocks until ctx is done, calling onChange after external writes.
	WatchChanges(ctx context.Context, onChange func()) error
}
