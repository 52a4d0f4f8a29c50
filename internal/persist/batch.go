package persist

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/julianstephens/pillminder/internal/logger"
)

// Batch collects writes to several keys and applies them in one backend
// transaction. Subscribers hear about the batch once, after it commits.
type Batch struct {
	store  *Store
	values map[string][]byte
	err    error
}

func (s *Store) NewBatch() *Batch {
	return &Batch{
		store:  s,
		values: make(map[string][]byte),
	}
}

// Put stages val for v's key. Encoding errors surface from Commit.
func Put[T any](b *Batch, v *Value[T], val T) {
	if b.err != nil {
		return
	}
	data, err := json.Marshal(val)
	if err != nil {
		b.err = fmt.Errorf("failed to encode %s: %w", v.key, err)
		return
	}
	b.values[v.key] = data
}

// Keys returns the staged keys in sorted order.
func (b *Batch) Keys() []string {
	keys := make([]string, 0, len(b.values))
	for k := range b.values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func (b *Batch) Commit() error {
	if b.err != nil {
		return b.err
	}
	if len(b.values) == 0 {
		return nil
	}

	if err := b.store.backend.SetMany(b.values); err != nil {
		logger.Error("Failed to persist batch", "keys", b.Keys(), "error", err)
		return fmt.Errorf("failed to persist %v: %w", b.Keys(), err)
	}

	b.store.registry.Notify(b.Keys()...)
	return nil
}
