package persist

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/julianstephens/pillminder/internal/constants"
	"github.com/julianstephens/pillminder/internal/logger"
	"github.com/julianstephens/pillminder/internal/storage"
)

// Watcher detects writes made by other processes by diffing backend
// revisions, and notifies local subscribers of the keys that moved.
type Watcher struct {
	store    *Store
	interval time.Duration

	mu   sync.Mutex
	last map[string]int64
}

func NewWatcher(store *Store, interval time.Duration) *Watcher {
	if interval <= 0 {
		interval = constants.DefaultRevisionPollInterval
	}
	return &Watcher{
		store:    store,
		interval: interval,
	}
}

// Poll compares current revisions with the previous snapshot and notifies
// for every key that was added, rewritten or removed. The first call only
// records a baseline.
func (w *Watcher) Poll() ([]string, error) {
	revs, err := w.store.backend.Revisions()
	if err != nil {
		return nil, err
	}

	w.mu.Lock()
	prev := w.last
	w.last = revs
	w.mu.Unlock()

	if prev == nil {
		return nil, nil
	}

	var changed []string
	for k, rev := range revs {
		if prev[k] != rev {
			changed = append(changed, k)
		}
	}
	for k := range prev {
		if _, ok := revs[k]; !ok {
			changed = append(changed, k)
		}
	}
	sort.Strings(changed)

	if len(changed) > 0 {
		logger.Debug("Detected external storage change", "keys", changed)
		w.store.registry.Notify(changed...)
	}
	return changed, nil
}

// Run watches until ctx is done. Backends that push change signals are
// followed directly; the others, or a push watch that fails, fall back to
// polling at the configured interval.
func (w *Watcher) Run(ctx context.Context) error {
	if _, err := w.Poll(); err != nil {
		logger.Warn("Initial revision snapshot failed", "error", err)
	}

	signals := make(chan struct{}, 1)
	failed := make(chan error, 1)

	var tick <-chan time.Time
	if notifier, ok := w.store.backend.(storage.ChangeNotifier); ok {
		go func() {
			failed <- notifier.WatchChanges(ctx, func() {
				select {
				case signals <- struct{}{}:
				default:
				}
			})
		}()
	} else {
		ticker := time.NewTicker(w.interval)
		defer ticker.Stop()
		tick = ticker.C
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-signals:
			if _, err := w.Poll(); err != nil {
				logger.Warn("Revision poll failed", "error", err)
			}
		case <-tick:
			if _, err := w.Poll(); err != nil {
				logger.Warn("Revision poll failed", "error", err)
			}
		case err := <-failed:
			if ctx.Err() != nil {
				return nil
			}
			logger.Warn("Change watch stopped, falling back to polling", "error", err, "interval", w.interval)
			ticker := time.NewTicker(w.interval)
			defer ticker.Stop()
			tick = ticker.C
			failed = nil
		}
	}
}
