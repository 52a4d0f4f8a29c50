package notifier

import (
	"context"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/julianstephens/pillminder/internal/constants"
	"github.com/julianstephens/pillminder/internal/logger"
)

// Gate only lets deliveries through while the backend reports permission
// as granted. Anything else is logged and dropped, never an error.
type Gate struct {
	deliverer Deliverer
	log       *log.Logger

	mu         sync.Mutex
	permission constants.Permission
	checked    bool
}

func NewGate(d Deliverer) *Gate {
	return &Gate{
		deliverer:  d,
		log:        logger.Component("notifier"),
		permission: constants.PermissionDefault,
	}
}

// RequestPermission asks the backend again and remembers the answer.
// Backend errors degrade to the default state.
func (g *Gate) RequestPermission() (constants.Permission, error) {
	perm, err := g.deliverer.RequestPermission()
	if err != nil {
		g.log.Warn("Permission check failed", "error", err)
		perm = constants.PermissionDefault
	}

	g.mu.Lock()
	changed := g.checked && g.permission != perm
	g.permission = perm
	g.checked = true
	g.mu.Unlock()

	if changed {
		g.log.Info("Notification permission changed", "permission", perm)
	}
	return perm, nil
}

// Permission returns the last known permission, checking once if never asked.
func (g *Gate) Permission() constants.Permission {
	g.mu.Lock()
	checked, perm := g.checked, g.permission
	g.mu.Unlock()

	if !checked {
		perm, _ = g.RequestPermission()
	}
	return perm
}

func (g *Gate) Deliver(title, body string, opts Options) error {
	if perm := g.Permission(); perm != constants.PermissionGranted {
		g.log.Warn("Notification permission not granted, skipping reminder", "permission", perm, "tag", opts.Tag)
		return nil
	}
	return g.deliverer.Deliver(title, body, opts)
}

// WatchPermission re-checks permission every interval until ctx is done.
func (g *Gate) WatchPermission(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = constants.DefaultPermissionCheck
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			_, _ = g.RequestPermission()
		}
	}
}
