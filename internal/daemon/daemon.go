// Package daemon runs the long-lived reminder loop behind `pillminder watch`.
package daemon

import (
	"context"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/julianstephens/pillminder/internal/constants"
	"github.com/julianstephens/pillminder/internal/logger"
	"github.com/julianstephens/pillminder/internal/notifier"
	"github.com/julianstephens/pillminder/internal/persist"
	"github.com/julianstephens/pillminder/internal/schedule"
	"github.com/julianstephens/pillminder/internal/settings"
	"github.com/julianstephens/pillminder/internal/utils"
)

type Options struct {
	Clock notifier.Clock
	// RolloverCheck caps the sleep before the day is re-checked, so a
	// suspended machine catches up soon after waking.
	RolloverCheck   time.Duration
	PermissionCheck time.Duration
	PollInterval    time.Duration
}

// Daemon re-activates the engine whenever pills, logs or settings change,
// locally or in another process, and when the calendar day rolls over.
// Each activation generates today's logs and reconciles reminder timers.
type Daemon struct {
	engine    *schedule.Engine
	store     *persist.Store
	settings  *settings.Store
	gate      *notifier.Gate
	scheduler *notifier.Scheduler
	watcher   *persist.Watcher
	clock     notifier.Clock
	opts      Options
	log       *log.Logger

	updateChan chan struct{}
	wakeChan   chan struct{}

	mu   sync.Mutex
	wake notifier.Timer
}

func New(engine *schedule.Engine, store *persist.Store, prefs *settings.Store, gate *notifier.Gate, opts Options) *Daemon {
	if opts.Clock == nil {
		opts.Clock = notifier.RealClock{}
	}
	if opts.RolloverCheck <= 0 {
		opts.RolloverCheck = time.Hour
	}
	if opts.PermissionCheck <= 0 {
		opts.PermissionCheck = constants.DefaultPermissionCheck
	}
	return &Daemon{
		engine:     engine,
		store:      store,
		settings:   prefs,
		gate:       gate,
		scheduler:  notifier.NewScheduler(opts.Clock, gate),
		watcher:    persist.NewWatcher(store, opts.PollInterval),
		clock:      opts.Clock,
		opts:       opts,
		log:        logger.Component("daemon"),
		updateChan: make(chan struct{}, 1),
		wakeChan:   make(chan struct{}, 1),
	}
}

func (d *Daemon) Scheduler() *notifier.Scheduler {
	return d.scheduler
}

// Refresh signals the loop to re-activate. It never blocks.
func (d *Daemon) Refresh() {
	select {
	case d.updateChan <- struct{}{}:
	default:
		// An activation is already queued
	}
}

// Activate generates today's logs and brings reminder and snooze timers in
// line with the stored pills, logs and settings.
func (d *Daemon) Activate() {
	d.engine.Reload()
	d.settings.Refresh()

	if _, err := d.engine.GenerateDailyLogs(); err != nil {
		d.log.Error("Daily log generation failed", "error", err)
	}

	prefs := d.settings.Get()
	d.scheduler.SetVibration(prefs.EnableVibration)

	pills := d.engine.Pills()
	d.scheduler.Reconcile(pills, prefs.NotificationIntensity)

	byID := make(map[string]int, len(pills))
	for i, p := range pills {
		byID[p.ID] = i
	}

	snoozed := make(map[string]bool)
	for _, l := range d.engine.Logs() {
		if l.Status != constants.StatusSnoozed {
			continue
		}
		i, ok := byID[l.PillID]
		if !ok {
			continue
		}
		snoozed[l.ID] = true
		d.scheduler.ArmSnooze(l, pills[i])
	}
	d.scheduler.RetainSnoozes(snoozed)

	d.log.Debug("Activation complete", "pills", len(pills), "timers", d.scheduler.Pending())
}

// nextWake returns how long to sleep before re-checking the calendar day.
func (d *Daemon) nextWake(now time.Time) time.Duration {
	untilMidnight := utils.StartOfDay(now).AddDate(0, 0, 1).Sub(now)
	if untilMidnight > d.opts.RolloverCheck {
		return d.opts.RolloverCheck
	}
	return untilMidnight
}

func (d *Daemon) armWake() {
	after := d.nextWake(d.clock.Now())

	d.mu.Lock()
	defer d.mu.Unlock()
	if d.wake != nil {
		d.wake.Stop()
	}
	d.wake = d.clock.AfterFunc(after, func() {
		select {
		case d.wakeChan <- struct{}{}:
		default:
		}
	})
	d.log.Debug("Next day check scheduled", "in", after)
}

func (d *Daemon) stopWake() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.wake != nil {
		d.wake.Stop()
		d.wake = nil
	}
}

// Run blocks until ctx is done. On return every timer has been cancelled.
func (d *Daemon) Run(ctx context.Context) error {
	d.log.Info("Reminder daemon started")

	for _, key := range []string{constants.KeyPills, constants.KeyPillLogs, constants.KeyAppSettings} {
		unsubscribe := d.store.Subscribe(key, d.Refresh)
		defer unsubscribe()
	}

	// Baseline before anything can write, so no external change is missed
	if _, err := d.watcher.Poll(); err != nil {
		d.log.Warn("Initial revision snapshot failed", "error", err)
	}

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		if err := d.watcher.Run(ctx); err != nil {
			d.log.Warn("Storage watcher stopped", "error", err)
		}
	}()
	go func() {
		defer wg.Done()
		d.gate.WatchPermission(ctx, d.opts.PermissionCheck)
	}()

	d.Activate()
	d.armWake()

	for {
		select {
		case <-ctx.Done():
			d.stopWake()
			d.scheduler.Close()
			wg.Wait()
			d.log.Info("Reminder daemon stopped")
			return nil
		case <-d.updateChan:
			d.log.Debug("Change received, re-activating")
			d.Activate()
		case <-d.wakeChan:
			d.Activate()
			d.armWake()
		}
	}
}
