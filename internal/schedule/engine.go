// Package schedule owns pills and their dated intake logs: daily log
// generation, pill CRUD with cascade delete, and taken/missed/snooze marking.
package schedule

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/julianstephens/pillminder/internal/constants"
	"github.com/julianstephens/pillminder/internal/logger"
	"github.com/julianstephens/pillminder/internal/models"
	"github.com/julianstephens/pillminder/internal/persist"
	"github.com/julianstephens/pillminder/internal/utils"
)

type Option func(*Engine)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		e.now = now
	}
}

// WithIDGenerator overrides how pill and log ids are minted.
func WithIDGenerator(gen func() string) Option {
	return func(e *Engine) {
		e.newID = gen
	}
}

// Engine serializes every mutation behind one mutex. Each mutation reads the
// persisted state, changes a copy, writes it, and only then counts as applied,
// so a failed write leaves observable state untouched.
type Engine struct {
	mu sync.Mutex

	pills  *persist.Value[[]models.Pill]
	logs   *persist.Value[[]models.PillLog]
	marker *persist.Value[string]
	store  *persist.Store

	version uint64
	now     func() time.Time
	newID   func() string
}

func New(store *persist.Store, opts ...Option) *Engine {
	e := &Engine{
		store:  store,
		pills:  persist.Bind(store, constants.KeyPills, []models.Pill{}),
		logs:   persist.Bind(store, constants.KeyPillLogs, []models.PillLog{}),
		marker: persist.Bind(store, constants.KeyLastScheduleDate, ""),
		now:    time.Now,
		newID:  uuid.NewString,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Version increases whenever the log set may have changed.
func (e *Engine) Version() uint64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.version
}

// Reload discards cached state so the next access sees writes made elsewhere.
func (e *Engine) Reload() {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.pills.Refresh()
	e.logs.Refresh()
	e.marker.Refresh()
	e.version++
}

// GenerateDailyLogs creates one pending log per pill time for today, once per
// calendar day. Past days are never back-filled. Returns the number created.
func (e *Engine) GenerateDailyLogs() (int, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	now := e.now()
	today := utils.DayKey(now)
	marker, err := e.marker.Load()
	if err != nil {
		return 0, err
	}
	if marker == today {
		return 0, nil
	}

	pills, err := e.pills.Load()
	if err != nil {
		return 0, err
	}
	logs, err := e.logs.Load()
	if err != nil {
		return 0, err
	}
	created := 0
	for _, p := range pills {
		for _, t := range p.Times {
			at, err := utils.CombineDayAndTime(now, t)
			if err != nil {
				logger.Warn("Skipping invalid pill time", "pill", p.Name, "time", t, "error", err)
				continue
			}
			logs = append(logs, models.PillLog{
				ID:            e.newID(),
				PillID:        p.ID,
				ScheduledTime: at,
				Status:        constants.StatusPending,
			})
			created++
		}
	}

	b := e.store.NewBatch()
	if created > 0 {
		persist.Put(b, e.logs, logs)
	}
	persist.Put(b, e.marker, today)
	if err := b.Commit(); err != nil {
		return 0, fmt.Errorf("failed to generate logs for %s: %w", today, err)
	}

	if created > 0 {
		e.version++
	}
	logger.Info("Generated daily logs", "day", today, "count", created)
	return created, nil
}

// AddPill validates and stores a new pill with a fresh id. Logs for it are
// generated on the next calendar day.
func (e *Engine) AddPill(p models.Pill) (models.Pill, error) {
	if err := p.Validate(); err != nil {
		return models.Pill{}, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	p = p.Clone()
	p.ID = e.newID()
	p.CreatedAt = e.now()

	pills, err := e.pills.Load()
	if err != nil {
		return models.Pill{}, err
	}
	pills = append(pills, p)
	if err := e.pills.Set(pills); err != nil {
		return models.Pill{}, err
	}
	return p, nil
}

// UpdatePill merges patch into the pill. Unknown ids report false.
func (e *Engine) UpdatePill(id string, patch models.PillPatch) (bool, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	pills, err := e.pills.Load()
	if err != nil {
		return false, err
	}
	idx := findPill(pills, id)
	if idx < 0 {
		return false, nil
	}
	patch.Apply(&pills[idx])

	if err := e.pills.Set(pills); err != nil {
		return false, err
	}
	return true, nil
}

// DeletePill removes the pill and every log that references it in a single write.
func (e *Engine) DeletePill(id string) (bool, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	pills, err := e.pills.Load()
	if err != nil {
		return false, err
	}
	idx := findPill(pills, id)
	if idx < 0 {
		return false, nil
	}
	pills = append(pills[:idx], pills[idx+1:]...)

	allLogs, err := e.logs.Load()
	if err != nil {
		return false, err
	}
	kept := make([]models.PillLog, 0, len(allLogs))
	for _, l := range allLogs {
		if l.PillID != id {
			kept = append(kept, l)
		}
	}

	b := e.store.NewBatch()
	persist.Put(b, e.pills, pills)
	persist.Put(b, e.logs, kept)
	if err := b.Commit(); err != nil {
		return false, err
	}

	e.version++
	return true, nil
}

// MarkTaken records the intake now and clears any snooze.
func (e *Engine) MarkTaken(logID string) (bool, error) {
	return e.updateLog(logID, func(l *models.PillLog, now time.Time) {
		l.Status = constants.StatusTaken
		l.TakenTime = &now
		l.SnoozedUntil = nil
	})
}

// MarkMissed closes the occurrence as missed.
func (e *Engine) MarkMissed(logID string) (bool, error) {
	return e.updateLog(logID, func(l *models.PillLog, _ time.Time) {
		l.Status = constants.StatusMissed
		l.TakenTime = nil
		l.SnoozedUntil = nil
	})
}

// Snooze defers the occurrence by minutes from now. Bounds are the caller's concern.
func (e *Engine) Snooze(logID string, minutes int) (bool, error) {
	return e.updateLog(logID, func(l *models.PillLog, now time.Time) {
		until := now.Add(time.Duration(minutes) * time.Minute)
		l.Status = constants.StatusSnoozed
		l.SnoozedUntil = &until
		l.TakenTime = nil
	})
}

func (e *Engine) updateLog(logID string, mutate func(*models.PillLog, time.Time)) (bool, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	logs, err := e.logs.Load()
	if err != nil {
		return false, err
	}
	idx := findLog(logs, logID)
	if idx < 0 {
		return false, nil
	}
	mutate(&logs[idx], e.now())

	if err := e.logs.Set(logs); err != nil {
		return false, err
	}
	e.version++
	return true, nil
}

// SweepOverdue marks every open log scheduled before the cutoff as missed.
// It only runs when asked to.
func (e *Engine) SweepOverdue(before time.Time) (int, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	logs, err := e.logs.Load()
	if err != nil {
		return 0, err
	}
	swept := 0
	for i := range logs {
		if logs[i].IsOpen() && logs[i].ScheduledTime.Before(before) {
			logs[i].Status = constants.StatusMissed
			logs[i].TakenTime = nil
			logs[i].SnoozedUntil = nil
			swept++
		}
	}
	if swept == 0 {
		return 0, nil
	}

	if err := e.logs.Set(logs); err != nil {
		return 0, err
	}
	e.version++
	return swept, nil
}

func (e *Engine) Pills() []models.Pill {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.pills.Get()
}

func (e *Engine) Pill(id string) (models.Pill, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	pills := e.pills.Get()
	if idx := findPill(pills, id); idx >= 0 {
		return pills[idx], true
	}
	return models.Pill{}, false
}

func (e *Engine) Logs() []models.PillLog {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.logs.Get()
}

func (e *Engine) Log(id string) (models.PillLog, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	logs := e.logs.Get()
	if idx := findLog(logs, id); idx >= 0 {
		return logs[idx], true
	}
	return models.PillLog{}, false
}

func (e *Engine) LastScheduleDate() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.marker.Get()
}

// Pending returns logs still awaiting an answer (pending or snoozed), in stored order.
func (e *Engine) Pending() []models.PillLog {
	e.mu.Lock()
	defer e.mu.Unlock()

	var out []models.PillLog
	for _, l := range e.logs.Get() {
		if l.IsOpen() {
			out = append(out, l)
		}
	}
	return out
}

// PendingSorted is Pending ordered by scheduled time, earliest first.
func (e *Engine) PendingSorted() []models.PillLog {
	out := e.Pending()
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].ScheduledTime.Before(out[j].ScheduledTime)
	})
	return out
}

// Today returns logs scheduled on the current local calendar day.
func (e *Engine) Today() []models.PillLog {
	e.mu.Lock()
	defer e.mu.Unlock()

	now := e.now()
	var out []models.PillLog
	for _, l := range e.logs.Get() {
		if utils.SameDay(now, l.ScheduledTime) {
			out = append(out, l)
		}
	}
	return out
}

func findPill(pills []models.Pill, id string) int {
	for i := range pills {
		if pills[i].ID == id {
			return i
		}
	}
	return -1
}

func findLog(logs []models.PillLog, id string) int {
	for i := range logs {
		if logs[i].ID == id {
			return i
		}
	}
	return -1
}
