package notifier

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/julianstephens/pillminder/internal/constants"
	"github.com/julianstephens/pillminder/internal/logger"
	"github.com/julianstephens/pillminder/internal/models"
	"github.com/julianstephens/pillminder/internal/utils"
)

type armedTimer struct {
	timer     Timer
	cancelled bool
}

type delivery struct {
	title string
	body  string
	tag   string
}

// Scheduler keeps one timer per (pill, time) occurrence of the current day,
// plus one per snoozed log. Timers only change for pills whose name, dosage,
// times or day changed since the last Reconcile, or for everything when the
// intensity changes. Timers are keyed by pill id so pills sharing a name keep
// their own; delivery is still once per tag.
type Scheduler struct {
	clock     Clock
	deliverer Deliverer
	log       *log.Logger

	mu           sync.Mutex
	armed        map[string]*armedTimer // occurrence -> timer
	byPill       map[string][]string    // pill id -> occurrences
	fingerprints map[string]string      // pill id -> day|name|dosage|times
	snoozes      map[string]*armedTimer // log id -> timer
	snoozeSent   map[string]int64       // log id -> snoozedUntil (unix ms) already delivered
	delivered    map[string]string      // tag -> day delivered
	intensity    constants.Intensity
	vibration    bool
	reconciled   bool
	closed       bool
}

func NewScheduler(clock Clock, deliverer Deliverer) *Scheduler {
	if clock == nil {
		clock = RealClock{}
	}
	return &Scheduler{
		clock:        clock,
		deliverer:    deliverer,
		log:          logger.Component("scheduler"),
		armed:        make(map[string]*armedTimer),
		byPill:       make(map[string][]string),
		fingerprints: make(map[string]string),
		snoozes:      make(map[string]*armedTimer),
		snoozeSent:   make(map[string]int64),
		delivered:    make(map[string]string),
		intensity:    constants.DefaultNotificationIntensity,
		vibration:    constants.DefaultEnableVibration,
	}
}

// Tag identifies one reminder occurrence.
func Tag(pillName string, at time.Time) string {
	return fmt.Sprintf("%s-%d", pillName, at.UnixMilli())
}

func occurrence(pillID string, at time.Time) string {
	return fmt.Sprintf("%s|%d", pillID, at.UnixMilli())
}

func fingerprint(day string, p models.Pill) string {
	return strings.Join([]string{day, p.Name, p.Dosage, strings.Join(p.Times, ",")}, "|")
}

func reminderBody(p models.Pill, at time.Time) string {
	return fmt.Sprintf("%s (%s) at %s", p.Name, p.Dosage, utils.FormatTimeOfDay(at))
}

// SetVibration changes whether later deliveries carry a vibration pattern.
func (s *Scheduler) SetVibration(enabled bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.vibration = enabled
}

// Reconcile brings armed timers in line with pills for today. Occurrences
// still ahead get a timer; occurrences already passed are delivered now,
// once per tag per day.
func (s *Scheduler) Reconcile(pills []models.Pill, intensity constants.Intensity) {
	now := s.clock.Now()
	today := utils.DayKey(now)

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}

	for tag, day := range s.delivered {
		if day != today {
			delete(s.delivered, tag)
		}
	}

	rearmAll := !s.reconciled || s.intensity != intensity
	s.intensity = intensity
	s.reconciled = true

	seen := make(map[string]bool, len(pills))
	var due []delivery
	armedCount := 0
	for _, p := range pills {
		seen[p.ID] = true
		fp := fingerprint(today, p)
		if !rearmAll && s.fingerprints[p.ID] == fp {
			continue
		}
		s.cancelPillLocked(p.ID)
		s.fingerprints[p.ID] = fp

		for _, t := range p.Times {
			at, err := utils.CombineDayAndTime(now, t)
			if err != nil {
				s.log.Warn("Skipping invalid reminder time", "pill", p.Name, "time", t, "error", err)
				continue
			}
			tag := Tag(p.Name, at)
			if _, done := s.delivered[tag]; done {
				continue
			}
			key := occurrence(p.ID, at)
			if _, exists := s.armed[key]; exists {
				continue
			}

			d := delivery{title: constants.NotificationTitle, body: reminderBody(p, at), tag: tag}
			if at.After(now) {
				s.armLocked(key, at.Sub(now), d)
				s.byPill[p.ID] = append(s.byPill[p.ID], key)
				armedCount++
			} else {
				s.delivered[tag] = today
				due = append(due, d)
			}
		}
	}

	for id := range s.fingerprints {
		if !seen[id] {
			s.cancelPillLocked(id)
			delete(s.fingerprints, id)
		}
	}
	opts := OptionsFor(s.intensity, s.vibration)
	s.mu.Unlock()

	s.log.Debug("Reconciled reminders", "pills", len(pills), "armed", armedCount, "due", len(due))
	for _, d := range due {
		s.deliver(d, opts)
	}
}

// armLocked starts a timer for d under key. The caller holds s.mu.
func (s *Scheduler) armLocked(key string, after time.Duration, d delivery) {
	entry := &armedTimer{}
	entry.timer = s.clock.AfterFunc(after, func() {
		s.fire(entry, d, func() bool {
			if s.armed[key] == entry {
				delete(s.armed, key)
			}
			if _, done := s.delivered[d.tag]; done {
				return false
			}
			s.delivered[d.tag] = utils.DayKey(s.clock.Now())
			return true
		})
	})
	s.armed[key] = entry
}

// fire delivers d unless the timer was cancelled first or bookkeeping, which
// runs under s.mu, reports there is nothing to send.
func (s *Scheduler) fire(entry *armedTimer, d delivery, bookkeeping func() bool) {
	s.mu.Lock()
	if entry.cancelled || s.closed {
		s.mu.Unlock()
		return
	}
	entry.cancelled = true
	if !bookkeeping() {
		s.mu.Unlock()
		return
	}
	opts := OptionsFor(s.intensity, s.vibration)
	s.mu.Unlock()

	s.deliver(d, opts)
}

func (s *Scheduler) deliver(d delivery, opts Options) {
	opts.Tag = d.tag
	if err := s.deliverer.Deliver(d.title, d.body, opts); err != nil {
		s.log.Warn("Failed to deliver reminder", "tag", d.tag, "error", err)
		return
	}
	logger.Reminder(s.log, d.title, d.tag, "urgent", opts.Urgent, "silent", opts.Silent)
}

func (s *Scheduler) cancelPillLocked(pillID string) {
	for _, key := range s.byPill[pillID] {
		if entry, ok := s.armed[key]; ok {
			stopTimer(entry)
			delete(s.armed, key)
		}
	}
	delete(s.byPill, pillID)
}

func stopTimer(entry *armedTimer) {
	entry.cancelled = true
	entry.timer.Stop()
}

// ArmSnooze schedules a re-reminder at the log's snoozedUntil, replacing any
// earlier snooze timer for the same log. Each snoozedUntil is delivered at
// most once. Logs that are not snoozed are disarmed.
func (s *Scheduler) ArmSnooze(l models.PillLog, p models.Pill) {
	if l.Status != constants.StatusSnoozed || l.SnoozedUntil == nil {
		s.Disarm(l.ID)
		return
	}

	now := s.clock.Now()
	until := *l.SnoozedUntil
	d := delivery{
		title: constants.NotificationTitle,
		body:  fmt.Sprintf("%s (%s), snoozed from %s", p.Name, p.Dosage, utils.FormatTimeOfDay(l.ScheduledTime)),
		tag:   Tag(p.Name, until),
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	if prev, ok := s.snoozes[l.ID]; ok {
		stopTimer(prev)
		delete(s.snoozes, l.ID)
	}
	untilMs := until.UnixMilli()
	if sent, ok := s.snoozeSent[l.ID]; ok && sent == untilMs {
		s.mu.Unlock()
		return
	}

	if !until.After(now) {
		s.snoozeSent[l.ID] = untilMs
		opts := OptionsFor(s.intensity, s.vibration)
		s.mu.Unlock()
		s.deliver(d, opts)
		return
	}

	entry := &armedTimer{}
	logID := l.ID
	entry.timer = s.clock.AfterFunc(until.Sub(now), func() {
		s.fire(entry, d, func() bool {
			if s.snoozes[logID] == entry {
				delete(s.snoozes, logID)
			}
			s.snoozeSent[logID] = untilMs
			return true
		})
	})
	s.snoozes[logID] = entry
	s.mu.Unlock()
}

// Disarm cancels the snooze timer for a log, if any, and forgets its
// delivered snooze.
func (s *Scheduler) Disarm(logID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.disarmLocked(logID)
}

func (s *Scheduler) disarmLocked(logID string) {
	if entry, ok := s.snoozes[logID]; ok {
		stopTimer(entry)
		delete(s.snoozes, logID)
	}
	delete(s.snoozeSent, logID)
}

// RetainSnoozes disarms every log not in snoozed.
func (s *Scheduler) RetainSnoozes(snoozed map[string]bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id := range s.snoozes {
		if !snoozed[id] {
			s.disarmLocked(id)
		}
	}
	for id := range s.snoozeSent {
		if !snoozed[id] {
			delete(s.snoozeSent, id)
		}
	}
}

// SnoozedLogs returns the ids of logs with an armed snooze timer.
func (s *Scheduler) SnoozedLogs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	ids := make([]string, 0, len(s.snoozes))
	for id := range s.snoozes {
		ids = append(ids, id)
	}
	return ids
}

// CancelAll stops every outstanding timer. The next Reconcile re-arms from scratch.
func (s *Scheduler) CancelAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cancelAllLocked()
}

func (s *Scheduler) cancelAllLocked() {
	for key, entry := range s.armed {
		stopTimer(entry)
		delete(s.armed, key)
	}
	for id, entry := range s.snoozes {
		stopTimer(entry)
		delete(s.snoozes, id)
	}
	s.byPill = make(map[string][]string)
	s.fingerprints = make(map[string]string)
	s.reconciled = false
}

// Close cancels everything and refuses further arming.
func (s *Scheduler) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cancelAllLocked()
	s.closed = true
}

// Pending returns the number of armed timers.
func (s *Scheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.armed) + len(s.snoozes)
}
