package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/julianstephens/pillminder/internal/constants"
)

// Pill is a medication definition with one or more daily intake times
type Pill struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Dosage    string    `json:"dosage"`
	Times     []string  `json:"times"` // HH:MM format, duplicates allowed
	Color     string    `json:"color,omitempty"`
	Notes     string    `json:"notes,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

func (p *Pill) Validate() error {
	if strings.TrimSpace(p.Name) == "" {
		return fmt.Errorf("pill name cannot be empty")
	}

	if strings.TrimSpace(p.Dosage) == "" {
		return fmt.Errorf("pill dosage cannot be empty")
	}

	if len(p.Times) == 0 {
		return fmt.Errorf("pill must have at least one time")
	}

	for _, t := range p.Times {
		if _, err := time.Parse(constants.TimeFormat, t); err != nil {
			return fmt.Errorf("invalid time %q (expected HH:MM): %w", t, err)
		}
	}

	return nil
}

// Clone returns a copy that shares no slices with p
func (p Pill) Clone() Pill {
	p.Times = append([]string(nil), p.Times...)
	return p
}

// PillPatch carries the fields of a partial pill update. Nil fields are left unchanged.
type PillPatch struct {
	Name   *string
	Dosage *string
	Times  []string
	Color  *string
	Notes  *string
}

// Apply merges the patch into p. The ID and creation time are never touched.
func (patch PillPatch) Apply(p *Pill) {
	if patch.Name != nil {
		p.Name = *patch.Name
	}
	if patch.Dosage != nil {
		p.Dosage = *patch.Dosage
	}
	if patch.Times != nil {
		p.Times = append([]string(nil), patch.Times...)
	}
	if patch.Color != nil {
		p.Color = *patch.Color
	}
	if patch.Notes != nil {
		p.Notes = *patch.Notes
	}
}

// IsEmpty reports whether the patch would change nothing
func (patch PillPatch) IsEmpty() bool {
	return patch.Name == nil && patch.Dosage == nil && patch.Times == nil && patch.Color == nil && patch.Notes == nil
}

// PillLog is one concrete occurrence of a pill at one scheduled moment
type PillLog struct {
	ID            string              `json:"id"`
	PillID        string              `json:"pillId"`
	ScheduledTime time.Time           `json:"scheduledTime"`
	Status        constants.LogStatus `json:"status"`
	TakenTime     *time.Time          `json:"takenTime,omitempty"`
	SnoozedUntil  *time.Time          `json:"snoozedUntil,omitempty"`
}

// IsOpen returns true while the occurrence still awaits an answer (pending or snoozed)
func (l *PillLog) IsOpen() bool {
	return l.Status == constants.StatusPending || l.Status == constants.StatusSnoozed
}

// Clone returns a deep copy of the log
func (l PillLog) Clone() PillLog {
	if l.TakenTime != nil {
		t := *l.TakenTime
		l.TakenTime = &t
	}
	if l.SnoozedUntil != nil {
		t := *l.SnoozedUntil
		l.SnoozedUntil = &t
	}
	return l
}

// CheckInvariant verifies that takenTime is present exactly when the log is taken
// and snoozedUntil exactly when it is snoozed.
func (l *PillLog) CheckInvariant() error {
	switch l.Status {
	case constants.StatusPending, constants.StatusTaken, constants.StatusMissed, constants.StatusSnoozed:
	default:
		return fmt.Errorf("log %s has unknown status %q", l.ID, l.Status)
	}
	if (l.TakenTime != nil) != (l.Status == constants.StatusTaken) {
		return fmt.Errorf("log %s: takenTime present=%v but status=%s", l.ID, l.TakenTime != nil, l.Status)
	}
	if (l.SnoozedUntil != nil) != (l.Status == constants.StatusSnoozed) {
		return fmt.Errorf("log %s: snoozedUntil present=%v but status=%s", l.ID, l.SnoozedUntil != nil, l.Status)
	}
	return nil
}
