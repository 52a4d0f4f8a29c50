package models

import (
	"testing"
	"time"

	"github.com/julianstephens/pillminder/internal/constants"
)

func TestPill_Validate(t *testing.T) {
	tests := []struct {
		name    string
		pill    Pill
		wantErr bool
	}{
		{
			name:    "valid pill",
			pill:    Pill{Name: "Aspirin", Dosage: "100mg", Times: []string{"08:00", "20:00"}},
			wantErr: false,
		},
		{
			name:    "duplicate times are allowed",
			pill:    Pill{Name: "Aspirin", Dosage: "100mg", Times: []string{"08:00", "08:00"}},
			wantErr: false,
		},
		{
			name:    "empty name",
			pill:    Pill{Name: "", Dosage: "100mg", Times: []string{"08:00"}},
			wantErr: true,
		},
		{
			name:    "blank dosage",
			pill:    Pill{Name: "Aspirin", Dosage: "   ", Times: []string{"08:00"}},
			wantErr: true,
		},
		{
			name:    "no times",
			pill:    Pill{Name: "Aspirin", Dosage: "100mg"},
			wantErr: true,
		},
		{
			name:    "invalid time",
			pill:    Pill{Name: "Aspirin", Dosage: "100mg", Times: []string{"25:00"}},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.pill.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Pill.Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestPillPatch_Apply(t *testing.T) {
	created := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	pill := Pill{ID: "p1", Name: "Aspirin", Dosage: "100mg", Times: []string{"08:00"}, CreatedAt: created}

	name := "Baby aspirin"
	notes := "with food"
	PillPatch{Name: &name, Notes: &notes, Times: []string{"09:00", "21:00"}}.Apply(&pill)

	if pill.ID != "p1" || !pill.CreatedAt.Equal(created) {
		t.Errorf("patch must not touch id or createdAt, got %+v", pill)
	}
	if pill.Name != name || pill.Notes != notes {
		t.Errorf("expected name and notes to be updated, got %+v", pill)
	}
	if pill.Dosage != "100mg" {
		t.Errorf("expected dosage unchanged, got %q", pill.Dosage)
	}
	if len(pill.Times) != 2 || pill.Times[0] != "09:00" {
		t.Errorf("expected times to be replaced, got %v", pill.Times)
	}
}

func TestPillPatch_IsEmpty(t *testing.T) {
	if !(PillPatch{}).IsEmpty() {
		t.Error("zero patch should be empty")
	}
	color := "red"
	if (PillPatch{Color: &color}).IsEmpty() {
		t.Error("patch with color should not be empty")
	}
}

func TestPill_CloneDoesNotShareTimes(t *testing.T) {
	pill := Pill{Times: []string{"08:00"}}
	clone := pill.Clone()
	clone.Times[0] = "09:00"
	if pill.Times[0] != "08:00" {
		t.Errorf("mutating clone changed original: %v", pill.Times)
	}
}

func TestPillLog_CheckInvariant(t *testing.T) {
	now := time.Now()
	tests := []struct {
		name    string
		log     PillLog
		wantErr bool
	}{
		{name: "pending", log: PillLog{Status: constants.StatusPending}, wantErr: false},
		{name: "taken with time", log: PillLog{Status: constants.StatusTaken, TakenTime: &now}, wantErr: false},
		{name: "taken without time", log: PillLog{Status: constants.StatusTaken}, wantErr: true},
		{name: "missed with taken time", log: PillLog{Status: constants.StatusMissed, TakenTime: &now}, wantErr: true},
		{name: "snoozed with until", log: PillLog{Status: constants.StatusSnoozed, SnoozedUntil: &now}, wantErr: false},
		{name: "pending with until", log: PillLog{Status: constants.StatusPending, SnoozedUntil: &now}, wantErr: true},
		{name: "unknown status", log: PillLog{Status: "skipped"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.log.CheckInvariant()
			if (err != nil) != tt.wantErr {
				t.Errorf("PillLog.CheckInvariant() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestPillLog_IsOpen(t *testing.T) {
	tests := []struct {
		status constants.LogStatus
		want   bool
	}{
		{constants.StatusPending, true},
		{constants.StatusSnoozed, true},
		{constants.StatusTaken, false},
		{constants.StatusMissed, false},
	}
	for _, tt := range tests {
		l := PillLog{Status: tt.status}
		if got := l.IsOpen(); got != tt.want {
			t.Errorf("IsOpen() for %s = %v, want %v", tt.status, got, tt.want)
		}
	}
}

func TestPillLog_CloneCopiesTimestamps(t *testing.T) {
	taken := time.Date(2025, 1, 20, 9, 0, 0, 0, time.UTC)
	l := PillLog{Status: constants.StatusTaken, TakenTime: &taken}
	clone := l.Clone()
	*clone.TakenTime = clone.TakenTime.Add(time.Hour)
	if !l.TakenTime.Equal(taken) {
		t.Errorf("mutating clone changed original takenTime: %v", l.TakenTime)
	}
}
