package utils

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestParseTimeToMinutes(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    int
		wantErr bool
	}{
		{name: "midnight", input: "00:00", want: 0},
		{name: "morning", input: "08:30", want: 510},
		{name: "last minute", input: "23:59", want: 1439},
		{name: "hour out of range", input: "24:00", wantErr: true},
		{name: "missing colon", input: "0830", wantErr: true},
		{name: "empty", input: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseTimeToMinutes(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseTimeToMinutes(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if !tt.wantErr && got != tt.want {
				t.Errorf("ParseTimeToMinutes(%q) = %d, want %d", tt.input, got, tt.want)
			}
		})
	}
}

func TestValidateTimeFormat(t *testing.T) {
	if !ValidateTimeFormat("07:05") {
		t.Error("07:05 should be valid")
	}
	if ValidateTimeFormat("7pm") {
		t.Error("7pm should be invalid")
	}
}

func TestCombineDayAndTime(t *testing.T) {
	loc := time.FixedZone("TEST", -5*3600)
	day := time.Date(2025, 1, 20, 17, 45, 12, 99, loc)

	got, err := CombineDayAndTime(day, "09:00")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := time.Date(2025, 1, 20, 9, 0, 0, 0, loc)
	if !got.Equal(want) {
		t.Errorf("CombineDayAndTime() = %v, want %v", got, want)
	}
	if got.Location() != loc {
		t.Errorf("expected location to be preserved, got %v", got.Location())
	}

	if _, err := CombineDayAndTime(day, "9am"); err == nil {
		t.Error("expected error for invalid time")
	}
}

func TestCombineDateAndTime(t *testing.T) {
	got, err := CombineDateAndTime("2025-01-20", "21:15", time.UTC)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != time.Date(2025, 1, 20, 21, 15, 0, 0, time.UTC) {
		t.Errorf("CombineDateAndTime() = %v", got)
	}
	if _, err := CombineDateAndTime("2025/01/20", "21:15", time.UTC); err == nil {
		t.Error("expected error for invalid date")
	}
}

func TestDayKeyAndStartOfDay(t *testing.T) {
	ts := time.Date(2025, 1, 20, 23, 59, 59, 0, time.UTC)
	if got := DayKey(ts); got != "2025-01-20" {
		t.Errorf("DayKey() = %q", got)
	}
	if got := StartOfDay(ts); got != time.Date(2025, 1, 20, 0, 0, 0, 0, time.UTC) {
		t.Errorf("StartOfDay() = %v", got)
	}
	if got := FormatTimeOfDay(ts); got != "23:59" {
		t.Errorf("FormatTimeOfDay() = %q", got)
	}
}

func TestSameDay(t *testing.T) {
	a := time.Date(2025, 1, 20, 0, 0, 0, 0, time.UTC)
	if !SameDay(a, a.Add(23*time.Hour)) {
		t.Error("expected same day")
	}
	if SameDay(a, a.Add(24*time.Hour)) {
		t.Error("expected different day")
	}
}

func TestDaysBetween(t *testing.T) {
	tests := []struct {
		name string
		a, b time.Time
		want int
	}{
		{
			name: "same day",
			a:    time.Date(2025, 1, 20, 1, 0, 0, 0, time.UTC),
			b:    time.Date(2025, 1, 20, 23, 0, 0, 0, time.UTC),
			want: 0,
		},
		{
			name: "late night to early morning is one day",
			a:    time.Date(2025, 1, 19, 23, 59, 0, 0, time.UTC),
			b:    time.Date(2025, 1, 20, 0, 1, 0, 0, time.UTC),
			want: 1,
		},
		{
			name: "backwards",
			a:    time.Date(2025, 1, 20, 12, 0, 0, 0, time.UTC),
			b:    time.Date(2025, 1, 17, 12, 0, 0, 0, time.UTC),
			want: -3,
		},
		{
			name: "across month boundary",
			a:    time.Date(2025, 1, 31, 12, 0, 0, 0, time.UTC),
			b:    time.Date(2025, 2, 1, 12, 0, 0, 0, time.UTC),
			want: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DaysBetween(tt.a, tt.b); got != tt.want {
				t.Errorf("DaysBetween() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestDaysBetweenAcrossDST(t *testing.T) {
	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Skipf("timezone data unavailable: %v", err)
	}
	// DST starts 2025-03-09; that day is only 23 hours long
	a := time.Date(2025, 3, 8, 12, 0, 0, 0, loc)
	b := time.Date(2025, 3, 10, 0, 30, 0, 0, loc)
	if got := DaysBetween(a, b); got != 2 {
		t.Errorf("DaysBetween() across DST = %d, want 2", got)
	}
}

func TestElapsedAndRemaining(t *testing.T) {
	now := time.Date(2025, 1, 20, 9, 0, 0, 0, time.UTC)
	past := now.Add(-15 * time.Minute)
	future := now.Add(30 * time.Minute)

	if got := Elapsed(past, now); got != 15*time.Minute {
		t.Errorf("Elapsed() = %v", got)
	}
	if got := Elapsed(future, now); got != 0 {
		t.Errorf("Elapsed() for future = %v, want 0", got)
	}
	if got := Remaining(future, now); got != 30*time.Minute {
		t.Errorf("Remaining() = %v", got)
	}
	if got := Remaining(past, now); got != 0 {
		t.Errorf("Remaining() for past = %v, want 0", got)
	}
}

func TestRelative(t *testing.T) {
	now := time.Date(2025, 1, 20, 9, 0, 0, 0, time.UTC)
	if got := Relative(now.Add(-2*time.Hour), now); !strings.HasSuffix(got, "ago") {
		t.Errorf("Relative() for past = %q", got)
	}
	if got := Relative(now.Add(2*time.Hour), now); !strings.HasSuffix(got, "from now") {
		t.Errorf("Relative() for future = %q", got)
	}
}

func TestExpandHome(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skipf("no home directory: %v", err)
	}

	got, err := ExpandHome("~/.config/pillminder/pillminder.db")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if want := filepath.Join(home, ".config/pillminder/pillminder.db"); got != want {
		t.Errorf("ExpandHome() = %q, want %q", got, want)
	}

	got, err = ExpandHome("/tmp/db")
	if err != nil || got != "/tmp/db" {
		t.Errorf("ExpandHome() should leave absolute paths alone, got %q, %v", got, err)
	}
}
