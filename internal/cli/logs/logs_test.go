package logs

import (
	"strings"
	"testing"
	"time"

	"github.com/julianstephens/pillminder/internal/cli/clitest"
	"github.com/julianstephens/pillminder/internal/constants"
)

func TestTodayCmd(t *testing.T) {
	env := clitest.New(t, nil)

	if err := (&TodayCmd{}).Run(env.Ctx); err != nil {
		t.Fatalf("today failed: %v", err)
	}
	if !strings.Contains(env.Output(), "Nothing scheduled today.") {
		t.Error("expected an empty message")
	}

	env.AddPill(t, "Aspirin", "20:00", "08:00")
	env.Activate(t)

	if err := (&TodayCmd{}).Run(env.Ctx); err != nil {
		t.Fatalf("today failed: %v", err)
	}
	out := env.Output()
	morning := strings.Index(out, "08:00")
	evening := strings.Index(out, "20:00")
	if morning < 0 || evening < 0 || morning > evening {
		t.Errorf("expected both doses in time order, got:\n%s", out)
	}
}

func TestTakeCmd(t *testing.T) {
	env := clitest.New(t, nil)
	env.AddPill(t, "Aspirin", "08:00")
	env.Activate(t)

	if err := (&TakeCmd{Pill: "Aspirin"}).Run(env.Ctx); err != nil {
		t.Fatalf("take failed: %v", err)
	}

	logs := env.Ctx.Engine.Logs()
	if logs[0].Status != constants.StatusTaken {
		t.Errorf("expected taken, got %s", logs[0].Status)
	}
	if logs[0].TakenTime == nil || !logs[0].TakenTime.Equal(clitest.Now) {
		t.Errorf("expected taken time %v, got %v", clitest.Now, logs[0].TakenTime)
	}
	if out := env.Output(); !strings.Contains(out, "Marked Aspirin 08:00") || !strings.Contains(out, "as taken") {
		t.Errorf("unexpected output: %s", out)
	}
}

func TestMissCmd_ByLogID(t *testing.T) {
	env := clitest.New(t, nil)
	env.AddPill(t, "Aspirin", "08:00")
	env.Activate(t)
	id := env.Ctx.Engine.Logs()[0].ID

	if err := (&MissCmd{Log: id[:6]}).Run(env.Ctx); err != nil {
		t.Fatalf("miss failed: %v", err)
	}
	if got := env.Ctx.Engine.Logs()[0].Status; got != constants.StatusMissed {
		t.Errorf("expected missed, got %s", got)
	}
}

func TestSnoozeCmd(t *testing.T) {
	tests := []struct {
		name    string
		minutes int
		setting string
		want    time.Duration
	}{
		{name: "default setting", want: time.Duration(constants.DefaultSnoozeMinutes) * time.Minute},
		{name: "stored setting", setting: "15", want: 15 * time.Minute},
		{name: "flag", minutes: 5, want: 5 * time.Minute},
		{name: "flag clamped high", minutes: 600, want: time.Duration(constants.MaxSnoozeMinutes) * time.Minute},
		{name: "flag clamped low", minutes: -3, want: time.Duration(constants.MinSnoozeMinutes) * time.Minute},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := clitest.New(t, nil)
			env.AddPill(t, "Aspirin", "08:00")
			env.Activate(t)
			if tt.setting != "" {
				if _, err := env.Ctx.Settings.Update(map[string]string{constants.SettingSnoozeMinutes: tt.setting}); err != nil {
					t.Fatalf("Update failed: %v", err)
				}
			}

			if err := (&SnoozeCmd{Pill: "aspirin", Minutes: tt.minutes}).Run(env.Ctx); err != nil {
				t.Fatalf("snooze failed: %v", err)
			}

			l := env.Ctx.Engine.Logs()[0]
			if l.Status != constants.StatusSnoozed {
				t.Fatalf("expected snoozed, got %s", l.Status)
			}
			if l.SnoozedUntil == nil || !l.SnoozedUntil.Equal(clitest.Now.Add(tt.want)) {
				t.Errorf("expected snooze until %v, got %v", clitest.Now.Add(tt.want), l.SnoozedUntil)
			}
			if !strings.Contains(env.Output(), "Snoozed") {
				t.Error("expected a confirmation")
			}
		})
	}
}

func TestSnoozedDoseCanStillBeTaken(t *testing.T) {
	env := clitest.New(t, nil)
	env.AddPill(t, "Aspirin", "08:00")
	env.Activate(t)

	if err := (&SnoozeCmd{Pill: "aspirin", Minutes: 10}).Run(env.Ctx); err != nil {
		t.Fatalf("snooze failed: %v", err)
	}
	if err := (&TakeCmd{Pill: "aspirin"}).Run(env.Ctx); err != nil {
		t.Fatalf("take failed: %v", err)
	}

	l := env.Ctx.Engine.Logs()[0]
	if l.Status != constants.StatusTaken || l.SnoozedUntil != nil {
		t.Errorf("expected taken with the snooze cleared, got %+v", l)
	}
}

func TestPendingCmd(t *testing.T) {
	env := clitest.New(t, nil)
	env.AddPill(t, "Aspirin", "08:00", "20:00")
	env.Activate(t)

	if err := (&TakeCmd{Pill: "aspirin"}).Run(env.Ctx); err != nil {
		t.Fatalf("take failed: %v", err)
	}
	env.Output()

	if err := (&PendingCmd{}).Run(env.Ctx); err != nil {
		t.Fatalf("pending failed: %v", err)
	}
	out := env.Output()
	if !strings.Contains(out, "Pending (1)") || !strings.Contains(out, "20:00") {
		t.Errorf("unexpected output:\n%s", out)
	}
}

func TestSweepCmd(t *testing.T) {
	env := clitest.New(t, nil)
	env.AddPill(t, "Aspirin", "08:00")
	env.Activate(t)

	// Move to the next day and generate its logs
	env.Now = env.Now.AddDate(0, 0, 1)
	env.Activate(t)

	if err := (&SweepCmd{DryRun: true}).Run(env.Ctx); err != nil {
		t.Fatalf("dry run failed: %v", err)
	}
	if out := env.Output(); !strings.Contains(out, "1 open dose(s)") {
		t.Errorf("unexpected dry-run output: %s", out)
	}
	for _, l := range env.Ctx.Engine.Logs() {
		if l.Status != constants.StatusPending {
			t.Fatalf("dry run should not change logs, got %s", l.Status)
		}
	}

	if err := (&SweepCmd{}).Run(env.Ctx); err != nil {
		t.Fatalf("sweep failed: %v", err)
	}
	missed, pending := 0, 0
	for _, l := range env.Ctx.Engine.Logs() {
		switch l.Status {
		case constants.StatusMissed:
			missed++
		case constants.StatusPending:
			pending++
		}
	}
	if missed != 1 || pending != 1 {
		t.Errorf("expected yesterday missed and today pending, got missed=%d pending=%d", missed, pending)
	}
}

func TestTakeCmd_UnknownLog(t *testing.T) {
	env := clitest.New(t, nil)
	if err := (&TakeCmd{Log: "ghost"}).Run(env.Ctx); err == nil {
		t.Fatal("expected an error for an unknown log")
	}
}
