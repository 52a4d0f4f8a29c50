package settings

import (
	"strings"
	"testing"

	"github.com/julianstephens/pillminder/internal/cli/clitest"
	"github.com/julianstephens/pillminder/internal/constants"
)

func TestSettingsCmd_List(t *testing.T) {
	env := clitest.New(t, nil)

	if err := (&SettingsCmd{List: true}).Run(env.Ctx); err != nil {
		t.Fatalf("list failed: %v", err)
	}
	out := env.Output()
	for _, want := range []string{
		constants.SettingHighContrast + ":",
		constants.SettingNotificationIntensity + ":",
		constants.SettingEnableVibration + ":",
		constants.SettingSnoozeMinutes + ":",
		"normal",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %q in output:\n%s", want, out)
		}
	}
}

func TestSettingsCmd_Update(t *testing.T) {
	env := clitest.New(t, nil)

	highContrast := true
	intensity := "loud"
	vibration := false
	snooze := 25
	cmd := &SettingsCmd{
		HighContrast:  &highContrast,
		Intensity:     &intensity,
		Vibration:     &vibration,
		SnoozeMinutes: &snooze,
	}
	if err := cmd.Run(env.Ctx); err != nil {
		t.Fatalf("update failed: %v", err)
	}
	if !strings.Contains(env.Output(), "Settings updated successfully.") {
		t.Error("expected a confirmation")
	}

	got := env.Ctx.Settings.Get()
	if !got.HighContrast || got.NotificationIntensity != constants.IntensityLoud || got.EnableVibration || got.SnoozeMinutes != 25 {
		t.Errorf("unexpected settings: %+v", got)
	}
}

func TestSettingsCmd_ClampsSnooze(t *testing.T) {
	env := clitest.New(t, nil)

	snooze := 90
	if err := (&SettingsCmd{SnoozeMinutes: &snooze}).Run(env.Ctx); err != nil {
		t.Fatalf("update failed: %v", err)
	}
	if got := env.Ctx.Settings.SnoozeMinutes(); got != constants.MaxSnoozeMinutes {
		t.Errorf("expected snooze clamped to %d, got %d", constants.MaxSnoozeMinutes, got)
	}
	if !strings.Contains(env.Output(), "clamped") {
		t.Error("expected the clamp to be reported")
	}
}

func TestSettingsCmd_RejectsInvalid(t *testing.T) {
	tests := []struct {
		name string
		cmd  func() *SettingsCmd
	}{
		{name: "intensity", cmd: func() *SettingsCmd {
			v := "deafening"
			return &SettingsCmd{Intensity: &v}
		}},
		{name: "unknown key", cmd: func() *SettingsCmd { return &SettingsCmd{Set: []string{"theme=dark"}} }},
		{name: "malformed set", cmd: func() *SettingsCmd { return &SettingsCmd{Set: []string{"snooze_minutes"}} }},
		{name: "bad bool", cmd: func() *SettingsCmd { return &SettingsCmd{Set: []string{"high_contrast=maybe"}} }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := clitest.New(t, nil)
			before := env.Ctx.Settings.Get()

			if err := tt.cmd().Run(env.Ctx); err == nil {
				t.Fatal("expected an error")
			}
			if after := env.Ctx.Settings.Get(); after != before {
				t.Errorf("settings changed after a rejected update: %+v", after)
			}
		})
	}
}

func TestSettingsCmd_SetByName(t *testing.T) {
	env := clitest.New(t, nil)

	if err := (&SettingsCmd{Set: []string{"snooze_minutes = 15", "notification_intensity=quiet"}}).Run(env.Ctx); err != nil {
		t.Fatalf("update failed: %v", err)
	}
	got := env.Ctx.Settings.Get()
	if got.SnoozeMinutes != 15 || got.NotificationIntensity != constants.IntensityQuiet {
		t.Errorf("unexpected settings: %+v", got)
	}
}

func TestSettingsCmd_Reset(t *testing.T) {
	env := clitest.New(t, nil)

	snooze := 30
	if err := (&SettingsCmd{SnoozeMinutes: &snooze}).Run(env.Ctx); err != nil {
		t.Fatalf("update failed: %v", err)
	}
	if err := (&SettingsCmd{Reset: true}).Run(env.Ctx); err != nil {
		t.Fatalf("reset failed: %v", err)
	}
	if got := env.Ctx.Settings.SnoozeMinutes(); got != constants.DefaultSnoozeMinutes {
		t.Errorf("expected default snooze %d, got %d", constants.DefaultSnoozeMinutes, got)
	}
}

func TestSettingsCmd_NoChanges(t *testing.T) {
	env := clitest.New(t, nil)
	if err := (&SettingsCmd{}).Run(env.Ctx); err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if !strings.Contains(env.Output(), "No changes specified.") {
		t.Error("expected a no-op message")
	}
}
