package settings

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/julianstephens/pillminder/internal/cli"
	"github.com/julianstephens/pillminder/internal/constants"
	"github.com/julianstephens/pillminder/internal/models"
)

type SettingsCmd struct {
	List bool `help:"List current settings."`

	HighContrast  *bool    `help:"Use the high-contrast palette."`
	Intensity     *string  `help:"Notification intensity: quiet, normal or loud." placeholder:"LEVEL"`
	Vibration     *bool    `help:"Add a vibration pattern to reminders."`
	SnoozeMinutes *int     `help:"Default snooze length in minutes (1-60)."`
	Set           []string `help:"Set a value by name, e.g. --set snooze_minutes=15." placeholder:"KEY=VALUE"`
	Reset         bool     `help:"Restore default settings."`
}

func (c *SettingsCmd) Run(ctx *cli.Context) error {
	if c.Reset {
		if err := ctx.Settings.Reset(); err != nil {
			return fmt.Errorf("failed to reset settings: %w", err)
		}
		ctx.Println("Settings reset to defaults.")
		return nil
	}

	if c.List {
		printSettings(ctx, ctx.Settings.Get())
		return nil
	}

	values := make(map[string]string)
	for _, kv := range c.Set {
		key, value, ok := strings.Cut(kv, "=")
		if !ok {
			return fmt.Errorf("invalid --set %q (expected KEY=VALUE)", kv)
		}
		values[strings.TrimSpace(key)] = strings.TrimSpace(value)
	}
	if c.HighContrast != nil {
		values[constants.SettingHighContrast] = strconv.FormatBool(*c.HighContrast)
	}
	if c.Intensity != nil {
		values[constants.SettingNotificationIntensity] = *c.Intensity
	}
	if c.Vibration != nil {
		values[constants.SettingEnableVibration] = strconv.FormatBool(*c.Vibration)
	}
	if c.SnoozeMinutes != nil {
		values[constants.SettingSnoozeMinutes] = strconv.Itoa(*c.SnoozeMinutes)
	}

	if len(values) == 0 {
		ctx.Println("No changes specified. Use --list to view settings or flags to update them.")
		return nil
	}

	updated, err := ctx.Settings.Update(values)
	if err != nil {
		return fmt.Errorf("failed to save settings: %w", err)
	}
	if c.SnoozeMinutes != nil && updated.SnoozeMinutes != *c.SnoozeMinutes {
		ctx.Printf("Snooze length clamped to %d min\n", updated.SnoozeMinutes)
	}
	ctx.Println("Settings updated successfully.")
	return nil
}

func printSettings(ctx *cli.Context, s models.AppSettings) {
	m := models.SettingsToMap(s)
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	ctx.Println("Current Settings:")
	for _, k := range keys {
		ctx.Printf("  %-24s %s\n", k+":", m[k])
	}
}
