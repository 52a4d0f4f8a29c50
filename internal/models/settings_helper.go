package models

import (
	"fmt"
	"strconv"

	"github.com/julianstephens/pillminder/internal/constants"
)

// ApplySetting sets a single named setting from its string form.
func ApplySetting(settings *AppSettings, key, value string) error {
	switch key {
	case constants.SettingHighContrast:
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("parsing %s: %w", key, err)
		}
		settings.HighContrast = b
	case constants.SettingNotificationIntensity:
		settings.NotificationIntensity = constants.Intensity(value)
	case constants.SettingEnableVibration:
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("parsing %s: %w", key, err)
		}
		settings.EnableVibration = b
	case constants.SettingSnoozeMinutes:
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("parsing %s: %w", key, err)
		}
		settings.SnoozeMinutes = ClampSnoozeMinutes(n)
	default:
		return fmt.Errorf("unknown setting %q", key)
	}
	return nil
}

// SettingsToMap converts settings to a map of key-value pairs.
func SettingsToMap(settings AppSettings) map[string]string {
	return map[string]string{
		constants.SettingHighContrast:          fmt.Sprintf("%v", settings.HighContrast),
		constants.SettingNotificationIntensity: string(settings.NotificationIntensity),
		constants.SettingEnableVibration:       fmt.Sprintf("%v", settings.EnableVibration),
		constants.SettingSnoozeMinutes:         fmt.Sprintf("%d", settings.SnoozeMinutes),
	}
}

// ApplyDefaultSettings fills values that are missing or out of range.
func ApplyDefaultSettings(settings *AppSettings) {
	if settings.NotificationIntensity == "" {
		settings.NotificationIntensity = constants.DefaultNotificationIntensity
	}
	if settings.SnoozeMinutes == 0 {
		settings.SnoozeMinutes = constants.DefaultSnoozeMinutes
	}
	settings.SnoozeMinutes = ClampSnoozeMinutes(settings.SnoozeMinutes)
}
