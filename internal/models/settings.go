package models

import (
	"fmt"

	"github.com/julianstephens/pillminder/internal/constants"
)

// AppSettings represents user preferences that affect reminders and display
type AppSettings struct {
	HighContrast          bool                `json:"highContrast"`          // whether to render with the high-contrast palette
	NotificationIntensity constants.Intensity `json:"notificationIntensity"` // quiet, normal or loud
	EnableVibration       bool                `json:"enableVibration"`       // whether delivered reminders carry a vibration pattern
	SnoozeMinutes         int                 `json:"snoozeMinutes"`         // snooze length, 1..60
}

// DefaultSettings returns the settings used when nothing has been stored yet.
func DefaultSettings() AppSettings {
	return AppSettings{
		HighContrast:          constants.DefaultHighContrast,
		NotificationIntensity: constants.DefaultNotificationIntensity,
		EnableVibration:       constants.DefaultEnableVibration,
		SnoozeMinutes:         constants.DefaultSnoozeMinutes,
	}
}

func (s *AppSettings) Validate() error {
	switch s.NotificationIntensity {
	case constants.IntensityQuiet, constants.IntensityNormal, constants.IntensityLoud:
	default:
		return fmt.Errorf("invalid notification intensity %q (expected quiet, normal or loud)", s.NotificationIntensity)
	}
	if s.SnoozeMinutes < constants.MinSnoozeMinutes || s.SnoozeMinutes > constants.MaxSnoozeMinutes {
		return fmt.Errorf("snooze minutes must be between %d and %d, got %d",
			constants.MinSnoozeMinutes, constants.MaxSnoozeMinutes, s.SnoozeMinutes)
	}
	return nil
}

// ClampSnoozeMinutes bounds a snooze length to the supported 1..60 range.
func ClampSnoozeMinutes(minutes int) int {
	if minutes < constants.MinSnoozeMinutes {
		return constants.MinSnoozeMinutes
	}
	if minutes > constants.MaxSnoozeMinutes {
		return constants.MaxSnoozeMinutes
	}
	return minutes
}
