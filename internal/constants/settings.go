package constants

const (
	// App Settings field names (CLI and doctor output)
	SettingHighContrast          = "high_contrast"
	SettingNotificationIntensity = "notification_intensity"
	SettingEnableVibration       = "enable_vibration"
	SettingSnoozeMinutes         = "snooze_minutes"

	// Default Settings Values
	DefaultHighContrast          = false
	DefaultNotificationIntensity = IntensityNormal
	DefaultEnableVibration       = true
	DefaultSnoozeMinutes         = 10
	MinSnoozeMinutes             = 1
	MaxSnoozeMinutes             = 60
)
