package constants

import "time"

// LogStatus is the lifecycle state of a single pill occurrence
type LogStatus string

// Intensity controls how loudly reminders are delivered
type Intensity string

// Permission is the delivery permission reported by a notification backend
type Permission string

const (
	AppName             = "pillminder"
	DefaultKeyringUser  = "database-connection"
	PushoverKeyringUser = "pushover-token"
	DefaultConfigPath   = "~/.config/pillminder/pillminder.db"
	DefaultSettingsFile = "~/.config/pillminder/config.yaml"
	Version             = "v0.1.0"

	// DateFormat is the standard date format used throughout the application (YYYY-MM-DD)
	DateFormat = "2006-01-02"

	// TimeFormat is the standard time format used throughout the application (HH:MM)
	TimeFormat = "15:04"

	// Persisted keys
	KeyPills            = "pills"
	KeyPillLogs         = "pill-logs"
	KeyLastScheduleDate = "last-schedule-date"
	KeyAppSettings      = "app-settings"

	// Log statuses
	StatusPending LogStatus = "pending"
	StatusTaken   LogStatus = "taken"
	StatusMissed  LogStatus = "missed"
	StatusSnoozed LogStatus = "snoozed"

	// Notification intensities
	IntensityQuiet  Intensity = "quiet"
	IntensityNormal Intensity = "normal"
	IntensityLoud   Intensity = "loud"

	// Notification permissions
	PermissionGranted Permission = "granted"
	PermissionDenied  Permission = "denied"
	PermissionDefault Permission = "default"

	// Backup constants
	MaxBackups       = 14
	BackupDirName    = "backups"
	BackupFilePrefix = "pillminder-"
	BackupFileSuffix = ".db"

	// Notify constants
	NotifierLockfileName   = "pillminder-notifier.lock"
	NotificationDurationMs = 5000
	TrayAppIdentifier      = "com.julianstephens.pillminder"
	TrayProcessPrefix      = "pillminder-tray"
	PushoverAPIURL         = "https://api.pushover.net/1/messages.json"
	NotificationTitle      = "Time for your medication"

	// Background intervals
	DefaultPermissionCheck      = 5 * time.Minute
	DefaultRevisionPollInterval = 30 * time.Second

	// DefaultHeatmapDays is the trailing window used by the compliance heatmap
	DefaultHeatmapDays = 30
)
