package logger

import (
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/julianstephens/pillminder/internal/constants"
)

// LevelEnv overrides the file log level, e.g. PILLMINDER_LOG_LEVEL=debug
const LevelEnv = "PILLMINDER_LOG_LEVEL"

var (
	// Logger is the global logger instance
	Logger *log.Logger

	// getenv is replaced in tests
	getenv = os.Getenv
)

type Config struct {
	Debug bool
	// ConfigDir holds config.yaml; reminder logs go to ConfigDir/logs
	ConfigDir string
}

// FilePath is where the rotating reminder log for configDir lives.
func FilePath(configDir string) string {
	return filepath.Join(configDir, "logs", constants.AppName+".log")
}

func level(cfg Config) log.Level {
	if cfg.Debug {
		return log.DebugLevel
	}
	if v := strings.TrimSpace(getenv(LevelEnv)); v != "" {
		if lvl, err := log.ParseLevel(strings.ToLower(v)); err == nil {
			return lvl
		}
	}
	// Info keeps one line per delivered reminder in the file
	return log.InfoLevel
}

// Init initializes the global logger with the given configuration
func Init(cfg Config) error {
	path := FilePath(cfg.ConfigDir)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	fileWriter := &lumberjack.Logger{
		Filename:   path,
		MaxSize:    5, // megabytes
		MaxBackups: 5,
		MaxAge:     90, // days, long enough to answer "did I get reminded?"
		Compress:   true,
	}

	// Only the debug mode mirrors to stderr; reminders must not clutter command output
	var writer io.Writer = fileWriter
	if cfg.Debug {
		writer = io.MultiWriter(os.Stderr, fileWriter)
	}

	Logger = log.NewWithOptions(writer, log.Options{
		ReportCaller:    cfg.Debug,
		ReportTimestamp: true,
		TimeFormat:      constants.DateFormat + " " + constants.TimeFormat + ":05",
		Level:           level(cfg),
		Prefix:          constants.AppName,
	})

	return nil
}

// Component returns a child logger tagged with the component name.
// Before Init it returns a logger that discards everything.
func Component(name string) *log.Logger {
	if Logger == nil {
		return log.New(io.Discard)
	}
	return Logger.With("component", name)
}

// Reminder logs a delivered reminder with its pill and tag.
func Reminder(l *log.Logger, pill, tag string, keyvals ...interface{}) {
	if l == nil {
		return
	}
	l.Info("Reminder delivered", append([]interface{}{"pill", pill, "tag", tag}, keyvals...)...)
}

// Debug logs a debug message
func Debug(msg string, keyvals ...interface{}) {
	if Logger != nil {
		Logger.Debug(msg, keyvals...)
	}
}

// Info logs an info message
func Info(msg string, keyvals ...interface{}) {
	if Logger != nil {
		Logger.Info(msg, keyvals...)
	}
}

// Warn logs a warning message
func Warn(msg string, keyvals ...interface{}) {
	if Logger != nil {
		Logger.Warn(msg, keyvals...)
	}
}

// Error logs an error message
func Error(msg string, keyvals ...interface{}) {
	if Logger != nil {
		Logger.Error(msg, keyvals...)
	}
}
