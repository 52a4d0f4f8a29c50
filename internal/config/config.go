// Package config loads the optional pillminder settings file (YAML, TOML or
// JSON) with PILLMINDER_-prefixed environment overrides.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/julianstephens/pillminder/internal/constants"
	"github.com/julianstephens/pillminder/internal/utils"
)

const (
	BackendTray     = "tray"
	BackendPushover = "pushover"
	BackendConsole  = "console"

	envPrefix = "PILLMINDER"
)

type Config struct {
	Notifier NotifierConfig `mapstructure:"notifier"`
	Daemon   DaemonConfig   `mapstructure:"daemon"`
	Storage  StorageConfig  `mapstructure:"storage"`
}

type NotifierConfig struct {
	Backend                 string         `mapstructure:"backend"`
	PermissionCheckInterval time.Duration  `mapstructure:"permission_check_interval"`
	Pushover                PushoverConfig `mapstructure:"pushover"`
}

type PushoverConfig struct {
	Token string `mapstructure:"token"`
	User  string `mapstructure:"user"`
}

type DaemonConfig struct {
	// RolloverCheck bounds how long the daemon sleeps before re-checking the calendar day
	RolloverCheck        time.Duration `mapstructure:"rollover_check"`
	RevisionPollInterval time.Duration `mapstructure:"revision_poll_interval"`
}

type StorageConfig struct {
	// Path is used when --config is not given
	Path string `mapstructure:"path"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("notifier.backend", BackendTray)
	v.SetDefault("notifier.permission_check_interval", constants.DefaultPermissionCheck)
	v.SetDefault("notifier.pushover.token", "")
	v.SetDefault("notifier.pushover.user", "")
	v.SetDefault("daemon.rollover_check", time.Hour)
	v.SetDefault("daemon.revision_poll_interval", constants.DefaultRevisionPollInterval)
	v.SetDefault("storage.path", constants.DefaultConfigPath)
}

func newViper() *viper.Viper {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// Default returns the configuration used when no file and no environment overrides exist.
func Default() Config {
	var cfg Config
	// Defaults always decode
	_ = newViper().Unmarshal(&cfg)
	return cfg
}

// Load reads path if it exists and applies environment overrides. A missing
// file is not an error; defaults are used instead.
func Load(path string) (Config, error) {
	v := newViper()

	if path != "" {
		expanded, err := utils.ExpandHome(path)
		if err != nil {
			return Config{}, err
		}
		if _, err := os.Stat(expanded); err == nil {
			v.SetConfigFile(expanded)
			if err := v.ReadInConfig(); err != nil {
				return Config{}, fmt.Errorf("failed to read config file %s: %w", expanded, err)
			}
		} else if !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("failed to stat config file %s: %w", expanded, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("failed to decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	switch c.Notifier.Backend {
	case BackendTray, BackendPushover, BackendConsole:
	default:
		return fmt.Errorf("invalid notifier.backend %q (expected tray, pushover or console)", c.Notifier.Backend)
	}
	if c.Notifier.PermissionCheckInterval <= 0 {
		return fmt.Errorf("notifier.permission_check_interval must be positive")
	}
	if c.Daemon.RolloverCheck <= 0 {
		return fmt.Errorf("daemon.rollover_check must be positive")
	}
	if c.Daemon.RevisionPollInterval <= 0 {
		return fmt.Errorf("daemon.revision_poll_interval must be positive")
	}
	return nil
}

// WriteDefault writes the default settings file unless one exists.
// It reports whether a file was written.
func WriteDefault(path string) (bool, error) {
	expanded, err := utils.ExpandHome(path)
	if err != nil {
		return false, err
	}
	if _, err := os.Stat(expanded); err == nil {
		return false, nil
	}
	if err := os.MkdirAll(filepath.Dir(expanded), 0700); err != nil {
		return false, fmt.Errorf("failed to create config directory: %w", err)
	}

	v := viper.New()
	setDefaults(v)
	if err := v.SafeWriteConfigAs(expanded); err != nil {
		return false, fmt.Errorf("failed to write config file: %w", err)
	}
	if err := os.Chmod(expanded, 0600); err != nil {
		return false, err
	}
	return true, nil
}
