package system

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/julianstephens/pillminder/internal/cli"
	"github.com/julianstephens/pillminder/internal/config"
	"github.com/julianstephens/pillminder/internal/constants"
	"github.com/julianstephens/pillminder/internal/storage"
	"github.com/julianstephens/pillminder/internal/storage/postgres"
)

// storedKeys are copied when initializing from another database
var storedKeys = []string{
	constants.KeyPills,
	constants.KeyPillLogs,
	constants.KeyLastScheduleDate,
	constants.KeyAppSettings,
}

type InitCmd struct {
	Force  bool   `help:"Force reset by deleting existing database before initialization."`
	Source string `help:"Source database path or connection string to copy data from."`
}

// filePath returns the on-disk file behind file-based backends.
func filePath(ctx *cli.Context) (string, bool) {
	if path, ok := ctx.SQLitePath(); ok {
		return path, true
	}
	if s, ok := ctx.Backend.(*storage.JSONStore); ok {
		return s.GetConfigPath(), true
	}
	return "", false
}

func (c *InitCmd) Run(ctx *cli.Context) error {
	if c.Force {
		if dbPath, ok := filePath(ctx); ok {
			if c.Source != "" {
				absDB, err := filepath.Abs(dbPath)
				if err == nil {
					dbPath = absDB
				}
				absSource, err := filepath.Abs(c.Source)
				if err == nil && absSource == dbPath {
					return fmt.Errorf("cannot use --force when source and destination are the same: %s", dbPath)
				}
			}
			if _, err := os.Stat(dbPath); err == nil {
				// Close first to release the file lock
				if err := ctx.Backend.Close(); err != nil {
					return fmt.Errorf("failed to close existing database: %w", err)
				}
				if err := os.Remove(dbPath); err != nil {
					return fmt.Errorf("failed to delete existing database: %w", err)
				}
				ctx.Printf("Deleted existing database at: %s\n", dbPath)
			} else if !os.IsNotExist(err) {
				return fmt.Errorf("failed to access existing database: %w", err)
			}
		}
	}

	if err := ctx.Backend.Init(); err != nil {
		return err
	}
	ctx.Printf("Initialized pillminder storage at: %s\n", ctx.Backend.GetConfigPath())

	if ctx.SettingsFile != "" {
		created, err := config.WriteDefault(ctx.SettingsFile)
		if err != nil {
			return fmt.Errorf("failed to write default config: %w", err)
		}
		if created {
			ctx.Printf("Wrote default config to: %s\n", ctx.SettingsFile)
		}
	}

	if c.Source != "" {
		ctx.Printf("Copying data from: %s\n", c.Source)
		n, err := copyData(ctx.Backend, c.Source)
		if err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
		ctx.Printf("Copied %d value(s)\n", n)
	}

	return nil
}

func copyData(dst storage.Backend, source string) (int, error) {
	if postgres.IsConnString(source) {
		if valid, err := postgres.ValidateConnString(source); !valid {
			if errors.Is(err, postgres.ErrEmbeddedCredentials) {
				return 0, errors.New("PostgreSQL source connection string contains embedded credentials. Use environment variables or .pgpass instead")
			}
			return 0, err
		}
	}

	src, err := storage.Open(source)
	if err != nil {
		return 0, err
	}
	if err := src.Load(); err != nil {
		return 0, fmt.Errorf("failed to load source database: %w", err)
	}
	defer src.Close()

	values := make(map[string][]byte)
	for _, key := range storedKeys {
		data, ok, err := src.Get(key)
		if err != nil {
			return 0, fmt.Errorf("failed to read %s from source: %w", key, err)
		}
		if ok {
			values[key] = data
		}
	}
	if len(values) == 0 {
		return 0, nil
	}
	if err := dst.SetMany(values); err != nil {
		return 0, fmt.Errorf("failed to write destination: %w", err)
	}
	return len(values), nil
}
