package system

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"io/fs"
	"time"

	"github.com/julianstephens/pillminder/internal/backup"
	"github.com/julianstephens/pillminder/internal/cli"
	"github.com/julianstephens/pillminder/internal/constants"
	"github.com/julianstephens/pillminder/internal/keyring"
	"github.com/julianstephens/pillminder/internal/migration"
	"github.com/julianstephens/pillminder/internal/models"
	"github.com/julianstephens/pillminder/internal/notifier"
	"github.com/julianstephens/pillminder/internal/storage/postgres"
	"github.com/julianstephens/pillminder/internal/storage/sqlite"
	"github.com/julianstephens/pillminder/migrations"
)

// keyringAvailable is replaced in tests
var keyringAvailable = keyring.IsAvailable

type DoctorCmd struct{}

type check struct {
	name     string
	warnOnly bool // failures print a warning and do not fail the run
	needsDB  bool
	run      func(ctx *cli.Context) error
}

func (cmd *DoctorCmd) Run(ctx *cli.Context) error {
	ctx.Println("Running diagnostics...")
	ctx.Println()

	hasError := false
	dbReachable := false

	if err := checkDBReachable(ctx); err != nil {
		ctx.Printf("❌ Database reachable: FAIL\n")
		ctx.Printf("   Error: %v\n", err)
		hasError = true
	} else {
		ctx.Printf("✓ Database reachable: OK\n")
		dbReachable = true
	}

	checks := []check{
		{name: "Schema version", needsDB: true, run: checkSchemaVersion},
		{name: "Migrations complete", needsDB: true, run: checkMigrationsComplete},
		{name: "Backups present", warnOnly: true, run: checkBackupsPresent},
		{name: "Stored documents", needsDB: true, run: checkDocuments},
		{name: "Pill validation", needsDB: true, run: checkPills},
		{name: "Log integrity", needsDB: true, run: checkLogs},
		{name: "Settings", needsDB: true, run: checkSettings},
		{name: "Clock/timezone", run: func(*cli.Context) error { return checkClockTimezone(time.Now()) }},
		{name: "OS keyring", warnOnly: true, run: checkKeyring},
		{name: "Notification permission", warnOnly: true, run: checkPermission},
	}

	for _, c := range checks {
		if c.needsDB && !dbReachable {
			ctx.Printf("⊘ %s: SKIPPED (database not reachable)\n", c.name)
			continue
		}
		err := c.run(ctx)
		switch {
		case err == nil:
			ctx.Printf("✓ %s: OK\n", c.name)
		case c.warnOnly:
			ctx.Printf("⚠ %s: WARNING\n", c.name)
			ctx.Printf("   %v\n", err)
		default:
			ctx.Printf("❌ %s: FAIL\n", c.name)
			ctx.Printf("   Error: %v\n", err)
			hasError = true
		}
	}

	ctx.Println()
	if hasError {
		ctx.Println("Diagnostics completed with errors.")
		return fmt.Errorf("one or more health checks failed")
	}

	ctx.Println("All diagnostics passed!")
	return nil
}

// sqlDB returns the connection, migration files and dialect of SQL backends.
func sqlDB(ctx *cli.Context) (*sql.DB, fs.FS, migration.Dialect, bool) {
	var (
		db      *sql.DB
		dir     string
		dialect migration.Dialect
	)
	switch s := ctx.Backend.(type) {
	case *sqlite.Store:
		db, dir, dialect = s.GetDB(), "sqlite", migration.DialectSQLite
	case *postgres.Store:
		db, dir, dialect = s.GetDB(), "postgres", migration.DialectPostgres
	default:
		return nil, nil, 0, false
	}
	sub, err := fs.Sub(migrations.FS, dir)
	if err != nil {
		return nil, nil, 0, false
	}
	return db, sub, dialect, true
}

func checkDBReachable(ctx *cli.Context) error {
	if err := ctx.Backend.Load(); err != nil {
		return fmt.Errorf("failed to load database: %w", err)
	}

	if db, _, _, ok := sqlDB(ctx); ok {
		if db == nil {
			return fmt.Errorf("database connection is nil")
		}
		var result int
		if err := db.QueryRow("SELECT 1").Scan(&result); err != nil {
			return fmt.Errorf("failed to query database: %w", err)
		}
	}

	ctx.Engine.Reload()
	ctx.Settings.Refresh()
	return nil
}

func schemaVersions(ctx *cli.Context) (current, latest int, ok bool, err error) {
	db, migrationFS, dialect, isSQL := sqlDB(ctx)
	if !isSQL {
		// JSON and memory stores have no schema
		return 0, 0, false, nil
	}
	runner := migration.NewRunner(db, migrationFS, dialect)

	current, err = runner.GetCurrentVersion()
	if err != nil {
		return 0, 0, false, fmt.Errorf("failed to get current schema version: %w", err)
	}
	latest, err = runner.GetLatestVersion()
	if err != nil {
		return 0, 0, false, fmt.Errorf("failed to get latest schema version: %w", err)
	}
	return current, latest, true, nil
}

func checkSchemaVersion(ctx *cli.Context) error {
	current, latest, ok, err := schemaVersions(ctx)
	if err != nil || !ok {
		return err
	}
	if current > latest {
		return fmt.Errorf("database schema version (%d) is newer than supported version (%d)", current, latest)
	}
	return nil
}

func checkMigrationsComplete(ctx *cli.Context) error {
	current, latest, ok, err := schemaVersions(ctx)
	if err != nil || !ok {
		return err
	}
	if current < latest {
		return fmt.Errorf("migrations incomplete: current version %d, latest version %d", current, latest)
	}
	return nil
}

func checkBackupsPresent(ctx *cli.Context) error {
	path, ok := ctx.SQLitePath()
	if !ok {
		return fmt.Errorf("backups are only supported for SQLite databases")
	}
	backups, err := backup.NewManager(path).List()
	if err != nil {
		return fmt.Errorf("failed to list backups: %w", err)
	}
	if len(backups) == 0 {
		return fmt.Errorf("no backups found - consider creating one with 'pillminder backup create'")
	}
	return nil
}

// checkDocuments decodes every stored document directly, since typed reads
// fall back to defaults on corrupt data.
func checkDocuments(ctx *cli.Context) error {
	targets := map[string]interface{}{
		constants.KeyPills:            &[]models.Pill{},
		constants.KeyPillLogs:         &[]models.PillLog{},
		constants.KeyLastScheduleDate: new(string),
		constants.KeyAppSettings:      &models.AppSettings{},
	}
	for _, key := range storedKeys {
		data, ok, err := ctx.Backend.Get(key)
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", key, err)
		}
		if !ok {
			continue
		}
		if err := json.Unmarshal(data, targets[key]); err != nil {
			return fmt.Errorf("%s is not valid: %w", key, err)
		}
	}
	return nil
}

func checkPills(ctx *cli.Context) error {
	seen := make(map[string]bool)
	for _, p := range ctx.Engine.Pills() {
		if seen[p.ID] {
			return fmt.Errorf("duplicate pill ID found: %s", p.ID)
		}
		seen[p.ID] = true
		if err := p.Validate(); err != nil {
			return fmt.Errorf("pill %s: %w", p.ID, err)
		}
	}
	return nil
}

func checkLogs(ctx *cli.Context) error {
	pills := ctx.PillNames()
	seen := make(map[string]bool)
	orphaned := 0
	for _, l := range ctx.Engine.Logs() {
		if seen[l.ID] {
			return fmt.Errorf("duplicate log ID found: %s", l.ID)
		}
		seen[l.ID] = true
		if err := l.CheckInvariant(); err != nil {
			return fmt.Errorf("log %s: %w", l.ID, err)
		}
		if _, ok := pills[l.PillID]; !ok {
			orphaned++
		}
	}
	if orphaned > 0 {
		return fmt.Errorf("found %d orphaned logs (referencing non-existent pills)", orphaned)
	}

	if marker := ctx.Engine.LastScheduleDate(); marker != "" {
		if _, err := time.Parse("2006-01-02", marker); err != nil {
			return fmt.Errorf("last schedule date %q is not a date", marker)
		}
	}
	return nil
}

func checkSettings(ctx *cli.Context) error {
	s := ctx.Settings.Get()
	return s.Validate()
}

func checkClockTimezone(now time.Time) error {
	if now.Year() < 2020 || now.Year() > 2100 {
		return fmt.Errorf("system time appears incorrect: %s", now.Format(time.RFC3339))
	}
	return nil
}

func checkKeyring(*cli.Context) error {
	if !keyringAvailable() {
		return fmt.Errorf("OS keyring is not available; store secrets in the config file instead")
	}
	return nil
}

func checkPermission(ctx *cli.Context) error {
	d, err := ctx.NewDeliverer()
	if err != nil {
		return err
	}
	if perm := notifier.NewGate(d).Permission(); perm != constants.PermissionGranted {
		return fmt.Errorf("%s backend reports permission %q", ctx.Config.Notifier.Backend, perm)
	}
	return nil
}
