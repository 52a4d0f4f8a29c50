package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/julianstephens/pillminder/internal/backup"
	"github.com/julianstephens/pillminder/internal/config"
	"github.com/julianstephens/pillminder/internal/keyring"
	"github.com/julianstephens/pillminder/internal/logger"
	"github.com/julianstephens/pillminder/internal/models"
	"github.com/julianstephens/pillminder/internal/notifier"
	"github.com/julianstephens/pillminder/internal/persist"
	"github.com/julianstephens/pillminder/internal/schedule"
	"github.com/julianstephens/pillminder/internal/settings"
	"github.com/julianstephens/pillminder/internal/storage"
	"github.com/julianstephens/pillminder/internal/storage/sqlite"
	"github.com/julianstephens/pillminder/internal/streak"
)

// ShortIDLen is how many id characters list output shows
const ShortIDLen = 8

var pushoverTokenFunc = keyring.GetPushoverToken

type Context struct {
	Backend  storage.Backend
	Store    *persist.Store
	Engine   *schedule.Engine
	Settings *settings.Store
	Streaks  *streak.Cache
	Config   config.Config

	// SettingsFile is where the YAML config was read from
	SettingsFile string
	Out          io.Writer
	In           io.Reader
	Now          func() time.Time
}

// NewContext wires the engine and settings over backend. The backend does
// not need to be loaded yet.
func NewContext(backend storage.Backend, cfg config.Config, opts ...schedule.Option) *Context {
	store := persist.NewStore(backend)
	ctx := &Context{
		Backend:  backend,
		Store:    store,
		Settings: settings.Bind(store),
		Streaks:  streak.NewCache(),
		Config:   cfg,
		Out:      os.Stdout,
		In:       os.Stdin,
		Now:      time.Now,
	}
	clock := schedule.WithClock(func() time.Time { return ctx.Now() })
	ctx.Engine = schedule.New(store, append([]schedule.Option{clock}, opts...)...)
	return ctx
}

// Activate generates today's logs if that has not happened yet today.
func (c *Context) Activate() error {
	if _, err := c.Engine.GenerateDailyLogs(); err != nil {
		return fmt.Errorf("failed to generate today's logs: %w", err)
	}
	return nil
}

func (c *Context) Printf(format string, args ...interface{}) {
	fmt.Fprintf(c.Out, format, args...)
}

func (c *Context) Print(args ...interface{}) {
	fmt.Fprint(c.Out, args...)
}

func (c *Context) Println(args ...interface{}) {
	fmt.Fprintln(c.Out, args...)
}

// SQLitePath returns the database file when the backend is SQLite.
func (c *Context) SQLitePath() (string, bool) {
	if s, ok := c.Backend.(*sqlite.Store); ok {
		return s.GetConfigPath(), true
	}
	return "", false
}

// PerformAutomaticBackup creates an automatic backup and silently handles errors.
// Only SQLite databases are backed up.
func (c *Context) PerformAutomaticBackup() {
	path, ok := c.SQLitePath()
	if !ok {
		return
	}
	if _, err := backup.NewManager(path).Create(); err != nil {
		// Log warning but don't interrupt user workflow
		logger.Warn("Automatic backup failed", "error", err)
	}
}

// NewDeliverer builds the configured notification backend. The Pushover
// token falls back to the OS keyring when the config leaves it empty.
func (c *Context) NewDeliverer() (notifier.Deliverer, error) {
	switch c.Config.Notifier.Backend {
	case config.BackendPushover:
		token := c.Config.Notifier.Pushover.Token
		if token == "" {
			t, err := pushoverTokenFunc()
			if err != nil && !errors.Is(err, keyring.ErrNotFound) {
				logger.Warn("Failed to read Pushover token from keyring", "error", err)
			}
			token = t
		}
		return notifier.NewPushoverNotifier(token, c.Config.Notifier.Pushover.User), nil
	case config.BackendConsole:
		return notifier.NewConsoleNotifier(c.Out), nil
	case config.BackendTray, "":
		return notifier.NewTrayNotifier(), nil
	default:
		return nil, fmt.Errorf("unknown notifier backend %q", c.Config.Notifier.Backend)
	}
}

// ShortID trims an id for display.
func ShortID(id string) string {
	if len(id) > ShortIDLen {
		return id[:ShortIDLen]
	}
	return id
}

// ResolvePill finds a pill by id, unique id prefix, or case-insensitive name.
func (c *Context) ResolvePill(ref string) (models.Pill, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return models.Pill{}, errors.New("pill reference cannot be empty")
	}
	if p, ok := c.Engine.Pill(ref); ok {
		return p, nil
	}

	var matches []models.Pill
	for _, p := range c.Engine.Pills() {
		if strings.HasPrefix(p.ID, ref) || strings.EqualFold(p.Name, ref) {
			matches = append(matches, p)
		}
	}
	switch len(matches) {
	case 0:
		return models.Pill{}, fmt.Errorf("no pill matches %q", ref)
	case 1:
		return matches[0], nil
	default:
		return models.Pill{}, fmt.Errorf("%q matches %d pills, use a longer id", ref, len(matches))
	}
}

// ResolveLog finds a log by id or unique id prefix. With pillRef set it
// instead picks that pill's earliest open log for today.
func (c *Context) ResolveLog(ref, pillRef string) (models.PillLog, error) {
	if pillRef != "" {
		p, err := c.ResolvePill(pillRef)
		if err != nil {
			return models.PillLog{}, err
		}
		var open []models.PillLog
		for _, l := range c.Engine.Today() {
			if l.PillID == p.ID && l.IsOpen() {
				open = append(open, l)
			}
		}
		if len(open) == 0 {
			return models.PillLog{}, fmt.Errorf("%s has no open doses today", p.Name)
		}
		sort.SliceStable(open, func(i, j int) bool {
			return open[i].ScheduledTime.Before(open[j].ScheduledTime)
		})
		return open[0], nil
	}

	ref = strings.TrimSpace(ref)
	if ref == "" {
		return models.PillLog{}, errors.New("specify a log id or --pill")
	}
	if l, ok := c.Engine.Log(ref); ok {
		return l, nil
	}

	var matches []models.PillLog
	for _, l := range c.Engine.Logs() {
		if strings.HasPrefix(l.ID, ref) {
			matches = append(matches, l)
		}
	}
	switch len(matches) {
	case 0:
		return models.PillLog{}, fmt.Errorf("no log matches %q", ref)
	case 1:
		return matches[0], nil
	default:
		return models.PillLog{}, fmt.Errorf("%q matches %d logs, use a longer id", ref, len(matches))
	}
}

// PillNames maps pill ids to names for log output.
func (c *Context) PillNames() map[string]string {
	names := make(map[string]string)
	for _, p := range c.Engine.Pills() {
		names[p.ID] = p.Name
	}
	return names
}
