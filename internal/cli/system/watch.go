package system

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/julianstephens/pillminder/internal/cli"
	"github.com/julianstephens/pillminder/internal/daemon"
	"github.com/julianstephens/pillminder/internal/notifier"
)

// WatchCmd runs the reminder daemon in the foreground until interrupted.
type WatchCmd struct{}

func (c *WatchCmd) Run(ctx *cli.Context) error {
	d, err := ctx.NewDeliverer()
	if err != nil {
		return err
	}
	gate := notifier.NewGate(d)

	dm := daemon.New(ctx.Engine, ctx.Store, ctx.Settings, gate, daemon.Options{
		RolloverCheck:   ctx.Config.Daemon.RolloverCheck,
		PermissionCheck: ctx.Config.Notifier.PermissionCheckInterval,
		PollInterval:    ctx.Config.Daemon.RevisionPollInterval,
	})

	runCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	ctx.Printf("Watching for reminders (%s backend). Press Ctrl+C to stop.\n", ctx.Config.Notifier.Backend)
	if err := dm.Run(runCtx); err != nil {
		return fmt.Errorf("reminder daemon failed: %w", err)
	}
	ctx.Println("Stopped.")
	return nil
}
