package system

import (
	"fmt"

	"github.com/julianstephens/pillminder/internal/cli"
	"github.com/julianstephens/pillminder/internal/constants"
	"github.com/julianstephens/pillminder/internal/notifier"
)

// NotifyPermissionCmd asks the configured backend for delivery permission.
type NotifyPermissionCmd struct{}

func (c *NotifyPermissionCmd) Run(ctx *cli.Context) error {
	d, err := ctx.NewDeliverer()
	if err != nil {
		return err
	}

	perm, err := notifier.NewGate(d).RequestPermission()
	if err != nil {
		return fmt.Errorf("failed to request permission: %w", err)
	}

	switch perm {
	case constants.PermissionGranted:
		ctx.Printf("✓ Notifications granted (%s)\n", ctx.Config.Notifier.Backend)
	case constants.PermissionDenied:
		ctx.Printf("❌ Notifications denied (%s)\n", ctx.Config.Notifier.Backend)
	default:
		ctx.Printf("ℹ Notification permission not yet granted (%s)\n", ctx.Config.Notifier.Backend)
	}
	return nil
}

// NotifyTestCmd sends one reminder through the gate using the current settings.
type NotifyTestCmd struct {
	DryRun bool `help:"Print the notification instead of sending it."`
}

func (c *NotifyTestCmd) Run(ctx *cli.Context) error {
	prefs := ctx.Settings.Get()
	opts := notifier.OptionsFor(prefs.NotificationIntensity, prefs.EnableVibration)
	opts.Tag = "pillminder-test"
	body := "This is a test reminder."

	if c.DryRun {
		ctx.Printf("[DryRun] %s: %s (intensity %s, silent %v, urgent %v, vibrate %v)\n",
			constants.NotificationTitle, body, prefs.NotificationIntensity, opts.Silent, opts.Urgent, opts.Vibrate)
		return nil
	}

	d, err := ctx.NewDeliverer()
	if err != nil {
		return err
	}
	gate := notifier.NewGate(d)
	if perm := gate.Permission(); perm != constants.PermissionGranted {
		return fmt.Errorf("notification permission is %q for the %s backend", perm, ctx.Config.Notifier.Backend)
	}
	if err := gate.Deliver(constants.NotificationTitle, body, opts); err != nil {
		return fmt.Errorf("failed to send notification: %w", err)
	}
	ctx.Println("✓ Test notification sent")
	return nil
}
