package logs

import (
	"fmt"
	"sort"

	"github.com/julianstephens/pillminder/internal/cli"
	"github.com/julianstephens/pillminder/internal/constants"
	"github.com/julianstephens/pillminder/internal/models"
	"github.com/julianstephens/pillminder/internal/utils"
)

func printLogs(ctx *cli.Context, logs []models.PillLog, withDate bool) {
	palette := ctx.Palette()
	names := ctx.PillNames()
	now := ctx.Now()

	for _, l := range logs {
		name, ok := names[l.PillID]
		if !ok {
			name = "(unknown pill)"
		}
		when := utils.FormatTimeOfDay(l.ScheduledTime)
		if withDate {
			when = utils.DayKey(l.ScheduledTime) + " " + when
		}

		detail := ""
		switch l.Status {
		case constants.StatusTaken:
			if l.TakenTime != nil {
				detail = "at " + utils.FormatTimeOfDay(*l.TakenTime)
			}
		case constants.StatusSnoozed:
			if l.SnoozedUntil != nil {
				detail = "until " + utils.FormatTimeOfDay(*l.SnoozedUntil) + " (" + utils.Relative(*l.SnoozedUntil, now) + ")"
			}
		case constants.StatusPending:
			if l.ScheduledTime.Before(now) {
				detail = "due " + utils.Relative(l.ScheduledTime, now)
			}
		}

		status := palette.Status(l.Status).Render(fmt.Sprintf("%-7s", l.Status))
		ctx.Printf("  %s  %s  %-20s %s %s\n", palette.Muted.Render(cli.ShortID(l.ID)), when, name, status, palette.Muted.Render(detail))
	}
}

type TodayCmd struct{}

func (c *TodayCmd) Run(ctx *cli.Context) error {
	logs := ctx.Engine.Today()
	if len(logs) == 0 {
		ctx.Println("Nothing scheduled today.")
		return nil
	}
	sort.SliceStable(logs, func(i, j int) bool {
		return logs[i].ScheduledTime.Before(logs[j].ScheduledTime)
	})

	ctx.Println(ctx.Palette().Header.Render("Today, " + utils.DayKey(ctx.Now())))
	printLogs(ctx, logs, false)
	return nil
}

type PendingCmd struct{}

func (c *PendingCmd) Run(ctx *cli.Context) error {
	logs := ctx.Engine.PendingSorted()
	if len(logs) == 0 {
		ctx.Println("No pending doses.")
		return nil
	}

	ctx.Println(ctx.Palette().Header.Render(fmt.Sprintf("Pending (%d)", len(logs))))
	printLogs(ctx, logs, true)
	return nil
}

type TakeCmd struct {
	Log  string `arg:"" optional:"" help:"Log ID or ID prefix."`
	Pill string `short:"p" help:"Take the earliest open dose of this pill today instead."`
}

func (c *TakeCmd) Run(ctx *cli.Context) error {
	l, err := ctx.ResolveLog(c.Log, c.Pill)
	if err != nil {
		return err
	}
	return report(ctx, l, "taken")(ctx.Engine.MarkTaken(l.ID))
}

type MissCmd struct {
	Log  string `arg:"" optional:"" help:"Log ID or ID prefix."`
	Pill string `short:"p" help:"Mark the earliest open dose of this pill today instead."`
}

func (c *MissCmd) Run(ctx *cli.Context) error {
	l, err := ctx.ResolveLog(c.Log, c.Pill)
	if err != nil {
		return err
	}
	return report(ctx, l, "missed")(ctx.Engine.MarkMissed(l.ID))
}

type SnoozeCmd struct {
	Log     string `arg:"" optional:"" help:"Log ID or ID prefix."`
	Pill    string `short:"p" help:"Snooze the earliest open dose of this pill today instead."`
	Minutes int    `short:"m" help:"Snooze length in minutes (1-60). Defaults to the snooze_minutes setting."`
}

func (c *SnoozeCmd) Run(ctx *cli.Context) error {
	l, err := ctx.ResolveLog(c.Log, c.Pill)
	if err != nil {
		return err
	}

	minutes := ctx.Settings.SnoozeMinutes()
	if c.Minutes != 0 {
		minutes = models.ClampSnoozeMinutes(c.Minutes)
	}

	applied, err := ctx.Engine.Snooze(l.ID, minutes)
	if err != nil {
		return fmt.Errorf("failed to snooze: %w", err)
	}
	if !applied {
		return fmt.Errorf("log %s no longer exists", cli.ShortID(l.ID))
	}

	if updated, ok := ctx.Engine.Log(l.ID); ok && updated.SnoozedUntil != nil {
		ctx.Printf("Snoozed %s for %d min (until %s)\n", cli.ShortID(l.ID), minutes, utils.FormatTimeOfDay(*updated.SnoozedUntil))
	}
	return nil
}

// report turns an engine result into command output.
func report(ctx *cli.Context, l models.PillLog, status string) func(bool, error) error {
	return func(applied bool, err error) error {
		if err != nil {
			return fmt.Errorf("failed to mark %s: %w", status, err)
		}
		if !applied {
			return fmt.Errorf("log %s no longer exists", cli.ShortID(l.ID))
		}
		name := ctx.PillNames()[l.PillID]
		ctx.Printf("Marked %s %s (%s) as %s\n", name, utils.FormatTimeOfDay(l.ScheduledTime), cli.ShortID(l.ID), status)
		return nil
	}
}

type SweepCmd struct {
	DryRun bool `help:"Only count the doses that would be marked missed."`
}

// Run marks open doses from earlier days as missed. Today's doses are left alone.
func (c *SweepCmd) Run(ctx *cli.Context) error {
	cutoff := utils.StartOfDay(ctx.Now())

	if c.DryRun {
		n := 0
		for _, l := range ctx.Engine.Pending() {
			if l.ScheduledTime.Before(cutoff) {
				n++
			}
		}
		ctx.Printf("%d open dose(s) before %s would be marked missed\n", n, utils.DayKey(cutoff))
		return nil
	}

	ctx.PerformAutomaticBackup()
	n, err := ctx.Engine.SweepOverdue(cutoff)
	if err != nil {
		return fmt.Errorf("sweep failed: %w", err)
	}
	ctx.Printf("Marked %d open dose(s) before %s as missed\n", n, utils.DayKey(cutoff))
	return nil
}
