package pills

import (
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/huh"

	"github.com/julianstephens/pillminder/internal/cli"
	"github.com/julianstephens/pillminder/internal/models"
	"github.com/julianstephens/pillminder/internal/utils"
)

// runForm is replaced in tests, which never have a terminal
var runForm = func(f *huh.Form) error {
	return f.Run()
}

type PillAddCmd struct {
	Name    string   `arg:"" optional:"" help:"Pill name."`
	Dosage  string   `short:"d" help:"Dosage, e.g. 10mg."`
	Times   []string `short:"t" help:"Daily intake time (HH:MM). Repeat or comma-separate for several."`
	Color   string   `help:"Display color."`
	Notes   string   `short:"n" help:"Free-form notes."`
	NoInput bool     `help:"Fail instead of prompting for missing fields."`
}

type pillForm struct {
	Name   string
	Dosage string
	Times  string
	Notes  string
}

func validateTimes(s string) error {
	times := splitTimes([]string{s})
	if len(times) == 0 {
		return errors.New("at least one time is required")
	}
	for _, t := range times {
		if !utils.ValidateTimeFormat(t) {
			return fmt.Errorf("invalid time %q (expected HH:MM)", t)
		}
	}
	return nil
}

func required(field string) func(string) error {
	return func(s string) error {
		if strings.TrimSpace(s) == "" {
			return fmt.Errorf("%s cannot be empty", field)
		}
		return nil
	}
}

func newPillForm(fm *pillForm) *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Name").
				Value(&fm.Name).
				Validate(required("name")),
			huh.NewInput().
				Title("Dosage").
				Placeholder("10mg").
				Value(&fm.Dosage).
				Validate(required("dosage")),
			huh.NewInput().
				Title("Times").
				Description("Comma-separated HH:MM, e.g. 08:00, 20:00").
				Value(&fm.Times).
				Validate(validateTimes),
			huh.NewText().
				Title("Notes").
				Value(&fm.Notes),
		),
	)
}

// splitTimes accepts repeated flags as well as comma-separated values.
func splitTimes(values []string) []string {
	var out []string
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

func (c *PillAddCmd) Run(ctx *cli.Context) error {
	pill := models.Pill{
		Name:   strings.TrimSpace(c.Name),
		Dosage: strings.TrimSpace(c.Dosage),
		Times:  splitTimes(c.Times),
		Color:  c.Color,
		Notes:  c.Notes,
	}

	if pill.Name == "" || pill.Dosage == "" || len(pill.Times) == 0 {
		if c.NoInput {
			return errors.New("name, --dosage and --times are required with --no-input")
		}
		fm := &pillForm{
			Name:   pill.Name,
			Dosage: pill.Dosage,
			Times:  strings.Join(pill.Times, ", "),
			Notes:  pill.Notes,
		}
		if err := runForm(newPillForm(fm)); err != nil {
			if errors.Is(err, huh.ErrUserAborted) {
				ctx.Println("Cancelled.")
				return nil
			}
			return fmt.Errorf("prompt failed: %w", err)
		}
		pill.Name = strings.TrimSpace(fm.Name)
		pill.Dosage = strings.TrimSpace(fm.Dosage)
		pill.Times = splitTimes([]string{fm.Times})
		pill.Notes = fm.Notes
	}

	added, err := ctx.Engine.AddPill(pill)
	if err != nil {
		return fmt.Errorf("failed to add pill: %w", err)
	}

	ctx.Printf("Added pill: %s %s at %s (ID: %s)\n", added.Name, added.Dosage, strings.Join(added.Times, ", "), added.ID)
	ctx.Println("Reminders start with tomorrow's schedule.")
	return nil
}

type PillListCmd struct {
	ShowIDs bool `help:"Show full pill IDs." name:"show-ids"`
}

func (c *PillListCmd) Run(ctx *cli.Context) error {
	pills := ctx.Engine.Pills()
	if len(pills) == 0 {
		ctx.Println("No pills found")
		return nil
	}

	ctx.Println("Pills:")
	for _, p := range pills {
		id := cli.ShortID(p.ID)
		if c.ShowIDs {
			id = p.ID
		}
		ctx.Printf("  %s  %s (%s) at %s\n", id, p.Name, p.Dosage, strings.Join(p.Times, ", "))
		if p.Color != "" {
			ctx.Printf("      Color: %s\n", p.Color)
		}
		if p.Notes != "" {
			ctx.Printf("      Notes: %s\n", p.Notes)
		}
	}
	return nil
}

type PillEditCmd struct {
	Pill   string   `arg:"" help:"Pill ID, ID prefix or name."`
	Name   *string  `help:"New name."`
	Dosage *string  `short:"d" help:"New dosage."`
	Times  []string `short:"t" help:"Replace intake times (HH:MM)."`
	Color  *string  `help:"New display color."`
	Notes  *string  `short:"n" help:"New notes."`
}

func (c *PillEditCmd) Run(ctx *cli.Context) error {
	pill, err := ctx.ResolvePill(c.Pill)
	if err != nil {
		return err
	}

	patch := models.PillPatch{
		Name:   c.Name,
		Dosage: c.Dosage,
		Color:  c.Color,
		Notes:  c.Notes,
	}
	if len(c.Times) > 0 {
		patch.Times = splitTimes(c.Times)
	}
	if patch.IsEmpty() {
		ctx.Println("No changes specified.")
		return nil
	}

	// Validate the result before anything is written
	preview := pill.Clone()
	patch.Apply(&preview)
	if err := preview.Validate(); err != nil {
		return fmt.Errorf("invalid pill: %w", err)
	}

	applied, err := ctx.Engine.UpdatePill(pill.ID, patch)
	if err != nil {
		return fmt.Errorf("failed to update pill: %w", err)
	}
	if !applied {
		return fmt.Errorf("pill %s no longer exists", cli.ShortID(pill.ID))
	}

	ctx.Printf("Updated pill: %s (ID: %s)\n", preview.Name, pill.ID)
	return nil
}

type PillDeleteCmd struct {
	Pill string `arg:"" help:"Pill ID, ID prefix or name."`
}

func (c *PillDeleteCmd) Run(ctx *cli.Context) error {
	pill, err := ctx.ResolvePill(c.Pill)
	if err != nil {
		return err
	}

	ctx.PerformAutomaticBackup()

	applied, err := ctx.Engine.DeletePill(pill.ID)
	if err != nil {
		return fmt.Errorf("failed to delete pill: %w", err)
	}
	if !applied {
		return fmt.Errorf("pill %s no longer exists", cli.ShortID(pill.ID))
	}

	ctx.Printf("Deleted pill: %s (ID: %s) and its logs\n", pill.Name, pill.ID)
	return nil
}
