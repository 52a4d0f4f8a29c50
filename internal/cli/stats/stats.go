package stats

import (
	"fmt"
	"strings"

	"github.com/julianstephens/pillminder/internal/cli"
	"github.com/julianstephens/pillminder/internal/models"
	"github.com/julianstephens/pillminder/internal/streak"
	"github.com/julianstephens/pillminder/internal/utils"
)

const cellsPerRow = 7

type StatsCmd struct {
	Days int `help:"Heatmap window in days." default:"${heatmap_days}"`
}

func (c *StatsCmd) Validate() error {
	if c.Days < 1 || c.Days > 366 {
		return fmt.Errorf("--days must be between 1 and 366")
	}
	return nil
}

func (c *StatsCmd) Run(ctx *cli.Context) error {
	now := ctx.Now()
	logs := ctx.Engine.Logs()
	version := ctx.Engine.Version()
	palette := ctx.Palette()

	data := ctx.Streaks.Streak(version, logs, now)
	cells := ctx.Streaks.Heatmap(version, logs, now, c.Days)
	overall := streak.Overall(logs)

	ctx.Println(palette.Header.Render("Adherence"))
	ctx.Printf("  Current streak: %s\n", days(data.Current))
	ctx.Printf("  Best streak:    %s\n", days(data.Best))
	if data.LastTaken != nil {
		ctx.Printf("  Last taken:     %s (%s)\n", data.LastTaken.Format("2006-01-02 15:04"), utils.Relative(*data.LastTaken, now))
	} else {
		ctx.Printf("  Last taken:     %s\n", palette.Muted.Render("never"))
	}
	if overall.HasData {
		ctx.Printf("  Overall:        %.2f%% (%d taken, %d missed)\n", overall.Compliance, overall.Taken, overall.Missed)
	} else {
		ctx.Printf("  Overall:        %s\n", palette.Muted.Render("no data"))
	}

	ctx.Println()
	ctx.Println(palette.Header.Render(fmt.Sprintf("Last %d days", c.Days)))
	ctx.Print(RenderHeatmap(cells, palette))
	ctx.Printf("  %s none  %s <50%%  %s <100%%  %s 100%%\n",
		palette.NoData.Render(glyph(models.DayCompliance{})),
		palette.Low.Render(glyph(models.DayCompliance{HasData: true})),
		palette.Partial.Render(glyph(models.DayCompliance{HasData: true, Compliance: 50})),
		palette.Full.Render(glyph(models.DayCompliance{HasData: true, Compliance: 100})))
	return nil
}

func days(n int) string {
	if n == 1 {
		return "1 day"
	}
	return fmt.Sprintf("%d days", n)
}

// glyph varies by bucket so the heatmap still reads without color.
func glyph(d models.DayCompliance) string {
	switch {
	case !d.HasData:
		return "·"
	case d.Compliance >= 100:
		return "●"
	case d.Compliance >= 50:
		return "◐"
	default:
		return "○"
	}
}

// RenderHeatmap draws cells oldest first, seven per row, each row labelled
// with the date of its first cell.
func RenderHeatmap(cells []models.DayCompliance, palette cli.Palette) string {
	var b strings.Builder
	for start := 0; start < len(cells); start += cellsPerRow {
		end := start + cellsPerRow
		if end > len(cells) {
			end = len(cells)
		}
		b.WriteString("  ")
		b.WriteString(palette.Muted.Render(cells[start].Day))
		for _, d := range cells[start:end] {
			style := palette.NoData
			switch {
			case !d.HasData:
			case d.Compliance >= 100:
				style = palette.Full
			case d.Compliance >= 50:
				style = palette.Partial
			default:
				style = palette.Low
			}
			b.WriteString(" ")
			b.WriteString(style.Render(glyph(d)))
		}
		b.WriteString("\n")
	}
	return b.String()
}
