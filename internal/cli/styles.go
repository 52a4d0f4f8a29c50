package cli

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/julianstephens/pillminder/internal/constants"
)

// Palette holds the styles used by log and stats output.
type Palette struct {
	Header  lipgloss.Style
	Muted   lipgloss.Style
	Taken   lipgloss.Style
	Missed  lipgloss.Style
	Snoozed lipgloss.Style
	Pending lipgloss.Style

	// Heatmap cells, from no data to full compliance
	NoData  lipgloss.Style
	Low     lipgloss.Style
	Partial lipgloss.Style
	Full    lipgloss.Style
}

func NewPalette(highContrast bool) Palette {
	if highContrast {
		return Palette{
			Header:  lipgloss.NewStyle().Bold(true).Underline(true),
			Muted:   lipgloss.NewStyle().Foreground(lipgloss.Color("15")),
			Taken:   lipgloss.NewStyle().Foreground(lipgloss.Color("15")).Background(lipgloss.Color("22")).Bold(true),
			Missed:  lipgloss.NewStyle().Foreground(lipgloss.Color("15")).Background(lipgloss.Color("124")).Bold(true),
			Snoozed: lipgloss.NewStyle().Foreground(lipgloss.Color("0")).Background(lipgloss.Color("11")).Bold(true),
			Pending: lipgloss.NewStyle().Bold(true),
			NoData:  lipgloss.NewStyle().Foreground(lipgloss.Color("15")),
			Low:     lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true),
			Partial: lipgloss.NewStyle().Foreground(lipgloss.Color("11")).Bold(true),
			Full:    lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Bold(true),
		}
	}
	return Palette{
		Header:  lipgloss.NewStyle().Foreground(lipgloss.Color("205")).Bold(true),
		Muted:   lipgloss.NewStyle().Foreground(lipgloss.Color("240")),
		Taken:   lipgloss.NewStyle().Foreground(lipgloss.Color("42")),
		Missed:  lipgloss.NewStyle().Foreground(lipgloss.Color("196")),
		Snoozed: lipgloss.NewStyle().Foreground(lipgloss.Color("214")).Italic(true),
		Pending: lipgloss.NewStyle(),
		NoData:  lipgloss.NewStyle().Foreground(lipgloss.Color("238")),
		Low:     lipgloss.NewStyle().Foreground(lipgloss.Color("160")),
		Partial: lipgloss.NewStyle().Foreground(lipgloss.Color("178")),
		Full:    lipgloss.NewStyle().Foreground(lipgloss.Color("34")),
	}
}

func (p Palette) Status(status constants.LogStatus) lipgloss.Style {
	switch status {
	case constants.StatusTaken:
		return p.Taken
	case constants.StatusMissed:
		return p.Missed
	case constants.StatusSnoozed:
		return p.Snoozed
	default:
		return p.Pending
	}
}

// Palette returns the palette for the stored high-contrast setting.
func (c *Context) Palette() Palette {
	return NewPalette(c.Settings.Get().HighContrast)
}
