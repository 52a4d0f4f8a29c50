package system

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/julianstephens/pillminder/internal/cli"
	"github.com/julianstephens/pillminder/internal/tui"
)

// TuiCmd opens the interactive dashboard.
type TuiCmd struct{}

func (c *TuiCmd) Run(ctx *cli.Context) error {
	p := tea.NewProgram(tui.NewModel(ctx), tea.WithAltScreen(), tea.WithInput(ctx.In), tea.WithOutput(ctx.Out))
	_, err := p.Run()
	return err
}
