package tui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
)

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width

	case tickMsg:
		// Another process may have written since the last tick
		m.ctx.Engine.Reload()
		m.ctx.Settings.Refresh()
		m.refresh()
		return m, tick()

	case tea.KeyMsg:
		tabs := SessionState(len(tabTitles))
		switch {
		case key.Matches(msg, m.keys.Quit):
			m.quitting = true
			return m, tea.Quit
		case key.Matches(msg, m.keys.Tab):
			m.state = (m.state + 1) % tabs
		case key.Matches(msg, m.keys.ShiftTab):
			m.state = (m.state - 1 + tabs) % tabs
		case key.Matches(msg, m.keys.Help):
			m.help.ShowAll = !m.help.ShowAll
		case key.Matches(msg, m.keys.Refresh):
			m.ctx.Engine.Reload()
			m.ctx.Settings.Refresh()
			m.refresh()
			m.status = "Refreshed."
		}

		if m.state != StateToday {
			return m, nil
		}
		switch {
		case key.Matches(msg, m.keys.Up):
			if m.cursor > 0 {
				m.cursor--
			}
		case key.Matches(msg, m.keys.Down):
			if m.cursor < len(m.doses)-1 {
				m.cursor++
			}
		case key.Matches(msg, m.keys.Take):
			m.act("marked taken", m.ctx.Engine.MarkTaken)
		case key.Matches(msg, m.keys.Miss):
			m.act("marked missed", m.ctx.Engine.MarkMissed)
		case key.Matches(msg, m.keys.Snooze):
			minutes := m.ctx.Settings.SnoozeMinutes()
			m.act(fmt.Sprintf("snoozed for %d min", minutes), func(id string) (bool, error) {
				return m.ctx.Engine.Snooze(id, minutes)
			})
		}
	}

	return m, nil
}
