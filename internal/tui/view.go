package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/julianstephens/pillminder/internal/cli/stats"
	"github.com/julianstephens/pillminder/internal/constants"
	"github.com/julianstephens/pillminder/internal/streak"
	"github.com/julianstephens/pillminder/internal/utils"
)

func (m Model) View() string {
	if m.quitting {
		return ""
	}

	var content string
	switch m.state {
	case StateToday:
		content = m.viewToday()
	case StateStats:
		content = m.viewStats()
	}

	parts := []string{m.viewTabs(), content}
	if m.status != "" {
		parts = append(parts, statusStyle.Render(m.status))
	}
	parts = append(parts, m.help.View(m.keys))
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

func (m Model) viewTabs() string {
	var tabs []string
	for i, title := range tabTitles {
		if m.state == SessionState(i) {
			tabs = append(tabs, activeTabStyle.Render(title))
		} else {
			tabs = append(tabs, inactiveTabStyle.Render(title))
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, tabs...)
}

func (m Model) viewToday() string {
	palette := m.ctx.Palette()
	if len(m.doses) == 0 {
		return docStyle.Render(palette.Muted.Render("Nothing scheduled today."))
	}

	names := m.ctx.PillNames()
	var b strings.Builder
	for i, l := range m.doses {
		cursor := "  "
		if i == m.cursor {
			cursor = cursorStyle.Render("> ")
		}
		line := fmt.Sprintf("%s  %-20s %s",
			utils.FormatTimeOfDay(l.ScheduledTime), names[l.PillID], palette.Status(l.Status).Render(string(l.Status)))
		if l.SnoozedUntil != nil {
			line += palette.Muted.Render(" until " + utils.FormatTimeOfDay(*l.SnoozedUntil))
		}
		b.WriteString(cursor + line + "\n")
	}
	return docStyle.Render(strings.TrimRight(b.String(), "\n"))
}

func (m Model) viewStats() string {
	palette := m.ctx.Palette()
	now := m.ctx.Now()
	logs := m.ctx.Engine.Logs()
	version := m.ctx.Engine.Version()

	s := m.ctx.Streaks.Streak(version, logs, now)
	overall := streak.Overall(logs)

	var b strings.Builder
	fmt.Fprintf(&b, "Current streak: %d  Best: %d\n", s.Current, s.Best)
	if overall.HasData {
		fmt.Fprintf(&b, "Overall: %.2f%%\n", overall.Compliance)
	} else {
		b.WriteString("Overall: no data\n")
	}
	b.WriteString("\n")
	b.WriteString(palette.Header.Render(fmt.Sprintf("Last %d days", constants.DefaultHeatmapDays)))
	b.WriteString("\n")
	b.WriteString(stats.RenderHeatmap(m.ctx.Streaks.Heatmap(version, logs, now, constants.DefaultHeatmapDays), palette))
	return docStyle.Render(strings.TrimRight(b.String(), "\n"))
}
