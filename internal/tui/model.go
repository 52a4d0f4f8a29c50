// Package tui is the interactive dashboard for today's doses and adherence.
package tui

import (
	"fmt"
	"sort"
	"time"

	"github.com/charmbracelet/bubbles/help"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/julianstephens/pillminder/internal/cli"
	"github.com/julianstephens/pillminder/internal/models"
	"github.com/julianstephens/pillminder/internal/utils"
)

type SessionState int

const (
	StateToday SessionState = iota
	StateStats
)

var tabTitles = []string{"Today", "Stats"}

// refreshInterval is how often the dashboard rereads storage and checks
// for a new day.
const refreshInterval = time.Minute

type tickMsg time.Time

type Model struct {
	ctx      *cli.Context
	keys     KeyMap
	help     help.Model
	state    SessionState
	doses    []models.PillLog
	cursor   int
	status   string
	width    int
	height   int
	quitting bool
}

func NewModel(ctx *cli.Context) Model {
	m := Model{
		ctx:  ctx,
		keys: DefaultKeyMap(),
		help: help.New(),
	}
	m.refresh()
	return m
}

func (m Model) Init() tea.Cmd {
	return tick()
}

func tick() tea.Cmd {
	return tea.Tick(refreshInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// refresh generates logs if the day rolled over and reloads today's doses.
func (m *Model) refresh() {
	if err := m.ctx.Activate(); err != nil {
		m.status = err.Error()
	}
	m.doses = m.ctx.Engine.Today()
	sort.SliceStable(m.doses, func(i, j int) bool {
		return m.doses[i].ScheduledTime.Before(m.doses[j].ScheduledTime)
	})
	if m.cursor >= len(m.doses) {
		m.cursor = max(len(m.doses)-1, 0)
	}
}

func (m Model) selected() (models.PillLog, bool) {
	if m.cursor < 0 || m.cursor >= len(m.doses) {
		return models.PillLog{}, false
	}
	return m.doses[m.cursor], true
}

// act applies fn to the selected dose and reports the outcome in the status line.
func (m *Model) act(done string, fn func(id string) (bool, error)) {
	l, ok := m.selected()
	if !ok {
		return
	}
	name := m.ctx.PillNames()[l.PillID]
	if name == "" {
		name = cli.ShortID(l.PillID)
	}

	applied, err := fn(l.ID)
	switch {
	case err != nil:
		m.status = fmt.Sprintf("Failed: %v", err)
	case !applied:
		m.status = "That dose no longer exists."
	default:
		m.status = fmt.Sprintf("%s %s %s", name, utils.FormatTimeOfDay(l.ScheduledTime), done)
	}
	m.refresh()
}
