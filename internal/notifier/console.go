package notifier

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"

	"github.com/julianstephens/pillminder/internal/constants"
)

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212"))
	urgentStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("196"))
	mutedStyle  = lipgloss.NewStyle().Faint(true)
)

// ConsoleNotifier prints reminders to a writer. It is always permitted.
type ConsoleNotifier struct {
	mu  sync.Mutex
	out io.Writer
}

func NewConsoleNotifier(out io.Writer) *ConsoleNotifier {
	return &ConsoleNotifier{out: out}
}

func (c *ConsoleNotifier) RequestPermission() (constants.Permission, error) {
	return constants.PermissionGranted, nil
}

func (c *ConsoleNotifier) Deliver(title, body string, opts Options) error {
	style := titleStyle
	if opts.Urgent {
		style = urgentStyle
	}

	var flags []string
	if opts.Silent {
		flags = append(flags, "silent")
	}
	if len(opts.Vibrate) > 0 {
		flags = append(flags, fmt.Sprintf("vibrate %v", opts.Vibrate))
	}

	line := style.Render(title) + " " + body
	if len(flags) > 0 {
		line += " " + mutedStyle.Render("("+strings.Join(flags, ", ")+")")
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	_, err := fmt.Fprintln(c.out, line)
	return err
}
