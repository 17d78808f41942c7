package core

import (
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/sst/modforge/internal/logging"
	"github.com/sst/modforge/internal/pubsub"
	"github.com/sst/modforge/internal/tui/styles"
	"github.com/sst/modforge/internal/tui/theme"
	"github.com/sst/modforge/internal/tui/util"
)

type StatusCmp interface {
	tea.Model
	SetHelpWidgetMsg(string)
	SetInfo(string)
}

type statusCmp struct {
	statusMessages []statusMessage
	width          int
	messageTTL     time.Duration
	helpText       string
	info           string
	now            func() time.Time
}

type statusMessage struct {
	Level     string
	Message   string
	Timestamp time.Time
	ExpiresAt time.Time
}

// clearMessageCmd is a command that clears status messages after a timeout
func (m *statusCmp) clearMessageCmd() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return statusCleanupMsg{time: t}
	})
}

// statusCleanupMsg is a message that triggers cleanup of expired status messages
type statusCleanupMsg struct {
	time time.Time
}

func (m *statusCmp) Init() tea.Cmd {
	return m.clearMessageCmd()
}

func (m *statusCmp) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil
	case pubsub.Event[logging.Log]:
		// Only warnings and errors reach the status bar; the rest is on the
		// logs page.
		if msg.Type != logging.EventLogCreated {
			return m, nil
		}
		if msg.Payload.Level != "warn" && msg.Payload.Level != "error" {
			return m, nil
		}
		ts := msg.Payload.Timestamp
		if ts.IsZero() {
			ts = m.now()
		}
		m.statusMessages = append(m.statusMessages, statusMessage{
			Level:     msg.Payload.Level,
			Message:   msg.Payload.Message,
			Timestamp: ts,
			ExpiresAt: ts.Add(m.messageTTL),
		})
	case statusCleanupMsg:
		var activeMessages []statusMessage
		for _, sm := range m.statusMessages {
			if sm.ExpiresAt.After(msg.time) {
				activeMessages = append(activeMessages, sm)
			}
		}
		m.statusMessages = activeMessages
		return m, m.clearMessageCmd()
	}
	return m, nil
}

// getHelpWidget returns the help widget with current theme colors
func getHelpWidget(helpText string) string {
	t := theme.CurrentTheme()
	if helpText == "" {
		helpText = "ctrl+? help"
	}

	return styles.Padded().
		Background(t.TextMuted()).
		Foreground(t.BackgroundPanel()).
		Bold(true).
		Render(helpText)
}

func (m *statusCmp) View() string {
	t := theme.CurrentTheme()

	status := getHelpWidget(m.helpText)
	info := styles.Padded().
		Background(t.Secondary()).
		Foreground(t.Background()).
		Render(m.info)

	statusWidth := max(0, m.width-lipgloss.Width(status)-lipgloss.Width(info))

	if len(m.statusMessages) > 0 {
		sm := m.statusMessages[len(m.statusMessages)-1]
		infoStyle := styles.Padded().
			Foreground(t.Background()).
			Width(statusWidth)

		switch sm.Level {
		case "warn":
			infoStyle = infoStyle.Background(t.Warning())
		case "error":
			infoStyle = infoStyle.Background(t.Error())
		}

		icon := styles.WarningIcon
		if sm.Level == "error" {
			icon = styles.ErrorIcon
		}
		// 2 cells of padding
		msg := util.Ellipsize(fmt.Sprintf("%s %s", icon, sm.Message), max(statusWidth-2, 0))
		status += infoStyle.Render(msg)
	} else {
		status += styles.Padded().
			Foreground(t.Text()).
			Background(t.BackgroundElement()).
			Width(statusWidth).
			Render("")
	}

	status += info
	return status
}

func (m *statusCmp) SetHelpWidgetMsg(s string) {
	m.helpText = s
}

// SetInfo sets the text shown at the right end of the bar.
func (m *statusCmp) SetInfo(s string) {
	m.info = s
}

func NewStatusCmp() StatusCmp {
	return &statusCmp{
		messageTTL: 4 * time.Second,
		now:        time.Now,
	}
}
