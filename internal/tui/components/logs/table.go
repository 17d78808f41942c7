package logs

import (
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/sst/modforge/internal/logging"
	"github.com/sst/modforge/internal/pubsub"
	"github.com/sst/modforge/internal/tui/theme"
)

const logLimit = 100

type TableComponent interface {
	tea.Model
	SetSize(width, height int) tea.Cmd
	BindingKeys() []key.Binding
	Logs() []logging.Log
}

type tableCmp struct {
	table table.Model
	logs  []logging.Log
}

func (i *tableCmp) Init() tea.Cmd {
	return nil
}

func (i *tableCmp) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case pubsub.Event[logging.Log]:
		if msg.Type == logging.EventLogCreated {
			// newest first
			i.logs = append([]logging.Log{msg.Payload}, i.logs...)
			if len(i.logs) > logLimit {
				i.logs = i.logs[:logLimit]
			}
			i.updateRows()
		}
		return i, nil
	}

	t, cmd := i.table.Update(msg)
	i.table = t
	return i, cmd
}

func (i *tableCmp) View() string {
	t := theme.CurrentTheme()
	defaultStyles := table.DefaultStyles()
	defaultStyles.Selected = defaultStyles.Selected.Foreground(t.Primary())
	i.table.SetStyles(defaultStyles)
	return i.table.View()
}

func (i *tableCmp) SetSize(width int, height int) tea.Cmd {
	i.table.SetWidth(width)
	i.table.SetHeight(height)
	columns := i.table.Columns()

	timeWidth := 8
	levelWidth := 7
	// 6 for cell padding
	messageWidth := max(width-timeWidth-levelWidth-6, 10)

	columns[0].Width = timeWidth
	columns[1].Width = levelWidth
	columns[2].Width = messageWidth

	i.table.SetColumns(columns)
	return nil
}

func (i *tableCmp) BindingKeys() []key.Binding {
	km := i.table.KeyMap
	return []key.Binding{km.LineUp, km.LineDown, km.PageUp, km.PageDown, km.GotoTop, km.GotoBottom}
}

func (i *tableCmp) Logs() []logging.Log {
	return i.logs
}

func (i *tableCmp) updateRows() {
	rows := make([]table.Row, 0, len(i.logs))
	for _, log := range i.logs {
		rows = append(rows, table.Row{
			log.Timestamp.Local().Format("15:04:05"),
			log.Level,
			log.Message,
		})
	}
	i.table.SetRows(rows)
}

// NewLogsTable starts from the records already kept by the log service,
// newest first.
func NewLogsTable(recent []logging.Log) TableComponent {
	columns := []table.Column{
		{Title: "Time", Width: 8},
		{Title: "Level", Width: 7},
		{Title: "Message", Width: 30},
	}

	tableModel := table.New(
		table.WithColumns(columns),
		table.WithFocused(true),
	)
	logs := make([]logging.Log, 0, len(recent))
	for j := len(recent) - 1; j >= 0 && len(logs) < logLimit; j-- {
		logs = append(logs, recent[j])
	}
	cmp := &tableCmp{
		table: tableModel,
		logs:  logs,
	}
	cmp.updateRows()
	return cmp
}
