package tui

import (
	"errors"
	"log/slog"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	zone "github.com/lrstanley/bubblezone"
	"github.com/sst/modforge/internal/catalog"
	"github.com/sst/modforge/internal/config"
	"github.com/sst/modforge/internal/format"
	"github.com/sst/modforge/internal/logging"
	"github.com/sst/modforge/internal/pubsub"
	"github.com/sst/modforge/internal/tui/components/combobox"
	"github.com/sst/modforge/internal/tui/components/core"
	"github.com/sst/modforge/internal/tui/components/dialog"
	"github.com/sst/modforge/internal/tui/layout"
	"github.com/sst/modforge/internal/tui/page"
	"github.com/sst/modforge/internal/tui/styles"
	"github.com/sst/modforge/internal/tui/theme"
)

type keyMap struct {
	Logs        key.Binding
	Quit        key.Binding
	Submit      key.Binding
	Help        key.Binding
	SwitchTheme key.Binding
	Copy        key.Binding
}

var keys = keyMap{
	Logs: key.NewBinding(
		key.WithKeys("ctrl+l"),
		key.WithHelp("ctrl+l", "logs"),
	),
	Quit: key.NewBinding(
		key.WithKeys("ctrl+c"),
		key.WithHelp("ctrl+c", "quit"),
	),
	Submit: key.NewBinding(
		key.WithKeys("ctrl+s"),
		key.WithHelp("ctrl+s", "submit"),
	),
	Help: key.NewBinding(
		key.WithKeys("ctrl+_"),
		key.WithHelp("ctrl+?", "toggle help"),
	),
	SwitchTheme: key.NewBinding(
		key.WithKeys("ctrl+t"),
		key.WithHelp("ctrl+t", "switch theme"),
	),
	Copy: key.NewBinding(
		key.WithKeys("ctrl+y"),
		key.WithHelp("ctrl+y", "copy values"),
	),
}

var logsKeyReturnKey = key.NewBinding(
	key.WithKeys("esc"),
	key.WithHelp("esc", "go back"),
)

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Submit, k.Quit, k.Help}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{{k.Submit, k.Quit, k.Copy, k.Logs, k.SwitchTheme, k.Help}}
}

// Model is the root of the form program.
type Model interface {
	tea.Model
	// Submitted reports whether the user finished the form rather than
	// quitting it.
	Submitted() bool
	Values() []format.FieldValue
}

type appModel struct {
	width, height int
	currentPage   page.PageID
	editor        page.Editor
	logs          page.LogPage
	status        core.StatusCmp
	submitted     bool

	showHelp bool
	help     help.Model

	showThemeDialog bool
	themeDialog     dialog.ThemeDialog
	dialogOpts      []combobox.ComboOption
}

// Option customizes the root model.
type Option func(*appModel)

// WithDialogOptions passes combobox options to the theme dialog's field.
func WithDialogOptions(opts ...combobox.ComboOption) Option {
	return func(a *appModel) { a.dialogOpts = opts }
}

func (a *appModel) Init() tea.Cmd {
	return tea.Batch(
		a.editor.Init(),
		a.logs.Init(),
		a.status.Init(),
	)
}

func (a *appModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		// one row for the status bar
		a.width, a.height = msg.Width, msg.Height-1
		a.help.Width = msg.Width
		a.updateStatus(msg)
		cmds = append(cmds, a.editor.SetSize(a.width, a.height), a.logs.SetSize(a.width, a.height))
		return a, tea.Batch(cmds...)

	case pubsub.Event[logging.Log]:
		return a, tea.Batch(a.updateStatus(msg), a.updateLogs(msg))

	case pubsub.Event[catalog.Catalog]:
		if msg.Type == pubsub.EventTypeFailed {
			slog.Warn("catalog reload failed, keeping previous options", "catalog", msg.Payload.Name, "error", msg.Err)
		}
		return a, a.updateEditor(msg)

	case page.SubmitMsg:
		a.submitted = true
		return a, tea.Quit

	case dialog.CloseThemeDialogMsg:
		a.closeThemeDialog()
		return a, nil

	case dialog.ThemeChangedMsg:
		a.closeThemeDialog()
		a.status.SetInfo(msg.ThemeName)
		if err := config.UpdateTheme(msg.ThemeName); err != nil && !errors.Is(err, config.ErrNotLoaded) {
			slog.Error("saving theme", "theme", msg.ThemeName, "error", err)
		}
		slog.Info("theme changed", "theme", msg.ThemeName)
		return a, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Quit):
			return a, tea.Quit
		case key.Matches(msg, keys.Submit):
			a.submitted = true
			return a, tea.Quit
		case key.Matches(msg, keys.Help):
			a.showHelp = !a.showHelp
			return a, nil
		case key.Matches(msg, keys.Copy):
			return a, copyValues(a.editor.Values())
		case key.Matches(msg, keys.SwitchTheme) && !a.showThemeDialog:
			a.themeDialog = dialog.NewThemeDialogCmp(a.dialogOpts...)
			a.showThemeDialog = true
			return a, a.themeDialog.Init()
		case key.Matches(msg, keys.Logs) && !a.showThemeDialog:
			return a, a.moveToPage(page.LogsPage)
		case key.Matches(msg, logsKeyReturnKey) && a.currentPage == page.LogsPage && !a.showThemeDialog:
			return a, a.moveToPage(page.EditorPage)
		}
		if a.showThemeDialog {
			return a, a.updateThemeDialog(msg)
		}
		return a, a.updateCurrentPage(msg)

	case tea.MouseMsg:
		if a.showThemeDialog {
			return a, a.updateThemeDialog(msg)
		}
		return a, a.updateCurrentPage(msg)
	}

	// Everything else, such as cursor blinks, deferred closes and change
	// messages, is routed by id inside the components.
	cmds = append(cmds, a.updateStatus(msg), a.updateEditor(msg))
	if a.showThemeDialog {
		cmds = append(cmds, a.updateThemeDialog(msg))
	}
	return a, tea.Batch(cmds...)
}

func (a *appModel) updateStatus(msg tea.Msg) tea.Cmd {
	s, cmd := a.status.Update(msg)
	a.status = s.(core.StatusCmp)
	return cmd
}

func (a *appModel) updateLogs(msg tea.Msg) tea.Cmd {
	l, cmd := a.logs.Update(msg)
	a.logs = l.(page.LogPage)
	return cmd
}

func (a *appModel) updateEditor(msg tea.Msg) tea.Cmd {
	e, cmd := a.editor.Update(msg)
	a.editor = e.(page.Editor)
	return cmd
}

func (a *appModel) updateThemeDialog(msg tea.Msg) tea.Cmd {
	d, cmd := a.themeDialog.Update(msg)
	a.themeDialog = d.(dialog.ThemeDialog)
	return cmd
}

func (a *appModel) updateCurrentPage(msg tea.Msg) tea.Cmd {
	if a.currentPage == page.LogsPage {
		return a.updateLogs(msg)
	}
	return a.updateEditor(msg)
}

func (a *appModel) closeThemeDialog() {
	if a.themeDialog != nil {
		a.themeDialog.Dispose()
	}
	a.showThemeDialog = false
}

// moveToPage switches pages. Leaving the editor blurs the focused field so
// its dropdown closes, and coming back focuses it again.
func (a *appModel) moveToPage(id page.PageID) tea.Cmd {
	if a.currentPage == id {
		return nil
	}
	a.currentPage = id
	if id == page.LogsPage {
		return a.editor.Blur()
	}
	return a.editor.Focus()
}

func (a *appModel) Submitted() bool {
	return a.submitted
}

func (a *appModel) Values() []format.FieldValue {
	return a.editor.Values()
}

func (a *appModel) View() string {
	var pageView string
	if a.currentPage == page.LogsPage {
		pageView = a.logs.View()
	} else {
		pageView = a.editor.View()
	}
	if a.height > 0 {
		pageView = lipgloss.NewStyle().Height(a.height).MaxHeight(a.height).Render(pageView)
	}

	appView := lipgloss.JoinVertical(lipgloss.Left, pageView, a.status.View())

	if a.showHelp {
		t := theme.CurrentTheme()
		overlay := lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(t.BorderActive()).
			Padding(0, 1).
			Render(lipgloss.JoinVertical(lipgloss.Left,
				styles.Bold().Render("Keys"),
				"",
				a.help.FullHelpView(append(keys.FullHelp(), a.editor.BindingKeys().FullHelp()...)),
			))
		appView = a.center(overlay, appView)
	}

	if a.showThemeDialog {
		appView = a.center(a.themeDialog.View(), appView)
		appView = a.themeDialog.Overlay(appView)
	}

	return zone.Scan(appView)
}

func (a *appModel) center(overlay, appView string) string {
	row := lipgloss.Height(appView) / 2
	row -= lipgloss.Height(overlay) / 2
	col := lipgloss.Width(appView) / 2
	col -= lipgloss.Width(overlay) / 2
	return layout.PlaceOverlay(col, row, overlay, appView)
}

// New wraps the editor page. recent seeds the logs page with records
// written before the program started.
func New(editor page.Editor, recent []logging.Log, opts ...Option) Model {
	zone.NewGlobal()
	model := &appModel{
		currentPage: page.EditorPage,
		editor:      editor,
		logs:        page.NewLogsPage(recent),
		status:      core.NewStatusCmp(),
		help:        help.New(),
	}
	for _, opt := range opts {
		opt(model)
	}
	model.status.SetInfo(theme.CurrentThemeName())
	return model
}
