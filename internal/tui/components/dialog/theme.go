package dialog

import (
	"log/slog"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/sst/modforge/internal/tui/components/combobox"
	"github.com/sst/modforge/internal/tui/styles"
	"github.com/sst/modforge/internal/tui/theme"
	"github.com/sst/modforge/internal/tui/util"
)

const maxDialogWidth = 40

// ThemeChangedMsg is sent after a theme was picked and applied.
type ThemeChangedMsg struct {
	ThemeName string
}

// CloseThemeDialogMsg is sent when the dialog is dismissed.
type CloseThemeDialogMsg struct{}

type ThemeDialog interface {
	tea.Model
	// Overlay draws the dialog's dropdown over the composed screen.
	Overlay(bg string) string
	BindingKeys() []key.Binding
	Dispose()
}

type themeDialogCmp struct {
	box combobox.Combobox
}

type themeKeyMap struct {
	Escape key.Binding
}

var themeKeys = themeKeyMap{
	Escape: key.NewBinding(
		key.WithKeys("esc"),
		key.WithHelp("esc", "close"),
	),
}

func (t *themeDialogCmp) Init() tea.Cmd {
	return t.box.Focus()
}

func (t *themeDialogCmp) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case combobox.SingleChangedMsg:
		if !t.box.ApplyChange(msg) || msg.Value == nil {
			return t, nil
		}
		name := msg.Value.ID
		if err := theme.SetTheme(name); err != nil {
			slog.Error("switching theme", "theme", name, "error", err)
			return t, nil
		}
		return t, util.CmdHandler(ThemeChangedMsg{ThemeName: name})
	case tea.KeyMsg:
		// the first esc closes the dropdown, the next one the dialog
		if key.Matches(msg, themeKeys.Escape) && !t.box.IsOpen() {
			return t, util.CmdHandler(CloseThemeDialogMsg{})
		}
	}

	m, cmd := t.box.Update(msg)
	t.box = m.(combobox.Combobox)
	return t, cmd
}

func (t *themeDialogCmp) View() string {
	th := theme.CurrentTheme()
	title := styles.Bold().Render("Select theme")
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(th.BorderActive()).
		Padding(0, 1).
		Render(lipgloss.JoinVertical(lipgloss.Left, title, "", t.box.View()))
}

func (t *themeDialogCmp) Overlay(bg string) string {
	return t.box.Overlay(bg)
}

func (t *themeDialogCmp) Dispose() {
	t.box.Dispose()
}

func (t *themeDialogCmp) BindingKeys() []key.Binding {
	return append(combobox.Keys().ShortHelp(), themeKeys.Escape)
}

// NewThemeDialogCmp lists the registered themes with the current one
// selected. Extra combobox options, such as an anchor, are passed through.
func NewThemeDialogCmp(opts ...combobox.ComboOption) ThemeDialog {
	names := theme.AvailableThemes()
	options := make([]combobox.Option, 0, len(names))
	var current *combobox.Option
	for _, name := range names {
		o := combobox.Option{ID: name, Name: name}
		options = append(options, o)
		if name == theme.CurrentThemeName() {
			current = &o
		}
	}

	opts = append([]combobox.ComboOption{
		combobox.WithOptions(options),
		combobox.WithWidth(maxDialogWidth - 4),
		combobox.WithPlaceholder("theme"),
	}, opts...)
	box := combobox.New(opts...)
	box.SetValue(current)
	return &themeDialogCmp{box: box}
}
