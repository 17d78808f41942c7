package styles

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/sst/modforge/internal/tui/theme"
)

// BaseStyle returns the base style with background and foreground colors
func BaseStyle() lipgloss.Style {
	t := theme.CurrentTheme()
	return lipgloss.NewStyle().
		Background(t.Background()).
		Foreground(t.Text())
}

// Regular returns a basic unstyled lipgloss.Style
func Regular() lipgloss.Style {
	return lipgloss.NewStyle()
}

func Muted() lipgloss.Style {
	t := theme.CurrentTheme()
	return lipgloss.NewStyle().Foreground(t.TextMuted())
}

// Bold returns a bold style
func Bold() lipgloss.Style {
	return BaseStyle().Bold(true)
}

// Padded returns a style with horizontal padding
func Padded() lipgloss.Style {
	return BaseStyle().Padding(0, 1)
}

// Border returns a style with a normal border
func Border() lipgloss.Style {
	t := theme.CurrentTheme()
	return Regular().
		Border(lipgloss.NormalBorder()).
		BorderForeground(t.Border())
}

// Panel is the popup surface.
func Panel() lipgloss.Style {
	t := theme.CurrentTheme()
	return lipgloss.NewStyle().
		Background(t.BackgroundPanel()).
		Foreground(t.Text())
}

// Highlighted marks the row the keyboard or pointer is on.
func Highlighted() lipgloss.Style {
	t := theme.CurrentTheme()
	return lipgloss.NewStyle().
		Background(t.Primary()).
		Foreground(t.Background()).
		Bold(true)
}

// SelectedRow tints a row that is already part of the value.
func SelectedRow() lipgloss.Style {
	t := theme.CurrentTheme()
	return lipgloss.NewStyle().
		Background(theme.Blend(t.BackgroundPanel(), t.Primary(), 0.2)).
		Foreground(t.Text())
}

// GroupHeader labels a run of rows sharing a group value.
func GroupHeader() lipgloss.Style {
	t := theme.CurrentTheme()
	return lipgloss.NewStyle().
		Background(t.BackgroundPanel()).
		Foreground(t.Accent()).
		Bold(true)
}

// Chip is a selected item in a multi-value field.
func Chip() lipgloss.Style {
	t := theme.CurrentTheme()
	return lipgloss.NewStyle().
		Background(t.BackgroundElement()).
		Foreground(t.Text()).
		Padding(0, 1)
}

func Disabled() lipgloss.Style {
	t := theme.CurrentTheme()
	return lipgloss.NewStyle().
		Foreground(t.TextMuted()).
		Faint(true)
}

func Error() lipgloss.Style {
	t := theme.CurrentTheme()
	return lipgloss.NewStyle().Foreground(t.Error())
}
