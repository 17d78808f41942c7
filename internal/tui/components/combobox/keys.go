package combobox

import "github.com/charmbracelet/bubbles/key"

type comboboxKeyMap struct {
	Up         key.Binding
	Down       key.Binding
	Select     key.Binding
	Close      key.Binding
	RemoveLast key.Binding
}

var comboboxKeys = comboboxKeyMap{
	Up: key.NewBinding(
		key.WithKeys("up", "ctrl+p"),
		key.WithHelp("↑", "previous option"),
	),
	Down: key.NewBinding(
		key.WithKeys("down", "ctrl+n"),
		key.WithHelp("↓", "next option"),
	),
	Select: key.NewBinding(
		key.WithKeys("enter"),
		key.WithHelp("enter", "select option"),
	),
	Close: key.NewBinding(
		key.WithKeys("esc"),
		key.WithHelp("esc", "close options"),
	),
	RemoveLast: key.NewBinding(
		key.WithKeys("backspace"),
		key.WithHelp("backspace", "remove last selected"),
	),
}

// ShortHelp implements help.KeyMap.
func (k comboboxKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Up, k.Down, k.Select, k.Close}
}

// FullHelp implements help.KeyMap.
func (k comboboxKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{k.ShortHelp(), {k.RemoveLast}}
}
