package util

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/muesli/reflow/truncate"
)

func CmdHandler(msg tea.Msg) tea.Cmd {
	return func() tea.Msg {
		return msg
	}
}

func Clamp(v, low, high int) int {
	if high < low {
		low, high = high, low
	}
	return min(high, max(low, v))
}

// Ellipsize shortens s to at most width cells, marking the cut with an ellipsis.
func Ellipsize(s string, width int) string {
	if width <= 0 {
		return ""
	}
	return truncate.StringWithTail(s, uint(width), "…")
}
