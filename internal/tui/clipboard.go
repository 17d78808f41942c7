package tui

import (
	"log/slog"

	"github.com/atotto/clipboard"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/sst/modforge/internal/format"
)

// writeClipboard is swapped out in tests, which usually run without a
// clipboard.
var writeClipboard = clipboard.WriteAll

// copyValues puts the form's current values on the system clipboard in the
// text output format.
func copyValues(values []format.FieldValue) tea.Cmd {
	return func() tea.Msg {
		out, err := format.FormatValues(values, format.TextFormat)
		if err != nil {
			slog.Error("formatting values for the clipboard", "error", err)
			return nil
		}
		if err := writeClipboard(out); err != nil {
			slog.Warn("could not copy values", "error", err)
			return nil
		}
		slog.Info("values copied to clipboard", "fields", len(values))
		return nil
	}
}
