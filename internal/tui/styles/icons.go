package styles

const (
	CheckIcon   string = "✓"
	ErrorIcon   string = "✖"
	WarningIcon string = "⚠"
	ClearIcon   string = "✕"
	RemoveIcon  string = "×"
	AddIcon     string = "+"
	CaretIcon   string = "▾"
)
