package format

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/sst/modforge/internal/tui/components/combobox"
)

// OutputFormat represents the format selections are printed in on exit.
type OutputFormat string

const (
	// TextFormat is plain text output (default)
	TextFormat OutputFormat = "text"

	// JSONFormat is output as a JSON document
	JSONFormat OutputFormat = "json"
)

// IsValid checks if the output format is valid
func (f OutputFormat) IsValid() bool {
	return f == TextFormat || f == JSONFormat
}

// String returns the string representation of the output format
func (f OutputFormat) String() string {
	return string(f)
}

// Parse converts a flag value into an OutputFormat.
func Parse(s string) (OutputFormat, error) {
	f := OutputFormat(strings.ToLower(strings.TrimSpace(s)))
	if f == "" {
		return TextFormat, nil
	}
	if !f.IsValid() {
		return "", fmt.Errorf("invalid output format %q: must be text or json", s)
	}
	return f, nil
}

// FieldValue is the committed value of one form field.
type FieldValue struct {
	Field  string
	Multi  bool
	Values []combobox.Option
}

// FormatSelection formats the options chosen in a single picker. Text output
// is one name per line; JSON is an array of option objects.
func FormatSelection(options []combobox.Option, format OutputFormat) (string, error) {
	switch format {
	case TextFormat:
		names := make([]string, len(options))
		for i, o := range options {
			names[i] = o.Name
		}
		return strings.Join(names, "\n"), nil
	case JSONFormat:
		if options == nil {
			options = []combobox.Option{}
		}
		return marshal(options)
	default:
		return "", fmt.Errorf("unsupported output format: %s", format)
	}
}

// FormatValues formats every field of the form. In JSON a single-value field
// is an object or null and a multi-value field is an array.
func FormatValues(values []FieldValue, format OutputFormat) (string, error) {
	switch format {
	case TextFormat:
		var b strings.Builder
		for i, v := range values {
			if i > 0 {
				b.WriteByte('\n')
			}
			names := make([]string, len(v.Values))
			for j, o := range v.Values {
				names[j] = o.Name
			}
			fmt.Fprintf(&b, "%s: %s", v.Field, strings.Join(names, ", "))
		}
		return b.String(), nil
	case JSONFormat:
		doc := make(map[string]any, len(values))
		for _, v := range values {
			switch {
			case v.Multi && v.Values == nil:
				doc[v.Field] = []combobox.Option{}
			case v.Multi:
				doc[v.Field] = v.Values
			case len(v.Values) == 0:
				doc[v.Field] = nil
			default:
				doc[v.Field] = v.Values[0]
			}
		}
		return marshal(doc)
	default:
		return "", fmt.Errorf("unsupported output format: %s", format)
	}
}

func marshal(v any) (string, error) {
	jsonBytes, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal JSON: %w", err)
	}
	return string(jsonBytes), nil
}
