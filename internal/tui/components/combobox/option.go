package combobox

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"maps"
	"strings"
)

// Option is one candidate the user can pick.
//
// ID is the identity used for selection membership and removal. Name is
// the primary label and the default search field. Fields carries any other
// attributes a catalog entry has, so searching and grouping can reach them
// by name.
type Option struct {
	ID     string
	Name   string
	Fields map[string]string
}

// FreeSoloOption builds the option committed for text that matches nothing.
func FreeSoloOption(text string) Option {
	return Option{ID: text, Name: text}
}

// Field resolves a field by name. Unknown fields are empty.
func (o Option) Field(name string) string {
	switch name {
	case "id":
		return o.ID
	case "name":
		return o.Name
	}
	return o.Fields[name]
}

func (o *Option) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("option must be a JSON object: %w", err)
	}

	*o = Option{}
	for key, value := range raw {
		s, err := stringify(value)
		if err != nil {
			return fmt.Errorf("option field %q: %w", key, err)
		}
		switch key {
		case "id":
			o.ID = s
		case "name":
			o.Name = s
		default:
			if o.Fields == nil {
				o.Fields = make(map[string]string, len(raw))
			}
			o.Fields[key] = s
		}
	}
	return nil
}

func (o Option) MarshalJSON() ([]byte, error) {
	flat := make(map[string]string, len(o.Fields)+2)
	maps.Copy(flat, o.Fields)
	flat["id"] = o.ID
	flat["name"] = o.Name
	return json.Marshal(flat)
}

// stringify flattens any JSON value into the string stored on an Option.
func stringify(value json.RawMessage) (string, error) {
	trimmed := bytes.TrimSpace(value)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return "", nil
	}

	switch trimmed[0] {
	case '"':
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return "", err
		}
		return s, nil
	case '{', '[':
		var buf bytes.Buffer
		if err := json.Compact(&buf, trimmed); err != nil {
			return "", err
		}
		return buf.String(), nil
	}
	return string(trimmed), nil
}

// equalFold compares the way the filter does, after trimming.
func equalFold(a, b string) bool {
	return fold(strings.TrimSpace(a)) == fold(strings.TrimSpace(b))
}

// findByName returns the first option whose name equals name ignoring case.
func findByName(options []Option, name string) (Option, bool) {
	for _, o := range options {
		if equalFold(o.Name, name) {
			return o, true
		}
	}
	return Option{}, false
}

func containsID(options []Option, id string) bool {
	for _, o := range options {
		if o.ID == id {
			return true
		}
	}
	return false
}

// warnDuplicateIDs logs each repeated ID once.
func warnDuplicateIDs(widget string, options []Option) {
	seen := make(map[string]struct{}, len(options))
	reported := make(map[string]struct{})
	for _, o := range options {
		if _, ok := seen[o.ID]; !ok {
			seen[o.ID] = struct{}{}
			continue
		}
		if _, ok := reported[o.ID]; ok {
			continue
		}
		reported[o.ID] = struct{}{}
		slog.Warn("duplicate option id", "combobox", widget, "id", o.ID)
	}
}
