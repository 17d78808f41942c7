package combobox

import (
	"fmt"
	"strings"

	"github.com/lithammer/fuzzysearch/fuzzy"
	"golang.org/x/text/cases"
)

// MatchMode selects how the query is compared against search fields.
type MatchMode int

const (
	// MatchSubstring keeps options whose field contains the query.
	MatchSubstring MatchMode = iota
	// MatchFuzzy keeps options whose field contains the query's runes in order.
	MatchFuzzy
)

func (m MatchMode) String() string {
	switch m {
	case MatchFuzzy:
		return "fuzzy"
	default:
		return "substring"
	}
}

// ParseMatchMode maps a config value onto a MatchMode. Empty means substring.
func ParseMatchMode(s string) (MatchMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "substring":
		return MatchSubstring, nil
	case "fuzzy":
		return MatchFuzzy, nil
	}
	return MatchSubstring, fmt.Errorf("unknown match mode %q", s)
}

type RowKind int

const (
	RowOption RowKind = iota
	RowGroupHeader
	RowFreeSolo
)

// Row is one line of the dropdown.
type Row struct {
	Kind RowKind
	// Option is set for option and free-solo rows.
	Option Option
	// Group is the header label for group header rows.
	Group string
	// Index is the selectable index, -1 for headers.
	Index int
}

// Filter turns the full option set into the rows the dropdown shows.
type Filter struct {
	SearchFields []string
	GroupBy      string
	FreeSolo     bool
	Mode         MatchMode
}

// Result is what Apply produces. The free-solo row, when present, is the
// last selectable index.
type Result struct {
	Rows       []Row
	Candidates []Option
	FreeSolo   bool
}

// Selectable is the number of rows that can be highlighted.
func (r Result) Selectable() int {
	n := len(r.Candidates)
	if r.FreeSolo {
		n++
	}
	return n
}

// At returns the row with the given selectable index.
func (r Result) At(index int) (Row, bool) {
	for _, row := range r.Rows {
		if row.Index == index && row.Kind != RowGroupHeader {
			return row, true
		}
	}
	return Row{}, false
}

func (f Filter) searchFields() []string {
	if len(f.SearchFields) == 0 {
		return []string{"name"}
	}
	return f.SearchFields
}

// Matches reports whether o is a candidate for query.
func (f Filter) Matches(o Option, query string) bool {
	if query == "" {
		return true
	}
	needle := fold(query)
	for _, field := range f.searchFields() {
		value := o.Field(field)
		if value == "" {
			continue
		}
		switch f.Mode {
		case MatchFuzzy:
			if fuzzy.MatchNormalizedFold(query, value) {
				return true
			}
		default:
			if strings.Contains(fold(value), needle) {
				return true
			}
		}
	}
	return false
}

// Apply computes the dropdown rows. It keeps the caller's order, drops
// options already in a multi selection, inserts a header whenever the group
// value changes from the previous candidate, and appends the free-solo row
// when the typed text names nothing that exists.
func (f Filter) Apply(options []Option, query string, selected []Option, multi bool) Result {
	var res Result

	for _, o := range options {
		if multi && containsID(selected, o.ID) {
			continue
		}
		if !f.Matches(o, query) {
			continue
		}
		res.Candidates = append(res.Candidates, o)
	}

	var prevGroup string
	for i, o := range res.Candidates {
		if f.GroupBy != "" {
			group := o.Field(f.GroupBy)
			if i == 0 || group != prevGroup {
				res.Rows = append(res.Rows, Row{Kind: RowGroupHeader, Group: group, Index: -1})
			}
			prevGroup = group
		}
		res.Rows = append(res.Rows, Row{Kind: RowOption, Option: o, Index: i})
	}

	if f.offerFreeSolo(options, query, selected, multi) {
		text := strings.TrimSpace(query)
		res.FreeSolo = true
		res.Rows = append(res.Rows, Row{
			Kind:   RowFreeSolo,
			Option: FreeSoloOption(text),
			Index:  len(res.Candidates),
		})
	}

	return res
}

func (f Filter) offerFreeSolo(options []Option, query string, selected []Option, multi bool) bool {
	text := strings.TrimSpace(query)
	if !f.FreeSolo || text == "" {
		return false
	}
	if _, ok := findByName(options, text); ok {
		return false
	}
	if multi {
		if _, ok := findByName(selected, text); ok {
			return false
		}
	}
	return true
}

// fold applies Unicode case folding.
func fold(s string) string {
	return cases.Fold().String(s)
}
