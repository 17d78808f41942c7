package combobox

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	alpha = Option{ID: "a", Name: "Alpha", Fields: map[string]string{"category": "greek"}}
	beta  = Option{ID: "b", Name: "Beta", Fields: map[string]string{"category": "greek"}}
	aleph = Option{ID: "h", Name: "Aleph", Fields: map[string]string{"category": "hebrew"}}
	gamma = Option{ID: "g", Name: "Gamma", Fields: map[string]string{"category": "greek"}}
)

func names(options []Option) []string {
	out := make([]string, 0, len(options))
	for _, o := range options {
		out = append(out, o.Name)
	}
	return out
}

func TestFilterCandidates(t *testing.T) {
	t.Parallel()

	options := []Option{alpha, beta, aleph, gamma}

	tests := []struct {
		name   string
		filter Filter
		query  string
		want   []string
	}{
		{"empty query keeps everything", Filter{}, "", []string{"Alpha", "Beta", "Aleph", "Gamma"}},
		{"case insensitive substring", Filter{}, "AL", []string{"Alpha", "Aleph"}},
		{"substring anywhere", Filter{}, "mm", []string{"Gamma"}},
		{"no match", Filter{}, "zeta", nil},
		{"extra search field", Filter{SearchFields: []string{"name", "category"}}, "hebr", []string{"Aleph"}},
		{"only listed fields", Filter{SearchFields: []string{"category"}}, "alpha", nil},
		{"query is not trimmed", Filter{}, "alpha ", nil},
		{"fuzzy subsequence", Filter{Mode: MatchFuzzy}, "gma", []string{"Gamma"}},
		{"substring rejects subsequence", Filter{}, "gma", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			res := tt.filter.Apply(options, tt.query, nil, false)
			if tt.want == nil {
				assert.Empty(t, res.Candidates)
				return
			}
			assert.Equal(t, tt.want, names(res.Candidates))
		})
	}
}

func TestFilterUnicodeFolding(t *testing.T) {
	t.Parallel()

	options := []Option{{ID: "e", Name: "Éclair"}}
	res := Filter{}.Apply(options, "éCL", nil, false)
	assert.Equal(t, []string{"Éclair"}, names(res.Candidates))
}

// Membership must follow the substring rule exactly for every option and query.
func TestFilterMembershipRule(t *testing.T) {
	t.Parallel()

	options := []Option{alpha, beta, aleph, gamma, {ID: "x"}, {ID: "y", Name: "ALPHABET"}}
	selected := []Option{beta}
	queries := []string{"", "a", "A", "al", "ph", "et", "GAM", "q", "bet", "alphabet"}

	for _, multi := range []bool{false, true} {
		for _, q := range queries {
			res := Filter{}.Apply(options, q, selected, multi)
			for _, o := range options {
				want := strings.Contains(strings.ToLower(o.Name), strings.ToLower(q))
				if multi && o.ID == beta.ID {
					want = false
				}
				assert.Equal(t, want, containsID(res.Candidates, o.ID), "query %q option %q multi %v", q, o.ID, multi)
			}
		}
	}
}

func TestFilterMultiExcludesSelected(t *testing.T) {
	t.Parallel()

	options := []Option{alpha, beta, gamma}
	res := Filter{}.Apply(options, "", []Option{beta}, true)
	assert.Equal(t, []string{"Alpha", "Gamma"}, names(res.Candidates))

	res = Filter{}.Apply(options, "", []Option{beta}, false)
	assert.Equal(t, []string{"Alpha", "Beta", "Gamma"}, names(res.Candidates))
}

func TestFilterGroupsByAdjacency(t *testing.T) {
	t.Parallel()

	options := []Option{alpha, beta, aleph, gamma}
	res := Filter{GroupBy: "category"}.Apply(options, "", nil, false)

	var got []string
	for _, row := range res.Rows {
		switch row.Kind {
		case RowGroupHeader:
			assert.Equal(t, -1, row.Index)
			got = append(got, "#"+row.Group)
		case RowOption:
			got = append(got, row.Option.Name)
		}
	}
	// greek repeats because gamma is not adjacent to beta
	assert.Equal(t, []string{"#greek", "Alpha", "Beta", "#hebrew", "Aleph", "#greek", "Gamma"}, got)
}

func TestFilterSelectableIndexes(t *testing.T) {
	t.Parallel()

	res := Filter{GroupBy: "category", FreeSolo: true}.Apply([]Option{alpha, aleph}, "al", nil, false)
	require.Equal(t, 3, res.Selectable())

	row, ok := res.At(1)
	require.True(t, ok)
	assert.Equal(t, "Aleph", row.Option.Name)

	row, ok = res.At(2)
	require.True(t, ok)
	assert.Equal(t, RowFreeSolo, row.Kind)
	assert.Equal(t, FreeSoloOption("al"), row.Option)

	_, ok = res.At(3)
	assert.False(t, ok)
	_, ok = res.At(-1)
	assert.False(t, ok)
}

func TestFilterFreeSoloRow(t *testing.T) {
	t.Parallel()

	options := []Option{alpha, beta}

	tests := []struct {
		name     string
		query    string
		selected []Option
		multi    bool
		freeSolo bool
		want     bool
	}{
		{"disabled", "zeta", nil, false, false, false},
		{"new text", "zeta", nil, false, true, true},
		{"empty query", "", nil, false, true, false},
		{"whitespace only", "   ", nil, false, true, false},
		{"matches existing name", "alpha", nil, false, true, false},
		{"matches existing name after trim", "  BETA ", nil, false, true, false},
		{"prefix of existing name", "alp", nil, false, true, true},
		{"matches selected free solo value", "zeta", []Option{FreeSoloOption("Zeta")}, true, true, false},
		{"selected values ignored in single mode", "zeta", []Option{FreeSoloOption("Zeta")}, false, true, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			res := Filter{FreeSolo: tt.freeSolo}.Apply(options, tt.query, tt.selected, tt.multi)
			assert.Equal(t, tt.want, res.FreeSolo)
			if tt.want {
				last := res.Rows[len(res.Rows)-1]
				assert.Equal(t, RowFreeSolo, last.Kind)
				assert.Equal(t, strings.TrimSpace(tt.query), last.Option.Name)
				assert.Equal(t, len(res.Candidates), last.Index)
			}
		})
	}
}

func TestFilterToleratesMalformedOptions(t *testing.T) {
	t.Parallel()

	options := []Option{{}, {ID: "a"}, {Name: "Nameless"}, {ID: "a", Name: "Dup"}, {ID: "a", Name: "Dup"}}
	f := Filter{SearchFields: []string{"name", "missing"}, GroupBy: "missing", FreeSolo: true}

	assert.NotPanics(t, func() {
		res := f.Apply(options, "dup", nil, true)
		assert.Equal(t, []string{"Dup", "Dup"}, names(res.Candidates))
	})
	assert.Len(t, f.Apply(options, "", nil, false).Candidates, len(options))
}

func TestFilterIsIdempotent(t *testing.T) {
	t.Parallel()

	options := []Option{alpha, beta, aleph}
	f := Filter{GroupBy: "category", FreeSolo: true}
	first := f.Apply(options, "a", []Option{beta}, true)
	second := f.Apply(options, "a", []Option{beta}, true)
	assert.Equal(t, first, second)
	assert.Equal(t, []Option{alpha, beta, aleph}, options)
}

func TestParseMatchMode(t *testing.T) {
	t.Parallel()

	mode, err := ParseMatchMode("")
	require.NoError(t, err)
	assert.Equal(t, MatchSubstring, mode)

	mode, err = ParseMatchMode("Fuzzy")
	require.NoError(t, err)
	assert.Equal(t, MatchFuzzy, mode)
	assert.Equal(t, "fuzzy", mode.String())

	_, err = ParseMatchMode("regex")
	assert.Error(t, err)
}
