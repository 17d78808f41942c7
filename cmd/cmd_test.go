package cmd

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/sst/modforge/internal/config"
	"github.com/sst/modforge/internal/format"
	"github.com/sst/modforge/internal/tui/components/combobox"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCatalogName(t *testing.T) {
	t.Parallel()

	tests := []struct {
		path string
		want string
	}{
		{path: "/data/Languages.json", want: "languages"},
		{path: "tags.json", want: "tags"},
		{path: "plain", want: "plain"},
		{path: "dir/with.dots.json", want: "with.dots"},
		{path: "catalogs/Icons/**/*.json", want: "icons"},
		{path: "file:///srv/catalogs/tags.json", want: "tags"},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, catalogName(tt.path))
		})
	}
}

func TestNewPickField(t *testing.T) {
	t.Parallel()

	f := newPickField("langs", pickOptions{
		multi:        true,
		freeSolo:     true,
		groupBy:      "family",
		searchFields: []string{"name", "code"},
		fuzzy:        true,
	})
	assert.Equal(t, config.Field{
		Name:         "langs",
		Label:        "langs",
		Catalog:      "langs",
		Multiselect:  true,
		FreeSolo:     true,
		GroupBy:      "family",
		SearchFields: []string{"name", "code"},
		Match:        "fuzzy",
	}, f)

	assert.Equal(t, "substring", newPickField("x", pickOptions{}).Match)
}

func TestNewPickFieldPassesConfigValidation(t *testing.T) {
	t.Parallel()

	cfg := config.Config{
		Catalogs: map[string]string{"langs": "langs.json"},
		Fields:   []config.Field{newPickField("langs", pickOptions{fuzzy: true})},
	}
	assert.NoError(t, cfg.Validate())
}

func TestPrintValues(t *testing.T) {
	t.Parallel()

	values := []format.FieldValue{
		{Field: "lang", Values: []combobox.Option{{ID: "go", Name: "Go"}}},
		{Field: "tags", Multi: true},
	}

	var text bytes.Buffer
	require.NoError(t, printValues(&text, values, format.TextFormat))
	assert.Equal(t, "lang: Go\ntags: \n", text.String())

	var js bytes.Buffer
	require.NoError(t, printValues(&js, values, format.JSONFormat))
	var doc map[string]any
	require.NoError(t, json.Unmarshal(js.Bytes(), &doc))
	assert.Equal(t, []any{}, doc["tags"])
	assert.Equal(t, "go", doc["lang"].(map[string]any)["id"])
}

func TestPrintSelection(t *testing.T) {
	t.Parallel()

	var out bytes.Buffer
	require.NoError(t, printSelection(&out, []format.FieldValue{{
		Field:  "tags",
		Multi:  true,
		Values: []combobox.Option{{ID: "a", Name: "A"}, {ID: "b", Name: "B"}},
	}}, format.TextFormat))
	assert.Equal(t, "A\nB\n", out.String())

	out.Reset()
	require.NoError(t, printSelection(&out, []format.FieldValue{{Field: "tags"}}, format.TextFormat))
	assert.Empty(t, out.String())

	out.Reset()
	require.NoError(t, printSelection(&out, []format.FieldValue{{Field: "tags"}}, format.JSONFormat))
	assert.Equal(t, "[]\n", out.String())

	out.Reset()
	require.NoError(t, printSelection(&out, nil, format.JSONFormat))
	assert.Empty(t, out.String())
}

func TestRootRejectsBadOutputFormat(t *testing.T) {
	rootCmd.SetArgs([]string{"--output-format", "xml"})
	t.Cleanup(func() {
		rootCmd.SetArgs(nil)
		rootCmd.PersistentFlags().Set("output-format", "text")
	})

	err := rootCmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "xml")
}

func TestRootRequiresFields(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(home, ".config"))
	config.Reset()
	t.Cleanup(config.Reset)

	wd, err := os.Getwd()
	require.NoError(t, err)
	t.Cleanup(func() { os.Chdir(wd) })

	rootCmd.SetArgs([]string{"--cwd", t.TempDir()})
	t.Cleanup(func() {
		rootCmd.SetArgs(nil)
		rootCmd.PersistentFlags().Set("cwd", "")
	})

	err = rootCmd.Execute()
	assert.ErrorIs(t, err, ErrNoFields)
}

func TestPickRequiresCatalog(t *testing.T) {
	rootCmd.SetArgs([]string{"pick"})
	t.Cleanup(func() { rootCmd.SetArgs(nil) })

	err := rootCmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "catalog")
}
