package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func isolate(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(home, ".config"))
	Reset()
	t.Cleanup(Reset)
	return home
}

func writeJSON(t *testing.T, path string, v any) {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, data, 0o644))
}

func TestLoadDefaults(t *testing.T) {
	isolate(t)
	wd := t.TempDir()

	c, err := Load(wd, false)
	require.NoError(t, err)
	assert.Equal(t, wd, c.WorkingDir)
	assert.Equal(t, filepath.Join(wd, defaultDataDirectory), c.Data.Directory)
	assert.Equal(t, "info", c.Log.Level)
	assert.Equal(t, "mocha", c.TUI.Theme)
	assert.Equal(t, 150, c.TUI.BlurDelayMs)
	assert.Equal(t, 8, c.TUI.MaxVisible)
	assert.False(t, c.Debug)
	assert.Same(t, c, Get())
}

func TestLoadDebugForcesLevel(t *testing.T) {
	isolate(t)

	c, err := Load(t.TempDir(), true)
	require.NoError(t, err)
	assert.True(t, c.Debug)
	assert.Equal(t, "debug", c.Log.Level)
}

func TestLoadMergesLocalConfig(t *testing.T) {
	home := isolate(t)
	writeJSON(t, filepath.Join(home, ".modforge.json"), map[string]any{
		"tui": map[string]any{"theme": "latte", "maxVisible": 5},
	})

	wd := t.TempDir()
	writeJSON(t, filepath.Join(wd, ".modforge.json"), map[string]any{
		"tui":      map[string]any{"maxVisible": 12},
		"catalogs": map[string]any{"Languages": "langs.json"},
		"fields": []map[string]any{{
			"name":         "language",
			"label":        "Language",
			"catalog":      "Languages",
			"multiselect":  true,
			"freeSolo":     true,
			"groupBy":      "family",
			"searchFields": []string{"name", "code"},
			"match":        "fuzzy",
		}},
	})

	c, err := Load(wd, false)
	require.NoError(t, err)
	assert.Equal(t, "latte", c.TUI.Theme)
	assert.Equal(t, 12, c.TUI.MaxVisible)
	assert.Equal(t, filepath.Join(wd, "langs.json"), c.Catalogs["languages"])

	require.Len(t, c.Fields, 1)
	f := c.Fields[0]
	assert.Equal(t, "language", f.Name)
	assert.Equal(t, "languages", f.Catalog)
	assert.True(t, f.Multiselect)
	assert.True(t, f.FreeSolo)
	assert.Equal(t, "family", f.GroupBy)
	assert.Equal(t, []string{"name", "code"}, f.SearchFields)
	assert.Equal(t, "fuzzy", f.Match)
	assert.Equal(t, []string{"languages"}, c.CatalogNames())
}

func TestLoadRejectsInvalidConfig(t *testing.T) {
	isolate(t)
	wd := t.TempDir()
	writeJSON(t, filepath.Join(wd, ".modforge.json"), map[string]any{
		"fields": []map[string]any{{"name": "x", "catalog": "missing"}},
	})

	_, err := Load(wd, false)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown catalog "missing"`)
	assert.Nil(t, Get())
}

func TestLoadRejectsMalformedFile(t *testing.T) {
	isolate(t)
	wd := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(wd, ".modforge.json"), []byte("{nope"), 0o644))

	_, err := Load(wd, false)
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		cfg     Config
		wantErr string
	}{
		{
			name: "valid",
			cfg: Config{
				Catalogs: map[string]string{"tags": "tags.json"},
				Fields:   []Field{{Name: "tags", Catalog: "tags", Match: "substring"}},
			},
		},
		{
			name:    "missing name",
			cfg:     Config{Catalogs: map[string]string{"t": ""}, Fields: []Field{{Catalog: "t"}}},
			wantErr: "name is required",
		},
		{
			name: "duplicate name",
			cfg: Config{
				Catalogs: map[string]string{"t": ""},
				Fields:   []Field{{Name: "a", Catalog: "t"}, {Name: "a", Catalog: "t"}},
			},
			wantErr: `duplicate name "a"`,
		},
		{
			name: "bad match",
			cfg: Config{
				Catalogs: map[string]string{"t": ""},
				Fields:   []Field{{Name: "a", Catalog: "t", Match: "regex"}},
			},
			wantErr: "match must be substring or fuzzy",
		},
		{
			name:    "negative max visible",
			cfg:     Config{TUI: TUIConfig{MaxVisible: -1}},
			wantErr: "tui.maxVisible",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := tt.cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestValidateBeforeLoad(t *testing.T) {
	isolate(t)
	assert.ErrorIs(t, Validate(), ErrNotLoaded)
	assert.ErrorIs(t, UpdateTheme("latte"), ErrNotLoaded)
}

func TestUpdateThemeKeepsOtherKeys(t *testing.T) {
	isolate(t)
	wd := t.TempDir()
	path := filepath.Join(wd, ".modforge.json")
	writeJSON(t, path, map[string]any{
		"catalogs": map[string]any{"tags": "tags.json"},
		"tui":      map[string]any{"maxVisible": 4},
	})

	_, err := Load(wd, false)
	require.NoError(t, err)
	require.NoError(t, UpdateTheme("frappe"))
	assert.Equal(t, "frappe", Get().TUI.Theme)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var written map[string]any
	require.NoError(t, json.Unmarshal(data, &written))
	assert.Equal(t, map[string]any{"tags": "tags.json"}, written["catalogs"])
	tui := written["tui"].(map[string]any)
	assert.Equal(t, "frappe", tui["theme"])
	assert.EqualValues(t, 4, tui["maxVisible"])
}
