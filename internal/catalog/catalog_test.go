package catalog

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sst/modforge/internal/pubsub"
	"github.com/sst/modforge/internal/tui/components/combobox"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestParse(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		input   string
		want    []combobox.Option
		wantErr error
	}{
		{
			name:  "objects",
			input: `[{"id":"go","name":"Go","family":"c"},{"id":"rs","name":"Rust"}]`,
			want: []combobox.Option{
				{ID: "go", Name: "Go", Fields: map[string]string{"family": "c"}},
				{ID: "rs", Name: "Rust"},
			},
		},
		{
			name:  "id defaults to name",
			input: `[{"name":"Zig"}]`,
			want:  []combobox.Option{{ID: "Zig", Name: "Zig"}},
		},
		{
			name:  "non-object entries are skipped",
			input: `[1, "two", {"id":"3","name":"Three"}, null]`,
			want:  []combobox.Option{{ID: "3", Name: "Three"}},
		},
		{
			name:  "empty",
			input: `[]`,
			want:  []combobox.Option{},
		},
		{
			name:    "object at top level",
			input:   `{"id":"x"}`,
			wantErr: ErrNotArray,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := Parse([]byte(tt.input))
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseComments(t *testing.T) {
	t.Parallel()

	got, err := Parse([]byte(`[
		// systems languages
		{"id": "go", "name": "Go", "url": "https://go.dev"},
		/* {"id": "c", "name": "C"}, */
		{"id": "rs", "name": "Rust"}
	]`))
	require.NoError(t, err)
	assert.Equal(t, []combobox.Option{
		{ID: "go", Name: "Go", Fields: map[string]string{"url": "https://go.dev"}},
		{ID: "rs", Name: "Rust"},
	}, got)
}

func TestParseSyntaxError(t *testing.T) {
	t.Parallel()
	_, err := Parse([]byte(`[{`))
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotArray)
}

func TestLoad(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()

	path := filepath.Join(dir, "tags.json")
	writeFile(t, path, `[{"id":"a","name":"Alpha"}]`)
	got, err := Load(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, []combobox.Option{{ID: "a", Name: "Alpha"}}, got)

	_, err = Load(context.Background(), filepath.Join(dir, "missing.json"))
	assert.ErrorIs(t, err, os.ErrNotExist)

	bad := filepath.Join(dir, "bad.json")
	writeFile(t, bad, `"nope"`)
	_, err = Load(context.Background(), bad)
	assert.ErrorIs(t, err, ErrNotArray)
	assert.Contains(t, err.Error(), bad)
}

func TestLoadPattern(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "nested"), 0o755))
	writeFile(t, filepath.Join(dir, "b.json"), `[{"id":"b","name":"B"}]`)
	writeFile(t, filepath.Join(dir, "nested", "a.json"), `[{"id":"a","name":"A"}]`)
	writeFile(t, filepath.Join(dir, "notes.txt"), `not a catalog`)

	got, err := Load(context.Background(), filepath.Join(dir, "**", "*.json"))
	require.NoError(t, err)
	assert.Equal(t, []combobox.Option{{ID: "b", Name: "B"}, {ID: "a", Name: "A"}}, got)

	got, err = Load(context.Background(), filepath.Join(dir, "*.yaml"))
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestLoadBlobURL(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "tags.json"), `[{"id":"a","name":"Alpha"}]`)

	got, err := Load(context.Background(), "file://"+filepath.ToSlash(dir)+"/tags.json")
	require.NoError(t, err)
	assert.Equal(t, []combobox.Option{{ID: "a", Name: "Alpha"}}, got)

	_, err = Load(context.Background(), "file://"+filepath.ToSlash(dir)+"/missing.json")
	assert.Error(t, err)

	_, err = Load(context.Background(), "file://"+filepath.ToSlash(dir)+"/")
	assert.ErrorContains(t, err, "names no blob")
}

func TestSourceKinds(t *testing.T) {
	t.Parallel()

	assert.True(t, IsURL("file:///srv/a.json"))
	assert.False(t, IsURL("a.json"))
	assert.True(t, IsPattern("catalogs/*.json"))
	assert.True(t, IsPattern("catalogs/{a,b}.json"))
	assert.False(t, IsPattern("catalogs/a.json"))
	assert.False(t, IsPattern("mem://bucket/*.json"))
}

func TestLoadAll(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "a.json"), `[{"id":"1","name":"One"}]`)
	writeFile(t, filepath.Join(dir, "b.json"), `[{"id":"2","name":"Two"},{"id":"3","name":"Three"}]`)

	got, err := LoadAll(context.Background(), map[string]string{
		"a": filepath.Join(dir, "a.json"),
		"b": filepath.Join(dir, "b.json"),
	})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "a", got["a"].Name)
	assert.Len(t, got["a"].Options, 1)
	assert.Len(t, got["b"].Options, 2)
}

func TestLoadAllFailure(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "a.json"), `[]`)

	_, err := LoadAll(context.Background(), map[string]string{
		"a":       filepath.Join(dir, "a.json"),
		"missing": filepath.Join(dir, "missing.json"),
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `catalog "missing"`)
}

func TestLoadAllCanceled(t *testing.T) {
	t.Parallel()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := LoadAll(ctx, map[string]string{"a": "whatever.json"})
	assert.ErrorIs(t, err, context.Canceled)
}

func waitEvent(t *testing.T, ch <-chan pubsub.Event[Catalog]) pubsub.Event[Catalog] {
	t.Helper()
	select {
	case ev, ok := <-ch:
		require.True(t, ok, "watcher closed")
		return ev
	case <-time.After(3 * time.Second):
		t.Fatal("no catalog event")
	}
	return pubsub.Event[Catalog]{}
}

func TestWatcherReloads(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "tags.json")
	writeFile(t, path, `[{"id":"a","name":"Alpha"}]`)

	w, err := NewWatcher(map[string]string{"tags": path})
	require.NoError(t, err)
	w.debounce = 50 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	events := w.Subscribe(ctx)
	go w.Run(ctx)

	writeFile(t, filepath.Join(dir, "unrelated.json"), `[]`)
	writeFile(t, path, `[{"id":"a","name":"Alpha"},{"id":"b","name":"Beta"}]`)

	ev := waitEvent(t, events)
	assert.Equal(t, pubsub.EventTypeUpdated, ev.Type)
	assert.Equal(t, "tags", ev.Payload.Name)
	assert.Len(t, ev.Payload.Options, 2)

	writeFile(t, path, `{"broken":true}`)
	ev = waitEvent(t, events)
	assert.Equal(t, pubsub.EventTypeFailed, ev.Type)
	assert.ErrorIs(t, ev.Err, ErrNotArray)
	assert.Equal(t, "tags", ev.Payload.Name)
}

func TestWatcherReloadsPattern(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "a.json"), `[{"id":"a","name":"A"}]`)

	w, err := NewWatcher(map[string]string{"all": filepath.Join(dir, "*.json")})
	require.NoError(t, err)
	w.debounce = 50 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	events := w.Subscribe(ctx)
	go w.Run(ctx)

	writeFile(t, filepath.Join(dir, "b.json"), `[{"id":"b","name":"B"}]`)

	ev := waitEvent(t, events)
	assert.Equal(t, pubsub.EventTypeUpdated, ev.Type)
	assert.Equal(t, "all", ev.Payload.Name)
	assert.Len(t, ev.Payload.Options, 2)
}

// waitOptions waits for an update carrying n options, skipping the
// intermediate reloads a burst of writes can cause.
func waitOptions(t *testing.T, ch <-chan pubsub.Event[Catalog], n int) pubsub.Event[Catalog] {
	t.Helper()
	for {
		ev := waitEvent(t, ch)
		if ev.Type == pubsub.EventTypeUpdated && len(ev.Payload.Options) == n {
			return ev
		}
	}
}

func TestWatcherFollowsNewDirectories(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "a.json"), `[{"id":"a","name":"A"}]`)

	w, err := NewWatcher(map[string]string{"all": filepath.Join(dir, "**", "*.json")})
	require.NoError(t, err)
	w.debounce = 50 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	events := w.Subscribe(ctx)
	go w.Run(ctx)

	nested := filepath.Join(dir, "new", "deeper")
	require.NoError(t, os.MkdirAll(nested, 0o755))
	writeFile(t, filepath.Join(nested, "b.json"), `[{"id":"b","name":"B"}]`)

	ev := waitOptions(t, events, 2)
	assert.Equal(t, "all", ev.Payload.Name)

	writeFile(t, filepath.Join(nested, "c.json"), `[{"id":"c","name":"C"}]`)
	waitOptions(t, events, 3)
}

func TestWatcherSkipsURLs(t *testing.T) {
	w, err := NewWatcher(map[string]string{"remote": "mem://catalogs/tags.json"})
	require.NoError(t, err)
	assert.Empty(t, w.sources)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	w.Run(ctx)
}

func TestWatcherStopsWithContext(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "tags.json")
	writeFile(t, path, `[]`)

	w, err := NewWatcher(map[string]string{"tags": path})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	events := w.Subscribe(context.Background())
	done := make(chan struct{})
	go func() {
		w.Run(ctx)
		close(done)
	}()
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("watcher did not stop")
	}
	_, ok := <-events
	assert.False(t, ok)
}

func TestNewWatcherMissingDirectory(t *testing.T) {
	_, err := NewWatcher(map[string]string{"x": filepath.Join(t.TempDir(), "nope", "x.json")})
	assert.Error(t, err)
}
