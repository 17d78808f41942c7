// Package catalog loads the option lists that feed the form's comboboxes.
//
// A catalog file is a JSON array of objects, comments allowed. Each object
// becomes a combobox.Option: "id" and "name" are taken as such, every other
// key is kept as a searchable field. Entries without an id use their name.
package catalog

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"sort"
	"sync"

	"github.com/marcozac/go-jsonc"
	"github.com/sst/modforge/internal/tui/components/combobox"
	"golang.org/x/sync/errgroup"
)

// ErrNotArray is returned when a catalog file is valid JSON but not an array.
var ErrNotArray = errors.New("catalog must be a JSON array")

// Catalog is a named, loaded option list.
type Catalog struct {
	Name    string
	Path    string
	Options []combobox.Option
}

// Load reads and parses the catalog at src, which is a file path, a glob of
// files or a blob URL. Entries that are not objects are skipped with a
// warning.
func Load(ctx context.Context, src string) ([]combobox.Option, error) {
	if IsPattern(src) {
		return loadPattern(ctx, src)
	}
	data, err := read(ctx, src)
	if err != nil {
		return nil, err
	}
	options, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", src, err)
	}
	return options, nil
}

// Parse decodes catalog JSON. Line and block comments are stripped first.
func Parse(data []byte) ([]combobox.Option, error) {
	if jsonc.HasCommentRunes(data) {
		sanitized, err := jsonc.Sanitize(data)
		if err != nil {
			return nil, fmt.Errorf("parsing catalog: %w", err)
		}
		data = sanitized
	}

	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) {
			return nil, ErrNotArray
		}
		return nil, fmt.Errorf("parsing catalog: %w", err)
	}

	options := make([]combobox.Option, 0, len(raw))
	for i, entry := range raw {
		if string(bytes.TrimSpace(entry)) == "null" {
			continue
		}
		var o combobox.Option
		if err := json.Unmarshal(entry, &o); err != nil {
			slog.Warn("skipping catalog entry", "index", i, "error", err)
			continue
		}
		if o.ID == "" {
			o.ID = o.Name
		}
		options = append(options, o)
	}
	return options, nil
}

// LoadAll loads every catalog concurrently. The first failure cancels the
// rest and is returned.
func LoadAll(ctx context.Context, paths map[string]string) (map[string]Catalog, error) {
	var mu sync.Mutex
	out := make(map[string]Catalog, len(paths))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(max(runtime.GOMAXPROCS(0)-1, 1))
	for _, name := range sortedNames(paths) {
		path := paths[name]
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			options, err := Load(ctx, path)
			if err != nil {
				return fmt.Errorf("catalog %q: %w", name, err)
			}

			mu.Lock()
			defer mu.Unlock()
			out[name] = Catalog{Name: name, Path: path, Options: options}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	slog.Debug("catalogs loaded", "count", len(out))
	return out, nil
}

func sortedNames(paths map[string]string) []string {
	names := make([]string, 0, len(paths))
	for name := range paths {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
