package catalog

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/sst/modforge/internal/tui/components/combobox"
	"gocloud.dev/blob"
	_ "gocloud.dev/blob/fileblob"
	_ "gocloud.dev/blob/memblob"
)

// IsURL reports whether src names a blob, such as
// file:///srv/catalogs/langs.json.
func IsURL(src string) bool {
	return strings.Contains(src, "://")
}

// IsPattern reports whether src is a glob that may match several files,
// such as catalogs/**/*.json.
func IsPattern(src string) bool {
	return !IsURL(src) && strings.ContainsAny(src, "*?[{")
}

func read(ctx context.Context, src string) ([]byte, error) {
	if IsURL(src) {
		return readBlob(ctx, src)
	}
	data, err := os.ReadFile(src)
	if err != nil {
		return nil, fmt.Errorf("reading catalog: %w", err)
	}
	return data, nil
}

// readBlob opens the bucket holding the blob's directory and reads the blob
// by its base name. Query parameters are passed to the bucket.
func readBlob(ctx context.Context, src string) ([]byte, error) {
	u, err := url.Parse(src)
	if err != nil {
		return nil, fmt.Errorf("parsing catalog url: %w", err)
	}
	dir, key := path.Split(u.Path)
	if key == "" {
		return nil, fmt.Errorf("catalog url %s names no blob", src)
	}
	u.Path = dir

	bucket, err := blob.OpenBucket(ctx, u.String())
	if err != nil {
		return nil, fmt.Errorf("opening catalog bucket: %w", err)
	}
	defer bucket.Close()

	data, err := bucket.ReadAll(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("reading catalog: %w", err)
	}
	return data, nil
}

// expand lists the files a pattern matches, sorted.
func expand(pattern string) ([]string, error) {
	matches, err := doublestar.FilepathGlob(pattern, doublestar.WithFilesOnly())
	if err != nil {
		return nil, fmt.Errorf("expanding %s: %w", pattern, err)
	}
	sort.Strings(matches)
	return matches, nil
}

// loadPattern concatenates every file the pattern matches, in path order.
func loadPattern(ctx context.Context, pattern string) ([]combobox.Option, error) {
	files, err := expand(pattern)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		slog.Warn("catalog pattern matches no files", "pattern", pattern)
	}

	var options []combobox.Option
	for _, file := range files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		data, err := read(ctx, file)
		if err != nil {
			return nil, err
		}
		parsed, err := Parse(data)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", file, err)
		}
		options = append(options, parsed...)
	}
	return options, nil
}

// matchesPattern reports whether file would be picked up by pattern.
func matchesPattern(pattern, file string) bool {
	ok, err := doublestar.PathMatch(pattern, file)
	return err == nil && ok
}
