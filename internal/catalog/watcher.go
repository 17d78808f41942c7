package catalog

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/fsnotify/fsnotify"
	"github.com/sst/modforge/internal/pubsub"
)

// DefaultDebounce coalesces the burst of events an editor emits when saving.
const DefaultDebounce = 100 * time.Millisecond

// Watcher reloads catalogs when their files change and publishes the result.
// A failed reload publishes a failed event and leaves subscribers with the
// options they already have. Blob URLs are not watched.
type Watcher struct {
	*pubsub.Broker[Catalog]

	fs       *fsnotify.Watcher
	sources  map[string]string
	byPath   map[string]string
	patterns map[string]patternSource
	debounce time.Duration

	mu     sync.Mutex
	ctx    context.Context
	timers map[string]*time.Timer
}

type patternSource struct {
	pattern string
	base    string
	// deep is set when the pattern can match below its base directory.
	deep    bool
}

// NewWatcher watches the directories holding the given catalogs. Directories
// are watched rather than files so that atomic renames are seen. A pattern
// watches its base directory, and every directory below it when it can
// match there. Directories created later are picked up while running.
func NewWatcher(sources map[string]string) (*Watcher, error) {
	fs, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating watcher: %w", err)
	}

	w := &Watcher{
		Broker:   pubsub.NewBroker[Catalog](),
		fs:       fs,
		sources:  make(map[string]string, len(sources)),
		byPath:   make(map[string]string, len(sources)),
		patterns: make(map[string]patternSource),
		debounce: DefaultDebounce,
		ctx:      context.Background(),
		timers:   make(map[string]*time.Timer),
	}

	dirs := make(map[string]bool)
	for name, src := range sources {
		if IsURL(src) {
			slog.Debug("not watching catalog url", "catalog", name, "url", src)
			continue
		}
		abs, err := filepath.Abs(src)
		if err != nil {
			fs.Close()
			return nil, fmt.Errorf("resolving %s: %w", src, err)
		}
		w.sources[name] = abs

		if !IsPattern(abs) {
			w.byPath[abs] = name
			dirs[filepath.Dir(abs)] = true
			continue
		}
		base, rest := doublestar.SplitPattern(filepath.ToSlash(abs))
		ps := patternSource{
			pattern: abs,
			base:    filepath.FromSlash(base),
			deep:    strings.Contains(rest, "/"),
		}
		w.patterns[name] = ps
		if !ps.deep {
			dirs[ps.base] = true
			continue
		}
		err = filepath.WalkDir(ps.base, func(p string, d os.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				dirs[p] = true
			}
			return nil
		})
		if err != nil {
			fs.Close()
			return nil, fmt.Errorf("watching %s: %w", ps.base, err)
		}
	}
	for dir := range dirs {
		if err := fs.Add(dir); err != nil {
			fs.Close()
			return nil, fmt.Errorf("watching %s: %w", dir, err)
		}
	}
	return w, nil
}

// Run processes file events until ctx is done, then releases the watcher.
func (w *Watcher) Run(ctx context.Context) {
	w.mu.Lock()
	w.ctx = ctx
	w.mu.Unlock()

	defer w.close()
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-w.fs.Events:
			if !ok {
				return
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) {
				continue
			}
			path := filepath.Clean(ev.Name)
			if ev.Has(fsnotify.Create) && w.watchNewDir(path) {
				continue
			}
			if name, ok := w.owner(path); ok {
				w.schedule(name)
			}
		case err, ok := <-w.fs.Errors:
			if !ok {
				return
			}
			slog.Error("catalog watcher", "error", err)
		}
	}
}

// owner finds the catalog a changed file belongs to.
func (w *Watcher) owner(path string) (string, bool) {
	if name, ok := w.byPath[path]; ok {
		return name, true
	}
	for name, ps := range w.patterns {
		if matchesPattern(filepath.ToSlash(ps.pattern), filepath.ToSlash(path)) {
			return name, true
		}
	}
	return "", false
}

// watchNewDir starts watching a directory created below a deep pattern's
// base, along with everything under it. Files that landed there before the
// watch was added are scheduled right away. It reports whether path was
// such a directory.
func (w *Watcher) watchNewDir(path string) bool {
	info, err := os.Stat(path)
	if err != nil || !info.IsDir() || !w.underDeepPattern(path) {
		return false
	}
	err = filepath.WalkDir(path, func(p string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return w.fs.Add(p)
		}
		if name, ok := w.owner(p); ok {
			w.schedule(name)
		}
		return nil
	})
	if err != nil {
		slog.Warn("watching new catalog directory", "dir", path, "error", err)
	}
	return true
}

func (w *Watcher) underDeepPattern(path string) bool {
	for _, ps := range w.patterns {
		if !ps.deep {
			continue
		}
		rel, err := filepath.Rel(ps.base, path)
		if err == nil && rel != "." && !strings.HasPrefix(rel, "..") {
			return true
		}
	}
	return false
}

func (w *Watcher) schedule(name string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if t, ok := w.timers[name]; ok {
		t.Stop()
	}
	w.timers[name] = time.AfterFunc(w.debounce, func() { w.reload(name) })
}

func (w *Watcher) reload(name string) {
	w.mu.Lock()
	ctx := w.ctx
	w.mu.Unlock()

	src := w.sources[name]
	options, err := Load(ctx, src)
	c := Catalog{Name: name, Path: src, Options: options}
	if err != nil {
		slog.Error("reloading catalog", "catalog", name, "error", err)
		w.PublishError(c, err)
		return
	}
	slog.Info("catalog reloaded", "catalog", name, "options", len(options))
	w.Publish(pubsub.EventTypeUpdated, c)
}

func (w *Watcher) close() {
	w.mu.Lock()
	for _, t := range w.timers {
		t.Stop()
	}
	w.mu.Unlock()
	w.fs.Close()
	w.Shutdown()
}
