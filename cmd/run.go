package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/sst/modforge/internal/catalog"
	"github.com/sst/modforge/internal/config"
	"github.com/sst/modforge/internal/format"
	"github.com/sst/modforge/internal/logging"
	"github.com/sst/modforge/internal/pubsub"
	"github.com/sst/modforge/internal/tui"
	"github.com/sst/modforge/internal/tui/page"
	"github.com/sst/modforge/internal/tui/theme"
)

const logFileName = "modforge.log"

// setupLogging sends the application log to a file in the data directory,
// since the terminal belongs to the form while it runs.
func setupLogging(cfg *config.Config) (logging.Service, func(), error) {
	f, err := logging.OpenFile(cfg.Data.Directory, logFileName)
	if err != nil {
		return nil, nil, err
	}
	logs, shutdown := logging.Setup(f, logging.Options{
		Debug: cfg.Debug,
		Level: cfg.Log.Level,
	})
	return logs, func() {
		shutdown()
		f.Close()
	}, nil
}

func applyTheme(cfg *config.Config) {
	if cfg.TUI.Theme == "" {
		return
	}
	if err := theme.SetTheme(cfg.TUI.Theme); err != nil {
		slog.Warn("unknown theme, using default", "theme", cfg.TUI.Theme, "error", err)
	}
}

func editorOptions(cfg *config.Config) []page.EditorOption {
	return []page.EditorOption{
		page.WithBlurDelay(time.Duration(cfg.TUI.BlurDelayMs) * time.Millisecond),
		page.WithMaxVisible(cfg.TUI.MaxVisible),
	}
}

// runForm runs the form until the user submits or quits. Catalog files are
// watched for the lifetime of the program.
func runForm(ctx context.Context, editor page.Editor, logs logging.Service, catalogPaths map[string]string) (tui.Model, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	model := tui.New(editor, logs.Recent())
	program := tea.NewProgram(
		model,
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
		tea.WithContext(ctx),
	)

	var watcher *catalog.Watcher
	if len(catalogPaths) > 0 {
		w, err := catalog.NewWatcher(catalogPaths)
		if err != nil {
			slog.Warn("catalog changes will not be picked up", "error", err)
		} else {
			watcher = w
		}
	}

	ch, cancelSubs := setupSubscriptions(ctx, logs, watcher)

	var wg sync.WaitGroup
	if watcher != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			defer logging.RecoverPanic("catalog-watcher", nil)
			watcher.Run(ctx)
		}()
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		defer logging.RecoverPanic("TUI-message-handler", func() {
			program.Quit()
		})
		for msg := range ch {
			program.Send(msg)
		}
	}()

	result, err := program.Run()

	cancelSubs()
	cancel()
	wg.Wait()
	editor.Dispose()

	if err != nil {
		slog.Error("TUI error", "error", err)
		return nil, fmt.Errorf("TUI error: %w", err)
	}
	return result.(tui.Model), nil
}

func setupSubscriber[T any](
	ctx context.Context,
	wg *sync.WaitGroup,
	name string,
	subscriber func(context.Context) <-chan pubsub.Event[T],
	outputCh chan<- tea.Msg,
) {
	wg.Add(1)
	go func() {
		defer wg.Done()
		defer logging.RecoverPanic(fmt.Sprintf("subscription-%s", name), nil)

		subCh := subscriber(ctx)
		for {
			select {
			case event, ok := <-subCh:
				if !ok {
					return
				}
				select {
				case outputCh <- event:
				case <-time.After(2 * time.Second):
					slog.Warn("message dropped due to slow consumer", "name", name)
				case <-ctx.Done():
					return
				}
			case <-ctx.Done():
				return
			}
		}
	}()
}

// setupSubscriptions fans the log and catalog events into one channel. The
// returned func stops the subscribers and closes the channel once they are
// done writing to it.
func setupSubscriptions(parentCtx context.Context, logs logging.Service, watcher *catalog.Watcher) (chan tea.Msg, func()) {
	ch := make(chan tea.Msg, 100)

	var wg sync.WaitGroup
	ctx, cancel := context.WithCancel(parentCtx)

	setupSubscriber(ctx, &wg, "logging", logs.Subscribe, ch)
	if watcher != nil {
		setupSubscriber(ctx, &wg, "catalogs", watcher.Subscribe, ch)
	}

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			cancel()
			waitCh := make(chan struct{})
			go func() {
				wg.Wait()
				close(waitCh)
			}()
			select {
			case <-waitCh:
			case <-time.After(5 * time.Second):
				slog.Warn("timed out waiting for subscription goroutines")
			}
			close(ch)
		})
	}
}

func printValues(w io.Writer, values []format.FieldValue, f format.OutputFormat) error {
	out, err := format.FormatValues(values, f)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, out)
	return err
}

func printSelection(w io.Writer, values []format.FieldValue, f format.OutputFormat) error {
	if len(values) == 0 {
		return nil
	}
	out, err := format.FormatSelection(values[0].Values, f)
	if err != nil {
		return err
	}
	if out == "" {
		return nil
	}
	_, err = fmt.Fprintln(w, out)
	return err
}
