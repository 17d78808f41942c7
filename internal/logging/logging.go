package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"runtime/debug"
	"sync"
	"time"

	charmlog "github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/sst/modforge/internal/pubsub"
)

// Log is one decoded record of the application log.
type Log struct {
	ID         string
	Timestamp  time.Time
	Level      string
	Message    string
	Attributes map[string]string
}

const (
	EventLogCreated pubsub.EventType = "log_created"

	// recentLimit bounds the records kept for Recent.
	recentLimit = 100
)

type Service interface {
	pubsub.Subscriber[Log]

	Recent() []Log
}

type service struct {
	broker *pubsub.Broker[Log]

	mu     sync.Mutex
	recent []Log
}

func newService() *service {
	return &service{broker: pubsub.NewQuietBroker[Log]()}
}

func (s *service) add(l Log) {
	s.mu.Lock()
	s.recent = append(s.recent, l)
	if len(s.recent) > recentLimit {
		s.recent = s.recent[len(s.recent)-recentLimit:]
	}
	s.mu.Unlock()
	s.broker.Publish(EventLogCreated, l)
}

func (s *service) Recent() []Log {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Log, len(s.recent))
	copy(out, s.recent)
	return out
}

func (s *service) Subscribe(ctx context.Context) <-chan pubsub.Event[Log] {
	return s.broker.Subscribe(ctx)
}

func (s *service) shutdown() {
	s.broker.Shutdown()
}

// Options configures Setup.
type Options struct {
	// Debug lowers the level to debug.
	Debug bool
	// Level is one of debug, info, warn, error. Ignored when Debug is set.
	Level string
	// Prefix is prepended to every record.
	Prefix string
}

// Setup installs a charm logger as the slog default. Records are written to
// w in logfmt and decoded back into Log values that the returned Service
// publishes. Call the returned func to release subscribers.
func Setup(w io.Writer, opts Options) (Service, func()) {
	level := charmlog.InfoLevel
	if opts.Level != "" {
		if parsed, err := charmlog.ParseLevel(opts.Level); err == nil {
			level = parsed
		}
	}
	if opts.Debug {
		level = charmlog.DebugLevel
	}

	svc := newService()
	logger := charmlog.NewWithOptions(io.MultiWriter(w, newWriter(svc)), charmlog.Options{
		Level:           level,
		ReportTimestamp: true,
		TimeFormat:      time.RFC3339Nano,
		Formatter:       charmlog.LogfmtFormatter,
		Prefix:          opts.Prefix,
	})
	slog.SetDefault(slog.New(logger))
	return svc, svc.shutdown
}

// OpenFile opens the log file under dir, creating the directory if needed.
func OpenFile(dir, name string) (*os.File, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating log directory: %w", err)
	}
	f, err := os.OpenFile(filepath.Join(dir, name), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("opening log file: %w", err)
	}
	return f, nil
}

func newLog(ts time.Time, level, msg string, attrs map[string]string) Log {
	return Log{
		ID:         uuid.NewString(),
		Timestamp:  ts,
		Level:      level,
		Message:    msg,
		Attributes: attrs,
	}
}

// RecoverPanic is a common function to handle panics gracefully.
// It logs the error, creates a panic log file with stack trace,
// and executes an optional cleanup function.
func RecoverPanic(name string, cleanup func()) {
	if r := recover(); r != nil {
		writePanicReport(os.TempDir(), name, r, debug.Stack())
		if cleanup != nil {
			cleanup()
		}
	}
}

func writePanicReport(dir, name string, r any, stack []byte) string {
	slog.Error(fmt.Sprintf("Panic in %s: %v", name, r))

	timestamp := time.Now().Format("20060102-150405")
	filename := filepath.Join(dir, fmt.Sprintf("modforge-panic-%s-%s.log", name, timestamp))

	file, err := os.Create(filename)
	if err != nil {
		slog.Error(fmt.Sprintf("Failed to create panic log file '%s': %v", filename, err))
		return ""
	}
	defer file.Close()

	fmt.Fprintf(file, "Panic in %s: %v\n\n", name, r)
	fmt.Fprintf(file, "Time: %s\n\n", time.Now().Format(time.RFC3339))
	fmt.Fprintf(file, "Stack Trace:\n%s\n", string(stack))
	slog.Info(fmt.Sprintf("Panic details written to %s", filename))
	return filename
}
