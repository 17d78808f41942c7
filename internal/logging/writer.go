package logging

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/go-logfmt/logfmt"
)

type writer struct {
	svc *service
}

// Write decodes logfmt records and hands them to the service. It must not
// log through slog: it runs while the handler holds its lock.
func (w *writer) Write(p []byte) (int, error) {
	d := logfmt.NewDecoder(bytes.NewReader(p))
	for d.ScanRecord() {
		var (
			ts    time.Time
			level string
			msg   string
			attrs map[string]string
		)

		for d.ScanKeyval() {
			switch string(d.Key()) {
			case "time":
				parsed, err := time.Parse(time.RFC3339Nano, string(d.Value()))
				if err != nil {
					return 0, fmt.Errorf("parsing time: %w", err)
				}
				ts = parsed
			case "level":
				level = strings.ToLower(string(d.Value()))
			case "msg":
				msg = string(d.Value())
			default:
				if attrs == nil {
					attrs = make(map[string]string)
				}
				attrs[string(d.Key())] = string(d.Value())
			}
		}

		if ts.IsZero() {
			ts = time.Now()
		}
		w.svc.add(newLog(ts, level, msg, attrs))
	}
	if d.Err() != nil {
		return 0, d.Err()
	}
	return len(p), nil
}

func newWriter(svc *service) *writer {
	return &writer{svc: svc}
}
