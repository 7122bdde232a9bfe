// Package auditlog records business events (logins, postings, refused
// transfers) in the persisted audit log. Recording never fails the caller.
package auditlog

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/cleared-dev/tally/internal/model"
)

// Sink persists audit entries.
type Sink interface {
	InsertLog(ctx context.Context, e model.LogEntry) (int64, error)
}

// Logger writes entries to a Sink. A nil *Logger discards everything.
type Logger struct {
	sink   Sink
	logger *slog.Logger
	now    func() time.Time
}

// New creates a Logger. A nil logger falls back to slog.Default().
func New(sink Sink, logger *slog.Logger) *Logger {
	if logger == nil {
		logger = slog.Default()
	}
	return &Logger{sink: sink, logger: logger, now: time.Now}
}

// Info records an INFO entry.
func (l *Logger) Info(ctx context.Context, title string) {
	l.Record(ctx, title, model.SeverityInfo)
}

// Error records an ERROR entry.
func (l *Logger) Error(ctx context.Context, title string) {
	l.Record(ctx, title, model.SeverityError)
}

// Record persists one entry. Sink failures are reported through slog only.
func (l *Logger) Record(ctx context.Context, title string, sev model.Severity) {
	if l == nil || l.sink == nil {
		return
	}
	entry := model.LogEntry{Title: title, Severity: sev, Timestamp: l.now()}
	if _, err := l.sink.InsertLog(ctx, entry); err != nil {
		l.logger.Warn("audit log write failed", "title", title, "severity", sev, "error", err)
	}
}

// Header is the CSV header for audit log exports.
const Header = "log_id,title,severity,timestamp"

const (
	numFields    = 4
	colID        = 0
	colTitle     = 1
	colSeverity  = 2
	colTimestamp = 3
)

// MarshalEntry converts an entry to a CSV row.
func MarshalEntry(e model.LogEntry) []string {
	row := make([]string, numFields)
	row[colID] = strconv.FormatInt(e.ID, 10)
	row[colTitle] = e.Title
	row[colSeverity] = string(e.Severity)
	row[colTimestamp] = e.Timestamp.Format(time.RFC3339)
	return row
}

// WriteCSV writes entries with a header.
func WriteCSV(w io.Writer, entries []model.LogEntry) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(strings.Split(Header, ",")); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}

	for i, e := range entries {
		if err := cw.Write(MarshalEntry(e)); err != nil {
			return fmt.Errorf("writing entry %d: %w", i, err)
		}
	}

	cw.Flush()
	return cw.Error()
}
