package logger

import (
	"fmt"
	"html"
	"io"
	"log/slog"
	"os"

	"github.com/google/uuid"
)

// Logger represents application logger.
type Logger struct {
	*slog.Logger
}

// New creates new Logger instance with the specified level.
// Diagnostics go to stderr so they never mix with menu output.
func New(level int) *Logger {
	return NewWithWriter(os.Stderr, level)
}

// NewWithWriter creates a text Logger writing to w.
func NewWithWriter(w io.Writer, level int) *Logger {
	return &Logger{
		Logger: slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: slog.Level(level)})),
	}
}

// NewNop returns a Logger that discards everything.
func NewNop() *Logger {
	return &Logger{Logger: slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{}))}
}

// Fatal is equivalent to Error followed by os.Exit(1).
func (l *Logger) Fatal(msg string, args ...any) {
	l.Logger.Error(msg, args...)
	os.Exit(1)
}

// NewAccessLog opens path for appending and returns a JSON logger tagged with
// a run_id unique to this process. An empty path yields a discarding logger.
func NewAccessLog(path string) (*Logger, io.Closer, error) {
	if path == "" {
		return NewNop(), io.NopCloser(nil), nil
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0600)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open access log: %w", err)
	}

	l := slog.New(slog.NewJSONHandler(f, &slog.HandlerOptions{})).With("run_id", uuid.NewString())
	return &Logger{Logger: l}, f, nil
}

// Escape makes user supplied text safe to put in a log line.
func Escape(s string) string {
	return html.EscapeString(s)
}
