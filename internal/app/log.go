package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
)

// tsvHandler is a custom slog.Handler that formats log records as:
//
//	<timestamp>\t<level>\t<sessionID>\t<message>\t<key=value ...>
type tsvHandler struct {
	w         io.Writer
	sessionID string
	attrs     []slog.Attr
}

func (h *tsvHandler) Enabled(_ context.Context, _ slog.Level) bool { return true }

func (h *tsvHandler) Handle(_ context.Context, r slog.Record) error {
	ts := r.Time.UTC().Format("2006-01-02T15:04:05Z")
	level := r.Level.String()

	_, err := fmt.Fprintf(h.w, "%s\t%s\t%s\t%s", ts, level, h.sessionID, r.Message)
	if err != nil {
		return err
	}

	// Write pre-set attrs.
	for _, a := range h.attrs {
		fmt.Fprintf(h.w, "\t%s=%v", a.Key, a.Value)
	}

	// Write per-record attrs.
	r.Attrs(func(a slog.Attr) bool {
		fmt.Fprintf(h.w, "\t%s=%v", a.Key, a.Value)
		return true
	})

	_, err = fmt.Fprintln(h.w)
	return err
}

func (h *tsvHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &tsvHandler{
		w:         h.w,
		sessionID: h.sessionID,
		attrs:     append(append([]slog.Attr{}, h.attrs...), attrs...),
	}
}

func (h *tsvHandler) WithGroup(string) slog.Handler { return h }

// newLogger creates a structured logger that writes to w, tagging every
// record with the daemon session ID. This is the operational log on
// stderr, not the backup journal.
func newLogger(w io.Writer, sessionID string) *slog.Logger {
	return slog.New(&tsvHandler{w: w, sessionID: sessionID})
}

// slogAdapter wraps *slog.Logger to satisfy the daemon.Logger interface.
type slogAdapter struct {
	l *slog.Logger
}

func (a *slogAdapter) Debug(msg string, args ...any) { a.l.Debug(msg, args...) }
func (a *slogAdapter) Info(msg string, args ...any)  { a.l.Info(msg, args...) }
func (a *slogAdapter) Warn(msg string, args ...any)  { a.l.Warn(msg, args...) }
func (a *slogAdapter) Error(msg string, args ...any) { a.l.Error(msg, args...) }
