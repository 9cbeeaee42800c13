// Package logging builds the leveled operational logger used by the harness.
// Operational output goes to stderr; tables and charts go to stdout.
package logging

import (
	"bytes"
	"io"
	"log/slog"
	"strings"
	"sync"
)

// ParseLevel maps a level name to a slog.Level.
// Supported values: "debug", "info", "warn", "error" (case-insensitive).
// Unknown values default to info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// NewLogger creates a leveled slog.Logger writing text records to w.
func NewLogger(level string, w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: ParseLevel(level)}
	return slog.New(slog.NewTextHandler(w, opts))
}

// Discard returns a logger that drops everything.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError + 1}))
}

// Gate passes writes through to an underlying writer, except while held,
// when records are buffered until Release. It keeps log lines out of a
// full-screen terminal view.
type Gate struct {
	mu   sync.Mutex
	w    io.Writer
	held bool
	buf  bytes.Buffer
}

func NewGate(w io.Writer) *Gate {
	return &Gate{w: w}
}

func (g *Gate) Write(p []byte) (int, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.held {
		return g.buf.Write(p)
	}
	return g.w.Write(p)
}

// Hold starts buffering.
func (g *Gate) Hold() {
	g.mu.Lock()
	g.held = true
	g.mu.Unlock()
}

// Release writes everything buffered since Hold and resumes pass-through.
func (g *Gate) Release() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.held = false
	_, err := g.buf.WriteTo(g.w)
	return err
}
