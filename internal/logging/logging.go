// Package logging installs the slog handlers used by the reactor command.
package logging

import (
	"context"
	"io"
	"log"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/lmittmann/tint"
	"github.com/mattn/go-isatty"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Options configures Setup.
type Options struct {
	// Level is the minimum console level.
	Level slog.Level

	// Console receives colored output. Default: os.Stderr.
	Console io.Writer

	// NoColor disables ANSI colors. Colors are also off when Console is not
	// a terminal.
	NoColor bool

	// File, when set, also writes plain text logs to a rotated file at
	// FileLevel.
	File      string
	FileLevel slog.Level
}

// NewHandler builds the handler Setup installs. The returned closer
// releases the log file, if any.
func NewHandler(opts Options) (slog.Handler, io.Closer, error) {
	w := opts.Console
	if w == nil {
		w = os.Stderr
	}
	console := tint.NewHandler(w, &tint.Options{
		Level:      opts.Level,
		TimeFormat: time.Kitchen,
		NoColor:    opts.NoColor || !isTerminal(w),
	})
	if opts.File == "" {
		return console, nopCloser{}, nil
	}

	if err := os.MkdirAll(filepath.Dir(opts.File), 0755); err != nil {
		return nil, nil, err
	}
	lumber := &lumberjack.Logger{
		Filename:   opts.File,
		MaxSize:    10, // megabytes
		MaxBackups: 3,
		Compress:   true,
	}
	file := tint.NewHandler(lumber, &tint.Options{
		Level:      opts.FileLevel,
		TimeFormat: time.RFC3339,
		NoColor:    true,
	})
	return &teeHandler{handlers: []slog.Handler{console, file}}, lumber, nil
}

// Setup makes the handler the slog default and redirects the standard log
// package into it.
func Setup(opts Options) (io.Closer, error) {
	h, closer, err := NewHandler(opts)
	if err != nil {
		return nil, err
	}
	slog.SetDefault(slog.New(h))

	// log.Print from deep dependencies ends up in slog too.
	log.SetFlags(0)
	log.SetOutput(&slogWriter{})
	return closer, nil
}

// ParseLevel parses debug, info, warn or error.
func ParseLevel(s string) (slog.Level, error) {
	var l slog.Level
	err := l.UnmarshalText([]byte(s))
	return l, err
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// teeHandler sends each record to every handler that accepts its level.
type teeHandler struct {
	handlers []slog.Handler
}

func (h *teeHandler) Enabled(ctx context.Context, level slog.Level) bool {
	for _, hh := range h.handlers {
		if hh.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

func (h *teeHandler) Handle(ctx context.Context, r slog.Record) error {
	for _, hh := range h.handlers {
		if !hh.Enabled(ctx, r.Level) {
			continue
		}
		if err := hh.Handle(ctx, r.Clone()); err != nil {
			return err
		}
	}
	return nil
}

func (h *teeHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	next := make([]slog.Handler, len(h.handlers))
	for i, hh := range h.handlers {
		next[i] = hh.WithAttrs(attrs)
	}
	return &teeHandler{handlers: next}
}

func (h *teeHandler) WithGroup(name string) slog.Handler {
	next := make([]slog.Handler, len(h.handlers))
	for i, hh := range h.handlers {
		next[i] = hh.WithGroup(name)
	}
	return &teeHandler{handlers: next}
}

// slogWriter maps standard log lines to slog levels by their prefix.
type slogWriter struct{}

func (w *slogWriter) Write(p []byte) (int, error) {
	msg := strings.TrimRight(string(p), "\n")
	switch {
	case strings.HasPrefix(msg, "ERROR "):
		slog.Error(msg[6:])
	case strings.HasPrefix(msg, "WARN "):
		slog.Warn(msg[5:])
	case strings.HasPrefix(msg, "INFO "):
		slog.Info(msg[5:])
	default:
		slog.Debug(msg)
	}
	return len(p), nil
}
