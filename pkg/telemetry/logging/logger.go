package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
)

// LogFormat selects the slog handler.
type LogFormat string

const (
	FormatJSON LogFormat = "json"
	FormatText LogFormat = "text" // logfmt-style
)

// Config describes the relay logger.
type Config struct {
	// Level is debug, info, warn or error. Empty means info.
	Level string

	// Format is json or text. Empty means json.
	Format string

	AddSource bool

	// RedactSecrets scrubs API keys and credential-looking attributes.
	RedactSecrets bool

	// Secrets are literal values scrubbed in addition to the built-in patterns.
	Secrets []string

	// Writer defaults to os.Stdout.
	Writer io.Writer
}

// Logger is a *slog.Logger whose handler stamps request fields from the
// context and, optionally, redacts credentials.
type Logger struct {
	*slog.Logger
}

// New builds the handler chain: request fields from the context are added
// first, then redaction, then JSON or text encoding.
func New(cfg Config) (*Logger, error) {
	level, err := parseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}
	format, err := parseFormat(cfg.Format)
	if err != nil {
		return nil, err
	}

	w := cfg.Writer
	if w == nil {
		w = os.Stdout
	}
	opts := &slog.HandlerOptions{Level: level, AddSource: cfg.AddSource}

	var h slog.Handler
	if format == FormatText {
		h = slog.NewTextHandler(w, opts)
	} else {
		h = slog.NewJSONHandler(w, opts)
	}
	if cfg.RedactSecrets {
		h = &redactingHandler{next: h, redactor: NewRedactor(cfg.Secrets...)}
	}
	h = contextHandler{h}

	return &Logger{slog.New(h)}, nil
}

// Slog returns the logger for slog.SetDefault and for components that
// take a plain *slog.Logger.
func (l *Logger) Slog() *slog.Logger { return l.Logger }

// With returns a Logger carrying args on every line.
func (l *Logger) With(args ...any) *Logger {
	return &Logger{l.Logger.With(args...)}
}

// contextHandler adds the request ID, model and trace ID found in the
// record's context, so any *Context log call carries them.
type contextHandler struct{ slog.Handler }

func (h contextHandler) Handle(ctx context.Context, rec slog.Record) error {
	if fields := extractContextFields(ctx); len(fields) > 0 {
		rec = rec.Clone()
		rec.Add(fields...)
	}
	return h.Handler.Handle(ctx, rec)
}

func (h contextHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return contextHandler{h.Handler.WithAttrs(attrs)}
}

func (h contextHandler) WithGroup(name string) slog.Handler {
	return contextHandler{h.Handler.WithGroup(name)}
}

// redactingHandler scrubs the message and every attribute before encoding.
type redactingHandler struct {
	next     slog.Handler
	redactor *Redactor
}

func (h *redactingHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.next.Enabled(ctx, level)
}

func (h *redactingHandler) Handle(ctx context.Context, rec slog.Record) error {
	out := slog.NewRecord(rec.Time, rec.Level, h.redactor.RedactString(rec.Message), rec.PC)
	rec.Attrs(func(a slog.Attr) bool {
		out.AddAttrs(h.redactor.RedactAttr(a))
		return true
	})
	return h.next.Handle(ctx, out)
}

func (h *redactingHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	redacted := make([]slog.Attr, len(attrs))
	for i, a := range attrs {
		redacted[i] = h.redactor.RedactAttr(a)
	}
	return &redactingHandler{next: h.next.WithAttrs(redacted), redactor: h.redactor}
}

func (h *redactingHandler) WithGroup(name string) slog.Handler {
	return &redactingHandler{next: h.next.WithGroup(name), redactor: h.redactor}
}

var levels = map[string]slog.Level{
	"":        slog.LevelInfo,
	"debug":   slog.LevelDebug,
	"info":    slog.LevelInfo,
	"warn":    slog.LevelWarn,
	"warning": slog.LevelWarn,
	"error":   slog.LevelError,
}

func parseLevel(s string) (slog.Level, error) {
	if l, ok := levels[strings.ToLower(s)]; ok {
		return l, nil
	}
	return slog.LevelInfo, fmt.Errorf("invalid log level %q", s)
}

func parseFormat(s string) (LogFormat, error) {
	switch f := LogFormat(strings.ToLower(s)); f {
	case "":
		return FormatJSON, nil
	case FormatJSON, FormatText:
		return f, nil
	}
	return FormatJSON, fmt.Errorf("invalid log format %q", s)
}
