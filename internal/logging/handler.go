// Package logging builds the process slog handler: colorized tint output on
// a terminal, JSON otherwise. String attributes pass through the PHI pattern
// redactor on the way out.
package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/lmittmann/tint"
	"golang.org/x/term"

	"github.com/aurelianware/hipaa-attachments-sub007/internal/phi"
)

// Format selects the handler.
type Format string

const (
	FormatAuto   Format = ""
	FormatJSON   Format = "json"
	FormatPretty Format = "pretty"
)

// Options configures New.
type Options struct {
	Level  slog.Level
	Format Format
	// NoColor disables ANSI colors in pretty output.
	NoColor bool
}

// OptionsFromEnv reads LOG_LEVEL and LOG_FORMAT.
func OptionsFromEnv() Options {
	return Options{
		Level:   ParseLevel(os.Getenv("LOG_LEVEL")),
		Format:  Format(strings.ToLower(strings.TrimSpace(os.Getenv("LOG_FORMAT")))),
		NoColor: os.Getenv("NO_COLOR") != "",
	}
}

// ParseLevel maps debug, info, warn and error to slog levels. Anything
// else is info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
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

// New returns a handler writing to w. FormatAuto picks pretty output when w
// is a terminal.
func New(w io.Writer, opts Options) slog.Handler {
	format := opts.Format
	if format == FormatAuto {
		format = FormatJSON
		if isTerminal(w) {
			format = FormatPretty
		}
	}

	if format == FormatPretty {
		return tint.NewHandler(w, &tint.Options{
			Level:       opts.Level,
			TimeFormat:  time.TimeOnly,
			NoColor:     opts.NoColor || !isTerminal(w),
			ReplaceAttr: redactAttr,
		})
	}
	return slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level:       opts.Level,
		ReplaceAttr: redactAttr,
	})
}

// redactAttr rewrites PHI patterns in string values, error values included.
func redactAttr(_ []string, a slog.Attr) slog.Attr {
	switch a.Value.Kind() {
	case slog.KindString:
		if s := a.Value.String(); s != "" {
			a.Value = slog.StringValue(phi.RedactPatterns(s))
		}
	case slog.KindAny:
		if err, ok := a.Value.Any().(error); ok && err != nil {
			a.Value = slog.StringValue(phi.RedactPatterns(err.Error()))
		}
	}
	return a
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
