// Package logging wires log/slog for the command line: a tint handler wrapped
// in slog-context so per-file attributes travel on the context.
package logging

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/lmittmann/tint"
	slogctx "github.com/veqryn/slog-context"
	"gitlab.com/tozd/go/errors"
)

// ParseLevel accepts the slog level names (debug, info, warn, error), case
// insensitively, with an optional +N/-N offset.
func ParseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return 0, errors.Errorf("invalid log level '%s': %w", s, err)
	}
	return level, nil
}

// Setup installs a default logger writing to w and returns ctx carrying it.
func Setup(ctx context.Context, w io.Writer, level slog.Level, color bool) context.Context {
	handler := tint.NewHandler(w, &tint.Options{
		Level:       level,
		TimeFormat:  time.TimeOnly,
		NoColor:     !color,
		ReplaceAttr: formatErrorOrigin,
	})

	logger := slog.New(slogctx.NewHandler(handler, nil))
	slog.SetDefault(logger)

	return slogctx.NewCtx(ctx, logger)
}

// formatErrorOrigin annotates errors carrying a stack with the file and line
// they were created at.
func formatErrorOrigin(groups []string, a slog.Attr) slog.Attr {
	if a.Key != "error" {
		return a
	}
	err, ok := a.Value.Any().(error)
	if !ok {
		return a
	}
	var terr errors.E
	if !errors.As(err, &terr) {
		return a
	}
	frames := runtime.CallersFrames(terr.StackTrace())
	first, _ := frames.Next()
	if first.File == "" {
		return a
	}
	fn := first.Function
	if i := strings.LastIndex(fn, "/"); i >= 0 {
		fn = fn[i+1:]
	}
	a.Value = slog.GroupValue(
		slog.String("msg", err.Error()),
		slog.String("func", fn),
		slog.String("at", filepath.Base(first.File)+":"+strconv.Itoa(first.Line)),
	)
	return a
}
