package log

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/diode"
	"github.com/rs/zerolog/log"
)

// Options controls how the process logger is built.
type Options struct {
	Level string // debug, info, warn, error
	JSON  bool   // plain JSON lines instead of the console writer
}

// NewContextWithLogger installs the global logger and returns a context carrying it.
// The returned func flushes the non-blocking writer and must be called on shutdown.
func NewContextWithLogger(ctx context.Context, opts Options) (context.Context, func()) {
	zerolog.SetGlobalLevel(parseLevel(opts.Level))

	// ring buffer so slow stdout never blocks a chat turn
	wr := diode.NewWriter(os.Stdout, 1000, 10*time.Millisecond, func(missed int) {
		fmt.Printf("Logger Dropped %d messages\n", missed)
	})

	var out io.Writer = wr
	if !opts.JSON {
		out = zerolog.ConsoleWriter{Out: wr, TimeFormat: time.DateTime}
	}

	logger := zerolog.New(out).With().Timestamp().Logger()
	log.Logger = logger

	return logger.WithContext(ctx), func() {
		_ = wr.Close()
	}
}

// FromCtx returns the logger stored in ctx, falling back to the global logger.
func FromCtx(ctx context.Context) *zerolog.Logger {
	if l := zerolog.Ctx(ctx); l != nil && l.GetLevel() != zerolog.Disabled {
		return l
	}
	return &log.Logger
}

// With returns a child context whose logger carries the given string fields.
func With(ctx context.Context, kv ...string) context.Context {
	lc := FromCtx(ctx).With()
	for i := 0; i+1 < len(kv); i += 2 {
		lc = lc.Str(kv[i], kv[i+1])
	}
	l := lc.Logger()
	return l.WithContext(ctx)
}

func parseLevel(s string) zerolog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return zerolog.DebugLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}
