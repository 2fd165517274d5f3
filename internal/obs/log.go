package obs

import (
	"context"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// LogConfig selects level and output format of the shared logger.
type LogConfig struct {
	Level  string
	Format string
	Output io.Writer
}

var (
	loggerMu sync.RWMutex
	logger   = newLogger(LogConfig{})
)

// InitLogger replaces the shared logger. It is safe to call more than once.
func InitLogger(cfg LogConfig) {
	l := newLogger(cfg)
	loggerMu.Lock()
	logger = l
	loggerMu.Unlock()
}

// SetOutput redirects the shared logger, keeping its level. Tests use it to
// capture log lines.
func SetOutput(w io.Writer) {
	loggerMu.Lock()
	logger = logger.Output(w)
	loggerMu.Unlock()
}

// Logger returns a copy of the shared structured logger used across the
// service.
func Logger() *zerolog.Logger {
	loggerMu.RLock()
	l := logger
	loggerMu.RUnlock()
	return &l
}

// Ctx returns the shared logger annotated with the request id carried by ctx.
func Ctx(ctx context.Context) *zerolog.Logger {
	l := Logger()
	if rid := RequestIDFromContext(ctx); rid != "" {
		annotated := l.With().Str("request_id", rid).Logger()
		return &annotated
	}
	return l
}

func newLogger(cfg LogConfig) zerolog.Logger {
	out := cfg.Output
	if out == nil {
		out = os.Stdout
	}
	if strings.EqualFold(cfg.Format, "console") {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.TimeOnly}
	}
	zerolog.TimeFieldFormat = time.RFC3339Nano
	zerolog.TimestampFieldName = "ts"
	zerolog.MessageFieldName = "msg"
	return zerolog.New(out).Level(parseLevel(cfg.Level)).With().Timestamp().Logger()
}

func parseLevel(level string) zerolog.Level {
	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil || lvl == zerolog.NoLevel {
		return zerolog.InfoLevel
	}
	return lvl
}
