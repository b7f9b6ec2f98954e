// Package logger provides the process-global structured logger used by the
// demo host and as the default sink engines log trace/debug events to when
// the caller does not inject one of their own.
package logger

import (
	"flag"
	"os"
	"strings"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Environment variable name for log level configuration.
const envLogLevel = "RTPS_LOG_LEVEL"

var (
	level    = zap.NewAtomicLevel()
	global   *zap.SugaredLogger
	initOnce sync.Once

	flagLevel = flag.String("log.level", "", "log level (debug, info, warn, error)")
)

// Init initializes the global logger. Safe to call multiple times; the
// first call wins except SetLevel, which mutates the atomic level in place.
func Init() {
	initOnce.Do(func() {
		level.SetLevel(detectLevel())
		cfg := zap.NewProductionEncoderConfig()
		cfg.TimeKey = "ts"
		cfg.EncodeTime = zapcore.ISO8601TimeEncoder
		core := zapcore.NewCore(zapcore.NewJSONEncoder(cfg), zapcore.AddSync(os.Stdout), level)
		global = zap.New(core).Sugar()
	})
}

// detectLevel resolves the initial log level from (precedence high→low):
//  1. command-line flag -log.level
//  2. environment variable RTPS_LOG_LEVEL
//  3. default (info)
func detectLevel() zapcore.Level {
	if *flagLevel == "" {
		for _, arg := range os.Args[1:] {
			if strings.HasPrefix(arg, "-log.level=") {
				parts := strings.SplitN(arg, "=", 2)
				if len(parts) == 2 {
					*flagLevel = parts[1]
				}
			}
		}
	}
	if f := strings.TrimSpace(*flagLevel); f != "" {
		if lvl, ok := parseLevel(f); ok {
			return lvl
		}
	}
	if env := os.Getenv(envLogLevel); env != "" {
		if lvl, ok := parseLevel(env); ok {
			return lvl
		}
	}
	return zapcore.InfoLevel
}

func parseLevel(s string) (zapcore.Level, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return zapcore.DebugLevel, true
	case "info", "":
		return zapcore.InfoLevel, true
	case "warn", "warning":
		return zapcore.WarnLevel, true
	case "error", "err":
		return zapcore.ErrorLevel, true
	}
	return 0, false
}

// SetLevel changes the runtime log level.
func SetLevel(l string) error {
	Init()
	lvl, ok := parseLevel(l)
	if !ok {
		return zap.ErrNoSuchLevel
	}
	level.SetLevel(lvl)
	return nil
}

// Logger returns the global sugared logger (ensures Init was called).
func Logger() *zap.SugaredLogger {
	Init()
	return global
}

// Noop returns a logger that discards everything, used as the default an
// engine falls back to when constructed without one explicitly injected —
// the core stays a pure value and never reaches for the package global on
// its own hot path.
func Noop() *zap.SugaredLogger {
	return zap.NewNop().Sugar()
}

// WithEntity attaches a GUID-shaped identity field, mirroring the teacher's
// WithConn/WithStream helpers.
func WithEntity(l *zap.SugaredLogger, component, guid string) *zap.SugaredLogger {
	return l.With("component", component, "guid", guid)
}
