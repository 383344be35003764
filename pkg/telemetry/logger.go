// Package telemetry provides the structured logging and metrics surface
// shared by every backend: a zerolog-based logger matching the backend
// loading contract's log_stream, and a Prometheus registry for the IEEE
// backend's optional operation counters.
package telemetry

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// Level mirrors the backend's --debug/--debug-binary/silent-load tiers.
type Level string

const (
	LevelDebug Level = "debug"
	LevelInfo  Level = "info"
	LevelWarn  Level = "warn"
	LevelError Level = "error"
)

// LoggerConfig configures a Logger.
type LoggerConfig struct {
	Level  Level
	Output io.Writer
	// ThreadID is appended to every record so interleaved per-thread
	// output (one logger per hot-path goroutine) stays attributable.
	ThreadID uint64
}

// Logger wraps zerolog.Logger with the field-set conventions backends use
// when reporting configuration errors and load/finalize banners.
type Logger struct {
	logger zerolog.Logger
}

// NewLogger builds a Logger. VFC_BACKENDS_SILENT_LOAD suppresses load
// banners at the call site, not here; this only controls level/output.
func NewLogger(cfg LoggerConfig) *Logger {
	out := cfg.Output
	if out == nil {
		out = os.Stderr
	}
	zlog := zerolog.New(out).With().Timestamp().Uint64("thread_id", cfg.ThreadID).Logger()

	switch cfg.Level {
	case LevelDebug:
		zlog = zlog.Level(zerolog.DebugLevel)
	case LevelWarn:
		zlog = zlog.Level(zerolog.WarnLevel)
	case LevelError:
		zlog = zlog.Level(zerolog.ErrorLevel)
	default:
		zlog = zlog.Level(zerolog.InfoLevel)
	}
	return &Logger{logger: zlog}
}

func (l *Logger) Debug(msg string, fields ...interface{}) { l.emit(l.logger.Debug(), msg, fields...) }
func (l *Logger) Info(msg string, fields ...interface{})  { l.emit(l.logger.Info(), msg, fields...) }
func (l *Logger) Warn(msg string, fields ...interface{})  { l.emit(l.logger.Warn(), msg, fields...) }
func (l *Logger) Error(msg string, fields ...interface{}) { l.emit(l.logger.Error(), msg, fields...) }

func (l *Logger) emit(event *zerolog.Event, msg string, fields ...interface{}) {
	if len(fields)%2 != 0 {
		event.Str("log_error", "odd number of fields")
		event.Msg(msg)
		return
	}
	for i := 0; i < len(fields); i += 2 {
		key, ok := fields[i].(string)
		if !ok {
			event.Str("log_error", fmt.Sprintf("field key at index %d is not a string", i))
			continue
		}
		event.Interface(key, fields[i+1])
	}
	event.Msg(msg)
}

// WithField returns a child logger carrying one extra field, used when a
// backend tags every hook-path log line with its own name.
func (l *Logger) WithField(key string, value interface{}) *Logger {
	return &Logger{logger: l.logger.With().Interface(key, value).Logger()}
}

// silentLoadEnv is the documented environment variable name; SilentLoad
// reads it on every call.
const silentLoadEnv = "VFC_BACKENDS_SILENT_LOAD"

// SilentLoad reports whether VFC_BACKENDS_SILENT_LOAD is set to suppress
// the backend load banner.
func SilentLoad() bool {
	v := os.Getenv(silentLoadEnv)
	return v == "True" || v == "true" || v == "1"
}

// LoadBanner logs the one-line "backend loaded" message init() prints,
// unless silenced.
func (l *Logger) LoadBanner(backend string, cfg map[string]interface{}) {
	if SilentLoad() {
		return
	}
	fields := make([]interface{}, 0, len(cfg)*2+2)
	fields = append(fields, "backend", backend, "loaded_at", time.Now().Format(time.RFC3339))
	for k, v := range cfg {
		fields = append(fields, k, v)
	}
	l.Info("backend loaded", fields...)
}
