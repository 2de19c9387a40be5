package logger

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	charmlog "github.com/charmbracelet/log"
	"gopkg.in/natefinch/lumberjack.v2"
)

// FileName is the execution log written under the log directory.
const FileName = "test_execution.log"

type Config struct {
	Dir     string
	Level   string
	Verbose bool
	// Console mirrors records to Output in human-readable form.
	Console bool
	Output  io.Writer
}

var (
	mu       sync.RWMutex
	global   = slog.New(slog.NewJSONHandler(io.Discard, nil))
	logFile  *lumberjack.Logger
	logPath  string
	initedAt time.Time
)

// Setup installs the process-wide logger. Every run starts a fresh execution
// log; the previous one is rotated into a numbered backup.
func Setup(cfg Config) (func() error, error) {
	dir := filepath.Clean(cfg.Dir)
	if cfg.Dir == "" {
		dir = "logs"
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		setDiscard()
		return nil, err
	}

	path := filepath.Join(dir, FileName)
	rolling := &lumberjack.Logger{
		Filename:   path,
		MaxSize:    10,
		MaxBackups: 5,
		Compress:   true,
	}
	if st, err := os.Stat(path); err == nil && st.Size() > 0 {
		if err := rolling.Rotate(); err != nil {
			setDiscard()
			return nil, err
		}
	}

	level := ParseLevel(cfg.Level)
	if cfg.Verbose {
		level = slog.LevelDebug
	}

	handlers := []slog.Handler{
		slog.NewJSONHandler(rolling, &slog.HandlerOptions{
			Level:     level,
			AddSource: level == slog.LevelDebug,
			ReplaceAttr: func(_ []string, a slog.Attr) slog.Attr {
				if a.Key == slog.TimeKey && a.Value.Kind() == slog.KindTime {
					t := a.Value.Time().UTC()
					a.Value = slog.StringValue(t.Format(time.RFC3339Nano))
				}
				return a
			},
		}),
	}

	if cfg.Console {
		out := cfg.Output
		if out == nil {
			out = os.Stderr
		}
		handlers = append(handlers, charmlog.NewWithOptions(out, charmlog.Options{
			Level:           charmLevel(level),
			ReportTimestamp: true,
			TimeFormat:      time.TimeOnly,
			Prefix:          "cursior",
		}))
	}

	l := slog.New(&fanout{handlers: handlers})

	mu.Lock()
	global = l
	logFile = rolling
	logPath = path
	initedAt = time.Now().UTC()
	mu.Unlock()

	l.Debug("logger.initialized", "path", path, "level", level.String())

	cleanup := func() error {
		mu.Lock()
		defer mu.Unlock()

		var cerr error
		if logFile != nil {
			cerr = logFile.Close()
		}
		logFile = nil
		logPath = ""
		initedAt = time.Time{}
		global = slog.New(slog.NewJSONHandler(io.Discard, nil))
		return cerr
	}

	return cleanup, nil
}

func L() *slog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return global
}

func Path() string {
	mu.RLock()
	defer mu.RUnlock()
	return logPath
}

func InitTime() time.Time {
	mu.RLock()
	defer mu.RUnlock()
	return initedAt
}

func IsReady() error {
	mu.RLock()
	defer mu.RUnlock()
	if logFile == nil || logPath == "" {
		return errors.New("logger not initialized")
	}
	return nil
}

// Discard returns a logger that drops everything, for tests and defaults.
func Discard() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

// ParseLevel maps LOG_LEVEL spellings to slog levels. Unknown values are info.
func ParseLevel(s string) slog.Level {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "DEBUG":
		return slog.LevelDebug
	case "WARN", "WARNING":
		return slog.LevelWarn
	case "ERROR", "CRITICAL":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func charmLevel(l slog.Level) charmlog.Level {
	switch {
	case l <= slog.LevelDebug:
		return charmlog.DebugLevel
	case l <= slog.LevelInfo:
		return charmlog.InfoLevel
	case l <= slog.LevelWarn:
		return charmlog.WarnLevel
	default:
		return charmlog.ErrorLevel
	}
}

func setDiscard() {
	mu.Lock()
	defer mu.Unlock()
	global = Discard()
	logFile = nil
	logPath = ""
	initedAt = time.Time{}
}

// fanout dispatches each record to every handler that accepts its level.
type fanout struct {
	handlers []slog.Handler
}

func (f *fanout) Enabled(ctx context.Context, l slog.Level) bool {
	for _, h := range f.handlers {
		if h.Enabled(ctx, l) {
			return true
		}
	}
	return false
}

func (f *fanout) Handle(ctx context.Context, r slog.Record) error {
	var errs []error
	for _, h := range f.handlers {
		if !h.Enabled(ctx, r.Level) {
			continue
		}
		if err := h.Handle(ctx, r.Clone()); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (f *fanout) WithAttrs(attrs []slog.Attr) slog.Handler {
	out := make([]slog.Handler, len(f.handlers))
	for i, h := range f.handlers {
		out[i] = h.WithAttrs(attrs)
	}
	return &fanout{handlers: out}
}

func (f *fanout) WithGroup(name string) slog.Handler {
	out := make([]slog.Handler, len(f.handlers))
	for i, h := range f.handlers {
		out[i] = h.WithGroup(name)
	}
	return &fanout{handlers: out}
}
