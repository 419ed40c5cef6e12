package log

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"

	seederrors "github.com/YuminosukeSato/seedtune/pkg/errors"
)

// Options configures Setup.
type Options struct {
	// Level is one of debug, info, warn, error. Empty means info.
	Level string
	// File, when set, receives a copy of every record and is rotated by size.
	File string
	// MaxSizeMB is the rotation size of File. Zero means 50.
	MaxSizeMB int
	// MaxBackups is the number of rotated files kept. Zero means 3.
	MaxBackups int
	// Stderr overrides the console writer; used by tests.
	Stderr io.Writer
}

// Setup installs the zerolog provider, the slog default logger and the
// warning hook of pkg/errors. The returned closer flushes the log file.
func Setup(opts Options) (io.Closer, error) {
	level, err := ParseLevel(opts.Level)
	if err != nil {
		return nil, err
	}

	console := opts.Stderr
	if console == nil {
		console = os.Stderr
	}
	out := console
	var closer io.Closer = nopCloser{}
	if strings.TrimSpace(opts.File) != "" {
		if err := os.MkdirAll(filepath.Dir(opts.File), 0o755); err != nil {
			return nil, errors.Wrapf(err, "create log directory for %s", opts.File)
		}
		rotating := &lumberjack.Logger{
			Filename:   opts.File,
			MaxSize:    orDefault(opts.MaxSizeMB, 50),
			MaxBackups: orDefault(opts.MaxBackups, 3),
			Compress:   true,
		}
		out = io.MultiWriter(console, rotating)
		closer = rotating
	}

	p := NewZerologProvider(out, level)
	SetProvider(p)

	handler := slog.NewJSONHandler(out, &slog.HandlerOptions{
		AddSource: level <= LevelDebug,
		Level:     slog.Level(level),
	})
	slog.SetDefault(slog.New(WrapByErrFmtHandler(handler)))

	warnings := p.Zerolog()
	seederrors.SetZerologWarnFunc(func(w error) {
		ev := warnings.Warn()
		if m, ok := w.(zerolog.LogObjectMarshaler); ok {
			ev = ev.EmbedObject(m)
		}
		ev.Msg(w.Error())
	})
	return closer, nil
}

// ParseLevel converts a textual level to a Level.
func ParseLevel(level string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "", "info":
		return LevelInfo, nil
	case "debug":
		return LevelDebug, nil
	case "warn", "warning":
		return LevelWarn, nil
	case "error":
		return LevelError, nil
	default:
		return LevelInfo, seederrors.NewValidationError("log.level", "must be one of debug, info, warn, error", level)
	}
}

const (
	ErrAttrKey        = "error"
	StacktraceAttrKey = "stacktrace"
)

// ErrAttr is a wrapper to pass err to slog.
func ErrAttr(err error) slog.Attr {
	return slog.Any(ErrAttrKey, err)
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

func orDefault(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}
