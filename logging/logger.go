package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/mdobak/go-xerrors"
	slogmulti "github.com/samber/slog-multi"
	"github.com/spf13/afero"
)

const (
	LevelTrace = slog.Level(-8)
)

type Logger struct {
	logger *slog.Logger
}

func DefaultLogger() *Logger {
	return NewLogger(slog.LevelInfo, os.Stderr, nil)
}

// Discard returns a logger that drops everything.
func Discard() *Logger {
	return &Logger{logger: slog.New(slog.NewTextHandler(io.Discard, nil))}
}

// NewLogger writes human readable lines to out and, when logFile is not nil,
// JSON lines to logFile as well.
func NewLogger(level slog.Level, out io.Writer, logFile io.Writer) *Logger {
	opts := &slog.HandlerOptions{
		Level:       level,
		ReplaceAttr: replaceAttr,
	}
	textHandler := slog.NewTextHandler(out, opts)
	if logFile == nil {
		return &Logger{logger: slog.New(textHandler)}
	}
	logfileHandler := slog.NewJSONHandler(logFile, opts)
	return &Logger{
		logger: slog.New(slogmulti.Fanout(logfileHandler, textHandler)),
	}
}

// OpenLogFile opens path for appending, creating parent directories.
func OpenLogFile(fs afero.Fs, path string) (afero.File, error) {
	if err := fs.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("create log dir: %w", err)
	}
	f, err := fs.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}
	return f, nil
}

func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "trace":
		return LevelTrace, nil
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return slog.LevelInfo, fmt.Errorf("unknown log level %q", s)
}

func (l *Logger) Slog() *slog.Logger {
	return l.logger
}

func (l *Logger) With(args ...any) *Logger {
	return &Logger{logger: l.logger.With(args...)}
}

func (l *Logger) Debug(message string, args ...any) {
	l.logger.Debug(message, args...)
}

func (l *Logger) Debugf(message string, args ...any) {
	l.logger.Debug(fmt.Sprintf(message, args...))
}

func (l *Logger) Info(message string, args ...any) {
	l.logger.Info(message, args...)
}

func (l *Logger) Infof(message string, args ...any) {
	l.logger.Info(fmt.Sprintf(message, args...))
}

func (l *Logger) Warn(message string, args ...any) {
	l.logger.Warn(message, args...)
}

// Error logs err with a captured stack trace.
func (l *Logger) Error(err error, args ...any) {
	if l == nil || l.logger == nil {
		slog.Error(err.Error(), args...)
		return
	}
	xerr := xerrors.New(err)
	l.logger.Error(err.Error(), append([]any{slog.Any("error", xerr)}, args...)...)
}

func (l *Logger) Errorf(message string, args ...any) {
	l.logger.Error(fmt.Sprintf(message, args...))
}

func (l *Logger) Fatal(message string, args ...any) {
	l.logger.Error(message, args...)
	os.Exit(1)
}

type stackFrame struct {
	Func   string `json:"func"`
	Source string `json:"source"`
	Line   int    `json:"line"`
}

func replaceAttr(_ []string, a slog.Attr) slog.Attr {
	if a.Value.Kind() != slog.KindAny {
		return a
	}
	if err, ok := a.Value.Any().(error); ok {
		a.Value = fmtErr(err)
	}
	return a
}

func fmtErr(err error) slog.Value {
	attrs := []slog.Attr{slog.String("msg", err.Error())}
	if frames := marshalStack(err); frames != nil {
		attrs = append(attrs, slog.Any("trace", frames))
	}
	return slog.GroupValue(attrs...)
}

func marshalStack(err error) []stackFrame {
	trace := xerrors.StackTrace(err)
	if len(trace) == 0 {
		return nil
	}
	frames := trace.Frames()
	s := make([]stackFrame, len(frames))
	for i, v := range frames {
		s[i] = stackFrame{
			Source: filepath.Join(filepath.Base(filepath.Dir(v.File)), filepath.Base(v.File)),
			Func:   filepath.Base(v.Function),
			Line:   v.Line,
		}
	}
	return s
}
