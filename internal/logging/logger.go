// Package logging provides the leveled logger used across mp4ify. It wraps
// logrus: text output goes through the nested formatter, --log-format json
// switches to logrus' JSON formatter, and --log tees every line to a file.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	nested "github.com/antonfisher/nested-logrus-formatter"
	"github.com/sirupsen/logrus"

	"github.com/backmassage/mp4ify/internal/config"
	"github.com/backmassage/mp4ify/internal/term"
)

const timestampFormat = "2006-01-02 15:04:05"

// Fields is an alias so callers don't need to import logrus.
type Fields = logrus.Fields

// Logger provides leveled, optionally colored logging with an optional file
// sink. Child loggers created by [Logger.With] share the sink.
type Logger struct {
	entry *logrus.Entry
	file  *os.File
}

// NewLogger configures colors from cfg, opens the log file when one is set,
// and returns a logger writing to stdout (and the file). Call Close when done.
func NewLogger(cfg *config.Config) (*Logger, error) {
	term.Configure(cfg.ColorMode)

	l := &Logger{}
	var out io.Writer = os.Stdout
	if cfg.LogFile != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.LogFile), 0o755); err != nil {
			return nil, err
		}
		f, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return nil, err
		}
		l.file = f
		out = io.MultiWriter(os.Stdout, f)
	}

	base, err := newBase(out, cfg.LogLevel, cfg.LogFormat, !term.Enabled() || cfg.LogFile != "")
	if err != nil {
		if l.file != nil {
			l.file.Close()
		}
		return nil, err
	}
	l.entry = logrus.NewEntry(base)
	return l, nil
}

// New returns a logger writing plain text to w. Intended for tests and
// embedding; no file sink is attached.
func New(w io.Writer, level string) (*Logger, error) {
	base, err := newBase(w, level, config.LogText, true)
	if err != nil {
		return nil, err
	}
	return &Logger{entry: logrus.NewEntry(base)}, nil
}

func newBase(w io.Writer, level string, format config.LogFormat, noColors bool) (*logrus.Logger, error) {
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}

	base := logrus.New()
	base.SetOutput(w)
	base.SetLevel(lvl)
	if format == config.LogJSON {
		base.SetFormatter(&logrus.JSONFormatter{TimestampFormat: timestampFormat})
	} else {
		base.SetFormatter(&nested.Formatter{
			FieldsOrder:     []string{"run", "file", "stream", "result"},
			TimestampFormat: timestampFormat,
			NoColors:        noColors,
			ShowFullLevel:   true,
			TrimMessages:    true,
		})
	}
	return base, nil
}

// With returns a child logger that adds fields to every line.
func (l *Logger) With(fields Fields) *Logger {
	return &Logger{entry: l.entry.WithFields(fields), file: nil}
}

// Close closes the log file if this logger opened one.
func (l *Logger) Close() error {
	if l.file != nil {
		err := l.file.Close()
		l.file = nil
		return err
	}
	return nil
}

// Info logs at INFO level.
func (l *Logger) Info(format string, args ...interface{}) {
	l.entry.Infof(format, args...)
}

// Success logs a completed step at INFO level, tagged result=ok.
func (l *Logger) Success(format string, args ...interface{}) {
	l.entry.WithField("result", "ok").Infof(format, args...)
}

// Warn logs at WARN level.
func (l *Logger) Warn(format string, args ...interface{}) {
	l.entry.Warnf(format, args...)
}

// Error logs at ERROR level.
func (l *Logger) Error(format string, args ...interface{}) {
	l.entry.Errorf(format, args...)
}

// Debug logs at DEBUG level; dropped unless the level is debug.
func (l *Logger) Debug(format string, args ...interface{}) {
	l.entry.Debugf(format, args...)
}

// DebugEnabled reports whether debug lines are emitted.
func (l *Logger) DebugEnabled() bool {
	return l.entry.Logger.IsLevelEnabled(logrus.DebugLevel)
}
