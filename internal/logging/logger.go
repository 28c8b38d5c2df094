// Package logging provides the structured logger threaded through every component.
// There is no package-level mutable logger; New returns an explicit *Logger that callers
// hold and pass down, so lifecycle is owned by whoever calls New at startup.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
)

// Level mirrors logrus levels so callers don't need to import logrus directly.
type Level = logrus.Level

const (
	DebugLevel = logrus.DebugLevel
	InfoLevel  = logrus.InfoLevel
	WarnLevel  = logrus.WarnLevel
	ErrorLevel = logrus.ErrorLevel
	FatalLevel = logrus.FatalLevel
)

// Config controls logger construction.
type Config struct {
	Level      Level
	OutputFile string // empty = stdout only
	JSONFormat bool
	MaxSizeMB  int64 // rotate OutputFile past this size; 0 disables rotation
}

// Logger wraps a *logrus.Logger. Pass it by pointer through component constructors.
type Logger struct {
	*logrus.Logger
	cfg  Config
	file *os.File
}

// New constructs a Logger from Config. Callers own its lifetime and should call Close on
// shutdown to flush and release the file handle.
func New(cfg Config) (*Logger, error) {
	base := logrus.New()
	base.SetLevel(cfg.Level)
	if cfg.JSONFormat {
		base.SetFormatter(&logrus.JSONFormatter{TimestampFormat: "2006-01-02T15:04:05.000Z07:00"})
	} else {
		base.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}

	l := &Logger{Logger: base, cfg: cfg}

	writers := []io.Writer{os.Stdout}
	if cfg.OutputFile != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.OutputFile), 0o755); err != nil {
			return nil, fmt.Errorf("create log dir: %w", err)
		}
		if err := l.rotateIfNeeded(); err != nil {
			return nil, err
		}
		f, err := os.OpenFile(cfg.OutputFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, fmt.Errorf("open log file: %w", err)
		}
		l.file = f
		writers = append(writers, f)
	}
	base.SetOutput(io.MultiWriter(writers...))

	return l, nil
}

// rotateIfNeeded renames the existing log file aside when it exceeds MaxSizeMB.
func (l *Logger) rotateIfNeeded() error {
	if l.cfg.MaxSizeMB <= 0 {
		return nil
	}
	info, err := os.Stat(l.cfg.OutputFile)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return err
	}
	if info.Size() < l.cfg.MaxSizeMB*1024*1024 {
		return nil
	}
	backup := l.cfg.OutputFile + ".1"
	return os.Rename(l.cfg.OutputFile, backup)
}

// WithField returns an entry pre-populated with one field.
func (l *Logger) WithField(key string, value any) *logrus.Entry {
	return l.Logger.WithField(key, value)
}

// Close flushes and closes the underlying log file, if any.
func (l *Logger) Close() error {
	if l.file == nil {
		return nil
	}
	return l.file.Close()
}
