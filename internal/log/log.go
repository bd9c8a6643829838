// Package log provides the process-wide structured logger, backed by logrus.
package log

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"

	"firestige.xyz/vita49/internal/config"
)

type Logger interface {
	Debug(args ...interface{})
	Debugf(format string, args ...interface{})

	Info(args ...interface{})
	Infof(format string, args ...interface{})

	Warn(args ...interface{})
	Warnf(format string, args ...interface{})

	Error(args ...interface{})
	Errorf(format string, args ...interface{})

	WithField(field string, value interface{}) Logger
	WithFields(fields map[string]interface{}) Logger
	WithError(err error) Logger

	IsDebugEnabled() bool
}

const (
	defaultPattern    = "%time [%level] %field %msg%n"
	defaultTimeFormat = "2006-01-02 15:04:05"
)

var (
	mu     sync.RWMutex
	logger Logger = newDefaultLogger(os.Stderr)
)

// GetLogger returns the process logger. Before Init it logs at info level to stderr.
func GetLogger() Logger {
	mu.RLock()
	defer mu.RUnlock()
	return logger
}

// Init replaces the process logger according to cfg.
func Init(cfg config.LogConfig) error {
	l, err := newLogger(cfg, os.Stderr)
	if err != nil {
		return err
	}
	mu.Lock()
	logger = l
	mu.Unlock()
	return nil
}

// newLogger builds a logger whose console output goes to console.
func newLogger(cfg config.LogConfig, console io.Writer) (Logger, error) {
	level, err := logrus.ParseLevel(strings.ToLower(cfg.Level))
	if err != nil {
		return nil, fmt.Errorf("invalid log level: %w", err)
	}

	out := NewMultiWriter()
	if cfg.Console {
		out.Add(console)
	}
	if cfg.File.Enabled {
		if cfg.File.Path == "" {
			return nil, fmt.Errorf("file output requires 'path' field")
		}
		out.AddFileAppender(FileAppenderOpt{
			Filename:   cfg.File.Path,
			MaxSize:    cfg.File.Rotation.MaxSizeMB,
			MaxBackups: cfg.File.Rotation.MaxBackups,
			MaxAge:     cfg.File.Rotation.MaxAgeDays,
			Compress:   cfg.File.Rotation.Compress,
		})
	}

	pattern := cfg.Pattern
	if pattern == "" {
		pattern = defaultPattern
	}
	timeFormat := cfg.TimeFormat
	if timeFormat == "" {
		timeFormat = defaultTimeFormat
	}

	l := logrus.New()
	l.SetFormatter(&formatter{pattern: pattern, time: timeFormat})
	l.SetLevel(level)
	l.SetOutput(out)
	if strings.Contains(pattern, "%caller") {
		l.SetReportCaller(true)
	}

	return &logrusAdapter{entry: logrus.NewEntry(l)}, nil
}

func newDefaultLogger(w io.Writer) Logger {
	l := logrus.New()
	l.SetFormatter(&formatter{pattern: defaultPattern, time: defaultTimeFormat})
	l.SetLevel(logrus.InfoLevel)
	l.SetOutput(w)
	return &logrusAdapter{entry: logrus.NewEntry(l)}
}
