// SPDX-License-Identifier: MIT

package config

import (
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Log describes the logger of a run. With File empty, logs go to stderr.
type Log struct {
	Level      string `yaml:"level"`
	Console    bool   `yaml:"console"`
	File       string `yaml:"file,omitempty"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
	Compress   bool   `yaml:"compress"`
}

// DefaultLog logs at info level to stderr; rotation limits apply once a
// file is set.
func DefaultLog() Log {
	return Log{
		Level:      "info",
		MaxSizeMB:  50,
		MaxBackups: 5,
		MaxAgeDays: 14,
		Compress:   true,
	}
}

func (l Log) validate() error {
	if _, err := zapcore.ParseLevel(l.Level); err != nil {
		return err
	}
	if l.MaxSizeMB < 0 || l.MaxBackups < 0 || l.MaxAgeDays < 0 {
		return errors.Errorf("log rotation limits must be non-negative, got %d/%d/%d",
			l.MaxSizeMB, l.MaxBackups, l.MaxAgeDays)
	}

	return nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// Build returns the logger and a closer for its sink. Files are rotated
// with lumberjack.
func (l Log) Build() (*zap.Logger, io.Closer, error) {
	level, err := zapcore.ParseLevel(l.Level)
	if err != nil {
		return nil, nil, errors.Wrap(err, "config: log level")
	}

	encCfg := zap.NewProductionEncoderConfig()
	if level == zapcore.DebugLevel {
		encCfg = zap.NewDevelopmentEncoderConfig()
	}
	encCfg.TimeKey = "ts"
	encCfg.EncodeTime = zapcore.TimeEncoderOfLayout(time.RFC3339)
	enc := zapcore.NewJSONEncoder(encCfg)
	if l.Console {
		enc = zapcore.NewConsoleEncoder(encCfg)
	}

	var (
		ws     zapcore.WriteSyncer = zapcore.Lock(os.Stderr)
		closer io.Closer           = nopCloser{}
	)
	if l.File != "" {
		if err = os.MkdirAll(filepath.Dir(l.File), 0o755); err != nil {
			return nil, nil, errors.Wrap(err, "config: log directory")
		}
		rot := &lumberjack.Logger{
			Filename:   l.File,
			MaxSize:    l.MaxSizeMB,
			MaxBackups: l.MaxBackups,
			MaxAge:     l.MaxAgeDays,
			Compress:   l.Compress,
		}
		ws, closer = zapcore.AddSync(rot), rot
	}

	return zap.New(zapcore.NewCore(enc, ws, level), zap.AddCaller()), closer, nil
}
