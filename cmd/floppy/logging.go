package main

import (
	"fmt"
	"io"
	"os"

	"github.com/evalphobia/logrus_sentry"
	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/llehouerou/go-floppy/internal/config"
)

// newLogger builds the logger described by the profile: text to stderr,
// optionally mirrored into a rotated file, with errors reported to Sentry
// when a DSN is configured.
func newLogger(cfg config.Logs) (*logrus.Logger, io.Closer, error) {
	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		return nil, nil, err
	}
	logger := logrus.New()
	logger.SetLevel(level)
	logger.Formatter = &logrus.TextFormatter{FullTimestamp: true}

	var closer io.Closer = nopCloser{}
	if cfg.File != "" {
		rotator := &lumberjack.Logger{
			Filename:   cfg.File,
			MaxSize:    cfg.MaxSizeMB,
			MaxAge:     cfg.MaxAgeDays,
			MaxBackups: cfg.MaxBackups,
			Compress:   cfg.Compress,
		}
		logger.SetOutput(io.MultiWriter(os.Stderr, rotator))
		closer = rotator
	} else {
		logger.SetOutput(os.Stderr)
	}

	if cfg.SentryDSN != "" {
		hook, err := logrus_sentry.NewSentryHook(cfg.SentryDSN, []logrus.Level{
			logrus.PanicLevel,
			logrus.FatalLevel,
			logrus.ErrorLevel,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("sentry hook: %w", err)
		}
		logger.AddHook(hook)
	}
	return logger, closer, nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
