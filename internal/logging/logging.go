// Package logging builds the logger shared by every hybridmount component.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"

	"github.com/hybridmount/hybridmount/internal/config"
)

const prefix = "hybridmount"

// New creates the logger described by cfg. Output goes to stderr and, when
// cfg.LogFile is set, is also appended to that file. The returned closer
// releases the log file and is never nil.
func New(cfg *config.Config) (*log.Logger, io.Closer, error) {
	return newLogger(os.Stderr, cfg)
}

func newLogger(stderr io.Writer, cfg *config.Config) (*log.Logger, io.Closer, error) {
	var (
		out    io.Writer = stderr
		closer io.Closer = nopCloser{}
	)

	if cfg.LogFile != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.LogFile), 0755); err != nil {
			return nil, nil, fmt.Errorf("failed to create log directory: %w", err)
		}
		f, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open log file: %w", err)
		}
		out = io.MultiWriter(stderr, f)
		closer = f
	}

	logger := log.NewWithOptions(out, log.Options{
		Prefix:          prefix,
		ReportTimestamp: cfg.LogFile != "",
		TimeFormat:      time.DateTime,
		Level:           levelFor(cfg),
	})
	return logger, closer, nil
}

func levelFor(cfg *config.Config) log.Level {
	if cfg.Verbose {
		return log.DebugLevel
	}
	return log.InfoLevel
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
