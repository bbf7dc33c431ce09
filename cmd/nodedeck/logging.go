package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"
)

const logFileName = "nodedeck.log"

// openLogFile opens the append-only log in dir. The dashboard owns the
// terminal, so it never logs to stderr.
func openLogFile(dir string) (*os.File, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating state dir: %w", err)
	}
	f, err := os.OpenFile(filepath.Join(dir, logFileName), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("opening log file: %w", err)
	}
	return f, nil
}

// newLogger returns a slog logger backed by a charmbracelet/log handler.
func newLogger(w io.Writer, debug bool) *slog.Logger {
	level := log.InfoLevel
	if debug {
		level = log.DebugLevel
	}
	handler := log.NewWithOptions(w, log.Options{
		Level:           level,
		ReportTimestamp: true,
		TimeFormat:      time.DateTime,
	})
	return slog.New(handler)
}
