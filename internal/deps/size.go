// Package deps measures, formats and removes a project's installed
// dependency folder (node_modules).
package deps

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// DirName is the dependency folder probed inside every project.
const DirName = "node_modules"

// DefaultTimeout bounds a single size query.
const DefaultTimeout = 30 * time.Second

// Entry is the size record kept per project path.
type Entry struct {
	Exists        bool       `json:"exists"`
	SizeBytes     int64      `json:"sizeBytes"`
	SizeFormatted *string    `json:"sizeFormatted"`
	ScannedAt     time.Time  `json:"scannedAt"`
	Error         string     `json:"error,omitempty"`
	DeletedAt     *time.Time `json:"deletedAt,omitempty"`
}

// Label returns the formatted size or an empty string when unknown.
func (e Entry) Label() string {
	if e.SizeFormatted == nil {
		return ""
	}
	return *e.SizeFormatted
}

// measureFunc returns the size in bytes of dir.
type measureFunc func(ctx context.Context, dir string) (int64, error)

// Prober reports dependency folder sizes with a hard per-probe timeout.
type Prober struct {
	timeout time.Duration
	measure measureFunc
	logger  *slog.Logger
	now     func() time.Time
}

// NewProber creates a prober backed by the platform size tool.
func NewProber(timeout time.Duration, logger *slog.Logger) *Prober {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Prober{timeout: timeout, measure: measureDir, logger: logger, now: time.Now}
}

// Probe reports whether projectPath has a dependency folder and how big it is.
// Failures and timeouts degrade to a non-existent entry carrying the error text.
func (p *Prober) Probe(ctx context.Context, projectPath string) Entry {
	dir := filepath.Join(projectPath, DirName)
	entry := Entry{ScannedAt: p.now()}

	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		return entry
	}

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	size, err := p.measure(ctx, dir)
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			err = fmt.Errorf("size query timed out after %s", p.timeout)
		}
		p.logger.Warn("dependency size probe failed", "path", projectPath, "err", err)
		entry.Error = err.Error()
		return entry
	}

	formatted := FormatBytes(size)
	entry.Exists = true
	entry.SizeBytes = size
	entry.SizeFormatted = &formatted
	return entry
}

// Exists reports whether projectPath currently has a dependency folder.
func Exists(projectPath string) bool {
	info, err := os.Stat(filepath.Join(projectPath, DirName))
	return err == nil && info.IsDir()
}

// parseKilobytes reads the leading block count of `du -sk` output.
func parseKilobytes(out string) (int64, error) {
	fields := strings.Fields(out)
	if len(fields) == 0 {
		return 0, errors.New("empty size output")
	}
	kb, err := strconv.ParseInt(fields[0], 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parsing size output %q: %w", fields[0], err)
	}
	return kb * 1024, nil
}

// parseBytes reads a plain byte count; blank output means an empty folder.
func parseBytes(out string) (int64, error) {
	s := strings.TrimSpace(out)
	if s == "" {
		return 0, nil
	}
	// PowerShell may print the sum as a float ("1.5E+09" or "12345.0").
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("parsing size output %q: %w", s, err)
	}
	return int64(f), nil
}
