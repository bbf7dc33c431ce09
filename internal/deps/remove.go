package deps

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// ErrUnsafePath is returned when asked to remove a path that is not a
// plausible project directory.
var ErrUnsafePath = errors.New("refusing to remove unsafe path")

// Remove deletes the dependency folder of projectPath.
func Remove(projectPath string) error {
	if err := checkPath(projectPath); err != nil {
		return err
	}
	dir := filepath.Join(projectPath, DirName)
	if _, err := os.Stat(dir); err != nil {
		return fmt.Errorf("stat %s: %w", dir, err)
	}
	if err := os.RemoveAll(dir); err != nil {
		return fmt.Errorf("removing %s: %w", dir, err)
	}
	return nil
}

// RemoveProject deletes an entire project directory.
func RemoveProject(projectPath string) error {
	if err := checkPath(projectPath); err != nil {
		return err
	}
	if _, err := os.Stat(filepath.Join(projectPath, "package.json")); err != nil {
		return fmt.Errorf("%w: %s has no package.json", ErrUnsafePath, projectPath)
	}
	if err := os.RemoveAll(projectPath); err != nil {
		return fmt.Errorf("removing %s: %w", projectPath, err)
	}
	return nil
}

// Removed returns the entry recorded after a successful cleanup.
func Removed(now time.Time) Entry {
	return Entry{ScannedAt: now, DeletedAt: &now}
}

func checkPath(p string) error {
	if p == "" || !filepath.IsAbs(p) {
		return fmt.Errorf("%w: %q", ErrUnsafePath, p)
	}
	clean := filepath.Clean(p)
	if clean == filepath.Dir(clean) {
		return fmt.Errorf("%w: %q", ErrUnsafePath, p)
	}
	if home, err := os.UserHomeDir(); err == nil && clean == filepath.Clean(home) {
		return fmt.Errorf("%w: %q", ErrUnsafePath, p)
	}
	return nil
}
