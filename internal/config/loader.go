package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

const (
	appName        = "nodedeck"
	configFileName = "config.json"
)

// ErrNotConfigured means no usable root directory is recorded.
var ErrNotConfigured = errors.New("no project directory configured")

// rawSettings mirrors Settings with durations as strings ("500ms", "5s").
type rawSettings struct {
	MaxDepth        int      `json:"maxDepth"`
	ProcessInterval string   `json:"processInterval"`
	PortInterval    string   `json:"portInterval"`
	SizeFloor       string   `json:"sizeFloor"`
	SizeTimeout     string   `json:"sizeTimeout"`
	MinPort         int      `json:"minPort"`
	RetentionDays   int      `json:"retentionDays"`
	Terminals       []string `json:"terminals"`
	Editor          string   `json:"editor"`
}

type rawCache struct {
	Cache
	Settings *rawSettings `json:"settings"`
}

// ConfigDir returns $XDG_CONFIG_HOME/nodedeck or ~/.config/nodedeck.
func ConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, appName)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", "."+appName)
	}
	return filepath.Join(home, ".config", appName)
}

// StateDir returns $XDG_STATE_HOME/nodedeck or ~/.local/state/nodedeck.
func StateDir() string {
	if xdg := os.Getenv("XDG_STATE_HOME"); xdg != "" {
		return filepath.Join(xdg, appName)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", "."+appName, "state")
	}
	return filepath.Join(home, ".local", "state", appName)
}

// ConfigPath returns the default cache document path.
func ConfigPath() string {
	return filepath.Join(ConfigDir(), configFileName)
}

// Load reads the cache document from the default path.
func Load() (*Cache, error) {
	return LoadFrom(ConfigPath())
}

// LoadFrom reads the cache document at path. A missing file yields the
// default (unconfigured) cache without error.
func LoadFrom(path string) (*Cache, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Default(), nil
		}
		return nil, fmt.Errorf("reading config: %w", err)
	}
	return parse(data)
}

func parse(data []byte) (*Cache, error) {
	cfg := Default()
	if strings.TrimSpace(string(data)) == "" {
		return cfg, nil
	}

	raw := rawCache{Cache: *cfg}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	cfg = &raw.Cache
	cfg.Settings = DefaultSettings()
	if raw.Settings != nil {
		if err := applySettings(&cfg.Settings, raw.Settings); err != nil {
			return nil, err
		}
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applySettings(dst *Settings, raw *rawSettings) error {
	if raw.MaxDepth != 0 {
		dst.MaxDepth = raw.MaxDepth
	}
	if raw.MinPort != 0 {
		dst.MinPort = raw.MinPort
	}
	if raw.RetentionDays != 0 {
		dst.RetentionDays = raw.RetentionDays
	}
	if len(raw.Terminals) > 0 {
		dst.Terminals = raw.Terminals
	}
	if raw.Editor != "" {
		dst.Editor = raw.Editor
	}
	durations := []struct {
		name string
		in   string
		out  *time.Duration
	}{
		{"processInterval", raw.ProcessInterval, &dst.ProcessInterval},
		{"portInterval", raw.PortInterval, &dst.PortInterval},
		{"sizeFloor", raw.SizeFloor, &dst.SizeFloor},
		{"sizeTimeout", raw.SizeTimeout, &dst.SizeTimeout},
	}
	for _, d := range durations {
		if d.in == "" {
			continue
		}
		v, err := time.ParseDuration(d.in)
		if err != nil {
			return fmt.Errorf("parsing settings.%s: %w", d.name, err)
		}
		*d.out = v
	}
	return nil
}

// ExpandPath expands a leading ~ to the user's home directory.
func ExpandPath(path string) string {
	if path == "~" || strings.HasPrefix(path, "~/") || strings.HasPrefix(path, `~\`) {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, path[1:])
	}
	return path
}

// ValidateRoot checks that root exists and is a directory.
func ValidateRoot(root string) (string, error) {
	root = strings.TrimSpace(root)
	if root == "" {
		return "", ErrNotConfigured
	}
	abs, err := filepath.Abs(ExpandPath(root))
	if err != nil {
		return "", fmt.Errorf("resolving %s: %w", root, err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return "", fmt.Errorf("directory %s is not accessible: %w", abs, err)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("%s is not a directory", abs)
	}
	return abs, nil
}
