package config

import (
	"time"

	"github.com/marcus/nodedeck/internal/deps"
)

// Cache is the persisted document: the configured root plus the durable
// per-project data that survives restarts.
type Cache struct {
	ProjectPath        string                `json:"projectPath"`
	NodeModulesSizes   map[string]deps.Entry `json:"nodeModulesSizes"`
	SizesUpdatedAt     *time.Time            `json:"nodeModulesSizesUpdatedAt,omitempty"`
	ProjectLastStarted map[string]time.Time  `json:"projectLastStarted"`
	UpdatedAt          *time.Time            `json:"updatedAt,omitempty"`
	Settings           Settings              `json:"-"`
}

// Settings tunes scanning and polling. It lives under the "settings" key and
// is only ever written by hand.
type Settings struct {
	MaxDepth        int
	ProcessInterval time.Duration
	PortInterval    time.Duration
	SizeFloor       time.Duration
	SizeTimeout     time.Duration
	MinPort         int
	RetentionDays   int
	Terminals       []string
	Editor          string
}

// Default returns an unconfigured cache with default settings.
func Default() *Cache {
	return &Cache{
		NodeModulesSizes:   make(map[string]deps.Entry),
		ProjectLastStarted: make(map[string]time.Time),
		Settings:           DefaultSettings(),
	}
}

// DefaultSettings returns the built-in tuning values.
func DefaultSettings() Settings {
	return Settings{
		MaxDepth:        5,
		ProcessInterval: 500 * time.Millisecond,
		PortInterval:    5 * time.Second,
		SizeFloor:       300 * time.Millisecond,
		SizeTimeout:     deps.DefaultTimeout,
		MinPort:         3000,
		RetentionDays:   30,
		Terminals:       []string{"gnome-terminal", "konsole", "xfce4-terminal", "xterm", "x-terminal-emulator"},
		Editor:          "nvim",
	}
}

// Configured reports whether a root directory has been chosen.
func (c *Cache) Configured() bool {
	return c != nil && c.ProjectPath != ""
}

// HasSizes reports whether any dependency sizes were persisted.
func (c *Cache) HasSizes() bool {
	return c != nil && len(c.NodeModulesSizes) > 0
}

// Retention returns the cleanup retention window.
func (s Settings) Retention() time.Duration {
	return time.Duration(s.RetentionDays) * 24 * time.Hour
}

// Validate replaces out-of-range settings with defaults.
func (c *Cache) Validate() error {
	d := DefaultSettings()
	s := &c.Settings
	if s.MaxDepth <= 0 {
		s.MaxDepth = d.MaxDepth
	}
	if s.ProcessInterval <= 0 {
		s.ProcessInterval = d.ProcessInterval
	}
	if s.PortInterval <= 0 {
		s.PortInterval = d.PortInterval
	}
	if s.SizeFloor < 0 {
		s.SizeFloor = d.SizeFloor
	}
	if s.SizeTimeout <= 0 {
		s.SizeTimeout = d.SizeTimeout
	}
	if s.MinPort <= 0 || s.MinPort > 65535 {
		s.MinPort = d.MinPort
	}
	if s.RetentionDays <= 0 {
		s.RetentionDays = d.RetentionDays
	}
	if len(s.Terminals) == 0 {
		s.Terminals = d.Terminals
	}
	if s.Editor == "" {
		s.Editor = d.Editor
	}
	if c.NodeModulesSizes == nil {
		c.NodeModulesSizes = make(map[string]deps.Entry)
	}
	if c.ProjectLastStarted == nil {
		c.ProjectLastStarted = make(map[string]time.Time)
	}
	return nil
}
