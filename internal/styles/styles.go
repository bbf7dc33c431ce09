// Package styles holds the palette and the shared lipgloss styles.
package styles

import "github.com/charmbracelet/lipgloss"

// Palette.
var (
	Primary   = lipgloss.AdaptiveColor{Light: "#5B21B6", Dark: "#A78BFA"}
	Secondary = lipgloss.AdaptiveColor{Light: "#0E7490", Dark: "#22D3EE"}
	Success   = lipgloss.AdaptiveColor{Light: "#15803D", Dark: "#4ADE80"}
	Warning   = lipgloss.AdaptiveColor{Light: "#B45309", Dark: "#FBBF24"}
	Error     = lipgloss.AdaptiveColor{Light: "#B91C1C", Dark: "#F87171"}

	TextPrimary = lipgloss.AdaptiveColor{Light: "#111827", Dark: "#F3F4F6"}
	TextMuted   = lipgloss.AdaptiveColor{Light: "#6B7280", Dark: "#9CA3AF"}
	TextSubtle  = lipgloss.AdaptiveColor{Light: "#9CA3AF", Dark: "#6B7280"}

	BgSecondary  = lipgloss.AdaptiveColor{Light: "#E5E7EB", Dark: "#1F2937"}
	BorderNormal = lipgloss.AdaptiveColor{Light: "#D1D5DB", Dark: "#374151"}
	BorderActive = lipgloss.AdaptiveColor{Light: "#7C3AED", Dark: "#8B5CF6"}
)

// Text styles.
var (
	Title  = lipgloss.NewStyle().Bold(true).Foreground(Primary)
	Header = lipgloss.NewStyle().Bold(true).Foreground(TextPrimary)
	Body   = lipgloss.NewStyle().Foreground(TextPrimary)
	Muted  = lipgloss.NewStyle().Foreground(TextMuted)
	Subtle = lipgloss.NewStyle().Foreground(TextSubtle)
	Code   = lipgloss.NewStyle().Foreground(Secondary)

	KeyHint = lipgloss.NewStyle().Foreground(TextMuted).Background(BgSecondary).Padding(0, 1)
)

// Status styles.
var (
	StatusRunning = lipgloss.NewStyle().Foreground(Success).Bold(true)
	StatusEditor  = lipgloss.NewStyle().Foreground(Secondary)
	StatusIdle    = lipgloss.NewStyle().Foreground(TextSubtle)
	StatusWarning = lipgloss.NewStyle().Foreground(Warning)
	StatusError   = lipgloss.NewStyle().Foreground(Error).Bold(true)
)

// List styles.
var (
	ListItemNormal   = lipgloss.NewStyle().Foreground(TextPrimary)
	ListItemSelected = lipgloss.NewStyle().Foreground(TextPrimary).Background(BgSecondary).Bold(true)
	ListCursor       = lipgloss.NewStyle().Foreground(Primary).Bold(true)
	PanelHeader      = lipgloss.NewStyle().Bold(true).Foreground(Primary).MarginBottom(1)
)

// Toast and modal styles.
var (
	ToastInfo  = lipgloss.NewStyle().Foreground(Success).Padding(0, 1)
	ToastError = lipgloss.NewStyle().Foreground(Error).Padding(0, 1)

	ModalBox = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(BorderActive).
			Padding(1, 2)
	ModalTitle = lipgloss.NewStyle().Bold(true).Foreground(Warning).MarginBottom(1)

	Footer = lipgloss.NewStyle().Foreground(TextMuted)
)
