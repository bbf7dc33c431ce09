// Package keys holds the list view key bindings and the double-tap detector
// used for the gg and dd chords.
package keys

import "github.com/charmbracelet/bubbles/key"

// KeyMap is the list view's key bindings.
type KeyMap struct {
	Up          key.Binding
	Down        key.Binding
	Top         key.Binding
	Bottom      key.Binding
	Open        key.Binding
	Toggle      key.Binding
	Search      key.Binding
	ClearSearch key.Binding
	Clone       key.Binding
	CancelClone key.Binding
	Reconfigure key.Binding
	Refresh     key.Binding
	ScanSizes   key.Binding
	Install     key.Binding
	Cleanup     key.Binding
	Delete      key.Binding
	Create      key.Binding
	Hints       key.Binding
	Help        key.Binding
	Quit        key.Binding
}

// Default returns the standard bindings.
func Default() KeyMap {
	return KeyMap{
		Up:          key.NewBinding(key.WithKeys("k", "up"), key.WithHelp("↑/k", "up")),
		Down:        key.NewBinding(key.WithKeys("j", "down"), key.WithHelp("↓/j", "down")),
		Top:         key.NewBinding(key.WithKeys("g"), key.WithHelp("gg", "top")),
		Bottom:      key.NewBinding(key.WithKeys("G"), key.WithHelp("G", "bottom")),
		Open:        key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "open editor")),
		Toggle:      key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "start/stop")),
		Search:      key.NewBinding(key.WithKeys("i", "/"), key.WithHelp("i", "search")),
		ClearSearch: key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "clear search")),
		Clone:       key.NewBinding(key.WithKeys("c"), key.WithHelp("c", "clone")),
		CancelClone: key.NewBinding(key.WithKeys("x"), key.WithHelp("x", "stop waiting for clone")),
		Reconfigure: key.NewBinding(key.WithKeys("C"), key.WithHelp("C", "change root")),
		Refresh:     key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "refresh")),
		ScanSizes:   key.NewBinding(key.WithKeys("m", "S"), key.WithHelp("m", "scan sizes")),
		Install:     key.NewBinding(key.WithKeys("I"), key.WithHelp("I", "install deps")),
		Cleanup:     key.NewBinding(key.WithKeys("d"), key.WithHelp("dd", "clean stale deps")),
		Delete:      key.NewBinding(key.WithKeys("D"), key.WithHelp("D", "delete project")),
		Create:      key.NewBinding(key.WithKeys("n"), key.WithHelp("n", "new project")),
		Hints:       key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "more keys")),
		Help:        key.NewBinding(key.WithKeys("h"), key.WithHelp("h", "help")),
		Quit:        key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

// ShortHelp implements help.KeyMap.
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Down, k.Open, k.Toggle, k.Search, k.Clone, k.Hints, k.Quit}
}

// FullHelp implements help.KeyMap.
func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Top, k.Bottom},
		{k.Open, k.Toggle, k.Install, k.Refresh},
		{k.Search, k.ClearSearch, k.Clone, k.CancelClone},
		{k.ScanSizes, k.Cleanup, k.Delete, k.Create},
		{k.Reconfigure, k.Help, k.Hints, k.Quit},
	}
}
