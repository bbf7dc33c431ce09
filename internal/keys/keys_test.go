package keys

import (
	"testing"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
)

type clock struct{ t time.Time }

func (c *clock) now() time.Time         { return c.t }
func (c *clock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestTap(window time.Duration) (*DoubleTap, *clock) {
	c := &clock{t: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
	d := NewDoubleTap(window)
	d.now = c.now
	return d, c
}

func TestDoubleTap_WithinWindow(t *testing.T) {
	d, c := newTestTap(300 * time.Millisecond)
	assert.False(t, d.Tap("g"))
	assert.True(t, d.Pending("g"))
	c.advance(200 * time.Millisecond)
	assert.True(t, d.Tap("g"))
	assert.False(t, d.Pending("g"), "completed chord resets")
}

func TestDoubleTap_WindowExpired(t *testing.T) {
	d, c := newTestTap(300 * time.Millisecond)
	d.Tap("g")
	c.advance(301 * time.Millisecond)
	assert.False(t, d.Pending("g"))
	assert.False(t, d.Tap("g"), "late second tap starts a new chord")
	c.advance(100 * time.Millisecond)
	assert.True(t, d.Tap("g"))
}

func TestDoubleTap_DifferentKey(t *testing.T) {
	d, _ := newTestTap(300 * time.Millisecond)
	d.Tap("g")
	assert.False(t, d.Tap("d"))
	assert.True(t, d.Tap("d"))
}

func TestDoubleTap_ThirdTapStartsOver(t *testing.T) {
	d, _ := newTestTap(300 * time.Millisecond)
	d.Tap("d")
	assert.True(t, d.Tap("d"))
	assert.False(t, d.Tap("d"))
}

func TestDoubleTap_DefaultWindow(t *testing.T) {
	assert.Equal(t, DefaultWindow, NewDoubleTap(0).Window())
}

func TestKeyMap_Matches(t *testing.T) {
	km := Default()
	tests := []struct {
		msg  tea.KeyMsg
		want key.Binding
	}{
		{tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("j")}, km.Down},
		{tea.KeyMsg{Type: tea.KeyDown}, km.Down},
		{tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("/")}, km.Search},
		{tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("S")}, km.ScanSizes},
		{tea.KeyMsg{Type: tea.KeyCtrlC}, km.Quit},
		{tea.KeyMsg{Type: tea.KeyEnter}, km.Open},
	}
	for _, tt := range tests {
		assert.True(t, key.Matches(tt.msg, tt.want), "%q", tt.msg.String())
	}
	assert.False(t, key.Matches(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("G")}, km.Top))
}

func TestKeyMap_HelpCoversBindings(t *testing.T) {
	km := Default()
	n := 0
	for _, col := range km.FullHelp() {
		n += len(col)
	}
	assert.Equal(t, 20, n)
	assert.NotEmpty(t, km.ShortHelp())
}
