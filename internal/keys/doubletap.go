package keys

import "time"

// DefaultWindow is the longest gap between the two taps of a double tap.
const DefaultWindow = 300 * time.Millisecond

// DoubleTap detects a key pressed twice within a window. The zero value is
// not usable; construct it with NewDoubleTap.
type DoubleTap struct {
	window time.Duration
	now    func() time.Time

	key string
	at  time.Time
}

// NewDoubleTap returns a detector with the given window.
func NewDoubleTap(window time.Duration) *DoubleTap {
	if window <= 0 {
		window = DefaultWindow
	}
	return &DoubleTap{window: window, now: time.Now}
}

// Tap records a press of key and reports whether it completes a double tap.
// A completed double tap clears the remembered key, so a third press starts
// over.
func (d *DoubleTap) Tap(key string) bool {
	now := d.now()
	if d.key == key && now.Sub(d.at) <= d.window {
		d.Reset()
		return true
	}
	d.key = key
	d.at = now
	return false
}

// Pending reports whether key was tapped once and the window is still open.
func (d *DoubleTap) Pending(key string) bool {
	return d.key == key && d.now().Sub(d.at) <= d.window
}

// Reset forgets any remembered tap.
func (d *DoubleTap) Reset() {
	d.key = ""
	d.at = time.Time{}
}

// Window returns the configured window.
func (d *DoubleTap) Window() time.Duration { return d.window }
