package app

// minVisibleItems is the fewest list rows ever shown.
const minVisibleItems = 5

// listNav is the cursor and scroll window over the filtered project list.
type listNav struct {
	cursor int
	scroll int
}

func (n *listNav) up() {
	if n.cursor > 0 {
		n.cursor--
	}
	if n.cursor < n.scroll {
		n.scroll = n.cursor
	}
}

func (n *listNav) down(count, visible int) {
	if n.cursor < count-1 {
		n.cursor++
	}
	if n.cursor >= n.scroll+visible {
		n.scroll = n.cursor - visible + 1
	}
}

func (n *listNav) top() {
	n.cursor = 0
	n.scroll = 0
}

func (n *listNav) bottom(count, visible int) {
	n.cursor = max(count-1, 0)
	n.scroll = max(n.cursor-visible+1, 0)
}

// jumpTo selects idx and centers it in the window.
func (n *listNav) jumpTo(idx, count, visible int) {
	if count == 0 {
		n.top()
		return
	}
	n.cursor = min(max(idx, 0), count-1)
	n.scroll = max(n.cursor-visible/2, 0)
	n.clamp(count, visible)
}

// clamp keeps the cursor inside the list and visible after the list or the
// window size changed.
func (n *listNav) clamp(count, visible int) {
	if count == 0 {
		n.top()
		return
	}
	n.cursor = min(max(n.cursor, 0), count-1)
	n.scroll = min(n.scroll, max(count-visible, 0))
	if n.cursor < n.scroll {
		n.scroll = n.cursor
	}
	if n.cursor >= n.scroll+visible {
		n.scroll = n.cursor - visible + 1
	}
	n.scroll = max(n.scroll, 0)
}
