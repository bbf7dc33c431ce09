package monitor

import (
	"github.com/marcus/nodedeck/internal/deps"
	"github.com/marcus/nodedeck/internal/procscan"
)

// Every message carries the generation it was issued for. Messages from an
// older generation are dropped on arrival.

// ProcessTickMsg asks the process loop to census its next project.
type ProcessTickMsg struct{ Gen uint64 }

// ProcessResultMsg carries one project's census result.
type ProcessResultMsg struct {
	Gen    uint64
	Path   string
	Status procscan.Status
	Err    error
	// OutOfBand results come from PollNow and do not advance the loop.
	OutOfBand bool
}

// PortTickMsg asks the port loop to re-census.
type PortTickMsg struct{ Gen uint64 }

// PortResultMsg carries a full port census.
type PortResultMsg struct {
	Gen   uint64
	Ports map[int]int
}

// SizeProbeMsg asks the size loop to probe the project at Index.
type SizeProbeMsg struct {
	Gen   uint64
	Index int
}

// SizeResultMsg carries one probe. Index is -1 for out-of-band re-probes.
type SizeResultMsg struct {
	Gen   uint64
	Index int
	Path  string
	Entry deps.Entry
}

// SizeScanDoneMsg reports the end of a full size pass and its persistence.
type SizeScanDoneMsg struct {
	Gen     uint64
	Scanned int
	Err     error
}

// pollAfterMsg delays an out-of-band poll.
type pollAfterMsg struct {
	Gen  uint64
	Path string
}
