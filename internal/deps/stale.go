package deps

import (
	"sort"
	"time"
)

// DefaultRetention is how long a project may go unlaunched before its
// dependency folder counts as stale.
const DefaultRetention = 30 * 24 * time.Hour

// IsStale reports whether a project's dependency folder can be cleaned up.
// Projects never launched (zero lastStarted) are never stale.
func IsStale(entry Entry, lastStarted time.Time, hasDevServer bool, now time.Time, retention time.Duration) bool {
	if !entry.Exists || hasDevServer || lastStarted.IsZero() {
		return false
	}
	return lastStarted.Before(now.Add(-retention))
}

// Candidate is a stale project selected for cleanup.
type Candidate struct {
	Path        string
	Entry       Entry
	LastStarted time.Time
}

// StaleProjects returns the stale subset of paths, largest folders first.
func StaleProjects(paths []string, sizes map[string]Entry, lastStarted map[string]time.Time,
	running func(path string) bool, now time.Time, retention time.Duration) []Candidate {
	var out []Candidate
	for _, path := range paths {
		entry, ok := sizes[path]
		if !ok {
			continue
		}
		started := lastStarted[path]
		if IsStale(entry, started, running != nil && running(path), now, retention) {
			out = append(out, Candidate{Path: path, Entry: entry, LastStarted: started})
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Entry.SizeBytes > out[j].Entry.SizeBytes
	})
	return out
}

// TotalBytes sums the sizes of the candidates.
func TotalBytes(cands []Candidate) int64 {
	var total int64
	for _, c := range cands {
		total += c.Entry.SizeBytes
	}
	return total
}
