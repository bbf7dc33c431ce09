package app

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/marcus/nodedeck/internal/config"
	"github.com/marcus/nodedeck/internal/deps"
	"github.com/marcus/nodedeck/internal/gitcmd"
	"github.com/marcus/nodedeck/internal/procscan"
	"github.com/marcus/nodedeck/internal/project"
	"github.com/marcus/nodedeck/internal/watch"
)

// Message types for tea.Cmd
type (
	// TickMsg is sent on each clock tick.
	TickMsg time.Time

	// ToastMsg displays a temporary message.
	ToastMsg struct {
		Message  string
		Duration time.Duration
		IsError  bool
	}

	// projectsScannedMsg carries the result of a manifest scan.
	projectsScannedMsg struct {
		Seq      int
		Reason   scanReason
		Select   string
		Projects []project.Project
		Err      error
	}

	// configSavedMsg reports the outcome of choosing a root directory.
	configSavedMsg struct {
		Root string
		Err  error
	}

	// clipboardMsg carries clipboard text for the clone prompt.
	clipboardMsg struct {
		Text string
	}

	launchDoneMsg struct {
		Path string
		Name string
		At   time.Time
		Err  error
	}

	stopDoneMsg struct {
		Path   string
		Name   string
		Result procscan.StopResult
		Err    error
	}

	cloneDoneMsg struct {
		Result gitcmd.CloneResult
		Err    error
	}

	installDoneMsg struct {
		Path    string
		Manager string
		Err     error
	}

	createDoneMsg struct {
		Label string
		Err   error
	}

	cleanupDoneMsg struct {
		Removed []string
		Freed   int64
		Failed  int
		Err     error
	}

	deleteDoneMsg struct {
		Path string
		Name string
		Err  error
	}

	// reprobeMsg asks for an out-of-band size probe once an install has had
	// time to write its dependency folder.
	reprobeMsg struct {
		Path string
	}

	// autoRefreshMsg drives the post-clone rescan loop.
	autoRefreshMsg struct {
		Seq int
	}

	watcherStartedMsg struct {
		Root    string
		Watcher *watch.Watcher
		Err     error
	}

	sizesSavedMsg struct {
		Err error
	}
)

type scanReason int

const (
	scanInitial scanReason = iota
	scanRefresh
	scanQuiet
	scanAutoRefresh
)

// tickCmd returns a command that ticks every second.
func tickCmd() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return TickMsg(t)
	})
}

// ShowToast returns a command to show a toast message.
func ShowToast(msg string, duration time.Duration) tea.Cmd {
	return func() tea.Msg {
		return ToastMsg{
			Message:  msg,
			Duration: duration,
		}
	}
}

// ShowError returns a command to show an error toast.
func ShowError(msg string, duration time.Duration) tea.Cmd {
	return func() tea.Msg {
		return ToastMsg{
			Message:  msg,
			Duration: duration,
			IsError:  true,
		}
	}
}

// persistSizes returns a command that merges entries into the cache.
func persistSizes(store *config.Store, entries map[string]deps.Entry) tea.Cmd {
	if store == nil || len(entries) == 0 {
		return nil
	}
	return func() tea.Msg {
		return sizesSavedMsg{Err: store.MergeSizes(entries)}
	}
}
