package app

import (
	"errors"
	"fmt"
	"maps"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/marcus/nodedeck/internal/deps"
	"github.com/marcus/nodedeck/internal/gitcmd"
	"github.com/marcus/nodedeck/internal/monitor"
	"github.com/marcus/nodedeck/internal/project"
	"github.com/marcus/nodedeck/internal/watch"
)

// Update handles messages.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if cmd, handled := m.mon.Update(msg); handled {
		if res, ok := msg.(monitor.SizeResultMsg); ok && res.Index < 0 && m.persistProbe[res.Path] {
			delete(m.persistProbe, res.Path)
			return m, tea.Batch(cmd, persistSizes(m.store, map[string]deps.Entry{res.Path: res.Entry}))
		}
		return m, cmd
	}

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		m.nav.clamp(len(m.filtered), m.visibleItems())
		if m.view == viewHelp {
			m.helpText = renderHelp(m.width)
		}
		return m, nil

	case TickMsg:
		if m.toast != nil && !m.now().Before(m.toast.expires) {
			m.toast = nil
		}
		return m, tickCmd()

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case ToastMsg:
		m.setToast(msg.Message, msg.IsError, msg.Duration)
		return m, nil

	case monitor.SizeScanDoneMsg:
		return m, m.handleSizeScanDone(msg)

	case projectsScannedMsg:
		return m, m.handleProjectsScanned(msg)

	case configSavedMsg:
		return m, m.handleConfigSaved(msg)

	case watcherStartedMsg:
		if msg.Err != nil {
			m.logger.Warn("root watcher unavailable", "root", msg.Root, "err", msg.Err)
			return m, nil
		}
		if msg.Root != m.root {
			msg.Watcher.Stop()
			return m, nil
		}
		m.watcher = msg.Watcher
		m.watchedRoot = msg.Root
		return m, watch.Wait(m.watcher)

	case watch.RootChangedMsg:
		return m, tea.Batch(m.scanProjects(scanQuiet, ""), watch.Wait(m.watcher))

	case clipboardMsg:
		if m.view == viewCloning && m.input.Value() == "" && gitcmd.IsValidURL(strings.TrimSpace(msg.Text)) {
			m.input.SetValue(strings.TrimSpace(msg.Text))
			m.input.CursorEnd()
		}
		return m, nil

	case launchDoneMsg:
		if msg.Err != nil {
			m.errorToast(fmt.Sprintf("Failed to run dev server: %v", msg.Err))
			return m, nil
		}
		started := maps.Clone(m.lastStarted)
		started[msg.Path] = msg.At
		m.lastStarted = started
		m.infoToast(fmt.Sprintf("Started %s", msg.Name))
		return m, m.mon.PollAfter(msg.Path, launchPollDelay)

	case stopDoneMsg:
		return m, m.handleStopDone(msg)

	case cloneDoneMsg:
		return m, m.handleCloneDone(msg)

	case installDoneMsg:
		if msg.Err != nil {
			m.errorToast(fmt.Sprintf("Failed to install dependencies: %v", msg.Err))
			return m, nil
		}
		m.infoToast(fmt.Sprintf("Installing dependencies with %s in a new terminal", msg.Manager))
		path := msg.Path
		return m, tea.Tick(installReprobe, func(time.Time) tea.Msg { return reprobeMsg{Path: path} })

	case reprobeMsg:
		m.persistProbe[msg.Path] = true
		return m, m.mon.Reprobe(msg.Path)

	case createDoneMsg:
		if msg.Err != nil {
			m.errorToast(fmt.Sprintf("Failed to create project: %v", msg.Err))
			return m, nil
		}
		m.infoToast(fmt.Sprintf("Creating %s project (check terminal for prompts)", msg.Label))
		return m, m.armAutoRefresh("")

	case cleanupDoneMsg:
		return m, m.handleCleanupDone(msg)

	case deleteDoneMsg:
		if msg.Err != nil {
			m.errorToast(fmt.Sprintf("Failed to delete %s: %v", msg.Name, msg.Err))
			return m, nil
		}
		m.infoToast(fmt.Sprintf("Deleted %s", msg.Name))
		started := maps.Clone(m.lastStarted)
		delete(started, msg.Path)
		m.lastStarted = started
		return m, m.scanProjects(scanQuiet, "")

	case sizesSavedMsg:
		if msg.Err != nil {
			m.logger.Error("saving dependency sizes", "err", msg.Err)
		}
		return m, nil

	case autoRefreshMsg:
		if m.auto == nil || msg.Seq != m.auto.seq {
			return m, nil
		}
		m.auto.attempts++
		return m, m.scanProjects(scanAutoRefresh, "")

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	return m, nil
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch m.view {
	case viewUnconfigured, viewReconfiguring:
		return m.handleConfigKey(msg)
	case viewConfiguring:
		if msg.Type == tea.KeyCtrlC {
			return m, m.quit()
		}
		return m, nil
	case viewSearching:
		return m.handleSearchKey(msg)
	case viewCloning:
		return m.handleCloneKey(msg)
	case viewCleanupConfirm:
		return m.handleCleanupKey(msg)
	case viewDeleteConfirm:
		return m.handleDeleteKey(msg)
	case viewCreating:
		return m.handleCreateKey(msg)
	case viewHelp:
		// Any key closes help.
		m.view = viewList
		return m, nil
	}
	return m.handleListKey(msg)
}

func (m *Model) handleListKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	k := msg.String()
	if k != "g" && k != "d" {
		m.taps.Reset()
	}
	visible := m.visibleItems()

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, m.quit()

	case key.Matches(msg, m.keys.Up):
		m.nav.up()

	case key.Matches(msg, m.keys.Down):
		m.nav.down(len(m.filtered), visible)

	case key.Matches(msg, m.keys.Top):
		if m.taps.Tap(k) {
			m.nav.top()
		}

	case key.Matches(msg, m.keys.Bottom):
		m.nav.bottom(len(m.filtered), visible)

	case key.Matches(msg, m.keys.Cleanup):
		if m.taps.Tap(k) {
			m.stale = deps.StaleProjects(project.Paths(m.mon.Projects()), m.mon.Sizes(), m.lastStarted,
				m.mon.HasDevServer, m.now(), m.settings.Retention())
			m.view = viewCleanupConfirm
		}

	case key.Matches(msg, m.keys.Open):
		if p, ok := m.selected(); ok {
			return m, m.openEditor(p)
		}

	case key.Matches(msg, m.keys.Toggle):
		if p, ok := m.selected(); ok {
			if m.mon.HasDevServer(p.Path) {
				return m, m.stopServer(p)
			}
			return m, m.launch(p)
		}

	case key.Matches(msg, m.keys.Clone):
		m.view = viewCloning
		m.cloneErr = ""
		m.input.Reset()
		m.input.Prompt = "Git URL: "
		m.input.Placeholder = "https://github.com/user/repo.git"
		return m, tea.Batch(m.input.Focus(), m.readClipboard())

	case key.Matches(msg, m.keys.Reconfigure):
		m.view = viewReconfiguring
		m.configErr = ""
		m.beginConfigInput()
		return m, textinput.Blink

	case key.Matches(msg, m.keys.Search):
		m.view = viewSearching
		m.input.Reset()
		m.input.Prompt = "Search: "
		m.input.Placeholder = "project name"
		m.input.SetValue(m.query)
		m.input.CursorEnd()
		return m, m.input.Focus()

	case key.Matches(msg, m.keys.ClearSearch):
		if m.query != "" {
			m.clearSearch()
		}

	case key.Matches(msg, m.keys.Refresh):
		m.nav.top()
		m.clearSearch()
		m.cancelAutoRefresh()
		m.scanning = true
		return m, m.scanProjects(scanRefresh, "")

	case key.Matches(msg, m.keys.CancelClone):
		if m.auto != nil {
			m.cancelAutoRefresh()
			m.infoToast("Stopped waiting for new project")
		}

	case key.Matches(msg, m.keys.ScanSizes):
		if cmd := m.mon.StartSizeScan(false); cmd != nil {
			return m, cmd
		}

	case key.Matches(msg, m.keys.Install):
		if p, ok := m.selected(); ok {
			return m, m.install(p)
		}

	case key.Matches(msg, m.keys.Delete):
		if p, ok := m.selected(); ok {
			m.deleteTarget = &p
			m.view = viewDeleteConfirm
		}

	case key.Matches(msg, m.keys.Create):
		m.createCursor = 0
		m.view = viewCreating

	case key.Matches(msg, m.keys.Hints):
		m.showHints = !m.showHints
		m.help.ShowAll = m.showHints

	case key.Matches(msg, m.keys.Help):
		m.view = viewHelp
		m.helpText = renderHelp(m.width)
	}
	return m, nil
}

func (m *Model) handleSearchKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyCtrlC:
		return m, m.quit()
	case tea.KeyEnter:
		m.view = viewList
		m.input.Blur()
		return m, nil
	case tea.KeyEsc:
		m.view = viewList
		m.input.Blur()
		m.clearSearch()
		return m, nil
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	if q := m.input.Value(); q != m.query {
		m.query = q
		m.nav.top()
		m.applyFilter()
	}
	return m, cmd
}

func (m *Model) handleCloneKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyCtrlC:
		return m, m.quit()
	case tea.KeyEsc:
		m.view = viewList
		m.input.Blur()
		return m, nil
	case tea.KeyEnter:
		url := strings.TrimSpace(m.input.Value())
		if !gitcmd.IsValidURL(url) {
			m.cloneErr = "Invalid git URL"
			return m, nil
		}
		m.view = viewList
		m.input.Blur()
		m.setToast(fmt.Sprintf("Cloning %s...", gitcmd.RepoName(url)), false, gitcmd.CloneTimeout)
		return m, m.clone(url)
	}
	m.cloneErr = ""
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *Model) handleConfigKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyCtrlC:
		return m, m.quit()
	case tea.KeyEsc:
		if m.view == viewReconfiguring {
			m.view = viewList
			m.input.Blur()
			return m, nil
		}
		m.configErr = ""
		m.input.SetValue(defaultRoot())
		m.input.CursorEnd()
		return m, nil
	case tea.KeyEnter:
		m.configErr = ""
		m.configReturn = m.view
		m.view = viewConfiguring
		return m, m.saveRoot(m.input.Value())
	}
	m.configErr = ""
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *Model) handleCleanupKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if len(m.stale) == 0 {
		m.view = viewList
		return m, nil
	}
	switch msg.String() {
	case "y", "Y":
		m.view = viewList
		stale := m.stale
		m.stale = nil
		return m, m.cleanup(stale)
	case "n", "N", "esc":
		m.view = viewList
		m.stale = nil
	case "ctrl+c":
		return m, m.quit()
	}
	return m, nil
}

func (m *Model) handleDeleteKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "y", "Y":
		m.view = viewList
		target := m.deleteTarget
		m.deleteTarget = nil
		if target == nil {
			return m, nil
		}
		if m.mon.HasDevServer(target.Path) {
			m.errorToast(fmt.Sprintf("Stop the dev server for %s before deleting it", target.Name))
			return m, nil
		}
		return m, m.deleteProject(*target)
	case "n", "N", "esc":
		m.view = viewList
		m.deleteTarget = nil
	case "ctrl+c":
		return m, m.quit()
	}
	return m, nil
}

func (m *Model) handleCreateKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "up", "k":
		m.createCursor = max(m.createCursor-1, 0)
	case "down", "j":
		m.createCursor = min(m.createCursor+1, len(createOptions)-1)
	case "enter":
		m.view = viewList
		return m, m.create(createOptions[m.createCursor])
	case "esc":
		m.view = viewList
	case "ctrl+c":
		return m, m.quit()
	}
	return m, nil
}

func (m *Model) handleProjectsScanned(msg projectsScannedMsg) tea.Cmd {
	if msg.Seq != m.scanSeq {
		return nil
	}
	m.scanning = false
	if msg.Err != nil {
		if errors.Is(msg.Err, project.ErrRootInaccessible) {
			m.logger.Warn("project root inaccessible", "root", m.root, "err", msg.Err)
			m.view = viewUnconfigured
			m.configErr = msg.Err.Error()
			m.beginConfigInput()
			return textinput.Blink
		}
		m.errorToast(fmt.Sprintf("Error scanning projects: %v", msg.Err))
		return nil
	}

	var cmds []tea.Cmd
	quiet := msg.Reason == scanQuiet || msg.Reason == scanAutoRefresh
	if !quiet || project.Fingerprint(msg.Projects) != project.Fingerprint(m.mon.Projects()) {
		prev, _ := m.selected()
		cmds = append(cmds, m.mon.SetProjects(msg.Projects))
		m.applyFilter()
		if quiet && prev.Path != "" {
			m.selectPath(prev.Path)
		}
	}
	if msg.Select != "" {
		m.selectName(msg.Select)
	}
	cmds = append(cmds, m.checkAutoRefresh(msg.Reason))
	cmds = append(cmds, m.sizeScanAfterLoad())
	return tea.Batch(cmds...)
}

// sizeScanAfterLoad runs a full size pass while the cache holds no sizes at
// all, and afterwards only probes projects that have no entry yet.
func (m *Model) sizeScanAfterLoad() tea.Cmd {
	if !m.cache.HasSizes() {
		m.logger.Info("no cached dependency sizes, scanning all projects")
		return m.mon.StartSizeScan(false)
	}
	return m.mon.StartSizeScan(true)
}

func (m *Model) handleSizeScanDone(msg monitor.SizeScanDoneMsg) tea.Cmd {
	if msg.Err != nil {
		m.logger.Error("saving dependency sizes", "err", msg.Err)
		m.errorToast(fmt.Sprintf("Failed to save dependency sizes: %v", msg.Err))
		return nil
	}
	m.logger.Info("size scan finished", "projects", msg.Scanned)
	if m.store == nil {
		return nil
	}
	c, err := m.store.Load()
	if err != nil {
		m.logger.Warn("reloading cache", "err", err)
		return nil
	}
	if c.ProjectLastStarted != nil {
		m.lastStarted = c.ProjectLastStarted
	}
	m.cache.NodeModulesSizes = c.NodeModulesSizes
	return nil
}

func (m *Model) handleConfigSaved(msg configSavedMsg) tea.Cmd {
	if msg.Err != nil {
		m.view = m.configReturn
		m.configErr = msg.Err.Error()
		return m.input.Focus()
	}
	m.input.Blur()
	m.root = msg.Root
	m.cache.ProjectPath = msg.Root
	m.view = viewList
	m.scanning = true
	m.nav.top()
	m.clearSearch()
	m.cancelAutoRefresh()
	m.infoToast(fmt.Sprintf("Projects directory set to %s", msg.Root))
	return tea.Batch(m.scanProjects(scanRefresh, ""), m.startWatcher())
}

func (m *Model) handleStopDone(msg stopDoneMsg) tea.Cmd {
	switch {
	case msg.Err != nil:
		m.setToast(fmt.Sprintf("Failed to stop server: %v", msg.Err), true, stopToastDuration)
	case msg.Result.Matched == 0:
		m.setToast("No running processes found for this project", true, stopToastDuration)
	case msg.Result.Killed == 0:
		m.setToast("No processes were stopped", true, stopToastDuration)
	default:
		m.setToast(fmt.Sprintf("Stopped %s (%s)", msg.Name, plural(msg.Result.Killed, "process", "processes")),
			false, stopToastDuration)
	}
	return m.mon.PollNow(msg.Path)
}

func (m *Model) handleCloneDone(msg cloneDoneMsg) tea.Cmd {
	if msg.Err != nil {
		m.errorToast(fmt.Sprintf("Clone failed: %v", msg.Err))
		return nil
	}
	if msg.Result.Interactive {
		m.infoToast(fmt.Sprintf("Finish cloning %s in the terminal window", msg.Result.RepoName))
		return m.armAutoRefresh(msg.Result.RepoName)
	}
	m.infoToast(fmt.Sprintf("Cloned %s", msg.Result.RepoName))
	m.clearSearch()
	return m.scanProjects(scanQuiet, msg.Result.RepoName)
}

func (m *Model) handleCleanupDone(msg cleanupDoneMsg) tea.Cmd {
	total := len(msg.Removed) + msg.Failed
	switch {
	case msg.Err != nil:
		m.logger.Error("saving cleanup results", "err", msg.Err)
		m.errorToast(fmt.Sprintf("Cleaned %d projects but failed to save the cache: %v", len(msg.Removed), msg.Err))
	case msg.Failed > 0:
		m.errorToast(fmt.Sprintf("Cleaned %d of %d projects (%d failed)", len(msg.Removed), total, msg.Failed))
	default:
		m.infoToast(fmt.Sprintf("Cleaned %s, freed %s", plural(len(msg.Removed), "project", "projects"), deps.FormatBytes(msg.Freed)))
	}
	if len(msg.Removed) == 0 {
		return nil
	}
	return m.mon.Reprobe(msg.Removed...)
}

func (m *Model) selectName(name string) bool {
	idx := project.IndexOfName(m.filtered, name)
	if idx < 0 {
		return false
	}
	m.nav.jumpTo(idx, len(m.filtered), m.visibleItems())
	return true
}

func (m *Model) selectPath(path string) {
	for i, p := range m.filtered {
		if p.Path == path {
			m.nav.cursor = i
			m.nav.clamp(len(m.filtered), m.visibleItems())
			return
		}
	}
}

func (m *Model) quit() tea.Cmd {
	m.Close()
	return tea.Quit
}

func plural(n int, one, many string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s", n, one)
	}
	return fmt.Sprintf("%d %s", n, many)
}
