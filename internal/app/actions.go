package app

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/marcus/nodedeck/internal/config"
	"github.com/marcus/nodedeck/internal/deps"
	"github.com/marcus/nodedeck/internal/project"
)

var errNoTerminal = errors.New("no terminal launcher configured")

// createOption is one scaffolding tool offered by the create view.
type createOption struct {
	Label   string
	Command string
}

var createOptions = []createOption{
	{Label: "Next.js with shadcn/ui", Command: "npx shadcn@latest init"},
	{Label: "Vite", Command: "npm create vite@latest"},
}

const pauseSuffix = `; echo; read -r -p "Press Enter to close this window..." _`

// scanProjects rescans the root. Results of older scans are discarded when
// they arrive.
func (m *Model) scanProjects(reason scanReason, selectName string) tea.Cmd {
	m.scanSeq++
	seq, root, scan, ctx := m.scanSeq, m.root, m.scan, m.ctx
	if scan == nil || root == "" {
		return nil
	}
	return func() tea.Msg {
		projects, err := scan(ctx, root)
		return projectsScannedMsg{Seq: seq, Reason: reason, Select: selectName, Projects: projects, Err: err}
	}
}

// startWatcher replaces the root watcher when the root changed.
func (m *Model) startWatcher() tea.Cmd {
	if m.watchFn == nil || m.root == "" || m.root == m.watchedRoot {
		return nil
	}
	if m.watcher != nil {
		m.watcher.Stop()
		m.watcher = nil
		m.watchedRoot = ""
	}
	root, fn := m.root, m.watchFn
	return func() tea.Msg {
		w, err := fn(root)
		return watcherStartedMsg{Root: root, Watcher: w, Err: err}
	}
}

func defaultRoot() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "~/projects"
	}
	return filepath.Join(home, "projects")
}

// beginConfigInput prepares the root directory prompt.
func (m *Model) beginConfigInput() {
	m.input.Reset()
	m.input.Prompt = "Projects directory: "
	m.input.Placeholder = "~/projects"
	root := m.root
	if root == "" {
		root = defaultRoot()
	}
	m.input.SetValue(root)
	m.input.CursorEnd()
	m.input.Focus()
}

func (m *Model) saveRoot(input string) tea.Cmd {
	store := m.store
	return func() tea.Msg {
		root, err := config.ValidateRoot(input)
		if err != nil {
			return configSavedMsg{Err: err}
		}
		if store != nil {
			if err := store.SaveProjectPath(root); err != nil {
				return configSavedMsg{Err: fmt.Errorf("saving config: %w", err)}
			}
		}
		return configSavedMsg{Root: root}
	}
}

func (m *Model) readClipboard() tea.Cmd {
	read := m.clipboard
	return func() tea.Msg {
		text, err := read()
		if err != nil {
			return nil
		}
		return clipboardMsg{Text: text}
	}
}

func (m *Model) openTerminal(dir, command string) error {
	if m.term == nil {
		return errNoTerminal
	}
	return m.term.Open(dir, command)
}

func (m *Model) openEditor(p project.Project) tea.Cmd {
	editor := m.settings.Editor
	return func() tea.Msg {
		if err := m.openTerminal(p.Path, editor+" ."); err != nil {
			return ToastMsg{Message: fmt.Sprintf("Failed to open project: %v", err), Duration: toastDuration, IsError: true}
		}
		return ToastMsg{Message: fmt.Sprintf("Opened %s in %s", p.Name, editor), Duration: stopToastDuration}
	}
}

// launch starts the dev server in a terminal after the readiness check.
// A failed check spawns nothing.
func (m *Model) launch(p project.Project) tea.Cmd {
	if err := project.CheckReadiness(p); err != nil {
		m.logger.Info("launch refused", "project", p.Name, "reason", err)
		m.errorToast(err.Error())
		return nil
	}
	now, store := m.now(), m.store
	return func() tea.Msg {
		if err := m.openTerminal(p.Path, p.Command); err != nil {
			return launchDoneMsg{Path: p.Path, Name: p.Name, Err: err}
		}
		// Recorded only once the terminal actually started.
		if store != nil {
			if err := store.SaveLastStarted(p.Path, now); err != nil {
				m.logger.Error("saving last started", "path", p.Path, "err", err)
			}
		}
		return launchDoneMsg{Path: p.Path, Name: p.Name, At: now}
	}
}

func (m *Model) stopServer(p project.Project) tea.Cmd {
	if s, ok := m.mon.Status(p.Path); !ok || s.Count == 0 {
		m.setToast("No running processes found for this project", true, stopToastDuration)
		return nil
	}
	procs, ctx, paths := m.procs, m.ctx, project.Paths(m.mon.Projects())
	return func() tea.Msg {
		res, err := procs.KillInPath(ctx, p.Path, paths)
		return stopDoneMsg{Path: p.Path, Name: p.Name, Result: res, Err: err}
	}
}

func (m *Model) clone(url string) tea.Cmd {
	cloner, ctx, root := m.cloner, m.ctx, m.root
	return func() tea.Msg {
		if cloner == nil {
			return cloneDoneMsg{Err: errors.New("cloning is not available")}
		}
		res, err := cloner.Clone(ctx, url, root)
		return cloneDoneMsg{Result: res, Err: err}
	}
}

func (m *Model) install(p project.Project) tea.Cmd {
	return func() tea.Msg {
		pm := project.DetectPackageManager(p.Path)
		cmd := pm.Install + ` && echo && echo "Installation complete!"` + pauseSuffix
		if err := m.openTerminal(p.Path, cmd); err != nil {
			return installDoneMsg{Path: p.Path, Manager: pm.Name, Err: err}
		}
		return installDoneMsg{Path: p.Path, Manager: pm.Name}
	}
}

func (m *Model) create(opt createOption) tea.Cmd {
	root := m.root
	return func() tea.Msg {
		if err := m.openTerminal(root, opt.Command+pauseSuffix); err != nil {
			return createDoneMsg{Label: opt.Label, Err: err}
		}
		return createDoneMsg{Label: opt.Label}
	}
}

// cleanup removes the dependency folders of the stale projects. Each removal
// is independent and the cache is updated once for the whole batch.
func (m *Model) cleanup(stale []deps.Candidate) tea.Cmd {
	store, now, logger := m.store, m.now(), m.logger
	return func() tea.Msg {
		var msg cleanupDoneMsg
		removed := make(map[string]deps.Entry)
		for _, c := range stale {
			if err := deps.Remove(c.Path); err != nil {
				logger.Warn("removing dependencies", "path", c.Path, "err", err)
				msg.Failed++
				continue
			}
			removed[c.Path] = deps.Removed(now)
			msg.Removed = append(msg.Removed, c.Path)
			msg.Freed += c.Entry.SizeBytes
		}
		if store != nil && len(removed) > 0 {
			msg.Err = store.MergeSizes(removed)
		}
		logger.Info("cleanup finished", "removed", len(msg.Removed), "failed", msg.Failed)
		return msg
	}
}

func (m *Model) deleteProject(p project.Project) tea.Cmd {
	store, logger := m.store, m.logger
	return func() tea.Msg {
		if err := deps.RemoveProject(p.Path); err != nil {
			return deleteDoneMsg{Path: p.Path, Name: p.Name, Err: err}
		}
		if store != nil {
			if err := store.ForgetProject(p.Path); err != nil {
				logger.Warn("forgetting deleted project", "path", p.Path, "err", err)
			}
		}
		logger.Info("deleted project", "path", p.Path)
		return deleteDoneMsg{Path: p.Path, Name: p.Name}
	}
}

// armAutoRefresh starts rescanning until a project named expected shows up,
// or any new project when expected is empty.
func (m *Model) armAutoRefresh(expected string) tea.Cmd {
	m.autoSeq++
	known := make(map[string]bool)
	for _, p := range m.mon.Projects() {
		known[p.Path] = true
	}
	m.auto = &autoRefresh{seq: m.autoSeq, expected: expected, known: known}
	return m.scheduleAutoRefresh(autoRefreshFirst)
}

func (m *Model) scheduleAutoRefresh(d time.Duration) tea.Cmd {
	seq := m.auto.seq
	return tea.Tick(d, func(time.Time) tea.Msg { return autoRefreshMsg{Seq: seq} })
}

func (m *Model) cancelAutoRefresh() {
	m.auto = nil
}

// checkAutoRefresh looks for the awaited project after a rescan. Any rescan
// can satisfy it; only its own scans count toward the attempt limit.
func (m *Model) checkAutoRefresh(reason scanReason) tea.Cmd {
	if m.auto == nil {
		return nil
	}
	if name, ok := m.auto.match(m.mon.Projects()); ok {
		m.cancelAutoRefresh()
		m.clearSearch()
		m.selectName(name)
		m.infoToast(fmt.Sprintf("Found %s", name))
		return nil
	}
	if reason != scanAutoRefresh {
		return nil
	}
	if m.auto.attempts >= autoRefreshMax {
		m.logger.Info("auto refresh gave up", "expected", m.auto.expected, "attempts", m.auto.attempts)
		m.cancelAutoRefresh()
		return nil
	}
	return m.scheduleAutoRefresh(autoRefreshEvery)
}

func (a *autoRefresh) match(projects []project.Project) (string, bool) {
	if a.expected != "" {
		if i := project.IndexOfName(projects, a.expected); i >= 0 {
			return projects[i].Name, true
		}
		return "", false
	}
	for _, p := range projects {
		if !a.known[p.Path] {
			return p.Name, true
		}
	}
	return "", false
}
