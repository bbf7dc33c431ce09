// Package monitor runs the reconciliation loops that keep per-project process
// status, dependency sizes and listening ports in step with the OS.
//
// All state is mutated from the bubbletea update loop. Each loop is a chain
// of commands: a tick produces a result message, the result is applied and
// only then is the next tick scheduled. Replacing the project list bumps a
// generation counter; any in-flight message from an older generation is
// ignored, which stops the old chains.
package monitor

import (
	"context"
	"log/slog"
	"maps"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/marcus/nodedeck/internal/deps"
	"github.com/marcus/nodedeck/internal/portscan"
	"github.com/marcus/nodedeck/internal/procscan"
	"github.com/marcus/nodedeck/internal/project"
)

const (
	processTimeout = 5 * time.Second
	portTimeout    = 5 * time.Second
)

// ProcessLister enumerates terminal-attached processes.
type ProcessLister interface {
	List(ctx context.Context) ([]procscan.Process, error)
}

// PortLister enumerates listening ports.
type PortLister interface {
	Ports(ctx context.Context) map[int]int
}

// SizeProber measures one project's dependency folder.
type SizeProber interface {
	Probe(ctx context.Context, projectPath string) deps.Entry
}

// SizeStore persists the size map after a full pass.
type SizeStore interface {
	SaveSizes(sizes map[string]deps.Entry) error
}

// Config holds loop timings.
type Config struct {
	ProcessInterval time.Duration
	PortInterval    time.Duration
	SizeFloor       time.Duration
}

// ScanProgress is the state of an active size pass.
type ScanProgress struct {
	Current int
	Total   int
}

// Monitor owns the project list and the three shared maps.
type Monitor struct {
	cfg    Config
	procs  ProcessLister
	ports  PortLister
	prober SizeProber
	store  SizeStore
	logger *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc

	gen      uint64
	portGen  uint64
	projects []project.Project
	paths    []string
	next     int

	running map[string]procscan.Status
	checked map[string]bool
	sizes   map[string]deps.Entry
	portMap map[int]int

	// scanQueue holds the indexes of the active size pass; nil when idle.
	scanQueue []int
	scanPos   int
	// scanBase counts projects probed before the pass was resumed over a
	// new list; scanDone holds every path probed in this pass.
	scanBase int
	scanDone map[string]bool
}

// New creates a monitor. sizes seeds the dependency-size map from the
// persisted cache.
func New(cfg Config, procs ProcessLister, ports PortLister, prober SizeProber, store SizeStore,
	sizes map[string]deps.Entry, logger *slog.Logger) *Monitor {
	if logger == nil {
		logger = slog.Default()
	}
	ctx, cancel := context.WithCancel(context.Background())
	m := &Monitor{
		cfg:     cfg,
		procs:   procs,
		ports:   ports,
		prober:  prober,
		store:   store,
		logger:  logger,
		ctx:     ctx,
		cancel:  cancel,
		running: make(map[string]procscan.Status),
		checked: make(map[string]bool),
		sizes:   make(map[string]deps.Entry),
		portMap: make(map[int]int),
	}
	maps.Copy(m.sizes, sizes)
	return m
}

// Close cancels in-flight OS queries.
func (m *Monitor) Close() {
	m.cancel()
}

// Projects returns the current project list.
func (m *Monitor) Projects() []project.Project { return m.projects }

// Status returns the running status of path, if any processes were found.
func (m *Monitor) Status(path string) (procscan.Status, bool) {
	s, ok := m.running[path]
	return s, ok
}

// HasDevServer reports whether path currently shows a dev server.
func (m *Monitor) HasDevServer(path string) bool {
	return m.running[path].HasDevServer
}

// Checked reports whether path has been censused since the list was loaded.
func (m *Monitor) Checked(path string) bool { return m.checked[path] }

// Size returns the dependency size entry of path.
func (m *Monitor) Size(path string) (deps.Entry, bool) {
	e, ok := m.sizes[path]
	return e, ok
}

// Sizes returns the dependency size map. Callers must not modify it.
func (m *Monitor) Sizes() map[string]deps.Entry { return m.sizes }

// Ports returns the used-port map. Callers must not modify it.
func (m *Monitor) Ports() map[int]int { return m.portMap }

// ProjectPorts returns the listening ports owned by path's processes.
func (m *Monitor) ProjectPorts(path string) []int {
	return portscan.PortsFor(m.portMap, m.running[path].PIDs)
}

// Scanning returns the progress of the active size pass.
func (m *Monitor) Scanning() (ScanProgress, bool) {
	if m.scanQueue == nil {
		return ScanProgress{}, false
	}
	return ScanProgress{Current: m.scanBase + m.scanPos, Total: m.scanBase + len(m.scanQueue)}, true
}

// Start launches the port loop. The process loop starts with SetProjects.
func (m *Monitor) Start() tea.Cmd {
	m.portGen++
	return m.censusPorts(m.portGen)
}

// SetProjects replaces the project list. It clears the checked-set, drops
// state for paths no longer listed and starts a new process loop. An active
// size pass carries on over the new list, skipping projects already probed.
func (m *Monitor) SetProjects(projects []project.Project) tea.Cmd {
	resume := m.scanQueue != nil
	m.gen++
	m.projects = projects
	m.paths = project.Paths(projects)
	m.next = 0
	m.checked = make(map[string]bool)
	m.scanQueue = nil
	m.scanPos = 0

	keep := make(map[string]bool, len(m.paths))
	for _, p := range m.paths {
		keep[p] = true
	}
	running := make(map[string]procscan.Status, len(m.running))
	for path, s := range m.running {
		if keep[path] {
			running[path] = s
		}
	}
	m.running = running
	sizes := make(map[string]deps.Entry, len(m.sizes))
	for path, e := range m.sizes {
		if keep[path] {
			sizes[path] = e
		}
	}
	m.sizes = sizes

	var cmds []tea.Cmd
	if len(projects) > 0 {
		cmds = append(cmds, m.scheduleProcessTick(m.gen))
	}
	if resume {
		cmds = append(cmds, m.resumeSizeScan())
	}
	return tea.Batch(cmds...)
}

// Update routes loop messages. It reports false for messages it does not own.
func (m *Monitor) Update(msg tea.Msg) (tea.Cmd, bool) {
	switch msg := msg.(type) {
	case ProcessTickMsg:
		if msg.Gen != m.gen || len(m.projects) == 0 {
			return nil, true
		}
		path := m.paths[m.next%len(m.paths)]
		return m.censusProject(m.gen, path, false), true

	case ProcessResultMsg:
		if msg.Gen != m.gen {
			return nil, true
		}
		m.applyProcess(msg)
		if msg.OutOfBand {
			return nil, true
		}
		m.next = (m.next + 1) % len(m.paths)
		return m.scheduleProcessTick(m.gen), true

	case pollAfterMsg:
		if msg.Gen != m.gen {
			return nil, true
		}
		return m.censusProject(m.gen, msg.Path, true), true

	case PortTickMsg:
		if msg.Gen != m.portGen {
			return nil, true
		}
		return m.censusPorts(m.portGen), true

	case PortResultMsg:
		if msg.Gen != m.portGen {
			return nil, true
		}
		m.portMap = msg.Ports
		return m.schedulePortTick(m.portGen), true

	case SizeProbeMsg:
		if msg.Gen != m.gen || m.scanQueue == nil || msg.Index >= len(m.projects) {
			return nil, true
		}
		return m.probeSize(m.gen, msg.Index, m.projects[msg.Index].Path, m.cfg.SizeFloor), true

	case SizeResultMsg:
		if msg.Gen != m.gen {
			return nil, true
		}
		m.applySize(msg.Path, msg.Entry)
		if msg.Index < 0 || m.scanQueue == nil {
			return nil, true
		}
		m.scanDone[msg.Path] = true
		m.scanPos++
		if m.scanPos < len(m.scanQueue) {
			return m.sizeStep(), true
		}
		return m.finishScan(), true

	case SizeScanDoneMsg:
		// Surfaced to the controller; nothing to apply here.
		return nil, false
	}
	return nil, false
}

// PollNow schedules an out-of-band census of one project.
func (m *Monitor) PollNow(path string) tea.Cmd {
	return m.censusProject(m.gen, path, true)
}

// PollAfter schedules an out-of-band census of one project after d.
func (m *Monitor) PollAfter(path string, d time.Duration) tea.Cmd {
	gen := m.gen
	return tea.Tick(d, func(time.Time) tea.Msg {
		return pollAfterMsg{Gen: gen, Path: path}
	})
}

// Reprobe schedules out-of-band size probes of the given projects.
func (m *Monitor) Reprobe(paths ...string) tea.Cmd {
	cmds := make([]tea.Cmd, 0, len(paths))
	for _, p := range paths {
		cmds = append(cmds, m.probeSize(m.gen, -1, p, 0))
	}
	return tea.Batch(cmds...)
}

// StartSizeScan begins a sequential size pass over every project, or only
// over projects without a size entry when onlyMissing is set. It returns nil
// when a pass is already running or there is nothing to scan.
func (m *Monitor) StartSizeScan(onlyMissing bool) tea.Cmd {
	if m.scanQueue != nil {
		return nil
	}
	var queue []int
	for i, p := range m.projects {
		if onlyMissing {
			if _, ok := m.sizes[p.Path]; ok {
				continue
			}
		}
		queue = append(queue, i)
	}
	if len(queue) == 0 {
		return nil
	}
	m.scanQueue = queue
	m.scanPos = 0
	m.scanBase = 0
	m.scanDone = make(map[string]bool, len(queue))
	m.logger.Debug("size scan started", "projects", len(queue), "onlyMissing", onlyMissing)
	return m.sizeStep()
}

func (m *Monitor) resumeSizeScan() tea.Cmd {
	var queue []int
	done := 0
	for i, p := range m.projects {
		if m.scanDone[p.Path] {
			done++
			continue
		}
		queue = append(queue, i)
	}
	m.scanBase = done
	m.logger.Debug("size scan resumed", "done", done, "remaining", len(queue))
	if len(queue) == 0 {
		return m.finishScan()
	}
	m.scanQueue = queue
	return m.sizeStep()
}

func (m *Monitor) sizeStep() tea.Cmd {
	gen, idx := m.gen, m.scanQueue[m.scanPos]
	return func() tea.Msg { return SizeProbeMsg{Gen: gen, Index: idx} }
}

func (m *Monitor) finishScan() tea.Cmd {
	gen, scanned := m.gen, m.scanBase+len(m.scanQueue)
	m.scanQueue = nil
	m.scanPos = 0
	m.scanBase = 0
	m.scanDone = nil
	snapshot := maps.Clone(m.sizes)
	store := m.store
	return func() tea.Msg {
		var err error
		if store != nil {
			err = store.SaveSizes(snapshot)
		}
		return SizeScanDoneMsg{Gen: gen, Scanned: scanned, Err: err}
	}
}

func (m *Monitor) applyProcess(msg ProcessResultMsg) {
	checked := maps.Clone(m.checked)
	checked[msg.Path] = true
	m.checked = checked

	// A failed census counts as nothing running.
	if msg.Err != nil {
		m.logger.Debug("process census failed", "path", msg.Path, "err", msg.Err)
	}
	running := maps.Clone(m.running)
	if msg.Err == nil && msg.Status.Running() {
		running[msg.Path] = msg.Status
	} else {
		delete(running, msg.Path)
	}
	m.running = running
}

func (m *Monitor) applySize(path string, e deps.Entry) {
	sizes := maps.Clone(m.sizes)
	if sizes == nil {
		sizes = make(map[string]deps.Entry)
	}
	sizes[path] = e
	m.sizes = sizes
}

func (m *Monitor) scheduleProcessTick(gen uint64) tea.Cmd {
	return tea.Tick(m.cfg.ProcessInterval, func(time.Time) tea.Msg {
		return ProcessTickMsg{Gen: gen}
	})
}

func (m *Monitor) schedulePortTick(gen uint64) tea.Cmd {
	return tea.Tick(m.cfg.PortInterval, func(time.Time) tea.Msg {
		return PortTickMsg{Gen: gen}
	})
}

func (m *Monitor) censusProject(gen uint64, path string, outOfBand bool) tea.Cmd {
	ctx, lister, paths := m.ctx, m.procs, m.paths
	return func() tea.Msg {
		cctx, cancel := context.WithTimeout(ctx, processTimeout)
		defer cancel()
		procs, err := lister.List(cctx)
		if err != nil {
			return ProcessResultMsg{Gen: gen, Path: path, Err: err, OutOfBand: outOfBand}
		}
		return ProcessResultMsg{
			Gen:       gen,
			Path:      path,
			Status:    procscan.Summarize(procs, path, paths),
			OutOfBand: outOfBand,
		}
	}
}

func (m *Monitor) censusPorts(gen uint64) tea.Cmd {
	ctx, lister := m.ctx, m.ports
	return func() tea.Msg {
		cctx, cancel := context.WithTimeout(ctx, portTimeout)
		defer cancel()
		return PortResultMsg{Gen: gen, Ports: lister.Ports(cctx)}
	}
}

// probeSize measures one project, holding the result until at least floor
// has elapsed so progress stays visible.
func (m *Monitor) probeSize(gen uint64, index int, path string, floor time.Duration) tea.Cmd {
	ctx, prober := m.ctx, m.prober
	return func() tea.Msg {
		start := time.Now()
		entry := prober.Probe(ctx, path)
		if rest := floor - time.Since(start); rest > 0 {
			t := time.NewTimer(rest)
			select {
			case <-t.C:
			case <-ctx.Done():
				t.Stop()
			}
		}
		return SizeResultMsg{Gen: gen, Index: index, Path: path, Entry: entry}
	}
}
