// Package app is the interactive controller: a bubbletea model that renders
// the project list and turns keystrokes into navigation and actions.
package app

import (
	"context"
	"log/slog"
	"maps"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/marcus/nodedeck/internal/config"
	"github.com/marcus/nodedeck/internal/deps"
	"github.com/marcus/nodedeck/internal/gitcmd"
	"github.com/marcus/nodedeck/internal/keys"
	"github.com/marcus/nodedeck/internal/monitor"
	"github.com/marcus/nodedeck/internal/procscan"
	"github.com/marcus/nodedeck/internal/project"
	"github.com/marcus/nodedeck/internal/styles"
	"github.com/marcus/nodedeck/internal/watch"
)

// view is the controller state. Modal views intercept every key until they
// resolve back to viewList.
type view int

const (
	viewUnconfigured view = iota
	viewConfiguring
	viewList
	viewSearching
	viewCloning
	viewCleanupConfirm
	viewHelp
	viewReconfiguring
	viewDeleteConfirm
	viewCreating
)

const (
	toastDuration     = 5 * time.Second
	stopToastDuration = 3 * time.Second

	launchPollDelay = 1500 * time.Millisecond
	installReprobe  = 3 * time.Second

	autoRefreshFirst = 5 * time.Second
	autoRefreshEvery = 10 * time.Second
	autoRefreshMax   = 12
)

// ScanFunc discovers the projects under root.
type ScanFunc func(ctx context.Context, root string) ([]project.Project, error)

// ProcessCensus lists terminal processes and stops the ones inside a project.
type ProcessCensus interface {
	monitor.ProcessLister
	KillInPath(ctx context.Context, projectPath string, projects []string) (procscan.StopResult, error)
}

// Cloner clones a repository into a directory.
type Cloner interface {
	Clone(ctx context.Context, url, dest string) (gitcmd.CloneResult, error)
}

// Options wires the controller to its collaborators.
type Options struct {
	Store   *config.Store
	Cache   *config.Cache
	Version string

	Scan     ScanFunc
	Procs    ProcessCensus
	Ports    monitor.PortLister
	Prober   monitor.SizeProber
	Terminal gitcmd.Opener
	Cloner   Cloner

	// Clipboard reads the system clipboard. Defaults to atotto/clipboard.
	Clipboard func() (string, error)
	// Watch starts a root watcher. Nil disables watching.
	Watch func(root string) (*watch.Watcher, error)

	Logger *slog.Logger
	Now    func() time.Time
}

type toast struct {
	text    string
	isError bool
	expires time.Time
}

// autoRefresh waits for a project to appear after an interactive clone or
// create. With an expected name it matches by name, otherwise any project
// whose path was not known when it was armed.
type autoRefresh struct {
	seq      int
	expected string
	known    map[string]bool
	attempts int
}

// Model is the root bubbletea model.
type Model struct {
	store    *config.Store
	cache    *config.Cache
	settings config.Settings
	version  string

	scan      ScanFunc
	procs     ProcessCensus
	term      gitcmd.Opener
	cloner    Cloner
	clipboard func() (string, error)
	watchFn   func(root string) (*watch.Watcher, error)
	logger    *slog.Logger
	now       func() time.Time

	ctx    context.Context
	cancel context.CancelFunc

	mon         *monitor.Monitor
	root        string
	lastStarted map[string]time.Time

	view      view
	width     int
	height    int
	keys      keys.KeyMap
	taps      *keys.DoubleTap
	help      help.Model
	spinner   spinner.Model
	progress  progress.Model
	input     textinput.Model
	showHints bool
	helpText  string

	filtered []project.Project
	query    string
	nav      listNav

	scanSeq  int
	scanning bool

	toast        *toast
	configErr    string
	configReturn view
	cloneErr     string

	stale        []deps.Candidate
	deleteTarget *project.Project
	createCursor int

	auto    *autoRefresh
	autoSeq int

	watcher     *watch.Watcher
	watchedRoot string

	// persistProbe marks paths whose next out-of-band size result is saved.
	persistProbe map[string]bool
}

// New creates the controller.
func New(opts Options) *Model {
	cache := opts.Cache
	if cache == nil {
		cache = config.Default()
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	clip := opts.Clipboard
	if clip == nil {
		clip = clipboard.ReadAll
	}
	s := cache.Settings

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = styles.Title

	ti := textinput.New()
	ti.CharLimit = 512
	ti.Width = 60

	ctx, cancel := context.WithCancel(context.Background())
	m := &Model{
		store:        opts.Store,
		cache:        cache,
		settings:     s,
		version:      opts.Version,
		scan:         opts.Scan,
		procs:        opts.Procs,
		term:         opts.Terminal,
		cloner:       opts.Cloner,
		clipboard:    clip,
		watchFn:      opts.Watch,
		logger:       logger,
		now:          now,
		ctx:          ctx,
		cancel:       cancel,
		root:         cache.ProjectPath,
		lastStarted:  maps.Clone(cache.ProjectLastStarted),
		keys:         keys.Default(),
		taps:         keys.NewDoubleTap(keys.DefaultWindow),
		help:         help.New(),
		spinner:      sp,
		progress:     progress.New(progress.WithDefaultGradient(), progress.WithWidth(30), progress.WithoutPercentage()),
		input:        ti,
		persistProbe: make(map[string]bool),
	}
	if m.lastStarted == nil {
		m.lastStarted = make(map[string]time.Time)
	}
	var sizeStore monitor.SizeStore
	if opts.Store != nil {
		sizeStore = opts.Store
	}
	m.mon = monitor.New(monitor.Config{
		ProcessInterval: s.ProcessInterval,
		PortInterval:    s.PortInterval,
		SizeFloor:       s.SizeFloor,
	}, opts.Procs, opts.Ports, opts.Prober, sizeStore, cache.NodeModulesSizes, logger)

	if m.root == "" {
		m.view = viewUnconfigured
		m.beginConfigInput()
	} else {
		m.view = viewList
		m.scanning = true
	}
	return m
}

// Init starts the clock, the spinner, the port loop and the first scan.
func (m *Model) Init() tea.Cmd {
	cmds := []tea.Cmd{tickCmd(), m.spinner.Tick, m.mon.Start()}
	if m.root != "" {
		cmds = append(cmds, m.scanProjects(scanInitial, ""), m.startWatcher())
	} else {
		cmds = append(cmds, textinput.Blink)
	}
	return tea.Batch(cmds...)
}

// Close releases the watcher and cancels in-flight queries.
func (m *Model) Close() {
	if m.watcher != nil {
		m.watcher.Stop()
		m.watcher = nil
	}
	m.mon.Close()
	m.cancel()
}

// Projects returns the full project list.
func (m *Model) Projects() []project.Project { return m.mon.Projects() }

func (m *Model) selected() (project.Project, bool) {
	if m.nav.cursor < 0 || m.nav.cursor >= len(m.filtered) {
		return project.Project{}, false
	}
	return m.filtered[m.nav.cursor], true
}

// visibleItems is how many list rows fit on screen.
func (m *Model) visibleItems() int {
	if m.height == 0 {
		return 10
	}
	reserved := 15
	if !m.sideBySide() {
		reserved += detailsHeight
	}
	return max(minVisibleItems, m.height-reserved)
}

func (m *Model) setToast(text string, isError bool, d time.Duration) {
	m.toast = &toast{text: text, isError: isError, expires: m.now().Add(d)}
}

func (m *Model) errorToast(text string) {
	m.setToast(text, true, toastDuration)
}

func (m *Model) infoToast(text string) {
	m.setToast(text, false, toastDuration)
}

// applyFilter recomputes the filtered list from the query.
func (m *Model) applyFilter() {
	m.filtered = project.Filter(m.mon.Projects(), m.query)
	m.nav.clamp(len(m.filtered), m.visibleItems())
}

func (m *Model) clearSearch() {
	m.query = ""
	m.input.SetValue("")
	m.applyFilter()
}
