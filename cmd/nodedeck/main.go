// Command nodedeck is a terminal dashboard for the Node.js projects under one
// directory. Without a subcommand it starts the interactive dashboard.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"runtime/debug"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/marcus/nodedeck/internal/app"
	"github.com/marcus/nodedeck/internal/config"
	"github.com/marcus/nodedeck/internal/deps"
	"github.com/marcus/nodedeck/internal/gitcmd"
	"github.com/marcus/nodedeck/internal/monitor"
	"github.com/marcus/nodedeck/internal/portscan"
	"github.com/marcus/nodedeck/internal/procscan"
	"github.com/marcus/nodedeck/internal/project"
	"github.com/marcus/nodedeck/internal/terminal"
	"github.com/marcus/nodedeck/internal/watch"
)

// Version is set at build time via ldflags.
var Version = ""

// processCensus lists terminal processes and stops the ones of a project.
type processCensus interface {
	monitor.ProcessLister
	KillInPath(ctx context.Context, projectPath string, projects []string) (procscan.StopResult, error)
}

// rootOptions holds global flags and the OS-facing constructors, which
// tests replace.
type rootOptions struct {
	configPath string
	root       string
	debug      bool

	newCensus func(*slog.Logger) processCensus
	newPorts  func(minPort int, logger *slog.Logger) monitor.PortLister
	scan      func(ctx context.Context, root string, opts ...project.Option) ([]project.Project, error)
}

func defaultOptions() *rootOptions {
	return &rootOptions{
		newCensus: func(l *slog.Logger) processCensus { return procscan.New(l) },
		newPorts: func(minPort int, l *slog.Logger) monitor.PortLister {
			return portscan.New(minPort, l)
		},
		scan: project.Scan,
	}
}

func newRootCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "nodedeck",
		Short:         "Dashboard for your Node.js projects",
		Long:          "nodedeck lists the Node.js projects under one directory, shows which dev servers and editors are running, and starts, stops, clones and cleans them.",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runTUI(opts)
		},
	}
	cmd.PersistentFlags().StringVar(&opts.configPath, "config", "", "path to config file")
	cmd.PersistentFlags().StringVar(&opts.root, "root", "", "projects directory for this run (not saved)")
	cmd.PersistentFlags().BoolVar(&opts.debug, "debug", false, "enable debug logging")

	cmd.AddCommand(
		newListCmd(opts),
		newPortsCmd(opts),
		newCleanCmd(opts),
		newConfigCmd(opts),
		newVersionCmd(),
	)
	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), effectiveVersion(Version))
		},
	}
}

func main() {
	if err := newRootCmd(defaultOptions()).Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// effectiveVersion returns the ldflags version, falling back to the module
// version recorded in the build info.
func effectiveVersion(v string) string {
	if v != "" {
		return v
	}
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" {
		return info.Main.Version
	}
	return "devel"
}

// loadCache reads the store and applies the --root override.
func (o *rootOptions) loadCache(store *config.Store) (*config.Cache, error) {
	cache, err := store.Load()
	if err != nil {
		return nil, err
	}
	if o.root != "" {
		root, err := config.ValidateRoot(o.root)
		if err != nil {
			return nil, err
		}
		cache.ProjectPath = root
	}
	return cache, nil
}

func runTUI(opts *rootOptions) error {
	if !isatty.IsTerminal(os.Stdout.Fd()) && !isatty.IsCygwinTerminal(os.Stdout.Fd()) {
		return errors.New("nodedeck needs an interactive terminal; use `nodedeck list` for plain output")
	}

	logFile, err := openLogFile(config.StateDir())
	if err != nil {
		return err
	}
	defer logFile.Close()
	logger := newLogger(logFile, opts.debug)

	store := config.NewStore(opts.configPath)
	cache, err := opts.loadCache(store)
	if err != nil {
		if opts.root != "" {
			return err
		}
		// A broken document sends the user through the directory prompt.
		logger.Error("loading config", "path", store.Path(), "err", err)
		cache = config.Default()
	}
	s := cache.Settings
	logger.Info("starting", "version", effectiveVersion(Version), "root", cache.ProjectPath)

	term := terminal.New(s.Terminals, logger)
	model := app.New(app.Options{
		Store:   store,
		Cache:   cache,
		Version: effectiveVersion(Version),
		Scan: func(ctx context.Context, root string) ([]project.Project, error) {
			return opts.scan(ctx, root, project.WithMaxDepth(s.MaxDepth), project.WithLogger(logger))
		},
		Procs:    opts.newCensus(logger),
		Ports:    opts.newPorts(s.MinPort, logger),
		Prober:   deps.NewProber(s.SizeTimeout, logger),
		Terminal: term,
		Cloner:   gitcmd.NewCloner(term, logger),
		Watch: func(root string) (*watch.Watcher, error) {
			return watch.New(root, watch.WithLogger(logger))
		},
		Logger: logger,
	})
	defer model.Close()

	p := tea.NewProgram(model, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("running dashboard: %w", err)
	}
	return nil
}
