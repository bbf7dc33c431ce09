package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/mattn/go-runewidth"
	"github.com/spf13/cobra"
	"github.com/tidwall/gjson"
	"golang.org/x/term"

	"github.com/marcus/nodedeck/internal/config"
	"github.com/marcus/nodedeck/internal/deps"
	"github.com/marcus/nodedeck/internal/portscan"
	"github.com/marcus/nodedeck/internal/procscan"
	"github.com/marcus/nodedeck/internal/project"
)

const (
	defaultTableWidth = 100
	commandTimeout    = 30 * time.Second
)

// session is the loaded state shared by the headless subcommands.
type session struct {
	opts   *rootOptions
	store  *config.Store
	cache  *config.Cache
	logger *slog.Logger
}

func (o *rootOptions) open(cmd *cobra.Command) (*session, error) {
	logger := newLogger(cmd.ErrOrStderr(), o.debug)
	store := config.NewStore(o.configPath)
	cache, err := o.loadCache(store)
	if err != nil {
		return nil, err
	}
	return &session{opts: o, store: store, cache: cache, logger: logger}, nil
}

func (s *session) projects(ctx context.Context) ([]project.Project, error) {
	if !s.cache.Configured() {
		return nil, fmt.Errorf("%w: run `nodedeck config set-root DIR` first", config.ErrNotConfigured)
	}
	return s.opts.scan(ctx, s.cache.ProjectPath,
		project.WithMaxDepth(s.cache.Settings.MaxDepth), project.WithLogger(s.logger))
}

// statuses censuses processes once and summarizes them per project. Only
// projects with matching processes are present. The summary buckets every
// process that some project owns by role.
func (s *session) statuses(ctx context.Context, projects []project.Project) (map[string]procscan.Status, procscan.Summary, error) {
	procs, err := s.opts.newCensus(s.logger).List(ctx)
	if err != nil {
		return nil, procscan.Summary{}, err
	}
	paths := project.Paths(projects)
	out := make(map[string]procscan.Status)
	for _, p := range paths {
		if st := procscan.Summarize(procs, p, paths); st.Running() {
			out[p] = st
		}
	}
	var owned []procscan.Process
	for _, proc := range procs {
		if procscan.Owner(proc.Cwd, paths) != "" {
			owned = append(owned, proc)
		}
	}
	return out, procscan.Bucket(owned), nil
}

func (s *session) ports(ctx context.Context) map[int]int {
	return s.opts.newPorts(s.cache.Settings.MinPort, s.logger).Ports(ctx)
}

// listEntry is one row of `nodedeck list`.
type listEntry struct {
	Name        string     `json:"name"`
	Path        string     `json:"path"`
	Framework   string     `json:"framework"`
	Command     string     `json:"command"`
	Branch      string     `json:"branch,omitempty"`
	DevServer   bool       `json:"devServer"`
	Editor      bool       `json:"editor"`
	Ports       []int      `json:"ports,omitempty"`
	NodeModules string     `json:"nodeModules"`
	LastStarted *time.Time `json:"lastStarted,omitempty"`
}

func newListCmd(opts *rootOptions) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List projects with their running status",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), commandTimeout)
			defer cancel()
			s, err := opts.open(cmd)
			if err != nil {
				return err
			}
			projects, err := s.projects(ctx)
			if err != nil {
				return err
			}
			statuses, roles, err := s.statuses(ctx, projects)
			censused := err == nil
			if err != nil {
				s.logger.Warn("process census failed", "err", err)
			}
			ports := s.ports(ctx)

			entries := make([]listEntry, 0, len(projects))
			for _, p := range projects {
				st := statuses[p.Path]
				e := listEntry{
					Name:        p.Name,
					Path:        p.Path,
					Framework:   string(p.Framework),
					Command:     p.Command,
					Branch:      p.GitBranch,
					DevServer:   st.HasDevServer,
					Editor:      st.HasEditor,
					Ports:       portscan.PortsFor(ports, st.PIDs),
					NodeModules: sizeColumn(s.cache.NodeModulesSizes, p.Path),
				}
				if at, ok := s.cache.ProjectLastStarted[p.Path]; ok {
					e.LastStarted = &at
				}
				entries = append(entries, e)
			}

			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(entries)
			}
			writeTable(out, entries, outputWidth(out))
			if censused && len(entries) > 0 {
				fmt.Fprintln(out)
				fmt.Fprintln(out, rolesLine(roles))
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON")
	return cmd
}

// sizeColumn renders the cached dependency size without probing.
func sizeColumn(sizes map[string]deps.Entry, path string) string {
	e, ok := sizes[path]
	switch {
	case !ok:
		return "?"
	case !e.Exists:
		return "none"
	case e.Label() == "":
		return "?"
	}
	return e.Label()
}

func outputWidth(w io.Writer) int {
	if f, ok := w.(*os.File); ok {
		if width, _, err := term.GetSize(int(f.Fd())); err == nil && width > 0 {
			return width
		}
	}
	return defaultTableWidth
}

// rolesLine summarizes the terminal processes running inside projects.
func rolesLine(r procscan.Summary) string {
	if len(r.DevServers)+len(r.Editors)+len(r.Other) == 0 {
		return "No terminal processes in projects."
	}
	return fmt.Sprintf("Terminal processes in projects: %s, %s, %d other.",
		count(len(r.DevServers), "dev server", "dev servers"),
		count(len(r.Editors), "editor", "editors"),
		len(r.Other))
}

func count(n int, one, many string) string {
	if n == 1 {
		return "1 " + one
	}
	return fmt.Sprintf("%d %s", n, many)
}

func writeTable(w io.Writer, entries []listEntry, width int) {
	if len(entries) == 0 {
		fmt.Fprintln(w, "No projects found.")
		return
	}
	nameWidth := 4
	for _, e := range entries {
		nameWidth = max(nameWidth, runewidth.StringWidth(e.Name))
	}
	nameWidth = min(nameWidth, 32)

	cell := func(s string, n int) string {
		return runewidth.FillRight(runewidth.Truncate(s, n, "…"), n)
	}
	line := func(name, fw, status, size, ports, branch string) {
		row := strings.Join([]string{
			cell(name, nameWidth), cell(fw, 9), cell(status, 11), cell(size, 10), cell(ports, 12), branch,
		}, "  ")
		fmt.Fprintln(w, runewidth.Truncate(strings.TrimRight(row, " "), width, "…"))
	}

	line("NAME", "FRAMEWORK", "STATUS", "DEPS", "PORTS", "BRANCH")
	for _, e := range entries {
		status := "-"
		switch {
		case e.DevServer && e.Editor:
			status = "running+vim"
		case e.DevServer:
			status = "running"
		case e.Editor:
			status = "vim"
		}
		ports := make([]string, len(e.Ports))
		for i, p := range e.Ports {
			ports[i] = fmt.Sprintf("%d", p)
		}
		line(e.Name, e.Framework, status, e.NodeModules, strings.Join(ports, ","), e.Branch)
	}
}

func newPortsCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "ports",
		Short: "List listening development ports",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), commandTimeout)
			defer cancel()
			s, err := opts.open(cmd)
			if err != nil {
				return err
			}
			ports := s.ports(ctx)
			out := cmd.OutOrStdout()
			if len(ports) == 0 {
				fmt.Fprintln(out, "No ports in use.")
				return nil
			}

			// Naming owners needs a configured root; without one only the
			// conventional labels are shown.
			owners := make(map[int]string)
			if projects, err := s.projects(ctx); err == nil {
				if statuses, _, err := s.statuses(ctx, projects); err == nil {
					for _, p := range projects {
						for _, pid := range statuses[p.Path].PIDs {
							owners[pid] = p.Name
						}
					}
				} else {
					s.logger.Warn("process census failed", "err", err)
				}
			} else if !errors.Is(err, config.ErrNotConfigured) {
				s.logger.Warn("scanning projects", "err", err)
			}

			for _, port := range portscan.Sorted(ports) {
				pid := ports[port]
				owner := owners[pid]
				if owner == "" {
					owner = portscan.Label(port)
				}
				pidText := "-"
				if pid != 0 {
					pidText = fmt.Sprintf("%d", pid)
				}
				fmt.Fprintf(out, "%-6d %-8s %s\n", port, pidText, owner)
			}
			return nil
		},
	}
}

func newCleanCmd(opts *rootOptions) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "clean",
		Short: "Remove node_modules from projects not started recently",
		Long: "clean lists projects whose node_modules exist, that are not running and that were last " +
			"started from nodedeck longer ago than the retention window. Projects never started from " +
			"nodedeck are never listed. Pass --yes to remove the folders.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), commandTimeout)
			defer cancel()
			s, err := opts.open(cmd)
			if err != nil {
				return err
			}
			projects, err := s.projects(ctx)
			if err != nil {
				return err
			}
			statuses, _, err := s.statuses(ctx, projects)
			if err != nil {
				return fmt.Errorf("checking running dev servers: %w", err)
			}
			running := func(path string) bool { return statuses[path].HasDevServer }

			now := time.Now()
			stale := deps.StaleProjects(project.Paths(projects), s.cache.NodeModulesSizes,
				s.cache.ProjectLastStarted, running, now, s.cache.Settings.Retention())
			out := cmd.OutOrStdout()
			if len(stale) == 0 {
				fmt.Fprintln(out, "No stale dependencies found.")
				return nil
			}

			fmt.Fprintf(out, "%d stale project(s), %s:\n", len(stale), deps.FormatBytes(deps.TotalBytes(stale)))
			for _, c := range stale {
				fmt.Fprintf(out, "  %s  %s  last started %s\n", filepath.Base(c.Path), c.Entry.Label(), humanize.Time(c.LastStarted))
			}
			if !yes {
				fmt.Fprintln(out, "Run `nodedeck clean --yes` to remove them.")
				return nil
			}

			removed := make(map[string]deps.Entry)
			var freed int64
			failed := 0
			for _, c := range stale {
				if err := deps.Remove(c.Path); err != nil {
					s.logger.Warn("removing dependencies", "path", c.Path, "err", err)
					failed++
					continue
				}
				removed[c.Path] = deps.Removed(now)
				freed += c.Entry.SizeBytes
			}
			if len(removed) > 0 {
				if err := s.store.MergeSizes(removed); err != nil {
					return fmt.Errorf("saving sizes: %w", err)
				}
			}
			fmt.Fprintf(out, "Removed %d of %d, freed %s.\n", len(removed), len(stale), deps.FormatBytes(freed))
			if failed > 0 {
				return fmt.Errorf("%d removals failed", failed)
			}
			return nil
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "remove without asking")
	return cmd
}

func newConfigCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect or change the configuration",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Print the config file location",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), config.NewStore(opts.configPath).Path())
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "show [KEY]",
		Short: "Print the config document, or one key of it",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store := config.NewStore(opts.configPath)
			doc, err := os.ReadFile(store.Path())
			if err != nil {
				if os.IsNotExist(err) {
					return fmt.Errorf("%w: %s does not exist", config.ErrNotConfigured, store.Path())
				}
				return fmt.Errorf("reading config: %w", err)
			}
			out := cmd.OutOrStdout()
			if len(args) == 0 {
				_, err := out.Write(doc)
				return err
			}
			res := gjson.GetBytes(doc, args[0])
			if !res.Exists() {
				return fmt.Errorf("key %q not set", args[0])
			}
			fmt.Fprintln(out, res.String())
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "clear-sizes",
		Short: "Forget cached node_modules sizes so the next start rescans them",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := config.NewStore(opts.configPath).ClearSizes(); err != nil {
				return fmt.Errorf("saving config: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Cached dependency sizes cleared.")
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "set-root DIR",
		Short: "Set the projects directory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			root, err := config.ValidateRoot(args[0])
			if err != nil {
				return err
			}
			if err := config.NewStore(opts.configPath).SaveProjectPath(root); err != nil {
				return fmt.Errorf("saving config: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Projects directory set to %s\n", root)
			return nil
		},
	})
	return cmd
}
