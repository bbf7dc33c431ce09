// Package procscan lists terminal-attached processes, classifies them as dev
// servers or editors, and attributes them to projects by working directory.
package procscan

import (
	"context"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
)

// UnknownCwd marks a process whose working directory could not be resolved.
const UnknownCwd = "Unknown"

// Process is one entry of the census.
type Process struct {
	PID     int
	TTY     string
	Command string
	Cwd     string
}

// Kind is a bit set of process roles.
type Kind uint8

const (
	KindDevServer Kind = 1 << iota
	KindEditor
)

var (
	devServerPatterns = []string{"npm run dev", "npm start", "yarn dev", "pnpm dev"}
	editorPatterns    = []string{"nvim", "vim"}
)

// Classify returns the roles a command line plays. A command can be both a
// dev server and an editor.
func Classify(command string) Kind {
	var k Kind
	for _, p := range devServerPatterns {
		if strings.Contains(command, p) {
			k |= KindDevServer
			break
		}
	}
	for _, p := range editorPatterns {
		if strings.Contains(command, p) {
			k |= KindEditor
			break
		}
	}
	return k
}

// Census enumerates processes using the platform's tools.
type Census struct {
	logger   *slog.Logger
	run      func(ctx context.Context, name string, args ...string) ([]byte, error)
	readlink func(string) (string, error)
}

// New returns a census backed by the real process table.
func New(logger *slog.Logger) *Census {
	if logger == nil {
		logger = slog.Default()
	}
	return &Census{logger: logger, run: runCommand, readlink: os.Readlink}
}

// List returns terminal-attached processes. Processes whose working
// directory is unknown are included with Cwd set to UnknownCwd.
func (c *Census) List(ctx context.Context) ([]Process, error) {
	return c.list(ctx)
}

func runCommand(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).Output()
}

// parsePS reads `ps -eo pid=,tty=,args=` output, keeping processes attached
// to a pseudo-terminal.
func parsePS(out string) []Process {
	var procs []Process
	for _, line := range strings.Split(out, "\n") {
		fields := strings.Fields(line)
		if len(fields) < 3 {
			continue
		}
		pid, err := strconv.Atoi(fields[0])
		if err != nil {
			continue
		}
		tty := fields[1]
		if !isTerminal(tty) {
			continue
		}
		procs = append(procs, Process{
			PID:     pid,
			TTY:     tty,
			Command: strings.Join(fields[2:], " "),
			Cwd:     UnknownCwd,
		})
	}
	return procs
}

func isTerminal(tty string) bool {
	return strings.HasPrefix(tty, "pts/") || strings.HasPrefix(tty, "ttys")
}

// InPath reports whether cwd is projectPath or lies below it.
func InPath(cwd, projectPath string) bool {
	if cwd == "" || cwd == UnknownCwd || projectPath == "" {
		return false
	}
	cwd = filepath.Clean(cwd)
	projectPath = filepath.Clean(projectPath)
	if cwd == projectPath {
		return true
	}
	return strings.HasPrefix(cwd, projectPath+string(filepath.Separator))
}

// Owner returns the project path that best owns cwd: the longest path in
// projects that contains it. It returns "" when none does.
func Owner(cwd string, projects []string) string {
	best := ""
	for _, p := range projects {
		if InPath(cwd, p) && len(p) > len(best) {
			best = p
		}
	}
	return best
}

// Status is the per-project running summary.
type Status struct {
	HasDevServer bool
	HasEditor    bool
	Count        int
	PIDs         []int
}

// Running reports whether anything was found for the project.
func (s Status) Running() bool { return s.Count > 0 }

// Attributed returns the processes owned by projectPath. When projects is
// non-empty a nested project's processes go to the nested project only.
func Attributed(procs []Process, projectPath string, projects []string) []Process {
	var out []Process
	for _, p := range procs {
		if !InPath(p.Cwd, projectPath) {
			continue
		}
		if len(projects) > 0 {
			if owner := Owner(p.Cwd, projects); owner != "" && filepath.Clean(owner) != filepath.Clean(projectPath) {
				continue
			}
		}
		out = append(out, p)
	}
	return out
}

// Summarize builds the Status of projectPath from a census.
func Summarize(procs []Process, projectPath string, projects []string) Status {
	var s Status
	for _, p := range Attributed(procs, projectPath, projects) {
		k := Classify(p.Command)
		s.HasDevServer = s.HasDevServer || k&KindDevServer != 0
		s.HasEditor = s.HasEditor || k&KindEditor != 0
		s.Count++
		s.PIDs = append(s.PIDs, p.PID)
	}
	return s
}

// Summary buckets a census by role, for diagnostics.
type Summary struct {
	DevServers []Process
	Editors    []Process
	Other      []Process
}

// Bucket splits procs into dev servers, editors and the rest. A process that
// is both lands in DevServers.
func Bucket(procs []Process) Summary {
	var s Summary
	for _, p := range procs {
		k := Classify(p.Command)
		switch {
		case k&KindDevServer != 0:
			s.DevServers = append(s.DevServers, p)
		case k&KindEditor != 0:
			s.Editors = append(s.Editors, p)
		default:
			s.Other = append(s.Other, p)
		}
	}
	return s
}
