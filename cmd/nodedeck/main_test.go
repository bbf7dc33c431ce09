package main

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marcus/nodedeck/internal/config"
	"github.com/marcus/nodedeck/internal/deps"
	"github.com/marcus/nodedeck/internal/monitor"
	"github.com/marcus/nodedeck/internal/procscan"
	"github.com/marcus/nodedeck/internal/project"
)

type fakeCensus struct{ procs []procscan.Process }

func (f fakeCensus) List(context.Context) ([]procscan.Process, error) { return f.procs, nil }

func (f fakeCensus) KillInPath(context.Context, string, []string) (procscan.StopResult, error) {
	return procscan.StopResult{}, nil
}

type fakePorts map[int]int

func (f fakePorts) Ports(context.Context) map[int]int { return f }

func testOptions(procs []procscan.Process, ports map[int]int) *rootOptions {
	return &rootOptions{
		newCensus: func(*slog.Logger) processCensus { return fakeCensus{procs} },
		newPorts:  func(int, *slog.Logger) monitor.PortLister { return fakePorts(ports) },
		scan: func(ctx context.Context, root string, opts ...project.Option) ([]project.Project, error) {
			return project.Scan(ctx, root, append(opts, project.WithGit(nil))...)
		},
	}
}

func run(t *testing.T, opts *rootOptions, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd(opts)
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func mkProject(t *testing.T, root, name string, withDeps bool) string {
	t.Helper()
	dir := filepath.Join(root, name)
	require.NoError(t, os.MkdirAll(dir, 0o755))
	manifest := `{"name":"` + name + `","scripts":{"dev":"next dev"}}`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "package.json"), []byte(manifest), 0o644))
	if withDeps {
		require.NoError(t, os.MkdirAll(filepath.Join(dir, deps.DirName), 0o755))
	}
	return dir
}

func TestEffectiveVersion(t *testing.T) {
	assert.Equal(t, "v1.2.3", effectiveVersion("v1.2.3"))
	assert.NotEmpty(t, effectiveVersion(""))
}

func TestVersionCommand(t *testing.T) {
	orig := Version
	Version = "v0.0.0-test"
	defer func() { Version = orig }()

	out, err := run(t, testOptions(nil, nil), "version")
	require.NoError(t, err)
	assert.Equal(t, "v0.0.0-test\n", out)
}

func TestOpenLogFile_CreatesPath(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "state", "nodedeck")
	f, err := openLogFile(dir)
	require.NoError(t, err)
	defer f.Close()

	newLogger(f, false).Info("hello", "k", "v")
	data, err := os.ReadFile(filepath.Join(dir, logFileName))
	require.NoError(t, err)
	assert.Contains(t, string(data), "hello")
}

func TestNewLogger_DebugLevel(t *testing.T) {
	var buf bytes.Buffer
	newLogger(&buf, false).Debug("hidden")
	assert.Empty(t, buf.String())

	newLogger(&buf, true).Debug("shown")
	assert.Contains(t, buf.String(), "shown")
}

func TestConfigCommands(t *testing.T) {
	cfg := filepath.Join(t.TempDir(), "config.json")
	root := t.TempDir()
	opts := testOptions(nil, nil)

	out, err := run(t, opts, "--config", cfg, "config", "path")
	require.NoError(t, err)
	assert.Equal(t, cfg+"\n", out)

	_, err = run(t, testOptions(nil, nil), "--config", cfg, "config", "show")
	assert.ErrorIs(t, err, config.ErrNotConfigured)

	out, err = run(t, testOptions(nil, nil), "--config", cfg, "config", "set-root", root)
	require.NoError(t, err)
	assert.Contains(t, out, root)

	out, err = run(t, testOptions(nil, nil), "--config", cfg, "config", "show", "projectPath")
	require.NoError(t, err)
	assert.Equal(t, root+"\n", out)

	_, err = run(t, testOptions(nil, nil), "--config", cfg, "config", "set-root", filepath.Join(root, "missing"))
	assert.Error(t, err)

	label := "1 MB"
	require.NoError(t, config.NewStore(cfg).SaveSizes(map[string]deps.Entry{
		filepath.Join(root, "a"): {Exists: true, SizeBytes: 1 << 20, SizeFormatted: &label},
	}))
	out, err = run(t, testOptions(nil, nil), "--config", cfg, "config", "clear-sizes")
	require.NoError(t, err)
	assert.Equal(t, "Cached dependency sizes cleared.\n", out)

	c, err := config.LoadFrom(cfg)
	require.NoError(t, err)
	assert.False(t, c.HasSizes())
	assert.Equal(t, root, c.ProjectPath, "other keys survive")
}

func TestListRequiresRoot(t *testing.T) {
	cfg := filepath.Join(t.TempDir(), "config.json")
	_, err := run(t, testOptions(nil, nil), "--config", cfg, "list")
	assert.ErrorIs(t, err, config.ErrNotConfigured)
}

func TestListJSON(t *testing.T) {
	root := t.TempDir()
	alpha := mkProject(t, root, "alpha", true)
	mkProject(t, root, "Beta", false)
	cfg := filepath.Join(t.TempDir(), "config.json")
	procs := []procscan.Process{{PID: 10, TTY: "pts/0", Command: "npm run dev", Cwd: alpha}}
	opts := testOptions(procs, map[int]int{3000: 10, 5173: 11})

	out, err := run(t, opts, "--config", cfg, "--root", root, "list", "--json")
	require.NoError(t, err)

	var entries []listEntry
	require.NoError(t, json.Unmarshal([]byte(out), &entries))
	require.Len(t, entries, 2)
	assert.Equal(t, "alpha", entries[0].Name)
	assert.Equal(t, "next", entries[0].Framework)
	assert.True(t, entries[0].DevServer)
	assert.Equal(t, []int{3000}, entries[0].Ports)
	assert.Equal(t, "Beta", entries[1].Name)
	assert.False(t, entries[1].DevServer)
	assert.Equal(t, "?", entries[1].NodeModules)
}

func TestListTable(t *testing.T) {
	root := t.TempDir()
	mkProject(t, root, "a-project-with-a-rather-long-name-indeed", false)
	cfg := filepath.Join(t.TempDir(), "config.json")

	out, err := run(t, testOptions(nil, nil), "--config", cfg, "--root", root, "list")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 4)
	assert.True(t, strings.HasPrefix(lines[0], "NAME"))
	assert.Contains(t, lines[1], "…")
	assert.Equal(t, "No terminal processes in projects.", lines[3])
}

func TestListTable_ProcessRoles(t *testing.T) {
	root := t.TempDir()
	alpha := mkProject(t, root, "alpha", false)
	cfg := filepath.Join(t.TempDir(), "config.json")
	procs := []procscan.Process{
		{PID: 10, TTY: "pts/0", Command: "npm run dev", Cwd: alpha},
		{PID: 11, TTY: "pts/1", Command: "nvim .", Cwd: filepath.Join(alpha, "src")},
		{PID: 12, TTY: "pts/2", Command: "bash", Cwd: alpha},
		{PID: 13, TTY: "pts/3", Command: "npm run dev", Cwd: t.TempDir()},
	}

	out, err := run(t, testOptions(procs, nil), "--config", cfg, "--root", root, "list")
	require.NoError(t, err)
	assert.Contains(t, out, "Terminal processes in projects: 1 dev server, 1 editor, 1 other.")
	assert.Contains(t, out, "running+vim")
}

func TestPortsCommand(t *testing.T) {
	root := t.TempDir()
	alpha := mkProject(t, root, "alpha", false)
	cfg := filepath.Join(t.TempDir(), "config.json")
	procs := []procscan.Process{{PID: 10, TTY: "pts/0", Command: "npm run dev", Cwd: alpha}}

	out, err := run(t, testOptions(procs, map[int]int{3000: 10, 5173: 0}), "--config", cfg, "--root", root, "ports")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], "3000")
	assert.Contains(t, lines[0], "alpha")
	assert.Contains(t, lines[1], "Vite")

	out, err = run(t, testOptions(nil, nil), "--config", cfg, "ports")
	require.NoError(t, err)
	assert.Equal(t, "No ports in use.\n", out)
}

func TestCleanCommand(t *testing.T) {
	root := t.TempDir()
	old := mkProject(t, root, "old", true)
	recent := mkProject(t, root, "recent", true)
	cfg := filepath.Join(t.TempDir(), "config.json")

	now := time.Now().UTC()
	label := "200 MB"
	entry := deps.Entry{Exists: true, SizeBytes: 200 << 20, SizeFormatted: &label, ScannedAt: now}
	require.NoError(t, config.NewStore(cfg).Merge(map[string]any{
		"projectPath":        root,
		"nodeModulesSizes":   map[string]deps.Entry{old: entry, recent: entry},
		"projectLastStarted": map[string]time.Time{old: now.Add(-45 * 24 * time.Hour), recent: now},
	}))

	out, err := run(t, testOptions(nil, nil), "--config", cfg, "clean")
	require.NoError(t, err)
	assert.Contains(t, out, "1 stale project(s), 200 MB")
	assert.Contains(t, out, "old")
	assert.NotContains(t, out, "recent")
	assert.Contains(t, out, "--yes")
	assert.DirExists(t, filepath.Join(old, deps.DirName))

	out, err = run(t, testOptions(nil, nil), "--config", cfg, "clean", "--yes")
	require.NoError(t, err)
	assert.Contains(t, out, "Removed 1 of 1, freed 200 MB.")
	assert.NoDirExists(t, filepath.Join(old, deps.DirName))
	assert.DirExists(t, filepath.Join(recent, deps.DirName))

	c, err := config.LoadFrom(cfg)
	require.NoError(t, err)
	assert.False(t, c.NodeModulesSizes[old].Exists)
	assert.True(t, c.NodeModulesSizes[recent].Exists)
	assert.Contains(t, c.ProjectLastStarted, recent)

	out, err = run(t, testOptions(nil, nil), "--config", cfg, "clean")
	require.NoError(t, err)
	assert.Equal(t, "No stale dependencies found.\n", out)
}

func TestCleanSkipsRunning(t *testing.T) {
	root := t.TempDir()
	old := mkProject(t, root, "old", true)
	cfg := filepath.Join(t.TempDir(), "config.json")
	now := time.Now().UTC()
	require.NoError(t, config.NewStore(cfg).Merge(map[string]any{
		"projectPath":        root,
		"nodeModulesSizes":   map[string]deps.Entry{old: {Exists: true, SizeBytes: 1}},
		"projectLastStarted": map[string]time.Time{old: now.Add(-90 * 24 * time.Hour)},
	}))
	procs := []procscan.Process{{PID: 3, TTY: "pts/4", Command: "npm run dev", Cwd: old}}

	out, err := run(t, testOptions(procs, nil), "--config", cfg, "clean", "--yes")
	require.NoError(t, err)
	assert.Equal(t, "No stale dependencies found.\n", out)
	assert.DirExists(t, filepath.Join(old, deps.DirName))
}
