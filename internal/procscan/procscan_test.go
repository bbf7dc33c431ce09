package procscan

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		cmd  string
		want Kind
	}{
		{"npm run dev", KindDevServer},
		{"node /usr/bin/npm start", KindDevServer},
		{"yarn dev --port 4000", KindDevServer},
		{"pnpm dev", KindDevServer},
		{"nvim src/index.ts", KindEditor},
		{"vim .", KindEditor},
		{"bash -c npm run dev && nvim", KindDevServer | KindEditor},
		{"-zsh", 0},
		{"npm install", 0},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Classify(tt.cmd), tt.cmd)
	}
}

func TestParsePS(t *testing.T) {
	out := `    1 ?        /sbin/init splash
  812 pts/0    -zsh
  990 pts/0    npm run dev
 1001 pts/1    nvim   src/app.tsx
 1020 ttys003  vim notes.md
 abc  pts/2    garbage
 1100 pts/3
`
	procs := parsePS(out)
	require.Len(t, procs, 4)
	assert.Equal(t, Process{PID: 812, TTY: "pts/0", Command: "-zsh", Cwd: UnknownCwd}, procs[0])
	assert.Equal(t, "npm run dev", procs[1].Command)
	assert.Equal(t, "nvim src/app.tsx", procs[2].Command)
	assert.Equal(t, 1020, procs[3].PID)
}

func TestParseLsofCwd(t *testing.T) {
	out := "p812\nfcwd\nn/home/u/projects/app\np990\nfcwd\nn/home/u/projects/app/packages/ui\npbad\nn/ignored\n"
	got := parseLsofCwd(out)
	assert.Equal(t, map[int]string{
		812: "/home/u/projects/app",
		990: "/home/u/projects/app/packages/ui",
	}, got)
}

func TestParseCim(t *testing.T) {
	arr := []byte(`[{"ProcessId":4,"CommandLine":null},{"ProcessId":5120,"CommandLine":"node npm run dev"}]`)
	procs := parseCim(arr)
	require.Len(t, procs, 1)
	assert.Equal(t, 5120, procs[0].PID)
	assert.Equal(t, UnknownCwd, procs[0].Cwd)

	single := []byte(`{"ProcessId":77,"CommandLine":"nvim"}`)
	require.Len(t, parseCim(single), 1)

	assert.Empty(t, parseCim([]byte("not json")))
}

func TestInPath(t *testing.T) {
	assert.True(t, InPath("/home/u/app", "/home/u/app"))
	assert.True(t, InPath("/home/u/app/src", "/home/u/app"))
	assert.True(t, InPath("/home/u/app/", "/home/u/app"))
	assert.False(t, InPath("/home/u/app-two", "/home/u/app"), "sibling with shared prefix")
	assert.False(t, InPath("/home/u", "/home/u/app"))
	assert.False(t, InPath(UnknownCwd, "/home/u/app"))
	assert.False(t, InPath("", "/home/u/app"))
}

func TestOwner_LongestMatch(t *testing.T) {
	projects := []string{"/r/mono", "/r/mono/packages/web", "/r/other"}
	assert.Equal(t, "/r/mono/packages/web", Owner("/r/mono/packages/web/src", projects))
	assert.Equal(t, "/r/mono", Owner("/r/mono/scripts", projects))
	assert.Equal(t, "", Owner("/tmp", projects))
}

func TestSummarize(t *testing.T) {
	procs := []Process{
		{PID: 10, Command: "-zsh", Cwd: "/r/app"},
		{PID: 11, Command: "npm run dev", Cwd: "/r/app"},
		{PID: 12, Command: "nvim .", Cwd: "/r/app/src"},
		{PID: 13, Command: "npm run dev", Cwd: UnknownCwd},
		{PID: 14, Command: "npm start", Cwd: "/r/app/packages/ui"},
		{PID: 15, Command: "npm start", Cwd: "/r/apps"},
	}
	projects := []string{"/r/app", "/r/app/packages/ui", "/r/apps"}

	s := Summarize(procs, "/r/app", projects)
	assert.True(t, s.HasDevServer)
	assert.True(t, s.HasEditor)
	assert.Equal(t, 3, s.Count)
	assert.Equal(t, []int{10, 11, 12}, s.PIDs)

	ui := Summarize(procs, "/r/app/packages/ui", projects)
	assert.Equal(t, []int{14}, ui.PIDs)

	none := Summarize(procs, "/r/nothing", projects)
	assert.False(t, none.Running())
	assert.Empty(t, none.PIDs)
}

func TestBucket(t *testing.T) {
	b := Bucket([]Process{
		{PID: 1, Command: "npm run dev"},
		{PID: 2, Command: "nvim"},
		{PID: 3, Command: "htop"},
	})
	assert.Len(t, b.DevServers, 1)
	assert.Len(t, b.Editors, 1)
	assert.Len(t, b.Other, 1)
}

func TestCensusListError(t *testing.T) {
	c := New(nil)
	c.run = func(context.Context, string, ...string) ([]byte, error) {
		return nil, errors.New("exec: not found")
	}
	_, err := c.List(context.Background())
	assert.Error(t, err)
}
