package project

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marcus/nodedeck/internal/gitcmd"
)

func writeManifest(t *testing.T, dir, body string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ManifestName), []byte(body), 0o644))
}

func noGit() Option { return WithGit(nil) }

func TestScan_SortedByName(t *testing.T) {
	root := t.TempDir()
	writeManifest(t, filepath.Join(root, "b"), `{"name":"beta","scripts":{"dev":"vite"}}`)
	writeManifest(t, filepath.Join(root, "a"), `{"name":"Alpha","scripts":{"start":"node index.js"}}`)

	got, err := Scan(context.Background(), root, noGit())
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "Alpha", got[0].Name)
	assert.Equal(t, "beta", got[1].Name)
	assert.Equal(t, filepath.Join(root, "a"), got[0].Path)
	assert.Equal(t, FrameworkNode, got[0].Framework)
	assert.Equal(t, "npm run dev", got[1].Command)
}

func TestScan_NameFallsBackToDirectory(t *testing.T) {
	root := t.TempDir()
	writeManifest(t, filepath.Join(root, "unnamed"), `{"scripts":{}}`)

	got, err := Scan(context.Background(), root, noGit())
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "unnamed", got[0].Name)
	assert.Equal(t, NoCommand, got[0].Command)
}

func TestScan_SkipsIgnoredDirectories(t *testing.T) {
	root := t.TempDir()
	writeManifest(t, filepath.Join(root, "app"), `{"name":"app"}`)
	for dir := range IgnoreDirs {
		writeManifest(t, filepath.Join(root, "app", dir, "pkg"), `{"name":"hidden-`+strings.Trim(dir, ".")+`"}`)
		writeManifest(t, filepath.Join(root, dir), `{"name":"top-`+strings.Trim(dir, ".")+`"}`)
	}

	got, err := Scan(context.Background(), root, noGit())
	require.NoError(t, err)
	assert.Equal(t, []string{"app"}, names(got))
}

func TestScan_DepthBound(t *testing.T) {
	root := t.TempDir()
	// depth 1 .. 3 below root
	writeManifest(t, filepath.Join(root, "one"), `{"name":"one"}`)
	writeManifest(t, filepath.Join(root, "one", "two"), `{"name":"two"}`)
	writeManifest(t, filepath.Join(root, "one", "two", "three"), `{"name":"three"}`)

	got, err := Scan(context.Background(), root, noGit(), WithMaxDepth(3))
	require.NoError(t, err)
	assert.Equal(t, []string{"one", "two"}, names(got))

	got, err = Scan(context.Background(), root, noGit(), WithMaxDepth(4))
	require.NoError(t, err)
	assert.Equal(t, []string{"one", "three", "two"}, names(got))
}

func TestScan_MalformedSiblingDoesNotHideOthers(t *testing.T) {
	root := t.TempDir()
	writeManifest(t, filepath.Join(root, "broken"), `{"name": `)
	writeManifest(t, filepath.Join(root, "good"), `{"name":"good"}`)

	got, err := Scan(context.Background(), root, noGit())
	require.NoError(t, err)
	assert.Equal(t, []string{"good"}, names(got))
}

func TestScan_InaccessibleRoot(t *testing.T) {
	_, err := Scan(context.Background(), filepath.Join(t.TempDir(), "missing"), noGit())
	assert.ErrorIs(t, err, ErrRootInaccessible)
}

func TestScan_GitMetadata(t *testing.T) {
	root := t.TempDir()
	writeManifest(t, filepath.Join(root, "repo"), `{"name":"repo"}`)
	writeManifest(t, filepath.Join(root, "plain"), `{"name":"plain"}`)

	var calls atomic.Int32
	lookup := func(_ context.Context, dir string) (gitcmd.Info, error) {
		calls.Add(1)
		if filepath.Base(dir) == "repo" {
			return gitcmd.Info{Branch: "main", Others: []string{"dev"}}, nil
		}
		return gitcmd.Info{}, errors.New("not a git repository")
	}

	got, err := Scan(context.Background(), root, WithGit(lookup))
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.EqualValues(t, 2, calls.Load())

	assert.Equal(t, "plain", got[0].Name)
	assert.Empty(t, got[0].GitBranch)
	assert.Equal(t, "main", got[1].GitBranch)
	assert.Equal(t, []string{"dev"}, got[1].AvailableBranches)
}

func TestScan_Cancelled(t *testing.T) {
	root := t.TempDir()
	writeManifest(t, filepath.Join(root, "a"), `{"name":"a"}`)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Scan(ctx, root, noGit())
	assert.ErrorIs(t, err, context.Canceled)
}

func TestCheckReadiness(t *testing.T) {
	root := t.TempDir()
	dir := filepath.Join(root, "app")
	writeManifest(t, dir, `{"name":"app","scripts":{"dev":"vite"}}`)
	p := Project{Path: dir, Name: "app", Framework: FrameworkVite, Command: "npm run dev"}

	assert.ErrorIs(t, CheckReadiness(p), ErrMissingDependencies)

	require.NoError(t, os.Mkdir(filepath.Join(dir, "node_modules"), 0o755))
	assert.NoError(t, CheckReadiness(p))

	p.Command = NoCommand
	assert.ErrorIs(t, CheckReadiness(p), ErrNoScript)

	p.Command = "npm start"
	assert.EqualError(t, CheckReadiness(p), `Script "start" not found in package.json`)

	writeManifest(t, dir, `{"name":"app"}`)
	assert.ErrorIs(t, CheckReadiness(p), ErrNoScripts)
}

func TestDetectPackageManager(t *testing.T) {
	dir := t.TempDir()
	assert.Equal(t, "npm", DetectPackageManager(dir).Name)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "yarn.lock"), nil, 0o644))
	assert.Equal(t, "yarn install", DetectPackageManager(dir).Install)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "pnpm-lock.yaml"), nil, 0o644))
	assert.Equal(t, "pnpm", DetectPackageManager(dir).Name)
}
