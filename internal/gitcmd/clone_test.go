package gitcmd

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeTerminal struct {
	dir     string
	command string
	calls   int
	err     error
}

func (f *fakeTerminal) Open(dir, command string) error {
	f.calls++
	f.dir = dir
	f.command = command
	return f.err
}

func newTestCloner(term *fakeTerminal, run func(ctx context.Context, dir string, args ...string) ([]byte, error)) *Cloner {
	c := NewCloner(term, nil)
	c.run = run
	return c
}

func TestClone_InvalidURL(t *testing.T) {
	term := &fakeTerminal{}
	c := newTestCloner(term, func(context.Context, string, ...string) ([]byte, error) {
		t.Fatal("git must not run for an invalid URL")
		return nil, nil
	})

	_, err := c.Clone(context.Background(), "not a url", t.TempDir())
	assert.ErrorIs(t, err, ErrInvalidURL)
	assert.Zero(t, term.calls)
}

func TestClone_DestinationChecks(t *testing.T) {
	c := newTestCloner(&fakeTerminal{}, func(context.Context, string, ...string) ([]byte, error) {
		return nil, nil
	})

	_, err := c.Clone(context.Background(), "https://github.com/u/app.git", "/no/such/dir")
	assert.ErrorIs(t, err, ErrDestinationInaccessible)

	dest := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(dest, "app"), 0o755))
	_, err = c.Clone(context.Background(), "https://github.com/u/app.git", dest)
	assert.ErrorIs(t, err, ErrDestinationExists)
}

func TestClone_HTTPSSuccess(t *testing.T) {
	dest := t.TempDir()
	var gotDir string
	var gotArgs []string
	term := &fakeTerminal{}
	c := newTestCloner(term, func(_ context.Context, dir string, args ...string) ([]byte, error) {
		gotDir, gotArgs = dir, args
		return []byte("Cloning into 'app'...\n"), nil
	})

	res, err := c.Clone(context.Background(), "https://github.com/u/app.git", dest)
	require.NoError(t, err)
	assert.Equal(t, "app", res.RepoName)
	assert.Equal(t, filepath.Join(dest, "app"), res.Path)
	assert.False(t, res.Interactive)
	assert.Equal(t, dest, gotDir)
	assert.Equal(t, []string{"clone", "https://github.com/u/app.git"}, gotArgs)
	assert.Zero(t, term.calls)
}

func TestClone_SSHGoesInteractive(t *testing.T) {
	dest := t.TempDir()
	term := &fakeTerminal{}
	c := newTestCloner(term, func(context.Context, string, ...string) ([]byte, error) {
		t.Fatal("ssh clones run in the terminal")
		return nil, nil
	})

	res, err := c.Clone(context.Background(), "git@github.com:u/tool.git", dest)
	require.NoError(t, err)
	assert.True(t, res.Interactive)
	assert.Equal(t, "tool", res.RepoName)
	assert.Equal(t, dest, term.dir)
	assert.Contains(t, term.command, "git clone 'git@github.com:u/tool.git'")
}

func TestClone_AuthFailureFallsBack(t *testing.T) {
	dest := t.TempDir()
	term := &fakeTerminal{}
	c := newTestCloner(term, func(context.Context, string, ...string) ([]byte, error) {
		return []byte("fatal: Authentication failed for 'https://github.com/u/private.git/'"), errors.New("exit status 128")
	})

	res, err := c.Clone(context.Background(), "https://github.com/u/private.git", dest)
	require.NoError(t, err)
	assert.True(t, res.Interactive)
	assert.Equal(t, 1, term.calls)
}

func TestClone_ErrorMapping(t *testing.T) {
	tests := []struct {
		output string
		want   error
	}{
		{"remote: Repository not found.\nfatal: repository 'x' not found", ErrRepoNotFound},
		{"fatal: unable to access 'x': Could not resolve host: github.com", ErrNetwork},
	}
	for _, tt := range tests {
		c := newTestCloner(&fakeTerminal{}, func(context.Context, string, ...string) ([]byte, error) {
			return []byte(tt.output), errors.New("exit status 128")
		})
		_, err := c.Clone(context.Background(), "https://github.com/u/app.git", t.TempDir())
		assert.ErrorIs(t, err, tt.want, tt.output)
	}
}

func TestClone_OtherErrorKeepsLastLine(t *testing.T) {
	c := newTestCloner(&fakeTerminal{}, func(context.Context, string, ...string) ([]byte, error) {
		return []byte("Cloning into 'app'...\nfatal: early EOF"), errors.New("exit status 128")
	})
	_, err := c.Clone(context.Background(), "https://github.com/u/app.git", t.TempDir())
	assert.EqualError(t, err, "git clone failed: fatal: early EOF")
}

func TestInteractiveCloneCommand(t *testing.T) {
	got := InteractiveCloneCommand("https://example.com/u/app.git")
	assert.Contains(t, got, "git clone 'https://example.com/u/app.git' && ")
	assert.Contains(t, got, "read _")
}
