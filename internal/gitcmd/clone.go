package gitcmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/marcus/nodedeck/internal/terminal"
)

// CloneTimeout bounds a non-interactive clone.
const CloneTimeout = 120 * time.Second

var (
	ErrInvalidURL              = errors.New("invalid git URL")
	ErrDestinationInaccessible = errors.New("invalid or inaccessible destination path")
	ErrDestinationExists       = errors.New("directory already exists")
	ErrAuthRequired            = errors.New("authentication required")
	ErrRepoNotFound            = errors.New("repository not found or access denied")
	ErrNetwork                 = errors.New("network error: could not resolve host")
	ErrCloneTimeout            = errors.New("clone timed out")
)

// Opener runs a command in an interactive terminal window.
type Opener interface {
	Open(dir, command string) error
}

// CloneResult describes a finished or handed-off clone.
type CloneResult struct {
	RepoName string
	Path     string
	// Interactive is true when the clone was handed to a terminal window and
	// has not necessarily finished.
	Interactive bool
}

// Cloner clones repositories into a destination directory.
type Cloner struct {
	Terminal Opener
	Timeout  time.Duration
	Logger   *slog.Logger

	run func(ctx context.Context, dir string, args ...string) ([]byte, error)
}

// NewCloner returns a cloner that falls back to term for interactive auth.
func NewCloner(term Opener, logger *slog.Logger) *Cloner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Cloner{Terminal: term, Timeout: CloneTimeout, Logger: logger, run: runGit}
}

// Clone validates url and clones it into dest. SSH remotes, and HTTPS remotes
// that fail on authentication, are handed to an interactive terminal.
func (c *Cloner) Clone(ctx context.Context, url, dest string) (CloneResult, error) {
	url = strings.TrimSpace(url)
	if !IsValidURL(url) {
		return CloneResult{}, ErrInvalidURL
	}
	info, err := os.Stat(dest)
	if err != nil || !info.IsDir() {
		return CloneResult{}, ErrDestinationInaccessible
	}

	name := RepoName(url)
	res := CloneResult{RepoName: name, Path: filepath.Join(dest, name)}
	if _, err := os.Stat(res.Path); err == nil {
		return CloneResult{}, fmt.Errorf("%w: %s", ErrDestinationExists, name)
	}

	if IsSSH(url) {
		return c.interactive(url, dest, res)
	}

	timeout := c.Timeout
	if timeout <= 0 {
		timeout = CloneTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	out, err := c.run(ctx, dest, "clone", url)
	if err == nil {
		c.Logger.Info("cloned repository", "url", url, "path", res.Path)
		return res, nil
	}
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return CloneResult{}, ErrCloneTimeout
	}

	cerr := classifyCloneError(string(out), err)
	if errors.Is(cerr, ErrAuthRequired) {
		c.Logger.Info("clone needs credentials, opening terminal", "url", url)
		// A failed clone may leave a partial directory behind.
		os.RemoveAll(res.Path)
		return c.interactive(url, dest, res)
	}
	return CloneResult{}, cerr
}

func (c *Cloner) interactive(url, dest string, res CloneResult) (CloneResult, error) {
	if c.Terminal == nil {
		return CloneResult{}, ErrAuthRequired
	}
	if err := c.Terminal.Open(dest, InteractiveCloneCommand(url)); err != nil {
		return CloneResult{}, fmt.Errorf("opening terminal for clone: %w", err)
	}
	res.Interactive = true
	return res, nil
}

// InteractiveCloneCommand is the shell line run in a terminal window.
func InteractiveCloneCommand(url string) string {
	return "git clone " + terminal.Quote(url) +
		` && echo && echo "Clone complete! Press Enter to close..." && read _`
}

func classifyCloneError(output string, err error) error {
	lower := strings.ToLower(output)
	switch {
	case strings.Contains(lower, "authentication failed"),
		strings.Contains(lower, "authentication required"),
		strings.Contains(lower, "could not read username"),
		strings.Contains(lower, "terminal prompts disabled"):
		return ErrAuthRequired
	case strings.Contains(lower, "repository not found"),
		strings.Contains(lower, "does not appear to be a git repository"):
		return ErrRepoNotFound
	case strings.Contains(lower, "could not resolve host"):
		return ErrNetwork
	}
	msg := strings.TrimSpace(output)
	if msg == "" {
		return fmt.Errorf("git clone failed: %w", err)
	}
	if i := strings.LastIndex(msg, "\n"); i >= 0 {
		msg = msg[i+1:]
	}
	return fmt.Errorf("git clone failed: %s", msg)
}

func runGit(ctx context.Context, dir string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = dir
	// Fail instead of waiting on a credential prompt nobody can see.
	cmd.Env = append(os.Environ(), "GIT_TERMINAL_PROMPT=0", "GIT_ASKPASS=")
	return cmd.CombinedOutput()
}
