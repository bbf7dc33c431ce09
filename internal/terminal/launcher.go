// Package terminal opens commands in a new, detached terminal emulator window.
package terminal

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"strings"
)

// ErrNoTerminal is returned when none of the preferred emulators is installed.
var ErrNoTerminal = errors.New("no supported terminal emulator found")

// Launcher starts commands in the first available terminal emulator.
type Launcher struct {
	// Preference lists emulator binaries in the order they are tried.
	Preference []string
	Logger     *slog.Logger

	lookPath func(string) (string, error)
	start    func(*exec.Cmd) error
	shell    string
}

// New returns a launcher trying preference in order.
func New(preference []string, logger *slog.Logger) *Launcher {
	if logger == nil {
		logger = slog.Default()
	}
	shell := os.Getenv("SHELL")
	if shell == "" {
		shell = "/bin/sh"
	}
	return &Launcher{
		Preference: preference,
		Logger:     logger,
		lookPath:   exec.LookPath,
		start:      startDetached,
		shell:      shell,
	}
}

// Detect returns the first preferred emulator found on PATH.
func (l *Launcher) Detect() (string, error) {
	for _, name := range l.Preference {
		if _, err := l.lookPath(name); err == nil {
			return name, nil
		}
	}
	return "", ErrNoTerminal
}

// Open runs command inside dir in a new terminal window. It returns once the
// window process has been spawned; the window outlives this process.
func (l *Launcher) Open(dir, command string) error {
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		return fmt.Errorf("invalid or inaccessible path: %s", dir)
	}
	cmd, err := l.command(dir, command)
	if err != nil {
		return err
	}
	cmd.Dir = dir
	cmd.Stdin = nil
	cmd.Stdout = nil
	cmd.Stderr = nil
	cmd.SysProcAttr = sysProcAttr()
	if err := l.start(cmd); err != nil {
		return fmt.Errorf("starting %s: %w", cmd.Path, err)
	}
	l.Logger.Info("opened terminal", "dir", dir, "command", command)
	return nil
}

// Quote wraps s in single quotes for a POSIX shell.
func Quote(s string) string {
	if s == "" {
		return "''"
	}
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}

// script is the shell line each window runs: enter dir, run command, then
// leave an interactive shell open.
func (l *Launcher) script(dir, command string) string {
	return "cd " + Quote(dir) + " && " + command + "; exec " + Quote(l.shell)
}

func startDetached(cmd *exec.Cmd) error {
	if err := cmd.Start(); err != nil {
		return err
	}
	return cmd.Process.Release()
}
