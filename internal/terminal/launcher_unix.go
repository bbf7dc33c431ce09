//go:build !windows && !darwin

package terminal

import (
	"os/exec"
	"syscall"
)

func sysProcAttr() *syscall.SysProcAttr {
	return &syscall.SysProcAttr{Setsid: true}
}

func (l *Launcher) command(dir, command string) (*exec.Cmd, error) {
	term, err := l.Detect()
	if err != nil {
		return nil, err
	}
	return exec.Command(term, l.argv(term, dir, command)...), nil
}

// argv returns emulator-specific arguments that run the shell script.
func (l *Launcher) argv(term, dir, command string) []string {
	run := []string{l.shell, "-ic", l.script(dir, command)}
	switch term {
	case "gnome-terminal":
		return append([]string{"--"}, run...)
	case "xfce4-terminal":
		return append([]string{"-x"}, run...)
	case "kitty":
		return run
	case "wezterm":
		return append([]string{"start", "--cwd", dir, "--"}, run...)
	default:
		// konsole, xterm, alacritty and x-terminal-emulator all take -e.
		return append([]string{"-e"}, run...)
	}
}
