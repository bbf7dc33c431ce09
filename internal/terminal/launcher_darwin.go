//go:build darwin

package terminal

import (
	"os/exec"
	"strings"
	"syscall"
)

func sysProcAttr() *syscall.SysProcAttr {
	return &syscall.SysProcAttr{Setsid: true}
}

func (l *Launcher) command(dir, command string) (*exec.Cmd, error) {
	if _, err := l.lookPath("osascript"); err != nil {
		return nil, ErrNoTerminal
	}
	script := strings.ReplaceAll(l.script(dir, command), `\`, `\\`)
	script = strings.ReplaceAll(script, `"`, `\"`)
	apple := `tell application "Terminal" to do script "` + script + `"`
	return exec.Command("osascript", "-e", apple, "-e", `tell application "Terminal" to activate`), nil
}
