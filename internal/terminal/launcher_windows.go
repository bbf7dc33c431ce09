//go:build windows

package terminal

import (
	"os/exec"
	"syscall"
)

const (
	createNewProcessGroup = 0x00000200
	detachedProcess       = 0x00000008
)

func sysProcAttr() *syscall.SysProcAttr {
	return &syscall.SysProcAttr{CreationFlags: createNewProcessGroup | detachedProcess}
}

func (l *Launcher) command(dir, command string) (*exec.Cmd, error) {
	if _, err := l.lookPath("cmd"); err != nil {
		return nil, ErrNoTerminal
	}
	return exec.Command("cmd", "/c", "start", "", "cmd", "/k", `cd /d "`+dir+`" && `+command), nil
}
