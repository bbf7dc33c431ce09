//go:build !windows

package procscan

import (
	"fmt"
	"syscall"
)

// Kill sends SIGKILL to pid. When pid leads its own process group (an npm
// job started by an interactive shell) the whole group is killed so child
// servers go with it.
func Kill(pid int) error {
	if pgid, err := syscall.Getpgid(pid); err == nil && pgid == pid {
		if err := syscall.Kill(-pid, syscall.SIGKILL); err == nil {
			return nil
		}
	}
	if err := syscall.Kill(pid, syscall.SIGKILL); err != nil {
		return fmt.Errorf("kill %d: %w", pid, err)
	}
	return nil
}
