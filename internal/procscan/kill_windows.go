//go:build windows

package procscan

import (
	"fmt"
	"os/exec"
	"strconv"
)

// Kill terminates pid and its child tree.
func Kill(pid int) error {
	if err := exec.Command("taskkill", "/T", "/F", "/PID", strconv.Itoa(pid)).Run(); err != nil {
		return fmt.Errorf("taskkill failed for pid %d: %w", pid, err)
	}
	return nil
}
