//go:build windows

package procscan

import (
	"context"
	"fmt"
)

const cimQuery = "Get-CimInstance Win32_Process | Select-Object ProcessId,CommandLine | ConvertTo-Json -Compress"

// Working directories of other processes are not exposed on Windows, so every
// entry is reported with UnknownCwd.
func (c *Census) list(ctx context.Context) ([]Process, error) {
	out, err := c.run(ctx, "powershell", "-NoProfile", "-Command", cimQuery)
	if err != nil {
		return nil, fmt.Errorf("Get-CimInstance: %w", err)
	}
	return parseCim(out), nil
}
