//go:build windows

package deps

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
)

func measureDir(ctx context.Context, dir string) (int64, error) {
	quoted := "'" + strings.ReplaceAll(dir, "'", "''") + "'"
	script := "(Get-ChildItem -LiteralPath " + quoted +
		" -Recurse -Force -File -ErrorAction SilentlyContinue | Measure-Object -Property Length -Sum).Sum"
	out, err := exec.CommandContext(ctx, "powershell", "-NoProfile", "-Command", script).Output()
	if err != nil {
		return 0, fmt.Errorf("measure %s: %w", dir, err)
	}
	return parseBytes(string(out))
}
