//go:build !windows

package deps

import (
	"context"
	"fmt"
	"os/exec"
)

func measureDir(ctx context.Context, dir string) (int64, error) {
	out, err := exec.CommandContext(ctx, "du", "-sk", dir).Output()
	if err != nil {
		return 0, fmt.Errorf("du %s: %w", dir, err)
	}
	return parseKilobytes(string(out))
}
