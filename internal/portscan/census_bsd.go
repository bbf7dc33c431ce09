//go:build darwin || freebsd || openbsd || netbsd

package portscan

import (
	"context"
	"fmt"
)

func (c *Census) list(ctx context.Context) (map[int]int, error) {
	out, err := c.run(ctx, "lsof", "-nP", "-iTCP", "-sTCP:LISTEN")
	if err != nil {
		// lsof exits 1 when nothing matches.
		if len(out) == 0 {
			return map[int]int{}, nil
		}
		return nil, fmt.Errorf("lsof: %w", err)
	}
	return c.parseLsof(string(out)), nil
}
