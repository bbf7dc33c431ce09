//go:build windows

package portscan

import (
	"context"
	"fmt"
)

func (c *Census) list(ctx context.Context) (map[int]int, error) {
	out, err := c.run(ctx, "netstat", "-ano")
	if err != nil {
		return nil, fmt.Errorf("netstat: %w", err)
	}
	return c.parseNetstat(string(out)), nil
}
