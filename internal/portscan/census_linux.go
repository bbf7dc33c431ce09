//go:build linux

package portscan

import (
	"context"
	"fmt"
)

func (c *Census) list(ctx context.Context) (map[int]int, error) {
	out, err := c.run(ctx, "ss", "-tlnpH")
	if err != nil {
		return nil, fmt.Errorf("ss: %w", err)
	}
	return c.parseSS(string(out)), nil
}
