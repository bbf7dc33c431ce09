//go:build linux

package procscan

import (
	"context"
	"fmt"
	"strconv"
)

func (c *Census) list(ctx context.Context) ([]Process, error) {
	out, err := c.run(ctx, "ps", "-eo", "pid=,tty=,args=")
	if err != nil {
		return nil, fmt.Errorf("ps: %w", err)
	}
	procs := parsePS(string(out))
	for i := range procs {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		cwd, err := c.readlink("/proc/" + strconv.Itoa(procs[i].PID) + "/cwd")
		if err != nil {
			// Permission denied or the process already exited.
			continue
		}
		procs[i].Cwd = cwd
	}
	return procs, nil
}
