//go:build darwin || freebsd || openbsd || netbsd

package procscan

import (
	"context"
	"fmt"
	"strconv"
	"strings"
)

func (c *Census) list(ctx context.Context) ([]Process, error) {
	out, err := c.run(ctx, "ps", "-eo", "pid=,tty=,args=")
	if err != nil {
		return nil, fmt.Errorf("ps: %w", err)
	}
	procs := parsePS(string(out))
	if len(procs) == 0 {
		return procs, nil
	}

	pids := make([]string, len(procs))
	for i, p := range procs {
		pids[i] = strconv.Itoa(p.PID)
	}
	// lsof exits non-zero when any pid vanished; keep whatever it printed.
	lsofOut, err := c.run(ctx, "lsof", "-a", "-d", "cwd", "-Fn", "-p", strings.Join(pids, ","))
	if err != nil && len(lsofOut) == 0 {
		c.logger.Debug("lsof cwd lookup failed", "err", err)
		return procs, nil
	}
	cwds := parseLsofCwd(string(lsofOut))
	for i := range procs {
		if cwd, ok := cwds[procs[i].PID]; ok {
			procs[i].Cwd = cwd
		}
	}
	return procs, nil
}
