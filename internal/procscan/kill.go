package procscan

import (
	"context"
	"os"
)

// StopResult reports what a stop request found and terminated.
type StopResult struct {
	Matched int
	Killed  int
	Errors  []error
}

// KillInPath terminates every process attributed to projectPath. It never
// targets the calling process or its parent.
func (c *Census) KillInPath(ctx context.Context, projectPath string, projects []string) (StopResult, error) {
	procs, err := c.List(ctx)
	if err != nil {
		return StopResult{}, err
	}
	self, parent := os.Getpid(), os.Getppid()
	var res StopResult
	for _, p := range Attributed(procs, projectPath, projects) {
		if p.PID == self || p.PID == parent {
			continue
		}
		res.Matched++
		if err := Kill(p.PID); err != nil {
			c.logger.Debug("kill failed", "pid", p.PID, "err", err)
			res.Errors = append(res.Errors, err)
			continue
		}
		res.Killed++
	}
	c.logger.Info("stopped project processes", "path", projectPath, "matched", res.Matched, "killed", res.Killed)
	return res, nil
}
