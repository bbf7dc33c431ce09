//go:build !linux && !darwin && !freebsd && !openbsd && !netbsd && !windows

package procscan

import (
	"context"
	"errors"
)

func (c *Census) list(context.Context) ([]Process, error) {
	return nil, errors.New("process census is not supported on this platform")
}
