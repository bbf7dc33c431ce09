//go:build !linux && !darwin && !freebsd && !openbsd && !netbsd && !windows

package portscan

import (
	"context"
	"errors"
)

func (c *Census) list(context.Context) (map[int]int, error) {
	return nil, errors.New("port census is not supported on this platform")
}
