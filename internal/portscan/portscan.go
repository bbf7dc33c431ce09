// Package portscan lists listening TCP ports and the processes that own them.
package portscan

import (
	"context"
	"log/slog"
	"os/exec"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// MinPort is the default floor; lower, well-known ports are ignored.
const MinPort = 3000

// Census enumerates listening sockets with the platform's tools.
type Census struct {
	MinPort int
	logger  *slog.Logger
	run     func(ctx context.Context, name string, args ...string) ([]byte, error)
}

// New returns a port census ignoring ports below minPort.
func New(minPort int, logger *slog.Logger) *Census {
	if minPort <= 0 {
		minPort = MinPort
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Census{MinPort: minPort, logger: logger, run: runCommand}
}

// Ports returns listening ports mapped to their owning pid (0 when the owner
// is hidden). Enumeration failures are logged and yield an empty map.
func (c *Census) Ports(ctx context.Context) map[int]int {
	ports, err := c.list(ctx)
	if err != nil {
		c.logger.Warn("port census failed", "err", err)
		return map[int]int{}
	}
	return ports
}

func runCommand(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).Output()
}

// add records port→pid, keeping the first owner seen and honoring the floor.
func (c *Census) add(ports map[int]int, port, pid int) {
	if port < c.MinPort || port > 65535 {
		return
	}
	if _, ok := ports[port]; !ok {
		ports[port] = pid
	}
}

var (
	ssPidPattern   = regexp.MustCompile(`pid=(\d+)`)
	trailingPort   = regexp.MustCompile(`:(\d+)$`)
	lsofListenPort = regexp.MustCompile(`:(\d+)\s+\(LISTEN\)`)
)

// parseSS reads `ss -tlnpH` output. The local address is the fourth column
// and the owner appears as users:(("node",pid=123,fd=20)) when visible.
func (c *Census) parseSS(out string) map[int]int {
	ports := make(map[int]int)
	for _, line := range strings.Split(out, "\n") {
		fields := strings.Fields(line)
		if len(fields) < 4 || fields[0] != "LISTEN" {
			continue
		}
		m := trailingPort.FindStringSubmatch(fields[3])
		if m == nil {
			continue
		}
		port, _ := strconv.Atoi(m[1])
		pid := 0
		if pm := ssPidPattern.FindStringSubmatch(line); pm != nil {
			pid, _ = strconv.Atoi(pm[1])
		}
		c.add(ports, port, pid)
	}
	return ports
}

// parseLsof reads `lsof -nP -iTCP -sTCP:LISTEN` output.
func (c *Census) parseLsof(out string) map[int]int {
	ports := make(map[int]int)
	for _, line := range strings.Split(out, "\n") {
		m := lsofListenPort.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 2 {
			continue
		}
		pid, err := strconv.Atoi(fields[1])
		if err != nil {
			continue
		}
		port, _ := strconv.Atoi(m[1])
		c.add(ports, port, pid)
	}
	return ports
}

// parseNetstat reads `netstat -ano` output, keeping TCP sockets in LISTENING
// state. The local address is the second column and the pid the last.
func (c *Census) parseNetstat(out string) map[int]int {
	ports := make(map[int]int)
	for _, line := range strings.Split(out, "\n") {
		fields := strings.Fields(line)
		if len(fields) < 5 || !strings.EqualFold(fields[0], "TCP") || !strings.EqualFold(fields[3], "LISTENING") {
			continue
		}
		local := fields[1]
		i := strings.LastIndex(local, ":")
		if i < 0 {
			continue
		}
		port, err := strconv.Atoi(local[i+1:])
		if err != nil {
			continue
		}
		pid, err := strconv.Atoi(fields[len(fields)-1])
		if err != nil {
			continue
		}
		c.add(ports, port, pid)
	}
	return ports
}

// Sorted returns the ports of a census in ascending order.
func Sorted(ports map[int]int) []int {
	out := make([]int, 0, len(ports))
	for p := range ports {
		out = append(out, p)
	}
	sort.Ints(out)
	return out
}

// PortsFor returns, in ascending order, the ports whose owner is in pids.
func PortsFor(ports map[int]int, pids []int) []int {
	if len(pids) == 0 {
		return nil
	}
	owned := make(map[int]bool, len(pids))
	for _, pid := range pids {
		owned[pid] = true
	}
	var out []int
	for port, pid := range ports {
		if pid != 0 && owned[pid] {
			out = append(out, port)
		}
	}
	sort.Ints(out)
	return out
}

var labels = map[int]string{
	3000: "Next.js/React",
	3001: "Alt React",
	4200: "Angular",
	5000: "Flask/Generic",
	5173: "Vite",
	8000: "Python/Django",
	8080: "Generic",
}

// Label names the framework conventionally bound to port, or "".
func Label(port int) string {
	return labels[port]
}
