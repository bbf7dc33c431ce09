package procscan

import (
	"strconv"
	"strings"
)

// parseLsofCwd reads `lsof -d cwd -Fn` field output ("p<pid>" then "n<path>").
func parseLsofCwd(out string) map[int]string {
	cwds := make(map[int]string)
	pid := -1
	for _, line := range strings.Split(out, "\n") {
		if len(line) < 2 {
			continue
		}
		switch line[0] {
		case 'p':
			n, err := strconv.Atoi(line[1:])
			if err != nil {
				pid = -1
				continue
			}
			pid = n
		case 'n':
			if pid >= 0 {
				cwds[pid] = line[1:]
			}
		}
	}
	return cwds
}
