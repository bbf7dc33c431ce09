package project

import (
	"errors"
	"fmt"
	"strings"

	"github.com/marcus/nodedeck/internal/deps"
)

var (
	ErrMissingDependencies = errors.New("Dependencies not installed. Run npm install first.")
	ErrNoScript            = errors.New("No dev or start script found in package.json")
	ErrNoScripts           = errors.New("No scripts section found in package.json")
)

// ScriptName returns the package.json script a dev command runs:
// "npm run dev" is "dev" and "npm start" is "start".
func ScriptName(command string) string {
	fields := strings.Fields(command)
	switch {
	case len(fields) >= 3 && fields[1] == "run":
		return fields[2]
	case len(fields) >= 2:
		return fields[1]
	}
	return ""
}

// CheckReadiness verifies a project can be launched: its dependencies are
// installed and the script behind its command still exists.
func CheckReadiness(p Project) error {
	if !deps.Exists(p.Path) {
		return ErrMissingDependencies
	}
	if !p.HasCommand() {
		return ErrNoScript
	}
	m, err := ReadManifest(p.Path)
	if err != nil {
		return fmt.Errorf("reading package.json: %w", err)
	}
	if m.Scripts == nil {
		return ErrNoScripts
	}
	script := ScriptName(p.Command)
	if _, ok := m.Scripts[script]; !ok {
		return fmt.Errorf("Script %q not found in package.json", script)
	}
	return nil
}
