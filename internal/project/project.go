// Package project discovers Node.js projects under a root directory and
// classifies how each one is started.
package project

import (
	"slices"
	"strings"

	"github.com/cespare/xxhash/v2"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// Framework tags how a project's dev server was recognised.
type Framework string

const (
	FrameworkVite    Framework = "vite"
	FrameworkNext    Framework = "next"
	FrameworkReact   Framework = "react"
	FrameworkNode    Framework = "node"
	FrameworkUnknown Framework = "unknown"
)

// NoCommand marks a project without a recognised dev or start script.
const NoCommand = "N/A"

// Project is one directory containing a package.json.
type Project struct {
	Path              string
	Name              string
	Framework         Framework
	Command           string
	GitBranch         string
	AvailableBranches []string
}

// HasCommand reports whether the project has a launchable dev command.
func (p Project) HasCommand() bool {
	return p.Command != "" && p.Command != NoCommand
}

// Sort orders projects by name, case-insensitively and locale-aware, with
// the exact name and then the path as tie breakers.
func Sort(projects []Project) {
	c := collate.New(language.Und, collate.IgnoreCase)
	slices.SortStableFunc(projects, func(a, b Project) int {
		if r := c.CompareString(a.Name, b.Name); r != 0 {
			return r
		}
		if r := strings.Compare(a.Name, b.Name); r != 0 {
			return r
		}
		return strings.Compare(a.Path, b.Path)
	})
}

// Paths returns the project paths in list order.
func Paths(projects []Project) []string {
	out := make([]string, len(projects))
	for i, p := range projects {
		out[i] = p.Path
	}
	return out
}

// IndexOfName returns the index of the first project whose name matches
// name case-insensitively, or -1.
func IndexOfName(projects []Project, name string) int {
	for i, p := range projects {
		if strings.EqualFold(p.Name, name) {
			return i
		}
	}
	return -1
}

// Filter returns the projects whose name contains query, ignoring case.
func Filter(projects []Project, query string) []Project {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return projects
	}
	var out []Project
	for _, p := range projects {
		if strings.Contains(strings.ToLower(p.Name), query) {
			out = append(out, p)
		}
	}
	return out
}

// Fingerprint hashes everything a scan reports, so two scans producing the
// same list compare equal.
func Fingerprint(projects []Project) uint64 {
	d := xxhash.New()
	for _, p := range projects {
		d.WriteString(p.Path)
		d.WriteString("\x00")
		d.WriteString(p.Name)
		d.WriteString("\x00")
		d.WriteString(string(p.Framework))
		d.WriteString("\x00")
		d.WriteString(p.Command)
		d.WriteString("\x00")
		d.WriteString(p.GitBranch)
		d.WriteString("\x00")
		d.WriteString(strings.Join(p.AvailableBranches, "\x01"))
		d.WriteString("\x02")
	}
	return d.Sum64()
}
