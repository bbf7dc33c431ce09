// Package gitcmd shells out to git for branch metadata and clones.
package gitcmd

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// readOnly builds a git command that won't take optional locks, so polling a
// repository never collides with the operator's own git operations.
func readOnly(ctx context.Context, dir string, args ...string) *exec.Cmd {
	cmd := exec.CommandContext(ctx, "git", append([]string{"--no-optional-locks"}, args...)...)
	cmd.Dir = dir
	return cmd
}

// Info is the branch metadata attached to a project.
type Info struct {
	Branch string
	Others []string
}

// CurrentBranch returns the checked-out branch of the repository at dir.
func CurrentBranch(ctx context.Context, dir string) (string, error) {
	out, err := readOnly(ctx, dir, "rev-parse", "--abbrev-ref", "HEAD").Output()
	if err != nil {
		return "", fmt.Errorf("git rev-parse in %s: %w", dir, err)
	}
	return strings.TrimSpace(string(out)), nil
}

// Branches lists local branch names of the repository at dir.
func Branches(ctx context.Context, dir string) ([]string, error) {
	out, err := readOnly(ctx, dir, "branch", "--format=%(refname:short)").Output()
	if err != nil {
		return nil, fmt.Errorf("git branch in %s: %w", dir, err)
	}
	return parseBranches(string(out)), nil
}

// Lookup returns branch metadata for dir. Any git failure yields an empty
// Info and the error, which callers are free to ignore.
func Lookup(ctx context.Context, dir string) (Info, error) {
	branch, err := CurrentBranch(ctx, dir)
	if err != nil {
		return Info{}, err
	}
	all, err := Branches(ctx, dir)
	if err != nil {
		return Info{Branch: branch}, err
	}
	return Info{Branch: branch, Others: excluding(all, branch)}, nil
}

func parseBranches(out string) []string {
	var branches []string
	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			branches = append(branches, line)
		}
	}
	return branches
}

func excluding(all []string, current string) []string {
	out := make([]string, 0, len(all))
	for _, b := range all {
		if b != current {
			out = append(out, b)
		}
	}
	return out
}
