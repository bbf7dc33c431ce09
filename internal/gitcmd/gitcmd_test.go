package gitcmd

import (
	"context"
	"os/exec"
	"strings"
	"testing"
)

func requireGit(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not installed")
	}
}

func gitIn(t *testing.T, dir string, args ...string) {
	t.Helper()
	cmd := exec.Command("git", args...)
	cmd.Dir = dir
	cmd.Env = append(cmd.Environ(),
		"GIT_AUTHOR_NAME=t", "GIT_AUTHOR_EMAIL=t@example.com",
		"GIT_COMMITTER_NAME=t", "GIT_COMMITTER_EMAIL=t@example.com")
	if out, err := cmd.CombinedOutput(); err != nil {
		t.Fatalf("git %v failed: %v (%s)", args, err, strings.TrimSpace(string(out)))
	}
}

func TestLookup_Repo(t *testing.T) {
	requireGit(t)
	dir := t.TempDir()
	gitIn(t, dir, "init", "-b", "main")
	gitIn(t, dir, "commit", "--allow-empty", "-m", "init")
	gitIn(t, dir, "branch", "feature/x")
	gitIn(t, dir, "branch", "fix")

	info, err := Lookup(context.Background(), dir)
	if err != nil {
		t.Fatalf("Lookup() error = %v", err)
	}
	if info.Branch != "main" {
		t.Errorf("Branch = %q, want main", info.Branch)
	}
	if len(info.Others) != 2 {
		t.Fatalf("Others = %v, want 2 branches", info.Others)
	}
	for _, b := range info.Others {
		if b == "main" {
			t.Errorf("current branch should be excluded, got %v", info.Others)
		}
	}
}

func TestLookup_NoRepo(t *testing.T) {
	requireGit(t)
	dir := t.TempDir()

	info, err := Lookup(context.Background(), dir)
	if err == nil {
		t.Error("expected error outside a repository")
	}
	if info.Branch != "" || len(info.Others) != 0 {
		t.Errorf("Info = %+v, want empty", info)
	}
}

func TestParseBranches(t *testing.T) {
	got := parseBranches("main\n  dev \n\nfeature/a\n")
	want := []string{"main", "dev", "feature/a"}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("got[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}
