package project

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"golang.org/x/sync/errgroup"

	"github.com/marcus/nodedeck/internal/gitcmd"
)

// DefaultMaxDepth bounds how deep Scan descends below the root.
const DefaultMaxDepth = 5

// IgnoreDirs are directory names never descended into.
var IgnoreDirs = map[string]bool{
	"node_modules": true,
	".next":        true,
	".git":         true,
	"dist":         true,
	"build":        true,
}

// ErrRootInaccessible is returned when the scan root cannot be read.
var ErrRootInaccessible = errors.New("project directory is not accessible")

const gitParallelism = 8

// GitLookup resolves branch metadata for a directory.
type GitLookup func(ctx context.Context, dir string) (gitcmd.Info, error)

type scanOptions struct {
	maxDepth int
	logger   *slog.Logger
	git      GitLookup
}

// Option configures Scan.
type Option func(*scanOptions)

// WithMaxDepth sets the recursion bound. The root is depth 0 and directories
// at maxDepth are not read.
func WithMaxDepth(n int) Option {
	return func(o *scanOptions) {
		if n > 0 {
			o.maxDepth = n
		}
	}
}

// WithLogger sets the logger used for per-entry failures.
func WithLogger(l *slog.Logger) Option {
	return func(o *scanOptions) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithGit replaces the git metadata lookup. A nil lookup disables it.
func WithGit(fn GitLookup) Option {
	return func(o *scanOptions) { o.git = fn }
}

// Scan finds every package.json under root and returns the projects sorted
// by name. Only an unreadable root is an error: unreadable subdirectories,
// malformed manifests and git failures are logged and skipped.
func Scan(ctx context.Context, root string, opts ...Option) ([]Project, error) {
	o := scanOptions{maxDepth: DefaultMaxDepth, logger: slog.Default(), git: gitcmd.Lookup}
	for _, opt := range opts {
		opt(&o)
	}

	root, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRootInaccessible, err)
	}
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRootInaccessible, err)
	}

	s := &scanner{opts: o}
	s.visit(ctx, root, entries, 0)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if o.git != nil {
		s.enrich(ctx)
	}
	Sort(s.found)
	return s.found, nil
}

type scanner struct {
	opts  scanOptions
	found []Project
}

func (s *scanner) visit(ctx context.Context, dir string, entries []os.DirEntry, depth int) {
	for _, e := range entries {
		if ctx.Err() != nil {
			return
		}
		name := e.Name()
		if e.IsDir() {
			if IgnoreDirs[name] || depth+1 >= s.opts.maxDepth {
				continue
			}
			child := filepath.Join(dir, name)
			sub, err := os.ReadDir(child)
			if err != nil {
				s.opts.logger.Warn("skipping unreadable directory", "path", child, "err", err)
				continue
			}
			s.visit(ctx, child, sub, depth+1)
			continue
		}
		if name == ManifestName && e.Type().IsRegular() {
			if p, ok := s.load(dir); ok {
				s.found = append(s.found, p)
			}
		}
	}
}

func (s *scanner) load(dir string) (Project, bool) {
	m, err := ReadManifest(dir)
	if err != nil {
		s.opts.logger.Warn("skipping manifest", "path", filepath.Join(dir, ManifestName), "err", err)
		return Project{}, false
	}
	name := m.Name
	if name == "" {
		name = filepath.Base(dir)
	}
	fw, cmd := Classify(m.Scripts)
	return Project{Path: dir, Name: name, Framework: fw, Command: cmd}, true
}

// enrich fills git metadata with bounded parallelism. Each goroutine writes
// only its own slice element.
func (s *scanner) enrich(ctx context.Context) {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(gitParallelism)
	for i := range s.found {
		p := &s.found[i]
		g.Go(func() error {
			info, err := s.opts.git(gctx, p.Path)
			if err != nil {
				s.opts.logger.Debug("no git metadata", "path", p.Path, "err", err)
				return nil
			}
			p.GitBranch = info.Branch
			p.AvailableBranches = info.Others
			return nil
		})
	}
	_ = g.Wait()
}
