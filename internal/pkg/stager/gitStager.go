package stager

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/go-git/go-git/v5"
	"github.com/sirupsen/logrus"
)

type gitStager struct {
	root string
}

// NewGitStager stages through go-git, finding the enclosing repository of
// root the same way the git binary does.
func NewGitStager(root string) Stager {
	return &gitStager{root: root}
}

func (s *gitStager) Stage(ctx context.Context, dirs ...string) error {
	if len(dirs) == 0 {
		return nil
	}

	root, err := resolve(s.root)
	if err != nil {
		return err
	}

	repo, err := git.PlainOpenWithOptions(root, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return fmt.Errorf("failed to open repository at %q: %w", root, err)
	}

	worktree, err := repo.Worktree()
	if err != nil {
		return fmt.Errorf("failed to open worktree: %w", err)
	}

	top, err := resolve(worktree.Filesystem.Root())
	if err != nil {
		return err
	}

	for _, dir := range dirs {
		if err := ctx.Err(); err != nil {
			return err
		}

		rel, err := filepath.Rel(top, filepath.Join(root, dir))
		if err != nil {
			return wrapDir(err, dir)
		}
		if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
			return wrapDir(fmt.Errorf("outside of repository %q", top), dir)
		}

		if _, err := worktree.Add(filepath.ToSlash(rel)); err != nil {
			return wrapDir(err, dir)
		}
		logrus.WithField("dir", dir).Debug("Staged output dir")
	}
	return nil
}

func resolve(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	return filepath.EvalSymlinks(abs)
}
