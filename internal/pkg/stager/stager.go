// Package stager adds freshly written tier outputs to the git index.
package stager

import (
	"context"
	"fmt"
)

type Stager interface {
	Stage(ctx context.Context, dirs ...string) error
}

// New returns the stager for mode. root is the working directory that tier
// dirs are relative to.
func New(mode, root string) (Stager, error) {
	switch mode {
	case "gogit", "":
		return NewGitStager(root), nil
	case "exec":
		return NewExecStager(root), nil
	case "none":
		return noopStager{}, nil
	default:
		return nil, fmt.Errorf("unknown stage mode %q", mode)
	}
}

type noopStager struct{}

func (noopStager) Stage(ctx context.Context, dirs ...string) error { return nil }

func wrapDir(err error, dir string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("failed to stage %q: %w", dir, err)
}
