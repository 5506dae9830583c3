package stager

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"
)

type execStager struct {
	root   string
	binary string
}

// NewExecStager runs `git add .` inside every dir with the git binary on PATH.
func NewExecStager(root string) Stager {
	return &execStager{root: root, binary: "git"}
}

func (s *execStager) Stage(ctx context.Context, dirs ...string) error {
	for _, dir := range dirs {
		cmd := exec.CommandContext(ctx, s.binary, "add", ".")
		cmd.Dir = filepath.Join(s.root, dir)

		var stderr bytes.Buffer
		cmd.Stderr = &stderr

		if err := cmd.Run(); err != nil {
			if msg := strings.TrimSpace(stderr.String()); msg != "" {
				err = fmt.Errorf("%w: %s", err, msg)
			}
			return wrapDir(err, dir)
		}
		logrus.WithField("dir", dir).Debug("Staged output dir")
	}
	return nil
}
