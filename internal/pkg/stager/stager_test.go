package stager

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/go-git/go-git/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var outputDirs = []string{"assets-small", "assets-medium", "assets-large"}

func initRepo(t *testing.T) (string, *git.Repository) {
	t.Helper()
	root := t.TempDir()
	repo, err := git.PlainInit(root, false)
	require.NoError(t, err)

	for _, dir := range outputDirs {
		require.NoError(t, os.Mkdir(filepath.Join(root, dir), 0o755))
		require.NoError(t, os.WriteFile(filepath.Join(root, dir, "photo.jpg"), []byte("jpeg"), 0o644))
	}
	require.NoError(t, os.Mkdir(filepath.Join(root, "assets"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "assets", "photo.jpg"), []byte("src"), 0o644))
	return root, repo
}

func assertStaged(t *testing.T, repo *git.Repository) {
	t.Helper()
	wt, err := repo.Worktree()
	require.NoError(t, err)
	status, err := wt.Status()
	require.NoError(t, err)

	for _, dir := range outputDirs {
		assert.Equal(t, git.Added, status.File(dir+"/photo.jpg").Staging, dir)
	}
	// source dir is left alone
	assert.Equal(t, git.Untracked, status.File("assets/photo.jpg").Staging)
}

func TestGitStagerStagesOutputDirs(t *testing.T) {
	root, repo := initRepo(t)

	s, err := New("gogit", root)
	require.NoError(t, err)
	require.NoError(t, s.Stage(context.Background(), outputDirs...))

	assertStaged(t, repo)
}

func TestGitStagerFromSubdirectory(t *testing.T) {
	root, repo := initRepo(t)
	site := filepath.Join(root, "site")
	require.NoError(t, os.Mkdir(site, 0o755))
	require.NoError(t, os.Mkdir(filepath.Join(site, "assets-small"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(site, "assets-small", "a.jpg"), []byte("jpeg"), 0o644))

	require.NoError(t, NewGitStager(site).Stage(context.Background(), "assets-small"))

	wt, err := repo.Worktree()
	require.NoError(t, err)
	status, err := wt.Status()
	require.NoError(t, err)
	assert.Equal(t, git.Added, status.File("site/assets-small/a.jpg").Staging)
}

func TestGitStagerWithoutRepository(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(root, "assets-small"), 0o755))

	err := NewGitStager(root).Stage(context.Background(), "assets-small")
	assert.ErrorIs(t, err, git.ErrRepositoryNotExists)
}

func TestGitStagerCanceled(t *testing.T) {
	root, _ := initRepo(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := NewGitStager(root).Stage(ctx, outputDirs...)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestExecStager(t *testing.T) {
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git binary not available")
	}
	root, repo := initRepo(t)

	s, err := New("exec", root)
	require.NoError(t, err)
	require.NoError(t, s.Stage(context.Background(), outputDirs...))

	assertStaged(t, repo)
}

func TestExecStagerMissingDir(t *testing.T) {
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git binary not available")
	}
	root, _ := initRepo(t)

	err := NewExecStager(root).Stage(context.Background(), "assets-huge")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "assets-huge")
}

func TestNew(t *testing.T) {
	s, err := New("none", t.TempDir())
	require.NoError(t, err)
	assert.NoError(t, s.Stage(context.Background(), "anything"))

	_, err = New("svn", ".")
	assert.Error(t, err)
}
