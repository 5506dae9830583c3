package storage

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"sort"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/osfs"
	"github.com/google/uuid"

	"github.com/tallyfy/denizen-assets/internal/entity"
)

type FileStorage interface {
	List(dir string) ([]fs.FileInfo, error)
	Open(path string) (io.ReadCloser, error)
	Save(path string, data io.Reader) error
	Exists(path string) bool
	Remove(path string) error
	EnsureDir(dir string, create bool) error
}

type fileStorage struct {
	fs billy.Filesystem
}

// NewFileStorage roots all paths at basePath; paths that climb out of it
// are rejected by the chroot.
func NewFileStorage(basePath string) FileStorage {
	if basePath == "" {
		basePath = "."
	}
	return &fileStorage{fs: osfs.New(basePath)}
}

func NewFileStorageFS(filesystem billy.Filesystem) FileStorage {
	return &fileStorage{fs: filesystem}
}

func (s *fileStorage) List(dir string) ([]fs.FileInfo, error) {
	entries, err := s.fs.ReadDir(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", entity.ErrSourceDirMissing, dir)
		}
		return nil, err
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })
	return entries, nil
}

func (s *fileStorage) Open(path string) (io.ReadCloser, error) {
	return s.fs.Open(path)
}

// Save writes into a temp file next to the target and renames it into
// place, so a failed encode never leaves a truncated output behind.
// The parent dir must already exist; osfs would create it otherwise.
func (s *fileStorage) Save(name string, data io.Reader) error {
	dir := path.Dir(name)
	if info, err := s.fs.Stat(dir); err != nil || !info.IsDir() {
		return fmt.Errorf("%w: %s", entity.ErrOutputDirMissing, dir)
	}

	tmpName := path.Join(dir, "."+path.Base(name)+"."+uuid.NewString()+".tmp")

	tmp, err := s.fs.OpenFile(tmpName, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return err
	}

	if _, err = io.Copy(tmp, data); err != nil {
		tmp.Close()
		s.fs.Remove(tmpName)
		return err
	}
	if err = tmp.Close(); err != nil {
		s.fs.Remove(tmpName)
		return err
	}
	if err = s.fs.Rename(tmpName, name); err != nil {
		s.fs.Remove(tmpName)
		return err
	}
	return nil
}

func (s *fileStorage) Remove(path string) error {
	return s.fs.Remove(path)
}

func (s *fileStorage) Exists(path string) bool {
	_, err := s.fs.Stat(path)
	return err == nil
}

func (s *fileStorage) EnsureDir(dir string, create bool) error {
	info, err := s.fs.Stat(dir)
	switch {
	case err == nil && info.IsDir():
		return nil
	case err == nil:
		return fmt.Errorf("%w: %s is not a directory", entity.ErrOutputDirMissing, dir)
	case !errors.Is(err, fs.ErrNotExist):
		return err
	}

	if !create {
		return fmt.Errorf("%w: %s", entity.ErrOutputDirMissing, dir)
	}
	return s.fs.MkdirAll(dir, 0o755)
}
