package media

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
)

// DiskStore keeps uploads in a flat directory on local disk.
type DiskStore struct {
	dir string
}

func NewDiskStore(dir string) (*DiskStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("media dir: %w", err)
	}
	return &DiskStore{dir: dir}, nil
}

// path rejects names that would escape the storage directory.
func (s *DiskStore) path(name string) (string, error) {
	if name != filepath.Base(name) || name == "." || name == ".." {
		return "", fs.ErrNotExist
	}
	return filepath.Join(s.dir, name), nil
}

func (s *DiskStore) Save(_ context.Context, name string, r io.Reader, size int64) error {
	p, err := s.path(name)
	if err != nil {
		return err
	}

	f, err := os.OpenFile(p, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return fmt.Errorf("media save: %w", err)
	}

	_, err = io.Copy(f, io.LimitReader(r, size))
	if closeErr := f.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		os.Remove(p)
		return fmt.Errorf("media save: %w", err)
	}

	return nil
}

func (s *DiskStore) Open(_ context.Context, name string) (io.ReadCloser, error) {
	p, err := s.path(name)
	if err != nil {
		return nil, err
	}
	return os.Open(p)
}

func (s *DiskStore) Exists(_ context.Context, name string) (bool, error) {
	p, err := s.path(name)
	if err != nil {
		return false, err
	}
	_, err = os.Stat(p)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	return false, err
}
