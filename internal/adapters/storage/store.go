// Package storage keeps template and output bytes on an afero filesystem,
// one flat directory per store.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path"
	"strings"

	"github.com/spf13/afero"

	"github.com/mgulati3/ASU-BMF-FILLER/internal/ports"
)

// Store is a ports.BlobStore rooted at dir.
type Store struct {
	fs  afero.Fs
	dir string
}

var _ ports.BlobStore = (*Store)(nil)

// New returns a store under dir, creating the directory if needed.
func New(fsys afero.Fs, dir string) (*Store, error) {
	if ok, _ := afero.DirExists(fsys, dir); ok {
		return &Store{fs: fsys, dir: dir}, nil
	}
	if err := fsys.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create storage dir %s: %w", dir, err)
	}
	return &Store{fs: fsys, dir: dir}, nil
}

// NewOS is New over the real filesystem.
func NewOS(dir string) (*Store, error) {
	return New(afero.NewOsFs(), dir)
}

// ValidName reports whether name is a bare file name safe to join to the
// store directory.
func ValidName(name string) bool {
	return name != "" && name != "." && name != ".." &&
		!strings.ContainsAny(name, `/\`) && !strings.ContainsRune(name, 0)
}

func (s *Store) path(name string) (string, error) {
	if !ValidName(name) {
		return "", fmt.Errorf("invalid file name %q", name)
	}
	return path.Join(s.dir, name), nil
}

func (s *Store) Put(_ context.Context, name string, data []byte) error {
	p, err := s.path(name)
	if err != nil {
		return err
	}
	if err := afero.WriteFile(s.fs, p, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", name, err)
	}
	return nil
}

func (s *Store) Get(_ context.Context, name string) ([]byte, error) {
	p, err := s.path(name)
	if err != nil {
		return nil, err
	}
	data, err := afero.ReadFile(s.fs, p)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%s: %w", name, ports.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", name, err)
	}
	return data, nil
}
