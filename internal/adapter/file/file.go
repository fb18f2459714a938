// Package file persists the state as a single JSON document on disk.
package file

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"messenger/internal/domain"
)

// Repo reads and replaces the document at Path.
type Repo struct {
	Path string
}

// New returns a repository for the document at path.
func New(path string) *Repo {
	return &Repo{Path: path}
}

var _ domain.StateRepository = (*Repo)(nil)

// Load reads the whole document.
func (r *Repo) Load(ctx context.Context) (*domain.State, error) {
	data, err := os.ReadFile(r.Path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("file %s: %w", r.Path, domain.ErrStoreUnavailable)
	}
	if err != nil {
		return nil, fmt.Errorf("file %s: %w", r.Path, err)
	}
	return domain.DecodeState(data)
}

// Save writes the document to a temporary file next to Path and renames it
// over Path, so readers never observe a partial document.
func (r *Repo) Save(ctx context.Context, s *domain.State) error {
	data, err := domain.EncodeState(s)
	if err != nil {
		return err
	}

	dir := filepath.Dir(r.Path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("file %s: %v: %w", r.Path, err, domain.ErrStoreUnavailable)
	}

	tmp, err := os.CreateTemp(dir, ".state-*.json")
	if err != nil {
		return fmt.Errorf("file %s: %v: %w", r.Path, err, domain.ErrStoreUnavailable)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("file %s: %v: %w", r.Path, err, domain.ErrStoreUnavailable)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("file %s: %v: %w", r.Path, err, domain.ErrStoreUnavailable)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("file %s: %v: %w", r.Path, err, domain.ErrStoreUnavailable)
	}
	if err := os.Rename(tmp.Name(), r.Path); err != nil {
		return fmt.Errorf("file %s: %v: %w", r.Path, err, domain.ErrStoreUnavailable)
	}
	return nil
}
