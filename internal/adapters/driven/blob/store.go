// Package blob stores uploaded source files on the local filesystem.
// Each document gets its own directory keyed by document ID so the
// original filename survives round trips.
package blob

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/DalMakkhani/IntelliBase/internal/core/domain"
	"github.com/DalMakkhani/IntelliBase/internal/core/ports/driven"
)

var _ driven.FileStore = (*Store)(nil)

// Store keeps one subdirectory per document under root.
type Store struct {
	root string
}

// NewStore creates the root directory if needed.
func NewStore(root string) (*Store, error) {
	if root == "" {
		return nil, fmt.Errorf("blob store root directory is required")
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("creating blob root %s: %w", root, err)
	}
	return &Store{root: root}, nil
}

// Save writes the file under the document's directory and returns its path.
func (s *Store) Save(ctx context.Context, documentID, filename string, data []byte) (string, error) {
	// strip any path components from user-supplied filenames
	filename = filepath.Base(filename)
	if filename == "" || filename == "." || filename == string(filepath.Separator) {
		return "", fmt.Errorf("invalid filename")
	}

	dir := filepath.Join(s.root, documentID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating document directory: %w", err)
	}

	path := filepath.Join(dir, filename)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("writing %s: %w", path, err)
	}
	return path, nil
}

// Load reads the stored file for a document.
func (s *Store) Load(ctx context.Context, documentID string) ([]byte, error) {
	dir := filepath.Join(s.root, documentID)
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("reading document directory: %w", err)
	}

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		data, err := os.ReadFile(filepath.Join(dir, entry.Name()))
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", entry.Name(), err)
		}
		return data, nil
	}
	return nil, domain.ErrNotFound
}

// Delete removes the document's directory and everything in it.
func (s *Store) Delete(ctx context.Context, documentID string) error {
	dir := filepath.Join(s.root, documentID)
	if err := os.RemoveAll(dir); err != nil {
		return fmt.Errorf("removing document directory: %w", err)
	}
	return nil
}
