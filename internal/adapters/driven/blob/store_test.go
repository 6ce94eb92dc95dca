package blob

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/DalMakkhani/IntelliBase/internal/core/domain"
)

func newTestStore(t *testing.T) *Store {
	store, err := NewStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	return store
}

func TestStore_SaveLoadDelete(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	data := []byte("file contents")

	path, err := store.Save(ctx, "doc-1", "notes.pdf", data)
	if err != nil {
		t.Fatal(err)
	}
	if filepath.Base(path) != "notes.pdf" {
		t.Errorf("unexpected saved path %s", path)
	}

	loaded, err := store.Load(ctx, "doc-1")
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(loaded, data) {
		t.Errorf("loaded bytes differ: %q", loaded)
	}

	if err := store.Delete(ctx, "doc-1"); err != nil {
		t.Fatal(err)
	}
	if _, err := store.Load(ctx, "doc-1"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected ErrNotFound after delete, got %v", err)
	}
}

func TestStore_LoadMissing(t *testing.T) {
	store := newTestStore(t)
	if _, err := store.Load(context.Background(), "missing"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestStore_StripsPathComponents(t *testing.T) {
	store := newTestStore(t)
	path, err := store.Save(context.Background(), "doc-1", "../../etc/passwd", []byte("x"))
	if err != nil {
		t.Fatal(err)
	}
	if filepath.Base(path) != "passwd" {
		t.Errorf("expected sanitized filename, got %s", path)
	}
	rel, err := filepath.Rel(store.root, path)
	if err != nil || len(rel) >= 2 && rel[:2] == ".." {
		t.Errorf("saved file escaped the store root: %s", path)
	}
}

func TestStore_DeleteMissingIsNoop(t *testing.T) {
	store := newTestStore(t)
	if err := store.Delete(context.Background(), "missing"); err != nil {
		t.Errorf("expected no error, got %v", err)
	}
}

func TestNewStore_CreatesRoot(t *testing.T) {
	root := filepath.Join(t.TempDir(), "nested", "uploads")
	if _, err := NewStore(root); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(root); err != nil {
		t.Errorf("root not created: %v", err)
	}
}
