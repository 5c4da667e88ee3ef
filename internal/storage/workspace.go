package storage

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/google/uuid"
)

// Workspace is the per-job scratch directory holding the uploaded clip and
// every file derived from it. Close removes the directory and is safe to call
// more than once.
type Workspace struct {
	ID   string
	Dir  string
	once sync.Once
	err  error
}

// NewWorkspace creates <root>/<id>. An empty id gets a fresh UUID.
func NewWorkspace(root, id string) (*Workspace, error) {
	if id == "" {
		id = uuid.New().String()
	}
	if _, err := uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("workspace id %q is not a uuid", id)
	}

	dir := filepath.Join(root, id)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create workspace: %w", err)
	}
	return &Workspace{ID: id, Dir: dir}, nil
}

// ClipPath is where the uploaded clip is stored. The original filename only
// contributes its extension.
func (w *Workspace) ClipPath(originalName string) string {
	return filepath.Join(w.Dir, "clip"+strings.ToLower(filepath.Ext(originalName)))
}

// SaveClip streams r into the workspace and returns the stored path.
func (w *Workspace) SaveClip(originalName string, r io.Reader) (string, error) {
	path := w.ClipPath(originalName)
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create clip file: %w", err)
	}
	defer f.Close()

	if _, err := io.Copy(f, r); err != nil {
		return "", fmt.Errorf("failed to write clip file: %w", err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("failed to close clip file: %w", err)
	}
	return path, nil
}

// Close removes the workspace and everything in it.
func (w *Workspace) Close() error {
	w.once.Do(func() {
		if err := os.RemoveAll(w.Dir); err != nil && !os.IsNotExist(err) {
			w.err = err
		}
	})
	return w.err
}
