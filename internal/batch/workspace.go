package batch

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/JonMunkholm/templatefill/internal/core"
)

// Workspace is a private scratch directory for one fill job. Nothing in it
// survives Close.
type Workspace struct {
	// ID is the job id the directory is named after.
	ID string
	// Dir is the absolute path of the directory.
	Dir string
}

// NewWorkspace creates a fresh directory under root, or under the system temp
// directory when root is empty. Two workspaces never share a directory.
func NewWorkspace(root string) (*Workspace, error) {
	id := uuid.NewString()
	dir, err := os.MkdirTemp(root, workspacePrefix+id[:8]+"-")
	if err != nil {
		return nil, fmt.Errorf("create workspace: %w", err)
	}
	return &Workspace{ID: id, Dir: dir}, nil
}

// Path joins elem onto the workspace directory.
func (w *Workspace) Path(elem ...string) string {
	return filepath.Join(append([]string{w.Dir}, elem...)...)
}

// Save copies r into the workspace at rel, creating parent directories.
// More than limit bytes fails with core.ErrFileTooLarge; limit <= 0 means no
// limit.
func (w *Workspace) Save(rel string, r io.Reader, limit int64) (string, error) {
	path := w.Path(rel)
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return "", fmt.Errorf("save %s: %w", rel, err)
	}

	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("save %s: %w", rel, err)
	}

	src := r
	if limit > 0 {
		src = io.LimitReader(r, limit+1)
	}
	n, err := io.Copy(f, src)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return "", fmt.Errorf("save %s: %w", rel, err)
	}
	if limit > 0 && n > limit {
		return "", fmt.Errorf("save %s: %w (limit %d bytes)", rel, core.ErrFileTooLarge, limit)
	}
	return path, nil
}

// Close removes the workspace and everything in it.
func (w *Workspace) Close() error {
	if err := os.RemoveAll(w.Dir); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove workspace %s: %w", w.ID, err)
	}
	return nil
}

// SafeName reduces a client-supplied file name to a bare base name, falling
// back to fallback when nothing usable remains.
func SafeName(name, fallback string) string {
	name = strings.ReplaceAll(name, `\`, "/")
	name = strings.TrimSpace(filepath.Base(name))
	switch name {
	case "", ".", "..", "/":
		return fallback
	}
	return name
}
