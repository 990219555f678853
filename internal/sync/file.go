package sync

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// FileDestination writes JSONL exports to a local file. Each write replaces
// the file atomically, so readers never see a partial export.
type FileDestination struct {
	path string
}

// NewFileDestination creates a destination that writes to path.
func NewFileDestination(path string) *FileDestination {
	return &FileDestination{path: path}
}

func (d *FileDestination) Name() string {
	return "file://" + d.path
}

func (d *FileDestination) Write(_ context.Context, data []byte) error {
	dir := filepath.Dir(d.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("mkdir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(d.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name()) //nolint:errcheck // no-op after rename

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), d.path); err != nil {
		return fmt.Errorf("rename: %w", err)
	}
	return nil
}

// Open returns the most recent export written to the file.
func (d *FileDestination) Open(_ context.Context) (io.ReadCloser, error) {
	return os.Open(d.path)
}
