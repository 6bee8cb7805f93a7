package source

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

// FileSource reads the raw JSON arrays from a local directory, one
// <resource>.json file each. Used for fixtures and offline runs.
type FileSource struct {
	dir string
}

// NewFileSource creates a file data source rooted at dir.
func NewFileSource(dir string) (*FileSource, error) {
	if dir == "" {
		return nil, fmt.Errorf("file source requires a directory")
	}
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("file source: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("file source: %s is not a directory", dir)
	}
	return &FileSource{dir: dir}, nil
}

// Fetch reads <dir>/<resource>.json.
func (s *FileSource) Fetch(ctx context.Context, resource string) ([]byte, error) {
	if err := validResource(resource); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(filepath.Join(s.dir, resource+".json"))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", resource, err)
	}
	return data, nil
}

// Ping verifies the directory still exists.
func (s *FileSource) Ping(ctx context.Context) error {
	_, err := os.Stat(s.dir)
	return err
}

// Close is a no-op.
func (s *FileSource) Close() error {
	return nil
}
