package artifacts

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

// DirStore mirrors artifacts to a local directory with one sub-folder per kind.
type DirStore struct {
	root string
}

func NewDirStore(root string) *DirStore {
	return &DirStore{root: root}
}

func (s *DirStore) Name() string { return "dir:" + s.root }

func (s *DirStore) Put(_ context.Context, kind Kind, name, content string) (string, error) {
	dir := filepath.Join(s.root, string(kind)+"s")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create %s folder: %w", kind, err)
	}
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return "", fmt.Errorf("write %s: %w", name, err)
	}
	rel, err := filepath.Rel(s.root, path)
	if err != nil {
		return path, nil
	}
	return rel, nil
}
