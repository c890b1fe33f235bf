package media

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"inkwell/internal/middleware"
)

// DiskStore writes images below a local root, e.g. the static directory.
type DiskStore struct {
	root string
}

// NewDiskStore returns a Store rooted at root.
func NewDiskStore(root string) *DiskStore {
	return &DiskStore{root: root}
}

func (s *DiskStore) Save(ctx context.Context, kind Kind, up Upload) (string, error) {
	processed, err := Process(kind, up)
	if err != nil {
		return "", err
	}

	rel := relativePath(kind, processed.Name)
	if err := writeBytesToFile(s.absolute(rel), processed.Data); err != nil {
		return "", fmt.Errorf("write %s: %w", rel, err)
	}
	return rel, nil
}

func (s *DiskStore) Remove(ctx context.Context, relPath string) bool {
	rel, ok := cleanRelative(relPath)
	if !ok {
		return false
	}
	if err := os.Remove(s.absolute(rel)); err != nil {
		if !os.IsNotExist(err) {
			middleware.Logger.WarnContext(ctx, "Failed to remove media file",
				slog.String("path", rel),
				slog.String("error", err.Error()),
			)
		}
		return false
	}
	return true
}

func (s *DiskStore) absolute(rel string) string {
	return filepath.Join(s.root, filepath.FromSlash(rel))
}

func writeBytesToFile(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}
