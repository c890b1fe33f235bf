// Package media stores uploaded images for posts and profiles.
package media

import (
	"context"
	"errors"
	"path"
	"strings"
)

// Kind selects the processing profile and the upload folder.
type Kind string

const (
	KindPost    Kind = "posts"
	KindProfile Kind = "profiles"
)

// ErrUnsupported means the upload is not an image we accept.
var ErrUnsupported = errors.New("unsupported image")

// Upload is a file received from a client.
type Upload struct {
	Filename    string
	ContentType string
	Data        []byte
}

// Store saves processed images and removes them by relative path.
type Store interface {
	// Save processes and stores up, returning a path such as
	// "uploads/posts/<name>.png". Unsupported uploads yield ErrUnsupported.
	Save(ctx context.Context, kind Kind, up Upload) (string, error)
	// Remove deletes the file at a path returned by Save and reports
	// whether anything was deleted. It never fails loudly.
	Remove(ctx context.Context, relPath string) bool
}

const uploadsDir = "uploads"

func relativePath(kind Kind, name string) string {
	return path.Join(uploadsDir, string(kind), name)
}

// cleanRelative validates a stored path and returns it in canonical form.
// Only paths under uploads/ are accepted.
func cleanRelative(relPath string) (string, bool) {
	relPath = strings.TrimSpace(relPath)
	if relPath == "" || strings.HasPrefix(relPath, "/") || strings.Contains(relPath, `\`) {
		return "", false
	}
	cleaned := path.Clean(relPath)
	if !strings.HasPrefix(cleaned, uploadsDir+"/") {
		return "", false
	}
	return cleaned, true
}
