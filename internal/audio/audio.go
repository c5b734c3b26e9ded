// Package audio stores uploaded recording chunks.
package audio

import (
	"context"
	"fmt"
	"io"
	"path"
	"slices"
	"strings"
	"time"
)

// Store keeps audio objects addressed by key.
type Store interface {
	Put(ctx context.Context, key string, r io.Reader, contentType string) error
	Get(ctx context.Context, key string) ([]byte, error)
	Delete(ctx context.Context, key string) error
}

// ChunkKey builds the key of an uploaded chunk:
// recordings/<session_id>/<unix_nanos>-<filename>.
func ChunkKey(sessionID, filename string, at time.Time) string {
	name := path.Base(strings.ReplaceAll(filename, "\\", "/"))
	if name == "." || name == "/" || name == "" {
		name = "chunk"
	}
	return fmt.Sprintf("recordings/%s/%d-%s", sessionID, at.UnixNano(), name)
}

// cleanKey rejects keys that would escape the store root. Only a whole
// ".." segment counts; "take..1.webm" is a valid name.
func cleanKey(key string) (string, error) {
	cleaned := path.Clean("/" + key)
	segments := strings.Split(strings.ReplaceAll(key, "\\", "/"), "/")
	if cleaned == "/" || slices.Contains(segments, "..") {
		return "", fmt.Errorf("invalid audio key %q", key)
	}
	return strings.TrimPrefix(cleaned, "/"), nil
}
