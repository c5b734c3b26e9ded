package audio

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/cuongbtq/botmr-be/internal/domain"
)

// LocalStore keeps audio under a base directory on disk.
type LocalStore struct {
	baseDir string
}

func NewLocalStore(baseDir string) (*LocalStore, error) {
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create audio directory: %w", err)
	}
	return &LocalStore{baseDir: baseDir}, nil
}

func (l *LocalStore) path(key string) (string, error) {
	cleaned, err := cleanKey(key)
	if err != nil {
		return "", domain.NewValidationError("%v", err)
	}
	return filepath.Join(l.baseDir, filepath.FromSlash(cleaned)), nil
}

func (l *LocalStore) Put(ctx context.Context, key string, r io.Reader, contentType string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	fullPath, err := l.path(key)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(fullPath), 0o755); err != nil {
		return domain.NewStorageError("failed to create audio folder", err)
	}

	out, err := os.Create(fullPath)
	if err != nil {
		return domain.NewStorageError("failed to create audio file", err)
	}
	if _, err := io.Copy(out, r); err != nil {
		out.Close()
		_ = os.Remove(fullPath)
		return domain.NewStorageError("failed to write audio file", err)
	}
	if err := out.Close(); err != nil {
		return domain.NewStorageError("failed to write audio file", err)
	}
	return nil
}

func (l *LocalStore) Get(ctx context.Context, key string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	fullPath, err := l.path(key)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(fullPath)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, domain.NewNotFoundError("audio %s not found", key)
	}
	if err != nil {
		return nil, domain.NewStorageError("failed to read audio file", err)
	}
	return data, nil
}

// Delete removes the object. Missing objects are not an error.
func (l *LocalStore) Delete(ctx context.Context, key string) error {
	fullPath, err := l.path(key)
	if err != nil {
		return err
	}
	if err := os.Remove(fullPath); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return domain.NewStorageError("failed to delete audio file", err)
	}
	return nil
}
