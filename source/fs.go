// Package source provides access to CSS and content sources: files on disk,
// literal text and files discovered in directories and zip archives.
package source

import (
	"crypto/md5"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

var (
	// ErrNotFound is returned when source path does not exist.
	ErrNotFound = errors.New("source not found")
	// ErrRead is returned when source exists but could not be read or written.
	ErrRead = errors.New("source could not be accessed")
)

// Filesystem is everything sources and file based caches need from storage.
// Errors returned must wrap ErrNotFound or ErrRead.
type Filesystem interface {
	Exists(path string) bool
	ReadFile(path string) ([]byte, error)
	WriteFile(path string, data []byte) error
	// Digest returns hex encoded MD5 of the file content.
	Digest(path string) (string, error)
}

// OSFilesystem accesses local disk directly.
type OSFilesystem struct{}

func (OSFilesystem) Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func (OSFilesystem) ReadFile(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, classify(path, err)
	}
	return data, nil
}

func (OSFilesystem) WriteFile(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrRead, path, err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrRead, path, err)
	}
	return nil
}

func (f OSFilesystem) Digest(path string) (string, error) {
	data, err := f.ReadFile(path)
	if err != nil {
		return "", err
	}
	return HashBytes(data), nil
}

// HashBytes returns hex encoded MD5 of data.
func HashBytes(data []byte) string {
	sum := md5.Sum(data)
	return hex.EncodeToString(sum[:])
}

func classify(path string, err error) error {
	if errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%w: %s", ErrNotFound, path)
	}
	return fmt.Errorf("%w: %s: %w", ErrRead, path, err)
}
