package cache

import (
	"errors"
	"fmt"
	"path/filepath"

	"relcss/source"
)

const (
	// DefaultPrefix starts names of all cache files.
	DefaultPrefix = "RelevantCss"
	fileSuffix    = ".cache.ion"
)

// Dir stores every snapshot in its own file "<prefix>.<key>.cache.ion" inside
// a directory.
type Dir struct {
	fsys   source.Filesystem
	dir    string
	prefix string
}

// NewDir creates directory store, nil fsys means local disk and empty prefix
// means DefaultPrefix.
func NewDir(fsys source.Filesystem, dir, prefix string) *Dir {
	if fsys == nil {
		fsys = source.OSFilesystem{}
	}
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return &Dir{fsys: fsys, dir: dir, prefix: prefix}
}

// Path returns name of the file for key.
func (d *Dir) Path(key string) string {
	return filepath.Join(d.dir, d.prefix+"."+key+fileSuffix)
}

func (d *Dir) Load(key string) ([]byte, error) {
	path := d.Path(key)
	if !d.fsys.Exists(path) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
	}
	data, err := d.fsys.ReadFile(path)
	if err != nil {
		if errors.Is(err, source.ErrNotFound) {
			return nil, fmt.Errorf("%w: %w", ErrNotFound, err)
		}
		return nil, fmt.Errorf("unable to read cache: %w", err)
	}
	return data, nil
}

func (d *Dir) Save(key string, data []byte) error {
	if err := d.fsys.WriteFile(d.Path(key), data); err != nil {
		return fmt.Errorf("unable to write cache: %w", err)
	}
	return nil
}
