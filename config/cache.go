package config

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"relcss/cache"
	"relcss/misc"
)

type CacheConfig struct {
	Kind          CacheKind `yaml:"kind" validate:"oneof=none dir sqlite memory"`
	Location      string    `yaml:"location,omitempty" sanitize:"path_clean" validate:"required_if=Kind dir,required_if=Kind sqlite"`
	Prefix        string    `yaml:"prefix,omitempty"`
	MemoryEntries int       `yaml:"memory_entries" validate:"min=1"`
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// Prepare opens configured cache store. Returned closer must be called when
// store is no longer needed. For kind "none" store is nil.
func (conf *CacheConfig) Prepare() (cache.Store, io.Closer, error) {
	switch conf.Kind {
	case CacheKindNone, "":
		return nil, nopCloser{}, nil
	case CacheKindDir:
		return cache.NewDir(nil, conf.Location, conf.Prefix), nopCloser{}, nil
	case CacheKindMemory:
		m, err := cache.NewMemory(conf.MemoryEntries)
		if err != nil {
			return nil, nil, fmt.Errorf("unable to create memory cache: %w", err)
		}
		return m, nopCloser{}, nil
	case CacheKindSQLite:
		path := conf.Location
		if filepath.Ext(path) == "" {
			// location names directory
			path = filepath.Join(path, misc.GetAppName()+".sqlite")
		}
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, nil, fmt.Errorf("unable to create cache directory: %w", err)
		}
		db, err := cache.OpenSQLite(path)
		if err != nil {
			return nil, nil, fmt.Errorf("unable to open cache database: %w", err)
		}
		return db, db, nil
	default:
		return nil, nil, fmt.Errorf("unknown cache kind %q", conf.Kind)
	}
}
