// Package cache persists serialized index snapshots keyed by source digest.
package cache

import (
	"errors"
)

// ErrNotFound is returned by Load when there is no entry for the key.
var ErrNotFound = errors.New("cache entry not found")

// Store keeps opaque payloads under digest keys. Implementations do not
// interpret payloads.
type Store interface {
	Load(key string) ([]byte, error)
	Save(key string, data []byte) error
}
