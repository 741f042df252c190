package cache

import (
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"
)

// DefaultMemoryEntries is used when non positive size is requested.
const DefaultMemoryEntries = 16

// Memory keeps the most recently used snapshots in process memory. It is
// safe for concurrent use.
type Memory struct {
	entries *lru.Cache[string, []byte]
}

func NewMemory(size int) (*Memory, error) {
	if size <= 0 {
		size = DefaultMemoryEntries
	}
	entries, err := lru.New[string, []byte](size)
	if err != nil {
		return nil, fmt.Errorf("unable to create memory cache: %w", err)
	}
	return &Memory{entries: entries}, nil
}

func (m *Memory) Load(key string) ([]byte, error) {
	data, ok := m.entries.Get(key)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, key)
	}
	return data, nil
}

func (m *Memory) Save(key string, data []byte) error {
	m.entries.Add(key, append([]byte(nil), data...))
	return nil
}

// Len returns number of cached snapshots.
func (m *Memory) Len() int {
	return m.entries.Len()
}
