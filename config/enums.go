package config

// CacheKind selects where extracted css definitions are kept between runs.
type CacheKind string

const (
	CacheKindNone   CacheKind = "none"
	CacheKindDir    CacheKind = "dir"
	CacheKindSQLite CacheKind = "sqlite"
	CacheKindMemory CacheKind = "memory"
)

func (k CacheKind) String() string {
	return string(k)
}
