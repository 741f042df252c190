package cache

import (
	"fmt"
	"io"
	"sync"
	"time"

	"zombiezen.com/go/sqlite"
	"zombiezen.com/go/sqlite/sqlitex"
)

const schema = `CREATE TABLE IF NOT EXISTS snapshots (
	digest  TEXT PRIMARY KEY,
	payload BLOB NOT NULL,
	created INTEGER NOT NULL
);`

// SQLite keeps all snapshots in a single database file, which is handy when
// many source sets share one cache location.
type SQLite struct {
	mu   sync.Mutex
	conn *sqlite.Conn
}

// OpenSQLite opens (creating when necessary) database at path. Use
// ":memory:" for a private in-memory database.
func OpenSQLite(path string) (*SQLite, error) {
	flags := []sqlite.OpenFlags{sqlite.OpenReadWrite, sqlite.OpenCreate}
	if path == ":memory:" {
		flags = append(flags, sqlite.OpenMemory)
	} else {
		flags = append(flags, sqlite.OpenWAL)
	}
	conn, err := sqlite.OpenConn(path, flags...)
	if err != nil {
		return nil, fmt.Errorf("open cache db: %w", err)
	}
	if err := sqlitex.ExecuteScript(conn, schema, nil); err != nil {
		conn.Close()
		return nil, fmt.Errorf("prepare cache db: %w", err)
	}
	return &SQLite{conn: conn}, nil
}

func (s *SQLite) Load(key string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var (
		data  []byte
		found bool
	)
	err := sqlitex.Execute(s.conn, `SELECT payload FROM snapshots WHERE digest = ?`,
		&sqlitex.ExecOptions{
			Args: []any{key},
			ResultFunc: func(stmt *sqlite.Stmt) error {
				var err error
				found = true
				data, err = io.ReadAll(stmt.ColumnReader(0))
				return err
			}})
	if err != nil {
		return nil, fmt.Errorf("read cache db: %w", err)
	}
	if !found {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, key)
	}
	return data, nil
}

func (s *SQLite) Save(key string, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := sqlitex.Execute(s.conn, `INSERT OR REPLACE INTO snapshots (digest, payload, created) VALUES (?, ?, ?)`,
		&sqlitex.ExecOptions{
			Args: []any{key, data, time.Now().Unix()},
		})
	if err != nil {
		return fmt.Errorf("write cache db: %w", err)
	}
	return nil
}

// Keys returns digests of all stored snapshots, newest first.
func (s *SQLite) Keys() ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var keys []string
	err := sqlitex.Execute(s.conn, `SELECT digest FROM snapshots ORDER BY created DESC, digest`,
		&sqlitex.ExecOptions{ResultFunc: func(stmt *sqlite.Stmt) error {
			keys = append(keys, stmt.ColumnText(0))
			return nil
		}})
	if err != nil {
		return nil, fmt.Errorf("list cache db: %w", err)
	}
	return keys, nil
}

func (s *SQLite) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conn.Close()
}
