package cache

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"relcss/source"
)

// exercise runs the same scenario against every store implementation.
func exercise(t *testing.T, s Store) {
	t.Helper()

	if _, err := s.Load("0123abcd"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Load() on empty store error = %v, want ErrNotFound", err)
	}

	payload := []byte{0xE0, 0x01, 0x00, 0xEA, 'x'}
	if err := s.Save("0123abcd", payload); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	got, err := s.Load("0123abcd")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if !bytes.Equal(got, payload) {
		t.Errorf("Load() = %v, want %v", got, payload)
	}

	// overwrite
	if err := s.Save("0123abcd", []byte("second")); err != nil {
		t.Fatalf("Save() overwrite error = %v", err)
	}
	got, err = s.Load("0123abcd")
	if err != nil || string(got) != "second" {
		t.Errorf("Load() after overwrite = %q, %v", got, err)
	}

	if _, err := s.Load("ffff"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Load() unknown key error = %v, want ErrNotFound", err)
	}
}

func TestDir(t *testing.T) {
	exercise(t, NewDir(nil, t.TempDir(), ""))
}

func TestDir_FileName(t *testing.T) {
	dir := t.TempDir()

	d := NewDir(nil, dir, "")
	if want := filepath.Join(dir, "RelevantCss.abc123.cache.ion"); d.Path("abc123") != want {
		t.Errorf("Path() = %s, want %s", d.Path("abc123"), want)
	}
	if err := d.Save("abc123", []byte("data")); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "RelevantCss.abc123.cache.ion")); err != nil {
		t.Errorf("cache file was not created: %v", err)
	}

	custom := NewDir(nil, dir, "site")
	if want := filepath.Join(dir, "site.abc123.cache.ion"); custom.Path("abc123") != want {
		t.Errorf("Path() = %s, want %s", custom.Path("abc123"), want)
	}
}

func TestDir_CreatesDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "a", "b")
	d := NewDir(source.OSFilesystem{}, dir, "")
	if err := d.Save("k", []byte("v")); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if got, err := d.Load("k"); err != nil || string(got) != "v" {
		t.Errorf("Load() = %q, %v", got, err)
	}
}

func TestDir_UnreadableEntry(t *testing.T) {
	dir := t.TempDir()
	d := NewDir(nil, dir, "")
	// directory in place of cache file exists but cannot be read
	if err := os.MkdirAll(d.Path("k"), 0755); err != nil {
		t.Fatalf("MkdirAll() error = %v", err)
	}
	_, err := d.Load("k")
	if err == nil {
		t.Fatal("Load() expected error")
	}
	if errors.Is(err, ErrNotFound) {
		t.Errorf("Load() error = %v, want read failure", err)
	}
}

func TestMemory(t *testing.T) {
	m, err := NewMemory(4)
	if err != nil {
		t.Fatalf("NewMemory() error = %v", err)
	}
	exercise(t, m)
}

func TestMemory_Eviction(t *testing.T) {
	m, err := NewMemory(2)
	if err != nil {
		t.Fatalf("NewMemory() error = %v", err)
	}
	for _, k := range []string{"a", "b", "c"} {
		if err := m.Save(k, []byte(k)); err != nil {
			t.Fatalf("Save(%s) error = %v", k, err)
		}
	}
	if m.Len() != 2 {
		t.Errorf("Len() = %d, want 2", m.Len())
	}
	if _, err := m.Load("a"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Load(a) error = %v, want eviction", err)
	}
	if got, err := m.Load("c"); err != nil || string(got) != "c" {
		t.Errorf("Load(c) = %q, %v", got, err)
	}
}

func TestMemory_CopiesPayload(t *testing.T) {
	m, err := NewMemory(0)
	if err != nil {
		t.Fatalf("NewMemory() error = %v", err)
	}
	payload := []byte("abc")
	if err := m.Save("k", payload); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	payload[0] = 'x'
	if got, _ := m.Load("k"); string(got) != "abc" {
		t.Errorf("Load() = %q, stored payload was modified", got)
	}
}

func TestSQLite(t *testing.T) {
	s, err := OpenSQLite(filepath.Join(t.TempDir(), "cache.db"))
	if err != nil {
		t.Fatalf("OpenSQLite() error = %v", err)
	}
	defer s.Close()

	exercise(t, s)

	keys, err := s.Keys()
	if err != nil {
		t.Fatalf("Keys() error = %v", err)
	}
	if len(keys) != 1 || keys[0] != "0123abcd" {
		t.Errorf("Keys() = %v, want [0123abcd]", keys)
	}
}

func TestSQLite_Reopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.db")

	s, err := OpenSQLite(path)
	if err != nil {
		t.Fatalf("OpenSQLite() error = %v", err)
	}
	if err := s.Save("digest", []byte("persisted")); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	s, err = OpenSQLite(path)
	if err != nil {
		t.Fatalf("OpenSQLite() reopen error = %v", err)
	}
	defer s.Close()

	got, err := s.Load("digest")
	if err != nil || string(got) != "persisted" {
		t.Errorf("Load() = %q, %v", got, err)
	}
}

func TestSQLite_Memory(t *testing.T) {
	s, err := OpenSQLite(":memory:")
	if err != nil {
		t.Fatalf("OpenSQLite() error = %v", err)
	}
	defer s.Close()

	exercise(t, s)
}
