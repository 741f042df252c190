package state

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"

	"relcss/cache"
	"relcss/config"
)

func TestContextWithEnv(t *testing.T) {
	ctx := ContextWithEnv(context.Background())
	if ctx == nil {
		t.Fatal("ContextWithEnv() returned nil")
	}

	env := EnvFromContext(ctx)
	if env == nil {
		t.Fatal("EnvFromContext() returned nil")
	}
	if env.start.IsZero() {
		t.Error("Environment start time not set")
	}
	if env.Store != nil {
		t.Error("Store should not be opened before configuration is loaded")
	}
}

func TestEnvFromContext(t *testing.T) {
	t.Run("valid context", func(t *testing.T) {
		ctx := ContextWithEnv(context.Background())
		if env := EnvFromContext(ctx); env == nil {
			t.Error("Expected non-nil environment")
		}
	})

	t.Run("panic on missing env", func(t *testing.T) {
		defer func() {
			if r := recover(); r == nil {
				t.Error("Expected panic when env not in context")
			}
		}()

		EnvFromContext(context.Background())
	})
}

func TestLocalEnv_Uptime(t *testing.T) {
	env := EnvFromContext(ContextWithEnv(context.Background()))

	time.Sleep(10 * time.Millisecond)
	uptime := env.Uptime()

	if uptime < 10*time.Millisecond {
		t.Errorf("Uptime() = %v, expected at least 10ms", uptime)
	}
	if uptime > 1*time.Second {
		t.Errorf("Uptime() = %v, unexpectedly large", uptime)
	}
}

func TestLocalEnv_RedirectAndRestore(t *testing.T) {
	t.Run("cycles", func(t *testing.T) {
		env := &LocalEnv{
			Log: zaptest.NewLogger(t, zaptest.WrapOptions(zap.AddCaller(), zap.AddCallerSkip(1))),
		}
		for i := 0; i < 3; i++ {
			env.RedirectStdLog()
			if env.restoreStdLog == nil {
				t.Errorf("Iteration %d: restoreStdLog not set", i)
			}
			env.RestoreStdLog()
		}
	})

	t.Run("without redirect", func(t *testing.T) {
		env := &LocalEnv{
			Log: zaptest.NewLogger(t, zaptest.WrapOptions(zap.AddCaller(), zap.AddCallerSkip(1))),
		}
		env.RestoreStdLog()
	})

	t.Run("nil logger", func(t *testing.T) {
		env := &LocalEnv{}
		env.RedirectStdLog()
		if env.restoreStdLog != nil {
			t.Error("restoreStdLog set without logger")
		}
		env.RestoreStdLog()
	})
}

func TestLocalEnv_Store(t *testing.T) {
	tests := []struct {
		name    string
		conf    func(dir string) config.CacheConfig
		wantNil bool
		check   func(t *testing.T, dir string, store cache.Store)
	}{
		{
			name:    "none",
			conf:    func(string) config.CacheConfig { return config.CacheConfig{Kind: config.CacheKindNone} },
			wantNil: true,
		},
		{
			name: "dir",
			conf: func(dir string) config.CacheConfig {
				return config.CacheConfig{Kind: config.CacheKindDir, Location: dir, Prefix: "Test"}
			},
			check: func(t *testing.T, dir string, store cache.Store) {
				if _, ok := store.(*cache.Dir); !ok {
					t.Fatalf("store type = %T, want *cache.Dir", store)
				}
				if _, err := os.Stat(filepath.Join(dir, "Test.abc.cache.ion")); err != nil {
					t.Errorf("cache file was not written: %v", err)
				}
			},
		},
		{
			name: "memory",
			conf: func(string) config.CacheConfig {
				return config.CacheConfig{Kind: config.CacheKindMemory, MemoryEntries: 2}
			},
			check: func(t *testing.T, _ string, store cache.Store) {
				if _, ok := store.(*cache.Memory); !ok {
					t.Errorf("store type = %T, want *cache.Memory", store)
				}
			},
		},
		{
			name: "sqlite in directory",
			conf: func(dir string) config.CacheConfig {
				return config.CacheConfig{Kind: config.CacheKindSQLite, Location: filepath.Join(dir, "nested")}
			},
			check: func(t *testing.T, dir string, store cache.Store) {
				if _, ok := store.(*cache.SQLite); !ok {
					t.Fatalf("store type = %T, want *cache.SQLite", store)
				}
				if _, err := os.Stat(filepath.Join(dir, "nested", "relcss.sqlite")); err != nil {
					t.Errorf("database was not created: %v", err)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			env := &LocalEnv{
				Cfg: &config.Config{Version: 1, Cache: tt.conf(dir)},
				Log: zaptest.NewLogger(t),
			}
			env.OpenStore()
			if (env.Store == nil) != tt.wantNil {
				t.Fatalf("Store = %v, wantNil %v", env.Store, tt.wantNil)
			}
			if env.Store != nil {
				if err := env.Store.Save("abc", []byte("payload")); err != nil {
					t.Fatalf("Save() error = %v", err)
				}
				data, err := env.Store.Load("abc")
				if err != nil || string(data) != "payload" {
					t.Errorf("Load() = %q, %v", data, err)
				}
			}
			if tt.check != nil {
				tt.check(t, dir, env.Store)
			}
			if err := env.CloseStore(); err != nil {
				t.Errorf("CloseStore() error = %v", err)
			}
			if env.Store != nil {
				t.Error("Store should be released after CloseStore()")
			}
			if err := env.CloseStore(); err != nil {
				t.Errorf("second CloseStore() error = %v", err)
			}
		})
	}
}

func TestLocalEnv_OpenStoreWithoutConfig(t *testing.T) {
	env := &LocalEnv{}
	env.OpenStore()
	if env.Store != nil {
		t.Error("Store should be nil without configuration")
	}
}

func TestLocalEnv_OpenStoreFailureIsNotFatal(t *testing.T) {
	blocker := filepath.Join(t.TempDir(), "file")
	if err := os.WriteFile(blocker, []byte("not a directory"), 0644); err != nil {
		t.Fatal(err)
	}

	for _, kind := range []config.CacheKind{config.CacheKindSQLite, config.CacheKindDir} {
		t.Run(kind.String(), func(t *testing.T) {
			env := &LocalEnv{
				Cfg: &config.Config{Version: 1, Cache: config.CacheConfig{Kind: kind, Location: filepath.Join(blocker, "cache")}},
				Log: zaptest.NewLogger(t),
			}
			env.OpenStore()
			if kind == config.CacheKindSQLite && env.Store != nil {
				t.Errorf("Store = %T, want none when database could not be created", env.Store)
			}
			if err := env.CloseStore(); err != nil {
				t.Errorf("CloseStore() error = %v", err)
			}
		})
	}
}
