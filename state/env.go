// Package state defines shared program state.
package state

import (
	"context"
	"io"
	"time"

	"go.uber.org/zap"

	"relcss/cache"
	"relcss/config"
)

type envKey struct{}

// LocalEnv keeps everything program needs in a single place.
type LocalEnv struct {
	Cfg *config.Config
	Rpt *config.Report
	Log *zap.Logger

	// opened according to Cfg.Cache, nil when caching is off
	Store       cache.Store
	storeCloser io.Closer

	start         time.Time
	restoreStdLog func()
}

func EnvFromContext(ctx context.Context) *LocalEnv {
	if env, ok := ctx.Value(envKey{}).(*LocalEnv); ok {
		return env
	}
	// this should never happen
	panic("localenv not found in context")
}

func ContextWithEnv(ctx context.Context) context.Context {
	return context.WithValue(ctx, envKey{}, newLocalEnv())
}

func (e *LocalEnv) Uptime() time.Duration {
	return time.Since(e.start)
}

func (e *LocalEnv) RedirectStdLog() {
	if e.Log == nil {
		return
	}
	e.restoreStdLog = zap.RedirectStdLog(e.Log)
}

func (e *LocalEnv) RestoreStdLog() {
	if e.Log != nil {
		_ = e.Log.Sync()
	}
	if e.restoreStdLog != nil {
		e.restoreStdLog()
	}
}

// OpenStore prepares cache store requested by configuration. Cache is an
// optimization only: when it could not be opened processing continues
// without it.
func (e *LocalEnv) OpenStore() {
	if e.Cfg == nil {
		return
	}
	log := e.Log
	if log == nil {
		log = zap.NewNop()
	}
	store, closer, err := e.Cfg.Cache.Prepare()
	if err != nil {
		log.Warn("Unable to open cache, continuing without it", zap.Stringer("kind", e.Cfg.Cache.Kind), zap.String("location", e.Cfg.Cache.Location), zap.Error(err))
		e.Store, e.storeCloser = nil, nil
		return
	}
	e.Store, e.storeCloser = store, closer
	if store != nil {
		log.Debug("Cache opened", zap.Stringer("kind", e.Cfg.Cache.Kind), zap.String("location", e.Cfg.Cache.Location))
	}
}

// CloseStore releases cache store, it is safe to call it more than once.
func (e *LocalEnv) CloseStore() error {
	if e.storeCloser == nil {
		return nil
	}
	err := e.storeCloser.Close()
	e.Store, e.storeCloser = nil, nil
	return err
}
