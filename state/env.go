// Package state defines shared program state.
package state

import (
	"context"
	"time"

	"go.uber.org/zap"
	"golang.org/x/text/encoding"

	"tcss/config"
	"tcss/css"
	"tcss/source"
)

type envKey struct{}

// LocalEnv keeps everything program needs in a single place.
type LocalEnv struct {
	Cfg *config.Config
	Log *zap.Logger

	// used by compile subcommand
	Overwrite bool
	CodePage  encoding.Encoding
	Compiler  *css.Compiler
	Loader    *source.Loader

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
	return context.WithValue(ctx, envKey{}, &LocalEnv{start: time.Now()})
}

// Prepare creates compilation machinery once configuration and logger are
// known. It is safe to call it again after configuration changed.
func (e *LocalEnv) Prepare() error {
	log := e.Log
	if log == nil {
		log = zap.NewNop()
	}

	var label string
	if e.Cfg != nil {
		label = e.Cfg.Compiler.Encoding
	}
	enc, err := source.LookupEncoding(label)
	if err != nil {
		return err
	}

	e.CodePage = enc
	e.Compiler = css.NewCompiler(log)
	e.Loader = source.NewLoader(enc, log)
	return nil
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
