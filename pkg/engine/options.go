package engine

import (
	"context"
	"log/slog"

	"github.com/jdziat/handlerwrap/pkg/coerce"
	"github.com/jdziat/handlerwrap/pkg/core"
	"github.com/jdziat/handlerwrap/pkg/locator"
)

// Options holds what Resolve needs besides the identifier.
type Options struct {
	Registry *locator.Registry
	Logger   *slog.Logger
	Coercer  *coerce.Coercer

	onStart    []func(context.Context, *core.Invocation)
	onComplete []func(context.Context, *core.Invocation)
	onFail     []func(context.Context, *core.Invocation, error)
}

// NewOptions creates Options with defaults.
func NewOptions() *Options {
	return &Options{
		Registry: locator.DefaultRegistry,
		Logger:   slog.Default(),
	}
}

// Option modifies Options.
type Option interface {
	Apply(*Options)
}

type optionFunc func(*Options)

func (f optionFunc) Apply(o *Options) { f(o) }

// WithRegistry resolves units from r instead of the default registry.
func WithRegistry(r *locator.Registry) Option {
	return optionFunc(func(o *Options) {
		if r != nil {
			o.Registry = r
		}
	})
}

// WithLogger sets the engine logger.
func WithLogger(l *slog.Logger) Option {
	return optionFunc(func(o *Options) {
		if l != nil {
			o.Logger = l
		}
	})
}

// WithCoercer replaces the input coercer.
func WithCoercer(c *coerce.Coercer) Option {
	return optionFunc(func(o *Options) {
		o.Coercer = c
	})
}

// OnStart registers a hook called before every invocation.
func OnStart(fn func(context.Context, *core.Invocation)) Option {
	return optionFunc(func(o *Options) {
		o.onStart = append(o.onStart, fn)
	})
}

// OnComplete registers a hook called after every successful invocation.
func OnComplete(fn func(context.Context, *core.Invocation)) Option {
	return optionFunc(func(o *Options) {
		o.onComplete = append(o.onComplete, fn)
	})
}

// OnFail registers a hook called after every failed invocation.
func OnFail(fn func(context.Context, *core.Invocation, error)) Option {
	return optionFunc(func(o *Options) {
		o.onFail = append(o.onFail, fn)
	})
}
