package engine

import (
	"context"
	"io"
	"sync"
)

// Lazy resolves an Engine on first use and keeps the outcome, including a
// resolution error, for every later call.
type Lazy struct {
	once    sync.Once
	resolve func() (*Engine, error)
	engine  *Engine
	err     error
}

// NewLazy returns a Lazy that calls resolve at most once.
func NewLazy(resolve func() (*Engine, error)) *Lazy {
	return &Lazy{resolve: resolve}
}

// Engine resolves if needed and returns the cached result.
func (l *Lazy) Engine() (*Engine, error) {
	l.once.Do(func() {
		l.engine, l.err = l.resolve()
	})
	return l.engine, l.err
}

// HandleRequest resolves if needed and calls Engine.HandleRequest.
func (l *Lazy) HandleRequest(ctx context.Context, input any) (any, error) {
	e, err := l.Engine()
	if err != nil {
		return nil, err
	}
	return e.HandleRequest(ctx, input)
}

// HandleStream resolves if needed and calls Engine.HandleStream.
func (l *Lazy) HandleStream(ctx context.Context, in io.Reader, out io.Writer) error {
	e, err := l.Engine()
	if err != nil {
		return err
	}
	return e.HandleStream(ctx, in, out)
}
