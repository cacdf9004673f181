package core

import (
	"context"
	"io"
)

// HandlerKind tells which invocation path a resolved unit serves.
type HandlerKind string

const (
	KindTyped     HandlerKind = "typed"
	KindStreaming HandlerKind = "streaming"
)

// StreamHandler is implemented by units that consume and produce raw bytes.
// Such units bypass signature inspection and input coercion entirely.
type StreamHandler interface {
	HandleStream(ctx context.Context, in io.Reader, out io.Writer) error
}

// StreamHandlerFunc adapts a plain function to StreamHandler.
type StreamHandlerFunc func(ctx context.Context, in io.Reader, out io.Writer) error

// HandleStream calls f(ctx, in, out).
func (f StreamHandlerFunc) HandleStream(ctx context.Context, in io.Reader, out io.Writer) error {
	return f(ctx, in, out)
}
