// Package lambdactx provides public access to invocation metadata for
// handlers.
package lambdactx

import (
	"context"
	"time"

	"github.com/google/uuid"

	intctx "github.com/jdziat/handlerwrap/pkg/internal/context"
)

// Metadata describes the invocation a context belongs to.
type Metadata = intctx.Metadata

// NewContext returns a child of ctx carrying md.
func NewContext(ctx context.Context, md *Metadata) context.Context {
	return intctx.WithMetadata(ctx, md)
}

// FromContext returns the invocation metadata, or nil when ctx carries none.
func FromContext(ctx context.Context) *Metadata {
	return intctx.GetMetadata(ctx)
}

// RequestIDFromContext returns the request ID, or an empty string.
func RequestIDFromContext(ctx context.Context) string {
	md := FromContext(ctx)
	if md == nil {
		return ""
	}
	return md.RequestID
}

// HandlerFromContext returns the handler identifier being invoked, or an
// empty string.
func HandlerFromContext(ctx context.Context) string {
	md := FromContext(ctx)
	if md == nil {
		return ""
	}
	return md.Handler
}

// IsColdStart reports whether this is the first invocation served by the
// process.
func IsColdStart(ctx context.Context) bool {
	md := FromContext(ctx)
	return md != nil && md.ColdStart
}

// Attribute returns a metadata attribute, or an empty string.
func Attribute(ctx context.Context, key string) string {
	md := FromContext(ctx)
	if md == nil {
		return ""
	}
	return md.Attributes[key]
}

// RemainingTime returns the time left before ctx's deadline. ok is false
// when ctx has no deadline.
func RemainingTime(ctx context.Context) (remaining time.Duration, ok bool) {
	deadline, ok := ctx.Deadline()
	if !ok {
		return 0, false
	}
	return time.Until(deadline), true
}

// NewRequestID generates a request ID.
func NewRequestID() string {
	return uuid.New().String()
}
