// Package context provides context helpers for the engine.
package context

import (
	"context"
	"time"
)

// MetadataKey is the key for storing invocation metadata in context.Context.
type MetadataKey struct{}

// Metadata describes the invocation a context belongs to.
type Metadata struct {
	RequestID string
	Handler   string
	// Source names what triggered the invocation: "request", "stream",
	// "schedule" or "cli".
	Source     string
	ColdStart  bool
	StartedAt  time.Time
	Attributes map[string]string
}

// GetMetadata retrieves invocation metadata from a context.Context.
func GetMetadata(ctx context.Context) *Metadata {
	if ctx == nil {
		return nil
	}
	if md, ok := ctx.Value(MetadataKey{}).(*Metadata); ok {
		return md
	}
	return nil
}

// WithMetadata adds invocation metadata to a context.Context.
func WithMetadata(ctx context.Context, md *Metadata) context.Context {
	return context.WithValue(ctx, MetadataKey{}, md)
}
