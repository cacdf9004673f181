package core

import (
	"context"
	"time"
)

// InvocationStatus represents the outcome of a single invocation.
type InvocationStatus string

const (
	StatusRunning   InvocationStatus = "running"
	StatusSucceeded InvocationStatus = "succeeded"
	StatusFailed    InvocationStatus = "failed"
)

// Invocation records one call through the engine.
type Invocation struct {
	ID         string           `gorm:"primaryKey;size:36"`
	RequestID  string           `gorm:"index;size:255"`
	Handler    string           `gorm:"index;size:512;not null"`
	Kind       HandlerKind      `gorm:"size:20"`
	Status     InvocationStatus `gorm:"index;size:20"`
	Error      string           `gorm:"type:text"`
	StartedAt  time.Time        `gorm:"index"`
	FinishedAt *time.Time
	DurationMS int64
	CreatedAt  time.Time `gorm:"autoCreateTime"`
}

// Duration returns the elapsed time of a finished invocation.
func (i *Invocation) Duration() time.Duration {
	if i.FinishedAt == nil {
		return 0
	}
	return i.FinishedAt.Sub(i.StartedAt)
}

// Journal defines the persistence layer for invocation records.
type Journal interface {
	// Migrate creates the necessary database tables.
	Migrate(ctx context.Context) error

	// Record inserts or updates an invocation.
	Record(ctx context.Context, inv *Invocation) error

	// Get returns one invocation by ID.
	Get(ctx context.Context, id string) (*Invocation, error)

	// List returns the most recent invocations, newest first. An empty
	// handler matches every handler.
	List(ctx context.Context, handler string, limit int) ([]Invocation, error)

	// Prune deletes invocations started before the cutoff.
	Prune(ctx context.Context, before time.Time) (int64, error)
}
