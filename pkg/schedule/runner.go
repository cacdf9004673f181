package schedule

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	jsoniter "github.com/json-iterator/go"

	"github.com/jdziat/handlerwrap/pkg/core"
	"github.com/jdziat/handlerwrap/pkg/engine"
	"github.com/jdziat/handlerwrap/pkg/events"
	"github.com/jdziat/handlerwrap/pkg/lambdactx"
)

// EventSource is the Source of every ScheduledEvent a Runner emits.
const EventSource = "handlerwrap.schedule"

var eventJSON = jsoniter.Config{
	EscapeHTML:  true,
	SortMapKeys: true,
	UseNumber:   true,
}.Froze()

// Entry is a named schedule.
type Entry struct {
	Name     string
	Schedule Schedule
	// Detail becomes the event's detail document.
	Detail any
}

// RunnerOption configures a Runner.
type RunnerOption func(*Runner)

// WithLogger sets the runner logger.
func WithLogger(l *slog.Logger) RunnerOption {
	return func(r *Runner) {
		r.logger = l
	}
}

// WithTick sets how often the runner checks for due entries.
func WithTick(d time.Duration) RunnerOption {
	return func(r *Runner) {
		if d > 0 {
			r.tick = d
		}
	}
}

// WithRegion sets the Region of emitted events.
func WithRegion(region string) RunnerOption {
	return func(r *Runner) {
		r.region = region
	}
}

// Runner fires scheduled events at a handler.
type Runner struct {
	invoker engine.Invoker
	logger  *slog.Logger
	tick    time.Duration
	region  string

	mu      sync.Mutex
	entries map[string]Entry
}

// NewRunner creates a Runner invoking inv.
func NewRunner(inv engine.Invoker, opts ...RunnerOption) *Runner {
	r := &Runner{
		invoker: inv,
		logger:  slog.Default(),
		tick:    time.Second,
		entries: make(map[string]Entry),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Add registers a schedule under name.
func (r *Runner) Add(name string, s Schedule, detail any) error {
	if name == "" || s == nil {
		return fmt.Errorf("%w: entry needs a name and a schedule", core.ErrInvalidSchedule)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.entries[name]; exists {
		return fmt.Errorf("%w: %q already added", core.ErrInvalidSchedule, name)
	}
	r.entries[name] = Entry{Name: name, Schedule: s, Detail: detail}
	return nil
}

// Entries returns the registered entries sorted by name.
func (r *Runner) Entries() []Entry {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Entry, 0, len(r.entries))
	for _, e := range r.entries {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Run fires due entries until ctx is done. Invocation failures are logged.
func (r *Runner) Run(ctx context.Context) error {
	ticker := time.NewTicker(r.tick)
	defer ticker.Stop()

	next := make(map[string]time.Time)
	start := time.Now()

	for {
		select {
		case <-ctx.Done():
			return nil
		case now := <-ticker.C:
			for _, e := range r.Entries() {
				due, ok := next[e.Name]
				if !ok {
					due = e.Schedule.Next(start)
					next[e.Name] = due
				}
				if now.Before(due) {
					continue
				}
				if _, err := r.Fire(ctx, e.Name, now); err != nil {
					r.logger.Error("scheduled invocation failed", "schedule", e.Name, "error", err)
				}
				next[e.Name] = e.Schedule.Next(now)
			}
		}
	}
}

// Fire invokes the handler once with the event for entry name at time at.
func (r *Runner) Fire(ctx context.Context, name string, at time.Time) (any, error) {
	r.mu.Lock()
	e, ok := r.entries[name]
	r.mu.Unlock()
	if !ok {
		return nil, fmt.Errorf("%w: no entry %q", core.ErrInvalidSchedule, name)
	}

	ev, err := r.Event(e, at)
	if err != nil {
		return nil, err
	}
	data, err := eventJSON.Marshal(ev)
	if err != nil {
		return nil, err
	}

	ctx = lambdactx.NewContext(ctx, &lambdactx.Metadata{
		RequestID:  ev.ID,
		Source:     "schedule",
		StartedAt:  at,
		Attributes: map[string]string{"schedule": name},
	})

	if r.invoker.Resolved().Kind == core.KindStreaming {
		var out bytes.Buffer
		if err := r.invoker.HandleStream(ctx, bytes.NewReader(data), &out); err != nil {
			return nil, err
		}
		return out.String(), nil
	}

	var input any
	if err := eventJSON.Unmarshal(data, &input); err != nil {
		return nil, err
	}
	return r.invoker.HandleRequest(ctx, input)
}

// Event builds the ScheduledEvent for entry e firing at at.
func (r *Runner) Event(e Entry, at time.Time) (*events.ScheduledEvent, error) {
	ev := &events.ScheduledEvent{
		ID:         uuid.New().String(),
		Version:    "0",
		DetailType: "Scheduled Event",
		Source:     EventSource,
		Time:       events.NewTimestamp(at),
		Region:     r.region,
		Resources:  []string{e.Name},
		Detail:     []byte("{}"),
	}
	if e.Detail != nil {
		detail, err := eventJSON.Marshal(e.Detail)
		if err != nil {
			return nil, fmt.Errorf("encode detail of %q: %w", e.Name, err)
		}
		ev.Detail = detail
	}
	return ev, nil
}
