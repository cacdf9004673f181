package journal

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"

	"github.com/jdziat/handlerwrap/pkg/core"
	"github.com/jdziat/handlerwrap/pkg/engine"
	"github.com/jdziat/handlerwrap/pkg/locator"
)

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

func newInvocation(handler string, started time.Time, status core.InvocationStatus) *core.Invocation {
	inv := &core.Invocation{
		RequestID: "req-" + started.Format("150405.000"),
		Handler:   handler,
		Kind:      core.KindTyped,
		Status:    status,
		StartedAt: started,
	}
	if status != core.StatusRunning {
		finished := started.Add(10 * time.Millisecond)
		inv.FinishedAt = &finished
		inv.DurationMS = 10
	}
	return inv
}

// ---------------------------------------------------------------------------
// Record / Get
// ---------------------------------------------------------------------------

func TestRecord_InsertsThenUpdates(t *testing.T) {
	ctx := context.Background()
	j := newTestJournal(t)

	inv := &core.Invocation{RequestID: "req-1", Handler: "greeter::HandleRequest", Kind: core.KindTyped}
	require.NoError(t, j.Record(ctx, inv))
	require.NotEmpty(t, inv.ID)
	assert.Equal(t, core.StatusRunning, inv.Status)
	assert.False(t, inv.StartedAt.IsZero())

	got, err := j.Get(ctx, inv.ID)
	require.NoError(t, err)
	assert.Equal(t, core.StatusRunning, got.Status)
	assert.Nil(t, got.FinishedAt)

	finished := inv.StartedAt.Add(1500 * time.Millisecond)
	inv.Status = core.StatusFailed
	inv.Error = "boom\x00"
	inv.FinishedAt = &finished
	inv.DurationMS = 1500
	require.NoError(t, j.Record(ctx, inv))

	got, err = j.Get(ctx, inv.ID)
	require.NoError(t, err)
	assert.Equal(t, core.StatusFailed, got.Status)
	assert.Equal(t, "boom", got.Error)
	require.NotNil(t, got.FinishedAt)
	assert.Equal(t, 1500*time.Millisecond, got.Duration())
	assert.Equal(t, "req-1", got.RequestID)
}

func TestGet_NotFound(t *testing.T) {
	j := newTestJournal(t)

	_, err := j.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, core.ErrInvocationRecord)
}

// ---------------------------------------------------------------------------
// List / Prune / Stats
// ---------------------------------------------------------------------------

func TestList_NewestFirstWithFilterAndLimit(t *testing.T) {
	ctx := context.Background()
	j := newTestJournal(t)
	base := time.Now().Add(-time.Hour)

	for i := 0; i < 5; i++ {
		require.NoError(t, j.Record(ctx, newInvocation("a::HandleRequest", base.Add(time.Duration(i)*time.Minute), core.StatusSucceeded)))
	}
	require.NoError(t, j.Record(ctx, newInvocation("b::HandleRequest", base, core.StatusFailed)))

	all, err := j.List(ctx, "", 0)
	require.NoError(t, err)
	assert.Len(t, all, 6)

	negative, err := j.List(ctx, "", -1)
	require.NoError(t, err)
	assert.Len(t, negative, 6)

	onlyA, err := j.List(ctx, "a::HandleRequest", 3)
	require.NoError(t, err)
	require.Len(t, onlyA, 3)
	for _, inv := range onlyA {
		assert.Equal(t, "a::HandleRequest", inv.Handler)
	}
	assert.True(t, onlyA[0].StartedAt.After(onlyA[1].StartedAt))
	assert.True(t, onlyA[1].StartedAt.After(onlyA[2].StartedAt))
}

func TestPrune_KeepsRunningAndRecent(t *testing.T) {
	ctx := context.Background()
	j := newTestJournal(t)
	old := time.Now().Add(-48 * time.Hour)

	require.NoError(t, j.Record(ctx, newInvocation("a", old, core.StatusSucceeded)))
	require.NoError(t, j.Record(ctx, newInvocation("a", old.Add(time.Minute), core.StatusFailed)))
	running := newInvocation("a", old, core.StatusRunning)
	require.NoError(t, j.Record(ctx, running))
	require.NoError(t, j.Record(ctx, newInvocation("a", time.Now(), core.StatusSucceeded)))

	n, err := j.Prune(ctx, time.Now().Add(-24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	left, err := j.List(ctx, "a", 10)
	require.NoError(t, err)
	assert.Len(t, left, 2)

	_, err = j.Get(ctx, running.ID)
	assert.NoError(t, err)
}

func TestStats(t *testing.T) {
	ctx := context.Background()
	j := newTestJournal(t)
	now := time.Now()

	require.NoError(t, j.Record(ctx, newInvocation("a", now, core.StatusSucceeded)))
	require.NoError(t, j.Record(ctx, newInvocation("a", now.Add(time.Second), core.StatusSucceeded)))
	require.NoError(t, j.Record(ctx, newInvocation("a", now.Add(2*time.Second), core.StatusFailed)))
	require.NoError(t, j.Record(ctx, newInvocation("b", now, core.StatusRunning)))

	stats, err := j.Stats(ctx)
	require.NoError(t, err)
	require.Len(t, stats, 2)
	assert.Equal(t, HandlerStats{Handler: "a", Succeeded: 2, Failed: 1}, stats[0])
	assert.Equal(t, HandlerStats{Handler: "b", Running: 1}, stats[1])
}

// ---------------------------------------------------------------------------
// Open / Dialector
// ---------------------------------------------------------------------------

func TestOpen_InMemory(t *testing.T) {
	j, err := Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = j.Close() })

	require.NoError(t, j.Record(context.Background(), &core.Invocation{Handler: "x"}))
	invs, err := j.List(context.Background(), "x", 10)
	require.NoError(t, err)
	assert.Len(t, invs, 1)
}

func TestDialector(t *testing.T) {
	cases := []struct {
		dsn  string
		want string
	}{
		{":memory:", "sqlite"},
		{"file:journal.db?cache=shared", "sqlite"},
		{"/var/lib/handlerwrap/journal.db", "sqlite"},
		{"postgres://u:p@localhost/db", "postgres"},
		{"postgresql://u:p@localhost/db", "postgres"},
		{"host=localhost user=u dbname=db", "postgres"},
	}
	for _, tc := range cases {
		d := Dialector(tc.dsn)
		assert.Equal(t, tc.want, d.Name(), tc.dsn)
		switch tc.want {
		case "postgres":
			_, ok := d.(*postgres.Dialector)
			assert.True(t, ok, tc.dsn)
		case "sqlite":
			_, ok := d.(*sqlite.Dialector)
			assert.True(t, ok, tc.dsn)
		}
	}
}

func TestPoolFor(t *testing.T) {
	assert.Equal(t, PoolConfig{MaxOpenConns: 1, MaxIdleConns: 1}, PoolFor(":memory:"))
	assert.Equal(t, PoolConfig{MaxOpenConns: 1, MaxIdleConns: 1}, PoolFor("file:journal.db"))
	assert.Equal(t, PoolConfig{MaxOpenConns: 4, MaxIdleConns: 2, ConnMaxLifetime: 30 * time.Minute},
		PoolFor("postgres://localhost/handlerwrap"))
}

func TestPoolConfig_Apply(t *testing.T) {
	base := PoolFor("host=localhost")
	cfg := base.Apply(MaxOpenConns(3), MaxIdleConns(2), ConnMaxLifetime(time.Minute))

	assert.Equal(t, PoolConfig{MaxOpenConns: 3, MaxIdleConns: 2, ConnMaxLifetime: time.Minute}, cfg)
	assert.Equal(t, 4, base.MaxOpenConns)
}

func TestConfigurePool(t *testing.T) {
	j := newTestJournal(t)
	require.NoError(t, ConfigurePool(j.DB(), PoolConfig{MaxOpenConns: 1, MaxIdleConns: 1}))

	sqlDB, err := j.DB().DB()
	require.NoError(t, err)
	assert.Equal(t, 1, sqlDB.Stats().MaxOpenConnections)
}

// ---------------------------------------------------------------------------
// Engine hooks
// ---------------------------------------------------------------------------

type failingJournal struct {
	core.Journal
	calls int
}

func (f *failingJournal) Record(context.Context, *core.Invocation) error {
	f.calls++
	return errors.New("disk full")
}

func TestHooks_RecordEveryInvocation(t *testing.T) {
	ctx := context.Background()
	j := newTestJournal(t)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	r := locator.NewRegistry()
	require.NoError(t, r.RegisterFunc("greeter", func(name string) (string, error) {
		if name == "" {
			return "", errors.New("name required")
		}
		return "Hello " + name, nil
	}))

	opts := append([]engine.Option{engine.WithRegistry(r), engine.WithLogger(logger)}, Hooks(j, logger)...)
	e, err := engine.ResolveName("greeter", opts...)
	require.NoError(t, err)

	_, err = e.HandleRequest(ctx, "World")
	require.NoError(t, err)
	_, err = e.HandleRequest(ctx, "")
	require.Error(t, err)

	invs, err := j.List(ctx, "greeter::HandleRequest", 10)
	require.NoError(t, err)
	require.Len(t, invs, 2)

	byStatus := map[core.InvocationStatus]core.Invocation{}
	for _, inv := range invs {
		byStatus[inv.Status] = inv
		assert.NotNil(t, inv.FinishedAt)
	}
	assert.Contains(t, byStatus, core.StatusSucceeded)
	assert.Contains(t, byStatus[core.StatusFailed].Error, "name required")
}

func TestHooks_JournalErrorsDoNotFailInvocation(t *testing.T) {
	fj := &failingJournal{}
	r := locator.NewRegistry()
	require.NoError(t, r.RegisterFunc("greeter", func(name string) string { return "Hello " + name }))

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	opts := append([]engine.Option{engine.WithRegistry(r), engine.WithLogger(logger)}, Hooks(fj, nil)...)
	e, err := engine.ResolveName("greeter", opts...)
	require.NoError(t, err)

	out, err := e.HandleRequest(context.Background(), "World")
	require.NoError(t, err)
	assert.Equal(t, "Hello World", out)
	assert.Equal(t, 2, fj.calls)
}
