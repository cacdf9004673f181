package journal

import (
	"context"
	"log/slog"

	"github.com/jdziat/handlerwrap/pkg/core"
	"github.com/jdziat/handlerwrap/pkg/engine"
)

// Hooks returns engine options that record every invocation in j when it
// starts and again when it finishes. Record errors are logged.
func Hooks(j core.Journal, logger *slog.Logger) []engine.Option {
	if logger == nil {
		logger = slog.Default()
	}
	record := func(ctx context.Context, inv *core.Invocation) {
		if err := j.Record(context.WithoutCancel(ctx), inv); err != nil {
			logger.Warn("journal record failed",
				"invocation_id", inv.ID, "request_id", inv.RequestID, "error", err)
		}
	}
	return []engine.Option{
		engine.OnStart(record),
		engine.OnComplete(record),
		engine.OnFail(func(ctx context.Context, inv *core.Invocation, _ error) {
			record(ctx, inv)
		}),
	}
}
