package instrument

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/jdziat/handlerwrap/pkg/core"
	"github.com/jdziat/handlerwrap/pkg/engine"
	"github.com/jdziat/handlerwrap/pkg/lambdactx"
	"github.com/jdziat/handlerwrap/pkg/metrics"
)

const tracerName = "github.com/jdziat/handlerwrap"

// Option configures a Wrapper.
type Option func(*Wrapper)

// WithTracerProvider sets the provider spans are created from. The global
// provider is used otherwise.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(w *Wrapper) {
		w.tracer = tp.Tracer(tracerName)
	}
}

// WithMetrics sets the collectors to record into. metrics.Default is used
// otherwise; nil disables metrics.
func WithMetrics(m *metrics.Metrics) Option {
	return func(w *Wrapper) {
		w.metrics = m
	}
}

// WithLogger sets the wrapper logger.
func WithLogger(l *slog.Logger) Option {
	return func(w *Wrapper) {
		w.logger = l
	}
}

// WithSource sets the Source recorded in invocation metadata.
func WithSource(source string) Option {
	return func(w *Wrapper) {
		w.source = source
	}
}

// Wrapper instruments an engine.Invoker.
type Wrapper struct {
	next    engine.Invoker
	handler string
	kind    string
	source  string
	tracer  trace.Tracer
	metrics *metrics.Metrics
	logger  *slog.Logger
	served  atomic.Bool
}

var _ engine.Invoker = (*Wrapper)(nil)

// Wrap instruments next.
func Wrap(next engine.Invoker, opts ...Option) *Wrapper {
	rh := next.Resolved()
	w := &Wrapper{
		next:    next,
		handler: rh.Identifier.String(),
		kind:    string(rh.Kind),
		source:  "request",
		tracer:  otel.Tracer(tracerName),
		metrics: metrics.Default,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Resolved returns the wrapped handler description.
func (w *Wrapper) Resolved() engine.ResolvedHandler {
	return w.next.Resolved()
}

// HandleRequest invokes the wrapped handler inside a span.
func (w *Wrapper) HandleRequest(ctx context.Context, input any) (out any, err error) {
	ctx, done := w.start(ctx, "HandleRequest")
	defer func() { done(err) }()
	return w.next.HandleRequest(ctx, input)
}

// HandleStream invokes the wrapped stream handler inside a span.
func (w *Wrapper) HandleStream(ctx context.Context, in io.Reader, out io.Writer) (err error) {
	ctx, done := w.start(ctx, "HandleStream")
	defer func() { done(err) }()
	return w.next.HandleStream(ctx, in, out)
}

func (w *Wrapper) start(ctx context.Context, op string) (context.Context, func(error)) {
	cold := !w.served.Swap(true)
	ctx, md := w.attach(ctx, cold)

	ctx, span := w.tracer.Start(ctx, w.handler,
		trace.WithSpanKind(trace.SpanKindServer),
		trace.WithAttributes(
			attribute.String("faas.invocation_id", md.RequestID),
			attribute.Bool("faas.coldstart", cold),
			attribute.String("handlerwrap.handler", w.handler),
			attribute.String("handlerwrap.kind", w.kind),
			attribute.String("handlerwrap.operation", op),
			attribute.String("handlerwrap.source", md.Source),
		),
	)

	if w.metrics != nil {
		w.metrics.InFlight.WithLabelValues(w.handler).Inc()
		if cold {
			w.metrics.ColdStartTotal.WithLabelValues(w.handler).Inc()
		}
	}

	started := time.Now()
	return ctx, func(err error) {
		status := string(core.StatusSucceeded)
		if err != nil {
			status = string(core.StatusFailed)
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			w.logger.Error("invocation failed",
				"handler", w.handler, "request_id", md.RequestID, "error", err)
		} else {
			span.SetStatus(codes.Ok, "")
		}
		span.End()

		if w.metrics != nil {
			w.metrics.InFlight.WithLabelValues(w.handler).Dec()
			w.metrics.Observe(w.handler, w.kind, status, time.Since(started))
			if errors.Is(err, core.ErrCoercion) {
				w.metrics.CoercionFailTotal.WithLabelValues(w.handler).Inc()
			}
		}
	}
}

// attach returns ctx carrying metadata for this invocation. Metadata already
// present on ctx is copied, never modified.
func (w *Wrapper) attach(ctx context.Context, cold bool) (context.Context, *lambdactx.Metadata) {
	md := &lambdactx.Metadata{Source: w.source}
	if existing := lambdactx.FromContext(ctx); existing != nil {
		cp := *existing
		md = &cp
	}
	if md.RequestID == "" {
		md.RequestID = lambdactx.NewRequestID()
	}
	if md.Handler == "" {
		md.Handler = w.handler
	}
	if md.Source == "" {
		md.Source = w.source
	}
	if md.StartedAt.IsZero() {
		md.StartedAt = time.Now()
	}
	md.ColdStart = cold
	return lambdactx.NewContext(ctx, md), md
}
