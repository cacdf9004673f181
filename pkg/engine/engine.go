package engine

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"reflect"
	"time"

	"github.com/google/uuid"

	"github.com/jdziat/handlerwrap/pkg/coerce"
	"github.com/jdziat/handlerwrap/pkg/core"
	"github.com/jdziat/handlerwrap/pkg/internal/handler"
	"github.com/jdziat/handlerwrap/pkg/lambdactx"
	"github.com/jdziat/handlerwrap/pkg/security"
	"github.com/jdziat/handlerwrap/pkg/signature"
)

// ResolvedHandler describes the handler an Engine serves.
type ResolvedHandler struct {
	Identifier core.HandlerIdentifier
	Kind       core.HandlerKind
	// Method is the method that matched, empty for function and stream units.
	Method     string
	Shape      signature.Shape
	Input      coerce.TypeDescriptor
	// Arity is 0..2 for typed units and unset for stream units.
	Arity      int
	HasContext bool
	Degraded   bool
}

// Invoker is implemented by Engine and by wrappers around it.
type Invoker interface {
	HandleRequest(ctx context.Context, input any) (any, error)
	HandleStream(ctx context.Context, in io.Reader, out io.Writer) error
	Resolved() ResolvedHandler
}

var _ Invoker = (*Engine)(nil)

// Engine invokes one resolved handler. It is immutable after Resolve and
// safe for concurrent use.
type Engine struct {
	resolved ResolvedHandler
	adapter  handler.Adapter
	stream   core.StreamHandler
	coercer  *coerce.Coercer
	logger   *slog.Logger

	onStart    []func(context.Context, *core.Invocation)
	onComplete []func(context.Context, *core.Invocation)
	onFail     []func(context.Context, *core.Invocation, error)
}

// Resolve locates, inspects and binds the unit named by id.
func Resolve(id core.HandlerIdentifier, opts ...Option) (*Engine, error) {
	o := NewOptions()
	for _, opt := range opts {
		opt.Apply(o)
	}
	if o.Coercer == nil {
		o.Coercer = coerce.New()
	}

	if id.Unit == "" {
		return nil, core.ErrMissingHandler
	}
	if id.Method == "" {
		id.Method = core.DefaultMethodName
	}

	unit, err := o.Registry.Locate(id.Unit)
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", id, err)
	}

	e := &Engine{
		resolved:   ResolvedHandler{Identifier: id, Kind: unit.Kind},
		coercer:    o.Coercer,
		logger:     o.Logger.With("handler", id.String()),
		onStart:    o.onStart,
		onComplete: o.onComplete,
		onFail:     o.onFail,
	}

	if unit.Kind == core.KindStreaming {
		e.stream = unit.Stream()
		e.resolved.HasContext = true
		e.logger.Info("resolved handler", "kind", unit.Kind)
		return e, nil
	}

	sig, err := signature.Inspect(unit.Value, id.Method)
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", id, err)
	}
	h, err := handler.Bind(sig)
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", id, err)
	}

	e.adapter = h.Adapter()
	e.resolved.Method = sig.Method
	e.resolved.Shape = sig.Shape
	e.resolved.Input = sig.Input
	e.resolved.Arity = sig.Arity()
	e.resolved.HasContext = sig.Shape.HasContext()
	e.resolved.Degraded = sig.Degraded

	if sig.Degraded {
		e.logger.Warn("handler signature not recognised, invoking best effort",
			"method", sig.Method, "signature", sig.String())
	} else {
		e.logger.Info("resolved handler",
			"kind", unit.Kind, "method", sig.Method, "signature", sig.String())
	}
	return e, nil
}

// ResolveName parses s as a handler identifier and resolves it.
func ResolveName(s string, opts ...Option) (*Engine, error) {
	if s == "" {
		return nil, core.ErrMissingHandler
	}
	return Resolve(core.ParseIdentifier(s), opts...)
}

// Resolved returns a copy of the resolved handler description.
func (e *Engine) Resolved() ResolvedHandler {
	return e.resolved
}

// Kind returns whether the engine serves typed requests or streams.
func (e *Engine) Kind() core.HandlerKind {
	return e.resolved.Kind
}

// Coercer returns the coercer used for request inputs.
func (e *Engine) Coercer() *coerce.Coercer {
	return e.coercer
}

// HandleRequest coerces input to the handler's declared type, invokes the
// handler with ctx and returns its result unchanged.
func (e *Engine) HandleRequest(ctx context.Context, input any) (any, error) {
	if e.resolved.Kind != core.KindTyped {
		return nil, e.wrongKind(ctx, "HandleRequest")
	}

	inv := e.begin(ctx)
	out, err := e.invoke(ctx, input)
	e.finish(ctx, inv, err)
	if err != nil {
		return nil, &core.InvocationError{Handler: inv.Handler, RequestID: inv.RequestID, Cause: err}
	}
	return out, nil
}

// HandleStream forwards in and out to a streaming handler. Typed handlers
// fail with ErrWrongInvocationKind and the streams are left untouched.
func (e *Engine) HandleStream(ctx context.Context, in io.Reader, out io.Writer) error {
	if e.resolved.Kind != core.KindStreaming {
		return e.wrongKind(ctx, "HandleStream")
	}

	inv := e.begin(ctx)
	err := e.serveStream(ctx, in, out)
	e.finish(ctx, inv, err)
	if err != nil {
		return &core.InvocationError{Handler: inv.Handler, RequestID: inv.RequestID, Cause: err}
	}
	return nil
}

func (e *Engine) invoke(ctx context.Context, input any) (any, error) {
	if !e.resolved.Shape.HasInput() {
		return e.adapter(ctx, nil)
	}
	in, err := e.coercer.Coerce(input, e.resolved.Input)
	if err != nil {
		return nil, err
	}
	return e.adapter(ctx, in)
}

func (e *Engine) serveStream(ctx context.Context, in io.Reader, out io.Writer) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &core.PanicError{Value: r}
		}
	}()
	return e.stream.HandleStream(ctx, in, out)
}

func (e *Engine) wrongKind(ctx context.Context, op string) error {
	return &core.InvocationError{
		Handler:   e.resolved.Identifier.String(),
		RequestID: lambdactx.RequestIDFromContext(ctx),
		Cause:     fmt.Errorf("%w: %s on %s handler", core.ErrWrongInvocationKind, op, e.resolved.Kind),
	}
}

func (e *Engine) begin(ctx context.Context) *core.Invocation {
	requestID := lambdactx.RequestIDFromContext(ctx)
	if requestID == "" {
		requestID = lambdactx.NewRequestID()
	}
	inv := &core.Invocation{
		ID:        uuid.New().String(),
		RequestID: requestID,
		Handler:   e.resolved.Identifier.String(),
		Kind:      e.resolved.Kind,
		Status:    core.StatusRunning,
		StartedAt: time.Now(),
	}
	for _, fn := range e.onStart {
		fn(ctx, inv)
	}
	return inv
}

func (e *Engine) finish(ctx context.Context, inv *core.Invocation, err error) {
	now := time.Now()
	inv.FinishedAt = &now
	inv.DurationMS = now.Sub(inv.StartedAt).Milliseconds()

	if err != nil {
		inv.Status = core.StatusFailed
		inv.Error = security.SanitizeErrorMessage(err.Error())
		e.logger.Debug("invocation failed", "request_id", inv.RequestID, "error", err)
		for _, fn := range e.onFail {
			fn(ctx, inv, err)
		}
		return
	}

	inv.Status = core.StatusSucceeded
	for _, fn := range e.onComplete {
		fn(ctx, inv)
	}
}

// Invoke calls e.HandleRequest and converts the result to T.
func Invoke[T any](ctx context.Context, e *Engine, input any) (T, error) {
	var zero T
	out, err := e.HandleRequest(ctx, input)
	if err != nil || out == nil {
		return zero, err
	}
	if v, ok := out.(T); ok {
		return v, nil
	}

	target := reflect.TypeOf((*T)(nil)).Elem()
	v, err := e.coercer.Coerce(out, coerce.Describe(target))
	if err == nil {
		if t, ok := v.(T); ok {
			return t, nil
		}
		err = core.Coercion(target, fmt.Errorf("cannot use %T as %s", v, target))
	}
	return zero, fmt.Errorf("convert result of %s: %w", e.resolved.Identifier, err)
}
