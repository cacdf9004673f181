// Package handlerwrap resolves a handler identifier to a registered unit and
// invokes it with inputs coerced to whatever the handler declares.
//
// This is the main package users should import. It re-exports the public
// types from the pkg/ packages for a clean API surface.
//
// Basic usage:
//
//	type Greeter struct{}
//
//	func (Greeter) HandleRequest(in Request, ctx context.Context) (string, error) {
//	    return "Hello " + in.Name, nil
//	}
//
//	func init() {
//	    handlerwrap.RegisterType[Greeter]("greeter")
//	}
//
//	// Resolve "greeter" (HandleRequest) or "greeter::Other"
//	h, err := handlerwrap.Resolve("greeter")
//	out, err := h.HandleRequest(ctx, map[string]any{"name": "World"})
package handlerwrap

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/jdziat/handlerwrap/pkg/config"
	"github.com/jdziat/handlerwrap/pkg/core"
	"github.com/jdziat/handlerwrap/pkg/engine"
	"github.com/jdziat/handlerwrap/pkg/instrument"
	"github.com/jdziat/handlerwrap/pkg/journal"
	"github.com/jdziat/handlerwrap/pkg/lambdactx"
	"github.com/jdziat/handlerwrap/pkg/locator"
	"github.com/jdziat/handlerwrap/pkg/schedule"
	"github.com/jdziat/handlerwrap/pkg/security"
	"github.com/jdziat/handlerwrap/pkg/signature"
)

type (
	// HandlerIdentifier names a unit and the method to call on it.
	HandlerIdentifier = core.HandlerIdentifier

	// HandlerKind tells typed units from streaming units.
	HandlerKind = core.HandlerKind

	// StreamHandler is implemented by units that work on raw bytes.
	StreamHandler = core.StreamHandler

	// StreamHandlerFunc adapts a function to StreamHandler.
	StreamHandlerFunc = core.StreamHandlerFunc

	// Invocation records one call through an Engine.
	Invocation = core.Invocation

	// InvocationStatus is the outcome of an Invocation.
	InvocationStatus = core.InvocationStatus

	// Journal persists invocation records.
	Journal = core.Journal

	// InvocationError wraps every failure raised while serving a request.
	InvocationError = core.InvocationError

	// CoercionError reports input that could not be converted.
	CoercionError = core.CoercionError

	// PanicError carries a value recovered from a panicking handler.
	PanicError = core.PanicError

	// Engine invokes one resolved handler.
	Engine = engine.Engine

	// Invoker is implemented by Engine and the wrappers around it.
	Invoker = engine.Invoker

	// ResolvedHandler describes what an Engine serves.
	ResolvedHandler = engine.ResolvedHandler

	// Option configures Resolve.
	Option = engine.Option

	// Registry maps unit names to factories.
	Registry = locator.Registry

	// Factory builds a fresh receiver for a unit.
	Factory = locator.Factory

	// Shape is the parameter layout of a resolved callable.
	Shape = signature.Shape

	// Schedule decides when a scheduled invocation fires next.
	Schedule = schedule.Schedule

	// Runner fires scheduled events at an Invoker.
	Runner = schedule.Runner

	// Metadata is the per-request information carried in the context.
	Metadata = lambdactx.Metadata
)

// Kind constants
const (
	KindTyped     = core.KindTyped
	KindStreaming = core.KindStreaming
)

// Status constants
const (
	StatusRunning   = core.StatusRunning
	StatusSucceeded = core.StatusSucceeded
	StatusFailed    = core.StatusFailed
)

// Shape constants
const (
	ShapeNone         = signature.ShapeNone
	ShapeInput        = signature.ShapeInput
	ShapeInputContext = signature.ShapeInputContext
	ShapeContextInput = signature.ShapeContextInput
	ShapeContext      = signature.ShapeContext
)

// DefaultMethodName is called when an identifier names no method.
const DefaultMethodName = core.DefaultMethodName

// Security limits
const (
	MaxUnitNameLength     = security.MaxUnitNameLength
	MaxPayloadSize        = security.MaxPayloadSize
	MaxErrorMessageLength = security.MaxErrorMessageLength
)

// Error variables
var (
	ErrMissingHandler      = core.ErrMissingHandler
	ErrNotFound            = core.ErrNotFound
	ErrBinding             = core.ErrBinding
	ErrCoercion            = core.ErrCoercion
	ErrWrongInvocationKind = core.ErrWrongInvocationKind
	ErrDuplicateUnit       = core.ErrDuplicateUnit
	ErrInvalidUnitName     = core.ErrInvalidUnitName
	ErrUnitNameTooLong     = core.ErrUnitNameTooLong
	ErrPayloadTooLarge     = core.ErrPayloadTooLarge
	ErrInvalidSchedule     = core.ErrInvalidSchedule
)

// Registration

// NewRegistry creates an empty Registry for use with WithRegistry.
func NewRegistry() *Registry {
	return locator.NewRegistry()
}

// Register adds a unit factory to the default registry. It panics on an
// invalid or duplicate name.
func Register(name string, factory Factory) {
	locator.Register(name, factory)
}

// RegisterFunc adds a function unit to the default registry. Functions of
// the form func(context.Context, io.Reader, io.Writer) error are streaming
// units.
func RegisterFunc(name string, fn any) {
	locator.RegisterFunc(name, fn)
}

// RegisterType adds T to the default registry; each resolution gets a new *T.
func RegisterType[T any](name string) {
	locator.MustRegisterType[T](name)
}

// Resolution

// ParseIdentifier splits "<unit>::<method>" into its parts.
func ParseIdentifier(s string) HandlerIdentifier {
	return core.ParseIdentifier(s)
}

// Resolve locates, inspects and binds the handler named by s.
func Resolve(s string, opts ...Option) (*Engine, error) {
	return engine.ResolveName(s, opts...)
}

// ResolveIdentifier is Resolve for an already parsed identifier.
func ResolveIdentifier(id HandlerIdentifier, opts ...Option) (*Engine, error) {
	return engine.Resolve(id, opts...)
}

// ResolveFromEnv resolves the handler named by HANDLERWRAP_HANDLER. An unset
// or empty variable is ErrMissingHandler.
func ResolveFromEnv(opts ...Option) (*Engine, error) {
	cfg, err := config.Load("")
	if err != nil {
		return nil, err
	}
	id, err := cfg.Identifier()
	if err != nil {
		return nil, err
	}
	return engine.Resolve(id, opts...)
}

var fromEnv = engine.NewLazy(func() (*Engine, error) { return ResolveFromEnv() })

// HandleRequest invokes the handler named by HANDLERWRAP_HANDLER, resolving
// it on first use. A resolution failure is returned by every call.
func HandleRequest(ctx context.Context, input any) (any, error) {
	return fromEnv.HandleRequest(ctx, input)
}

// HandleStream is HandleRequest for streaming units.
func HandleStream(ctx context.Context, in io.Reader, out io.Writer) error {
	return fromEnv.HandleStream(ctx, in, out)
}

// Invoke calls e.HandleRequest and converts the result to T.
func Invoke[T any](ctx context.Context, e *Engine, input any) (T, error) {
	return engine.Invoke[T](ctx, e, input)
}

// Resolve options

// WithRegistry resolves against r instead of the default registry.
func WithRegistry(r *Registry) Option {
	return engine.WithRegistry(r)
}

// WithLogger sets the engine logger.
func WithLogger(l *slog.Logger) Option {
	return engine.WithLogger(l)
}

// OnStart registers a hook called before each invocation.
func OnStart(fn func(context.Context, *Invocation)) Option {
	return engine.OnStart(fn)
}

// OnComplete registers a hook called after each successful invocation.
func OnComplete(fn func(context.Context, *Invocation)) Option {
	return engine.OnComplete(fn)
}

// OnFail registers a hook called after each failed invocation.
func OnFail(fn func(context.Context, *Invocation, error)) Option {
	return engine.OnFail(fn)
}

// Instrumentation and journal

// Instrument wraps next with tracing, metrics and request metadata.
func Instrument(next Invoker, opts ...instrument.Option) Invoker {
	return instrument.Wrap(next, opts...)
}

// OpenJournal opens a SQLite path or PostgreSQL URL and migrates it.
func OpenJournal(dsn string) (*journal.GormJournal, error) {
	return journal.Open(dsn)
}

// JournalOptions returns Resolve options recording every invocation in j.
func JournalOptions(j Journal, logger *slog.Logger) []Option {
	return journal.Hooks(j, logger)
}

// Schedule functions

// Every creates a schedule that fires at fixed intervals.
func Every(d time.Duration) Schedule {
	return schedule.Every(d)
}

// Daily creates a schedule that fires at a specific time each day.
func Daily(hour, minute int) Schedule {
	return schedule.Daily(hour, minute)
}

// Weekly creates a schedule that fires at a specific day and time each week.
func Weekly(day time.Weekday, hour, minute int) Schedule {
	return schedule.Weekly(day, hour, minute)
}

// Cron creates a schedule from a cron expression. It panics on a bad
// expression; use ParseCron to get an error instead.
func Cron(expr string) Schedule {
	return schedule.Cron(expr)
}

// ParseCron parses a cron expression or descriptor.
func ParseCron(expr string) (Schedule, error) {
	return schedule.ParseCron(expr)
}

// NewRunner creates a Runner firing scheduled events at inv.
func NewRunner(inv Invoker, opts ...schedule.RunnerOption) *Runner {
	return schedule.NewRunner(inv, opts...)
}

// Context accessors

// MetadataFromContext returns the request metadata, or nil outside an
// instrumented invocation.
func MetadataFromContext(ctx context.Context) *Metadata {
	return lambdactx.FromContext(ctx)
}

// RequestIDFromContext returns the current request ID, or "".
func RequestIDFromContext(ctx context.Context) string {
	return lambdactx.RequestIDFromContext(ctx)
}

// IsColdStart reports whether this is the first invocation of the process.
func IsColdStart(ctx context.Context) bool {
	return lambdactx.IsColdStart(ctx)
}
