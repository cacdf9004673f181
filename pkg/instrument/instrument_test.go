package instrument

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/jdziat/handlerwrap/pkg/core"
	"github.com/jdziat/handlerwrap/pkg/engine"
	"github.com/jdziat/handlerwrap/pkg/lambdactx"
	"github.com/jdziat/handlerwrap/pkg/locator"
	"github.com/jdziat/handlerwrap/pkg/metrics"
)

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

type input struct {
	Message string `json:"message"`
}

var errRejected = errors.New("rejected")

type seen struct {
	md *lambdactx.Metadata
}

func setup(t *testing.T, name string, s *seen) (*Wrapper, *tracetest.SpanRecorder, *metrics.Metrics) {
	t.Helper()

	r := locator.NewRegistry()
	require.NoError(t, r.RegisterFunc("greeter", func(in input, ctx context.Context) (string, error) {
		if s != nil {
			s.md = lambdactx.FromContext(ctx)
		}
		if in.Message == "" {
			return "", errRejected
		}
		return "Hello " + in.Message, nil
	}))
	require.NoError(t, r.RegisterFunc("upper", func(_ context.Context, in io.Reader, out io.Writer) error {
		data, err := io.ReadAll(in)
		if err != nil {
			return err
		}
		_, err = out.Write([]byte(strings.ToUpper(string(data))))
		return err
	}))

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	e, err := engine.ResolveName(name, engine.WithRegistry(r), engine.WithLogger(logger))
	require.NoError(t, err)

	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })

	m := metrics.New(prometheus.NewRegistry())
	w := Wrap(e, WithTracerProvider(tp), WithMetrics(m), WithLogger(logger))
	return w, sr, m
}

func attrs(span sdktrace.ReadOnlySpan) map[attribute.Key]attribute.Value {
	out := make(map[attribute.Key]attribute.Value)
	for _, kv := range span.Attributes() {
		out[kv.Key] = kv.Value
	}
	return out
}

// ---------------------------------------------------------------------------
// Tests
// ---------------------------------------------------------------------------

func TestWrapper_SpanPerInvocationWithColdStart(t *testing.T) {
	s := &seen{}
	w, sr, _ := setup(t, "greeter", s)

	out, err := w.HandleRequest(context.Background(), `{"message":"World"}`)
	require.NoError(t, err)
	assert.Equal(t, "Hello World", out)

	require.NotNil(t, s.md)
	assert.True(t, s.md.ColdStart)
	assert.Equal(t, "greeter::HandleRequest", s.md.Handler)
	assert.Equal(t, "request", s.md.Source)
	firstID := s.md.RequestID

	_, err = w.HandleRequest(context.Background(), map[string]any{"message": "again"})
	require.NoError(t, err)
	assert.False(t, s.md.ColdStart)
	assert.NotEqual(t, firstID, s.md.RequestID)

	spans := sr.Ended()
	require.Len(t, spans, 2)
	assert.Equal(t, "greeter::HandleRequest", spans[0].Name())
	assert.Equal(t, codes.Ok, spans[0].Status().Code)

	first, second := attrs(spans[0]), attrs(spans[1])
	assert.True(t, first["faas.coldstart"].AsBool())
	assert.False(t, second["faas.coldstart"].AsBool())
	assert.Equal(t, firstID, first["faas.invocation_id"].AsString())
	assert.Equal(t, "typed", first["handlerwrap.kind"].AsString())
}

func TestWrapper_KeepsCallerMetadata(t *testing.T) {
	s := &seen{}
	w, _, _ := setup(t, "greeter", s)

	md := &lambdactx.Metadata{RequestID: "req-7", Source: "schedule"}
	_, err := w.HandleRequest(lambdactx.NewContext(context.Background(), md), input{Message: "World"})
	require.NoError(t, err)

	assert.Equal(t, "req-7", s.md.RequestID)
	assert.Equal(t, "schedule", s.md.Source)
	assert.NotSame(t, md, s.md)
	assert.Empty(t, md.Handler, "caller metadata must not be modified")
}

func TestWrapper_RecordsFailures(t *testing.T) {
	w, sr, m := setup(t, "greeter", nil)

	_, err := w.HandleRequest(context.Background(), map[string]any{})
	assert.ErrorIs(t, err, errRejected)

	_, err = w.HandleRequest(context.Background(), `{"message": 1}`)
	assert.ErrorIs(t, err, core.ErrCoercion)

	spans := sr.Ended()
	require.Len(t, spans, 2)
	assert.Equal(t, codes.Error, spans[0].Status().Code)
	require.NotEmpty(t, spans[0].Events())
	assert.Equal(t, "exception", spans[0].Events()[0].Name)

	var buf bytes.Buffer
	require.NoError(t, m.WritePrometheus(&buf))
	text := buf.String()
	assert.Contains(t, text, `handlerwrap_invocation_total{handler="greeter::HandleRequest",status="failed"} 2`)
	assert.Contains(t, text, `handlerwrap_coercion_fail_total{handler="greeter::HandleRequest"} 1`)
	assert.Contains(t, text, `handlerwrap_cold_start_total{handler="greeter::HandleRequest"} 1`)
	assert.Contains(t, text, `handlerwrap_in_flight{handler="greeter::HandleRequest"} 0`)
}

func TestWrapper_Stream(t *testing.T) {
	w, sr, _ := setup(t, "upper", nil)

	var out bytes.Buffer
	require.NoError(t, w.HandleStream(context.Background(), strings.NewReader("hi"), &out))
	assert.Equal(t, "HI", out.String())

	_, err := w.HandleRequest(context.Background(), "x")
	assert.ErrorIs(t, err, core.ErrWrongInvocationKind)

	spans := sr.Ended()
	require.Len(t, spans, 2)
	assert.Equal(t, "HandleStream", attrs(spans[0])["handlerwrap.operation"].AsString())
	assert.Equal(t, core.KindStreaming, w.Resolved().Kind)
}

func TestWrapper_WithoutMetrics(t *testing.T) {
	w, _, _ := setup(t, "greeter", nil)
	WithMetrics(nil)(w)

	out, err := w.HandleRequest(context.Background(), input{Message: "World"})
	require.NoError(t, err)
	assert.Equal(t, "Hello World", out)
}
