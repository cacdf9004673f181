package handler

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jdziat/handlerwrap/pkg/core"
	"github.com/jdziat/handlerwrap/pkg/signature"
)

// ---------------------------------------------------------------------------
// Helper types used across multiple tests
// ---------------------------------------------------------------------------

type testArgs struct {
	Name  string `json:"name"`
	Value int    `json:"value"`
}

type testResult struct {
	Output string `json:"output"`
	Count  int    `json:"count"`
}

type ctxKey struct{}

type customErr struct{ msg string }

func (e *customErr) Error() string { return e.msg }

func bind(t *testing.T, fn any) *Handler {
	t.Helper()
	sig, err := signature.Inspect(reflect.ValueOf(fn), core.DefaultMethodName)
	require.NoError(t, err)
	h, err := Bind(sig)
	require.NoError(t, err)
	return h
}

// ---------------------------------------------------------------------------
// Bind – rejection
// ---------------------------------------------------------------------------

func TestBind_RejectsMissingMethod(t *testing.T) {
	_, err := Bind(signature.Signature{Method: "HandleRequest"})
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrBinding)
	assert.Contains(t, err.Error(), "HandleRequest")
}

func TestBind_RejectsInvalidFunction(t *testing.T) {
	_, err := Bind(signature.Signature{Found: true})
	assert.ErrorIs(t, err, core.ErrBinding)
}

func TestBind_RejectsVariadic(t *testing.T) {
	sig, err := signature.Inspect(reflect.ValueOf(func(parts ...string) string { return "" }), "")
	require.NoError(t, err)
	_, err = Bind(sig)
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrBinding)
	assert.Contains(t, err.Error(), "variadic")
}

func TestBind_RejectsUnsupportedResults(t *testing.T) {
	fns := []any{
		func(string) (string, string) { return "", "" },
		func(string) (string, string, error) { return "", "", nil },
	}
	for _, fn := range fns {
		sig, err := signature.Inspect(reflect.ValueOf(fn), "")
		require.NoError(t, err)
		_, err = Bind(sig)
		assert.ErrorIs(t, err, core.ErrBinding)
	}
}

// ---------------------------------------------------------------------------
// Invoke – shapes
// ---------------------------------------------------------------------------

func TestInvoke_NoArgsIgnoresInputAndContext(t *testing.T) {
	h := bind(t, func() string { return "Hello World" })

	out, err := h.Invoke(context.Background(), map[string]any{"ignored": true})
	require.NoError(t, err)
	assert.Equal(t, "Hello World", out)
}

func TestInvoke_InputOnly(t *testing.T) {
	h := bind(t, func(args testArgs) (testResult, error) {
		return testResult{Output: args.Name, Count: args.Value}, nil
	})

	out, err := h.Invoke(context.Background(), testArgs{Name: "x", Value: 2})
	require.NoError(t, err)
	assert.Equal(t, testResult{Output: "x", Count: 2}, out)
}

func TestInvoke_InputThenContextReceivesSameContext(t *testing.T) {
	ctx := context.WithValue(context.Background(), ctxKey{}, "marker")
	var got context.Context
	h := bind(t, func(in string, c context.Context) string {
		got = c
		return in
	})

	out, err := h.Invoke(ctx, "World")
	require.NoError(t, err)
	assert.Equal(t, "World", out)
	assert.True(t, got == ctx, "handler must receive the caller's context value")
}

func TestInvoke_ContextThenInput(t *testing.T) {
	ctx := context.WithValue(context.Background(), ctxKey{}, "marker")
	h := bind(t, func(c context.Context, args *testArgs) error {
		if c.Value(ctxKey{}) != "marker" {
			return errors.New("wrong context")
		}
		if args.Name != "x" {
			return errors.New("wrong args")
		}
		return nil
	})

	out, err := h.Invoke(ctx, &testArgs{Name: "x"})
	require.NoError(t, err)
	assert.Nil(t, out)
}

func TestInvoke_ContextOnly(t *testing.T) {
	ctx := context.WithValue(context.Background(), ctxKey{}, "marker")
	h := bind(t, func(c context.Context) (any, error) { return c.Value(ctxKey{}), nil })

	out, err := h.Invoke(ctx, "ignored")
	require.NoError(t, err)
	assert.Equal(t, "marker", out)
}

func TestInvoke_NilInputBecomesZeroValue(t *testing.T) {
	h := bind(t, func(args testArgs) int { return args.Value })

	out, err := h.Invoke(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, 0, out)
}

func TestInvoke_UnassignableInput(t *testing.T) {
	h := bind(t, func(args testArgs) error { return nil })

	_, err := h.Invoke(context.Background(), "not args")
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrCoercion)
}

// ---------------------------------------------------------------------------
// Invoke – results
// ---------------------------------------------------------------------------

func TestInvoke_ErrorResults(t *testing.T) {
	boom := errors.New("boom")

	_, err := bind(t, func(string) error { return boom }).Invoke(context.Background(), "x")
	assert.ErrorIs(t, err, boom)

	out, err := bind(t, func(string) error { return nil }).Invoke(context.Background(), "x")
	assert.NoError(t, err)
	assert.Nil(t, out)

	out, err = bind(t, func(string) (string, error) { return "partial", boom }).Invoke(context.Background(), "x")
	assert.ErrorIs(t, err, boom)
	assert.Nil(t, out)
}

func TestInvoke_ConcreteErrorResult(t *testing.T) {
	h := bind(t, func(string) (int, *customErr) { return 1, nil })
	out, err := h.Invoke(context.Background(), "x")
	require.NoError(t, err)
	assert.Equal(t, 1, out)

	h = bind(t, func(string) (int, *customErr) { return 0, &customErr{msg: "bad"} })
	_, err = h.Invoke(context.Background(), "x")
	assert.EqualError(t, err, "bad")
}

func TestInvoke_NoResults(t *testing.T) {
	called := false
	out, err := bind(t, func(string) { called = true }).Invoke(context.Background(), "x")
	require.NoError(t, err)
	assert.Nil(t, out)
	assert.True(t, called)
}

func TestInvoke_NilInterfaceResult(t *testing.T) {
	out, err := bind(t, func() any { return nil }).Invoke(context.Background(), nil)
	require.NoError(t, err)
	assert.Nil(t, out)
}

func TestInvoke_RecoversPanic(t *testing.T) {
	cause := errors.New("kaboom")
	h := bind(t, func(string) string { panic(cause) })

	_, err := h.Invoke(context.Background(), "x")
	require.Error(t, err)

	var pe *core.PanicError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, cause, pe.Value)
	assert.ErrorIs(t, err, cause)
}

// ---------------------------------------------------------------------------
// Invoke – degraded signatures
// ---------------------------------------------------------------------------

type degradedUnit struct {
	gotCtx   context.Context
	gotExtra string
}

func (u *degradedUnit) HandleRequest(in string, extra string, ctx context.Context) string {
	u.gotCtx, u.gotExtra = ctx, extra
	return "got " + in
}

func TestInvoke_DegradedBestEffort(t *testing.T) {
	u := &degradedUnit{}
	sig, err := signature.Inspect(reflect.ValueOf(u), core.DefaultMethodName)
	require.NoError(t, err)
	require.True(t, sig.Degraded)

	h, err := Bind(sig)
	require.NoError(t, err)
	assert.True(t, h.Degraded)

	ctx := context.WithValue(context.Background(), ctxKey{}, 1)
	out, err := h.Adapter()(ctx, "World")
	require.NoError(t, err)
	assert.Equal(t, "got World", out)
	assert.True(t, u.gotCtx == ctx)
	assert.Empty(t, u.gotExtra)

	_, err = h.Invoke(ctx, 42)
	assert.ErrorIs(t, err, core.ErrCoercion)
}
