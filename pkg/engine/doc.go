// Package engine resolves a handler unit once and invokes it per request.
//
// Resolution runs before traffic:
//
//	e, err := engine.ResolveName("greeter::HandleRequest")
//	if err != nil {
//		log.Fatal(err) // ErrMissingHandler, ErrNotFound or ErrBinding
//	}
//
// Typed units are served by HandleRequest, which coerces the raw input to the
// handler's declared parameter type before calling it. Streaming units are
// served by HandleStream. Calling the wrong one fails with
// core.ErrWrongInvocationKind.
//
// Hooks registered with OnStart, OnComplete and OnFail receive a
// core.Invocation record for every request; the journal package persists them.
//
// Lazy defers resolution to the first request and reuses the outcome.
package engine
