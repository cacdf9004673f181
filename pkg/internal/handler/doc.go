// Package handler binds an inspected signature to a single arity-erased
// adapter.
//
// This package is internal and should not be imported directly.
// It provides:
//   - Bind: turns a signature.Signature into a Handler
//   - Handler.Invoke: reflection-based invocation with result normalization
//   - Panic recovery into core.PanicError
package handler
