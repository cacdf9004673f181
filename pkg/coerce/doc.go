// Package coerce converts raw invocation inputs into the concrete type a
// handler declares.
//
// A TypeDescriptor classifies the declared type into one of four kinds, and
// the Coercer keeps one strategy per kind:
//
//	Untyped     the raw input is passed through unchanged
//	Primitive   strings, booleans and numbers pass through, converting only
//	            between compatible kinds
//	Event       well-known event shapes are serialized to canonical JSON and
//	            parsed by their dedicated codec
//	Structured  JSON text is parsed directly into the type; other values are
//	            mapped field by field
//
// Coercion never mutates the raw input.
package coerce
