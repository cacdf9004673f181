// Package signature inspects a located unit and describes how its handler
// method must be called.
//
// The result is a Signature whose Shape says which of the input and the
// context the callable takes, and in which order:
//
//	ShapeNone          func() ...
//	ShapeInput         func(in T) ...
//	ShapeInputContext  func(in T, ctx context.Context) ...
//	ShapeContextInput  func(ctx context.Context, in T) ...
//	ShapeContext       func(ctx context.Context) ...
//
// Results may be (), (R), (error) or (R, error). A method with the right name
// but no usable shape yields a degraded Signature, which the binder invokes
// on a best-effort basis.
package signature
