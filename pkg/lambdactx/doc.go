// Package lambdactx exposes the metadata of the current invocation to
// handler code: request ID, handler identifier, cold-start flag and the
// time left before the context deadline.
//
//	func (g *Greeter) HandleRequest(in Input, ctx context.Context) (string, error) {
//		slog.Info("greeting", "request_id", lambdactx.RequestIDFromContext(ctx))
//		return "Hello " + in.Message, nil
//	}
package lambdactx
