// Package instrument wraps an engine.Invoker with tracing, metrics and
// per-invocation metadata.
//
// Every invocation gets an OpenTelemetry span, Prometheus observations and a
// lambdactx.Metadata value carrying the request ID and the cold-start flag:
//
//	tp, err := instrument.InitTracer(instrument.TracerConfig{
//		ServiceName:    "greeter",
//		ExportEndpoint: "localhost:4318",
//		Insecure:       true,
//	})
//	...
//	inv := instrument.Wrap(e, instrument.WithTracerProvider(tp))
//	out, err := inv.HandleRequest(ctx, input)
package instrument
