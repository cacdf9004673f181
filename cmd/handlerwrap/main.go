// Command handlerwrap resolves and invokes handlers registered by linked-in
// packages. This build carries only the diagnostic units below; link units
// in with a blank import to serve them.
package main

import (
	"context"
	"io"
	"os"
	"time"

	"github.com/jdziat/handlerwrap"
	"github.com/jdziat/handlerwrap/pkg/cli"
)

type inspection struct {
	RequestID string            `json:"request_id"`
	Handler   string            `json:"handler"`
	Source    string            `json:"source"`
	ColdStart bool              `json:"cold_start"`
	StartedAt time.Time         `json:"started_at"`
	Attrs     map[string]string `json:"attributes,omitempty"`
	Input     any               `json:"input"`
}

func init() {
	handlerwrap.RegisterFunc("handlerwrap.echo", func(_ context.Context, in io.Reader, out io.Writer) error {
		_, err := io.Copy(out, in)
		return err
	})
	handlerwrap.RegisterFunc("handlerwrap.inspect", func(in any, ctx context.Context) inspection {
		res := inspection{Input: in}
		if md := handlerwrap.MetadataFromContext(ctx); md != nil {
			res.RequestID = md.RequestID
			res.Handler = md.Handler
			res.Source = md.Source
			res.ColdStart = md.ColdStart
			res.StartedAt = md.StartedAt
			res.Attrs = md.Attributes
		}
		return res
	})
}

func main() {
	if err := cli.Execute(context.Background()); err != nil {
		os.Exit(1)
	}
}
