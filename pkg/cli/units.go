package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/jdziat/handlerwrap/pkg/core"
	"github.com/jdziat/handlerwrap/pkg/engine"
)

func (a *app) unitsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "units",
		Short: "List registered units",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			names := a.registry.Names()
			if len(names) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No units registered.")
				return nil
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "UNIT\tKIND")
			for _, name := range names {
				kind := "error"
				if u, err := a.registry.Locate(name); err == nil {
					kind = string(u.Kind)
				}
				fmt.Fprintf(tw, "%s\t%s\n", name, kind)
			}
			return tw.Flush()
		},
	}
}

func (a *app) describeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "describe [handler]",
		Short: "Resolve a handler and print its signature",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := a.cfg.Identifier()
			if len(args) == 1 {
				id, err = core.ParseIdentifier(args[0]), nil
			}
			if err != nil {
				return err
			}

			e, err := engine.Resolve(id, engine.WithRegistry(a.registry), engine.WithLogger(a.logger))
			if err != nil {
				return err
			}
			rh := e.Resolved()

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 1, ' ', 0)
			fmt.Fprintf(tw, "handler:\t%s\n", rh.Identifier)
			fmt.Fprintf(tw, "kind:\t%s\n", rh.Kind)
			if rh.Kind != core.KindStreaming {
				fmt.Fprintf(tw, "method:\t%s\n", rh.Method)
				fmt.Fprintf(tw, "shape:\t%s\n", rh.Shape)
				fmt.Fprintf(tw, "input:\t%s\n", rh.Input)
				fmt.Fprintf(tw, "arity:\t%d\n", rh.Arity)
			}
			fmt.Fprintf(tw, "context:\t%t\n", rh.HasContext)
			fmt.Fprintf(tw, "degraded:\t%t\n", rh.Degraded)
			return tw.Flush()
		},
	}
}
