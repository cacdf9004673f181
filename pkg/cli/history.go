package cli

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
)

func (a *app) historyCommand() *cobra.Command {
	var (
		handler string
		limit   int
	)
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recorded invocations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			j, err := a.openJournal()
			if err != nil {
				return err
			}
			defer j.Close()

			invs, err := j.List(cmd.Context(), handler, limit)
			if err != nil {
				return err
			}
			if len(invs) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No invocations recorded.")
				return nil
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tHANDLER\tSTATUS\tSTARTED\tDURATION\tERROR")
			for _, inv := range invs {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
					inv.ID, inv.Handler, inv.Status,
					inv.StartedAt.Format(time.RFC3339),
					time.Duration(inv.DurationMS)*time.Millisecond,
					truncate(inv.Error, 60))
			}
			return tw.Flush()
		},
	}
	cmd.Flags().StringVar(&handler, "for", "", "only show invocations of this handler")
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "maximum number of invocations")

	cmd.AddCommand(a.historyPruneCommand(), a.historyStatsCommand())
	return cmd
}

func (a *app) historyPruneCommand() *cobra.Command {
	var olderThan time.Duration
	cmd := &cobra.Command{
		Use:   "prune",
		Short: "Delete finished invocations older than --older-than",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			j, err := a.openJournal()
			if err != nil {
				return err
			}
			defer j.Close()

			n, err := j.Prune(cmd.Context(), time.Now().Add(-olderThan))
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Pruned %d invocations.\n", n)
			return nil
		},
	}
	cmd.Flags().DurationVar(&olderThan, "older-than", 7*24*time.Hour, "age cutoff")
	return cmd
}

func (a *app) historyStatsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Count invocations per handler and status",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			j, err := a.openJournal()
			if err != nil {
				return err
			}
			defer j.Close()

			stats, err := j.Stats(cmd.Context())
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "HANDLER\tRUNNING\tSUCCEEDED\tFAILED")
			for _, s := range stats {
				fmt.Fprintf(tw, "%s\t%d\t%d\t%d\n", s.Handler, s.Running, s.Succeeded, s.Failed)
			}
			return tw.Flush()
		},
	}
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}
