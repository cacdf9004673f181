package cli

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/jdziat/handlerwrap/pkg/core"
	"github.com/jdziat/handlerwrap/pkg/metrics"
)

func (a *app) invokeCommand() *cobra.Command {
	var (
		file         string
		raw          bool
		printMetrics bool
	)
	cmd := &cobra.Command{
		Use:   "invoke [input]",
		Short: "Invoke the configured handler once",
		Long: `Invoke the configured handler once and print its result as JSON.

Input comes from the argument, --file or stdin. It is decoded as JSON when it
parses; otherwise, or with --raw, the handler receives it as a string.
Streaming units receive the input bytes unchanged and write to stdout.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			data, err := readInput(cmd, args, file)
			if err != nil {
				return err
			}

			s, err := a.open(ctx, "cli")
			if err != nil {
				return err
			}
			defer func() { _ = s.Close(ctx) }()

			out := cmd.OutOrStdout()
			if s.invoker.Resolved().Kind == core.KindStreaming {
				if err := s.invoker.HandleStream(ctx, bytes.NewReader(data), out); err != nil {
					return err
				}
			} else {
				var input any
				switch {
				case raw:
					input = string(data)
				case len(bytes.TrimSpace(data)) > 0:
					input, err = s.engine.Coercer().Decode(data)
					if err != nil {
						input = string(data)
					}
				}

				result, err := s.invoker.HandleRequest(ctx, input)
				if err != nil {
					return err
				}
				enc, err := s.engine.Coercer().Encode(result)
				if err != nil {
					return fmt.Errorf("encode result: %w", err)
				}
				fmt.Fprintln(out, string(enc))
			}

			if printMetrics && a.cfg.Metrics.Enabled {
				return metrics.WritePrometheus(cmd.ErrOrStderr())
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "read input from file")
	cmd.Flags().BoolVar(&raw, "raw", false, "pass input as a string without decoding")
	cmd.Flags().BoolVar(&printMetrics, "print-metrics", false, "write Prometheus metrics to stderr afterwards")
	return cmd
}

func readInput(cmd *cobra.Command, args []string, file string) ([]byte, error) {
	switch {
	case file != "" && len(args) > 0:
		return nil, fmt.Errorf("input given both as argument and --file")
	case file != "":
		data, err := os.ReadFile(file)
		if err != nil {
			return nil, fmt.Errorf("read input: %w", err)
		}
		return data, nil
	case len(args) > 0:
		return []byte(args[0]), nil
	default:
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return nil, fmt.Errorf("read stdin: %w", err)
		}
		return data, nil
	}
}
