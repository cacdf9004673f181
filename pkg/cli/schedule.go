package cli

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/jdziat/handlerwrap/pkg/core"
	"github.com/jdziat/handlerwrap/pkg/schedule"
)

func (a *app) scheduleCommand() *cobra.Command {
	var (
		cronExpr string
		every    time.Duration
		name     string
		detail   string
		region   string
		tick     time.Duration
		once     bool
	)
	cmd := &cobra.Command{
		Use:   "schedule",
		Short: "Invoke the configured handler on a schedule",
		Long: `Invoke the configured handler with a scheduled event each time the schedule
fires, until interrupted. --once fires a single event immediately and exits.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var sched schedule.Schedule
			switch {
			case cronExpr != "" && every > 0:
				return errors.New("use only one of --cron and --every")
			case cronExpr != "":
				var err error
				if sched, err = schedule.ParseCron(cronExpr); err != nil {
					return err
				}
			case every > 0:
				sched = schedule.Every(every)
			default:
				return errors.New("one of --cron or --every is required")
			}

			ctx := cmd.Context()
			s, err := a.open(ctx, "schedule")
			if err != nil {
				return err
			}
			defer func() { _ = s.Close(ctx) }()

			var detailValue any
			if detail != "" {
				if detailValue, err = s.engine.Coercer().Decode([]byte(detail)); err != nil {
					return fmt.Errorf("decode --detail: %w", err)
				}
			}

			opts := []schedule.RunnerOption{schedule.WithLogger(a.logger), schedule.WithRegion(region)}
			if tick > 0 {
				opts = append(opts, schedule.WithTick(tick))
			}
			r := schedule.NewRunner(s.invoker, opts...)
			if err := r.Add(name, sched, detailValue); err != nil {
				return err
			}

			if once {
				result, err := r.Fire(ctx, name, time.Now())
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if text, ok := result.(string); ok && s.invoker.Resolved().Kind == core.KindStreaming {
					fmt.Fprintln(out, text)
					return nil
				}
				enc, err := s.engine.Coercer().Encode(result)
				if err != nil {
					return fmt.Errorf("encode result: %w", err)
				}
				fmt.Fprintln(out, string(enc))
				return nil
			}

			ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
			defer stop()
			a.logger.Info("schedule started", "entry", name, "schedule", describeSchedule(sched))
			return r.Run(ctx)
		},
	}
	f := cmd.Flags()
	f.StringVar(&cronExpr, "cron", "", "cron expression or descriptor such as @hourly")
	f.DurationVar(&every, "every", 0, "fixed interval between invocations")
	f.StringVar(&name, "name", "cli", "schedule entry name")
	f.StringVar(&detail, "detail", "", "JSON detail carried by each event")
	f.StringVar(&region, "region", "local", "region reported in events")
	f.DurationVar(&tick, "tick", 0, "how often the runner checks for due entries")
	f.BoolVar(&once, "once", false, "fire one event now and exit")
	return cmd
}

func describeSchedule(s schedule.Schedule) string {
	if st, ok := s.(fmt.Stringer); ok {
		return st.String()
	}
	return fmt.Sprintf("%T", s)
}
