// Package cli implements the handlerwrap command line: invoke a handler
// locally, drive it from a schedule, inspect the invocation journal and list
// registered units.
package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/jdziat/handlerwrap/pkg/config"
	"github.com/jdziat/handlerwrap/pkg/engine"
	"github.com/jdziat/handlerwrap/pkg/instrument"
	"github.com/jdziat/handlerwrap/pkg/journal"
	"github.com/jdziat/handlerwrap/pkg/locator"
	hwlog "github.com/jdziat/handlerwrap/pkg/log"
)

var errNoJournal = errors.New("no journal configured, set --journal or HANDLERWRAP_JOURNAL_DSN")

type app struct {
	registry *locator.Registry
	v        *viper.Viper
	cfgFile  string
	cfg      *config.Config
	logger   *slog.Logger
}

// NewRootCommand builds the command tree over registry. A nil registry
// means locator.DefaultRegistry.
func NewRootCommand(registry *locator.Registry) *cobra.Command {
	if registry == nil {
		registry = locator.DefaultRegistry
	}
	a := &app{registry: registry, v: config.NewViper()}

	root := &cobra.Command{
		Use:   "handlerwrap",
		Short: "Resolve and invoke registered handlers",
		Long: `handlerwrap resolves a handler identifier of the form <unit>::<method>
(or just <unit>, which calls HandleRequest) against the registered units and
invokes it with coerced input.

The handler comes from --handler, the config file or HANDLERWRAP_HANDLER.`,
		SilenceUsage:      true,
		PersistentPreRunE: a.load,
	}

	pf := root.PersistentFlags()
	pf.StringVar(&a.cfgFile, "config", "", "config file (yaml, json or toml)")
	pf.String("handler", "", "handler identifier, <unit>::<method> or <unit>")
	pf.String("log-level", "", "log level (debug, info, warn, error)")
	pf.String("log-format", "", "log format (text, json)")
	pf.String("journal", "", "journal DSN, a SQLite path or a PostgreSQL URL")
	_ = a.v.BindPFlag("handler", pf.Lookup("handler"))
	_ = a.v.BindPFlag("log.level", pf.Lookup("log-level"))
	_ = a.v.BindPFlag("log.format", pf.Lookup("log-format"))
	_ = a.v.BindPFlag("journal.dsn", pf.Lookup("journal"))

	root.AddCommand(
		a.invokeCommand(),
		a.scheduleCommand(),
		a.historyCommand(),
		a.unitsCommand(),
		a.describeCommand(),
	)
	return root
}

// Execute runs the root command over locator.DefaultRegistry.
func Execute(ctx context.Context) error {
	return NewRootCommand(nil).ExecuteContext(ctx)
}

func (a *app) load(cmd *cobra.Command, _ []string) error {
	cfg, err := config.LoadFrom(a.v, a.cfgFile)
	if err != nil {
		return err
	}
	a.cfg = cfg
	a.logger = hwlog.New(hwlog.Config{Level: cfg.Log.Level, Format: cfg.Log.Format}, cmd.ErrOrStderr())
	return nil
}

// session is one resolved handler plus the resources opened for it.
type session struct {
	engine  *engine.Engine
	invoker engine.Invoker
	closers []func(context.Context) error
}

func (s *session) Close(ctx context.Context) error {
	var errs []error
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i](ctx); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// open resolves the configured handler and wraps it with tracing, metrics
// and, when a DSN is set, the journal hooks.
func (a *app) open(ctx context.Context, source string) (*session, error) {
	id, err := a.cfg.Identifier()
	if err != nil {
		return nil, err
	}

	s := &session{}
	opts := []engine.Option{engine.WithRegistry(a.registry), engine.WithLogger(a.logger)}
	if a.cfg.Journal.DSN != "" {
		j, err := journal.Open(a.cfg.Journal.DSN)
		if err != nil {
			return nil, err
		}
		s.closers = append(s.closers, func(context.Context) error { return j.Close() })
		opts = append(opts, journal.Hooks(journal.Retrying(j, journal.DefaultRetryConfig()), a.logger)...)
	}

	eng, err := engine.Resolve(id, opts...)
	if err != nil {
		_ = s.Close(ctx)
		return nil, err
	}

	wopts := []instrument.Option{instrument.WithLogger(a.logger), instrument.WithSource(source)}
	if !a.cfg.Metrics.Enabled {
		wopts = append(wopts, instrument.WithMetrics(nil))
	}
	if a.cfg.Tracing.Enabled {
		tp, err := instrument.InitTracer(ctx, instrument.TracerConfig{
			ServiceName:    a.cfg.Tracing.ServiceName,
			ExportEndpoint: a.cfg.Tracing.Endpoint,
			Insecure:       a.cfg.Tracing.Insecure,
		})
		if err != nil {
			_ = s.Close(ctx)
			return nil, fmt.Errorf("init tracer: %w", err)
		}
		s.closers = append(s.closers, tp.Shutdown)
		wopts = append(wopts, instrument.WithTracerProvider(tp))
	}

	s.engine = eng
	s.invoker = instrument.Wrap(eng, wopts...)
	return s, nil
}

func (a *app) openJournal() (*journal.GormJournal, error) {
	if a.cfg.Journal.DSN == "" {
		return nil, errNoJournal
	}
	return journal.Open(a.cfg.Journal.DSN)
}
