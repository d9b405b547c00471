package command

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/urfave/cli/v2"

	"github.com/yndnr/synckit-go/internal/cli/output"
	"github.com/yndnr/synckit-go/internal/infra/shutdown"
	"github.com/yndnr/synckit-go/internal/server/httpserver"
	"github.com/yndnr/synckit-go/internal/stress"
	"github.com/yndnr/synckit-go/internal/telemetry/metric"
)

// ErrScenarioFailed is returned when any scenario's property did not hold.
var ErrScenarioFailed = errors.New("one or more stress scenarios failed")

// StressCommand returns the stress command.
func StressCommand() *cli.Command {
	return &cli.Command{
		Name:      "stress",
		Usage:     "Run concurrency stress scenarios against the primitives",
		ArgsUsage: "[counter|map|account|limiter|cache|singleton|all]...",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:  "workers",
				Usage: "Concurrent goroutines per scenario",
			},
			&cli.IntFlag{
				Name:  "ops",
				Usage: "Operations per worker",
			},
			&cli.Float64Flag{
				Name:  "rate",
				Usage: "Operations per second across all workers (0 = unlimited)",
			},
			&cli.IntFlag{
				Name:  "capacity",
				Usage: "Permit limiter capacity",
			},
			&cli.DurationFlag{
				Name:  "timeout",
				Usage: "Permit acquire timeout",
			},
			&cli.IntFlag{
				Name:  "shards",
				Usage: "Concurrent map shard count (power of two)",
			},
			&cli.StringFlag{
				Name:  "balance",
				Usage: "Opening balance for the account scenario",
			},
			&cli.DurationFlag{
				Name:  "permit-hold",
				Usage: "How long the limiter scenario holds each permit",
				Value: 50 * time.Microsecond,
			},
			&cli.StringFlag{
				Name:  "metrics-addr",
				Usage: "Serve Prometheus metrics on this address (e.g. :9090)",
			},
			&cli.BoolFlag{
				Name:  "hold",
				Usage: "Keep serving metrics after the run until interrupted",
			},
		},
		Action: stressRun,
	}
}

func stressRun(c *cli.Context) error {
	scenarios, err := stress.Parse(c.Args().Slice()...)
	if err != nil {
		return err
	}
	format, err := output.ParseFormat(c.String("output"))
	if err != nil {
		return err
	}

	e, err := setup(c)
	if err != nil {
		return err
	}

	opts, err := stressOptions(e, c)
	if err != nil {
		return err
	}

	reg := metric.NewRegistry(metric.DefaultNamespace)
	coll := metric.NewCollector(metric.DefaultNamespace)
	if err := reg.Register(coll); err != nil {
		return fmt.Errorf("register collector: %w", err)
	}

	sh := shutdown.NewHandler(5 * time.Second)
	defer sh.Shutdown()

	if addr := e.cfg.Metrics.Addr; addr != "" {
		router := httpserver.NewRouter(httpserver.RouterConfig{
			Metrics: reg.Handler(),
			Logger:  e.log,
		})
		srv := httpserver.New(addr, router, e.log)
		if err := srv.Start(); err != nil {
			return err
		}
		sh.OnShutdown(srv.Shutdown)
		fmt.Fprintf(c.App.ErrWriter, "serving metrics on http://%s/metrics\n", srv.Addr())
	}

	watcher, err := e.watchConfig()
	if err != nil {
		return err
	}
	if watcher != nil {
		sh.OnShutdown(stopHook(watcher.Stop))
	}

	runner, err := stress.NewRunner(opts,
		stress.WithRegistry(reg),
		stress.WithCollector(coll),
		stress.WithLogger(e.log),
	)
	if err != nil {
		return err
	}

	reports, err := runner.Run(c.Context, scenarios...)
	if len(reports) > 0 {
		if ferr := output.NewFormatter(format, c.Bool("wide")).Format(c.App.Writer, reports); ferr != nil {
			return ferr
		}
	}
	if err != nil {
		return err
	}

	if c.Bool("hold") {
		e.log.Info("run complete, holding until interrupted")
		if err := sh.Wait(c.Context); err != nil {
			return err
		}
	}

	if stress.Failed(reports) {
		return ErrScenarioFailed
	}
	return nil
}

func stressOptions(e *env, c *cli.Context) (stress.Options, error) {
	balance, err := decimal.NewFromString(e.cfg.Stress.InitialBalance)
	if err != nil {
		return stress.Options{}, fmt.Errorf("stress.initial_balance: %w", err)
	}

	return stress.Options{
		Workers:         e.cfg.Stress.Workers,
		Ops:             e.cfg.Stress.Ops,
		Rate:            e.cfg.Stress.Rate,
		LimiterCapacity: e.cfg.Limiter.Capacity,
		AcquireTimeout:  e.cfg.Limiter.AcquireTimeout.Std(),
		PermitHold:      c.Duration("permit-hold"),
		MapShards:       e.cfg.Map.Shards,
		InitialBalance:  balance,
	}, nil
}
