package stress

import (
	"context"
	"fmt"
	"time"

	"github.com/oklog/ulid/v2"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/yndnr/synckit-go/internal/telemetry/logger"
	"github.com/yndnr/synckit-go/internal/telemetry/metric"
)

// Runner executes scenarios.
type Runner struct {
	opts      Options
	registry  *metric.Registry
	collector *metric.Collector
	log       logger.Logger
}

// RunnerOption configures a Runner.
type RunnerOption func(*Runner)

// WithRegistry records primitive activity in reg.
func WithRegistry(reg *metric.Registry) RunnerOption {
	return func(r *Runner) {
		r.registry = reg
	}
}

// WithCollector exposes live limiter and map sizes through c.
func WithCollector(c *metric.Collector) RunnerOption {
	return func(r *Runner) {
		r.collector = c
	}
}

// WithLogger sets the logger.
func WithLogger(l logger.Logger) RunnerOption {
	return func(r *Runner) {
		r.log = l
	}
}

// NewRunner validates opts and creates a runner.
func NewRunner(opts Options, ropts ...RunnerOption) (*Runner, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}

	r := &Runner{
		opts: opts,
		log:  logger.Default(),
	}
	for _, opt := range ropts {
		opt(r)
	}
	r.log = r.log.Named("stress")

	return r, nil
}

// Run executes scenarios in order and stops at the first error. A scenario
// whose property fails is not an error; it is reported with Passed false.
func (r *Runner) Run(ctx context.Context, scenarios ...Scenario) ([]Report, error) {
	reports := make([]Report, 0, len(scenarios))
	for _, s := range scenarios {
		rep, err := r.RunScenario(ctx, s)
		if err != nil {
			return reports, err
		}
		reports = append(reports, rep)
	}
	return reports, nil
}

// outcome is what a scenario body reports back to RunScenario.
type outcome struct {
	passed bool
	detail string
}

// RunScenario executes a single scenario.
func (r *Runner) RunScenario(ctx context.Context, s Scenario) (Report, error) {
	runID := ulid.Make().String()
	ctx = logger.WithLogger(ctx, r.log.With("scenario", string(s)))
	ctx = logger.WithRunID(ctx, runID)
	log := logger.L(ctx)

	var body func(context.Context) (outcome, error)
	switch s {
	case ScenarioCounter:
		body = r.runCounter
	case ScenarioMap:
		body = r.runMap
	case ScenarioAccount:
		body = r.runAccount
	case ScenarioLimiter:
		body = r.runLimiter
	case ScenarioCache:
		body = r.runCache
	case ScenarioSingleton:
		body = r.runSingleton
	default:
		return Report{}, fmt.Errorf("unknown scenario %q", s)
	}

	log.Debug("scenario started", "workers", r.opts.Workers, "ops", r.opts.Ops, "rate", r.opts.Rate)

	start := time.Now()
	out, err := body(ctx)
	elapsed := time.Since(start)
	if err != nil {
		log.Error("scenario aborted", "error", err, "elapsed", elapsed)
		return Report{}, fmt.Errorf("scenario %s: %w", s, err)
	}

	rep := Report{
		Scenario: s,
		RunID:    runID,
		Ops:      r.totalOps(),
		Elapsed:  elapsed,
		Passed:   out.passed,
		Detail:   out.detail,
	}
	if rep.Passed {
		log.Info("scenario passed", "elapsed", elapsed, "detail", rep.Detail)
	} else {
		log.Warn("scenario failed", "elapsed", elapsed, "detail", rep.Detail)
	}
	return rep, nil
}

func (r *Runner) totalOps() int64 {
	return int64(r.opts.Workers) * int64(r.opts.Ops)
}

// pace returns the token bucket shared by all workers of one scenario.
func (r *Runner) pace() *rate.Limiter {
	if r.opts.Rate <= 0 {
		return rate.NewLimiter(rate.Inf, 0)
	}
	return rate.NewLimiter(rate.Limit(r.opts.Rate), r.opts.Workers)
}

// fanOut runs op Ops times on each of Workers goroutines. The first error
// cancels the remaining workers.
func (r *Runner) fanOut(ctx context.Context, op func(ctx context.Context, worker, i int) error) error {
	pace := r.pace()
	g, ctx := errgroup.WithContext(ctx)
	for w := 0; w < r.opts.Workers; w++ {
		g.Go(func() error {
			for i := 0; i < r.opts.Ops; i++ {
				if err := pace.Wait(ctx); err != nil {
					return err
				}
				if err := op(ctx, w, i); err != nil {
					return err
				}
			}
			return nil
		})
	}
	return g.Wait()
}
