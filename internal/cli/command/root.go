package command

import (
	"context"
	"fmt"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/synckit-go/internal/config"
	"github.com/yndnr/synckit-go/internal/infra/buildinfo"
	"github.com/yndnr/synckit-go/internal/infra/confloader"
	"github.com/yndnr/synckit-go/internal/telemetry/logger"
)

// App creates the CLI application.
func App() *cli.App {
	return &cli.App{
		Name:    "synckit",
		Usage:   "Stress and observe synckit concurrency primitives",
		Version: buildinfo.String(),
		Flags:   globalFlags(),
		Commands: []*cli.Command{
			StressCommand(),
			ConfigCommand(),
			VersionCommand(),
		},
	}
}

// globalFlags returns the global CLI flags.
func globalFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "config",
			Aliases: []string{"c"},
			Usage:   "Path to a YAML configuration file",
			EnvVars: []string{"SYNCKIT_CONFIG"},
		},
		&cli.StringFlag{
			Name:  "log-level",
			Usage: "Log level: debug, info, warn, error",
		},
		&cli.StringFlag{
			Name:  "log-format",
			Usage: "Log format: json, text",
		},
		&cli.StringFlag{
			Name:    "output",
			Aliases: []string{"o"},
			Usage:   "Output format: table, json, yaml",
			Value:   "table",
		},
		&cli.BoolFlag{
			Name:    "wide",
			Aliases: []string{"w"},
			Usage:   "Show wide output (more columns)",
		},
	}
}

// flagKeys maps flags to the configuration keys they override.
var flagKeys = []struct {
	flag string
	key  string
}{
	{"log-level", "log.level"},
	{"log-format", "log.format"},
	{"capacity", "limiter.capacity"},
	{"timeout", "limiter.acquire_timeout"},
	{"shards", "map.shards"},
	{"workers", "stress.workers"},
	{"ops", "stress.ops"},
	{"rate", "stress.rate"},
	{"balance", "stress.initial_balance"},
	{"metrics-addr", "metrics.addr"},
}

// flagOverrides collects the flags the user set explicitly, so defaults of
// unset flags never mask the file or environment.
func flagOverrides(c *cli.Context) map[string]any {
	out := make(map[string]any)
	for _, fk := range flagKeys {
		if !c.IsSet(fk.flag) {
			continue
		}
		v := c.Value(fk.flag)
		if d, ok := v.(time.Duration); ok {
			v = d.String()
		}
		out[fk.key] = v
	}
	return out
}

// env is what every command action works with.
type env struct {
	cfg    *config.Config
	loader *confloader.Loader
	log    logger.Logger
}

// setup loads and verifies configuration and installs the process logger.
func setup(c *cli.Context) (*env, error) {
	cfg := config.Default()
	loader := confloader.NewLoader(
		confloader.WithConfigFile(c.String("config")),
		confloader.WithOverrides(flagOverrides(c)),
	)
	if err := loader.Load(cfg); err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if err := config.Verify(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	log, err := logger.New(logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: c.App.ErrWriter,
	})
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}
	logger.SetDefault(log)

	return &env{cfg: cfg, loader: loader, log: log}, nil
}

// watchConfig hot-reloads the log level when the config file changes.
// It returns nil when no config file is in use.
func (e *env) watchConfig() (*confloader.Watcher, error) {
	path := e.loader.FilePath()
	if path == "" {
		return nil, nil
	}

	w, err := confloader.NewWatcher(confloader.WithWatcherLogger(e.log))
	if err != nil {
		return nil, fmt.Errorf("config watcher: %w", err)
	}
	if err := w.Watch(path); err != nil {
		w.Stop()
		return nil, fmt.Errorf("config watcher: %w", err)
	}

	w.OnChange(func(string) {
		e.reload()
	})
	w.StartAsync()
	return w, nil
}

func (e *env) reload() {
	next := config.Default()
	if err := e.loader.Reload(next); err != nil {
		e.log.Warn("config reload failed", "error", err)
		return
	}
	if err := config.Verify(next); err != nil {
		e.log.Warn("reloaded config is invalid, keeping previous", "error", err)
		return
	}

	prev := logger.GetLevel()
	if err := logger.SetLevel(next.Log.Level); err != nil {
		e.log.Warn("log level not reloaded", "error", err)
		return
	}
	if cur := logger.GetLevel(); cur != prev {
		e.log.Info("log level reloaded", "level", cur)
	}
}

// stopHook adapts a Stop method to a shutdown hook.
func stopHook(stop func() error) func(context.Context) error {
	return func(context.Context) error {
		return stop()
	}
}
