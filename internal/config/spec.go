package config

// Config is the root configuration.
type Config struct {
	Log     LogSection     `koanf:"log" yaml:"log"`
	Limiter LimiterSection `koanf:"limiter" yaml:"limiter"`
	Map     MapSection     `koanf:"map" yaml:"map"`
	Stress  StressSection  `koanf:"stress" yaml:"stress"`
	Metrics MetricsSection `koanf:"metrics" yaml:"metrics"`
}

// LogSection configures logging.
type LogSection struct {
	Level  string `koanf:"level" yaml:"level"`
	Format string `koanf:"format" yaml:"format"`
}

// LimiterSection configures permit limiters.
type LimiterSection struct {
	// Capacity is the number of permits a limiter hands out at once.
	Capacity int `koanf:"capacity" yaml:"capacity"`

	// AcquireTimeout bounds Acquire calls that pass no explicit timeout.
	// Zero means wait until the caller's context ends.
	AcquireTimeout Duration `koanf:"acquire_timeout" yaml:"acquire_timeout"`
}

// MapSection configures concurrent maps.
type MapSection struct {
	// Shards must be a power of two.
	Shards int `koanf:"shards" yaml:"shards"`
}

// StressSection configures the stress command.
type StressSection struct {
	// Workers is the number of concurrent goroutines per scenario.
	Workers int `koanf:"workers" yaml:"workers"`

	// Ops is the number of operations each worker performs.
	Ops int `koanf:"ops" yaml:"ops"`

	// Rate caps operations per second across all workers; 0 is unlimited.
	Rate float64 `koanf:"rate" yaml:"rate"`

	// InitialBalance opens the account scenario, as a decimal string.
	InitialBalance string `koanf:"initial_balance" yaml:"initial_balance"`
}

// MetricsSection configures the Prometheus endpoint.
type MetricsSection struct {
	// Addr is the listen address for /metrics; empty disables it.
	Addr string `koanf:"addr" yaml:"addr"`
}
