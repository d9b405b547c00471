package config

import "time"

// Default configuration values.
const (
	DefaultLogLevel  = "info"
	DefaultLogFormat = "json"

	DefaultLimiterCapacity = 3
	DefaultAcquireTimeout  = 100 * time.Millisecond

	DefaultMapShards = 16

	DefaultStressWorkers        = 16
	DefaultStressOps            = 1000
	DefaultStressInitialBalance = "100.00"
)

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Log: LogSection{
			Level:  DefaultLogLevel,
			Format: DefaultLogFormat,
		},
		Limiter: LimiterSection{
			Capacity:       DefaultLimiterCapacity,
			AcquireTimeout: Duration(DefaultAcquireTimeout),
		},
		Map: MapSection{
			Shards: DefaultMapShards,
		},
		Stress: StressSection{
			Workers:        DefaultStressWorkers,
			Ops:            DefaultStressOps,
			InitialBalance: DefaultStressInitialBalance,
		},
	}
}
