package config

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/yndnr/synckit-go/internal/telemetry/logger"
)

// Verify validates the configuration and returns every problem found.
func Verify(cfg *Config) error {
	return errors.Join(
		verifyLog(&cfg.Log),
		verifyLimiter(&cfg.Limiter),
		verifyMap(&cfg.Map),
		verifyStress(&cfg.Stress),
	)
}

func verifyLog(cfg *LogSection) error {
	var errs []error
	if _, err := logger.ParseLevel(cfg.Level); err != nil {
		errs = append(errs, fmt.Errorf("log.level: %w", err))
	}
	if _, err := logger.ParseFormat(cfg.Format); err != nil {
		errs = append(errs, fmt.Errorf("log.format: %w", err))
	}
	return errors.Join(errs...)
}

func verifyLimiter(cfg *LimiterSection) error {
	if cfg.Capacity < 1 {
		return errors.New("limiter.capacity must be at least 1")
	}
	if cfg.AcquireTimeout < 0 {
		return errors.New("limiter.acquire_timeout must not be negative")
	}
	return nil
}

func verifyMap(cfg *MapSection) error {
	if cfg.Shards <= 0 || cfg.Shards&(cfg.Shards-1) != 0 {
		return fmt.Errorf("map.shards must be a positive power of two, got %d", cfg.Shards)
	}
	return nil
}

func verifyStress(cfg *StressSection) error {
	if cfg.Workers < 1 {
		return errors.New("stress.workers must be at least 1")
	}
	if cfg.Ops < 1 {
		return errors.New("stress.ops must be at least 1")
	}
	if cfg.Rate < 0 {
		return errors.New("stress.rate must not be negative")
	}
	bal, err := decimal.NewFromString(cfg.InitialBalance)
	if err != nil {
		return fmt.Errorf("stress.initial_balance: %w", err)
	}
	if bal.IsNegative() {
		return errors.New("stress.initial_balance must not be negative")
	}
	return nil
}
