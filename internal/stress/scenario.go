package stress

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Scenario names a stress scenario.
type Scenario string

// Scenarios.
const (
	ScenarioCounter   Scenario = "counter"
	ScenarioMap       Scenario = "map"
	ScenarioAccount   Scenario = "account"
	ScenarioLimiter   Scenario = "limiter"
	ScenarioCache     Scenario = "cache"
	ScenarioSingleton Scenario = "singleton"
)

// All returns every scenario in run order.
func All() []Scenario {
	return []Scenario{
		ScenarioCounter,
		ScenarioMap,
		ScenarioAccount,
		ScenarioLimiter,
		ScenarioCache,
		ScenarioSingleton,
	}
}

// Parse resolves scenario names. "all" or no names selects every scenario.
func Parse(names ...string) ([]Scenario, error) {
	if len(names) == 0 {
		return All(), nil
	}

	known := make(map[Scenario]bool)
	for _, s := range All() {
		known[s] = true
	}

	var out []Scenario
	seen := make(map[Scenario]bool)
	for _, name := range names {
		s := Scenario(strings.ToLower(strings.TrimSpace(name)))
		if s == "all" {
			return All(), nil
		}
		if !known[s] {
			return nil, fmt.Errorf("unknown scenario %q", name)
		}
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	return out, nil
}

// Options sizes a stress run.
type Options struct {
	Workers int
	Ops     int

	// Rate caps operations per second across all workers; 0 is unlimited.
	Rate float64

	LimiterCapacity int
	AcquireTimeout  time.Duration

	// PermitHold is how long the limiter scenario keeps each permit.
	PermitHold time.Duration

	MapShards      int
	InitialBalance decimal.Decimal
}

// DefaultOptions returns options for a short run.
func DefaultOptions() Options {
	return Options{
		Workers:         16,
		Ops:             1000,
		LimiterCapacity: 3,
		AcquireTimeout:  100 * time.Millisecond,
		PermitHold:      50 * time.Microsecond,
		MapShards:       16,
		InitialBalance:  decimal.NewFromInt(100),
	}
}

func (o Options) validate() error {
	switch {
	case o.Workers < 1:
		return fmt.Errorf("stress: workers must be at least 1, got %d", o.Workers)
	case o.Ops < 1:
		return fmt.Errorf("stress: ops must be at least 1, got %d", o.Ops)
	case o.Rate < 0:
		return fmt.Errorf("stress: rate must not be negative, got %v", o.Rate)
	case o.LimiterCapacity < 1:
		return fmt.Errorf("stress: limiter capacity must be at least 1, got %d", o.LimiterCapacity)
	case o.InitialBalance.IsNegative():
		return fmt.Errorf("stress: initial balance must not be negative, got %s", o.InitialBalance)
	}
	return nil
}

// Report is the outcome of one scenario.
type Report struct {
	Scenario Scenario      `json:"scenario" yaml:"scenario"`
	RunID    string        `json:"run_id" yaml:"run_id" table:"wide"`
	Ops      int64         `json:"ops" yaml:"ops"`
	Elapsed  time.Duration `json:"elapsed" yaml:"elapsed"`
	Passed   bool          `json:"passed" yaml:"passed"`
	Detail   string        `json:"detail" yaml:"detail"`
}

// Failed reports whether any report did not pass.
func Failed(reports []Report) bool {
	for _, r := range reports {
		if !r.Passed {
			return true
		}
	}
	return false
}
