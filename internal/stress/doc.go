// Package stress drives the synckit primitives from many goroutines and
// checks their safety properties while they run.
//
// Each Scenario builds a fresh primitive, hammers it with Options.Workers
// goroutines for Options.Ops operations each, and reports whether the
// property held:
//
//   - counter: the final count equals the number of increments
//   - map: racing inserts on shared keys are accepted exactly once per key
//   - account: the balance is never observed negative and reconciles
//   - limiter: holders never exceed capacity; double release is rejected
//   - cache: readers never observe a partially written value
//   - singleton: exactly one construction, one shared instance
//
// Operations are paced across workers with a token bucket when
// Options.Rate is set.
package stress
