// Package lazy provides deferred, exactly-once construction of a shared
// instance.
//
// GetInstance takes an uncontended fast path once the instance exists: a
// single atomic pointer load. Before that, callers serialize on a mutex,
// re-check the pointer, and the first one through runs the constructor. The
// pointer is stored only after the constructor returns, so no caller can
// observe a partially built instance.
package lazy

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/yndnr/synckit-go/internal/telemetry/logger"
	"github.com/yndnr/synckit-go/pkg/counter"
	"github.com/yndnr/synckit-go/pkg/syncerr"
)

// State is the lifecycle stage of a Singleton.
type State int32

const (
	Uninitialized State = iota
	Constructing
	Ready
)

func (s State) String() string {
	switch s {
	case Uninitialized:
		return "uninitialized"
	case Constructing:
		return "constructing"
	case Ready:
		return "ready"
	default:
		return fmt.Sprintf("State(%d)", int32(s))
	}
}

// Observer is notified after each constructor run, outside the lock.
type Observer interface {
	ObserveConstruction(took time.Duration, err error)
}

// Singleton holds a lazily constructed T.
type Singleton[T any] struct {
	instance atomic.Pointer[T]
	state    atomic.Int32

	// mu serializes construction; it is never taken once instance is set.
	mu        sync.Mutex
	construct func() (T, error)

	constructions counter.Counter
	observer      Observer
	log           logger.Logger
}

type options struct {
	name     string
	observer Observer
	log      logger.Logger
}

// Option configures a Singleton.
type Option func(*options)

// WithName labels the singleton in log records.
func WithName(name string) Option {
	return func(o *options) {
		o.name = name
	}
}

// WithObserver registers an observer for constructor runs.
func WithObserver(obs Observer) Option {
	return func(o *options) {
		o.observer = obs
	}
}

// WithLogger sets the logger. The default is the process default logger.
func WithLogger(log logger.Logger) Option {
	return func(o *options) {
		o.log = log
	}
}

// New creates a singleton whose instance is built by construct on first use.
//
// If construct returns an error or panics, the singleton goes back to
// Uninitialized and the next GetInstance call tries again.
func New[T any](construct func() (T, error), opts ...Option) *Singleton[T] {
	o := options{log: logger.Default()}
	for _, opt := range opts {
		opt(&o)
	}

	log := o.log.Named("lazy")
	if o.name != "" {
		log = log.With("singleton", o.name)
	}

	return &Singleton[T]{
		construct: construct,
		observer:  o.observer,
		log:       log,
	}
}

// Of creates a singleton from a constructor that cannot fail.
func Of[T any](construct func() T, opts ...Option) *Singleton[T] {
	return New(func() (T, error) {
		return construct(), nil
	}, opts...)
}

// GetInstance returns the shared instance, constructing it on first use.
// Every successful call returns the same instance.
func (s *Singleton[T]) GetInstance() (T, error) {
	if p := s.instance.Load(); p != nil {
		return *p, nil
	}
	return s.getSlow()
}

// MustGet is GetInstance for constructors that cannot fail. It panics if
// construction returns an error.
func (s *Singleton[T]) MustGet() T {
	v, err := s.GetInstance()
	if err != nil {
		panic(err)
	}
	return v
}

func (s *Singleton[T]) getSlow() (T, error) {
	v, ran, took, err := s.constructOnce()
	if ran {
		if s.observer != nil {
			s.observer.ObserveConstruction(took, err)
		}
		if err != nil {
			s.log.Warn("singleton construction failed", "took", took, "error", err)
		} else {
			s.log.Debug("singleton constructed", "took", took)
		}
	}
	return v, err
}

// constructOnce holds mu for the whole construction. ran reports whether
// this call executed the constructor.
func (s *Singleton[T]) constructOnce() (v T, ran bool, took time.Duration, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Re-check: another caller may have finished while we waited for mu.
	if p := s.instance.Load(); p != nil {
		return *p, false, 0, nil
	}

	s.state.Store(int32(Constructing))
	published := false
	defer func() {
		if !published {
			s.state.Store(int32(Uninitialized))
		}
	}()

	start := time.Now()
	s.constructions.Increment()
	v, err = s.construct()
	took = time.Since(start)
	if err != nil {
		var zero T
		return zero, true, took, syncerr.ErrConstruction.WithCause(err)
	}

	s.instance.Store(&v)
	s.state.Store(int32(Ready))
	published = true
	return v, true, took, nil
}

// State returns the current lifecycle stage.
func (s *Singleton[T]) State() State {
	return State(s.state.Load())
}

// Constructions returns how many times the constructor has been invoked,
// including failed attempts.
func (s *Singleton[T]) Constructions() int64 {
	return s.constructions.Read()
}
