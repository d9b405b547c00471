package permit

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	"golang.org/x/sync/semaphore"

	"github.com/yndnr/synckit-go/internal/telemetry/logger"
	"github.com/yndnr/synckit-go/pkg/syncerr"
)

// Observer receives limiter events. Calls are made outside the limiter's
// lock and may come from many goroutines at once.
type Observer interface {
	ObserveAcquire(wait time.Duration)
	ObserveTimeout(wait time.Duration)
	ObserveRelease(held time.Duration)
	ObserveDoubleRelease()
}

// Limiter is a counting permit pool with a fixed capacity.
type Limiter struct {
	capacity       int
	defaultTimeout time.Duration
	sem            *semaphore.Weighted

	// mu guards held, the set of outstanding permits.
	mu   sync.Mutex
	held map[*Permit]struct{}

	observer Observer
	log      logger.Logger
}

// Permit is one unit of capacity held by a caller.
type Permit struct {
	id         ulid.ULID
	limiter    *Limiter
	acquiredAt time.Time
}

// Option configures a Limiter.
type Option func(*Limiter)

// WithDefaultTimeout sets the wait bound used when Acquire is given a
// non-positive timeout. Zero means such calls wait until ctx ends.
func WithDefaultTimeout(d time.Duration) Option {
	return func(l *Limiter) {
		l.defaultTimeout = d
	}
}

// WithObserver registers an observer for acquire and release events.
func WithObserver(obs Observer) Option {
	return func(l *Limiter) {
		l.observer = obs
	}
}

// WithLogger sets the logger. The default is the process default logger.
func WithLogger(log logger.Logger) Option {
	return func(l *Limiter) {
		l.log = log
	}
}

// New creates a limiter allowing capacity outstanding permits.
func New(capacity int, opts ...Option) (*Limiter, error) {
	if capacity <= 0 {
		return nil, syncerr.ErrInvalidCapacity.WithDetails(fmt.Sprintf("got %d", capacity))
	}

	l := &Limiter{
		capacity: capacity,
		sem:      semaphore.NewWeighted(int64(capacity)),
		held:     make(map[*Permit]struct{}, capacity),
		log:      logger.Default(),
	}
	for _, opt := range opts {
		opt(l)
	}
	l.log = l.log.Named("permit")
	return l, nil
}

// Acquire waits for a permit. The wait is bounded by timeout, or by the
// limiter's default timeout when timeout <= 0, and always by ctx.
//
// It returns syncerr.ErrAcquireTimeout when the bound elapses and
// syncerr.ErrAcquireCanceled (wrapping ctx.Err()) when ctx ends first.
// On failure the pool is left unchanged.
func (l *Limiter) Acquire(ctx context.Context, timeout time.Duration) (*Permit, error) {
	if timeout <= 0 {
		timeout = l.defaultTimeout
	}

	waitCtx := ctx
	if timeout > 0 {
		var cancel context.CancelFunc
		waitCtx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	start := time.Now()
	if err := l.sem.Acquire(waitCtx, 1); err != nil {
		wait := time.Since(start)
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, syncerr.ErrAcquireCanceled.WithCause(ctxErr)
		}
		if l.observer != nil {
			l.observer.ObserveTimeout(wait)
		}
		l.log.Debug("permit acquire timed out", "timeout", timeout, "wait", wait)
		return nil, syncerr.ErrAcquireTimeout.
			WithDetails(fmt.Sprintf("no permit within %s", timeout)).
			WithCause(err)
	}

	return l.grant(time.Since(start)), nil
}

// TryAcquire takes a permit only if one is free and nobody is queued for it.
func (l *Limiter) TryAcquire() (*Permit, bool) {
	if !l.sem.TryAcquire(1) {
		return nil, false
	}
	return l.grant(0), true
}

// grant records a permit for a semaphore slot the caller already owns.
func (l *Limiter) grant(wait time.Duration) *Permit {
	p := &Permit{
		id:         ulid.Make(),
		limiter:    l,
		acquiredAt: time.Now(),
	}

	l.mu.Lock()
	l.held[p] = struct{}{}
	l.mu.Unlock()

	if l.observer != nil {
		l.observer.ObserveAcquire(wait)
	}
	return p
}

// Release returns p to the pool.
//
// Releasing a permit that was already released returns
// syncerr.ErrPermitReleased; a nil permit or one issued by another limiter
// returns syncerr.ErrPermitNotHeld. Neither changes the pool.
func (l *Limiter) Release(p *Permit) error {
	if p == nil || p.limiter != l {
		return syncerr.ErrPermitNotHeld
	}

	l.mu.Lock()
	_, ok := l.held[p]
	if ok {
		delete(l.held, p)
	}
	l.mu.Unlock()

	if !ok {
		if l.observer != nil {
			l.observer.ObserveDoubleRelease()
		}
		l.log.Warn("permit released twice", "permit", p.ID())
		return syncerr.ErrPermitReleased.WithDetails(p.ID())
	}

	// The ledger entry is gone before the slot is returned, so InUse never
	// exceeds Capacity.
	l.sem.Release(1)

	if l.observer != nil {
		l.observer.ObserveRelease(time.Since(p.acquiredAt))
	}
	return nil
}

// Do runs fn while holding a permit, releasing it on every return path.
func (l *Limiter) Do(ctx context.Context, timeout time.Duration, fn func(context.Context) error) error {
	p, err := l.Acquire(ctx, timeout)
	if err != nil {
		return err
	}
	defer func() {
		_ = l.Release(p)
	}()
	return fn(ctx)
}

// Capacity returns the maximum number of outstanding permits.
func (l *Limiter) Capacity() int {
	return l.capacity
}

// InUse returns the number of permits currently outstanding.
func (l *Limiter) InUse() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.held)
}

// Available returns Capacity minus InUse. A slot that is being handed to a
// waiter may briefly count as available.
func (l *Limiter) Available() int {
	return l.capacity - l.InUse()
}

// String returns a summary such as "Limiter(2/3)".
func (l *Limiter) String() string {
	return fmt.Sprintf("Limiter(%d/%d)", l.InUse(), l.capacity)
}

// ID returns the permit's unique identifier.
func (p *Permit) ID() string {
	return p.id.String()
}

// AcquiredAt returns when the permit was granted.
func (p *Permit) AcquiredAt() time.Time {
	return p.acquiredAt
}

// Release returns the permit to the limiter that issued it.
func (p *Permit) Release() error {
	if p == nil {
		return syncerr.ErrPermitNotHeld
	}
	return p.limiter.Release(p)
}
