// Package permit bounds the number of concurrently executing operations.
//
// A Limiter hands out at most Capacity permits at a time. An acquirer that
// finds the pool empty suspends until a permit is released, its timeout
// elapses, or its context ends. Waiters are served in FIFO order, and a
// TryAcquire never overtakes a queued waiter.
//
// Typical usage pairs Acquire with a deferred Release:
//
//	p, err := lim.Acquire(ctx, 100*time.Millisecond)
//	if err != nil {
//		return err // syncerr.ErrAcquireTimeout or syncerr.ErrAcquireCanceled
//	}
//	defer p.Release()
//
// Each permit is an individual object with its own ID. Releasing a permit
// twice, or releasing a permit to a limiter that did not issue it, returns an
// error instead of corrupting the pool count.
package permit
