package stress

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/shopspring/decimal"

	"github.com/yndnr/synckit-go/internal/telemetry/logger"
	"github.com/yndnr/synckit-go/pkg/account"
	"github.com/yndnr/synckit-go/pkg/cmap"
	"github.com/yndnr/synckit-go/pkg/counter"
	"github.com/yndnr/synckit-go/pkg/lazy"
	"github.com/yndnr/synckit-go/pkg/permit"
	"github.com/yndnr/synckit-go/pkg/rwcache"
	"github.com/yndnr/synckit-go/pkg/syncerr"
)

func (r *Runner) runCounter(ctx context.Context) (outcome, error) {
	c := counter.New(0)

	err := r.fanOut(ctx, func(context.Context, int, int) error {
		c.Increment()
		return nil
	})
	if err != nil {
		return outcome{}, err
	}

	got, want := c.Read(), r.totalOps()
	return outcome{
		passed: got == want,
		detail: fmt.Sprintf("count=%d want=%d", got, want),
	}, nil
}

// runMap has every worker race to insert the same Ops keys, so each key
// must be accepted exactly once.
func (r *Runner) runMap(ctx context.Context) (outcome, error) {
	opts := []cmap.Option{cmap.WithShardCount(r.opts.MapShards)}
	if r.registry != nil {
		opts = append(opts, cmap.WithObserver(r.registry))
	}
	m := cmap.New[int, int](opts...)
	if r.collector != nil {
		r.collector.TrackSize("stress_map", m.Count)
	}

	var accepted counter.Counter
	err := r.fanOut(ctx, func(_ context.Context, worker, i int) error {
		if m.TryInsert(i, worker) {
			accepted.Increment()
		}
		return nil
	})
	if err != nil {
		return outcome{}, err
	}

	want := int64(r.opts.Ops)
	got, count := accepted.Read(), int64(m.Count())
	return outcome{
		passed: got == want && count == want,
		detail: fmt.Sprintf("accepted=%d count=%d want=%d shards=%d", got, count, want, m.ShardCount()),
	}, nil
}

// runAccount interleaves deposits and withdrawals while a sampler watches
// the balance, then reconciles the final balance against what succeeded.
func (r *Runner) runAccount(ctx context.Context) (outcome, error) {
	var opts []account.Option
	if r.registry != nil {
		opts = append(opts, account.WithObserver(r.registry))
	}
	acct, err := account.New(r.opts.InitialBalance, opts...)
	if err != nil {
		return outcome{}, err
	}

	var deposited, withdrawn, negatives, samples counter.Counter
	done := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			select {
			case <-done:
				return
			default:
			}
			if acct.Balance().IsNegative() {
				negatives.Increment()
			}
			samples.Increment()
		}
	}()

	err = r.fanOut(ctx, func(_ context.Context, worker, i int) error {
		cents := int64((worker*31+i*17)%1000 + 1)
		amount := decimal.New(cents, -2)

		if (worker+i)%2 == 0 {
			if err := acct.Deposit(amount); err != nil {
				return err
			}
			deposited.Add(cents)
			return nil
		}

		err := acct.Withdraw(amount)
		switch {
		case err == nil:
			withdrawn.Add(cents)
		case !errors.Is(err, syncerr.ErrInsufficientFunds):
			return err
		}
		return nil
	})
	close(done)
	wg.Wait()
	if err != nil {
		return outcome{}, err
	}

	want := r.opts.InitialBalance.Add(decimal.New(deposited.Read()-withdrawn.Read(), -2))
	got := acct.Balance()
	stats := acct.Stats()
	return outcome{
		passed: negatives.Read() == 0 && got.Equal(want),
		detail: fmt.Sprintf("balance=%s want=%s rejected=%d negative_samples=%d/%d",
			got.StringFixed(2), want.StringFixed(2), stats.Rejected, negatives.Read(), samples.Read()),
	}, nil
}

// runLimiter tracks how many workers are inside the permit section at once
// and finishes by checking that a released permit cannot be released again.
func (r *Runner) runLimiter(ctx context.Context) (outcome, error) {
	capacity := r.opts.LimiterCapacity
	opts := []permit.Option{
		permit.WithDefaultTimeout(r.opts.AcquireTimeout),
		permit.WithLogger(logger.L(ctx)),
	}
	if r.registry != nil {
		opts = append(opts, permit.WithObserver(r.registry))
	}
	lim, err := permit.New(capacity, opts...)
	if err != nil {
		return outcome{}, err
	}
	if r.collector != nil {
		r.collector.TrackLimiter("stress", capacity, lim.InUse)
	}

	var inside, peak, timeouts counter.Counter
	err = r.fanOut(ctx, func(ctx context.Context, _, _ int) error {
		p, err := lim.Acquire(ctx, 0)
		if errors.Is(err, syncerr.ErrAcquireTimeout) {
			timeouts.Increment()
			return nil
		}
		if err != nil {
			return err
		}

		n := inside.Increment()
		for {
			cur := peak.Read()
			if n <= cur || peak.CompareAndSwap(cur, n) {
				break
			}
		}
		if r.opts.PermitHold > 0 {
			time.Sleep(r.opts.PermitHold)
		}
		inside.Decrement()

		return p.Release()
	})
	if err != nil {
		return outcome{}, err
	}

	leaked := lim.InUse()
	doubleRejected := false
	if p, ok := lim.TryAcquire(); ok {
		if err := p.Release(); err != nil {
			return outcome{}, err
		}
		doubleRejected = errors.Is(p.Release(), syncerr.ErrPermitReleased)
	}

	return outcome{
		passed: peak.Read() <= int64(capacity) && leaked == 0 && doubleRejected,
		detail: fmt.Sprintf("peak=%d capacity=%d timeouts=%d leaked=%d double_release_rejected=%t",
			peak.Read(), capacity, timeouts.Read(), leaked, doubleRejected),
	}, nil
}

type record struct {
	A, B, C int64
}

const cacheKeys = 64

// runCache makes every fourth worker a writer of three-field records whose
// fields are always equal; readers count records with mismatched fields.
func (r *Runner) runCache(ctx context.Context) (outcome, error) {
	opts := []rwcache.Option{rwcache.WithCapacityHint(cacheKeys)}
	if r.registry != nil {
		opts = append(opts, rwcache.WithObserver(r.registry))
	}
	c := rwcache.New[int, record](opts...)
	if r.collector != nil {
		r.collector.TrackSize("stress_cache", c.Len)
	}

	var torn counter.Counter
	err := r.fanOut(ctx, func(_ context.Context, worker, i int) error {
		key := i % cacheKeys
		if worker%4 == 0 {
			v := int64(worker)*int64(r.opts.Ops) + int64(i)
			c.Write(key, record{A: v, B: v, C: v})
			return nil
		}
		if rec, ok := c.Read(key); ok && (rec.A != rec.B || rec.B != rec.C) {
			torn.Increment()
		}
		return nil
	})
	if err != nil {
		return outcome{}, err
	}

	want := record{A: -1, B: -2, C: -3}
	c.Write(cacheKeys, want)
	got, ok := c.Read(cacheKeys)
	visible := ok && got == want

	stats := c.Stats()
	return outcome{
		passed: torn.Read() == 0 && visible,
		detail: fmt.Sprintf("torn=%d writes=%d hit_ratio=%.2f read_after_write=%t",
			torn.Read(), stats.Writes, stats.HitRatio(), visible),
	}, nil
}

type instance struct {
	id string
}

// runSingleton has every operation call GetInstance and compares the
// result with the first instance any worker saw.
func (r *Runner) runSingleton(ctx context.Context) (outcome, error) {
	opts := []lazy.Option{
		lazy.WithName("stress"),
		lazy.WithLogger(logger.L(ctx)),
	}
	if r.registry != nil {
		opts = append(opts, lazy.WithObserver(r.registry))
	}
	s := lazy.New(func() (*instance, error) {
		time.Sleep(time.Millisecond)
		return &instance{id: ulid.Make().String()}, nil
	}, opts...)

	var first atomic.Pointer[instance]
	var mismatched counter.Counter
	err := r.fanOut(ctx, func(context.Context, int, int) error {
		inst, err := s.GetInstance()
		if err != nil {
			return err
		}
		if !first.CompareAndSwap(nil, inst) && first.Load() != inst {
			mismatched.Increment()
		}
		return nil
	})
	if err != nil {
		return outcome{}, err
	}

	constructions := s.Constructions()
	return outcome{
		passed: constructions == 1 && mismatched.Read() == 0,
		detail: fmt.Sprintf("constructions=%d mismatched=%d instance=%s",
			constructions, mismatched.Read(), first.Load().id),
	}, nil
}
