package account

import (
	"errors"
	"math/rand"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/yndnr/synckit-go/pkg/syncerr"
)

func mustNew(t *testing.T, initial string) *Account {
	t.Helper()
	a, err := New(decimal.RequireFromString(initial))
	if err != nil {
		t.Fatalf("New(%s) error = %v", initial, err)
	}
	return a
}

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		initial string
		wantErr error
	}{
		{"zero", "0", nil},
		{"positive", "100.25", nil},
		{"negative", "-0.01", syncerr.ErrInvalidAmount},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, err := New(decimal.RequireFromString(tt.initial))
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("New() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("New() error = %v", err)
			}
			if !a.Balance().Equal(decimal.RequireFromString(tt.initial)) {
				t.Errorf("Balance() = %s, want %s", a.Balance(), tt.initial)
			}
		})
	}
}

func TestDepositWithdraw(t *testing.T) {
	a := mustNew(t, "10")

	if err := a.Deposit(decimal.RequireFromString("5.50")); err != nil {
		t.Fatalf("Deposit() error = %v", err)
	}
	if err := a.Withdraw(decimal.RequireFromString("15.50")); err != nil {
		t.Fatalf("Withdraw(exact balance) error = %v", err)
	}
	if !a.Balance().IsZero() {
		t.Errorf("Balance() = %s, want 0", a.Balance())
	}
}

func TestWithdrawInsufficientLeavesBalance(t *testing.T) {
	a := mustNew(t, "10")

	err := a.Withdraw(decimal.RequireFromString("10.01"))
	if !errors.Is(err, syncerr.ErrInsufficientFunds) {
		t.Fatalf("Withdraw() error = %v, want ErrInsufficientFunds", err)
	}
	if !a.Balance().Equal(decimal.NewFromInt(10)) {
		t.Errorf("Balance() = %s, want 10", a.Balance())
	}
}

func TestInvalidAmounts(t *testing.T) {
	a := mustNew(t, "10")

	for _, amt := range []string{"0", "-1"} {
		if err := a.Deposit(decimal.RequireFromString(amt)); !errors.Is(err, syncerr.ErrInvalidAmount) {
			t.Errorf("Deposit(%s) error = %v, want ErrInvalidAmount", amt, err)
		}
		if err := a.Withdraw(decimal.RequireFromString(amt)); !errors.Is(err, syncerr.ErrInvalidAmount) {
			t.Errorf("Withdraw(%s) error = %v, want ErrInvalidAmount", amt, err)
		}
	}

	if got := a.Stats().Rejected; got != 4 {
		t.Errorf("Stats().Rejected = %d, want 4", got)
	}
}

func TestTransfer(t *testing.T) {
	src := mustNew(t, "100")
	dst := mustNew(t, "0")

	if err := src.Transfer(dst, decimal.NewFromInt(40)); err != nil {
		t.Fatalf("Transfer() error = %v", err)
	}
	if err := src.Transfer(dst, decimal.NewFromInt(61)); !errors.Is(err, syncerr.ErrInsufficientFunds) {
		t.Fatalf("Transfer(too much) error = %v, want ErrInsufficientFunds", err)
	}
	if err := src.Transfer(src, decimal.NewFromInt(1)); err != nil {
		t.Fatalf("Transfer(self) error = %v", err)
	}

	if !src.Balance().Equal(decimal.NewFromInt(60)) || !dst.Balance().Equal(decimal.NewFromInt(40)) {
		t.Errorf("balances = %s/%s, want 60/40", src.Balance(), dst.Balance())
	}
}

func TestTransferNilDestination(t *testing.T) {
	src := mustNew(t, "100")

	err := src.Transfer(nil, decimal.NewFromInt(10))
	if !errors.Is(err, syncerr.ErrNilAccount) {
		t.Fatalf("Transfer(nil) error = %v, want ErrNilAccount", err)
	}
	if !src.Balance().Equal(decimal.NewFromInt(100)) {
		t.Errorf("Balance() = %s, want 100 after rejected transfer", src.Balance())
	}
	if got := src.Stats().Withdrawals; got != 0 {
		t.Errorf("Stats().Withdrawals = %d, want 0", got)
	}
}

func TestConcurrentOpposingTransfers(t *testing.T) {
	a := mustNew(t, "1000")
	b := mustNew(t, "1000")
	var wg sync.WaitGroup
	one := decimal.NewFromInt(1)

	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				_ = a.Transfer(b, one)
			}
		}()
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				_ = b.Transfer(a, one)
			}
		}()
	}
	wg.Wait()

	total := a.Balance().Add(b.Balance())
	if !total.Equal(decimal.NewFromInt(2000)) {
		t.Errorf("total = %s, want 2000", total)
	}
}

func TestConcurrentNeverNegative(t *testing.T) {
	initial := decimal.NewFromInt(50)
	a, err := New(initial)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	var (
		wg          sync.WaitGroup
		mu          sync.Mutex
		deposited   = decimal.Zero
		withdrawn   = decimal.Zero
		negativeObs atomic.Int64
		stop        = make(chan struct{})
	)

	// Sampler: the balance must never be observed below zero.
	samplerDone := make(chan struct{})
	go func() {
		defer close(samplerDone)
		for {
			select {
			case <-stop:
				return
			default:
				if a.Balance().IsNegative() {
					negativeObs.Add(1)
				}
			}
		}
	}()

	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func(seed int64) {
			defer wg.Done()
			r := rand.New(rand.NewSource(seed))
			for j := 0; j < 500; j++ {
				amt := decimal.New(int64(r.Intn(1000)+1), -2) // 0.01 .. 10.00
				if r.Intn(2) == 0 {
					if a.Deposit(amt) == nil {
						mu.Lock()
						deposited = deposited.Add(amt)
						mu.Unlock()
					}
					continue
				}
				if a.Withdraw(amt) == nil {
					mu.Lock()
					withdrawn = withdrawn.Add(amt)
					mu.Unlock()
				}
			}
		}(int64(i))
	}
	wg.Wait()
	close(stop)
	<-samplerDone

	if n := negativeObs.Load(); n != 0 {
		t.Fatalf("balance observed negative %d times", n)
	}

	want := initial.Add(deposited).Sub(withdrawn)
	if !a.Balance().Equal(want) {
		t.Errorf("final balance = %s, want %s", a.Balance(), want)
	}

	stats := a.Stats()
	if stats.Deposits+stats.Withdrawals+stats.Rejected != 32*500 {
		t.Errorf("stats total = %d, want %d", stats.Deposits+stats.Withdrawals+stats.Rejected, 32*500)
	}
}

type opRecorder struct {
	mu  sync.Mutex
	ops []string
}

func (r *opRecorder) ObserveAccountOp(op string, ok bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !ok {
		op += ":rejected"
	}
	r.ops = append(r.ops, op)
}

func TestObserver(t *testing.T) {
	rec := &opRecorder{}
	a, err := New(decimal.Zero, WithObserver(rec))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	_ = a.Deposit(decimal.NewFromInt(1))
	_ = a.Withdraw(decimal.NewFromInt(2))

	want := []string{"deposit", "withdraw:rejected"}
	if len(rec.ops) != len(want) {
		t.Fatalf("observed %v, want %v", rec.ops, want)
	}
	for i := range want {
		if rec.ops[i] != want[i] {
			t.Errorf("ops[%d] = %q, want %q", i, rec.ops[i], want[i])
		}
	}
}
