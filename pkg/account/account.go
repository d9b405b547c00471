// Package account provides a balance guarded by a single exclusive lock.
//
// Every read and write of the balance happens inside the same critical
// section, so a withdrawal's sufficiency check and its subtraction cannot be
// separated by another operation and the balance is never observed negative.
package account

import (
	"sync"

	"github.com/shopspring/decimal"

	"github.com/yndnr/synckit-go/pkg/counter"
	"github.com/yndnr/synckit-go/pkg/syncerr"
)

// Operation names reported to an Observer.
const (
	OpDeposit  = "deposit"
	OpWithdraw = "withdraw"
)

// Observer is notified of each mutating operation after the lock is released.
type Observer interface {
	ObserveAccountOp(op string, ok bool)
}

// Account is a mutable decimal balance.
type Account struct {
	mu      sync.Mutex
	balance decimal.Decimal

	observer Observer

	deposits    counter.Counter
	withdrawals counter.Counter
	rejected    counter.Counter
}

// Option configures an Account.
type Option func(*Account)

// WithObserver registers an observer for deposits and withdrawals.
func WithObserver(obs Observer) Option {
	return func(a *Account) {
		a.observer = obs
	}
}

// New opens an account with the given balance.
// A negative opening balance returns ErrInvalidAmount.
func New(initial decimal.Decimal, opts ...Option) (*Account, error) {
	if initial.IsNegative() {
		return nil, syncerr.ErrInvalidAmount.WithDetails("opening balance " + initial.String())
	}

	a := &Account{balance: initial}
	for _, opt := range opts {
		opt(a)
	}
	return a, nil
}

// Deposit adds amount to the balance. amount must be positive.
func (a *Account) Deposit(amount decimal.Decimal) error {
	if !amount.IsPositive() {
		a.record(OpDeposit, false)
		return syncerr.ErrInvalidAmount.WithDetails("deposit " + amount.String())
	}

	a.mu.Lock()
	a.balance = a.balance.Add(amount)
	a.mu.Unlock()

	a.record(OpDeposit, true)
	return nil
}

// Withdraw subtracts amount from the balance. amount must be positive.
// If amount exceeds the balance it returns ErrInsufficientFunds and the
// balance is left unchanged.
func (a *Account) Withdraw(amount decimal.Decimal) error {
	if !amount.IsPositive() {
		a.record(OpWithdraw, false)
		return syncerr.ErrInvalidAmount.WithDetails("withdraw " + amount.String())
	}

	err := a.withdraw(amount)
	a.record(OpWithdraw, err == nil)
	return err
}

func (a *Account) withdraw(amount decimal.Decimal) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if amount.GreaterThan(a.balance) {
		return syncerr.ErrInsufficientFunds.WithDetails(
			"requested " + amount.String() + ", available " + a.balance.String())
	}
	a.balance = a.balance.Sub(amount)
	return nil
}

// Balance returns the current balance.
func (a *Account) Balance() decimal.Decimal {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.balance
}

// Transfer moves amount from a to dst. The two accounts are never locked at
// the same time: the withdrawal from a completes before the deposit into dst
// begins, so concurrent opposing transfers cannot deadlock. Transferring to
// the same account is a no-op after validation. A nil dst returns
// ErrNilAccount before anything is withdrawn.
func (a *Account) Transfer(dst *Account, amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return syncerr.ErrInvalidAmount.WithDetails("transfer " + amount.String())
	}
	if dst == nil {
		return syncerr.ErrNilAccount
	}
	if dst == a {
		return nil
	}
	if err := a.Withdraw(amount); err != nil {
		return err
	}
	// amount is positive, so the deposit cannot fail.
	return dst.Deposit(amount)
}

// Stats summarizes the operations applied to an account.
type Stats struct {
	Deposits    int64
	Withdrawals int64
	Rejected    int64
}

// Stats returns operation counts. Counts are read independently of the
// balance lock and of each other.
func (a *Account) Stats() Stats {
	return Stats{
		Deposits:    a.deposits.Read(),
		Withdrawals: a.withdrawals.Read(),
		Rejected:    a.rejected.Read(),
	}
}

func (a *Account) record(op string, ok bool) {
	switch {
	case !ok:
		a.rejected.Increment()
	case op == OpDeposit:
		a.deposits.Increment()
	default:
		a.withdrawals.Increment()
	}
	if a.observer != nil {
		a.observer.ObserveAccountOp(op, ok)
	}
}
