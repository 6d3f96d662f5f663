package domain

import (
	"fmt"
	"sync"
	"time"

	"account_ledger/pkg/calc"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Account is a single holder's balance and the log of everything that
// changed it. All methods are safe for concurrent use.
type Account struct {
	id     string
	holder string

	mu      sync.Mutex
	balance decimal.Decimal
	entries []Entry
}

// Snapshot is a consistent copy of an account taken under its lock.
type Snapshot struct {
	ID      string          `json:"id"`
	Holder  string          `json:"holder"`
	Balance decimal.Decimal `json:"balance"`
	Entries []Entry         `json:"entries"`
}

func NewAccount(holder string, initialBalance decimal.Decimal) (*Account, error) {
	if initialBalance.IsNegative() {
		return nil, fmt.Errorf("%w: initial balance cannot be negative", ErrInvalidAmount)
	}

	return &Account{
		id:      uuid.NewString(),
		holder:  holder,
		balance: initialBalance,
	}, nil
}

func (a *Account) ID() string {
	return a.id
}

func (a *Account) Holder() string {
	return a.holder
}

func (a *Account) Deposit(amount decimal.Decimal) (decimal.Decimal, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if err := a.deposit(amount); err != nil {
		return decimal.Zero, err
	}
	return a.balance, nil
}

func (a *Account) Withdraw(amount decimal.Decimal) (decimal.Decimal, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if err := a.withdraw(amount); err != nil {
		return decimal.Zero, err
	}
	return a.balance, nil
}

// Transfer moves amount from a to recipient. The sender is debited before
// the recipient is credited, and the transfer line is logged last.
func (a *Account) Transfer(amount decimal.Decimal, recipient *Account) (decimal.Decimal, error) {
	if recipient == nil {
		return decimal.Zero, ErrNoRecipient
	}

	unlock := lockPair(a, recipient)
	defer unlock()

	if !amount.IsPositive() {
		return decimal.Zero, fmt.Errorf("%w: transfer amount must be positive", ErrInvalidAmount)
	}
	if amount.GreaterThan(a.balance) {
		return decimal.Zero, fmt.Errorf("%w: insufficient funds for transfer", ErrInsufficientFunds)
	}

	if err := a.withdraw(amount); err != nil {
		return decimal.Zero, err
	}
	if err := recipient.deposit(amount); err != nil {
		return decimal.Zero, err
	}
	a.record(Entry{Kind: KindTransfer, Amount: amount, Counterparty: recipient.holder})

	return a.balance, nil
}

func (a *Account) ApplyInterest(ratePercent decimal.Decimal) (decimal.Decimal, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if ratePercent.IsNegative() {
		return decimal.Zero, fmt.Errorf("%w: interest rate cannot be negative", ErrInvalidAmount)
	}

	interest := calc.Percent(a.balance, ratePercent)
	a.balance = calc.Add(a.balance, interest)
	a.record(Entry{Kind: KindInterest, Amount: interest, Rate: ratePercent})

	return a.balance, nil
}

func (a *Account) Balance() decimal.Decimal {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.balance
}

// History returns the rendered log lines, oldest first.
func (a *Account) History() []string {
	a.mu.Lock()
	defer a.mu.Unlock()

	out := make([]string, len(a.entries))
	for i, e := range a.entries {
		out[i] = e.String()
	}
	return out
}

func (a *Account) Snapshot() Snapshot {
	a.mu.Lock()
	defer a.mu.Unlock()

	entries := make([]Entry, len(a.entries))
	copy(entries, a.entries)
	return Snapshot{
		ID:      a.id,
		Holder:  a.holder,
		Balance: a.balance,
		Entries: entries,
	}
}

func (a *Account) String() string {
	return describe(a.holder, a.Balance())
}

// String renders the snapshot the same way Account.String does.
func (s Snapshot) String() string {
	return describe(s.Holder, s.Balance)
}

func describe(holder string, balance decimal.Decimal) string {
	return fmt.Sprintf("Account Holder: %s, Balance: $%s", holder, balance.StringFixed(2))
}

// deposit and withdraw expect a.mu to be held.
func (a *Account) deposit(amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return fmt.Errorf("%w: deposit amount must be positive", ErrInvalidAmount)
	}

	a.balance = calc.Add(a.balance, amount)
	a.record(Entry{Kind: KindDeposit, Amount: amount})
	return nil
}

func (a *Account) withdraw(amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return fmt.Errorf("%w: withdrawal amount must be positive", ErrInvalidAmount)
	}
	if amount.GreaterThan(a.balance) {
		return fmt.Errorf("%w: insufficient funds for withdrawal", ErrInsufficientFunds)
	}

	a.balance = calc.Subtract(a.balance, amount)
	a.record(Entry{Kind: KindWithdrawal, Amount: amount})
	return nil
}

func (a *Account) record(e Entry) {
	e.CreatedAt = time.Now()
	a.entries = append(a.entries, e)
}

// lockPair locks both accounts in ID order and returns the matching unlock.
func lockPair(a, b *Account) func() {
	if a == b {
		a.mu.Lock()
		return a.mu.Unlock
	}

	first, second := a, b
	if b.id < a.id {
		first, second = b, a
	}
	first.mu.Lock()
	second.mu.Lock()

	return func() {
		second.mu.Unlock()
		first.mu.Unlock()
	}
}
