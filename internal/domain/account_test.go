package domain

import (
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func amt(v int64) decimal.Decimal {
	return decimal.NewFromInt(v)
}

func assertAmount(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()
	assert.Truef(t, decimal.RequireFromString(want).Equal(got), "expected %s, got %s", want, got)
}

func mustAccount(t *testing.T, holder string, balance int64) *Account {
	t.Helper()
	acc, err := NewAccount(holder, amt(balance))
	require.NoError(t, err)
	return acc
}

func TestNewAccount(t *testing.T) {
	acc := mustAccount(t, "John Doe", 1000)

	assert.Equal(t, "John Doe", acc.Holder())
	assert.NotEmpty(t, acc.ID())
	assertAmount(t, "1000", acc.Balance())
	assert.Empty(t, acc.History())
}

func TestNewAccount_DefaultsToZero(t *testing.T) {
	acc, err := NewAccount("Zed", decimal.Zero)

	require.NoError(t, err)
	assertAmount(t, "0", acc.Balance())
}

func TestNewAccount_NegativeBalance(t *testing.T) {
	acc, err := NewAccount("Jane Doe", amt(-100))

	assert.ErrorIs(t, err, ErrInvalidAmount)
	assert.Nil(t, acc)
}

func TestAccount_Deposit(t *testing.T) {
	acc := mustAccount(t, "Alice", 500)

	got, err := acc.Deposit(amt(200))

	require.NoError(t, err)
	assertAmount(t, "700", got)
	assertAmount(t, "700", acc.Balance())
	assert.Equal(t, []string{"Deposited: $200"}, acc.History())
}

func TestAccount_Deposit_InvalidAmount(t *testing.T) {
	acc := mustAccount(t, "Bob", 500)

	for _, v := range []int64{-50, 0} {
		_, err := acc.Deposit(amt(v))
		assert.ErrorIs(t, err, ErrInvalidAmount, "amount %d", v)
	}
	assertAmount(t, "500", acc.Balance())
	assert.Empty(t, acc.History())
}

func TestAccount_Withdraw(t *testing.T) {
	acc := mustAccount(t, "Charlie", 1000)

	got, err := acc.Withdraw(amt(300))

	require.NoError(t, err)
	assertAmount(t, "700", got)
	assertAmount(t, "700", acc.Balance())
}

func TestAccount_Withdraw_EntireBalance(t *testing.T) {
	acc := mustAccount(t, "Dora", 100)

	got, err := acc.Withdraw(amt(100))

	require.NoError(t, err)
	assertAmount(t, "0", got)
}

func TestAccount_Withdraw_InsufficientFunds(t *testing.T) {
	acc := mustAccount(t, "David", 100)

	_, err := acc.Withdraw(amt(200))

	assert.ErrorIs(t, err, ErrInsufficientFunds)
	assertAmount(t, "100", acc.Balance())
	assert.Empty(t, acc.History())
}

func TestAccount_Withdraw_InvalidAmount(t *testing.T) {
	acc := mustAccount(t, "Eve", 500)

	for _, v := range []int64{-50, 0} {
		_, err := acc.Withdraw(amt(v))
		assert.ErrorIs(t, err, ErrInvalidAmount, "amount %d", v)
	}
	assertAmount(t, "500", acc.Balance())
	assert.Empty(t, acc.History())
}

func TestAccount_Withdraw_ChecksSignBeforeFunds(t *testing.T) {
	acc := mustAccount(t, "Empty", 0)

	_, err := acc.Withdraw(amt(-5))

	assert.ErrorIs(t, err, ErrInvalidAmount)
	assert.NotErrorIs(t, err, ErrInsufficientFunds)
}

func TestAccount_Transfer(t *testing.T) {
	frank := mustAccount(t, "Frank", 1000)
	grace := mustAccount(t, "Grace", 500)

	got, err := frank.Transfer(amt(300), grace)

	require.NoError(t, err)
	assertAmount(t, "700", got)
	assertAmount(t, "700", frank.Balance())
	assertAmount(t, "800", grace.Balance())
	assert.Equal(t, []string{"Withdrew: $300", "Transferred: $300 to Grace"}, frank.History())
	assert.Equal(t, []string{"Deposited: $300"}, grace.History())
}

func TestAccount_Transfer_InsufficientFunds(t *testing.T) {
	henry := mustAccount(t, "Henry", 100)
	ivy := mustAccount(t, "Ivy", 200)

	_, err := henry.Transfer(amt(150), ivy)

	assert.ErrorIs(t, err, ErrInsufficientFunds)
	assertAmount(t, "100", henry.Balance())
	assertAmount(t, "200", ivy.Balance())
	assert.Empty(t, henry.History())
	assert.Empty(t, ivy.History())
}

func TestAccount_Transfer_InvalidAmount(t *testing.T) {
	henry := mustAccount(t, "Henry", 100)
	ivy := mustAccount(t, "Ivy", 200)

	_, err := henry.Transfer(amt(0), ivy)

	assert.ErrorIs(t, err, ErrInvalidAmount)
	assertAmount(t, "100", henry.Balance())
	assertAmount(t, "200", ivy.Balance())
	assert.Empty(t, henry.History())
	assert.Empty(t, ivy.History())
}

func TestAccount_Transfer_NilRecipient(t *testing.T) {
	acc := mustAccount(t, "Solo", 100)

	_, err := acc.Transfer(amt(10), nil)

	assert.ErrorIs(t, err, ErrNoRecipient)
	assertAmount(t, "100", acc.Balance())
}

func TestAccount_Transfer_ToSelf(t *testing.T) {
	acc := mustAccount(t, "Mirror", 100)

	got, err := acc.Transfer(amt(40), acc)

	require.NoError(t, err)
	assertAmount(t, "100", got)
	assert.Equal(t, []string{"Withdrew: $40", "Deposited: $40", "Transferred: $40 to Mirror"}, acc.History())
}

func TestAccount_Transfer_ConcurrentOppositeDirections(t *testing.T) {
	a := mustAccount(t, "A", 1000)
	b := mustAccount(t, "B", 1000)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_, _ = a.Transfer(amt(10), b)
		}()
		go func() {
			defer wg.Done()
			_, _ = b.Transfer(amt(10), a)
		}()
	}
	wg.Wait()

	assertAmount(t, "2000", a.Balance().Add(b.Balance()))
}

func TestAccount_ApplyInterest(t *testing.T) {
	acc := mustAccount(t, "Jack", 1000)

	got, err := acc.ApplyInterest(amt(5))

	require.NoError(t, err)
	assertAmount(t, "1050", got)
	assert.Equal(t, []string{"Interest applied: $50.00 at 5%"}, acc.History())
}

func TestAccount_ApplyInterest_ZeroRate(t *testing.T) {
	acc := mustAccount(t, "Zero", 1000)

	got, err := acc.ApplyInterest(decimal.Zero)

	require.NoError(t, err)
	assertAmount(t, "1000", got)
	assert.Equal(t, []string{"Interest applied: $0.00 at 0%"}, acc.History())
}

func TestAccount_ApplyInterest_FractionalRate(t *testing.T) {
	acc := mustAccount(t, "Frac", 200)

	got, err := acc.ApplyInterest(decimal.RequireFromString("2.5"))

	require.NoError(t, err)
	assertAmount(t, "205", got)
	assert.Equal(t, []string{"Interest applied: $5.00 at 2.5%"}, acc.History())
}

func TestAccount_ApplyInterest_NegativeRate(t *testing.T) {
	acc := mustAccount(t, "Kate", 1000)

	_, err := acc.ApplyInterest(amt(-5))

	assert.ErrorIs(t, err, ErrInvalidAmount)
	assertAmount(t, "1000", acc.Balance())
	assert.Empty(t, acc.History())
}

func TestAccount_History(t *testing.T) {
	acc := mustAccount(t, "Leo", 1000)
	_, err := acc.Deposit(amt(500))
	require.NoError(t, err)
	_, err = acc.Withdraw(amt(200))
	require.NoError(t, err)
	_, err = acc.Withdraw(amt(5000))
	require.Error(t, err)

	history := acc.History()

	assert.Equal(t, []string{"Deposited: $500", "Withdrew: $200"}, history)
}

func TestAccount_History_IsSnapshot(t *testing.T) {
	acc := mustAccount(t, "Snap", 10)
	_, err := acc.Deposit(amt(1))
	require.NoError(t, err)

	history := acc.History()
	history[0] = "tampered"
	snap := acc.Snapshot()
	snap.Entries[0].Amount = amt(999)

	assert.Equal(t, []string{"Deposited: $1"}, acc.History())
	assertAmount(t, "1", acc.Snapshot().Entries[0].Amount)
}

func TestAccount_DecimalAmountsRenderExactly(t *testing.T) {
	acc := mustAccount(t, "Dec", 0)

	_, err := acc.Deposit(decimal.RequireFromString("50.50"))
	require.NoError(t, err)

	assert.Equal(t, []string{"Deposited: $50.5"}, acc.History())
	assert.Equal(t, "Account Holder: Dec, Balance: $50.50", acc.String())
}

func TestAccount_String(t *testing.T) {
	acc := mustAccount(t, "Maya", 1500)

	assert.Equal(t, "Account Holder: Maya, Balance: $1500.00", acc.String())
}

func TestAccount_Snapshot(t *testing.T) {
	acc := mustAccount(t, "Nina", 100)
	_, err := acc.Deposit(amt(25))
	require.NoError(t, err)

	snap := acc.Snapshot()

	assert.Equal(t, acc.ID(), snap.ID)
	assert.Equal(t, "Nina", snap.Holder)
	assertAmount(t, "125", snap.Balance)
	require.Len(t, snap.Entries, 1)
	assert.Equal(t, KindDeposit, snap.Entries[0].Kind)
	assert.False(t, snap.Entries[0].CreatedAt.IsZero())
	assert.Equal(t, acc.String(), snap.String())
}

func TestSnapshot_StringMatchesBalance(t *testing.T) {
	acc := mustAccount(t, "Olga", 100)
	snap := acc.Snapshot()

	_, err := acc.Deposit(amt(50))
	require.NoError(t, err)

	assert.Equal(t, "Account Holder: Olga, Balance: $100.00", snap.String())
	assert.Equal(t, "Account Holder: Olga, Balance: $150.00", acc.String())
}
