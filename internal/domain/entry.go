package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

type EntryKind string

const (
	KindDeposit    EntryKind = "deposit"
	KindWithdrawal EntryKind = "withdrawal"
	KindTransfer   EntryKind = "transfer"
	KindInterest   EntryKind = "interest"
)

// Entry is one line of an account's history. Amount holds the interest
// earned for KindInterest entries.
type Entry struct {
	Kind         EntryKind       `json:"kind"`
	Amount       decimal.Decimal `json:"amount"`
	Rate         decimal.Decimal `json:"rate"`
	Counterparty string          `json:"counterparty,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
}

func (e Entry) String() string {
	switch e.Kind {
	case KindDeposit:
		return fmt.Sprintf("Deposited: $%s", e.Amount)
	case KindWithdrawal:
		return fmt.Sprintf("Withdrew: $%s", e.Amount)
	case KindTransfer:
		return fmt.Sprintf("Transferred: $%s to %s", e.Amount, e.Counterparty)
	case KindInterest:
		return fmt.Sprintf("Interest applied: $%s at %s%%", e.Amount.StringFixed(2), e.Rate)
	default:
		return fmt.Sprintf("%s: $%s", e.Kind, e.Amount)
	}
}
