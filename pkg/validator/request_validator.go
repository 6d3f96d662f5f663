package validator

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"unicode"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	maxHolderLength = 128

	// Amounts are capped so that rendering them stays cheap.
	maxAmountIntegerDigits = 18
	maxAmountScale         = 8
)

var (
	ErrInvalidHolder    = errors.New("invalid holder")
	ErrInvalidAccount   = errors.New("invalid account id")
	ErrDuplicateRequest = errors.New("duplicate request")
	ErrAmountOutOfRange = errors.New("amount out of range")
)

// RequestValidator checks the shape of incoming ledger requests. Sign rules
// for amounts live on the account itself.
type RequestValidator struct {
	mu   sync.Mutex
	seen map[string]struct{}
}

func NewRequestValidator() *RequestValidator {
	return &RequestValidator{
		seen: make(map[string]struct{}),
	}
}

func (v *RequestValidator) ValidateHolder(holder string) error {
	trimmed := strings.TrimSpace(holder)
	if trimmed == "" {
		return fmt.Errorf("%w: holder is required", ErrInvalidHolder)
	}
	if utf8.RuneCountInString(trimmed) > maxHolderLength {
		return fmt.Errorf("%w: holder longer than %d characters", ErrInvalidHolder, maxHolderLength)
	}
	if strings.IndexFunc(holder, unicode.IsControl) >= 0 {
		return fmt.Errorf("%w: holder contains control characters", ErrInvalidHolder)
	}
	return nil
}

// ValidateAmount bounds the size of an amount or rate. It does not check
// the sign.
func ValidateAmount(amount decimal.Decimal) error {
	if -int64(amount.Exponent()) > maxAmountScale {
		return fmt.Errorf("%w: %s has more than %d decimal places", ErrAmountOutOfRange, shortForm(amount), maxAmountScale)
	}
	if int64(coefficientDigits(amount))+int64(amount.Exponent()) > maxAmountIntegerDigits {
		return fmt.Errorf("%w: %s has more than %d integer digits", ErrAmountOutOfRange, shortForm(amount), maxAmountIntegerDigits)
	}
	return nil
}

func coefficientDigits(amount decimal.Decimal) int {
	c := amount.Coefficient()
	return len(c.Abs(c).String())
}

// shortForm renders amount in scientific form, which stays short for any
// exponent.
func shortForm(amount decimal.Decimal) string {
	s := amount.Coefficient().String()
	if len(s) > 20 {
		s = s[:20] + "..."
	}
	return fmt.Sprintf("%se%d", s, amount.Exponent())
}

func (v *RequestValidator) ValidateAccountID(id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return fmt.Errorf("%w: %q", ErrInvalidAccount, id)
	}
	return nil
}

// ValidateTransfer checks both ends of a transfer and reports every
// problem at once.
func (v *RequestValidator) ValidateTransfer(fromID, toID string) error {
	var errs []error

	if err := v.ValidateAccountID(fromID); err != nil {
		errs = append(errs, err)
	}
	if err := v.ValidateAccountID(toID); err != nil {
		errs = append(errs, err)
	}

	return errors.Join(errs...)
}

// ClaimRequestID marks a client request ID as used. An empty ID opts out of
// deduplication.
func (v *RequestValidator) ClaimRequestID(requestID string) error {
	if requestID == "" {
		return nil
	}

	v.mu.Lock()
	defer v.mu.Unlock()

	if _, ok := v.seen[requestID]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateRequest, requestID)
	}
	v.seen[requestID] = struct{}{}
	return nil
}

// ReleaseRequestID makes a claimed ID usable again, for requests that
// failed after claiming it.
func (v *RequestValidator) ReleaseRequestID(requestID string) {
	if requestID == "" {
		return
	}

	v.mu.Lock()
	defer v.mu.Unlock()
	delete(v.seen, requestID)
}
