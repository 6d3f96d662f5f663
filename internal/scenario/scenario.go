// Package scenario replays scripted ledger sessions written in YAML.
package scenario

import (
	"errors"
	"fmt"
	"io"
	"os"

	"account_ledger/pkg/validator"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

const (
	OpDeposit  = "deposit"
	OpWithdraw = "withdraw"
	OpTransfer = "transfer"
	OpInterest = "interest"

	ExpectInvalidAmount     = "invalid_amount"
	ExpectInsufficientFunds = "insufficient_funds"
)

var ErrInvalidScenario = errors.New("invalid scenario")

type Scenario struct {
	Accounts []AccountSpec `yaml:"accounts"`
	Steps    []Step        `yaml:"steps"`
}

type AccountSpec struct {
	Name           string `yaml:"name"`
	Holder         string `yaml:"holder"`
	InitialBalance Amount `yaml:"initial_balance"`
}

type Step struct {
	Op          string `yaml:"op"`
	Account     string `yaml:"account"`
	To          string `yaml:"to,omitempty"`
	Amount      Amount `yaml:"amount,omitempty"`
	Rate        Amount `yaml:"rate,omitempty"`
	ExpectError string `yaml:"expect_error,omitempty"`
}

// Amount reads a YAML number or string as an exact decimal.
type Amount struct {
	decimal.Decimal
}

func (a *Amount) UnmarshalYAML(n *yaml.Node) error {
	d, err := decimal.NewFromString(n.Value)
	if err != nil {
		return fmt.Errorf("line %d: invalid amount %q: %w", n.Line, n.Value, err)
	}
	a.Decimal = d
	return nil
}

func Load(path string) (*Scenario, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open scenario: %w", err)
	}
	defer f.Close()

	return Parse(f)
}

func Parse(r io.Reader) (*Scenario, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var sc Scenario
	if err := dec.Decode(&sc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidScenario, err)
	}
	if err := sc.Validate(); err != nil {
		return nil, err
	}
	return &sc, nil
}

// Validate checks that every step names a declared account and a known op,
// and that amounts are within range. Amount signs are left to the ledger so
// scenarios can exercise rejections.
func (s *Scenario) Validate() error {
	var errs []error

	names := make(map[string]struct{}, len(s.Accounts))
	for i, acc := range s.Accounts {
		if acc.Name == "" {
			errs = append(errs, fmt.Errorf("account %d: name is required", i))
			continue
		}
		if _, dup := names[acc.Name]; dup {
			errs = append(errs, fmt.Errorf("account %q declared twice", acc.Name))
		}
		if err := validator.ValidateAmount(acc.InitialBalance.Decimal); err != nil {
			errs = append(errs, fmt.Errorf("account %q: %w", acc.Name, err))
		}
		names[acc.Name] = struct{}{}
	}

	for i, step := range s.Steps {
		if _, ok := names[step.Account]; !ok {
			errs = append(errs, fmt.Errorf("step %d: unknown account %q", i+1, step.Account))
		}

		switch step.Op {
		case OpDeposit, OpWithdraw, OpInterest:
		case OpTransfer:
			if _, ok := names[step.To]; !ok {
				errs = append(errs, fmt.Errorf("step %d: unknown transfer target %q", i+1, step.To))
			}
		default:
			errs = append(errs, fmt.Errorf("step %d: unknown op %q", i+1, step.Op))
		}

		if err := validator.ValidateAmount(step.Amount.Decimal); err != nil {
			errs = append(errs, fmt.Errorf("step %d: %w", i+1, err))
		}
		if err := validator.ValidateAmount(step.Rate.Decimal); err != nil {
			errs = append(errs, fmt.Errorf("step %d: rate: %w", i+1, err))
		}

		switch step.ExpectError {
		case "", ExpectInvalidAmount, ExpectInsufficientFunds:
		default:
			errs = append(errs, fmt.Errorf("step %d: unknown expect_error %q", i+1, step.ExpectError))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalidScenario, errors.Join(errs...))
	}
	return nil
}
