package scenario

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"account_ledger/internal/domain"
	"account_ledger/internal/ledger"

	"github.com/shopspring/decimal"
)

var ErrExpectationFailed = errors.New("scenario expectation failed")

type Runner struct {
	ledger *ledger.Service
	logger *slog.Logger
}

type StepResult struct {
	Index   int
	Step    Step
	Balance decimal.Decimal
	Err     error
	Passed  bool
}

type NamedAccount struct {
	Name    string
	Account *domain.Account
}

type Report struct {
	Accounts []NamedAccount
	Results  []StepResult
}

func (r *Report) Failed() int {
	n := 0
	for _, res := range r.Results {
		if !res.Passed {
			n++
		}
	}
	return n
}

func NewRunner(svc *ledger.Service, logger *slog.Logger) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{ledger: svc, logger: logger}
}

// Run opens the declared accounts and replays every step, even after a
// failed expectation, so the report shows the whole session.
func (r *Runner) Run(ctx context.Context, sc *Scenario) (*Report, error) {
	report := &Report{}
	ids := make(map[string]string, len(sc.Accounts))

	for _, spec := range sc.Accounts {
		holder := spec.Holder
		if holder == "" {
			holder = spec.Name
		}

		account, err := r.ledger.OpenAccount(ctx, holder, spec.InitialBalance.Decimal)
		if err != nil {
			return nil, fmt.Errorf("account %q: %w", spec.Name, err)
		}
		ids[spec.Name] = account.ID()
		report.Accounts = append(report.Accounts, NamedAccount{Name: spec.Name, Account: account})
	}

	for i, step := range sc.Steps {
		balance, err := r.apply(ctx, step, ids)
		res := StepResult{
			Index:   i + 1,
			Step:    step,
			Balance: balance,
			Err:     err,
			Passed:  matches(step.ExpectError, err),
		}
		if !res.Passed {
			r.logger.WarnContext(ctx, "Scenario step did not match expectation",
				slog.Int("step", res.Index),
				slog.String("op", step.Op),
				slog.String("expected_error", step.ExpectError),
				slog.Any("error", err))
		}
		report.Results = append(report.Results, res)
	}

	if failed := report.Failed(); failed > 0 {
		return report, fmt.Errorf("%w: %d of %d steps", ErrExpectationFailed, failed, len(report.Results))
	}
	return report, nil
}

func (r *Runner) apply(ctx context.Context, step Step, ids map[string]string) (decimal.Decimal, error) {
	id := ids[step.Account]

	switch step.Op {
	case OpDeposit:
		return r.ledger.Deposit(ctx, id, step.Amount.Decimal)
	case OpWithdraw:
		return r.ledger.Withdraw(ctx, id, step.Amount.Decimal)
	case OpTransfer:
		return r.ledger.Transfer(ctx, id, ids[step.To], step.Amount.Decimal)
	case OpInterest:
		return r.ledger.ApplyInterest(ctx, id, step.Rate.Decimal)
	default:
		return decimal.Zero, fmt.Errorf("unknown op %q", step.Op)
	}
}

// ErrorKind names the ledger error class of err, or "" for nil and
// unclassified errors.
func ErrorKind(err error) string {
	switch {
	case errors.Is(err, domain.ErrInvalidAmount):
		return ExpectInvalidAmount
	case errors.Is(err, domain.ErrInsufficientFunds):
		return ExpectInsufficientFunds
	default:
		return ""
	}
}

func matches(expected string, err error) bool {
	if err == nil {
		return expected == ""
	}
	return expected != "" && ErrorKind(err) == expected
}
