// Package ledger addresses accounts by ID and runs every balance change
// through the domain account, logging each outcome.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"account_ledger/internal/domain"
	"account_ledger/internal/repository"

	"github.com/shopspring/decimal"
)

type Operation string

const (
	OpOpen     Operation = "open"
	OpDeposit  Operation = "deposit"
	OpWithdraw Operation = "withdraw"
	OpTransfer Operation = "transfer"
	OpInterest Operation = "interest"
)

type Service struct {
	accounts repository.AccountRepository
	logger   *slog.Logger
}

func NewService(accounts repository.AccountRepository, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}

	return &Service{
		accounts: accounts,
		logger:   logger,
	}
}

func (s *Service) OpenAccount(ctx context.Context, holder string, initialBalance decimal.Decimal) (*domain.Account, error) {
	account, err := domain.NewAccount(holder, initialBalance)
	if err != nil {
		s.logger.WarnContext(ctx, "Account rejected",
			slog.String("holder", holder),
			slog.String("initial_balance", initialBalance.String()),
			slog.String("error", err.Error()))
		return nil, err
	}

	if err := s.accounts.Save(ctx, account); err != nil {
		return nil, fmt.Errorf("failed to save account: %w", err)
	}

	s.logger.InfoContext(ctx, "Account opened",
		slog.String("account_id", account.ID()),
		slog.String("holder", holder),
		slog.String("balance", initialBalance.String()))
	return account, nil
}

func (s *Service) Deposit(ctx context.Context, accountID string, amount decimal.Decimal) (decimal.Decimal, error) {
	account, err := s.Account(ctx, accountID)
	if err != nil {
		return decimal.Zero, err
	}

	balance, err := account.Deposit(amount)
	s.logOutcome(ctx, OpDeposit, account, amount, balance, err)
	return balance, err
}

func (s *Service) Withdraw(ctx context.Context, accountID string, amount decimal.Decimal) (decimal.Decimal, error) {
	account, err := s.Account(ctx, accountID)
	if err != nil {
		return decimal.Zero, err
	}

	balance, err := account.Withdraw(amount)
	s.logOutcome(ctx, OpWithdraw, account, amount, balance, err)
	return balance, err
}

// Transfer returns the sender's balance after the transfer.
func (s *Service) Transfer(ctx context.Context, fromID, toID string, amount decimal.Decimal) (decimal.Decimal, error) {
	from, err := s.Account(ctx, fromID)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to get from account: %w", err)
	}

	to, err := s.Account(ctx, toID)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to get to account: %w", err)
	}

	balance, err := from.Transfer(amount, to)
	if err != nil {
		s.logger.WarnContext(ctx, "Transfer rejected",
			slog.String("from_account", fromID),
			slog.String("to_account", toID),
			slog.String("amount", amount.String()),
			slog.String("error", err.Error()))
		return decimal.Zero, err
	}

	s.logger.InfoContext(ctx, "Transfer completed",
		slog.String("from_account", fromID),
		slog.String("to_account", toID),
		slog.String("amount", amount.String()),
		slog.String("balance", balance.String()))
	return balance, nil
}

func (s *Service) ApplyInterest(ctx context.Context, accountID string, ratePercent decimal.Decimal) (decimal.Decimal, error) {
	account, err := s.Account(ctx, accountID)
	if err != nil {
		return decimal.Zero, err
	}

	balance, err := account.ApplyInterest(ratePercent)
	s.logOutcome(ctx, OpInterest, account, ratePercent, balance, err)
	return balance, err
}

func (s *Service) Balance(ctx context.Context, accountID string) (decimal.Decimal, error) {
	account, err := s.Account(ctx, accountID)
	if err != nil {
		return decimal.Zero, err
	}
	return account.Balance(), nil
}

func (s *Service) History(ctx context.Context, accountID string) ([]string, error) {
	account, err := s.Account(ctx, accountID)
	if err != nil {
		return nil, err
	}
	return account.History(), nil
}

func (s *Service) Describe(ctx context.Context, accountID string) (string, error) {
	account, err := s.Account(ctx, accountID)
	if err != nil {
		return "", err
	}
	return account.String(), nil
}

func (s *Service) Account(ctx context.Context, accountID string) (*domain.Account, error) {
	return s.accounts.GetByID(ctx, accountID)
}

func (s *Service) Accounts(ctx context.Context) ([]*domain.Account, error) {
	return s.accounts.List(ctx)
}

// AccountsByHolder returns the holder's accounts in creation order, or an
// empty slice when there are none.
func (s *Service) AccountsByHolder(ctx context.Context, holder string) ([]*domain.Account, error) {
	accounts, err := s.accounts.GetByHolder(ctx, holder)
	if errors.Is(err, repository.ErrNotFound) {
		return []*domain.Account{}, nil
	}
	return accounts, err
}

func (s *Service) logOutcome(ctx context.Context, op Operation, account *domain.Account, value, balance decimal.Decimal, err error) {
	if err != nil {
		s.logger.WarnContext(ctx, "Operation rejected",
			slog.String("operation", string(op)),
			slog.String("account_id", account.ID()),
			slog.String("value", value.String()),
			slog.String("error", err.Error()))
		return
	}

	s.logger.InfoContext(ctx, "Operation completed",
		slog.String("operation", string(op)),
		slog.String("account_id", account.ID()),
		slog.String("value", value.String()),
		slog.String("balance", balance.String()))
}
