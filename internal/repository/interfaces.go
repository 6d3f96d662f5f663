package repository

import (
	"context"
	"errors"

	"account_ledger/internal/domain"
)

type AccountRepository interface {
	Save(ctx context.Context, account *domain.Account) error
	GetByID(ctx context.Context, id string) (*domain.Account, error)
	GetByHolder(ctx context.Context, holder string) ([]*domain.Account, error)
	List(ctx context.Context) ([]*domain.Account, error)
}

var (
	ErrNotFound  = errors.New("not found")
	ErrDuplicate = errors.New("duplicate entry")
)
