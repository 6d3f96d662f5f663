package memory

import (
	"context"
	"fmt"
	"sync"

	"account_ledger/internal/domain"
	"account_ledger/internal/repository"
)

// AccountRepository indexes accounts by ID and holder. It stores pointers,
// so callers share the live account and its lock.
type AccountRepository struct {
	mu          sync.RWMutex
	accounts    map[string]*domain.Account
	order       []string
	holderIndex map[string][]string
}

func NewAccountRepository() *AccountRepository {
	return &AccountRepository{
		accounts:    make(map[string]*domain.Account),
		holderIndex: make(map[string][]string),
	}
}

func (r *AccountRepository) Save(ctx context.Context, account *domain.Account) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.accounts[account.ID()]; exists {
		return fmt.Errorf("%w: account %s", repository.ErrDuplicate, account.ID())
	}

	r.accounts[account.ID()] = account
	r.order = append(r.order, account.ID())
	r.holderIndex[account.Holder()] = append(r.holderIndex[account.Holder()], account.ID())

	return nil
}

func (r *AccountRepository) GetByID(ctx context.Context, id string) (*domain.Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	account, exists := r.accounts[id]
	if !exists {
		return nil, fmt.Errorf("%w: account %s", repository.ErrNotFound, id)
	}
	return account, nil
}

func (r *AccountRepository) GetByHolder(ctx context.Context, holder string) ([]*domain.Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	accountIDs, exists := r.holderIndex[holder]
	if !exists {
		return nil, fmt.Errorf("%w: holder %s", repository.ErrNotFound, holder)
	}

	result := make([]*domain.Account, 0, len(accountIDs))
	for _, id := range accountIDs {
		result = append(result, r.accounts[id])
	}

	return result, nil
}

// List returns accounts in the order they were saved.
func (r *AccountRepository) List(ctx context.Context) ([]*domain.Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]*domain.Account, 0, len(r.order))
	for _, id := range r.order {
		result = append(result, r.accounts[id])
	}

	return result, nil
}
