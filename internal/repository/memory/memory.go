// Package memory keeps ledger accounts in process memory.
package memory

import (
	"account_ledger/internal/repository"
)

var _ repository.AccountRepository = (*AccountRepository)(nil)
