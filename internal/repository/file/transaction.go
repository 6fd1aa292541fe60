package file

import (
	"context"

	"piuma/internal/domain/repositories"
)

// TransactionManager runs functions directly. Files have no transactions;
// each write is atomic on its own.
type TransactionManager struct{}

// NewTransactionManager creates a new transaction manager
func NewTransactionManager() repositories.TransactionManager {
	return TransactionManager{}
}

// ExecTx calls fn with ctx unchanged
func (TransactionManager) ExecTx(ctx context.Context, fn repositories.TxFn) error {
	return fn(ctx)
}
