package repositories

import "context"

// TxFn runs with a context that carries the store's transaction.
type TxFn func(ctx context.Context) error

// TransactionManager groups repository writes. Every store provides one;
// stores without transactions just call fn.
type TransactionManager interface {
	// ExecTx runs fn in a transaction and commits if it returns nil.
	ExecTx(ctx context.Context, fn TxFn) error
}
