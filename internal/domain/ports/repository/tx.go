package repository

import (
	"context"

	"github.com/jackc/pgx/v4"
)

// Tx is an opaque transaction handle. The concrete type is infra-defined
// (pgx.Tx for Postgres). Repositories MUST accept a nil Tx and fall back
// to their non-transactional path.
type Tx interface{}

// NoTX marks intentionally non-transactional repository calls.
var NoTX Tx

// TransactionManager executes fn within a database transaction, passing
// the transaction handle through tx. Keeping the handle opaque keeps
// use-case signatures free of storage types while still letting the
// order flow run its read-check-write sequence atomically.
type TransactionManager interface {
	WithTx(ctx context.Context, txOpt pgx.TxOptions, fn func(ctx context.Context, tx Tx) error) error
}
