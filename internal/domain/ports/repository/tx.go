package repository

import (
	"context"

	"github.com/jackc/pgx/v4"
)

type Tx interface{}

var NoTX interface{}

// TransactionManager executes a function within a database transaction,
// passing the underlying transaction handle via `tx`.
//
// Repositories accept the same handle and detect it implementation-side, so
// use-case code can compose several repository calls into one atomic step
// (quota claim-and-record, dispatch drain-and-record) without leaking
// storage types into the domain. Repositories MUST gracefully accept a nil
// handle and fall back to the pool.
type TransactionManager interface {
	WithTx(ctx context.Context, txOpt pgx.TxOptions, fn func(ctx context.Context, tx Tx) error) error
}
