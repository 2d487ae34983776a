package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"
)

// Transactor hands out pgx transactions for money-moving operations.
// Ledger postings, wallet adjustments, and transfer state changes all run
// inside a single transaction obtained here, so a failure anywhere rolls
// back every write of the transition.
type Transactor struct {
	pool Pool
}

func NewTransactor(pool Pool) *Transactor {
	return &Transactor{pool: pool}
}

// Begin opens a transaction at the pool's default isolation level.
// Row locks (SELECT ... FOR UPDATE) provide the serialization the
// ledger needs.
func (t *Transactor) Begin(ctx context.Context) (pgx.Tx, error) {
	return t.pool.Begin(ctx)
}
