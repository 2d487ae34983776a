package postgres

import (
	"context"
	"errors"
	"fmt"

	"remit-backoffice/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

// WalletRepo implements ports.WalletRepository over the cached per-user
// balance projection.
type WalletRepo struct {
	pool Pool
}

// NewWalletRepo creates a new WalletRepo.
func NewWalletRepo(pool Pool) *WalletRepo {
	return &WalletRepo{pool: pool}
}

// GetBalances returns the user's balances across currencies, or nil when the
// user has no wallet rows at all.
func (r *WalletRepo) GetBalances(ctx context.Context, userID uuid.UUID) (*domain.WalletBalances, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT currency, balance::text FROM wallet_balances WHERE user_id = $1`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("get wallet balances: %w", err)
	}
	defer rows.Close()

	var found bool
	balances := &domain.WalletBalances{}
	for rows.Next() {
		var currency, balance string
		if err := rows.Scan(&currency, &balance); err != nil {
			return nil, fmt.Errorf("scan wallet row: %w", err)
		}
		value, err := decimal.NewFromString(balance)
		if err != nil {
			return nil, fmt.Errorf("parse wallet balance %q: %w", balance, err)
		}
		balances.Set(domain.Currency(currency), value)
		found = true
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate wallet rows: %w", err)
	}
	if !found {
		return nil, nil
	}
	return balances, nil
}

// LockBalance takes a row lock on the user's balance for one currency and
// returns it. A user with no row yet holds zero.
func (r *WalletRepo) LockBalance(ctx context.Context, tx pgx.Tx, userID uuid.UUID, currency domain.Currency) (decimal.Decimal, error) {
	var balance string
	err := tx.QueryRow(ctx,
		`SELECT balance::text FROM wallet_balances WHERE user_id = $1 AND currency = $2 FOR UPDATE`,
		userID, string(currency),
	).Scan(&balance)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return decimal.Zero, nil
		}
		return decimal.Zero, fmt.Errorf("lock wallet balance: %w", err)
	}
	return decimal.NewFromString(balance)
}

// Adjust adds a signed delta to the user's balance inside the transaction,
// creating the row on first use.
func (r *WalletRepo) Adjust(ctx context.Context, tx pgx.Tx, userID uuid.UUID, currency domain.Currency, delta decimal.Decimal) error {
	_, err := tx.Exec(ctx,
		`INSERT INTO wallet_balances (user_id, currency, balance) VALUES ($1, $2, $3::numeric)
		ON CONFLICT (user_id, currency)
		DO UPDATE SET balance = wallet_balances.balance + EXCLUDED.balance, updated_at = now()`,
		userID, string(currency), delta.String(),
	)
	if err != nil {
		return fmt.Errorf("adjust wallet balance: %w", err)
	}
	return nil
}

// SetBalance overwrites the projection; reconciliation's repair path.
func (r *WalletRepo) SetBalance(ctx context.Context, userID uuid.UUID, currency domain.Currency, balance decimal.Decimal) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO wallet_balances (user_id, currency, balance) VALUES ($1, $2, $3::numeric)
		ON CONFLICT (user_id, currency)
		DO UPDATE SET balance = EXCLUDED.balance, updated_at = now()`,
		userID, string(currency), balance.String(),
	)
	if err != nil {
		return fmt.Errorf("set wallet balance: %w", err)
	}
	return nil
}
