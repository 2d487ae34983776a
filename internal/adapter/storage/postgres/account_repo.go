package postgres

import (
	"context"
	"errors"
	"fmt"

	"remit-backoffice/internal/core/domain"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

// AccountRepo implements ports.AccountRepository. Balance amounts travel as
// text with ::numeric casts so no precision is lost crossing the wire.
type AccountRepo struct {
	pool Pool
}

// NewAccountRepo creates a new AccountRepo.
func NewAccountRepo(pool Pool) *AccountRepo {
	return &AccountRepo{pool: pool}
}

// Create inserts an account and a zero balance row per supported currency.
func (r *AccountRepo) Create(ctx context.Context, account *domain.Account) error {
	currencies := make([]string, 0, len(account.Currencies))
	for _, c := range account.Currencies {
		currencies = append(currencies, string(c))
	}

	_, err := r.pool.Exec(ctx,
		`INSERT INTO accounts (code, name, category, currencies, created_at) VALUES ($1, $2, $3, $4, $5)`,
		string(account.Code), account.Name, string(account.Category), currencies, account.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert account: %w", err)
	}

	for _, c := range account.Currencies {
		_, err := r.pool.Exec(ctx,
			`INSERT INTO account_balances (account_code, currency) VALUES ($1, $2)`,
			string(account.Code), string(c),
		)
		if err != nil {
			return fmt.Errorf("insert account balance %s: %w", c, err)
		}
	}
	return nil
}

// GetByCode fetches an account by code, or nil when it does not exist.
func (r *AccountRepo) GetByCode(ctx context.Context, code domain.AccountCode) (*domain.Account, error) {
	query := `SELECT code, name, category, currencies, created_at FROM accounts WHERE code = $1`

	a := &domain.Account{}
	var currencies []string
	err := r.pool.QueryRow(ctx, query, string(code)).Scan(
		&a.Code, &a.Name, &a.Category, &currencies, &a.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get account by code: %w", err)
	}
	for _, c := range currencies {
		a.Currencies = append(a.Currencies, domain.Currency(c))
	}
	return a, nil
}

// GetBalances returns the account's maintained balance per currency.
func (r *AccountRepo) GetBalances(ctx context.Context, code domain.AccountCode) (map[domain.Currency]decimal.Decimal, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT currency, balance::text FROM account_balances WHERE account_code = $1`,
		string(code),
	)
	if err != nil {
		return nil, fmt.Errorf("get account balances: %w", err)
	}
	defer rows.Close()

	balances := map[domain.Currency]decimal.Decimal{}
	for rows.Next() {
		var currency, balance string
		if err := rows.Scan(&currency, &balance); err != nil {
			return nil, fmt.Errorf("scan balance row: %w", err)
		}
		value, err := decimal.NewFromString(balance)
		if err != nil {
			return nil, fmt.Errorf("parse balance %q: %w", balance, err)
		}
		balances[domain.Currency(currency)] = value
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate balance rows: %w", err)
	}
	return balances, nil
}

// LockBalance takes a row lock on one balance row and returns its value.
// Concurrent postings against the same account serialize here.
func (r *AccountRepo) LockBalance(ctx context.Context, tx pgx.Tx, code domain.AccountCode, currency domain.Currency) (decimal.Decimal, error) {
	var balance string
	err := tx.QueryRow(ctx,
		`SELECT balance::text FROM account_balances WHERE account_code = $1 AND currency = $2 FOR UPDATE`,
		string(code), string(currency),
	).Scan(&balance)
	if err != nil {
		return decimal.Zero, fmt.Errorf("lock balance %s/%s: %w", code, currency, err)
	}
	return decimal.NewFromString(balance)
}

// ApplyDelta adds a signed amount to one balance row inside the transaction.
func (r *AccountRepo) ApplyDelta(ctx context.Context, tx pgx.Tx, code domain.AccountCode, currency domain.Currency, delta decimal.Decimal) error {
	tag, err := tx.Exec(ctx,
		`UPDATE account_balances SET balance = balance + $3::numeric, updated_at = now()
		WHERE account_code = $1 AND currency = $2`,
		string(code), string(currency), delta.String(),
	)
	if err != nil {
		return fmt.Errorf("apply balance delta: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("balance row not found: %s/%s", code, currency)
	}
	return nil
}
