package postgres

import (
	"context"
	"fmt"

	"remit-backoffice/internal/core/domain"

	"github.com/rs/zerolog"
)

var migrations = []string{
	`CREATE TABLE IF NOT EXISTS accounts (
		code TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		category TEXT NOT NULL,
		currencies TEXT[] NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS account_balances (
		account_code TEXT NOT NULL REFERENCES accounts(code),
		currency TEXT NOT NULL,
		balance NUMERIC(24,4) NOT NULL DEFAULT 0,
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		PRIMARY KEY (account_code, currency)
	)`,
	`CREATE TABLE IF NOT EXISTS journal_entries (
		id UUID PRIMARY KEY,
		entry_number TEXT NOT NULL UNIQUE,
		entry_date TIMESTAMPTZ NOT NULL,
		reference_type TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS journal_lines (
		id BIGSERIAL PRIMARY KEY,
		entry_id UUID NOT NULL REFERENCES journal_entries(id),
		account_code TEXT NOT NULL REFERENCES accounts(code),
		currency TEXT NOT NULL,
		debit NUMERIC(24,4) NOT NULL DEFAULT 0,
		credit NUMERIC(24,4) NOT NULL DEFAULT 0
	)`,
	`CREATE INDEX IF NOT EXISTS idx_journal_lines_account ON journal_lines(account_code)`,
	`CREATE TABLE IF NOT EXISTS agents (
		id UUID PRIMARY KEY,
		name TEXT NOT NULL,
		phone TEXT NOT NULL DEFAULT '',
		governorate TEXT NOT NULL DEFAULT '',
		account_code TEXT REFERENCES accounts(code),
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS transfers (
		id UUID PRIMARY KEY,
		transfer_code TEXT NOT NULL UNIQUE,
		status TEXT NOT NULL,
		amount NUMERIC(24,4) NOT NULL,
		currency TEXT NOT NULL,
		sender_name TEXT NOT NULL,
		sender_phone TEXT NOT NULL DEFAULT '',
		receiver_name TEXT NOT NULL,
		receiver_phone TEXT NOT NULL DEFAULT '',
		governorate TEXT NOT NULL DEFAULT '',
		from_agent_id UUID NOT NULL REFERENCES agents(id),
		to_agent_id UUID REFERENCES agents(id),
		pin_hash TEXT NOT NULL,
		image_ref TEXT,
		incoming_commission NUMERIC(24,4) NOT NULL DEFAULT 0,
		incoming_commission_percentage NUMERIC(10,4) NOT NULL DEFAULT 0,
		created_at TIMESTAMPTZ NOT NULL,
		received_at TIMESTAMPTZ,
		cancelled_at TIMESTAMPTZ
	)`,
	`CREATE INDEX IF NOT EXISTS idx_transfers_status ON transfers(status)`,
	`CREATE INDEX IF NOT EXISTS idx_transfers_from_agent ON transfers(from_agent_id)`,
	`CREATE TABLE IF NOT EXISTS commission_schedules (
		id UUID PRIMARY KEY,
		agent_id UUID NOT NULL REFERENCES agents(id),
		currency TEXT NOT NULL,
		bulletin_type TEXT NOT NULL,
		valid_from TIMESTAMPTZ NOT NULL,
		tiers JSONB NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_commission_schedules_key
		ON commission_schedules(agent_id, currency, bulletin_type, valid_from)`,
	`CREATE TABLE IF NOT EXISTS wallet_balances (
		user_id UUID NOT NULL,
		currency TEXT NOT NULL,
		balance NUMERIC(24,4) NOT NULL DEFAULT 0,
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		PRIMARY KEY (user_id, currency)
	)`,
}

// systemAccounts are seeded once; transfers cannot post without them.
var systemAccounts = []struct {
	code     domain.AccountCode
	name     string
	category domain.AccountCategory
}{
	{domain.TransitAccountCode, "Transfer Transit", domain.AccountCategoryTransit},
	{domain.CommissionPaidAccountCode, "Commission Paid", domain.AccountCategoryCommissionPaid},
	{domain.CommissionEarnedAccountCode, "Commission Earned", domain.AccountCategoryCommissionEarned},
}

// Migrate creates the schema and seeds the system accounts. Every statement
// is idempotent so the migration can run on each startup.
func Migrate(ctx context.Context, pool Pool, log zerolog.Logger) error {
	for _, stmt := range migrations {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("running migration: %w", err)
		}
	}

	currencies := make([]string, 0, len(domain.SupportedCurrencies))
	for _, c := range domain.SupportedCurrencies {
		currencies = append(currencies, string(c))
	}

	for _, acc := range systemAccounts {
		_, err := pool.Exec(ctx,
			`INSERT INTO accounts (code, name, category, currencies) VALUES ($1, $2, $3, $4)
			ON CONFLICT (code) DO NOTHING`,
			string(acc.code), acc.name, string(acc.category), currencies,
		)
		if err != nil {
			return fmt.Errorf("seeding account %s: %w", acc.code, err)
		}
		for _, c := range domain.SupportedCurrencies {
			_, err := pool.Exec(ctx,
				`INSERT INTO account_balances (account_code, currency) VALUES ($1, $2)
				ON CONFLICT (account_code, currency) DO NOTHING`,
				string(acc.code), string(c),
			)
			if err != nil {
				return fmt.Errorf("seeding balance %s/%s: %w", acc.code, c, err)
			}
		}
	}

	log.Info().Int("statements", len(migrations)).Msg("database schema migrated")
	return nil
}
