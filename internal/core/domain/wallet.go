package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// WalletBalance is one cached per-user, per-currency balance row. It is a
// derived projection of the ledger postings against the user's linked
// account, maintained incrementally in the same atomic scope as each posting.
type WalletBalance struct {
	UserID    uuid.UUID       `json:"user_id"`
	Currency  Currency        `json:"currency"`
	Balance   decimal.Decimal `json:"balance"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// WalletBalances is the per-user balance view across the currency set.
type WalletBalances struct {
	BalanceIQD decimal.Decimal `json:"balance_iqd"`
	BalanceUSD decimal.Decimal `json:"balance_usd"`
}

// Get returns the balance for a currency.
func (w WalletBalances) Get(c Currency) decimal.Decimal {
	switch c {
	case CurrencyIQD:
		return w.BalanceIQD
	case CurrencyUSD:
		return w.BalanceUSD
	}
	return decimal.Zero
}

// Set stores the balance for a currency.
func (w *WalletBalances) Set(c Currency, v decimal.Decimal) {
	switch c {
	case CurrencyIQD:
		w.BalanceIQD = v
	case CurrencyUSD:
		w.BalanceUSD = v
	}
}
