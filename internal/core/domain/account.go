package domain

import (
	"time"

	"github.com/shopspring/decimal"

	"remit-backoffice/pkg/apperror"
)

// Currency is an ISO-style currency code from the closed set this back
// office settles in.
type Currency string

const (
	CurrencyIQD Currency = "IQD"
	CurrencyUSD Currency = "USD"
)

// SupportedCurrencies lists every currency the system transacts in.
var SupportedCurrencies = []Currency{CurrencyIQD, CurrencyUSD}

// IsSupportedCurrency reports whether c belongs to the closed currency set.
func IsSupportedCurrency(c Currency) bool {
	for _, s := range SupportedCurrencies {
		if s == c {
			return true
		}
	}
	return false
}

// AccountCode is the stable, human-assigned identifier of a ledger account
// (e.g. "1030", "5110"). It is an opaque value: business logic never
// inspects its digits.
type AccountCode string

func (c AccountCode) String() string { return string(c) }

// AccountCategory is the closed chart-of-accounts taxonomy.
type AccountCategory string

const (
	AccountCategoryCash              AccountCategory = "cash"
	AccountCategoryBank              AccountCategory = "bank"
	AccountCategoryReceivable        AccountCategory = "receivable"
	AccountCategoryPayable           AccountCategory = "payable"
	AccountCategoryCommissionEarned  AccountCategory = "commission_earned"
	AccountCategoryCommissionPaid    AccountCategory = "commission_paid"
	AccountCategoryTransit           AccountCategory = "transit"
	AccountCategoryRevenue           AccountCategory = "revenue"
	AccountCategoryExpense           AccountCategory = "expense"
	AccountCategoryExchangeCompanies AccountCategory = "exchange_companies"
)

var accountCategories = map[AccountCategory]struct{}{
	AccountCategoryCash:              {},
	AccountCategoryBank:              {},
	AccountCategoryReceivable:        {},
	AccountCategoryPayable:           {},
	AccountCategoryCommissionEarned:  {},
	AccountCategoryCommissionPaid:    {},
	AccountCategoryTransit:           {},
	AccountCategoryRevenue:           {},
	AccountCategoryExpense:           {},
	AccountCategoryExchangeCompanies: {},
}

// System account codes seeded at migration time. The transit account holds
// in-flight transfer funds between the sender debit and the receiver credit.
const (
	TransitAccountCode          AccountCode = "1030"
	CommissionPaidAccountCode   AccountCode = "5110"
	CommissionEarnedAccountCode AccountCode = "4210"
)

// Account is a chart-of-accounts record. Balances carry one running value
// per supported currency, maintained exclusively by journal-entry posting.
type Account struct {
	Code       AccountCode              `json:"code"`
	Name       string                   `json:"name"`
	Category   AccountCategory          `json:"category"`
	Currencies []Currency               `json:"currencies"`
	Balances   map[Currency]decimal.Decimal `json:"balances,omitempty"`
	CreatedAt  time.Time                `json:"created_at"`
}

// NewAccount validates and builds an account record. Missing required
// fields are rejected rather than defaulted.
func NewAccount(code AccountCode, name string, category AccountCategory, currencies []Currency) (*Account, error) {
	if code == "" {
		return nil, apperror.Validation("account code is required")
	}
	if name == "" {
		return nil, apperror.Validation("account name is required")
	}
	if _, ok := accountCategories[category]; !ok {
		return nil, apperror.Validation("unknown account category: " + string(category))
	}
	if len(currencies) == 0 {
		return nil, apperror.Validation("account must support at least one currency")
	}
	for _, c := range currencies {
		if !IsSupportedCurrency(c) {
			return nil, apperror.ErrUnsupportedCurrency(string(c))
		}
	}
	return &Account{
		Code:       code,
		Name:       name,
		Category:   category,
		Currencies: currencies,
		CreatedAt:  time.Now().UTC(),
	}, nil
}

// SupportsCurrency reports whether the account may hold postings in c.
func (a *Account) SupportsCurrency(c Currency) bool {
	for _, cur := range a.Currencies {
		if cur == c {
			return true
		}
	}
	return false
}
