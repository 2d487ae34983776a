package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"remit-backoffice/pkg/apperror"
)

// Entry number prefixes, one per transaction kind.
const (
	EntryPrefixTransferSend    = "TR-SND-"
	EntryPrefixTransferReceive = "TR-RCV-"
	EntryPrefixTransferCancel  = "TR-CNL-"
	EntryPrefixCommissionPaid  = "COM-PAID-"
)

// JournalLine is one leg of a journal entry. Exactly one of Debit/Credit is
// positive; the other is zero. A line is owned by its entry and never shared.
type JournalLine struct {
	AccountCode AccountCode     `json:"account_code"`
	Currency    Currency        `json:"currency"`
	Debit       decimal.Decimal `json:"debit"`
	Credit      decimal.Decimal `json:"credit"`
}

// SignedAmount returns the line's effect on the account balance under the
// uniform sign convention: credits increase, debits decrease.
func (l JournalLine) SignedAmount() decimal.Decimal {
	return l.Credit.Sub(l.Debit)
}

// DebitLine builds a debit leg.
func DebitLine(code AccountCode, currency Currency, amount decimal.Decimal) JournalLine {
	return JournalLine{AccountCode: code, Currency: currency, Debit: amount}
}

// CreditLine builds a credit leg.
func CreditLine(code AccountCode, currency Currency, amount decimal.Decimal) JournalLine {
	return JournalLine{AccountCode: code, Currency: currency, Credit: amount}
}

// JournalEntry is a balanced set of debit/credit postings recording one
// financial event. Entries are immutable once posted; corrections are
// reversing entries, not edits.
type JournalEntry struct {
	ID            uuid.UUID     `json:"id"`
	EntryNumber   string        `json:"entry_number"`
	Date          time.Time     `json:"date"`
	ReferenceType string        `json:"reference_type"`
	Lines         []JournalLine `json:"lines"`
	CreatedAt     time.Time     `json:"created_at"`
}

// NewJournalEntry validates and builds a journal entry. An unbalanced entry
// can never be constructed, so one can never be persisted.
func NewJournalEntry(entryNumber, referenceType string, date time.Time, lines []JournalLine) (*JournalEntry, error) {
	if entryNumber == "" {
		return nil, apperror.Validation("entry number is required")
	}
	if len(lines) < 2 {
		return nil, apperror.Validation("journal entry needs at least two lines")
	}

	debits := map[Currency]decimal.Decimal{}
	credits := map[Currency]decimal.Decimal{}
	for _, l := range lines {
		if l.AccountCode == "" {
			return nil, apperror.Validation("journal line is missing an account code")
		}
		if !IsSupportedCurrency(l.Currency) {
			return nil, apperror.ErrUnsupportedCurrency(string(l.Currency))
		}
		debitSet := l.Debit.IsPositive()
		creditSet := l.Credit.IsPositive()
		if debitSet == creditSet || l.Debit.IsNegative() || l.Credit.IsNegative() {
			return nil, apperror.Validation("journal line must carry exactly one positive side")
		}
		debits[l.Currency] = debits[l.Currency].Add(l.Debit)
		credits[l.Currency] = credits[l.Currency].Add(l.Credit)
	}

	for ccy, d := range debits {
		if !d.Equal(credits[ccy]) {
			return nil, apperror.ErrUnbalancedEntry(entryNumber)
		}
	}
	for ccy, c := range credits {
		if !c.Equal(debits[ccy]) {
			return nil, apperror.ErrUnbalancedEntry(entryNumber)
		}
	}

	return &JournalEntry{
		ID:            uuid.New(),
		EntryNumber:   entryNumber,
		Date:          date,
		ReferenceType: referenceType,
		Lines:         lines,
		CreatedAt:     time.Now().UTC(),
	}, nil
}

// Posting is a single ledger line as seen from one account's ledger view,
// ordered by posting time. Replaying postings reconstructs the balance.
type Posting struct {
	EntryNumber   string          `json:"entry_number"`
	ReferenceType string          `json:"reference_type"`
	Date          time.Time       `json:"date"`
	AccountCode   AccountCode     `json:"account_code"`
	Currency      Currency        `json:"currency"`
	Debit         decimal.Decimal `json:"debit"`
	Credit        decimal.Decimal `json:"credit"`
}

// SignedAmount mirrors JournalLine.SignedAmount for replay.
func (p Posting) SignedAmount() decimal.Decimal {
	return p.Credit.Sub(p.Debit)
}
