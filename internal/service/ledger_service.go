package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"remit-backoffice/internal/core/domain"
	"remit-backoffice/internal/core/ports"
	"remit-backoffice/pkg/apperror"

	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// LedgerServiceImpl implements ports.LedgerService. Post runs inside the
// caller's transaction: the transfer transition, its journal entry, and the
// balance movements commit or roll back together.
type LedgerServiceImpl struct {
	accountRepo ports.AccountRepository
	journalRepo ports.JournalRepository
	log         zerolog.Logger
}

// NewLedgerService creates a new LedgerServiceImpl.
func NewLedgerService(accountRepo ports.AccountRepository, journalRepo ports.JournalRepository, log zerolog.Logger) *LedgerServiceImpl {
	return &LedgerServiceImpl{
		accountRepo: accountRepo,
		journalRepo: journalRepo,
		log:         log,
	}
}

type balanceKey struct {
	code     domain.AccountCode
	currency domain.Currency
}

// Post validates the entry against the chart of accounts, applies the signed
// balance deltas under row locks, and persists the entry. Locks are taken in
// a deterministic account/currency order so two concurrent postings touching
// the same accounts cannot deadlock.
func (s *LedgerServiceImpl) Post(ctx context.Context, tx pgx.Tx, entry *domain.JournalEntry) error {
	existing, err := s.journalRepo.GetByEntryNumber(ctx, entry.EntryNumber)
	if err != nil {
		return apperror.ErrDatabaseError(fmt.Errorf("check entry number: %w", err))
	}
	if existing != nil {
		return apperror.ErrDuplicateEntry(entry.EntryNumber)
	}

	deltas := map[balanceKey]decimal.Decimal{}
	for _, line := range entry.Lines {
		account, err := s.accountRepo.GetByCode(ctx, line.AccountCode)
		if err != nil {
			return apperror.ErrDatabaseError(fmt.Errorf("load account %s: %w", line.AccountCode, err))
		}
		if account == nil {
			return apperror.ErrUnknownAccount(line.AccountCode.String())
		}
		if !account.SupportsCurrency(line.Currency) {
			return apperror.ErrInvalidCurrency(line.AccountCode.String(), string(line.Currency))
		}
		key := balanceKey{code: line.AccountCode, currency: line.Currency}
		deltas[key] = deltas[key].Add(line.SignedAmount())
	}

	keys := make([]balanceKey, 0, len(deltas))
	for key := range deltas {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].code != keys[j].code {
			return keys[i].code < keys[j].code
		}
		return keys[i].currency < keys[j].currency
	})

	for _, key := range keys {
		if _, err := s.accountRepo.LockBalance(ctx, tx, key.code, key.currency); err != nil {
			return apperror.ErrDatabaseError(fmt.Errorf("lock balance %s/%s: %w", key.code, key.currency, err))
		}
		if err := s.accountRepo.ApplyDelta(ctx, tx, key.code, key.currency, deltas[key]); err != nil {
			return apperror.ErrDatabaseError(fmt.Errorf("apply delta %s/%s: %w", key.code, key.currency, err))
		}
	}

	if err := s.journalRepo.Create(ctx, tx, entry); err != nil {
		return apperror.ErrDatabaseError(fmt.Errorf("create journal entry: %w", err))
	}

	s.log.Info().
		Str("entry_number", entry.EntryNumber).
		Str("reference_type", entry.ReferenceType).
		Int("lines", len(entry.Lines)).
		Msg("journal entry posted")

	return nil
}

// Ledger returns the account's postings in posting order. Nil bounds mean an
// open-ended range.
func (s *LedgerServiceImpl) Ledger(ctx context.Context, code domain.AccountCode, from, to *time.Time) ([]domain.Posting, error) {
	account, err := s.accountRepo.GetByCode(ctx, code)
	if err != nil {
		return nil, apperror.ErrDatabaseError(fmt.Errorf("load account %s: %w", code, err))
	}
	if account == nil {
		return nil, apperror.ErrUnknownAccount(code.String())
	}

	postings, err := s.journalRepo.ListPostings(ctx, code, from, to)
	if err != nil {
		return nil, apperror.ErrDatabaseError(fmt.Errorf("list postings: %w", err))
	}
	return postings, nil
}

// AccountBalances returns the maintained balances of an account.
func (s *LedgerServiceImpl) AccountBalances(ctx context.Context, code domain.AccountCode) (map[domain.Currency]decimal.Decimal, error) {
	account, err := s.accountRepo.GetByCode(ctx, code)
	if err != nil {
		return nil, apperror.ErrDatabaseError(fmt.Errorf("load account %s: %w", code, err))
	}
	if account == nil {
		return nil, apperror.ErrUnknownAccount(code.String())
	}

	balances, err := s.accountRepo.GetBalances(ctx, code)
	if err != nil {
		return nil, apperror.ErrDatabaseError(fmt.Errorf("load balances: %w", err))
	}
	return balances, nil
}

// ReplayBalances reconstructs the account's balances by summing every
// posting's signed amount. The replayed figures are the authoritative ones
// when they disagree with the maintained balances.
func (s *LedgerServiceImpl) ReplayBalances(ctx context.Context, code domain.AccountCode) (map[domain.Currency]decimal.Decimal, error) {
	postings, err := s.Ledger(ctx, code, nil, nil)
	if err != nil {
		return nil, err
	}

	balances := map[domain.Currency]decimal.Decimal{}
	for _, p := range postings {
		balances[p.Currency] = balances[p.Currency].Add(p.SignedAmount())
	}
	return balances, nil
}

// VerifyEntry loads a persisted entry and re-checks that its debits and
// credits still sum equal per currency. Construction makes an unbalanced
// entry impossible to persist, so a failure here means the stored rows were
// tampered with or corrupted.
func (s *LedgerServiceImpl) VerifyEntry(ctx context.Context, entryNumber string) (*domain.JournalEntry, error) {
	entry, err := s.journalRepo.GetByEntryNumber(ctx, entryNumber)
	if err != nil {
		return nil, apperror.ErrDatabaseError(fmt.Errorf("load entry: %w", err))
	}
	if entry == nil {
		return nil, apperror.ErrNotFound("journal entry")
	}

	sums := map[domain.Currency]decimal.Decimal{}
	for _, line := range entry.Lines {
		sums[line.Currency] = sums[line.Currency].Add(line.SignedAmount())
	}
	for currency, sum := range sums {
		if !sum.IsZero() {
			s.log.Error().
				Str("entry_number", entryNumber).
				Str("currency", string(currency)).
				Str("imbalance", sum.String()).
				Msg("persisted journal entry failed balance verification")
			return nil, apperror.ErrUnbalancedEntry(entryNumber)
		}
	}
	return entry, nil
}
