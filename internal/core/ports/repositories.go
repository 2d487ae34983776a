package ports

import (
	"context"
	"time"

	"remit-backoffice/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

// AccountRepository defines persistence operations for the chart of accounts.
// Methods accepting pgx.Tx run inside transaction blocks; LockBalance takes a
// row lock so concurrent postings to the same account serialize.
type AccountRepository interface {
	Create(ctx context.Context, account *domain.Account) error
	GetByCode(ctx context.Context, code domain.AccountCode) (*domain.Account, error)
	GetBalances(ctx context.Context, code domain.AccountCode) (map[domain.Currency]decimal.Decimal, error)
	LockBalance(ctx context.Context, tx pgx.Tx, code domain.AccountCode, currency domain.Currency) (decimal.Decimal, error)
	ApplyDelta(ctx context.Context, tx pgx.Tx, code domain.AccountCode, currency domain.Currency, delta decimal.Decimal) error
}

// JournalRepository persists journal entries and serves the append-only
// ledger view.
type JournalRepository interface {
	Create(ctx context.Context, tx pgx.Tx, entry *domain.JournalEntry) error
	GetByEntryNumber(ctx context.Context, entryNumber string) (*domain.JournalEntry, error)
	// ListPostings returns the account's lines in posting order. Nil bounds
	// mean an open-ended range.
	ListPostings(ctx context.Context, code domain.AccountCode, from, to *time.Time) ([]domain.Posting, error)
}

// TransferListParams holds filter + pagination for listing transfers.
type TransferListParams struct {
	AgentID  *uuid.UUID
	Status   *domain.TransferStatus
	From     *time.Time
	To       *time.Time
	Page     int
	PageSize int
}

// TransferRepository defines persistence operations for transfers.
type TransferRepository interface {
	Create(ctx context.Context, tx pgx.Tx, transfer *domain.Transfer) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Transfer, error)
	GetByIDForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*domain.Transfer, error)
	GetByCode(ctx context.Context, code string) (*domain.Transfer, error)
	CodeExists(ctx context.Context, code string) (bool, error)
	// UpdateReceived persists the full set of redemption fields together
	// with the status change in one statement.
	UpdateReceived(ctx context.Context, tx pgx.Tx, transfer *domain.Transfer) error
	UpdateCancelled(ctx context.Context, tx pgx.Tx, transfer *domain.Transfer) error
	List(ctx context.Context, params TransferListParams) ([]domain.Transfer, int64, error)
}

// AgentRepository defines persistence operations for agents.
type AgentRepository interface {
	Create(ctx context.Context, agent *domain.Agent) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Agent, error)
	LinkAccount(ctx context.Context, agentID uuid.UUID, code domain.AccountCode) error
}

// CommissionScheduleRepository stores tiered commission schedules.
type CommissionScheduleRepository interface {
	Create(ctx context.Context, schedule *domain.CommissionSchedule) error
	// FindApplicable returns the schedule with the latest ValidFrom at or
	// before asOf for the key, or nil when none exists.
	FindApplicable(ctx context.Context, agentID uuid.UUID, currency domain.Currency, bulletinType string, asOf time.Time) (*domain.CommissionSchedule, error)
}

// WalletRepository maintains the cached per-user balance projection. Adjust
// must run in the same transaction as the ledger posting it mirrors.
type WalletRepository interface {
	GetBalances(ctx context.Context, userID uuid.UUID) (*domain.WalletBalances, error)
	LockBalance(ctx context.Context, tx pgx.Tx, userID uuid.UUID, currency domain.Currency) (decimal.Decimal, error)
	Adjust(ctx context.Context, tx pgx.Tx, userID uuid.UUID, currency domain.Currency, delta decimal.Decimal) error
	// SetBalance overwrites the projection; reconciliation's repair path.
	SetBalance(ctx context.Context, userID uuid.UUID, currency domain.Currency, balance decimal.Decimal) error
}

// DBTransactor provides database transaction management.
type DBTransactor interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}
