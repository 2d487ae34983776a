package ports

import (
	"context"
	"time"

	"remit-backoffice/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

// LedgerService posts balanced journal entries against the chart of
// accounts. Post runs inside the caller's transaction so a transfer
// transition commits its postings, wallet adjustments, and status change as
// one unit.
type LedgerService interface {
	Post(ctx context.Context, tx pgx.Tx, entry *domain.JournalEntry) error
	Ledger(ctx context.Context, code domain.AccountCode, from, to *time.Time) ([]domain.Posting, error)
	AccountBalances(ctx context.Context, code domain.AccountCode) (map[domain.Currency]decimal.Decimal, error)
	// ReplayBalances reconstructs balances from postings alone, for audits.
	ReplayBalances(ctx context.Context, code domain.AccountCode) (map[domain.Currency]decimal.Decimal, error)
	// VerifyEntry re-checks a persisted entry's balance. A failure here is a
	// stored integrity fault, not bad input.
	VerifyEntry(ctx context.Context, entryNumber string) (*domain.JournalEntry, error)
}

// CommissionService computes tiered commissions.
type CommissionService interface {
	Calculate(ctx context.Context, agentID uuid.UUID, currency domain.Currency, bulletinType string, amount decimal.Decimal, direction domain.CommissionDirection, asOf time.Time) (*domain.CommissionResult, error)
}

// CreateTransferCommand carries the inputs of a transfer creation.
type CreateTransferCommand struct {
	Actor         domain.Actor
	SenderName    string
	SenderPhone   string
	ReceiverName  string
	ReceiverPhone string
	Amount        decimal.Decimal
	Currency      domain.Currency
	Governorate   string
}

// CreateTransferResult returns the transfer code and the one-time PIN; the
// PIN is shown exactly once and stored only as a hash.
type CreateTransferResult struct {
	Transfer *domain.Transfer
	Pin      string
}

// ReceiveTransferCommand carries the inputs of a transfer redemption.
// ImageRef is an opaque reference to a proof-of-identity image already
// uploaded by an external collaborator.
type ReceiveTransferCommand struct {
	Actor            domain.Actor
	TransferID       uuid.UUID
	Pin              string
	ReceiverFullName string
	ImageRef         string
}

// TransferService is the transfer state machine.
type TransferService interface {
	Create(ctx context.Context, cmd CreateTransferCommand) (*CreateTransferResult, error)
	Receive(ctx context.Context, cmd ReceiveTransferCommand) (*domain.Transfer, error)
	Cancel(ctx context.Context, transferID uuid.UUID, actor domain.Actor) (*domain.Transfer, error)
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Transfer, error)
	List(ctx context.Context, params TransferListParams) ([]domain.Transfer, int64, error)
}

// WalletDiscrepancy reports one currency whose cached projection diverged
// from the replayed ledger.
type WalletDiscrepancy struct {
	Currency domain.Currency `json:"currency"`
	Cached   decimal.Decimal `json:"cached"`
	Replayed decimal.Decimal `json:"replayed"`
}

// ReconcileReport is the outcome of a wallet reconciliation run.
type ReconcileReport struct {
	UserID        uuid.UUID           `json:"user_id"`
	AccountCode   domain.AccountCode  `json:"account_code"`
	Discrepancies []WalletDiscrepancy `json:"discrepancies"`
	Repaired      bool                `json:"repaired"`
}

// WalletService exposes the cached balance view and its sanctioned repair
// path.
type WalletService interface {
	Get(ctx context.Context, userID uuid.UUID) (*domain.WalletBalances, error)
	// Reconcile replays the ledger over the user's linked account, rewrites
	// the projection where it diverged, and reports what it found.
	Reconcile(ctx context.Context, userID uuid.UUID) (*ReconcileReport, error)
}

// AttemptStore tracks failed PIN/name attempts per transfer and enforces the
// lockout, keyed by transfer id rather than held in process memory so it can
// be shared across instances.
type AttemptStore interface {
	// Locked reports whether the key is currently locked out.
	Locked(ctx context.Context, key string) (bool, error)
	// Fail records a failed attempt and returns the running count and
	// whether this failure tripped the lockout.
	Fail(ctx context.Context, key string) (int64, bool, error)
	// Reset clears attempt state after a successful redemption.
	Reset(ctx context.Context, key string) error
}

// EventPublisher relays domain events to external dispatchers.
// Fire-and-forget: implementations must not block transfer transitions on
// delivery.
type EventPublisher interface {
	Publish(ctx context.Context, event domain.Event) error
}

// PinHasher hashes and verifies one-time transfer PINs. Verification is
// constant-time.
type PinHasher interface {
	Hash(pin string) (string, error)
	Verify(pin string, hash string) (bool, error)
}
