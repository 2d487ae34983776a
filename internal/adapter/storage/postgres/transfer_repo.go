package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"remit-backoffice/internal/core/domain"
	"remit-backoffice/internal/core/ports"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

const transferColumns = `id, transfer_code, status, amount::text, currency, sender_name, sender_phone,
	receiver_name, receiver_phone, governorate, from_agent_id, to_agent_id, pin_hash, image_ref,
	incoming_commission::text, incoming_commission_percentage::text, created_at, received_at, cancelled_at`

// TransferRepo implements ports.TransferRepository.
type TransferRepo struct {
	pool Pool
}

// NewTransferRepo creates a new TransferRepo.
func NewTransferRepo(pool Pool) *TransferRepo {
	return &TransferRepo{pool: pool}
}

// Create inserts a new transfer within a database transaction.
func (r *TransferRepo) Create(ctx context.Context, tx pgx.Tx, t *domain.Transfer) error {
	query := `INSERT INTO transfers (id, transfer_code, status, amount, currency, sender_name, sender_phone,
		receiver_name, receiver_phone, governorate, from_agent_id, to_agent_id, pin_hash, image_ref,
		incoming_commission, incoming_commission_percentage, created_at, received_at, cancelled_at)
		VALUES ($1, $2, $3, $4::numeric, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15::numeric, $16::numeric, $17, $18, $19)`

	_, err := tx.Exec(ctx, query,
		t.ID, t.TransferCode, string(t.Status), t.Amount.String(), string(t.Currency),
		t.SenderName, t.SenderPhone, t.ReceiverName, t.ReceiverPhone, t.Governorate,
		t.FromAgentID, t.ToAgentID, t.PinHash, t.ImageRef,
		t.IncomingCommission.String(), t.IncomingCommissionPercentage.String(),
		t.CreatedAt, t.ReceivedAt, t.CancelledAt,
	)
	if err != nil {
		return fmt.Errorf("insert transfer: %w", err)
	}
	return nil
}

// GetByID fetches a transfer by UUID (non-locking read).
func (r *TransferRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Transfer, error) {
	query := fmt.Sprintf(`SELECT %s FROM transfers WHERE id = $1`, transferColumns)
	return scanTransfer(r.pool.QueryRow(ctx, query, id))
}

// GetByIDForUpdate fetches a transfer by UUID with a row lock. Two agents
// redeeming the same transfer serialize here.
func (r *TransferRepo) GetByIDForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*domain.Transfer, error) {
	query := fmt.Sprintf(`SELECT %s FROM transfers WHERE id = $1 FOR UPDATE`, transferColumns)
	return scanTransfer(tx.QueryRow(ctx, query, id))
}

// GetByCode fetches a transfer by its transfer code.
func (r *TransferRepo) GetByCode(ctx context.Context, code string) (*domain.Transfer, error) {
	query := fmt.Sprintf(`SELECT %s FROM transfers WHERE transfer_code = $1`, transferColumns)
	return scanTransfer(r.pool.QueryRow(ctx, query, code))
}

// CodeExists reports whether a transfer code is already taken.
func (r *TransferRepo) CodeExists(ctx context.Context, code string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM transfers WHERE transfer_code = $1)`, code,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check transfer code: %w", err)
	}
	return exists, nil
}

// UpdateReceived persists the redemption fields alongside the status change
// in one statement.
func (r *TransferRepo) UpdateReceived(ctx context.Context, tx pgx.Tx, t *domain.Transfer) error {
	query := `UPDATE transfers SET status = $2, to_agent_id = $3, incoming_commission = $4::numeric,
		incoming_commission_percentage = $5::numeric, image_ref = $6, received_at = $7
		WHERE id = $1`

	tag, err := tx.Exec(ctx, query,
		t.ID, string(t.Status), t.ToAgentID,
		t.IncomingCommission.String(), t.IncomingCommissionPercentage.String(),
		t.ImageRef, t.ReceivedAt,
	)
	if err != nil {
		return fmt.Errorf("update received transfer: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("transfer not found: %s", t.ID)
	}
	return nil
}

// UpdateCancelled persists the cancellation within a database transaction.
func (r *TransferRepo) UpdateCancelled(ctx context.Context, tx pgx.Tx, t *domain.Transfer) error {
	tag, err := tx.Exec(ctx,
		`UPDATE transfers SET status = $2, cancelled_at = $3 WHERE id = $1`,
		t.ID, string(t.Status), t.CancelledAt,
	)
	if err != nil {
		return fmt.Errorf("update cancelled transfer: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("transfer not found: %s", t.ID)
	}
	return nil
}

// List fetches transfers with filtering and pagination.
func (r *TransferRepo) List(ctx context.Context, params ports.TransferListParams) ([]domain.Transfer, int64, error) {
	var conditions []string
	var args []any

	if params.AgentID != nil {
		args = append(args, *params.AgentID)
		conditions = append(conditions, fmt.Sprintf("(from_agent_id = $%d OR to_agent_id = $%d)", len(args), len(args)))
	}
	if params.Status != nil {
		args = append(args, string(*params.Status))
		conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)))
	}
	if params.From != nil {
		args = append(args, *params.From)
		conditions = append(conditions, fmt.Sprintf("created_at >= $%d", len(args)))
	}
	if params.To != nil {
		args = append(args, *params.To)
		conditions = append(conditions, fmt.Sprintf("created_at <= $%d", len(args)))
	}

	where := ""
	if len(conditions) > 0 {
		where = "WHERE " + strings.Join(conditions, " AND ")
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM transfers %s", where)
	var total int64
	if err := r.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count transfers: %w", err)
	}

	offset := (params.Page - 1) * params.PageSize
	dataQuery := fmt.Sprintf(`SELECT %s FROM transfers %s ORDER BY created_at DESC LIMIT $%d OFFSET $%d`,
		transferColumns, where, len(args)+1, len(args)+2)
	args = append(args, params.PageSize, offset)

	rows, err := r.pool.Query(ctx, dataQuery, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list transfers: %w", err)
	}
	defer rows.Close()

	var transfers []domain.Transfer
	for rows.Next() {
		t, err := scanTransfer(rows)
		if err != nil {
			return nil, 0, err
		}
		transfers = append(transfers, *t)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate transfer rows: %w", err)
	}
	return transfers, total, nil
}

// scanTransfer scans a single row into a Transfer.
func scanTransfer(row pgx.Row) (*domain.Transfer, error) {
	t := &domain.Transfer{}
	var amount, commission, commissionPct string
	err := row.Scan(
		&t.ID, &t.TransferCode, &t.Status, &amount, &t.Currency,
		&t.SenderName, &t.SenderPhone, &t.ReceiverName, &t.ReceiverPhone, &t.Governorate,
		&t.FromAgentID, &t.ToAgentID, &t.PinHash, &t.ImageRef,
		&commission, &commissionPct, &t.CreatedAt, &t.ReceivedAt, &t.CancelledAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("scan transfer: %w", err)
	}
	if t.Amount, err = decimal.NewFromString(amount); err != nil {
		return nil, fmt.Errorf("parse amount %q: %w", amount, err)
	}
	if t.IncomingCommission, err = decimal.NewFromString(commission); err != nil {
		return nil, fmt.Errorf("parse commission %q: %w", commission, err)
	}
	if t.IncomingCommissionPercentage, err = decimal.NewFromString(commissionPct); err != nil {
		return nil, fmt.Errorf("parse commission percentage %q: %w", commissionPct, err)
	}
	return t, nil
}
