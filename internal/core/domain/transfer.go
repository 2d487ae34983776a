package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"remit-backoffice/pkg/apperror"
)

// TransferStatus is the lifecycle state of a transfer.
type TransferStatus string

const (
	TransferStatusPending   TransferStatus = "pending"
	TransferStatusCompleted TransferStatus = "completed"
	TransferStatusCancelled TransferStatus = "cancelled"
)

// Transfer is a remittance moving through the transit account: created by
// the sending agent, redeemed by a receiving agent via PIN + name match.
type Transfer struct {
	ID            uuid.UUID       `json:"id"`
	TransferCode  string          `json:"transfer_code"`
	Status        TransferStatus  `json:"status"`
	Amount        decimal.Decimal `json:"amount"`
	Currency      Currency        `json:"currency"`
	SenderName    string          `json:"sender_name"`
	SenderPhone   string          `json:"sender_phone,omitempty"`
	ReceiverName  string          `json:"receiver_name"`
	ReceiverPhone string          `json:"receiver_phone,omitempty"`
	Governorate   string          `json:"governorate"`
	FromAgentID   uuid.UUID       `json:"from_agent_id"`
	ToAgentID     *uuid.UUID      `json:"to_agent_id,omitempty"`
	PinHash       string          `json:"-"` // one-time PIN, argon2id
	ImageRef      *string         `json:"image_ref,omitempty"`

	IncomingCommission           decimal.Decimal `json:"incoming_commission"`
	IncomingCommissionPercentage decimal.Decimal `json:"incoming_commission_percentage"`

	CreatedAt   time.Time  `json:"created_at"`
	ReceivedAt  *time.Time `json:"received_at,omitempty"`
	CancelledAt *time.Time `json:"cancelled_at,omitempty"`
}

// NewTransfer validates inputs and builds a pending transfer.
func NewTransfer(code string, amount decimal.Decimal, currency Currency, senderName, receiverName, governorate string, fromAgentID uuid.UUID, pinHash string) (*Transfer, error) {
	if code == "" {
		return nil, apperror.Validation("transfer code is required")
	}
	if !amount.IsPositive() {
		return nil, apperror.ErrInvalidAmount()
	}
	if !IsSupportedCurrency(currency) {
		return nil, apperror.ErrUnsupportedCurrency(string(currency))
	}
	if senderName == "" || receiverName == "" {
		return nil, apperror.Validation("sender and receiver names are required")
	}
	if fromAgentID == uuid.Nil {
		return nil, apperror.Validation("sending agent is required")
	}
	if pinHash == "" {
		return nil, apperror.Validation("pin hash is required")
	}
	return &Transfer{
		ID:           uuid.New(),
		TransferCode: code,
		Status:       TransferStatusPending,
		Amount:       amount,
		Currency:     currency,
		SenderName:   senderName,
		ReceiverName: receiverName,
		Governorate:  governorate,
		FromAgentID:  fromAgentID,
		PinHash:      pinHash,
		CreatedAt:    time.Now().UTC(),
	}, nil
}

// IsTerminal reports whether the transfer reached a final state.
func (t *Transfer) IsTerminal() bool {
	return t.Status == TransferStatusCompleted || t.Status == TransferStatusCancelled
}

// MarkReceived transitions pending -> completed and records the redemption
// fields. Every field below must be persisted in the same atomic unit as the
// status change.
func (t *Transfer) MarkReceived(toAgentID uuid.UUID, commission, commissionPct decimal.Decimal, imageRef string) error {
	if t.Status == TransferStatusCompleted {
		return apperror.ErrAlreadyCompleted()
	}
	if t.Status != TransferStatusPending {
		return apperror.ErrInvalidStateTransition(string(t.Status))
	}
	now := time.Now().UTC()
	t.Status = TransferStatusCompleted
	t.ToAgentID = &toAgentID
	t.IncomingCommission = commission
	t.IncomingCommissionPercentage = commissionPct
	t.ImageRef = &imageRef
	t.ReceivedAt = &now
	return nil
}

// MarkCancelled transitions pending -> cancelled.
func (t *Transfer) MarkCancelled() error {
	if t.Status == TransferStatusCompleted {
		return apperror.ErrAlreadyCompleted()
	}
	if t.Status != TransferStatusPending {
		return apperror.ErrInvalidStateTransition(string(t.Status))
	}
	now := time.Now().UTC()
	t.Status = TransferStatusCancelled
	t.CancelledAt = &now
	return nil
}
