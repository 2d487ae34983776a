package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// EventType names the domain events the core emits. Delivery is
// fire-and-forget; an external dispatcher may relay them.
type EventType string

const (
	EventTransferCreated   EventType = "transfer_created"
	EventTransferReceived  EventType = "transfer_received"
	EventTransferCancelled EventType = "transfer_cancelled"
)

// Event describes one transfer lifecycle fact.
type Event struct {
	Type         EventType       `json:"type"`
	TransferID   uuid.UUID       `json:"transfer_id"`
	TransferCode string          `json:"transfer_code"`
	Amount       decimal.Decimal `json:"amount"`
	Currency     Currency        `json:"currency"`
	OccurredAt   time.Time       `json:"occurred_at"`
}

// NewTransferEvent builds an event snapshot from a transfer.
func NewTransferEvent(typ EventType, t *Transfer) Event {
	return Event{
		Type:         typ,
		TransferID:   t.ID,
		TransferCode: t.TransferCode,
		Amount:       t.Amount,
		Currency:     t.Currency,
		OccurredAt:   time.Now().UTC(),
	}
}
