package dto

import "github.com/shopspring/decimal"

// CreateTransferRequest is the request body for opening a transfer.
// Amount accepts a JSON number or string; it is parsed as an exact decimal.
type CreateTransferRequest struct {
	SenderName    string          `json:"sender_name" binding:"required,min=1,max=200"`
	SenderPhone   string          `json:"sender_phone,omitempty" binding:"omitempty,max=20"`
	ReceiverName  string          `json:"receiver_name" binding:"required,min=1,max=200"`
	ReceiverPhone string          `json:"receiver_phone,omitempty" binding:"omitempty,max=20"`
	Amount        decimal.Decimal `json:"amount" binding:"required"`
	Currency      string          `json:"currency" binding:"required,len=3"`
	Governorate   string          `json:"governorate,omitempty" binding:"omitempty,max=100"`
}

// CreateTransferResponse returns the created transfer together with the
// one-time PIN. The PIN appears here and nowhere else.
type CreateTransferResponse struct {
	Transfer TransferResponse `json:"transfer"`
	Pin      string           `json:"pin"`
}

// ReceiveTransferRequest is the request body for redeeming a transfer.
type ReceiveTransferRequest struct {
	Pin              string `json:"pin" binding:"required,len=4,numeric"`
	ReceiverFullName string `json:"receiver_full_name" binding:"required,min=1,max=200"`
	ImageRef         string `json:"image_ref,omitempty" binding:"omitempty,max=500,safe_ref"`
}

// TransferResponse is the wire shape of a transfer.
type TransferResponse struct {
	ID                           string  `json:"id"`
	TransferCode                 string  `json:"transfer_code"`
	Status                       string  `json:"status"`
	Amount                       string  `json:"amount"`
	Currency                     string  `json:"currency"`
	SenderName                   string  `json:"sender_name"`
	SenderPhone                  string  `json:"sender_phone,omitempty"`
	ReceiverName                 string  `json:"receiver_name"`
	ReceiverPhone                string  `json:"receiver_phone,omitempty"`
	Governorate                  string  `json:"governorate,omitempty"`
	FromAgentID                  string  `json:"from_agent_id"`
	ToAgentID                    *string `json:"to_agent_id,omitempty"`
	IncomingCommission           string  `json:"incoming_commission"`
	IncomingCommissionPercentage string  `json:"incoming_commission_percentage"`
	ImageRef                     *string `json:"image_ref,omitempty"`
	CreatedAt                    string  `json:"created_at"`
	ReceivedAt                   *string `json:"received_at,omitempty"`
	CancelledAt                  *string `json:"cancelled_at,omitempty"`
}

// TransferListResponse wraps a paginated transfer list.
type TransferListResponse struct {
	Items      []TransferResponse `json:"items"`
	Total      int64              `json:"total"`
	Page       int                `json:"page"`
	PageSize   int                `json:"page_size"`
	TotalPages int                `json:"total_pages"`
}

// LedgerLineResponse is one posting in an account's ledger view, with the
// running balance after that line.
type LedgerLineResponse struct {
	EntryNumber   string `json:"entry_number"`
	ReferenceType string `json:"reference_type"`
	Date          string `json:"date"`
	Currency      string `json:"currency"`
	Debit         string `json:"debit"`
	Credit        string `json:"credit"`
	Balance       string `json:"balance"`
}

// LedgerResponse is the full ledger view of one account.
type LedgerResponse struct {
	AccountCode string               `json:"account_code"`
	Lines       []LedgerLineResponse `json:"lines"`
}

// AccountBalanceResponse reports an account's balance per currency.
type AccountBalanceResponse struct {
	AccountCode string            `json:"account_code"`
	Balances    map[string]string `json:"balances"`
}

// WalletResponse is the cached wallet projection for one user.
type WalletResponse struct {
	UserID     string `json:"user_id"`
	BalanceIQD string `json:"balance_iqd"`
	BalanceUSD string `json:"balance_usd"`
}

// DiscrepancyResponse reports one currency the reconciler had to repair.
type DiscrepancyResponse struct {
	Currency string `json:"currency"`
	Cached   string `json:"cached"`
	Replayed string `json:"replayed"`
}

// ReconcileResponse is the outcome of a wallet reconciliation run.
type ReconcileResponse struct {
	UserID        string                `json:"user_id"`
	AccountCode   string                `json:"account_code"`
	Discrepancies []DiscrepancyResponse `json:"discrepancies"`
	Repaired      bool                  `json:"repaired"`
}
