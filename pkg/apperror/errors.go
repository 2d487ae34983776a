package apperror

import (
	"fmt"
	"net/http"
)

// AppError is a structured error that maps to HTTP responses.
type AppError struct {
	Code       string `json:"error_code"`
	Message    string `json:"message"`
	HTTPStatus int    `json:"-"`
	Err        error  `json:"-"` // Wrapped internal error (not exposed to client)
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// New creates a new AppError.
func New(code string, message string, httpStatus int) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
	}
}

// Wrap wraps an internal error with an AppError.
func Wrap(code string, message string, httpStatus int, err error) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
		Err:        err,
	}
}

// ---- Validation (VAL) ----

// Validation returns a bad-input error, rejected before any posting.
func Validation(message string) *AppError {
	return New("VAL_001", message, http.StatusBadRequest)
}

func ErrInvalidAmount() *AppError {
	return New("VAL_002", "Amount must be greater than zero", http.StatusBadRequest)
}

func ErrUnsupportedCurrency(currency string) *AppError {
	return New("VAL_003", fmt.Sprintf("Unsupported currency: %s", currency), http.StatusBadRequest)
}

// ---- Transfer lifecycle (TRF) ----

func ErrInsufficientFunds() *AppError {
	return New("TRF_001", "Insufficient wallet balance", http.StatusPaymentRequired)
}

func ErrAlreadyCompleted() *AppError {
	return New("TRF_002", "Transfer has already been received", http.StatusConflict)
}

func ErrInvalidStateTransition(from string) *AppError {
	return New("TRF_003", fmt.Sprintf("Transfer is %s and cannot be modified", from), http.StatusConflict)
}

func ErrAgentNotLinked() *AppError {
	return New("TRF_004", "Agent is not linked to a ledger account", http.StatusUnprocessableEntity)
}

func ErrPinMismatch() *AppError {
	return New("TRF_005", "Incorrect PIN", http.StatusForbidden)
}

func ErrNameMismatch() *AppError {
	return New("TRF_006", "Receiver name does not match", http.StatusForbidden)
}

func ErrTooManyAttempts() *AppError {
	return New("TRF_007", "Too many failed attempts, transfer is temporarily locked", http.StatusTooManyRequests)
}

func ErrNotAuthorized() *AppError {
	return New("TRF_008", "Actor is not permitted to perform this action", http.StatusForbidden)
}

func ErrNotFound(entity string) *AppError {
	return New("TRF_009", fmt.Sprintf("%s not found", entity), http.StatusNotFound)
}

// ---- Ledger integrity (LGR) ----

// ErrUnbalancedEntry signals a journal entry whose debits and credits do not
// sum equal per currency. Entry construction catches this; seeing it surface
// from a posting path is a fatal integrity fault, never swallowed.
func ErrUnbalancedEntry(entryNumber string) *AppError {
	return New("LGR_001", fmt.Sprintf("Journal entry %s is not balanced", entryNumber), http.StatusInternalServerError)
}

func ErrUnknownAccount(code string) *AppError {
	return New("LGR_002", fmt.Sprintf("Unknown account code: %s", code), http.StatusUnprocessableEntity)
}

func ErrInvalidCurrency(code, currency string) *AppError {
	return New("LGR_003", fmt.Sprintf("Account %s does not support currency %s", code, currency), http.StatusUnprocessableEntity)
}

func ErrDuplicateEntry(entryNumber string) *AppError {
	return New("LGR_004", fmt.Sprintf("Journal entry %s already posted", entryNumber), http.StatusConflict)
}

// ErrLedgerDivergence signals that a cached wallet projection disagrees with
// the replayed ledger. Surfaced by reconciliation, never corrected silently
// outside of it.
func ErrLedgerDivergence(accountCode string) *AppError {
	return New("LGR_005", fmt.Sprintf("Cached balance diverges from ledger for account %s", accountCode), http.StatusInternalServerError)
}

// ---- Commission (COM) ----

func ErrNoApplicableRate() *AppError {
	return New("COM_001", "No commission schedule or tier matches this transaction", http.StatusUnprocessableEntity)
}

func ErrInvalidSchedule(reason string) *AppError {
	return New("COM_002", fmt.Sprintf("Invalid commission schedule: %s", reason), http.StatusBadRequest)
}

// ---- Authentication (AUTH) ----

func ErrInvalidToken() *AppError {
	return New("AUTH_001", "Invalid or expired token", http.StatusUnauthorized)
}

// ---- System & Infrastructure (SYS) ----

func ErrDatabaseError(err error) *AppError {
	return Wrap("SYS_001", "Internal database error", http.StatusInternalServerError, err)
}

// InternalError wraps an internal error as a SYS_001 error.
func InternalError(err error) *AppError {
	return Wrap("SYS_001", "Internal server error", http.StatusInternalServerError, err)
}

// ErrConcurrencyConflict is returned after bounded retries on transient
// storage contention are exhausted.
func ErrConcurrencyConflict(err error) *AppError {
	return Wrap("SYS_002", "Storage contention, please retry", http.StatusConflict, err)
}
