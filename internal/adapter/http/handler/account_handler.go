package handler

import (
	"time"

	"remit-backoffice/internal/adapter/http/dto"
	"remit-backoffice/internal/adapter/http/middleware"
	"remit-backoffice/internal/core/domain"
	"remit-backoffice/internal/core/ports"
	"remit-backoffice/pkg/apperror"
	"remit-backoffice/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// AccountHandler serves ledger views over the chart of accounts.
type AccountHandler struct {
	ledgerSvc ports.LedgerService
}

// NewAccountHandler creates a new AccountHandler.
func NewAccountHandler(ledgerSvc ports.LedgerService) *AccountHandler {
	return &AccountHandler{ledgerSvc: ledgerSvc}
}

// Ledger handles GET /api/v1/accounts/:code/ledger. Lines come back in
// posting order with a per-currency running balance.
func (h *AccountHandler) Ledger(c *gin.Context) {
	actor, ok := middleware.Actor(c)
	if !ok {
		response.Error(c, apperror.ErrInvalidToken())
		return
	}
	if !actor.IsAdmin() {
		response.Error(c, apperror.ErrNotAuthorized())
		return
	}

	code := domain.AccountCode(c.Param("code"))

	var from, to *time.Time
	if f := c.Query("from"); f != "" {
		if v, err := time.Parse(time.RFC3339, f); err == nil {
			from = &v
		}
	}
	if t := c.Query("to"); t != "" {
		if v, err := time.Parse(time.RFC3339, t); err == nil {
			to = &v
		}
	}

	postings, err := h.ledgerSvc.Ledger(c.Request.Context(), code, from, to)
	if err != nil {
		response.Error(c, err)
		return
	}

	running := make(map[domain.Currency]decimal.Decimal)
	lines := make([]dto.LedgerLineResponse, 0, len(postings))
	for _, p := range postings {
		running[p.Currency] = running[p.Currency].Add(p.SignedAmount())
		lines = append(lines, dto.LedgerLineResponse{
			EntryNumber:   p.EntryNumber,
			ReferenceType: p.ReferenceType,
			Date:          p.Date.Format(time.RFC3339),
			Currency:      string(p.Currency),
			Debit:         p.Debit.String(),
			Credit:        p.Credit.String(),
			Balance:       running[p.Currency].String(),
		})
	}

	response.OK(c, dto.LedgerResponse{
		AccountCode: string(code),
		Lines:       lines,
	})
}

// Balances handles GET /api/v1/accounts/:code/balances.
func (h *AccountHandler) Balances(c *gin.Context) {
	actor, ok := middleware.Actor(c)
	if !ok {
		response.Error(c, apperror.ErrInvalidToken())
		return
	}
	if !actor.IsAdmin() {
		response.Error(c, apperror.ErrNotAuthorized())
		return
	}

	code := domain.AccountCode(c.Param("code"))

	balances, err := h.ledgerSvc.AccountBalances(c.Request.Context(), code)
	if err != nil {
		response.Error(c, err)
		return
	}

	out := make(map[string]string, len(balances))
	for currency, balance := range balances {
		out[string(currency)] = balance.String()
	}

	response.OK(c, dto.AccountBalanceResponse{
		AccountCode: string(code),
		Balances:    out,
	})
}
