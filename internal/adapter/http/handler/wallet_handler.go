package handler

import (
	"remit-backoffice/internal/adapter/http/dto"
	"remit-backoffice/internal/adapter/http/middleware"
	"remit-backoffice/internal/core/ports"
	"remit-backoffice/pkg/apperror"
	"remit-backoffice/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// WalletHandler serves the cached wallet projection and its repair path.
type WalletHandler struct {
	walletSvc ports.WalletService
}

// NewWalletHandler creates a new WalletHandler.
func NewWalletHandler(walletSvc ports.WalletService) *WalletHandler {
	return &WalletHandler{walletSvc: walletSvc}
}

// Get handles GET /api/v1/wallets/:user_id. Agents only see their own
// wallet; admins see any.
func (h *WalletHandler) Get(c *gin.Context) {
	actor, ok := middleware.Actor(c)
	if !ok {
		response.Error(c, apperror.ErrInvalidToken())
		return
	}

	userID, err := uuid.Parse(c.Param("user_id"))
	if err != nil {
		response.Error(c, apperror.Validation("invalid user id"))
		return
	}

	if !actor.IsAdmin() && actor.UserID != userID {
		response.Error(c, apperror.ErrNotAuthorized())
		return
	}

	balances, err := h.walletSvc.Get(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, dto.WalletResponse{
		UserID:     userID.String(),
		BalanceIQD: balances.BalanceIQD.String(),
		BalanceUSD: balances.BalanceUSD.String(),
	})
}

// Reconcile handles POST /api/v1/wallets/:user_id/reconcile. Admin only:
// replays the ledger and rewrites the projection where it diverged.
func (h *WalletHandler) Reconcile(c *gin.Context) {
	actor, ok := middleware.Actor(c)
	if !ok {
		response.Error(c, apperror.ErrInvalidToken())
		return
	}
	if !actor.IsAdmin() {
		response.Error(c, apperror.ErrNotAuthorized())
		return
	}

	userID, err := uuid.Parse(c.Param("user_id"))
	if err != nil {
		response.Error(c, apperror.Validation("invalid user id"))
		return
	}

	report, err := h.walletSvc.Reconcile(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, err)
		return
	}

	discrepancies := make([]dto.DiscrepancyResponse, 0, len(report.Discrepancies))
	for _, d := range report.Discrepancies {
		discrepancies = append(discrepancies, dto.DiscrepancyResponse{
			Currency: string(d.Currency),
			Cached:   d.Cached.String(),
			Replayed: d.Replayed.String(),
		})
	}

	response.OK(c, dto.ReconcileResponse{
		UserID:        report.UserID.String(),
		AccountCode:   string(report.AccountCode),
		Discrepancies: discrepancies,
		Repaired:      report.Repaired,
	})
}
