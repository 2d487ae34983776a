package handler

import (
	"math"
	"strconv"
	"time"

	"remit-backoffice/internal/adapter/http/dto"
	"remit-backoffice/internal/adapter/http/middleware"
	"remit-backoffice/internal/core/domain"
	"remit-backoffice/internal/core/ports"
	"remit-backoffice/pkg/apperror"
	"remit-backoffice/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// TransferHandler handles transfer lifecycle endpoints.
type TransferHandler struct {
	transferSvc ports.TransferService
}

// NewTransferHandler creates a new TransferHandler.
func NewTransferHandler(transferSvc ports.TransferService) *TransferHandler {
	return &TransferHandler{transferSvc: transferSvc}
}

// Create handles POST /api/v1/transfers.
func (h *TransferHandler) Create(c *gin.Context) {
	actor, ok := middleware.Actor(c)
	if !ok {
		response.Error(c, apperror.ErrInvalidToken())
		return
	}

	var req dto.CreateTransferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}
	dto.SanitizeStruct(&req)

	result, err := h.transferSvc.Create(c.Request.Context(), ports.CreateTransferCommand{
		Actor:         actor,
		SenderName:    req.SenderName,
		SenderPhone:   req.SenderPhone,
		ReceiverName:  req.ReceiverName,
		ReceiverPhone: req.ReceiverPhone,
		Amount:        req.Amount,
		Currency:      domain.Currency(req.Currency),
		Governorate:   req.Governorate,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, dto.CreateTransferResponse{
		Transfer: toTransferResponse(result.Transfer),
		Pin:      result.Pin,
	})
}

// Receive handles POST /api/v1/transfers/:id/receive.
func (h *TransferHandler) Receive(c *gin.Context) {
	actor, ok := middleware.Actor(c)
	if !ok {
		response.Error(c, apperror.ErrInvalidToken())
		return
	}

	transferID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Error(c, apperror.Validation("invalid transfer id"))
		return
	}

	var req dto.ReceiveTransferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}
	dto.SanitizeStruct(&req)

	transfer, err := h.transferSvc.Receive(c.Request.Context(), ports.ReceiveTransferCommand{
		Actor:            actor,
		TransferID:       transferID,
		Pin:              req.Pin,
		ReceiverFullName: req.ReceiverFullName,
		ImageRef:         req.ImageRef,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, toTransferResponse(transfer))
}

// Cancel handles POST /api/v1/transfers/:id/cancel.
func (h *TransferHandler) Cancel(c *gin.Context) {
	actor, ok := middleware.Actor(c)
	if !ok {
		response.Error(c, apperror.ErrInvalidToken())
		return
	}

	transferID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Error(c, apperror.Validation("invalid transfer id"))
		return
	}

	transfer, err := h.transferSvc.Cancel(c.Request.Context(), transferID, actor)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, toTransferResponse(transfer))
}

// Get handles GET /api/v1/transfers/:id.
func (h *TransferHandler) Get(c *gin.Context) {
	actor, ok := middleware.Actor(c)
	if !ok {
		response.Error(c, apperror.ErrInvalidToken())
		return
	}

	transferID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Error(c, apperror.Validation("invalid transfer id"))
		return
	}

	transfer, err := h.transferSvc.GetByID(c.Request.Context(), transferID)
	if err != nil {
		response.Error(c, err)
		return
	}

	// Agents only see transfers they are a party to.
	if !actor.IsAdmin() && transfer.FromAgentID != actor.UserID &&
		(transfer.ToAgentID == nil || *transfer.ToAgentID != actor.UserID) {
		response.Error(c, apperror.ErrNotAuthorized())
		return
	}

	response.OK(c, toTransferResponse(transfer))
}

// List handles GET /api/v1/transfers.
func (h *TransferHandler) List(c *gin.Context) {
	actor, ok := middleware.Actor(c)
	if !ok {
		response.Error(c, apperror.ErrInvalidToken())
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}

	params := ports.TransferListParams{
		Page:     page,
		PageSize: pageSize,
	}

	// Agents are scoped to their own transfers; admins may filter by agent.
	if actor.IsAdmin() {
		if a := c.Query("agent_id"); a != "" {
			id, err := uuid.Parse(a)
			if err != nil {
				response.Error(c, apperror.Validation("invalid agent id"))
				return
			}
			params.AgentID = &id
		}
	} else {
		id := actor.UserID
		params.AgentID = &id
	}

	if s := c.Query("status"); s != "" {
		status := domain.TransferStatus(s)
		params.Status = &status
	}
	if f := c.Query("from"); f != "" {
		if v, err := time.Parse(time.RFC3339, f); err == nil {
			params.From = &v
		}
	}
	if t := c.Query("to"); t != "" {
		if v, err := time.Parse(time.RFC3339, t); err == nil {
			params.To = &v
		}
	}

	transfers, total, err := h.transferSvc.List(c.Request.Context(), params)
	if err != nil {
		response.Error(c, err)
		return
	}

	items := make([]dto.TransferResponse, 0, len(transfers))
	for i := range transfers {
		items = append(items, toTransferResponse(&transfers[i]))
	}

	totalPages := int(math.Ceil(float64(total) / float64(pageSize)))

	response.OK(c, dto.TransferListResponse{
		Items:      items,
		Total:      total,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: totalPages,
	})
}

// toTransferResponse converts domain.Transfer to DTO.
func toTransferResponse(t *domain.Transfer) dto.TransferResponse {
	resp := dto.TransferResponse{
		ID:                           t.ID.String(),
		TransferCode:                 t.TransferCode,
		Status:                       string(t.Status),
		Amount:                       t.Amount.String(),
		Currency:                     string(t.Currency),
		SenderName:                   t.SenderName,
		SenderPhone:                  t.SenderPhone,
		ReceiverName:                 t.ReceiverName,
		ReceiverPhone:                t.ReceiverPhone,
		Governorate:                  t.Governorate,
		FromAgentID:                  t.FromAgentID.String(),
		IncomingCommission:           t.IncomingCommission.String(),
		IncomingCommissionPercentage: t.IncomingCommissionPercentage.String(),
		ImageRef:                     t.ImageRef,
		CreatedAt:                    t.CreatedAt.Format(time.RFC3339),
	}
	if t.ToAgentID != nil {
		s := t.ToAgentID.String()
		resp.ToAgentID = &s
	}
	if t.ReceivedAt != nil {
		s := t.ReceivedAt.Format(time.RFC3339)
		resp.ReceivedAt = &s
	}
	if t.CancelledAt != nil {
		s := t.CancelledAt.Format(time.RFC3339)
		resp.CancelledAt = &s
	}
	return resp
}
