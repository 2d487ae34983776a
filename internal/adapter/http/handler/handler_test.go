package handler

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"remit-backoffice/internal/adapter/http/dto"
	"remit-backoffice/internal/adapter/http/middleware"
	"remit-backoffice/internal/core/domain"
	"remit-backoffice/internal/core/ports"
	"remit-backoffice/internal/core/ports/mocks"
	"remit-backoffice/pkg/apperror"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func agentActor() domain.Actor {
	return domain.Actor{UserID: uuid.New(), Role: domain.RoleAgent}
}

func adminActor() domain.Actor {
	return domain.Actor{UserID: uuid.New(), Role: domain.RoleAdmin}
}

func testTransfer(fromAgentID uuid.UUID) *domain.Transfer {
	t, _ := domain.NewTransfer("10000001", decimal.NewFromInt(1000000), domain.CurrencyIQD,
		"Ali Hassan", "Omar Khalid", "Basra", fromAgentID, "hash")
	return t
}

// --- Transfer Handler Tests ---

func TestCreateTransfer_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockSvc := mocks.NewMockTransferService(ctrl)
	h := NewTransferHandler(mockSvc)

	actor := agentActor()
	created := testTransfer(actor.UserID)

	var gotCmd ports.CreateTransferCommand
	mockSvc.EXPECT().Create(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ interface{}, cmd ports.CreateTransferCommand) (*ports.CreateTransferResult, error) {
			gotCmd = cmd
			return &ports.CreateTransferResult{Transfer: created, Pin: "4821"}, nil
		})

	body, _ := json.Marshal(dto.CreateTransferRequest{
		SenderName:   "Ali Hassan",
		ReceiverName: "Omar Khalid",
		Amount:       decimal.NewFromInt(1000000),
		Currency:     "IQD",
		Governorate:  "Basra",
	})

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/api/v1/transfers", bytes.NewReader(body))
	c.Request.Header.Set("Content-Type", "application/json")
	c.Set(middleware.CtxActor, actor)

	h.Create(c)

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, actor, gotCmd.Actor)
	assert.Equal(t, "Ali Hassan", gotCmd.SenderName)
	assert.True(t, gotCmd.Amount.Equal(decimal.NewFromInt(1000000)))
	assert.Equal(t, domain.CurrencyIQD, gotCmd.Currency)

	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	data := resp["data"].(map[string]interface{})
	assert.Equal(t, "4821", data["pin"])
	transfer := data["transfer"].(map[string]interface{})
	assert.Equal(t, "10000001", transfer["transfer_code"])
	assert.Equal(t, "pending", transfer["status"])
}

func TestCreateTransfer_ValidationError(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockSvc := mocks.NewMockTransferService(ctrl)
	h := NewTransferHandler(mockSvc)

	// Empty body => binding error
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/", bytes.NewReader([]byte("{}")))
	c.Request.Header.Set("Content-Type", "application/json")
	c.Set(middleware.CtxActor, agentActor())

	h.Create(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCreateTransfer_MissingActor(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockSvc := mocks.NewMockTransferService(ctrl)
	h := NewTransferHandler(mockSvc)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/", nil)

	h.Create(c)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestCreateTransfer_InsufficientFunds(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockSvc := mocks.NewMockTransferService(ctrl)
	h := NewTransferHandler(mockSvc)

	mockSvc.EXPECT().Create(gomock.Any(), gomock.Any()).Return(nil, apperror.ErrInsufficientFunds())

	body, _ := json.Marshal(dto.CreateTransferRequest{
		SenderName:   "Ali Hassan",
		ReceiverName: "Omar Khalid",
		Amount:       decimal.NewFromInt(9000000),
		Currency:     "IQD",
	})

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/", bytes.NewReader(body))
	c.Request.Header.Set("Content-Type", "application/json")
	c.Set(middleware.CtxActor, agentActor())

	h.Create(c)

	assert.Equal(t, http.StatusPaymentRequired, w.Code)
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "TRF_001", resp["error_code"])
}

func TestReceiveTransfer_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockSvc := mocks.NewMockTransferService(ctrl)
	h := NewTransferHandler(mockSvc)

	actor := agentActor()
	transfer := testTransfer(uuid.New())
	require.NoError(t, transfer.MarkReceived(actor.UserID, decimal.NewFromInt(20000), decimal.NewFromInt(2), "proofs/a.jpg"))

	mockSvc.EXPECT().Receive(gomock.Any(), ports.ReceiveTransferCommand{
		Actor:            actor,
		TransferID:       transfer.ID,
		Pin:              "4821",
		ReceiverFullName: "Omar Khalid",
		ImageRef:         "proofs/a.jpg",
	}).Return(transfer, nil)

	body, _ := json.Marshal(dto.ReceiveTransferRequest{
		Pin:              "4821",
		ReceiverFullName: "Omar Khalid",
		ImageRef:         "proofs/a.jpg",
	})

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/", bytes.NewReader(body))
	c.Request.Header.Set("Content-Type", "application/json")
	c.Params = gin.Params{{Key: "id", Value: transfer.ID.String()}}
	c.Set(middleware.CtxActor, actor)

	h.Receive(c)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	data := resp["data"].(map[string]interface{})
	assert.Equal(t, "completed", data["status"])
	assert.Equal(t, "20000", data["incoming_commission"])
}

func TestReceiveTransfer_BadPinFormat(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockSvc := mocks.NewMockTransferService(ctrl)
	h := NewTransferHandler(mockSvc)

	body, _ := json.Marshal(dto.ReceiveTransferRequest{
		Pin:              "48",
		ReceiverFullName: "Omar Khalid",
	})

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/", bytes.NewReader(body))
	c.Request.Header.Set("Content-Type", "application/json")
	c.Params = gin.Params{{Key: "id", Value: uuid.New().String()}}
	c.Set(middleware.CtxActor, agentActor())

	h.Receive(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestReceiveTransfer_InvalidID(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockSvc := mocks.NewMockTransferService(ctrl)
	h := NewTransferHandler(mockSvc)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/", nil)
	c.Params = gin.Params{{Key: "id", Value: "not-a-uuid"}}
	c.Set(middleware.CtxActor, agentActor())

	h.Receive(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestReceiveTransfer_LockedOut(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockSvc := mocks.NewMockTransferService(ctrl)
	h := NewTransferHandler(mockSvc)

	mockSvc.EXPECT().Receive(gomock.Any(), gomock.Any()).Return(nil, apperror.ErrTooManyAttempts())

	body, _ := json.Marshal(dto.ReceiveTransferRequest{
		Pin:              "4821",
		ReceiverFullName: "Omar Khalid",
	})

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/", bytes.NewReader(body))
	c.Request.Header.Set("Content-Type", "application/json")
	c.Params = gin.Params{{Key: "id", Value: uuid.New().String()}}
	c.Set(middleware.CtxActor, agentActor())

	h.Receive(c)

	assert.Equal(t, http.StatusTooManyRequests, w.Code)
}

func TestCancelTransfer_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockSvc := mocks.NewMockTransferService(ctrl)
	h := NewTransferHandler(mockSvc)

	actor := agentActor()
	transfer := testTransfer(actor.UserID)
	require.NoError(t, transfer.MarkCancelled())

	mockSvc.EXPECT().Cancel(gomock.Any(), transfer.ID, actor).Return(transfer, nil)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/", nil)
	c.Params = gin.Params{{Key: "id", Value: transfer.ID.String()}}
	c.Set(middleware.CtxActor, actor)

	h.Cancel(c)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	data := resp["data"].(map[string]interface{})
	assert.Equal(t, "cancelled", data["status"])
}

func TestCancelTransfer_NotAuthorized(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockSvc := mocks.NewMockTransferService(ctrl)
	h := NewTransferHandler(mockSvc)

	actor := agentActor()
	mockSvc.EXPECT().Cancel(gomock.Any(), gomock.Any(), actor).Return(nil, apperror.ErrNotAuthorized())

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/", nil)
	c.Params = gin.Params{{Key: "id", Value: uuid.New().String()}}
	c.Set(middleware.CtxActor, actor)

	h.Cancel(c)

	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestGetTransfer_AgentNotAParty(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockSvc := mocks.NewMockTransferService(ctrl)
	h := NewTransferHandler(mockSvc)

	transfer := testTransfer(uuid.New())
	mockSvc.EXPECT().GetByID(gomock.Any(), transfer.ID).Return(transfer, nil)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	c.Params = gin.Params{{Key: "id", Value: transfer.ID.String()}}
	c.Set(middleware.CtxActor, agentActor())

	h.Get(c)

	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestGetTransfer_AdminSeesAny(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockSvc := mocks.NewMockTransferService(ctrl)
	h := NewTransferHandler(mockSvc)

	transfer := testTransfer(uuid.New())
	mockSvc.EXPECT().GetByID(gomock.Any(), transfer.ID).Return(transfer, nil)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	c.Params = gin.Params{{Key: "id", Value: transfer.ID.String()}}
	c.Set(middleware.CtxActor, adminActor())

	h.Get(c)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestListTransfers_AgentScopedToSelf(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockSvc := mocks.NewMockTransferService(ctrl)
	h := NewTransferHandler(mockSvc)

	actor := agentActor()
	transfer := testTransfer(actor.UserID)

	var gotParams ports.TransferListParams
	mockSvc.EXPECT().List(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ interface{}, params ports.TransferListParams) ([]domain.Transfer, int64, error) {
			gotParams = params
			return []domain.Transfer{*transfer}, 1, nil
		})

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	// An agent asking for another agent's transfers still gets their own.
	c.Request = httptest.NewRequest(http.MethodGet, "/?page=1&page_size=20&agent_id="+uuid.New().String(), nil)
	c.Set(middleware.CtxActor, actor)

	h.List(c)

	assert.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, gotParams.AgentID)
	assert.Equal(t, actor.UserID, *gotParams.AgentID)

	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	data := resp["data"].(map[string]interface{})
	items := data["items"].([]interface{})
	assert.Len(t, items, 1)
	assert.Equal(t, float64(1), data["total"])
	assert.Equal(t, float64(1), data["total_pages"])
}

func TestListTransfers_AdminFilters(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockSvc := mocks.NewMockTransferService(ctrl)
	h := NewTransferHandler(mockSvc)

	agentID := uuid.New()
	from := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	var gotParams ports.TransferListParams
	mockSvc.EXPECT().List(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ interface{}, params ports.TransferListParams) ([]domain.Transfer, int64, error) {
			gotParams = params
			return nil, 0, nil
		})

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet,
		"/?agent_id="+agentID.String()+"&status=pending&from=2026-01-01T00:00:00Z", nil)
	c.Set(middleware.CtxActor, adminActor())

	h.List(c)

	assert.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, gotParams.AgentID)
	assert.Equal(t, agentID, *gotParams.AgentID)
	require.NotNil(t, gotParams.Status)
	assert.Equal(t, domain.TransferStatusPending, *gotParams.Status)
	require.NotNil(t, gotParams.From)
	assert.True(t, from.Equal(*gotParams.From))
}

// --- Account Handler Tests ---

func TestAccountLedger_RunningBalance(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockLedger := mocks.NewMockLedgerService(ctrl)
	h := NewAccountHandler(mockLedger)

	now := time.Now().UTC()
	mockLedger.EXPECT().Ledger(gomock.Any(), domain.AccountCode("2001"), gomock.Nil(), gomock.Nil()).Return([]domain.Posting{
		{EntryNumber: "TR-SND-10000001", ReferenceType: "transfer_send", Date: now,
			AccountCode: "2001", Currency: domain.CurrencyIQD, Debit: decimal.NewFromInt(1000000)},
		{EntryNumber: "TR-CNL-10000001", ReferenceType: "transfer_cancel", Date: now,
			AccountCode: "2001", Currency: domain.CurrencyIQD, Credit: decimal.NewFromInt(1000000)},
	}, nil)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	c.Params = gin.Params{{Key: "code", Value: "2001"}}
	c.Set(middleware.CtxActor, adminActor())

	h.Ledger(c)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	data := resp["data"].(map[string]interface{})
	lines := data["lines"].([]interface{})
	require.Len(t, lines, 2)
	first := lines[0].(map[string]interface{})
	second := lines[1].(map[string]interface{})
	assert.Equal(t, "-1000000", first["balance"])
	assert.Equal(t, "0", second["balance"])
}

func TestAccountLedger_AgentForbidden(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockLedger := mocks.NewMockLedgerService(ctrl)
	h := NewAccountHandler(mockLedger)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	c.Params = gin.Params{{Key: "code", Value: "2001"}}
	c.Set(middleware.CtxActor, agentActor())

	h.Ledger(c)

	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestAccountBalances_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockLedger := mocks.NewMockLedgerService(ctrl)
	h := NewAccountHandler(mockLedger)

	mockLedger.EXPECT().AccountBalances(gomock.Any(), domain.AccountCode("1030")).Return(
		map[domain.Currency]decimal.Decimal{
			domain.CurrencyIQD: decimal.NewFromInt(5000000),
			domain.CurrencyUSD: decimal.NewFromInt(300),
		}, nil)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	c.Params = gin.Params{{Key: "code", Value: "1030"}}
	c.Set(middleware.CtxActor, adminActor())

	h.Balances(c)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	data := resp["data"].(map[string]interface{})
	balances := data["balances"].(map[string]interface{})
	assert.Equal(t, "5000000", balances["IQD"])
	assert.Equal(t, "300", balances["USD"])
}

// --- Wallet Handler Tests ---

func TestGetWallet_OwnBalance(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockWallet := mocks.NewMockWalletService(ctrl)
	h := NewWalletHandler(mockWallet)

	actor := agentActor()
	mockWallet.EXPECT().Get(gomock.Any(), actor.UserID).Return(&domain.WalletBalances{
		BalanceIQD: decimal.NewFromInt(5000000),
		BalanceUSD: decimal.NewFromInt(120),
	}, nil)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	c.Params = gin.Params{{Key: "user_id", Value: actor.UserID.String()}}
	c.Set(middleware.CtxActor, actor)

	h.Get(c)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	data := resp["data"].(map[string]interface{})
	assert.Equal(t, "5000000", data["balance_iqd"])
	assert.Equal(t, "120", data["balance_usd"])
}

func TestGetWallet_OtherAgentForbidden(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockWallet := mocks.NewMockWalletService(ctrl)
	h := NewWalletHandler(mockWallet)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	c.Params = gin.Params{{Key: "user_id", Value: uuid.New().String()}}
	c.Set(middleware.CtxActor, agentActor())

	h.Get(c)

	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestReconcileWallet_AdminOnly(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockWallet := mocks.NewMockWalletService(ctrl)
	h := NewWalletHandler(mockWallet)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/", nil)
	c.Params = gin.Params{{Key: "user_id", Value: uuid.New().String()}}
	c.Set(middleware.CtxActor, agentActor())

	h.Reconcile(c)

	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestReconcileWallet_ReportsDiscrepancies(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockWallet := mocks.NewMockWalletService(ctrl)
	h := NewWalletHandler(mockWallet)

	userID := uuid.New()
	mockWallet.EXPECT().Reconcile(gomock.Any(), userID).Return(&ports.ReconcileReport{
		UserID:      userID,
		AccountCode: "2001",
		Discrepancies: []ports.WalletDiscrepancy{
			{Currency: domain.CurrencyIQD, Cached: decimal.NewFromInt(4000000), Replayed: decimal.NewFromInt(4020000)},
		},
		Repaired: true,
	}, nil)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/", nil)
	c.Params = gin.Params{{Key: "user_id", Value: userID.String()}}
	c.Set(middleware.CtxActor, adminActor())

	h.Reconcile(c)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	data := resp["data"].(map[string]interface{})
	assert.Equal(t, true, data["repaired"])
	discrepancies := data["discrepancies"].([]interface{})
	require.Len(t, discrepancies, 1)
	d := discrepancies[0].(map[string]interface{})
	assert.Equal(t, "IQD", d["currency"])
	assert.Equal(t, "4020000", d["replayed"])
}

// --- Health Check Test ---

func TestHealthCheck(t *testing.T) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/health", nil)

	HealthCheck()(c)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "healthy", resp["status"])
}
