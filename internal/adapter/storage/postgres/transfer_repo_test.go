package postgres

import (
	"context"
	"testing"
	"time"

	"remit-backoffice/internal/core/domain"
	"remit-backoffice/internal/core/ports"

	"github.com/google/uuid"
	"github.com/pashagolub/pgxmock/v3"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestTransfer() *domain.Transfer {
	return &domain.Transfer{
		ID:           uuid.New(),
		TransferCode: "10000001",
		Status:       domain.TransferStatusPending,
		Amount:       decimal.NewFromInt(1000000),
		Currency:     domain.CurrencyIQD,
		SenderName:   "Ali Hassan",
		ReceiverName: "Omar Khalid",
		Governorate:  "Basra",
		FromAgentID:  uuid.New(),
		PinHash:      "hashed-pin",
		CreatedAt:    time.Now().UTC().Truncate(time.Microsecond),
	}
}

func transferColumnsList() []string {
	return []string{"id", "transfer_code", "status", "amount", "currency", "sender_name", "sender_phone",
		"receiver_name", "receiver_phone", "governorate", "from_agent_id", "to_agent_id", "pin_hash", "image_ref",
		"incoming_commission", "incoming_commission_percentage", "created_at", "received_at", "cancelled_at"}
}

func transferRow(tr *domain.Transfer) *pgxmock.Rows {
	return pgxmock.NewRows(transferColumnsList()).AddRow(
		tr.ID, tr.TransferCode, tr.Status, tr.Amount.String(), tr.Currency,
		tr.SenderName, tr.SenderPhone, tr.ReceiverName, tr.ReceiverPhone, tr.Governorate,
		tr.FromAgentID, tr.ToAgentID, tr.PinHash, tr.ImageRef,
		tr.IncomingCommission.String(), tr.IncomingCommissionPercentage.String(),
		tr.CreatedAt, tr.ReceivedAt, tr.CancelledAt,
	)
}

func TestTransferRepo_Create(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewTransferRepo(mock)
	tr := newTestTransfer()

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO transfers").
		WithArgs(tr.ID, tr.TransferCode, "pending", "1000000", "IQD",
			tr.SenderName, tr.SenderPhone, tr.ReceiverName, tr.ReceiverPhone, tr.Governorate,
			tr.FromAgentID, tr.ToAgentID, tr.PinHash, tr.ImageRef,
			"0", "0", tr.CreatedAt, tr.ReceivedAt, tr.CancelledAt).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	tx, err := mock.Begin(context.Background())
	require.NoError(t, err)

	err = repo.Create(context.Background(), tx, tr)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTransferRepo_GetByID(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewTransferRepo(mock)
	tr := newTestTransfer()

	mock.ExpectQuery("SELECT .+ FROM transfers WHERE id").
		WithArgs(tr.ID).
		WillReturnRows(transferRow(tr))

	result, err := repo.GetByID(context.Background(), tr.ID)
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.Equal(t, tr.TransferCode, result.TransferCode)
	assert.True(t, result.Amount.Equal(tr.Amount))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTransferRepo_GetByID_NotFound(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewTransferRepo(mock)
	id := uuid.New()

	mock.ExpectQuery("SELECT .+ FROM transfers WHERE id").
		WithArgs(id).
		WillReturnRows(pgxmock.NewRows(transferColumnsList()))

	result, err := repo.GetByID(context.Background(), id)
	require.NoError(t, err)
	assert.Nil(t, result)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTransferRepo_GetByIDForUpdate(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewTransferRepo(mock)
	tr := newTestTransfer()

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT .+ FROM transfers WHERE id .+ FOR UPDATE").
		WithArgs(tr.ID).
		WillReturnRows(transferRow(tr))

	tx, err := mock.Begin(context.Background())
	require.NoError(t, err)

	result, err := repo.GetByIDForUpdate(context.Background(), tx, tr.ID)
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.Equal(t, tr.ID, result.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTransferRepo_CodeExists(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewTransferRepo(mock)

	mock.ExpectQuery("SELECT EXISTS").
		WithArgs("10000001").
		WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(true))

	exists, err := repo.CodeExists(context.Background(), "10000001")
	require.NoError(t, err)
	assert.True(t, exists)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTransferRepo_UpdateReceived(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewTransferRepo(mock)
	tr := newTestTransfer()
	toAgent := uuid.New()
	require.NoError(t, tr.MarkReceived(toAgent, decimal.NewFromInt(20000), decimal.NewFromInt(2), "img-1"))

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE transfers SET status").
		WithArgs(tr.ID, "completed", tr.ToAgentID, "20000", "2", tr.ImageRef, tr.ReceivedAt).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	tx, err := mock.Begin(context.Background())
	require.NoError(t, err)

	err = repo.UpdateReceived(context.Background(), tx, tr)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTransferRepo_UpdateCancelled_NotFound(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewTransferRepo(mock)
	tr := newTestTransfer()
	require.NoError(t, tr.MarkCancelled())

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE transfers SET status").
		WithArgs(tr.ID, "cancelled", tr.CancelledAt).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	tx, err := mock.Begin(context.Background())
	require.NoError(t, err)

	err = repo.UpdateCancelled(context.Background(), tx, tr)
	assert.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTransferRepo_List_ByStatus(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewTransferRepo(mock)
	tr := newTestTransfer()
	status := domain.TransferStatusPending

	mock.ExpectQuery("SELECT COUNT").
		WithArgs("pending").
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(int64(1)))
	mock.ExpectQuery("SELECT .+ FROM transfers .+ ORDER BY created_at DESC").
		WithArgs("pending", 20, 0).
		WillReturnRows(transferRow(tr))

	transfers, total, err := repo.List(context.Background(), ports.TransferListParams{
		Status:   &status,
		Page:     1,
		PageSize: 20,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, transfers, 1)
	assert.Equal(t, tr.TransferCode, transfers[0].TransferCode)
	assert.NoError(t, mock.ExpectationsWereMet())
}
