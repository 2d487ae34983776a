package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"remit-backoffice/internal/core/domain"
	"remit-backoffice/internal/core/ports"
	"remit-backoffice/pkg/apperror"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rs/zerolog"
)

const (
	// bulletinTypeTransfer keys commission schedules for counter transfers.
	bulletinTypeTransfer = "transfer"

	// codeGenAttempts bounds re-rolls when a generated transfer code collides.
	codeGenAttempts = 5

	// txRetries bounds retries on transient storage contention before the
	// conflict is surfaced to the caller.
	txRetries = 3
)

// TransferServiceImpl implements ports.TransferService. Every state
// transition posts its journal entries, adjusts the wallet projection, and
// updates the transfer row inside one database transaction.
type TransferServiceImpl struct {
	transferRepo ports.TransferRepository
	agentRepo    ports.AgentRepository
	walletRepo   ports.WalletRepository
	ledger       ports.LedgerService
	commission   ports.CommissionService
	attempts     ports.AttemptStore
	events       ports.EventPublisher
	pins         ports.PinHasher
	transactor   ports.DBTransactor
	log          zerolog.Logger
}

// NewTransferService creates a new TransferServiceImpl.
func NewTransferService(
	transferRepo ports.TransferRepository,
	agentRepo ports.AgentRepository,
	walletRepo ports.WalletRepository,
	ledger ports.LedgerService,
	commission ports.CommissionService,
	attempts ports.AttemptStore,
	events ports.EventPublisher,
	pins ports.PinHasher,
	transactor ports.DBTransactor,
	log zerolog.Logger,
) *TransferServiceImpl {
	return &TransferServiceImpl{
		transferRepo: transferRepo,
		agentRepo:    agentRepo,
		walletRepo:   walletRepo,
		ledger:       ledger,
		commission:   commission,
		attempts:     attempts,
		events:       events,
		pins:         pins,
		transactor:   transactor,
		log:          log,
	}
}

// Create registers a pending transfer: it debits the sending agent's account
// into transit, mirrors the wallet projection, and returns the one-time PIN.
func (s *TransferServiceImpl) Create(ctx context.Context, cmd ports.CreateTransferCommand) (*ports.CreateTransferResult, error) {
	if !cmd.Amount.IsPositive() {
		return nil, apperror.ErrInvalidAmount()
	}
	if !domain.IsSupportedCurrency(cmd.Currency) {
		return nil, apperror.ErrUnsupportedCurrency(string(cmd.Currency))
	}
	if cmd.SenderName == "" || cmd.ReceiverName == "" {
		return nil, apperror.Validation("sender and receiver names are required")
	}

	agent, err := s.agentRepo.GetByID(ctx, cmd.Actor.UserID)
	if err != nil {
		return nil, apperror.ErrDatabaseError(fmt.Errorf("load agent: %w", err))
	}
	if agent == nil {
		return nil, apperror.ErrNotFound("agent")
	}
	agentAccount, err := agent.LinkedAccount()
	if err != nil {
		return nil, err
	}

	code, err := s.uniqueTransferCode(ctx)
	if err != nil {
		return nil, err
	}
	pin, err := NewPin()
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("generate pin: %w", err))
	}
	pinHash, err := s.pins.Hash(pin)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("hash pin: %w", err))
	}

	transfer, err := domain.NewTransfer(code, cmd.Amount, cmd.Currency, cmd.SenderName, cmd.ReceiverName, cmd.Governorate, agent.ID, pinHash)
	if err != nil {
		return nil, err
	}
	transfer.SenderPhone = cmd.SenderPhone
	transfer.ReceiverPhone = cmd.ReceiverPhone

	err = s.inTx(ctx, func(tx pgx.Tx) error {
		balance, err := s.walletRepo.LockBalance(ctx, tx, agent.ID, cmd.Currency)
		if err != nil {
			return apperror.ErrDatabaseError(fmt.Errorf("lock wallet: %w", err))
		}
		if balance.LessThan(cmd.Amount) {
			return apperror.ErrInsufficientFunds()
		}

		entry, err := domain.NewJournalEntry(
			domain.EntryPrefixTransferSend+code,
			"transfer_send",
			transfer.CreatedAt,
			[]domain.JournalLine{
				domain.DebitLine(agentAccount, cmd.Currency, cmd.Amount),
				domain.CreditLine(domain.TransitAccountCode, cmd.Currency, cmd.Amount),
			},
		)
		if err != nil {
			return err
		}
		if err := s.ledger.Post(ctx, tx, entry); err != nil {
			return err
		}

		if err := s.walletRepo.Adjust(ctx, tx, agent.ID, cmd.Currency, cmd.Amount.Neg()); err != nil {
			return apperror.ErrDatabaseError(fmt.Errorf("adjust wallet: %w", err))
		}

		if err := s.transferRepo.Create(ctx, tx, transfer); err != nil {
			return apperror.ErrDatabaseError(fmt.Errorf("create transfer: %w", err))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publish(ctx, domain.NewTransferEvent(domain.EventTransferCreated, transfer))

	s.log.Info().
		Str("transfer_id", transfer.ID.String()).
		Str("transfer_code", transfer.TransferCode).
		Str("amount", cmd.Amount.String()).
		Str("currency", string(cmd.Currency)).
		Msg("transfer created")

	return &ports.CreateTransferResult{Transfer: transfer, Pin: pin}, nil
}

// Receive redeems a pending transfer at the receiving agent's counter. The
// lockout gate runs before any credential check; PIN and name failures both
// count toward it. A transfer already completed is reported as such without
// posting anything again.
func (s *TransferServiceImpl) Receive(ctx context.Context, cmd ports.ReceiveTransferCommand) (*domain.Transfer, error) {
	transfer, err := s.transferRepo.GetByID(ctx, cmd.TransferID)
	if err != nil {
		return nil, apperror.ErrDatabaseError(fmt.Errorf("load transfer: %w", err))
	}
	if transfer == nil {
		return nil, apperror.ErrNotFound("transfer")
	}

	attemptKey := transfer.ID.String()
	locked, err := s.attempts.Locked(ctx, attemptKey)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("check lockout: %w", err))
	}
	if locked {
		return nil, apperror.ErrTooManyAttempts()
	}

	if transfer.Status == domain.TransferStatusCompleted {
		return nil, apperror.ErrAlreadyCompleted()
	}
	if transfer.Status != domain.TransferStatusPending {
		return nil, apperror.ErrInvalidStateTransition(string(transfer.Status))
	}

	pinOK, err := s.pins.Verify(cmd.Pin, transfer.PinHash)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("verify pin: %w", err))
	}
	if !pinOK {
		return nil, s.recordFailure(ctx, attemptKey, apperror.ErrPinMismatch())
	}
	if !NamesMatch(cmd.ReceiverFullName, transfer.ReceiverName) {
		return nil, s.recordFailure(ctx, attemptKey, apperror.ErrNameMismatch())
	}

	agent, err := s.agentRepo.GetByID(ctx, cmd.Actor.UserID)
	if err != nil {
		return nil, apperror.ErrDatabaseError(fmt.Errorf("load agent: %w", err))
	}
	if agent == nil {
		return nil, apperror.ErrNotFound("agent")
	}
	agentAccount, err := agent.LinkedAccount()
	if err != nil {
		return nil, err
	}

	commission, err := s.commission.Calculate(ctx, agent.ID, transfer.Currency, bulletinTypeTransfer, transfer.Amount, domain.CommissionIncoming, time.Now().UTC())
	if err != nil {
		return nil, err
	}

	err = s.inTx(ctx, func(tx pgx.Tx) error {
		locked, err := s.transferRepo.GetByIDForUpdate(ctx, tx, transfer.ID)
		if err != nil {
			return apperror.ErrDatabaseError(fmt.Errorf("lock transfer: %w", err))
		}
		if locked == nil {
			return apperror.ErrNotFound("transfer")
		}
		transfer = locked

		if err := transfer.MarkReceived(agent.ID, commission.Amount, commission.Percentage, cmd.ImageRef); err != nil {
			return err
		}

		entry, err := domain.NewJournalEntry(
			domain.EntryPrefixTransferReceive+transfer.TransferCode,
			"transfer_receive",
			*transfer.ReceivedAt,
			[]domain.JournalLine{
				domain.DebitLine(domain.TransitAccountCode, transfer.Currency, transfer.Amount),
				domain.CreditLine(agentAccount, transfer.Currency, transfer.Amount),
			},
		)
		if err != nil {
			return err
		}
		if err := s.ledger.Post(ctx, tx, entry); err != nil {
			return err
		}

		credited := transfer.Amount
		if commission.Amount.IsPositive() {
			commEntry, err := domain.NewJournalEntry(
				domain.EntryPrefixCommissionPaid+transfer.TransferCode,
				"commission_paid",
				*transfer.ReceivedAt,
				[]domain.JournalLine{
					domain.DebitLine(domain.CommissionPaidAccountCode, transfer.Currency, commission.Amount),
					domain.CreditLine(agentAccount, transfer.Currency, commission.Amount),
				},
			)
			if err != nil {
				return err
			}
			if err := s.ledger.Post(ctx, tx, commEntry); err != nil {
				return err
			}
			credited = credited.Add(commission.Amount)
		}

		if err := s.walletRepo.Adjust(ctx, tx, agent.ID, transfer.Currency, credited); err != nil {
			return apperror.ErrDatabaseError(fmt.Errorf("adjust wallet: %w", err))
		}

		if err := s.transferRepo.UpdateReceived(ctx, tx, transfer); err != nil {
			return apperror.ErrDatabaseError(fmt.Errorf("update transfer: %w", err))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if err := s.attempts.Reset(ctx, attemptKey); err != nil {
		s.log.Warn().Err(err).Str("transfer_id", attemptKey).Msg("failed to reset attempt counter")
	}

	s.publish(ctx, domain.NewTransferEvent(domain.EventTransferReceived, transfer))

	s.log.Info().
		Str("transfer_id", transfer.ID.String()).
		Str("transfer_code", transfer.TransferCode).
		Str("to_agent_id", agent.ID.String()).
		Str("commission", commission.Amount.String()).
		Msg("transfer received")

	return transfer, nil
}

// Cancel returns a pending transfer's funds from transit to the sending
// agent. Only the sending agent or an admin may cancel.
func (s *TransferServiceImpl) Cancel(ctx context.Context, transferID uuid.UUID, actor domain.Actor) (*domain.Transfer, error) {
	transfer, err := s.transferRepo.GetByID(ctx, transferID)
	if err != nil {
		return nil, apperror.ErrDatabaseError(fmt.Errorf("load transfer: %w", err))
	}
	if transfer == nil {
		return nil, apperror.ErrNotFound("transfer")
	}
	if !actor.IsAdmin() && actor.UserID != transfer.FromAgentID {
		return nil, apperror.ErrNotAuthorized()
	}

	agent, err := s.agentRepo.GetByID(ctx, transfer.FromAgentID)
	if err != nil {
		return nil, apperror.ErrDatabaseError(fmt.Errorf("load agent: %w", err))
	}
	if agent == nil {
		return nil, apperror.ErrNotFound("agent")
	}
	agentAccount, err := agent.LinkedAccount()
	if err != nil {
		return nil, err
	}

	err = s.inTx(ctx, func(tx pgx.Tx) error {
		locked, err := s.transferRepo.GetByIDForUpdate(ctx, tx, transfer.ID)
		if err != nil {
			return apperror.ErrDatabaseError(fmt.Errorf("lock transfer: %w", err))
		}
		if locked == nil {
			return apperror.ErrNotFound("transfer")
		}
		transfer = locked

		if err := transfer.MarkCancelled(); err != nil {
			return err
		}

		entry, err := domain.NewJournalEntry(
			domain.EntryPrefixTransferCancel+transfer.TransferCode,
			"transfer_cancel",
			*transfer.CancelledAt,
			[]domain.JournalLine{
				domain.DebitLine(domain.TransitAccountCode, transfer.Currency, transfer.Amount),
				domain.CreditLine(agentAccount, transfer.Currency, transfer.Amount),
			},
		)
		if err != nil {
			return err
		}
		if err := s.ledger.Post(ctx, tx, entry); err != nil {
			return err
		}

		if err := s.walletRepo.Adjust(ctx, tx, transfer.FromAgentID, transfer.Currency, transfer.Amount); err != nil {
			return apperror.ErrDatabaseError(fmt.Errorf("adjust wallet: %w", err))
		}

		if err := s.transferRepo.UpdateCancelled(ctx, tx, transfer); err != nil {
			return apperror.ErrDatabaseError(fmt.Errorf("update transfer: %w", err))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publish(ctx, domain.NewTransferEvent(domain.EventTransferCancelled, transfer))

	s.log.Info().
		Str("transfer_id", transfer.ID.String()).
		Str("transfer_code", transfer.TransferCode).
		Msg("transfer cancelled")

	return transfer, nil
}

// GetByID returns a transfer by id.
func (s *TransferServiceImpl) GetByID(ctx context.Context, id uuid.UUID) (*domain.Transfer, error) {
	transfer, err := s.transferRepo.GetByID(ctx, id)
	if err != nil {
		return nil, apperror.ErrDatabaseError(fmt.Errorf("load transfer: %w", err))
	}
	if transfer == nil {
		return nil, apperror.ErrNotFound("transfer")
	}
	return transfer, nil
}

// List returns a filtered, paginated page of transfers and the total count.
func (s *TransferServiceImpl) List(ctx context.Context, params ports.TransferListParams) ([]domain.Transfer, int64, error) {
	if params.Page < 1 {
		params.Page = 1
	}
	if params.PageSize < 1 || params.PageSize > 100 {
		params.PageSize = 20
	}
	transfers, total, err := s.transferRepo.List(ctx, params)
	if err != nil {
		return nil, 0, apperror.ErrDatabaseError(fmt.Errorf("list transfers: %w", err))
	}
	return transfers, total, nil
}

// uniqueTransferCode re-rolls until the generated code is unused.
func (s *TransferServiceImpl) uniqueTransferCode(ctx context.Context) (string, error) {
	for i := 0; i < codeGenAttempts; i++ {
		code, err := NewTransferCode()
		if err != nil {
			return "", apperror.InternalError(fmt.Errorf("generate code: %w", err))
		}
		exists, err := s.transferRepo.CodeExists(ctx, code)
		if err != nil {
			return "", apperror.ErrDatabaseError(fmt.Errorf("check code: %w", err))
		}
		if !exists {
			return code, nil
		}
	}
	return "", apperror.InternalError(errors.New("could not generate a unique transfer code"))
}

// recordFailure increments the attempt counter and maps the credential error
// to a lockout error when this failure tripped it.
func (s *TransferServiceImpl) recordFailure(ctx context.Context, key string, cause *apperror.AppError) error {
	count, tripped, err := s.attempts.Fail(ctx, key)
	if err != nil {
		s.log.Warn().Err(err).Str("transfer_id", key).Msg("failed to record attempt")
		return cause
	}
	s.log.Warn().
		Str("transfer_id", key).
		Int64("attempts", count).
		Str("error_code", cause.Code).
		Msg("redemption attempt failed")
	if tripped {
		return apperror.ErrTooManyAttempts()
	}
	return cause
}

// inTx runs fn in a transaction, retrying on transient serialization or
// deadlock failures before surfacing a concurrency conflict.
func (s *TransferServiceImpl) inTx(ctx context.Context, fn func(tx pgx.Tx) error) error {
	var lastErr error
	for attempt := 0; attempt < txRetries; attempt++ {
		tx, err := s.transactor.Begin(ctx)
		if err != nil {
			return apperror.ErrDatabaseError(fmt.Errorf("begin tx: %w", err))
		}

		if err := fn(tx); err != nil {
			_ = tx.Rollback(ctx)
			if isRetryable(err) {
				lastErr = err
				continue
			}
			return err
		}

		if err := tx.Commit(ctx); err != nil {
			if isRetryable(err) {
				lastErr = err
				continue
			}
			return apperror.ErrDatabaseError(fmt.Errorf("commit tx: %w", err))
		}
		return nil
	}
	return apperror.ErrConcurrencyConflict(lastErr)
}

// isRetryable reports serialization failures (40001) and deadlocks (40P01).
func isRetryable(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "40001" || pgErr.Code == "40P01"
	}
	return false
}

// publish sends the event best-effort; delivery never blocks or fails a
// completed transition.
func (s *TransferServiceImpl) publish(ctx context.Context, event domain.Event) {
	if err := s.events.Publish(ctx, event); err != nil {
		s.log.Warn().Err(err).
			Str("event_type", string(event.Type)).
			Str("transfer_id", event.TransferID.String()).
			Msg("failed to publish event")
	}
}
