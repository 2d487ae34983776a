package service

import (
	"context"
	"fmt"

	"remit-backoffice/internal/core/domain"
	"remit-backoffice/internal/core/ports"
	"remit-backoffice/pkg/apperror"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// WalletServiceImpl implements ports.WalletService. The wallet rows are a
// cached projection of the ledger; Reconcile is the only path allowed to
// rewrite them outside a posting transaction.
type WalletServiceImpl struct {
	walletRepo ports.WalletRepository
	agentRepo  ports.AgentRepository
	ledger     ports.LedgerService
	log        zerolog.Logger
}

// NewWalletService creates a new WalletServiceImpl.
func NewWalletService(walletRepo ports.WalletRepository, agentRepo ports.AgentRepository, ledger ports.LedgerService, log zerolog.Logger) *WalletServiceImpl {
	return &WalletServiceImpl{
		walletRepo: walletRepo,
		agentRepo:  agentRepo,
		ledger:     ledger,
		log:        log,
	}
}

// Get returns the cached balances for a user.
func (s *WalletServiceImpl) Get(ctx context.Context, userID uuid.UUID) (*domain.WalletBalances, error) {
	balances, err := s.walletRepo.GetBalances(ctx, userID)
	if err != nil {
		return nil, apperror.ErrDatabaseError(fmt.Errorf("load wallet: %w", err))
	}
	if balances == nil {
		return nil, apperror.ErrNotFound("wallet")
	}
	return balances, nil
}

// Reconcile replays the ledger over the user's linked account, compares each
// currency against the cached projection, and rewrites the rows that
// diverged. The replayed ledger is authoritative.
func (s *WalletServiceImpl) Reconcile(ctx context.Context, userID uuid.UUID) (*ports.ReconcileReport, error) {
	agent, err := s.agentRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, apperror.ErrDatabaseError(fmt.Errorf("load agent: %w", err))
	}
	if agent == nil {
		return nil, apperror.ErrNotFound("agent")
	}
	accountCode, err := agent.LinkedAccount()
	if err != nil {
		return nil, err
	}

	replayed, err := s.ledger.ReplayBalances(ctx, accountCode)
	if err != nil {
		return nil, err
	}

	cached, err := s.walletRepo.GetBalances(ctx, userID)
	if err != nil {
		return nil, apperror.ErrDatabaseError(fmt.Errorf("load wallet: %w", err))
	}
	if cached == nil {
		cached = &domain.WalletBalances{}
	}

	report := &ports.ReconcileReport{
		UserID:      userID,
		AccountCode: accountCode,
	}

	for _, currency := range domain.SupportedCurrencies {
		want := replayed[currency]
		have := cached.Get(currency)
		if want.Equal(have) {
			continue
		}

		divergence := apperror.ErrLedgerDivergence(accountCode.String())
		s.log.Error().
			Str("user_id", userID.String()).
			Str("account_code", accountCode.String()).
			Str("currency", string(currency)).
			Str("cached", have.String()).
			Str("replayed", want.String()).
			Str("error_code", divergence.Code).
			Msg("wallet projection diverged from ledger")

		if err := s.walletRepo.SetBalance(ctx, userID, currency, want); err != nil {
			return nil, apperror.ErrDatabaseError(fmt.Errorf("repair wallet %s: %w", currency, err))
		}
		report.Discrepancies = append(report.Discrepancies, ports.WalletDiscrepancy{
			Currency: currency,
			Cached:   have,
			Replayed: want,
		})
	}
	report.Repaired = len(report.Discrepancies) > 0

	return report, nil
}
