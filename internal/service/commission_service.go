package service

import (
	"context"
	"fmt"
	"time"

	"remit-backoffice/config"
	"remit-backoffice/internal/core/domain"
	"remit-backoffice/internal/core/ports"
	"remit-backoffice/pkg/apperror"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// CommissionServiceImpl implements ports.CommissionService against stored
// tiered schedules. What happens when no schedule or tier applies is decided
// by the configured missing-rate policy, not hardcoded.
type CommissionServiceImpl struct {
	scheduleRepo ports.CommissionScheduleRepository
	policy       config.MissingRatePolicy
	log          zerolog.Logger
}

// NewCommissionService creates a new CommissionServiceImpl.
func NewCommissionService(scheduleRepo ports.CommissionScheduleRepository, policy config.MissingRatePolicy, log zerolog.Logger) *CommissionServiceImpl {
	return &CommissionServiceImpl{
		scheduleRepo: scheduleRepo,
		policy:       policy,
		log:          log,
	}
}

// Calculate resolves the schedule with the latest ValidFrom at or before
// asOf, picks the tier containing amount for the direction, and applies it.
// A zero-percent tier yields zero commission, not an error.
func (s *CommissionServiceImpl) Calculate(ctx context.Context, agentID uuid.UUID, currency domain.Currency, bulletinType string, amount decimal.Decimal, direction domain.CommissionDirection, asOf time.Time) (*domain.CommissionResult, error) {
	if !amount.IsPositive() {
		return nil, apperror.ErrInvalidAmount()
	}

	schedule, err := s.scheduleRepo.FindApplicable(ctx, agentID, currency, bulletinType, asOf)
	if err != nil {
		return nil, apperror.ErrDatabaseError(fmt.Errorf("find schedule: %w", err))
	}
	if schedule == nil {
		return s.missingRate(agentID, currency, bulletinType, "no schedule")
	}

	tier := schedule.TierFor(amount, direction)
	if tier == nil {
		return s.missingRate(agentID, currency, bulletinType, "no tier for amount")
	}

	result := tier.Apply(amount)
	return &result, nil
}

func (s *CommissionServiceImpl) missingRate(agentID uuid.UUID, currency domain.Currency, bulletinType, reason string) (*domain.CommissionResult, error) {
	if s.policy == config.MissingRateZero {
		s.log.Warn().
			Str("agent_id", agentID.String()).
			Str("currency", string(currency)).
			Str("bulletin_type", bulletinType).
			Str("reason", reason).
			Msg("no applicable commission rate, applying zero per policy")
		return &domain.CommissionResult{Percentage: decimal.Zero, Amount: decimal.Zero}, nil
	}
	return nil, apperror.ErrNoApplicableRate()
}
