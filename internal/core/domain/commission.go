package domain

import (
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"remit-backoffice/pkg/apperror"
)

// CommissionDirection distinguishes fee schedules for money coming into an
// agent (incoming) from money leaving it (outgoing).
type CommissionDirection string

const (
	CommissionIncoming CommissionDirection = "incoming"
	CommissionOutgoing CommissionDirection = "outgoing"
)

// CommissionType selects between a percentage of the amount and a flat fee.
type CommissionType string

const (
	CommissionTypePercentage CommissionType = "percentage"
	CommissionTypeFixed      CommissionType = "fixed"
)

// CommissionTier is one amount range of a schedule. The range is inclusive
// on both ends.
type CommissionTier struct {
	FromAmount  decimal.Decimal     `json:"from_amount"`
	ToAmount    decimal.Decimal     `json:"to_amount"`
	Direction   CommissionDirection `json:"direction"`
	Type        CommissionType      `json:"type"`
	Percentage  decimal.Decimal     `json:"percentage"`
	FixedAmount decimal.Decimal     `json:"fixed_amount"`
}

// Contains reports whether amount falls inside [FromAmount, ToAmount].
func (t CommissionTier) Contains(amount decimal.Decimal) bool {
	return amount.GreaterThanOrEqual(t.FromAmount) && amount.LessThanOrEqual(t.ToAmount)
}

// CommissionSchedule is an agent's tiered fee table for one currency and
// bulletin type, valid from ValidFrom onward until superseded by a newer
// schedule.
type CommissionSchedule struct {
	ID           uuid.UUID        `json:"id"`
	AgentID      uuid.UUID        `json:"agent_id"`
	Currency     Currency         `json:"currency"`
	BulletinType string           `json:"bulletin_type"`
	ValidFrom    time.Time        `json:"valid_from"`
	Tiers        []CommissionTier `json:"tiers"`
}

// NewCommissionSchedule validates and builds a schedule. Tiers for each
// direction must have valid ranges and must not overlap.
func NewCommissionSchedule(agentID uuid.UUID, currency Currency, bulletinType string, validFrom time.Time, tiers []CommissionTier) (*CommissionSchedule, error) {
	if agentID == uuid.Nil {
		return nil, apperror.Validation("agent id is required")
	}
	if !IsSupportedCurrency(currency) {
		return nil, apperror.ErrUnsupportedCurrency(string(currency))
	}
	if bulletinType == "" {
		return nil, apperror.Validation("bulletin type is required")
	}
	if len(tiers) == 0 {
		return nil, apperror.ErrInvalidSchedule("schedule has no tiers")
	}

	byDirection := map[CommissionDirection][]CommissionTier{}
	for _, tier := range tiers {
		switch tier.Direction {
		case CommissionIncoming, CommissionOutgoing:
		default:
			return nil, apperror.ErrInvalidSchedule("unknown direction: " + string(tier.Direction))
		}
		switch tier.Type {
		case CommissionTypePercentage, CommissionTypeFixed:
		default:
			return nil, apperror.ErrInvalidSchedule("unknown commission type: " + string(tier.Type))
		}
		if tier.FromAmount.IsNegative() || tier.ToAmount.LessThan(tier.FromAmount) {
			return nil, apperror.ErrInvalidSchedule("tier range is invalid")
		}
		if tier.Percentage.IsNegative() || tier.FixedAmount.IsNegative() {
			return nil, apperror.ErrInvalidSchedule("tier rate is negative")
		}
		byDirection[tier.Direction] = append(byDirection[tier.Direction], tier)
	}

	// Tiers must not overlap within a direction. Zero-percent tiers are
	// valid: they mean "free", not "missing".
	for _, ts := range byDirection {
		sort.Slice(ts, func(i, j int) bool { return ts[i].FromAmount.LessThan(ts[j].FromAmount) })
		for i := 1; i < len(ts); i++ {
			if ts[i].FromAmount.LessThanOrEqual(ts[i-1].ToAmount) {
				return nil, apperror.ErrInvalidSchedule("tiers overlap")
			}
		}
	}

	return &CommissionSchedule{
		ID:           uuid.New(),
		AgentID:      agentID,
		Currency:     currency,
		BulletinType: bulletinType,
		ValidFrom:    validFrom,
		Tiers:        tiers,
	}, nil
}

// TierFor selects the tier containing amount for the requested direction,
// checked in ascending FromAmount order. Returns nil when no tier matches.
func (s *CommissionSchedule) TierFor(amount decimal.Decimal, direction CommissionDirection) *CommissionTier {
	var candidates []CommissionTier
	for _, t := range s.Tiers {
		if t.Direction == direction {
			candidates = append(candidates, t)
		}
	}
	sort.Slice(candidates, func(i, j int) bool {
		return candidates[i].FromAmount.LessThan(candidates[j].FromAmount)
	})
	for i := range candidates {
		if candidates[i].Contains(amount) {
			return &candidates[i]
		}
	}
	return nil
}

// CommissionResult is the outcome of a commission calculation.
type CommissionResult struct {
	Percentage decimal.Decimal `json:"percentage"`
	Amount     decimal.Decimal `json:"amount"`
}

// Apply computes the commission a tier yields for amount: the fixed fee for
// fixed tiers, amount*percentage/100 otherwise.
func (t CommissionTier) Apply(amount decimal.Decimal) CommissionResult {
	if t.Type == CommissionTypeFixed {
		return CommissionResult{Amount: t.FixedAmount}
	}
	return CommissionResult{
		Percentage: t.Percentage,
		Amount:     amount.Mul(t.Percentage).Div(decimal.NewFromInt(100)),
	}
}
