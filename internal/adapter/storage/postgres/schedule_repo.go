package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"remit-backoffice/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// ScheduleRepo implements ports.CommissionScheduleRepository. Tiers are
// stored as a JSONB document; the domain validated them at construction.
type ScheduleRepo struct {
	pool Pool
}

// NewScheduleRepo creates a new ScheduleRepo.
func NewScheduleRepo(pool Pool) *ScheduleRepo {
	return &ScheduleRepo{pool: pool}
}

// Create inserts a commission schedule.
func (r *ScheduleRepo) Create(ctx context.Context, schedule *domain.CommissionSchedule) error {
	tiers, err := json.Marshal(schedule.Tiers)
	if err != nil {
		return fmt.Errorf("marshal tiers: %w", err)
	}

	_, err = r.pool.Exec(ctx,
		`INSERT INTO commission_schedules (id, agent_id, currency, bulletin_type, valid_from, tiers)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		schedule.ID, schedule.AgentID, string(schedule.Currency), schedule.BulletinType,
		schedule.ValidFrom, tiers,
	)
	if err != nil {
		return fmt.Errorf("insert commission schedule: %w", err)
	}
	return nil
}

// FindApplicable returns the schedule with the latest ValidFrom at or before
// asOf for the key, or nil when none exists.
func (r *ScheduleRepo) FindApplicable(ctx context.Context, agentID uuid.UUID, currency domain.Currency, bulletinType string, asOf time.Time) (*domain.CommissionSchedule, error) {
	s := &domain.CommissionSchedule{}
	var tiers []byte
	err := r.pool.QueryRow(ctx,
		`SELECT id, agent_id, currency, bulletin_type, valid_from, tiers
		FROM commission_schedules
		WHERE agent_id = $1 AND currency = $2 AND bulletin_type = $3 AND valid_from <= $4
		ORDER BY valid_from DESC LIMIT 1`,
		agentID, string(currency), bulletinType, asOf,
	).Scan(&s.ID, &s.AgentID, &s.Currency, &s.BulletinType, &s.ValidFrom, &tiers)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("find commission schedule: %w", err)
	}

	if err := json.Unmarshal(tiers, &s.Tiers); err != nil {
		return nil, fmt.Errorf("unmarshal tiers: %w", err)
	}
	return s, nil
}
