package postgres

import (
	"context"
	"errors"
	"fmt"

	"remit-backoffice/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// AgentRepo implements ports.AgentRepository.
type AgentRepo struct {
	pool Pool
}

// NewAgentRepo creates a new AgentRepo.
func NewAgentRepo(pool Pool) *AgentRepo {
	return &AgentRepo{pool: pool}
}

// Create inserts a new agent. The ledger account link is made separately.
func (r *AgentRepo) Create(ctx context.Context, agent *domain.Agent) error {
	var code *string
	if agent.AccountCode != nil {
		s := string(*agent.AccountCode)
		code = &s
	}

	_, err := r.pool.Exec(ctx,
		`INSERT INTO agents (id, name, phone, governorate, account_code, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		agent.ID, agent.Name, agent.Phone, agent.Governorate, code, agent.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert agent: %w", err)
	}
	return nil
}

// GetByID fetches an agent by UUID, or nil when absent.
func (r *AgentRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Agent, error) {
	a := &domain.Agent{}
	var code *string
	err := r.pool.QueryRow(ctx,
		`SELECT id, name, phone, governorate, account_code, created_at FROM agents WHERE id = $1`,
		id,
	).Scan(&a.ID, &a.Name, &a.Phone, &a.Governorate, &code, &a.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get agent by id: %w", err)
	}
	if code != nil {
		ac := domain.AccountCode(*code)
		a.AccountCode = &ac
	}
	return a, nil
}

// LinkAccount binds an agent to its ledger account.
func (r *AgentRepo) LinkAccount(ctx context.Context, agentID uuid.UUID, code domain.AccountCode) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE agents SET account_code = $2 WHERE id = $1`,
		agentID, string(code),
	)
	if err != nil {
		return fmt.Errorf("link agent account: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("agent not found: %s", agentID)
	}
	return nil
}
