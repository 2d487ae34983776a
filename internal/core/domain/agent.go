package domain

import (
	"time"

	"github.com/google/uuid"

	"remit-backoffice/pkg/apperror"
)

// Role of an authenticated principal. Auth itself is external; the core only
// consumes {user_id, role}.
type Role string

const (
	RoleAgent Role = "agent"
	RoleAdmin Role = "admin"
)

// Actor is the authenticated principal performing an operation.
type Actor struct {
	UserID uuid.UUID
	Role   Role
}

// IsAdmin reports whether the actor carries the admin role.
func (a Actor) IsAdmin() bool { return a.Role == RoleAdmin }

// Agent is an exchange-company branch that sends and receives transfers.
// An agent must be linked to exactly one ledger account before it can
// transact; AccountCode is nil until that link is made.
type Agent struct {
	ID          uuid.UUID    `json:"id"`
	Name        string       `json:"name"`
	Phone       string       `json:"phone,omitempty"`
	Governorate string       `json:"governorate,omitempty"`
	AccountCode *AccountCode `json:"account_code,omitempty"`
	CreatedAt   time.Time    `json:"created_at"`
}

// NewAgent validates and builds an agent record.
func NewAgent(name, phone, governorate string) (*Agent, error) {
	if name == "" {
		return nil, apperror.Validation("agent name is required")
	}
	return &Agent{
		ID:          uuid.New(),
		Name:        name,
		Phone:       phone,
		Governorate: governorate,
		CreatedAt:   time.Now().UTC(),
	}, nil
}

// LinkedAccount returns the agent's account code or an agent-not-linked
// error. No transfer may be created or received for an unlinked agent.
func (a *Agent) LinkedAccount() (AccountCode, error) {
	if a.AccountCode == nil || *a.AccountCode == "" {
		return "", apperror.ErrAgentNotLinked()
	}
	return *a.AccountCode, nil
}
