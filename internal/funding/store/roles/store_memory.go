// Package roles persists registry role membership.
package roles

import (
	"context"
	"sync"

	"givepool/internal/funding/models"
	id "givepool/pkg/domain"
)

// InMemory tracks role grants per account.
type InMemory struct {
	mu     sync.RWMutex
	grants map[id.AccountID]map[models.Role]bool
}

func NewInMemory() *InMemory {
	return &InMemory{grants: make(map[id.AccountID]map[models.Role]bool)}
}

// Grant adds a role to an account. Granting twice is a no-op.
func (s *InMemory) Grant(ctx context.Context, account id.AccountID, role models.Role) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.grants[account] == nil {
		s.grants[account] = make(map[models.Role]bool)
	}
	s.grants[account][role] = true
	return nil
}

// Revoke removes a role from an account. Revoking an absent role is a no-op.
func (s *InMemory) Revoke(ctx context.Context, account id.AccountID, role models.Role) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.grants[account], role)
	return nil
}

// Has reports whether the account holds the role.
func (s *InMemory) Has(ctx context.Context, account id.AccountID, role models.Role) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.grants[account][role], nil
}

// RolesOf lists the roles an account holds.
func (s *InMemory) RolesOf(ctx context.Context, account id.AccountID) ([]models.Role, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.Role
	for role, held := range s.grants[account] {
		if held {
			out = append(out, role)
		}
	}
	return out, nil
}
