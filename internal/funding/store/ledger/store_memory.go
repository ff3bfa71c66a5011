// Package ledger persists the registry's cross-project donation totals:
// cumulative amount per donor, the distinct-donor list in first-donation
// order, and the platform-wide counters.
package ledger

import (
	"context"
	"sync"

	"givepool/internal/funding/models"
	id "givepool/pkg/domain"
)

// InMemory is the in-memory global ledger.
type InMemory struct {
	mu            sync.RWMutex
	totals        map[id.AccountID]int64
	order         []id.AccountID
	donationCount int64
	totalRaised   int64
}

func NewInMemory() *InMemory {
	return &InMemory{
		totals: make(map[id.AccountID]int64),
	}
}

// Record accumulates one accepted donation into the global ledger. New
// donors join the distinct list at the end, preserving first-global-donation
// order. Totals only ever grow; refunds never reach this store.
func (s *InMemory) Record(ctx context.Context, donor id.AccountID, amount int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, known := s.totals[donor]; !known {
		s.order = append(s.order, donor)
	}
	s.totals[donor] += amount
	s.donationCount++
	s.totalRaised += amount
	return nil
}

// DonorTotal returns a donor's cumulative cross-project amount (0 if unknown).
func (s *InMemory) DonorTotal(ctx context.Context, donor id.AccountID) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.totals[donor], nil
}

// Snapshot returns the distinct-donor list in insertion order together with
// every donor's total. The ranking computation works off this copy.
func (s *InMemory) Snapshot(ctx context.Context) ([]id.AccountID, map[id.AccountID]int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	order := make([]id.AccountID, len(s.order))
	copy(order, s.order)
	totals := make(map[id.AccountID]int64, len(s.totals))
	for k, v := range s.totals {
		totals[k] = v
	}
	return order, totals, nil
}

// Stats returns the platform-wide counters.
func (s *InMemory) Stats(ctx context.Context) (models.GlobalStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return models.GlobalStats{
		DonationCount: s.donationCount,
		TotalRaised:   s.totalRaised,
		DonorCount:    int64(len(s.order)),
	}, nil
}
