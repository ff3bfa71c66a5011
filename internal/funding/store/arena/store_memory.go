// Package arena keeps the registry's keyed collection of project instances.
//
// Each entry is one independently mutable funding campaign plus the bcrypt
// hash of the instance key the registry issued at creation. Implementations
// provide Execute: run a function against a private copy of the aggregate
// while holding that instance's guard, committing the copy only on success.
// The guard spans the whole call, including any external asset-transfer the
// function performs, so a hostile transfer hook that calls back into the
// same instance is rejected instead of observing half-applied state.
package arena

import (
	"context"
	"sync"

	"givepool/internal/funding/models"
	id "givepool/pkg/domain"
	"givepool/pkg/platform/sentinel"
)

type entry struct {
	project *models.Project
	keyHash string
	// inCall is the per-instance reentrancy guard. Scope is this entry
	// only, never the whole arena.
	inCall bool
}

// InMemory is the in-memory arena. Suitable for single-process deployments
// and tests; use Postgres for durability.
type InMemory struct {
	mu      sync.Mutex
	nextID  uint64
	entries map[id.ProjectID]*entry
}

func NewInMemory() *InMemory {
	return &InMemory{
		nextID:  1,
		entries: make(map[id.ProjectID]*entry),
	}
}

// NextID allocates the next sequential project id. IDs start at 1 and are
// never reused; callers must finish validation before allocating so failed
// attempts do not consume ids.
func (s *InMemory) NextID(ctx context.Context) (id.ProjectID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	allocated := id.ProjectID(s.nextID)
	s.nextID++
	return allocated, nil
}

// Create registers a freshly initialized project instance under its id.
// Returns ErrAlreadyUsed when the id is already registered.
func (s *InMemory) Create(ctx context.Context, project *models.Project, keyHash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.entries[project.ID]; exists {
		return sentinel.ErrAlreadyUsed
	}
	s.entries[project.ID] = &entry{project: project.Clone(), keyHash: keyHash}
	return nil
}

// Find returns a snapshot of the aggregate. Mutating the result does not
// affect stored state.
func (s *InMemory) Find(ctx context.Context, projectID id.ProjectID) (*models.Project, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[projectID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return e.project.Clone(), nil
}

// KeyHash returns the bcrypt hash of the instance key issued at creation.
func (s *InMemory) KeyHash(ctx context.Context, projectID id.ProjectID) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[projectID]
	if !ok {
		return "", sentinel.ErrNotFound
	}
	return e.keyHash, nil
}

// Count returns the number of registered instances.
func (s *InMemory) Count(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries), nil
}

// Execute runs fn against a private copy of the aggregate while holding the
// instance guard, and commits the copy only when fn returns nil. A failing
// fn leaves the stored aggregate untouched (all-or-nothing). Returns ErrBusy
// when the guard is already held, which is how reentrant invocation through
// an external transfer hook is rejected.
func (s *InMemory) Execute(ctx context.Context, projectID id.ProjectID, fn func(p *models.Project) error) (*models.Project, error) {
	s.mu.Lock()
	e, ok := s.entries[projectID]
	if !ok {
		s.mu.Unlock()
		return nil, sentinel.ErrNotFound
	}
	if e.inCall {
		s.mu.Unlock()
		return nil, sentinel.ErrBusy
	}
	e.inCall = true
	working := e.project.Clone()
	s.mu.Unlock()

	// The guard stays held across fn, which may call out to an asset
	// transfer provider with arbitrary side effects.
	err := fn(working)

	s.mu.Lock()
	e.inCall = false
	if err == nil {
		e.project = working
	}
	s.mu.Unlock()

	if err != nil {
		return nil, err
	}
	return working.Clone(), nil
}
