// Package allowlist persists the set of fungible assets approved for
// donations, plus the allow-all override. The native asset never appears
// here; it is implicitly allowed.
package allowlist

import (
	"context"
	"sort"
	"sync"

	id "givepool/pkg/domain"
)

// InMemory is the in-memory asset allowlist.
type InMemory struct {
	mu       sync.RWMutex
	assets   map[id.AssetID]bool
	allowAll bool
}

func NewInMemory() *InMemory {
	return &InMemory{assets: make(map[id.AssetID]bool)}
}

// Add approves an asset for donations.
func (s *InMemory) Add(ctx context.Context, asset id.AssetID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.assets[asset] = true
	return nil
}

// Remove withdraws approval. Removing an absent asset is a no-op.
func (s *InMemory) Remove(ctx context.Context, asset id.AssetID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.assets, asset)
	return nil
}

// Allowed reports whether donations in the asset are accepted. The native
// asset and the allow-all override both short-circuit to true.
func (s *InMemory) Allowed(ctx context.Context, asset id.AssetID) (bool, error) {
	if asset.IsNative() {
		return true, nil
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.allowAll {
		return true, nil
	}
	return s.assets[asset], nil
}

// SetAllowAll toggles the global override.
func (s *InMemory) SetAllowAll(ctx context.Context, allow bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.allowAll = allow
	return nil
}

// AllowAll reports the override state.
func (s *InMemory) AllowAll(ctx context.Context) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.allowAll, nil
}

// List returns the approved assets in lexical order.
func (s *InMemory) List(ctx context.Context) ([]id.AssetID, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]id.AssetID, 0, len(s.assets))
	for asset := range s.assets {
		out = append(out, asset)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out, nil
}
