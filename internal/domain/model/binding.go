package model

import (
	"fmt"
	"sync"
)

// ProviderBinding holds the provider chosen for one requirement.
// It is set at most once per assembly pass and can be cleared.
type ProviderBinding struct {
	mu       sync.RWMutex
	provider *ComponentModel
}

// Provider returns the bound provider, or nil.
func (b *ProviderBinding) Provider() *ComponentModel {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.provider
}

// IsBound reports whether a provider is bound.
func (b *ProviderBinding) IsBound() bool {
	return b.Provider() != nil
}

// SetProvider binds p. Rebinding to a different provider without clearing
// first is an error.
func (b *ProviderBinding) SetProvider(p *ComponentModel) error {
	if p == nil {
		return fmt.Errorf("%w: nil provider", ErrModelRuntime)
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.provider != nil && b.provider != p {
		return fmt.Errorf("%w: provider already bound to %s", ErrModelRuntime, b.provider.Path())
	}
	b.provider = p
	return nil
}

// Clear removes the binding.
func (b *ProviderBinding) Clear() {
	b.mu.Lock()
	b.provider = nil
	b.mu.Unlock()
}
