package service

import (
	"ColdVault/internal/apperr"
	"ColdVault/internal/storage"
	"ColdVault/model"
)

// Storage tier identifiers. Photos tolerate slow restores, so they are
// recommended to the cheapest, deepest tier; videos and everything else
// get the faster standard tier.
const (
	TierDeepArchive = "deep-archive"
	TierStandard    = "standard"
)

var categoryTier = map[model.FileCategory]string{
	model.CategoryPhoto: TierDeepArchive,
	model.CategoryVideo: TierStandard,
	model.CategoryMisc:  TierStandard,
}

// Selector resolves which registered backend should hold a file. Pure:
// no I/O, no side effects, fully determined by the registry and inputs.
type Selector struct {
	registry *storage.Registry
	// canonical provider name per tier, usually derived from the
	// provider registry configuration
	tierProvider map[string]string
}

// NewSelector builds a selector over a non-empty registry with the given
// tier-to-provider-name mapping.
func NewSelector(registry *storage.Registry, tierProvider map[string]string) (*Selector, error) {
	if registry == nil || registry.Len() == 0 {
		return nil, apperr.New(apperr.NoProvidersAvailable, "no storage providers registered")
	}
	if tierProvider == nil {
		tierProvider = map[string]string{}
	}
	return &Selector{registry: registry, tierProvider: tierProvider}, nil
}

// Select picks a backend for a file. An explicit preference naming a
// registered provider wins outright, even against the category's
// recommended tier. Otherwise the provider serving the category's tier is
// used when registered, and the first registered provider is the final
// fallback.
func (s *Selector) Select(category model.FileCategory, size int64, preference string) (storage.Provider, error) {
	if s.registry.Len() == 0 {
		return nil, apperr.New(apperr.NoProvidersAvailable, "no storage providers registered")
	}
	if preference != "" {
		if p, ok := s.registry.Get(preference); ok {
			return p, nil
		}
	}
	if name, ok := s.tierProvider[categoryTier[category]]; ok {
		if p, ok := s.registry.Get(name); ok {
			return p, nil
		}
	}
	return s.registry.All()[0], nil
}
