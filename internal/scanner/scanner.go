package scanner

import (
	"context"
	"fmt"
	"sort"

	"OpportunityRadar/internal/domain"
)

// Adapter captures a single fetch strategy (RSS, job board, forum, etc.).
// An adapter turns one configured source into normalized raw items; it must
// tolerate individual malformed entries and only fail on total breakdown.
type Adapter interface {
	Type() string
	Fetch(ctx context.Context, src domain.Source) ([]domain.RawItem, error)
}

// Registry keeps a mapping from source types to their adapters.
type Registry struct {
	adapters map[string]Adapter
}

// NewRegistry builds an empty registry.
func NewRegistry() *Registry {
	return &Registry{adapters: map[string]Adapter{}}
}

// Register adds or replaces an adapter implementation.
func (r *Registry) Register(adapter Adapter) {
	if r.adapters == nil {
		r.adapters = map[string]Adapter{}
	}
	r.adapters[adapter.Type()] = adapter
}

// Resolve returns the adapter for a source type or ErrInvalidSourceType.
func (r *Registry) Resolve(sourceType string) (Adapter, error) {
	if adapter, ok := r.adapters[sourceType]; ok {
		return adapter, nil
	}
	return nil, fmt.Errorf("%w: %s", domain.ErrInvalidSourceType, sourceType)
}

// Types lists registered source types in stable order.
func (r *Registry) Types() []string {
	types := make([]string, 0, len(r.adapters))
	for t := range r.adapters {
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}
