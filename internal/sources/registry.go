// Package sources keeps the data-source clients a pipeline run may use.
package sources

import (
	"sort"
	"sync"

	"github.com/wonny/marketpipe/internal/contracts"
)

// Well-known source ids
const (
	YahooFinance = "yahoo_finance"
	AlphaVantage = "alpha_vantage"
	Naver        = "naver"

	// Primary and Secondary are role aliases for the default clients
	Primary   = "primary"
	Secondary = "secondary"
)

// Registry maps source ids (and aliases) to clients
type Registry struct {
	mu      sync.RWMutex
	sources map[string]contracts.PriceSource
	aliases map[string]string
}

// NewRegistry registers the given sources under their own ids
func NewRegistry(srcs ...contracts.PriceSource) *Registry {
	r := &Registry{
		sources: make(map[string]contracts.PriceSource),
		aliases: make(map[string]string),
	}
	for _, s := range srcs {
		r.Register(s)
	}
	return r
}

// Register adds or replaces a source under its id
func (r *Registry) Register(s contracts.PriceSource) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sources[s.ID()] = s
}

// RegisterAs adds a source under an explicit id, e.g. "primary" in tests
func (r *Registry) RegisterAs(id string, s contracts.PriceSource) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sources[id] = s
}

// Alias makes alias resolve to target
func (r *Registry) Alias(alias, target string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.aliases[alias] = target
}

// Get resolves an id or alias
func (r *Registry) Get(id string) (contracts.PriceSource, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if s, ok := r.sources[id]; ok {
		return s, true
	}
	if target, ok := r.aliases[id]; ok {
		s, ok := r.sources[target]
		return s, ok
	}
	return nil, false
}

// Info describes a registered source for listings
type Info struct {
	ID             string `json:"id"`
	AliasOf        string `json:"alias_of,omitempty"`
	RequiresAPIKey bool   `json:"requires_api_key"`
	Authoritative  bool   `json:"authoritative"`
}

// List returns registered sources and aliases sorted by id
func (r *Registry) List() []Info {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Info, 0, len(r.sources)+len(r.aliases))
	for id, s := range r.sources {
		info := Info{ID: id}
		if k, ok := s.(contracts.KeyedSource); ok {
			info.RequiresAPIKey = k.RequiresAPIKey()
		}
		if _, ok := s.(contracts.AuthoritativeSource); ok {
			info.Authoritative = true
		}
		out = append(out, info)
	}
	for alias, target := range r.aliases {
		out = append(out, Info{ID: alias, AliasOf: target})
	}

	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
