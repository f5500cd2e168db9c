package application

import (
	"sort"
	"sync"

	"github.com/ericfisherdev/adbudget/internal/domain/port/driven"
)

// BudgetClientProvider maps platform ids to their budget API clients. It is
// mutex-protected so a client can be replaced at runtime, for example after a
// base URL change, without restarting the application.
type BudgetClientProvider struct {
	mu      sync.RWMutex
	clients map[string]driven.BudgetClient
}

// NewBudgetClientProvider creates an empty provider.
func NewBudgetClientProvider() *BudgetClientProvider {
	return &BudgetClientProvider{
		clients: make(map[string]driven.BudgetClient),
	}
}

// Get returns the client registered for platformID.
func (p *BudgetClientProvider) Get(platformID string) (driven.BudgetClient, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	client, ok := p.clients[platformID]
	return client, ok
}

// Replace registers client for platformID, swapping out any previous one.
// A nil client removes the registration.
func (p *BudgetClientProvider) Replace(platformID string, client driven.BudgetClient) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if client == nil {
		delete(p.clients, platformID)
		return
	}
	p.clients[platformID] = client
}

// Platforms returns the ids that currently have a client, sorted.
func (p *BudgetClientProvider) Platforms() []string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	ids := make([]string, 0, len(p.clients))
	for id := range p.clients {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
