package application

import (
	"sync"

	"github.com/ericfisherdev/codeflow/internal/domain/port/driven"
)

// DashboardSourceProvider enables runtime hot-swap of the dashboard data
// source. It holds a mutex-protected reference to the current source and the
// GitHub username it was authenticated as, so a new token takes effect
// without restarting the application.
type DashboardSourceProvider struct {
	mu       sync.RWMutex
	source   driven.DashboardSource
	username string
}

// NewDashboardSourceProvider creates a provider with the given initial source
// and username. source may be nil if no credentials are available at startup.
func NewDashboardSourceProvider(source driven.DashboardSource, username string) *DashboardSourceProvider {
	return &DashboardSourceProvider{
		source:   source,
		username: username,
	}
}

// Get returns the current source, or nil if none has been configured.
func (p *DashboardSourceProvider) Get() driven.DashboardSource {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.source
}

// Username returns the GitHub login associated with the current source.
func (p *DashboardSourceProvider) Username() string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.username
}

// Replace swaps the current source and username. The next caller of Get()
// receives the new source.
func (p *DashboardSourceProvider) Replace(source driven.DashboardSource, username string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.source = source
	p.username = username
}

// HasSource returns true if a non-nil source is currently held.
func (p *DashboardSourceProvider) HasSource() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.source != nil
}
