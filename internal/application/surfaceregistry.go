package application

import (
	"sync"

	"github.com/ericfisherdev/codeflow/internal/domain/port/driven"
)

// SurfaceRegistry is the explicitly owned set of live presentation surfaces.
// It is written by the adapters that create surfaces (HTTP connections, the
// terminal UI) and read by the PollService when publishing.
type SurfaceRegistry struct {
	mu       sync.RWMutex
	surfaces map[string]driven.Surface
	order    []string
}

// NewSurfaceRegistry creates an empty registry.
func NewSurfaceRegistry() *SurfaceRegistry {
	return &SurfaceRegistry{surfaces: make(map[string]driven.Surface)}
}

// Register adds a surface. Registering an ID twice replaces the earlier surface.
func (r *SurfaceRegistry) Register(s driven.Surface) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.surfaces[s.ID()]; !exists {
		r.order = append(r.order, s.ID())
	}
	r.surfaces[s.ID()] = s
}

// Unregister removes the surface with the given ID. Unknown IDs are ignored.
func (r *SurfaceRegistry) Unregister(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.surfaces[id]; !exists {
		return
	}
	delete(r.surfaces, id)
	for i, existing := range r.order {
		if existing == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
}

// Get returns the surface with the given ID or driven.ErrSurfaceNotFound.
func (r *SurfaceRegistry) Get(id string) (driven.Surface, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.surfaces[id]
	if !ok {
		return nil, driven.ErrSurfaceNotFound
	}
	return s, nil
}

// All returns every registered surface in registration order.
func (r *SurfaceRegistry) All() []driven.Surface {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]driven.Surface, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.surfaces[id])
	}
	return out
}

// Visible returns the surfaces that report themselves visible right now.
func (r *SurfaceRegistry) Visible() []driven.Surface {
	all := r.All()
	visible := all[:0]
	for _, s := range all {
		if s.Visible() {
			visible = append(visible, s)
		}
	}
	return visible
}

// Len returns the number of registered surfaces.
func (r *SurfaceRegistry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.surfaces)
}

// Clear drops every surface reference.
func (r *SurfaceRegistry) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.surfaces = make(map[string]driven.Surface)
	r.order = nil
}
