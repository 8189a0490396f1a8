package param

import (
	"strings"
	"sync"
)

// Listener is told about every value written through SetNotifying.
// Calls happen synchronously on the writing goroutine.
type Listener interface {
	ParameterChanged(id uint32, value float64)
}

// ListenerFunc adapts a function to Listener.
type ListenerFunc func(id uint32, value float64)

// ParameterChanged calls f(id, value).
func (f ListenerFunc) ParameterChanged(id uint32, value float64) {
	f(id, value)
}

// Registry holds a component's parameters in registration order.
type Registry struct {
	params    map[uint32]*Parameter
	order     []uint32
	listeners []Listener
	mu        sync.RWMutex
}

// NewRegistry creates a new parameter registry
func NewRegistry() *Registry {
	return &Registry{
		params: make(map[uint32]*Parameter),
	}
}

// Add registers parameters. Duplicate IDs are ignored.
func (r *Registry) Add(params ...*Parameter) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, p := range params {
		if _, exists := r.params[p.ID]; exists {
			continue
		}
		r.params[p.ID] = p
		r.order = append(r.order, p.ID)
	}

	return nil
}

// Get retrieves a parameter by ID
func (r *Registry) Get(id uint32) *Parameter {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.params[id]
}

// GetByName finds a parameter by name or short name, ignoring case.
func (r *Registry) GetByName(name string) *Parameter {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, id := range r.order {
		p := r.params[id]
		if strings.EqualFold(p.Name, name) || strings.EqualFold(p.ShortName, name) {
			return p
		}
	}
	return nil
}

// GetByIndex retrieves a parameter by index
func (r *Registry) GetByIndex(index int32) *Parameter {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if index < 0 || index >= int32(len(r.order)) {
		return nil
	}
	return r.params[r.order[index]]
}

// Count returns the number of parameters
func (r *Registry) Count() int32 {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return int32(len(r.order))
}

// All returns all parameters in order
func (r *Registry) All() []*Parameter {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]*Parameter, len(r.order))
	for i, id := range r.order {
		result[i] = r.params[id]
	}
	return result
}

// Snapshot returns the normalized value of every parameter keyed by ID.
func (r *Registry) Snapshot() map[uint32]float64 {
	r.mu.RLock()
	defer r.mu.RUnlock()

	values := make(map[uint32]float64, len(r.params))
	for id, p := range r.params {
		values[id] = p.GetValue()
	}
	return values
}

// AddListener subscribes l to notifying writes.
func (r *Registry) AddListener(l Listener) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.listeners = append(r.listeners, l)
}

// SetNotifying writes a normalized value and then informs every listener,
// the way a host hears about an edit. It returns false if id is unknown.
func (r *Registry) SetNotifying(id uint32, value float64) bool {
	r.mu.RLock()
	p := r.params[id]
	listeners := r.listeners
	r.mu.RUnlock()

	if p == nil {
		return false
	}
	p.SetValue(value)
	stored := p.GetValue()
	for _, l := range listeners {
		l.ParameterChanged(id, stored)
	}
	return true
}
