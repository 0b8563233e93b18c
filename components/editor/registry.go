package editor

import (
	"strings"
	"sync"
)

// Registry maps field names to the field controllers of one step instance.
// Each step owns its registry; it is cleared at the start of every render pass.
type Registry struct {
	mu     sync.RWMutex
	fields map[string]Field
	order  []string
}

// NewRegistry builds an empty registry.
func NewRegistry() *Registry {
	return &Registry{fields: map[string]Field{}}
}

// Register stores a field. A field registered under an existing name replaces it.
func (r *Registry) Register(field Field) error {
	if field == nil || strings.TrimSpace(field.Name()) == "" {
		return errEmptyFieldName
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	name := field.Name()
	if _, exists := r.fields[name]; !exists {
		r.order = append(r.order, name)
	}
	r.fields[name] = field
	return nil
}

// Get returns the field registered under name.
func (r *Registry) Get(name string) (Field, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	field, ok := r.fields[name]
	return field, ok
}

// Names returns field names in registration order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]string(nil), r.order...)
}

// ValidateAll validates every field and returns only the failing ones.
func (r *Registry) ValidateAll() map[string][]string {
	r.mu.RLock()
	fields := make([]Field, 0, len(r.order))
	for _, name := range r.order {
		fields = append(fields, r.fields[name])
	}
	r.mu.RUnlock()
	out := map[string][]string{}
	for _, field := range fields {
		if violated := field.Validate(); len(violated) > 0 {
			out[field.Name()] = violated
		}
	}
	return out
}

// Valid reports whether every registered field passes validation.
func (r *Registry) Valid() bool {
	return len(r.ValidateAll()) == 0
}

// Reset removes every field.
func (r *Registry) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.fields = map[string]Field{}
	r.order = nil
}
