package editor

import (
	"context"
	"encoding/json"
	"sync"
)

// FormState maps field names to values. Values are strings, booleans or nested
// configuration objects.
type FormState map[string]any

// Merge returns a new state with every key of partial overwritten. Neither
// receiver nor partial is modified.
func (f FormState) Merge(partial FormState) FormState {
	out := make(FormState, len(f)+len(partial))
	for k, v := range f {
		out[k] = v
	}
	for k, v := range partial {
		out[k] = v
	}
	return out
}

// Clone returns a shallow copy.
func (f FormState) Clone() FormState {
	return f.Merge(nil)
}

// String returns the string stored under key.
func (f FormState) String(key string) string {
	s, _ := f[key].(string)
	return s
}

// Bool returns the boolean stored under key.
func (f FormState) Bool(key string) bool {
	b, _ := f[key].(bool)
	return b
}

// Map returns the configuration object stored under key, or nil.
func (f FormState) Map(key string) map[string]any {
	switch v := f[key].(type) {
	case map[string]any:
		return v
	case FormState:
		return map[string]any(v)
	}
	return nil
}

// FormStore persists form state between requests.
type FormStore interface {
	Load(ctx context.Context, id string) (FormState, bool, error)
	Save(ctx context.Context, id string, state FormState) error
	Delete(ctx context.Context, id string) error
}

// InMemoryFormStore keeps JSON snapshots of form state in memory.
type InMemoryFormStore struct {
	mu   sync.RWMutex
	data map[string][]byte
}

// NewInMemoryFormStore creates an empty store.
func NewInMemoryFormStore() *InMemoryFormStore {
	return &InMemoryFormStore{data: make(map[string][]byte)}
}

// Load implements FormStore.
func (s *InMemoryFormStore) Load(_ context.Context, id string) (FormState, bool, error) {
	s.mu.RLock()
	raw, ok := s.data[id]
	s.mu.RUnlock()
	if !ok {
		return nil, false, nil
	}
	var state FormState
	if err := json.Unmarshal(raw, &state); err != nil {
		return nil, false, err
	}
	return state, true, nil
}

// Save implements FormStore.
func (s *InMemoryFormStore) Save(_ context.Context, id string, state FormState) error {
	raw, err := json.Marshal(state)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.data[id] = raw
	s.mu.Unlock()
	return nil
}

// Delete implements FormStore.
func (s *InMemoryFormStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	delete(s.data, id)
	s.mu.Unlock()
	return nil
}

// FormController is the parent that owns persisted form state for one session.
// Steps only ever hand it partial updates.
type FormController struct {
	mu    sync.RWMutex
	id    string
	state FormState
	store FormStore
}

// NewFormController creates a controller seeded with initial state.
func NewFormController(id string, initial FormState, store FormStore) *FormController {
	if store == nil {
		store = NewInMemoryFormStore()
	}
	return &FormController{
		id:    id,
		state: initial.Clone(),
		store: store,
	}
}

// State returns a copy of the current state.
func (c *FormController) State() FormState {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state.Clone()
}

// Apply shallow-merges partial into the state and persists the result.
func (c *FormController) Apply(ctx context.Context, partial FormState) (FormState, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	next := c.state.Merge(partial)
	if err := c.store.Save(ctx, c.id, next); err != nil {
		return c.state.Clone(), err
	}
	c.state = next
	return next.Clone(), nil
}

// Persist writes the current state without changing it.
func (c *FormController) Persist(ctx context.Context) error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.store.Save(ctx, c.id, c.state)
}

// Discard removes persisted state.
func (c *FormController) Discard(ctx context.Context) error {
	return c.store.Delete(ctx, c.id)
}
