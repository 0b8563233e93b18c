package editor

import (
	"context"
	"sync"
	"time"

	"github.com/goliatone/go-rwadmin/components/preview"
)

// Session is one mounted step: the step, its parent form controller and the
// derived mode and preview state.
type Session struct {
	ID         string
	Kind       StepKind
	ResourceID string
	OpenedAt   time.Time

	step    Step
	form    *FormController
	preview *preview.Preview

	mu         sync.Mutex
	mode       Mode
	user       Viewer
	query      map[string]string
	datasets   []Option
	showEditor bool
	pending    []FormState
	malformed  map[string]any
}

// Snapshot is the state of a session after an operation.
type Snapshot struct {
	ID         string              `json:"id"`
	Kind       StepKind            `json:"kind"`
	ResourceID string              `json:"resource_id,omitempty"`
	Mode       Mode                `json:"mode,omitempty"`
	Form       FormState           `json:"form"`
	View       View                `json:"view"`
	Errors     map[string][]string `json:"errors,omitempty"`
	Changed    FormState           `json:"changed,omitempty"`
}

// Mode returns the current mode.
func (s *Session) Mode() Mode {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mode
}

// Form returns a copy of the current form state.
func (s *Session) Form() FormState {
	return s.form.State()
}

func (s *Session) setMode(mode Mode) {
	s.mu.Lock()
	s.mode = mode
	s.mu.Unlock()
}

// propsLocked builds render props whose callbacks queue partial updates.
// Callers hold s.mu.
func (s *Session) propsLocked() StepProps {
	return StepProps{
		Form:     s.form.State(),
		Datasets: s.datasets,
		Mode:     s.mode,
		OnChange: func(partial FormState) {
			s.pending = append(s.pending, partial)
		},
		ID:         s.ResourceID,
		User:       s.user,
		Query:      s.query,
		ShowEditor: s.showEditor,
	}
}

// renderLocked runs one render pass and replays malformed inputs so their
// marks survive the registry rebuild.
func (s *Session) renderLocked() View {
	view := s.step.Render(s.propsLocked())
	reg := s.step.Registry()
	for name, raw := range s.malformed {
		field, ok := reg.Get(name)
		if !ok {
			continue
		}
		_ = field.OnChange(raw)
		view = patchDescriptor(view, field)
	}
	s.pending = nil
	return view
}

// changeLocked routes raw input through the field called name and returns the
// partial updates it produced.
func (s *Session) changeLocked(name string, raw any) ([]FormState, error) {
	s.renderLocked()
	field, ok := s.step.Registry().Get(name)
	if !ok {
		return nil, ErrUnknownField
	}
	if err := field.OnChange(raw); err != nil {
		return nil, err
	}
	if m, ok := field.(malformedReporter); ok && m.Malformed() {
		if s.malformed == nil {
			s.malformed = map[string]any{}
		}
		s.malformed[name] = raw
	} else {
		delete(s.malformed, name)
	}
	partials := s.pending
	s.pending = nil
	return partials, nil
}

func (s *Session) snapshotLocked() Snapshot {
	view := s.renderLocked()
	return Snapshot{
		ID:         s.ID,
		Kind:       s.Kind,
		ResourceID: s.ResourceID,
		Mode:       s.mode,
		Form:       s.form.State(),
		View:       view,
		Errors:     s.step.Registry().ValidateAll(),
	}
}

func (s *Session) applyLocked(ctx context.Context, partials []FormState) (FormState, error) {
	changed := FormState{}
	for _, partial := range partials {
		if _, err := s.form.Apply(ctx, partial); err != nil {
			return changed, err
		}
		// A value set by any path supersedes a rejected raw input.
		for key := range partial {
			delete(s.malformed, key)
		}
		changed = changed.Merge(partial)
	}
	return changed, nil
}

func patchDescriptor(view View, field Field) View {
	desc := field.Descriptor()
	desc.Errors = field.Validate()
	for i := range view.Fieldsets {
		for j := range view.Fieldsets[i].Fields {
			if view.Fieldsets[i].Fields[j].Name == desc.Name {
				view.Fieldsets[i].Fields[j] = desc
			}
		}
	}
	return view
}
