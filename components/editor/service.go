package editor

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/goliatone/go-rwadmin/components/events"
	"github.com/goliatone/go-rwadmin/components/preview"
	"github.com/goliatone/go-rwadmin/pkg/activity"
	"github.com/google/uuid"
)

// Options configures the editor service.
type Options struct {
	Store          FormStore
	Loader         ResourceLoader
	Validator      ConfigValidator
	Constraints    Constraints
	Templates      *TemplateCatalog
	LayerSchema    map[string]any
	Confirmer      Confirmer
	Telemetry      Telemetry
	ActivityHooks  activity.Hooks
	ActivityConfig activity.Config
	Logger         *slog.Logger
	Hook           events.Hook
	Renderer       *preview.Renderer
	Views          ViewRenderer
	Theme          string
	ResizeDebounce time.Duration
}

// OpenRequest mounts a step for one editing session. SessionID resumes a
// draft persisted under that id when the store has one. Otherwise an ID with
// no Form is loaded through the service's ResourceLoader.
type OpenRequest struct {
	SessionID  string            `json:"session_id,omitempty"`
	Kind       StepKind          `json:"kind"`
	ID         string            `json:"id,omitempty"`
	Form       FormState         `json:"form,omitempty"`
	Mode       Mode              `json:"mode,omitempty"`
	User       Viewer            `json:"user"`
	Query      map[string]string `json:"query,omitempty"`
	Datasets   []Option          `json:"datasets,omitempty"`
	ShowEditor *bool             `json:"show_editor,omitempty"`
}

// FieldInput is raw input for one field.
type FieldInput struct {
	Field string `json:"field"`
	Value any    `json:"value"`
}

// ModeResult reports the outcome of a guarded mode switch.
type ModeResult struct {
	Decision Decision `json:"decision"`
	Mode     Mode     `json:"mode"`
}

// Resolver answers prompts raised by an asynchronous confirmer.
type Resolver interface {
	Resolve(id string, decision Decision) error
}

// Service manages editing sessions.
type Service struct {
	opts      Options
	store     FormStore
	confirmer Confirmer
	telemetry Telemetry
	activity  *activity.Emitter
	logger    *slog.Logger
	hook      events.Hook
	renderer  *preview.Renderer
	views     ViewRenderer
	templates *TemplateCatalog
	validator ConfigValidator
	theme     string

	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewService constructs a service with safe defaults.
func NewService(opts Options) *Service {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	store := opts.Store
	if store == nil {
		store = NewInMemoryFormStore()
	}
	validator := opts.Validator
	if validator == nil {
		validator = NewJSONSchemaValidator()
	}
	if opts.Constraints == nil {
		opts.Constraints = DefaultConstraints(validator)
	}
	templates := opts.Templates
	if templates == nil {
		templates = DefaultTemplates()
	}
	confirmer := opts.Confirmer
	if confirmer == nil {
		confirmer = StaticConfirmer(Declined)
	}
	renderer := opts.Renderer
	if renderer == nil {
		renderer = preview.NewRenderer(preview.WithLogger(logger))
	}
	views := opts.Views
	if views == nil {
		if r, err := NewTemplateRenderer(); err == nil {
			views = r
		} else {
			logger.Warn("editor templates unavailable", "error", err)
		}
	}
	theme := opts.Theme
	if theme == "" {
		theme = preview.DefaultTheme
	}
	return &Service{
		opts:      opts,
		store:     store,
		confirmer: confirmer,
		telemetry: normalizeTelemetry(opts.Telemetry),
		activity:  activity.NewEmitter(opts.ActivityHooks, opts.ActivityConfig),
		logger:    logger,
		hook:      events.Normalize(opts.Hook),
		renderer:  renderer,
		views:     views,
		templates: templates,
		validator: validator,
		theme:     theme,
		sessions:  map[string]*Session{},
	}
}

// Templates exposes the widget template catalog.
func (s *Service) Templates() *TemplateCatalog { return s.templates }

// Open mounts a fresh step with its own registry.
func (s *Service) Open(ctx context.Context, req OpenRequest) (Snapshot, error) {
	step, err := s.newStep(req.Kind)
	if err != nil {
		return Snapshot{}, err
	}
	mode := req.Mode
	if mode == "" {
		mode = ModeAdvanced
	}
	if !mode.Valid() {
		return Snapshot{}, fmt.Errorf("%w: %q", ErrUnknownMode, mode)
	}
	id := strings.TrimSpace(req.SessionID)
	initial := req.Form.Clone()
	resumed := false
	if id != "" {
		stored, ok, err := s.store.Load(ctx, id)
		if err != nil {
			return Snapshot{}, fmt.Errorf("editor: load draft %s: %w", id, err)
		}
		if ok {
			initial = stored.Merge(nil)
			resumed = true
		}
	} else {
		id = uuid.NewString()
	}
	if !resumed && len(req.Form) == 0 && strings.TrimSpace(req.ID) != "" && s.opts.Loader != nil {
		loaded, err := s.opts.Loader.LoadForm(ctx, req.Kind, req.ID)
		if err != nil {
			return Snapshot{}, fmt.Errorf("editor: load %s %s: %w", req.Kind, req.ID, err)
		}
		if loaded != nil {
			initial = loaded.Clone()
		}
	}
	if req.Kind == StepWidget && initial.Map("widgetConfig") == nil {
		initial["widgetConfig"] = map[string]any{}
	}
	showEditor := true
	if req.ShowEditor != nil {
		showEditor = *req.ShowEditor
	}

	sess := &Session{
		ID:         id,
		Kind:       req.Kind,
		ResourceID: req.ID,
		OpenedAt:   time.Now().UTC(),
		step:       step,
		form:       NewFormController(id, initial, s.store),
		mode:       mode,
		user:       req.User,
		query:      req.Query,
		datasets:   req.Datasets,
		showEditor: showEditor,
	}
	sess.preview = s.newPreview(id)
	if err := sess.form.Persist(ctx); err != nil {
		return Snapshot{}, fmt.Errorf("editor: persist session %s: %w", id, err)
	}

	s.mu.Lock()
	s.sessions[id] = sess
	s.mu.Unlock()

	sess.mu.Lock()
	snap := sess.snapshotLocked()
	sess.mu.Unlock()

	s.telemetry.Record(ctx, EventSessionOpened, map[string]any{
		"session": id,
		"kind":    string(req.Kind),
		"mode":    string(mode),
	})
	s.emitActivity(ctx, sess, "session.open", nil)
	s.logger.DebugContext(ctx, "editor session opened", "session", id, "kind", req.Kind, "mode", mode)
	return snap, nil
}

// Session returns the session registered under id.
func (s *Service) Session(id string) (*Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	return sess, nil
}

// Snapshot re-renders the session without changing it.
func (s *Service) Snapshot(_ context.Context, id string) (Snapshot, error) {
	sess, err := s.Session(id)
	if err != nil {
		return Snapshot{}, err
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()
	return sess.snapshotLocked(), nil
}

// Change routes raw input through the named field. Whatever partial the field
// produces is merged into the form by the session's form controller.
func (s *Service) Change(ctx context.Context, id string, input FieldInput) (Snapshot, error) {
	sess, err := s.Session(id)
	if err != nil {
		return Snapshot{}, err
	}
	sess.mu.Lock()
	partials, err := sess.changeLocked(input.Field, input.Value)
	if err != nil {
		sess.mu.Unlock()
		return Snapshot{}, fmt.Errorf("editor: change %s: %w", input.Field, err)
	}
	changed, err := sess.applyLocked(ctx, partials)
	if err != nil {
		sess.mu.Unlock()
		return Snapshot{}, fmt.Errorf("editor: apply %s: %w", input.Field, err)
	}
	snap := sess.snapshotLocked()
	sess.mu.Unlock()

	snap.Changed = changed
	s.afterChange(ctx, sess, input.Field, changed)
	return snap, nil
}

// Apply merges a partial update directly, as the parent would.
func (s *Service) Apply(ctx context.Context, id string, partial FormState) (Snapshot, error) {
	sess, err := s.Session(id)
	if err != nil {
		return Snapshot{}, err
	}
	sess.mu.Lock()
	changed, err := sess.applyLocked(ctx, []FormState{partial})
	if err != nil {
		sess.mu.Unlock()
		return Snapshot{}, fmt.Errorf("editor: apply: %w", err)
	}
	snap := sess.snapshotLocked()
	sess.mu.Unlock()

	snap.Changed = changed
	s.afterChange(ctx, sess, "", changed)
	return snap, nil
}

// SwitchMode asks the confirmer before moving the session to target. The
// session lock is not held while waiting for the answer.
func (s *Service) SwitchMode(ctx context.Context, id string, target Mode) (ModeResult, error) {
	sess, err := s.Session(id)
	if err != nil {
		return ModeResult{}, err
	}
	current := sess.Mode()
	s.telemetry.Record(ctx, EventModeRequested, map[string]any{
		"session": id,
		"from":    string(current),
		"to":      string(target),
	})
	ms := ModeSwitch{
		Session:      id,
		Current:      current,
		Confirmer:    s.confirmer,
		OnModeChange: sess.setMode,
	}
	decision, err := ms.Request(ctx, target)
	if err != nil {
		return ModeResult{Mode: current}, err
	}
	result := ModeResult{Decision: decision, Mode: sess.Mode()}
	s.publish(ctx, events.KindModeChanged, id, map[string]any{
		"mode":     string(result.Mode),
		"decision": string(decision),
	})
	if decision == Accepted && current != target {
		s.emitActivity(ctx, sess, "mode.switch", map[string]any{"from": string(current), "to": string(target)})
	}
	s.logger.DebugContext(ctx, "editor mode request", "session", id, "mode", result.Mode, "decision", decision)
	return result, nil
}

// ResolveConfirmation answers a prompt raised by an asynchronous confirmer.
func (s *Service) ResolveConfirmation(_ context.Context, promptID string, decision Decision) error {
	resolver, ok := s.confirmer.(Resolver)
	if !ok {
		return fmt.Errorf("%w: confirmer does not accept answers", ErrUnknownConfirmation)
	}
	return resolver.Resolve(promptID, decision)
}

// Validate returns the failing fields of the session's step.
func (s *Service) Validate(_ context.Context, id string) (map[string][]string, error) {
	sess, err := s.Session(id)
	if err != nil {
		return nil, err
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()
	return sess.snapshotLocked().Errors, nil
}

// VerifyLayer checks the layer configuration of a layer session.
func (s *Service) VerifyLayer(ctx context.Context, id string) (ConfigStatus, error) {
	sess, err := s.Session(id)
	if err != nil {
		return ConfigStatus{}, err
	}
	layer, ok := sess.step.(*LayerStep)
	if !ok {
		return ConfigStatus{}, ErrNotLayerStep
	}
	status := layer.VerifyConfig(sess.Form())
	s.telemetry.Record(ctx, EventLayerVerified, map[string]any{"session": id, "valid": status.Valid})
	return status, nil
}

// Preview renders the session's configuration when it changed since the last
// render, or unconditionally when refresh is set.
func (s *Service) Preview(ctx context.Context, id string, refresh bool) (preview.Result, error) {
	sess, err := s.Session(id)
	if err != nil {
		return preview.Result{}, err
	}
	sess.mu.Lock()
	view := sess.renderLocked()
	sess.mu.Unlock()
	if view.Preview == "" {
		return preview.Result{Kind: preview.KindSkipped}, nil
	}
	res, rendered, err := sess.preview.Update(ctx, view.PreviewConfig)
	if err == nil && !rendered && refresh {
		res, err = sess.preview.Refresh(ctx)
	}
	if err != nil {
		return res, err
	}
	s.telemetry.Record(ctx, EventPreview, map[string]any{"session": id, "kind": string(res.Kind)})
	return res, nil
}

// Resize schedules a debounced preview refresh for the session.
func (s *Service) Resize(id string) error {
	sess, err := s.Session(id)
	if err != nil {
		return err
	}
	sess.preview.Resize()
	return nil
}

// RenderHTML renders the session's current view with the embedded templates.
func (s *Service) RenderHTML(ctx context.Context, id string) (string, error) {
	if s.views == nil {
		return "", ErrMissingRenderer
	}
	snap, err := s.Snapshot(ctx, id)
	if err != nil {
		return "", err
	}
	var result *preview.Result
	if snap.View.Preview != "" {
		res, err := s.Preview(ctx, id, false)
		if err != nil {
			return "", err
		}
		result = &res
	}
	return s.views.Render(StepTemplate, TemplateData(id, snap.View, result))
}

// Close discards the session and its persisted state.
func (s *Service) Close(ctx context.Context, id string) error {
	s.mu.Lock()
	sess, ok := s.sessions[id]
	delete(s.sessions, id)
	s.mu.Unlock()
	if !ok {
		return fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	if err := sess.form.Discard(ctx); err != nil {
		return fmt.Errorf("editor: discard session %s: %w", id, err)
	}
	s.telemetry.Record(ctx, EventSessionClosed, map[string]any{"session": id})
	s.emitActivity(ctx, sess, "session.close", nil)
	return nil
}

func (s *Service) newStep(kind StepKind) (Step, error) {
	switch kind {
	case StepWidget:
		return NewWidgetStep(s.templates, s.opts.Constraints), nil
	case StepLayer:
		return NewLayerStep(s.validator, s.opts.LayerSchema, s.opts.Constraints), nil
	case StepDataset:
		return NewDatasetStep(s.opts.Constraints), nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownStep, kind)
}

func (s *Service) newPreview(id string) *preview.Preview {
	options := []preview.PreviewOption{
		preview.WithTheme(s.theme),
		preview.WithLoadingCallback(func(loading bool) {
			s.publish(context.Background(), events.KindLoading, id, map[string]any{"loading": loading})
		}),
		preview.WithRenderCallback(func(res preview.Result, err error) {
			payload := map[string]any{"kind": string(res.Kind), "html": res.HTML}
			if err != nil {
				payload["error"] = err.Error()
			}
			s.publish(context.Background(), events.KindPreview, id, payload)
		}),
	}
	if s.opts.ResizeDebounce > 0 {
		options = append(options, preview.WithResizeDebounce(s.opts.ResizeDebounce))
	}
	return preview.NewPreview(s.renderer, options...)
}

func (s *Service) afterChange(ctx context.Context, sess *Session, field string, changed FormState) {
	if len(changed) == 0 {
		return
	}
	keys := make([]string, 0, len(changed))
	for k := range changed {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	s.publish(ctx, events.KindFormChanged, sess.ID, map[string]any{
		"field":   field,
		"keys":    keys,
		"partial": map[string]any(changed),
	})
	s.telemetry.Record(ctx, EventFieldChanged, map[string]any{
		"session": sess.ID,
		"field":   field,
		"keys":    keys,
	})
	s.emitActivity(ctx, sess, "form.change", map[string]any{"keys": keys})
}

func (s *Service) publish(ctx context.Context, kind, session string, payload map[string]any) {
	err := s.hook.Publish(ctx, events.Event{
		Kind:      kind,
		Session:   session,
		Payload:   payload,
		EmittedAt: time.Now().UTC(),
	})
	if err != nil {
		s.logger.WarnContext(ctx, "editor event publish failed", "session", session, "kind", kind, "error", err)
	}
}

func (s *Service) emitActivity(ctx context.Context, sess *Session, verb string, meta map[string]any) {
	if !s.activity.Enabled() {
		return
	}
	metadata := map[string]any{"session": sess.ID}
	for k, v := range meta {
		metadata[k] = v
	}
	err := s.activity.Emit(ctx, activity.Event{
		Verb:       string(sess.Kind) + "." + verb,
		ActorID:    sess.user.UserID,
		UserID:     sess.user.UserID,
		ObjectType: string(sess.Kind),
		ObjectID:   sess.ResourceID,
		Metadata:   metadata,
	})
	if err != nil {
		s.logger.WarnContext(ctx, "editor activity emit failed", "session", sess.ID, "verb", verb, "error", err)
	}
}
