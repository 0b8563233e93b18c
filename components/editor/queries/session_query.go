package queries

import (
	"context"
	"errors"

	gocommand "github.com/goliatone/go-command"
	"github.com/goliatone/go-rwadmin/components/editor"
	"github.com/goliatone/go-rwadmin/components/preview"
)

// SessionInput identifies an editing session.
type SessionInput struct {
	SessionID string `json:"session_id"`
}

type snapshotService interface {
	Snapshot(ctx context.Context, id string) (editor.Snapshot, error)
}

// SnapshotQuery returns the current view and form of a session.
type SnapshotQuery struct {
	service snapshotService
}

// NewSnapshotQuery builds the query.
func NewSnapshotQuery(service snapshotService) *SnapshotQuery {
	return &SnapshotQuery{service: service}
}

var _ gocommand.Querier[SessionInput, editor.Snapshot] = (*SnapshotQuery)(nil)

// Query renders the session.
func (q *SnapshotQuery) Query(ctx context.Context, input SessionInput) (editor.Snapshot, error) {
	return q.service.Snapshot(ctx, input.SessionID)
}

// PreviewInput requests a preview. Refresh forces a render even when the
// configuration did not change.
type PreviewInput struct {
	SessionID string `json:"session_id"`
	Refresh   bool   `json:"refresh"`
}

type previewService interface {
	Preview(ctx context.Context, id string, refresh bool) (preview.Result, error)
}

// PreviewQuery renders the session's configuration preview.
type PreviewQuery struct {
	service previewService
}

// NewPreviewQuery builds the query.
func NewPreviewQuery(service previewService) *PreviewQuery {
	return &PreviewQuery{service: service}
}

var _ gocommand.Querier[PreviewInput, preview.Result] = (*PreviewQuery)(nil)

// Query renders the preview.
func (q *PreviewQuery) Query(ctx context.Context, input PreviewInput) (preview.Result, error) {
	return q.service.Preview(ctx, input.SessionID, input.Refresh)
}

// Validation summarizes the failing fields of a session. Layer is set for
// layer sessions only.
type Validation struct {
	Valid  bool                 `json:"valid"`
	Errors map[string][]string  `json:"errors,omitempty"`
	Layer  *editor.ConfigStatus `json:"layer,omitempty"`
}

type validateService interface {
	Validate(ctx context.Context, id string) (map[string][]string, error)
	VerifyLayer(ctx context.Context, id string) (editor.ConfigStatus, error)
}

// ValidateQuery runs every field validator of a session.
type ValidateQuery struct {
	service validateService
}

// NewValidateQuery builds the query.
func NewValidateQuery(service validateService) *ValidateQuery {
	return &ValidateQuery{service: service}
}

var _ gocommand.Querier[SessionInput, Validation] = (*ValidateQuery)(nil)

// Query validates the session.
func (q *ValidateQuery) Query(ctx context.Context, input SessionInput) (Validation, error) {
	errs, err := q.service.Validate(ctx, input.SessionID)
	if err != nil {
		return Validation{}, err
	}
	out := Validation{Valid: len(errs) == 0, Errors: errs}
	status, err := q.service.VerifyLayer(ctx, input.SessionID)
	switch {
	case err == nil:
		out.Layer = &status
		out.Valid = out.Valid && status.Valid
	case errors.Is(err, editor.ErrNotLayerStep):
	default:
		return Validation{}, err
	}
	return out, nil
}

type htmlService interface {
	RenderHTML(ctx context.Context, id string) (string, error)
}

// HTMLQuery renders the session's step markup.
type HTMLQuery struct {
	service htmlService
}

// NewHTMLQuery builds the query.
func NewHTMLQuery(service htmlService) *HTMLQuery {
	return &HTMLQuery{service: service}
}

var _ gocommand.Querier[SessionInput, string] = (*HTMLQuery)(nil)

// Query renders markup.
func (q *HTMLQuery) Query(ctx context.Context, input SessionInput) (string, error) {
	return q.service.RenderHTML(ctx, input.SessionID)
}
