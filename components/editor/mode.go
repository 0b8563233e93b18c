package editor

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

// Decision is the user's answer to a confirmation prompt.
type Decision string

const (
	Accepted Decision = "accepted"
	Declined Decision = "declined"
)

// Valid reports whether d is a known decision.
func (d Decision) Valid() bool {
	return d == Accepted || d == Declined
}

// Prompt is a confirmation request raised before a guarded transition.
type Prompt struct {
	ID      string `json:"id"`
	Session string `json:"session,omitempty"`
	Message string `json:"message"`
	From    Mode   `json:"from"`
	To      Mode   `json:"to"`
}

// Confirmer asks the user to accept or decline a prompt. It may block until the
// user answers; implementations must honor ctx cancellation.
type Confirmer interface {
	Confirm(ctx context.Context, prompt Prompt) (Decision, error)
}

// ConfirmerFunc adapts a function into a Confirmer.
type ConfirmerFunc func(ctx context.Context, prompt Prompt) (Decision, error)

// Confirm calls fn.
func (fn ConfirmerFunc) Confirm(ctx context.Context, prompt Prompt) (Decision, error) {
	return fn(ctx, prompt)
}

// StaticConfirmer always answers with the same decision.
type StaticConfirmer Decision

// Confirm implements Confirmer.
func (s StaticConfirmer) Confirm(context.Context, Prompt) (Decision, error) {
	return Decision(s), nil
}

// SwitchMessage is the confirmation text for a transition to target.
func SwitchMessage(target Mode) string {
	if target == ModeEditor {
		return "By switching you will start editing from scratch"
	}
	return "By switching you can edit your current widget but you can't go back to the editor"
}

// ModeSwitch guards transitions between modes behind a confirmation.
type ModeSwitch struct {
	Session      string
	Current      Mode
	Confirmer    Confirmer
	OnModeChange func(Mode)
}

// Request asks for confirmation to move to target. Accepting calls
// OnModeChange(target); declining calls OnModeChange(Current) so the parent
// re-asserts the previous mode. A confirmer error leaves everything untouched.
func (m ModeSwitch) Request(ctx context.Context, target Mode) (Decision, error) {
	if !target.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownMode, target)
	}
	if target == m.Current {
		return Accepted, nil
	}
	confirmer := m.Confirmer
	if confirmer == nil {
		confirmer = StaticConfirmer(Declined)
	}
	decision, err := confirmer.Confirm(ctx, Prompt{
		ID:      uuid.NewString(),
		Session: m.Session,
		Message: SwitchMessage(target),
		From:    m.Current,
		To:      target,
	})
	if err != nil {
		return "", fmt.Errorf("editor: confirm mode switch: %w", err)
	}
	if !decision.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownConfirmation, decision)
	}
	next := m.Current
	if decision == Accepted {
		next = target
	}
	if m.OnModeChange != nil {
		m.OnModeChange(next)
	}
	return decision, nil
}
