package commands

import (
	"context"
	"errors"

	gocommand "github.com/goliatone/go-command"
	"github.com/goliatone/go-rwadmin/components/editor"
)

// SwitchModeInput requests a mode change. Result, when set, receives the
// outcome once the confirmer has answered.
type SwitchModeInput struct {
	SessionID string             `json:"session_id"`
	Mode      string             `json:"mode"`
	Result    *editor.ModeResult `json:"-"`
}

type modeService interface {
	SwitchMode(ctx context.Context, id string, target editor.Mode) (editor.ModeResult, error)
}

// SwitchModeCommand runs a guarded mode switch. It blocks until the
// confirmer decides.
type SwitchModeCommand struct {
	service   modeService
	telemetry Telemetry
}

// NewSwitchModeCommand creates a command instance.
func NewSwitchModeCommand(service modeService, telemetry Telemetry) *SwitchModeCommand {
	return &SwitchModeCommand{service: service, telemetry: normalizeTelemetry(telemetry)}
}

var _ gocommand.Commander[SwitchModeInput] = (*SwitchModeCommand)(nil)

// Execute asks for confirmation and switches when accepted.
func (c *SwitchModeCommand) Execute(ctx context.Context, msg SwitchModeInput) error {
	if c.service == nil {
		return errors.New("mode command requires service")
	}
	target, err := editor.ParseMode(msg.Mode)
	if err != nil {
		return err
	}
	result, err := c.service.SwitchMode(ctx, msg.SessionID, target)
	if err != nil {
		return err
	}
	if msg.Result != nil {
		*msg.Result = result
	}
	c.telemetry.Record(ctx, "rwadmin.mode.switch", map[string]any{
		"session":  msg.SessionID,
		"mode":     string(result.Mode),
		"decision": string(result.Decision),
	})
	return nil
}

// ResolveConfirmationInput answers a pending prompt.
type ResolveConfirmationInput struct {
	PromptID string `json:"prompt_id"`
	Decision string `json:"decision"`
}

type resolveService interface {
	ResolveConfirmation(ctx context.Context, promptID string, decision editor.Decision) error
}

// ResolveConfirmationCommand delivers the user's answer to a waiting switch.
type ResolveConfirmationCommand struct {
	service   resolveService
	telemetry Telemetry
}

// NewResolveConfirmationCommand creates a command instance.
func NewResolveConfirmationCommand(service resolveService, telemetry Telemetry) *ResolveConfirmationCommand {
	return &ResolveConfirmationCommand{service: service, telemetry: normalizeTelemetry(telemetry)}
}

var _ gocommand.Commander[ResolveConfirmationInput] = (*ResolveConfirmationCommand)(nil)

// Execute resolves the prompt.
func (c *ResolveConfirmationCommand) Execute(ctx context.Context, msg ResolveConfirmationInput) error {
	if c.service == nil {
		return errors.New("resolve command requires service")
	}
	decision := editor.Decision(msg.Decision)
	if !decision.Valid() {
		return editor.ErrUnknownConfirmation
	}
	if err := c.service.ResolveConfirmation(ctx, msg.PromptID, decision); err != nil {
		return err
	}
	c.telemetry.Record(ctx, "rwadmin.mode.confirm", map[string]any{
		"prompt":   msg.PromptID,
		"decision": msg.Decision,
	})
	return nil
}
