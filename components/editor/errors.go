package editor

import "errors"

var (
	ErrUnknownMode         = errors.New("editor: unknown mode")
	ErrUnknownStep         = errors.New("editor: unknown step kind")
	ErrUnknownField        = errors.New("editor: unknown field")
	ErrFieldDisabled       = errors.New("editor: field is disabled")
	ErrSessionNotFound     = errors.New("editor: session not found")
	ErrUnknownConfirmation = errors.New("editor: unknown confirmation")
	ErrMissingRenderer     = errors.New("editor: view renderer not configured")
	ErrNotLayerStep        = errors.New("editor: session does not edit a layer")
	errEmptyFieldName      = errors.New("editor: field name is required")
)
