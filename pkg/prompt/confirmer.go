// Package prompt answers editor confirmations from an interactive terminal.
package prompt

import (
	"context"
	"errors"

	"github.com/AlecAivazis/survey/v2"
	"github.com/AlecAivazis/survey/v2/terminal"
	"github.com/goliatone/go-rwadmin/components/editor"
)

// AskFunc asks one survey prompt. It matches survey.AskOne.
type AskFunc func(p survey.Prompt, response any, opts ...survey.AskOpt) error

// SurveyConfirmer asks yes/no questions on the terminal. An interrupted
// prompt counts as a cancel.
type SurveyConfirmer struct {
	Help string
	ask  AskFunc
	opts []survey.AskOpt
}

// Option customizes a SurveyConfirmer.
type Option func(*SurveyConfirmer)

// WithAsk replaces the prompt function.
func WithAsk(fn AskFunc) Option {
	return func(c *SurveyConfirmer) {
		if fn != nil {
			c.ask = fn
		}
	}
}

// WithStdio routes prompts through the given terminal streams.
func WithStdio(in terminal.FileReader, out terminal.FileWriter, errOut terminal.FileWriter) Option {
	return func(c *SurveyConfirmer) {
		c.opts = append(c.opts, survey.WithStdio(in, out, errOut))
	}
}

// NewSurveyConfirmer creates a confirmer backed by survey.
func NewSurveyConfirmer(opts ...Option) *SurveyConfirmer {
	c := &SurveyConfirmer{
		Help: "Declining keeps the current mode.",
		ask:  survey.AskOne,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Confirm implements editor.Confirmer.
func (c *SurveyConfirmer) Confirm(ctx context.Context, p editor.Prompt) (editor.Decision, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	var ok bool
	q := &survey.Confirm{Message: p.Message, Help: c.Help}
	if err := c.ask(q, &ok, c.opts...); err != nil {
		if errors.Is(err, terminal.InterruptErr) {
			return editor.Declined, nil
		}
		return "", err
	}
	if ok {
		return editor.Accepted, nil
	}
	return editor.Declined, nil
}
