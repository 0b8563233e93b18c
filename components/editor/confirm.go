package editor

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/goliatone/go-rwadmin/components/events"
)

// PendingConfirmer turns confirmations into events for a connected browser and
// waits for the answer to arrive through Resolve.
type PendingConfirmer struct {
	hook    events.Hook
	mu      sync.Mutex
	pending map[string]chan Decision
	prompts map[string]Prompt
}

// NewPendingConfirmer publishes prompts through hook.
func NewPendingConfirmer(hook events.Hook) *PendingConfirmer {
	return &PendingConfirmer{
		hook:    events.Normalize(hook),
		pending: map[string]chan Decision{},
		prompts: map[string]Prompt{},
	}
}

// Confirm implements Confirmer. It blocks until Resolve is called for the
// prompt or ctx is done.
func (c *PendingConfirmer) Confirm(ctx context.Context, prompt Prompt) (Decision, error) {
	ch := make(chan Decision, 1)
	c.mu.Lock()
	c.pending[prompt.ID] = ch
	c.prompts[prompt.ID] = prompt
	c.mu.Unlock()
	defer c.forget(prompt.ID)

	err := c.hook.Publish(ctx, events.Event{
		Kind:    events.KindConfirm,
		Session: prompt.Session,
		Payload: map[string]any{
			"id":      prompt.ID,
			"message": prompt.Message,
			"from":    string(prompt.From),
			"to":      string(prompt.To),
		},
		EmittedAt: time.Now().UTC(),
	})
	if err != nil {
		return "", fmt.Errorf("editor: publish prompt: %w", err)
	}

	select {
	case decision := <-ch:
		return decision, nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

// Resolve answers a pending prompt.
func (c *PendingConfirmer) Resolve(id string, decision Decision) error {
	if !decision.Valid() {
		return fmt.Errorf("%w: decision %q", ErrUnknownConfirmation, decision)
	}
	c.mu.Lock()
	ch, ok := c.pending[id]
	if ok {
		delete(c.pending, id)
		delete(c.prompts, id)
	}
	c.mu.Unlock()
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownConfirmation, id)
	}
	ch <- decision
	return nil
}

// Pending returns prompts still waiting for an answer.
func (c *PendingConfirmer) Pending() []Prompt {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Prompt, 0, len(c.prompts))
	for _, p := range c.prompts {
		out = append(out, p)
	}
	return out
}

func (c *PendingConfirmer) forget(id string) {
	c.mu.Lock()
	delete(c.pending, id)
	delete(c.prompts, id)
	c.mu.Unlock()
}
