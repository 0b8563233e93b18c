package editor

import (
	"context"

	"github.com/goliatone/go-rwadmin/pkg/rwapi"
)

// ResourceLoader fetches the saved form of an existing resource.
type ResourceLoader interface {
	LoadForm(ctx context.Context, kind StepKind, id string) (FormState, error)
}

// ResourceLoaderFunc adapts a function into a ResourceLoader.
type ResourceLoaderFunc func(ctx context.Context, kind StepKind, id string) (FormState, error)

// LoadForm calls fn.
func (fn ResourceLoaderFunc) LoadForm(ctx context.Context, kind StepKind, id string) (FormState, error) {
	return fn(ctx, kind, id)
}

// ResourceClient is the part of the API client that loads single resources.
type ResourceClient interface {
	FetchWidget(ctx context.Context, id string) (rwapi.Widget, error)
	FetchLayer(ctx context.Context, id string) (rwapi.Layer, error)
}

// NewAPILoader loads widget and layer forms through client. Other steps have
// nothing to load and open with the form they were given.
func NewAPILoader(client ResourceClient) ResourceLoader {
	return ResourceLoaderFunc(func(ctx context.Context, kind StepKind, id string) (FormState, error) {
		switch kind {
		case StepWidget:
			widget, err := client.FetchWidget(ctx, id)
			if err != nil {
				return nil, err
			}
			return FormState(widget.Form()), nil
		case StepLayer:
			layer, err := client.FetchLayer(ctx, id)
			if err != nil {
				return nil, err
			}
			return FormState(layer.Form()), nil
		}
		return nil, nil
	})
}
