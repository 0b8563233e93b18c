package queries

import (
	"context"

	gocommand "github.com/goliatone/go-command"
	"github.com/goliatone/go-rwadmin/components/listing"
)

// ListInput moves a list. Filters are applied first, then Search, then Page.
// A zero Page keeps the page the filters left the list on.
type ListInput struct {
	Page    int               `json:"page,omitempty"`
	Search  *string           `json:"search,omitempty"`
	Filters map[string]string `json:"filters,omitempty"`
}

// Pager is the part of listing.List a ListQuery drives.
type Pager[T any] interface {
	Load(ctx context.Context) error
	ChangePage(ctx context.Context, page int) error
	SearchNow(ctx context.Context, term string) error
	SetFilter(ctx context.Context, key, value string) error
	View() listing.View[T]
}

// ListQuery fetches a page of a paginated list.
type ListQuery[T any] struct {
	list Pager[T]
}

// NewListQuery builds the query.
func NewListQuery[T any](list Pager[T]) *ListQuery[T] {
	return &ListQuery[T]{list: list}
}

var _ gocommand.Querier[ListInput, listing.View[string]] = (*ListQuery[string])(nil)

// Query applies input and returns the resulting view.
func (q *ListQuery[T]) Query(ctx context.Context, input ListInput) (listing.View[T], error) {
	moved := false
	for key, value := range input.Filters {
		if err := q.list.SetFilter(ctx, key, value); err != nil {
			return q.list.View(), err
		}
		moved = true
	}
	if input.Search != nil {
		if err := q.list.SearchNow(ctx, *input.Search); err != nil {
			return q.list.View(), err
		}
		moved = true
	}
	if input.Page > 0 {
		if err := q.list.ChangePage(ctx, input.Page); err != nil {
			return q.list.View(), err
		}
		moved = true
	}
	if !moved {
		if err := q.list.Load(ctx); err != nil {
			return q.list.View(), err
		}
	}
	return q.list.View(), nil
}

// Erase hides the result type of a querier so lists of different row types
// can share one transport.
func Erase[I, O any](q gocommand.Querier[I, O]) gocommand.Querier[I, any] {
	return erased[I, O]{q: q}
}

type erased[I, O any] struct {
	q gocommand.Querier[I, O]
}

func (e erased[I, O]) Query(ctx context.Context, input I) (any, error) {
	return e.q.Query(ctx, input)
}
