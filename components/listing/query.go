package listing

import (
	"context"
	"net/url"
	"sort"
	"strconv"
)

// Query identifies one list request. Its Key correlates responses with the
// parameters that produced them.
type Query struct {
	Namespace string
	Page      int
	PageSize  int
	Filters   map[string]string
}

// Key is deterministic for equal queries, whatever the map order.
func (q Query) Key() string {
	values := url.Values{}
	keys := make([]string, 0, len(q.Filters))
	for k := range q.Filters {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if v := q.Filters[k]; v != "" {
			values.Set("filter["+k+"]", v)
		}
	}
	values.Set("page", strconv.Itoa(q.Page))
	values.Set("size", strconv.Itoa(q.PageSize))
	return q.Namespace + "?" + values.Encode()
}

// Clone copies the query and its filters.
func (q Query) Clone() Query {
	filters := make(map[string]string, len(q.Filters))
	for k, v := range q.Filters {
		filters[k] = v
	}
	q.Filters = filters
	return q
}

// Page is one fetched page.
type Page[T any] struct {
	Items []T
	Meta  Meta
}

// Source fetches one page.
type Source[T any] func(ctx context.Context, q Query) (Page[T], error)
