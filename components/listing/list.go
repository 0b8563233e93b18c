// Package listing drives paginated admin tables: it owns the request and
// response lifecycle of a list, its cache and its pagination state.
package listing

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/bep/debounce"
	"github.com/goliatone/go-rwadmin/components/events"
	"github.com/google/uuid"
)

// DefaultSearchDebounce coalesces keystrokes into one fetch.
const DefaultSearchDebounce = 250 * time.Millisecond

// View is what a presentation component needs to draw the list.
type View[T any] struct {
	Items      []T        `json:"items"`
	Pagination Pagination `json:"pagination"`
	Loading    bool       `json:"loading"`
}

// Deleter removes one row through the API.
type Deleter func(ctx context.Context, id string) error

type options struct {
	pageSize  int
	cacheTTL  time.Duration
	debounce  time.Duration
	minSearch int
	searchKey string
	filters   map[string]string
	notifier  events.Notifier
	logger    *slog.Logger
	message   string
	onUpdate  func(any)
}

// Option customizes a List.
type Option func(*options)

// WithPageSize overrides DefaultPageSize.
func WithPageSize(size int) Option {
	return func(o *options) {
		if size > 0 {
			o.pageSize = size
		}
	}
}

// WithCacheTTL overrides DefaultCacheTTL.
func WithCacheTTL(ttl time.Duration) Option {
	return func(o *options) { o.cacheTTL = ttl }
}

// WithSearchDebounce overrides DefaultSearchDebounce.
func WithSearchDebounce(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.debounce = d
		}
	}
}

// WithSearchKey sets the filter the search term is sent as. Defaults to "name".
func WithSearchKey(key string) Option {
	return func(o *options) {
		if key != "" {
			o.searchKey = key
		}
	}
}

// WithFilters seeds the initial filters.
func WithFilters(filters map[string]string) Option {
	return func(o *options) {
		for k, v := range filters {
			o.filters[k] = v
		}
	}
}

// WithNotifier surfaces fetch failures to the user.
func WithNotifier(n events.Notifier) Option {
	return func(o *options) {
		if n != nil {
			o.notifier = n
		}
	}
}

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithErrorMessage sets the notification text of fetch failures.
func WithErrorMessage(message string) Option {
	return func(o *options) { o.message = message }
}

// WithUpdateCallback receives the view after every state change. The argument
// is a View[T] of the list's item type.
func WithUpdateCallback(fn func(view any)) Option {
	return func(o *options) { o.onUpdate = fn }
}

// List is a paginated, searchable list backed by a Source.
type List[T any] struct {
	namespace string
	source    Source[T]
	cache     *Cache[T]
	opts      options
	search    func(func())

	mu         sync.Mutex
	query      Query
	applied    Query
	pagination Pagination
	items      []T
	inflight   map[string]string
}

// New builds a list for namespace. The search debouncer is created here once
// and reused for the lifetime of the list.
func New[T any](namespace string, source Source[T], opts ...Option) *List[T] {
	o := options{
		pageSize:  DefaultPageSize,
		debounce:  DefaultSearchDebounce,
		minSearch: 3,
		searchKey: "name",
		filters:   map[string]string{},
		notifier:  events.LogNotifier{},
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.message == "" {
		o.message = fmt.Sprintf("There was an error loading the %s", namespace)
	}
	pagination := NewPagination(o.pageSize)
	query := Query{
		Namespace: namespace,
		Page:      pagination.Page,
		PageSize:  pagination.Limit,
		Filters:   o.filters,
	}
	return &List[T]{
		namespace:  namespace,
		source:     source,
		cache:      NewCache[T](o.cacheTTL),
		opts:       o,
		search:     debounce.New(o.debounce),
		query:      query,
		applied:    query.Clone(),
		pagination: pagination,
		inflight:   map[string]string{},
	}
}

// Namespace returns the cache namespace of the list.
func (l *List[T]) Namespace() string { return l.namespace }

// Cache exposes the list cache.
func (l *List[T]) Cache() *Cache[T] { return l.cache }

// View returns the current items, pagination and loading flag.
func (l *List[T]) View() View[T] {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.viewLocked()
}

// Query returns the current query.
func (l *List[T]) Query() Query {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.query.Clone()
}

// Load fetches the current query.
func (l *List[T]) Load(ctx context.Context) error {
	return l.fetch(ctx, l.Query(), true)
}

// ChangePage fetches page. Pages outside the known range are rejected with
// ErrPageOutOfRange and nothing is fetched.
func (l *List[T]) ChangePage(ctx context.Context, page int) error {
	l.mu.Lock()
	if err := l.pagination.Check(page); err != nil {
		l.mu.Unlock()
		return err
	}
	l.query.Page = page
	q := l.query.Clone()
	l.mu.Unlock()
	return l.fetch(ctx, q, true)
}

// Search schedules a debounced search. Only the last term of a burst is
// fetched; terms of one or two characters are ignored.
func (l *List[T]) Search(term string) {
	term = strings.TrimSpace(term)
	l.search(func() {
		_ = l.SearchNow(context.Background(), term)
	})
}

// SearchNow applies term without waiting for the debounce window.
func (l *List[T]) SearchNow(ctx context.Context, term string) error {
	term = strings.TrimSpace(term)
	if n := utf8.RuneCountInString(term); n > 0 && n < l.opts.minSearch {
		return nil
	}
	l.mu.Lock()
	if term == "" {
		delete(l.query.Filters, l.opts.searchKey)
	} else {
		l.query.Filters[l.opts.searchKey] = term
	}
	l.query.Page = 1
	q := l.query.Clone()
	l.mu.Unlock()
	return l.fetch(ctx, q, true)
}

// SetFilter changes one filter and fetches page 1.
func (l *List[T]) SetFilter(ctx context.Context, key, value string) error {
	l.mu.Lock()
	if value == "" {
		delete(l.query.Filters, key)
	} else {
		l.query.Filters[key] = value
	}
	l.query.Page = 1
	q := l.query.Clone()
	l.mu.Unlock()
	return l.fetch(ctx, q, true)
}

// AfterDelete invalidates the namespace cache, resets to page 1 and always
// re-fetches.
func (l *List[T]) AfterDelete(ctx context.Context) error {
	l.cache.InvalidateNamespace(l.namespace)
	l.mu.Lock()
	l.query.Page = 1
	q := l.query.Clone()
	l.mu.Unlock()
	return l.fetch(ctx, q, false)
}

// Delete removes a row and refreshes the list. No optimistic update is made.
func (l *List[T]) Delete(ctx context.Context, id string, del Deleter) error {
	if err := del(ctx, id); err != nil {
		l.opts.notifier.Error(ctx, fmt.Sprintf("There was an error deleting %s", id), err)
		return fmt.Errorf("listing: delete %s: %w", id, err)
	}
	return l.AfterDelete(ctx)
}

func (l *List[T]) fetch(ctx context.Context, q Query, useCache bool) error {
	key := q.Key()
	token := uuid.NewString()
	if useCache {
		if page, ok := l.cache.Get(key); ok {
			l.resolve(ctx, q, key, token, page)
			return nil
		}
	}

	l.mu.Lock()
	l.inflight[token] = key
	view := l.viewLocked()
	l.mu.Unlock()
	l.notify(view)

	page, err := l.source(ctx, q)

	l.mu.Lock()
	delete(l.inflight, token)
	if err != nil {
		if l.query.Key() == key {
			l.query = l.applied.Clone()
		}
		view := l.viewLocked()
		l.mu.Unlock()
		l.opts.logger.WarnContext(ctx, "listing fetch failed", "key", key, "token", token, "error", err)
		l.opts.notifier.Error(ctx, l.opts.message, err)
		l.notify(view)
		return fmt.Errorf("listing: fetch %s: %w", key, err)
	}
	l.mu.Unlock()

	l.cache.Set(key, page)
	l.resolve(ctx, q, key, token, page)
	return nil
}

// resolve applies page only when key still matches the current query.
func (l *List[T]) resolve(ctx context.Context, q Query, key, token string, page Page[T]) {
	l.mu.Lock()
	current := l.query.Key()
	if key != current {
		view := l.viewLocked()
		l.mu.Unlock()
		l.opts.logger.DebugContext(ctx, "listing stale response discarded", "key", key, "token", token, "current", current)
		l.notify(view)
		return
	}
	l.items = page.Items
	l.pagination.ApplyMeta(page.Meta)
	l.pagination.Page = q.Page
	l.pagination.Limit = q.PageSize
	l.applied = q.Clone()
	view := l.viewLocked()
	l.mu.Unlock()
	l.notify(view)
}

func (l *List[T]) viewLocked() View[T] {
	items := make([]T, len(l.items))
	copy(items, l.items)
	return View[T]{
		Items:      items,
		Pagination: l.pagination,
		Loading:    len(l.inflight) > 0,
	}
}

func (l *List[T]) notify(view View[T]) {
	if l.opts.onUpdate != nil {
		l.opts.onUpdate(view)
	}
}
