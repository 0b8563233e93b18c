package listing

import (
	"errors"
	"fmt"
)

// DefaultPageSize is the initial page size of every list.
const DefaultPageSize = 20

// ErrPageOutOfRange is returned when a page outside [1, Pages] is requested.
var ErrPageOutOfRange = errors.New("listing: page out of range")

// Meta is the server-reported totals of a list response. Nil fields were not
// reported.
type Meta struct {
	TotalItems *int `json:"total-items,omitempty"`
	TotalPages *int `json:"total-pages,omitempty"`
}

// Pagination tracks the current page and server totals.
type Pagination struct {
	Page  int `json:"page"`
	Limit int `json:"pageSize"`
	Size  int `json:"totalSize"`
	Pages int `json:"totalPages"`
}

// NewPagination returns the initial state {page 1, limit, 0, 0}.
func NewPagination(limit int) Pagination {
	if limit <= 0 {
		limit = DefaultPageSize
	}
	return Pagination{Page: 1, Limit: limit}
}

// ApplyMeta copies the totals the server reported. Totals are never derived
// from the items of a page.
func (p *Pagination) ApplyMeta(meta Meta) {
	if meta.TotalItems != nil {
		p.Size = *meta.TotalItems
	}
	if meta.TotalPages != nil {
		p.Pages = *meta.TotalPages
	}
}

// Check reports whether page may be requested. Pages above the known total are
// rejected rather than clamped.
func (p Pagination) Check(page int) error {
	if page < 1 || (p.Pages > 0 && page > p.Pages) {
		return fmt.Errorf("%w: %d of %d", ErrPageOutOfRange, page, p.Pages)
	}
	return nil
}

// SetPage moves to page, leaving the state unchanged when it is rejected.
func (p *Pagination) SetPage(page int) error {
	if err := p.Check(page); err != nil {
		return err
	}
	p.Page = page
	return nil
}
