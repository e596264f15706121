package taskview

import (
	"github.com/dalemusser/cmsdesk/internal/app/system/paging"
	"github.com/dalemusser/cmsdesk/internal/domain/models"
)

// Pager windows a sorted collection into fixed-size pages. The current
// page is re-clamped whenever the collection changes size.
type Pager struct {
	size int
	page int
}

// NewPager returns a pager on page 1. A non-positive size uses
// paging.DefaultPageSize.
func NewPager(size int) *Pager {
	if size <= 0 {
		size = paging.DefaultPageSize
	}
	return &Pager{size: size, page: 1}
}

// Size is the number of rows per page.
func (p *Pager) Size() int { return p.size }

// Goto selects page; it is clamped on the next Window call.
func (p *Pager) Goto(page int) { p.page = page }

// Next and Prev move one page; both are clamped on the next Window call.
func (p *Pager) Next() { p.page++ }
func (p *Pager) Prev() { p.page-- }

// Window returns the rows of the current page and its position, after
// clamping the current page into [1, page count] for len(rows).
func (p *Pager) Window(rows []models.Task) ([]models.Task, paging.Window) {
	w := paging.Compute(p.page, len(rows), p.size)
	p.page = w.Page
	return paging.Slice(rows, w.Page, p.size), w
}
