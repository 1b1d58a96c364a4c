package pipeline

// PageSize is the fixed grid page size.
const PageSize = 10

// Pager tracks the current grid page. The page resets to 1 whenever
// filters, view mode, or the input row count changes; moving past either
// end is a no-op.
type Pager struct {
	page     int
	rowCount int
}

// NewPager starts on page 1 over the given row count.
func NewPager(rowCount int) Pager {
	return Pager{page: 1, rowCount: rowCount}
}

// Page returns the current 1-based page number.
func (p Pager) Page() int {
	if p.page < 1 {
		return 1
	}
	return p.page
}

// TotalPages returns the number of pages, at least 1.
func (p Pager) TotalPages() int {
	if p.rowCount <= 0 {
		return 1
	}
	return (p.rowCount + PageSize - 1) / PageSize
}

// Reset returns a pager back on page 1 for a new row count.
func (p Pager) Reset(rowCount int) Pager {
	return NewPager(rowCount)
}

// Next advances one page, or stays put on the last page.
func (p Pager) Next() Pager {
	if p.Page() < p.TotalPages() {
		p.page = p.Page() + 1
	}
	return p
}

// Prev goes back one page, or stays put on the first page.
func (p Pager) Prev() Pager {
	if p.Page() > 1 {
		p.page = p.Page() - 1
	}
	return p
}

// Slice returns the rows visible on the current page.
func Slice[T any](rows []T, p Pager) []T {
	start := (p.Page() - 1) * PageSize
	if start >= len(rows) {
		return nil
	}
	end := start + PageSize
	if end > len(rows) {
		end = len(rows)
	}
	return rows[start:end]
}
