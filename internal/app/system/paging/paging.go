// Package paging holds the page arithmetic shared by list views.
package paging

// DefaultPageSize is the number of rows shown per page when a caller does not
// choose one.
const DefaultPageSize = 10

// PageCount returns ceil(n/size), never less than 1. A non-positive size
// falls back to DefaultPageSize.
func PageCount(n, size int) int {
	size = normalizeSize(size)
	if n <= 0 {
		return 1
	}
	return (n + size - 1) / size
}

// Clamp keeps page (1-based) inside [1, PageCount(n, size)].
func Clamp(page, n, size int) int {
	if page < 1 {
		return 1
	}
	if last := PageCount(n, size); page > last {
		return last
	}
	return page
}

// Bounds returns the half-open [start, end) slice indices of page within a
// collection of n rows. page is clamped first.
func Bounds(page, n, size int) (start, end int) {
	size = normalizeSize(size)
	page = Clamp(page, n, size)
	start = (page - 1) * size
	if start > n {
		start = n
	}
	end = start + size
	if end > n {
		end = n
	}
	return start, end
}

// Window is one page of a collection.
type Window struct {
	Page      int // 1-based, clamped
	PageCount int
	Start     int // index of first row
	End       int // one past the last row
	HasPrev   bool
	HasNext   bool
}

// Compute describes page of a collection of n rows.
func Compute(page, n, size int) Window {
	size = normalizeSize(size)
	p := Clamp(page, n, size)
	count := PageCount(n, size)
	start, end := Bounds(p, n, size)
	return Window{
		Page:      p,
		PageCount: count,
		Start:     start,
		End:       end,
		HasPrev:   p > 1,
		HasNext:   p < count,
	}
}

// Slice returns the rows of page in a copy-free subslice.
func Slice[T any](rows []T, page, size int) []T {
	start, end := Bounds(page, len(rows), size)
	return rows[start:end]
}

func normalizeSize(size int) int {
	if size <= 0 {
		return DefaultPageSize
	}
	return size
}
