package taskview

import (
	"slices"
	"strings"

	"github.com/dalemusser/cmsdesk/internal/domain/models"
)

// Column names a sortable task column.
type Column string

const (
	ColumnLSA         Column = "lsa"
	ColumnTSP         Column = "tsp"
	ColumnDotAndLEA   Column = "dotAndLea"
	ColumnDescription Column = "problemDescription"
	ColumnStatus      Column = "status"
	ColumnSolution    Column = "solutionProvided"
	ColumnRemarks     Column = "remarks"
	ColumnCreatedAt   Column = "createdAt"
	ColumnUpdatedAt   Column = "updatedAt"
)

// Direction of the active sort.
type Direction int

const (
	Unsorted Direction = iota
	Ascending
	Descending
)

func (d Direction) String() string {
	switch d {
	case Ascending:
		return "asc"
	case Descending:
		return "desc"
	default:
		return "none"
	}
}

// Sorter is a single-column, tri-state sort over already filtered rows.
// The zero value is unsorted.
type Sorter struct {
	column Column
	dir    Direction
}

// Toggle cycles column through ascending, descending and unsorted.
// Selecting a different column starts it at ascending.
func (s *Sorter) Toggle(c Column) {
	if s.column != c || s.dir == Unsorted {
		s.column, s.dir = c, Ascending
		return
	}
	if s.dir == Ascending {
		s.dir = Descending
		return
	}
	s.column, s.dir = "", Unsorted
}

// Active returns the sorted column and its direction.
func (s *Sorter) Active() (Column, Direction) { return s.column, s.dir }

// Apply returns a sorted copy of rows. Ties keep their input order, and
// unsorted returns the rows in server order.
func (s *Sorter) Apply(rows []models.Task) []models.Task {
	out := slices.Clone(rows)
	if s.dir == Unsorted {
		return out
	}
	less := comparator(s.column)
	if less == nil {
		return out
	}
	slices.SortStableFunc(out, func(a, b models.Task) int {
		c := less(a, b)
		if s.dir == Descending {
			return -c
		}
		return c
	})
	return out
}

func comparator(c Column) func(a, b models.Task) int {
	str := func(get func(models.Task) string) func(a, b models.Task) int {
		return func(a, b models.Task) int { return strings.Compare(get(a), get(b)) }
	}
	opt := func(p *string) string {
		if p == nil {
			return ""
		}
		return *p
	}
	switch c {
	case ColumnLSA:
		return str(func(t models.Task) string { return t.LSA })
	case ColumnTSP:
		return str(func(t models.Task) string { return t.TSP })
	case ColumnDotAndLEA:
		return str(func(t models.Task) string { return t.DotAndLEA })
	case ColumnDescription:
		return str(func(t models.Task) string { return t.ProblemDescription })
	case ColumnStatus:
		return str(func(t models.Task) string { return t.Status })
	case ColumnSolution:
		return str(func(t models.Task) string { return opt(t.SolutionProvided) })
	case ColumnRemarks:
		return str(func(t models.Task) string { return opt(t.Remarks) })
	case ColumnCreatedAt:
		return func(a, b models.Task) int { return a.CreatedAt.Compare(b.CreatedAt) }
	case ColumnUpdatedAt:
		return func(a, b models.Task) int { return a.UpdatedAt.Compare(b.UpdatedAt) }
	default:
		return nil
	}
}

