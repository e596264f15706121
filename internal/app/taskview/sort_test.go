package taskview_test

import (
	"testing"
	"time"

	"github.com/dalemusser/cmsdesk/internal/app/taskview"
	"github.com/dalemusser/cmsdesk/internal/domain/models"
	"github.com/stretchr/testify/assert"
)

func sampleRows() []models.Task {
	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	return []models.Task{
		{ID: "a", TSP: "Vodafone", Status: "pending", CreatedAt: base.Add(3 * time.Hour)},
		{ID: "b", TSP: "Airtel", Status: "resolved", CreatedAt: base.Add(2 * time.Hour)},
		{ID: "c", TSP: "BSNL", Status: "pending", CreatedAt: base.Add(1 * time.Hour)},
		{ID: "d", TSP: "Airtel", Status: "in progress", CreatedAt: base},
	}
}

func TestSorterCyclesTriState(t *testing.T) {
	var s taskview.Sorter
	rows := sampleRows()

	assert.Equal(t, []string{"a", "b", "c", "d"}, rowIDs(s.Apply(rows)))

	s.Toggle(taskview.ColumnTSP)
	col, dir := s.Active()
	assert.Equal(t, taskview.ColumnTSP, col)
	assert.Equal(t, taskview.Ascending, dir)
	// Stable: b precedes d among the Airtel ties.
	assert.Equal(t, []string{"b", "d", "c", "a"}, rowIDs(s.Apply(rows)))

	s.Toggle(taskview.ColumnTSP)
	_, dir = s.Active()
	assert.Equal(t, taskview.Descending, dir)
	assert.Equal(t, []string{"a", "c", "b", "d"}, rowIDs(s.Apply(rows)))

	s.Toggle(taskview.ColumnTSP)
	_, dir = s.Active()
	assert.Equal(t, taskview.Unsorted, dir)
	assert.Equal(t, []string{"a", "b", "c", "d"}, rowIDs(s.Apply(rows)))

	s.Toggle(taskview.ColumnTSP)
	_, dir = s.Active()
	assert.Equal(t, taskview.Ascending, dir)
}

func TestSorterSwitchingColumnsStartsAscending(t *testing.T) {
	var s taskview.Sorter
	s.Toggle(taskview.ColumnTSP)
	s.Toggle(taskview.ColumnTSP)
	s.Toggle(taskview.ColumnCreatedAt)

	col, dir := s.Active()
	assert.Equal(t, taskview.ColumnCreatedAt, col)
	assert.Equal(t, taskview.Ascending, dir)
	assert.Equal(t, []string{"d", "c", "b", "a"}, rowIDs(s.Apply(sampleRows())))
}

func TestSorterDoesNotMutateInput(t *testing.T) {
	var s taskview.Sorter
	rows := sampleRows()
	s.Toggle(taskview.ColumnStatus)
	_ = s.Apply(rows)
	assert.Equal(t, []string{"a", "b", "c", "d"}, rowIDs(rows))
}

func TestPagerClampsWhenCollectionShrinks(t *testing.T) {
	rows := make([]models.Task, 25)
	for i := range rows {
		rows[i].ID = string(rune('A' + i))
	}
	p := taskview.NewPager(10)

	page, w := p.Window(rows)
	assert.Len(t, page, 10)
	assert.Equal(t, 3, w.PageCount)

	p.Goto(3)
	page, w = p.Window(rows)
	assert.Equal(t, 3, w.Page)
	assert.Len(t, page, 5)

	// Shrinks below page 3's start: clamp to the new last page.
	page, w = p.Window(rows[:12])
	assert.Equal(t, 2, w.Page)
	assert.Equal(t, 2, w.PageCount)
	assert.Len(t, page, 2)

	page, w = p.Window(nil)
	assert.Equal(t, 1, w.Page)
	assert.Equal(t, 1, w.PageCount)
	assert.Empty(t, page)

	p.Prev()
	_, w = p.Window(rows)
	assert.Equal(t, 1, w.Page)

	assert.Equal(t, 10, taskview.NewPager(0).Size())
}
