package paging

import (
	"reflect"
	"testing"
)

func TestPageCount(t *testing.T) {
	tests := []struct {
		n, size, want int
	}{
		{0, 10, 1},
		{1, 10, 1},
		{10, 10, 1},
		{11, 10, 2},
		{25, 10, 3},
		{25, 0, 3}, // default size
		{-4, 10, 1},
	}
	for _, tt := range tests {
		if got := PageCount(tt.n, tt.size); got != tt.want {
			t.Errorf("PageCount(%d, %d) = %d, want %d", tt.n, tt.size, got, tt.want)
		}
	}
}

func TestClamp(t *testing.T) {
	tests := []struct {
		page, n, size, want int
	}{
		{1, 0, 10, 1},
		{0, 30, 10, 1},
		{-3, 30, 10, 1},
		{2, 30, 10, 2},
		{5, 30, 10, 3},
		{3, 20, 10, 2}, // collection shrank below page start
	}
	for _, tt := range tests {
		if got := Clamp(tt.page, tt.n, tt.size); got != tt.want {
			t.Errorf("Clamp(%d, %d, %d) = %d, want %d", tt.page, tt.n, tt.size, got, tt.want)
		}
	}
}

func TestCompute(t *testing.T) {
	w := Compute(2, 25, 10)
	want := Window{Page: 2, PageCount: 3, Start: 10, End: 20, HasPrev: true, HasNext: true}
	if w != want {
		t.Errorf("Compute(2,25,10) = %+v, want %+v", w, want)
	}

	w = Compute(9, 25, 10)
	if w.Page != 3 || w.Start != 20 || w.End != 25 || w.HasNext {
		t.Errorf("Compute past the end = %+v", w)
	}

	w = Compute(1, 0, 10)
	if w.Page != 1 || w.PageCount != 1 || w.Start != 0 || w.End != 0 || w.HasPrev || w.HasNext {
		t.Errorf("Compute on empty = %+v", w)
	}
}

func TestSlice(t *testing.T) {
	rows := []int{1, 2, 3, 4, 5}
	if got := Slice(rows, 2, 2); !reflect.DeepEqual(got, []int{3, 4}) {
		t.Errorf("page 2 = %v", got)
	}
	if got := Slice(rows, 3, 2); !reflect.DeepEqual(got, []int{5}) {
		t.Errorf("page 3 = %v", got)
	}
	if got := Slice(rows, 7, 2); !reflect.DeepEqual(got, []int{5}) {
		t.Errorf("clamped page = %v", got)
	}
	if got := Slice([]int{}, 1, 2); len(got) != 0 {
		t.Errorf("empty = %v", got)
	}
}
