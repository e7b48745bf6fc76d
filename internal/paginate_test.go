package internal

import "testing"

func TestPaginationMath(t *testing.T) {
	cases := []struct {
		page, limit, total int
		totalPages         int
		hasNext, hasPrev   bool
	}{
		{1, 20, 0, 0, false, false},
		{1, 20, 20, 1, false, false},
		{1, 20, 21, 2, true, false},
		{2, 20, 21, 2, false, true},
		{1, 10, 95, 10, true, false},
		{10, 10, 95, 10, false, true},
		{3, 5, 11, 3, false, true},
	}
	for _, tc := range cases {
		p := NewPagination(tc.page, tc.limit, tc.total)
		if p.TotalPages != tc.totalPages {
			t.Errorf("page=%d limit=%d total=%d: totalPages=%d, want %d",
				tc.page, tc.limit, tc.total, p.TotalPages, tc.totalPages)
		}
		if p.HasNext != tc.hasNext {
			t.Errorf("page=%d limit=%d total=%d: hasNext=%v, want %v",
				tc.page, tc.limit, tc.total, p.HasNext, tc.hasNext)
		}
		if p.HasPrev != tc.hasPrev {
			t.Errorf("page=%d limit=%d total=%d: hasPrev=%v, want %v",
				tc.page, tc.limit, tc.total, p.HasPrev, tc.hasPrev)
		}
	}
}
