package utils

import "testing"

func TestMaxPage(t *testing.T) {
	tests := []struct {
		total int64
		limit int
		want  int
	}{
		{0, 15, 1},
		{1, 15, 1},
		{15, 15, 1},
		{16, 15, 2},
		{100, 15, 7},
		{45, 15, 3},
	}
	for _, tt := range tests {
		if got := MaxPage(tt.total, tt.limit); got != tt.want {
			t.Errorf("MaxPage(%d, %d) = %d, want %d", tt.total, tt.limit, got, tt.want)
		}
	}
}
