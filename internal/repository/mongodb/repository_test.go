package mongodb

import "testing"

func TestClampLimit(t *testing.T) {
	tests := []struct {
		in, want int
	}{
		{-1, defaultRunLimit},
		{0, defaultRunLimit},
		{5, 5},
		{maxRunLimit, maxRunLimit},
		{maxRunLimit + 1, maxRunLimit},
	}
	for _, tt := range tests {
		if got := ClampLimit(tt.in); got != tt.want {
			t.Errorf("ClampLimit(%d) = %d, want %d", tt.in, got, tt.want)
		}
	}
}
