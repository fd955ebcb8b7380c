package util

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCalculate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		page, size        int
		wantFrom, wantLim int
	}{
		{1, 10, 0, 10},
		{3, 5, 10, 5},
		{0, 5, 0, 5},
		{-2, 0, 0, DefaultPageSize},
		{2, MaxPageSize + 1, DefaultPageSize, DefaultPageSize},
		{2, MaxPageSize, MaxPageSize, MaxPageSize},
	}
	for _, tt := range tests {
		from, limit := Calculate(tt.page, tt.size)
		assert.Equal(t, tt.wantFrom, from, "page=%d size=%d", tt.page, tt.size)
		assert.Equal(t, tt.wantLim, limit, "page=%d size=%d", tt.page, tt.size)
	}
}

func TestCalculate_HugePageDoesNotOverflow(t *testing.T) {
	t.Parallel()

	for _, page := range []int{1_000_000_000_000_000_000, math.MaxInt} {
		from, limit := Calculate(page, 10)
		assert.Equal(t, 10, limit)
		assert.GreaterOrEqual(t, from, 0, "page=%d", page)
	}
}
