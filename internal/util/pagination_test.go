package util

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCalculate(t *testing.T) {
	cases := []struct {
		name                   string
		page, size             int
		offset, limit, pageOut int
	}{
		{"defaults", 0, 0, 0, 12, 1},
		{"first page", 1, 12, 0, 12, 1},
		{"second page", 2, 12, 12, 12, 2},
		{"custom size", 3, 10, 20, 10, 3},
		{"negative page falls back", -5, 10, 0, 10, 1},
		{"negative size falls back", 2, -1, 12, 12, 2},
		{"oversized limit clamps", 1, 500, 0, 12, 1},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			offset, limit, page := Calculate(tc.page, tc.size)
			require.Equal(t, tc.offset, offset)
			require.Equal(t, tc.limit, limit)
			require.Equal(t, tc.pageOut, page)
		})
	}
}

func TestTotalPages(t *testing.T) {
	require.EqualValues(t, 2, TotalPages(24, 12))
	require.EqualValues(t, 3, TotalPages(25, 12))
	require.EqualValues(t, 1, TotalPages(1, 12))
	require.EqualValues(t, 0, TotalPages(0, 12))
	require.EqualValues(t, 0, TotalPages(10, 0))
}
