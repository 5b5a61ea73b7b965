package util

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCalculate(t *testing.T) {
	from, limit := Calculate(1, 20)
	require.Equal(t, 0, from)
	require.Equal(t, 20, limit)

	from, limit = Calculate(3, 10)
	require.Equal(t, 20, from)
	require.Equal(t, 10, limit)

	// out-of-range values fall back to defaults
	from, limit = Calculate(0, 0)
	require.Equal(t, 0, from)
	require.Equal(t, DefaultPageSize, limit)

	from, limit = Calculate(-5, 1000)
	require.Equal(t, 0, from)
	require.Equal(t, DefaultPageSize, limit)
}
