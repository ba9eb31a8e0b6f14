package common

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLamportsToSOL(t *testing.T) {
	t.Parallel()

	require.Equal(t, "0.024981836", LamportsToSOL(24981836))
	require.Equal(t, "1.000000000", LamportsToSOL(1_000_000_000))
	require.Equal(t, "0.000000000", LamportsToSOL(0))
	require.Equal(t, "0.000005000", LamportsToSOL(5000))
}

func TestFormatSOL(t *testing.T) {
	t.Parallel()

	require.Equal(t, "0.5", FormatSOL(500_000_000))
	require.Equal(t, "1", FormatSOL(1_000_000_000))
	require.Equal(t, "5", FormatSOL(5_000_000_000))
	require.Equal(t, "0", FormatSOL(0))
	require.Equal(t, "10", FormatSOL(10_000_000_000))
	require.Equal(t, "0.000000001", FormatSOL(1))

	// Beyond float64 precision: every lamport is kept
	require.Equal(t, "12345678.987654321", FormatSOL(12_345_678_987_654_321))
}
