package common

import (
	"strconv"
	"strings"
)

const (
	SOLDecimals    = 9             // SOL has 9 decimals (lamports)
	LamportsPerSOL = 1_000_000_000 // 1 SOL = 10^9 lamports
)

// LamportsToSOL converts lamports to SOL string without float precision loss
func LamportsToSOL(lamports uint64) string {
	return formatWithDecimals(lamports, SOLDecimals)
}

// LamportsToFloat converts lamports to SOL as float64.
// Lossy: use for display and threshold messages only, never for amounts that get signed.
func LamportsToFloat(lamports uint64) float64 {
	return float64(lamports) / LamportsPerSOL
}

// FormatSOL renders an exact SOL amount the way a human would type it ("0.5", "1", "12.25")
func FormatSOL(lamports uint64) string {
	return strings.TrimSuffix(strings.TrimRight(LamportsToSOL(lamports), "0"), ".")
}

// formatWithDecimals converts integer to decimal string by inserting decimal point
// Example: formatWithDecimals(24981836, 9) = "0.024981836"
func formatWithDecimals(value uint64, decimals int) string {
	s := strconv.FormatUint(value, 10)

	// Pad with leading zeros if needed
	if len(s) <= decimals {
		s = strings.Repeat("0", decimals-len(s)+1) + s
	}

	// Insert decimal point
	pos := len(s) - decimals
	return s[:pos] + "." + s[pos:]
}
