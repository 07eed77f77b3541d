package stockfolio

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

// dec is a helper for tests to create decimals from constant strings.
func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

// day is a helper for tests returning midnight UTC of a day in 2025.
func day(month time.Month, d int) time.Time {
	return time.Date(2025, month, d, 0, 0, 0, 0, time.UTC)
}

// assertDecimal fails the test if got and want are not the same value.
func assertDecimal(t *testing.T, name string, got, want decimal.Decimal) {
	t.Helper()
	if !got.Equal(want) {
		t.Errorf("%s = %v, want %v", name, got, want)
	}
}

// assertKnown fails the test if got is unknown or not equal to want.
func assertKnown(t *testing.T, name string, got decimal.NullDecimal, want decimal.Decimal) {
	t.Helper()
	if !got.Valid {
		t.Errorf("%s is unknown, want %v", name, want)
		return
	}
	assertDecimal(t, name, got.Decimal, want)
}

// assertUnknown fails the test if got is known.
func assertUnknown(t *testing.T, name string, got decimal.NullDecimal) {
	t.Helper()
	if got.Valid {
		t.Errorf("%s = %v, want unknown", name, got.Decimal)
	}
}
