package converter

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeSKU(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"10045-6", "10045"},
		{"10045-12", "10045"},
		{"10045B", "10045"},
		{"10045", "10045"},
		{"WN-12", "WN"},
		{"abc", "abc"},
		{"10045b", "10045b"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeSKU(tt.in))
		})
	}
}

func TestNormalizeSKU_IdempotentOnNormalizedSKUs(t *testing.T) {
	for _, raw := range []string{"10045-6", "10045B", "20001", "abc", "FR1001x"} {
		once := NormalizeSKU(raw)
		assert.Equal(t, once, NormalizeSKU(once), "normalizing %q twice", raw)
	}
}

func TestExtractVolume(t *testing.T) {
	tests := []struct {
		name string
		want int
	}{
		{"Wine 75cl", 7},
		{"Generic Bottle", 0},
		{"Magnum 150cl", 15},
		{"Box 6x 150cl", 15},
		{"Miniature 5cl", 0},
		{"Chateau 2019 37.5cl", 0},
		{"Beer 33", 3},
		{"", 0},
		{"99999999999999999999999cl", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExtractVolume(tt.name))
		})
	}
}

func TestTotalVolume(t *testing.T) {
	assert.Equal(t, 14, TotalVolume(ExtractVolume("Wine 75cl"), 2))
	assert.Equal(t, 0, TotalVolume(ExtractVolume("Gift card"), 3))
}

func TestParseQuantity(t *testing.T) {
	n, ok := ParseQuantity(" 3 ")
	assert.True(t, ok)
	assert.Equal(t, 3, n)

	n, ok = ParseQuantity("2.0")
	assert.True(t, ok)
	assert.Equal(t, 2, n)

	for _, bad := range []string{"", "two", "1.5"} {
		n, ok = ParseQuantity(bad)
		assert.False(t, ok, bad)
		assert.Equal(t, 0, n, bad)
	}
}

func TestParseTimestamp(t *testing.T) {
	want := time.Date(2024, 1, 5, 10, 0, 0, 0, time.UTC)

	for _, in := range []string{
		"2024-01-05 10:00:00",
		"2024-01-05 10:00:00 +0100",
		"2024-01-05T10:00:00+01:00",
	} {
		ts := ParseTimestamp(in)
		if assert.True(t, ts.Valid, in) {
			assert.True(t, want.Equal(ts.V), in)
		}
	}

	date := ParseTimestamp("2024-01-05")
	assert.True(t, date.Valid)
	assert.True(t, time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC).Equal(date.V))

	for _, bad := range []string{"", "   ", "yesterday", "05/01/2024 10:00"} {
		assert.False(t, ParseTimestamp(bad).Valid, bad)
	}
}
