// =============================================================================
// Excise Ledger Builder - Field Transformations
// =============================================================================
//
// This module provides the per-field transformations applied while building
// the ledger:
//   - SKU normalization (strip variant suffixes)
//   - Volume extraction from free-text product names
//   - Total volume (volume x quantity)
//   - Timestamp parsing of export values
//
// All functions are pure and total: malformed input degrades to a documented
// default instead of failing the run.
//
// =============================================================================

package converter

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/ginjaninja78/excise-ledger/internal/types"
)

// variantSuffix matches the variant part of a shop SKU: a trailing hyphen
// followed by digits, or a single trailing upper-case letter.
var variantSuffix = regexp.MustCompile(`(-\d+|[A-Z])$`)

// timestampLayouts are tried in order on the truncated value.
var timestampLayouts = []string{
	types.TimestampLayout,
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// =============================================================================
// SKU NORMALIZATION
// =============================================================================

// NormalizeSKU strips one variant suffix from a shop SKU so that it matches
// the master SKU of the reference table.
//
// EXAMPLES:
//   "10045-6" -> "10045"
//   "10045B"  -> "10045"
//   "10045"   -> "10045"
//   "WN-12"   -> "WN"      (any hyphen-digit tail is a variant)
//
// Exactly one suffix is removed per call. Master SKUs never end in a variant
// pattern, so normalizing them is a no-op.
func NormalizeSKU(sku string) string {
	return variantSuffix.ReplaceAllString(sku, "")
}

// =============================================================================
// VOLUME EXTRACTION
// =============================================================================

// ExtractVolume returns the last run of decimal digits in a product name
// divided by ten, truncated toward zero. Names carry the volume in
// centilitres ("Wine 75cl"), the ledger records whole decilitres.
//
// EXAMPLES:
//   "Wine 75cl"        -> 7
//   "Box 6x 150cl"     -> 15
//   "Gift card"        -> 0
//   "Vintage 2019 9cl" -> 0
func ExtractVolume(productName string) int {
	end := strings.LastIndexFunc(productName, isDigit)
	if end < 0 {
		return 0
	}

	start := end
	for start > 0 && isDigit(rune(productName[start-1])) {
		start--
	}

	n, err := strconv.Atoi(productName[start : end+1])
	if err != nil {
		// Out of range for an int.
		return 0
	}

	return n / 10
}

// TotalVolume is the volume of one item times the number of items.
func TotalVolume(volume, quantity int) int {
	return volume * quantity
}

// ParseQuantity parses an item count. It reports false for blank or
// non-integer values, in which case the quantity is zero.
func ParseQuantity(value string) (int, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, false
	}

	if n, err := strconv.Atoi(value); err == nil {
		return n, true
	}

	// Some exports write counts as floats ("2.0").
	if f, err := strconv.ParseFloat(value, 64); err == nil && f == float64(int(f)) {
		return int(f), true
	}

	return 0, false
}

// =============================================================================
// TIMESTAMPS
// =============================================================================

// ParseTimestamp parses an export timestamp. Only the first 19 characters
// are considered, which drops any timezone offset ("2024-01-05 10:00:00
// +0100"). Blank or unparseable values yield an invalid timestamp.
func ParseTimestamp(value string) types.Timestamp {
	value = strings.TrimSpace(value)
	if len(value) > 19 {
		value = value[:19]
	}
	if value == "" {
		return types.Timestamp{}
	}

	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return types.Timestamp{V: t, Valid: true}
		}
	}

	return types.Timestamp{}
}

func isDigit(r rune) bool {
	return r >= '0' && r <= '9'
}
