package converter

import (
	"fmt"

	"github.com/ginjaninja78/excise-ledger/internal/types"
)

// ReferenceIndex is the reference table keyed by SKU.
type ReferenceIndex struct {
	bySKU map[string]types.ReferenceRecord

	// Duplicates lists SKUs that appeared more than once, in the order the
	// second occurrence was seen.
	Duplicates []string
}

// NewReferenceIndex indexes reference records by SKU. When a SKU appears
// more than once the first record wins and the SKU is listed in Duplicates,
// so a join against the index is always one-to-one or one-to-none.
func NewReferenceIndex(records []types.ReferenceRecord) *ReferenceIndex {
	idx := &ReferenceIndex{bySKU: make(map[string]types.ReferenceRecord, len(records))}
	seenDup := make(map[string]bool)

	for _, rec := range records {
		if rec.SKU == "" {
			continue
		}
		if _, exists := idx.bySKU[rec.SKU]; exists {
			if !seenDup[rec.SKU] {
				seenDup[rec.SKU] = true
				idx.Duplicates = append(idx.Duplicates, rec.SKU)
			}
			continue
		}
		idx.bySKU[rec.SKU] = rec
	}

	return idx
}

// Lookup returns the record for sku. Blank SKUs never match.
func (idx *ReferenceIndex) Lookup(sku string) (types.ReferenceRecord, bool) {
	if sku == "" {
		return types.ReferenceRecord{}, false
	}
	rec, ok := idx.bySKU[sku]
	return rec, ok
}

// Len returns the number of distinct SKUs in the index.
func (idx *ReferenceIndex) Len() int {
	return len(idx.bySKU)
}

// Enrich left-joins order lines to the reference index on their SKU, which
// is expected to be normalized already. Every input line is returned, in
// order; lines without a reference match carry null percentage and excise
// code. The input slice is not modified.
func Enrich(lines []types.OrderLine, idx *ReferenceIndex) []types.OrderLine {
	out := make([]types.OrderLine, len(lines))
	for i, line := range lines {
		line.AlcoholPercentage.Valid = false
		line.ExciseCode.Valid = false

		if rec, ok := idx.Lookup(line.SKU); ok {
			line.AlcoholPercentage = rec.AlcoholPercentage
			line.ExciseCode = rec.ExciseCode
		}
		out[i] = line
	}
	return out
}

// duplicateWarnings reports every duplicated reference SKU.
func duplicateWarnings(idx *ReferenceIndex) []Warning {
	warnings := make([]Warning, 0, len(idx.Duplicates))
	for _, sku := range idx.Duplicates {
		warnings = append(warnings, Warning{
			Kind:    WarnDuplicateSKU,
			Subject: sku,
			Message: fmt.Sprintf("reference SKU %q appears more than once; the first record is used", sku),
		})
	}
	return warnings
}
