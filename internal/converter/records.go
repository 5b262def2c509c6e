package converter

import (
	"fmt"
	"strings"

	"github.com/ginjaninja78/excise-ledger/internal/types"
	"github.com/shopspring/decimal"
)

// OrderLinesFromTable maps the rows of the order export onto order lines,
// keeping export order. The table must carry types.OrderColumns.
func OrderLinesFromTable(t *types.Table) []types.OrderLine {
	lines := make([]types.OrderLine, len(t.Rows))
	for i, row := range t.Rows {
		lines[i] = types.OrderLine{
			RowNumber:         i + 1,
			OrderID:           row[types.ColName],
			CreatedAt:         row[types.ColCreatedAt],
			FulfilledAt:       row[types.ColFulfilledAt],
			FulfillmentStatus: row[types.ColFulfillmentStatus],
			SKU:               row[types.ColLineitemSKU],
			ProductName:       row[types.ColLineitemName],
			Quantity:          row[types.ColLineitemQuantity],
			ShippingCountry:   row[types.ColShippingCountry],
			BillingName:       row[types.ColBillingName],
			BillingStreet:     row[types.ColBillingStreet],
		}
	}
	return lines
}

// ReferenceRecordsFromTable maps the rows of the reference table onto
// reference records. Blank values become nulls. A percentage that is not a
// number is also treated as null and reported as a warning.
func ReferenceRecordsFromTable(t *types.Table) ([]types.ReferenceRecord, []Warning) {
	var warnings []Warning
	records := make([]types.ReferenceRecord, 0, len(t.Rows))

	for i, row := range t.Rows {
		rec := types.ReferenceRecord{SKU: strings.TrimSpace(row[types.ColRefSKU])}

		if code := strings.TrimSpace(row[types.ColRefExciseCode]); code != "" {
			rec.ExciseCode.V = code
			rec.ExciseCode.Valid = true
		}

		if raw := strings.TrimSpace(row[types.ColRefAlcoholPercentage]); raw != "" {
			// Spreadsheets in some locales write "12,5".
			d, err := decimal.NewFromString(strings.Replace(raw, ",", ".", 1))
			if err != nil {
				warnings = append(warnings, Warning{
					Kind:    WarnInvalidPercentage,
					Subject: rec.SKU,
					Message: fmt.Sprintf("reference row %d: alcohol percentage %q is not a number", i+1, raw),
				})
			} else {
				rec.AlcoholPercentage = decimal.NullDecimal{Decimal: d, Valid: true}
			}
		}

		records = append(records, rec)
	}

	return records, warnings
}
