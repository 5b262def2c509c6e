// =============================================================================
// Excise Ledger Builder - Row Filters
// =============================================================================
//
// Selection stages of the pipeline. Each stage takes a slice and returns a
// new one; order is always preserved.
//
//   ExcludeStatuses -> NormalizeSKUs -> (enrich, forward fill) ->
//   FilterMarket -> ProjectLedger -> FilterWindow -> Deduplicate
//
// =============================================================================

package converter

import (
	"strings"

	"github.com/ginjaninja78/excise-ledger/internal/config"
	"github.com/ginjaninja78/excise-ledger/internal/types"
)

// ExcludeStatuses drops lines whose fulfillment status the market excludes
// (restocked lines by default).
func ExcludeStatuses(lines []types.OrderLine, market *config.MarketConfig) []types.OrderLine {
	out := make([]types.OrderLine, 0, len(lines))
	for _, line := range lines {
		if market.IsExcludedStatus(strings.TrimSpace(line.FulfillmentStatus)) {
			continue
		}
		out = append(out, line)
	}
	return out
}

// NormalizeSKUs returns a copy of lines with every SKU normalized.
func NormalizeSKUs(lines []types.OrderLine) []types.OrderLine {
	out := make([]types.OrderLine, len(lines))
	for i, line := range lines {
		line.SKU = NormalizeSKU(strings.TrimSpace(line.SKU))
		out[i] = line
	}
	return out
}

// FilterMarket keeps lines shipped to the market. The shipping country must
// equal the market code exactly unless the profile asks for a folded
// comparison.
func FilterMarket(lines []types.OrderLine, market *config.MarketConfig) []types.OrderLine {
	same := func(country string) bool { return country == market.MarketCode }
	if market.CountryMatch == config.CountryFold {
		same = func(country string) bool {
			return strings.EqualFold(strings.TrimSpace(country), market.MarketCode)
		}
	}

	out := make([]types.OrderLine, 0, len(lines))
	for _, line := range lines {
		if same(line.ShippingCountry) {
			out = append(out, line)
		}
	}
	return out
}

// ProjectLedger maps order lines onto ledger rows: timestamps are parsed,
// volumes derived from the product name, and the Plato percentage set to 0.
// It also returns the 1-indexed export rows whose quantity was not a number.
func ProjectLedger(lines []types.OrderLine) ([]types.LedgerRow, []int) {
	rows := make([]types.LedgerRow, len(lines))
	var badQuantity []int

	for i, line := range lines {
		quantity, ok := ParseQuantity(line.Quantity)
		if !ok {
			badQuantity = append(badQuantity, line.RowNumber)
		}
		content := ExtractVolume(line.ProductName)

		rows[i] = types.LedgerRow{
			InvoiceID:         strings.TrimSpace(line.OrderID),
			InvoiceDate:       ParseTimestamp(line.CreatedAt),
			DeliveryDate:      ParseTimestamp(line.FulfilledAt),
			ClientName:        line.BillingName,
			Address:           line.BillingStreet,
			ProductName:       line.ProductName,
			ExciseCode:        line.ExciseCode,
			Quantity:          quantity,
			Content:           content,
			TotalContent:      TotalVolume(content, quantity),
			AlcoholPercentage: line.AlcoholPercentage,
			PlatoPercentage:   0,
		}
	}

	return rows, badQuantity
}

// FilterWindow keeps rows whose delivery date lies within the window,
// bounds included. Rows with an invalid delivery date are dropped.
func FilterWindow(rows []types.LedgerRow, window types.Window) []types.LedgerRow {
	out := make([]types.LedgerRow, 0, len(rows))
	for _, row := range rows {
		if window.Contains(row.DeliveryDate) {
			out = append(out, row)
		}
	}
	return out
}

// Deduplicate collapses rows that are identical across every ledger column,
// keeping the first occurrence.
func Deduplicate(rows []types.LedgerRow) []types.LedgerRow {
	seen := make(map[string]bool, len(rows))
	out := make([]types.LedgerRow, 0, len(rows))

	for _, row := range rows {
		key := strings.Join(row.Values(), "\x1f")
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, row)
	}

	return out
}

// UniqueInvoiceIDs lists the invoice ids of rows in first-appearance order.
// Blank ids are skipped.
func UniqueInvoiceIDs(rows []types.LedgerRow) []string {
	seen := make(map[string]bool)
	var ids []string
	for _, row := range rows {
		if row.InvoiceID == "" || seen[row.InvoiceID] {
			continue
		}
		seen[row.InvoiceID] = true
		ids = append(ids, row.InvoiceID)
	}
	return ids
}
