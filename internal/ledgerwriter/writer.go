// =============================================================================
// Excise Ledger Builder - Ledger Writer Module
// =============================================================================
//
// This module serializes the final ledger and names every output artifact.
//
// LEDGER LAYOUT:
//   A header row with the twelve ledger columns, then one row per ledger
//   row, ';' delimited:
//
//   Invoice/order;Invoice date;Delivery date;...;Alcohol Percentage;Plato percentage
//   #1001;2024-01-03 09:12:44;2024-01-05 10:00:00;...;12.5;0
//
//   Invalid timestamps and missing reference values are written as empty
//   cells.
//
// FILE NAMES:
//   Ledger:  {MARKET}_{LABEL}_{start:YYYYMMDD}_to_{end:YYYYMMDD}.csv
//   Invoice: {MARKET}_{invoice id}.pdf
//
// =============================================================================

package ledgerwriter

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/ginjaninja78/excise-ledger/internal/types"
	"github.com/xuri/excelize/v2"
)

// Delimiter separates ledger fields.
const Delimiter = ';'

// dateStamp is the layout of window bounds in file names.
const dateStamp = "20060102"

// sheetName is the worksheet of the XLSX copy.
const sheetName = "Ledger"

// =============================================================================
// CSV OUTPUT
// =============================================================================

// WriteCSV writes the header and rows to w.
func WriteCSV(w io.Writer, rows []types.LedgerRow) error {
	cw := csv.NewWriter(w)
	cw.Comma = Delimiter

	if err := cw.Write(types.LedgerColumns); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	for i, row := range rows {
		if err := cw.Write(row.Values()); err != nil {
			return fmt.Errorf("failed to write row %d: %w", i+1, err)
		}
	}

	cw.Flush()
	return cw.Error()
}

// EncodeCSV returns the ledger as CSV bytes.
func EncodeCSV(rows []types.LedgerRow) ([]byte, error) {
	var buf bytes.Buffer
	if err := WriteCSV(&buf, rows); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// =============================================================================
// XLSX OUTPUT
// =============================================================================

// EncodeXLSX returns the ledger as an XLSX workbook with a single sheet.
// Counts are written as numbers, everything else as text.
func EncodeXLSX(rows []types.LedgerRow) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), sheetName); err != nil {
		return nil, fmt.Errorf("failed to name sheet: %w", err)
	}

	header := toCells(types.LedgerColumns)
	if err := f.SetSheetRow(sheetName, "A1", &header); err != nil {
		return nil, fmt.Errorf("failed to write header: %w", err)
	}

	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, err
		}

		values := toCells(row.Values())
		values[7] = row.Quantity
		values[8] = row.Content
		values[9] = row.TotalContent
		values[11] = row.PlatoPercentage

		if err := f.SetSheetRow(sheetName, cell, &values); err != nil {
			return nil, fmt.Errorf("failed to write row %d: %w", i+1, err)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to encode workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func toCells(values []string) []interface{} {
	cells := make([]interface{}, len(values))
	for i, v := range values {
		cells[i] = v
	}
	return cells
}

// =============================================================================
// FILE NAMES
// =============================================================================

// LedgerStem returns the ledger file name without extension.
func LedgerStem(marketCode, label string, window types.Window) string {
	return fmt.Sprintf("%s_%s_%s_to_%s",
		marketCode, label,
		window.Start.Format(dateStamp), window.End.Format(dateStamp))
}

// LedgerFileName returns the name of the ledger CSV.
func LedgerFileName(marketCode, label string, window types.Window) string {
	return LedgerStem(marketCode, label, window) + ".csv"
}

// InvoiceFileName returns the name of an extracted invoice page. Path
// separators in the id are replaced so the name stays a single entry.
func InvoiceFileName(marketCode, invoiceID string) string {
	safe := strings.NewReplacer("/", "_", "\\", "_").Replace(invoiceID)
	return fmt.Sprintf("%s_%s.pdf", marketCode, safe)
}

// UnmatchedFileName returns the name of the unmatched-invoice report.
func UnmatchedFileName(window types.Window) string {
	return fmt.Sprintf("unmatched_%s_to_%s.txt",
		window.Start.Format(dateStamp), window.End.Format(dateStamp))
}

// UnmatchedMessage is the one-line summary printed for unmatched invoices.
// It is empty when every invoice was found.
func UnmatchedMessage(unmatched []types.UnmatchedInvoice) string {
	if len(unmatched) == 0 {
		return ""
	}
	ids := make([]string, len(unmatched))
	for i, u := range unmatched {
		ids[i] = u.InvoiceID
	}
	return "The following invoices were not found in the PDF: " + strings.Join(ids, ", ")
}
