// =============================================================================
// Excise Ledger Builder - XLSX Table Parser
// =============================================================================
//
// This module reads a tabular input from an XLSX workbook. The product
// reference table is maintained as a spreadsheet by the purchasing team and
// is accepted either as CSV or as the workbook itself.
//
// SHEET STRUCTURE (Expected Layout):
//
//   | Column A | Column B           | Column C    |
//   |----------|--------------------|-------------|
//   | SKU      | Alcohol Percentage | Excise code |
//   | WN-001   | 12.5               | W200        |
//   | BR-010   | 5                  | B000        |
//
//   Header cells are matched by name, so additional columns and a different
//   column order are fine.
//
// =============================================================================

package xlsxparser

import (
	"fmt"
	"strings"

	"github.com/ginjaninja78/excise-ledger/internal/types"
	"github.com/xuri/excelize/v2"
)

// Parse reads a sheet of an XLSX workbook into a table.
//
// PARAMETERS:
//   - workbookPath: The path to the XLSX file.
//   - sheetName: The sheet to read. Empty means the first sheet.
//
// RETURNS:
//   - The table, with the first non-empty row used as the header row.
//   - An error if the workbook cannot be opened or the sheet is missing.
func Parse(workbookPath, sheetName string) (*types.Table, error) {
	f, err := excelize.OpenFile(workbookPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	return parseSheet(f, workbookPath, sheetName)
}

// parseSheet reads a single sheet from an open workbook.
func parseSheet(f *excelize.File, source, sheetName string) (*types.Table, error) {
	if sheetName == "" {
		sheetName = f.GetSheetName(0)
	}
	if sheetName == "" {
		return nil, fmt.Errorf("workbook has no sheets")
	}

	rows, err := f.GetRows(sheetName)
	if err != nil {
		return nil, fmt.Errorf("failed to read rows of sheet %q: %w", sheetName, err)
	}

	// Skip leading empty rows; the first row with content is the header.
	headerIndex := -1
	for i, row := range rows {
		if !isRowEmpty(row) {
			headerIndex = i
			break
		}
	}
	if headerIndex < 0 {
		return nil, fmt.Errorf("sheet %q is empty", sheetName)
	}

	headers := make([]string, len(rows[headerIndex]))
	for i, cell := range rows[headerIndex] {
		headers[i] = strings.TrimSpace(cell)
		if headers[i] == "" {
			headers[i] = fmt.Sprintf("Column_%d", i+1)
		}
	}

	table := &types.Table{
		Headers: headers,
		Rows:    make([]map[string]string, 0, len(rows)-headerIndex-1),
		Source:  fmt.Sprintf("%s[%s]", source, sheetName),
	}

	for _, row := range rows[headerIndex+1:] {
		if isRowEmpty(row) {
			continue
		}

		// GetRows drops trailing empty cells, so short rows are normal.
		record := make(map[string]string, len(headers))
		for i, header := range headers {
			if i < len(row) {
				record[header] = strings.TrimSpace(row[i])
			} else {
				record[header] = ""
			}
		}
		table.Rows = append(table.Rows, record)
	}

	return table, nil
}

// isRowEmpty checks if a row contains only empty cells.
func isRowEmpty(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
