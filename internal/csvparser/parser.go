// =============================================================================
// Excise Ledger Builder - CSV Parser Module
// =============================================================================
//
// This module is responsible for parsing the CSV inputs of a run: the order
// export of the web shop and the product reference table. It handles:
//   - Different delimiters (comma, semicolon, pipe, tab)
//   - Multi-line headers
//   - Custom data start rows
//   - Reference exports where every physical line is wrapped in quotes
//
// Rows are returned in file order. Order matters downstream: forward fill of
// order header fields depends on the original export row order.
//
// =============================================================================

package csvparser

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/ginjaninja78/excise-ledger/internal/config"
	"github.com/ginjaninja78/excise-ledger/internal/types"
)

// ErrEmptyFile is returned when the input has no rows at all.
var ErrEmptyFile = errors.New("CSV file is empty")

// utf8BOM is stripped from the start of the first header cell.
const utf8BOM = "\ufeff"

// =============================================================================
// PARSER FUNCTIONS
// =============================================================================

// ParseFile opens filePath and parses it with Parse.
func ParseFile(filePath string, settings config.CSVSettings) (*types.Table, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	return Parse(file, filePath, settings)
}

// Parse reads CSV data and returns the parsed table.
//
// PARAMETERS:
//   - r: The CSV content.
//   - source: A name for the input, used in the table and in errors.
//   - settings: The CSV parsing settings from the market profile.
//
// PARSING PROCESS:
//   1. Optionally sanitize every physical line (strip wrapping quotes)
//   2. Configure the CSV reader with the specified delimiter
//   3. Read and merge header rows (for multi-line headers)
//   4. Read data rows starting from the configured data start row
//   5. Convert each row to a map of header -> value
func Parse(r io.Reader, source string, settings config.CSVSettings) (*types.Table, error) {
	reader := bufio.NewReader(r)

	var input io.Reader = reader
	if settings.StripQuotes() {
		cleaned, err := sanitizeLines(reader)
		if err != nil {
			return nil, fmt.Errorf("failed to sanitize %s: %w", source, err)
		}
		input = cleaned
	}

	csvReader := csv.NewReader(input)
	configureReader(csvReader, settings)

	allRows, err := csvReader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV %s: %w", source, err)
	}

	if len(allRows) == 0 {
		return nil, fmt.Errorf("%s: %w", source, ErrEmptyFile)
	}

	if len(allRows[0]) > 0 {
		allRows[0][0] = strings.TrimPrefix(allRows[0][0], utf8BOM)
	}

	headers, err := extractHeaders(allRows, settings)
	if err != nil {
		return nil, fmt.Errorf("failed to extract headers: %w", err)
	}

	return &types.Table{
		Headers: headers,
		Rows:    extractDataRows(allRows, headers, settings),
		Source:  source,
	}, nil
}

// sanitizeLines trims surrounding whitespace and wrapping double quotes from
// every physical line. Reference exports arrive as `"SKU,Alcohol ...,..."`
// per line, which a CSV reader would otherwise see as one quoted field.
func sanitizeLines(r io.Reader) (io.Reader, error) {
	var buf bytes.Buffer
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		line = strings.Trim(line, `"`)
		buf.WriteString(line)
		buf.WriteByte('\n')
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	return &buf, nil
}

// configureReader configures the CSV reader based on the settings.
func configureReader(reader *csv.Reader, settings config.CSVSettings) {
	// Set the delimiter.
	// Handle special cases for common delimiters.
	switch settings.Delimiter {
	case "\\t", "tab", "TAB":
		reader.Comma = '\t'
	case "|", "pipe", "PIPE":
		reader.Comma = '|'
	case ";", "semicolon":
		reader.Comma = ';'
	default:
		if len(settings.Delimiter) > 0 {
			reader.Comma = rune(settings.Delimiter[0])
		} else {
			reader.Comma = ','
		}
	}

	// Exports are not strict about column counts or quoting.
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true
}

// extractHeaders extracts and merges headers from the CSV.
//
// MULTI-LINE HEADER HANDLING:
//   Some CSV files have headers that span multiple rows. Non-empty values of
//   each column are joined with a space.
//
//   Example:
//   Row 1: "Lineitem", "", "Billing", ""
//   Row 2: "sku", "name", "Name", "Street"
//   Result: "Lineitem sku", "name", "Billing Name", "Street"
func extractHeaders(allRows [][]string, settings config.CSVSettings) ([]string, error) {
	if settings.HeaderRows <= 0 {
		return nil, fmt.Errorf("header_rows must be at least 1")
	}

	if len(allRows) < settings.HeaderRows {
		return nil, fmt.Errorf("file has fewer rows than header_rows setting")
	}

	if settings.HeaderRows == 1 {
		return cleanHeaders(allRows[0]), nil
	}

	maxCols := 0
	for i := 0; i < settings.HeaderRows; i++ {
		if len(allRows[i]) > maxCols {
			maxCols = len(allRows[i])
		}
	}

	headers := make([]string, maxCols)
	for col := 0; col < maxCols; col++ {
		var parts []string

		for row := 0; row < settings.HeaderRows; row++ {
			if col < len(allRows[row]) {
				value := strings.TrimSpace(allRows[row][col])
				if value != "" {
					parts = append(parts, value)
				}
			}
		}

		headers[col] = strings.Join(parts, " ")
	}

	return cleanHeaders(headers), nil
}

// cleanHeaders trims header values and names empty headers by position.
func cleanHeaders(headers []string) []string {
	cleaned := make([]string, len(headers))

	for i, header := range headers {
		header = strings.TrimSpace(header)
		if header == "" {
			header = fmt.Sprintf("Column_%d", i+1)
		}
		cleaned[i] = header
	}

	return cleaned
}

// extractDataRows converts data rows to header -> value maps, keeping file
// order and skipping rows that are entirely empty.
func extractDataRows(allRows [][]string, headers []string, settings config.CSVSettings) []map[string]string {
	// DataStartRow is 1-indexed, so subtract 1 for 0-indexed array.
	startIndex := settings.DataStartRow - 1
	if startIndex < settings.HeaderRows {
		startIndex = settings.HeaderRows
	}

	if startIndex >= len(allRows) {
		return []map[string]string{}
	}

	dataRows := make([]map[string]string, 0, len(allRows)-startIndex)

	for rowIndex := startIndex; rowIndex < len(allRows); rowIndex++ {
		row := allRows[rowIndex]

		if isRowEmpty(row) {
			continue
		}

		rowMap := make(map[string]string, len(headers))
		for colIndex, header := range headers {
			if colIndex < len(row) {
				rowMap[header] = strings.TrimSpace(row[colIndex])
			} else {
				// Column is missing in this row.
				rowMap[header] = ""
			}
		}

		dataRows = append(dataRows, rowMap)
	}

	return dataRows
}

// isRowEmpty checks if a row contains only empty values.
func isRowEmpty(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
