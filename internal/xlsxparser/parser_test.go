package xlsxparser

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func writeWorkbook(t *testing.T, sheets map[string][][]interface{}) string {
	t.Helper()

	f := excelize.NewFile()
	defer f.Close()

	first := true
	for name, rows := range sheets {
		if first {
			require.NoError(t, f.SetSheetName("Sheet1", name))
			first = false
		} else {
			_, err := f.NewSheet(name)
			require.NoError(t, err)
		}
		for i, row := range rows {
			cell, err := excelize.CoordinatesToCellName(1, i+1)
			require.NoError(t, err)
			row := row
			require.NoError(t, f.SetSheetRow(name, cell, &row))
		}
	}

	path := filepath.Join(t.TempDir(), "reference.xlsx")
	require.NoError(t, f.SaveAs(path))
	return path
}

func TestParse(t *testing.T) {
	path := writeWorkbook(t, map[string][][]interface{}{
		"Products": {
			{},
			{"SKU", "Alcohol Percentage", "Excise code"},
			{"10045", 12.5, "W200"},
			{},
			{" 20001 ", 13},
		},
	})

	table, err := Parse(path, "")
	require.NoError(t, err)

	assert.Equal(t, []string{"SKU", "Alcohol Percentage", "Excise code"}, table.Headers)
	require.Len(t, table.Rows, 2)
	assert.Equal(t, "12.5", table.Rows[0]["Alcohol Percentage"])
	assert.Equal(t, "20001", table.Rows[1]["SKU"])
	assert.Equal(t, "", table.Rows[1]["Excise code"])
	assert.Contains(t, table.Source, "[Products]")
}

func TestParse_NamedSheet(t *testing.T) {
	path := writeWorkbook(t, map[string][][]interface{}{
		"Products": {{"SKU"}, {"a"}},
	})

	_, err := Parse(path, "Missing")
	assert.Error(t, err)

	table, err := Parse(path, "Products")
	require.NoError(t, err)
	assert.Len(t, table.Rows, 1)
}

func TestParse_EmptySheet(t *testing.T) {
	path := writeWorkbook(t, map[string][][]interface{}{"Products": {}})
	_, err := Parse(path, "")
	assert.Error(t, err)
}

func TestParse_MissingFile(t *testing.T) {
	_, err := Parse(filepath.Join(t.TempDir(), "nope.xlsx"), "")
	assert.Error(t, err)
}
