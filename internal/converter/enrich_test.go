package converter

import (
	"testing"

	"github.com/ginjaninja78/excise-ledger/internal/types"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func refTable(rows ...[3]string) *types.Table {
	t := &types.Table{Headers: types.ReferenceColumns, Source: "reference.csv"}
	for _, r := range rows {
		t.Rows = append(t.Rows, map[string]string{
			types.ColRefSKU:               r[0],
			types.ColRefAlcoholPercentage: r[1],
			types.ColRefExciseCode:        r[2],
		})
	}
	return t
}

func TestReferenceRecordsFromTable(t *testing.T) {
	records, warnings := ReferenceRecordsFromTable(refTable(
		[3]string{"10045", "12.5", "W200"},
		[3]string{"20001", "12,0", ""},
		[3]string{"30001", "n/a", "B000"},
	))

	require.Len(t, records, 3)
	assert.True(t, records[0].AlcoholPercentage.Valid)
	assert.Equal(t, "12.5", records[0].AlcoholPercentage.Decimal.String())
	assert.Equal(t, "W200", records[0].ExciseCode.V)

	assert.True(t, records[1].AlcoholPercentage.Decimal.Equal(decimal.NewFromInt(12)))
	assert.False(t, records[1].ExciseCode.Valid)

	assert.False(t, records[2].AlcoholPercentage.Valid)
	require.Len(t, warnings, 1)
	assert.Equal(t, WarnInvalidPercentage, warnings[0].Kind)
	assert.Equal(t, "30001", warnings[0].Subject)
}

func TestNewReferenceIndex_FirstDuplicateWins(t *testing.T) {
	records, _ := ReferenceRecordsFromTable(refTable(
		[3]string{"10045", "12.5", "W200"},
		[3]string{"10045", "40", "S100"},
		[3]string{"10045", "41", "S101"},
		[3]string{"", "5", "B000"},
	))

	idx := NewReferenceIndex(records)
	assert.Equal(t, 1, idx.Len())
	assert.Equal(t, []string{"10045"}, idx.Duplicates)

	rec, ok := idx.Lookup("10045")
	require.True(t, ok)
	assert.Equal(t, "W200", rec.ExciseCode.V)

	_, ok = idx.Lookup("")
	assert.False(t, ok)

	warnings := duplicateWarnings(idx)
	require.Len(t, warnings, 1)
	assert.Equal(t, WarnDuplicateSKU, warnings[0].Kind)
}

func TestEnrich_KeepsEveryLine(t *testing.T) {
	records, _ := ReferenceRecordsFromTable(refTable(
		[3]string{"10045", "12.5", "W200"},
		[3]string{"10045", "40", "S100"},
	))
	idx := NewReferenceIndex(records)

	lines := []types.OrderLine{
		{OrderID: "#1", SKU: "10045"},
		{OrderID: "#1", SKU: "99999"},
		{OrderID: "#2", SKU: ""},
		{OrderID: "#3", SKU: "10045"},
	}

	enriched := Enrich(lines, idx)
	require.Len(t, enriched, len(lines))

	assert.True(t, enriched[0].ExciseCode.Valid)
	assert.Equal(t, "W200", enriched[0].ExciseCode.V)
	assert.Equal(t, "12.5", enriched[0].AlcoholPercentage.Decimal.String())

	assert.False(t, enriched[1].ExciseCode.Valid)
	assert.False(t, enriched[1].AlcoholPercentage.Valid)
	assert.False(t, enriched[2].ExciseCode.Valid)
	assert.True(t, enriched[3].ExciseCode.Valid)

	for i := range lines {
		assert.Equal(t, lines[i].OrderID, enriched[i].OrderID)
	}
	assert.False(t, lines[0].ExciseCode.Valid, "input must not be modified")
}

func TestEnrich_EmptyReference(t *testing.T) {
	idx := NewReferenceIndex(nil)
	lines := []types.OrderLine{{SKU: "a"}, {SKU: "b"}}
	assert.Len(t, Enrich(lines, idx), 2)
	assert.Empty(t, Enrich(nil, idx))
}
