package types

import (
	"database/sql"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestWindowContains(t *testing.T) {
	w := Window{
		Start: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		End:   time.Date(2024, 1, 31, 23, 59, 59, 0, time.UTC),
	}

	assert.True(t, w.Contains(Timestamp{V: w.Start, Valid: true}))
	assert.True(t, w.Contains(Timestamp{V: w.End, Valid: true}))
	assert.False(t, w.Contains(Timestamp{V: w.Start.Add(-time.Second), Valid: true}))
	assert.False(t, w.Contains(Timestamp{V: w.End.Add(time.Second), Valid: true}))
	assert.False(t, w.Contains(Timestamp{V: w.Start.Add(time.Hour)}), "invalid timestamps are never contained")
}

func TestLedgerRowValues(t *testing.T) {
	row := LedgerRow{
		InvoiceID:         "#1",
		DeliveryDate:      Timestamp{V: time.Date(2024, 1, 5, 10, 0, 0, 0, time.UTC), Valid: true},
		ExciseCode:        sql.Null[string]{V: "W200", Valid: true},
		Quantity:          3,
		AlcoholPercentage: decimal.NewNullDecimal(decimal.RequireFromString("12.50")),
	}

	values := row.Values()
	assert.Len(t, values, len(LedgerColumns))
	assert.Equal(t, []string{"#1", "", "2024-01-05 10:00:00", "", "", "", "W200", "3", "0", "0", "12.5", "0"}, values)
}

func TestTableHasColumn(t *testing.T) {
	table := &Table{Headers: []string{"SKU"}}
	assert.True(t, table.HasColumn("SKU"))
	assert.False(t, table.HasColumn("sku"))
}
