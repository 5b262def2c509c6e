package converter

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/ginjaninja78/excise-ledger/internal/config"
	"github.com/ginjaninja78/excise-ledger/internal/locator"
	"github.com/ginjaninja78/excise-ledger/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memSource is an in-memory document of text pages.
type memSource struct {
	name  string
	pages []string
}

func (s memSource) Name() string { return s.name }

func (s memSource) Open() (locator.Document, error) { return memDoc(s), nil }

type memDoc memSource

func (d memDoc) NumPages() int { return len(d.pages) }

func (d memDoc) PageText(page int) (string, error) { return d.pages[page-1], nil }

func (d memDoc) ExtractPage(page int) ([]byte, error) {
	return []byte(fmt.Sprintf("%s/%d", d.name, page)), nil
}

func (d memDoc) Close() error { return nil }

func orderTable(rows ...map[string]string) *types.Table {
	t := &types.Table{Headers: types.OrderColumns, Source: "orders.csv"}
	for _, r := range rows {
		row := make(map[string]string, len(types.OrderColumns))
		for _, col := range types.OrderColumns {
			row[col] = r[col]
		}
		t.Rows = append(t.Rows, row)
	}
	return t
}

func orderRow(id, sku, name, qty, country, fulfilled, billing string) map[string]string {
	street := ""
	if billing != "" {
		street = strings.ToUpper(billing) + " STREET"
	}
	return map[string]string{
		types.ColName:              id,
		types.ColCreatedAt:         "2024-01-03 09:12:44 +0100",
		types.ColFulfilledAt:       fulfilled,
		types.ColFulfillmentStatus: "fulfilled",
		types.ColLineitemSKU:       sku,
		types.ColLineitemName:      name,
		types.ColLineitemQuantity:  qty,
		types.ColShippingCountry:   country,
		types.ColBillingName:       billing,
		types.ColBillingStreet:     street,
	}
}

var january = types.Window{
	Start: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	End:   time.Date(2024, 1, 31, 23, 59, 59, 0, time.UTC),
}

func newConverter(t *testing.T, market *config.MarketConfig) *Converter {
	t.Helper()
	c, err := New(market, nil)
	require.NoError(t, err)
	return c
}

func archiveNames(t *testing.T, data []byte) []string {
	t.Helper()
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)
	names := make([]string, len(zr.File))
	for i, f := range zr.File {
		names[i] = f.Name
	}
	return names
}

func archiveFile(t *testing.T, data []byte, name string) string {
	t.Helper()
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)
	f, err := zr.Open(name)
	require.NoError(t, err)
	defer f.Close()
	b, err := io.ReadAll(f)
	require.NoError(t, err)
	return string(b)
}

func TestRun_SingleMatch(t *testing.T) {
	c := newConverter(t, config.DefaultMarketConfig("FR"))

	result, err := c.Run(Input{
		Orders:    orderTable(orderRow("1001", "10045-6", "Wine 75cl", "2", "FR", "2024-01-05 10:00:00 +0100", "Ann")),
		Reference: refTable([3]string{"10045", "12.5", "W200"}),
		Documents: []locator.Source{memSource{name: "invoices.pdf", pages: []string{"Invoice 1001"}}},
		Window:    january,
	})
	require.NoError(t, err)

	require.Len(t, result.Ledger, 1)
	require.Len(t, result.Extracted, 1)
	assert.Empty(t, result.Unmatched)
	assert.Empty(t, result.Warnings)

	row := result.Ledger[0]
	assert.Equal(t, "1001", row.InvoiceID)
	assert.Equal(t, "W200", row.ExciseCode.V)
	assert.Equal(t, 14, row.TotalContent)

	assert.Equal(t, "FR_1001.pdf", result.Extracted[0].Name)
	assert.Equal(t, "FR_VINIOWIJNIMPORT_20240101_to_20240131.csv", result.LedgerName)
	assert.Equal(t, "FR_excise.zip", result.ArchiveName)
	assert.Equal(t, []string{"FR_1001.pdf", result.LedgerName}, archiveNames(t, result.Archive))

	ledger := archiveFile(t, result.Archive, result.LedgerName)
	assert.Contains(t, ledger, "1001;2024-01-03 09:12:44;2024-01-05 10:00:00;Ann;ANN STREET;Wine 75cl;W200;2;7;14;12.5;0")
}

func TestRun_FullPipeline(t *testing.T) {
	market := config.DefaultMarketConfig("FR")
	market.LedgerXLSX = true
	c := newConverter(t, market)

	restocked := orderRow("1004", "10045", "Wine 75cl", "1", "FR", "2024-01-09 10:00:00", "Dan")
	restocked[types.ColFulfillmentStatus] = "restocked"

	orders := orderTable(
		orderRow("1001", "10045-6", "Wine 75cl", "2", "FR", "2024-01-05 10:00:00", "Ann"),
		// Continuation line: header fields are blank in the export.
		orderRow("1001", "20001B", "Magnum 150cl", "1", "FR", "", ""),
		orderRow("1001", "20001B", "Magnum 150cl", "1", "FR", "", ""),
		orderRow("1002", "99999", "Generic Bottle", "3", "NL", "2024-01-06 10:00:00", "Bob"),
		orderRow("1003", "10045", "Wine 75cl", "1", "FR", "2024-02-02 10:00:00", "Cy"),
		restocked,
		orderRow("1005", "10045", "Wine 75cl", "x", "FR", "2024-01-10 10:00:00", "Eve"),
	)
	reference := refTable(
		[3]string{"10045", "12.5", "W200"},
		[3]string{"20001", "13", "W210"},
		[3]string{"20001", "99", "DUP"},
	)
	docs := []locator.Source{
		memSource{name: "a.pdf", pages: []string{"cover", "Invoice 1005"}},
		memSource{name: "b.pdf", pages: []string{"Invoice 1001", "Invoice 1001 duplicate"}},
	}

	result, err := c.Run(Input{Orders: orders, Reference: reference, Documents: docs, Window: january})
	require.NoError(t, err)

	require.Len(t, result.Ledger, 3)
	magnum := result.Ledger[1]
	assert.Equal(t, "1001", magnum.InvoiceID)
	assert.Equal(t, "Ann", magnum.ClientName, "billing name must be forward filled")
	assert.Equal(t, "ANN STREET", magnum.Address)
	assert.Equal(t, "W210", magnum.ExciseCode.V, "first duplicate reference record wins")
	assert.Equal(t, 15, magnum.Content)
	assert.True(t, magnum.DeliveryDate.Valid)

	assert.Equal(t, "1005", result.Ledger[2].InvoiceID)
	assert.Equal(t, 0, result.Ledger[2].Quantity)

	require.Len(t, result.Extracted, 2)
	assert.Equal(t, "b.pdf", result.Extracted[0].Document)
	assert.Equal(t, 1, result.Extracted[0].Page)
	assert.Equal(t, "a.pdf", result.Extracted[1].Document)
	assert.Empty(t, result.Unmatched)

	assert.Equal(t, 7, result.Stats.OrderLines)
	assert.Equal(t, 1, result.Stats.Excluded)
	assert.Equal(t, 5, result.Stats.Enriched)
	assert.Equal(t, 5, result.Stats.MarketLines)
	assert.Equal(t, 4, result.Stats.InWindow)
	assert.Equal(t, 1, result.Stats.Duplicates)
	assert.Equal(t, 2, result.Stats.Invoices)

	kinds := make([]string, len(result.Warnings))
	for i, w := range result.Warnings {
		kinds[i] = w.Kind
	}
	assert.ElementsMatch(t, []string{WarnDuplicateSKU, WarnInvalidQuantity}, kinds)

	assert.Equal(t, []string{
		"FR_1001.pdf",
		"FR_1005.pdf",
		"FR_VINIOWIJNIMPORT_20240101_to_20240131.csv",
		"FR_VINIOWIJNIMPORT_20240101_to_20240131.xlsx",
	}, archiveNames(t, result.Archive))
}

func TestRun_UnmatchedInvoiceIsNotFatal(t *testing.T) {
	c := newConverter(t, config.DefaultMarketConfig("FR"))

	result, err := c.Run(Input{
		Orders:    orderTable(orderRow("1001", "10045", "Wine 75cl", "1", "FR", "2024-01-05 10:00:00", "Ann")),
		Reference: refTable([3]string{"10045", "12.5", "W200"}),
		Documents: []locator.Source{memSource{name: "a.pdf", pages: []string{"Invoice 2002"}}},
		Window:    january,
	})
	require.NoError(t, err)

	assert.Len(t, result.Ledger, 1)
	assert.Empty(t, result.Extracted)
	require.Len(t, result.Unmatched, 1)
	assert.Equal(t, "1001", result.Unmatched[0].InvoiceID)
	assert.Equal(t, []string{result.LedgerName}, archiveNames(t, result.Archive))
}

func TestRun_StructuralErrors(t *testing.T) {
	c := newConverter(t, config.DefaultMarketConfig("FR"))
	orders := orderTable(orderRow("1001", "10045", "Wine 75cl", "1", "FR", "2024-01-05 10:00:00", "Ann"))
	reference := refTable([3]string{"10045", "12.5", "W200"})
	docs := []locator.Source{memSource{name: "a.pdf"}}

	_, err := c.Run(Input{Reference: reference, Documents: docs, Window: january})
	assert.ErrorIs(t, err, ErrMissingInput)

	_, err = c.Run(Input{Orders: orders, Reference: reference, Window: january})
	assert.ErrorIs(t, err, ErrMissingInput)

	_, err = c.Run(Input{Orders: orders, Reference: reference, Documents: docs})
	assert.ErrorIs(t, err, ErrEmptyWindow)

	reversed := types.Window{Start: january.End, End: january.Start}
	_, err = c.Run(Input{Orders: orders, Reference: reference, Documents: docs, Window: reversed})
	assert.ErrorIs(t, err, ErrEmptyWindow)

	noSKU := &types.Table{Headers: []string{types.ColRefAlcoholPercentage, types.ColRefExciseCode}}
	_, err = c.Run(Input{Orders: orders, Reference: noSKU, Documents: docs, Window: january})
	assert.ErrorIs(t, err, ErrMissingColumn)
	assert.Contains(t, err.Error(), types.ColRefSKU)
}

func TestRun_CollidingArtifactNames(t *testing.T) {
	c := newConverter(t, config.DefaultMarketConfig("FR"))

	result, err := c.Run(Input{
		Orders: orderTable(
			orderRow("A/1", "10045", "Wine 75cl", "1", "FR", "2024-01-05 10:00:00", "Ann"),
			orderRow("A_1", "10045", "Wine 75cl", "1", "FR", "2024-01-06 10:00:00", "Bob"),
		),
		Reference: refTable([3]string{"10045", "12.5", "W200"}),
		Documents: []locator.Source{memSource{name: "a.pdf", pages: []string{"Invoice A/1", "Invoice A_1"}}},
		Window:    january,
	})
	require.NoError(t, err)

	require.Len(t, result.Extracted, 2)
	assert.Equal(t, "FR_A_1.pdf", result.Extracted[0].Name)
	assert.Equal(t, "FR_A_1_2.pdf", result.Extracted[1].Name)
	assert.Equal(t, 2, result.Extracted[1].Page)

	require.Len(t, result.Warnings, 1)
	assert.Equal(t, WarnRenamedInvoice, result.Warnings[0].Kind)
	assert.Equal(t, "A_1", result.Warnings[0].Subject)

	assert.Equal(t, []string{"FR_A_1.pdf", "FR_A_1_2.pdf", result.LedgerName}, archiveNames(t, result.Archive))
	assert.Equal(t, "a.pdf/2", archiveFile(t, result.Archive, "FR_A_1_2.pdf"))
}

func TestArtifactNames_SuffixSkipsTakenNames(t *testing.T) {
	names := newArtifactNames("FR")

	assert.Equal(t, "FR_A_1.pdf", names.next("A/1"))
	assert.Equal(t, "FR_A_1_2.pdf", names.next("A_1_2"))
	assert.Equal(t, "FR_A_1_3.pdf", names.next("A_1"))
	assert.Len(t, names.renamed, 1)
}

func TestRun_ArchiveIsReproducible(t *testing.T) {
	c := newConverter(t, config.DefaultMarketConfig("FR"))
	in := Input{
		Orders:    orderTable(orderRow("1001", "10045", "Wine 75cl", "1", "FR", "2024-01-05 10:00:00", "Ann")),
		Reference: refTable([3]string{"10045", "12.5", "W200"}),
		Documents: []locator.Source{memSource{name: "a.pdf", pages: []string{"Invoice 1001"}}},
		Window:    january,
	}

	first, err := c.Run(in)
	require.NoError(t, err)
	second, err := c.Run(in)
	require.NoError(t, err)

	assert.Equal(t, first.Archive, second.Archive)

	zr, err := zip.NewReader(bytes.NewReader(first.Archive), int64(len(first.Archive)))
	require.NoError(t, err)
	assert.True(t, zr.File[0].Modified.Equal(january.End))
}

func TestNew_UnknownMatchMode(t *testing.T) {
	market := config.DefaultMarketConfig("FR")
	market.MatchMode = "fuzzy"
	_, err := New(market, nil)
	assert.Error(t, err)
}
