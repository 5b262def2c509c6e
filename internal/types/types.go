// =============================================================================
// Excise Ledger Builder - Shared Types
// =============================================================================
//
// This package contains shared types used across multiple modules to avoid
// import cycles. Types defined here are used by:
//   - converter
//   - locator
//   - ledgerwriter
//   - csvparser / xlsxparser
//
// NULLABLE VALUES:
//   Values that may legitimately be missing (reference data that did not
//   join, timestamps that did not parse) are modelled with explicit nullable
//   types so that "no match" never collapses into a zero value.
//
// =============================================================================

package types

import (
	"database/sql"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// COLUMN NAMES
// =============================================================================

// Order export columns.
const (
	ColFulfillmentStatus = "Fulfillment Status"
	ColLineitemSKU       = "Lineitem sku"
	ColFulfilledAt       = "Fulfilled at"
	ColBillingName       = "Billing Name"
	ColBillingStreet     = "Billing Street"
	ColShippingCountry   = "Shipping Country"
	ColName              = "Name"
	ColCreatedAt         = "Created at"
	ColLineitemName      = "Lineitem name"
	ColLineitemQuantity  = "Lineitem quantity"
)

// Reference table columns.
const (
	ColRefSKU               = "SKU"
	ColRefAlcoholPercentage = "Alcohol Percentage"
	ColRefExciseCode        = "Excise code"
)

// OrderColumns lists every column the order export must carry.
var OrderColumns = []string{
	ColFulfillmentStatus,
	ColLineitemSKU,
	ColFulfilledAt,
	ColBillingName,
	ColBillingStreet,
	ColShippingCountry,
	ColName,
	ColCreatedAt,
	ColLineitemName,
	ColLineitemQuantity,
}

// ReferenceColumns lists every column the reference table must carry.
var ReferenceColumns = []string{
	ColRefSKU,
	ColRefAlcoholPercentage,
	ColRefExciseCode,
}

// LedgerColumns is the fixed header of the output ledger, in order.
var LedgerColumns = []string{
	"Invoice/order",
	"Invoice date",
	"Delivery date",
	"Name of client",
	"Address details",
	"Product name",
	"Excise code",
	"Number of sold items",
	"Content",
	"Total content",
	"Alcohol Percentage",
	"Plato percentage",
}

// =============================================================================
// TABULAR INPUT
// =============================================================================

// Table is a parsed tabular input (CSV or XLSX sheet).
type Table struct {
	// Headers contains the column headers in file order.
	Headers []string

	// Rows contains the data rows as header -> value maps, in file order.
	Rows []map[string]string

	// Source is a human-readable name of where the table came from.
	Source string
}

// HasColumn reports whether the table carries the named column.
func (t *Table) HasColumn(name string) bool {
	for _, h := range t.Headers {
		if h == name {
			return true
		}
	}
	return false
}

// =============================================================================
// DOMAIN RECORDS
// =============================================================================

// OrderLine is one line item of the order export.
//
// FulfilledAt, BillingName and BillingStreet may be blank on continuation
// lines of a multi-line order; they are only trustworthy after forward fill.
type OrderLine struct {
	// RowNumber is the 1-indexed data row in the export, kept for reporting.
	RowNumber int

	OrderID           string
	CreatedAt         string
	FulfilledAt       string
	FulfillmentStatus string
	SKU               string
	ProductName       string
	Quantity          string
	ShippingCountry   string
	BillingName       string
	BillingStreet     string

	// AlcoholPercentage and ExciseCode are populated by the reference join.
	AlcoholPercentage decimal.NullDecimal
	ExciseCode        sql.Null[string]
}

// ReferenceRecord is one row of the product reference table.
type ReferenceRecord struct {
	SKU               string
	AlcoholPercentage decimal.NullDecimal
	ExciseCode        sql.Null[string]
}

// Timestamp is a parsed export timestamp. Valid is false when the source
// value was blank or did not parse.
type Timestamp = sql.Null[time.Time]

// LedgerRow is one row of the final ledger.
type LedgerRow struct {
	InvoiceID         string
	InvoiceDate       Timestamp
	DeliveryDate      Timestamp
	ClientName        string
	Address           string
	ProductName       string
	ExciseCode        sql.Null[string]
	Quantity          int
	Content           int
	TotalContent      int
	AlcoholPercentage decimal.NullDecimal
	PlatoPercentage   int
}

// ExtractedInvoice is a single page copied out of one source document.
type ExtractedInvoice struct {
	InvoiceID string

	// Name is the artifact name inside the archive.
	Name string

	// Document and Page identify where the page was found (page is 1-indexed).
	Document string
	Page     int

	// Data holds a standalone single-page document.
	Data []byte
}

// UnmatchedInvoice is an invoice id for which no page was found.
type UnmatchedInvoice struct {
	InvoiceID string
}

// Window is an inclusive delivery-date range.
type Window struct {
	Start time.Time
	End   time.Time
}

// Contains reports whether ts lies within the window, bounds included.
// Invalid timestamps are never contained.
func (w Window) Contains(ts Timestamp) bool {
	if !ts.Valid {
		return false
	}
	return !ts.V.Before(w.Start) && !ts.V.After(w.End)
}

// TimestampLayout is the layout of timestamps in the export and the ledger.
const TimestampLayout = "2006-01-02 15:04:05"

// Values returns the row's visible columns, formatted, in LedgerColumns
// order. Two rows are duplicates when their Values are equal.
func (r LedgerRow) Values() []string {
	return []string{
		r.InvoiceID,
		formatTimestamp(r.InvoiceDate),
		formatTimestamp(r.DeliveryDate),
		r.ClientName,
		r.Address,
		r.ProductName,
		nullString(r.ExciseCode),
		strconv.Itoa(r.Quantity),
		strconv.Itoa(r.Content),
		strconv.Itoa(r.TotalContent),
		nullDecimal(r.AlcoholPercentage),
		strconv.Itoa(r.PlatoPercentage),
	}
}

func formatTimestamp(ts Timestamp) string {
	if !ts.Valid {
		return ""
	}
	return ts.V.Format(TimestampLayout)
}

func nullString(s sql.Null[string]) string {
	if !s.Valid {
		return ""
	}
	return s.V
}

func nullDecimal(d decimal.NullDecimal) string {
	if !d.Valid {
		return ""
	}
	return d.Decimal.String()
}
