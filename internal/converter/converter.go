// =============================================================================
// Excise Ledger Builder - Converter Module
// =============================================================================
//
// This module contains the core reconciliation logic. It orchestrates a
// whole run for one market, from parsed input tables to the output archive.
//
// CONVERSION PIPELINE:
//   1. Validate the inputs (structural findings are fatal)
//   2. Drop order lines with an excluded fulfillment status
//   3. Normalize SKUs and left-join the reference table
//   4. Forward fill fulfillment and billing fields
//   5. Keep lines shipped to the market
//   6. Project onto ledger rows (timestamps, volumes)
//   7. Keep rows delivered within the window, drop duplicate rows
//   8. Locate and extract one page per invoice
//   9. Assemble the ledger and the archive
//
// CONCURRENCY:
//   A run is synchronous. A Converter holds no per-run state and may be
//   reused for several runs, one at a time.
//
// =============================================================================

package converter

import (
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/ginjaninja78/excise-ledger/internal/bundle"
	"github.com/ginjaninja78/excise-ledger/internal/config"
	"github.com/ginjaninja78/excise-ledger/internal/ledgerwriter"
	"github.com/ginjaninja78/excise-ledger/internal/locator"
	"github.com/ginjaninja78/excise-ledger/internal/types"
	"github.com/ginjaninja78/excise-ledger/internal/validation"
	"go.uber.org/zap"
)

// =============================================================================
// RESULT STRUCTURE
// =============================================================================

// Warning kinds.
const (
	WarnDuplicateSKU       = "duplicate_sku"
	WarnInvalidPercentage  = "invalid_percentage"
	WarnInvalidQuantity    = "invalid_quantity"
	WarnUnreadableDocument = "unreadable_document"
	WarnRenamedInvoice     = "renamed_invoice"
)

// Warning is a non-fatal data-quality finding of a run.
type Warning struct {
	// Kind is one of the Warn* constants.
	Kind string

	// Subject is what the warning is about: a SKU, a row, a document.
	Subject string

	Message string
}

// Input holds everything a run reads.
type Input struct {
	// Orders is the order export.
	Orders *types.Table

	// Reference is the product reference table.
	Reference *types.Table

	// Documents are searched for invoices in the order given.
	Documents []locator.Source

	// Window is the inclusive delivery-date range.
	Window types.Window
}

// Result represents the outcome of a run. A run with unmatched invoices is
// still successful.
type Result struct {
	// Ledger holds the final, deduplicated ledger rows in export order.
	Ledger []types.LedgerRow

	// Extracted holds one single-page document per found invoice.
	Extracted []types.ExtractedInvoice

	// Unmatched lists invoices with no page found.
	Unmatched []types.UnmatchedInvoice

	// Warnings lists non-fatal data-quality findings.
	Warnings []Warning

	// LedgerName is the file name of the ledger CSV.
	LedgerName string

	// ArchiveName is the file name of the archive.
	ArchiveName string

	// Archive holds the ZIP archive with the invoices and the ledger.
	Archive []byte

	// Stats contains processing statistics.
	Stats ProcessingStats
}

// ProcessingStats contains statistics about a run.
type ProcessingStats struct {
	// OrderLines is the number of rows of the order export.
	OrderLines int

	// Excluded is the number of lines dropped for their fulfillment status.
	Excluded int

	// Enriched is the number of lines that matched a reference record.
	Enriched int

	// MarketLines is the number of lines shipped to the market.
	MarketLines int

	// InWindow is the number of rows delivered within the window.
	InWindow int

	// Duplicates is the number of rows removed as exact duplicates.
	Duplicates int

	// Invoices is the number of distinct invoices on the ledger.
	Invoices int

	// PagesIndexed is the number of document pages whose text was read.
	PagesIndexed int

	// ProcessingTime is the time taken by the run.
	ProcessingTime time.Duration
}

// =============================================================================
// CONVERTER STRUCTURE
// =============================================================================

// Converter runs the pipeline for one market.
type Converter struct {
	market *config.MarketConfig
	match  locator.Matcher
	logger *zap.Logger
}

// New creates a Converter for a market profile. A nil logger disables
// logging.
func New(market *config.MarketConfig, logger *zap.Logger) (*Converter, error) {
	match, err := locator.MatcherFor(market.MatchMode)
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Converter{
		market: market,
		match:  match,
		logger: logger.With(zap.String("market", market.MarketCode)),
	}, nil
}

// =============================================================================
// MAIN PROCESSING FUNCTION
// =============================================================================

// Run executes the pipeline. It fails only on structural problems with the
// inputs; data-quality gaps end up in Result.Warnings and unmatched
// invoices in Result.Unmatched.
func (c *Converter) Run(in Input) (*Result, error) {
	startTime := time.Now()

	// =========================================================================
	// STEP 1: VALIDATE INPUTS
	// =========================================================================

	check := validation.Validate(validation.Inputs{
		Orders:    in.Orders,
		Reference: in.Reference,
		Documents: len(in.Documents),
		Window:    in.Window,
	})
	if err := check.Err(); err != nil {
		return nil, err
	}

	result := &Result{}

	// =========================================================================
	// STEP 2-4: PREPARE ORDER LINES
	// =========================================================================
	// Forward fill relies on export order, so no stage before it reorders.

	lines := OrderLinesFromTable(in.Orders)
	result.Stats.OrderLines = len(lines)

	lines = ExcludeStatuses(lines, c.market)
	result.Stats.Excluded = result.Stats.OrderLines - len(lines)

	lines = NormalizeSKUs(lines)

	records, warnings := ReferenceRecordsFromTable(in.Reference)
	result.Warnings = append(result.Warnings, warnings...)

	index := NewReferenceIndex(records)
	result.Warnings = append(result.Warnings, duplicateWarnings(index)...)

	lines = Enrich(lines, index)
	for _, line := range lines {
		if _, ok := index.Lookup(line.SKU); ok {
			result.Stats.Enriched++
		}
	}

	lines = ForwardFill(lines)

	c.logger.Debug("Order lines prepared",
		zap.Int("lines", len(lines)),
		zap.Int("excluded", result.Stats.Excluded),
		zap.Int("enriched", result.Stats.Enriched),
		zap.Int("reference_skus", index.Len()))

	// =========================================================================
	// STEP 5-7: SELECT LEDGER ROWS
	// =========================================================================

	lines = FilterMarket(lines, c.market)
	result.Stats.MarketLines = len(lines)

	rows, badQuantity := ProjectLedger(lines)
	for _, rowNumber := range badQuantity {
		result.Warnings = append(result.Warnings, Warning{
			Kind:    WarnInvalidQuantity,
			Subject: fmt.Sprintf("row %d", rowNumber),
			Message: fmt.Sprintf("order row %d: quantity is not a whole number, counted as 0", rowNumber),
		})
	}

	rows = FilterWindow(rows, in.Window)
	result.Stats.InWindow = len(rows)

	result.Ledger = Deduplicate(rows)
	result.Stats.Duplicates = result.Stats.InWindow - len(result.Ledger)

	c.logger.Debug("Ledger rows selected",
		zap.Int("market_lines", result.Stats.MarketLines),
		zap.Int("in_window", result.Stats.InWindow),
		zap.Int("duplicates", result.Stats.Duplicates))

	// =========================================================================
	// STEP 8: LOCATE INVOICES
	// =========================================================================

	invoiceIDs := UniqueInvoiceIDs(result.Ledger)
	result.Stats.Invoices = len(invoiceIDs)

	report, pages, renamed := c.locate(in.Documents, invoiceIDs)
	result.Warnings = append(result.Warnings, renamed...)
	result.Extracted = report.Extracted
	result.Unmatched = report.Unmatched
	result.Stats.PagesIndexed = pages
	for _, skip := range report.Skipped {
		result.Warnings = append(result.Warnings, Warning{
			Kind:    WarnUnreadableDocument,
			Subject: skip.Document,
			Message: skip.Error(),
		})
	}

	// =========================================================================
	// STEP 9: ASSEMBLE OUTPUT
	// =========================================================================

	if err := c.assemble(result, in.Window); err != nil {
		return nil, err
	}

	for _, w := range result.Warnings {
		c.logger.Warn(w.Message, zap.String("kind", w.Kind), zap.String("subject", w.Subject))
	}

	result.Stats.ProcessingTime = time.Since(startTime)

	c.logger.Info("Run complete",
		zap.Int("ledger_rows", len(result.Ledger)),
		zap.Int("invoices", result.Stats.Invoices),
		zap.Int("extracted", len(result.Extracted)),
		zap.Int("unmatched", len(result.Unmatched)),
		zap.Int("warnings", len(result.Warnings)),
		zap.Duration("duration", result.Stats.ProcessingTime))

	return result, nil
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

// locate searches the documents for every invoice id and releases them
// before returning. It also returns a warning per invoice whose artifact
// had to be renamed.
func (c *Converter) locate(documents []locator.Source, invoiceIDs []string) (locator.Report, int, []Warning) {
	loc := locator.New(documents, c.match, c.logger)
	defer func() {
		if err := loc.Close(); err != nil {
			c.logger.Debug("Failed to close document", zap.Error(err))
		}
	}()

	names := newArtifactNames(c.market.MarketCode)
	report := loc.LocateAll(invoiceIDs, names.next)
	return report, loc.IndexedPages(), names.renamed
}

// artifactNames hands out invoice artifact names that are unique within one
// archive. Distinct ids can sanitize to the same name ("A/1" and "A_1");
// later ones get a numeric suffix.
type artifactNames struct {
	market  string
	used    map[string]bool
	renamed []Warning
}

func newArtifactNames(market string) *artifactNames {
	return &artifactNames{market: market, used: make(map[string]bool)}
}

func (n *artifactNames) next(invoiceID string) string {
	base := ledgerwriter.InvoiceFileName(n.market, invoiceID)
	name := base
	ext := path.Ext(base)
	for i := 2; n.used[name]; i++ {
		name = fmt.Sprintf("%s_%d%s", strings.TrimSuffix(base, ext), i, ext)
	}
	n.used[name] = true

	if name != base {
		n.renamed = append(n.renamed, Warning{
			Kind:    WarnRenamedInvoice,
			Subject: invoiceID,
			Message: fmt.Sprintf("invoice %q: %s is taken by another invoice, stored as %s", invoiceID, base, name),
		})
	}
	return name
}

// assemble serializes the ledger and builds the archive: the extracted
// invoices in locate order, then the ledger file(s).
func (c *Converter) assemble(result *Result, window types.Window) error {
	stem := ledgerwriter.LedgerStem(c.market.MarketCode, c.market.LedgerLabel, window)
	result.LedgerName = stem + ".csv"
	result.ArchiveName = c.market.ArchiveName

	ledgerCSV, err := ledgerwriter.EncodeCSV(result.Ledger)
	if err != nil {
		return fmt.Errorf("failed to write ledger: %w", err)
	}

	entries := make([]bundle.Entry, 0, len(result.Extracted)+2)
	for _, inv := range result.Extracted {
		entries = append(entries, bundle.Entry{Name: inv.Name, Data: inv.Data})
	}
	entries = append(entries, bundle.Entry{Name: result.LedgerName, Data: ledgerCSV})

	if c.market.LedgerXLSX {
		ledgerXLSX, err := ledgerwriter.EncodeXLSX(result.Ledger)
		if err != nil {
			return fmt.Errorf("failed to write ledger workbook: %w", err)
		}
		entries = append(entries, bundle.Entry{Name: stem + ".xlsx", Data: ledgerXLSX})
	}

	// Entries are stamped with the window end, so reruns over the same
	// inputs give the same archive.
	archive, err := bundle.Build(entries, window.End)
	if err != nil {
		return fmt.Errorf("failed to build archive: %w", err)
	}
	result.Archive = archive

	return nil
}
