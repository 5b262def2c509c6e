// =============================================================================
// Excise Ledger Builder - Invoice Locator
// =============================================================================
//
// This module finds, for each invoice id, the one page of supporting
// documentation whose text contains the id, and copies that page out as a
// standalone document.
//
// SEARCH ORDER:
//   Documents are searched in the order given, pages in page order. The
//   first matching page wins; nothing after it is read for that id.
//
// PAGE INDEX:
//   Page text is extracted at most once per Locator. Extracted text is
//   cached in search order, so the cache is always a prefix of the full
//   document-then-page sequence. A search scans the cache first and only
//   then extends it, one page at a time, until it finds a match or runs out
//   of pages. Later searches never re-read a page and never read past the
//   page that ended the previous search unless they have to.
//
// FAILURES:
//   A document that cannot be opened, or a page whose text cannot be
//   extracted, is skipped and recorded. It never aborts the search.
//
// =============================================================================

package locator

import (
	"errors"
	"fmt"

	"github.com/ginjaninja78/excise-ledger/internal/types"
	"go.uber.org/zap"
)

// Document is an open multi-page source document. Pages are 1-indexed.
type Document interface {
	// NumPages returns the number of pages.
	NumPages() int

	// PageText returns the extractable text of a page.
	PageText(page int) (string, error)

	// ExtractPage returns a standalone single-page document holding a copy
	// of the page.
	ExtractPage(page int) ([]byte, error)

	// Close releases the document.
	Close() error
}

// Source is a named document that can be opened on demand.
type Source interface {
	Name() string
	Open() (Document, error)
}

// Match is the outcome of a search. Page and Document are only meaningful
// when Found is true.
type Match struct {
	Found bool

	// Source is the index of the matching source.
	Source int

	// Document is the name of the matching source.
	Document string

	// Page is the 1-indexed matching page.
	Page int
}

// Skip records a document or page that could not be read.
type Skip struct {
	Document string

	// Page is 0 when the whole document could not be opened.
	Page int

	Err error
}

func (s Skip) Error() string {
	if s.Page == 0 {
		return fmt.Sprintf("%s: %v", s.Document, s.Err)
	}
	return fmt.Sprintf("%s page %d: %v", s.Document, s.Page, s.Err)
}

// Report is the outcome of locating a set of invoices.
type Report struct {
	// Extracted holds one entry per found invoice, in search order.
	Extracted []types.ExtractedInvoice

	// Unmatched holds every invoice with no extracted page, in search order.
	Unmatched []types.UnmatchedInvoice

	// Skipped lists unreadable documents and pages.
	Skipped []Skip
}

// indexedPage is one cached entry of the page index.
type indexedPage struct {
	source int
	page   int
	text   string
}

// Locator searches an ordered set of documents for invoice ids.
// A Locator is not safe for concurrent use.
type Locator struct {
	sources []Source
	match   Matcher
	logger  *zap.Logger

	// pages is the page index built so far.
	pages []indexedPage

	// cursorSource and cursorPage address the next page to index.
	cursorSource int
	cursorPage   int

	// open is the document at cursorSource, or nil when none is open.
	open Document

	skipped []Skip
}

// New creates a Locator over sources. A nil matcher means substring
// matching; a nil logger disables logging.
func New(sources []Source, match Matcher, logger *zap.Logger) *Locator {
	if match == nil {
		match = SubstringMatcher
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Locator{
		sources: sources,
		match:   match,
		logger:  logger,
	}
}

// =============================================================================
// SEARCH
// =============================================================================

// Locate returns the first page, in document-then-page order, whose text
// matches invoiceID.
func (l *Locator) Locate(invoiceID string) Match {
	for _, p := range l.pages {
		if l.match(p.text, invoiceID) {
			return l.matchFor(p)
		}
	}

	for {
		p, ok := l.next()
		if !ok {
			return Match{}
		}
		if l.match(p.text, invoiceID) {
			return l.matchFor(p)
		}
	}
}

// Extract copies the matched page out as a standalone document.
func (l *Locator) Extract(m Match) ([]byte, error) {
	if !m.Found {
		return nil, errors.New("no match to extract")
	}

	if l.open != nil && l.cursorSource == m.Source {
		return l.open.ExtractPage(m.Page)
	}

	// The cursor has moved past the document; reopen it.
	doc, err := l.sources[m.Source].Open()
	if err != nil {
		return nil, fmt.Errorf("failed to reopen %s: %w", m.Document, err)
	}
	defer doc.Close()

	return doc.ExtractPage(m.Page)
}

// LocateAll searches every invoice id in order and extracts the matching
// pages. name gives the artifact name of an extracted invoice. A page that
// matches but cannot be extracted leaves the invoice unmatched.
func (l *Locator) LocateAll(invoiceIDs []string, name func(invoiceID string) string) Report {
	var report Report

	for _, id := range invoiceIDs {
		m := l.Locate(id)
		if !m.Found {
			l.logger.Warn("Invoice not found in any document", zap.String("invoice", id))
			report.Unmatched = append(report.Unmatched, types.UnmatchedInvoice{InvoiceID: id})
			continue
		}

		data, err := l.Extract(m)
		if err != nil {
			l.logger.Warn("Failed to extract invoice page",
				zap.String("invoice", id),
				zap.String("document", m.Document),
				zap.Int("page", m.Page),
				zap.Error(err))
			l.skip(Skip{Document: m.Document, Page: m.Page, Err: err})
			report.Unmatched = append(report.Unmatched, types.UnmatchedInvoice{InvoiceID: id})
			continue
		}

		l.logger.Debug("Invoice located",
			zap.String("invoice", id),
			zap.String("document", m.Document),
			zap.Int("page", m.Page))

		report.Extracted = append(report.Extracted, types.ExtractedInvoice{
			InvoiceID: id,
			Name:      name(id),
			Document:  m.Document,
			Page:      m.Page,
			Data:      data,
		})
	}

	report.Skipped = l.Skipped()
	return report
}

// Skipped returns the documents and pages that could not be read so far.
func (l *Locator) Skipped() []Skip {
	return append([]Skip(nil), l.skipped...)
}

// IndexedPages returns the number of pages whose text has been extracted.
func (l *Locator) IndexedPages() int {
	return len(l.pages)
}

// Close releases the open document, if any. It is safe to call more than
// once.
func (l *Locator) Close() error {
	return l.closeOpen()
}

// =============================================================================
// INDEX CURSOR
// =============================================================================

// next extracts the text of the page at the cursor, appends it to the index
// and advances the cursor. It reports false once every source is exhausted.
func (l *Locator) next() (indexedPage, bool) {
	for l.cursorSource < len(l.sources) {
		src := l.sources[l.cursorSource]

		if l.open == nil {
			doc, err := src.Open()
			if err != nil {
				l.logger.Warn("Skipping unreadable document",
					zap.String("document", src.Name()), zap.Error(err))
				l.skip(Skip{Document: src.Name(), Err: err})
				l.cursorSource++
				continue
			}
			l.open = doc
			l.cursorPage = 1
		}

		if l.cursorPage > l.open.NumPages() {
			if err := l.closeOpen(); err != nil {
				l.logger.Debug("Failed to close document",
					zap.String("document", src.Name()), zap.Error(err))
			}
			l.cursorSource++
			continue
		}

		page := l.cursorPage
		l.cursorPage++

		text, err := l.open.PageText(page)
		if err != nil {
			l.logger.Warn("Skipping unreadable page",
				zap.String("document", src.Name()), zap.Int("page", page), zap.Error(err))
			l.skip(Skip{Document: src.Name(), Page: page, Err: err})
			text = ""
		}

		p := indexedPage{source: l.cursorSource, page: page, text: text}
		l.pages = append(l.pages, p)
		return p, true
	}

	return indexedPage{}, false
}

func (l *Locator) matchFor(p indexedPage) Match {
	return Match{
		Found:    true,
		Source:   p.source,
		Document: l.sources[p.source].Name(),
		Page:     p.page,
	}
}

func (l *Locator) skip(s Skip) {
	l.skipped = append(l.skipped, s)
}

func (l *Locator) closeOpen() error {
	if l.open == nil {
		return nil
	}
	err := l.open.Close()
	l.open = nil
	return err
}
