// =============================================================================
// Excise Ledger Builder - Input Validation
// =============================================================================
//
// This module checks the inputs of a run before any processing starts.
//
// VALIDATION LEVELS:
//   1. Structural (severity "error"): a missing input, a missing column or
//      an empty delivery window. Processing must not start.
//   2. Data quality (severity "warning"): empty tables, duplicate reference
//      SKUs, blank SKUs, non-numeric quantities. Processing continues and
//      the affected rows degrade to documented defaults.
//
// ERROR HANDLING:
//   - Findings are collected, not returned one at a time
//   - Every structural finding wraps a sentinel error, so callers can use
//     errors.Is on the first fatal finding
//
// =============================================================================

package validation

import (
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/ginjaninja78/excise-ledger/internal/types"
)

// Sentinel errors wrapped by structural findings.
var (
	ErrMissingInput  = errors.New("missing input")
	ErrEmptyWindow   = errors.New("empty delivery window")
	ErrMissingColumn = errors.New("missing required column")
)

// Severity levels.
const (
	SeverityError   = "error"
	SeverityWarning = "warning"
)

// =============================================================================
// VALIDATION ERROR TYPES
// =============================================================================

// ValidationError is a single finding.
type ValidationError struct {
	// Severity is "error" (fatal) or "warning" (processing continues).
	Severity string

	// Source names the input the finding is about ("orders", "reference",
	// "invoices", "window").
	Source string

	// Field is the column or setting concerned, if any.
	Field string

	// Value is the offending value, if any.
	Value string

	// Rule is the short name of the violated rule.
	Rule string

	// Message is a human-readable description.
	Message string

	// RowNumber is the 1-indexed data row, or 0 for table-level findings.
	RowNumber int

	// Err is the sentinel of a structural finding.
	Err error
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "[%s] %s", strings.ToUpper(e.Severity), e.Source)
	if e.RowNumber > 0 {
		fmt.Fprintf(&b, ", row %d", e.RowNumber)
	}
	if e.Field != "" {
		fmt.Fprintf(&b, ", field '%s'", e.Field)
	}
	fmt.Fprintf(&b, ": %s", e.Message)
	if e.Value != "" {
		fmt.Fprintf(&b, " (value: '%s')", e.Value)
	}
	return b.String()
}

// Unwrap returns the sentinel of a structural finding.
func (e *ValidationError) Unwrap() error {
	return e.Err
}

// =============================================================================
// VALIDATION RESULT
// =============================================================================

// ValidationResult contains every finding of a validation pass.
type ValidationResult struct {
	// IsValid is true if there are no fatal findings.
	IsValid bool

	// Errors contains all findings, including warnings.
	Errors []*ValidationError

	// ErrorCount is the number of fatal findings.
	ErrorCount int

	// WarningCount is the number of warnings.
	WarningCount int
}

func (r *ValidationResult) add(e *ValidationError) {
	r.Errors = append(r.Errors, e)
	if e.Severity == SeverityError {
		r.ErrorCount++
		r.IsValid = false
	} else {
		r.WarningCount++
	}
}

// Err returns the first fatal finding, or nil.
func (r *ValidationResult) Err() error {
	for _, e := range r.Errors {
		if e.Severity == SeverityError {
			return e
		}
	}
	return nil
}

// =============================================================================
// MAIN VALIDATION FUNCTION
// =============================================================================

// Inputs are the inputs of a run as seen by validation.
type Inputs struct {
	Orders    *types.Table
	Reference *types.Table

	// Documents is the number of supporting documents.
	Documents int

	Window types.Window
}

// Validate checks the inputs of a run.
//
// CHECKS:
//   1. Orders, reference and at least one document are present
//   2. The window is set and its start is not after its end
//   3. Every required column is present
//   4. Data quality of the rows (warnings only)
func Validate(in Inputs) *ValidationResult {
	result := &ValidationResult{IsValid: true}

	validatePresence(result, in)
	validateWindow(result, in.Window)

	if in.Orders != nil {
		validateColumns(result, "orders", in.Orders, types.OrderColumns)
		validateOrderRows(result, in.Orders)
	}
	if in.Reference != nil {
		validateColumns(result, "reference", in.Reference, types.ReferenceColumns)
		validateReferenceRows(result, in.Reference)
	}

	return result
}

func validatePresence(result *ValidationResult, in Inputs) {
	missing := func(source, message string) {
		result.add(&ValidationError{
			Severity: SeverityError,
			Source:   source,
			Rule:     "required",
			Message:  message,
			Err:      ErrMissingInput,
		})
	}

	if in.Orders == nil {
		missing("orders", "order export is required")
	}
	if in.Reference == nil {
		missing("reference", "reference table is required")
	}
	if in.Documents == 0 {
		missing("invoices", "at least one invoice document is required")
	}
}

func validateWindow(result *ValidationResult, w types.Window) {
	switch {
	case w.Start.IsZero() || w.End.IsZero():
		result.add(&ValidationError{
			Severity: SeverityError,
			Source:   "window",
			Rule:     "required",
			Message:  "start and end of the delivery window are required",
			Err:      ErrEmptyWindow,
		})
	case w.Start.After(w.End):
		result.add(&ValidationError{
			Severity: SeverityError,
			Source:   "window",
			Field:    "start",
			Value:    w.Start.Format(types.TimestampLayout),
			Rule:     "start_before_end",
			Message:  "start of the delivery window is after its end " + w.End.Format(types.TimestampLayout),
			Err:      ErrEmptyWindow,
		})
	}
}

func validateColumns(result *ValidationResult, source string, t *types.Table, required []string) {
	for _, col := range required {
		if t.HasColumn(col) {
			continue
		}
		result.add(&ValidationError{
			Severity: SeverityError,
			Source:   source,
			Field:    col,
			Rule:     "required_column",
			Message:  fmt.Sprintf("column missing from %s", t.Source),
			Err:      ErrMissingColumn,
		})
	}
}

func validateOrderRows(result *ValidationResult, t *types.Table) {
	if len(t.Rows) == 0 {
		result.add(&ValidationError{
			Severity: SeverityWarning,
			Source:   "orders",
			Rule:     "not_empty",
			Message:  "order export has no rows",
		})
		return
	}

	for i, row := range t.Rows {
		qty := strings.TrimSpace(row[types.ColLineitemQuantity])
		if !isWholeNumber(qty) && t.HasColumn(types.ColLineitemQuantity) {
			result.add(&ValidationError{
				Severity:  SeverityWarning,
				Source:    "orders",
				Field:     types.ColLineitemQuantity,
				Value:     qty,
				Rule:      "integer",
				Message:   "quantity is not a whole number and counts as 0",
				RowNumber: i + 1,
			})
		}
	}
}

func validateReferenceRows(result *ValidationResult, t *types.Table) {
	if len(t.Rows) == 0 {
		result.add(&ValidationError{
			Severity: SeverityWarning,
			Source:   "reference",
			Rule:     "not_empty",
			Message:  "reference table has no rows; no order line will be enriched",
		})
		return
	}

	seen := make(map[string]int)
	for i, row := range t.Rows {
		sku := strings.TrimSpace(row[types.ColRefSKU])
		if sku == "" {
			continue
		}
		if first, ok := seen[sku]; ok {
			result.add(&ValidationError{
				Severity:  SeverityWarning,
				Source:    "reference",
				Field:     types.ColRefSKU,
				Value:     sku,
				Rule:      "unique",
				Message:   fmt.Sprintf("duplicate of row %d; the first record is used", first),
				RowNumber: i + 1,
			})
			continue
		}
		seen[sku] = i + 1
	}
}

func isWholeNumber(s string) bool {
	f, err := strconv.ParseFloat(s, 64)
	return err == nil && f == math.Trunc(f)
}

// =============================================================================
// OUTPUT
// =============================================================================

// FormatErrors formats findings for display or logging.
func FormatErrors(errs []*ValidationError) string {
	if len(errs) == 0 {
		return "No validation errors."
	}

	var builder strings.Builder
	builder.WriteString(fmt.Sprintf("Validation completed with %d finding(s):\n\n", len(errs)))
	for i, err := range errs {
		builder.WriteString(fmt.Sprintf("%d. %s\n", i+1, err.Error()))
	}
	return builder.String()
}

// WriteReport writes the formatted findings to w.
func WriteReport(w io.Writer, result *ValidationResult) error {
	_, err := io.WriteString(w, FormatErrors(result.Errors))
	return err
}
