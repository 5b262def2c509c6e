package converter

import (
	"errors"

	"github.com/ginjaninja78/excise-ledger/internal/validation"
)

// Sentinel errors returned by Run. Callers match them with errors.Is; the
// wrapped message carries the detail.
var (
	// ErrMissingInput is returned when a required input is absent.
	ErrMissingInput = validation.ErrMissingInput

	// ErrEmptyWindow is returned when the delivery window is unset or its
	// start lies after its end.
	ErrEmptyWindow = validation.ErrEmptyWindow

	// ErrMissingColumn is returned when an input table lacks a required column.
	ErrMissingColumn = validation.ErrMissingColumn

	// ErrInvalidTimestamp is returned when a window bound cannot be parsed.
	ErrInvalidTimestamp = errors.New("invalid timestamp")
)
