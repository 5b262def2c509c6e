package converter

import (
	"strings"

	"github.com/ginjaninja78/excise-ledger/internal/types"
)

// ForwardFill repairs multi-line orders. The export writes the fulfillment
// timestamp and billing details only on the first line item of an order;
// each blank value is replaced by the last non-blank value seen above it.
//
// Lines must be in export order. Values before the first non-blank one stay
// blank. The input slice is not modified.
func ForwardFill(lines []types.OrderLine) []types.OrderLine {
	out := make([]types.OrderLine, len(lines))

	var fulfilledAt, billingName, billingStreet string
	for i, line := range lines {
		fill(&line.FulfilledAt, &fulfilledAt)
		fill(&line.BillingName, &billingName)
		fill(&line.BillingStreet, &billingStreet)
		out[i] = line
	}

	return out
}

// fill copies last into a blank value, or records a non-blank value as last.
func fill(value, last *string) {
	if strings.TrimSpace(*value) == "" {
		*value = *last
		return
	}
	*last = *value
}
