// =============================================================================
// Excise Ledger Builder - Main Entry Point
// =============================================================================
//
// This is the main entry point for the excise-ledger CLI application.
// It delegates command execution to the cmd package.
//
// USAGE:
//   excise-ledger process   - Build the ledger and invoice archive for a market
//   excise-ledger validate  - Check configuration and inputs without processing
//   excise-ledger version   - Display the application version
//
// ARCHITECTURE:
//   - cmd/      : CLI command definitions (Cobra)
//   - internal/ : Core reconciliation and extraction logic
//   - pkg/      : Shared utilities (files, logging)
//   - markets/  : Market-specific YAML profiles
//
// =============================================================================

package main

import (
	"github.com/ginjaninja78/excise-ledger/cmd"
)

func main() {
	cmd.Execute()
}
