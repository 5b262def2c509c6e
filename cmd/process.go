// =============================================================================
// Excise Ledger Builder - Process Command
// =============================================================================
//
// This file defines the 'process' command, which runs the whole pipeline for
// one market and writes its outputs.
//
// COMMAND USAGE:
//   excise-ledger process [flags]
//
// FLAGS:
//   --orders, --reference : Input tables (CSV or XLSX)
//   --invoices            : Invoice PDFs, in search order (repeatable)
//   --invoice-dir         : Directory of invoice PDFs, name order
//   --start, --end        : Inclusive delivery window
//   --market              : Market code
//   --output-dir          : Where the archive and reports go
//   --pdf-backend         : "pure" or "mupdf"
//   --dry-run             : Run everything but write nothing
//
// OUTPUTS (in the output directory):
//   - {archive_name}: extracted invoice pages and the ledger
//   - unmatched_{start}_to_{end}.txt: invoices with no page found
//   - run_summary_*.txt: statistics and warnings of the run
//
// =============================================================================

package cmd

import (
	"errors"
	"fmt"
	"time"

	"github.com/ginjaninja78/excise-ledger/internal/converter"
	"github.com/ginjaninja78/excise-ledger/internal/ledgerwriter"
	"github.com/ginjaninja78/excise-ledger/internal/pdfdoc"
	"github.com/ginjaninja78/excise-ledger/pkg/utils"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// =============================================================================
// COMMAND FLAGS
// =============================================================================

// processFlags holds the input flags of the process command.
var processFlags inputFlags

// dryRun runs the pipeline without writing output files.
var dryRun bool

// =============================================================================
// PROCESS COMMAND DEFINITION
// =============================================================================

var processCmd = &cobra.Command{
	Use:   "process",
	Short: "Build the excise ledger and invoice archive for a market",
	Long: `The process command reads the order export and the product reference table,
selects the order lines shipped to the market and delivered within the window,
and writes a ledger of them. For every invoice on the ledger, the invoice PDFs
are searched for the first page mentioning the invoice id; that page is copied
into the archive next to the ledger.

Invoices whose page cannot be found are listed on the console and in an
unmatched report. They do not fail the run.`,

	RunE: func(cmd *cobra.Command, args []string) error {
		return runProcess()
	},
}

// =============================================================================
// INITIALIZATION
// =============================================================================

func init() {
	rootCmd.AddCommand(processCmd)

	processFlags.register(processCmd)

	processCmd.Flags().String("output-dir", "", "Output directory (default: output_dir from the config)")
	processCmd.Flags().String("pdf-backend", "", `PDF text backend, "pure" or "mupdf" (default: pdf_backend from the config)`)
	processCmd.Flags().BoolVar(&dryRun, "dry-run", false, "Run the pipeline without writing output files")

	bindErr = errors.Join(bindErr, bindFlags(processCmd, map[string]string{
		"output_dir":  "output-dir",
		"pdf_backend": "pdf-backend",
	}))
}

// =============================================================================
// PROCESSING LOGIC
// =============================================================================

// runProcess executes the pipeline.
//
// PROCESSING STEPS:
//   1. Load configuration and the market profile
//   2. Load the inputs named by the flags
//   3. Run the converter
//   4. Write the archive, the unmatched report and the run summary
//   5. Print the outcome
func runProcess() error {
	startTime := time.Now()

	// =========================================================================
	// STEP 1: LOAD CONFIGURATION
	// =========================================================================

	env, err := setup(processFlags.market)
	if err != nil {
		return err
	}
	defer env.close()

	logger := env.logger

	// =========================================================================
	// STEP 2: LOAD INPUTS
	// =========================================================================

	in, err := loadInputs(&processFlags, env)
	if err != nil {
		return err
	}

	logger.Info("Starting run",
		zap.String("market", env.market.MarketCode),
		zap.Time("window_start", in.window.Start),
		zap.Time("window_end", in.window.End),
		zap.Int("documents", len(in.documents)),
		zap.Bool("dry_run", dryRun))

	// =========================================================================
	// STEP 3: RUN THE PIPELINE
	// =========================================================================

	conv, err := converter.New(env.market, logger)
	if err != nil {
		return err
	}

	result, err := conv.Run(converter.Input{
		Orders:    in.orders,
		Reference: in.reference,
		Documents: pdfdoc.FileSources(in.documents, env.main.PDFBackend),
		Window:    in.window,
	})
	if err != nil {
		return err
	}

	unmatchedIDs := make([]string, len(result.Unmatched))
	for i, u := range result.Unmatched {
		unmatchedIDs[i] = u.InvoiceID
	}

	// =========================================================================
	// STEP 4: WRITE OUTPUTS
	// =========================================================================

	archivePath := result.ArchiveName
	if !dryRun {
		fm := utils.NewFileManager(env.main.InputDir, env.main.OutputDir)

		if archivePath, err = fm.WriteOutput(result.ArchiveName, result.Archive); err != nil {
			return err
		}

		reportPath, err := fm.WriteUnmatchedReport(ledgerwriter.UnmatchedFileName(in.window), unmatchedIDs)
		if err != nil {
			return err
		}
		if reportPath != "" {
			logger.Info("Wrote unmatched report", zap.String("path", reportPath))
		}

		warnings := make([]string, len(result.Warnings))
		for i, w := range result.Warnings {
			warnings[i] = w.Message
		}

		summaryPath, err := fm.WriteSummaryLog(utils.RunSummary{
			RunID:       env.runID,
			Market:      env.market.MarketCode,
			StartTime:   startTime,
			EndTime:     time.Now(),
			WindowStart: in.window.Start,
			WindowEnd:   in.window.End,
			OrderLines:  result.Stats.OrderLines,
			LedgerRows:  len(result.Ledger),
			Invoices:    result.Stats.Invoices,
			Extracted:   len(result.Extracted),
			Archive:     archivePath,
			Unmatched:   unmatchedIDs,
			Warnings:    warnings,
			Documents:   in.documents,
		})
		if err != nil {
			logger.Warn("Failed to write run summary", zap.Error(err))
		} else {
			logger.Debug("Wrote run summary", zap.String("path", summaryPath))
		}
	}

	// =========================================================================
	// STEP 5: PRINT OUTCOME
	// =========================================================================

	fmt.Printf("Ledger:    %s (%d rows)\n", result.LedgerName, len(result.Ledger))
	fmt.Printf("Invoices:  %d found, %d not found\n", len(result.Extracted), len(result.Unmatched))
	if len(result.Warnings) > 0 {
		fmt.Printf("Warnings:  %d (see log)\n", len(result.Warnings))
	}
	if dryRun {
		fmt.Printf("Archive:   %s (dry run, not written)\n", result.ArchiveName)
	} else {
		fmt.Printf("Archive:   %s\n", archivePath)
	}

	if msg := ledgerwriter.UnmatchedMessage(result.Unmatched); msg != "" {
		fmt.Println(msg)
	}

	return nil
}
