// =============================================================================
// Excise Ledger Builder - Validate Command
// =============================================================================
//
// This file defines the 'validate' command. It loads the configuration and
// the inputs exactly as 'process' does and reports every finding, without
// searching documents or writing anything.
//
// COMMAND USAGE:
//   excise-ledger validate [same input flags as process]
//
// EXIT STATUS:
//   Non-zero when any finding is fatal.
//
// =============================================================================

package cmd

import (
	"fmt"
	"os"

	"github.com/ginjaninja78/excise-ledger/internal/validation"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// validateFlags holds the input flags of the validate command.
var validateFlags inputFlags

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check configuration and inputs without processing",
	Long: `The validate command loads the main configuration, the market profile and
every input, then reports structural problems (missing inputs or columns, an
empty delivery window) and data-quality warnings (duplicate reference SKUs,
non-numeric quantities).`,

	RunE: func(cmd *cobra.Command, args []string) error {
		return runValidate()
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
	validateFlags.register(validateCmd)
}

func runValidate() error {
	env, err := setup(validateFlags.market)
	if err != nil {
		return err
	}
	defer env.close()

	in, err := loadInputs(&validateFlags, env)
	if err != nil {
		return err
	}

	result := validation.Validate(validation.Inputs{
		Orders:    in.orders,
		Reference: in.reference,
		Documents: len(in.documents),
		Window:    in.window,
	})

	env.logger.Debug("Validation finished",
		zap.Int("errors", result.ErrorCount),
		zap.Int("warnings", result.WarningCount))

	fmt.Printf("Market:    %s (%s)\n", env.market.MarketName, env.market.MarketCode)
	fmt.Printf("Documents: %d\n", len(in.documents))
	if err := validation.WriteReport(os.Stdout, result); err != nil {
		return err
	}

	if !result.IsValid {
		return fmt.Errorf("validation failed with %d error(s)", result.ErrorCount)
	}
	return nil
}
