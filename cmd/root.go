// =============================================================================
// Excise Ledger Builder - Root Command
// =============================================================================
//
// This file defines the root command for the Cobra CLI and the setup shared
// by every subcommand.
//
// COBRA CLI STRUCTURE:
//   rootCmd (excise-ledger)
//   ├── processCmd (excise-ledger process)
//   ├── validateCmd (excise-ledger validate)
//   └── versionCmd (excise-ledger version)
//
// CONFIGURATION:
//   The main configuration is read through viper. Precedence, highest first:
//   1. Command-line flags bound to a key (--output-dir, --pdf-backend)
//   2. EXCISE_* environment variables (EXCISE_OUTPUT_DIR, ...)
//   3. The config file (--config, default config.yaml, optional)
//   4. Built-in defaults
//
// =============================================================================

package cmd

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/ginjaninja78/excise-ledger/internal/config"
	"github.com/ginjaninja78/excise-ledger/pkg/utils"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// =============================================================================
// GLOBAL VARIABLES
// =============================================================================

// cfgFile holds the path to the main configuration file.
var cfgFile string

// verbose enables debug logging when set to true.
var verbose bool

// v holds the main configuration sources.
var v = viper.New()

// configErr is set by initConfig when the config file exists but is invalid.
var configErr error

// bindErr collects failures to bind command flags to config keys.
var bindErr error

// bindFlags binds each config key to the named flag of cmd.
func bindFlags(cmd *cobra.Command, keys map[string]string) error {
	var errs []error
	for key, flag := range keys {
		if err := v.BindPFlag(key, cmd.Flags().Lookup(flag)); err != nil {
			errs = append(errs, fmt.Errorf("failed to bind --%s to %s: %w", flag, key, err))
		}
	}
	return errors.Join(errs...)
}

// =============================================================================
// ROOT COMMAND DEFINITION
// =============================================================================

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "excise-ledger",
	Short: "Excise Ledger Builder - Build per-market excise ledgers with supporting invoices",
	Long: `Excise Ledger Builder reconciles a web-shop order export against a product
reference table and produces, for one export market and delivery window, an
excise ledger plus one single-page PDF per invoice on that ledger.

Key Features:
  - SKU normalization and reference enrichment (alcohol %, excise code)
  - Forward fill of multi-line orders
  - Volume derivation from product names
  - Invoice page lookup across any number of PDF documents
  - Market-specific profiles in YAML

Example Usage:
  excise-ledger process --orders orders.csv --reference products.csv \
      --invoice-dir ./invoices --market FR \
      --start "2024-01-01 00:00:00" --end "2024-01-31 23:59:59"
  excise-ledger validate --orders orders.csv --reference products.csv ...`,

	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
	},
}

// =============================================================================
// EXECUTE FUNCTION
// =============================================================================

// Execute runs the root command. It is called by main.main().
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// =============================================================================
// INITIALIZATION
// =============================================================================

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(
		&cfgFile,
		"config",
		"config.yaml",
		"Path to the main configuration file",
	)

	rootCmd.PersistentFlags().BoolVarP(
		&verbose,
		"verbose",
		"v",
		false,
		"Enable verbose output for debugging",
	)
}

// initConfig wires the config file and environment into viper. A missing
// default config file is fine; a missing explicit one is an error.
func initConfig() {
	v.SetConfigFile(cfgFile)
	v.SetEnvPrefix("EXCISE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if errors.Is(err, fs.ErrNotExist) && !rootCmd.PersistentFlags().Changed("config") {
			return
		}
		configErr = fmt.Errorf("failed to read config file %s: %w", cfgFile, err)
	}
}

// =============================================================================
// SHARED SETUP
// =============================================================================

// runtimeEnv is everything a command needs after configuration is loaded.
type runtimeEnv struct {
	main   *config.MainConfig
	market *config.MarketConfig
	logger *zap.Logger
	runID  string

	log *utils.RunLogger
}

// close flushes and releases the run logger.
func (e *runtimeEnv) close() {
	if err := e.log.Close(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to close log: %v\n", err)
	}
}

// setup loads the main configuration and the market profile and builds the
// logger. Every log entry carries the run id.
func setup(marketCode string) (*runtimeEnv, error) {
	if configErr != nil {
		return nil, configErr
	}
	if bindErr != nil {
		return nil, bindErr
	}

	mainConfig, err := config.LoadMainConfig(v)
	if err != nil {
		return nil, err
	}
	if verbose {
		mainConfig.LogLevel = "debug"
	}

	markets, err := config.LoadMarketConfigs(mainConfig.MarketsDir)
	if err != nil {
		return nil, fmt.Errorf("failed to load market profiles: %w", err)
	}

	market, err := config.ResolveMarket(marketCode, mainConfig, markets)
	if err != nil {
		return nil, fmt.Errorf("%w: pass --market or set default_market", err)
	}

	runLog, err := utils.NewRunLogger(mainConfig, utils.NewRunID())
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}
	logger := runLog.Logger

	if used := v.ConfigFileUsed(); used != "" && utils.FileExists(used) {
		logger.Debug("Using config file", zap.String("path", used))
	}
	logger.Debug("Market profile loaded",
		zap.String("market", market.MarketCode),
		zap.String("match_mode", market.MatchMode),
		zap.String("pdf_backend", mainConfig.PDFBackend))

	return &runtimeEnv{
		main:   mainConfig,
		market: market,
		logger: logger,
		runID:  runLog.RunID,
		log:    runLog,
	}, nil
}
