// =============================================================================
// Excise Ledger Builder - Configuration Module
// =============================================================================
//
// This module is responsible for loading and managing all configuration.
// It handles both the main application configuration and market-specific
// profiles.
//
// CONFIGURATION SOURCES:
//   1. Main Config (config.yaml): Global application settings, read through
//      viper so that EXCISE_* environment variables and CLI flags can
//      override file values.
//   2. Market Profiles (markets/*.yaml): One file per export market, read
//      with yaml.v3. A market without a profile falls back to built-in
//      defaults.
//
// =============================================================================

package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// ErrUnknownMarket is returned when no market code was given and no default
// market is configured.
var ErrUnknownMarket = errors.New("no market configured")

// Supported PDF backends.
const (
	BackendPure  = "pure"
	BackendMuPDF = "mupdf"
)

// Supported invoice matching modes.
const (
	MatchSubstring = "substring"
	MatchToken     = "token"
)

// Supported log formats.
const (
	LogFormatConsole = "console"
	LogFormatJSON    = "json"
)

// Supported shipping country comparisons.
const (
	CountryExact = "exact"
	CountryFold  = "fold"
)

// =============================================================================
// MAIN CONFIGURATION STRUCTURE
// =============================================================================

// MainConfig holds the global application configuration.
type MainConfig struct {
	// InputDir is scanned for invoice PDFs when --invoice-dir is not given.
	// Default: "./input"
	InputDir string `mapstructure:"input_dir"`

	// OutputDir receives the archive and the unmatched-invoice report.
	// Default: "./output"
	OutputDir string `mapstructure:"output_dir"`

	// MarketsDir holds one YAML profile per market.
	// Default: "./markets"
	MarketsDir string `mapstructure:"markets_dir"`

	// DefaultMarket is used when --market is not given.
	DefaultMarket string `mapstructure:"default_market"`

	// LogFile is "stdout", "stderr" or a file path.
	// Default: "stderr"
	LogFile string `mapstructure:"log_file"`

	// LogLevel controls the verbosity of logging.
	// Valid values: "debug", "info", "warn", "error"
	// Default: "info"
	LogLevel string `mapstructure:"log_level"`

	// LogFormat is "console" or "json".
	// Default: "console"
	LogFormat string `mapstructure:"log_format"`

	// PDFBackend selects the page text extractor.
	// Valid values: "pure" (ledongthuc/pdf), "mupdf" (go-fitz)
	// Default: "pure"
	PDFBackend string `mapstructure:"pdf_backend"`
}

// =============================================================================
// MARKET CONFIGURATION STRUCTURE
// =============================================================================

// MarketConfig holds the rules for one export market.
type MarketConfig struct {
	// MarketName is the human-readable name of the market.
	MarketName string `yaml:"market_name"`

	// MarketCode is the shipping country code rows are filtered on. It is
	// also the prefix of every output file name.
	MarketCode string `yaml:"market_code"`

	// LedgerLabel is the middle part of the ledger file name.
	// Default: "VINIOWIJNIMPORT"
	LedgerLabel string `yaml:"ledger_label"`

	// ArchiveName is the file name of the output archive.
	// Default: "{market_code}_excise.zip"
	ArchiveName string `yaml:"archive_name"`

	// ExcludedFulfillmentStatuses drops order lines before any other stage.
	// Default: ["restocked"]
	ExcludedFulfillmentStatuses []string `yaml:"excluded_fulfillment_statuses"`

	// MatchMode selects how invoice ids are matched against page text.
	// Valid values: "substring", "token"
	// Default: "substring"
	MatchMode string `yaml:"match_mode"`

	// CountryMatch selects how the shipping country is compared with the
	// market code. "exact" keeps only byte-equal values; "fold" trims and
	// ignores case.
	// Default: "exact"
	CountryMatch string `yaml:"country_match"`

	// LedgerXLSX adds an XLSX copy of the ledger to the archive.
	LedgerXLSX bool `yaml:"ledger_xlsx"`

	// OrdersCSV contains settings for parsing the order export.
	OrdersCSV CSVSettings `yaml:"orders_csv"`

	// ReferenceCSV contains settings for parsing the reference table.
	ReferenceCSV CSVSettings `yaml:"reference_csv"`

	// ReferenceSheet is the sheet read when the reference table is XLSX.
	// Default: the first sheet.
	ReferenceSheet string `yaml:"reference_sheet"`
}

// CSVSettings contains settings for parsing CSV files.
type CSVSettings struct {
	// Delimiter is the character used to separate fields in the CSV.
	// Common values: "," (comma), "|" (pipe), "\t" (tab)
	// Default: ","
	Delimiter string `yaml:"delimiter"`

	// HeaderRows is the number of header rows in the CSV file.
	// Default: 1
	HeaderRows int `yaml:"header_rows"`

	// DataStartRow is the row number where the actual data begins (1-indexed).
	// Default: HeaderRows + 1
	DataStartRow int `yaml:"data_start_row"`

	// StripLineQuotes trims whitespace and all leading and trailing
	// double quotes from every physical line before parsing. Reference exports
	// arrive with each line quoted as a whole.
	StripLineQuotes *bool `yaml:"strip_line_quotes"`
}

// StripQuotes reports whether line-level quote stripping is enabled.
func (s CSVSettings) StripQuotes() bool {
	return s.StripLineQuotes != nil && *s.StripLineQuotes
}

// =============================================================================
// CONFIGURATION LOADING FUNCTIONS
// =============================================================================

// SetDefaults registers default values for every MainConfig key on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("input_dir", "./input")
	v.SetDefault("output_dir", "./output")
	v.SetDefault("markets_dir", "./markets")
	v.SetDefault("default_market", "")
	v.SetDefault("log_file", "stderr")
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", LogFormatConsole)
	v.SetDefault("pdf_backend", BackendPure)
}

// LoadMainConfig builds the main configuration from an initialised viper
// instance. The config file itself is optional; defaults and environment
// variables are enough to run.
func LoadMainConfig(v *viper.Viper) (*MainConfig, error) {
	SetDefaults(v)

	var cfg MainConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// Validate checks the main configuration.
func (c *MainConfig) Validate() error {
	switch c.PDFBackend {
	case BackendPure, BackendMuPDF:
	default:
		return fmt.Errorf("unsupported pdf_backend %q", c.PDFBackend)
	}
	switch c.LogFormat {
	case LogFormatConsole, LogFormatJSON:
	default:
		return fmt.Errorf("unsupported log_format %q", c.LogFormat)
	}
	return nil
}

// LoadMarketConfigs loads all market profiles from a directory, keyed by
// upper-cased market code. A missing directory yields an empty map.
func LoadMarketConfigs(marketsDir string) (map[string]*MarketConfig, error) {
	configs := make(map[string]*MarketConfig)

	if _, err := os.Stat(marketsDir); os.IsNotExist(err) {
		return configs, nil
	}

	files, err := filepath.Glob(filepath.Join(marketsDir, "*.yaml"))
	if err != nil {
		return nil, fmt.Errorf("failed to list market files: %w", err)
	}

	ymlFiles, err := filepath.Glob(filepath.Join(marketsDir, "*.yml"))
	if err != nil {
		return nil, fmt.Errorf("failed to list market files: %w", err)
	}
	files = append(files, ymlFiles...)

	for _, file := range files {
		cfg, err := loadMarketConfig(file)
		if err != nil {
			return nil, fmt.Errorf("failed to load %s: %w", file, err)
		}

		configs[cfg.MarketCode] = cfg
	}

	return configs, nil
}

// loadMarketConfig loads a single market profile.
func loadMarketConfig(filePath string) (*MarketConfig, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	var cfg MarketConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse file: %w", err)
	}

	// If no code is specified, use the file name.
	if strings.TrimSpace(cfg.MarketCode) == "" {
		cfg.MarketCode = strings.TrimSuffix(filepath.Base(filePath), filepath.Ext(filePath))
	}

	ApplyMarketDefaults(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// ResolveMarket picks the profile for code, falling back to the configured
// default market and finally to built-in defaults for the code.
func ResolveMarket(code string, main *MainConfig, markets map[string]*MarketConfig) (*MarketConfig, error) {
	if code == "" && main != nil {
		code = main.DefaultMarket
	}
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		return nil, ErrUnknownMarket
	}

	if cfg, ok := markets[code]; ok {
		return cfg, nil
	}

	return DefaultMarketConfig(code), nil
}

// DefaultMarketConfig returns the built-in profile for a market code.
func DefaultMarketConfig(code string) *MarketConfig {
	cfg := &MarketConfig{MarketCode: strings.ToUpper(code)}
	ApplyMarketDefaults(cfg)
	return cfg
}

// ApplyMarketDefaults sets default values for any unset market option.
func ApplyMarketDefaults(cfg *MarketConfig) {
	cfg.MarketCode = strings.ToUpper(strings.TrimSpace(cfg.MarketCode))

	if cfg.MarketName == "" {
		cfg.MarketName = cfg.MarketCode
	}
	if cfg.LedgerLabel == "" {
		cfg.LedgerLabel = "VINIOWIJNIMPORT"
	}
	if cfg.ArchiveName == "" {
		cfg.ArchiveName = cfg.MarketCode + "_excise.zip"
	}
	if cfg.ExcludedFulfillmentStatuses == nil {
		cfg.ExcludedFulfillmentStatuses = []string{"restocked"}
	}
	if cfg.MatchMode == "" {
		cfg.MatchMode = MatchSubstring
	}
	if cfg.CountryMatch == "" {
		cfg.CountryMatch = CountryExact
	}

	applyCSVDefaults(&cfg.OrdersCSV, false)
	applyCSVDefaults(&cfg.ReferenceCSV, true)
}

// applyCSVDefaults sets default values for CSV settings.
func applyCSVDefaults(s *CSVSettings, stripQuotes bool) {
	if s.Delimiter == "" {
		s.Delimiter = ","
	}
	if s.HeaderRows == 0 {
		s.HeaderRows = 1
	}
	if s.DataStartRow == 0 {
		s.DataStartRow = s.HeaderRows + 1
	}
	if s.StripLineQuotes == nil {
		s.StripLineQuotes = &stripQuotes
	}
}

// Validate checks a market profile after defaults were applied.
func (c *MarketConfig) Validate() error {
	if c.MarketCode == "" {
		return errors.New("market_code is required")
	}
	switch c.MatchMode {
	case MatchSubstring, MatchToken:
	default:
		return fmt.Errorf("unsupported match_mode %q", c.MatchMode)
	}
	switch c.CountryMatch {
	case CountryExact, CountryFold:
	default:
		return fmt.Errorf("unsupported country_match %q", c.CountryMatch)
	}
	if c.OrdersCSV.DataStartRow <= c.OrdersCSV.HeaderRows {
		return fmt.Errorf("orders_csv.data_start_row must be after the header rows")
	}
	if c.ReferenceCSV.DataStartRow <= c.ReferenceCSV.HeaderRows {
		return fmt.Errorf("reference_csv.data_start_row must be after the header rows")
	}
	return nil
}

// IsExcludedStatus reports whether an order line with the given fulfillment
// status is dropped for this market.
func (c *MarketConfig) IsExcludedStatus(status string) bool {
	for _, s := range c.ExcludedFulfillmentStatuses {
		if s == status {
			return true
		}
	}
	return false
}
