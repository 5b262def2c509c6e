package cmd

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"
	"time"

	"github.com/ginjaninja78/excise-ledger/internal/config"
	"github.com/ginjaninja78/excise-ledger/internal/converter"
	"github.com/ginjaninja78/excise-ledger/internal/csvparser"
	"github.com/ginjaninja78/excise-ledger/internal/types"
	"github.com/ginjaninja78/excise-ledger/internal/xlsxparser"
	"github.com/ginjaninja78/excise-ledger/pkg/utils"
	"github.com/spf13/cobra"
)

// boundLayouts are accepted for --start and --end. A date alone means
// midnight at the start of that day.
var boundLayouts = []string{
	types.TimestampLayout,
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// inputFlags are the input flags shared by process and validate.
type inputFlags struct {
	orders     string
	reference  string
	invoices   []string
	invoiceDir string
	start      string
	end        string
	market     string
}

func (f *inputFlags) register(cmd *cobra.Command) {
	flags := cmd.Flags()
	flags.StringVar(&f.orders, "orders", "", "Order export (CSV or XLSX)")
	flags.StringVar(&f.reference, "reference", "", "Product reference table (CSV or XLSX)")
	flags.StringSliceVar(&f.invoices, "invoices", nil, "Invoice PDF, searched in the order given (repeatable)")
	flags.StringVar(&f.invoiceDir, "invoice-dir", "", "Directory of invoice PDFs, searched in name order after --invoices")
	flags.StringVar(&f.start, "start", "", `Start of the delivery window, "YYYY-MM-DD HH:MM:SS" or "YYYY-MM-DD"`)
	flags.StringVar(&f.end, "end", "", `End of the delivery window, inclusive, same formats as --start`)
	flags.StringVar(&f.market, "market", "", "Market code, e.g. FR (default: default_market from the config)")
}

// inputs are the loaded inputs of a run.
type inputs struct {
	orders    *types.Table
	reference *types.Table
	documents []string
	window    types.Window
}

// loadInputs parses every input named by the flags. Inputs that were not
// given stay nil so that validation can report all of them at once.
func loadInputs(f *inputFlags, env *runtimeEnv) (*inputs, error) {
	in := &inputs{}
	var err error

	if in.window.Start, err = parseBound("--start", f.start); err != nil {
		return nil, err
	}
	if in.window.End, err = parseBound("--end", f.end); err != nil {
		return nil, err
	}

	if f.orders != "" {
		if in.orders, err = loadTable(f.orders, env.market.OrdersCSV, ""); err != nil {
			return nil, fmt.Errorf("order export: %w", err)
		}
	}
	if f.reference != "" {
		if in.reference, err = loadTable(f.reference, env.market.ReferenceCSV, env.market.ReferenceSheet); err != nil {
			return nil, fmt.Errorf("reference table: %w", err)
		}
	}

	if in.documents, err = collectDocuments(f, env.main); err != nil {
		return nil, err
	}

	return in, nil
}

// parseBound parses a window bound. An empty value yields the zero time.
func parseBound(flag, value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, nil
	}
	for _, layout := range boundLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: %s %q", converter.ErrInvalidTimestamp, flag, value)
}

// loadTable reads a CSV or XLSX table depending on the file extension.
func loadTable(path string, settings config.CSVSettings, sheet string) (*types.Table, error) {
	var (
		table *types.Table
		err   error
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx", ".xlsm":
		table, err = xlsxparser.Parse(path, sheet)
	default:
		table, err = csvparser.ParseFile(path, settings)
	}
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", converter.ErrMissingInput, path)
	}
	return table, err
}

// collectDocuments lists the invoice documents: explicit --invoices first,
// then the --invoice-dir scan. With neither flag, input_dir is scanned if
// it exists.
func collectDocuments(f *inputFlags, mainConfig *config.MainConfig) ([]string, error) {
	docs := append([]string(nil), f.invoices...)
	fm := utils.NewFileManager(mainConfig.InputDir, mainConfig.OutputDir)

	dir := f.invoiceDir
	if dir == "" && len(docs) == 0 {
		if !utils.FileExists(mainConfig.InputDir) {
			return docs, nil
		}
		dir = mainConfig.InputDir
	}
	if dir == "" {
		return docs, nil
	}

	scanned, err := fm.DiscoverInvoiceDocuments(dir)
	if err != nil {
		return nil, err
	}
	return append(docs, scanned...), nil
}
