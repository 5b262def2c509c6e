// =============================================================================
// Excise Ledger Builder - PDF Documents
// =============================================================================
//
// This module adapts PDF files to the locator's Document interface.
//
// BACKENDS:
//   Page text is read with one of two libraries, chosen by pdf_backend:
//   - "pure":  github.com/ledongthuc/pdf, pure Go, the default
//   - "mupdf": github.com/gen2brain/go-fitz, MuPDF bindings, more tolerant
//              of unusual fonts and broken cross-reference tables
//
//   Single pages are always copied out with pdfcpu, which rewrites the
//   document keeping only the selected page and the objects it references.
//
// =============================================================================

package pdfdoc

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/ginjaninja78/excise-ledger/internal/config"
	"github.com/ginjaninja78/excise-ledger/internal/locator"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

func init() {
	// pdfcpu would otherwise create a config directory under the user's home.
	api.DisableConfigDir()
}

// =============================================================================
// SOURCES
// =============================================================================

// FileSource is a PDF on disk. The file is read when the source is opened.
type FileSource struct {
	Path    string
	Backend string
}

// Name returns the base name of the file.
func (s FileSource) Name() string {
	return filepath.Base(s.Path)
}

// Open reads the file and parses it with the configured backend.
func (s FileSource) Open() (locator.Document, error) {
	data, err := os.ReadFile(s.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to read PDF: %w", err)
	}
	return Open(data, s.Backend)
}

// BytesSource is a PDF held in memory, such as an upload.
type BytesSource struct {
	Label   string
	Data    []byte
	Backend string
}

// Name returns the label of the source.
func (s BytesSource) Name() string {
	return s.Label
}

// Open parses the data with the configured backend.
func (s BytesSource) Open() (locator.Document, error) {
	return Open(s.Data, s.Backend)
}

// FileSources wraps every path as a source, keeping order.
func FileSources(paths []string, backend string) []locator.Source {
	out := make([]locator.Source, len(paths))
	for i, p := range paths {
		out[i] = FileSource{Path: p, Backend: backend}
	}
	return out
}

// Open parses a PDF with the named backend. An empty backend means "pure".
func Open(data []byte, backend string) (locator.Document, error) {
	var (
		doc locator.Document
		err error
	)
	switch backend {
	case "", config.BackendPure:
		doc, err = openPure(data)
	case config.BackendMuPDF:
		doc, err = openMuPDF(data)
	default:
		return nil, fmt.Errorf("unsupported PDF backend %q", backend)
	}
	if err != nil {
		return nil, err
	}
	return doc, nil
}

// =============================================================================
// PAGE EXTRACTION
// =============================================================================

// ExtractPage returns a standalone PDF containing only the given 1-indexed
// page of data.
func ExtractPage(data []byte, page int) ([]byte, error) {
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed

	var out bytes.Buffer
	if err := api.Trim(bytes.NewReader(data), &out, []string{strconv.Itoa(page)}, conf); err != nil {
		return nil, fmt.Errorf("failed to extract page %d: %w", page, err)
	}
	return out.Bytes(), nil
}

func checkPage(page, numPages int) error {
	if page < 1 || page > numPages {
		return fmt.Errorf("page %d out of range (document has %d pages)", page, numPages)
	}
	return nil
}
