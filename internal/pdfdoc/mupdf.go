package pdfdoc

import (
	"fmt"

	"github.com/gen2brain/go-fitz"
)

// mupdfDocument reads page text with MuPDF.
type mupdfDocument struct {
	data []byte
	doc  *fitz.Document
}

func openMuPDF(data []byte) (*mupdfDocument, error) {
	doc, err := fitz.NewFromMemory(data)
	if err != nil {
		return nil, fmt.Errorf("failed to open PDF: %w", err)
	}
	return &mupdfDocument{data: data, doc: doc}, nil
}

func (d *mupdfDocument) NumPages() int {
	return d.doc.NumPage()
}

// PageText takes a 1-indexed page; MuPDF counts from zero.
func (d *mupdfDocument) PageText(page int) (string, error) {
	if err := checkPage(page, d.NumPages()); err != nil {
		return "", err
	}
	return d.doc.Text(page - 1)
}

func (d *mupdfDocument) ExtractPage(page int) ([]byte, error) {
	if err := checkPage(page, d.NumPages()); err != nil {
		return nil, err
	}
	return ExtractPage(d.data, page)
}

func (d *mupdfDocument) Close() error {
	return d.doc.Close()
}
