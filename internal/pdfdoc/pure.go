package pdfdoc

import (
	"bytes"
	"fmt"

	"github.com/ledongthuc/pdf"
)

// pureDocument reads page text with ledongthuc/pdf.
type pureDocument struct {
	data   []byte
	reader *pdf.Reader
}

func openPure(data []byte) (doc *pureDocument, err error) {
	// The parser panics on some malformed files.
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("failed to parse PDF: %v", r)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("failed to parse PDF: %w", err)
	}
	return &pureDocument{data: data, reader: reader}, nil
}

func (d *pureDocument) NumPages() int {
	return d.reader.NumPage()
}

func (d *pureDocument) PageText(page int) (text string, err error) {
	if err := checkPage(page, d.NumPages()); err != nil {
		return "", err
	}

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("failed to read text: %v", r)
		}
	}()

	p := d.reader.Page(page)
	if p.V.IsNull() {
		return "", nil
	}
	return p.GetPlainText(nil)
}

func (d *pureDocument) ExtractPage(page int) ([]byte, error) {
	if err := checkPage(page, d.NumPages()); err != nil {
		return nil, err
	}
	return ExtractPage(d.data, page)
}

// Close is a no-op; the document lives in memory.
func (d *pureDocument) Close() error {
	return nil
}
