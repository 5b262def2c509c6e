// Package bundle packs the outputs of a run into a single ZIP archive.
package bundle

import (
	"archive/zip"
	"bytes"
	"errors"
	"fmt"
	"time"
)

// ErrDuplicateEntry is returned when two entries share a name.
var ErrDuplicateEntry = errors.New("duplicate archive entry")

// Entry is one file of the archive.
type Entry struct {
	Name string
	Data []byte
}

// Build writes entries, in order, into a ZIP archive. Every entry carries
// the given modification time so that identical inputs give identical
// archives.
func Build(entries []Entry, modified time.Time) ([]byte, error) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)

	seen := make(map[string]bool, len(entries))
	for _, e := range entries {
		if seen[e.Name] {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateEntry, e.Name)
		}
		seen[e.Name] = true

		w, err := zw.CreateHeader(&zip.FileHeader{
			Name:     e.Name,
			Method:   zip.Deflate,
			Modified: modified,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to add %s: %w", e.Name, err)
		}
		if _, err := w.Write(e.Data); err != nil {
			return nil, fmt.Errorf("failed to write %s: %w", e.Name, err)
		}
	}

	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("failed to finalize archive: %w", err)
	}
	return buf.Bytes(), nil
}
