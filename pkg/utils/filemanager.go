// =============================================================================
// Excise Ledger Builder - File Manager Utility
// =============================================================================
//
// This module provides file management utilities for the CLI, including:
//   - Invoice document discovery
//   - Writing run outputs (archive, unmatched report)
//   - Run summary generation
//   - Directory management
//
// OUTPUT STRATEGY:
//   - Outputs are written to a temporary file in the output directory and
//     renamed into place, so a failed run never leaves a half-written archive
//   - Existing files with the same name are replaced
//
// =============================================================================

package utils

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
)

// =============================================================================
// FILE MANAGER
// =============================================================================

// FileManager handles file operations for a run.
type FileManager struct {
	// InputDir is scanned for invoice documents.
	InputDir string

	// OutputDir receives the archive and the reports.
	OutputDir string
}

// NewFileManager creates a new FileManager with the specified directories.
func NewFileManager(inputDir, outputDir string) *FileManager {
	return &FileManager{
		InputDir:  inputDir,
		OutputDir: outputDir,
	}
}

// NewRunID returns a fresh identifier for a run.
func NewRunID() string {
	return uuid.New().String()
}

// =============================================================================
// DIRECTORY MANAGEMENT
// =============================================================================

// EnsureOutputDir creates the output directory if it doesn't exist.
func (fm *FileManager) EnsureOutputDir() error {
	if err := os.MkdirAll(fm.OutputDir, 0755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", fm.OutputDir, err)
	}
	return nil
}

// =============================================================================
// FILE DISCOVERY
// =============================================================================

// DiscoverInvoiceDocuments lists the PDF files of dir in lexical order. An
// empty dir means the input directory.
//
// RETURNS:
//   - The file paths, sorted by name.
//   - An error if the directory cannot be read.
func (fm *FileManager) DiscoverInvoiceDocuments(dir string) ([]string, error) {
	if dir == "" {
		dir = fm.InputDir
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to scan invoice directory: %w", err)
	}

	var files []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if strings.EqualFold(filepath.Ext(entry.Name()), ".pdf") {
			files = append(files, filepath.Join(dir, entry.Name()))
		}
	}

	sort.Strings(files)
	return files, nil
}

// =============================================================================
// OUTPUT FILES
// =============================================================================

// WriteOutput writes data to name in the output directory.
//
// RETURNS:
//   - The path of the written file.
//   - An error if writing fails.
func (fm *FileManager) WriteOutput(name string, data []byte) (string, error) {
	if err := fm.EnsureOutputDir(); err != nil {
		return "", err
	}

	path := filepath.Join(fm.OutputDir, name)

	tmp, err := os.CreateTemp(fm.OutputDir, "."+name+".*")
	if err != nil {
		return "", fmt.Errorf("failed to create %s: %w", name, err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return "", fmt.Errorf("failed to write %s: %w", name, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return "", fmt.Errorf("failed to write %s: %w", name, err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return "", fmt.Errorf("failed to move %s into place: %w", name, err)
	}

	return path, nil
}

// WriteUnmatchedReport writes one invoice id per line to name in the output
// directory. Nothing is written when ids is empty.
//
// RETURNS:
//   - The path of the report, or "" when nothing was written.
//   - An error if writing fails.
func (fm *FileManager) WriteUnmatchedReport(name string, ids []string) (string, error) {
	if len(ids) == 0 {
		return "", nil
	}
	return fm.WriteOutput(name, []byte(strings.Join(ids, "\n")+"\n"))
}

// =============================================================================
// RUN SUMMARY
// =============================================================================

// RunSummary contains summary information about a run.
type RunSummary struct {
	RunID     string
	Market    string
	StartTime time.Time
	EndTime   time.Time

	WindowStart time.Time
	WindowEnd   time.Time

	OrderLines int
	LedgerRows int
	Invoices   int
	Extracted  int

	Archive   string
	Unmatched []string
	Warnings  []string
	Documents []string
}

// WriteSummaryLog writes a run summary to the output directory.
//
// RETURNS:
//   - The path to the summary file.
//   - An error if writing fails.
func (fm *FileManager) WriteSummaryLog(summary RunSummary) (string, error) {
	if err := fm.EnsureOutputDir(); err != nil {
		return "", err
	}

	id := summary.RunID
	if len(id) > 8 {
		id = id[:8]
	}
	summaryFileName := fmt.Sprintf("run_summary_%s_%s.txt", summary.StartTime.Format("20060102_150405"), id)
	summaryPath := filepath.Join(fm.OutputDir, summaryFileName)

	file, err := os.Create(summaryPath)
	if err != nil {
		return "", fmt.Errorf("failed to create summary file: %w", err)
	}
	defer file.Close()

	writer := bufio.NewWriter(file)

	rule := strings.Repeat("=", 80) + "\n"
	fmt.Fprintf(writer, "Excise Ledger Builder - Run Summary\n%s\n", rule)
	fmt.Fprintf(writer, "Run Information:\n"+
		"  Run ID:         %s\n"+
		"  Market:         %s\n"+
		"  Start Time:     %s\n"+
		"  End Time:       %s\n"+
		"  Duration:       %s\n"+
		"  Window:         %s to %s\n\n",
		summary.RunID,
		summary.Market,
		summary.StartTime.Format("2006-01-02 15:04:05"),
		summary.EndTime.Format("2006-01-02 15:04:05"),
		summary.EndTime.Sub(summary.StartTime).String(),
		summary.WindowStart.Format("2006-01-02 15:04:05"),
		summary.WindowEnd.Format("2006-01-02 15:04:05"))

	fmt.Fprintf(writer, "Statistics:\n"+
		"  Order Lines:    %d\n"+
		"  Ledger Rows:    %d\n"+
		"  Invoices:       %d\n"+
		"  Extracted:      %d\n"+
		"  Unmatched:      %d\n"+
		"  Warnings:       %d\n\n",
		summary.OrderLines,
		summary.LedgerRows,
		summary.Invoices,
		summary.Extracted,
		len(summary.Unmatched),
		len(summary.Warnings))

	if summary.Archive != "" {
		fmt.Fprintf(writer, "Archive: %s\n\n", summary.Archive)
	}

	writeSection(writer, "Documents", summary.Documents)
	writeSection(writer, "Unmatched Invoices", summary.Unmatched)
	writeSection(writer, "Warnings", summary.Warnings)

	writer.WriteString(rule + "End of Summary\n")

	if err := writer.Flush(); err != nil {
		return "", fmt.Errorf("failed to flush summary file: %w", err)
	}

	return summaryPath, nil
}

func writeSection(w *bufio.Writer, title string, items []string) {
	if len(items) == 0 {
		return
	}
	fmt.Fprintf(w, "%s:\n%s\n", title, strings.Repeat("-", 80))
	for _, item := range items {
		fmt.Fprintf(w, "  %s\n", item)
	}
	w.WriteString("\n")
}

// =============================================================================
// UTILITY FUNCTIONS
// =============================================================================

// FileExists checks if a file exists.
func FileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
