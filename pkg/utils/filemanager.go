// =============================================================================
// Deficiency Notes Generator - File Manager Utility
// =============================================================================
//
// This module provides file management utilities for the generator:
//   - Workbook discovery in the input directory
//   - File archival (moving processed inputs, copying generated notes)
//   - Output file naming
//   - Warning log and batch summary generation
//   - Archive retention
//
// ARCHIVAL STRATEGY:
//   - Input files are moved to input_archive after a successful run when
//     archive_inputs is enabled
//   - Notes documents are copied to output_archive for long-term storage
//   - Inputs of failed runs remain in their original location
//
// =============================================================================

package utils

import (
	"bufio"
	"fmt"
	"io"
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

// FileManager handles file operations for the generator.
type FileManager struct {
	// InputDir is the directory where job exports are placed.
	InputDir string

	// OutputDir is the directory where notes documents are written.
	OutputDir string

	// InputArchiveDir is the directory for archived input files.
	InputArchiveDir string

	// OutputArchiveDir is the directory for archived notes documents.
	OutputArchiveDir string

	// UseTimestampSubdirs creates date-based subdirectories in archives.
	// Example: output_archive/2024/01/15/notes.html
	UseTimestampSubdirs bool

	// Now is the clock used for archive paths and log names.
	Now func() time.Time
}

// NewFileManager creates a new FileManager with the specified directories.
func NewFileManager(inputDir, outputDir, inputArchiveDir, outputArchiveDir string) *FileManager {
	return &FileManager{
		InputDir:         inputDir,
		OutputDir:        outputDir,
		InputArchiveDir:  inputArchiveDir,
		OutputArchiveDir: outputArchiveDir,
		Now:              time.Now,
	}
}

// =============================================================================
// FILE DISCOVERY
// =============================================================================

// DiscoverInputFiles scans the input directory for files matching the pattern.
//
// PARAMETERS:
//   - pattern: A glob pattern to match files (e.g., "*.xlsx").
//     If empty, defaults to "*.xlsx".
//
// RETURNS:
//   - A sorted slice of file paths.
//   - An error if the directory cannot be read.
func (fm *FileManager) DiscoverInputFiles(pattern string) ([]string, error) {
	if pattern == "" {
		pattern = "*.xlsx"
	}

	files, err := filepath.Glob(filepath.Join(fm.InputDir, pattern))
	if err != nil {
		return nil, fmt.Errorf("failed to scan input directory: %w", err)
	}

	var result []string
	for _, file := range files {
		// Excel lock files ("~$job.xlsx") are not workbooks.
		if strings.HasPrefix(filepath.Base(file), "~$") {
			continue
		}
		info, err := os.Stat(file)
		if err != nil || info.IsDir() {
			continue
		}
		result = append(result, file)
	}

	sort.Strings(result)
	return result, nil
}

// =============================================================================
// FILE ARCHIVAL
// =============================================================================

// ArchiveInputFile moves an input file to the input archive directory.
//
// RETURNS:
//   - The path to the archived file.
//   - An error if archival fails.
func (fm *FileManager) ArchiveInputFile(filePath string) (string, error) {
	archivePath := fm.getArchivePath(fm.InputArchiveDir, filePath)

	if err := os.MkdirAll(filepath.Dir(archivePath), 0755); err != nil {
		return "", fmt.Errorf("failed to create archive directory: %w", err)
	}

	if err := os.Rename(filePath, archivePath); err != nil {
		// Rename fails across devices; fall back to copy and delete.
		if err := copyFile(filePath, archivePath); err != nil {
			return "", fmt.Errorf("failed to copy file to archive: %w", err)
		}
		if err := os.Remove(filePath); err != nil {
			return "", fmt.Errorf("failed to remove original file: %w", err)
		}
	}

	return archivePath, nil
}

// ArchiveOutputFile copies a notes document to the output archive directory.
// The original stays in the output directory.
func (fm *FileManager) ArchiveOutputFile(filePath string) (string, error) {
	archivePath := fm.getArchivePath(fm.OutputArchiveDir, filePath)

	if err := os.MkdirAll(filepath.Dir(archivePath), 0755); err != nil {
		return "", fmt.Errorf("failed to create archive directory: %w", err)
	}

	if err := copyFile(filePath, archivePath); err != nil {
		return "", fmt.Errorf("failed to copy file to archive: %w", err)
	}

	return archivePath, nil
}

// getArchivePath constructs the archive path for a file.
func (fm *FileManager) getArchivePath(archiveDir, filePath string) string {
	fileName := filepath.Base(filePath)

	if fm.UseTimestampSubdirs {
		now := fm.now()
		return filepath.Join(
			archiveDir,
			fmt.Sprintf("%d", now.Year()),
			fmt.Sprintf("%02d", now.Month()),
			fmt.Sprintf("%02d", now.Day()),
			fileName,
		)
	}

	return filepath.Join(archiveDir, fileName)
}

func (fm *FileManager) now() time.Time {
	if fm.Now == nil {
		return time.Now()
	}
	return fm.Now()
}

// =============================================================================
// OUTPUT FILE NAMING
// =============================================================================

// GenerateOutputFileName generates a unique notes file name.
//
// PARAMETERS:
//   - format: The format string for the file name.
//     Placeholders:
//     {uuid}      - A random UUID
//     {timestamp} - Generation time (YYYYMMDD_HHMMSS)
//     {date}      - Generation date (YYYYMMDD)
//     {job}       - Job id, from params
//     {original}  - Input file name without extension, from params
//   - params: A map of placeholder values.
//   - now: The generation time.
//
// Placeholders are expanded in a single pass, so a value that itself looks
// like a placeholder is kept literally.
//
// RETURNS:
//   - The generated file name, always ending in ".html".
//
// EXAMPLE:
//
//	format: "notes_{job}_{timestamp}.html"
//	params: {"job": "4711"}
//	output: "notes_4711_20240115_143022.html"
func GenerateOutputFileName(format string, params map[string]string, now time.Time) string {
	keys := make([]string, 0, len(params))
	for key := range params {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	pairs := make([]string, 0, 2*len(keys)+6)
	for _, key := range keys {
		pairs = append(pairs, "{"+key+"}", sanitizeFileName(params[key]))
	}
	pairs = append(pairs,
		"{uuid}", uuid.New().String(),
		"{timestamp}", now.Format("20060102_150405"),
		"{date}", now.Format("20060102"),
	)

	result := strings.NewReplacer(pairs...).Replace(format)
	if !strings.HasSuffix(strings.ToLower(result), ".html") {
		result += ".html"
	}
	return result
}

// sanitizeFileName replaces path separators and other characters that are
// not safe in file names.
func sanitizeFileName(s string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', '*', '?', '"', '<', '>', '|':
			return '_'
		}
		return r
	}, strings.TrimSpace(s))
}

// =============================================================================
// WARNING LOG GENERATION
// =============================================================================

// LogEntry represents a single warning log entry.
type LogEntry struct {
	Sheet       string
	Rule        string
	Message     string
	RowNumber   int
	FieldName   string
	FieldValue  string
	EquipmentID int
}

// WriteWarningLog writes input warnings next to the notes document.
//
// PARAMETERS:
//   - entries: The warnings to write.
//   - notesFile: The generated notes file; the log is named after it.
//
// RETURNS:
//   - The path to the log file, or "" when there is nothing to write.
//   - An error if writing fails.
func WriteWarningLog(entries []LogEntry, notesFile string) (string, error) {
	if len(entries) == 0 {
		return "", nil
	}

	logPath := strings.TrimSuffix(notesFile, filepath.Ext(notesFile)) + "_warnings.txt"

	file, err := os.Create(logPath)
	if err != nil {
		return "", fmt.Errorf("failed to create warning log: %w", err)
	}
	defer file.Close()

	writer := bufio.NewWriter(file)

	fmt.Fprintf(writer, "Deficiency Notes Generator - Input Warnings\n"+
		"Notes:          %s\n"+
		"Total Warnings: %d\n"+
		"================================================================================\n\n",
		filepath.Base(notesFile),
		len(entries))

	for i, entry := range entries {
		fmt.Fprintf(writer, "Warning #%d\n"+
			"  Sheet:          %s\n"+
			"  Rule:           %s\n"+
			"  Message:        %s\n",
			i+1,
			entry.Sheet,
			entry.Rule,
			entry.Message)

		if entry.RowNumber > 0 {
			fmt.Fprintf(writer, "  Row Number:     %d\n", entry.RowNumber)
		}
		if entry.FieldName != "" {
			fmt.Fprintf(writer, "  Field:          %s\n", entry.FieldName)
		}
		if entry.FieldValue != "" {
			fmt.Fprintf(writer, "  Value:          %s\n", entry.FieldValue)
		}
		if entry.EquipmentID != 0 {
			fmt.Fprintf(writer, "  Equipment ID:   %d\n", entry.EquipmentID)
		}
		writer.WriteString("\n")
	}

	writer.WriteString("================================================================================\n" +
		"End of Warnings\n")

	if err := writer.Flush(); err != nil {
		return "", fmt.Errorf("failed to flush warning log: %w", err)
	}

	return logPath, nil
}

// =============================================================================
// PROCESSING SUMMARY
// =============================================================================

// ProcessingSummary contains summary information about a batch run.
type ProcessingSummary struct {
	StartTime      time.Time
	EndTime        time.Time
	TotalJobs      int
	SuccessfulJobs int
	FailedJobs     int
	TotalEquipment int
	TotalStrings   int
	TotalFindings  int
	TotalWarnings  int
	ProcessedJobs  []ProcessedJobInfo
	FailedJobsList []FailedJobInfo
}

// ProcessedJobInfo contains information about a successfully processed job.
type ProcessedJobInfo struct {
	InputFile   string
	OutputFile  string
	Equipment   int
	Findings    int
	ProcessTime time.Duration
}

// FailedJobInfo contains information about a failed job.
type FailedJobInfo struct {
	InputFile    string
	ErrorMessage string
}

// WriteSummaryLog writes a batch summary to the output directory.
func (fm *FileManager) WriteSummaryLog(summary ProcessingSummary) (string, error) {
	summaryPath := filepath.Join(fm.OutputDir,
		fmt.Sprintf("processing_summary_%s.txt", fm.now().Format("20060102_150405")))

	file, err := os.Create(summaryPath)
	if err != nil {
		return "", fmt.Errorf("failed to create summary file: %w", err)
	}
	defer file.Close()

	writer := bufio.NewWriter(file)

	fmt.Fprintf(writer, "Deficiency Notes Generator - Processing Summary\n"+
		"================================================================================\n\n"+
		"Run Information:\n"+
		"  Start Time:      %s\n"+
		"  End Time:        %s\n"+
		"  Duration:        %s\n\n"+
		"Statistics:\n"+
		"  Total Jobs:      %d\n"+
		"  Successful:      %d\n"+
		"  Failed:          %d\n"+
		"  Equipment:       %d\n"+
		"  Battery Strings: %d\n"+
		"  Findings:        %d\n"+
		"  Warnings:        %d\n\n",
		summary.StartTime.Format("2006-01-02 15:04:05"),
		summary.EndTime.Format("2006-01-02 15:04:05"),
		summary.EndTime.Sub(summary.StartTime).String(),
		summary.TotalJobs,
		summary.SuccessfulJobs,
		summary.FailedJobs,
		summary.TotalEquipment,
		summary.TotalStrings,
		summary.TotalFindings,
		summary.TotalWarnings)

	if len(summary.ProcessedJobs) > 0 {
		writer.WriteString("Successful Jobs:\n")
		writer.WriteString("--------------------------------------------------------------------------------\n")
		for _, pj := range summary.ProcessedJobs {
			fmt.Fprintf(writer, "  Input:        %s\n", pj.InputFile)
			fmt.Fprintf(writer, "  Output:       %s\n", pj.OutputFile)
			fmt.Fprintf(writer, "  Equipment:    %d\n", pj.Equipment)
			fmt.Fprintf(writer, "  Findings:     %d\n", pj.Findings)
			fmt.Fprintf(writer, "  Process Time: %s\n\n", pj.ProcessTime.String())
		}
	}

	if len(summary.FailedJobsList) > 0 {
		writer.WriteString("Failed Jobs:\n")
		writer.WriteString("--------------------------------------------------------------------------------\n")
		for _, fj := range summary.FailedJobsList {
			fmt.Fprintf(writer, "  File:  %s\n", fj.InputFile)
			fmt.Fprintf(writer, "  Error: %s\n\n", fj.ErrorMessage)
		}
	}

	writer.WriteString("================================================================================\n" +
		"End of Summary\n")

	if err := writer.Flush(); err != nil {
		return "", fmt.Errorf("failed to flush summary file: %w", err)
	}

	return summaryPath, nil
}

// =============================================================================
// UTILITY FUNCTIONS
// =============================================================================

// copyFile copies a file from src to dst.
func copyFile(src, dst string) error {
	sourceFile, err := os.Open(src)
	if err != nil {
		return err
	}
	defer sourceFile.Close()

	destFile, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer destFile.Close()

	if _, err := io.Copy(destFile, sourceFile); err != nil {
		return err
	}

	return destFile.Sync()
}

// FileExists checks if a file exists.
func FileExists(path string) bool {
	_, err := os.Stat(path)
	return !os.IsNotExist(err)
}

// CleanOldArchives removes archive files older than maxAge.
//
// RETURNS:
//   - The number of files removed.
//   - An error if cleaning fails.
func CleanOldArchives(archiveDir string, maxAge time.Duration) (int, error) {
	cutoff := time.Now().Add(-maxAge)
	removed := 0

	err := filepath.Walk(archiveDir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}
		if info.ModTime().Before(cutoff) {
			if err := os.Remove(path); err != nil {
				return err
			}
			removed++
		}
		return nil
	})

	if err != nil {
		return removed, fmt.Errorf("failed to clean archives: %w", err)
	}

	return removed, nil
}
