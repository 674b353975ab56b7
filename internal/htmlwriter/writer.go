// =============================================================================
// Deficiency Notes Generator - HTML Writer Module
// =============================================================================
//
// This module turns a finalized notes fragment into the document that is
// written to the output directory. The fragment itself is produced by the
// notes engine and is embedded unchanged.
//
// DOCUMENT STRUCTURE:
//
//   <!DOCTYPE html>
//   <html>
//     <head>
//       <meta charset="utf-8">
//       <title>Job 4711 - PM Minor</title>
//     </head>
//     <body>
//       <!-- generated 2024-01-15T14:30:22Z run 1b4e28ba-... -->
//       <table ...>...</table><br/>      <!-- one block per equipment -->
//     </body>
//   </html>
//
// With Standalone disabled only the fragment is written, which is what the
// field service system expects when notes are pasted into a job record.
//
// =============================================================================

package htmlwriter

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"golang.org/x/net/html"

	"github.com/ginjaninja78/deficiency-notes/internal/types"
)

// =============================================================================
// GENERATION OPTIONS
// =============================================================================

// GenerateOptions contains options for document generation.
type GenerateOptions struct {
	// Standalone wraps the fragment in a complete HTML page.
	// Default: true
	Standalone bool

	// Indent is used for the page skeleton. The fragment is not re-indented.
	// Default: "  "
	Indent string

	// RunID is written into the generation comment when non-empty.
	RunID string

	// GeneratedAt is written into the generation comment when non-zero.
	GeneratedAt time.Time
}

// DefaultGenerateOptions returns the default generation options.
func DefaultGenerateOptions() GenerateOptions {
	return GenerateOptions{
		Standalone: true,
		Indent:     "  ",
	}
}

// =============================================================================
// GENERATION FUNCTIONS
// =============================================================================

// Generate creates the notes document with default options.
func Generate(notes string, meta types.JobMeta) []byte {
	return GenerateWithOptions(notes, meta, DefaultGenerateOptions())
}

// GenerateWithOptions creates the notes document.
//
// PARAMETERS:
//   - notes: The finalized notes fragment.
//   - meta: The job the notes belong to (used for the page title).
//   - options: Generation options.
//
// RETURNS:
//   - The document bytes.
func GenerateWithOptions(notes string, meta types.JobMeta, options GenerateOptions) []byte {
	var buffer bytes.Buffer

	if !options.Standalone {
		buffer.WriteString(notes)
		return buffer.Bytes()
	}

	indent := options.Indent
	buffer.WriteString("<!DOCTYPE html>\n<html>\n")
	buffer.WriteString(indent + "<head>\n")
	buffer.WriteString(indent + indent + `<meta charset="utf-8">` + "\n")
	buffer.WriteString(indent + indent + "<title>" + html.EscapeString(Title(meta)) + "</title>\n")
	buffer.WriteString(indent + "</head>\n")
	buffer.WriteString(indent + "<body>\n")

	if comment := generationComment(options); comment != "" {
		buffer.WriteString(indent + indent + "<!-- " + comment + " -->\n")
	}

	buffer.WriteString(notes)
	if !strings.HasSuffix(notes, "\n") {
		buffer.WriteString("\n")
	}

	buffer.WriteString(indent + "</body>\n</html>\n")
	return buffer.Bytes()
}

// Title builds the page title of a job's notes.
func Title(meta types.JobMeta) string {
	var parts []string
	if meta.JobID > 0 {
		parts = append(parts, "Job "+strconv.Itoa(meta.JobID))
	}
	if desc := strings.TrimSpace(meta.Description); desc != "" {
		parts = append(parts, desc)
	}
	if len(parts) == 0 {
		return "Deficiency Notes"
	}
	return strings.Join(parts, " - ")
}

// generationComment describes the run. "--" is not allowed inside comments.
func generationComment(options GenerateOptions) string {
	var parts []string
	if !options.GeneratedAt.IsZero() {
		parts = append(parts, "generated "+options.GeneratedAt.UTC().Format(time.RFC3339))
	}
	if options.RunID != "" {
		parts = append(parts, "run "+strings.ReplaceAll(options.RunID, "--", "-"))
	}
	return strings.Join(parts, " ")
}

// =============================================================================
// FILE OUTPUT
// =============================================================================

// WriteFile writes the document to path. The data is written to a temporary
// file in the same directory first and renamed into place, so readers never
// see a partially written document.
func WriteFile(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temporary file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write notes: %w", err)
	}
	// CreateTemp opens the file owner-only.
	if err := tmp.Chmod(0644); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to set notes file mode: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to close notes file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to move notes into place: %w", err)
	}
	return nil
}
