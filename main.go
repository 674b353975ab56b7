// =============================================================================
// Deficiency Notes Generator - Main Entry Point
// =============================================================================
//
// USAGE:
//   notesgen generate   - Generate the notes document of one job
//   notesgen process    - Generate notes for every workbook in the input directory
//   notesgen validate   - Validate the configuration and job inputs
//   notesgen import     - Import a job into the job store
//   notesgen preview    - Print a notes document as plain text
//   notesgen template   - Write an empty job workbook
//   notesgen version    - Display the application version
//
// ARCHITECTURE:
//   - cmd/                 : CLI command definitions (Cobra)
//   - internal/notes       : Notes synthesis (battery, UPS and generic equipment)
//   - internal/pipeline    : Job sources, field rules and the run pipeline
//   - internal/storage     : SQLite job store
//   - internal/...         : Parsers, validation, HTML output, preview
//   - pkg/utils            : File management, archives and run logs
//
// =============================================================================

package main

import (
	"github.com/ginjaninja78/deficiency-notes/cmd"
)

func main() {
	cmd.Execute()
}
