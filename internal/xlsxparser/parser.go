// =============================================================================
// Deficiency Notes Generator - XLSX Workbook Parser
// =============================================================================
//
// This module reads a job workbook exported from the field service system.
// The workbook carries the same data as the CSV pair, one sheet each:
//
//   | Sheet        | Content                                              |
//   |--------------|------------------------------------------------------|
//   | Equipment    | id, type, make, model, serial_number, rating, ...    |
//   | Deficiencies | equipment_id, column_name, battery_id, ...           |
//   | Job          | optional key/value rows: description, country, id    |
//
// Sheet names are matched case-insensitively. The first row of each data
// sheet is the header row.
//
// =============================================================================

package xlsxparser

import (
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/ginjaninja78/deficiency-notes/internal/csvparser"
)

// =============================================================================
// WORKBOOK STRUCTURE
// =============================================================================

// Workbook is the parsed content of a job workbook.
type Workbook struct {
	// SourceFile is the path to the workbook.
	SourceFile string

	// Equipment rows keyed by normalized header.
	Equipment []map[string]string

	// Deficiencies rows keyed by normalized header.
	Deficiencies []map[string]string

	// Job holds the key/value pairs of the optional job sheet, keys normalized.
	Job map[string]string
}

// =============================================================================
// SHEET CONFIGURATION
// =============================================================================

// SheetNames defines which sheets carry which data.
type SheetNames struct {
	// Equipment is the equipment list sheet.
	// Default: "Equipment"
	Equipment string

	// Deficiencies is the deficiency sheet.
	// Default: "Deficiencies"
	Deficiencies string

	// Job is the optional job metadata sheet.
	// Default: "Job"
	Job string
}

// DefaultSheetNames returns the default sheet configuration.
func DefaultSheetNames() SheetNames {
	return SheetNames{
		Equipment:    "Equipment",
		Deficiencies: "Deficiencies",
		Job:          "Job",
	}
}

// EquipmentColumns and DeficiencyColumns are the header rows written by
// WriteTemplate.
var (
	EquipmentColumns = []string{
		"id", "type", "make", "model", "serial_number", "rating", "location", "task_description", "date_code",
	}
	DeficiencyColumns = []string{
		"equipment_id", "column_name", "battery_id", "deficiency_text", "action_text", "status",
	}
)

// =============================================================================
// PARSER FUNCTIONS
// =============================================================================

// Parse reads a job workbook using the default sheet names.
//
// PARAMETERS:
//   - workbookPath: The path to the XLSX file.
//
// RETURNS:
//   - A pointer to the Workbook.
//   - An error if the file cannot be read or a required sheet is missing.
func Parse(workbookPath string) (*Workbook, error) {
	return ParseWithSheets(workbookPath, DefaultSheetNames())
}

// ParseWithSheets reads a job workbook using a custom sheet configuration.
func ParseWithSheets(workbookPath string, sheets SheetNames) (*Workbook, error) {
	f, err := excelize.OpenFile(workbookPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	wb, err := parseFile(f, sheets)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", workbookPath, err)
	}
	wb.SourceFile = workbookPath
	return wb, nil
}

// parseFile extracts all sheets from an open workbook.
func parseFile(f *excelize.File, sheets SheetNames) (*Workbook, error) {
	wb := &Workbook{Job: map[string]string{}}

	equipmentSheet := findSheet(f, sheets.Equipment)
	if equipmentSheet == "" {
		return nil, fmt.Errorf("sheet %q not found", sheets.Equipment)
	}
	rows, err := readTable(f, equipmentSheet)
	if err != nil {
		return nil, err
	}
	wb.Equipment = rows

	// A workbook without deficiencies is a job with no findings.
	if deficiencySheet := findSheet(f, sheets.Deficiencies); deficiencySheet != "" {
		if wb.Deficiencies, err = readTable(f, deficiencySheet); err != nil {
			return nil, err
		}
	}

	if jobSheet := findSheet(f, sheets.Job); jobSheet != "" {
		if wb.Job, err = readKeyValues(f, jobSheet); err != nil {
			return nil, err
		}
	}

	return wb, nil
}

// findSheet returns the actual name of the sheet matching name, ignoring case.
func findSheet(f *excelize.File, name string) string {
	if name == "" {
		return ""
	}
	for _, sheet := range f.GetSheetList() {
		if strings.EqualFold(strings.TrimSpace(sheet), name) {
			return sheet
		}
	}
	return ""
}

// readTable reads a header row followed by data rows.
func readTable(f *excelize.File, sheetName string) ([]map[string]string, error) {
	rows, err := f.GetRows(sheetName)
	if err != nil {
		return nil, fmt.Errorf("failed to read rows of %q: %w", sheetName, err)
	}
	if len(rows) == 0 {
		return []map[string]string{}, nil
	}

	headers := make([]string, len(rows[0]))
	for i, h := range rows[0] {
		headers[i] = csvparser.NormalizeHeader(h)
		if headers[i] == "" {
			headers[i] = fmt.Sprintf("column_%d", i+1)
		}
	}

	table := make([]map[string]string, 0, len(rows)-1)
	for _, row := range rows[1:] {
		if isRowEmpty(row) {
			continue
		}

		// GetRows trims trailing empty cells, so short rows are normal.
		record := make(map[string]string, len(headers))
		for i, header := range headers {
			if i < len(row) {
				record[header] = strings.TrimSpace(row[i])
			} else {
				record[header] = ""
			}
		}
		table = append(table, record)
	}

	return table, nil
}

// readKeyValues reads two-column key/value rows. A header row is not required.
func readKeyValues(f *excelize.File, sheetName string) (map[string]string, error) {
	rows, err := f.GetRows(sheetName)
	if err != nil {
		return nil, fmt.Errorf("failed to read rows of %q: %w", sheetName, err)
	}

	values := make(map[string]string, len(rows))
	for _, row := range rows {
		if len(row) < 2 {
			continue
		}
		key := csvparser.NormalizeHeader(row[0])
		if key == "" {
			continue
		}
		values[key] = strings.TrimSpace(row[1])
	}
	return values, nil
}

// =============================================================================
// TEMPLATE OUTPUT
// =============================================================================

// WriteTemplate writes an empty job workbook with the expected sheets and
// header rows.
func WriteTemplate(path string) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", "Equipment"); err != nil {
		return fmt.Errorf("failed to rename sheet: %w", err)
	}
	if err := setHeaderRow(f, "Equipment", EquipmentColumns); err != nil {
		return err
	}

	if _, err := f.NewSheet("Deficiencies"); err != nil {
		return fmt.Errorf("failed to add sheet: %w", err)
	}
	if err := setHeaderRow(f, "Deficiencies", DeficiencyColumns); err != nil {
		return err
	}

	if _, err := f.NewSheet("Job"); err != nil {
		return fmt.Errorf("failed to add sheet: %w", err)
	}
	for i, key := range []string{"id", "description", "country"} {
		cell, _ := excelize.CoordinatesToCellName(1, i+1)
		if err := f.SetCellValue("Job", cell, key); err != nil {
			return fmt.Errorf("failed to write job sheet: %w", err)
		}
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save workbook: %w", err)
	}
	return nil
}

func setHeaderRow(f *excelize.File, sheet string, headers []string) error {
	row := make([]interface{}, len(headers))
	for i, h := range headers {
		row[i] = h
	}
	if err := f.SetSheetRow(sheet, "A1", &row); err != nil {
		return fmt.Errorf("failed to write header row of %q: %w", sheet, err)
	}
	return nil
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

// isRowEmpty checks if a row contains only empty cells.
func isRowEmpty(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
