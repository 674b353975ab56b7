// =============================================================================
// Deficiency Notes Generator - Validation Engine
// =============================================================================
//
// This module sanity-checks the equipment and deficiency inputs of a job
// before notes are generated. The notes engine accepts any input, so these
// checks never block generation on their own: every finding is a warning
// unless the caller asks for warnings to be treated as errors.
//
// CHECKS:
//   Row level (raw CSV/XLSX rows only):
//     - Equipment and deficiency ids must be whole numbers
//     - Status values must be one of the recognized statuses (or empty)
//   Record level:
//     - Equipment type must not be empty
//     - Equipment ids must be unique within a job
//     - Deficiency rows must reference a known equipment id
//     - Deficiency rows attached to equipment with a non-positive id are
//       never fetched
//     - Deficiency column names must not be empty
//     - Battery ids must be numeric
//
// =============================================================================

package validation

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/ginjaninja78/deficiency-notes/internal/types"
)

// =============================================================================
// VALIDATION ERROR TYPES
// =============================================================================

// Severity levels.
const (
	SeverityWarning = "warning"
	SeverityError   = "error"
)

// Rule names, used in reports and for filtering.
const (
	RuleInvalidID          = "invalid_id"
	RuleUnknownStatus      = "unknown_status"
	RuleEmptyType          = "empty_type"
	RuleDuplicateEquipment = "duplicate_equipment"
	RuleUnknownEquipment   = "unknown_equipment"
	RuleUnfetchedEquipment = "unfetched_equipment"
	RuleEmptyColumnName    = "empty_column_name"
	RuleNonNumericBattery  = "non_numeric_battery_id"
)

// ValidationError represents a single validation finding.
type ValidationError struct {
	// Severity is SeverityWarning or SeverityError.
	Severity string

	// Sheet is "equipment" or "deficiencies".
	Sheet string

	// Field is the column that failed validation.
	Field string

	// Value is the offending value.
	Value string

	// Rule is the rule that was violated.
	Rule string

	// Message is a human-readable message.
	Message string

	// EquipmentID is the equipment the row belongs to, when known.
	EquipmentID int

	// RowNumber is the 1-indexed data row within its sheet.
	RowNumber int
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("[%s] %s row %d, equipment %d, field '%s': %s (value: '%s')",
		strings.ToUpper(e.Severity),
		e.Sheet,
		e.RowNumber,
		e.EquipmentID,
		e.Field,
		e.Message,
		e.Value,
	)
}

// =============================================================================
// VALIDATION RESULT
// =============================================================================

// ValidationResult contains the results of validation.
type ValidationResult struct {
	// IsValid is true if there are no errors. Warnings do not count.
	IsValid bool

	// Errors contains all findings (including warnings) in input order.
	Errors []*ValidationError

	// ErrorCount is the number of error-severity findings.
	ErrorCount int

	// WarningCount is the number of warnings.
	WarningCount int

	// RowsValidated is the total number of equipment and deficiency rows checked.
	RowsValidated int
}

// =============================================================================
// VALIDATOR
// =============================================================================

// ValidationOptions contains options for validation.
type ValidationOptions struct {
	// TreatWarningsAsErrors upgrades every warning to an error.
	// Default: false
	TreatWarningsAsErrors bool
}

// Validator checks job inputs.
type Validator struct {
	options ValidationOptions
}

// NewValidator creates a new Validator with default options.
func NewValidator() *Validator {
	return &Validator{}
}

// NewValidatorWithOptions creates a new Validator with custom options.
func NewValidatorWithOptions(options ValidationOptions) *Validator {
	return &Validator{options: options}
}

// =============================================================================
// MAIN VALIDATION FUNCTIONS
// =============================================================================

// ValidateRows checks raw sheet rows (keyed by normalized header) and then the
// records built from them.
//
// PARAMETERS:
//   - equipmentRows: The equipment sheet rows.
//   - deficiencyRows: The deficiency sheet rows.
//
// RETURNS:
//   - The ValidationResult.
func (v *Validator) ValidateRows(equipmentRows, deficiencyRows []map[string]string) *ValidationResult {
	result := &ValidationResult{}

	equipment := make([]types.EquipmentRecord, 0, len(equipmentRows))
	for i, row := range equipmentRows {
		rec, err := types.EquipmentFromRow(row)
		if err != nil {
			v.add(result, &ValidationError{
				Sheet:     "equipment",
				Field:     types.ColID,
				Value:     row[types.ColID],
				Rule:      RuleInvalidID,
				Message:   "equipment id is not a whole number; the equipment will be rendered without deficiencies",
				RowNumber: i + 1,
			})
		}
		equipment = append(equipment, rec)
	}

	deficiencies := make([]types.DeficiencyRecord, 0, len(deficiencyRows))
	for i, row := range deficiencyRows {
		rec, err := types.DeficiencyFromRow(row)
		if err != nil {
			v.add(result, &ValidationError{
				Sheet:     "deficiencies",
				Field:     types.ColEquipmentID,
				Value:     row[types.ColEquipmentID],
				Rule:      RuleInvalidID,
				Message:   "equipment_id is not a whole number",
				RowNumber: i + 1,
			})
		}
		if raw := strings.TrimSpace(row[types.ColStatus]); raw != "" && rec.Status == types.StatusOther && !strings.EqualFold(raw, string(types.StatusOther)) {
			v.add(result, &ValidationError{
				Sheet:       "deficiencies",
				Field:       types.ColStatus,
				Value:       raw,
				Rule:        RuleUnknownStatus,
				Message:     "unrecognized status; treated as Other",
				EquipmentID: rec.EquipmentID,
				RowNumber:   i + 1,
			})
		}
		deficiencies = append(deficiencies, rec)
	}

	v.validateRecords(result, equipment, deficiencies)
	return result
}

// ValidateRecords checks already-built records, as loaded from the job store.
func (v *Validator) ValidateRecords(equipment []types.EquipmentRecord, deficiencies []types.DeficiencyRecord) *ValidationResult {
	result := &ValidationResult{}
	v.validateRecords(result, equipment, deficiencies)
	return result
}

// validateRecords runs the record-level checks and finalizes the result.
func (v *Validator) validateRecords(result *ValidationResult, equipment []types.EquipmentRecord, deficiencies []types.DeficiencyRecord) {
	known := make(map[int]bool, len(equipment))
	for i, e := range equipment {
		row := i + 1

		if strings.TrimSpace(e.Type) == "" {
			v.add(result, &ValidationError{
				Sheet:       "equipment",
				Field:       types.ColType,
				Rule:        RuleEmptyType,
				Message:     "equipment type is empty; generic notes will be used",
				EquipmentID: e.ID,
				RowNumber:   row,
			})
		}

		if e.ID > 0 {
			if known[e.ID] {
				v.add(result, &ValidationError{
					Sheet:       "equipment",
					Field:       types.ColID,
					Value:       strconv.Itoa(e.ID),
					Rule:        RuleDuplicateEquipment,
					Message:     "duplicate equipment id; its deficiencies will be listed under every occurrence",
					EquipmentID: e.ID,
					RowNumber:   row,
				})
			}
			known[e.ID] = true
		}
	}

	for i, d := range deficiencies {
		row := i + 1

		switch {
		case d.EquipmentID <= 0:
			v.add(result, &ValidationError{
				Sheet:       "deficiencies",
				Field:       types.ColEquipmentID,
				Value:       strconv.Itoa(d.EquipmentID),
				Rule:        RuleUnfetchedEquipment,
				Message:     "deficiencies of equipment without a positive id are never rendered",
				EquipmentID: d.EquipmentID,
				RowNumber:   row,
			})
		case !known[d.EquipmentID]:
			v.add(result, &ValidationError{
				Sheet:       "deficiencies",
				Field:       types.ColEquipmentID,
				Value:       strconv.Itoa(d.EquipmentID),
				Rule:        RuleUnknownEquipment,
				Message:     "deficiency references equipment that is not in the job",
				EquipmentID: d.EquipmentID,
				RowNumber:   row,
			})
		}

		if strings.TrimSpace(d.ColumnName) == "" {
			v.add(result, &ValidationError{
				Sheet:       "deficiencies",
				Field:       types.ColColumnName,
				Rule:        RuleEmptyColumnName,
				Message:     "column name is empty; the row cannot be merged with its neighbours",
				EquipmentID: d.EquipmentID,
				RowNumber:   row,
			})
		}

		if !d.IsStandalone() && !isNumeric(d.BatteryID) {
			v.add(result, &ValidationError{
				Sheet:       "deficiencies",
				Field:       types.ColBatteryID,
				Value:       d.BatteryID,
				Rule:        RuleNonNumericBattery,
				Message:     "battery id is not numeric",
				EquipmentID: d.EquipmentID,
				RowNumber:   row,
			})
		}
	}

	result.RowsValidated += len(equipment) + len(deficiencies)
	result.IsValid = result.ErrorCount == 0
}

// add records a finding with the configured severity.
func (v *Validator) add(result *ValidationResult, finding *ValidationError) {
	finding.Severity = SeverityWarning
	if v.options.TreatWarningsAsErrors {
		finding.Severity = SeverityError
	}

	if finding.Severity == SeverityError {
		result.ErrorCount++
	} else {
		result.WarningCount++
	}
	result.Errors = append(result.Errors, finding)
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

// isNumeric checks if a string contains only digits.
func isNumeric(s string) bool {
	if s == "" {
		return false
	}
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}

// FilterByRule returns the findings for one rule.
func FilterByRule(findings []*ValidationError, rule string) []*ValidationError {
	var filtered []*ValidationError
	for _, f := range findings {
		if f.Rule == rule {
			filtered = append(filtered, f)
		}
	}
	return filtered
}
