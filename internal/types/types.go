// =============================================================================
// Deficiency Notes Generator - Shared Types
// =============================================================================
//
// This package contains the record types shared by the loaders, the notes
// engine, the storage layer and the pipeline. Keeping them here avoids import
// cycles between:
//   - csvparser / xlsxparser / storage (producers)
//   - notes (consumer)
//   - validation, pipeline
//
// All records are read-only inputs. Nothing in this repository mutates an
// EquipmentRecord or DeficiencyRecord after it has been loaded.
//
// =============================================================================

package types

import (
	"strings"
)

// =============================================================================
// EQUIPMENT
// =============================================================================

// EquipmentKind is the normalized category of a piece of equipment.
// It drives which composer renders the equipment's notes.
type EquipmentKind string

const (
	KindBattery      EquipmentKind = "BATTERY"
	KindUPS          EquipmentKind = "UPS"
	KindPDU          EquipmentKind = "PDU"
	KindRectifier    EquipmentKind = "RECTIFIER"
	KindGenerator    EquipmentKind = "GENERATOR"
	KindATS          EquipmentKind = "ATS"
	KindSCC          EquipmentKind = "SCC"
	KindHVAC         EquipmentKind = "HVAC"
	KindFlywheel     EquipmentKind = "FLYWHEEL"
	KindStaticSwitch EquipmentKind = "STATIC_SWITCH"
	KindOther        EquipmentKind = "OTHER"
)

// kindAliases maps normalized type strings to their kind.
// Keys are upper-case with spaces and dashes already folded to underscores.
var kindAliases = map[string]EquipmentKind{
	"BATTERY":       KindBattery,
	"BATTERIES":     KindBattery,
	"UPS":           KindUPS,
	"PDU":           KindPDU,
	"RECTIFIER":     KindRectifier,
	"GENERATOR":     KindGenerator,
	"ATS":           KindATS,
	"SCC":           KindSCC,
	"HVAC":          KindHVAC,
	"FLYWHEEL":      KindFlywheel,
	"STATIC_SWITCH": KindStaticSwitch,
	"STATICSWITCH":  KindStaticSwitch,
	"STS":           KindStaticSwitch,
}

// ParseEquipmentKind normalizes a free-text equipment type.
//
// NORMALIZATION:
//   - Trim and upper-case
//   - Strip a leading or trailing "MAINTENANCE" word ("BATTERY MAINTENANCE" -> BATTERY)
//   - Fold spaces and dashes into underscores ("STATIC SWITCH" -> STATIC_SWITCH)
//
// Unrecognized values return KindOther; this never fails.
func ParseEquipmentKind(raw string) EquipmentKind {
	s := strings.ToUpper(strings.TrimSpace(raw))
	s = strings.TrimSpace(strings.TrimSuffix(s, "MAINTENANCE"))
	s = strings.TrimSpace(strings.TrimPrefix(s, "MAINTENANCE"))
	s = strings.Trim(s, " -_")

	s = strings.Join(strings.FieldsFunc(s, func(r rune) bool {
		return r == ' ' || r == '-' || r == '_'
	}), "_")

	if kind, ok := kindAliases[s]; ok {
		return kind
	}
	return KindOther
}

// Label returns the human-readable label used in headings.
func (k EquipmentKind) Label() string {
	switch k {
	case KindStaticSwitch:
		return "STATIC SWITCH"
	case KindOther, "":
		return "EQUIPMENT"
	default:
		return string(k)
	}
}

// Noun returns the lower-case noun used in narrative sentences.
// Acronyms keep their capitals.
func (k EquipmentKind) Noun() string {
	switch k {
	case KindBattery:
		return "battery string"
	case KindUPS, KindPDU, KindATS, KindSCC:
		return string(k)
	case KindHVAC:
		return "HVAC unit"
	case KindStaticSwitch:
		return "static switch"
	case KindOther, "":
		return "equipment"
	default:
		return strings.ToLower(string(k))
	}
}

// EquipmentRecord is one piece of equipment attached to a job.
//
// Type is kept exactly as supplied by the equipment catalog; use Kind() to get
// the normalized category.
type EquipmentRecord struct {
	// ID is the equipment identity. A non-positive ID means the record was never
	// saved, so no deficiencies can exist for it.
	ID int

	// Type is the raw type string (e.g. "Battery", "UPS Maintenance").
	Type string

	Make         string
	Model        string
	SerialNumber string

	// Rating is the kVA (or Ah for batteries) rating as displayed to the customer.
	Rating string

	Location string

	// TaskDescription drives heading text (Major/Minor/Online keywords).
	TaskDescription string

	// DateCode is the battery manufacture date code, appended to date-code findings.
	DateCode string
}

// Kind returns the normalized equipment category.
func (e EquipmentRecord) Kind() EquipmentKind {
	return ParseEquipmentKind(e.Type)
}

// =============================================================================
// DEFICIENCIES
// =============================================================================

// DeficiencyStatus classifies a deficiency's recommended action.
type DeficiencyStatus string

const (
	StatusReplacementRecommended DeficiencyStatus = "ReplacementRecommended"
	StatusProactiveReplacement   DeficiencyStatus = "ProactiveReplacement"
	StatusOther                  DeficiencyStatus = "Other"
)

// ParseDeficiencyStatus matches a raw status string ignoring case, spaces,
// dashes and underscores. Anything unrecognized (including empty) is StatusOther.
func ParseDeficiencyStatus(raw string) DeficiencyStatus {
	key := strings.Map(func(r rune) rune {
		switch r {
		case ' ', '-', '_':
			return -1
		}
		return r
	}, strings.ToLower(strings.TrimSpace(raw)))

	switch key {
	case "replacementrecommended":
		return StatusReplacementRecommended
	case "proactivereplacement":
		return StatusProactiveReplacement
	default:
		return StatusOther
	}
}

// DeficiencyRecord is one inspection finding plus its corrective action.
//
// Order within an equipment's list is significant: merge decisions depend on
// adjacency, so records must be kept exactly in the order supplied.
type DeficiencyRecord struct {
	// EquipmentID is the owning equipment.
	EquipmentID int

	// ColumnName is the category key compared for merge adjacency
	// (e.g. "DateCode", "CapsAgeDC").
	ColumnName string

	// BatteryID is the battery unit index as text. "0" means the finding is not
	// about a specific unit and is always rendered on its own line.
	BatteryID string

	DeficiencyText string
	ActionText     string
	Status         DeficiencyStatus
}

// IsStandalone reports whether the record refers to no specific battery unit.
func (d DeficiencyRecord) IsStandalone() bool {
	id := strings.TrimSpace(d.BatteryID)
	return id == "0" || id == ""
}

// =============================================================================
// JOB METADATA
// =============================================================================

// JobMeta carries the job-level inputs of a synthesis run.
type JobMeta struct {
	// JobID identifies the job for naming and persistence. It is not rendered.
	JobID int

	// Description is the free-text job description ("PM Minor",
	// "Full Battery Replacement", ...).
	Description string

	// Country selects "Field Service Technician" vs "Field Service Engineer".
	Country string
}
