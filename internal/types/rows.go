package types

import (
	"fmt"
	"strconv"
	"strings"
)

// Column names of the equipment and deficiency sheets, after header
// normalization.
const (
	ColID              = "id"
	ColType            = "type"
	ColMake            = "make"
	ColModel           = "model"
	ColSerialNumber    = "serial_number"
	ColRating          = "rating"
	ColLocation        = "location"
	ColTaskDescription = "task_description"
	ColDateCode        = "date_code"

	ColEquipmentID    = "equipment_id"
	ColColumnName     = "column_name"
	ColBatteryID      = "battery_id"
	ColDeficiencyText = "deficiency_text"
	ColActionText     = "action_text"
	ColStatus         = "status"
)

// EquipmentFromRow builds an EquipmentRecord from a normalized row. Missing
// columns yield empty strings. A blank id is 0; a non-numeric id is an error
// and the record is still returned with ID 0.
func EquipmentFromRow(row map[string]string) (EquipmentRecord, error) {
	rec := EquipmentRecord{
		Type:            row[ColType],
		Make:            row[ColMake],
		Model:           row[ColModel],
		SerialNumber:    row[ColSerialNumber],
		Rating:          row[ColRating],
		Location:        row[ColLocation],
		TaskDescription: row[ColTaskDescription],
		DateCode:        row[ColDateCode],
	}

	id, err := parseID(row[ColID])
	if err != nil {
		return rec, fmt.Errorf("equipment id: %w", err)
	}
	rec.ID = id
	return rec, nil
}

// DeficiencyFromRow builds a DeficiencyRecord from a normalized row, with the
// same id rules as EquipmentFromRow.
func DeficiencyFromRow(row map[string]string) (DeficiencyRecord, error) {
	rec := DeficiencyRecord{
		ColumnName:     row[ColColumnName],
		BatteryID:      strings.TrimSpace(row[ColBatteryID]),
		DeficiencyText: row[ColDeficiencyText],
		ActionText:     row[ColActionText],
		Status:         ParseDeficiencyStatus(row[ColStatus]),
	}

	id, err := parseID(row[ColEquipmentID])
	if err != nil {
		return rec, fmt.Errorf("deficiency equipment_id: %w", err)
	}
	rec.EquipmentID = id
	return rec, nil
}

// parseID accepts integers, including spreadsheet renderings such as "12.0".
func parseID(raw string) (int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, nil
	}
	if id, err := strconv.Atoi(raw); err == nil {
		return id, nil
	}
	if f, err := strconv.ParseFloat(raw, 64); err == nil && f == float64(int(f)) {
		return int(f), nil
	}
	return 0, fmt.Errorf("%q is not a whole number", raw)
}

// GroupDeficiencies splits deficiencies by equipment id, keeping their
// original relative order within each equipment.
func GroupDeficiencies(deficiencies []DeficiencyRecord) map[int][]DeficiencyRecord {
	grouped := make(map[int][]DeficiencyRecord)
	for _, d := range deficiencies {
		grouped[d.EquipmentID] = append(grouped[d.EquipmentID], d)
	}
	return grouped
}
