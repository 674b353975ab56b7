// =============================================================================
// Deficiency Notes Generator - UPS Capacitor Merger
// =============================================================================
//
// UPS capacitor-aging findings ("CapsAge..." columns) are reported by the
// inspection forms one capacitor bank per row, each ending in the same fixed
// sentence. Consecutive findings with the same status are collapsed into one
// line:
//
//   "DC Capacitors / AC Capacitors / Capacitors have reached end of life status due to age"
//
// BUFFER PROTOCOL:
//   - A CapsAge row with a capacitor status strips the fixed sentence and
//     appends the remainder plus " / " to the buffer.
//   - A status change flushes the buffer before the new row is buffered.
//   - Any other row flushes the buffer, then renders standalone.
//   - The buffer is flushed once more after the last row.
//
// No state survives between equipment.
//
// =============================================================================

package notes

import (
	"strings"

	"github.com/ginjaninja78/deficiency-notes/internal/types"
)

const (
	// CapsEndOfLife is the fixed sentence of ReplacementRecommended findings.
	CapsEndOfLife = "Capacitors have reached end of life status due to age"

	// CapsDueWithinYear is the fixed sentence of ProactiveReplacement findings.
	CapsDueWithinYear = "Capacitors will reach their recommended replacement age within a year"

	capsAgeKey = "CapsAge"
	separator  = " / "
)

// capacitorPhrase returns the fixed sentence for a capacitor status.
func capacitorPhrase(status types.DeficiencyStatus) (string, bool) {
	switch status {
	case types.StatusReplacementRecommended:
		return CapsEndOfLife, true
	case types.StatusProactiveReplacement:
		return CapsDueWithinYear, true
	default:
		return "", false
	}
}

// ComposeUPS renders one UPS. It has no cross-equipment state.
func ComposeUPS(equipment types.EquipmentRecord, deficiencies []types.DeficiencyRecord) string {
	f := newFragment()
	f.heading(taskHeading(equipment.TaskDescription, types.KindUPS))
	f.details(equipment, false)
	f.body(foldUPSDeficiencies(deficiencies), types.KindUPS.Noun())
	return f.String()
}

// capacitorFold carries the pending capacitor buffer across rows.
type capacitorFold struct {
	prefix strings.Builder
	status types.DeficiencyStatus
	action string
	active bool
	lines  []noteLine
}

func (f *capacitorFold) step(d types.DeficiencyRecord) {
	phrase, isCapacitorStatus := capacitorPhrase(d.Status)
	if !strings.Contains(d.ColumnName, capsAgeKey) || !isCapacitorStatus {
		f.flush()
		f.lines = append(f.lines, noteLine{
			Deficiency: strings.TrimSpace(d.DeficiencyText),
			Action:     d.ActionText,
		})
		return
	}

	if f.active && f.status != d.Status {
		f.flush()
	}

	remainder := strings.Replace(d.DeficiencyText, phrase, "", 1)
	remainder = strings.Trim(remainder, " \t\r\n-:,.;/")
	if remainder != "" {
		f.prefix.WriteString(remainder)
		f.prefix.WriteString(separator)
	}

	f.status = d.Status
	f.action = d.ActionText
	f.active = true
}

func (f *capacitorFold) flush() {
	if !f.active {
		return
	}
	phrase, _ := capacitorPhrase(f.status)
	f.lines = append(f.lines, noteLine{
		Deficiency: f.prefix.String() + phrase,
		Action:     f.action,
	})
	f.prefix.Reset()
	f.status = ""
	f.action = ""
	f.active = false
}

// foldUPSDeficiencies applies the capacitor buffer protocol to one UPS.
func foldUPSDeficiencies(deficiencies []types.DeficiencyRecord) []noteLine {
	fold := &capacitorFold{}
	for _, d := range deficiencies {
		fold.step(d)
	}
	fold.flush()
	return fold.lines
}
