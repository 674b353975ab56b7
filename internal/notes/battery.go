// =============================================================================
// Deficiency Notes Generator - Battery String Aggregator
// =============================================================================
//
// Battery equipment is rendered one "string" at a time. Two pieces of state
// are involved:
//
//   1. GenerationState.BatteryStringCounter
//      Job-scoped. Incremented exactly once per battery equipment, whether it
//      has zero, one or many deficiency rows. The first string gets the full
//      heading; later strings get a compact "String #N" heading.
//
//   2. The run accumulator (batteryFold)
//      Equipment-scoped. Adjacent rows sharing a column name are merged into a
//      single "Battery No: a,b,c : <text>" line.
//
// MERGE RULES:
//   - batteryId "0" is never merged. It is emitted as its own line. If its
//     column differs from the pending run, the run is flushed first.
//   - Same column as the pending run: the battery id joins the run.
//   - Different column: the pending run is flushed and a new run starts.
//   - After the last row the pending run is flushed once.
//
// =============================================================================

package notes

import (
	"fmt"
	"strings"

	"github.com/ginjaninja78/deficiency-notes/internal/types"
)

// Column names whose deficiency text gets the equipment date code appended.
var dateCodeColumns = []string{"DateCode", "BattProActiveReplace"}

// =============================================================================
// COMPOSER
// =============================================================================

// ComposeBattery renders one battery string and returns the advanced state.
//
// PARAMETERS:
//   - equipment: The battery equipment record.
//   - deficiencies: Its deficiency rows, in provider order.
//   - meta: Job metadata (full-replacement detection and title wording).
//   - state: The generation state before this string.
//
// RETURNS:
//   - The HTML fragment for this string.
//   - The state with BatteryStringCounter incremented by exactly one.
func ComposeBattery(
	equipment types.EquipmentRecord,
	deficiencies []types.DeficiencyRecord,
	meta types.JobMeta,
	state GenerationState,
) (string, GenerationState) {
	state.BatteryStringCounter++
	n := state.BatteryStringCounter

	f := newFragment()

	// Only the first string carries the job-level heading.
	if n == 1 {
		title := FieldServiceTitle(meta.Country)
		if IsFullReplacement(meta.Description) {
			f.heading("BATTERY REPLACEMENT")
			f.paragraph(fmt.Sprintf(
				"A %s replaced all batteries in the battery system listed below. "+
					"The new batteries were installed, torqued to manufacturer specification and tested before the system was returned to service.",
				title))
		} else {
			f.heading(taskHeading(equipment.TaskDescription, types.KindBattery))
			f.paragraph(fmt.Sprintf(
				"A %s performed preventative maintenance on the battery system. "+
					"Each battery string was inspected and tested; the findings for each string are listed below.",
				title))
		}
	}

	f.heading(fmt.Sprintf("String #%d", n))
	f.details(equipment, true)
	f.body(foldBatteryDeficiencies(equipment, deficiencies), types.KindBattery.Noun())

	return f.String(), state
}

// =============================================================================
// RUN-LENGTH MERGE
// =============================================================================

// batteryRun is a pending group of adjacent rows sharing one column name.
type batteryRun struct {
	column     string
	ids        []string
	deficiency string
	action     string
}

// add appends a battery id, ignoring repeats within the run.
func (r *batteryRun) add(id string) {
	for _, existing := range r.ids {
		if existing == id {
			return
		}
	}
	r.ids = append(r.ids, id)
}

func (r *batteryRun) line() noteLine {
	return noteLine{
		Deficiency: fmt.Sprintf("Battery No: %s : %s", strings.Join(r.ids, ","), r.deficiency),
		Action:     r.action,
	}
}

// batteryFold walks one equipment's rows carrying (previous column, pending run).
type batteryFold struct {
	dateCode string
	pending  *batteryRun
	lines    []noteLine
}

func (f *batteryFold) step(d types.DeficiencyRecord) {
	column := strings.TrimSpace(d.ColumnName)
	text := batteryDeficiencyText(d, f.dateCode)

	if d.IsStandalone() {
		if f.pending != nil && f.pending.column != column {
			f.flush()
		}
		f.lines = append(f.lines, noteLine{Deficiency: text, Action: d.ActionText})
		return
	}

	id := strings.TrimSpace(d.BatteryID)
	if f.pending != nil && f.pending.column == column {
		f.pending.add(id)
		return
	}

	f.flush()
	f.pending = &batteryRun{
		column:     column,
		ids:        []string{id},
		deficiency: text,
		action:     d.ActionText,
	}
}

func (f *batteryFold) flush() {
	if f.pending == nil {
		return
	}
	f.lines = append(f.lines, f.pending.line())
	f.pending = nil
}

// foldBatteryDeficiencies merges adjacent same-column rows into display lines.
func foldBatteryDeficiencies(equipment types.EquipmentRecord, deficiencies []types.DeficiencyRecord) []noteLine {
	fold := &batteryFold{dateCode: strings.TrimSpace(equipment.DateCode)}
	for _, d := range deficiencies {
		fold.step(d)
	}
	fold.flush()
	return fold.lines
}

// batteryDeficiencyText appends the date code for date-code style findings.
func batteryDeficiencyText(d types.DeficiencyRecord, dateCode string) string {
	text := strings.TrimSpace(d.DeficiencyText)
	if dateCode == "" {
		return text
	}
	column := strings.TrimSpace(d.ColumnName)
	for _, c := range dateCodeColumns {
		if strings.EqualFold(column, c) {
			return text + " (Date Code: " + dateCode + ")"
		}
	}
	return text
}
