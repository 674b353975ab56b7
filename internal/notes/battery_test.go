package notes

import (
	"strings"
	"testing"

	"github.com/ginjaninja78/deficiency-notes/internal/types"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func batteryEquipment() types.EquipmentRecord {
	return types.EquipmentRecord{
		ID:       1,
		Type:     "BATTERY",
		Make:     "Acme",
		Model:    "X1",
		Rating:   "24",
		Location: "Rack 3",
		DateCode: "0324",
	}
}

func deficiency(column, batteryID, text, action string) types.DeficiencyRecord {
	return types.DeficiencyRecord{
		EquipmentID:    1,
		ColumnName:     column,
		BatteryID:      batteryID,
		DeficiencyText: text,
		ActionText:     action,
		Status:         types.StatusOther,
	}
}

func TestComposeBattery_CounterAdvancesOncePerString(t *testing.T) {
	many := []types.DeficiencyRecord{
		deficiency("Voltage", "1", "Low float voltage", "Monitor"),
		deficiency("Voltage", "2", "Low float voltage", "Monitor"),
		deficiency("Terminal", "0", "Corroded terminals", "Clean terminals"),
		deficiency("DateCode", "4", "Aged", "Replace"),
	}

	cases := []struct {
		name         string
		deficiencies []types.DeficiencyRecord
	}{
		{"no deficiencies", nil},
		{"one deficiency", many[:1]},
		{"many deficiencies", many},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, state := ComposeBattery(batteryEquipment(), tc.deficiencies, types.JobMeta{}, GenerationState{BatteryStringCounter: 4})
			assert.Equal(t, 5, state.BatteryStringCounter)
		})
	}
}

func TestComposeBattery_HeadingVariants(t *testing.T) {
	eq := batteryEquipment()
	eq.TaskDescription = "Minor PM"

	first, state := ComposeBattery(eq, nil, types.JobMeta{Description: "PM Minor"}, GenerationState{})
	require.Equal(t, 1, state.BatteryStringCounter)
	assert.Contains(t, first, "MINOR PREVENTATIVE MAINTENANCE - BATTERY")
	assert.Contains(t, first, "String #1")
	assert.Contains(t, first, "Field Service Engineer")
	assert.Contains(t, first, noProblemsFound)

	second, state := ComposeBattery(eq, nil, types.JobMeta{Description: "PM Minor"}, state)
	require.Equal(t, 2, state.BatteryStringCounter)
	assert.Contains(t, second, "String #2")
	assert.NotContains(t, second, "PREVENTATIVE MAINTENANCE")
	assert.Contains(t, second, noProblemsFound)

	replacement, _ := ComposeBattery(eq, nil, types.JobMeta{Description: "  FULL Battery Replacement ", Country: "US"}, GenerationState{})
	assert.Contains(t, replacement, "BATTERY REPLACEMENT")
	assert.Contains(t, replacement, "Field Service Technician")
	assert.NotContains(t, replacement, "PREVENTATIVE MAINTENANCE")
}

func TestComposeBattery_MergesAdjacentDateCodeRows(t *testing.T) {
	defs := []types.DeficiencyRecord{
		deficiency("DateCode", "3", "Aged", "Replace"),
		deficiency("DateCode", "5", "Aged", "Replace"),
	}

	out, _ := ComposeBattery(batteryEquipment(), defs, types.JobMeta{Description: "PM Minor"}, GenerationState{})

	assert.Contains(t, out, "Battery No: 3,5 : Aged (Date Code: 0324)")
	assert.Equal(t, 1, strings.Count(out, "Battery No:"))
	assert.Equal(t, 1, strings.Count(out, "1. Replace"))
	assert.NotContains(t, out, "2. Replace")
	assert.NotContains(t, out, noProblemsFound)
}

// The merged line keeps one space after "Battery No:" for single and merged
// ids alike, e.g. "Battery No: 3,5 : Aged (Date Code: 0324)".
func TestBatteryRunLineFormat(t *testing.T) {
	run := &batteryRun{deficiency: "Aged (Date Code: 0324)", action: "Replace"}
	run.add("3")
	run.add("5")
	run.add("3")

	assert.Equal(t, noteLine{Deficiency: "Battery No: 3,5 : Aged (Date Code: 0324)", Action: "Replace"}, run.line())

	single := &batteryRun{deficiency: "Low voltage", action: "Monitor"}
	single.add("7")
	assert.Equal(t, "Battery No: 7 : Low voltage", single.line().Deficiency)
	assert.NotContains(t, run.line().Deficiency, "Battery No:3")
}

func TestFoldBatteryDeficiencies(t *testing.T) {
	eq := batteryEquipment()

	tests := []struct {
		name string
		defs []types.DeficiencyRecord
		want []noteLine
	}{
		{
			name: "distinct ids in one run merge",
			defs: []types.DeficiencyRecord{
				deficiency("Voltage", "A", "Low voltage", "Monitor"),
				deficiency("Voltage", "B", "Low voltage", "Monitor"),
			},
			want: []noteLine{{Deficiency: "Battery No: A,B : Low voltage", Action: "Monitor"}},
		},
		{
			name: "column change flushes the run",
			defs: []types.DeficiencyRecord{
				deficiency("Voltage", "1", "Low voltage", "Monitor"),
				deficiency("Voltage", "2", "Low voltage", "Monitor"),
				deficiency("Leak", "2", "Electrolyte leak", "Replace jar"),
			},
			want: []noteLine{
				{Deficiency: "Battery No: 1,2 : Low voltage", Action: "Monitor"},
				{Deficiency: "Battery No: 2 : Electrolyte leak", Action: "Replace jar"},
			},
		},
		{
			name: "id zero with same column stays standalone and the run continues",
			defs: []types.DeficiencyRecord{
				deficiency("Voltage", "1", "Low voltage", "Monitor"),
				deficiency("Voltage", "0", "String voltage low", "Equalize"),
				deficiency("Voltage", "2", "Low voltage", "Monitor"),
			},
			want: []noteLine{
				{Deficiency: "String voltage low", Action: "Equalize"},
				{Deficiency: "Battery No: 1,2 : Low voltage", Action: "Monitor"},
			},
		},
		{
			name: "id zero with another column ends the run",
			defs: []types.DeficiencyRecord{
				deficiency("Voltage", "1", "Low voltage", "Monitor"),
				deficiency("Rack", "0", "Rack not grounded", "Ground rack"),
				deficiency("Voltage", "2", "Low voltage", "Monitor"),
			},
			want: []noteLine{
				{Deficiency: "Battery No: 1 : Low voltage", Action: "Monitor"},
				{Deficiency: "Rack not grounded", Action: "Ground rack"},
				{Deficiency: "Battery No: 2 : Low voltage", Action: "Monitor"},
			},
		},
		{
			name: "consecutive id zero rows never merge",
			defs: []types.DeficiencyRecord{
				deficiency("Rack", "0", "Loose cable", "Torque"),
				deficiency("Rack", "0", "Missing cover", "Install cover"),
			},
			want: []noteLine{
				{Deficiency: "Loose cable", Action: "Torque"},
				{Deficiency: "Missing cover", Action: "Install cover"},
			},
		},
		{
			name: "proactive replacement gets date code",
			defs: []types.DeficiencyRecord{
				deficiency("BattProActiveReplace", "7", "Due for replacement", "Plan replacement"),
			},
			want: []noteLine{
				{Deficiency: "Battery No: 7 : Due for replacement (Date Code: 0324)", Action: "Plan replacement"},
			},
		},
		{
			name: "repeated id is listed once",
			defs: []types.DeficiencyRecord{
				deficiency("Voltage", "3", "Low voltage", "Monitor"),
				deficiency("Voltage", "3", "Low voltage", "Monitor"),
			},
			want: []noteLine{{Deficiency: "Battery No: 3 : Low voltage", Action: "Monitor"}},
		},
		{
			name: "empty list",
			defs: nil,
			want: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := foldBatteryDeficiencies(eq, tt.defs)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("foldBatteryDeficiencies() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestBatteryDeficiencyText_NoDateCode(t *testing.T) {
	d := deficiency("DateCode", "1", "Aged", "Replace")
	assert.Equal(t, "Aged", batteryDeficiencyText(d, ""))
	assert.Equal(t, "Aged (Date Code: 1119)", batteryDeficiencyText(d, "1119"))
}
