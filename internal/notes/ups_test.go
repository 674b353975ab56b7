package notes

import (
	"strings"
	"testing"

	"github.com/ginjaninja78/deficiency-notes/internal/types"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
)

func capsRow(column, prefix string, status types.DeficiencyStatus, action string) types.DeficiencyRecord {
	phrase, _ := capacitorPhrase(status)
	return types.DeficiencyRecord{
		EquipmentID:    2,
		ColumnName:     column,
		BatteryID:      "0",
		DeficiencyText: prefix + ": " + phrase,
		ActionText:     action,
		Status:         status,
	}
}

func TestFoldUPSDeficiencies(t *testing.T) {
	rr := types.StatusReplacementRecommended
	pr := types.StatusProactiveReplacement

	tests := []struct {
		name string
		defs []types.DeficiencyRecord
		want []noteLine
	}{
		{
			name: "same status merges into one line",
			defs: []types.DeficiencyRecord{
				capsRow("CapsAgeDC", "DC Capacitors", rr, "Replace DC caps"),
				capsRow("CapsAgeAC", "AC Capacitors", rr, "Replace caps"),
			},
			want: []noteLine{
				{Deficiency: "DC Capacitors / AC Capacitors / " + CapsEndOfLife, Action: "Replace caps"},
			},
		},
		{
			name: "status change flushes the first buffer",
			defs: []types.DeficiencyRecord{
				capsRow("CapsAgeDC", "DC Capacitors", rr, "Replace DC caps"),
				capsRow("CapsAgeAC", "AC Capacitors", pr, "Budget AC caps"),
			},
			want: []noteLine{
				{Deficiency: "DC Capacitors / " + CapsEndOfLife, Action: "Replace DC caps"},
				{Deficiency: "AC Capacitors / " + CapsDueWithinYear, Action: "Budget AC caps"},
			},
		},
		{
			name: "non capacitor row flushes and renders standalone",
			defs: []types.DeficiencyRecord{
				capsRow("CapsAgeDC", "DC Capacitors", rr, "Replace DC caps"),
				{ColumnName: "FanAge", DeficiencyText: "Fans are aged", ActionText: "Replace fans", Status: rr},
				capsRow("CapsAgeAC", "AC Capacitors", rr, "Replace AC caps"),
			},
			want: []noteLine{
				{Deficiency: "DC Capacitors / " + CapsEndOfLife, Action: "Replace DC caps"},
				{Deficiency: "Fans are aged", Action: "Replace fans"},
				{Deficiency: "AC Capacitors / " + CapsEndOfLife, Action: "Replace AC caps"},
			},
		},
		{
			name: "capacitor row with other status is standalone",
			defs: []types.DeficiencyRecord{
				{ColumnName: "CapsAgeDC", DeficiencyText: "Capacitor bulging", ActionText: "Inspect", Status: types.StatusOther},
			},
			want: []noteLine{{Deficiency: "Capacitor bulging", Action: "Inspect"}},
		},
		{
			name: "bare phrase leaves no empty prefix",
			defs: []types.DeficiencyRecord{
				{ColumnName: "CapsAgeInput", DeficiencyText: CapsDueWithinYear, ActionText: "Plan", Status: pr},
			},
			want: []noteLine{{Deficiency: CapsDueWithinYear, Action: "Plan"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := foldUPSDeficiencies(tt.defs)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("foldUPSDeficiencies() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestComposeUPS(t *testing.T) {
	eq := types.EquipmentRecord{
		ID:              2,
		Type:            "UPS Maintenance",
		Make:            "Liebert",
		Model:           "NXL",
		SerialNumber:    "SN-998",
		Rating:          "500",
		Location:        "Electrical Room B",
		TaskDescription: "Major PM",
	}

	t.Run("no deficiencies", func(t *testing.T) {
		out := ComposeUPS(eq, nil)
		assert.Contains(t, out, noProblemsFound)
		for _, want := range []string{"Liebert", "NXL", "SN-998", "500", "Electrical Room B"} {
			assert.Contains(t, out, want)
		}
		assert.Contains(t, out, "MAJOR PREVENTATIVE MAINTENANCE - UPS")
		assert.NotContains(t, out, "Recommended Actions")
	})

	t.Run("merged capacitor findings", func(t *testing.T) {
		out := ComposeUPS(eq, []types.DeficiencyRecord{
			capsRow("CapsAgeDC", "DC Capacitors", types.StatusReplacementRecommended, "Replace"),
			capsRow("CapsAgeAC", "AC Capacitors", types.StatusReplacementRecommended, "Replace"),
		})
		assert.Equal(t, 1, strings.Count(out, CapsEndOfLife))
		assert.NotContains(t, out, noProblemsFound)
	})
}
