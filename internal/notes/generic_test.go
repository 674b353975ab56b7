package notes

import (
	"strings"
	"testing"

	"github.com/ginjaninja78/deficiency-notes/internal/types"
	"github.com/stretchr/testify/assert"
)

func TestComposeGeneric(t *testing.T) {
	eq := types.EquipmentRecord{ID: 7, Type: "Generator", Make: "Cummins", TaskDescription: "annual load bank"}

	t.Run("every row is its own line", func(t *testing.T) {
		out := ComposeGeneric(eq, []types.DeficiencyRecord{
			{ColumnName: "Coolant", BatteryID: "0", DeficiencyText: "Coolant low", ActionText: "Top up"},
			{ColumnName: "Coolant", BatteryID: "0", DeficiencyText: "Coolant low", ActionText: "Top up"},
		})
		assert.Equal(t, 2, strings.Count(out, "Coolant low"))
		assert.Contains(t, out, "2. Top up")
		assert.Contains(t, out, "ANNUAL LOAD BANK")
	})

	t.Run("no problems found", func(t *testing.T) {
		out := ComposeGeneric(eq, nil)
		assert.Contains(t, out, noProblemsFound)
		assert.Contains(t, out, "The generator was inspected")
		assert.NotContains(t, out, "Recommended Actions")
	})

	t.Run("text is escaped", func(t *testing.T) {
		out := ComposeGeneric(eq, []types.DeficiencyRecord{
			{DeficiencyText: "Oil <low> & dirty", ActionText: "Change"},
		})
		assert.Contains(t, out, "Oil &lt;low&gt; &amp; dirty")
	})
}

func TestTaskHeading(t *testing.T) {
	assert.Equal(t, "MAJOR PREVENTATIVE MAINTENANCE - PDU", taskHeading("Major PM", types.KindPDU))
	assert.Equal(t, "MINOR PREVENTATIVE MAINTENANCE - HVAC", taskHeading("semi-annual minor", types.KindHVAC))
	assert.Equal(t, "ONLINE PREVENTATIVE MAINTENANCE - UPS", taskHeading("online", types.KindUPS))
	assert.Equal(t, "IR SCAN", taskHeading(" ir scan ", types.KindATS))
	assert.Equal(t, "PREVENTATIVE MAINTENANCE - EQUIPMENT", taskHeading("", types.KindOther))
}

func TestFieldServiceTitle(t *testing.T) {
	assert.Equal(t, "Field Service Technician", FieldServiceTitle("us"))
	assert.Equal(t, "Field Service Technician", FieldServiceTitle("United States"))
	assert.Equal(t, "Field Service Engineer", FieldServiceTitle("CA"))
	assert.Equal(t, "Field Service Engineer", FieldServiceTitle(""))
}

func TestIsFullReplacement(t *testing.T) {
	assert.True(t, IsFullReplacement("Full Battery Replacement"))
	assert.True(t, IsFullReplacement("BATTERY REPLACEMENT - FULL"))
	assert.True(t, IsFullReplacement(" complete battery replacement "))
	assert.False(t, IsFullReplacement("PM Minor"))
	assert.False(t, IsFullReplacement("partial battery replacement"))
}
