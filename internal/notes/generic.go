package notes

import (
	"strings"

	"github.com/ginjaninja78/deficiency-notes/internal/types"
)

// ComposeGeneric renders any equipment without special merge rules:
// PDU, generator, HVAC, ATS and anything unrecognized.
// Every deficiency row becomes its own numbered line.
func ComposeGeneric(equipment types.EquipmentRecord, deficiencies []types.DeficiencyRecord) string {
	kind := equipment.Kind()

	lines := make([]noteLine, 0, len(deficiencies))
	for _, d := range deficiencies {
		lines = append(lines, noteLine{
			Deficiency: strings.TrimSpace(d.DeficiencyText),
			Action:     d.ActionText,
		})
	}

	f := newFragment()
	f.heading(taskHeading(equipment.TaskDescription, kind))
	f.details(equipment, false)
	f.body(lines, kind.Noun())
	return f.String()
}
