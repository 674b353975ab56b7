package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ginjaninja78/deficiency-notes/internal/config"
)

func TestApplyTransformation(t *testing.T) {
	tr, err := NewTransformer(nil)
	require.NoError(t, err)

	row := map[string]string{"location": "Rack 9"}
	tests := []struct {
		name   string
		value  string
		action config.FieldAction
		want   string
	}{
		{"prepend", "24", config.FieldAction{Type: "prepend_string", Value: "0"}, "024"},
		{"append", "Rack", config.FieldAction{Type: "append_string", Value: " A"}, "Rack A"},
		{"trim", "  x ", config.FieldAction{Type: "trim"}, "x"},
		{"uppercase", "ups", config.FieldAction{Type: "uppercase"}, "UPS"},
		{"lowercase", "UPS", config.FieldAction{Type: "lowercase"}, "ups"},
		{"normalize whitespace", " Battery \t Maint ", config.FieldAction{Type: "normalize_whitespace"}, "Battery Maint"},
		{"replace", "Batt-String", config.FieldAction{Type: "replace", Find: "Batt-", Value: "Battery "}, "Battery String"},
		{"replace empty find", "x", config.FieldAction{Type: "replace"}, "x"},
		{"regex", "B-03", config.FieldAction{Type: "regex_replace", Find: "^B-0*"}, "3"},
		{"pad", "324", config.FieldAction{Type: "pad_zeros_to_length", Value: "4"}, "0324"},
		{"pad bad length", "324", config.FieldAction{Type: "pad_zeros_to_length", Value: "x"}, "324"},
		{"remove zeros", "007", config.FieldAction{Type: "remove_leading_zeros"}, "7"},
		{"remove zeros all", "000", config.FieldAction{Type: "remove_leading_zeros"}, "0"},
		{"digits", "Cell #12a", config.FieldAction{Type: "extract_digits"}, "12"},
		{"lookup hit", "BATT", config.FieldAction{Type: "lookup", LookupTable: map[string]string{"BATT": "Battery"}}, "Battery"},
		{"lookup miss", "UPS", config.FieldAction{Type: "lookup", LookupTable: map[string]string{"BATT": "Battery"}}, "UPS"},
		{"lookup default", "X", config.FieldAction{Type: "lookup_with_default", Value: "Other", LookupTable: map[string]string{}}, "Other"},
		{"empty default", " ", config.FieldAction{Type: "if_empty_use_default", Value: "PM"}, "PM"},
		{"not empty default", "CM", config.FieldAction{Type: "if_empty_use_default", Value: "PM"}, "CM"},
		{"empty field", "", config.FieldAction{Type: "if_empty_use_field", Value: "Location"}, "Rack 9"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tr.ApplyTransformation(tt.value, tt.action, row)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestApplyTransformation_Unknown(t *testing.T) {
	tr, err := NewTransformer(nil)
	require.NoError(t, err)

	_, err = tr.ApplyTransformation("x", config.FieldAction{Type: "rot13"}, nil)
	assert.ErrorContains(t, err, "unknown transformation type")
}

func TestNewTransformer_RejectsBadRules(t *testing.T) {
	_, err := NewTransformer([]config.FieldRule{{Field: "type", Actions: []config.FieldAction{{Type: "rot13"}}}})
	assert.ErrorContains(t, err, "unknown transformation type")

	_, err = NewTransformer([]config.FieldRule{{Field: "type", Actions: []config.FieldAction{{Type: "regex_replace", Find: "("}}}})
	assert.ErrorContains(t, err, "invalid regex pattern")
}

func TestTransformRows_SheetScope(t *testing.T) {
	tr, err := NewTransformer([]config.FieldRule{
		{Sheet: "Deficiencies", Field: "Battery ID", Actions: []config.FieldAction{{Type: "regex_replace", Find: "^B-0*"}}},
		{Field: "type", Actions: []config.FieldAction{{Type: "lookup", LookupTable: map[string]string{"BATT": "Battery"}}}},
	})
	require.NoError(t, err)

	equipment := []map[string]string{{"id": "1", "type": "BATT", "battery_id": "B-07"}}
	deficiencies := []map[string]string{{"equipment_id": "1", "battery_id": "B-07"}, {"equipment_id": "1"}}

	require.NoError(t, tr.TransformRows(SheetEquipment, equipment))
	require.NoError(t, tr.TransformRows(SheetDeficiencies, deficiencies))

	assert.Equal(t, "Battery", equipment[0]["type"])
	assert.Equal(t, "B-07", equipment[0]["battery_id"], "deficiency rule must not touch equipment")
	assert.Equal(t, "7", deficiencies[0]["battery_id"])
	_, added := deficiencies[1]["battery_id"]
	assert.False(t, added, "missing columns are not created")
}

func TestPadLeft(t *testing.T) {
	assert.Equal(t, "0007", PadLeft("7", 4, '0'))
	assert.Equal(t, "12345", PadLeft("12345", 4, '0'))
}
