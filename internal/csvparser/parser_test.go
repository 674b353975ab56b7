package csvparser

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ginjaninja78/deficiency-notes/internal/config"
)

func defaultSettings() config.CSVSettings {
	return config.Default().CSVSettings
}

func TestParseReader_Basic(t *testing.T) {
	in := "ID,Type,Make,Serial Number\n" +
		"1,Battery,Acme,SN-1\n" +
		",,,\n" +
		"2,UPS,Eaton\n"

	data, err := ParseReader(strings.NewReader(in), defaultSettings())
	require.NoError(t, err)

	assert.Equal(t, []string{"id", "type", "make", "serial_number"}, data.Headers)
	assert.Equal(t, 2, data.RowCount)

	want := []map[string]string{
		{"id": "1", "type": "Battery", "make": "Acme", "serial_number": "SN-1"},
		{"id": "2", "type": "UPS", "make": "Eaton", "serial_number": ""},
	}
	if diff := cmp.Diff(want, data.Rows); diff != "" {
		t.Errorf("rows mismatch (-want +got):\n%s", diff)
	}
}

func TestParseReader_BOMAndDelimiter(t *testing.T) {
	settings := defaultSettings()
	settings.Delimiter = "pipe"

	data, err := ParseReader(strings.NewReader("\uFEFFequipment_id|column_name\n5|DateCode\n"), settings)
	require.NoError(t, err)

	assert.Equal(t, "equipment_id", data.Headers[0])
	assert.Equal(t, "5", data.Rows[0]["equipment_id"])
	assert.True(t, data.Has("Column Name"))
	assert.False(t, data.Has("status"))
}

func TestParseReader_Windows1252(t *testing.T) {
	settings := defaultSettings()
	settings.Encoding = "Windows-1252"

	// 0xE9 is e-acute, 0x96 an en dash in Windows-1252.
	raw := []byte("location,rating\nCaf\xe9 \x96 Rack 1,24\n")

	data, err := ParseReader(strings.NewReader(string(raw)), settings)
	require.NoError(t, err)
	assert.Equal(t, "Café – Rack 1", data.Rows[0]["location"])
}

func TestParseReader_UnsupportedEncoding(t *testing.T) {
	settings := defaultSettings()
	settings.Encoding = "EBCDIC"

	_, err := ParseReader(strings.NewReader("a\n1\n"), settings)
	assert.ErrorContains(t, err, "unsupported encoding")
}

func TestParseReader_MultiLineHeaders(t *testing.T) {
	settings := defaultSettings()
	settings.HeaderRows = 2
	settings.DataStartRow = 3

	in := "Serial,,Task\nNumber,Rating,Description\nSN1,24,Major PM\n"
	data, err := ParseReader(strings.NewReader(in), settings)
	require.NoError(t, err)

	assert.Equal(t, []string{"serial_number", "rating", "task_description"}, data.Headers)
	assert.Equal(t, "Major PM", data.Rows[0]["task_description"])
}

func TestParseReader_Empty(t *testing.T) {
	_, err := ParseReader(strings.NewReader(""), defaultSettings())
	assert.Error(t, err)
}

func TestParse_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "equipment.csv")
	require.NoError(t, os.WriteFile(path, []byte("id,type\n1,PDU\n"), 0o644))

	data, err := Parse(path, defaultSettings())
	require.NoError(t, err)
	assert.Equal(t, path, data.SourceFile)
	assert.Equal(t, "PDU", data.Rows[0]["type"])

	_, err = Parse(filepath.Join(t.TempDir(), "missing.csv"), defaultSettings())
	assert.Error(t, err)
}

func TestNormalizeHeader(t *testing.T) {
	assert.Equal(t, "serial_number", NormalizeHeader(" Serial Number "))
	assert.Equal(t, "serial_number", NormalizeHeader("SERIAL-NUMBER"))
	assert.Equal(t, "battery_id", NormalizeHeader("battery__id"))
	assert.Equal(t, "", NormalizeHeader("  "))
}

func TestCleanHeaders_EmptyGetsPosition(t *testing.T) {
	assert.Equal(t, []string{"id", "column_2"}, cleanHeaders([]string{"ID", ""}))
}
