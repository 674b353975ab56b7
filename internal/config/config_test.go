package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, "./output", cfg.OutputDir)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "notes_{job}_{timestamp}_{uuid}.html", cfg.OutputNameFormat)
	assert.Equal(t, ",", cfg.CSVSettings.Delimiter)
	assert.Equal(t, 1, cfg.CSVSettings.HeaderRows)
	assert.Equal(t, 2, cfg.CSVSettings.DataStartRow)
	assert.Equal(t, "UTF-8", cfg.CSVSettings.Encoding)
	assert.False(t, cfg.ArchiveInputs)
}

func TestParse(t *testing.T) {
	doc := []byte(`
output_dir: /tmp/notes
log_level: debug
default_country: CA
styles:
  heading: "font-weight:bold;"
csv_settings:
  delimiter: "|"
  encoding: Windows-1252
field_rules:
  - sheet: equipment
    field: type
    actions:
      - type: trim
      - type: uppercase
`)

	cfg, err := Parse(doc)
	require.NoError(t, err)

	assert.Equal(t, "/tmp/notes", cfg.OutputDir)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "CA", cfg.DefaultCountry)
	assert.Equal(t, "font-weight:bold;", cfg.Styles.Heading)
	assert.Empty(t, cfg.Styles.Cell)
	assert.Equal(t, "|", cfg.CSVSettings.Delimiter)
	assert.Equal(t, "Windows-1252", cfg.CSVSettings.Encoding)
	require.Len(t, cfg.FieldRules, 1)
	assert.Len(t, cfg.FieldRules[0].Actions, 2)

	// Unset keys still get defaults.
	assert.Equal(t, "./output_archive", cfg.OutputArchiveDir)
}

func TestParse_Invalid(t *testing.T) {
	tests := map[string]string{
		"bad yaml":        "log_level: [",
		"bad log level":   "log_level: loud",
		"bad name format": "output_name_format: notes.html",
		"bad start row":   "csv_settings: {header_rows: 2, data_start_row: 2}",
		"empty rule":      "field_rules: [{field: ''}]",
		"bad rule sheet":  "field_rules: [{field: type, sheet: summary}]",
	}

	for name, doc := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := Parse([]byte(doc))
			assert.Error(t, err)
		})
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("NOTESGEN_DATABASE_DSN", "file::memory:")
	t.Setenv("NOTESGEN_LOG_LEVEL", "warn")

	cfg, err := Parse([]byte("log_level: debug\n"))
	require.NoError(t, err)

	assert.Equal(t, "file::memory:", cfg.DatabaseDSN)
	assert.Equal(t, "warn", cfg.LogLevel)
}

func TestLoadOrDefault(t *testing.T) {
	dir := t.TempDir()

	t.Run("missing file falls back to defaults", func(t *testing.T) {
		cfg, err := LoadOrDefault(filepath.Join(dir, "absent.yaml"))
		require.NoError(t, err)
		assert.Equal(t, Default().OutputDir, cfg.OutputDir)
	})

	t.Run("existing file is loaded", func(t *testing.T) {
		path := filepath.Join(dir, "config.yaml")
		require.NoError(t, os.WriteFile(path, []byte("output_dir: out\n"), 0o644))

		cfg, err := LoadOrDefault(path)
		require.NoError(t, err)
		assert.Equal(t, "out", cfg.OutputDir)
	})

	t.Run("broken file is an error", func(t *testing.T) {
		path := filepath.Join(dir, "broken.yaml")
		require.NoError(t, os.WriteFile(path, []byte("log_level: ["), 0o644))

		_, err := LoadOrDefault(path)
		assert.Error(t, err)
	})
}

func TestEnsureDirectories(t *testing.T) {
	root := t.TempDir()
	cfg := Default()
	cfg.OutputDir = filepath.Join(root, "out")
	cfg.OutputArchiveDir = filepath.Join(root, "out_archive")
	cfg.InputArchiveDir = filepath.Join(root, "in_archive")

	require.NoError(t, cfg.EnsureDirectories())
	assert.DirExists(t, cfg.OutputDir)
	assert.DirExists(t, cfg.OutputArchiveDir)
	assert.NoDirExists(t, cfg.InputArchiveDir)

	cfg.ArchiveInputs = true
	require.NoError(t, cfg.EnsureDirectories())
	assert.DirExists(t, cfg.InputArchiveDir)
}
