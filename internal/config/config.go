// =============================================================================
// Deficiency Notes Generator - Configuration Module
// =============================================================================
//
// This module loads the application configuration from a YAML file.
//
// CONFIGURATION FILE (config.yaml):
//   - Directories: input, output and archive locations
//   - Logging: log level
//   - Output: file naming format and inline styles for the notes document
//   - Sources: SQLite DSN, CSV layout settings
//   - Field rules: value transformations applied to raw input columns
//
// ENVIRONMENT OVERRIDES:
//   NOTESGEN_DATABASE_DSN   overrides database_dsn
//   NOTESGEN_LOG_LEVEL      overrides log_level
//
// =============================================================================

package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// =============================================================================
// MAIN CONFIGURATION STRUCTURE
// =============================================================================

// MainConfig holds the global application configuration.
type MainConfig struct {
	// =========================================================================
	// DIRECTORY SETTINGS
	// =========================================================================

	// InputDir is where CSV/XLSX job exports are picked up from.
	// Default: "./input"
	InputDir string `yaml:"input_dir"`

	// OutputDir is where generated notes documents are written.
	// Default: "./output"
	OutputDir string `yaml:"output_dir"`

	// InputArchiveDir receives input files after a successful run
	// when ArchiveInputs is enabled.
	// Default: "./input_archive"
	InputArchiveDir string `yaml:"input_archive_dir"`

	// OutputArchiveDir receives a copy of every generated document.
	// Default: "./output_archive"
	OutputArchiveDir string `yaml:"output_archive_dir"`

	// =========================================================================
	// LOGGING SETTINGS
	// =========================================================================

	// LogLevel controls the verbosity of logging.
	// Valid values: "debug", "info", "warn", "error"
	// Default: "info"
	LogLevel string `yaml:"log_level"`

	// =========================================================================
	// OUTPUT SETTINGS
	// =========================================================================

	// OutputNameFormat defines the notes file name.
	// Placeholders:
	//   {job}       - Job id (or "adhoc" when the job has no id)
	//   {uuid}      - A random UUID
	//   {timestamp} - Current timestamp (YYYYMMDD_HHMMSS)
	//
	// Default: "notes_{job}_{timestamp}_{uuid}.html"
	OutputNameFormat string `yaml:"output_name_format"`

	// ArchiveInputs moves CSV/XLSX inputs to InputArchiveDir after a
	// successful run.
	// Default: false
	ArchiveInputs bool `yaml:"archive_inputs"`

	// Styles are the inline styles substituted into the notes document.
	Styles StyleSettings `yaml:"styles"`

	// =========================================================================
	// SOURCE SETTINGS
	// =========================================================================

	// DatabaseDSN is the SQLite DSN used for job-id based generation.
	// Default: "file:notes.db?_pragma=foreign_keys(1)"
	DatabaseDSN string `yaml:"database_dsn"`

	// DefaultCountry is used when a job does not carry a country.
	DefaultCountry string `yaml:"default_country"`

	// CSVSettings describes the layout of CSV inputs.
	CSVSettings CSVSettings `yaml:"csv_settings"`

	// FieldRules transform raw input columns before records are built.
	FieldRules []FieldRule `yaml:"field_rules"`
}

// StyleSettings holds the two inline style strings of the notes document.
// Empty values keep the built-in defaults.
type StyleSettings struct {
	Heading string `yaml:"heading"`
	Cell    string `yaml:"cell"`
}

// =============================================================================
// CSV SETTINGS STRUCTURE
// =============================================================================

// CSVSettings contains settings for parsing CSV files.
type CSVSettings struct {
	// Delimiter is the field separator.
	// Common values: "," (comma), "|" (pipe), "\t" or "tab", ";"
	// Default: ","
	Delimiter string `yaml:"delimiter"`

	// HeaderRows is the number of header rows. Multi-row headers are joined
	// with a space per column.
	// Default: 1
	HeaderRows int `yaml:"header_rows"`

	// DataStartRow is the 1-indexed row where data begins.
	// Default: HeaderRows + 1
	DataStartRow int `yaml:"data_start_row"`

	// Encoding is the character encoding of the file.
	// Supported: "UTF-8", "Windows-1252", "ISO-8859-1"
	// Default: "UTF-8"
	Encoding string `yaml:"encoding"`
}

// =============================================================================
// FIELD RULE STRUCTURE
// =============================================================================

// FieldRule defines transformations for one input column.
type FieldRule struct {
	// Sheet restricts the rule to "equipment" or "deficiencies".
	// Empty applies to both.
	Sheet string `yaml:"sheet,omitempty"`

	// Field is the input column name (matched case-insensitively).
	Field string `yaml:"field"`

	// Actions are applied in order.
	Actions []FieldAction `yaml:"actions"`
}

// FieldAction defines a single transformation.
type FieldAction struct {
	// Type is the transformation to apply.
	// Supported types:
	//   - "prepend_string"       : Add Value to the beginning
	//   - "append_string"        : Add Value to the end
	//   - "trim"                 : Remove surrounding whitespace
	//   - "uppercase"            : Convert to upper case
	//   - "lowercase"            : Convert to lower case
	//   - "replace"              : Replace Find with Value
	//   - "regex_replace"        : Replace regex Find with Value
	//   - "normalize_whitespace" : Collapse runs of whitespace to one space
	//   - "pad_zeros_to_length"  : Left-pad with zeros to length Value
	//   - "remove_leading_zeros" : Strip leading zeros ("0" stays "0")
	//   - "extract_digits"       : Keep only the digits
	//   - "lookup"               : Map through LookupTable (unknown values kept)
	//   - "lookup_with_default"  : Map through LookupTable, else use Value
	//   - "if_empty_use_default" : Use Value when the field is empty
	//   - "if_empty_use_field"   : Use the column named by Value when empty
	Type string `yaml:"type"`

	// Value is the parameter of the transformation.
	Value string `yaml:"value"`

	// Find is used by "replace" and "regex_replace".
	Find string `yaml:"find,omitempty"`

	// LookupTable is used by "lookup".
	LookupTable map[string]string `yaml:"lookup_table,omitempty"`
}

// =============================================================================
// CONFIGURATION LOADING FUNCTIONS
// =============================================================================

// Default returns a configuration with every default applied and no
// directories touched.
func Default() *MainConfig {
	cfg := &MainConfig{}
	applyMainConfigDefaults(cfg)
	return cfg
}

// LoadMainConfig loads the main configuration from a YAML file.
//
// PARAMETERS:
//   - configPath: The path to the configuration file.
//
// RETURNS:
//   - A pointer to the MainConfig struct with defaults and environment
//     overrides applied.
//   - An error if the file cannot be read, parsed or validated.
func LoadMainConfig(configPath string) (*MainConfig, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	return Parse(data)
}

// LoadOrDefault loads configPath, falling back to Default() when the file does
// not exist. Any other read or parse error is returned.
func LoadOrDefault(configPath string) (*MainConfig, error) {
	cfg, err := LoadMainConfig(configPath)
	if errors.Is(err, os.ErrNotExist) {
		cfg = Default()
		applyEnvOverrides(cfg)
		return cfg, nil
	}
	return cfg, err
}

// Parse decodes a YAML document into a MainConfig.
func Parse(data []byte) (*MainConfig, error) {
	var config MainConfig
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	applyMainConfigDefaults(&config)
	applyEnvOverrides(&config)

	if err := validateMainConfig(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// EnsureDirectories creates the output and archive directories.
func (c *MainConfig) EnsureDirectories() error {
	dirs := []string{
		c.OutputDir,
		c.OutputArchiveDir,
	}
	if c.ArchiveInputs {
		dirs = append(dirs, c.InputArchiveDir)
	}

	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}
	return nil
}

// applyMainConfigDefaults sets default values for any unset configuration options.
func applyMainConfigDefaults(config *MainConfig) {
	if config.InputDir == "" {
		config.InputDir = "./input"
	}
	if config.OutputDir == "" {
		config.OutputDir = "./output"
	}
	if config.InputArchiveDir == "" {
		config.InputArchiveDir = "./input_archive"
	}
	if config.OutputArchiveDir == "" {
		config.OutputArchiveDir = "./output_archive"
	}
	if config.LogLevel == "" {
		config.LogLevel = "info"
	}
	if config.OutputNameFormat == "" {
		config.OutputNameFormat = "notes_{job}_{timestamp}_{uuid}.html"
	}
	if config.DatabaseDSN == "" {
		config.DatabaseDSN = "file:notes.db?_pragma=foreign_keys(1)"
	}

	// CSV settings defaults.
	if config.CSVSettings.Delimiter == "" {
		config.CSVSettings.Delimiter = ","
	}
	if config.CSVSettings.HeaderRows == 0 {
		config.CSVSettings.HeaderRows = 1
	}
	if config.CSVSettings.DataStartRow == 0 {
		config.CSVSettings.DataStartRow = config.CSVSettings.HeaderRows + 1
	}
	if config.CSVSettings.Encoding == "" {
		config.CSVSettings.Encoding = "UTF-8"
	}
}

// applyEnvOverrides lets deployment environments override file settings.
func applyEnvOverrides(config *MainConfig) {
	if v := strings.TrimSpace(os.Getenv("NOTESGEN_DATABASE_DSN")); v != "" {
		config.DatabaseDSN = v
	}
	if v := strings.TrimSpace(os.Getenv("NOTESGEN_LOG_LEVEL")); v != "" {
		config.LogLevel = v
	}
}

// validateMainConfig validates the main configuration.
func validateMainConfig(config *MainConfig) error {
	switch strings.ToLower(config.LogLevel) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("unknown log_level %q", config.LogLevel)
	}

	if config.CSVSettings.DataStartRow <= config.CSVSettings.HeaderRows {
		return fmt.Errorf("csv_settings.data_start_row (%d) must be after the header rows (%d)",
			config.CSVSettings.DataStartRow, config.CSVSettings.HeaderRows)
	}

	if !strings.Contains(config.OutputNameFormat, "{uuid}") && !strings.Contains(config.OutputNameFormat, "{timestamp}") {
		return fmt.Errorf("output_name_format must contain {uuid} or {timestamp} to avoid overwriting notes")
	}

	for i, rule := range config.FieldRules {
		if strings.TrimSpace(rule.Field) == "" {
			return fmt.Errorf("field_rules[%d]: field must not be empty", i)
		}
		switch strings.ToLower(rule.Sheet) {
		case "", "equipment", "deficiencies":
		default:
			return fmt.Errorf("field_rules[%d]: unknown sheet %q", i, rule.Sheet)
		}
	}

	return nil
}
