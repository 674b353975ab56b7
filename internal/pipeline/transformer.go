// =============================================================================
// Deficiency Notes Generator - Field Rule Engine
// =============================================================================
//
// This module applies the configured field_rules to raw input rows before
// they are turned into equipment and deficiency records. Typical uses:
//   - Mapping site-specific equipment type codes onto recognized types
//     ("STS" style aliases, "BATT" -> "Battery")
//   - Cleaning battery ids exported with prefixes ("B-03" -> "3")
//   - Filling empty task descriptions with a default
//
// Rules are matched by normalized column name and optionally restricted to
// one sheet ("equipment" or "deficiencies").
//
// =============================================================================

package pipeline

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/ginjaninja78/deficiency-notes/internal/config"
	"github.com/ginjaninja78/deficiency-notes/internal/csvparser"
)

// Sheet names used to scope field rules.
const (
	SheetEquipment    = "equipment"
	SheetDeficiencies = "deficiencies"
)

// =============================================================================
// TRANSFORMER
// =============================================================================

// Transformer applies field rules to rows.
type Transformer struct {
	rules    []config.FieldRule
	patterns map[string]*regexp.Regexp
}

// NewTransformer validates the rules and compiles their regular expressions.
func NewTransformer(rules []config.FieldRule) (*Transformer, error) {
	t := &Transformer{patterns: make(map[string]*regexp.Regexp)}

	for _, rule := range rules {
		rule.Field = csvparser.NormalizeHeader(rule.Field)
		rule.Sheet = strings.ToLower(strings.TrimSpace(rule.Sheet))

		for _, action := range rule.Actions {
			if !knownAction(action.Type) {
				return nil, fmt.Errorf("field rule %q: unknown transformation type: %s", rule.Field, action.Type)
			}
			if action.Type == "regex_replace" && action.Find != "" {
				if _, ok := t.patterns[action.Find]; ok {
					continue
				}
				re, err := regexp.Compile(action.Find)
				if err != nil {
					return nil, fmt.Errorf("field rule %q: invalid regex pattern: %w", rule.Field, err)
				}
				t.patterns[action.Find] = re
			}
		}
		t.rules = append(t.rules, rule)
	}

	return t, nil
}

// =============================================================================
// TRANSFORMATION FUNCTIONS
// =============================================================================

// TransformRows applies every rule for sheet to each row in place.
//
// PARAMETERS:
//   - sheet: SheetEquipment or SheetDeficiencies.
//   - rows: Rows keyed by normalized header.
//
// RETURNS:
//   - An error naming the 1-indexed row if any transformation fails.
func (t *Transformer) TransformRows(sheet string, rows []map[string]string) error {
	for i, row := range rows {
		for _, rule := range t.rules {
			if rule.Sheet != "" && rule.Sheet != sheet {
				continue
			}

			value, exists := row[rule.Field]
			if !exists {
				continue
			}

			for _, action := range rule.Actions {
				var err error
				value, err = t.ApplyTransformation(value, action, row)
				if err != nil {
					return fmt.Errorf("%s row %d: field %q: %w", sheet, i+1, rule.Field, err)
				}
			}
			row[rule.Field] = value
		}
	}
	return nil
}

// ApplyTransformation applies a single transformation action.
//
// PARAMETERS:
//   - value: The current value.
//   - action: The transformation action to apply.
//   - allFields: All fields in the current row (for if_empty_use_field).
//
// RETURNS:
//   - The transformed value.
//   - An error if the transformation fails.
func (t *Transformer) ApplyTransformation(value string, action config.FieldAction, allFields map[string]string) (string, error) {
	switch action.Type {

	// =========================================================================
	// STRING MANIPULATIONS
	// =========================================================================

	case "prepend_string":
		return action.Value + value, nil

	case "append_string":
		return value + action.Value, nil

	case "trim":
		return strings.TrimSpace(value), nil

	case "uppercase":
		return strings.ToUpper(value), nil

	case "lowercase":
		return strings.ToLower(value), nil

	case "normalize_whitespace":
		return strings.Join(strings.Fields(value), " "), nil

	case "replace":
		// EXAMPLE:
		//   Input: "Batt-String"
		//   Action: replace with find "Batt-" and value "Battery "
		//   Output: "Battery String"
		if action.Find == "" {
			return value, nil
		}
		return strings.ReplaceAll(value, action.Find, action.Value), nil

	case "regex_replace":
		// EXAMPLE:
		//   Input: "B-03"
		//   Action: regex_replace with find "^B-0*" and value ""
		//   Output: "3"
		if action.Find == "" {
			return value, nil
		}
		re, ok := t.patterns[action.Find]
		if !ok {
			var err error
			if re, err = regexp.Compile(action.Find); err != nil {
				return "", fmt.Errorf("invalid regex pattern: %w", err)
			}
		}
		return re.ReplaceAllString(value, action.Value), nil

	// =========================================================================
	// NUMERIC FORMATTING
	// =========================================================================

	case "pad_zeros_to_length":
		// EXAMPLE:
		//   Input: "324"
		//   Action: pad_zeros_to_length with value "4"
		//   Output: "0324"
		targetLength, err := strconv.Atoi(action.Value)
		if err != nil || targetLength <= 0 {
			return value, nil
		}
		return PadLeft(value, targetLength, '0'), nil

	case "remove_leading_zeros":
		result := strings.TrimLeft(value, "0")
		if result == "" && value != "" {
			return "0", nil
		}
		return result, nil

	case "extract_digits":
		var b strings.Builder
		for _, r := range value {
			if r >= '0' && r <= '9' {
				b.WriteRune(r)
			}
		}
		return b.String(), nil

	// =========================================================================
	// LOOKUP TABLE REPLACEMENTS
	// =========================================================================

	case "lookup":
		// Unknown values are kept.
		if replacement, exists := action.LookupTable[value]; exists {
			return replacement, nil
		}
		return value, nil

	case "lookup_with_default":
		if replacement, exists := action.LookupTable[value]; exists {
			return replacement, nil
		}
		return action.Value, nil

	// =========================================================================
	// CONDITIONAL TRANSFORMATIONS
	// =========================================================================

	case "if_empty_use_default":
		if strings.TrimSpace(value) == "" {
			return action.Value, nil
		}
		return value, nil

	case "if_empty_use_field":
		if strings.TrimSpace(value) == "" {
			if otherValue, exists := allFields[csvparser.NormalizeHeader(action.Value)]; exists {
				return otherValue, nil
			}
		}
		return value, nil

	default:
		return "", fmt.Errorf("unknown transformation type: %s", action.Type)
	}
}

// knownAction reports whether ApplyTransformation supports the type.
func knownAction(actionType string) bool {
	switch actionType {
	case "prepend_string", "append_string", "trim", "uppercase", "lowercase",
		"normalize_whitespace", "replace", "regex_replace", "pad_zeros_to_length",
		"remove_leading_zeros", "extract_digits", "lookup", "lookup_with_default",
		"if_empty_use_default", "if_empty_use_field":
		return true
	}
	return false
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

// PadLeft pads a string with a character on the left to reach the target length.
func PadLeft(s string, length int, padChar rune) string {
	n := len([]rune(s))
	if n >= length {
		return s
	}
	return strings.Repeat(string(padChar), length-n) + s
}
