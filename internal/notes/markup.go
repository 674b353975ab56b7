// =============================================================================
// Deficiency Notes Generator - Markup Helpers
// =============================================================================
//
// Fragments are nested HTML tables. Structural elements carry one of two class
// markers instead of inline styles:
//
//   class="notes-heading"   headings and column titles
//   class="notes-cell"      every bordered content cell
//
// The markers are only swapped for inline style strings by Renderer.Finalize,
// once, over the fully concatenated document. Fragments must therefore never
// contain inline styles for these two roles, so partial documents stay
// mergeable.
//
// =============================================================================

package notes

import (
	"fmt"
	"strings"

	"github.com/ginjaninja78/deficiency-notes/internal/types"
	"golang.org/x/net/html"
)

// =============================================================================
// STYLE MARKERS
// =============================================================================

const (
	// HeadingMarker is replaced by the heading style during Finalize.
	HeadingMarker = `class="notes-heading"`

	// CellMarker is replaced by the cell style during Finalize.
	CellMarker = `class="notes-cell"`
)

// noProblemsFound is the fixed title of the empty-deficiency block.
const noProblemsFound = "No Problems Found"

// noteLine is one numbered deficiency line paired with its action.
type noteLine struct {
	Deficiency string
	Action     string
}

// =============================================================================
// FRAGMENT BUILDER
// =============================================================================

// fragment accumulates the markup of a single equipment block.
type fragment struct {
	b strings.Builder
}

func newFragment() *fragment {
	f := &fragment{}
	f.b.WriteString(`<table width="100%" cellpadding="0" cellspacing="0" border="0">`)
	return f
}

// heading writes a full-width heading row.
func (f *fragment) heading(text string) {
	fmt.Fprintf(&f.b, `<tr><td %s>%s</td></tr>`, HeadingMarker, escape(text))
}

// paragraph writes a full-width text row.
func (f *fragment) paragraph(text string) {
	fmt.Fprintf(&f.b, `<tr><td %s>%s</td></tr>`, CellMarker, escape(text))
}

// details writes the equipment identification table.
// Empty values are still rendered so every block has the same shape.
func (f *fragment) details(eq types.EquipmentRecord, withDateCode bool) {
	pairs := [][2]string{
		{"Make", eq.Make},
		{"Model", eq.Model},
		{"Serial No.", eq.SerialNumber},
		{"Rating", eq.Rating},
		{"Location", eq.Location},
	}
	if withDateCode {
		pairs = append(pairs, [2]string{"Date Code", eq.DateCode})
	}

	f.b.WriteString(`<tr><td><table width="100%" cellpadding="0" cellspacing="0" border="0"><tr>`)
	for _, p := range pairs {
		fmt.Fprintf(&f.b, `<td %s><b>%s:</b> %s</td>`, CellMarker, p[0], escape(p[1]))
	}
	f.b.WriteString(`</tr></table></td></tr>`)
}

// noProblems writes the "No Problems Found" block.
func (f *fragment) noProblems(noun string) {
	fmt.Fprintf(&f.b,
		`<tr><td %s><b>%s</b> - The %s was inspected and found to be operating within manufacturer specifications.</td></tr>`,
		CellMarker, noProblemsFound, escape(noun))
}

// lines writes the numbered deficiency/action table.
func (f *fragment) lines(lines []noteLine) {
	f.b.WriteString(`<tr><td><table width="100%" cellpadding="0" cellspacing="0" border="0">`)
	fmt.Fprintf(&f.b, `<tr><td %s>Deficiencies</td><td %s>Recommended Actions</td></tr>`, HeadingMarker, HeadingMarker)
	for i, line := range lines {
		n := i + 1
		fmt.Fprintf(&f.b, `<tr><td %s>%d. %s</td><td %s>%d. %s</td></tr>`,
			CellMarker, n, escape(line.Deficiency),
			CellMarker, n, escape(line.Action))
	}
	f.b.WriteString(`</table></td></tr>`)
}

// body writes either the deficiency table or the "No Problems Found" block.
func (f *fragment) body(lines []noteLine, noun string) {
	if len(lines) == 0 {
		f.noProblems(noun)
		return
	}
	f.lines(lines)
}

// String closes the outer table and returns the fragment.
func (f *fragment) String() string {
	return f.b.String() + `</table><br/>`
}

// =============================================================================
// TEXT HELPERS
// =============================================================================

// escape makes a record field safe for inclusion in markup.
func escape(s string) string {
	return html.EscapeString(s)
}

// taskHeading builds the heading from a task description.
//
// KEYWORDS (case-insensitive, first match wins):
//   - MAJOR  -> "MAJOR PREVENTATIVE MAINTENANCE - <LABEL>"
//   - MINOR  -> "MINOR PREVENTATIVE MAINTENANCE - <LABEL>"
//   - ONLINE -> "ONLINE PREVENTATIVE MAINTENANCE - <LABEL>"
//
// Otherwise the raw description is used upper-cased; an empty description
// falls back to "PREVENTATIVE MAINTENANCE - <LABEL>".
func taskHeading(task string, kind types.EquipmentKind) string {
	upper := strings.ToUpper(strings.TrimSpace(task))
	label := kind.Label()

	for _, keyword := range []string{"MAJOR", "MINOR", "ONLINE"} {
		if strings.Contains(upper, keyword) {
			return keyword + " PREVENTATIVE MAINTENANCE - " + label
		}
	}
	if upper == "" {
		return "PREVENTATIVE MAINTENANCE - " + label
	}
	return upper
}

// FieldServiceTitle returns the job title used in narrative text.
// US jobs say "Technician"; every other country says "Engineer".
func FieldServiceTitle(country string) string {
	switch strings.ToUpper(strings.TrimSpace(country)) {
	case "US", "USA", "UNITED STATES":
		return "Field Service Technician"
	default:
		return "Field Service Engineer"
	}
}

// fullReplacementPhrases are the job descriptions that select the battery
// replacement template. Compared trimmed and case-insensitively.
var fullReplacementPhrases = []string{
	"full battery replacement",
	"battery replacement - full",
	"complete battery replacement",
}

// IsFullReplacement reports whether a job description names a full battery
// replacement.
func IsFullReplacement(description string) bool {
	d := strings.TrimSpace(description)
	for _, phrase := range fullReplacementPhrases {
		if strings.EqualFold(d, phrase) {
			return true
		}
	}
	return false
}
