package notes

import "strings"

// Default inline styles substituted for the two class markers.
const (
	DefaultHeadingStyle = "font-family:Arial,sans-serif;font-size:11pt;font-weight:bold;text-decoration:underline;padding:4px;"
	DefaultCellStyle    = "font-family:Arial,sans-serif;font-size:10pt;border:1px solid #999999;padding:4px;vertical-align:top;"
)

// Styles holds the inline style strings used by Finalize.
// Empty fields fall back to the defaults.
type Styles struct {
	Heading string
	Cell    string
}

// Renderer performs the final normalization pass over a concatenated document.
type Renderer struct {
	replacer *strings.Replacer
}

// NewRenderer builds a Renderer for the given styles.
func NewRenderer(styles Styles) *Renderer {
	if styles.Heading == "" {
		styles.Heading = DefaultHeadingStyle
	}
	if styles.Cell == "" {
		styles.Cell = DefaultCellStyle
	}

	return &Renderer{
		replacer: strings.NewReplacer(
			HeadingMarker, `style="`+styles.Heading+`"`,
			CellMarker, `style="`+styles.Cell+`"`,
		),
	}
}

// Finalize replaces both style markers across the whole document.
// Call it exactly once, after every fragment has been appended.
func (r *Renderer) Finalize(document string) string {
	return r.replacer.Replace(document)
}
