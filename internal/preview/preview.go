// Package preview renders a notes document as plain text for the terminal.
//
// Table rows, paragraphs, headings and line breaks start a new line. Cells of
// a row are joined with " | ". Runs of whitespace collapse to one space.
package preview

import (
	"fmt"
	"io"
	"strings"

	"golang.org/x/net/html"
)

// CellSeparator joins the cells of one table row.
const CellSeparator = " | "

// maxDepth bounds recursion on hostile input.
const maxDepth = 200

// Text parses the HTML in r and returns its plain-text rendering.
func Text(r io.Reader) (string, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return "", fmt.Errorf("preview: parse: %w", err)
	}

	var b textBuilder
	b.walk(doc, 0)
	b.breakLine()

	return strings.Join(b.lines, "\n"), nil
}

// textBuilder accumulates output lines; each line is a list of cells.
type textBuilder struct {
	lines []string
	cells []string
	cur   strings.Builder
}

func (b *textBuilder) walk(n *html.Node, depth int) {
	if depth > maxDepth {
		return
	}

	switch n.Type {
	case html.TextNode:
		b.cur.WriteString(n.Data)
		return
	case html.CommentNode:
		return
	case html.ElementNode:
		switch n.Data {
		case "head", "script", "style", "title":
			return
		case "br":
			b.breakLine()
			return
		}
	}

	block := n.Type == html.ElementNode && isBlock(n.Data)
	if block {
		b.breakLine()
	}

	for c := n.FirstChild; c != nil; c = c.NextSibling {
		b.walk(c, depth+1)
	}

	if n.Type == html.ElementNode {
		switch {
		case n.Data == "td" || n.Data == "th":
			b.endCell()
		case block:
			b.breakLine()
		}
	}
}

// endCell closes the text collected so far as one cell of the current line.
func (b *textBuilder) endCell() {
	cell := strings.Join(strings.Fields(b.cur.String()), " ")
	b.cur.Reset()
	if cell != "" {
		b.cells = append(b.cells, cell)
	}
}

// breakLine ends the current line. Empty lines are dropped.
func (b *textBuilder) breakLine() {
	b.endCell()
	if len(b.cells) > 0 {
		b.lines = append(b.lines, strings.Join(b.cells, CellSeparator))
	}
	b.cells = nil
}

func isBlock(tag string) bool {
	switch tag {
	case "tr", "p", "div", "li", "table", "h1", "h2", "h3", "h4", "h5", "h6":
		return true
	}
	return false
}
