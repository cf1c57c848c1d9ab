// Package render serializes a document tree into one of the supported
// output formats. Rendering is a pure function of (tree, format, config,
// width): it never mutates the tree, and identical inputs produce
// byte-identical output.
package render

import (
	"errors"
	"fmt"
	"io"

	"github.com/markconv/markconv/internal/tree"
)

// Supported format tokens.
const (
	FormatHTML       = "html"
	FormatXML        = "xml"
	FormatMan        = "man"
	FormatCommonMark = "commonmark"
	FormatLaTeX      = "latex"
)

// ErrUnknownFormat is returned for a format token outside the supported set.
var ErrUnknownFormat = errors.New("unknown output format")

// Config selects the render-phase run options.
type Config struct {
	Sourcepos bool // emit source positions where the format supports them
	Safe      bool // suppress raw HTML and risky link destinations
	Highlight bool // HTML only: syntax-highlight fenced code blocks
}

// Formats lists the supported format tokens in their documented order.
func Formats() []string {
	return []string{FormatHTML, FormatXML, FormatMan, FormatCommonMark, FormatLaTeX}
}

// Supported reports whether format is a known token.
func Supported(format string) bool {
	switch format {
	case FormatHTML, FormatXML, FormatMan, FormatCommonMark, FormatLaTeX:
		return true
	}
	return false
}

// Render serializes root to w in the given format. Width applies to the
// wrapping formats (man, commonmark, latex) where 0 means no wrap; the
// structural formats ignore it.
func Render(w io.Writer, root *tree.Node, format string, cfg Config, width int) error {
	switch format {
	case FormatHTML:
		return renderHTML(w, root, cfg)
	case FormatXML:
		return renderXML(w, root, cfg)
	case FormatMan:
		return renderMan(w, root, width)
	case FormatCommonMark:
		return renderCommonMark(w, root, width)
	case FormatLaTeX:
		return renderLaTeX(w, root, width)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
}
