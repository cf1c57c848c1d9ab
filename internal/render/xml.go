package render

import (
	"fmt"
	"io"
	"strings"

	"github.com/markconv/markconv/internal/tree"
)

const (
	xmlHeader = "<?xml version=\"1.0\" encoding=\"UTF-8\"?>\n" +
		"<!DOCTYPE document SYSTEM \"CommonMark.dtd\">\n"
	xmlNamespace = "http://commonmark.org/xml/1.0"
)

// renderXML writes the tree in CommonMark XML form: one element per node,
// nested two spaces per depth, literals as xml:space-preserved content.
func renderXML(w io.Writer, root *tree.Node, cfg Config) error {
	xw := &xmlWriter{cfg: cfg}
	xw.b.WriteString(xmlHeader)
	xw.node(root, 0)
	_, err := io.WriteString(w, xw.b.String())
	return err
}

type xmlWriter struct {
	b   strings.Builder
	cfg Config
}

func (xw *xmlWriter) node(n *tree.Node, depth int) {
	indent := strings.Repeat("  ", depth)
	name := n.Kind().String()

	xw.b.WriteString(indent)
	xw.b.WriteByte('<')
	xw.b.WriteString(name)
	xw.attrs(n)

	switch {
	case n.Literal != "":
		xw.b.WriteString(" xml:space=\"preserve\">")
		xw.b.WriteString(escapeXML(n.Literal))
		xw.b.WriteString("</" + name + ">\n")
	case n.FirstChild() != nil:
		xw.b.WriteString(">\n")
		for c := n.FirstChild(); c != nil; c = c.Next() {
			xw.node(c, depth+1)
		}
		xw.b.WriteString(indent + "</" + name + ">\n")
	default:
		xw.b.WriteString(" />\n")
	}
}

func (xw *xmlWriter) attrs(n *tree.Node) {
	if n.Kind() == tree.Document {
		xw.b.WriteString(" xmlns=\"" + xmlNamespace + "\"")
	}
	if xw.cfg.Sourcepos && !n.Pos.IsZero() {
		fmt.Fprintf(&xw.b, " sourcepos=\"%d:%d-%d:%d\"",
			n.Pos.StartLine, n.Pos.StartCol, n.Pos.EndLine, n.Pos.EndCol)
	}
	switch n.Kind() {
	case tree.Heading:
		fmt.Fprintf(&xw.b, " level=\"%d\"", n.HeadingLevel)
	case tree.List:
		if n.ListData.Ordered {
			xw.b.WriteString(" type=\"ordered\"")
			fmt.Fprintf(&xw.b, " start=\"%d\"", n.ListData.Start)
			delim := "period"
			if n.ListData.Delim == ')' {
				delim = "paren"
			}
			xw.b.WriteString(" delim=\"" + delim + "\"")
		} else {
			xw.b.WriteString(" type=\"bullet\"")
		}
		fmt.Fprintf(&xw.b, " tight=\"%t\"", n.ListData.Tight)
	case tree.CodeBlock:
		if n.FenceInfo != "" {
			xw.b.WriteString(" info=\"" + escapeXML(n.FenceInfo) + "\"")
		}
	case tree.Link, tree.Image:
		xw.b.WriteString(" destination=\"" + escapeXML(n.Destination) + "\"")
		if n.Title != "" {
			xw.b.WriteString(" title=\"" + escapeXML(n.Title) + "\"")
		}
	}
}

var xmlEscaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	"\"", "&quot;",
)

func escapeXML(s string) string {
	return xmlEscaper.Replace(s)
}
