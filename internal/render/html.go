package render

import (
	"fmt"
	"io"
	"strings"

	chromahtml "github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"

	"github.com/markconv/markconv/internal/tree"
)

const rawHTMLOmitted = "<!-- raw HTML omitted -->"

// highlightStyle is the chroma style used when code highlighting is on.
const highlightStyle = "github"

func renderHTML(w io.Writer, root *tree.Node, cfg Config) error {
	hw := &htmlWriter{cfg: cfg}
	for n := root.FirstChild(); n != nil; n = n.Next() {
		hw.block(n, false)
	}
	_, err := io.WriteString(w, hw.b.String())
	return err
}

type htmlWriter struct {
	b   strings.Builder
	cfg Config
}

// tag writes an opening tag, attaching the source position when enabled.
func (hw *htmlWriter) tag(name string, n *tree.Node, attrs string) {
	hw.b.WriteByte('<')
	hw.b.WriteString(name)
	if hw.cfg.Sourcepos && n != nil && !n.Pos.IsZero() {
		fmt.Fprintf(&hw.b, " data-sourcepos=\"%d:%d-%d:%d\"",
			n.Pos.StartLine, n.Pos.StartCol, n.Pos.EndLine, n.Pos.EndCol)
	}
	hw.b.WriteString(attrs)
	hw.b.WriteByte('>')
}

// block renders one block node. In a tight list, paragraphs render their
// inline content without the <p> wrapper.
func (hw *htmlWriter) block(n *tree.Node, tight bool) {
	switch n.Kind() {
	case tree.Paragraph:
		if tight {
			hw.inlines(n)
			return
		}
		hw.tag("p", n, "")
		hw.inlines(n)
		hw.b.WriteString("</p>\n")

	case tree.Heading:
		level := clampHeading(n.HeadingLevel)
		name := fmt.Sprintf("h%d", level)
		hw.tag(name, n, "")
		hw.inlines(n)
		hw.b.WriteString("</" + name + ">\n")

	case tree.BlockQuote:
		hw.tag("blockquote", n, "")
		hw.b.WriteByte('\n')
		for c := n.FirstChild(); c != nil; c = c.Next() {
			hw.block(c, false)
		}
		hw.b.WriteString("</blockquote>\n")

	case tree.List:
		name := "ul"
		attrs := ""
		if n.ListData.Ordered {
			name = "ol"
			if n.ListData.Start != 1 && n.ListData.Start != 0 {
				attrs = fmt.Sprintf(" start=\"%d\"", n.ListData.Start)
			}
		}
		hw.tag(name, n, attrs)
		hw.b.WriteByte('\n')
		for item := n.FirstChild(); item != nil; item = item.Next() {
			hw.item(item, n.ListData.Tight)
		}
		hw.b.WriteString("</" + name + ">\n")

	case tree.CodeBlock:
		hw.codeBlock(n)

	case tree.HTMLBlock:
		if hw.cfg.Safe {
			hw.b.WriteString(rawHTMLOmitted + "\n")
			return
		}
		hw.b.WriteString(n.Literal)

	case tree.ThematicBreak:
		hw.b.WriteString("<hr")
		if hw.cfg.Sourcepos && !n.Pos.IsZero() {
			fmt.Fprintf(&hw.b, " data-sourcepos=\"%d:%d-%d:%d\"",
				n.Pos.StartLine, n.Pos.StartCol, n.Pos.EndLine, n.Pos.EndCol)
		}
		hw.b.WriteString(" />\n")
	}
}

func (hw *htmlWriter) item(n *tree.Node, tight bool) {
	hw.tag("li", n, "")
	first := n.FirstChild()
	if !tight && first != nil {
		hw.b.WriteByte('\n')
	}
	for c := first; c != nil; c = c.Next() {
		hw.block(c, tight)
	}
	hw.b.WriteString("</li>\n")
}

func (hw *htmlWriter) codeBlock(n *tree.Node) {
	lang := firstWord(n.FenceInfo)
	if hw.cfg.Highlight && lang != "" {
		if hw.highlight(n.Literal, lang) {
			return
		}
		// Unknown language: fall through to the plain form.
	}
	hw.tag("pre", n, "")
	if lang != "" {
		hw.b.WriteString("<code class=\"language-" + escapeHTML(lang) + "\">")
	} else {
		hw.b.WriteString("<code>")
	}
	hw.b.WriteString(escapeHTML(n.Literal))
	hw.b.WriteString("</code></pre>\n")
}

// highlight renders a fenced code block through chroma. It reports false
// when the language has no registered lexer, leaving the block to the plain
// path.
func (hw *htmlWriter) highlight(literal, lang string) bool {
	lexer := lexers.Get(lang)
	if lexer == nil {
		return false
	}
	iterator, err := lexer.Tokenise(nil, literal)
	if err != nil {
		return false
	}
	formatter := chromahtml.New(chromahtml.WithClasses(true))
	if err := formatter.Format(&hw.b, styles.Get(highlightStyle), iterator); err != nil {
		return false
	}
	hw.b.WriteByte('\n')
	return true
}

func (hw *htmlWriter) inlines(n *tree.Node) {
	for c := n.FirstChild(); c != nil; c = c.Next() {
		hw.inline(c)
	}
}

func (hw *htmlWriter) inline(n *tree.Node) {
	switch n.Kind() {
	case tree.Text:
		hw.b.WriteString(escapeHTML(n.Literal))
	case tree.Softbreak:
		hw.b.WriteByte('\n')
	case tree.Linebreak:
		hw.b.WriteString("<br />\n")
	case tree.Code:
		hw.b.WriteString("<code>" + escapeHTML(n.Literal) + "</code>")
	case tree.HTMLInline:
		if hw.cfg.Safe {
			hw.b.WriteString(rawHTMLOmitted)
		} else {
			hw.b.WriteString(n.Literal)
		}
	case tree.Emph:
		hw.b.WriteString("<em>")
		hw.inlines(n)
		hw.b.WriteString("</em>")
	case tree.Strong:
		hw.b.WriteString("<strong>")
		hw.inlines(n)
		hw.b.WriteString("</strong>")
	case tree.Link:
		hw.b.WriteString("<a href=\"" + escapeHTML(hw.scrubURL(n.Destination)) + "\"")
		if n.Title != "" {
			hw.b.WriteString(" title=\"" + escapeHTML(n.Title) + "\"")
		}
		hw.b.WriteByte('>')
		hw.inlines(n)
		hw.b.WriteString("</a>")
	case tree.Image:
		hw.b.WriteString("<img src=\"" + escapeHTML(hw.scrubURL(n.Destination)) + "\"")
		hw.b.WriteString(" alt=\"" + escapeHTML(plainText(n)) + "\"")
		if n.Title != "" {
			hw.b.WriteString(" title=\"" + escapeHTML(n.Title) + "\"")
		}
		hw.b.WriteString(" />")
	}
}

// scrubURL empties risky destinations in safe mode.
func (hw *htmlWriter) scrubURL(dest string) string {
	if hw.cfg.Safe && riskyURL(dest) {
		return ""
	}
	return dest
}

// riskyURL reports whether a destination uses a scheme that can execute
// code or read local files. data: is allowed only for common image types.
func riskyURL(dest string) bool {
	lower := strings.ToLower(dest)
	for _, scheme := range []string{"javascript:", "vbscript:", "file:"} {
		if strings.HasPrefix(lower, scheme) {
			return true
		}
	}
	if strings.HasPrefix(lower, "data:") {
		for _, ok := range []string{"data:image/png", "data:image/gif", "data:image/jpeg", "data:image/webp"} {
			if strings.HasPrefix(lower, ok) {
				return false
			}
		}
		return true
	}
	return false
}

func escapeHTML(s string) string {
	return htmlEscaper.Replace(s)
}

var htmlEscaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	"\"", "&quot;",
)

// plainText flattens the literal text beneath n, for image alt attributes.
func plainText(n *tree.Node) string {
	var sb strings.Builder
	tree.Walk(n, func(c *tree.Node, ev tree.WalkEvent) bool {
		if ev != tree.Enter {
			return true
		}
		switch c.Kind() {
		case tree.Text, tree.Code:
			sb.WriteString(c.Literal)
		case tree.Softbreak, tree.Linebreak:
			sb.WriteByte(' ')
		}
		return true
	})
	return sb.String()
}

func clampHeading(level int) int {
	if level < 1 {
		return 1
	}
	if level > 6 {
		return 6
	}
	return level
}

func firstWord(s string) string {
	if i := strings.IndexAny(s, " \t"); i >= 0 {
		return s[:i]
	}
	return s
}
