package render

import (
	"fmt"
	"io"
	"strings"

	"github.com/markconv/markconv/internal/tree"
)

// renderMan writes the tree as troff man-page source. Raw HTML has no man
// representation and is dropped.
func renderMan(w io.Writer, root *tree.Node, width int) error {
	mw := &manWriter{width: width}
	for n := root.FirstChild(); n != nil; n = n.Next() {
		mw.block(n)
	}
	_, err := io.WriteString(w, mw.b.String())
	return err
}

type manWriter struct {
	b     strings.Builder
	width int
}

func (mw *manWriter) block(n *tree.Node) {
	switch n.Kind() {
	case tree.Heading:
		macro := ".SS"
		if n.HeadingLevel == 1 {
			macro = ".SH"
		}
		mw.b.WriteString(macro + "\n")
		mw.text(mw.inlines(n))

	case tree.Paragraph:
		mw.b.WriteString(".PP\n")
		mw.text(mw.inlines(n))

	case tree.BlockQuote:
		mw.b.WriteString(".RS\n")
		for c := n.FirstChild(); c != nil; c = c.Next() {
			mw.block(c)
		}
		mw.b.WriteString(".RE\n")

	case tree.List:
		number := n.ListData.Start
		for item := n.FirstChild(); item != nil; item = item.Next() {
			if n.ListData.Ordered {
				fmt.Fprintf(&mw.b, ".IP \"%d.\" 4\n", number)
				number++
			} else {
				mw.b.WriteString(".IP \\[bu] 2\n")
			}
			mw.item(item)
		}

	case tree.CodeBlock:
		mw.b.WriteString(".IP\n.nf\n\\f[C]\n")
		mw.b.WriteString(escapeManLines(n.Literal))
		mw.b.WriteString("\\f[]\n.fi\n")

	case tree.ThematicBreak:
		mw.b.WriteString(".PP\n  *  *  *  *  *\n")
	}
}

// item renders a list item's blocks; the first paragraph flows directly
// under the .IP tag instead of opening its own.
func (mw *manWriter) item(n *tree.Node) {
	first := true
	for c := n.FirstChild(); c != nil; c = c.Next() {
		if first && c.Kind() == tree.Paragraph {
			mw.text(mw.inlines(c))
			first = false
			continue
		}
		first = false
		mw.block(c)
	}
}

// manBreakPlaceholder marks a hard line break through wrapping and escaping.
// Private Use Area, so it cannot collide with document text.
const manBreakPlaceholder = ""

// text wraps assembled inline content and guards troff control characters at
// line starts.
func (mw *manWriter) text(s string) {
	s = wrapText(s, mw.width)
	s = escapeLineStarts(s)
	s = strings.ReplaceAll(s, manBreakPlaceholder, "\n.br")
	mw.b.WriteString(s)
	mw.b.WriteByte('\n')
}

// inlines assembles inline content into a single escaped string. Soft
// breaks become spaces when wrapping so reflow can choose its own breaks.
func (mw *manWriter) inlines(n *tree.Node) string {
	var sb strings.Builder
	for c := n.FirstChild(); c != nil; c = c.Next() {
		mw.inline(&sb, c)
	}
	return sb.String()
}

func (mw *manWriter) inline(sb *strings.Builder, n *tree.Node) {
	switch n.Kind() {
	case tree.Text:
		sb.WriteString(escapeMan(n.Literal))
	case tree.Softbreak:
		if mw.width > 0 {
			sb.WriteByte(' ')
		} else {
			sb.WriteByte('\n')
		}
	case tree.Linebreak:
		// Placeholder survives wrapping and line-start escaping; text()
		// turns it into a .br request afterwards.
		sb.WriteString(manBreakPlaceholder + "\n")
	case tree.Code:
		sb.WriteString("\\f[C]" + escapeMan(n.Literal) + "\\f[]")
	case tree.Emph:
		sb.WriteString("\\f[I]")
		for c := n.FirstChild(); c != nil; c = c.Next() {
			mw.inline(sb, c)
		}
		sb.WriteString("\\f[]")
	case tree.Strong:
		sb.WriteString("\\f[B]")
		for c := n.FirstChild(); c != nil; c = c.Next() {
			mw.inline(sb, c)
		}
		sb.WriteString("\\f[]")
	case tree.Link:
		for c := n.FirstChild(); c != nil; c = c.Next() {
			mw.inline(sb, c)
		}
		sb.WriteString(" (" + escapeMan(n.Destination) + ")")
	case tree.Image:
		sb.WriteString("[IMAGE: " + escapeMan(plainText(n)) + " (" + escapeMan(n.Destination) + ")]")
	}
}

var manEscaper = strings.NewReplacer(
	"\\", "\\e",
	"-", "\\-",
	"\u2019", "'",
	"\u2018", "`",
	"\u201c", "\\[lq]",
	"\u201d", "\\[rq]",
	"\u2014", "\\[em]",
	"\u2013", "\\[en]",
)

func escapeMan(s string) string {
	return manEscaper.Replace(s)
}

// escapeManLines escapes code-block text, which keeps its own line breaks.
func escapeManLines(s string) string {
	return escapeLineStarts(strings.ReplaceAll(s, "\\", "\\e"))
}

// escapeLineStarts neutralizes '.' and '\'' at the start of output lines,
// where troff would read them as control requests.
func escapeLineStarts(s string) string {
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		if strings.HasPrefix(line, ".") || strings.HasPrefix(line, "'") {
			lines[i] = "\\&" + line
		}
	}
	return strings.Join(lines, "\n")
}
