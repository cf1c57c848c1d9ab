package render

import (
	"fmt"
	"io"
	"strings"

	"github.com/markconv/markconv/internal/tree"
)

// latexBreakPlaceholder marks a hard line break through wrapping; it becomes
// a "\\" line break command afterwards.
const latexBreakPlaceholder = "\uE000"

var latexSections = []string{
	1: "section",
	2: "subsection",
	3: "subsubsection",
	4: "paragraph",
	5: "subparagraph",
	6: "subparagraph",
}

// renderLaTeX writes the tree as a LaTeX document fragment. Raw HTML has no
// LaTeX representation and is dropped.
func renderLaTeX(w io.Writer, root *tree.Node, width int) error {
	lw := &latexWriter{width: width}
	for n := root.FirstChild(); n != nil; n = n.Next() {
		lw.block(n)
	}
	_, err := io.WriteString(w, lw.b.String())
	return err
}

type latexWriter struct {
	b     strings.Builder
	width int
}

func (lw *latexWriter) block(n *tree.Node) {
	switch n.Kind() {
	case tree.Heading:
		section := latexSections[clampHeading(n.HeadingLevel)]
		title := strings.ReplaceAll(lw.inlines(n), latexBreakPlaceholder, "\\\\")
		lw.b.WriteString("\\" + section + "{" + title + "}\n\n")

	case tree.Paragraph:
		lw.text(lw.inlines(n))
		lw.b.WriteString("\n\n")

	case tree.BlockQuote:
		lw.b.WriteString("\\begin{quote}\n")
		for c := n.FirstChild(); c != nil; c = c.Next() {
			lw.block(c)
		}
		lw.b.WriteString("\\end{quote}\n\n")

	case tree.List:
		env := "itemize"
		if n.ListData.Ordered {
			env = "enumerate"
		}
		lw.b.WriteString("\\begin{" + env + "}\n")
		if n.ListData.Ordered && n.ListData.Start > 1 {
			fmt.Fprintf(&lw.b, "\\setcounter{enumi}{%d}\n", n.ListData.Start-1)
		}
		for item := n.FirstChild(); item != nil; item = item.Next() {
			lw.b.WriteString("\\item ")
			lw.item(item)
		}
		lw.b.WriteString("\\end{" + env + "}\n\n")

	case tree.CodeBlock:
		lw.b.WriteString("\\begin{verbatim}\n")
		lw.b.WriteString(n.Literal)
		lw.b.WriteString("\\end{verbatim}\n\n")

	case tree.ThematicBreak:
		lw.b.WriteString("\\begin{center}\\rule{0.5\\linewidth}{\\linethickness}\\end{center}\n\n")
	}
}

func (lw *latexWriter) item(n *tree.Node) {
	for c := n.FirstChild(); c != nil; c = c.Next() {
		if c.Kind() == tree.Paragraph {
			lw.text(lw.inlines(c))
			lw.b.WriteByte('\n')
			continue
		}
		lw.block(c)
	}
}

func (lw *latexWriter) text(s string) {
	s = wrapText(s, lw.width)
	lw.b.WriteString(strings.ReplaceAll(s, latexBreakPlaceholder, "\\\\"))
}

func (lw *latexWriter) inlines(n *tree.Node) string {
	var sb strings.Builder
	for c := n.FirstChild(); c != nil; c = c.Next() {
		lw.inline(&sb, c)
	}
	return sb.String()
}

func (lw *latexWriter) inline(sb *strings.Builder, n *tree.Node) {
	switch n.Kind() {
	case tree.Text:
		sb.WriteString(escapeLaTeX(n.Literal))
	case tree.Softbreak:
		if lw.width > 0 {
			sb.WriteByte(' ')
		} else {
			sb.WriteByte('\n')
		}
	case tree.Linebreak:
		sb.WriteString(latexBreakPlaceholder + "\n")
	case tree.Code:
		sb.WriteString("\\texttt{" + escapeLaTeX(n.Literal) + "}")
	case tree.Emph:
		sb.WriteString("\\emph{")
		sb.WriteString(lw.inlines(n))
		sb.WriteByte('}')
	case tree.Strong:
		sb.WriteString("\\textbf{")
		sb.WriteString(lw.inlines(n))
		sb.WriteByte('}')
	case tree.Link:
		sb.WriteString("\\href{" + escapeLaTeXURL(n.Destination) + "}{")
		sb.WriteString(lw.inlines(n))
		sb.WriteByte('}')
	case tree.Image:
		sb.WriteString("\\protect\\includegraphics{" + escapeLaTeXURL(n.Destination) + "}")
	}
}

var latexEscaper = strings.NewReplacer(
	"\\", "\\textbackslash{}",
	"{", "\\{",
	"}", "\\}",
	"#", "\\#",
	"%", "\\%",
	"&", "\\&",
	"$", "\\$",
	"_", "\\_",
	"~", "\\textasciitilde{}",
	"^", "\\textasciicircum{}",
)

func escapeLaTeX(s string) string {
	return latexEscaper.Replace(s)
}

// escapeLaTeXURL escapes only the characters that break \href arguments.
func escapeLaTeXURL(s string) string {
	return strings.NewReplacer("%", "\\%", "#", "\\#", "{", "\\{", "}", "\\}").Replace(s)
}
