package render

import (
	"fmt"
	"io"
	"strings"

	"github.com/markconv/markconv/internal/tree"
)

// cmBreakPlaceholder marks a hard line break through wrapping; it becomes a
// trailing backslash afterwards.
const cmBreakPlaceholder = ""

// renderCommonMark writes the tree back out as canonical markup. The result
// parses to an equivalent tree; byte fidelity with the original input is not
// a goal.
func renderCommonMark(w io.Writer, root *tree.Node, width int) error {
	cw := &cmWriter{width: width}
	out := cw.blocks(root, width)
	if out != "" {
		out += "\n"
	}
	_, err := io.WriteString(w, out)
	return err
}

type cmWriter struct {
	width int
}

// blocks renders the children of a container, separated by blank lines.
func (cw *cmWriter) blocks(n *tree.Node, width int) string {
	var parts []string
	for c := n.FirstChild(); c != nil; c = c.Next() {
		parts = append(parts, cw.block(c, width))
	}
	return strings.Join(parts, "\n\n")
}

// block renders one block node without a trailing newline. Width is the
// remaining wrap budget at this nesting depth.
func (cw *cmWriter) block(n *tree.Node, width int) string {
	switch n.Kind() {
	case tree.Paragraph:
		return cw.paragraph(n, width)

	case tree.Heading:
		marker := strings.Repeat("#", clampHeading(n.HeadingLevel))
		// A heading is a single line; any breaks collapse to spaces.
		text := strings.ReplaceAll(cw.inlines(n, 0), cmBreakPlaceholder, "")
		text = strings.ReplaceAll(text, "\n", " ")
		return marker + " " + text

	case tree.BlockQuote:
		inner := cw.blocks(n, reduce(width, 2))
		return prefixLines(inner, "> ", "> ")

	case tree.List:
		return cw.list(n, width)

	case tree.CodeBlock:
		fence := codeFence(n.Literal)
		body := strings.TrimSuffix(n.Literal, "\n")
		if body == "" {
			return fence + n.FenceInfo + "\n" + fence
		}
		return fence + n.FenceInfo + "\n" + body + "\n" + fence

	case tree.HTMLBlock:
		return strings.TrimSuffix(n.Literal, "\n")

	case tree.ThematicBreak:
		return "***"
	}
	return ""
}

func (cw *cmWriter) paragraph(n *tree.Node, width int) string {
	s := cw.inlines(n, width)
	s = wrapText(s, width)
	return strings.ReplaceAll(s, cmBreakPlaceholder, "\\")
}

func (cw *cmWriter) list(n *tree.Node, width int) string {
	sep := "\n\n"
	if n.ListData.Tight {
		sep = "\n"
	}
	number := n.ListData.Start
	var items []string
	for item := n.FirstChild(); item != nil; item = item.Next() {
		var marker string
		if n.ListData.Ordered {
			delim := n.ListData.Delim
			if delim == 0 {
				delim = '.'
			}
			marker = fmt.Sprintf("%d%c ", number, delim)
			number++
		} else {
			bullet := n.ListData.Bullet
			if bullet == 0 {
				bullet = '-'
			}
			marker = string(bullet) + " "
		}
		indent := strings.Repeat(" ", len(marker))
		inner := cw.blocks(item, reduce(width, len(marker)))
		items = append(items, prefixLines(inner, marker, indent))
	}
	return strings.Join(items, sep)
}

// inlines assembles inline content. With a nonzero width soft breaks become
// spaces so the wrapper can pick its own break points.
func (cw *cmWriter) inlines(n *tree.Node, width int) string {
	var sb strings.Builder
	for c := n.FirstChild(); c != nil; c = c.Next() {
		cw.inline(&sb, c, width)
	}
	return sb.String()
}

func (cw *cmWriter) inline(sb *strings.Builder, n *tree.Node, width int) {
	switch n.Kind() {
	case tree.Text:
		sb.WriteString(escapeMarkdown(n.Literal))
	case tree.Softbreak:
		if width > 0 {
			sb.WriteByte(' ')
		} else {
			sb.WriteByte('\n')
		}
	case tree.Linebreak:
		sb.WriteString(cmBreakPlaceholder + "\n")
	case tree.Code:
		sb.WriteString(codeSpan(n.Literal))
	case tree.HTMLInline:
		sb.WriteString(n.Literal)
	case tree.Emph:
		sb.WriteByte('*')
		sb.WriteString(cw.inlines(n, width))
		sb.WriteByte('*')
	case tree.Strong:
		sb.WriteString("**")
		sb.WriteString(cw.inlines(n, width))
		sb.WriteString("**")
	case tree.Link:
		sb.WriteByte('[')
		sb.WriteString(cw.inlines(n, width))
		sb.WriteString("](" + n.Destination + cmTitle(n.Title) + ")")
	case tree.Image:
		sb.WriteString("![")
		sb.WriteString(cw.inlines(n, width))
		sb.WriteString("](" + n.Destination + cmTitle(n.Title) + ")")
	}
}

func cmTitle(title string) string {
	if title == "" {
		return ""
	}
	return " \"" + strings.ReplaceAll(title, "\"", "\\\"") + "\""
}

// codeFence returns a backtick fence longer than any run inside the literal.
func codeFence(literal string) string {
	fence := "```"
	for strings.Contains(literal, fence) {
		fence += "`"
	}
	return fence
}

// codeSpan delimits a code span, padding with spaces when the literal
// itself starts or ends with a backtick.
func codeSpan(literal string) string {
	delim := "`"
	for strings.Contains(literal, delim) {
		delim += "`"
	}
	if strings.HasPrefix(literal, "`") || strings.HasSuffix(literal, "`") || literal == "" {
		return delim + " " + literal + " " + delim
	}
	return delim + literal + delim
}

var markdownEscaper = strings.NewReplacer(
	"\\", "\\\\",
	"`", "\\`",
	"*", "\\*",
	"_", "\\_",
	"[", "\\[",
	"]", "\\]",
	"<", "\\<",
	">", "\\>",
)

func escapeMarkdown(s string) string {
	return markdownEscaper.Replace(s)
}

// prefixLines prepends first to the first line of s and rest to the others.
// Blank lines get the prefix trimmed of trailing spaces.
func prefixLines(s, first, rest string) string {
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		p := rest
		if i == 0 {
			p = first
		}
		if line == "" {
			p = strings.TrimRight(p, " ")
		}
		lines[i] = p + line
	}
	return strings.Join(lines, "\n")
}

// reduce lowers the wrap budget by n, keeping 0 ("no wrap") intact and never
// going below a usable minimum.
func reduce(width, n int) int {
	if width <= 0 {
		return width
	}
	if width-n < 10 {
		return 10
	}
	return width - n
}
