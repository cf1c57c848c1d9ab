package ingest

import (
	"fmt"
	"html"
	"strings"

	gast "github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"

	"github.com/markconv/markconv/internal/tree"
)

// converter rebuilds the parser's AST as a document tree. The parse result
// references the source by segment; the tree owns its text outright so
// filters can rewrite it freely.
type converter struct {
	src        []byte
	hardBreaks bool
	lines      []int // line start offsets, nil unless sourcepos was requested
	lineOffset int   // lines stripped ahead of src, so positions match the input
	cursor     int   // byte offset past the last positioned node
}

func (c *converter) convert(doc gast.Node) (*tree.Node, error) {
	root := tree.NewNode(tree.Document)
	if err := c.appendChildren(root, doc); err != nil {
		return nil, err
	}
	return root, nil
}

func (c *converter) appendChildren(parent *tree.Node, n gast.Node) error {
	for ch := n.FirstChild(); ch != nil; ch = ch.NextSibling() {
		if err := c.appendNode(parent, ch); err != nil {
			return err
		}
	}
	return nil
}

// appendNode translates one AST node (and its subtree) onto parent. A text
// node with a line-break flag expands into two tree nodes, which is why this
// appends rather than returns.
func (c *converter) appendNode(parent *tree.Node, n gast.Node) error {
	switch v := n.(type) {
	case *gast.Heading:
		h := tree.NewNode(tree.Heading)
		h.HeadingLevel = v.Level
		c.blockPos(h, n)
		parent.AppendChild(h)
		return c.appendChildren(h, n)

	case *gast.Paragraph:
		p := tree.NewNode(tree.Paragraph)
		c.blockPos(p, n)
		parent.AppendChild(p)
		return c.appendChildren(p, n)

	case *gast.TextBlock:
		// Tight list item content; tightness lives on the list node.
		p := tree.NewNode(tree.Paragraph)
		c.blockPos(p, n)
		parent.AppendChild(p)
		return c.appendChildren(p, n)

	case *gast.Blockquote:
		b := tree.NewNode(tree.BlockQuote)
		parent.AppendChild(b)
		return c.appendChildren(b, n)

	case *gast.List:
		l := tree.NewNode(tree.List)
		l.ListData.Tight = v.IsTight
		if v.IsOrdered() {
			l.ListData.Ordered = true
			l.ListData.Start = v.Start
			l.ListData.Delim = v.Marker
		} else {
			l.ListData.Bullet = v.Marker
		}
		parent.AppendChild(l)
		return c.appendChildren(l, n)

	case *gast.ListItem:
		item := tree.NewNode(tree.Item)
		parent.AppendChild(item)
		return c.appendChildren(item, n)

	case *gast.FencedCodeBlock:
		cb := tree.NewNode(tree.CodeBlock)
		cb.Literal = c.blockLines(n)
		cb.FenceInfo = string(v.Language(c.src))
		c.blockPos(cb, n)
		parent.AppendChild(cb)
		return nil

	case *gast.CodeBlock:
		cb := tree.NewNode(tree.CodeBlock)
		cb.Literal = c.blockLines(n)
		c.blockPos(cb, n)
		parent.AppendChild(cb)
		return nil

	case *gast.HTMLBlock:
		hb := tree.NewNode(tree.HTMLBlock)
		var sb strings.Builder
		sb.WriteString(c.blockLines(n))
		if v.HasClosure() {
			sb.Write(v.ClosureLine.Value(c.src))
		}
		hb.Literal = sb.String()
		c.blockPos(hb, n)
		parent.AppendChild(hb)
		return nil

	case *gast.ThematicBreak:
		hr := tree.NewNode(tree.ThematicBreak)
		c.breakPos(hr)
		parent.AppendChild(hr)
		return nil

	case *gast.Text:
		t := tree.NewNode(tree.Text)
		t.Literal = string(v.Segment.Value(c.src))
		c.segmentPos(t, v.Segment)
		parent.AppendChild(t)
		switch {
		case v.HardLineBreak():
			parent.AppendChild(tree.NewNode(tree.Linebreak))
		case v.SoftLineBreak() && c.hardBreaks:
			parent.AppendChild(tree.NewNode(tree.Linebreak))
		case v.SoftLineBreak():
			parent.AppendChild(tree.NewNode(tree.Softbreak))
		}
		return nil

	case *gast.String:
		t := tree.NewNode(tree.Text)
		// Smart punctuation arrives as HTML entity strings ("&ldquo;");
		// the tree stores the actual characters so every dialect can
		// serialize them its own way.
		t.Literal = html.UnescapeString(string(v.Value))
		parent.AppendChild(t)
		return nil

	case *gast.CodeSpan:
		code := tree.NewNode(tree.Code)
		code.Literal = strings.ReplaceAll(c.inlineText(n), "\n", " ")
		parent.AppendChild(code)
		return nil

	case *gast.Emphasis:
		kind := tree.Emph
		if v.Level >= 2 {
			kind = tree.Strong
		}
		e := tree.NewNode(kind)
		parent.AppendChild(e)
		return c.appendChildren(e, n)

	case *gast.Link:
		l := tree.NewNode(tree.Link)
		l.Destination = string(v.Destination)
		l.Title = string(v.Title)
		parent.AppendChild(l)
		return c.appendChildren(l, n)

	case *gast.Image:
		img := tree.NewNode(tree.Image)
		img.Destination = string(v.Destination)
		img.Title = string(v.Title)
		parent.AppendChild(img)
		return c.appendChildren(img, n)

	case *gast.AutoLink:
		l := tree.NewNode(tree.Link)
		url := string(v.URL(c.src))
		if v.AutoLinkType == gast.AutoLinkEmail && !strings.HasPrefix(url, "mailto:") {
			url = "mailto:" + url
		}
		l.Destination = url
		label := tree.NewNode(tree.Text)
		label.Literal = string(v.Label(c.src))
		l.AppendChild(label)
		parent.AppendChild(l)
		return nil

	case *gast.RawHTML:
		raw := tree.NewNode(tree.HTMLInline)
		var sb strings.Builder
		for i := 0; i < v.Segments.Len(); i++ {
			seg := v.Segments.At(i)
			sb.Write(seg.Value(c.src))
		}
		raw.Literal = sb.String()
		parent.AppendChild(raw)
		return nil

	default:
		return fmt.Errorf("unexpected parse node %s", n.Kind())
	}
}

// blockLines concatenates a block node's raw source lines.
func (c *converter) blockLines(n gast.Node) string {
	var sb strings.Builder
	lines := n.Lines()
	for i := 0; i < lines.Len(); i++ {
		seg := lines.At(i)
		sb.Write(seg.Value(c.src))
	}
	return sb.String()
}

// inlineText concatenates the literal text beneath an inline container.
func (c *converter) inlineText(n gast.Node) string {
	var sb strings.Builder
	for ch := n.FirstChild(); ch != nil; ch = ch.NextSibling() {
		switch v := ch.(type) {
		case *gast.Text:
			sb.Write(v.Segment.Value(c.src))
			if v.SoftLineBreak() || v.HardLineBreak() {
				sb.WriteByte('\n')
			}
		case *gast.String:
			sb.Write(v.Value)
		default:
			sb.WriteString(c.inlineText(ch))
		}
	}
	return sb.String()
}

// blockPos records the source span of a block from its raw lines.
func (c *converter) blockPos(t *tree.Node, n gast.Node) {
	if c.lines == nil {
		return
	}
	lines := n.Lines()
	if lines.Len() == 0 {
		return
	}
	first := lines.At(0)
	last := lines.At(lines.Len() - 1)
	t.Pos = c.span(first.Start, last.Stop)
}

// segmentPos records the source span of a single text segment.
func (c *converter) segmentPos(t *tree.Node, seg text.Segment) {
	if c.lines == nil || seg.Stop <= seg.Start {
		return
	}
	t.Pos = c.span(seg.Start, seg.Stop)
}
