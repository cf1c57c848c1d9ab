package ingest

import (
	"bytes"
	"sort"

	"github.com/markconv/markconv/internal/tree"
)

// lineIndex returns the byte offset of each line start in src. Offsets are
// used to translate segment spans into 1-based line/column positions.
func lineIndex(src []byte) []int {
	offsets := []int{0}
	for i, b := range src {
		if b == '\n' && i+1 < len(src) {
			offsets = append(offsets, i+1)
		}
	}
	return offsets
}

// span converts a half-open byte range [start, stop) into a position.
// Columns are 1-based byte columns; the end column is inclusive. Line
// numbers count from the start of the original input, so stripped
// frontmatter lines are included via lineOffset.
func (c *converter) span(start, stop int) tree.Position {
	end := stop - 1
	if end < start {
		end = start
	}
	if stop > c.cursor {
		c.cursor = stop
	}
	sl := sort.SearchInts(c.lines, start+1) - 1
	el := sort.SearchInts(c.lines, end+1) - 1
	return tree.Position{
		StartLine: sl + 1 + c.lineOffset,
		StartCol:  start - c.lines[sl] + 1,
		EndLine:   el + 1 + c.lineOffset,
		EndCol:    end - c.lines[el] + 1,
	}
}

// breakPos locates a thematic break's source line. The parser keeps no
// segment for breaks, so the line is recovered by scanning forward from the
// last positioned byte for the next line made of break markers.
func (c *converter) breakPos(t *tree.Node) {
	if c.lines == nil {
		return
	}
	for pos := c.cursor; pos < len(c.src); {
		lineEnd := bytes.IndexByte(c.src[pos:], '\n')
		line := c.src[pos:]
		next := len(c.src)
		if lineEnd >= 0 {
			line = c.src[pos : pos+lineEnd]
			next = pos + lineEnd + 1
		}
		if isBreakLine(line) {
			trimmed := bytes.TrimRight(line, " \t\r")
			t.Pos = c.span(pos, pos+len(trimmed))
			c.cursor = next
			return
		}
		pos = next
	}
}

// isBreakLine reports whether line is a thematic break: three or more of
// the same marker among -, _ and *, with nothing else but whitespace.
// Leading quote markers are skipped so breaks inside blockquotes match
// their own line.
func isBreakLine(line []byte) bool {
	s := bytes.TrimSpace(line)
	for len(s) > 0 && s[0] == '>' {
		s = bytes.TrimSpace(s[1:])
	}
	if len(s) < 3 {
		return false
	}
	marker := s[0]
	if marker != '-' && marker != '_' && marker != '*' {
		return false
	}
	count := 0
	for _, b := range s {
		switch b {
		case marker:
			count++
		case ' ', '\t':
		default:
			return false
		}
	}
	return count >= 3
}

// spanContainers fills in positions for container nodes from their
// descendants, so quotes, lists and inline containers carry a span covering
// everything beneath them.
func spanContainers(root *tree.Node) {
	tree.Walk(root, func(n *tree.Node, ev tree.WalkEvent) bool {
		if ev != tree.Exit {
			return true
		}
		if !n.Pos.IsZero() {
			return true
		}
		var first, last tree.Position
		for c := n.FirstChild(); c != nil; c = c.Next() {
			if c.Pos.IsZero() {
				continue
			}
			if first.IsZero() {
				first = c.Pos
			}
			last = c.Pos
		}
		if !first.IsZero() {
			n.Pos = tree.Position{
				StartLine: first.StartLine,
				StartCol:  first.StartCol,
				EndLine:   last.EndLine,
				EndCol:    last.EndCol,
			}
		}
		return true
	})
}
