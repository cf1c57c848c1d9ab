// Package tree defines the document tree produced by ingestion and consumed
// by filters and renderers.
//
// A tree is a single rooted, ordered structure of linked nodes. The root is
// always a Document node; every other node has exactly one parent. Child
// order is significant and preserved by every operation.
package tree

import "fmt"

// Kind identifies a node variant. The set is closed: renderers and the
// filter bridge switch exhaustively over it.
type Kind int

// Block kinds first, then inline kinds.
const (
	Document Kind = iota
	BlockQuote
	List
	Item
	CodeBlock
	HTMLBlock
	Paragraph
	Heading
	ThematicBreak
	Text
	Softbreak
	Linebreak
	Code
	HTMLInline
	Emph
	Strong
	Link
	Image
)

var kindNames = map[Kind]string{
	Document:      "document",
	BlockQuote:    "block_quote",
	List:          "list",
	Item:          "item",
	CodeBlock:     "code_block",
	HTMLBlock:     "html_block",
	Paragraph:     "paragraph",
	Heading:       "heading",
	ThematicBreak: "thematic_break",
	Text:          "text",
	Softbreak:     "softbreak",
	Linebreak:     "linebreak",
	Code:          "code",
	HTMLInline:    "html_inline",
	Emph:          "emph",
	Strong:        "strong",
	Link:          "link",
	Image:         "image",
}

// String returns the lowercase wire name of the kind, e.g. "block_quote".
// These names are part of the filter-script API.
func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// KindFromString resolves a wire name back to a Kind.
func KindFromString(s string) (Kind, bool) {
	for k, name := range kindNames {
		if name == s {
			return k, true
		}
	}
	return 0, false
}

// IsBlock reports whether the kind is a block-level variant.
func (k Kind) IsBlock() bool {
	return k <= ThematicBreak
}

// IsContainer reports whether the kind may hold children.
func (k Kind) IsContainer() bool {
	switch k {
	case Document, BlockQuote, List, Item, Paragraph, Heading, Emph, Strong, Link, Image:
		return true
	}
	return false
}

// ListData carries list-specific attributes.
type ListData struct {
	Ordered bool
	Start   int  // first item number for ordered lists
	Tight   bool // tight lists render without blank lines between items
	Bullet  byte // '-', '+' or '*' for bullet lists
	Delim   byte // '.' or ')' for ordered lists
}

// Position is a source span recorded when position tracking is enabled at
// ingestion. Lines and columns are 1-based; a zero Position means "not
// recorded".
type Position struct {
	StartLine, StartCol int
	EndLine, EndCol     int
}

// IsZero reports whether no position was recorded.
func (p Position) IsZero() bool { return p.StartLine == 0 }

// Node is a single document tree node. Navigation links are maintained by
// the mutation methods; callers must not modify them directly.
type Node struct {
	kind       Kind
	parent     *Node
	firstChild *Node
	lastChild  *Node
	prev       *Node
	next       *Node

	// Literal is the text content for Text, Code, CodeBlock, HTMLBlock and
	// HTMLInline nodes.
	Literal string

	// Kind-specific attributes.
	HeadingLevel int
	ListData     ListData
	FenceInfo    string
	Destination  string
	Title        string

	// Pos is populated only when the sourcepos run option is enabled.
	Pos Position

	// Metadata holds document frontmatter; non-nil only on Document nodes
	// that had frontmatter.
	Metadata map[string]any
}

// NewNode returns a detached node of the given kind.
func NewNode(kind Kind) *Node {
	return &Node{kind: kind}
}

// Kind returns the node's kind.
func (n *Node) Kind() Kind { return n.kind }

// SetKind rewrites the node's kind. Exposed for filter scripts, which may
// retag a node (e.g. paragraph to heading) without rebuilding its children.
func (n *Node) SetKind(k Kind) { n.kind = k }

// Parent returns the parent node, nil for the root.
func (n *Node) Parent() *Node { return n.parent }

// FirstChild returns the first child, nil if the node has none.
func (n *Node) FirstChild() *Node { return n.firstChild }

// LastChild returns the last child, nil if the node has none.
func (n *Node) LastChild() *Node { return n.lastChild }

// Prev returns the previous sibling, nil at the front.
func (n *Node) Prev() *Node { return n.prev }

// Next returns the next sibling, nil at the end.
func (n *Node) Next() *Node { return n.next }

// ChildCount walks the child list and returns its length.
func (n *Node) ChildCount() int {
	count := 0
	for c := n.firstChild; c != nil; c = c.next {
		count++
	}
	return count
}

// Unlink detaches the node from its parent and siblings. The node keeps its
// own children. Unlinking a detached node is a no-op.
func (n *Node) Unlink() {
	if n.prev != nil {
		n.prev.next = n.next
	} else if n.parent != nil {
		n.parent.firstChild = n.next
	}
	if n.next != nil {
		n.next.prev = n.prev
	} else if n.parent != nil {
		n.parent.lastChild = n.prev
	}
	n.parent = nil
	n.prev = nil
	n.next = nil
}

// AppendChild adds child as the last child of n. A child already linked
// elsewhere is unlinked first, so a node can never appear twice.
func (n *Node) AppendChild(child *Node) {
	child.Unlink()
	child.parent = n
	if n.lastChild != nil {
		n.lastChild.next = child
		child.prev = n.lastChild
	} else {
		n.firstChild = child
	}
	n.lastChild = child
}

// PrependChild adds child as the first child of n.
func (n *Node) PrependChild(child *Node) {
	child.Unlink()
	child.parent = n
	if n.firstChild != nil {
		n.firstChild.prev = child
		child.next = n.firstChild
	} else {
		n.lastChild = child
	}
	n.firstChild = child
}

// InsertBefore places sibling immediately before n in n's parent.
// It is a no-op when n has no parent.
func (n *Node) InsertBefore(sibling *Node) {
	if n.parent == nil {
		return
	}
	sibling.Unlink()
	sibling.parent = n.parent
	sibling.next = n
	sibling.prev = n.prev
	if n.prev != nil {
		n.prev.next = sibling
	} else {
		n.parent.firstChild = sibling
	}
	n.prev = sibling
}

// InsertAfter places sibling immediately after n in n's parent.
// It is a no-op when n has no parent.
func (n *Node) InsertAfter(sibling *Node) {
	if n.parent == nil {
		return
	}
	sibling.Unlink()
	sibling.parent = n.parent
	sibling.prev = n
	sibling.next = n.next
	if n.next != nil {
		n.next.prev = sibling
	} else {
		n.parent.lastChild = sibling
	}
	n.next = sibling
}

// WalkEvent signals whether a node is being entered or exited during Walk.
type WalkEvent int

// Walk events. Leaf nodes fire Enter only.
const (
	Enter WalkEvent = iota
	Exit
)

// Visitor receives Walk events. Returning false from Enter skips the node's
// children (Exit still fires for containers).
type Visitor func(n *Node, event WalkEvent) bool

// Walk traverses the subtree rooted at n depth-first. Containers fire Enter
// then Exit; leaves fire Enter only. The visitor may mutate literals and
// attributes but must not relink the nodes being traversed.
func Walk(n *Node, visit Visitor) {
	descend := visit(n, Enter)
	if n.kind.IsContainer() {
		if descend {
			for c := n.firstChild; c != nil; {
				// Grab next first so the visitor may unlink c's successors safely.
				next := c.next
				Walk(c, visit)
				c = next
			}
		}
		visit(n, Exit)
	}
}

// Normalize merges runs of adjacent Text siblings throughout the subtree
// into single Text nodes, concatenating their literals in order.
func Normalize(root *Node) {
	Walk(root, func(n *Node, ev WalkEvent) bool {
		if ev != Enter {
			return true
		}
		for c := n.firstChild; c != nil; c = c.next {
			if c.kind != Text {
				continue
			}
			for c.next != nil && c.next.kind == Text {
				dup := c.next
				c.Literal += dup.Literal
				if !c.Pos.IsZero() && !dup.Pos.IsZero() {
					c.Pos.EndLine = dup.Pos.EndLine
					c.Pos.EndCol = dup.Pos.EndCol
				}
				dup.Unlink()
			}
		}
		return true
	})
}

// Equal reports deep structural equality of two subtrees: same kinds,
// literals, attributes and child structure. Source positions and metadata
// are ignored. Used by tests to assert chunk-boundary independence.
func Equal(a, b *Node) bool {
	if a == nil || b == nil {
		return a == b
	}
	if a.kind != b.kind ||
		a.Literal != b.Literal ||
		a.HeadingLevel != b.HeadingLevel ||
		a.ListData != b.ListData ||
		a.FenceInfo != b.FenceInfo ||
		a.Destination != b.Destination ||
		a.Title != b.Title {
		return false
	}
	ca, cb := a.firstChild, b.firstChild
	for ca != nil && cb != nil {
		if !Equal(ca, cb) {
			return false
		}
		ca, cb = ca.next, cb.next
	}
	return ca == nil && cb == nil
}
