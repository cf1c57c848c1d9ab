// Package ingest turns raw byte chunks into a document tree.
//
// The ingestor is deliberately boundary-agnostic: Feed only accumulates
// bytes, and all recognition happens in Finish. Splitting the same input at
// any byte offset - mid-rune, mid-token - therefore produces an identical
// tree.
package ingest

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/text"

	"github.com/markconv/markconv/internal/tree"
	"github.com/markconv/markconv/internal/yamlutil"
)

// ErrFinished is returned by Feed and Finish once Finish has run.
var ErrFinished = errors.New("ingestor already finished")

// Config selects the parse-phase run options.
type Config struct {
	Sourcepos    bool // record start/end line and column on nodes
	HardBreaks   bool // treat soft line breaks as hard line breaks
	Smart        bool // smart punctuation substitution
	Normalize    bool // merge adjacent text runs after parsing
	ValidateUTF8 bool // replace invalid UTF-8 sequences with U+FFFD
}

// Ingestor accumulates input chunks and produces a document tree on Finish.
// Create one per input with New; Feed any number of times; Finish exactly
// once.
type Ingestor struct {
	cfg      Config
	buf      bytes.Buffer
	finished bool
}

// New returns a fresh ingestor bound to cfg for its whole life.
func New(cfg Config) *Ingestor {
	return &Ingestor{cfg: cfg}
}

// Feed incorporates a chunk of input. Chunks may be split anywhere; Feed
// makes no assumption about semantic boundaries. Feeding after Finish
// returns ErrFinished.
func (in *Ingestor) Feed(chunk []byte) error {
	if in.finished {
		return ErrFinished
	}
	in.buf.Write(chunk)
	return nil
}

// Finish consumes the ingestor and returns the completed tree. The ingestor
// cannot be fed or finished again afterwards.
func (in *Ingestor) Finish() (*tree.Node, error) {
	if in.finished {
		return nil, ErrFinished
	}
	in.finished = true

	src := in.buf.Bytes()
	if in.cfg.ValidateUTF8 {
		src = bytes.ToValidUTF8(src, []byte("�"))
	}

	meta, body := splitFrontmatter(src)
	var metadata map[string]any
	if meta != nil {
		if err := yamlutil.Unmarshal(meta, &metadata); err != nil {
			// Not actually frontmatter; parse the full text as markdown.
			metadata = nil
			body = src
		}
	}

	opts := []goldmark.Option{}
	if in.cfg.Smart {
		opts = append(opts, goldmark.WithExtensions(extension.Typographer))
	}
	md := goldmark.New(opts...)
	doc := md.Parser().Parse(text.NewReader(body))

	conv := &converter{
		src:        body,
		hardBreaks: in.cfg.HardBreaks,
	}
	if in.cfg.Sourcepos {
		conv.lines = lineIndex(body)
		// Positions stay relative to the fed input: lines consumed by the
		// frontmatter block still count.
		conv.lineOffset = bytes.Count(src[:len(src)-len(body)], []byte("\n"))
	}
	root, err := conv.convert(doc)
	if err != nil {
		return nil, fmt.Errorf("converting parse result: %w", err)
	}
	root.Metadata = metadata

	if in.cfg.Sourcepos {
		spanContainers(root)
	}
	if in.cfg.Normalize {
		tree.Normalize(root)
	}
	return root, nil
}

// splitFrontmatter detects a leading YAML frontmatter block delimited by
// "---" lines ("..." also closes, per YAML convention). It returns the
// metadata bytes and the remaining body, or (nil, src) when the input does
// not open with a frontmatter fence.
func splitFrontmatter(src []byte) (meta, body []byte) {
	rest, ok := fenceLine(src)
	if !ok {
		return nil, src
	}
	start := len(src) - len(rest)
	for pos := start; pos < len(src); {
		lineEnd := bytes.IndexByte(src[pos:], '\n')
		line := src[pos:]
		next := len(src)
		if lineEnd >= 0 {
			line = src[pos : pos+lineEnd]
			next = pos + lineEnd + 1
		}
		trimmed := bytes.TrimRight(line, " \t\r")
		if string(trimmed) == "---" || string(trimmed) == "..." {
			return src[start:pos], src[next:]
		}
		if lineEnd < 0 {
			break
		}
		pos = next
	}
	// No closing fence: the opening "---" was a thematic break, not
	// frontmatter.
	return nil, src
}

// fenceLine reports whether src opens with a "---" line and returns the
// bytes after it.
func fenceLine(src []byte) (rest []byte, ok bool) {
	i := bytes.IndexByte(src, '\n')
	if i < 0 {
		return nil, false
	}
	if string(bytes.TrimRight(src[:i], " \t\r")) != "---" {
		return nil, false
	}
	return src[i+1:], true
}
