package ingest

import (
	"strings"
	"testing"

	"github.com/markconv/markconv/internal/tree"
)

func ingestAll(t *testing.T, cfg Config, input string) *tree.Node {
	t.Helper()
	in := New(cfg)
	if input != "" {
		if err := in.Feed([]byte(input)); err != nil {
			t.Fatalf("Feed: %v", err)
		}
	}
	root, err := in.Finish()
	if err != nil {
		t.Fatalf("Finish: %v", err)
	}
	return root
}

func TestIngest_BasicHeading(t *testing.T) {
	t.Parallel()

	root := ingestAll(t, Config{}, "# Hi\n")

	if root.Kind() != tree.Document {
		t.Fatalf("root kind = %v", root.Kind())
	}
	h := root.FirstChild()
	if h == nil || h.Kind() != tree.Heading || h.HeadingLevel != 1 {
		t.Fatalf("expected level-1 heading, got %+v", h)
	}
	txt := h.FirstChild()
	if txt == nil || txt.Kind() != tree.Text || txt.Literal != "Hi" {
		t.Fatalf("expected text %q, got %+v", "Hi", txt)
	}
}

func TestIngest_EmptyInput(t *testing.T) {
	t.Parallel()

	root := ingestAll(t, Config{}, "")
	if root.Kind() != tree.Document || root.FirstChild() != nil {
		t.Fatalf("empty input should yield bare document root, got %d children", root.ChildCount())
	}
}

func TestIngest_ChunkBoundaryIndependence(t *testing.T) {
	t.Parallel()

	input := "# Heading\n\nSome *emph* and **strong** text with a [link](https://example.com \"t\").\n\n" +
		"- one\n- two\n\n```go\nfmt.Println(\"héllo\")\n```\n\n> quoted\n"

	whole := ingestAll(t, Config{}, input)

	for split := 1; split < len(input); split++ {
		in := New(Config{})
		if err := in.Feed([]byte(input[:split])); err != nil {
			t.Fatalf("Feed: %v", err)
		}
		if err := in.Feed([]byte(input[split:])); err != nil {
			t.Fatalf("Feed: %v", err)
		}
		got, err := in.Finish()
		if err != nil {
			t.Fatalf("Finish: %v", err)
		}
		if !tree.Equal(whole, got) {
			t.Fatalf("tree differs when split at byte %d", split)
		}
	}
}

func TestIngest_FeedAfterFinish(t *testing.T) {
	t.Parallel()

	in := New(Config{})
	if _, err := in.Finish(); err != nil {
		t.Fatalf("Finish: %v", err)
	}
	if err := in.Feed([]byte("late")); err != ErrFinished {
		t.Fatalf("Feed after Finish = %v, want ErrFinished", err)
	}
	if _, err := in.Finish(); err != ErrFinished {
		t.Fatalf("second Finish = %v, want ErrFinished", err)
	}
}

func TestIngest_HardBreaks(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		cfg  Config
		want tree.Kind
	}{
		{name: "soft break by default", cfg: Config{}, want: tree.Softbreak},
		{name: "hard break when enabled", cfg: Config{HardBreaks: true}, want: tree.Linebreak},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			root := ingestAll(t, tt.cfg, "line one\nline two\n")
			para := root.FirstChild()
			if para == nil || para.Kind() != tree.Paragraph {
				t.Fatalf("expected paragraph, got %+v", para)
			}
			br := para.FirstChild().Next()
			if br == nil || br.Kind() != tt.want {
				t.Fatalf("break kind = %v, want %v", br.Kind(), tt.want)
			}
		})
	}
}

func TestIngest_SmartPunctuation(t *testing.T) {
	t.Parallel()

	root := ingestAll(t, Config{Smart: true, Normalize: true}, "\"quotes\" and dashes -- here\n")
	para := root.FirstChild()
	var sb strings.Builder
	for c := para.FirstChild(); c != nil; c = c.Next() {
		sb.WriteString(c.Literal)
	}
	got := sb.String()
	if strings.Contains(got, "\"") || !strings.Contains(got, "“") {
		t.Fatalf("smart quotes not applied: %q", got)
	}
	if strings.Contains(got, "--") {
		t.Fatalf("smart dashes not applied: %q", got)
	}
}

func TestIngest_NormalizeMergesTextRuns(t *testing.T) {
	t.Parallel()

	// Smart punctuation splits text into several runs; normalize must merge
	// the adjacent ones back together.
	root := ingestAll(t, Config{Smart: true, Normalize: true}, "a \"b\" c\n")
	para := root.FirstChild()
	if para.ChildCount() != 1 {
		t.Fatalf("ChildCount = %d, want 1 merged text run", para.ChildCount())
	}
}

func TestIngest_ValidateUTF8(t *testing.T) {
	t.Parallel()

	root := ingestAll(t, Config{ValidateUTF8: true}, "bad \xff byte\n")
	para := root.FirstChild()
	if para == nil || para.FirstChild() == nil {
		t.Fatal("expected paragraph with text")
	}
	if !strings.Contains(para.FirstChild().Literal, "�") {
		t.Fatalf("invalid byte not replaced: %q", para.FirstChild().Literal)
	}
}

func TestIngest_Frontmatter(t *testing.T) {
	t.Parallel()

	input := "---\ntitle: Test Doc\ntags:\n  - a\n  - b\n---\n# Body\n"
	root := ingestAll(t, Config{}, input)

	if root.Metadata == nil {
		t.Fatal("metadata not captured")
	}
	if got := root.Metadata["title"]; got != "Test Doc" {
		t.Fatalf("title = %v", got)
	}
	h := root.FirstChild()
	if h == nil || h.Kind() != tree.Heading {
		t.Fatalf("body not parsed after frontmatter, got %+v", h)
	}
}

func TestIngest_FrontmatterNotClosed(t *testing.T) {
	t.Parallel()

	// An unclosed fence is a thematic break, not frontmatter.
	root := ingestAll(t, Config{}, "---\nnot metadata\n")
	if root.Metadata != nil {
		t.Fatal("unclosed fence treated as frontmatter")
	}
	if root.FirstChild() == nil || root.FirstChild().Kind() != tree.ThematicBreak {
		t.Fatalf("expected thematic break, got %+v", root.FirstChild())
	}
}

func TestIngest_Sourcepos(t *testing.T) {
	t.Parallel()

	root := ingestAll(t, Config{Sourcepos: true}, "# Hi\n\npara here\n")

	h := root.FirstChild()
	if h.Pos.IsZero() {
		t.Fatal("heading position not recorded")
	}
	if h.Pos.StartLine != 1 {
		t.Fatalf("heading start line = %d, want 1", h.Pos.StartLine)
	}
	p := h.Next()
	if p.Pos.StartLine != 3 {
		t.Fatalf("paragraph start line = %d, want 3", p.Pos.StartLine)
	}

	// Positions are absent when not requested.
	plain := ingestAll(t, Config{}, "# Hi\n")
	if !plain.FirstChild().Pos.IsZero() {
		t.Fatal("position recorded without sourcepos option")
	}
}

func TestIngest_ThematicBreakSourcepos(t *testing.T) {
	t.Parallel()

	root := ingestAll(t, Config{Sourcepos: true}, "para\n\n---\n\nmore\n\n***\n")

	hr := root.FirstChild().Next()
	if hr == nil || hr.Kind() != tree.ThematicBreak {
		t.Fatalf("expected thematic break, got %+v", hr)
	}
	want := tree.Position{StartLine: 3, StartCol: 1, EndLine: 3, EndCol: 3}
	if hr.Pos != want {
		t.Fatalf("break position = %+v, want %+v", hr.Pos, want)
	}

	second := hr.Next().Next()
	if second == nil || second.Kind() != tree.ThematicBreak {
		t.Fatalf("expected second thematic break, got %+v", second)
	}
	if second.Pos.StartLine != 7 {
		t.Fatalf("second break start line = %d, want 7", second.Pos.StartLine)
	}
}

func TestIngest_FrontmatterSourcepos(t *testing.T) {
	t.Parallel()

	// Lines consumed by the metadata block still count toward positions.
	root := ingestAll(t, Config{Sourcepos: true}, "---\ntitle: x\n---\n# Hi\n")
	h := root.FirstChild()
	if h == nil || h.Kind() != tree.Heading {
		t.Fatalf("expected heading, got %+v", h)
	}
	if h.Pos.StartLine != 4 {
		t.Fatalf("heading start line = %d, want 4", h.Pos.StartLine)
	}
}

func TestIngest_InlineRawHTML(t *testing.T) {
	t.Parallel()

	root := ingestAll(t, Config{}, "before <span class=\"x\">in</span> after\n")

	var raw *tree.Node
	tree.Walk(root, func(n *tree.Node, ev tree.WalkEvent) bool {
		if ev == tree.Enter && n.Kind() == tree.HTMLInline && raw == nil {
			raw = n
		}
		return true
	})
	if raw == nil {
		t.Fatal("inline html node not found")
	}
	if raw.Literal != "<span class=\"x\">" {
		t.Fatalf("inline html literal = %q", raw.Literal)
	}
}

func TestIngest_ListAttributes(t *testing.T) {
	t.Parallel()

	root := ingestAll(t, Config{}, "3. three\n4. four\n")
	list := root.FirstChild()
	if list == nil || list.Kind() != tree.List {
		t.Fatalf("expected list, got %+v", list)
	}
	if !list.ListData.Ordered || list.ListData.Start != 3 {
		t.Fatalf("list data = %+v, want ordered start 3", list.ListData)
	}
	if list.ChildCount() != 2 {
		t.Fatalf("item count = %d, want 2", list.ChildCount())
	}
}
