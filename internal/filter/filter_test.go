package filter

import (
	"errors"
	"strings"
	"testing"

	"github.com/markconv/markconv/internal/tree"
)

func src(name, chunk string) Source {
	return Source{Name: name, Chunk: []byte(chunk)}
}

func buildDoc() *tree.Node {
	root := tree.NewNode(tree.Document)
	para := tree.NewNode(tree.Paragraph)
	txt := tree.NewNode(tree.Text)
	txt.Literal = "hello"
	para.AppendChild(txt)
	root.AppendChild(para)
	return root
}

func TestRun_EmptyPipeline(t *testing.T) {
	t.Parallel()

	outcome, err := New().Run(buildDoc(), "html")
	if err != nil || outcome != Continue {
		t.Fatalf("empty pipeline = %v, %v", outcome, err)
	}
}

func TestRun_MutatesTree(t *testing.T) {
	t.Parallel()

	upper := src("upper.lua", `
		return function(doc, format)
			local function walk(node)
				local child = node:first_child()
				while child do
					if child:kind() == "text" then
						child:set_literal(string.upper(child:literal()))
					end
					walk(child)
					child = child:next()
				end
			end
			walk(doc)
		end
	`)

	root := buildDoc()
	outcome, err := New(upper).Run(root, "html")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if outcome != Continue {
		t.Fatalf("outcome = %v, want Continue", outcome)
	}
	if got := root.FirstChild().FirstChild().Literal; got != "HELLO" {
		t.Fatalf("literal = %q, want HELLO", got)
	}
}

func TestRun_ReceivesFormat(t *testing.T) {
	t.Parallel()

	recordFormat := src("fmt.lua", `
		return function(doc, format)
			doc:set_metadata("format", format)
		end
	`)

	root := buildDoc()
	if _, err := New(recordFormat).Run(root, "latex"); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if got := root.Metadata["format"]; got != "latex" {
		t.Fatalf("format seen by filter = %v, want latex", got)
	}
}

func TestRun_OrderingBetweenFilters(t *testing.T) {
	t.Parallel()

	appendMarker := src("append.lua", `
		return function(doc, format)
			doc:append_child(markconv.new_node("thematic_break"))
		end
	`)
	countChildren := src("count.lua", `
		return function(doc, format)
			doc:set_metadata("count", doc:child_count())
		end
	`)

	root := buildDoc()
	if _, err := New(appendMarker, countChildren).Run(root, "html"); err != nil {
		t.Fatalf("Run: %v", err)
	}
	// The counter must observe the node appended by the earlier filter.
	if got := root.Metadata["count"]; got != float64(2) {
		t.Fatalf("count = %v, want 2", got)
	}
}

func TestRun_SkipSentinel(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		sources []Source
		want    Outcome
	}{
		{
			name:    "sentinel skips",
			sources: []Source{src("skip.lua", `return function(doc, format) return -1 end`)},
			want:    SkipRendering,
		},
		{
			name:    "other numbers continue",
			sources: []Source{src("num.lua", `return function(doc, format) return 42 end`)},
			want:    Continue,
		},
		{
			name:    "non-numeric returns have no effect",
			sources: []Source{src("str.lua", `return function(doc, format) return "done" end`)},
			want:    Continue,
		},
		{
			name: "later numeric return overwrites earlier sentinel",
			sources: []Source{
				src("skip.lua", `return function(doc, format) return -1 end`),
				src("clear.lua", `return function(doc, format) return 0 end`),
			},
			want: Continue,
		},
		{
			name: "non-numeric after sentinel keeps skip",
			sources: []Source{
				src("skip.lua", `return function(doc, format) return -1 end`),
				src("noop.lua", `return function(doc, format) end`),
			},
			want: SkipRendering,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			outcome, err := New(tt.sources...).Run(buildDoc(), "html")
			if err != nil {
				t.Fatalf("Run: %v", err)
			}
			if outcome != tt.want {
				t.Fatalf("outcome = %v, want %v", outcome, tt.want)
			}
		})
	}
}

func TestRun_LoadErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		chunk string
	}{
		{name: "syntax error", chunk: `return function(`},
		{name: "runtime error during evaluation", chunk: `error("boom at load")`},
		{name: "not a function", chunk: `return 7`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := New(src("bad.lua", tt.chunk)).Run(buildDoc(), "html")
			var loadErr *LoadError
			if !errors.As(err, &loadErr) {
				t.Fatalf("err = %v, want LoadError", err)
			}
			if !strings.HasPrefix(err.Error(), "script load error:") {
				t.Fatalf("message = %q", err.Error())
			}
		})
	}
}

func TestRun_ExecError(t *testing.T) {
	t.Parallel()

	boom := src("boom.lua", `return function(doc, format) error("kaput") end`)
	_, err := New(boom).Run(buildDoc(), "html")

	var execErr *ExecError
	if !errors.As(err, &execErr) {
		t.Fatalf("err = %v, want ExecError", err)
	}
	if !strings.Contains(err.Error(), "filter execution error in boom.lua") {
		t.Fatalf("message = %q", err.Error())
	}
	if !strings.Contains(err.Error(), "kaput") {
		t.Fatalf("message lost the cause: %q", err.Error())
	}
}

func TestRun_ErrorStopsPipeline(t *testing.T) {
	t.Parallel()

	mutate := src("mutate.lua", `
		return function(doc, format)
			doc:first_child():first_child():set_literal("changed")
		end
	`)
	boom := src("boom.lua", `return function(doc, format) error("stop") end`)
	never := src("never.lua", `
		return function(doc, format)
			doc:first_child():first_child():set_literal("should not happen")
		end
	`)

	root := buildDoc()
	_, err := New(mutate, boom, never).Run(root, "html")
	if err == nil {
		t.Fatal("expected error")
	}
	// No rollback: the first filter's mutation survives the later failure.
	if got := root.FirstChild().FirstChild().Literal; got != "changed" {
		t.Fatalf("literal = %q, want mutation from first filter preserved", got)
	}
}

func TestRun_FreshStatePerFilter(t *testing.T) {
	t.Parallel()

	setGlobal := src("set.lua", `
		return function(doc, format)
			leaked = true
		end
	`)
	checkGlobal := src("check.lua", `
		return function(doc, format)
			if leaked ~= nil then
				return -1
			end
		end
	`)

	outcome, err := New(setGlobal, checkGlobal).Run(buildDoc(), "html")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if outcome != Continue {
		t.Fatal("state leaked between filter interpreters")
	}
}

func TestRun_NodeConstructionAndRelinking(t *testing.T) {
	t.Parallel()

	addHeading := src("heading.lua", `
		return function(doc, format)
			local h = markconv.new_node("heading")
			h:set_heading_level(2)
			local t = markconv.new_node("text")
			t:set_literal("Appendix")
			h:append_child(t)
			doc:append_child(h)

			-- move the original paragraph after the new heading
			local para = doc:first_child()
			doc:last_child():insert_after(para)
		end
	`)

	root := buildDoc()
	if _, err := New(addHeading).Run(root, "html"); err != nil {
		t.Fatalf("Run: %v", err)
	}
	h := root.FirstChild()
	if h.Kind() != tree.Heading || h.HeadingLevel != 2 {
		t.Fatalf("first child = %v level %d", h.Kind(), h.HeadingLevel)
	}
	if got := h.Next(); got == nil || got.Kind() != tree.Paragraph {
		t.Fatalf("paragraph not moved after heading")
	}
	if root.ChildCount() != 2 {
		t.Fatalf("ChildCount = %d, want 2", root.ChildCount())
	}
}

func TestRun_MissingScriptFile(t *testing.T) {
	t.Parallel()

	_, err := New(FromPath("testdata/does-not-exist.lua")).Run(buildDoc(), "html")
	var loadErr *LoadError
	if !errors.As(err, &loadErr) {
		t.Fatalf("err = %v, want LoadError", err)
	}
	if !strings.HasPrefix(err.Error(), "script load error:") {
		t.Fatalf("message = %q", err.Error())
	}
}
