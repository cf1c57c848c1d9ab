package markconv

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
)

func convert(t *testing.T, conv *Converter, inputs ...string) string {
	t.Helper()
	readers := make([]io.Reader, len(inputs))
	for i, s := range inputs {
		readers[i] = strings.NewReader(s)
	}
	var sb strings.Builder
	if err := conv.Convert(context.Background(), &sb, readers...); err != nil {
		t.Fatalf("Convert: %v", err)
	}
	return sb.String()
}

func TestConvert_SingleHeadingScenario(t *testing.T) {
	t.Parallel()

	conv, err := NewConverter()
	if err != nil {
		t.Fatalf("NewConverter: %v", err)
	}
	got := convert(t, conv, "# Hi\n")
	if got != "<h1>Hi</h1>\n" {
		t.Fatalf("output = %q", got)
	}
	if conv.State() != StateFreed {
		t.Fatalf("state = %v, want freed", conv.State())
	}
}

func TestConvert_EmptyDocument(t *testing.T) {
	t.Parallel()

	conv, err := NewConverter()
	if err != nil {
		t.Fatalf("NewConverter: %v", err)
	}
	if got := convert(t, conv); got != "" {
		t.Fatalf("zero-source output = %q, want empty", got)
	}
}

func TestConvert_ConcatenatesSources(t *testing.T) {
	t.Parallel()

	conv, err := NewConverter()
	if err != nil {
		t.Fatalf("NewConverter: %v", err)
	}
	// The split lands mid-word: sources are one byte stream, not separate
	// documents.
	got := convert(t, conv, "# He", "llo\n")
	if got != "<h1>Hello</h1>\n" {
		t.Fatalf("output = %q", got)
	}
}

func TestNewConverter_ConfigurationErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		opts []Option
		want error
	}{
		{name: "unknown format", opts: []Option{WithFormat("pdf")}, want: ErrUnknownFormat},
		{name: "negative width", opts: []Option{WithWidth(-1)}, want: ErrNegativeWidth},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := NewConverter(tt.opts...)
			if !errors.Is(err, tt.want) {
				t.Fatalf("err = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestConvert_SkipSentinelSuppressesOutput(t *testing.T) {
	t.Parallel()

	conv, err := NewConverter(
		WithFilterSource("skip.lua", []byte(`return function(doc, format) return -1 end`)),
	)
	if err != nil {
		t.Fatalf("NewConverter: %v", err)
	}
	got := convert(t, conv, "# Hi\n")
	if got != "" {
		t.Fatalf("output = %q, want zero bytes", got)
	}
	if conv.State() != StateFreed {
		t.Fatalf("state = %v, want freed (tree still released)", conv.State())
	}
}

func TestConvert_FilterRewritesTree(t *testing.T) {
	t.Parallel()

	promote := `
		return function(doc, format)
			local h = doc:first_child()
			if h:kind() == "heading" then
				h:set_heading_level(h:heading_level() + 1)
			end
		end
	`
	conv, err := NewConverter(WithFilterSource("promote.lua", []byte(promote)))
	if err != nil {
		t.Fatalf("NewConverter: %v", err)
	}
	got := convert(t, conv, "# Hi\n")
	if got != "<h2>Hi</h2>\n" {
		t.Fatalf("output = %q", got)
	}
}

func TestConvert_FormatSpecificFilter(t *testing.T) {
	t.Parallel()

	// Rewrite links only when targeting HTML, the way real filters branch
	// on the format token.
	rewrite := `
		return function(doc, format)
			if format ~= "html" then return end
			local function walk(node)
				local child = node:first_child()
				while child do
					if child:kind() == "link" then
						child:set_url("https://mirror.example" .. child:url())
					end
					walk(child)
					child = child:next()
				end
			end
			walk(doc)
		end
	`
	for _, tt := range []struct {
		format string
		want   string
	}{
		{format: "html", want: "https://mirror.example/x"},
		{format: "commonmark", want: "](/x)"},
	} {
		conv, err := NewConverter(
			WithFormat(tt.format),
			WithFilterSource("rewrite.lua", []byte(rewrite)),
		)
		if err != nil {
			t.Fatalf("NewConverter: %v", err)
		}
		got := convert(t, conv, "[a](/x)\n")
		if !strings.Contains(got, tt.want) {
			t.Errorf("%s output = %q, want %q", tt.format, got, tt.want)
		}
	}
}

func TestConvert_FilterErrorAborts(t *testing.T) {
	t.Parallel()

	conv, err := NewConverter(
		WithFilterSource("boom.lua", []byte(`return function(doc, format) error("no") end`)),
	)
	if err != nil {
		t.Fatalf("NewConverter: %v", err)
	}
	var sb strings.Builder
	err = conv.Convert(context.Background(), &sb, strings.NewReader("# Hi\n"))
	if err == nil {
		t.Fatal("expected filter error")
	}
	if !strings.Contains(err.Error(), "filter execution error in boom.lua") {
		t.Fatalf("err = %v", err)
	}
	if sb.Len() != 0 {
		t.Fatalf("output written despite fatal filter error: %q", sb.String())
	}
	if conv.State() == StateFreed {
		t.Fatal("state reached freed through the normal path on a fatal error")
	}
}

func TestConvert_SourceReadError(t *testing.T) {
	t.Parallel()

	conv, err := NewConverter()
	if err != nil {
		t.Fatalf("NewConverter: %v", err)
	}
	broken := io.MultiReader(strings.NewReader("# partial"), &failingReader{})
	err = conv.Convert(context.Background(), io.Discard, broken)
	if !errors.Is(err, ErrSourceRead) {
		t.Fatalf("err = %v, want ErrSourceRead", err)
	}
}

type failingReader struct{}

func (f *failingReader) Read([]byte) (int, error) {
	return 0, errors.New("disk on fire")
}

func TestConvert_ContextCancellation(t *testing.T) {
	t.Parallel()

	conv, err := NewConverter()
	if err != nil {
		t.Fatalf("NewConverter: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err = conv.Convert(ctx, io.Discard, strings.NewReader("# Hi\n"))
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
}

func TestConvert_ReusableConverter(t *testing.T) {
	t.Parallel()

	conv, err := NewConverter()
	if err != nil {
		t.Fatalf("NewConverter: %v", err)
	}
	first := convert(t, conv, "# One\n")
	second := convert(t, conv, "# Two\n")
	if first != "<h1>One</h1>\n" || second != "<h1>Two</h1>\n" {
		t.Fatalf("outputs = %q, %q", first, second)
	}
}

func TestOptions_Has(t *testing.T) {
	t.Parallel()

	o := OptSmart | OptSafe
	if !o.Has(OptSmart) || !o.Has(OptSafe) {
		t.Fatal("set bits not reported")
	}
	if o.Has(OptSourcepos) {
		t.Fatal("unset bit reported")
	}
	if !o.Has(OptSmart | OptSafe) {
		t.Fatal("combined query not reported")
	}
}
