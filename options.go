package markconv

import (
	"github.com/markconv/markconv/internal/ingest"
	"github.com/markconv/markconv/internal/render"
)

// Options is the immutable run option set shared by the parse and render
// phases. Resolve it once before ingestion; the same value must be used for
// an ingestor's whole life.
type Options int

// Run options, each independently toggleable.
const (
	// OptSourcepos records source positions during parsing and emits them
	// in formats that support position annotation. It must be set at
	// ingestion for the render phase to have anything to emit.
	OptSourcepos Options = 1 << iota

	// OptHardBreaks treats soft line breaks as hard line breaks.
	OptHardBreaks

	// OptSmart substitutes typographic punctuation (curly quotes, dashes,
	// ellipses).
	OptSmart

	// OptSafe suppresses raw HTML output and empties risky link
	// destinations.
	OptSafe

	// OptNormalize consolidates adjacent text nodes after parsing.
	OptNormalize

	// OptValidateUTF8 replaces invalid UTF-8 sequences with U+FFFD.
	OptValidateUTF8
)

// Has reports whether every bit of flag is set.
func (o Options) Has(flag Options) bool {
	return o&flag == flag
}

// ingestConfig projects the parse-phase options.
func (o Options) ingestConfig() ingest.Config {
	return ingest.Config{
		Sourcepos:    o.Has(OptSourcepos),
		HardBreaks:   o.Has(OptHardBreaks),
		Smart:        o.Has(OptSmart),
		Normalize:    o.Has(OptNormalize),
		ValidateUTF8: o.Has(OptValidateUTF8),
	}
}

// renderConfig projects the render-phase options.
func (o Options) renderConfig(highlight bool) render.Config {
	return render.Config{
		Sourcepos: o.Has(OptSourcepos),
		Safe:      o.Has(OptSafe),
		Highlight: highlight,
	}
}
