package markconv

import (
	"context"
	"fmt"
	"io"

	"github.com/markconv/markconv/internal/filter"
	"github.com/markconv/markconv/internal/ingest"
	"github.com/markconv/markconv/internal/render"
)

// feedChunkSize is the read size used when draining input sources. Inputs
// are chunk-boundary independent, so the value only affects memory churn.
const feedChunkSize = 4096

// State names the driver's position in the conversion state machine.
// Exposed for diagnostics and tests; callers normally only care about
// Convert's error.
type State int

// Driver states, in transition order. Rendering and Skipped both converge
// to Freed.
const (
	StateCreated State = iota
	StateIngesting
	StateFinalizing
	StateFiltering
	StateRendering
	StateSkipped
	StateFreed
)

var stateNames = [...]string{
	"created", "ingesting", "finalizing", "filtering", "rendering", "skipped", "freed",
}

func (s State) String() string {
	if int(s) < len(stateNames) {
		return stateNames[s]
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// Converter drives one conversion run: ingestion, the filter pipeline, and
// render dispatch. Create with NewConverter; a Converter is reusable, and
// each Convert call owns its own tree.
type Converter struct {
	options   Options
	width     int
	format    string
	filters   []filter.Source
	highlight bool

	state State
}

// Option configures a Converter.
type Option func(*Converter)

// WithOptions sets the run option set shared by parsing and rendering.
func WithOptions(options Options) Option {
	return func(c *Converter) { c.options = options }
}

// WithWidth sets the wrap width for the width-aware formats. Zero, the
// default, disables wrapping.
func WithWidth(width int) Option {
	return func(c *Converter) { c.width = width }
}

// WithFormat selects the output format token: html, xml, man, commonmark
// or latex. The default is html.
func WithFormat(format string) Option {
	return func(c *Converter) { c.format = format }
}

// WithFilters appends filter script paths, run in the order given.
func WithFilters(paths ...string) Option {
	return func(c *Converter) {
		for _, path := range paths {
			c.filters = append(c.filters, filter.FromPath(path))
		}
	}
}

// WithFilterSource appends an in-memory filter script, run in order with
// any path-based filters registered around it.
func WithFilterSource(name string, chunk []byte) Option {
	return func(c *Converter) {
		c.filters = append(c.filters, filter.Source{Name: name, Chunk: chunk})
	}
}

// WithHighlighting enables syntax highlighting of fenced code blocks in
// HTML output.
func WithHighlighting(enabled bool) Option {
	return func(c *Converter) { c.highlight = enabled }
}

// NewConverter validates the configuration and returns a ready Converter.
// Configuration errors surface here, before any input is read.
func NewConverter(opts ...Option) (*Converter, error) {
	c := &Converter{format: render.FormatHTML, state: StateCreated}
	for _, opt := range opts {
		opt(c)
	}
	if !render.Supported(c.format) {
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, c.format)
	}
	if c.width < 0 {
		return nil, fmt.Errorf("%w: %d", ErrNegativeWidth, c.width)
	}
	return c, nil
}

// State returns the driver's position at the end of the last Convert call.
func (c *Converter) State() State { return c.state }

// Convert runs the pipeline: all sources are drained sequentially into one
// ingestor, the finished tree passes through the filter pipeline, and the
// result is rendered to w unless a filter signaled skip. Zero sources is a
// valid empty document. On error the run aborts immediately; mutations by
// filters that already ran are not rolled back.
func (c *Converter) Convert(ctx context.Context, w io.Writer, sources ...io.Reader) error {
	c.state = StateCreated

	ingestor := ingest.New(c.options.ingestConfig())

	c.state = StateIngesting
	for i, source := range sources {
		if err := c.feed(ctx, ingestor, source); err != nil {
			return fmt.Errorf("source %d: %w", i+1, err)
		}
	}

	c.state = StateFinalizing
	root, err := ingestor.Finish()
	if err != nil {
		return err
	}

	c.state = StateFiltering
	outcome, err := filter.New(c.filters...).Run(root, c.format)
	if err != nil {
		return err
	}

	if outcome == filter.SkipRendering {
		c.state = StateSkipped
	} else {
		c.state = StateRendering
		cfg := c.options.renderConfig(c.highlight)
		if err := render.Render(w, root, c.format, cfg, c.width); err != nil {
			return err
		}
	}

	// The tree's life ends with the run; the driver held the only
	// reference.
	c.state = StateFreed
	return nil
}

// feed drains one source into the ingestor in chunks, honoring context
// cancellation between chunks.
func (c *Converter) feed(ctx context.Context, ingestor *ingest.Ingestor, source io.Reader) error {
	buf := make([]byte, feedChunkSize)
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		n, err := source.Read(buf)
		if n > 0 {
			if feedErr := ingestor.Feed(buf[:n]); feedErr != nil {
				return feedErr
			}
		}
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("%w: %v", ErrSourceRead, err)
		}
	}
}
