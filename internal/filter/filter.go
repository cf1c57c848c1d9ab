// Package filter runs scripted tree transformers between ingestion and
// rendering.
//
// A filter is a Lua source file that evaluates to a single function of two
// arguments: the document node and the output format token. Filters run
// strictly in the order given, each in a fresh interpreter state, and each
// observes every mutation committed by its predecessors. A filter returning
// the number -1 signals that rendering should be skipped for the run.
package filter

import (
	"bytes"
	"fmt"
	"os"

	lua "github.com/yuin/gopher-lua"

	"github.com/markconv/markconv/internal/tree"
)

// Outcome is the pipeline's control signal toward the driver.
type Outcome int

// Pipeline outcomes.
const (
	Continue Outcome = iota
	SkipRendering
)

// skipSentinel is the reserved numeric return value that suppresses
// rendering. Part of the filter-script contract.
const skipSentinel = -1

// LoadError reports a script that failed to read, compile, or evaluate to a
// callable.
type LoadError struct {
	Name string
	Err  error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("script load error: %v", e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

// ExecError reports a loaded filter that failed while executing.
type ExecError struct {
	Name string
	Err  error
}

func (e *ExecError) Error() string {
	return fmt.Sprintf("filter execution error in %s: %v", e.Name, e.Err)
}

func (e *ExecError) Unwrap() error { return e.Err }

// Source is one filter: a display name and the Lua chunk to run. A nil
// Chunk means the chunk is read from Name when the filter's turn comes, so
// an unreadable second script never prevents the first from running.
type Source struct {
	Name  string
	Chunk []byte
}

// FromPath references a filter script on disk, read lazily at run time.
func FromPath(path string) Source {
	return Source{Name: path}
}

// Pipeline is an ordered list of filter sources. The zero value is a valid
// empty pipeline.
type Pipeline struct {
	sources []Source
}

// New builds a pipeline over the given sources, preserving their order.
func New(sources ...Source) *Pipeline {
	return &Pipeline{sources: sources}
}

// Len returns the number of configured filters.
func (p *Pipeline) Len() int { return len(p.sources) }

// Run applies every filter in order to root. The tree stays owned by the
// caller; scripts see it by reference and their mutations persist, including
// those made by filters that ran before a failing one. The last filter
// returning a number decides the outcome, with -1 meaning skip.
func (p *Pipeline) Run(root *tree.Node, format string) (Outcome, error) {
	outcome := Continue
	for _, src := range p.sources {
		result, err := runOne(src, root, format)
		if err != nil {
			return Continue, err
		}
		if n, ok := result.(lua.LNumber); ok {
			if n == skipSentinel {
				outcome = SkipRendering
			} else {
				outcome = Continue
			}
		}
	}
	return outcome, nil
}

// runOne executes a single filter in a fresh, isolated interpreter state.
func runOne(src Source, root *tree.Node, format string) (lua.LValue, error) {
	chunk := src.Chunk
	if chunk == nil {
		var err error
		chunk, err = os.ReadFile(src.Name)
		if err != nil {
			return nil, &LoadError{Name: src.Name, Err: err}
		}
	}

	L := lua.NewState()
	defer L.Close()

	registerNodeType(L)

	fn, err := L.Load(bytes.NewReader(chunk), src.Name)
	if err != nil {
		return nil, &LoadError{Name: src.Name, Err: err}
	}
	L.Push(fn)
	if err := L.PCall(0, 1, nil); err != nil {
		return nil, &LoadError{Name: src.Name, Err: err}
	}
	callable, ok := L.Get(-1).(*lua.LFunction)
	if !ok {
		return nil, &LoadError{Name: src.Name, Err: fmt.Errorf("script must return a function, got %s", L.Get(-1).Type())}
	}
	L.Pop(1)

	L.Push(callable)
	pushNode(L, root)
	L.Push(lua.LString(format))
	if err := L.PCall(2, 1, nil); err != nil {
		return nil, &ExecError{Name: src.Name, Err: err}
	}
	result := L.Get(-1)
	L.Pop(1)
	return result, nil
}
