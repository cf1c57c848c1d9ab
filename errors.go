package markconv

import (
	"errors"

	"github.com/markconv/markconv/internal/render"
)

// Sentinel errors for library operations.
var (
	// ErrUnknownFormat rejects an output format token outside the supported
	// set. Aliased from the render dispatcher so errors.Is matches at
	// either level.
	ErrUnknownFormat = render.ErrUnknownFormat

	// ErrNegativeWidth rejects a negative wrap width.
	ErrNegativeWidth = errors.New("wrap width must be non-negative")

	// ErrSourceRead wraps a failure while reading an input source.
	ErrSourceRead = errors.New("failed to read input source")
)
