package main

import (
	"errors"
	"os"

	"github.com/markconv/markconv"
	"github.com/markconv/markconv/internal/filter"
)

// Exit codes for the markconv CLI.
// 0=success, 1=general, 2=usage/config, 3=I/O, 4=filter load, 5=filter
// execution. The 4/5 split mirrors the distinct load and execution failure
// codes of the classic cmark Lua frontend.
const (
	ExitSuccess    = 0
	ExitGeneral    = 1
	ExitUsage      = 2
	ExitIO         = 3
	ExitFilterLoad = 4
	ExitFilterExec = 5
)

// exitCodeFor maps an error to its exit code. Wrapped errors are matched
// with errors.Is/As, so callers must wrap with %w.
func exitCodeFor(err error) int {
	if err == nil {
		return ExitSuccess
	}

	var loadErr *filter.LoadError
	if errors.As(err, &loadErr) {
		return ExitFilterLoad
	}
	var execErr *filter.ExecError
	if errors.As(err, &execErr) {
		return ExitFilterExec
	}

	if errors.Is(err, markconv.ErrUnknownFormat) ||
		errors.Is(err, markconv.ErrNegativeWidth) {
		return ExitUsage
	}

	if errors.Is(err, os.ErrNotExist) ||
		errors.Is(err, os.ErrPermission) ||
		errors.Is(err, markconv.ErrSourceRead) {
		return ExitIO
	}

	return ExitGeneral
}
