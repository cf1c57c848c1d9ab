package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	flag "github.com/spf13/pflag"
	"go.uber.org/automaxprocs/maxprocs"

	"github.com/markconv/markconv"
)

// Version is set at build time via ldflags.
var Version = "dev"

func main() {
	fl, err := parseFlags(os.Args[1:], os.Stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(ExitSuccess)
		}
		os.Exit(ExitUsage)
	}

	if fl.version {
		fmt.Printf("markconv %s - CommonMark converter\n", Version)
		os.Exit(ExitSuccess)
	}

	// Error ignored: maxprocs.Set only fails on an invalid GOMAXPROCS env
	// value, in which case runtime defaults apply.
	if fl.verbose {
		_, _ = maxprocs.Set(maxprocs.Logger(func(format string, args ...interface{}) {
			fmt.Fprintf(os.Stderr, format+"\n", args...)
		}))
	} else {
		_, _ = maxprocs.Set(maxprocs.Logger(func(string, ...interface{}) {}))
	}

	if err := run(fl, os.Stdin, os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(exitCodeFor(err))
	}
}

// run wires flags into a converter and executes one conversion.
func run(fl *cliFlags, stdin io.Reader, stdout io.Writer) error {
	conv, err := markconv.NewConverter(
		markconv.WithFormat(fl.to),
		markconv.WithWidth(fl.width),
		markconv.WithOptions(resolveOptions(fl)),
		markconv.WithFilters(fl.luaFilters...),
		markconv.WithHighlighting(fl.highlight),
	)
	if err != nil {
		return err
	}

	sources, closeSources, err := openInputs(fl.files, stdin)
	if err != nil {
		return err
	}
	defer closeSources()

	out, closeOut, err := resolveOutput(fl.output, stdout)
	if err != nil {
		return err
	}
	defer closeOut()

	if fl.verbose {
		fmt.Fprintf(os.Stderr, "converting %d source(s) to %s\n", len(sources), fl.to)
	}
	return conv.Convert(context.Background(), out, sources...)
}

// resolveOptions folds the option flags into one run option set.
func resolveOptions(fl *cliFlags) markconv.Options {
	var options markconv.Options
	if fl.sourcepos {
		options |= markconv.OptSourcepos
	}
	if fl.hardbreaks {
		options |= markconv.OptHardBreaks
	}
	if fl.smart {
		options |= markconv.OptSmart
	}
	if fl.safe {
		options |= markconv.OptSafe
	}
	if fl.normalize {
		options |= markconv.OptNormalize
	}
	if fl.validateUTF8 {
		options |= markconv.OptValidateUTF8
	}
	return options
}

// openInputs opens every named file, or falls back to stdin when none are
// given. The caller must invoke the returned closer.
func openInputs(files []string, stdin io.Reader) ([]io.Reader, func(), error) {
	if len(files) == 0 {
		return []io.Reader{stdin}, func() {}, nil
	}

	readers := make([]io.Reader, 0, len(files))
	closers := make([]io.Closer, 0, len(files))
	closeAll := func() {
		for _, c := range closers {
			_ = c.Close()
		}
	}
	for _, path := range files {
		f, err := os.Open(path) // #nosec G304 -- user-supplied input paths are the CLI contract
		if err != nil {
			closeAll()
			return nil, nil, fmt.Errorf("opening %s: %w", path, err)
		}
		readers = append(readers, f)
		closers = append(closers, f)
	}
	return readers, closeAll, nil
}

// resolveOutput opens the output file, or hands back stdout when none was
// requested.
func resolveOutput(path string, stdout io.Writer) (io.Writer, func(), error) {
	if path == "" {
		return stdout, func() {}, nil
	}
	f, err := os.Create(path) // #nosec G304 -- user-supplied output path is the CLI contract
	if err != nil {
		return nil, nil, fmt.Errorf("opening output %s: %w", path, err)
	}
	return f, func() { _ = f.Close() }, nil
}
