package main

import (
	"fmt"
	"io"
	"strings"

	flag "github.com/spf13/pflag"

	"github.com/markconv/markconv/internal/render"
)

// cliFlags holds the parsed command line.
type cliFlags struct {
	to           string
	width        int
	sourcepos    bool
	hardbreaks   bool
	smart        bool
	safe         bool
	normalize    bool
	validateUTF8 bool
	highlight    bool
	luaFilters   []string
	output       string
	verbose      bool
	version      bool
	files        []string
}

// newFlagSet builds the flag set for one parse. Kept separate from
// parseFlags so usage output and tests share the definitions.
func newFlagSet(fl *cliFlags) *flag.FlagSet {
	fs := flag.NewFlagSet("markconv", flag.ContinueOnError)
	fs.StringVarP(&fl.to, "to", "t", "html",
		fmt.Sprintf("Output format (%s)", strings.Join(render.Formats(), ", ")))
	fs.IntVar(&fl.width, "width", 0, "Wrap width (0 = nowrap)")
	fs.BoolVar(&fl.sourcepos, "sourcepos", false, "Include source position attribute")
	fs.BoolVar(&fl.hardbreaks, "hardbreaks", false, "Treat newlines as hard line breaks")
	fs.BoolVar(&fl.smart, "smart", false, "Use smart punctuation")
	fs.BoolVar(&fl.safe, "safe", false, "Suppress raw HTML and dangerous URLs")
	fs.BoolVar(&fl.normalize, "normalize", false, "Consolidate adjacent text nodes")
	fs.BoolVar(&fl.validateUTF8, "validate-utf8", false, "Replace invalid UTF-8 sequences with U+FFFD")
	fs.BoolVar(&fl.highlight, "highlight", false, "Syntax-highlight fenced code blocks (html only)")
	fs.StringArrayVar(&fl.luaFilters, "lua", nil, "Lua filter script, run in order given (repeatable)")
	fs.StringVarP(&fl.output, "output", "o", "", "Output file instead of stdout")
	fs.BoolVar(&fl.verbose, "verbose", false, "Log progress to stderr")
	fs.BoolVar(&fl.version, "version", false, "Print version")
	fs.SetInterspersed(true)
	return fs
}

// parseFlags parses args (excluding the program name). Remaining positional
// arguments are input files; none means stdin.
func parseFlags(args []string, usageOut io.Writer) (*cliFlags, error) {
	fl := &cliFlags{}
	fs := newFlagSet(fl)
	fs.SetOutput(usageOut)
	fs.Usage = func() { printUsage(usageOut, fs) }
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	fl.files = fs.Args()
	return fl, nil
}

func printUsage(w io.Writer, fs *flag.FlagSet) {
	fmt.Fprintln(w, "Usage: markconv [flags] [FILE...]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Converts CommonMark to html, xml, man, commonmark or latex.")
	fmt.Fprintln(w, "With no FILE, input is read from stdin; multiple files are")
	fmt.Fprintln(w, "concatenated into one document.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Flags:")
	fmt.Fprint(w, fs.FlagUsages())
}
