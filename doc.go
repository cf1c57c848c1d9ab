// Package markconv converts CommonMark markdown into HTML, XML, troff man,
// canonical markdown, or LaTeX, with optional Lua filters that can inspect
// and rewrite the document tree between parsing and rendering.
//
// The pipeline is strictly sequential: input chunks accumulate into one
// document tree, each filter sees the cumulative mutations of the filters
// before it, and the selected renderer serializes whatever tree the last
// filter left behind. A filter returning -1 suppresses rendering for the
// run.
//
// Example:
//
//	conv, err := markconv.NewConverter(
//		markconv.WithFormat("html"),
//		markconv.WithOptions(markconv.OptSmart|markconv.OptSafe),
//	)
//	if err != nil {
//		log.Fatal(err)
//	}
//	err = conv.Convert(context.Background(), os.Stdout,
//		strings.NewReader("# Hello\n"))
package markconv
