package render

import "github.com/muesli/reflow/wordwrap"

// wrapText wraps s at width word boundaries. Width 0 disables wrapping.
// Words longer than the width are kept intact on their own line.
func wrapText(s string, width int) string {
	if width <= 0 {
		return s
	}
	return wordwrap.String(s, width)
}
