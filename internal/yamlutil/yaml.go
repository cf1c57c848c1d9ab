// Package yamlutil decodes YAML metadata blocks with a size cap so a
// hostile document cannot balloon memory through its frontmatter.
package yamlutil

import (
	"errors"
	"fmt"

	"github.com/goccy/go-yaml"
)

// MaxMetadataSize bounds the YAML payload accepted from a frontmatter
// block. Real-world document metadata is a few hundred bytes.
const MaxMetadataSize = 64 * 1024

var ErrTooLarge = errors.New("yaml metadata exceeds size limit")

// Unmarshal decodes src into out, rejecting payloads over
// MaxMetadataSize before handing them to the YAML parser.
func Unmarshal(src []byte, out any) error {
	if len(src) > MaxMetadataSize {
		return fmt.Errorf("%w: %d bytes", ErrTooLarge, len(src))
	}
	if err := yaml.Unmarshal(src, out); err != nil {
		return fmt.Errorf("decode yaml metadata: %w", err)
	}
	return nil
}
