package imageio

import (
	"fmt"
	"strings"
)

// FormatOf classifies a filename by its extension - the substring
// after the last '.', exactly as given (no case folding; "a.b.pfm"
// is a "pfm"). A name with no dot at all can't be dispatched on, so
// that's an error; a trailing dot yields the empty format, which the
// facade then rejects as unsupported.
func FormatOf(filename string) (string, error) {
	i := strings.LastIndexByte(filename, '.')
	if i < 0 {
		return "", fmt.Errorf("%w: filename '%s' has no extension", ErrInvalidArgument, filename)
	}
	return filename[i+1:], nil
}
