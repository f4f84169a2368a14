package imageio

import "errors"

// Every failure out of this package wraps one of these, so callers
// can tell a malformed file from an unsupported one without string
// matching. Use errors.Is.
var (
	// ErrInvalidArgument: the caller handed us a bad value - a tensor
	// of the wrong shape/layout, or a filename we can't even classify.
	ErrInvalidArgument = errors.New("imageio: invalid argument")

	// ErrIO: the underlying file could not be opened or created.
	ErrIO = errors.New("imageio: i/o error")

	// ErrInvalidFormat: the file was recognized but its header grammar
	// or pixel payload is broken (truncated, garbage tokens, etc).
	ErrInvalidFormat = errors.New("imageio: invalid image")

	// ErrUnsupportedFormat: we know what this is, and we don't do it -
	// an unknown extension, or a format variant we never read.
	ErrUnsupportedFormat = errors.New("imageio: unsupported format")
)
