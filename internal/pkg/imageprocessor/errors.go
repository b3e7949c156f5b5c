package imageprocessor

import "errors"

var (
	// ErrUnsupportedFormat is returned when the source format is not in the
	// accepted set.
	ErrUnsupportedFormat = errors.New("unsupported image format")
	// ErrDecodeFailure is returned when the source bytes cannot be decoded.
	ErrDecodeFailure = errors.New("image decode failed")
	// ErrIOFailure is returned when an artifact cannot be written.
	ErrIOFailure = errors.New("artifact write failed")
)
