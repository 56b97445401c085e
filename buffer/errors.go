package buffer

import "errors"

// Sentinel errors for the error kinds named in the design: callers classify
// failures with errors.Is against these values, never by matching message
// text.
var (
	// ErrEndOfData is returned when a typed read or Require could not be
	// satisfied because the buffer underflowed or an upstream Source
	// signalled exhaustion.
	ErrEndOfData = errors.New("end of data")

	// ErrOutOfRange is returned when an argument violates a size, offset,
	// or byteCount >= 0 precondition.
	ErrOutOfRange = errors.New("out of range")

	// ErrClosed is returned by any operation attempted on an
	// already-closed adapter.
	ErrClosed = errors.New("closed")

	// ErrEncoding is returned for malformed data under a declared codec:
	// a corrupt DEFLATE stream, a bad or short GZIP header or trailer, a
	// GZIP CRC/size mismatch, or a short compressor header.
	ErrEncoding = errors.New("encoding error")

	// ErrUnsupported is returned for an unknown charset name or an
	// unsupported GZIP header flag.
	ErrUnsupported = errors.New("unsupported")

	// ErrTimedOut is returned when a Timeout's deadline expires during a
	// blocking call.
	ErrTimedOut = errors.New("timed out")
)
