// Package flate implements InflaterSource, a Source that decompresses a
// raw DEFLATE stream (RFC 1951, no zlib or gzip framing) on the fly as it
// is read, using github.com/klauspost/compress/flate for the inner
// decoder the way the rest of this module's compression stack leans on
// klauspost's package family instead of the standard library's.
package flate

import (
	"context"
	"io"

	"github.com/klauspost/compress/flate"
	"github.com/pkg/errors"

	"github.com/coldbrewio/iobuf/buffer"
	"github.com/coldbrewio/iobuf/internal/logging"
)

var log = logging.Module("iobuf/flate") //nolint:gochecknoglobals

// InflaterSource decompresses a raw DEFLATE byte stream pulled from an
// upstream BufferedSource. Each Read call drains the inner decoder for up
// to byteCount bytes; the decoder pulls its own compressed input from
// upstream, one blocking refill at a time, exactly when it runs out —
// this module never pre-feeds it.
type InflaterSource struct {
	ctx context.Context //nolint:containedctx

	upstream *buffer.BufferedSource
	inflater io.ReadCloser

	eof bool
}

// NewInflaterSource returns an InflaterSource reading a raw DEFLATE stream
// from upstream. ctx is retained purely for logging at decode milestones
// (stream exhaustion, truncated stream) since the Source contract itself
// carries no context.
func NewInflaterSource(ctx context.Context, upstream *buffer.BufferedSource) *InflaterSource {
	return &InflaterSource{
		ctx:      ctx,
		upstream: upstream,
		inflater: flate.NewReader(upstream.Reader()),
	}
}

// Read implements Source: it decompresses up to byteCount bytes into
// sink. The inner decoder pulls compressed input from upstream itself as
// it runs dry; this call returns -1 once the DEFLATE stream is exhausted.
func (s *InflaterSource) Read(sink *buffer.Buffer, byteCount int64) (int64, error) {
	if byteCount < 0 {
		return 0, buffer.ErrOutOfRange
	}

	if byteCount == 0 || s.eof {
		return -1, nil
	}

	want := byteCount
	if want > 65536 {
		want = 65536
	}

	out := make([]byte, want)

	n, err := s.inflater.Read(out)
	if n > 0 {
		if _, werr := sink.Append(out[:n]); werr != nil {
			return 0, werr
		}
	}

	if err != nil {
		if errors.Is(err, io.EOF) {
			s.eof = true

			if n == 0 {
				log(s.ctx).Debugf("inflate: stream exhausted")

				return -1, nil
			}

			return int64(n), nil
		}

		if errors.Is(err, io.ErrUnexpectedEOF) {
			s.eof = true

			log(s.ctx).Debugf("inflate: truncated stream, %d bytes still wanted", n)

			return int64(n), errors.Wrap(buffer.ErrEndOfData, err.Error())
		}

		return int64(n), errors.Wrap(buffer.ErrEncoding, err.Error())
	}

	if n == 0 {
		return -1, nil
	}

	return int64(n), nil
}

// Timeout implements Source by delegating to the upstream source.
func (s *InflaterSource) Timeout() buffer.Timeout {
	return s.upstream.Timeout()
}

// Close releases the inner decoder and the upstream source. Close is safe
// to call more than once.
func (s *InflaterSource) Close() error {
	var firstErr error

	if err := s.inflater.Close(); err != nil {
		firstErr = err
	}

	if err := s.upstream.Close(); err != nil && firstErr == nil {
		firstErr = err
	}

	return firstErr
}
