package flate

import (
	"github.com/klauspost/compress/flate"

	"github.com/coldbrewio/iobuf/buffer"
)

// DeflaterSink compresses everything written to it as a raw DEFLATE
// stream (no zlib or gzip framing) and forwards the compressed bytes to a
// downstream Sink.
type DeflaterSink struct {
	downstream buffer.Sink
	writer     *flate.Writer
	scratch    buffer.Buffer
}

// NewDeflaterSink returns a DeflaterSink writing compressed output to
// downstream at the given compression level (flate.DefaultCompression is
// a reasonable default).
func NewDeflaterSink(downstream buffer.Sink, level int) (*DeflaterSink, error) {
	s := &DeflaterSink{downstream: downstream}

	w, err := flate.NewWriter(writerFunc(s.emit), level)
	if err != nil {
		return nil, err
	}

	s.writer = w

	return s, nil
}

// writerFunc adapts a plain func([]byte) (int, error) to io.Writer.
type writerFunc func(p []byte) (int, error)

func (f writerFunc) Write(p []byte) (int, error) { return f(p) }

func (s *DeflaterSink) emit(p []byte) (int, error) {
	if _, err := s.scratch.Append(p); err != nil {
		return 0, err
	}

	if err := s.downstream.Write(&s.scratch, s.scratch.Size()); err != nil {
		return 0, err
	}

	return len(p), nil
}

// Write implements Sink: it pops byteCount bytes from source and feeds
// them through the DEFLATE encoder, which in turn writes compressed
// output to the downstream Sink as its internal window fills.
func (s *DeflaterSink) Write(source *buffer.Buffer, byteCount int64) error {
	if byteCount < 0 || byteCount > source.Size() {
		return buffer.ErrOutOfRange
	}

	p, err := source.ReadByteArray(int(byteCount))
	if err != nil {
		return err
	}

	_, err = s.writer.Write(p)

	return err
}

// Flush flushes any buffered DEFLATE output downstream, then flushes the
// downstream Sink itself.
func (s *DeflaterSink) Flush() error {
	if err := s.writer.Flush(); err != nil {
		return err
	}

	return s.downstream.Flush()
}

// Timeout implements Sink by delegating to the downstream sink.
func (s *DeflaterSink) Timeout() buffer.Timeout {
	return s.downstream.Timeout()
}

// FinishStream flushes and terminates the DEFLATE stream without closing
// the downstream Sink, so a caller that still needs to write trailing
// bytes after the compressed payload (GzipSink's CRC-32/ISIZE trailer) can
// do so before closing the downstream itself.
func (s *DeflaterSink) FinishStream() error {
	return s.writer.Close()
}

// Close finalizes the DEFLATE stream and closes the downstream Sink. On
// partial failure it reports the first error encountered but still
// attempts every remaining step, matching the compound-close convention
// used by GzipSink.
func (s *DeflaterSink) Close() error {
	var firstErr error

	if err := s.writer.Close(); err != nil {
		firstErr = err
	}

	if err := s.downstream.Close(); err != nil && firstErr == nil {
		firstErr = err
	}

	return firstErr
}
