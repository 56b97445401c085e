package buffer

import (
	"io"

	"github.com/coldbrewio/iobuf/bytestring"
)

// BufferedSink wraps any Sink with an owned internal Buffer: typed writes
// accumulate there and are only flushed to the wrapped Sink in complete
// segment-sized chunks, amortizing the cost of small writes.
type BufferedSink struct {
	sink   Sink
	buf    Buffer
	closed bool
}

// NewBufferedSink returns a BufferedSink wrapping sink.
func NewBufferedSink(sink Sink) *BufferedSink {
	return &BufferedSink{sink: sink}
}

// Buffer exposes the internal Buffer for callers that want direct access
// to the not-yet-flushed bytes.
func (w *BufferedSink) Buffer() *Buffer {
	return &w.buf
}

func (w *BufferedSink) checkClosed() error {
	if w.closed {
		return ErrClosed
	}

	return nil
}

// emitCompleteSegments flushes every currently-complete leading segment of
// the internal buffer to the wrapped sink, leaving any partially filled
// tail segment behind for further appends.
func (w *BufferedSink) emitCompleteSegments() error {
	n := w.buf.CompleteSegmentByteCount()
	if n == 0 {
		return nil
	}

	return w.sink.Write(&w.buf, n)
}

// Write implements Sink: source's bytes are spliced into the internal
// buffer, then any now-complete segments are flushed downstream.
func (w *BufferedSink) Write(source *Buffer, byteCount int64) error {
	if err := w.checkClosed(); err != nil {
		return err
	}

	if err := w.buf.Write(source, byteCount); err != nil {
		return err
	}

	return w.emitCompleteSegments()
}

// WriteByte appends a single byte, implementing io.ByteWriter.
func (w *BufferedSink) WriteByte(c byte) error {
	if err := w.checkClosed(); err != nil {
		return err
	}

	if err := w.buf.WriteByte(c); err != nil {
		return err
	}

	return w.emitCompleteSegments()
}

// WriteShort appends v as a big-endian 2-byte signed integer.
func (w *BufferedSink) WriteShort(v int16) error {
	if err := w.checkClosed(); err != nil {
		return err
	}

	if err := w.buf.WriteShort(v); err != nil {
		return err
	}

	return w.emitCompleteSegments()
}

// WriteInt appends v as a big-endian 4-byte signed integer.
func (w *BufferedSink) WriteInt(v int32) error {
	if err := w.checkClosed(); err != nil {
		return err
	}

	if err := w.buf.WriteInt(v); err != nil {
		return err
	}

	return w.emitCompleteSegments()
}

// WriteLong appends v as a big-endian 8-byte signed integer.
func (w *BufferedSink) WriteLong(v int64) error {
	if err := w.checkClosed(); err != nil {
		return err
	}

	if err := w.buf.WriteLong(v); err != nil {
		return err
	}

	return w.emitCompleteSegments()
}

// WriteUTF8 appends the UTF-8 encoding of s.
func (w *BufferedSink) WriteUTF8(s string) (int, error) {
	if err := w.checkClosed(); err != nil {
		return 0, err
	}

	n, err := w.buf.WriteUTF8(s)
	if err != nil {
		return n, err
	}

	return n, w.emitCompleteSegments()
}

// WriteByteString appends bs's bytes.
func (w *BufferedSink) WriteByteString(bs bytestring.ByteString) (int, error) {
	if err := w.checkClosed(); err != nil {
		return 0, err
	}

	n, err := w.buf.AppendByteString(bs)
	if err != nil {
		return n, err
	}

	return n, w.emitCompleteSegments()
}

// Append appends a copy of p.
func (w *BufferedSink) Append(p []byte) (int, error) {
	if err := w.checkClosed(); err != nil {
		return 0, err
	}

	n, err := w.buf.Append(p)
	if err != nil {
		return n, err
	}

	return n, w.emitCompleteSegments()
}

// Flush pushes every byte currently held by the internal buffer, complete
// segment or not, down to the wrapped sink, then flushes the wrapped sink
// itself.
func (w *BufferedSink) Flush() error {
	if err := w.checkClosed(); err != nil {
		return err
	}

	if w.buf.Size() > 0 {
		if err := w.sink.Write(&w.buf, w.buf.Size()); err != nil {
			return err
		}
	}

	return w.sink.Flush()
}

// Timeout implements Sink by delegating to the wrapped sink.
func (w *BufferedSink) Timeout() Timeout {
	return w.sink.Timeout()
}

// Close flushes any remaining bytes and closes the wrapped sink. Close is
// idempotent.
func (w *BufferedSink) Close() error {
	if w.closed {
		return nil
	}

	var firstErr error

	if err := w.Flush(); err != nil {
		firstErr = err
	}

	w.closed = true

	if err := w.sink.Close(); err != nil && firstErr == nil {
		firstErr = err
	}

	return firstErr
}

// byteStreamWriter is the io.Writer view returned by Writer.
type byteStreamWriter struct {
	dst *BufferedSink
}

// Writer returns a byte-stream view of w: every Write call appends its
// argument and flushes complete segments, matching the behavior of Append.
func (w *BufferedSink) Writer() io.Writer {
	return &byteStreamWriter{dst: w}
}

func (v *byteStreamWriter) Write(p []byte) (int, error) {
	return v.dst.Append(p)
}

var _ io.Reader = (*byteStreamReader)(nil)
var _ io.Writer = (*byteStreamWriter)(nil)
