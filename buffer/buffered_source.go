package buffer

import (
	"io"

	"github.com/coldbrewio/iobuf/bytestring"
	"github.com/coldbrewio/iobuf/segment"
)

// BufferedSource wraps any Source with an owned internal Buffer and exposes
// typed reads over it, pulling from the wrapped Source only as needed.
type BufferedSource struct {
	source Source
	buf    Buffer
	closed bool
}

// NewBufferedSource returns a BufferedSource wrapping source.
func NewBufferedSource(source Source) *BufferedSource {
	return &BufferedSource{source: source}
}

// Buffer exposes the internal Buffer: callers may inspect or pre-populate
// it (see the BufferedSource example in the design's seed scenario #7).
func (r *BufferedSource) Buffer() *Buffer {
	return &r.buf
}

// Timeout implements Source by delegating to the wrapped source.
func (r *BufferedSource) Timeout() Timeout {
	return r.source.Timeout()
}

func (r *BufferedSource) checkClosed() error {
	if r.closed {
		return ErrClosed
	}

	return nil
}

// Require ensures the internal buffer holds at least n bytes, pulling one
// segment-full at a time from the wrapped source until satisfied. It fails
// with ErrEndOfData if the source is exhausted first.
func (r *BufferedSource) Require(n int64) error {
	if err := r.checkClosed(); err != nil {
		return err
	}

	for r.buf.Size() < n {
		got, err := r.source.Read(&r.buf, segment.Size)
		if err != nil {
			return err
		}

		if got == -1 {
			return ErrEndOfData
		}
	}

	return nil
}

// Read implements Source over the internal buffer: if it is empty, one
// read is pulled from the wrapped source first; then up to byteCount bytes
// are moved from the internal buffer to sink.
func (r *BufferedSource) Read(sink *Buffer, byteCount int64) (int64, error) {
	if err := r.checkClosed(); err != nil {
		return 0, err
	}

	if r.buf.Size() == 0 {
		n, err := r.source.Read(&r.buf, segment.Size)
		if err != nil {
			return 0, err
		}

		if n == -1 {
			return -1, nil
		}
	}

	return r.buf.Read(sink, byteCount)
}

// ReadAll repeatedly pulls one segment-full from the wrapped source into
// the internal buffer, flushing it into sink as a single splice each time,
// bounding memory use to one segment beyond the input. It returns the
// total number of bytes moved.
func (r *BufferedSource) ReadAll(sink Sink) (int64, error) {
	if err := r.checkClosed(); err != nil {
		return 0, err
	}

	var total int64

	for {
		n, err := r.source.Read(&r.buf, segment.Size)
		if err != nil {
			return total, err
		}

		if n == -1 {
			break
		}

		moved, err := r.buf.ReadAll(sink)
		total += moved

		if err != nil {
			return total, err
		}
	}

	moved, err := r.buf.ReadAll(sink)
	total += moved

	return total, err
}

// Exhausted reports whether the internal buffer is empty and a further
// read from the wrapped source returns -1.
func (r *BufferedSource) Exhausted() (bool, error) {
	if err := r.checkClosed(); err != nil {
		return false, err
	}

	if r.buf.Size() > 0 {
		return false, nil
	}

	n, err := r.source.Read(&r.buf, segment.Size)
	if err != nil {
		return false, err
	}

	return n == -1, nil
}

// ReadByte implements io.ByteReader by way of Require(1).
func (r *BufferedSource) ReadByte() (byte, error) {
	if err := r.Require(1); err != nil {
		return 0, err
	}

	return r.buf.ReadByte()
}

// ReadShort requires and pops a big-endian 2-byte signed integer.
func (r *BufferedSource) ReadShort() (int16, error) {
	if err := r.Require(2); err != nil {
		return 0, err
	}

	return r.buf.ReadShort()
}

// ReadInt requires and pops a big-endian 4-byte signed integer.
func (r *BufferedSource) ReadInt() (int32, error) {
	if err := r.Require(4); err != nil {
		return 0, err
	}

	return r.buf.ReadInt()
}

// ReadLong requires and pops a big-endian 8-byte signed integer.
func (r *BufferedSource) ReadLong() (int64, error) {
	if err := r.Require(8); err != nil {
		return 0, err
	}

	return r.buf.ReadLong()
}

// ReadUTF8 requires and pops n bytes, decoded as UTF-8.
func (r *BufferedSource) ReadUTF8(n int) (string, error) {
	if err := r.Require(int64(n)); err != nil {
		return "", err
	}

	return r.buf.ReadUTF8(n)
}

// ReadByteString requires and pops n bytes as an immutable ByteString.
func (r *BufferedSource) ReadByteString(n int) (bytestring.ByteString, error) {
	if err := r.Require(int64(n)); err != nil {
		return bytestring.ByteString{}, err
	}

	return r.buf.ReadByteString(n)
}

// ReadByteArray requires and pops n bytes as a byte slice.
func (r *BufferedSource) ReadByteArray(n int) ([]byte, error) {
	if err := r.Require(int64(n)); err != nil {
		return nil, err
	}

	return r.buf.ReadByteArray(n)
}

// IndexOf returns the first absolute offset of c at or after fromIndex,
// pulling more of the wrapped source in as needed, or -1 if the source is
// exhausted without finding c.
func (r *BufferedSource) IndexOf(c byte, fromIndex int64) (int64, error) {
	if err := r.checkClosed(); err != nil {
		return 0, err
	}

	for {
		idx := r.buf.IndexOf(c, fromIndex)
		if idx != -1 {
			return idx, nil
		}

		n, err := r.source.Read(&r.buf, segment.Size)
		if err != nil {
			return 0, err
		}

		if n == -1 {
			return -1, nil
		}
	}
}

// Skip discards n bytes, pulling more of the wrapped source in as needed.
func (r *BufferedSource) Skip(n int64) error {
	if err := r.Require(n); err != nil {
		return err
	}

	return r.buf.Skip(n)
}

// Close marks the adapter closed and closes the wrapped source. Any
// further typed or bulk read fails with ErrClosed.
func (r *BufferedSource) Close() error {
	if r.closed {
		return nil
	}

	r.closed = true

	return r.source.Close()
}

// byteStreamReader is the io.Reader view returned by Reader.
type byteStreamReader struct {
	src *BufferedSource
}

// Reader returns a byte-stream view of r: single-byte reads buffer one
// segment first, then pop one byte; bulk reads pull one segment from the
// wrapped source when the internal buffer is empty, then copy out of it.
func (r *BufferedSource) Reader() io.Reader {
	return &byteStreamReader{src: r}
}

func (v *byteStreamReader) Read(p []byte) (int, error) {
	if v.src.closed {
		return 0, ErrClosed
	}

	if len(p) == 0 {
		return 0, nil
	}

	if v.src.buf.Size() == 0 {
		n, err := v.src.source.Read(&v.src.buf, segment.Size)
		if err != nil {
			return 0, err
		}

		if n == -1 {
			return 0, io.EOF
		}
	}

	want := int64(len(p))
	if want > v.src.buf.Size() {
		want = v.src.buf.Size()
	}

	b, err := v.src.buf.ReadByteArray(int(want))
	if err != nil {
		return 0, err
	}

	return copy(p, b), nil
}

// ReadByte pops a single byte, pulling one segment from the wrapped source
// when the internal buffer is empty. Implementing io.ByteReader keeps a
// DEFLATE decoder reading through this view from buffering ahead of what it
// consumes.
func (v *byteStreamReader) ReadByte() (byte, error) {
	var p [1]byte

	if n, err := v.Read(p[:]); n == 0 {
		if err == nil {
			err = io.EOF
		}

		return 0, err
	}

	return p[0], nil
}

// Available returns the number of bytes currently held by the internal
// buffer, without touching the wrapped source.
func (v *byteStreamReader) Available() int64 {
	return v.src.buf.Size()
}
