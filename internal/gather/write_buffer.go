package gather

import "io"

// WriteBuffer accumulates appended bytes into a sequence of fixed-size
// chunks drawn from a chunkAllocator, avoiding the repeated copies a
// doubling single-slice buffer would pay for large payloads. The zero
// value is ready to use and defaults to defaultAllocator on first Append.
type WriteBuffer struct {
	inner  Bytes
	alloc  *chunkAllocator
	closed bool
}

// NewWriteBuffer returns an empty WriteBuffer using the default chunk size.
func NewWriteBuffer() *WriteBuffer {
	return &WriteBuffer{}
}

// NewWriteBufferMaxContiguous returns an empty WriteBuffer that allocates
// the largest available contiguous chunk size, for callers expecting to
// accumulate large payloads and wanting fewer, bigger chunks.
func NewWriteBufferMaxContiguous() *WriteBuffer {
	return &WriteBuffer{alloc: maxContiguousAllocator}
}

// Bytes returns the accumulated content as a Bytes view. It panics if
// called after Close, since the underlying chunks may already have been
// handed back to the allocator.
func (w *WriteBuffer) Bytes() Bytes {
	if w.closed {
		panic("gather: use of WriteBuffer after Close")
	}

	return w.inner
}

// Length returns the number of bytes written so far.
func (w *WriteBuffer) Length() int {
	return w.inner.Length()
}

// ToByteSlice returns the accumulated content as a single slice.
func (w *WriteBuffer) ToByteSlice() []byte {
	return w.inner.ToByteSlice()
}

// Write implements io.Writer by appending p.
func (w *WriteBuffer) Write(p []byte) (int, error) {
	w.Append(p)
	return len(p), nil
}

// Append copies data into the buffer, allocating new chunks as needed.
func (w *WriteBuffer) Append(data []byte) {
	if w.alloc == nil {
		w.alloc = defaultAllocator
	}

	for len(data) > 0 {
		if len(w.inner.Slices) == 0 || w.lastChunkFull() {
			w.inner.Slices = append(w.inner.Slices, w.alloc.allocChunk())
		}

		last := w.inner.Slices[len(w.inner.Slices)-1]
		room := cap(last) - len(last)

		n := len(data)
		if n > room {
			n = room
		}

		w.inner.Slices[len(w.inner.Slices)-1] = append(last, data[:n]...)
		data = data[n:]
	}
}

func (w *WriteBuffer) lastChunkFull() bool {
	last := w.inner.Slices[len(w.inner.Slices)-1]
	return len(last) == cap(last)
}

// MakeContiguous returns a single []byte of exactly length bytes, backed by
// whichever allocator tier can satisfy it (falling back to a bare make for
// requests bigger than the largest tier). The chosen allocator, if any,
// becomes w.alloc for subsequent Append calls.
func (w *WriteBuffer) MakeContiguous(length int) []byte {
	switch {
	case length <= typicalContiguousAllocator.chunkSize:
		w.alloc = typicalContiguousAllocator
	case length <= maxContiguousAllocator.chunkSize:
		w.alloc = maxContiguousAllocator
	default:
		w.alloc = nil
		return make([]byte, length)
	}

	c := w.alloc.allocChunk()
	c = c[:length]
	w.inner.Slices = append(w.inner.Slices, c)

	return c
}

// AppendSectionTo writes w's [start,start+length) range to output.
func (w *WriteBuffer) AppendSectionTo(output io.Writer, start, length int) error {
	return w.inner.AppendSectionTo(output, start, length)
}

// Reset releases the chunks sized for the buffer's current allocator back
// to it and empties the buffer, without marking it closed. Chunks drawn
// from another allocator before a MakeContiguous switch are not returned.
func (w *WriteBuffer) Reset() {
	w.release()
	w.closed = false
}

// Close releases chunks back to the allocator as Reset does. A WriteBuffer must not
// be used again after Close except via Reset.
func (w *WriteBuffer) Close() {
	if w.closed {
		return
	}

	w.release()
	w.closed = true
}

func (w *WriteBuffer) release() {
	if w.alloc != nil {
		for _, s := range w.inner.Slices {
			if cap(s) == w.alloc.chunkSize {
				w.alloc.releaseChunk(s)
			}
		}
	}

	w.inner.Slices = nil
}
