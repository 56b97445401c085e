// Package buffer implements Buffer: a segmented, FIFO, mutable byte queue
// that is the center of this module. Buffer owns a ring of segment.Segment
// pages, supports typed big/little-endian primitives, zero-copy transfer
// to and from other Buffers (the splice algorithm in Write), cloning, and
// content equality/hashing. Buffer implements both Source and Sink.
package buffer

import (
	"crypto/md5" //nolint:gosec // required by the wire-compatible toString() format, not for security
	"encoding/hex"
	"fmt"
	"io"
	"unicode/utf8"

	"github.com/pkg/errors"

	"github.com/coldbrewio/iobuf/bytestring"
	"github.com/coldbrewio/iobuf/segment"
)

// Buffer is an in-memory FIFO byte queue built from a ring of segments. The
// zero value is an empty, ready-to-use Buffer. A Buffer is never shared: it
// is exclusively owned by whoever constructed it, and must not be accessed
// from more than one goroutine at a time.
type Buffer struct {
	head *segment.Segment
	size int64
}

// New returns an empty Buffer. Equivalent to new(Buffer); provided for
// symmetry with the rest of the package's constructors.
func New() *Buffer {
	return &Buffer{}
}

// Size returns the current number of bytes held by b.
func (b *Buffer) Size() int64 {
	return b.size
}

func (b *Buffer) tail() *segment.Segment {
	if b.head == nil {
		return nil
	}

	return b.head.Prev
}

// writableSegment returns a segment with at least minimumCapacity free
// bytes past its Limit, allocating and linking a new tail segment from the
// pool if the current tail cannot satisfy the request.
func (b *Buffer) writableSegment(minimumCapacity int) *segment.Segment {
	t := b.tail()

	if t != nil && t.Owner && !t.Shared && segment.Size-t.Limit >= minimumCapacity {
		return t
	}

	s := segment.Take()

	if b.head == nil {
		b.head = segment.Push(nil, s)
	} else {
		segment.Push(b.head.Prev, s)
	}

	return s
}

// releaseHeadIfEmpty detaches and recycles the head segment once it has
// been fully consumed.
func (b *Buffer) releaseHeadIfEmpty() {
	if b.head != nil && b.head.Len() == 0 {
		old := b.head
		b.head = old.Pop()
		segment.Recycle(old)
	}
}

// appendBytes is the shared core of every append primitive: it copies p
// into writable segments, creating new ones as needed.
func (b *Buffer) appendBytes(p []byte) (int, error) {
	total := len(p)

	for len(p) > 0 {
		s := b.writableSegment(1)

		n := copy(s.Data[s.Limit:], p)
		s.Limit += n
		p = p[n:]
		b.size += int64(n)
	}

	return total, nil
}

// Append appends a copy of p to the tail of b.
func (b *Buffer) Append(p []byte) (int, error) {
	return b.appendBytes(p)
}

// AppendByteString appends bs's bytes to the tail of b.
func (b *Buffer) AppendByteString(bs bytestring.ByteString) (int, error) {
	return b.appendBytes(bs.Bytes())
}

// WriteByte appends a single byte. It implements io.ByteWriter.
func (b *Buffer) WriteByte(c byte) error {
	_, err := b.appendBytes([]byte{c})
	return err
}

// WriteUTF8 appends the UTF-8 encoding of s.
func (b *Buffer) WriteUTF8(s string) (int, error) {
	return b.appendBytes([]byte(s))
}

// Charset names recognized by WriteString.
const (
	CharsetUTF8  = "utf-8"
	CharsetUTF32 = "utf-32"
)

// WriteString appends s encoded under the named charset. "utf-32" means
// big-endian 4-byte code points with no BOM; any other unrecognized name
// fails with ErrUnsupported.
func (b *Buffer) WriteString(s string, charset string) error {
	switch charset {
	case CharsetUTF8:
		_, err := b.WriteUTF8(s)
		return err
	case CharsetUTF32:
		buf := make([]byte, 0, utf8.RuneCountInString(s)*4)

		for _, r := range s {
			buf = append(buf, byte(r>>24), byte(r>>16), byte(r>>8), byte(r))
		}

		_, err := b.appendBytes(buf)

		return err
	default:
		return errors.Wrapf(ErrUnsupported, "charset %q", charset)
	}
}

func (b *Buffer) requireUnderflow(n int64) error {
	if n > b.size {
		return ErrEndOfData
	}

	return nil
}

// readExact pops exactly n bytes from the head of b into a freshly
// allocated slice.
func (b *Buffer) readExact(n int) ([]byte, error) {
	if err := b.requireUnderflow(int64(n)); err != nil {
		return nil, err
	}

	out := make([]byte, n)
	pos := 0

	for pos < n {
		s := b.head
		take := s.Len()

		if take > n-pos {
			take = n - pos
		}

		copy(out[pos:], s.Data[s.Pos:s.Pos+take])
		s.Pos += take
		pos += take
		b.size -= int64(take)

		b.releaseHeadIfEmpty()
	}

	return out, nil
}

func bigEndian(n int) func([]byte) int64 {
	return func(p []byte) int64 {
		var v int64
		for i := 0; i < n; i++ {
			v = v<<8 | int64(p[i])
		}

		return v
	}
}

func littleEndian(n int) func([]byte) int64 {
	return func(p []byte) int64 {
		var v int64
		for i := n - 1; i >= 0; i-- {
			v = v<<8 | int64(p[i])
		}

		return v
	}
}

func putBigEndian(v int64, n int) []byte {
	p := make([]byte, n)
	for i := n - 1; i >= 0; i-- {
		p[i] = byte(v)
		v >>= 8
	}

	return p
}

func putLittleEndian(v int64, n int) []byte {
	p := make([]byte, n)
	for i := 0; i < n; i++ {
		p[i] = byte(v)
		v >>= 8
	}

	return p
}

// ReadByte pops a single byte. It implements io.ByteReader.
func (b *Buffer) ReadByte() (byte, error) {
	p, err := b.readExact(1)
	if err != nil {
		return 0, err
	}

	return p[0], nil
}

// WriteShort appends v as a big-endian 2-byte signed integer.
func (b *Buffer) WriteShort(v int16) error {
	_, err := b.appendBytes(putBigEndian(int64(v), 2))
	return err
}

// WriteShortLE appends v as a little-endian 2-byte signed integer.
func (b *Buffer) WriteShortLE(v int16) error {
	_, err := b.appendBytes(putLittleEndian(int64(v), 2))
	return err
}

// WriteInt appends v as a big-endian 4-byte signed integer.
func (b *Buffer) WriteInt(v int32) error {
	_, err := b.appendBytes(putBigEndian(int64(v), 4))
	return err
}

// WriteIntLE appends v as a little-endian 4-byte signed integer.
func (b *Buffer) WriteIntLE(v int32) error {
	_, err := b.appendBytes(putLittleEndian(int64(v), 4))
	return err
}

// WriteLong appends v as a big-endian 8-byte signed integer.
func (b *Buffer) WriteLong(v int64) error {
	_, err := b.appendBytes(putBigEndian(v, 8))
	return err
}

// WriteLongLE appends v as a little-endian 8-byte signed integer.
func (b *Buffer) WriteLongLE(v int64) error {
	_, err := b.appendBytes(putLittleEndian(v, 8))
	return err
}

// ReadShort pops a big-endian 2-byte signed integer.
func (b *Buffer) ReadShort() (int16, error) {
	p, err := b.readExact(2)
	if err != nil {
		return 0, err
	}

	return int16(bigEndian(2)(p)), nil
}

// ReadShortLE pops a little-endian 2-byte signed integer.
func (b *Buffer) ReadShortLE() (int16, error) {
	p, err := b.readExact(2)
	if err != nil {
		return 0, err
	}

	return int16(littleEndian(2)(p)), nil
}

// ReadInt pops a big-endian 4-byte signed integer.
func (b *Buffer) ReadInt() (int32, error) {
	p, err := b.readExact(4)
	if err != nil {
		return 0, err
	}

	return int32(bigEndian(4)(p)), nil
}

// ReadIntLE pops a little-endian 4-byte signed integer.
func (b *Buffer) ReadIntLE() (int32, error) {
	p, err := b.readExact(4)
	if err != nil {
		return 0, err
	}

	return int32(littleEndian(4)(p)), nil
}

// ReadLong pops a big-endian 8-byte signed integer.
func (b *Buffer) ReadLong() (int64, error) {
	p, err := b.readExact(8)
	if err != nil {
		return 0, err
	}

	return bigEndian(8)(p), nil
}

// ReadLongLE pops a little-endian 8-byte signed integer.
func (b *Buffer) ReadLongLE() (int64, error) {
	p, err := b.readExact(8)
	if err != nil {
		return 0, err
	}

	return littleEndian(8)(p), nil
}

// ReadUTF8 pops n bytes and decodes them as UTF-8.
func (b *Buffer) ReadUTF8(n int) (string, error) {
	p, err := b.readExact(n)
	if err != nil {
		return "", err
	}

	return string(p), nil
}

// ReadUTF8All pops every remaining byte and decodes it as UTF-8.
func (b *Buffer) ReadUTF8All() (string, error) {
	return b.ReadUTF8(int(b.size))
}

// ReadByteString pops n bytes as an immutable ByteString.
func (b *Buffer) ReadByteString(n int) (bytestring.ByteString, error) {
	p, err := b.readExact(n)
	if err != nil {
		return bytestring.ByteString{}, err
	}

	return bytestring.Of(p), nil
}

// ReadByteStringAll pops every remaining byte as an immutable ByteString.
func (b *Buffer) ReadByteStringAll() (bytestring.ByteString, error) {
	return b.ReadByteString(int(b.size))
}

// ReadByteArray pops n bytes as a byte slice.
func (b *Buffer) ReadByteArray(n int) ([]byte, error) {
	return b.readExact(n)
}

// ReadByteArrayAll pops every remaining byte as a byte slice.
func (b *Buffer) ReadByteArrayAll() ([]byte, error) {
	return b.readExact(int(b.size))
}

// GetByte returns, without consuming, the byte at logical offset i.
func (b *Buffer) GetByte(i int64) (byte, error) {
	if i < 0 || i >= b.size {
		return 0, errors.Wrap(ErrOutOfRange, "get byte")
	}

	offset := int64(0)

	for s := b.head; ; s = s.Next {
		segLen := int64(s.Len())
		if i < offset+segLen {
			return s.Data[s.Pos+int(i-offset)], nil
		}

		offset += segLen
	}
}

// IndexOf returns the first absolute offset of byte c at or after
// fromIndex, or -1 if c does not occur.
func (b *Buffer) IndexOf(c byte, fromIndex int64) int64 {
	if fromIndex < 0 {
		fromIndex = 0
	}

	offset := int64(0)

	for s := b.head; s != nil; s = s.Next {
		segLen := int64(s.Len())

		if offset+segLen > fromIndex {
			start := int64(0)
			if fromIndex > offset {
				start = fromIndex - offset
			}

			for i := start; i < segLen; i++ {
				if s.Data[s.Pos+int(i)] == c {
					return offset + i
				}
			}
		}

		offset += segLen

		if s.Next == b.head {
			break
		}
	}

	return -1
}

// Skip discards n bytes from the head of b, releasing fully-consumed
// segments to the pool.
func (b *Buffer) Skip(n int64) error {
	if err := b.requireUnderflow(n); err != nil {
		return err
	}

	for n > 0 {
		s := b.head
		take := int64(s.Len())

		if take > n {
			take = n
		}

		s.Pos += int(take)
		b.size -= take
		n -= take

		b.releaseHeadIfEmpty()
	}

	return nil
}

// Clone returns a deep-logical, zero-copy copy of b: every segment becomes
// a shared view over the same backing array at the same [Pos, Limit)
// window. Subsequent reads and writes on either Buffer never affect the
// other.
func (b *Buffer) Clone() *Buffer {
	clone := &Buffer{size: b.size}

	if b.head == nil {
		return clone
	}

	var tail *segment.Segment

	for s := b.head; ; s = s.Next {
		view := s.SharedView()

		if clone.head == nil {
			clone.head = segment.Push(nil, view)
		} else {
			segment.Push(tail, view)
		}

		tail = clone.head.Prev

		if s.Next == b.head {
			break
		}
	}

	return clone
}

// Equal reports whether b and other hold the same logical byte sequence,
// regardless of segment layout.
func (b *Buffer) Equal(other *Buffer) bool {
	if b.size != other.size {
		return false
	}

	ai, bi := newSegmentCursor(b.head), newSegmentCursor(other.head)

	for {
		ab, aok := ai.next()
		bb, bok := bi.next()

		if aok != bok {
			return false
		}

		if !aok {
			return true
		}

		if ab != bb {
			return false
		}
	}
}

// HashCode returns a hash over b's logical byte sequence, invariant under
// segment layout.
func (b *Buffer) HashCode() uint32 {
	var h uint32

	c := newSegmentCursor(b.head)

	for {
		v, ok := c.next()
		if !ok {
			return h
		}

		h = h*31 + uint32(v)
	}
}

// segmentCursor walks the logical bytes of a segment ring without mutating
// it, used by Equal/HashCode/String so they never consume the buffer.
type segmentCursor struct {
	start, cur *segment.Segment
	i          int
	done       bool
}

func newSegmentCursor(head *segment.Segment) *segmentCursor {
	return &segmentCursor{start: head, cur: head}
}

func (c *segmentCursor) next() (byte, bool) {
	for {
		if c.cur == nil || c.done {
			return 0, false
		}

		if c.i < c.cur.Len() {
			v := c.cur.Data[c.cur.Pos+c.i]
			c.i++

			return v, true
		}

		next := c.cur.Next
		c.i = 0

		if next == c.start {
			c.done = true
		}

		c.cur = next
	}
}

// String implements fmt.Stringer with the documented rendering:
// Buffer[size=0] when empty, Buffer[size=N data=<hex>] when size <= 16, and
// Buffer[size=N md5=<hex>] otherwise, with the MD5 computed over the whole
// logical byte sequence.
func (b *Buffer) String() string {
	if b.size == 0 {
		return "Buffer[size=0]"
	}

	if b.size <= 16 {
		data, _ := b.Clone().readExact(int(b.size))
		return fmt.Sprintf("Buffer[size=%d data=%s]", b.size, hex.EncodeToString(data))
	}

	h := md5.New() //nolint:gosec
	c := newSegmentCursor(b.head)

	buf := make([]byte, 0, 4096)

	for {
		v, ok := c.next()
		if !ok {
			break
		}

		buf = append(buf, v)

		if len(buf) == cap(buf) {
			h.Write(buf)
			buf = buf[:0]
		}
	}

	if len(buf) > 0 {
		h.Write(buf)
	}

	return fmt.Sprintf("Buffer[size=%d md5=%s]", b.size, hex.EncodeToString(h.Sum(nil)))
}

// CopyTo copies count bytes starting at offset into w without consuming
// them from b.
func (b *Buffer) CopyTo(w io.Writer, offset, count int64) (int64, error) {
	if offset < 0 || count < 0 || offset+count > b.size {
		return 0, ErrOutOfRange
	}

	var written int64

	skipped := int64(0)

	for s := b.head; count > 0; s = s.Next {
		segLen := int64(s.Len())

		if skipped+segLen <= offset {
			skipped += segLen
			continue
		}

		start := 0
		if offset > skipped {
			start = int(offset - skipped)
		}

		avail := int64(s.Len() - start)
		take := avail

		if take > count {
			take = count
		}

		n, err := w.Write(s.Data[s.Pos+start : s.Pos+start+int(take)])
		written += int64(n)

		if err != nil {
			return written, err
		}

		count -= take
		skipped += segLen
	}

	return written, nil
}

// WriteNTo destructively copies count bytes from the head of b into w.
func (b *Buffer) WriteNTo(w io.Writer, count int64) (int64, error) {
	if err := b.requireUnderflow(count); err != nil {
		return 0, err
	}

	var written int64

	for count > 0 {
		s := b.head
		take := int64(s.Len())

		if take > count {
			take = count
		}

		n, err := w.Write(s.Data[s.Pos : s.Pos+int(take)])
		s.Pos += n
		b.size -= int64(n)
		written += int64(n)

		if err != nil {
			return written, err
		}

		count -= int64(n)

		b.releaseHeadIfEmpty()
	}

	return written, nil
}

// WriteTo destructively copies the entire buffer into w. It implements
// io.WriterTo.
func (b *Buffer) WriteTo(w io.Writer) (int64, error) {
	return b.WriteNTo(w, b.size)
}

// ReadNFrom fills b with up to count bytes read from r, stopping early at
// io.EOF.
func (b *Buffer) ReadNFrom(r io.Reader, count int64) (int64, error) {
	var total int64

	for total < count {
		s := b.writableSegment(1)

		want := int64(len(s.Data) - s.Limit)
		if want > count-total {
			want = count - total
		}

		n, err := r.Read(s.Data[s.Limit : s.Limit+int(want)])
		if n > 0 {
			s.Limit += n
			b.size += int64(n)
			total += int64(n)
		}

		if err != nil {
			if err == io.EOF { //nolint:errorlint
				return total, nil
			}

			return total, err
		}
	}

	return total, nil
}

// ReadFrom fills b with every byte available from r until EOF. It
// implements io.ReaderFrom.
func (b *Buffer) ReadFrom(r io.Reader) (int64, error) {
	var total int64

	buf := make([]byte, segment.Size)

	for {
		n, err := r.Read(buf)
		if n > 0 {
			b.appendBytes(buf[:n]) //nolint:errcheck
			total += int64(n)
		}

		if err != nil {
			if err == io.EOF { //nolint:errorlint
				return total, nil
			}

			return total, err
		}
	}
}

// Read implements Source: it moves up to byteCount bytes from b into sink,
// preferring pointer-level segment reassignment over byte copies by
// delegating to sink.Write. It returns -1 if b is empty, matching the
// spec's documented choice for zero-length and exhausted reads alike
// (see DESIGN.md).
func (b *Buffer) Read(sink *Buffer, byteCount int64) (int64, error) {
	if byteCount < 0 {
		return 0, ErrOutOfRange
	}

	if b.size == 0 {
		return -1, nil
	}

	if byteCount > b.size {
		byteCount = b.size
	}

	if byteCount == 0 {
		return -1, nil
	}

	if err := sink.Write(b, byteCount); err != nil {
		return 0, err
	}

	return byteCount, nil
}

// Write implements Sink, taking another Buffer as its byte source: this is
// the splice algorithm. It moves exactly byteCount bytes from source to
// the tail of b, preferring O(1) pointer moves of whole segments over byte
// copies, coalescing small transfers into existing tail space, and
// splitting the source's head segment (sharing its backing array above
// segment.ShareMinimum bytes) when only part of it is wanted.
func (b *Buffer) Write(source *Buffer, byteCount int64) error {
	if source == b {
		return errors.Wrap(ErrOutOfRange, "splice into self")
	}

	if byteCount < 0 || byteCount > source.size {
		return ErrOutOfRange
	}

	for byteCount > 0 {
		head := source.head

		if byteCount < int64(head.Len()) {
			t := b.tail()

			if t != nil && t.Owner {
				free := segment.Size - t.Limit
				if !t.Shared {
					free += t.Pos
				}

				if int64(free) >= byteCount {
					if err := head.WriteTo(t, int(byteCount)); err != nil {
						return err
					}

					source.size -= byteCount
					b.size += byteCount

					return nil
				}
			}

			prefix := head.Split(int(byteCount))
			source.head = prefix
			head = prefix
		}

		moved := int64(head.Len())

		source.head = head.Pop()

		t := b.tail()

		if t != nil && t.Owner && !t.Shared && t.Len()+head.Len() <= segment.Size {
			if err := head.WriteTo(t, head.Len()); err != nil {
				return err
			}

			segment.Recycle(head)
		} else if b.head == nil {
			b.head = segment.Push(nil, head)
		} else {
			segment.Push(b.head.Prev, head)
		}

		source.size -= moved
		b.size += moved
		byteCount -= moved
	}

	return nil
}

// Flush implements Sink. Buffer has nothing downstream to flush, so this
// is always a no-op.
func (b *Buffer) Flush() error { return nil }

// Timeout implements Source and Sink. A bare in-memory Buffer never blocks,
// so it always reports NoTimeout.
func (b *Buffer) Timeout() Timeout { return NoTimeout }

// Close implements Source and Sink: it recycles every segment b holds back
// to the pool. Close is idempotent.
func (b *Buffer) Close() error {
	for b.head != nil {
		old := b.head
		b.head = old.Pop()
		segment.Recycle(old)
	}

	b.size = 0

	return nil
}

// ReadAll moves every remaining byte from b into sink and returns the
// count moved.
func (b *Buffer) ReadAll(sink Sink) (int64, error) {
	n := b.size
	if n == 0 {
		return 0, nil
	}

	if err := sink.Write(b, n); err != nil {
		return 0, err
	}

	return n, nil
}

// WriteAll moves every available byte from source into b, reading from
// source repeatedly until it reports exhaustion, and returns the total
// count moved.
func (b *Buffer) WriteAll(source Source) (int64, error) {
	var total int64

	for {
		n, err := source.Read(b, segment.Size)
		if n > 0 {
			total += n
		}

		if err != nil {
			return total, err
		}

		if n == -1 {
			return total, nil
		}
	}
}

// CompleteSegmentByteCount returns the sum of sizes of full leading
// segments: every segment up to (but not including) the tail, plus the
// tail itself when it happens to be completely full. Buffered adapters use
// this to decide when enough data has accumulated to flush downstream
// without copying a partially-filled segment.
func (b *Buffer) CompleteSegmentByteCount() int64 {
	if b.head == nil {
		return 0
	}

	var total int64

	for s := b.head; ; s = s.Next {
		if s.Next == b.head {
			if s.Limit == segment.Size {
				total += int64(s.Len())
			}

			break
		}

		total += int64(s.Len())
	}

	return total
}
