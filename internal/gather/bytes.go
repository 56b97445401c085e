package gather

import (
	"io"

	"github.com/pkg/errors"
)

// ErrInvalidOffset is returned by Bytes' io.ReaderAt when asked to read at
// a negative offset.
var ErrInvalidOffset = errors.New("invalid offset")

// Bytes is an immutable view over a sequence of byte slices that together
// represent one logical contiguous run of bytes, without requiring they be
// copied into a single allocation. A WriteBuffer builds one up; Bytes is
// what you get to read it back.
type Bytes struct {
	Slices [][]byte
}

// FromSlice wraps a single slice as a one-chunk Bytes.
func FromSlice(s []byte) Bytes {
	return Bytes{Slices: [][]byte{s}}
}

// Length returns the total number of bytes across all slices.
func (b Bytes) Length() int {
	n := 0
	for _, s := range b.Slices {
		n += len(s)
	}

	return n
}

// ToByteSlice returns the logical contents as a single slice, copying only
// when more than one underlying chunk is present.
func (b Bytes) ToByteSlice() []byte {
	if len(b.Slices) == 1 && b.Slices[0] != nil {
		return b.Slices[0]
	}

	out := make([]byte, 0, b.Length())
	for _, s := range b.Slices {
		out = append(out, s...)
	}

	return out
}

// Reader returns a fresh, independent read cursor over b.
func (b Bytes) Reader() io.ReadSeekCloser {
	return &bytesReader{b: b}
}

// WriteTo writes every byte of b to w, stopping at the first error.
func (b Bytes) WriteTo(w io.Writer) (int64, error) {
	var n int64

	for _, s := range b.Slices {
		if len(s) == 0 {
			continue
		}

		wn, err := w.Write(s)
		n += int64(wn)

		if err != nil {
			return n, err
		}
	}

	return n, nil
}

// AppendSectionTo writes the length bytes of b starting at start to output.
func (b Bytes) AppendSectionTo(output io.Writer, start, length int) error {
	if start < 0 || length < 0 {
		return errors.Errorf("invalid section [%d,%d)", start, start+length)
	}

	skip := start
	remaining := length

	for _, s := range b.Slices {
		if remaining <= 0 {
			break
		}

		if skip >= len(s) {
			skip -= len(s)
			continue
		}

		avail := s[skip:]
		skip = 0

		if len(avail) > remaining {
			avail = avail[:remaining]
		}

		if len(avail) == 0 {
			continue
		}

		n, err := output.Write(avail)
		remaining -= n

		if err != nil {
			return err
		}
	}

	return nil
}

// bytesReader is the io.ReadSeekCloser + io.ReaderAt view Bytes.Reader hands
// out. It never mutates the underlying Bytes.
type bytesReader struct {
	b   Bytes
	pos int64
}

func (r *bytesReader) Read(p []byte) (int, error) {
	n, err := r.ReadAt(p, r.pos)
	r.pos += int64(n)

	return n, err
}

func (r *bytesReader) ReadAt(p []byte, off int64) (int, error) {
	if off < 0 {
		return 0, ErrInvalidOffset
	}

	if len(p) == 0 {
		return 0, nil
	}

	total := int64(r.b.Length())
	if off >= total {
		return 0, io.EOF
	}

	n := 0
	skip := off

	for _, s := range r.b.Slices {
		sl := int64(len(s))

		if skip >= sl {
			skip -= sl
			continue
		}

		c := copy(p[n:], s[skip:])
		n += c
		skip = 0

		if n == len(p) {
			break
		}
	}

	var err error
	if n < len(p) {
		err = io.EOF
	}

	return n, err
}

func (r *bytesReader) Seek(offset int64, whence int) (int64, error) {
	var newPos int64

	switch whence {
	case io.SeekStart:
		newPos = offset
	case io.SeekCurrent:
		newPos = r.pos + offset
	case io.SeekEnd:
		newPos = int64(r.b.Length()) + offset
	default:
		return 0, errors.Errorf("invalid whence %d", whence)
	}

	if newPos < 0 || newPos > int64(r.b.Length()) {
		return 0, errors.Errorf("invalid seek position %d", newPos)
	}

	r.pos = newPos

	return newPos, nil
}

func (r *bytesReader) Close() error { return nil }
