// Package splitter implements content-defined chunking: Splitter decides,
// byte by byte, where a content stream should be cut into chunks, either
// on a fixed cadence or wherever a rolling hash of the trailing window
// matches a mask — the latter making chunk boundaries stable under
// insertions and deletions elsewhere in the stream. Grounded on the
// teacher's repo/splitter package and its rolling-hash choice of
// github.com/chmduquesne/rollinghash.
package splitter

import (
	"github.com/chmduquesne/rollinghash/buzhash32"
	"github.com/chmduquesne/rollinghash/rabinkarp64"

	"github.com/coldbrewio/iobuf/internal/freepool"
)

// Splitter finds split points in a content stream.
type Splitter struct {
	impl splitterImpl
}

// splitterImpl is the underlying per-algorithm strategy. Extracted from
// Splitter so Close can return a pooled implementation without exposing
// pooling to callers.
type splitterImpl interface {
	// nextSplitPoint returns the offset (1-based count of bytes
	// consumed, i.e. "cut after this many bytes") of the next split
	// point found in data, or -1 if none is found; data is consumed up
	// to whatever point is returned, and the splitter retains internal
	// state across calls so it can be fed one slice at a time.
	nextSplitPoint(data []byte) int
	maxSegmentSize() int
	reset()
}

// Factory constructs a new, freshly reset Splitter.
type Factory func() *Splitter

// NextSplitPoint feeds data into the splitter and returns the offset of
// the next split point relative to the start of data, or -1 if data ends
// before one is found. A caller advances by that many bytes and calls
// NextSplitPoint again with the remainder.
func (s *Splitter) NextSplitPoint(data []byte) int {
	return s.impl.nextSplitPoint(data)
}

// MaxSegmentSize returns the largest chunk size this splitter can ever
// produce.
func (s *Splitter) MaxSegmentSize() int {
	return s.impl.maxSegmentSize()
}

// Close releases the splitter back to its pool, if it came from one. A
// Splitter obtained directly from a non-pooled Factory treats Close as a
// no-op.
func (s *Splitter) Close() {
	if r, ok := s.impl.(interface{ release() }); ok {
		r.release()
	}
}

// Fixed returns a Factory producing splitters that cut every chunkSize
// bytes, regardless of content.
func Fixed(chunkSize int) Factory {
	return func() *Splitter {
		return &Splitter{impl: &fixedSplitter{chunkSize: chunkSize}}
	}
}

type fixedSplitter struct {
	chunkSize int
	pos       int
}

func (f *fixedSplitter) nextSplitPoint(data []byte) int {
	remaining := f.chunkSize - f.pos
	if remaining <= len(data) {
		f.pos = 0

		return remaining
	}

	f.pos += len(data)

	return -1
}

func (f *fixedSplitter) maxSegmentSize() int { return f.chunkSize }

func (f *fixedSplitter) reset() { f.pos = 0 }

// rollingWindowSplitter is the shared implementation behind the
// buzhash32- and rabinkarp64-backed factories: it hashes a sliding window
// of width bytes and cuts whenever the low bits of the hash match a mask
// sized to average out to roughly width bytes per chunk.
type rollingWindowSplitter struct {
	h        rollingHash
	width    int
	mask     uint64
	min, max int
	fed      int
	segLen   int
}

// rollingHash normalizes buzhash32.Buzhash32 (a rollinghash.Hash32, whose
// checksum is Sum32) and rabinkarp64.RabinKarp64 (a rollinghash.Hash64,
// whose checksum is Sum64) to a single uint64 accessor, so
// rollingWindowSplitter can mask either one the same way.
type rollingHash interface {
	Write([]byte) (int, error)
	Roll(byte)
	Reset()
	sum() uint64
}

// buzhash32Adapter widens buzhash32's 32-bit checksum to rollingHash.
type buzhash32Adapter struct{ *buzhash32.Buzhash32 }

func (a buzhash32Adapter) sum() uint64 { return uint64(a.Sum32()) }

// rabinKarp64Adapter exposes rabinkarp64's checksum as rollingHash.
type rabinKarp64Adapter struct{ *rabinkarp64.RabinKarp64 }

func (a rabinKarp64Adapter) sum() uint64 { return a.Sum64() }

func newRollingWindowSplitter(h rollingHash, width int) *rollingWindowSplitter {
	// min is width/2, and the mask is sized so a match occurs on
	// average every width/2 bytes once min is reached, putting the
	// overall average chunk size (min + expected-bytes-to-match) at
	// roughly width.
	bits := 0
	for v := width / 2; v > 1; v >>= 1 {
		bits++
	}

	return &rollingWindowSplitter{
		h:     h,
		width: width,
		mask:  1<<uint(bits) - 1, //nolint:gosec
		min:   width / 2,
		max:   width * 2,
	}
}

func (s *rollingWindowSplitter) nextSplitPoint(data []byte) int {
	for i, b := range data {
		s.fed++
		s.segLen++

		if s.fed <= s.width {
			s.h.Write([]byte{b}) //nolint:errcheck
		} else {
			s.h.Roll(b)
		}

		if s.segLen < s.min {
			continue
		}

		if s.segLen >= s.max {
			n := i + 1
			s.segLen = 0

			return n
		}

		if s.fed >= s.width && s.h.sum()&s.mask == s.mask {
			n := i + 1
			s.segLen = 0

			return n
		}
	}

	return -1
}

func (s *rollingWindowSplitter) maxSegmentSize() int { return s.max }

func (s *rollingWindowSplitter) reset() {
	s.h.Reset()
	s.fed = 0
	s.segLen = 0
}

func newBuzHash32SplitterFactory(width int) Factory {
	return func() *Splitter {
		return &Splitter{impl: newRollingWindowSplitter(buzhash32Adapter{buzhash32.New()}, width)}
	}
}

func newRabinKarp64SplitterFactory(width int) Factory {
	return func() *Splitter {
		return &Splitter{impl: newRollingWindowSplitter(rabinKarp64Adapter{rabinkarp64.New()}, width)}
	}
}

// pooledImpl wraps a splitterImpl with a freepool.Pool of same-shaped
// instances so repeated NextSplitPoint/Close cycles (one per object being
// chunked) do not re-allocate rolling-hash state every time.
type pooledImpl struct {
	splitterImpl
	pool *freepool.Pool[splitterImpl]
}

func (p *pooledImpl) release() {
	p.pool.Return(p.splitterImpl)
}

// pooled wraps factory so every Splitter it returns is backed by a
// freepool.Pool: Close returns the underlying implementation to the pool
// instead of discarding it, resetting it first so the next Take starts
// clean.
func pooled(factory Factory) Factory {
	pool := freepool.New(
		func() splitterImpl { return factory().impl },
		func(impl splitterImpl) { impl.reset() },
	)

	return func() *Splitter {
		return &Splitter{impl: &pooledImpl{splitterImpl: pool.Take(), pool: pool}}
	}
}
