// Package segment implements the fixed-capacity byte pages that back Buffer
// (see the buffer package) and the process-wide pool that recycles them.
//
// A Segment is a page of exactly Size bytes with a readable window
// [Pos, Limit). Segments live on an intrusive circular doubly-linked list
// owned by exactly one Buffer; a Segment may additionally be "shared",
// meaning its Data slice aliases another Segment's backing array and must
// never be written to. Segment's fields and ring operations are exported
// deliberately, in the manner of container/list.Element: this package
// exists to be driven by the buffer package, not to hide its internals
// from it.
package segment

import "github.com/pkg/errors"

// Size is SEGMENT_SIZE: the fixed capacity of every Segment's backing array.
const Size = 2048

// ShareMinimum is the byte count above which Split performs a shared split
// (alias the backing array) instead of copying into a fresh Segment.
const ShareMinimum = 1024

// Segment is a single fixed-capacity page of bytes with head/tail cursors.
//
// Segment is never safe for concurrent use: it is owned by exactly one
// Buffer (plus, for shared segments, read-only aliasing by other Buffers'
// segments that will never write through it).
type Segment struct {
	Data []byte

	Pos   int
	Limit int

	Shared bool
	Owner  bool

	Next, Prev *Segment
}

// New returns a fresh, empty, owned, non-shared Segment with its own backing
// array. Prefer Take over calling New directly so backing arrays get
// recycled through the pool.
func New() *Segment {
	return &Segment{
		Data:  make([]byte, Size),
		Owner: true,
	}
}

// Len returns the number of readable bytes currently held by s.
func (s *Segment) Len() int {
	return s.Limit - s.Pos
}

// Bytes returns the currently readable window of s. The returned slice must
// not be retained past the next mutation of s.
func (s *Segment) Bytes() []byte {
	return s.Data[s.Pos:s.Limit]
}

// SharedView returns a new Segment that aliases s's backing array over the
// same [Pos, Limit) window, marking both s and the returned view Shared and
// non-Owner.
func (s *Segment) SharedView() *Segment {
	s.Shared = true
	s.Owner = false

	return &Segment{
		Data:   s.Data,
		Pos:    s.Pos,
		Limit:  s.Limit,
		Shared: true,
		Owner:  false,
	}
}

// Push inserts seg between tail and tail.Next and returns seg. If tail is
// nil the returned seg is a singleton ring (seg.Next == seg.Prev == seg);
// linking it in as a Buffer's head is the caller's responsibility.
func Push(tail, seg *Segment) *Segment {
	if tail == nil {
		seg.Next = seg
		seg.Prev = seg

		return seg
	}

	seg.Prev = tail
	seg.Next = tail.Next
	tail.Next.Prev = seg
	tail.Next = seg

	return seg
}

// Pop detaches s from its ring and returns the former next segment, or nil
// if the ring collapses (s was the only member).
func (s *Segment) Pop() *Segment {
	var result *Segment
	if s.Next != s {
		result = s.Next
	}

	s.Prev.Next = s.Next
	s.Next.Prev = s.Prev

	s.Next = nil
	s.Prev = nil

	return result
}

// Split divides s into a prefix Segment of byteCount bytes (linked in
// immediately before s) and shrinks s in place to hold the suffix. It
// returns the new prefix segment.
//
// When byteCount >= ShareMinimum the prefix aliases s's backing array (a
// "shared split"); both segments become Shared/non-Owner. Otherwise the
// prefix bytes are copied into a freshly allocated segment, leaving s
// untouched other than its Pos advancing.
func (s *Segment) Split(byteCount int) *Segment {
	if byteCount <= 0 || byteCount > s.Len() {
		panic("segment: split byteCount out of range")
	}

	var prefix *Segment

	if byteCount >= ShareMinimum {
		prefix = s.SharedView()
		prefix.Limit = prefix.Pos + byteCount
		s.Pos += byteCount
	} else {
		prefix = New()
		n := copy(prefix.Data, s.Data[s.Pos:s.Pos+byteCount])
		prefix.Limit = n
		s.Pos += byteCount
	}

	prefix.Prev = s.Prev
	prefix.Next = s
	s.Prev.Next = prefix
	s.Prev = prefix

	return prefix
}

// Compact shifts s's readable bytes down to offset 0, reclaiming leading
// free space. It fails if s is not an owned, non-shared segment.
func (s *Segment) Compact() error {
	if !s.Owner || s.Shared {
		return errors.New("segment: cannot compact a shared or non-owner segment")
	}

	n := copy(s.Data, s.Data[s.Pos:s.Limit])
	s.Pos = 0
	s.Limit = n

	return nil
}

// WriteTo moves byteCount bytes from s into sink, advancing s.Pos and
// sink.Limit. If sink cannot directly accept the append (it is not owned,
// or the append would overflow Size), WriteTo first attempts to compact
// sink in place; if that is not possible it fails.
func (s *Segment) WriteTo(sink *Segment, byteCount int) error {
	if byteCount <= 0 || byteCount > s.Len() {
		return errors.New("segment: writeTo byteCount out of range")
	}

	if !sink.Owner || sink.Limit+byteCount > Size {
		if sink.Shared || !sink.Owner {
			return errors.New("segment: sink cannot accept append")
		}

		if sink.Limit-sink.Pos+byteCount > Size {
			return errors.New("segment: sink cannot accept append")
		}

		if err := sink.Compact(); err != nil {
			return err
		}
	}

	n := copy(sink.Data[sink.Limit:], s.Data[s.Pos:s.Pos+byteCount])
	sink.Limit += n
	s.Pos += n

	return nil
}
