package segment

import "sync"

// MaxSize is the SegmentPool cap: the maximum number of bytes the pool will
// hold onto across all recycled segments at any one time.
const MaxSize = 65536

// pool is the process-wide free list of recycled Segments. It is lazily
// initialised (the zero value is ready to use) and guarded by a plain
// mutex, matching the teacher's chunk-allocator package (internal/gather),
// which likewise does not reach for an atomic or lock-free stack for what
// is an O(1) critical section.
type pool struct {
	mu        sync.Mutex
	free      *Segment // singly linked via Next; Prev/Shared/Owner unused while pooled
	byteCount int
}

var globalPool pool //nolint:gochecknoglobals

// Take returns a fresh, empty, owned, non-shared Segment: recycled from the
// pool if one is available, or freshly allocated otherwise.
func Take() *Segment {
	globalPool.mu.Lock()

	if s := globalPool.free; s != nil {
		globalPool.free = s.Next
		s.Next = nil
		globalPool.byteCount -= Size
		globalPool.mu.Unlock()

		return s
	}

	globalPool.mu.Unlock()

	return New()
}

// Recycle returns seg to the pool for future reuse by Take, provided the
// pool is below MaxSize and seg is an owned, non-shared segment with no
// outstanding aliases. Any other segment is simply dropped (left for the
// garbage collector).
func Recycle(seg *Segment) {
	if seg.Shared || !seg.Owner {
		return
	}

	globalPool.mu.Lock()
	defer globalPool.mu.Unlock()

	if globalPool.byteCount+Size > MaxSize {
		return
	}

	seg.Pos = 0
	seg.Limit = 0
	seg.Prev = nil
	seg.Next = globalPool.free

	globalPool.free = seg
	globalPool.byteCount += Size
}

// PoolByteCount reports the number of bytes currently held by the recycling
// pool. It exists for tests and diagnostics; 0 <= PoolByteCount() <= MaxSize
// always holds.
func PoolByteCount() int {
	globalPool.mu.Lock()
	defer globalPool.mu.Unlock()

	return globalPool.byteCount
}
