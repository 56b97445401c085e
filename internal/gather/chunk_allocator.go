// Package gather implements a chunked, contiguous-free-list scratch buffer
// independent of the segment pool: WriteBuffer accumulates appended bytes
// into a handful of fixed-size chunks drawn from one of a few package-level
// chunkAllocators, picked by size, instead of growing a single slice by
// doubling (which would repeatedly copy large payloads). Grounded on the
// teacher's internal/gather package.
package gather

import (
	"context"
	"sync"
	"unsafe"

	"github.com/coldbrewio/iobuf/internal/logging"
)

var log = logging.Module("gather") //nolint:gochecknoglobals

// chunkAllocator is a LIFO free list of same-capacity []byte chunks, capped
// at maxFreeListSize entries (0 means unbounded).
type chunkAllocator struct {
	mu sync.Mutex

	chunkSize       int
	maxFreeListSize int

	freeList              [][]byte
	freeListHighWaterMark int
}

func (a *chunkAllocator) allocChunk() []byte {
	a.mu.Lock()

	var c []byte

	if n := len(a.freeList); n > 0 {
		c = a.freeList[n-1]
		a.freeList = a.freeList[:n-1]
	}

	a.mu.Unlock()

	if c == nil {
		c = make([]byte, 0, a.chunkSize)
	}

	trackAlloc(c)

	return c
}

func (a *chunkAllocator) releaseChunk(c []byte) {
	trackRelease(c)

	a.mu.Lock()
	defer a.mu.Unlock()

	if a.maxFreeListSize > 0 && len(a.freeList) >= a.maxFreeListSize {
		return
	}

	a.freeList = append(a.freeList, c[:0]) //nolint:gocritic

	if len(a.freeList) > a.freeListHighWaterMark {
		a.freeListHighWaterMark = len(a.freeList)
	}
}

// Allocator tiers, smallest to largest. defaultAllocator backs ordinary
// Append() traffic; typicalContiguousAllocator and maxContiguousAllocator
// back MakeContiguous() requests of increasing size, sized so
// maxContiguousAllocator comfortably covers the largest chunk any
// registered splitter can ever produce (see TestContigAllocatorChunkSize).
var ( //nolint:gochecknoglobals
	defaultAllocator = &chunkAllocator{
		chunkSize:       32 << 10,
		maxFreeListSize: 64,
	}
	typicalContiguousAllocator = &chunkAllocator{
		chunkSize:       1 << 20,
		maxFreeListSize: 8,
	}
	maxContiguousAllocator = &chunkAllocator{
		chunkSize:       16 << 20,
		maxFreeListSize: 4,
	}
)

// trackChunkAllocations, when true, records every live chunk allocation so
// DumpStats can report leaks (chunks allocated but never released via
// releaseChunk). Off by default; toggled only by tests.
var trackChunkAllocations bool //nolint:gochecknoglobals

var ( //nolint:gochecknoglobals
	chunkTrackingMu sync.Mutex
	chunkTracking   = map[uintptr]struct{}{}
)

func chunkKey(c []byte) uintptr {
	return uintptr(unsafe.Pointer(unsafe.SliceData(c)))
}

func trackAlloc(c []byte) {
	if !trackChunkAllocations {
		return
	}

	chunkTrackingMu.Lock()
	defer chunkTrackingMu.Unlock()

	chunkTracking[chunkKey(c)] = struct{}{}
}

func trackRelease(c []byte) {
	if !trackChunkAllocations {
		return
	}

	chunkTrackingMu.Lock()
	defer chunkTrackingMu.Unlock()

	delete(chunkTracking, chunkKey(c))
}

// DumpStats logs the number of chunks currently allocated but not yet
// released. It only has anything to report when trackChunkAllocations is
// set, which is not the default.
func DumpStats(ctx context.Context) {
	chunkTrackingMu.Lock()
	alive := len(chunkTracking)
	chunkTrackingMu.Unlock()

	log(ctx).Debugw("chunk allocator stats", "chunksAlive", alive)

	if alive > 0 {
		log(ctx).Debugf("leaked chunk tracking is enabled and %d chunk(s) are still alive", alive)
	}
}
