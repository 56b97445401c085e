package segment

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPoolTakeRecycleReuse(t *testing.T) {
	s := Take()
	s.Limit = copy(s.Data, []byte("reused"))

	Recycle(s)

	s2 := Take()
	require.Same(t, s, s2)
	require.Equal(t, 0, s2.Pos)
	require.Equal(t, 0, s2.Limit)
}

func TestPoolDropsSharedSegments(t *testing.T) {
	s := New()
	view := s.SharedView()

	Recycle(view)
	Recycle(s)

	// neither the shared view nor its now-shared origin may re-enter the
	// pool: a concurrent reader might still hold a reference to the
	// aliased backing array.
	require.True(t, s.Shared)
	require.True(t, view.Shared)
}

func TestPoolByteCountBounded(t *testing.T) {
	var wg sync.WaitGroup

	for range 64 {
		wg.Add(1)

		go func() {
			defer wg.Done()

			for range 1000 {
				s := Take()
				Recycle(s)
			}
		}()
	}

	wg.Wait()

	bc := PoolByteCount()
	require.GreaterOrEqual(t, bc, 0)
	require.LessOrEqual(t, bc, MaxSize)
}
