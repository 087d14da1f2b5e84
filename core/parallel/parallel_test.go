package parallel

import (
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParallelizeCoversAllItems(t *testing.T) {
	for _, items := range []int{0, 1, 7, 100, 1000} {
		var covered int64
		Parallelize(items, func(start, end int) {
			atomic.AddInt64(&covered, int64(end-start))
		})
		assert.EqualValues(t, items, covered, "items=%d", items)
	}
}

func TestParallelizeRangesAreDisjoint(t *testing.T) {
	const items = 523
	seen := make([]int32, items)
	ParallelizeWithWorkers(items, 8, func(start, end int) {
		for i := start; i < end; i++ {
			atomic.AddInt32(&seen[i], 1)
		}
	})
	for i, count := range seen {
		assert.EqualValues(t, 1, count, "item %d visited %d times", i, count)
	}
}

func TestSingleWorkerRunsInline(t *testing.T) {
	calls := 0
	ParallelizeWithWorkers(50, 1, func(start, end int) {
		calls++
		assert.Equal(t, 0, start)
		assert.Equal(t, 50, end)
	})
	assert.Equal(t, 1, calls)
}

func TestParallelizeWithThreshold(t *testing.T) {
	calls := 0
	ParallelizeWithThreshold(10, 100, func(start, end int) {
		calls++
	})
	assert.Equal(t, 1, calls, "below threshold runs sequentially in one call")
}
