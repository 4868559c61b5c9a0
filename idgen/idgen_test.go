package idgen_test

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/syssam/rowbase/idgen"
)

func TestLongStrategySequential(t *testing.T) {
	s := idgen.NewLongStrategy(0)
	require.Equal(t, int64(1), s.Next())
	require.Equal(t, int64(2), s.Next())
}

func TestLongStrategyConcurrentUnique(t *testing.T) {
	s := idgen.NewLongStrategy(0)
	const n = 1000
	seen := make([]int64, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			seen[i] = s.Next()
		}(i)
	}
	wg.Wait()

	set := make(map[int64]struct{}, n)
	for _, id := range seen {
		set[id] = struct{}{}
	}
	require.Len(t, set, n)
}

func TestLongStrategyObserveAdvancesCounter(t *testing.T) {
	s := idgen.NewLongStrategy(0)
	s.Observe(100)
	require.Equal(t, int64(101), s.Next())

	s.Observe(5) // observing a lower value must never move the counter backwards
	require.Equal(t, int64(102), s.Next())
}

func TestUUIDStrategyProducesDistinctValues(t *testing.T) {
	s := idgen.NewUUIDStrategy()
	a, b := s.Next(), s.Next()
	require.NotEqual(t, a, b)
}
