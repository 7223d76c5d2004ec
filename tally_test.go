package cfr

import (
	"math"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRegretMatchingPolicy(t *testing.T) {
	t.Run("sums to one", func(t *testing.T) {
		for n := 1; n <= 6; n++ {
			tally := newTally(0, 0, 0, n)
			for a := 1; a <= n; a++ {
				tally.IncrementRegret(byte(a), float64(a*a)-4)
			}

			policy := make([]float64, n)
			tally.RegretMatchingPolicy(policy)
			var total float64
			for _, p := range policy {
				require.GreaterOrEqual(t, p, 0.0)
				total += p
			}
			require.InDelta(t, 1.0, total, 1e-9)
		}
	})

	t.Run("uniform without positive regret", func(t *testing.T) {
		tally := newTally(0, 0, 0, 4)
		tally.IncrementRegret(1, -3)
		tally.IncrementRegret(3, -0.5)

		policy := make([]float64, 4)
		tally.RegretMatchingPolicy(policy)
		require.Equal(t, []float64{0.25, 0.25, 0.25, 0.25}, policy)
	})

	t.Run("proportional to positive regret", func(t *testing.T) {
		tally := newTally(0, 0, 0, 3)
		tally.IncrementRegret(1, 1)
		tally.IncrementRegret(2, -7)
		tally.IncrementRegret(3, 3)

		policy := make([]float64, 3)
		tally.RegretMatchingPolicy(policy)
		require.InDeltaSlice(t, []float64{0.25, 0, 0.75}, policy, 1e-12)
	})

	t.Run("buffer too small", func(t *testing.T) {
		tally := newTally(0, 0, 0, 3)
		require.Panics(t, func() { tally.RegretMatchingPolicy(make([]float64, 2)) })
	})
}

func TestPositiveRegret(t *testing.T) {
	tally := newTally(0, 0, 0, 2)
	tally.IncrementRegret(1, 5)
	tally.IncrementRegret(1, -2)
	require.Equal(t, 3.0, tally.PositiveRegret(1))

	tally.IncrementRegret(2, -5)
	require.Equal(t, 0.0, tally.PositiveRegret(2))
	require.Equal(t, -5.0, tally.Regret(2))
	require.Equal(t, 3.0, tally.SumPositiveRegret())
}

func TestActionOutOfRange(t *testing.T) {
	tally := newTally(0, 0, 0, 2)
	require.Panics(t, func() { tally.IncrementRegret(0, 1) })
	require.Panics(t, func() { tally.IncrementRegret(3, 1) })
	require.Panics(t, func() { tally.CumulativeStrategy(3) })
}

func TestRegretMatchingWithPruningPolicy(t *testing.T) {
	tally := newTally(0, 0, 0, 3)
	tally.IncrementRegret(1, 1e-7)
	tally.IncrementRegret(2, 1)
	tally.IncrementRegret(3, 1)

	policy := make([]float64, 3)
	tally.RegretMatchingWithPruningPolicy(policy)
	require.Equal(t, 0.0, policy[0])
	require.InDelta(t, 0.5, policy[1], 1e-12)
	require.InDelta(t, 0.5, policy[2], 1e-12)

	empty := newTally(0, 0, 0, 2)
	empty.RegretMatchingWithPruningPolicy(policy)
	require.Equal(t, []float64{0.5, 0.5}, policy[:2])
}

func TestAverageStrategyPolicy(t *testing.T) {
	tally := newTally(0, 0, 0, 2)
	policy := make([]float64, 2)
	tally.AverageStrategyPolicy(policy)
	require.Equal(t, []float64{0.5, 0.5}, policy)

	tally.IncrementCumulativeStrategy(1, 1)
	tally.IncrementCumulativeStrategy(2, 3)
	tally.AverageStrategyPolicy(policy)
	require.InDeltaSlice(t, []float64{0.25, 0.75}, policy, 1e-12)
}

func TestSampleActionByRegretMatching(t *testing.T) {
	tally := newTally(0, 0, 0, 3)
	require.Equal(t, byte(1), tally.SampleActionByRegretMatching(0.0))
	require.Equal(t, byte(2), tally.SampleActionByRegretMatching(0.5))
	require.Equal(t, byte(3), tally.SampleActionByRegretMatching(0.999999))

	tally.IncrementRegret(1, 1)
	tally.IncrementRegret(2, -1)
	tally.IncrementRegret(3, 3)
	require.Equal(t, byte(1), tally.SampleActionByRegretMatching(0.1))
	require.Equal(t, byte(3), tally.SampleActionByRegretMatching(0.3))
	require.Equal(t, byte(3), tally.SampleActionByRegretMatching(1.0))
}

func TestDiscount(t *testing.T) {
	tally := newTally(0, 0, 0, 2)
	tally.IncrementRegret(1, 4)
	tally.IncrementRegret(2, -4)
	tally.IncrementCumulativeStrategy(1, 2)

	tally.Discount(0.5, 0.25, 0.1)
	require.Equal(t, 2.0, tally.Regret(1))
	require.Equal(t, -1.0, tally.Regret(2))
	require.InDelta(t, 0.2, tally.CumulativeStrategy(1), 1e-12)
}

func TestConcurrentIncrements(t *testing.T) {
	tally := newTally(0, 0, 0, 2)
	const workers = 8
	const increments = 1000

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < increments; j++ {
				tally.IncrementRegret(1, 0.5)
				tally.IncrementCumulativeStrategy(2, 1)
			}
		}()
	}
	wg.Wait()

	require.Equal(t, workers*increments*0.5, tally.Regret(1))
	require.Equal(t, float64(workers*increments), tally.CumulativeStrategy(2))
}

func BenchmarkRegretMatchingPolicy(b *testing.B) {
	tally := newTally(0, 0, 0, 8)
	for a := 1; a <= 8; a++ {
		tally.IncrementRegret(byte(a), math.Sin(float64(a)))
	}

	policy := make([]float64, 8)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		tally.RegretMatchingPolicy(policy)
	}
}
