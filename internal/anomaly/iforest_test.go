package anomaly

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestIsolationForestOutlierScoresHigher(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	values := make([]float64, 200)
	for i := range values {
		values[i] = rng.NormFloat64()
	}
	values = append(values, 15) // far outside the cluster

	forest := fitIsolationForest(values, 100, 42)
	outlier := forest.Score(15)
	inlier := forest.Score(0)
	require.Greater(t, outlier, inlier)
	require.Greater(t, outlier, 0.6)
	require.Less(t, inlier, 0.6)
}

func TestIsolationForestScoreRange(t *testing.T) {
	values := []float64{-2, -1, 0, 1, 2, 3, 4, 5, 100}
	forest := fitIsolationForest(values, 50, 42)
	for _, v := range values {
		s := forest.Score(v)
		require.Greater(t, s, 0.0)
		require.Less(t, s, 1.0)
	}
}

func TestIsolationForestDeterministic(t *testing.T) {
	rng := rand.New(rand.NewSource(2))
	values := make([]float64, 300)
	for i := range values {
		values[i] = rng.NormFloat64() * 10
	}

	a := fitIsolationForest(values, 100, 42)
	b := fitIsolationForest(values, 100, 42)
	for _, v := range values {
		require.Equal(t, a.Score(v), b.Score(v))
	}
}

func TestScoreQuantile(t *testing.T) {
	scores := make([]float64, 100)
	for i := range scores {
		scores[i] = float64(i) / 100
	}

	threshold := scoreQuantile(scores, 0.05)
	above := 0
	for _, s := range scores {
		if s > threshold {
			above++
		}
	}
	// exactly the contamination share sits above the threshold
	require.Equal(t, 5, above)
}

func TestScoreQuantileShortInput(t *testing.T) {
	// too few scores for the contamination share to round to one: the
	// maximum must still sit above the threshold
	scores := []float64{0.40, 0.41, 0.42, 0.43, 0.44, 0.45, 0.46, 0.47, 0.48, 0.49, 0.50, 0.51, 0.52, 0.90}
	threshold := scoreQuantile(scores, 0.05)
	require.Less(t, threshold, 0.90)
	require.GreaterOrEqual(t, threshold, 0.52)
}

func TestAvgPathLength(t *testing.T) {
	require.Zero(t, avgPathLength(1))
	require.Greater(t, avgPathLength(100), avgPathLength(10))
}
