package anomaly

import (
	"math"
	"math/rand"
	"sort"
)

// isolationForest is a one-dimensional isolation forest over the residual
// distribution. Outliers isolate in fewer random splits, so shorter average
// path lengths map to scores closer to 1. The RNG is seeded so repeated runs
// on identical input produce bit-identical scores.
type isolationForest struct {
	trees     []*isoNode
	subsample int
}

type isoNode struct {
	split       float64
	left, right *isoNode
	size        int
}

const (
	defaultTrees     = 100
	defaultSubsample = 256
)

func fitIsolationForest(values []float64, trees int, seed int64) *isolationForest {
	if trees <= 0 {
		trees = defaultTrees
	}
	rng := rand.New(rand.NewSource(seed))

	sub := defaultSubsample
	if sub > len(values) {
		sub = len(values)
	}
	maxDepth := int(math.Ceil(math.Log2(float64(sub))))

	f := &isolationForest{subsample: sub}
	sample := make([]float64, sub)
	for t := 0; t < trees; t++ {
		for i := range sample {
			sample[i] = values[rng.Intn(len(values))]
		}
		f.trees = append(f.trees, buildIsoTree(sample, 0, maxDepth, rng))
	}
	return f
}

func buildIsoTree(sample []float64, depth, maxDepth int, rng *rand.Rand) *isoNode {
	if depth >= maxDepth || len(sample) <= 1 {
		return &isoNode{size: len(sample)}
	}
	lo, hi := sample[0], sample[0]
	for _, v := range sample[1:] {
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	if lo == hi {
		return &isoNode{size: len(sample)}
	}

	split := lo + rng.Float64()*(hi-lo)
	var left, right []float64
	for _, v := range sample {
		if v < split {
			left = append(left, v)
		} else {
			right = append(right, v)
		}
	}
	return &isoNode{
		split: split,
		left:  buildIsoTree(left, depth+1, maxDepth, rng),
		right: buildIsoTree(right, depth+1, maxDepth, rng),
	}
}

// Score returns the anomaly score in (0, 1) for a single value.
func (f *isolationForest) Score(v float64) float64 {
	var sum float64
	for _, tree := range f.trees {
		sum += pathLength(tree, v, 0)
	}
	avg := sum / float64(len(f.trees))
	return math.Pow(2, -avg/avgPathLength(f.subsample))
}

func pathLength(n *isoNode, v float64, depth int) float64 {
	if n.left == nil {
		// external node: add the expected path length of an unbuilt subtree
		return float64(depth) + avgPathLength(n.size)
	}
	if v < n.split {
		return pathLength(n.left, v, depth+1)
	}
	return pathLength(n.right, v, depth+1)
}

// avgPathLength is c(n), the average path length of an unsuccessful BST
// search, used to normalize depths.
func avgPathLength(n int) float64 {
	if n <= 1 {
		return 0
	}
	h := math.Log(float64(n-1)) + 0.5772156649
	return 2*h - 2*float64(n-1)/float64(n)
}

// scoreQuantile returns the threshold with the top `contamination` fraction
// of scores strictly above it. The threshold never lands on the maximum
// score, so the single most anomalous point always clears it regardless of
// series length.
func scoreQuantile(scores []float64, contamination float64) float64 {
	if contamination <= 0 || contamination >= 1 {
		contamination = 0.05
	}
	sorted := make([]float64, len(scores))
	copy(sorted, scores)
	sort.Float64s(sorted)

	idx := int(math.Ceil(float64(len(sorted))*(1-contamination))) - 1
	if idx > len(sorted)-2 {
		idx = len(sorted) - 2
	}
	if idx < 0 {
		idx = 0
	}
	return sorted[idx]
}
