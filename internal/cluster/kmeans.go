package cluster

import (
	"math"
	"math/rand"
)

const maxIterations = 50

// KMeans partitions vectors into k clusters with a pinned seed so repeated
// runs on identical input produce identical assignments. Returns nil and
// false when len(vectors) <= minSamples: clustering a handful of points is
// statistically meaningless, and the pipeline falls back to frequency and
// similarity patterns instead.
func KMeans(vectors [][]float32, k, minSamples int, seed int64) ([]int, bool) {
	n := len(vectors)
	if n <= minSamples {
		return nil, false
	}
	if k <= 0 {
		k = 5
	}
	if k > n {
		k = n
	}

	rng := rand.New(rand.NewSource(seed))

	// Initial centroids: k distinct points chosen by the seeded generator.
	perm := rng.Perm(n)
	dims := len(vectors[0])
	centroids := make([][]float64, k)
	for i := 0; i < k; i++ {
		centroids[i] = make([]float64, dims)
		for d, v := range vectors[perm[i]] {
			centroids[i][d] = float64(v)
		}
	}

	assignments := make([]int, n)
	for iter := 0; iter < maxIterations; iter++ {
		changed := false
		for i, vec := range vectors {
			best := nearestCentroid(vec, centroids)
			if best != assignments[i] {
				assignments[i] = best
				changed = true
			}
		}
		if !changed && iter > 0 {
			break
		}

		counts := make([]int, k)
		sums := make([][]float64, k)
		for c := 0; c < k; c++ {
			sums[c] = make([]float64, dims)
		}
		for i, vec := range vectors {
			c := assignments[i]
			counts[c]++
			for d, v := range vec {
				sums[c][d] += float64(v)
			}
		}
		for c := 0; c < k; c++ {
			if counts[c] == 0 {
				// Empty cluster keeps its centroid; members are treated as
				// noise downstream anyway.
				continue
			}
			for d := range sums[c] {
				centroids[c][d] = sums[c][d] / float64(counts[c])
			}
		}
	}
	return assignments, true
}

func nearestCentroid(vec []float32, centroids [][]float64) int {
	best := 0
	bestDist := math.MaxFloat64
	for c, centroid := range centroids {
		var dist float64
		for d, v := range vec {
			diff := float64(v) - centroid[d]
			dist += diff * diff
		}
		if dist < bestDist {
			bestDist = dist
			best = c
		}
	}
	return best
}

// Sizes returns the member count per cluster id.
func Sizes(assignments []int, k int) []int {
	counts := make([]int, k)
	for _, a := range assignments {
		if a >= 0 && a < k {
			counts[a]++
		}
	}
	return counts
}
