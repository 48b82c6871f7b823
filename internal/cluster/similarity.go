// Package cluster provides cosine similarity matching and seeded partitional
// clustering over normalized embedding vectors.
package cluster

import (
	"math"
	"sort"

	"github.com/hyperjump/naze/internal/models"
)

// CosineSimilarity returns cosine similarity between two normalized vectors, clamped to [0, 1].
func CosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot float64
	for i := range a {
		dot += float64(a[i] * b[i])
	}
	return math.Max(0, math.Min(1, dot))
}

// Candidate is one categorical value with its embedding and the records carrying it.
type Candidate struct {
	Value     string
	Category  string
	Vector    []float32
	RecordIDs []string
}

// Matches compares each candidate against the reference vector and returns
// those at or above threshold, sorted by score descending. Ties break on
// value so output is stable for identical input.
func Matches(reference []float32, candidates []Candidate, threshold float64) []models.SimilarityMatch {
	var out []models.SimilarityMatch
	for _, c := range candidates {
		score := CosineSimilarity(reference, c.Vector)
		if score >= threshold {
			out = append(out, models.SimilarityMatch{
				Value:     c.Value,
				Category:  c.Category,
				Score:     score,
				RecordIDs: c.RecordIDs,
			})
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].Value < out[j].Value
	})
	return out
}
