package models

// PatternKind is the closed set of pattern variants.
type PatternKind string

const (
	PatternFrequency PatternKind = "frequency"
	PatternSemantic  PatternKind = "semantic"
	PatternCluster   PatternKind = "cluster"
)

// Severity is a low/medium/high tier used for both patterns and cause impact.
type Severity string

const (
	SeverityLow    Severity = "low"
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"
)

// Weight returns the ranking weight for a severity tier.
func (s Severity) Weight() float64 {
	switch s {
	case SeverityHigh:
		return 1.5
	case SeverityMedium:
		return 1.0
	default:
		return 0.5
	}
}

// SimilarityMatch is one categorical value semantically related to the query,
// with the records that carry it.
type SimilarityMatch struct {
	Value     string   `json:"value"`
	Category  string   `json:"category"`
	Score     float64  `json:"score"`
	RecordIDs []string `json:"-"`
}

// Pattern is a tagged variant: frequency (categorical counts), semantic
// (similarity matches grouped by theme), or cluster (majority attributes of
// one k-means cluster).
type Pattern struct {
	Kind        PatternKind `json:"kind"`
	Category    string      `json:"category"`
	Value       string      `json:"value"`
	Description string      `json:"description"`
	Count       int         `json:"count"`
	Percentage  float64     `json:"percentage"`
	Severity    Severity    `json:"severity"`

	// ClusterID is set for cluster patterns only.
	ClusterID int `json:"cluster_id,omitempty"`
	// Matches is set for semantic patterns only.
	Matches []SimilarityMatch `json:"matches,omitempty"`

	// RecordIDs are the orders supporting this pattern, used downstream to
	// bound affected-order counts without double counting.
	RecordIDs []string `json:"-"`
}

// PatternGroups is the response-facing split of patterns by kind.
type PatternGroups struct {
	Frequency []Pattern `json:"frequency"`
	Semantic  []Pattern `json:"semantic"`
	Cluster   []Pattern `json:"cluster"`
}

// Total returns the number of patterns across all groups.
func (g *PatternGroups) Total() int {
	return len(g.Frequency) + len(g.Semantic) + len(g.Cluster)
}
