package models

import "time"

// BusinessImpact quantifies the per-incident cost of a root cause.
type BusinessImpact struct {
	CostPerIncident   float64 `json:"cost_per_incident"`
	SatisfactionDelta float64 `json:"customer_satisfaction_impact"`
	EfficiencyLoss    float64 `json:"operational_efficiency_loss"`
}

// RootCause is one synthesized explanatory cause. TemplateID is the
// normalized identity used for dedup; two causes with the same TemplateID
// are merged, never returned side by side.
type RootCause struct {
	Cause               string         `json:"cause"`
	TemplateID          string         `json:"template_id"`
	Confidence          float64        `json:"confidence"`
	Impact              Severity       `json:"impact"`
	Evidence            string         `json:"evidence"`
	ContributingFactors []string       `json:"contributing_factors"`
	BusinessImpact      BusinessImpact `json:"business_impact"`
	AffectedOrders      int            `json:"affected_orders"`

	RecordIDs []string `json:"-"`
}

// Recommendation is one prioritized, costed action derived from a root cause.
type Recommendation struct {
	Title                  string   `json:"title"`
	Priority               Severity `json:"priority"`
	Description            string   `json:"description"`
	InvestmentRequired     string   `json:"investment_required"`
	ExpectedImpact         string   `json:"expected_impact"`
	ImplementationTimeline string   `json:"implementation_timeline"`
	SuccessMetrics         []string `json:"success_metrics"`

	// ImpactScore orders recommendations within a priority tier.
	ImpactScore float64 `json:"-"`
}

// ImpactAnalysis aggregates root causes without double-counting orders.
type ImpactAnalysis struct {
	TotalAffectedOrders             int     `json:"total_affected_orders"`
	EstimatedCostSavings            float64 `json:"estimated_cost_savings"`
	CustomerSatisfactionImprovement float64 `json:"customer_satisfaction_improvement"`
}

// DataSummary describes the filtered dataset the analysis ran over.
type DataSummary struct {
	TotalOrders       int            `json:"total_orders"`
	FailedOrders      int            `json:"failed_orders"`
	SuccessRate       float64        `json:"success_rate"`
	TopFailureReasons map[string]int `json:"top_failure_reasons,omitempty"`
	TopCities         map[string]int `json:"top_cities,omitempty"`
	FleetLogs         int            `json:"fleet_logs"`
	ExternalFactors   int            `json:"external_factors"`
	Feedback          int            `json:"feedback"`
	RelaxationPath    []string       `json:"relaxation_path,omitempty"`
}

// ModelInfo reports the fixed analysis parameters for reproducibility.
type ModelInfo struct {
	SentenceModel       string  `json:"sentence_transformer"`
	EmbeddingDimensions int     `json:"embedding_dimensions"`
	SimilarityThreshold float64 `json:"similarity_threshold"`
	KMeansClusters      int     `json:"kmeans_clusters"`
	ClusterSeed         int64   `json:"cluster_seed"`
}

// AnalysisResponse is the full response for one analyze request.
type AnalysisResponse struct {
	QueryID            string           `json:"query_id"`
	OriginalQuery      string           `json:"original_query"`
	InterpretedQuery   string           `json:"interpreted_query"`
	AnalysisType       Intent           `json:"analysis_type"`
	ConfidenceScore    float64          `json:"confidence_score"`
	DegradedMode       bool             `json:"degraded_mode"`
	QueryEntities      EntitySet        `json:"query_entities"`
	DataSummary        DataSummary      `json:"relevant_data_summary"`
	PatternsIdentified PatternGroups    `json:"patterns_identified"`
	RootCauses         []RootCause      `json:"root_causes"`
	Recommendations    []Recommendation `json:"recommendations"`
	ImpactAnalysis     ImpactAnalysis   `json:"impact_analysis"`
	ModelInfo          ModelInfo        `json:"model_info"`
	ProcessingTimeMS   int64            `json:"processing_time_ms"`
	Timestamp          time.Time        `json:"timestamp"`
}
