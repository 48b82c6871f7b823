package models

import (
	"fmt"
	"time"
)

// Intent is the closed set of analysis types the interpreter can produce.
type Intent string

const (
	IntentFailureAnalysis     Intent = "failure_analysis"
	IntentPerformanceAnalysis Intent = "performance_analysis"
	IntentTrendAnalysis       Intent = "trend_analysis"
	IntentPredictiveAnalysis  Intent = "predictive_analysis"
	IntentGeographicAnalysis  Intent = "geographic_analysis"
	IntentClientAnalysis      Intent = "client_analysis"
	IntentWarehouseAnalysis   Intent = "warehouse_analysis"
	IntentTemporalAnalysis    Intent = "temporal_analysis"
	IntentCapacityPlanning    Intent = "capacity_planning"
	IntentGeneralAnalysis     Intent = "general_analysis"
)

// TimeRange is a half-open interval [From, To) extracted from the query.
type TimeRange struct {
	From time.Time `json:"from"`
	To   time.Time `json:"to"`
}

// Contains reports whether t falls inside the range. Zero bounds are open.
func (tr *TimeRange) Contains(t time.Time) bool {
	if !tr.From.IsZero() && t.Before(tr.From) {
		return false
	}
	if !tr.To.IsZero() && !t.Before(tr.To) {
		return false
	}
	return true
}

// EntitySet holds the entities extracted from a query. Empty slices mean
// "all data" for that dimension.
type EntitySet struct {
	Locations      []string   `json:"locations,omitempty"`
	TimeRange      *TimeRange `json:"time_range,omitempty"`
	Clients        []string   `json:"clients,omitempty"`
	Warehouses     []string   `json:"warehouses,omitempty"`
	FailureReasons []string   `json:"failure_reasons,omitempty"`
	Statuses       []string   `json:"statuses,omitempty"`
}

// Empty reports whether no entity of any kind was extracted.
func (e *EntitySet) Empty() bool {
	return len(e.Locations) == 0 && e.TimeRange == nil &&
		len(e.Clients) == 0 && len(e.Warehouses) == 0 &&
		len(e.FailureReasons) == 0 && len(e.Statuses) == 0
}

// AnalyzeRequest is the single inbound operation's payload.
type AnalyzeRequest struct {
	Query string `json:"query"`
}

// Validate rejects empty queries; everything else is interpretable.
func (r *AnalyzeRequest) Validate() error {
	if r.Query == "" {
		return fmt.Errorf("query cannot be empty")
	}
	return nil
}
