package rca

import (
	"math"
	"strings"
	"testing"

	"github.com/hyperjump/naze/internal/feedback"
	"github.com/hyperjump/naze/internal/models"
	"github.com/hyperjump/naze/internal/pattern"
)

func failedOrder(id, city, reason string) models.Record {
	return models.Record{ID: id, Kind: models.KindOrder, City: city, Status: "Failed", FailureReason: reason}
}

func addressData() *models.FilteredDataset {
	orders := []models.Record{
		failedOrder("o1", "Mumbai", "Address not found"),
		failedOrder("o2", "Mumbai", "Address not found"),
		failedOrder("o3", "Delhi", "Address not found"),
	}
	for i := 4; i <= 13; i++ {
		orders = append(orders, models.Record{
			ID: "o" + string(rune('0'+i%10)) + "x", Kind: models.KindOrder,
			City: "Pune", Status: "Delivered", Pincode: "411001", AddressLine2: "Flat 2",
		})
	}
	return &models.FilteredDataset{Orders: orders}
}

func addressPattern(pct float64, ids ...string) models.Pattern {
	return models.Pattern{
		Kind:       models.PatternFrequency,
		Category:   pattern.CategoryFailureReason,
		Value:      "Address not found",
		Count:      len(ids),
		Percentage: pct,
		Severity:   models.SeverityHigh,
		RecordIDs:  ids,
	}
}

func TestSynthesizeAddressCause(t *testing.T) {
	s := NewSynthesizer(83.0, nil)
	data := addressData()
	causes := s.Synthesize([]models.Pattern{addressPattern(23.0, "o1", "o2", "o3")}, data, nil)

	if len(causes) != 1 {
		t.Fatalf("expected 1 cause, got %d", len(causes))
	}
	c := causes[0]
	if c.TemplateID != TemplateAddressQuality {
		t.Fatalf("expected address_quality, got %s", c.TemplateID)
	}
	if c.Cause != "Inaccurate Address Data & Lack of Geo-Validation" {
		t.Errorf("unexpected cause text: %q", c.Cause)
	}
	if c.Confidence != 0.85 || c.Impact != models.SeverityHigh {
		t.Errorf("unexpected confidence/impact: %v/%s", c.Confidence, c.Impact)
	}
	if !strings.Contains(c.Evidence, "23.0%") {
		t.Errorf("evidence should cite the pattern share: %q", c.Evidence)
	}
	if c.AffectedOrders != 3 {
		t.Errorf("expected 3 affected orders, got %d", c.AffectedOrders)
	}
	if c.BusinessImpact.CostPerIncident != 2075.0 { // 25 USD at 83.0
		t.Errorf("unexpected cost per incident: %v", c.BusinessImpact.CostPerIncident)
	}
	// Dynamic factors quantify missing pincode/address data.
	foundDynamic := false
	for _, f := range c.ContributingFactors {
		if strings.Contains(f, "missing a pincode") {
			foundDynamic = true
		}
	}
	if !foundDynamic {
		t.Errorf("expected dynamic pincode factor, got %v", c.ContributingFactors)
	}
}

func TestSynthesizeMergesSameTemplate(t *testing.T) {
	s := NewSynthesizer(83.0, nil)
	data := addressData()
	patterns := []models.Pattern{
		addressPattern(23.0, "o1", "o2", "o3"),
		{
			Kind: models.PatternCluster, Category: pattern.CategoryIncidentCluster,
			Value: "Address not found in Mumbai", Count: 2, Percentage: 15.0,
			Severity: models.SeverityMedium, ClusterID: 1, RecordIDs: []string{"o1", "o2"},
		},
	}
	causes := s.Synthesize(patterns, data, nil)

	if len(causes) != 1 {
		t.Fatalf("same template must merge, got %d causes", len(causes))
	}
	c := causes[0]
	if math.Abs(c.Confidence-0.90) > 1e-9 { // 0.85 + one corroboration boost
		t.Errorf("expected corroboration boost to 0.90, got %v", c.Confidence)
	}
	if !strings.Contains(c.Evidence, "Corroborated by incident_cluster") {
		t.Errorf("evidence should mention corroboration: %q", c.Evidence)
	}
	if c.AffectedOrders != 3 {
		t.Errorf("merged record ids must not double count: %d", c.AffectedOrders)
	}
}

func TestSynthesizeCapsAtThree(t *testing.T) {
	s := NewSynthesizer(83.0, nil)
	data := &models.FilteredDataset{Orders: []models.Record{
		failedOrder("o1", "Mumbai", "Address not found"),
		failedOrder("o2", "Delhi", "Customer not available"),
		failedOrder("o3", "Pune", "Weather delay"),
		failedOrder("o4", "Pune", "Traffic congestion"),
	}}
	patterns := []models.Pattern{
		{Kind: models.PatternFrequency, Category: pattern.CategoryFailureReason, Value: "Address not found", Count: 4, Percentage: 40, Severity: models.SeverityHigh, RecordIDs: []string{"o1"}},
		{Kind: models.PatternFrequency, Category: pattern.CategoryFailureReason, Value: "Customer not available", Count: 3, Percentage: 30, Severity: models.SeverityHigh, RecordIDs: []string{"o2"}},
		{Kind: models.PatternFrequency, Category: pattern.CategoryFailureReason, Value: "Weather delay", Count: 2, Percentage: 20, Severity: models.SeverityMedium, RecordIDs: []string{"o3"}},
		{Kind: models.PatternFrequency, Category: pattern.CategoryFailureReason, Value: "Traffic congestion", Count: 1, Percentage: 10, Severity: models.SeverityLow, RecordIDs: []string{"o4"}},
	}
	causes := s.Synthesize(patterns, data, nil)
	if len(causes) != 3 {
		t.Fatalf("expected cap at 3 causes, got %d", len(causes))
	}
	// Strongest pattern first.
	if causes[0].TemplateID != TemplateAddressQuality {
		t.Errorf("expected address_quality first, got %s", causes[0].TemplateID)
	}
}

func TestSynthesizeFallback(t *testing.T) {
	s := NewSynthesizer(83.0, nil)
	data := &models.FilteredDataset{Orders: []models.Record{
		failedOrder("o1", "Mumbai", ""),
		{ID: "o2", Kind: models.KindOrder, Status: "Delivered"},
	}}
	causes := s.Synthesize(nil, data, nil)
	if len(causes) != 1 {
		t.Fatalf("expected exactly one fallback cause, got %d", len(causes))
	}
	if causes[0].TemplateID != TemplateInsufficientData {
		t.Errorf("expected insufficient_data, got %s", causes[0].TemplateID)
	}
	if causes[0].AffectedOrders != 1 {
		t.Errorf("expected 1 affected (failed) order, got %d", causes[0].AffectedOrders)
	}
}

func TestSynthesizeFeedbackCorroboration(t *testing.T) {
	fb, err := feedback.NewIndex([]models.Record{
		{ID: "fb1", Kind: models.KindFeedback, Comment: "driver never tried to contact me"},
		{ID: "fb2", Kind: models.KindFeedback, Comment: "no phone call before delivery"},
	})
	if err != nil {
		t.Fatalf("NewIndex: %v", err)
	}
	defer fb.Close()

	s := NewSynthesizer(83.0, nil)
	data := &models.FilteredDataset{Orders: []models.Record{
		failedOrder("o1", "Delhi", "Customer not available"),
	}}
	p := models.Pattern{
		Kind: models.PatternFrequency, Category: pattern.CategoryFailureReason,
		Value: "Customer not available", Percentage: 100, Severity: models.SeverityHigh,
		RecordIDs: []string{"o1"},
	}
	causes := s.Synthesize([]models.Pattern{p}, data, fb)
	if len(causes) != 1 || causes[0].TemplateID != TemplateCustomerAvailability {
		t.Fatalf("unexpected causes: %+v", causes)
	}
	found := false
	for _, f := range causes[0].ContributingFactors {
		if strings.Contains(f, "2 comments about contact issues") {
			found = true
		}
	}
	if !found {
		t.Errorf("expected feedback-derived factor, got %v", causes[0].ContributingFactors)
	}
}

func TestRecommendAddressValidation(t *testing.T) {
	s := NewSynthesizer(83.0, nil)
	causes := []models.RootCause{{
		TemplateID: TemplateAddressQuality, Confidence: 0.85,
		AffectedOrders: 3, RecordIDs: []string{"o1", "o2", "o3"},
		BusinessImpact: models.BusinessImpact{CostPerIncident: 2075.0, SatisfactionDelta: -0.3},
	}}
	recs := s.Recommend(causes)
	if len(recs) != 2 {
		t.Fatalf("expected 2 recommendations, got %d", len(recs))
	}
	if recs[0].Title != "Implement Advanced Address Validation System" {
		t.Errorf("expected address validation first, got %q", recs[0].Title)
	}
	if recs[0].Priority != models.SeverityHigh || recs[1].Priority != models.SeverityMedium {
		t.Errorf("unexpected priorities: %s, %s", recs[0].Priority, recs[1].Priority)
	}
	if !strings.HasPrefix(recs[0].InvestmentRequired, "INR ") {
		t.Errorf("investment should be INR figures: %q", recs[0].InvestmentRequired)
	}
	if len(recs[0].SuccessMetrics) == 0 {
		t.Error("expected success metrics")
	}
}

func TestRecommendDedupAndOrdering(t *testing.T) {
	s := NewSynthesizer(83.0, nil)
	causes := []models.RootCause{
		{TemplateID: TemplateAddressQuality, Confidence: 0.85, AffectedOrders: 10},
		{TemplateID: TemplateAddressQuality, Confidence: 0.85, AffectedOrders: 10},
		{TemplateID: TemplateWeatherContingency, Confidence: 0.90, AffectedOrders: 2},
	}
	recs := s.Recommend(causes)
	titles := map[string]int{}
	for _, r := range recs {
		titles[r.Title]++
	}
	for title, n := range titles {
		if n > 1 {
			t.Errorf("duplicate recommendation %q", title)
		}
	}
	// All high-priority entries precede all medium ones.
	lastHigh, firstMedium := -1, len(recs)
	for i, r := range recs {
		if r.Priority == models.SeverityHigh && i > lastHigh {
			lastHigh = i
		}
		if r.Priority == models.SeverityMedium && i < firstMedium {
			firstMedium = i
		}
	}
	if lastHigh > firstMedium {
		t.Errorf("priority ordering broken: %+v", recs)
	}
}

func TestImpactNoDoubleCount(t *testing.T) {
	s := NewSynthesizer(83.0, nil)
	causes := []models.RootCause{
		{TemplateID: TemplateAddressQuality, AffectedOrders: 2, RecordIDs: []string{"o1", "o2"},
			BusinessImpact: models.BusinessImpact{CostPerIncident: 100, SatisfactionDelta: -0.3}},
		{TemplateID: TemplateGeoHotspot, AffectedOrders: 2, RecordIDs: []string{"o2", "o3"},
			BusinessImpact: models.BusinessImpact{CostPerIncident: 50, SatisfactionDelta: -0.15}},
	}
	impact := s.Impact(causes, 10)
	if impact.TotalAffectedOrders != 3 {
		t.Errorf("expected union of 3 orders, got %d", impact.TotalAffectedOrders)
	}
	if impact.EstimatedCostSavings != 300 { // 2*100 + 2*50
		t.Errorf("unexpected savings: %v", impact.EstimatedCostSavings)
	}
	if math.Abs(impact.CustomerSatisfactionImprovement-0.45) > 1e-9 {
		t.Errorf("unexpected satisfaction improvement: %v", impact.CustomerSatisfactionImprovement)
	}
}

func TestImpactCappedByDatasetSize(t *testing.T) {
	s := NewSynthesizer(83.0, nil)
	causes := []models.RootCause{
		{TemplateID: TemplateWeatherContingency, AffectedOrders: 5,
			RecordIDs: []string{"e1", "e2", "e3", "e4", "e5", "e6"}},
	}
	impact := s.Impact(causes, 4)
	if impact.TotalAffectedOrders != 4 {
		t.Errorf("total must be capped at dataset size, got %d", impact.TotalAffectedOrders)
	}
}
