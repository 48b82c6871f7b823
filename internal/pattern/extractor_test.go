package pattern

import (
	"strings"
	"testing"

	"github.com/hyperjump/naze/internal/models"
)

func order(id, city, status, reason string) models.Record {
	return models.Record{ID: id, Kind: models.KindOrder, City: city, Status: status, FailureReason: reason}
}

func testData() *models.FilteredDataset {
	orders := []models.Record{
		order("o1", "Mumbai", "Failed", "Address not found"),
		order("o2", "Mumbai", "Failed", "Address not found"),
		order("o3", "Mumbai", "Failed", "Address not found"),
		order("o4", "Delhi", "Failed", "Customer not available"),
		order("o5", "Delhi", "Delivered", ""),
		order("o6", "Mumbai", "Delivered", ""),
		order("o7", "Mumbai", "Delivered", ""),
		order("o8", "Pune", "Delivered", ""),
		order("o9", "Pune", "Delivered", ""),
		order("o10", "Pune", "Delivered", ""),
	}
	factors := []models.Record{
		{ID: "e1", Kind: models.KindExternalFactor, Weather: "Rain", Traffic: "Heavy"},
		{ID: "e2", Kind: models.KindExternalFactor, Weather: "Rain", Traffic: "Light"},
		{ID: "e3", Kind: models.KindExternalFactor, Weather: "Clear", Traffic: "Light"},
	}
	return &models.FilteredDataset{Orders: orders, ExternalFactors: factors}
}

func TestFrequencyPatterns(t *testing.T) {
	got := NewExtractor(5.0).Frequency(testData())

	var addressPattern *models.Pattern
	for i := range got {
		if got[i].Category == CategoryFailureReason && got[i].Value == "Address not found" {
			addressPattern = &got[i]
		}
	}
	if addressPattern == nil {
		t.Fatalf("expected Address not found pattern, got %+v", got)
	}
	if addressPattern.Count != 3 {
		t.Errorf("expected count 3, got %d", addressPattern.Count)
	}
	if addressPattern.Percentage != 30 {
		t.Errorf("expected 30%%, got %v", addressPattern.Percentage)
	}
	if addressPattern.Severity != models.SeverityHigh {
		t.Errorf("expected high severity at 30%%, got %s", addressPattern.Severity)
	}
	if len(addressPattern.RecordIDs) != 3 {
		t.Errorf("expected 3 record ids, got %v", addressPattern.RecordIDs)
	}
	if !strings.Contains(addressPattern.Description, "Address not found") {
		t.Errorf("description missing value: %q", addressPattern.Description)
	}
}

func TestFrequencyMaterialityFloor(t *testing.T) {
	got := NewExtractor(15.0).Frequency(testData())
	for _, p := range got {
		if p.Percentage < 15.0 {
			t.Errorf("pattern below floor leaked: %+v", p)
		}
	}
}

func TestFrequencyDeterministicOrder(t *testing.T) {
	e := NewExtractor(5.0)
	first := e.Frequency(testData())
	for run := 0; run < 5; run++ {
		again := e.Frequency(testData())
		if len(again) != len(first) {
			t.Fatalf("run %d: length %d vs %d", run, len(again), len(first))
		}
		for i := range first {
			if again[i].Category != first[i].Category || again[i].Value != first[i].Value {
				t.Fatalf("run %d: order differs at %d: %s/%s vs %s/%s",
					run, i, again[i].Category, again[i].Value, first[i].Category, first[i].Value)
			}
		}
	}
}

func TestFrequencyWeatherEscalation(t *testing.T) {
	got := NewExtractor(5.0).Frequency(testData())
	for _, p := range got {
		if p.Category == CategoryWeather && p.Value == "Rain" {
			if p.Severity != models.SeverityHigh {
				t.Errorf("Rain at %v%% should be high, got %s", p.Percentage, p.Severity)
			}
			return
		}
	}
	t.Fatal("expected a Rain weather pattern")
}

func TestSemanticGrouping(t *testing.T) {
	matches := []models.SimilarityMatch{
		{Value: "Address not found", Category: CategoryFailureReason, Score: 0.91, RecordIDs: []string{"o1", "o2"}},
		{Value: "Address incomplete", Category: CategoryFailureReason, Score: 0.75, RecordIDs: []string{"o3"}},
		{Value: "Mumbai", Category: CategoryCity, Score: 0.72, RecordIDs: []string{"o1"}},
	}
	got := NewExtractor(5.0).Semantic(matches)
	if len(got) != 2 {
		t.Fatalf("expected 2 semantic patterns, got %d", len(got))
	}
	if got[0].Category != CategoryFailureReason || got[1].Category != CategoryCity {
		t.Fatalf("unexpected category order: %s, %s", got[0].Category, got[1].Category)
	}
	if got[0].Severity != models.SeverityHigh {
		t.Errorf("best score 0.91 should be high severity, got %s", got[0].Severity)
	}
	if got[0].Count != 2 || len(got[0].RecordIDs) != 3 {
		t.Errorf("unexpected counts: %+v", got[0])
	}
	if got[1].Severity != models.SeverityMedium {
		t.Errorf("score 0.72 should be medium severity, got %s", got[1].Severity)
	}
}

func TestClusterPatterns(t *testing.T) {
	items := []ClusterItem{
		{RecordID: "o1", City: "Mumbai", FailureReason: "Address not found"},
		{RecordID: "o2", City: "Mumbai", FailureReason: "Address not found"},
		{RecordID: "o3", City: "Mumbai", FailureReason: "Address not found"},
		{RecordID: "o4", City: "Delhi", FailureReason: "Weather delay"},
		{RecordID: "o5", City: "Delhi", FailureReason: "Weather delay"},
		{RecordID: "o6", City: "Pune", FailureReason: "Customer not available"},
	}
	assignments := []int{0, 0, 0, 1, 1, 2}
	got := NewExtractor(5.0).Clusters(items, assignments, 3)

	// Cluster 2 has one member and is dropped as noise.
	if len(got) != 2 {
		t.Fatalf("expected 2 cluster patterns, got %d", len(got))
	}
	if got[0].ClusterID != 0 || got[0].Count != 3 {
		t.Fatalf("unexpected first cluster: %+v", got[0])
	}
	if got[0].Value != "Address not found in Mumbai" {
		t.Errorf("unexpected theme: %q", got[0].Value)
	}
	if got[0].Severity != models.SeverityHigh {
		t.Errorf("50%% cluster should be high, got %s", got[0].Severity)
	}
	if got[1].Value != "Weather delay in Delhi" {
		t.Errorf("unexpected theme: %q", got[1].Value)
	}
}

func TestClusterThemeNoMajority(t *testing.T) {
	items := []ClusterItem{
		{RecordID: "o1", City: "Mumbai", FailureReason: "A"},
		{RecordID: "o2", City: "Delhi", FailureReason: "B"},
	}
	got := NewExtractor(5.0).Clusters(items, []int{0, 0}, 1)
	if len(got) != 1 {
		t.Fatalf("expected 1 cluster, got %d", len(got))
	}
	if got[0].Value != "mixed incidents" {
		t.Errorf("expected mixed incidents theme, got %q", got[0].Value)
	}
}
