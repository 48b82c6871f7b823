// Package pattern turns the filtered dataset and the embedding-space
// results into tagged patterns: frequency counts, semantic matches, and
// cluster summaries.
package pattern

import (
	"fmt"
	"sort"
	"strings"

	"github.com/hyperjump/naze/internal/models"
)

// Category names shared across frequency and semantic patterns.
const (
	CategoryFailureReason = "failure_reason"
	CategoryStatus        = "status"
	CategoryCity          = "city"
	CategoryWeather       = "weather_condition"
	CategoryTraffic       = "traffic_condition"
	CategoryDelayNotes    = "delay_notes"

	// CategoryIncidentCluster tags cluster patterns; it never appears in
	// frequency or semantic output.
	CategoryIncidentCluster = "incident_cluster"
)

const topPerCategory = 5

// Extractor derives patterns from a filtered dataset. minPercent is the
// materiality floor: a categorical value covering less of its population
// than this is noise, not a pattern.
type Extractor struct {
	minPercent float64
}

// NewExtractor creates an Extractor with the given materiality floor.
func NewExtractor(minPercent float64) *Extractor {
	return &Extractor{minPercent: minPercent}
}

type counted struct {
	value     string
	count     int
	recordIDs []string
}

// Frequency computes categorical frequency patterns over the filtered data.
// Output order is fixed: categories in declaration order, values by count
// descending with value ascending as tiebreak, so identical input yields an
// identical pattern list.
func (e *Extractor) Frequency(data *models.FilteredDataset) []models.Pattern {
	var failed []models.Record
	for i := range data.Orders {
		if data.Orders[i].Failed() {
			failed = append(failed, data.Orders[i])
		}
	}

	var out []models.Pattern
	out = append(out, e.countField(data.Orders, CategoryFailureReason, func(r *models.Record) string {
		if !r.Failed() {
			return ""
		}
		return r.FailureReason
	})...)
	out = append(out, e.countField(data.Orders, CategoryStatus, func(r *models.Record) string { return r.Status })...)
	// Cities are counted over failed orders: the hotspot signal is where
	// failures concentrate, not where volume concentrates.
	out = append(out, e.countField(failed, CategoryCity, func(r *models.Record) string { return r.City })...)
	out = append(out, e.countField(data.ExternalFactors, CategoryWeather, func(r *models.Record) string { return r.Weather })...)
	out = append(out, e.countField(data.ExternalFactors, CategoryTraffic, func(r *models.Record) string { return r.Traffic })...)
	out = append(out, e.countField(data.FleetLogs, CategoryDelayNotes, func(r *models.Record) string { return r.DelayNotes })...)
	return out
}

func (e *Extractor) countField(recs []models.Record, category string, field func(*models.Record) string) []models.Pattern {
	if len(recs) == 0 {
		return nil
	}
	counts := map[string]*counted{}
	for i := range recs {
		v := strings.TrimSpace(field(&recs[i]))
		if v == "" {
			continue
		}
		c, ok := counts[v]
		if !ok {
			c = &counted{value: v}
			counts[v] = c
		}
		c.count++
		c.recordIDs = append(c.recordIDs, recs[i].ID)
	}

	ordered := make([]*counted, 0, len(counts))
	for _, c := range counts {
		ordered = append(ordered, c)
	}
	sort.Slice(ordered, func(i, j int) bool {
		if ordered[i].count != ordered[j].count {
			return ordered[i].count > ordered[j].count
		}
		return ordered[i].value < ordered[j].value
	})

	var out []models.Pattern
	for _, c := range ordered {
		if len(out) == topPerCategory {
			break
		}
		pct := float64(c.count) / float64(len(recs)) * 100
		if pct < e.minPercent {
			continue
		}
		out = append(out, models.Pattern{
			Kind:        models.PatternFrequency,
			Category:    category,
			Value:       c.value,
			Description: fmt.Sprintf("'%s' appears in %d of %d %s records (%.1f%%)", c.value, c.count, len(recs), category, pct),
			Count:       c.count,
			Percentage:  pct,
			Severity:    frequencySeverity(category, c.value, pct),
			RecordIDs:   c.recordIDs,
		})
	}
	return out
}

// frequencySeverity tiers a frequency pattern. Known-disruptive weather and
// traffic conditions escalate at a lower share than ordinary values.
func frequencySeverity(category, value string, pct float64) models.Severity {
	switch category {
	case CategoryWeather:
		if pct >= 10 && (value == "Rain" || value == "Fog" || value == "Storm") {
			return models.SeverityHigh
		}
	case CategoryTraffic:
		if pct >= 10 && (value == "Heavy" || value == "Severe") {
			return models.SeverityHigh
		}
	}
	switch {
	case pct >= 20:
		return models.SeverityHigh
	case pct >= 10:
		return models.SeverityMedium
	default:
		return models.SeverityLow
	}
}

// semanticCategoryOrder fixes the grouping order of semantic patterns.
var semanticCategoryOrder = []string{
	CategoryFailureReason, CategoryCity, CategoryStatus,
	CategoryWeather, CategoryTraffic, CategoryDelayNotes,
}

// Semantic groups similarity matches by category into one pattern each.
// Matches arrive sorted by score; groups keep that order.
func (e *Extractor) Semantic(matches []models.SimilarityMatch) []models.Pattern {
	byCategory := map[string][]models.SimilarityMatch{}
	for _, m := range matches {
		byCategory[m.Category] = append(byCategory[m.Category], m)
	}

	var out []models.Pattern
	for _, category := range semanticCategoryOrder {
		group := byCategory[category]
		if len(group) == 0 {
			continue
		}
		best := group[0].Score
		values := make([]string, 0, 3)
		var ids []string
		for i, m := range group {
			if i < 3 {
				values = append(values, m.Value)
			}
			ids = append(ids, m.RecordIDs...)
		}
		severity := models.SeverityMedium
		if best > 0.8 {
			severity = models.SeverityHigh
		}
		out = append(out, models.Pattern{
			Kind:        models.PatternSemantic,
			Category:    category,
			Value:       group[0].Value,
			Description: fmt.Sprintf("Semantic similarity found in %s: %s", category, strings.Join(values, ", ")),
			Count:       len(group),
			Percentage:  best * 100,
			Severity:    severity,
			Matches:     group,
			RecordIDs:   ids,
		})
	}
	return out
}

// ClusterItem is one embedded record fed to the clusterer.
type ClusterItem struct {
	RecordID      string
	Text          string
	City          string
	FailureReason string
}

// Clusters summarizes k-means assignments into one pattern per cluster with
// at least two members. Single-member clusters are noise and reported by
// the frequency patterns anyway.
func (e *Extractor) Clusters(items []ClusterItem, assignments []int, k int) []models.Pattern {
	if len(items) == 0 || len(assignments) != len(items) {
		return nil
	}
	members := make([][]ClusterItem, k)
	ids := make([][]string, k)
	for i, a := range assignments {
		if a < 0 || a >= k {
			continue
		}
		members[a] = append(members[a], items[i])
		ids[a] = append(ids[a], items[i].RecordID)
	}

	var out []models.Pattern
	for clusterID := 0; clusterID < k; clusterID++ {
		group := members[clusterID]
		if len(group) < 2 {
			continue
		}
		pct := float64(len(group)) / float64(len(items)) * 100
		severity := models.SeverityMedium
		if pct >= 25 {
			severity = models.SeverityHigh
		}
		theme := clusterTheme(group)
		out = append(out, models.Pattern{
			Kind:        models.PatternCluster,
			Category:    CategoryIncidentCluster,
			Value:       theme,
			Description: fmt.Sprintf("Cluster %d groups %d related incidents: %s", clusterID, len(group), theme),
			Count:       len(group),
			Percentage:  pct,
			Severity:    severity,
			ClusterID:   clusterID,
			RecordIDs:   ids[clusterID],
		})
	}
	return out
}

// clusterTheme names a cluster by its dominant failure reason and city.
func clusterTheme(group []ClusterItem) string {
	reason := majority(group, func(it ClusterItem) string { return it.FailureReason })
	city := majority(group, func(it ClusterItem) string { return it.City })
	switch {
	case reason != "" && city != "":
		return fmt.Sprintf("%s in %s", reason, city)
	case reason != "":
		return reason
	case city != "":
		return city
	default:
		return "mixed incidents"
	}
}

func majority(group []ClusterItem, field func(ClusterItem) string) string {
	counts := map[string]int{}
	for _, it := range group {
		if v := field(it); v != "" {
			counts[v]++
		}
	}
	best, bestCount := "", 0
	for v, n := range counts {
		if n > bestCount || (n == bestCount && v < best) {
			best, bestCount = v, n
		}
	}
	// A "majority" under half the cluster is not a theme.
	if bestCount*2 <= len(group) {
		return ""
	}
	return best
}
