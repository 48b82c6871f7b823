package rca

import (
	"fmt"
	"math"
	"sort"

	"go.uber.org/zap"

	"github.com/hyperjump/naze/internal/feedback"
	"github.com/hyperjump/naze/internal/models"
)

// corroborationBoost is added to a cause's confidence for every additional
// pattern resolving to the same template, capped at 1.0.
const corroborationBoost = 0.05

const maxRootCauses = 3

// Synthesizer turns patterns into at most three deduplicated root causes.
type Synthesizer struct {
	inrRate float64
	logger  *zap.Logger
}

// NewSynthesizer creates a Synthesizer. inrRate converts the templates'
// USD cost figures into INR.
func NewSynthesizer(inrRate float64, logger *zap.Logger) *Synthesizer {
	if inrRate <= 0 {
		inrRate = 83.0
	}
	return &Synthesizer{inrRate: inrRate, logger: logger}
}

type candidate struct {
	cause models.RootCause
	score float64
	seen  map[string]struct{}
}

// Synthesize ranks patterns by share and severity, resolves each to a cause
// template, and merges patterns landing on the same template into one cause.
// fb may be nil when no feedback survived filtering.
func (s *Synthesizer) Synthesize(patterns []models.Pattern, data *models.FilteredDataset, fb *feedback.Index) []models.RootCause {
	ranked := make([]models.Pattern, len(patterns))
	copy(ranked, patterns)
	sort.Slice(ranked, func(i, j int) bool {
		si := patternScore(&ranked[i], data.Size())
		sj := patternScore(&ranked[j], data.Size())
		if si != sj {
			return si > sj
		}
		if ranked[i].Category != ranked[j].Category {
			return ranked[i].Category < ranked[j].Category
		}
		return ranked[i].Value < ranked[j].Value
	})

	failedIDs := failedOrderIDs(data)

	byTemplate := map[string]*candidate{}
	var order []string
	for i := range ranked {
		p := &ranked[i]
		tid := templateForPattern(p)
		if tid == "" {
			continue
		}
		existing, ok := byTemplate[tid]
		if !ok {
			byTemplate[tid] = s.newCandidate(tid, p, data.Size())
			order = append(order, tid)
			continue
		}
		// Same template: the pattern corroborates rather than duplicates.
		existing.cause.Confidence = math.Min(1.0, existing.cause.Confidence+corroborationBoost)
		existing.cause.Evidence += fmt.Sprintf(" Corroborated by %s pattern '%s' (%.1f%%).", p.Category, p.Value, p.Percentage)
		existing.score = math.Max(existing.score, patternScore(p, data.Size()))
		for _, id := range p.RecordIDs {
			existing.seen[id] = struct{}{}
		}
	}

	var causes []models.RootCause
	for _, tid := range order {
		cand := byTemplate[tid]
		s.finalize(cand, data, fb, failedIDs)
		causes = append(causes, cand.cause)
	}
	sort.SliceStable(causes, func(i, j int) bool {
		return byTemplate[causes[i].TemplateID].score > byTemplate[causes[j].TemplateID].score
	})
	if len(causes) > maxRootCauses {
		causes = causes[:maxRootCauses]
	}

	if len(causes) == 0 {
		causes = []models.RootCause{s.fallbackCause(data, failedIDs)}
	}
	if s.logger != nil {
		s.logger.Debug("root causes synthesized", zap.Int("count", len(causes)))
	}
	return causes
}

// patternScore is the cross-category ranking strength of a pattern: its
// record support as a share of the filtered orders, weighted by severity.
// Using the shared denominator keeps a single record in a sparse side
// table from outranking a broad order-level pattern.
func patternScore(p *models.Pattern, datasetSize int) float64 {
	if datasetSize <= 0 {
		return 0
	}
	share := float64(p.Count) / float64(datasetSize) * 100
	if share > 100 {
		share = 100
	}
	return share * p.Severity.Weight()
}

func (s *Synthesizer) newCandidate(tid string, p *models.Pattern, datasetSize int) *candidate {
	tpl := causeTemplates[tid]

	causeText := tpl.cause
	evidence := fmt.Sprintf(tpl.evidence, p.Percentage)
	if tpl.causeHasValue {
		causeText = fmt.Sprintf(tpl.cause, p.Value)
		evidence = fmt.Sprintf(tpl.evidence, p.Value, p.Percentage)
	}

	seen := make(map[string]struct{}, len(p.RecordIDs))
	for _, id := range p.RecordIDs {
		seen[id] = struct{}{}
	}
	factors := make([]string, len(tpl.contributingFactors))
	copy(factors, tpl.contributingFactors)

	return &candidate{
		cause: models.RootCause{
			Cause:               causeText,
			TemplateID:          tid,
			Confidence:          tpl.confidence,
			Impact:              tpl.impact,
			Evidence:            evidence,
			ContributingFactors: factors,
			BusinessImpact: models.BusinessImpact{
				CostPerIncident:   math.Round(tpl.costUSD*s.inrRate*100) / 100,
				SatisfactionDelta: tpl.satisfactionDelta,
				EfficiencyLoss:    tpl.efficiencyLoss,
			},
		},
		score: patternScore(p, datasetSize),
		seen:  seen,
	}
}

// finalize fills in the data-derived parts of a cause: affected order
// counts and dynamic contributing factors.
func (s *Synthesizer) finalize(cand *candidate, data *models.FilteredDataset, fb *feedback.Index, failedIDs map[string]struct{}) {
	ids := make([]string, 0, len(cand.seen))
	affected := 0
	for id := range cand.seen {
		ids = append(ids, id)
		if _, ok := failedIDs[id]; ok {
			affected++
		}
	}
	sort.Strings(ids)
	cand.cause.RecordIDs = ids
	if affected == 0 {
		// Causes built from telemetry-only evidence (weather, traffic) carry
		// no order ids; bound the estimate by what actually failed.
		affected = len(failedIDs)
		if len(ids) > 0 && len(ids) < affected {
			affected = len(ids)
		}
	}
	cand.cause.AffectedOrders = affected

	switch cand.cause.TemplateID {
	case TemplateAddressQuality:
		cand.cause.ContributingFactors = append(cand.cause.ContributingFactors, addressFactors(data.Orders)...)
	case TemplateCustomerAvailability:
		if fb != nil {
			if n, err := fb.CountAny("contact", "reach", "phone"); err == nil && n > 0 {
				cand.cause.ContributingFactors = append(cand.cause.ContributingFactors,
					fmt.Sprintf("Customer feedback analysis shows %d comments about contact issues, consistent with failed contact at the door.", n))
			}
		}
	}
}

// addressFactors quantifies address data quality over the filtered orders.
func addressFactors(orders []models.Record) []string {
	if len(orders) == 0 {
		return nil
	}
	missingPincode, missingLine2 := 0, 0
	for i := range orders {
		if orders[i].Pincode == "" {
			missingPincode++
		}
		if orders[i].AddressLine2 == "" {
			missingLine2++
		}
	}
	var out []string
	if missingPincode > 0 {
		out = append(out, fmt.Sprintf("%.1f%% of the analyzed orders are missing a pincode, hindering accurate delivery.",
			float64(missingPincode)/float64(len(orders))*100))
	}
	if missingLine2 > 0 {
		out = append(out, fmt.Sprintf("%.1f%% of the analyzed orders lack address line 2 detail (apartment or suite), causing delivery confusion.",
			float64(missingLine2)/float64(len(orders))*100))
	}
	return out
}

func (s *Synthesizer) fallbackCause(data *models.FilteredDataset, failedIDs map[string]struct{}) models.RootCause {
	tpl := causeTemplates[TemplateInsufficientData]
	ids := make([]string, 0, len(failedIDs))
	for id := range failedIDs {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return models.RootCause{
		Cause:               tpl.cause,
		TemplateID:          tpl.id,
		Confidence:          tpl.confidence,
		Impact:              tpl.impact,
		Evidence:            tpl.evidence,
		ContributingFactors: tpl.contributingFactors,
		BusinessImpact: models.BusinessImpact{
			CostPerIncident:   math.Round(tpl.costUSD*s.inrRate*100) / 100,
			SatisfactionDelta: tpl.satisfactionDelta,
			EfficiencyLoss:    tpl.efficiencyLoss,
		},
		AffectedOrders: len(ids),
		RecordIDs:      ids,
	}
}

func failedOrderIDs(data *models.FilteredDataset) map[string]struct{} {
	out := map[string]struct{}{}
	for i := range data.Orders {
		if data.Orders[i].Failed() {
			out[data.Orders[i].ID] = struct{}{}
		}
	}
	return out
}
