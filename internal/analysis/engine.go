// Package analysis orchestrates the full pipeline: interpret the query,
// filter the dataset, embed, match and cluster, extract patterns, and
// synthesize causes, recommendations, and impact.
package analysis

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/hyperjump/naze/internal/cluster"
	"github.com/hyperjump/naze/internal/config"
	"github.com/hyperjump/naze/internal/dataset"
	"github.com/hyperjump/naze/internal/embedding"
	"github.com/hyperjump/naze/internal/feedback"
	"github.com/hyperjump/naze/internal/interpret"
	"github.com/hyperjump/naze/internal/models"
	"github.com/hyperjump/naze/internal/pattern"
	"github.com/hyperjump/naze/internal/rca"
)

// maxClusterItems bounds how many records are embedded for clustering on
// very large filtered sets. Records beyond the cap still contribute to
// frequency patterns.
const maxClusterItems = 512

// Engine wires the pipeline stages together. One Engine serves all
// requests; per-request state lives on the stack.
type Engine struct {
	cfg       *config.Config
	provider  *dataset.Provider
	interp    *interpret.Interpreter
	pool      *embedding.Pool
	extractor *pattern.Extractor
	synth     *rca.Synthesizer
	modelName string
	logger    *zap.Logger
}

// NewEngine creates an Engine. modelName is reported in ModelInfo only.
func NewEngine(cfg *config.Config, provider *dataset.Provider, interp *interpret.Interpreter, pool *embedding.Pool, modelName string, logger *zap.Logger) *Engine {
	return &Engine{
		cfg:       cfg,
		provider:  provider,
		interp:    interp,
		pool:      pool,
		extractor: pattern.NewExtractor(cfg.Analysis.MinPatternPercent),
		synth:     rca.NewSynthesizer(cfg.Analysis.INRRate, logger),
		modelName: modelName,
		logger:    logger,
	}
}

// ModelInfo reports the fixed analysis parameters.
func (e *Engine) ModelInfo() models.ModelInfo {
	return models.ModelInfo{
		SentenceModel:       e.modelName,
		EmbeddingDimensions: e.pool.Dimensions(),
		SimilarityThreshold: e.cfg.Analysis.SimilarityThreshold,
		KMeansClusters:      e.cfg.Analysis.KMeansClusters,
		ClusterSeed:         e.cfg.Analysis.ClusterSeed,
	}
}

// Provider exposes the dataset provider for status reporting.
func (e *Engine) Provider() *dataset.Provider {
	return e.provider
}

// Analyze runs the full pipeline for one query. It fails only on an empty
// dataset or a cancelled context; an unavailable embedder degrades the
// analysis to frequency patterns instead of failing.
func (e *Engine) Analyze(ctx context.Context, query string) (*models.AnalysisResponse, error) {
	start := time.Now()
	queryID := uuid.NewString()

	snap := e.provider.Snapshot()
	interpretation := e.interp.Interpret(query, snap.BuildGazetteer())

	data, err := dataset.Filter(snap, &interpretation.Entities)
	if err != nil {
		return nil, err
	}

	fb, fbErr := feedback.NewIndex(data.Feedback)
	if fbErr != nil {
		if e.logger != nil {
			e.logger.Warn("feedback index unavailable", zap.Error(fbErr))
		}
		fb = nil
	} else {
		defer fb.Close()
	}

	degraded := false
	var semanticMatches []models.SimilarityMatch
	var clusterPatterns []models.Pattern

	semanticMatches, clusterPatterns, err = e.embedAndCluster(ctx, query, data)
	if err != nil {
		if !errors.Is(err, embedding.ErrUnavailable) {
			return nil, err
		}
		degraded = true
		if e.logger != nil {
			e.logger.Warn("embedding unavailable, degrading to frequency analysis",
				zap.String("query_id", queryID), zap.Error(err))
		}
	}

	frequency := e.extractor.Frequency(data)
	if len(interpretation.Entities.Locations) > 0 {
		// The query already pinned the geography; re-deriving a hotspot
		// from the filtered dimension would be tautological.
		frequency = dropCategory(frequency, pattern.CategoryCity)
	}
	groups := models.PatternGroups{
		Frequency: frequency,
		Semantic:  e.extractor.Semantic(semanticMatches),
		Cluster:   clusterPatterns,
	}
	all := make([]models.Pattern, 0, groups.Total())
	all = append(all, groups.Frequency...)
	all = append(all, groups.Semantic...)
	all = append(all, groups.Cluster...)

	causes := e.synth.Synthesize(all, data, fb)
	recommendations := e.synth.Recommend(causes)
	impact := e.synth.Impact(causes, data.Size())

	resp := &models.AnalysisResponse{
		QueryID:            queryID,
		OriginalQuery:      query,
		InterpretedQuery:   interpretation.InterpretedQuery,
		AnalysisType:       interpretation.Intent,
		ConfidenceScore:    interpretation.Confidence,
		DegradedMode:       degraded,
		QueryEntities:      interpretation.Entities,
		DataSummary:        summarize(data),
		PatternsIdentified: groups,
		RootCauses:         causes,
		Recommendations:    recommendations,
		ImpactAnalysis:     impact,
		ModelInfo:          e.ModelInfo(),
		ProcessingTimeMS:   time.Since(start).Milliseconds(),
		Timestamp:          time.Now().UTC(),
	}
	if e.logger != nil {
		e.logger.Info("analysis complete",
			zap.String("query_id", queryID),
			zap.String("intent", string(interpretation.Intent)),
			zap.Int("orders", data.Size()),
			zap.Int("patterns", groups.Total()),
			zap.Int("root_causes", len(causes)),
			zap.Bool("degraded", degraded),
			zap.Int64("elapsed_ms", resp.ProcessingTimeMS))
	}
	return resp, nil
}

// embedAndCluster runs the embedding-dependent half of the pipeline:
// semantic matching of categorical values against the query, and k-means
// clustering of record texts.
func (e *Engine) embedAndCluster(ctx context.Context, query string, data *models.FilteredDataset) ([]models.SimilarityMatch, []models.Pattern, error) {
	queryVec, err := e.pool.Embed(ctx, query)
	if err != nil {
		return nil, nil, err
	}

	candidates := buildCandidates(data)
	matches, err := e.matchCandidates(ctx, queryVec, candidates)
	if err != nil {
		return nil, nil, err
	}

	items := buildClusterItems(data)
	clusterPatterns, err := e.clusterItems(ctx, items)
	if err != nil {
		return nil, nil, err
	}
	return matches, clusterPatterns, nil
}

func (e *Engine) matchCandidates(ctx context.Context, queryVec []float32, candidates []cluster.Candidate) ([]models.SimilarityMatch, error) {
	if len(candidates) == 0 {
		return nil, nil
	}
	texts := make([]string, len(candidates))
	for i, c := range candidates {
		texts[i] = c.Value
	}
	vecs, err := e.pool.EmbedBatch(ctx, texts)
	if err != nil {
		return nil, err
	}
	for i := range candidates {
		candidates[i].Vector = vecs[i]
	}
	return cluster.Matches(queryVec, candidates, e.cfg.Analysis.SimilarityThreshold), nil
}

func (e *Engine) clusterItems(ctx context.Context, items []pattern.ClusterItem) ([]models.Pattern, error) {
	if len(items) <= e.cfg.Analysis.MinClusterSamples {
		return nil, nil
	}
	texts := make([]string, len(items))
	for i, it := range items {
		texts[i] = it.Text
	}
	vecs, err := e.pool.EmbedBatch(ctx, texts)
	if err != nil {
		return nil, err
	}
	assignments, ok := cluster.KMeans(vecs, e.cfg.Analysis.KMeansClusters, e.cfg.Analysis.MinClusterSamples, e.cfg.Analysis.ClusterSeed)
	if !ok {
		return nil, nil
	}
	return e.extractor.Clusters(items, assignments, e.cfg.Analysis.KMeansClusters), nil
}

// buildCandidates collects the distinct categorical values of the filtered
// data, each with the records carrying it, in a fixed category and value
// order.
func buildCandidates(data *models.FilteredDataset) []cluster.Candidate {
	var out []cluster.Candidate
	out = append(out, distinct(data.Orders, pattern.CategoryFailureReason, func(r *models.Record) string {
		if !r.Failed() {
			return ""
		}
		return r.FailureReason
	})...)
	out = append(out, distinct(data.Orders, pattern.CategoryCity, func(r *models.Record) string { return r.City })...)
	out = append(out, distinct(data.Orders, pattern.CategoryStatus, func(r *models.Record) string { return r.Status })...)
	out = append(out, distinct(data.ExternalFactors, pattern.CategoryWeather, func(r *models.Record) string { return r.Weather })...)
	out = append(out, distinct(data.ExternalFactors, pattern.CategoryTraffic, func(r *models.Record) string { return r.Traffic })...)
	out = append(out, distinct(data.FleetLogs, pattern.CategoryDelayNotes, func(r *models.Record) string { return r.DelayNotes })...)
	return out
}

func distinct(recs []models.Record, category string, field func(*models.Record) string) []cluster.Candidate {
	byValue := map[string][]string{}
	for i := range recs {
		v := strings.TrimSpace(field(&recs[i]))
		if v == "" {
			continue
		}
		byValue[v] = append(byValue[v], recs[i].ID)
	}
	values := make([]string, 0, len(byValue))
	for v := range byValue {
		values = append(values, v)
	}
	sort.Strings(values)

	out := make([]cluster.Candidate, 0, len(values))
	for _, v := range values {
		out = append(out, cluster.Candidate{
			Value:     v,
			Category:  category,
			RecordIDs: byValue[v],
		})
	}
	return out
}

// buildClusterItems renders each record as a short text for embedding:
// failed orders contribute failure reason, city, and status; external
// factors contribute weather, traffic, and event type. Delivered orders
// carry no failure signal and would only blur the clusters.
func buildClusterItems(data *models.FilteredDataset) []pattern.ClusterItem {
	var out []pattern.ClusterItem
	for i := range data.Orders {
		r := &data.Orders[i]
		if !r.Failed() {
			continue
		}
		text := joinNonEmpty(r.FailureReason, r.City, r.Status)
		if text == "" {
			continue
		}
		out = append(out, pattern.ClusterItem{
			RecordID:      r.ID,
			Text:          text,
			City:          r.City,
			FailureReason: r.FailureReason,
		})
		if len(out) == maxClusterItems {
			return out
		}
	}
	for i := range data.ExternalFactors {
		r := &data.ExternalFactors[i]
		text := joinNonEmpty(r.Weather, r.Traffic, r.EventType)
		if text == "" {
			continue
		}
		out = append(out, pattern.ClusterItem{
			RecordID: r.ID,
			Text:     text,
			City:     r.City,
		})
		if len(out) == maxClusterItems {
			return out
		}
	}
	return out
}

func dropCategory(patterns []models.Pattern, category string) []models.Pattern {
	out := patterns[:0]
	for _, p := range patterns {
		if p.Category != category {
			out = append(out, p)
		}
	}
	return out
}

func joinNonEmpty(parts ...string) string {
	var kept []string
	for _, p := range parts {
		if p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, " ")
}

// summarize describes the filtered dataset the analysis ran over.
func summarize(data *models.FilteredDataset) models.DataSummary {
	failed := 0
	delivered := 0
	reasons := map[string]int{}
	cities := map[string]int{}
	for i := range data.Orders {
		r := &data.Orders[i]
		if r.Failed() {
			failed++
			if r.FailureReason != "" {
				reasons[r.FailureReason]++
			}
		}
		if r.Status == "Delivered" {
			delivered++
		}
		if r.City != "" {
			cities[r.City]++
		}
	}
	successRate := 0.0
	if len(data.Orders) > 0 {
		successRate = float64(delivered) / float64(len(data.Orders)) * 100
	}
	return models.DataSummary{
		TotalOrders:       len(data.Orders),
		FailedOrders:      failed,
		SuccessRate:       successRate,
		TopFailureReasons: topN(reasons, 3),
		TopCities:         topN(cities, 3),
		FleetLogs:         len(data.FleetLogs),
		ExternalFactors:   len(data.ExternalFactors),
		Feedback:          len(data.Feedback),
		RelaxationPath:    data.RelaxationPath,
	}
}

func topN(counts map[string]int, n int) map[string]int {
	if len(counts) == 0 {
		return nil
	}
	type kv struct {
		k string
		v int
	}
	ordered := make([]kv, 0, len(counts))
	for k, v := range counts {
		ordered = append(ordered, kv{k, v})
	}
	sort.Slice(ordered, func(i, j int) bool {
		if ordered[i].v != ordered[j].v {
			return ordered[i].v > ordered[j].v
		}
		return ordered[i].k < ordered[j].k
	})
	if len(ordered) > n {
		ordered = ordered[:n]
	}
	out := make(map[string]int, len(ordered))
	for _, e := range ordered {
		out[e.k] = e.v
	}
	return out
}
