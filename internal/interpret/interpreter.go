// Package interpret classifies a natural-language question into an analysis
// intent and extracts the entities (places, time windows, clients,
// warehouses, failure reasons) that scope the dataset filter.
package interpret

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/hyperjump/naze/internal/dataset"
	"github.com/hyperjump/naze/internal/models"
)

// Interpretation is the structured reading of one query.
type Interpretation struct {
	Intent           models.Intent    `json:"analysis_type"`
	Confidence       float64          `json:"confidence_score"`
	Entities         models.EntitySet `json:"entities"`
	InterpretedQuery string           `json:"interpreted_query"`
}

type intentRule struct {
	intent   models.Intent
	patterns []*regexp.Regexp
}

func compileAll(exprs ...string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, len(exprs))
	for i, e := range exprs {
		out[i] = regexp.MustCompile(e)
	}
	return out
}

// Rules are evaluated in this fixed order; on a confidence tie the earlier
// intent wins, so identical queries always classify identically.
var intentRules = []intentRule{
	{models.IntentFailureAnalysis, compileAll(
		`why.*fail`, `failure.*reason`, `what.*caus.*fail`, `root.*cause`,
		`investigat`, `analy[sz]e.*problem`, `deliver.*fail`, `order.*fail`, `shipment.*fail`)},
	{models.IntentPerformanceAnalysis, compileAll(
		`performance`, `\bslow\b`, `delay`, `bottleneck`, `optimi[sz]e`,
		`improve.*speed`, `reduce.*time`, `efficiency`, `late.*deliver`)},
	{models.IntentTrendAnalysis, compileAll(
		`trend`, `pattern`, `increase`, `decrease`, `over.*time`,
		`seasonal`, `monthly`, `weekly`, `compar`)},
	{models.IntentPredictiveAnalysis, compileAll(
		`predict`, `forecast`, `future`, `likely`, `\brisk\b`,
		`probability`, `chance`, `what.*happen`, `expect`)},
	{models.IntentGeographicAnalysis, compileAll(
		`location`, `region`, `\bcity\b`, `\bstate\b`, `geographic`,
		`where.*problem`, `which.*area`)},
	{models.IntentClientAnalysis, compileAll(
		`\bclient\b`, `customer`, `enterprise`, `retail`)},
	{models.IntentWarehouseAnalysis, compileAll(
		`warehouse`, `distribution`, `\bhub\b`, `facility`, `storage`)},
	{models.IntentTemporalAnalysis, compileAll(
		`yesterday`, `last week`, `last month`, `festival`, `holiday`,
		`weekend`, `time.*period`)},
	{models.IntentCapacityPlanning, compileAll(
		`capacity`, `\bscal(e|ing)\b`, `onboard`, `additional.*order`,
		`\bvolume\b`, `\bpeak\b`)},
}

// fallbackConfidence is reported when no rule matched and the intent
// defaults to general analysis.
const fallbackConfidence = 0.3

// Interpreter turns raw queries into Interpretations. The clock is
// injectable so relative time phrases resolve deterministically in tests.
type Interpreter struct {
	now    func() time.Time
	logger *zap.Logger
}

// NewInterpreter creates an Interpreter using the wall clock.
func NewInterpreter(logger *zap.Logger) *Interpreter {
	return &Interpreter{now: time.Now, logger: logger}
}

// NewInterpreterAt creates an Interpreter with a fixed clock.
func NewInterpreterAt(now func() time.Time, logger *zap.Logger) *Interpreter {
	return &Interpreter{now: now, logger: logger}
}

// Interpret classifies the query and extracts entities against the
// gazetteer. It never fails: an unclassifiable query falls back to general
// analysis at low confidence.
func (in *Interpreter) Interpret(query string, gaz *dataset.Gazetteer) Interpretation {
	lower := strings.ToLower(query)

	intent := models.IntentGeneralAnalysis
	confidence := fallbackConfidence
	best := 0.0
	for _, rule := range intentRules {
		matched := 0
		for _, p := range rule.patterns {
			if p.MatchString(lower) {
				matched++
			}
		}
		score := float64(matched) / float64(len(rule.patterns))
		if matched > 0 && score > best {
			best = score
			intent = rule.intent
			confidence = score
		}
	}

	entities := extractEntities(query, gaz)
	if tr := ParseTimeRange(query, in.now()); tr != nil {
		entities.TimeRange = tr
	}

	result := Interpretation{
		Intent:           intent,
		Confidence:       confidence,
		Entities:         entities,
		InterpretedQuery: describe(intent, &entities),
	}
	if in.logger != nil {
		in.logger.Debug("query interpreted",
			zap.String("intent", string(intent)),
			zap.Float64("confidence", confidence),
			zap.Strings("locations", entities.Locations))
	}
	return result
}

// describe renders a human-readable restatement of what will be analyzed.
func describe(intent models.Intent, entities *models.EntitySet) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Performing %s analysis", strings.ReplaceAll(string(intent), "_", " "))
	if len(entities.Locations) > 0 {
		fmt.Fprintf(&b, " for locations: %s", strings.Join(entities.Locations, ", "))
	}
	if tr := entities.TimeRange; tr != nil {
		fmt.Fprintf(&b, " in time window: %s to %s",
			tr.From.Format("2006-01-02"), tr.To.Format("2006-01-02"))
	}
	if len(entities.Clients) > 0 {
		fmt.Fprintf(&b, " for clients: %s", strings.Join(entities.Clients, ", "))
	}
	if len(entities.Warehouses) > 0 {
		fmt.Fprintf(&b, " for warehouses: %s", strings.Join(entities.Warehouses, ", "))
	}
	if len(entities.FailureReasons) > 0 {
		fmt.Fprintf(&b, " focused on: %s", strings.Join(entities.FailureReasons, ", "))
	}
	return b.String()
}
