// Package rca synthesizes ranked, deduplicated root causes from patterns
// and derives costed recommendations from them.
package rca

import (
	"strings"

	"github.com/hyperjump/naze/internal/models"
	"github.com/hyperjump/naze/internal/pattern"
)

// Template identifiers. A template id is the identity of a cause: two
// patterns resolving to the same id merge into one cause.
const (
	TemplateAddressQuality       = "address_quality"
	TemplateCustomerAvailability = "customer_availability"
	TemplateWeatherContingency   = "weather_contingency"
	TemplateTrafficCongestion    = "traffic_congestion"
	TemplateGeoHotspot           = "geo_hotspot"
	TemplateFleetDriver          = "fleet_driver"
	TemplateWarehouseDispatch    = "warehouse_dispatch"
	TemplateSystemicOps          = "systemic_ops"
	TemplateInsufficientData     = "insufficient_data"
)

// causeTemplate carries the fixed part of a root cause. Cause and evidence
// strings may contain one %s (the triggering value) and one %.1f (the
// pattern's share); costs are USD and converted at synthesis time.
type causeTemplate struct {
	id                  string
	cause               string
	causeHasValue       bool
	confidence          float64
	impact              models.Severity
	evidence            string
	contributingFactors []string
	costUSD             float64
	satisfactionDelta   float64
	efficiencyLoss      float64
}

var causeTemplates = map[string]causeTemplate{
	TemplateAddressQuality: {
		id:         TemplateAddressQuality,
		cause:      "Inaccurate Address Data & Lack of Geo-Validation",
		confidence: 0.85,
		impact:     models.SeverityHigh,
		evidence:   "Address validation failures account for %.1f%% of the analyzed orders. This is often linked to outdated client records or manual input errors.",
		contributingFactors: []string{
			"Outdated or incomplete client address database: many client addresses lack apartment/suite numbers or correct pincodes.",
			"Lack of real-time GPS coordinate validation: no system verifies that a provided address is physically deliverable.",
			"Manual address entry errors: human errors during order creation lead to incorrect delivery locations.",
			"Inadequate driver tools for address troubleshooting: drivers cannot confirm or correct addresses on the go.",
		},
		costUSD:           25.0,
		satisfactionDelta: -0.3,
		efficiencyLoss:    0.15,
	},
	TemplateCustomerAvailability: {
		id:         TemplateCustomerAvailability,
		cause:      "Ineffective Customer Communication & Delivery Window Management",
		confidence: 0.80,
		impact:     models.SeverityMedium,
		evidence:   "Customer unavailability causes %.1f%% of the analyzed failures, suggesting a gap in pre-delivery communication or flexible scheduling.",
		contributingFactors: []string{
			"Inflexible delivery windows offered to customers: limited slots force inconvenient times.",
			"Poor pre-delivery communication: no SMS or app notification to confirm delivery time or allow rescheduling.",
			"Lack of delivery notifications: customers are not alerted when the driver is en route or has arrived.",
			"No rescheduling options: customers cannot easily change delivery times after order placement.",
		},
		costUSD:           15.0,
		satisfactionDelta: -0.2,
		efficiencyLoss:    0.10,
	},
	TemplateWeatherContingency: {
		id:            TemplateWeatherContingency,
		cause:         "Inadequate Weather Contingency Planning & Route Optimization",
		causeHasValue: false,
		confidence:    0.90,
		impact:        models.SeverityHigh,
		evidence:      "Weather-related disruption affects %.1f%% of the analyzed records, indicating a significant vulnerability to adverse conditions.",
		contributingFactors: []string{
			"No real-time weather monitoring integration: no automatic alerts or dynamic route adjustments from live weather data.",
			"Lack of alternative delivery routes for severe weather: predetermined routes are not optimized for bad conditions.",
			"No weather-based scheduling adjustments: delivery schedules ignore anticipated weather impact.",
			"Drivers lack protocols for adverse conditions such as heavy rain and fog.",
		},
		costUSD:           30.0,
		satisfactionDelta: -0.25,
		efficiencyLoss:    0.20,
	},
	TemplateTrafficCongestion: {
		id:         TemplateTrafficCongestion,
		cause:      "Chronic Traffic Congestion Along Delivery Corridors",
		confidence: 0.82,
		impact:     models.SeverityHigh,
		evidence:   "Heavy traffic conditions correlate with %.1f%% of the analyzed records, pointing at routing that ignores congestion patterns.",
		contributingFactors: []string{
			"Static route planning: routes are not recalculated against live or historical congestion data.",
			"Deliveries concentrated in peak hours: time windows collide with predictable rush-hour congestion.",
			"No corridor-level congestion analytics: recurring choke points are not identified and avoided.",
		},
		costUSD:           20.0,
		satisfactionDelta: -0.2,
		efficiencyLoss:    0.18,
	},
	TemplateGeoHotspot: {
		id:            TemplateGeoHotspot,
		cause:         "Geographic Hotspot: Operational Challenges in %s",
		causeHasValue: true,
		confidence:    0.75,
		impact:        models.SeverityMedium,
		evidence:      "%s accounts for %.1f%% of the analyzed volume with elevated failure rates, indicating region-specific challenges.",
		contributingFactors: []string{
			"Complex urban routing challenges: dense areas or poor road infrastructure make navigation difficult.",
			"Limited local delivery infrastructure: insufficient local warehouses or hubs to support demand.",
			"High address density issues: multi-story buildings and unclear addressing in specific areas.",
			"Lack of region-specific driver training: drivers unfamiliar with local delivery nuances.",
		},
		costUSD:           18.0,
		satisfactionDelta: -0.15,
		efficiencyLoss:    0.08,
	},
	TemplateFleetDriver: {
		id:         TemplateFleetDriver,
		cause:      "Fleet Reliability & Driver Execution Gaps",
		confidence: 0.72,
		impact:     models.SeverityMedium,
		evidence:   "Fleet-reported delays appear in %.1f%% of the analyzed logs, pointing at vehicle reliability or driver execution issues.",
		contributingFactors: []string{
			"Irregular vehicle maintenance: breakdowns and slowdowns during active routes.",
			"Inconsistent driver routing discipline: deviations from planned routes without recorded justification.",
			"No telemetry-driven coaching: GPS delay notes are recorded but never fed back into training.",
		},
		costUSD:           17.0,
		satisfactionDelta: -0.15,
		efficiencyLoss:    0.12,
	},
	TemplateWarehouseDispatch: {
		id:         TemplateWarehouseDispatch,
		cause:      "Warehouse Dispatch Bottlenecks & Stock Handling Delays",
		confidence: 0.74,
		impact:     models.SeverityMedium,
		evidence:   "Dispatch-related delays appear in %.1f%% of the analyzed records, pointing at picking or staging bottlenecks before handover.",
		contributingFactors: []string{
			"Manual picking and staging workflows: throughput collapses under daily volume peaks.",
			"Late stock availability: orders released to dispatch before stock is physically ready.",
			"No dispatch SLA tracking: delays at handover are not measured or escalated.",
		},
		costUSD:           19.0,
		satisfactionDelta: -0.15,
		efficiencyLoss:    0.14,
	},
	TemplateSystemicOps: {
		id:            TemplateSystemicOps,
		cause:         "Systemic Operational Issue: %s",
		causeHasValue: true,
		confidence:    0.70,
		impact:        models.SeverityMedium,
		evidence:      "'%s' accounts for %.1f%% of the analyzed failures, indicating a broader systemic challenge that needs deeper investigation.",
		contributingFactors: []string{
			"Underlying process inefficiency: core operational workflows may have bottlenecks.",
			"Lack of preventive measures: no proactive strategies to avert recurring issues.",
			"Insufficient training for personnel: staff may lack skills for specific scenarios.",
			"Data visibility gaps: incomplete or delayed information hinders decision-making.",
		},
		costUSD:           20.0,
		satisfactionDelta: -0.2,
		efficiencyLoss:    0.12,
	},
	TemplateInsufficientData: {
		id:         TemplateInsufficientData,
		cause:      "Systemic Operational Inefficiencies",
		confidence: 0.65,
		impact:     models.SeverityMedium,
		evidence:   "Analysis found no single dominant failure pattern; multiple factors contribute to delivery challenges across the operational spectrum.",
		contributingFactors: []string{
			"Suboptimal process workflows: opportunities for streamlining across operational stages.",
			"Resource allocation imbalances: misaligned deployment of drivers, vehicles, or warehouse staff.",
			"Technology integration gaps: disconnected systems causing information silos.",
			"Limited real-time visibility: lack of granular live data to catch issues promptly.",
		},
		costUSD:           22.0,
		satisfactionDelta: -0.2,
		efficiencyLoss:    0.15,
	},
}

// failureReasonTemplates routes known failure reasons to their template.
// Matching is keyword-based so dataset variants like "Address incomplete"
// still land on the address template.
func templateForFailureReason(reason string) string {
	lower := strings.ToLower(reason)
	switch {
	case strings.Contains(lower, "address") || strings.Contains(lower, "pincode"):
		return TemplateAddressQuality
	case strings.Contains(lower, "customer not available") || strings.Contains(lower, "not at home") || strings.Contains(lower, "no answer"):
		return TemplateCustomerAvailability
	case strings.Contains(lower, "weather") || strings.Contains(lower, "rain") || strings.Contains(lower, "fog") || strings.Contains(lower, "flood"):
		return TemplateWeatherContingency
	case strings.Contains(lower, "traffic") || strings.Contains(lower, "congestion"):
		return TemplateTrafficCongestion
	case strings.Contains(lower, "vehicle") || strings.Contains(lower, "breakdown") || strings.Contains(lower, "driver"):
		return TemplateFleetDriver
	case strings.Contains(lower, "warehouse") || strings.Contains(lower, "dispatch") || strings.Contains(lower, "stock"):
		return TemplateWarehouseDispatch
	default:
		return TemplateSystemicOps
	}
}

// templateForPattern resolves which cause template a pattern supports, or
// "" when the pattern carries no causal signal (e.g. a status count).
func templateForPattern(p *models.Pattern) string {
	switch p.Category {
	case pattern.CategoryFailureReason:
		return templateForFailureReason(p.Value)
	case pattern.CategoryWeather:
		return TemplateWeatherContingency
	case pattern.CategoryTraffic:
		if p.Value == "Heavy" || p.Value == "Severe" {
			return TemplateTrafficCongestion
		}
		return ""
	case pattern.CategoryCity:
		return TemplateGeoHotspot
	case pattern.CategoryDelayNotes:
		return templateForDelayNotes(p.Value)
	case pattern.CategoryIncidentCluster:
		// A cluster theme looks like "<reason> in <city>" or a bare theme.
		if theme, _, found := strings.Cut(p.Value, " in "); found {
			return templateForFailureReason(theme)
		}
		if p.Value == "mixed incidents" {
			return ""
		}
		return templateForFailureReason(p.Value)
	default:
		return ""
	}
}

func templateForDelayNotes(notes string) string {
	lower := strings.ToLower(notes)
	switch {
	case strings.Contains(lower, "traffic") || strings.Contains(lower, "congestion"):
		return TemplateTrafficCongestion
	case strings.Contains(lower, "breakdown") || strings.Contains(lower, "vehicle"):
		return TemplateFleetDriver
	case strings.Contains(lower, "weather") || strings.Contains(lower, "rain"):
		return TemplateWeatherContingency
	default:
		return TemplateFleetDriver
	}
}
