package rca

import (
	"fmt"
	"math"
	"sort"

	"github.com/hyperjump/naze/internal/models"
	"github.com/hyperjump/naze/pkg/utils"
)

// recTemplate is one costed action bound to a cause template. Investment
// figures are USD ranges converted to INR when rendered.
type recTemplate struct {
	title          string
	priority       models.Severity
	description    string
	investLowUSD   float64
	investHighUSD  float64
	expectedImpact string
	timeline       string
	successMetrics []string
}

var recTemplates = map[string][]recTemplate{
	TemplateAddressQuality: {
		{
			title:          "Implement Advanced Address Validation System",
			priority:       models.SeverityHigh,
			description:    "Deploy an address validation system with real-time GPS coordinate verification and auto-correction to drastically reduce address-related failures.",
			investLowUSD:   15000, investHighUSD: 25000,
			expectedImpact: "Reduce address-related failures by 60-80% and improve first-attempt delivery success.",
			timeline:       "4-6 weeks",
			successMetrics: []string{"Address-related failure rate", "First-attempt delivery success rate", "Share of orders with validated pincodes"},
		},
		{
			title:          "Enhance Driver Training for Address Navigation",
			priority:       models.SeverityMedium,
			description:    "Train drivers on address verification, navigation best practices, and troubleshooting of ambiguous addresses in urban and rural areas.",
			investLowUSD:   5000, investHighUSD: 8000,
			expectedImpact: "Reduce address-related failures by 30-40% by giving drivers better tools and knowledge.",
			timeline:       "2-3 weeks",
			successMetrics: []string{"Address-related failure rate", "Average delivery attempts per order"},
		},
	},
	TemplateCustomerAvailability: {
		{
			title:          "Optimize Customer Communication & Flexi-Delivery Options",
			priority:       models.SeverityHigh,
			description:    "Introduce pre-delivery notifications, flexible delivery windows, and self-service rescheduling to cut customer-unavailable failures.",
			investLowUSD:   12000, investHighUSD: 20000,
			expectedImpact: "Reduce customer unavailability failures by 40-60% and raise satisfaction scores.",
			timeline:       "3-5 weeks",
			successMetrics: []string{"Customer-unavailable failure rate", "Notification open rate", "Reschedule-before-dispatch rate"},
		},
		{
			title:          "Empower Drivers with Customer Contact Tools",
			priority:       models.SeverityMedium,
			description:    "Equip drivers with masked in-app calling and messaging to confirm availability or resolve issues at the delivery point.",
			investLowUSD:   4000, investHighUSD: 7000,
			expectedImpact: "Improve first-attempt delivery success by 15-25% for customer unavailability scenarios.",
			timeline:       "2-4 weeks",
			successMetrics: []string{"First-attempt delivery success rate", "Driver-to-customer contact rate"},
		},
	},
	TemplateWeatherContingency: {
		{
			title:          "Implement Weather-Aware Dynamic Route Optimization",
			priority:       models.SeverityHigh,
			description:    "Integrate real-time weather data with route optimization to proactively adjust routes and schedules during adverse conditions.",
			investLowUSD:   8000, investHighUSD: 15000,
			expectedImpact: "Reduce weather-related delays by 40-60% and improve on-time delivery performance.",
			timeline:       "4-6 weeks",
			successMetrics: []string{"Weather-related delay rate", "On-time delivery rate in adverse weather"},
		},
		{
			title:          "Enhance Driver Safety Training for Adverse Weather",
			priority:       models.SeverityMedium,
			description:    "Train drivers on safe driving in heavy rain and fog and establish protocols for reporting unsafe routes to dispatch.",
			investLowUSD:   3000, investHighUSD: 5000,
			expectedImpact: "Improve driver safety and reduce vehicle damage during adverse weather by 20-30%.",
			timeline:       "2-3 weeks",
			successMetrics: []string{"Weather-related incident count", "Unsafe-route reports actioned"},
		},
	},
	TemplateTrafficCongestion: {
		{
			title:          "Implement Traffic Prediction & Dynamic Routing",
			priority:       models.SeverityHigh,
			description:    "Use live and historical congestion data to predict choke points and recalculate delivery routes around them.",
			investLowUSD:   18000, investHighUSD: 30000,
			expectedImpact: "Reduce traffic-related delays by 30-50% and improve fleet efficiency.",
			timeline:       "5-7 weeks",
			successMetrics: []string{"Traffic-related delay rate", "Average route deviation from plan", "Fuel cost per delivery"},
		},
		{
			title:          "Optimize Delivery Time Windows for Peak Hours",
			priority:       models.SeverityMedium,
			description:    "Shift delivery windows in chronically congested corridors away from rush hours and rebalance driver shifts accordingly.",
			investLowUSD:   6000, investHighUSD: 10000,
			expectedImpact: "Reduce peak-hour delivery delays by 20-30% and enhance driver productivity.",
			timeline:       "3-4 weeks",
			successMetrics: []string{"Peak-hour delay rate", "Deliveries per driver-hour"},
		},
	},
	TemplateGeoHotspot: {
		{
			title:          "Expand Local Delivery Infrastructure in Hotspot Areas",
			priority:       models.SeverityHigh,
			description:    "Add micro-hubs or pickup points in the highest-failure localities to shorten last-mile legs and absorb volume spikes.",
			investLowUSD:   20000, investHighUSD: 35000,
			expectedImpact: "Reduce failure rates in hotspot localities by 30-50%.",
			timeline:       "6-10 weeks",
			successMetrics: []string{"Failure rate per hotspot locality", "Average last-mile distance"},
		},
		{
			title:          "Deploy Region-Specific Driver Enablement",
			priority:       models.SeverityMedium,
			description:    "Pair new drivers with locality veterans and build per-area delivery playbooks covering access rules and addressing quirks.",
			investLowUSD:   4000, investHighUSD: 8000,
			expectedImpact: "Improve first-attempt success in complex localities by 15-25%.",
			timeline:       "3-4 weeks",
			successMetrics: []string{"First-attempt success rate per locality", "Locality playbook coverage"},
		},
	},
	TemplateFleetDriver: {
		{
			title:          "Strengthen Preventive Fleet Maintenance",
			priority:       models.SeverityHigh,
			description:    "Move from reactive repairs to scheduled preventive maintenance driven by vehicle telemetry and breakdown history.",
			investLowUSD:   10000, investHighUSD: 18000,
			expectedImpact: "Reduce in-route breakdowns by 40-60%.",
			timeline:       "4-6 weeks",
			successMetrics: []string{"In-route breakdown count", "Vehicle downtime hours"},
		},
		{
			title:          "Feed GPS Delay Notes into Driver Coaching",
			priority:       models.SeverityMedium,
			description:    "Aggregate recurring GPS delay notes per driver and route, and turn them into targeted coaching and route adjustments.",
			investLowUSD:   3000, investHighUSD: 6000,
			expectedImpact: "Reduce repeat delay causes by 20-30%.",
			timeline:       "2-3 weeks",
			successMetrics: []string{"Repeat delay-cause rate", "Average delay per route"},
		},
	},
	TemplateWarehouseDispatch: {
		{
			title:          "Streamline Warehouse Dispatch Workflows",
			priority:       models.SeverityHigh,
			description:    "Map and rework picking, staging, and handover steps against dispatch SLAs, removing manual touchpoints where volume peaks.",
			investLowUSD:   12000, investHighUSD: 20000,
			expectedImpact: "Reduce dispatch-stage delays by 30-50%.",
			timeline:       "4-8 weeks",
			successMetrics: []string{"Dispatch SLA adherence", "Average dock-to-dispatch time"},
		},
		{
			title:          "Introduce Dispatch SLA Tracking & Escalation",
			priority:       models.SeverityMedium,
			description:    "Measure handover delays per warehouse and shift, with automatic escalation when an order breaches its dispatch window.",
			investLowUSD:   5000, investHighUSD: 9000,
			expectedImpact: "Surface and resolve dispatch bottlenecks weeks earlier.",
			timeline:       "3-4 weeks",
			successMetrics: []string{"Dispatch window breach rate", "Escalations resolved within SLA"},
		},
	},
	TemplateSystemicOps: {
		{
			title:          "Conduct Comprehensive Operational Audit",
			priority:       models.SeverityHigh,
			description:    "Review core operational workflows end to end to locate bottlenecks, producing a prioritized list of process improvements with owners.",
			investLowUSD:   10000, investHighUSD: 18000,
			expectedImpact: "Improve overall operational efficiency by 20-35% and reduce processing errors.",
			timeline:       "4-8 weeks",
			successMetrics: []string{"Overall delivery success rate", "Process cycle time per stage"},
		},
		{
			title:          "Implement Automated Workflow & Communication Tools",
			priority:       models.SeverityMedium,
			description:    "Replace manual handoffs between order, dispatch, and fleet systems with automated workflows and shared status visibility.",
			investLowUSD:   7000, investHighUSD: 12000,
			expectedImpact: "Enhance communication efficiency by 30-50% and reduce manual intervention by 20-30%.",
			timeline:       "3-6 weeks",
			successMetrics: []string{"Manual intervention count per order", "Cross-team handoff latency"},
		},
	},
	TemplateInsufficientData: {
		{
			title:          "Implement Predictive Analytics Dashboard",
			priority:       models.SeverityMedium,
			description:    "Build a dashboard over failure, fleet, and feedback data so emerging patterns become visible before they dominate.",
			investLowUSD:   25000, investHighUSD: 40000,
			expectedImpact: "Reduce overall failure rate by 25-35% through earlier detection.",
			timeline:       "8-10 weeks",
			successMetrics: []string{"Overall failure rate", "Mean time to detect emerging failure patterns"},
		},
		{
			title:          "Establish Continuous Improvement Program",
			priority:       models.SeverityLow,
			description:    "Set up a recurring review of failure data with owners per operational area and tracked follow-ups.",
			investLowUSD:   8000, investHighUSD: 12000,
			expectedImpact: "Sustain 10-15% annual improvement in delivery success rate.",
			timeline:       "Ongoing",
			successMetrics: []string{"Quarter-over-quarter delivery success rate", "Improvement actions closed per quarter"},
		},
	},
}

// Recommend derives costed recommendations from the synthesized causes.
// Titles are unique; ordering is priority tier first, then the strength of
// the strongest cause backing the recommendation.
func (s *Synthesizer) Recommend(causes []models.RootCause) []models.Recommendation {
	seen := map[string]struct{}{}
	var out []models.Recommendation
	for _, cause := range causes {
		for _, tpl := range recTemplates[cause.TemplateID] {
			if _, dup := seen[tpl.title]; dup {
				continue
			}
			seen[tpl.title] = struct{}{}
			out = append(out, models.Recommendation{
				Title:       tpl.title,
				Priority:    tpl.priority,
				Description: tpl.description,
				InvestmentRequired: fmt.Sprintf("INR %.0f - INR %.0f",
					math.Round(tpl.investLowUSD*s.inrRate), math.Round(tpl.investHighUSD*s.inrRate)),
				ExpectedImpact:         tpl.expectedImpact,
				ImplementationTimeline: tpl.timeline,
				SuccessMetrics:         tpl.successMetrics,
				ImpactScore:            cause.Confidence * float64(cause.AffectedOrders),
			})
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Priority != out[j].Priority {
			return out[i].Priority.Weight() > out[j].Priority.Weight()
		}
		return out[i].ImpactScore > out[j].ImpactScore
	})
	return out
}

// Impact aggregates causes into a single estimate. Orders supporting more
// than one cause are counted once, and the total never exceeds the number
// of orders the analysis actually ran over.
func (s *Synthesizer) Impact(causes []models.RootCause, datasetSize int) models.ImpactAnalysis {
	unique := map[string]struct{}{}
	savings := 0.0
	satisfaction := 0.0
	for _, cause := range causes {
		for _, id := range cause.RecordIDs {
			unique[id] = struct{}{}
		}
		savings += cause.BusinessImpact.CostPerIncident * float64(cause.AffectedOrders)
		satisfaction += -cause.BusinessImpact.SatisfactionDelta
	}
	total := len(unique)
	if total == 0 {
		for _, cause := range causes {
			total += cause.AffectedOrders
		}
	}
	if total > datasetSize {
		total = datasetSize
	}
	return models.ImpactAnalysis{
		TotalAffectedOrders:             total,
		EstimatedCostSavings:            math.Round(savings*100) / 100,
		CustomerSatisfactionImprovement: utils.Clamp01(satisfaction),
	}
}
