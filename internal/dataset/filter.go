package dataset

import (
	"errors"
	"strings"

	"github.com/hyperjump/naze/internal/models"
)

// ErrEmptyDataset signals that no historical data is loaded at all, as
// opposed to a query whose filters matched nothing.
var ErrEmptyDataset = errors.New("dataset is empty")

// Relaxation step names recorded in FilteredDataset.RelaxationPath.
const (
	RelaxTimeWindow      = "time_window"
	RelaxGeography       = "geography"
	RelaxClientWarehouse = "client_warehouse"
)

type orderFilter struct {
	name  string
	match func(*models.Record) bool
}

// Filter narrows the snapshot to the records matching the extracted
// entities. When the conjunction of filters matches zero orders, filters
// are dropped one group at a time, broadest-reach first, until some orders
// match; each dropped group is recorded in RelaxationPath. Time is dropped
// before geography, geography before client and warehouse: a question about
// a place keeps its place as long as possible.
func Filter(snap *Snapshot, entities *models.EntitySet) (*models.FilteredDataset, error) {
	if snap == nil || len(snap.Orders) == 0 {
		return nil, ErrEmptyDataset
	}

	filters := buildFilters(entities)
	var path []string
	orders := applyFilters(snap.Orders, filters)
	for len(orders) == 0 && len(filters) > 0 {
		path = append(path, filters[0].name)
		filters = filters[1:]
		orders = applyFilters(snap.Orders, filters)
	}

	// Corroborating sources follow whatever time and geography filters
	// survived. Records with no location are kept; sparse telemetry should
	// not vanish from the evidence pool.
	surviving := keepTimeGeo(filters)
	return &models.FilteredDataset{
		Orders:          orders,
		FleetLogs:       applyFilters(snap.FleetLogs, surviving),
		ExternalFactors: applyFilters(snap.ExternalFactors, surviving),
		Feedback:        applyFilters(snap.Feedback, surviving),
		RelaxationPath:  path,
	}, nil
}

// buildFilters returns active filter groups ordered by relaxation
// precedence: the first entry is the first to be dropped.
func buildFilters(entities *models.EntitySet) []orderFilter {
	var filters []orderFilter
	if entities == nil {
		return filters
	}

	if tr := entities.TimeRange; tr != nil {
		filters = append(filters, orderFilter{
			name: RelaxTimeWindow,
			match: func(r *models.Record) bool {
				if r.Timestamp.IsZero() {
					// An undated order cannot prove it is inside the window;
					// undated telemetry stays as corroborating evidence.
					return r.Kind != models.KindOrder
				}
				return tr.Contains(r.Timestamp)
			},
		})
	}
	if len(entities.Locations) > 0 {
		locations := lowerAll(entities.Locations)
		filters = append(filters, orderFilter{
			name: RelaxGeography,
			match: func(r *models.Record) bool {
				if r.City == "" && r.State == "" {
					return true
				}
				return containsFold(locations, r.City) || containsFold(locations, r.State)
			},
		})
	}
	if len(entities.Clients) > 0 || len(entities.Warehouses) > 0 {
		clients := lowerAll(entities.Clients)
		warehouses := lowerAll(entities.Warehouses)
		filters = append(filters, orderFilter{
			name: RelaxClientWarehouse,
			match: func(r *models.Record) bool {
				if len(clients) > 0 && !containsFold(clients, r.Client) {
					return false
				}
				if len(warehouses) > 0 && !containsFold(warehouses, r.Warehouse) {
					return false
				}
				return true
			},
		})
	}
	return filters
}

func keepTimeGeo(filters []orderFilter) []orderFilter {
	var out []orderFilter
	for _, f := range filters {
		if f.name == RelaxTimeWindow || f.name == RelaxGeography {
			out = append(out, f)
		}
	}
	return out
}

func applyFilters(recs []models.Record, filters []orderFilter) []models.Record {
	if len(filters) == 0 {
		return recs
	}
	var out []models.Record
	for i := range recs {
		keep := true
		for _, f := range filters {
			if !f.match(&recs[i]) {
				keep = false
				break
			}
		}
		if keep {
			out = append(out, recs[i])
		}
	}
	return out
}

func lowerAll(values []string) []string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = strings.ToLower(v)
	}
	return out
}

func containsFold(lowered []string, v string) bool {
	v = strings.ToLower(v)
	for _, l := range lowered {
		if l == v {
			return true
		}
	}
	return false
}
