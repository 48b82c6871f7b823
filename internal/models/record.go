// Package models defines core data structures for records, queries, patterns, and analysis results.
package models

import "time"

// RecordKind identifies which source a record came from.
type RecordKind string

const (
	KindOrder          RecordKind = "order"
	KindFleetLog       RecordKind = "fleet_log"
	KindExternalFactor RecordKind = "external_factor"
	KindFeedback       RecordKind = "feedback"
	KindWarehouse      RecordKind = "warehouse"
	KindClient         RecordKind = "client"
	KindDriver         RecordKind = "driver"
	KindWarehouseLog   RecordKind = "warehouse_log"
)

// Record is one flat historical record drawn from the delivery dataset.
// Fields are populated per kind; unused fields stay zero.
type Record struct {
	ID   string     `json:"id"`
	Kind RecordKind `json:"kind"`

	City      string `json:"city,omitempty"`
	State     string `json:"state,omitempty"`
	Client    string `json:"client,omitempty"`
	Warehouse string `json:"warehouse,omitempty"`

	Status        string `json:"status,omitempty"`
	FailureReason string `json:"failure_reason,omitempty"`

	Weather   string `json:"weather_condition,omitempty"`
	Traffic   string `json:"traffic_condition,omitempty"`
	EventType string `json:"event_type,omitempty"`

	DelayNotes string `json:"gps_delay_notes,omitempty"`
	Comment    string `json:"comment,omitempty"`

	AddressLine2 string `json:"address_line2,omitempty"`
	Pincode      string `json:"pincode,omitempty"`

	OrderValue float64   `json:"order_value,omitempty"`
	Timestamp  time.Time `json:"timestamp,omitempty"`
}

// Failed reports whether an order record represents a failed delivery.
func (r *Record) Failed() bool {
	return r.Status == "Failed"
}

// FilteredDataset is the per-request, read-only subset of the snapshot the
// pipeline reasons over. Orders are the analysis subject; the other slices
// corroborate. RelaxationPath records which filters were dropped to keep the
// set non-empty, in the order they were dropped.
type FilteredDataset struct {
	Orders          []Record `json:"-"`
	FleetLogs       []Record `json:"-"`
	ExternalFactors []Record `json:"-"`
	Feedback        []Record `json:"-"`

	RelaxationPath []string `json:"relaxation_path,omitempty"`
}

// Size returns the number of order records. The clustering guard and the
// affected-order bounds are expressed in this unit.
func (d *FilteredDataset) Size() int {
	return len(d.Orders)
}
