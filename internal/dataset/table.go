package dataset

import (
	"strconv"
	"strings"
	"time"

	"github.com/hyperjump/naze/internal/models"
)

// tableNames maps dataset table (or file/sheet) names to record kinds.
// Every backend exposes the same logical tables.
var tableNames = map[string]models.RecordKind{
	"orders":           models.KindOrder,
	"fleet_logs":       models.KindFleetLog,
	"external_factors": models.KindExternalFactor,
	"feedback":         models.KindFeedback,
	"warehouses":       models.KindWarehouse,
	"clients":          models.KindClient,
	"drivers":          models.KindDriver,
	"warehouse_logs":   models.KindWarehouseLog,
}

// columnAliases maps a Record field to the column names that may carry it.
// Exports from different dataset versions vary in naming, so the first
// present alias wins.
var columnAliases = map[string][]string{
	"id":            {"order_id", "log_id", "factor_id", "feedback_id", "warehouse_id", "client_id", "driver_id", "id"},
	"city":          {"city", "delivery_city"},
	"state":         {"state", "delivery_state"},
	"client":        {"client_name", "client"},
	"warehouse":     {"warehouse_name", "warehouse"},
	"status":        {"status", "order_status"},
	"failure":       {"failure_reason"},
	"weather":       {"weather_condition", "weather"},
	"traffic":       {"traffic_condition", "traffic"},
	"event":         {"event_type"},
	"delay_notes":   {"gps_delay_notes", "delay_notes", "notes"},
	"comment":       {"comments", "comment", "feedback_text"},
	"address_line2": {"delivery_address_line2", "address_line2"},
	"pincode":       {"delivery_address_pincode", "pincode"},
	"order_value":   {"order_value", "total_amount", "amount"},
	"timestamp":     {"order_date", "log_time", "recorded_at", "created_at", "timestamp"},
	"name":          {"warehouse_name", "client_name", "driver_name", "name"},
}

var timestampLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02",
	"02-01-2006",
}

type rowReader struct {
	index map[string]int
	row   []string
}

func newRowIndex(header []string) map[string]int {
	index := make(map[string]int, len(header))
	for i, col := range header {
		index[strings.ToLower(strings.TrimSpace(col))] = i
	}
	return index
}

func (r *rowReader) field(key string) string {
	for _, alias := range columnAliases[key] {
		if i, ok := r.index[alias]; ok && i < len(r.row) {
			if v := strings.TrimSpace(r.row[i]); v != "" {
				return v
			}
		}
	}
	return ""
}

func (r *rowReader) floatField(key string) float64 {
	v := r.field(key)
	if v == "" {
		return 0
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0
	}
	return f
}

func (r *rowReader) timeField(key string) time.Time {
	v := r.field(key)
	if v == "" {
		return time.Time{}
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, v); err == nil {
			return t
		}
	}
	return time.Time{}
}

// recordsFromTable converts one table's rows into records of the given kind.
// Unknown columns are ignored; rows with no id are skipped.
func recordsFromTable(kind models.RecordKind, header []string, rows [][]string) []models.Record {
	index := newRowIndex(header)
	out := make([]models.Record, 0, len(rows))
	for _, row := range rows {
		r := rowReader{index: index, row: row}
		id := r.field("id")
		if id == "" {
			continue
		}
		rec := models.Record{
			ID:            id,
			Kind:          kind,
			City:          r.field("city"),
			State:         r.field("state"),
			Client:        r.field("client"),
			Warehouse:     r.field("warehouse"),
			Status:        r.field("status"),
			FailureReason: r.field("failure"),
			Weather:       r.field("weather"),
			Traffic:       r.field("traffic"),
			EventType:     r.field("event"),
			DelayNotes:    r.field("delay_notes"),
			Comment:       r.field("comment"),
			AddressLine2:  r.field("address_line2"),
			Pincode:       r.field("pincode"),
			OrderValue:    r.floatField("order_value"),
			Timestamp:     r.timeField("timestamp"),
		}
		// Reference tables expose their name as the entity field.
		switch kind {
		case models.KindWarehouse:
			if rec.Warehouse == "" {
				rec.Warehouse = r.field("name")
			}
		case models.KindClient:
			if rec.Client == "" {
				rec.Client = r.field("name")
			}
		}
		out = append(out, rec)
	}
	return out
}

func (s *Snapshot) assign(kind models.RecordKind, recs []models.Record) {
	switch kind {
	case models.KindOrder:
		s.Orders = recs
	case models.KindFleetLog:
		s.FleetLogs = recs
	case models.KindExternalFactor:
		s.ExternalFactors = recs
	case models.KindFeedback:
		s.Feedback = recs
	case models.KindWarehouse:
		s.Warehouses = recs
	case models.KindClient:
		s.Clients = recs
	case models.KindDriver:
		s.Drivers = recs
	case models.KindWarehouseLog:
		s.WarehouseLogs = recs
	}
}
