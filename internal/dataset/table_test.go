package dataset

import (
	"testing"
	"time"

	"github.com/hyperjump/naze/internal/models"
)

func TestRecordsFromTableAliases(t *testing.T) {
	header := []string{"Order_ID", "delivery_city", "State", "client_name", "status", "failure_reason", "order_date", "total_amount"}
	rows := [][]string{
		{"ORD-1", "Pune", "Maharashtra", "Acme Corp", "Failed", "Address not found", "2026-03-01 10:30:00", "1250.50"},
		{"", "ghost row has no id"},
		{"ORD-2", "Pune", "Maharashtra", "Acme Corp", "Delivered", "", "2026-03-02", ""},
	}

	recs := recordsFromTable(models.KindOrder, header, rows)
	if len(recs) != 2 {
		t.Fatalf("expected 2 records, got %d", len(recs))
	}

	r := recs[0]
	if r.ID != "ORD-1" || r.City != "Pune" || r.Client != "Acme Corp" {
		t.Errorf("unexpected record: %+v", r)
	}
	if !r.Failed() || r.FailureReason != "Address not found" {
		t.Errorf("expected failed order, got status=%s reason=%s", r.Status, r.FailureReason)
	}
	if r.OrderValue != 1250.50 {
		t.Errorf("expected order value 1250.50, got %v", r.OrderValue)
	}
	want := time.Date(2026, 3, 1, 10, 30, 0, 0, time.UTC)
	if !r.Timestamp.Equal(want) {
		t.Errorf("expected timestamp %v, got %v", want, r.Timestamp)
	}

	if recs[1].Timestamp.IsZero() {
		t.Errorf("date-only timestamp should parse, got zero")
	}
}

func TestRecordsFromTableReferenceNames(t *testing.T) {
	recs := recordsFromTable(models.KindWarehouse,
		[]string{"warehouse_id", "name", "city"},
		[][]string{{"WH-1", "Warehouse A", "Mumbai"}})
	if len(recs) != 1 || recs[0].Warehouse != "Warehouse A" {
		t.Fatalf("expected warehouse name mapped, got %+v", recs)
	}
}

func TestBuildGazetteer(t *testing.T) {
	snap := testSnapshot()
	g := snap.BuildGazetteer()

	if len(g.Cities) != 2 || g.Cities[0] != "Delhi" || g.Cities[1] != "Mumbai" {
		t.Fatalf("expected sorted cities [Delhi Mumbai], got %v", g.Cities)
	}
	if len(g.Clients) != 2 {
		t.Fatalf("expected 2 clients, got %v", g.Clients)
	}
	found := false
	for _, r := range g.FailureReasons {
		if r == "Weather delay" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected Weather delay in failure reasons, got %v", g.FailureReasons)
	}
}
