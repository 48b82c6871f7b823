package dataset

import (
	"errors"
	"testing"
	"time"

	"github.com/hyperjump/naze/internal/models"
)

func testSnapshot() *Snapshot {
	day := func(d int) time.Time {
		return time.Date(2026, 3, d, 12, 0, 0, 0, time.UTC)
	}
	return &Snapshot{
		Orders: []models.Record{
			{ID: "o1", Kind: models.KindOrder, City: "Mumbai", State: "Maharashtra", Client: "Acme Corp", Warehouse: "Warehouse A", Status: "Failed", FailureReason: "Address not found", Timestamp: day(1)},
			{ID: "o2", Kind: models.KindOrder, City: "Mumbai", State: "Maharashtra", Client: "Acme Corp", Warehouse: "Warehouse A", Status: "Delivered", Timestamp: day(2)},
			{ID: "o3", Kind: models.KindOrder, City: "Delhi", State: "Delhi", Client: "Globex", Warehouse: "Warehouse B", Status: "Failed", FailureReason: "Customer not available", Timestamp: day(10)},
			{ID: "o4", Kind: models.KindOrder, City: "Delhi", State: "Delhi", Client: "Globex", Warehouse: "Warehouse B", Status: "Failed", FailureReason: "Weather delay", Timestamp: day(20)},
		},
		FleetLogs: []models.Record{
			{ID: "f1", Kind: models.KindFleetLog, City: "Mumbai", DelayNotes: "heavy traffic on ring road", Timestamp: day(1)},
			{ID: "f2", Kind: models.KindFleetLog, DelayNotes: "breakdown"},
		},
		Feedback: []models.Record{
			{ID: "fb1", Kind: models.KindFeedback, City: "Mumbai", Comment: "could not reach the customer by phone", Timestamp: day(1)},
		},
	}
}

func TestFilterByLocation(t *testing.T) {
	snap := testSnapshot()
	got, err := Filter(snap, &models.EntitySet{Locations: []string{"Mumbai"}})
	if err != nil {
		t.Fatalf("Filter: %v", err)
	}
	if got.Size() != 2 {
		t.Fatalf("expected 2 orders, got %d", got.Size())
	}
	for _, o := range got.Orders {
		if o.City != "Mumbai" {
			t.Errorf("unexpected order %s in city %s", o.ID, o.City)
		}
	}
	if len(got.RelaxationPath) != 0 {
		t.Errorf("unexpected relaxation: %v", got.RelaxationPath)
	}
}

func TestFilterByState(t *testing.T) {
	snap := testSnapshot()
	got, err := Filter(snap, &models.EntitySet{Locations: []string{"maharashtra"}})
	if err != nil {
		t.Fatalf("Filter: %v", err)
	}
	if got.Size() != 2 {
		t.Fatalf("expected 2 orders, got %d", got.Size())
	}
}

func TestFilterTimeWindow(t *testing.T) {
	snap := testSnapshot()
	tr := &models.TimeRange{
		From: time.Date(2026, 3, 5, 0, 0, 0, 0, time.UTC),
		To:   time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC),
	}
	got, err := Filter(snap, &models.EntitySet{TimeRange: tr})
	if err != nil {
		t.Fatalf("Filter: %v", err)
	}
	if got.Size() != 1 || got.Orders[0].ID != "o3" {
		t.Fatalf("expected only o3, got %+v", got.Orders)
	}
	// Undated fleet log survives as corroborating evidence.
	if len(got.FleetLogs) != 1 || got.FleetLogs[0].ID != "f2" {
		t.Fatalf("expected undated fleet log kept, got %+v", got.FleetLogs)
	}
}

func TestFilterRelaxesTimeFirst(t *testing.T) {
	snap := testSnapshot()
	tr := &models.TimeRange{
		From: time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC),
		To:   time.Date(2020, 2, 1, 0, 0, 0, 0, time.UTC),
	}
	got, err := Filter(snap, &models.EntitySet{TimeRange: tr, Locations: []string{"Mumbai"}})
	if err != nil {
		t.Fatalf("Filter: %v", err)
	}
	if got.Size() != 2 {
		t.Fatalf("expected geography to survive relaxation, got %d orders", got.Size())
	}
	if len(got.RelaxationPath) != 1 || got.RelaxationPath[0] != RelaxTimeWindow {
		t.Fatalf("expected [time_window], got %v", got.RelaxationPath)
	}
}

func TestFilterRelaxesEverything(t *testing.T) {
	snap := testSnapshot()
	tr := &models.TimeRange{
		From: time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC),
		To:   time.Date(2020, 2, 1, 0, 0, 0, 0, time.UTC),
	}
	got, err := Filter(snap, &models.EntitySet{
		TimeRange: tr,
		Locations: []string{"Atlantis"},
		Clients:   []string{"Nonesuch Ltd"},
	})
	if err != nil {
		t.Fatalf("Filter: %v", err)
	}
	if got.Size() != len(snap.Orders) {
		t.Fatalf("expected full fallback, got %d orders", got.Size())
	}
	want := []string{RelaxTimeWindow, RelaxGeography, RelaxClientWarehouse}
	if len(got.RelaxationPath) != len(want) {
		t.Fatalf("expected %v, got %v", want, got.RelaxationPath)
	}
	for i, name := range want {
		if got.RelaxationPath[i] != name {
			t.Fatalf("expected %v, got %v", want, got.RelaxationPath)
		}
	}
}

func TestFilterEmptySnapshot(t *testing.T) {
	_, err := Filter(&Snapshot{}, &models.EntitySet{})
	if !errors.Is(err, ErrEmptyDataset) {
		t.Fatalf("expected ErrEmptyDataset, got %v", err)
	}
}

func TestFilterNoEntities(t *testing.T) {
	snap := testSnapshot()
	got, err := Filter(snap, &models.EntitySet{})
	if err != nil {
		t.Fatalf("Filter: %v", err)
	}
	if got.Size() != len(snap.Orders) {
		t.Fatalf("expected all orders, got %d", got.Size())
	}
}
