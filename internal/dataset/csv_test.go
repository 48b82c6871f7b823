package dataset

import (
	"os"
	"path/filepath"
	"testing"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestCSVLoaderAndProvider(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "orders.csv"),
		"order_id,city,state,client_name,status,failure_reason,order_date\n"+
			"ORD-1,Mumbai,Maharashtra,Acme Corp,Failed,Address not found,2026-03-01\n"+
			"ORD-2,Mumbai,Maharashtra,Acme Corp,Delivered,,2026-03-02\n")
	writeFile(t, filepath.Join(dir, "feedback.csv"),
		"feedback_id,order_id,comments\n"+
			"FB-1,ORD-1,driver could not contact me\n")

	provider, err := NewProvider(NewCSVLoader(dir, nil), nil)
	if err != nil {
		t.Fatalf("NewProvider: %v", err)
	}

	snap := provider.Snapshot()
	if len(snap.Orders) != 2 {
		t.Fatalf("expected 2 orders, got %d", len(snap.Orders))
	}
	if len(snap.Feedback) != 1 || snap.Feedback[0].Comment != "driver could not contact me" {
		t.Fatalf("unexpected feedback: %+v", snap.Feedback)
	}
	if snap.LoadedAt.IsZero() {
		t.Error("expected LoadedAt to be set")
	}

	// Refresh swaps to a new snapshot.
	writeFile(t, filepath.Join(dir, "orders.csv"),
		"order_id,city,status\nORD-9,Delhi,Failed\n")
	if err := provider.Refresh(); err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	snap2 := provider.Snapshot()
	if snap2 == snap {
		t.Fatal("expected a new snapshot after refresh")
	}
	if len(snap2.Orders) != 1 || snap2.Orders[0].ID != "ORD-9" {
		t.Fatalf("unexpected orders after refresh: %+v", snap2.Orders)
	}
}

func TestCSVLoaderMissingTables(t *testing.T) {
	dir := t.TempDir()
	if _, err := NewCSVLoader(dir, nil).Load(); err == nil {
		t.Fatal("expected error for directory with no tables")
	}
}
