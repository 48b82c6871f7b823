package feedback

import (
	"testing"

	"github.com/hyperjump/naze/internal/models"
)

func testFeedback() []models.Record {
	return []models.Record{
		{ID: "FB-1", Kind: models.KindFeedback, City: "Mumbai", Comment: "driver never tried to contact me"},
		{ID: "FB-2", Kind: models.KindFeedback, City: "Mumbai", Comment: "could not reach customer by phone"},
		{ID: "FB-3", Kind: models.KindFeedback, City: "Delhi", Comment: "package arrived damaged"},
		{ID: "FB-4", Kind: models.KindFeedback, City: "Delhi"}, // no comment, skipped
	}
}

func TestIndexCountAny(t *testing.T) {
	idx, err := NewIndex(testFeedback())
	if err != nil {
		t.Fatalf("NewIndex: %v", err)
	}
	defer idx.Close()

	if idx.Total() != 3 {
		t.Fatalf("expected 3 indexed comments, got %d", idx.Total())
	}

	n, err := idx.CountAny("contact", "reach", "phone")
	if err != nil {
		t.Fatalf("CountAny: %v", err)
	}
	if n != 2 {
		t.Fatalf("expected 2 contact-related comments, got %d", n)
	}

	n, err = idx.CountAny("warehouse")
	if err != nil {
		t.Fatalf("CountAny: %v", err)
	}
	if n != 0 {
		t.Fatalf("expected no matches, got %d", n)
	}
}

func TestIndexEmpty(t *testing.T) {
	idx, err := NewIndex(nil)
	if err != nil {
		t.Fatalf("NewIndex: %v", err)
	}
	defer idx.Close()

	n, err := idx.CountAny("anything")
	if err != nil || n != 0 {
		t.Fatalf("expected 0 matches on empty index, got %d err %v", n, err)
	}
}
