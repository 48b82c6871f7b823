package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/hyperjump/naze/internal/analysis"
	"github.com/hyperjump/naze/internal/config"
	"github.com/hyperjump/naze/internal/dataset"
	"github.com/hyperjump/naze/internal/embedding"
	"github.com/hyperjump/naze/internal/interpret"
	"github.com/hyperjump/naze/internal/models"
)

type staticLoader struct {
	snap *dataset.Snapshot
}

func (l *staticLoader) Load() (*dataset.Snapshot, error) {
	return l.snap, nil
}

func serverSnapshot() *dataset.Snapshot {
	orders := []models.Record{
		{ID: "o1", Kind: models.KindOrder, City: "Mumbai", Status: "Failed", FailureReason: "Address not found"},
		{ID: "o2", Kind: models.KindOrder, City: "Mumbai", Status: "Failed", FailureReason: "Address not found"},
		{ID: "o3", Kind: models.KindOrder, City: "Mumbai", Status: "Delivered"},
		{ID: "o4", Kind: models.KindOrder, City: "Delhi", Status: "Delivered"},
	}
	return &dataset.Snapshot{Orders: orders}
}

func newTestServer(t *testing.T, snap *dataset.Snapshot) *Server {
	t.Helper()
	cfg := &config.Config{}
	config.ApplyDefaults(cfg)

	provider, err := dataset.NewProvider(&staticLoader{snap: snap}, nil)
	if err != nil {
		t.Fatalf("NewProvider: %v", err)
	}
	pool := embedding.NewPool(embedding.NewMockEmbedder(64), 2, 16, time.Second)
	engine := analysis.NewEngine(cfg, provider, interpret.NewInterpreter(nil), pool, "mock", nil)
	return NewServer(engine, &cfg.Server, zap.NewNop())
}

func TestHandleAnalyze(t *testing.T) {
	srv := newTestServer(t, serverSnapshot())
	router := srv.Router()

	body := `{"query": "why are deliveries failing in Mumbai?"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/analyze", strings.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var resp models.AnalysisResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.QueryID == "" || resp.OriginalQuery == "" {
		t.Errorf("missing identifiers: %+v", resp)
	}
	if len(resp.RootCauses) == 0 {
		t.Error("expected root causes")
	}
	if resp.DataSummary.TotalOrders == 0 {
		t.Error("expected data summary")
	}
}

func TestHandleAnalyzeBadRequest(t *testing.T) {
	srv := newTestServer(t, serverSnapshot())
	router := srv.Router()

	cases := []string{
		`not json`,
		`{"query": ""}`,
	}
	for _, body := range cases {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/analyze", strings.NewReader(body))
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("body %q: expected 400, got %d", body, rec.Code)
		}
	}
}

func TestHandleAnalyzeEmptyDataset(t *testing.T) {
	srv := newTestServer(t, &dataset.Snapshot{})
	router := srv.Router()

	req := httptest.NewRequest(http.MethodPost, "/api/v1/analyze", strings.NewReader(`{"query": "anything"}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", rec.Code)
	}
}

func TestHandleHealth(t *testing.T) {
	srv := newTestServer(t, serverSnapshot())
	router := srv.Router()

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestHandleStatus(t *testing.T) {
	srv := newTestServer(t, serverSnapshot())
	router := srv.Router()

	req := httptest.NewRequest(http.MethodGet, "/api/v1/status", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var resp map[string]interface{}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	ds, ok := resp["dataset"].(map[string]interface{})
	if !ok {
		t.Fatalf("missing dataset section: %v", resp)
	}
	if ds["orders"].(float64) != 4 {
		t.Errorf("expected 4 orders, got %v", ds["orders"])
	}
	for _, key := range []string{"drivers", "warehouse_logs", "fleet_logs", "external_factors", "feedback"} {
		if _, ok := ds[key]; !ok {
			t.Errorf("dataset section missing %q: %v", key, ds)
		}
	}
}
