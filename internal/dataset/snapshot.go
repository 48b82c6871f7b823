// Package dataset loads the historical delivery dataset, serves an
// atomically swappable read-only snapshot, and filters it per request.
package dataset

import (
	"fmt"
	"sort"
	"strings"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/hyperjump/naze/internal/models"
)

// Snapshot is one complete, immutable view of the dataset. A refresh builds
// a new Snapshot and swaps the pointer; readers always see either the old or
// the new snapshot, never a partial one.
type Snapshot struct {
	Orders          []models.Record
	FleetLogs       []models.Record
	ExternalFactors []models.Record
	Feedback        []models.Record
	Warehouses      []models.Record
	Clients         []models.Record
	Drivers         []models.Record
	WarehouseLogs   []models.Record

	LoadedAt time.Time
}

// Gazetteer holds the known entity names drawn from the snapshot, used by
// the query interpreter for dataset-driven entity extraction.
type Gazetteer struct {
	Cities         []string
	States         []string
	Clients        []string
	Warehouses     []string
	FailureReasons []string
	Statuses       []string
}

// BuildGazetteer collects distinct entity names across the snapshot.
// Output slices are sorted for deterministic matching order.
func (s *Snapshot) BuildGazetteer() *Gazetteer {
	cities := map[string]struct{}{}
	states := map[string]struct{}{}
	clients := map[string]struct{}{}
	warehouses := map[string]struct{}{}
	reasons := map[string]struct{}{}
	statuses := map[string]struct{}{}

	collect := func(recs []models.Record) {
		for i := range recs {
			r := &recs[i]
			addNonEmpty(cities, r.City)
			addNonEmpty(states, r.State)
			addNonEmpty(clients, r.Client)
			addNonEmpty(warehouses, r.Warehouse)
			addNonEmpty(reasons, r.FailureReason)
			addNonEmpty(statuses, r.Status)
		}
	}
	collect(s.Orders)
	collect(s.Warehouses)
	collect(s.Clients)

	return &Gazetteer{
		Cities:         sortedKeys(cities),
		States:         sortedKeys(states),
		Clients:        sortedKeys(clients),
		Warehouses:     sortedKeys(warehouses),
		FailureReasons: sortedKeys(reasons),
		Statuses:       sortedKeys(statuses),
	}
}

func addNonEmpty(set map[string]struct{}, v string) {
	v = strings.TrimSpace(v)
	if v != "" {
		set[v] = struct{}{}
	}
}

func sortedKeys(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Loader produces a fresh Snapshot from some backing source.
type Loader interface {
	Load() (*Snapshot, error)
}

// Provider owns the current snapshot and swaps it on refresh.
type Provider struct {
	loader Loader
	snap   atomic.Pointer[Snapshot]
	logger *zap.Logger
}

// NewProvider loads the initial snapshot. Fails if the first load fails;
// later refresh failures keep the previous snapshot.
func NewProvider(loader Loader, logger *zap.Logger) (*Provider, error) {
	p := &Provider{loader: loader, logger: logger}
	if err := p.Refresh(); err != nil {
		return nil, fmt.Errorf("initial dataset load: %w", err)
	}
	return p, nil
}

// Snapshot returns the current snapshot.
func (p *Provider) Snapshot() *Snapshot {
	return p.snap.Load()
}

// Refresh loads a new snapshot and swaps it in atomically.
func (p *Provider) Refresh() error {
	snap, err := p.loader.Load()
	if err != nil {
		if p.logger != nil {
			p.logger.Warn("dataset refresh failed, keeping previous snapshot", zap.Error(err))
		}
		return err
	}
	snap.LoadedAt = time.Now()
	p.snap.Store(snap)
	if p.logger != nil {
		p.logger.Info("dataset snapshot loaded",
			zap.Int("orders", len(snap.Orders)),
			zap.Int("fleet_logs", len(snap.FleetLogs)),
			zap.Int("external_factors", len(snap.ExternalFactors)),
			zap.Int("feedback", len(snap.Feedback)))
	}
	return nil
}
