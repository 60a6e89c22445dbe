// Package listing keeps an in-memory mirror of the property collection and
// answers lookups and searches against it.
package listing

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/vbonduro/homefinder/internal/domain"
	"github.com/vbonduro/homefinder/internal/gateway"
)

// Source is the live feed the mirror follows.
type Source interface {
	Subscribe(ctx context.Context) (<-chan gateway.Snapshot, error)
}

type Repository struct {
	logger *slog.Logger

	mu       sync.RWMutex
	records  []domain.PropertyRecord
	byID     map[string]int
	featured []domain.PropertyRecord
	loaded   bool
	version  uint64
	changed  chan struct{}
}

func NewRepository(logger *slog.Logger) *Repository {
	return &Repository{
		logger:  logger,
		byID:    map[string]int{},
		changed: make(chan struct{}),
	}
}

// Run mirrors src until ctx is done or the subscription ends. A subscription
// that ends with an error is logged and not re-established.
func (r *Repository) Run(ctx context.Context, src Source) error {
	ch, err := src.Subscribe(ctx)
	if err != nil {
		r.logger.Error("property subscription failed", "error", err)
		return fmt.Errorf("subscribe to properties: %w", err)
	}

	for snap := range ch {
		if snap.Err != nil {
			if errors.Is(snap.Err, gateway.ErrClosed) {
				r.logger.Info("property subscription closed")
				return nil
			}
			r.logger.Error("property subscription terminated", "error", snap.Err)
			return snap.Err
		}
		r.Replace(snap.Properties)
	}
	return ctx.Err()
}

// Replace swaps the mirror for recs and recomputes derived views.
func (r *Repository) Replace(recs []domain.PropertyRecord) {
	records := make([]domain.PropertyRecord, len(recs))
	byID := make(map[string]int, len(recs))
	var featured []domain.PropertyRecord
	for i, rec := range recs {
		records[i] = rec.Clone()
		byID[rec.ID] = i
		if rec.Featured {
			featured = append(featured, records[i])
		}
	}

	r.mu.Lock()
	r.records = records
	r.byID = byID
	r.featured = featured
	r.loaded = true
	r.version++
	close(r.changed)
	r.changed = make(chan struct{})
	r.mu.Unlock()

	r.logger.Debug("property mirror updated", "properties", len(records), "featured", len(featured))
}

// GetByID returns the mirrored record; ok is false on a miss.
func (r *Repository) GetByID(id string) (domain.PropertyRecord, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	i, ok := r.byID[id]
	if !ok {
		return domain.PropertyRecord{}, false
	}
	return r.records[i].Clone(), true
}

// All returns the mirror in iteration order.
func (r *Repository) All() []domain.PropertyRecord {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return cloneAll(r.records)
}

// Featured returns the featured subset in iteration order.
func (r *Repository) Featured() []domain.PropertyRecord {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return cloneAll(r.featured)
}

// Match returns every record satisfying all of f, in iteration order.
func (r *Repository) Match(f domain.SearchFilters) []domain.PropertyRecord {
	m := newMatcher(f)

	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]domain.PropertyRecord, 0, len(r.records))
	for _, rec := range r.records {
		if m.matches(rec) {
			out = append(out, rec.Clone())
		}
	}
	return out
}

// Loaded reports whether at least one snapshot has been applied.
func (r *Repository) Loaded() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.loaded
}

// Changes returns the current mirror version and a channel closed on the next
// update.
func (r *Repository) Changes() (uint64, <-chan struct{}) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.version, r.changed
}

// Stats counts the mirror by listing kind and property type.
type Stats struct {
	Total    int                         `json:"total"`
	Featured int                         `json:"featured"`
	ByKind   map[domain.ListingKind]int  `json:"byListingType"`
	ByType   map[domain.PropertyType]int `json:"byPropertyType"`
}

func (r *Repository) Stats() Stats {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s := Stats{
		Total:    len(r.records),
		Featured: len(r.featured),
		ByKind:   map[domain.ListingKind]int{},
		ByType:   map[domain.PropertyType]int{},
	}
	for _, rec := range r.records {
		s.ByKind[rec.Kind]++
		s.ByType[rec.Type]++
	}
	return s
}

func cloneAll(recs []domain.PropertyRecord) []domain.PropertyRecord {
	out := make([]domain.PropertyRecord, len(recs))
	for i, rec := range recs {
		out[i] = rec.Clone()
	}
	return out
}
