// Package gateway is the document backend the rest of the service talks to:
// property CRUD, single-field queries, favorites, and live whole-collection
// snapshots for mirrors.
package gateway

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"
	"github.com/vbonduro/homefinder/internal/domain"
	"github.com/vbonduro/homefinder/internal/store"
)

var ErrClosed = errors.New("gateway closed")

// Snapshot is the full property collection at one point in time. A snapshot
// with a non-nil Err is the last value sent on a subscription.
type Snapshot struct {
	Properties []domain.PropertyRecord
	Err        error
}

type propertyRepository interface {
	Create(ctx context.Context, rec domain.PropertyRecord) (*domain.PropertyRecord, error)
	GetByID(ctx context.Context, id string) (*domain.PropertyRecord, error)
	List(ctx context.Context) ([]*domain.PropertyRecord, error)
	Update(ctx context.Context, rec domain.PropertyRecord) (*domain.PropertyRecord, error)
	Delete(ctx context.Context, id string) error
	Query(ctx context.Context, q store.Query) ([]*domain.PropertyRecord, error)
}

type favoriteRepository interface {
	Add(ctx context.Context, userID, propertyID string) error
	Remove(ctx context.Context, userID, propertyID string) error
	ListByUser(ctx context.Context, userID string) ([]*domain.Favorite, error)
}

type Gateway struct {
	props  propertyRepository
	favs   favoriteRepository
	logger *slog.Logger

	// writeMu orders write+publish pairs so subscribers never see an older
	// snapshot after a newer one.
	writeMu sync.Mutex

	mu      sync.Mutex
	subs    map[*subscription]struct{}
	closed  bool
	closing chan struct{}
}

type subscription struct {
	ch chan Snapshot
}

func New(props propertyRepository, favs favoriteRepository, logger *slog.Logger) *Gateway {
	return &Gateway{
		props:   props,
		favs:    favs,
		logger:  logger,
		subs:    make(map[*subscription]struct{}),
		closing: make(chan struct{}),
	}
}

// CreateProperty stores rec, assigning a fresh id when rec.ID is empty.
func (g *Gateway) CreateProperty(ctx context.Context, rec domain.PropertyRecord) (*domain.PropertyRecord, error) {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}

	g.writeMu.Lock()
	defer g.writeMu.Unlock()

	created, err := g.props.Create(ctx, rec)
	if err != nil {
		return nil, err
	}
	g.logger.Info("property created", "property_id", created.ID)
	g.publish(ctx)
	return created, nil
}

func (g *Gateway) UpdateProperty(ctx context.Context, rec domain.PropertyRecord) (*domain.PropertyRecord, error) {
	g.writeMu.Lock()
	defer g.writeMu.Unlock()

	updated, err := g.props.Update(ctx, rec)
	if err != nil {
		return nil, err
	}
	g.logger.Info("property updated", "property_id", updated.ID)
	g.publish(ctx)
	return updated, nil
}

func (g *Gateway) DeleteProperty(ctx context.Context, id string) error {
	g.writeMu.Lock()
	defer g.writeMu.Unlock()

	if err := g.props.Delete(ctx, id); err != nil {
		return err
	}
	g.logger.Info("property deleted", "property_id", id)
	g.publish(ctx)
	return nil
}

// GetProperty returns (nil, nil) when the property does not exist.
func (g *Gateway) GetProperty(ctx context.Context, id string) (*domain.PropertyRecord, error) {
	return g.props.GetByID(ctx, id)
}

func (g *Gateway) ListProperties(ctx context.Context) ([]domain.PropertyRecord, error) {
	recs, err := g.props.List(ctx)
	if err != nil {
		return nil, err
	}
	return values(recs), nil
}

func (g *Gateway) QueryProperties(ctx context.Context, q store.Query) ([]domain.PropertyRecord, error) {
	recs, err := g.props.Query(ctx, q)
	if err != nil {
		return nil, err
	}
	return values(recs), nil
}

func (g *Gateway) AddFavorite(ctx context.Context, userID, propertyID string) error {
	return g.favs.Add(ctx, userID, propertyID)
}

func (g *Gateway) RemoveFavorite(ctx context.Context, userID, propertyID string) error {
	return g.favs.Remove(ctx, userID, propertyID)
}

// ListFavorites returns the property ids the user has favorited.
func (g *Gateway) ListFavorites(ctx context.Context, userID string) ([]string, error) {
	favs, err := g.favs.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(favs))
	for _, f := range favs {
		ids = append(ids, f.PropertyID)
	}
	return ids, nil
}

// Subscribe returns a channel carrying the current snapshot followed by one
// snapshot per subsequent write. Only the newest undelivered snapshot is kept
// for a slow reader. The channel is closed when ctx is done or the gateway is
// closed.
func (g *Gateway) Subscribe(ctx context.Context) (<-chan Snapshot, error) {
	// Holding writeMu from the initial read until registration means every
	// later write publishes to this subscriber.
	g.writeMu.Lock()
	defer g.writeMu.Unlock()

	initial, err := g.ListProperties(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load initial snapshot: %w", err)
	}

	sub := &subscription{ch: make(chan Snapshot, 1)}

	g.mu.Lock()
	if g.closed {
		g.mu.Unlock()
		return nil, ErrClosed
	}
	g.subs[sub] = struct{}{}
	sub.offer(Snapshot{Properties: initial})
	g.mu.Unlock()

	go func() {
		select {
		case <-ctx.Done():
		case <-g.closing:
		}
		g.unsubscribe(sub)
	}()

	return sub.ch, nil
}

// Close ends every subscription with ErrClosed.
func (g *Gateway) Close() {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.closed {
		return
	}
	g.closed = true
	close(g.closing)
	g.terminateLocked(ErrClosed)
}

func (g *Gateway) unsubscribe(sub *subscription) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, ok := g.subs[sub]; ok {
		delete(g.subs, sub)
		close(sub.ch)
	}
}

// publish sends the current collection to every subscriber. A failure to read
// the collection terminates all subscriptions with that error.
func (g *Gateway) publish(ctx context.Context) {
	snap, err := g.ListProperties(context.WithoutCancel(ctx))

	g.mu.Lock()
	defer g.mu.Unlock()
	if err != nil {
		g.logger.Error("failed to load snapshot, terminating subscriptions", "error", err)
		g.terminateLocked(fmt.Errorf("snapshot: %w", err))
		return
	}
	for sub := range g.subs {
		sub.offer(Snapshot{Properties: snap})
	}
	g.logger.Debug("snapshot published", "properties", len(snap), "subscribers", len(g.subs))
}

func (g *Gateway) terminateLocked(err error) {
	for sub := range g.subs {
		sub.offer(Snapshot{Err: err})
		close(sub.ch)
		delete(g.subs, sub)
	}
}

// offer replaces any undelivered snapshot with snap. Callers hold g.mu, which
// makes the gateway the only sender, so the send after draining cannot block.
func (s *subscription) offer(snap Snapshot) {
	select {
	case <-s.ch:
	default:
	}
	s.ch <- snap
}

func values(recs []*domain.PropertyRecord) []domain.PropertyRecord {
	out := make([]domain.PropertyRecord, 0, len(recs))
	for _, r := range recs {
		out = append(out, *r)
	}
	return out
}
