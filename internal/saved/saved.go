// Package saved tracks which properties a viewer has saved during a session.
package saved

import (
	"context"
	"log/slog"
	"slices"
	"sync"
	"time"
)

// Persister stores saved properties for an authenticated viewer.
type Persister interface {
	AddFavorite(ctx context.Context, userID, propertyID string) error
	RemoveFavorite(ctx context.Context, userID, propertyID string) error
	ListFavorites(ctx context.Context, userID string) ([]string, error)
}

const persistTimeout = 5 * time.Second

// Tracker is the in-session set of saved property ids. When a persister is
// attached, toggles are written through in the background; failures are
// logged and never change the in-session state.
type Tracker struct {
	logger *slog.Logger

	mu  sync.Mutex
	ids map[string]struct{}

	persister Persister
	userID    string
	last      chan struct{}
	wg        sync.WaitGroup
}

func NewTracker(logger *slog.Logger) *Tracker {
	return &Tracker{logger: logger, ids: map[string]struct{}{}}
}

// Attach binds the tracker to userID's stored favorites and merges them into
// the current set.
func (t *Tracker) Attach(ctx context.Context, p Persister, userID string) error {
	stored, err := p.ListFavorites(ctx, userID)
	if err != nil {
		return err
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.persister = p
	t.userID = userID
	for _, id := range stored {
		t.ids[id] = struct{}{}
	}
	return nil
}

// Toggle flips membership of id and reports whether it is now saved.
func (t *Tracker) Toggle(id string) bool {
	t.mu.Lock()
	_, was := t.ids[id]
	if was {
		delete(t.ids, id)
	} else {
		t.ids[id] = struct{}{}
	}
	if t.persister != nil {
		prev, done := t.last, make(chan struct{})
		t.last = done
		t.wg.Add(1)
		go t.persist(t.persister, t.userID, id, !was, prev, done)
	}
	t.mu.Unlock()
	return !was
}

// persist runs after the previous write for this tracker so the stored set
// converges on the in-session set.
func (t *Tracker) persist(p Persister, userID, id string, saved bool, prev <-chan struct{}, done chan<- struct{}) {
	defer t.wg.Done()
	defer close(done)
	if prev != nil {
		<-prev
	}
	ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
	defer cancel()

	var err error
	if saved {
		err = p.AddFavorite(ctx, userID, id)
	} else {
		err = p.RemoveFavorite(ctx, userID, id)
	}
	if err != nil {
		t.logger.Warn("persist saved property", "user_id", userID, "property_id", id, "saved", saved, "error", err)
	}
}

func (t *Tracker) IsSaved(id string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, ok := t.ids[id]
	return ok
}

// IDs returns the saved ids in ascending order.
func (t *Tracker) IDs() []string {
	t.mu.Lock()
	out := make([]string, 0, len(t.ids))
	for id := range t.ids {
		out = append(out, id)
	}
	t.mu.Unlock()
	slices.Sort(out)
	return out
}

func (t *Tracker) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.ids)
}

// Wait blocks until background writes have finished.
func (t *Tracker) Wait() {
	t.wg.Wait()
}
