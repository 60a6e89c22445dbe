// Package notify holds a viewer's in-session notification feed.
package notify

import (
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/vbonduro/homefinder/internal/domain"
)

// Feed is an in-memory notification list, newest first.
type Feed struct {
	logger *slog.Logger
	now    func() time.Time

	mu     sync.Mutex
	items  []domain.Notification
	unread int
}

func NewFeed(logger *slog.Logger, now func() time.Time) *Feed {
	if now == nil {
		now = time.Now
	}
	return &Feed{logger: logger, now: now}
}

// Add stores n unread at the head of the feed. Only the category is checked;
// title and body may be empty.
func (f *Feed) Add(n domain.NewNotification) (domain.Notification, error) {
	if !n.Category.Valid() {
		return domain.Notification{}, domain.FieldError("type", "must be one of [message property system]")
	}

	rec := domain.Notification{
		ID:        uuid.NewString(),
		Category:  n.Category,
		Title:     n.Title,
		Body:      n.Body,
		CreatedAt: f.now(),
	}

	f.mu.Lock()
	f.items = slices.Insert(f.items, 0, rec)
	f.unread++
	f.mu.Unlock()

	f.logger.Debug("notification added", "notification_id", rec.ID, "type", rec.Category)
	return rec, nil
}

// MarkRead flags one notification as read. Marking a read notification again
// is a no-op.
func (f *Feed) MarkRead(id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	i := f.index(id)
	if i < 0 {
		return domain.ErrNotFound
	}
	if !f.items[i].Read {
		f.items[i].Read = true
		f.decrement()
	}
	return nil
}

func (f *Feed) MarkAllRead() {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.items {
		f.items[i].Read = true
	}
	f.unread = 0
}

// Delete removes a notification whatever its read state.
func (f *Feed) Delete(id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	i := f.index(id)
	if i < 0 {
		return domain.ErrNotFound
	}
	if !f.items[i].Read {
		f.decrement()
	}
	f.items = slices.Delete(f.items, i, i+1)
	return nil
}

func (f *Feed) List() []domain.Notification {
	f.mu.Lock()
	defer f.mu.Unlock()
	return slices.Clone(f.items)
}

func (f *Feed) UnreadCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.unread
}

// Seed adds the notifications every new session starts with.
func (f *Feed) Seed() {
	for _, n := range []domain.NewNotification{
		{
			Category: domain.CategorySystem,
			Title:    "Welcome to HomeFinder",
			Body:     "Save listings you like and message an advisor from any property page.",
		},
		{
			Category: domain.CategoryProperty,
			Title:    "New listings this week",
			Body:     "Fresh properties have been added. Check the featured section.",
		},
	} {
		if _, err := f.Add(n); err != nil {
			f.logger.Error("seed notification", "error", err)
		}
	}
}

func (f *Feed) index(id string) int {
	return slices.IndexFunc(f.items, func(n domain.Notification) bool { return n.ID == id })
}

// decrement lowers the unread counter, never below zero. Caller holds f.mu.
func (f *Feed) decrement() {
	if f.unread > 0 {
		f.unread--
	}
}
