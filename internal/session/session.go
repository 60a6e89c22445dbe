// Package session owns the per-viewer state: saved properties, chat threads,
// notifications and search history.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
	"github.com/vbonduro/homefinder/internal/chat"
	"github.com/vbonduro/homefinder/internal/domain"
	"github.com/vbonduro/homefinder/internal/listing"
	"github.com/vbonduro/homefinder/internal/notify"
	"github.com/vbonduro/homefinder/internal/saved"
	"github.com/vbonduro/homefinder/internal/scheduler"
)

// ErrClosed is returned by Create after Close.
var ErrClosed = errors.New("session: manager closed")

// ErrViewerChanged is returned by Authenticate when the session already
// belongs to a different viewer.
var ErrViewerChanged = errors.New("session: bound to another viewer")

type Session struct {
	ID     string
	Saved  *saved.Tracker
	Chat   *chat.Simulator
	Feed   *notify.Feed
	Search *listing.Searcher

	mu       sync.Mutex
	viewerID string
	lastSeen time.Time
}

func (s *Session) ViewerID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.viewerID
}

func (s *Session) Authenticated() bool {
	return s.ViewerID() != ""
}

func (s *Session) touch(now time.Time) {
	s.mu.Lock()
	s.lastSeen = now
	s.mu.Unlock()
}

func (s *Session) idleSince() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSeen
}

type Config struct {
	IdleTimeout       time.Duration
	ReplyDelay        time.Duration
	SeedNotifications bool
}

type Manager struct {
	logger    *slog.Logger
	sched     scheduler.Scheduler
	listings  *listing.Repository
	favorites saved.Persister
	cfg       Config

	mu       sync.Mutex
	sessions map[string]*Session
	closed   bool
}

// NewManager returns a Manager. favorites may be nil, in which case saved
// properties stay in-session only.
func NewManager(listings *listing.Repository, favorites saved.Persister, sched scheduler.Scheduler, logger *slog.Logger, cfg Config) *Manager {
	if cfg.ReplyDelay <= 0 {
		cfg.ReplyDelay = chat.DefaultReplyDelay
	}
	return &Manager{
		logger:    logger,
		sched:     sched,
		listings:  listings,
		favorites: favorites,
		cfg:       cfg,
		sessions:  map[string]*Session{},
	}
}

// Create starts a new session. A non-empty viewerID authenticates it.
func (m *Manager) Create(ctx context.Context, viewerID string) (*Session, error) {
	now := m.sched.Now()
	s := &Session{
		ID:       uuid.NewString(),
		Saved:    saved.NewTracker(m.logger),
		Feed:     notify.NewFeed(m.logger, m.sched.Now),
		Search:   m.listings.NewSearcher(),
		lastSeen: now,
	}
	s.Chat = chat.New(m.sched, m.logger,
		chat.WithReplyDelay(m.cfg.ReplyDelay),
		chat.WithOnReply(func(r chat.Reply) { notifyReply(m.logger, s.Feed, r) }),
	)
	if m.cfg.SeedNotifications {
		s.Feed.Seed()
	}

	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil, ErrClosed
	}
	m.sessions[s.ID] = s
	m.mu.Unlock()

	if viewerID != "" {
		// A fresh session is anonymous, so this cannot fail.
		_ = m.Authenticate(ctx, s, viewerID)
	}
	m.logger.Info("session created", "session_id", s.ID, "authenticated", s.Authenticated())
	return s, nil
}

// Authenticate binds an anonymous s to viewerID and merges the viewer's
// stored favorites into what was saved anonymously. A session already bound to
// another viewer is left untouched and ErrViewerChanged is returned; callers
// start a new session instead. A failure to load favorites is logged and
// leaves saving in-session only.
func (m *Manager) Authenticate(ctx context.Context, s *Session, viewerID string) error {
	s.mu.Lock()
	if s.viewerID == viewerID {
		s.mu.Unlock()
		return nil
	}
	if s.viewerID != "" {
		s.mu.Unlock()
		return ErrViewerChanged
	}
	s.viewerID = viewerID
	s.mu.Unlock()

	s.Chat.SetViewer(viewerID)
	if m.favorites == nil {
		return nil
	}
	if err := s.Saved.Attach(ctx, m.favorites, viewerID); err != nil {
		m.logger.Error("load saved properties", "session_id", s.ID, "viewer_id", viewerID, "error", err)
	}
	return nil
}

// Get returns the live session and marks it as recently used.
func (m *Manager) Get(id string) (*Session, bool) {
	m.mu.Lock()
	s, ok := m.sessions[id]
	m.mu.Unlock()
	if ok {
		s.touch(m.sched.Now())
	}
	return s, ok
}

func (m *Manager) Delete(id string) {
	m.mu.Lock()
	s, ok := m.sessions[id]
	delete(m.sessions, id)
	m.mu.Unlock()
	if ok {
		end(s)
		m.logger.Info("session ended", "session_id", id)
	}
}

func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// Sweep ends sessions idle for longer than the configured timeout and
// reports how many were removed.
func (m *Manager) Sweep(now time.Time) int {
	if m.cfg.IdleTimeout <= 0 {
		return 0
	}
	var expired []*Session
	m.mu.Lock()
	for id, s := range m.sessions {
		if now.Sub(s.idleSince()) > m.cfg.IdleTimeout {
			expired = append(expired, s)
			delete(m.sessions, id)
		}
	}
	m.mu.Unlock()

	for _, s := range expired {
		end(s)
	}
	if len(expired) > 0 {
		m.logger.Info("expired idle sessions", "count", len(expired))
	}
	return len(expired)
}

// RunSweeper sweeps every interval until ctx is done.
func (m *Manager) RunSweeper(ctx context.Context, interval time.Duration) error {
	c := cron.New(cron.WithLocation(time.UTC))
	if _, err := c.AddFunc("@every "+interval.String(), func() { m.Sweep(m.sched.Now()) }); err != nil {
		return fmt.Errorf("schedule session sweep: %w", err)
	}
	c.Start()
	<-ctx.Done()
	<-c.Stop().Done()
	return nil
}

// Close ends every session. Later calls to Create fail.
func (m *Manager) Close() {
	m.mu.Lock()
	m.closed = true
	all := m.sessions
	m.sessions = map[string]*Session{}
	m.mu.Unlock()

	for _, s := range all {
		end(s)
	}
}

func end(s *Session) {
	s.Chat.Shutdown()
	s.Saved.Wait()
}

func notifyReply(logger *slog.Logger, feed *notify.Feed, r chat.Reply) {
	if !r.Unread {
		return
	}
	_, err := feed.Add(domain.NewNotification{
		Category: domain.CategoryMessage,
		Title:    "New message about " + r.Thread.PropertyTitle,
		Body:     r.Message.Text,
	})
	if err != nil {
		logger.Error("add reply notification", "thread_id", r.Thread.ID, "error", err)
	}
}
