// Package chat simulates property inquiry conversations. A viewer message is
// answered by one scripted advisor reply after a fixed delay.
package chat

import (
	"errors"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/vbonduro/homefinder/internal/domain"
	"github.com/vbonduro/homefinder/internal/scheduler"
)

const (
	DefaultReplyDelay = 2 * time.Second

	// AdvisorID is the sender of scripted replies.
	AdvisorID = "advisor"

	ReplyText = "Thanks for reaching out! An advisor will review your message and get back to you shortly."
)

// ErrShutdown is returned by Send after Shutdown.
var ErrShutdown = errors.New("chat: shut down")

// Reply describes a scripted reply that has just been appended.
type Reply struct {
	Thread  domain.Thread
	Message domain.Message
	// Unread is true when the reply landed in a thread the viewer was not
	// looking at.
	Unread bool
}

type Option func(*Simulator)

func WithReplyDelay(d time.Duration) Option {
	return func(s *Simulator) { s.delay = d }
}

// WithOnReply registers fn to run after each scripted reply, outside the
// simulator's lock.
func WithOnReply(fn func(Reply)) Option {
	return func(s *Simulator) { s.onReply = fn }
}

type thread struct {
	domain.Thread
	messages []domain.Message
	activity time.Time
	seq      int
}

type Simulator struct {
	logger  *slog.Logger
	sched   scheduler.Scheduler
	delay   time.Duration
	onReply func(Reply)

	mu         sync.Mutex
	viewerID   string
	threads    map[string]*thread
	byProperty map[string]string
	active     string
	open       bool
	nextSeq    int
	pending    map[uint64]scheduler.Task
	nextTask   uint64
	shutdown   bool
}

func New(sched scheduler.Scheduler, logger *slog.Logger, opts ...Option) *Simulator {
	s := &Simulator{
		logger:     logger,
		sched:      sched,
		delay:      DefaultReplyDelay,
		threads:    map[string]*thread{},
		byProperty: map[string]string{},
		pending:    map[uint64]scheduler.Task{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SetViewer sets the authenticated viewer. An empty id signs the viewer out.
func (s *Simulator) SetViewer(id string) {
	s.mu.Lock()
	s.viewerID = id
	s.mu.Unlock()
}

func (s *Simulator) Authenticated() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.viewerID != ""
}

// StartThread returns the thread for propertyID, creating it if needed. The
// thread becomes the active one and the widget is opened.
func (s *Simulator) StartThread(propertyID, propertyTitle string) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	if id, ok := s.byProperty[propertyID]; ok {
		s.active = id
		s.open = true
		return id
	}

	now := s.sched.Now()
	participants := []string{AdvisorID}
	if s.viewerID != "" {
		participants = []string{s.viewerID, AdvisorID}
	}
	s.nextSeq++
	t := &thread{
		Thread: domain.Thread{
			ID:            uuid.NewString(),
			PropertyID:    propertyID,
			PropertyTitle: propertyTitle,
			Participants:  participants,
			CreatedAt:     now,
		},
		activity: now,
		seq:      s.nextSeq,
	}
	s.threads[t.ID] = t
	s.byProperty[propertyID] = t.ID
	s.active = t.ID
	s.open = true

	s.logger.Info("chat thread started", "thread_id", t.ID, "property_id", propertyID)
	return t.ID
}

// Send appends the viewer's message and schedules one scripted reply.
func (s *Simulator) Send(threadID, text string) (*domain.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.shutdown {
		return nil, ErrShutdown
	}
	if s.viewerID == "" {
		return nil, domain.ErrUnauthenticated
	}
	t, ok := s.threads[threadID]
	if !ok {
		return nil, domain.ErrThreadNotFound
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, domain.ErrEmptyMessage
	}

	if !slices.Contains(t.Participants, s.viewerID) {
		t.Participants = append([]string{s.viewerID}, t.Participants...)
	}
	msg := s.append(t, s.viewerID, text)

	s.nextTask++
	key := s.nextTask
	s.pending[key] = s.sched.AfterFunc(s.delay, func() { s.reply(key, threadID) })

	s.logger.Debug("chat reply scheduled", "thread_id", threadID, "delay", s.delay)
	return &msg, nil
}

// append adds a message to t. Caller holds s.mu.
func (s *Simulator) append(t *thread, sender, text string) domain.Message {
	at := s.sched.Now()
	if n := len(t.messages); n > 0 && at.Before(t.messages[n-1].SentAt) {
		at = t.messages[n-1].SentAt
	}
	msg := domain.Message{
		ID:       uuid.NewString(),
		ThreadID: t.ID,
		Text:     text,
		SenderID: sender,
		SentAt:   at,
	}
	t.messages = append(t.messages, msg)
	t.LastMessage = &domain.MessageSnapshot{Text: text, SenderID: sender, SentAt: at}
	t.activity = at
	return msg
}

func (s *Simulator) reply(key uint64, threadID string) {
	s.mu.Lock()
	if _, ok := s.pending[key]; !ok || s.shutdown {
		s.mu.Unlock()
		return
	}
	delete(s.pending, key)
	t := s.threads[threadID]
	msg := s.append(t, AdvisorID, ReplyText)
	unread := !(s.open && s.active == threadID)
	if unread {
		t.Unread++
	}
	r := Reply{Thread: t.snapshot(), Message: msg, Unread: unread}
	onReply := s.onReply
	s.mu.Unlock()

	s.logger.Debug("chat reply delivered", "thread_id", threadID, "unread", unread)
	if onReply != nil {
		onReply(r)
	}
}

// MarkRead resets the thread's unread counter.
func (s *Simulator) MarkRead(threadID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.threads[threadID]
	if !ok {
		return domain.ErrThreadNotFound
	}
	t.Unread = 0
	return nil
}

func (s *Simulator) SetActive(threadID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.threads[threadID]; !ok {
		return domain.ErrThreadNotFound
	}
	s.active = threadID
	return nil
}

// Open shows the chat widget.
func (s *Simulator) Open() {
	s.mu.Lock()
	s.open = true
	s.mu.Unlock()
}

// Close hides the chat widget. The active thread is kept.
func (s *Simulator) Close() {
	s.mu.Lock()
	s.open = false
	s.mu.Unlock()
}

// Active returns the active thread id and whether the widget is open.
func (s *Simulator) Active() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active, s.open
}

// Threads returns every thread, most recent activity first.
func (s *Simulator) Threads() []domain.Thread {
	s.mu.Lock()
	ts := make([]*thread, 0, len(s.threads))
	for _, t := range s.threads {
		ts = append(ts, t)
	}
	slices.SortFunc(ts, func(a, b *thread) int {
		if c := b.activity.Compare(a.activity); c != 0 {
			return c
		}
		return b.seq - a.seq
	})
	out := make([]domain.Thread, len(ts))
	for i, t := range ts {
		out[i] = t.snapshot()
	}
	s.mu.Unlock()
	return out
}

func (s *Simulator) Thread(threadID string) (domain.Thread, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.threads[threadID]
	if !ok {
		return domain.Thread{}, domain.ErrThreadNotFound
	}
	return t.snapshot(), nil
}

// Messages returns the thread's messages in the order they were appended.
func (s *Simulator) Messages(threadID string) ([]domain.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.threads[threadID]
	if !ok {
		return nil, domain.ErrThreadNotFound
	}
	return slices.Clone(t.messages), nil
}

func (s *Simulator) UnreadTotal() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, t := range s.threads {
		n += t.Unread
	}
	return n
}

// PendingReplies reports how many scripted replies have not fired yet.
func (s *Simulator) PendingReplies() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pending)
}

// Shutdown cancels every pending reply. Later sends fail with ErrShutdown.
func (s *Simulator) Shutdown() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.shutdown {
		return
	}
	s.shutdown = true
	for key, task := range s.pending {
		task.Cancel()
		delete(s.pending, key)
	}
	s.logger.Debug("chat simulator shut down")
}

func (t *thread) snapshot() domain.Thread {
	out := t.Thread
	out.Participants = slices.Clone(t.Participants)
	if t.LastMessage != nil {
		last := *t.LastMessage
		out.LastMessage = &last
	}
	return out
}
