package listing

import (
	"sync"
	"time"

	"github.com/vbonduro/homefinder/internal/domain"
)

// HistoryLimit is how many recent searches a Searcher remembers.
const HistoryLimit = 10

// Searcher runs searches for one viewer and remembers their recent filters.
// The history is for display only; it never influences results.
type Searcher struct {
	repo *Repository
	now  func() time.Time

	mu      sync.Mutex
	history []domain.SearchEntry
}

func (r *Repository) NewSearcher() *Searcher {
	return &Searcher{repo: r, now: time.Now}
}

// Search returns the matching records in mirror order. Searches with at least
// one constraint are added to the history.
func (s *Searcher) Search(f domain.SearchFilters) []domain.PropertyRecord {
	results := s.repo.Match(f)
	if !f.IsEmpty() {
		s.record(f)
	}
	return results
}

func (s *Searcher) record(f domain.SearchFilters) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.history = append(s.history, domain.SearchEntry{Filters: f, Query: f.Encode(), At: s.now()})
	if over := len(s.history) - HistoryLimit; over > 0 {
		s.history = append(s.history[:0:0], s.history[over:]...)
	}
}

// History returns recorded searches, newest first.
func (s *Searcher) History() []domain.SearchEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.SearchEntry, len(s.history))
	for i, e := range s.history {
		out[len(s.history)-1-i] = e
	}
	return out
}

func (s *Searcher) ClearHistory() {
	s.mu.Lock()
	s.history = nil
	s.mu.Unlock()
}
