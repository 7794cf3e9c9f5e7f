package store

import (
	"github.com/AnkanSaha/auto-jobhunter/internal/domain"
)

func newHistoryDoc() *domain.History { return domain.NewHistory() }

// LoadHistory returns the history document. An absent or unreadable file
// yields the empty default; the next save rewrites it whole.
func (s *Store) LoadHistory() (*domain.History, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loadHistoryLocked(), nil
}

func (s *Store) loadHistoryLocked() *domain.History {
	h := newHistoryDoc()
	if err := readDoc(s.historyPath(), h); err != nil {
		return newHistoryDoc()
	}
	if h.Jobs == nil {
		h.Jobs = []domain.HistoryRecord{}
	}
	if h.SentEmails == nil {
		h.SentEmails = []string{}
	}
	if h.SentCompanies == nil {
		h.SentCompanies = []string{}
	}
	return h
}

func (s *Store) SaveHistory(h *domain.History) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saveHistoryLocked(h)
}

func (s *Store) saveHistoryLocked(h *domain.History) error {
	return writeDoc(s.historyPath(), h)
}

// UpdateHistory applies fn under the store lock and writes the result back,
// keeping the read-modify-write of one attempt in one critical section.
func (s *Store) UpdateHistory(fn func(*domain.History)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	h := s.loadHistoryLocked()
	fn(h)
	return s.saveHistoryLocked(h)
}
