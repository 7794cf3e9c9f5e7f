package store

import (
	"github.com/AnkanSaha/auto-jobhunter/internal/domain"
)

func newQueueDoc() []domain.Listing { return []domain.Listing{} }

// LoadQueue returns the pending listings, oldest first. Absent or unreadable
// file yields the empty default.
func (s *Store) LoadQueue() ([]domain.Listing, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loadQueueLocked(), nil
}

func (s *Store) loadQueueLocked() []domain.Listing {
	q := newQueueDoc()
	if err := readDoc(s.queuePath(), &q); err != nil {
		return newQueueDoc()
	}
	return q
}

func (s *Store) SaveQueue(q []domain.Listing) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saveQueueLocked(q)
}

func (s *Store) saveQueueLocked(q []domain.Listing) error {
	if q == nil {
		q = newQueueDoc()
	}
	return writeDoc(s.queuePath(), q)
}

// AppendQueue adds listings to the back of the queue.
func (s *Store) AppendQueue(listings []domain.Listing) error {
	if len(listings) == 0 {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	q := s.loadQueueLocked()
	q = append(q, listings...)
	return s.saveQueueLocked(q)
}

// PeekFront returns a copy of the entry at index 0 without removing it.
// Returns nil on an empty queue.
func (s *Store) PeekFront() (*domain.Listing, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	q := s.loadQueueLocked()
	if len(q) == 0 {
		return nil, nil
	}
	front := q[0]
	return &front, nil
}

// Remove deletes the listing with the given id. Removal is by identity, not
// position: the inbox monitor can pull entries out of the queue while a send
// is in flight, so "the front" may no longer be the item just processed.
// Returns false if the id is not queued.
func (s *Store) Remove(id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	q := s.loadQueueLocked()
	for i, l := range q {
		if l.ID == id {
			q = append(q[:i], q[i+1:]...)
			if err := s.saveQueueLocked(q); err != nil {
				return false, err
			}
			return true, nil
		}
	}
	return false, nil
}

// Requeue moves the listing with l's id to the back, persisting the updated
// copy (attempt bookkeeping on a failed send). Retry-by-requeue keeps the
// front pointing at the next item to process. Returns false without writing
// if the id is no longer queued.
func (s *Store) Requeue(l domain.Listing) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	q := s.loadQueueLocked()
	for i := range q {
		if q[i].ID == l.ID {
			q = append(append(q[:i], q[i+1:]...), l)
			if err := s.saveQueueLocked(q); err != nil {
				return false, err
			}
			return true, nil
		}
	}
	return false, nil
}

// RemoveMatching drops every queued listing the predicate selects and
// returns the removed entries (inbox monitor pulling a company's retries).
func (s *Store) RemoveMatching(pred func(domain.Listing) bool) ([]domain.Listing, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	q := s.loadQueueLocked()
	kept := q[:0]
	var removed []domain.Listing
	for _, l := range q {
		if pred(l) {
			removed = append(removed, l)
			continue
		}
		kept = append(kept, l)
	}
	if len(removed) == 0 {
		return nil, nil
	}
	if err := s.saveQueueLocked(kept); err != nil {
		return nil, err
	}
	return removed, nil
}

func (s *Store) QueueSize() (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.loadQueueLocked()), nil
}
