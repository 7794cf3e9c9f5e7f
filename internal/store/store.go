// Package store persists the outreach state as two flat JSON documents:
// history.json (every attempt plus the dedup sets) and queue.json (listings
// awaiting dispatch). Every mutation is whole-document read-modify-write;
// a process-level file lock plus an in-process mutex keep writers single.
package store

import (
	"os"
	"path/filepath"
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/gofrs/flock"
)

const (
	historyFile = "history.json"
	queueFile   = "queue.json"
	lockFile    = "jobhunter.lock"
)

type Store struct {
	mu   sync.Mutex
	dir  string
	lock *flock.Flock
}

// Open acquires the data directory. It fails if another process already holds
// the lock; the documents are only correct under single-writer access.
func Open(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.Wrap(err, "create data dir")
	}

	fl := flock.New(filepath.Join(dir, lockFile))
	locked, err := fl.TryLock()
	if err != nil {
		return nil, errors.Wrap(err, "acquire data dir lock")
	}
	if !locked {
		return nil, errors.Newf("data dir %s is locked by another process", dir)
	}

	return &Store{dir: dir, lock: fl}, nil
}

// Init creates the default documents if they are absent. Bootstrap is an
// explicit step, not a side effect of the read path.
func (s *Store) Init() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := os.Stat(s.historyPath()); errors.Is(err, os.ErrNotExist) {
		if err := s.saveHistoryLocked(newHistoryDoc()); err != nil {
			return errors.Wrap(err, "init history document")
		}
	}
	if _, err := os.Stat(s.queuePath()); errors.Is(err, os.ErrNotExist) {
		if err := s.saveQueueLocked(newQueueDoc()); err != nil {
			return errors.Wrap(err, "init queue document")
		}
	}
	return nil
}

func (s *Store) Close() error {
	if s == nil || s.lock == nil {
		return nil
	}
	return s.lock.Unlock()
}

func (s *Store) historyPath() string { return filepath.Join(s.dir, historyFile) }
func (s *Store) queuePath() string   { return filepath.Join(s.dir, queueFile) }
