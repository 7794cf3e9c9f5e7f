package store

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AnkanSaha/auto-jobhunter/internal/domain"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestOpenRejectsSecondWriter(t *testing.T) {
	dir := t.TempDir()

	first, err := Open(dir)
	require.NoError(t, err)
	defer first.Close()

	_, err = Open(dir)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "locked")
}

func TestInitCreatesDefaults(t *testing.T) {
	s := openTestStore(t)
	require.NoError(t, s.Init())

	_, err := os.Stat(filepath.Join(s.dir, historyFile))
	assert.NoError(t, err)
	_, err = os.Stat(filepath.Join(s.dir, queueFile))
	assert.NoError(t, err)

	h, err := s.LoadHistory()
	require.NoError(t, err)
	assert.Empty(t, h.Jobs)
	assert.NotNil(t, h.SentEmails)
	assert.NotNil(t, h.SentCompanies)

	q, err := s.LoadQueue()
	require.NoError(t, err)
	assert.Empty(t, q)
}

func TestInitIsIdempotent(t *testing.T) {
	s := openTestStore(t)
	require.NoError(t, s.Init())

	require.NoError(t, s.AppendQueue([]domain.Listing{{ID: "1", Company: "Acme"}}))
	require.NoError(t, s.UpdateHistory(func(h *domain.History) {
		h.RecordSent(domain.Listing{Company: "Globex"}, time.Now())
	}))

	// A second Init must never clobber existing documents.
	require.NoError(t, s.Init())

	size, err := s.QueueSize()
	require.NoError(t, err)
	assert.Equal(t, 1, size)

	h, err := s.LoadHistory()
	require.NoError(t, err)
	assert.Len(t, h.Jobs, 1)
}

func TestLoadHistoryRepairsCorruptFile(t *testing.T) {
	s := openTestStore(t)
	require.NoError(t, os.WriteFile(filepath.Join(s.dir, historyFile), []byte("{not json"), 0o644))

	h, err := s.LoadHistory()
	require.NoError(t, err)
	assert.Empty(t, h.Jobs)
	assert.NotNil(t, h.SentEmails)
}

func TestQueueFIFO(t *testing.T) {
	s := openTestStore(t)
	require.NoError(t, s.Init())

	require.NoError(t, s.AppendQueue([]domain.Listing{
		{ID: "1", Company: "A"},
		{ID: "2", Company: "B"},
	}))
	require.NoError(t, s.AppendQueue([]domain.Listing{{ID: "3", Company: "C"}}))

	front, err := s.PeekFront()
	require.NoError(t, err)
	require.NotNil(t, front)
	assert.Equal(t, "1", front.ID)

	// Peek does not consume.
	size, err := s.QueueSize()
	require.NoError(t, err)
	assert.Equal(t, 3, size)

	for _, id := range []string{"1", "2", "3"} {
		removed, err := s.Remove(id)
		require.NoError(t, err)
		assert.True(t, removed)

		next, err := s.PeekFront()
		require.NoError(t, err)
		if next != nil {
			assert.Greater(t, next.ID, id, "queue must stay oldest-first")
		}
	}

	removed, err := s.Remove("1")
	require.NoError(t, err)
	assert.False(t, removed, "already gone")
}

func TestRemoveByIDLeavesOthersIntact(t *testing.T) {
	s := openTestStore(t)
	require.NoError(t, s.Init())
	require.NoError(t, s.AppendQueue([]domain.Listing{
		{ID: "1", Company: "A"},
		{ID: "2", Company: "B"},
		{ID: "3", Company: "C"},
	}))

	removed, err := s.Remove("2")
	require.NoError(t, err)
	assert.True(t, removed)

	q, err := s.LoadQueue()
	require.NoError(t, err)
	require.Len(t, q, 2)
	assert.Equal(t, "1", q[0].ID)
	assert.Equal(t, "3", q[1].ID)
}

func TestRequeue(t *testing.T) {
	s := openTestStore(t)
	require.NoError(t, s.Init())
	require.NoError(t, s.AppendQueue([]domain.Listing{
		{ID: "1", Company: "A"},
		{ID: "2", Company: "B"},
	}))

	updated := domain.Listing{ID: "1", Company: "A", Attempts: 1}
	requeued, err := s.Requeue(updated)
	require.NoError(t, err)
	assert.True(t, requeued)

	q, err := s.LoadQueue()
	require.NoError(t, err)
	require.Len(t, q, 2)
	assert.Equal(t, "2", q[0].ID)
	assert.Equal(t, "1", q[1].ID)
	assert.Equal(t, 1, q[1].Attempts)
}

func TestRequeueMissingIDIsNoOp(t *testing.T) {
	s := openTestStore(t)
	require.NoError(t, s.Init())
	require.NoError(t, s.AppendQueue([]domain.Listing{{ID: "1", Company: "A"}}))

	requeued, err := s.Requeue(domain.Listing{ID: "gone", Company: "X", Attempts: 1})
	require.NoError(t, err)
	assert.False(t, requeued)

	q, err := s.LoadQueue()
	require.NoError(t, err)
	require.Len(t, q, 1)
	assert.Equal(t, "1", q[0].ID)
}

func TestRemoveMatching(t *testing.T) {
	s := openTestStore(t)
	require.NoError(t, s.Init())
	require.NoError(t, s.AppendQueue([]domain.Listing{
		{ID: "1", Company: "Acme"},
		{ID: "2", Company: "Globex"},
		{ID: "3", Company: "Acme"},
	}))

	removed, err := s.RemoveMatching(func(l domain.Listing) bool { return l.Company == "Acme" })
	require.NoError(t, err)
	assert.Len(t, removed, 2)

	q, err := s.LoadQueue()
	require.NoError(t, err)
	require.Len(t, q, 1)
	assert.Equal(t, "Globex", q[0].Company)

	removed, err = s.RemoveMatching(func(l domain.Listing) bool { return l.Company == "Nobody" })
	require.NoError(t, err)
	assert.Nil(t, removed)
}

func TestWriteKeepsBackup(t *testing.T) {
	s := openTestStore(t)
	require.NoError(t, s.Init())

	require.NoError(t, s.AppendQueue([]domain.Listing{{ID: "1", Company: "A"}}))
	require.NoError(t, s.AppendQueue([]domain.Listing{{ID: "2", Company: "B"}}))

	_, err := os.Stat(filepath.Join(s.dir, queueFile+".bak"))
	assert.NoError(t, err)
}

func TestHistoryRoundTrip(t *testing.T) {
	s := openTestStore(t)
	require.NoError(t, s.Init())

	now := time.Now().UTC().Truncate(time.Second)
	require.NoError(t, s.UpdateHistory(func(h *domain.History) {
		h.RecordSent(domain.Listing{Company: "Acme", HREmail: "hr@acme.com"}, now)
		h.RecordFailed(domain.Listing{Company: "Globex"}, now, "boom")
	}))

	h, err := s.LoadHistory()
	require.NoError(t, err)
	require.Len(t, h.Jobs, 2)
	assert.Equal(t, domain.StatusSent, h.Jobs[0].Status)
	assert.Equal(t, domain.StatusFailed, h.Jobs[1].Status)
	assert.Equal(t, "boom", h.Jobs[1].ErrorMessage)
	assert.Equal(t, []string{"hr@acme.com"}, h.SentEmails)
	assert.ElementsMatch(t, []string{"acme", "globex"}, h.SentCompanies)
}
