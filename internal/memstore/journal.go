package memstore

import (
	"context"
	"sync"
	"time"

	"stonegames/internal/models"
)

// DefaultJournalSize is the number of entries a Journal keeps when none is
// given.
const DefaultJournalSize = 1000

// Journal is a bounded in-memory sync journal. The oldest entries are
// dropped once it is full.
type Journal struct {
	mu      sync.Mutex
	entries []models.SyncLogEntry
	size    int
	nextID  int64
}

// NewJournal returns a journal keeping at most size entries.
func NewJournal(size int) *Journal {
	if size <= 0 {
		size = DefaultJournalSize
	}
	return &Journal{size: size}
}

// Record appends an entry.
func (j *Journal) Record(_ context.Context, categoryID string, delta int, reason string, cause error) {
	msg := ""
	if cause != nil {
		msg = cause.Error()
	}

	j.mu.Lock()
	defer j.mu.Unlock()

	j.nextID++
	j.entries = append(j.entries, models.SyncLogEntry{
		ID:         j.nextID,
		CategoryID: categoryID,
		Delta:      delta,
		Reason:     reason,
		Error:      msg,
		LoggedAt:   time.Now(),
	})
	if over := len(j.entries) - j.size; over > 0 {
		j.entries = append(j.entries[:0:0], j.entries[over:]...)
	}
}

// Recent returns up to limit entries, newest first.
func (j *Journal) Recent(_ context.Context, limit int) ([]models.SyncLogEntry, error) {
	j.mu.Lock()
	defer j.mu.Unlock()

	n := min(max(limit, 0), len(j.entries))
	out := make([]models.SyncLogEntry, 0, n)
	for i := len(j.entries) - 1; i >= 0 && len(out) < n; i-- {
		out = append(out, j.entries[i])
	}
	return out, nil
}
