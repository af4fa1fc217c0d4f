package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"quiz-client/internal/domain"
)

// ResultsArchive keeps fetched quiz results for the lifetime of the process.
// It is used when no postgres archive is configured.
type ResultsArchive struct {
	clock func() time.Time

	mu      sync.RWMutex
	entries map[string]archiveEntry
	seq     int
}

type archiveEntry struct {
	record domain.ArchivedResults
	seq    int
}

func NewResultsArchive() *ResultsArchive {
	return NewResultsArchiveWithClock(time.Now)
}

// NewResultsArchiveWithClock allows deterministic timestamps in tests.
func NewResultsArchiveWithClock(now func() time.Time) *ResultsArchive {
	return &ResultsArchive{
		clock:   now,
		entries: make(map[string]archiveEntry),
	}
}

// Save upserts by quiz id.
func (a *ResultsArchive) Save(_ context.Context, results domain.Results) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.seq++
	a.entries[results.QuizID] = archiveEntry{
		record: domain.ArchivedResults{Results: results, ArchivedAt: a.clock()},
		seq:    a.seq,
	}
	return nil
}

// List returns up to limit entries, newest first. limit <= 0 means all.
func (a *ResultsArchive) List(_ context.Context, limit int) ([]domain.ArchivedResults, error) {
	a.mu.RLock()
	entries := make([]archiveEntry, 0, len(a.entries))
	for _, e := range a.entries {
		entries = append(entries, e)
	}
	a.mu.RUnlock()

	sort.Slice(entries, func(i, j int) bool {
		if !entries[i].record.ArchivedAt.Equal(entries[j].record.ArchivedAt) {
			return entries[i].record.ArchivedAt.After(entries[j].record.ArchivedAt)
		}
		return entries[i].seq > entries[j].seq
	})

	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}
	out := make([]domain.ArchivedResults, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.record)
	}
	return out, nil
}
