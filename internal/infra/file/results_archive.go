package file

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"
	"sync"
	"time"

	"quiz-client/internal/domain"
)

// ResultsArchive keeps archived results in a single JSON file, newest last.
type ResultsArchive struct {
	path  string
	clock func() time.Time
	mu    sync.Mutex
}

func NewResultsArchive(path string) *ResultsArchive {
	return &ResultsArchive{path: path, clock: time.Now}
}

// NewResultsArchiveWithClock allows deterministic timestamps in tests.
func NewResultsArchiveWithClock(path string, now func() time.Time) *ResultsArchive {
	return &ResultsArchive{path: path, clock: now}
}

// Save upserts by quiz id; a re-saved quiz moves to the end.
func (a *ResultsArchive) Save(_ context.Context, results domain.Results) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	entries, err := a.read()
	if err != nil {
		return err
	}
	kept := entries[:0]
	for _, e := range entries {
		if e.Results.QuizID != results.QuizID {
			kept = append(kept, e)
		}
	}
	kept = append(kept, domain.ArchivedResults{Results: results, ArchivedAt: a.clock().UTC()})

	data, err := json.Marshal(kept)
	if err != nil {
		return err
	}
	return writeFileAtomic(a.path, data)
}

// List returns up to limit entries, newest first. limit <= 0 means all.
func (a *ResultsArchive) List(_ context.Context, limit int) ([]domain.ArchivedResults, error) {
	a.mu.Lock()
	entries, err := a.read()
	a.mu.Unlock()
	if err != nil {
		return nil, err
	}

	// Reverse file order first so equal timestamps keep the latest save on top.
	for i, j := 0, len(entries)-1; i < j; i, j = i+1, j-1 {
		entries[i], entries[j] = entries[j], entries[i]
	}
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].ArchivedAt.After(entries[j].ArchivedAt)
	})
	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}
	return entries, nil
}

func (a *ResultsArchive) read() ([]domain.ArchivedResults, error) {
	data, err := os.ReadFile(a.path)
	if errors.Is(err, os.ErrNotExist) {
		return []domain.ArchivedResults{}, nil
	}
	if err != nil {
		return nil, err
	}
	var entries []domain.ArchivedResults
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("parse %s: %w", a.path, err)
	}
	return entries, nil
}
