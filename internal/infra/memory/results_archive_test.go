package memory

import (
	"context"
	"testing"
	"time"

	"quiz-client/internal/domain"
)

func TestResultsArchiveListsNewestFirst(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	archive := NewResultsArchiveWithClock(func() time.Time {
		now = now.Add(time.Minute)
		return now
	})

	for _, id := range []string{"quiz-1", "quiz-2", "quiz-3"} {
		if err := archive.Save(ctx, domain.Results{QuizID: id, Score: 1, TotalQuestions: 10}); err != nil {
			t.Fatalf("save %s: %v", id, err)
		}
	}

	list, err := archive.List(ctx, 2)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(list))
	}
	if list[0].Results.QuizID != "quiz-3" || list[1].Results.QuizID != "quiz-2" {
		t.Fatalf("unexpected order: %s, %s", list[0].Results.QuizID, list[1].Results.QuizID)
	}
}

func TestResultsArchiveUpsertsByQuizID(t *testing.T) {
	ctx := context.Background()
	archive := NewResultsArchive()

	_ = archive.Save(ctx, domain.Results{QuizID: "quiz-1", Score: 1})
	_ = archive.Save(ctx, domain.Results{QuizID: "quiz-1", Score: 4})

	list, _ := archive.List(ctx, 0)
	if len(list) != 1 {
		t.Fatalf("expected a single entry, got %d", len(list))
	}
	if list[0].Results.Score != 4 {
		t.Fatalf("expected latest score 4, got %d", list[0].Results.Score)
	}
}
