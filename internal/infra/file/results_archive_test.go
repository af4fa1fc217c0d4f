package file

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"quiz-client/internal/domain"
)

func TestResultsArchivePersistsNewestFirst(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "history.json")
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	archive := NewResultsArchiveWithClock(path, func() time.Time {
		now = now.Add(time.Minute)
		return now
	})

	for _, id := range []string{"quiz-1", "quiz-2", "quiz-3"} {
		require.NoError(t, archive.Save(ctx, domain.Results{QuizID: id, Score: 3, TotalQuestions: 5}))
	}
	require.NoError(t, archive.Save(ctx, domain.Results{QuizID: "quiz-1", Score: 5, TotalQuestions: 5}))

	list, err := NewResultsArchive(path).List(ctx, 0)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, "quiz-1", list[0].Results.QuizID)
	assert.Equal(t, 5, list[0].Results.Score)
	assert.Equal(t, "quiz-3", list[1].Results.QuizID)

	limited, err := archive.List(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}

func TestResultsArchiveKeepsReview(t *testing.T) {
	ctx := context.Background()
	archive := NewResultsArchive(filepath.Join(t.TempDir(), "nested", "history.json"))

	results := domain.Results{
		QuizID:         "quiz-1",
		Score:          1,
		TotalQuestions: 2,
		Percentage:     50,
		Review: []domain.ReviewItem{
			{QuestionText: "a", UserAnswer: "x", CorrectAnswer: "x", IsCorrect: true},
			{QuestionText: "b", UserAnswer: "y", CorrectAnswer: "z"},
		},
	}
	require.NoError(t, archive.Save(ctx, results))

	list, err := archive.List(ctx, 0)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, results, list[0].Results)
}

func TestResultsArchiveEmpty(t *testing.T) {
	list, err := NewResultsArchive(filepath.Join(t.TempDir(), "history.json")).List(context.Background(), 5)
	require.NoError(t, err)
	assert.Empty(t, list)
}
