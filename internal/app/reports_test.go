package app_test

import (
	"errors"
	"testing"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"quiz-client/internal/app"
	mock_app "quiz-client/internal/app/mock"
	"quiz-client/internal/domain"
	"quiz-client/internal/infra/memory"
	"quiz-client/internal/state"
)

func TestLoadResultsArchivesAndHistoryLists(t *testing.T) {
	ctrl := gomock.NewController(t)
	api := mock_app.NewMockReportAPI(ctrl)
	archive := memory.NewResultsArchive()

	results := app.NewResultsController(api, archive, nil)
	t.Cleanup(results.Close)
	history := app.NewHistoryController(archive, nil)
	t.Cleanup(history.Close)

	api.EXPECT().Results(gomock.Any(), quizID).Return(domain.Results{QuizID: quizID, Score: 4, TotalQuestions: 7}, nil).Times(2)

	results.LoadResults(quizID)
	results.Wait()
	results.LoadResults(quizID)
	results.Wait()

	got, ok := state.Value(results.ResultsState().Get())
	require.True(t, ok)
	assert.Equal(t, 4, got.Score)

	history.LoadHistory(10)
	history.Wait()
	entries, ok := state.Value(history.HistoryState().Get())
	require.True(t, ok)
	require.Len(t, entries, 1)
	assert.Equal(t, quizID, entries[0].Results.QuizID)
}

func TestArchiveFailureDoesNotFailResults(t *testing.T) {
	ctrl := gomock.NewController(t)
	api := mock_app.NewMockReportAPI(ctrl)
	archive := mock_app.NewMockResultsArchive(ctrl)
	c := app.NewResultsController(api, archive, nil)
	t.Cleanup(c.Close)

	api.EXPECT().Results(gomock.Any(), quizID).Return(domain.Results{QuizID: quizID}, nil)
	archive.EXPECT().Save(gomock.Any(), domain.Results{QuizID: quizID}).Return(errors.New("connection reset"))

	c.LoadResults(quizID)
	c.Wait()
	_, ok := state.Value(c.ResultsState().Get())
	assert.True(t, ok)
}

func TestLoadResultsRequiresQuizID(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := app.NewResultsController(mock_app.NewMockReportAPI(ctrl), nil, nil)
	t.Cleanup(c.Close)

	c.LoadResults("")
	c.Wait()
	assert.Equal(t, "Failed to load results: quiz id is empty", failureMessage(t, c.ResultsState()))
}

func TestLoadProgress(t *testing.T) {
	ctrl := gomock.NewController(t)
	api := mock_app.NewMockReportAPI(ctrl)
	c := app.NewProgressController(api, nil)
	t.Cleanup(c.Close)

	api.EXPECT().Progress(gomock.Any()).Return(domain.Progress{Overall: domain.ProgressStats{TotalAnswered: 12, TotalCorrect: 9, Accuracy: 75}}, nil)
	c.LoadProgress()
	c.Wait()
	progress, ok := state.Value(c.ProgressState().Get())
	require.True(t, ok)
	assert.Equal(t, float64(75), progress.Overall.Accuracy)

	api.EXPECT().Progress(gomock.Any()).Return(domain.Progress{}, &domain.APIError{StatusCode: 500})
	c.LoadProgress()
	c.Wait()
	assert.Equal(t, "Failed to load progress (500)", failureMessage(t, c.ProgressState()))
}

func TestHistoryOnEmptyArchive(t *testing.T) {
	c := app.NewHistoryController(memory.NewResultsArchive(), nil)
	t.Cleanup(c.Close)

	c.LoadHistory(0)
	c.Wait()
	entries, ok := state.Value(c.HistoryState().Get())
	require.True(t, ok)
	assert.Empty(t, entries)
}
