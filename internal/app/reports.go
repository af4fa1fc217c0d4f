package app

import (
	"context"

	"go.uber.org/zap"

	"quiz-client/internal/domain"
	"quiz-client/internal/state"
)

// ResultsController loads the results of a finished quiz and archives them.
type ResultsController struct {
	controller
	api     ReportAPI
	archive ResultsArchive

	results state.Slot[domain.Results]
}

// NewResultsController accepts a nil archive.
func NewResultsController(api ReportAPI, archive ResultsArchive, log *zap.Logger) *ResultsController {
	return &ResultsController{controller: newController(log), api: api, archive: archive}
}

func (c *ResultsController) ResultsState() *state.Slot[domain.Results] { return &c.results }

// LoadResults is safe to repeat; each call replaces the previous outcome.
// Archive failures are logged and do not affect the slot.
func (c *ResultsController) LoadResults(quizID string) {
	state.Launch(c.scope, &c.results, func(ctx context.Context) (domain.Results, error) {
		if quizID == "" {
			return domain.Results{}, domain.ErrEmptyQuizID
		}
		results, err := c.api.Results(ctx, quizID)
		if err != nil {
			return domain.Results{}, err
		}
		if c.archive != nil {
			if err := c.archive.Save(ctx, results); err != nil {
				c.log.Warn("archive results", zap.String("quiz_id", quizID), zap.Error(err))
			}
		}
		return results, nil
	}, c.describe(labelResults, nil))
}

type ProgressController struct {
	controller
	api ReportAPI

	progress state.Slot[domain.Progress]
}

func NewProgressController(api ReportAPI, log *zap.Logger) *ProgressController {
	return &ProgressController{controller: newController(log), api: api}
}

func (c *ProgressController) ProgressState() *state.Slot[domain.Progress] { return &c.progress }

func (c *ProgressController) LoadProgress() {
	state.Launch(c.scope, &c.progress, c.api.Progress, c.describe(labelProgress, nil))
}

// HistoryController lists locally archived results.
type HistoryController struct {
	controller
	archive ResultsArchive

	history state.Slot[[]domain.ArchivedResults]
}

func NewHistoryController(archive ResultsArchive, log *zap.Logger) *HistoryController {
	return &HistoryController{controller: newController(log), archive: archive}
}

func (c *HistoryController) HistoryState() *state.Slot[[]domain.ArchivedResults] { return &c.history }

// LoadHistory lists up to limit archived results, newest first. limit <= 0 means all.
func (c *HistoryController) LoadHistory(limit int) {
	state.Launch(c.scope, &c.history, func(ctx context.Context) ([]domain.ArchivedResults, error) {
		history, err := c.archive.List(ctx, limit)
		if err != nil {
			return nil, err
		}
		if history == nil {
			history = []domain.ArchivedResults{}
		}
		return history, nil
	}, c.describe(labelHistory, nil))
}
