package app

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"quiz-client/internal/domain"
	"quiz-client/internal/state"
)

// Phase is the position of a QuizSession in its question/answer loop.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseFetchingQuestion
	PhaseQuestionReady
	PhaseSubmitting
	PhaseAnswerShown
	PhaseComplete
	PhaseFailed
)

func (p Phase) String() string {
	switch p {
	case PhaseFetchingQuestion:
		return "fetching-question"
	case PhaseQuestionReady:
		return "question-ready"
	case PhaseSubmitting:
		return "submitting"
	case PhaseAnswerShown:
		return "answer-shown"
	case PhaseComplete:
		return "complete"
	case PhaseFailed:
		return "failed"
	default:
		return "idle"
	}
}

// QuizSession drives one quiz attempt. At most one answer submission is in
// flight at a time, and a shown answer always belongs to the question that
// was fetched last.
type QuizSession struct {
	controller
	api SessionAPI

	mu         sync.Mutex
	quizID     string
	submitting bool
	complete   bool

	question state.Slot[domain.Question]
	answer   state.Slot[domain.AnswerResult]
}

func NewQuizSession(api SessionAPI, log *zap.Logger) *QuizSession {
	return &QuizSession{controller: newController(log), api: api}
}

func (s *QuizSession) QuestionState() *state.Slot[domain.Question]   { return &s.question }
func (s *QuizSession) AnswerState() *state.Slot[domain.AnswerResult] { return &s.answer }

// Init binds the session to quizID and fetches the first question. The id
// cannot change afterwards; re-initializing with the same id is a no-op.
func (s *QuizSession) Init(quizID string) error {
	if quizID == "" {
		return domain.ErrEmptyQuizID
	}
	s.mu.Lock()
	switch s.quizID {
	case "":
		s.quizID = quizID
	case quizID:
		s.mu.Unlock()
		return nil
	default:
		s.mu.Unlock()
		return domain.ErrSessionBound
	}
	s.mu.Unlock()

	s.LoadQuestion()
	return nil
}

func (s *QuizSession) QuizID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.quizID
}

// LoadQuestion fetches the current question and clears any shown answer. It
// doubles as the retry after a failure. Ignored before Init, after
// completion and while a submission is in flight.
func (s *QuizSession) LoadQuestion() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loadQuestionLocked()
}

func (s *QuizSession) loadQuestionLocked() {
	if s.quizID == "" || s.complete || s.submitting {
		return
	}
	quizID := s.quizID
	s.answer.Reset()
	state.Launch(s.scope, &s.question, func(ctx context.Context) (domain.Question, error) {
		return s.api.Question(ctx, quizID)
	}, s.describe(labelQuestion, quizGone))
}

// SubmitAnswer sends answerID for the ready question and reports whether a
// submission was started. It is ignored while another submission is in
// flight, when no question is ready and while an answer is shown.
func (s *QuizSession) SubmitAnswer(answerID int) bool {
	s.mu.Lock()
	question, ready := state.Value(s.question.Get())
	if s.submitting || !ready || s.complete || s.answer.Get() != nil {
		s.mu.Unlock()
		return false
	}
	s.submitting = true
	quizID := s.quizID
	s.answer.Set(state.Loading[domain.AnswerResult]{})
	s.mu.Unlock()

	describe := s.describe(labelSubmit, quizGone)
	s.scope.Go(func(ctx context.Context) {
		result, err := s.api.SubmitAnswer(ctx, quizID, answerID, question.QuestionID)

		// Clear the flag and publish under one lock.
		s.mu.Lock()
		defer s.mu.Unlock()
		s.submitting = false
		if ctx.Err() != nil {
			return
		}
		if err != nil {
			s.answer.Reset()
			s.question.Set(state.Failure[domain.Question]{Message: describe(err)})
			return
		}
		s.answer.Set(state.Success[domain.AnswerResult]{Value: result})
	})
	return true
}

// DismissAnswer acknowledges the shown answer. After the last question the
// session becomes complete; otherwise the next question is fetched exactly
// once.
func (s *QuizSession) DismissAnswer() {
	s.mu.Lock()
	defer s.mu.Unlock()
	result, shown := state.Value(s.answer.Get())
	if !shown {
		return
	}
	if result.IsComplete {
		s.complete = true
		return
	}
	s.loadQuestionLocked()
}

// Complete reports whether the last answer has been acknowledged.
func (s *QuizSession) Complete() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.complete
}

func (s *QuizSession) Phase() Phase {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch {
	case s.quizID == "":
		return PhaseIdle
	case s.complete:
		return PhaseComplete
	}
	switch s.answer.Get().(type) {
	case state.Loading[domain.AnswerResult]:
		return PhaseSubmitting
	case state.Success[domain.AnswerResult]:
		return PhaseAnswerShown
	}
	switch s.question.Get().(type) {
	case state.Success[domain.Question]:
		return PhaseQuestionReady
	case state.Failure[domain.Question]:
		return PhaseFailed
	}
	return PhaseFetchingQuestion
}
