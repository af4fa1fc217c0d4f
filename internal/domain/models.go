package domain

import (
	"encoding/json"
	"time"
)

// DefaultQuestionCount is the number of questions requested when starting a quiz.
const DefaultQuestionCount = 10

// Credentials identify the signed-in user. A non-empty Token means authenticated.
type Credentials struct {
	Token    string
	Username string
	UserID   int
}

// LoginRequest is also used for registration.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type ForgotPasswordRequest struct {
	Username string `json:"username"`
}

type ResetPasswordRequest struct {
	Token       string `json:"token"`
	NewPassword string `json:"new_password"`
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

// AuthResponse is returned by login and register. Username is optional on the wire.
type AuthResponse struct {
	Token    string `json:"token" validate:"required"`
	Username string `json:"username,omitempty"`
	UserID   int    `json:"user_id"`
}

// Category is a question bank the user can start a quiz from.
type Category struct {
	ID            int    `json:"id"`
	Name          string `json:"name" validate:"required"`
	Description   string `json:"description,omitempty"`
	Icon          string `json:"icon,omitempty"`
	QuestionCount int    `json:"question_count"`
}

type StartQuizRequest struct {
	CategoryID    *int `json:"category_id"`
	QuestionCount int  `json:"question_count"`
}

type StartQuizResponse struct {
	QuizID        string `json:"quiz_id" validate:"required"`
	QuestionCount int    `json:"total_questions"`
	CategoryName  string `json:"category_name,omitempty"`
}

type AnswerOption struct {
	ID   int    `json:"id"`
	Text string `json:"answer_text"`
}

// Question is the current question of a quiz. QuestionNumber is 1-based.
type Question struct {
	QuestionID     int            `json:"question_id" validate:"required"`
	QuestionNumber int            `json:"question_number"`
	TotalQuestions int            `json:"total_questions"`
	Text           string         `json:"question_text" validate:"required"`
	Answers        []AnswerOption `json:"answers" validate:"required"`
	IsComplete     bool           `json:"is_complete"`
}

type AnswerRequest struct {
	AnswerID   int `json:"answer_id"`
	QuestionID int `json:"question_id"`
}

// AnswerResult is the server's verdict on one submitted answer.
type AnswerResult struct {
	Correct           bool   `json:"is_correct"`
	CorrectAnswerID   int    `json:"correct_answer_id,omitempty"`
	CorrectAnswerText string `json:"correct_answer_text" validate:"required"`
	Explanation       string `json:"explanation,omitempty"`
	IsComplete        bool   `json:"is_complete"`
	Score             int    `json:"score"`
	QuestionsAnswered int    `json:"questions_answered"`
	TotalQuestions    int    `json:"total_questions"`
}

type ReviewItem struct {
	QuestionText  string `json:"question_text"`
	UserAnswer    string `json:"user_answer"`
	CorrectAnswer string `json:"correct_answer"`
	IsCorrect     bool   `json:"is_correct"`
	Explanation   string `json:"explanation,omitempty"`
	Source        string `json:"source,omitempty"`
}

// Results summarizes a finished quiz.
//
// Score and TotalQuestions are optional on the wire. When absent they are
// derived from Review (correct count and length), and when Review is also
// absent TotalQuestions falls back to DefaultQuestionCount and Score to 0.
type Results struct {
	QuizID         string       `json:"quiz_id" validate:"required"`
	Score          int          `json:"score"`
	TotalQuestions int          `json:"total_questions"`
	Percentage     float64      `json:"percentage"`
	Category       string       `json:"category_name,omitempty"`
	CompletedAt    string       `json:"completed_at,omitempty"`
	Review         []ReviewItem `json:"review,omitempty"`
}

type resultsWire struct {
	QuizID         string       `json:"quiz_id"`
	Score          *int         `json:"score"`
	TotalQuestions *int         `json:"total_questions"`
	Percentage     float64      `json:"percentage"`
	Category       string       `json:"category_name"`
	CompletedAt    string       `json:"completed_at"`
	Review         []ReviewItem `json:"review"`
}

func (r *Results) UnmarshalJSON(data []byte) error {
	var wire resultsWire
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}
	*r = Results{
		QuizID:      wire.QuizID,
		Percentage:  wire.Percentage,
		Category:    wire.Category,
		CompletedAt: wire.CompletedAt,
		Review:      wire.Review,
	}

	switch {
	case wire.TotalQuestions != nil:
		r.TotalQuestions = *wire.TotalQuestions
	case wire.Review != nil:
		r.TotalQuestions = len(wire.Review)
	default:
		r.TotalQuestions = DefaultQuestionCount
	}

	switch {
	case wire.Score != nil:
		r.Score = *wire.Score
	case wire.Review != nil:
		for _, item := range wire.Review {
			if item.IsCorrect {
				r.Score++
			}
		}
	}
	return nil
}

// ProgressStats is the aggregate shape shared by the overall and per-category views.
type ProgressStats struct {
	TotalAnswered int     `json:"total_answered"`
	TotalCorrect  int     `json:"total_correct"`
	Accuracy      float64 `json:"accuracy"`
}

type CategoryProgress struct {
	CategoryID   int    `json:"category_id"`
	CategoryName string `json:"category_name"`
	ProgressStats
}

// Progress is computed server-side; the client only displays it.
type Progress struct {
	ByCategory []CategoryProgress `json:"by_category"`
	Overall    ProgressStats      `json:"overall"`
}

// ArchivedResults is a Results snapshot kept locally after it was fetched.
type ArchivedResults struct {
	Results    Results   `json:"results"`
	ArchivedAt time.Time `json:"archived_at"`
}
