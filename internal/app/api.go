package app

import (
	"context"

	"quiz-client/internal/domain"
)

//go:generate mockgen -source=api.go -destination=mock/api_mock.go -package=mock_app

// AuthAPI is the account surface of the remote service.
type AuthAPI interface {
	Login(ctx context.Context, username, password string) (domain.AuthResponse, error)
	Register(ctx context.Context, username, password string) (domain.AuthResponse, error)
	ForgotPassword(ctx context.Context, username string) error
	ResetPassword(ctx context.Context, token, newPassword string) error
	ChangePassword(ctx context.Context, current, newPassword string) error
	DeleteAccount(ctx context.Context) error
}

// CatalogAPI lists categories and starts quizzes.
type CatalogAPI interface {
	Categories(ctx context.Context) ([]domain.Category, error)
	StartQuiz(ctx context.Context, categoryID *int, questionCount int) (domain.StartQuizResponse, error)
}

// SessionAPI drives one quiz attempt.
type SessionAPI interface {
	Question(ctx context.Context, quizID string) (domain.Question, error)
	SubmitAnswer(ctx context.Context, quizID string, answerID, questionID int) (domain.AnswerResult, error)
}

type ReportAPI interface {
	Results(ctx context.Context, quizID string) (domain.Results, error)
	Progress(ctx context.Context) (domain.Progress, error)
}

// CredentialStore is the part of credentials.Store the controllers rely on.
type CredentialStore interface {
	Save(ctx context.Context, c domain.Credentials) error
	Username(ctx context.Context) (string, bool)
	IsLoggedIn(ctx context.Context) bool
	Clear(ctx context.Context) error
}

// ResultsArchive keeps fetched results locally (in-memory, Postgres).
type ResultsArchive interface {
	Save(ctx context.Context, results domain.Results) error
	List(ctx context.Context, limit int) ([]domain.ArchivedResults, error)
}
