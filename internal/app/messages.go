package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"quiz-client/internal/domain"
	"quiz-client/internal/state"
)

const (
	msgInvalidCredentials = "Invalid username or password"
	msgUsernameTaken      = "Username already taken"
	msgInvalidResetToken  = "Invalid or expired reset token"
	msgWrongPassword      = "Current password incorrect"
	msgQuizCompleted      = "Quiz already completed"
)

// failure labels double as the generic "<label> (<code>)" message.
const (
	labelLogin          = "Login failed"
	labelRegister       = "Registration failed"
	labelForgotPassword = "Failed to request password reset"
	labelResetPassword  = "Failed to reset password"
	labelChangePassword = "Failed to change password"
	labelDeleteAccount  = "Failed to delete account"
	labelCategories     = "Failed to load categories"
	labelStartQuiz      = "Failed to start quiz"
	labelQuestion       = "Failed to load question"
	labelSubmit         = "Failed to submit answer"
	labelResults        = "Failed to load results"
	labelProgress       = "Failed to load progress"
	labelHistory        = "Failed to load history"
)

var quizGone = map[int]string{http.StatusGone: msgQuizCompleted}

// describeError maps an operation error to the message shown to the user.
func describeError(label string, special map[int]string, err error) string {
	var (
		apiErr       *domain.APIError
		transportErr *domain.TransportError
		decodeErr    *domain.DecodeError
	)
	switch {
	case errors.As(err, &apiErr):
		if msg, ok := special[apiErr.StatusCode]; ok {
			return msg
		}
		return fmt.Sprintf("%s (%d)", label, apiErr.StatusCode)
	case errors.As(err, &transportErr), errors.As(err, &decodeErr):
		return "Network error: " + err.Error()
	default:
		return label + ": " + err.Error()
	}
}

// controller carries what every controller shares: the goroutine scope its
// operations run in and a logger.
type controller struct {
	scope *state.Scope
	log   *zap.Logger
}

func newController(log *zap.Logger) controller {
	if log == nil {
		log = zap.NewNop()
	}
	return controller{scope: state.NewScope(context.Background()), log: log}
}

// Wait blocks until every launched operation has published its outcome.
func (c *controller) Wait() {
	c.scope.Wait()
}

// Close abandons in-flight operations; their results are discarded.
func (c *controller) Close() {
	c.scope.Close()
}

func (c *controller) describe(label string, special map[int]string) func(error) string {
	return func(err error) string {
		c.log.Warn("operation failed", zap.String("op", label), zap.Error(err))
		return describeError(label, special, err)
	}
}
