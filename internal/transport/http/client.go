package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"quiz-client/internal/domain"
)

// DefaultBaseURL is the production API origin.
const DefaultBaseURL = "https://quiz.nuclear-motd.com/api/"

// TokenSource supplies the bearer token for outgoing requests and forgets it
// when the server rejects the session.
type TokenSource interface {
	Token(ctx context.Context) (string, bool)
	Clear(ctx context.Context) error
}

// Client is the typed REST client for the quiz API.
type Client struct {
	rest     *resty.Client
	tokens   TokenSource
	log      *zap.Logger
	validate *validator.Validate
}

type options struct {
	httpClient *http.Client
	timeout    time.Duration
	log        *zap.Logger
}

type Option func(*options)

// WithHTTPClient replaces the underlying *http.Client (tests, custom transports).
func WithHTTPClient(hc *http.Client) Option {
	return func(o *options) { o.httpClient = hc }
}

// WithTimeout bounds every request. Zero leaves the transport default.
func WithTimeout(d time.Duration) Option {
	return func(o *options) { o.timeout = d }
}

func WithLogger(log *zap.Logger) Option {
	return func(o *options) { o.log = log }
}

func NewClient(baseURL string, tokens TokenSource, opts ...Option) *Client {
	o := options{log: zap.NewNop()}
	for _, opt := range opts {
		opt(&o)
	}
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	rest := resty.New()
	if o.httpClient != nil {
		rest = resty.NewWithClient(o.httpClient)
	}
	rest.SetBaseURL(baseURL).
		SetHeader("Accept", "application/json").
		SetDisableWarn(true)
	if o.timeout > 0 {
		rest.SetTimeout(o.timeout)
	}

	c := &Client{rest: rest, tokens: tokens, log: o.log, validate: validator.New()}
	rest.OnBeforeRequest(c.attachBearer)
	return c
}

// attachBearer sets Authorization on every request while a token is stored.
func (c *Client) attachBearer(_ *resty.Client, r *resty.Request) error {
	if c.tokens == nil {
		return nil
	}
	if token, ok := c.tokens.Token(r.Context()); ok {
		r.SetAuthToken(token)
	}
	return nil
}

func (c *Client) Login(ctx context.Context, username, password string) (domain.AuthResponse, error) {
	var out domain.AuthResponse
	err := c.do(ctx, call{
		op: "login", method: resty.MethodPost, path: "auth/login",
		body: domain.LoginRequest{Username: strings.TrimSpace(username), Password: strings.TrimSpace(password)},
	}, &out)
	return out, err
}

func (c *Client) Register(ctx context.Context, username, password string) (domain.AuthResponse, error) {
	var out domain.AuthResponse
	err := c.do(ctx, call{
		op: "register", method: resty.MethodPost, path: "auth/register",
		body: domain.LoginRequest{Username: strings.TrimSpace(username), Password: strings.TrimSpace(password)},
	}, &out)
	return out, err
}

// ForgotPassword asks the server to email a reset token. Success only means the request was accepted.
func (c *Client) ForgotPassword(ctx context.Context, username string) error {
	return c.do(ctx, call{
		op: "forgot password", method: resty.MethodPost, path: "auth/forgot-password",
		body: domain.ForgotPasswordRequest{Username: strings.TrimSpace(username)},
	}, nil)
}

// ResetPassword redeems an emailed reset token.
func (c *Client) ResetPassword(ctx context.Context, token, newPassword string) error {
	return c.do(ctx, call{
		op: "reset password", method: resty.MethodPost, path: "auth/reset-password",
		body: domain.ResetPasswordRequest{Token: strings.TrimSpace(token), NewPassword: strings.TrimSpace(newPassword)},
	}, nil)
}

// ChangePassword answers 401 when current is wrong, so it never drops the session.
func (c *Client) ChangePassword(ctx context.Context, current, newPassword string) error {
	return c.do(ctx, call{
		op: "change password", method: resty.MethodPost, path: "auth/change-password",
		body: domain.ChangePasswordRequest{CurrentPassword: strings.TrimSpace(current), NewPassword: strings.TrimSpace(newPassword)},
	}, nil)
}

func (c *Client) DeleteAccount(ctx context.Context) error {
	return c.do(ctx, call{
		op: "delete account", method: resty.MethodDelete, path: "auth/delete-account", session: true,
	}, nil)
}

func (c *Client) Categories(ctx context.Context) ([]domain.Category, error) {
	var out []domain.Category
	err := c.do(ctx, call{
		op: "list categories", method: resty.MethodGet, path: "categories", session: true,
	}, &out)
	if err != nil {
		return nil, err
	}
	if out == nil {
		return nil, &domain.DecodeError{Op: "list categories", Err: errors.New("expected a JSON array, got null")}
	}
	return out, nil
}

// StartQuiz requests questionCount questions; zero or less means DefaultQuestionCount.
func (c *Client) StartQuiz(ctx context.Context, categoryID *int, questionCount int) (domain.StartQuizResponse, error) {
	if questionCount <= 0 {
		questionCount = domain.DefaultQuestionCount
	}
	var out domain.StartQuizResponse
	err := c.do(ctx, call{
		op: "start quiz", method: resty.MethodPost, path: "quiz/start", session: true,
		body: domain.StartQuizRequest{CategoryID: categoryID, QuestionCount: questionCount},
	}, &out)
	return out, err
}

func (c *Client) Question(ctx context.Context, quizID string) (domain.Question, error) {
	var out domain.Question
	err := c.do(ctx, call{
		op: "get question", method: resty.MethodGet, path: "quiz/{quizId}", session: true,
		params: map[string]string{"quizId": quizID},
	}, &out)
	return out, err
}

func (c *Client) SubmitAnswer(ctx context.Context, quizID string, answerID, questionID int) (domain.AnswerResult, error) {
	var out domain.AnswerResult
	err := c.do(ctx, call{
		op: "submit answer", method: resty.MethodPost, path: "quiz/{quizId}/answer", session: true,
		params: map[string]string{"quizId": quizID},
		body:   domain.AnswerRequest{AnswerID: answerID, QuestionID: questionID},
	}, &out)
	return out, err
}

func (c *Client) Results(ctx context.Context, quizID string) (domain.Results, error) {
	var out domain.Results
	err := c.do(ctx, call{
		op: "get results", method: resty.MethodGet, path: "quiz/{quizId}/results", session: true,
		params: map[string]string{"quizId": quizID},
	}, &out)
	return out, err
}

func (c *Client) Progress(ctx context.Context) (domain.Progress, error) {
	var out domain.Progress
	err := c.do(ctx, call{
		op: "get progress", method: resty.MethodGet, path: "progress", session: true,
	}, &out)
	return out, err
}

type call struct {
	op     string
	method string
	path   string
	params map[string]string
	body   interface{}
	// session marks endpoints where 401 means the stored token is no longer valid.
	session bool
}

func (c *Client) do(ctx context.Context, cl call, out interface{}) error {
	req := c.rest.R().SetContext(ctx)
	if cl.params != nil {
		req.SetPathParams(cl.params)
	}
	if cl.body != nil {
		req.SetHeader("Content-Type", "application/json").SetBody(cl.body)
	}

	resp, err := req.Execute(cl.method, cl.path)
	if err != nil {
		return &domain.TransportError{Op: cl.op, Err: err}
	}

	if !resp.IsSuccess() {
		apiErr := &domain.APIError{StatusCode: resp.StatusCode(), Message: errorMessage(resp)}
		c.log.Debug("api request failed",
			zap.String("op", cl.op),
			zap.String("method", cl.method),
			zap.String("path", resp.Request.URL),
			zap.Int("status", apiErr.StatusCode),
		)
		if cl.session && apiErr.StatusCode == http.StatusUnauthorized && c.tokens != nil {
			if err := c.tokens.Clear(ctx); err != nil {
				c.log.Warn("clear rejected credentials", zap.Error(err))
			}
		}
		return apiErr
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(resp.Body(), out); err != nil {
		return &domain.DecodeError{Op: cl.op, Err: err}
	}
	if err := c.checkShape(out); err != nil {
		return &domain.DecodeError{Op: cl.op, Err: err}
	}
	return nil
}

// checkShape enforces the required fields of a decoded struct or slice of structs.
func (c *Client) checkShape(out interface{}) error {
	v := reflect.Indirect(reflect.ValueOf(out))
	switch v.Kind() {
	case reflect.Struct:
		return c.validate.Struct(v.Interface())
	case reflect.Slice:
		for i := 0; i < v.Len(); i++ {
			if elem := v.Index(i); elem.Kind() == reflect.Struct {
				if err := c.validate.Struct(elem.Interface()); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

// errorMessage prefers the server's {"error": "..."} body over the status text.
func errorMessage(resp *resty.Response) string {
	var body struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(resp.Body(), &body); err == nil && body.Error != "" {
		return body.Error
	}
	return http.StatusText(resp.StatusCode())
}
