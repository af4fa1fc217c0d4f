// Package fakeapi serves the quiz REST contract from memory. It backs the
// client tests and the offline sandbox command.
package fakeapi

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"math"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

const (
	tokenTTL      = 30 * 24 * time.Hour
	resetTokenTTL = time.Hour
	maxQuestions  = 10
	minPassword   = 6
)

type user struct {
	id   int
	name string
	hash []byte
}

type resetToken struct {
	userID    int
	expiresAt time.Time
	used      bool
}

type quiz struct {
	id         string
	userID     int
	category   Category
	questions  []Question
	index      int
	score      int
	completed  bool
	answeredBy map[int]int // question id -> chosen answer id
}

type answerRecord struct {
	userID     int
	categoryID int
	correct    bool
}

// Server is an in-memory implementation of the quiz API.
type Server struct {
	mu         sync.Mutex
	secret     []byte
	now        func() time.Time
	catalog    []Category
	users      map[string]*user
	nextUserID int
	resets     map[string]*resetToken
	lastReset  map[string]string
	quizzes    map[string]*quiz
	answers    []answerRecord
	onReset    func(username, token string)
	handler    http.Handler
}

type Option func(*Server)

func WithCatalog(catalog []Category) Option {
	return func(s *Server) { s.catalog = catalog }
}

func WithClock(now func() time.Time) Option {
	return func(s *Server) { s.now = now }
}

// WithResetNotifier is called with every issued reset token, in place of the
// email the real service sends.
func WithResetNotifier(fn func(username, token string)) Option {
	return func(s *Server) { s.onReset = fn }
}

func New(opts ...Option) *Server {
	secret := make([]byte, 32)
	if _, err := rand.Read(secret); err != nil {
		panic(err)
	}
	s := &Server{
		secret:     secret,
		now:        time.Now,
		catalog:    DefaultCatalog(),
		users:      map[string]*user{},
		nextUserID: 1,
		resets:     map[string]*resetToken{},
		lastReset:  map[string]string{},
		quizzes:    map[string]*quiz{},
	}
	for _, opt := range opts {
		opt(s)
	}
	s.handler = s.routes()
	return s
}

// Handler serves the API under /api.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// ResetToken returns the most recent password reset token issued for username,
// standing in for the email the real service sends.
func (s *Server) ResetToken(username string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	token, ok := s.lastReset[username]
	return token, ok
}

// CorrectAnswer reports the correct answer id of the quiz's current question.
func (s *Server) CorrectAnswer(quizID string) (int, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	q, ok := s.quizzes[quizID]
	if !ok || q.index >= len(q.questions) {
		return 0, false
	}
	return q.questions[q.index].correct().ID, true
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Route("/api", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", s.register)
			r.Post("/login", s.login)
			r.Post("/forgot-password", s.forgotPassword)
			r.Post("/reset-password", s.resetPassword)

			r.Group(func(r chi.Router) {
				r.Use(s.requireToken)
				r.Post("/change-password", s.changePassword)
				r.Delete("/delete-account", s.deleteAccount)
			})
		})

		r.Group(func(r chi.Router) {
			r.Use(s.requireToken)
			r.Get("/categories", s.categories)
			r.Post("/quiz/start", s.startQuiz)
			r.Get("/quiz/{quizID}", s.question)
			r.Post("/quiz/{quizID}/answer", s.answer)
			r.Get("/quiz/{quizID}/results", s.results)
			r.Get("/progress", s.progress)
		})
	})
	return r
}

type userIDKey struct{}

func (s *Server) requireToken(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
		if !ok || raw == "" {
			writeError(w, http.StatusUnauthorized, "Missing or invalid token")
			return
		}
		claims := jwt.RegisteredClaims{}
		_, err := jwt.ParseWithClaims(raw, &claims, func(*jwt.Token) (interface{}, error) {
			return s.secret, nil
		}, jwt.WithValidMethods([]string{"HS256"}), jwt.WithTimeFunc(s.now))
		if err != nil {
			writeError(w, http.StatusUnauthorized, "Missing or invalid token")
			return
		}
		id, err := strconv.Atoi(claims.Subject)
		if err != nil || !s.userExists(id) {
			writeError(w, http.StatusUnauthorized, "Missing or invalid token")
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), userIDKey{}, id)))
	})
}

func callerID(r *http.Request) int {
	id, _ := r.Context().Value(userIDKey{}).(int)
	return id
}

func (s *Server) userExists(id int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.userByID(id) != nil
}

func (s *Server) userByID(id int) *user {
	for _, u := range s.users {
		if u.id == id {
			return u
		}
	}
	return nil
}

func (s *Server) issueToken(userID int) (string, error) {
	now := s.now()
	claims := jwt.RegisteredClaims{
		Subject:   strconv.Itoa(userID),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(tokenTTL)),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

type credentialsBody struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (s *Server) register(w http.ResponseWriter, r *http.Request) {
	var body credentialsBody
	_ = json.NewDecoder(r.Body).Decode(&body)
	name := strings.TrimSpace(body.Username)
	if name == "" || body.Password == "" {
		writeError(w, http.StatusBadRequest, "username and password are required")
		return
	}
	if len(body.Password) < minPassword {
		writeError(w, http.StatusBadRequest, "password must be at least 6 characters")
		return
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(body.Password), bcrypt.MinCost)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	s.mu.Lock()
	if _, taken := s.users[name]; taken {
		s.mu.Unlock()
		writeError(w, http.StatusConflict, "Username already taken")
		return
	}
	u := &user{id: s.nextUserID, name: name, hash: hash}
	s.nextUserID++
	s.users[name] = u
	s.mu.Unlock()

	s.writeToken(w, http.StatusCreated, u.id)
}

func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	var body credentialsBody
	_ = json.NewDecoder(r.Body).Decode(&body)
	name := strings.TrimSpace(body.Username)
	if name == "" || body.Password == "" {
		writeError(w, http.StatusBadRequest, "username and password are required")
		return
	}

	s.mu.Lock()
	var (
		id   int
		hash []byte
	)
	if u, ok := s.users[name]; ok {
		id, hash = u.id, u.hash
	}
	s.mu.Unlock()
	if hash == nil || bcrypt.CompareHashAndPassword(hash, []byte(body.Password)) != nil {
		writeError(w, http.StatusUnauthorized, "Invalid username or password")
		return
	}
	s.writeToken(w, http.StatusOK, id)
}

func (s *Server) writeToken(w http.ResponseWriter, status, userID int) {
	token, err := s.issueToken(userID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, status, map[string]interface{}{"token": token, "user_id": userID})
}

const resetAccepted = "If that account exists, a reset email has been sent."

// forgotPassword always answers 200 so usernames cannot be enumerated.
func (s *Server) forgotPassword(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Username string `json:"username"`
	}
	_ = json.NewDecoder(r.Body).Decode(&body)
	name := strings.TrimSpace(body.Username)

	var issued string
	s.mu.Lock()
	if u, ok := s.users[name]; ok {
		for _, rt := range s.resets {
			if rt.userID == u.id {
				rt.used = true
			}
		}
		issued = randomToken()
		s.resets[issued] = &resetToken{userID: u.id, expiresAt: s.now().Add(resetTokenTTL)}
		s.lastReset[name] = issued
	}
	s.mu.Unlock()

	if issued != "" && s.onReset != nil {
		s.onReset(name, issued)
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": resetAccepted})
}

func (s *Server) resetPassword(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Token       string `json:"token"`
		NewPassword string `json:"new_password"`
	}
	_ = json.NewDecoder(r.Body).Decode(&body)
	token := strings.TrimSpace(body.Token)
	if token == "" || body.NewPassword == "" {
		writeError(w, http.StatusBadRequest, "token and new_password are required")
		return
	}
	if len(body.NewPassword) < minPassword {
		writeError(w, http.StatusBadRequest, "password must be at least 6 characters")
		return
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(body.NewPassword), bcrypt.MinCost)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	rt, ok := s.resets[token]
	if !ok || rt.used {
		writeError(w, http.StatusBadRequest, "Invalid or expired reset token")
		return
	}
	if s.now().After(rt.expiresAt) {
		writeError(w, http.StatusBadRequest, "Reset token has expired")
		return
	}
	if u := s.userByID(rt.userID); u != nil {
		u.hash = hash
	}
	rt.used = true
	writeJSON(w, http.StatusOK, map[string]string{"message": "Password reset successful. You can now log in."})
}

func (s *Server) changePassword(w http.ResponseWriter, r *http.Request) {
	var body struct {
		CurrentPassword string `json:"current_password"`
		NewPassword     string `json:"new_password"`
	}
	_ = json.NewDecoder(r.Body).Decode(&body)
	if body.CurrentPassword == "" || body.NewPassword == "" {
		writeError(w, http.StatusBadRequest, "current_password and new_password are required")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	u := s.userByID(callerID(r))
	if u == nil || bcrypt.CompareHashAndPassword(u.hash, []byte(body.CurrentPassword)) != nil {
		writeError(w, http.StatusUnauthorized, "Current password incorrect")
		return
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(body.NewPassword), bcrypt.MinCost)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	u.hash = hash
	writeJSON(w, http.StatusOK, map[string]string{"message": "Password updated successful"})
}

func (s *Server) deleteAccount(w http.ResponseWriter, r *http.Request) {
	id := callerID(r)

	s.mu.Lock()
	defer s.mu.Unlock()
	kept := s.answers[:0]
	for _, rec := range s.answers {
		if rec.userID != id {
			kept = append(kept, rec)
		}
	}
	s.answers = kept
	for qid, q := range s.quizzes {
		if q.userID == id {
			delete(s.quizzes, qid)
		}
	}
	if u := s.userByID(id); u != nil {
		delete(s.users, u.name)
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Account deleted forever"})
}

type categoryBody struct {
	ID            int    `json:"id"`
	Name          string `json:"name"`
	Description   string `json:"description"`
	Icon          string `json:"icon"`
	QuestionCount int    `json:"question_count"`
}

func (s *Server) categories(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	out := make([]categoryBody, 0, len(s.catalog))
	for _, c := range s.catalog {
		out = append(out, categoryBody{
			ID:            c.ID,
			Name:          c.Name,
			Description:   c.Description,
			Icon:          c.Icon,
			QuestionCount: len(c.Questions),
		})
	}
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) startQuiz(w http.ResponseWriter, r *http.Request) {
	var body struct {
		CategoryID    *int `json:"category_id"`
		QuestionCount int  `json:"question_count"`
	}
	_ = json.NewDecoder(r.Body).Decode(&body)
	if body.CategoryID == nil || *body.CategoryID == 0 {
		writeError(w, http.StatusBadRequest, "category_id is required")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	var category *Category
	for i := range s.catalog {
		if s.catalog[i].ID == *body.CategoryID {
			category = &s.catalog[i]
			break
		}
	}
	if category == nil {
		writeError(w, http.StatusNotFound, "Category not found")
		return
	}
	if len(category.Questions) == 0 {
		writeError(w, http.StatusNotFound, "No questions available in this category")
		return
	}

	limit := maxQuestions
	if body.QuestionCount > 0 && body.QuestionCount < limit {
		limit = body.QuestionCount
	}
	questions := category.Questions
	if len(questions) > limit {
		questions = questions[:limit]
	}
	q := &quiz{
		id:         uuid.NewString(),
		userID:     callerID(r),
		category:   *category,
		questions:  append([]Question(nil), questions...),
		answeredBy: map[int]int{},
	}
	s.quizzes[q.id] = q

	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"quiz_id":         q.id,
		"category_name":   category.Name,
		"total_questions": len(q.questions),
	})
}

// ownedQuiz must be called with s.mu held.
func (s *Server) ownedQuiz(w http.ResponseWriter, r *http.Request) (*quiz, bool) {
	q, ok := s.quizzes[chi.URLParam(r, "quizID")]
	if !ok {
		writeError(w, http.StatusNotFound, "Quiz not found")
		return nil, false
	}
	if q.userID != callerID(r) {
		writeError(w, http.StatusForbidden, "Forbidden")
		return nil, false
	}
	return q, true
}

func (s *Server) question(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	q, ok := s.ownedQuiz(w, r)
	if !ok {
		return
	}
	if q.completed || q.index >= len(q.questions) {
		writeJSON(w, http.StatusGone, map[string]interface{}{"error": "Quiz already completed", "is_complete": true})
		return
	}

	cur := q.questions[q.index]
	answers := make([]map[string]interface{}, 0, len(cur.Answers))
	for _, a := range cur.Answers {
		answers = append(answers, map[string]interface{}{"id": a.ID, "answer_text": a.Text})
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"quiz_id":         q.id,
		"question_number": q.index + 1,
		"total_questions": len(q.questions),
		"question_id":     cur.ID,
		"question_text":   cur.Text,
		"answers":         answers,
	})
}

func (s *Server) answer(w http.ResponseWriter, r *http.Request) {
	var body struct {
		AnswerID   int `json:"answer_id"`
		QuestionID int `json:"question_id"`
	}
	_ = json.NewDecoder(r.Body).Decode(&body)

	s.mu.Lock()
	defer s.mu.Unlock()
	q, ok := s.ownedQuiz(w, r)
	if !ok {
		return
	}
	if q.completed || q.index >= len(q.questions) {
		writeError(w, http.StatusGone, "Quiz already completed")
		return
	}
	if body.AnswerID == 0 {
		writeError(w, http.StatusBadRequest, "answer_id is required")
		return
	}

	cur := q.questions[q.index]
	var chosen *Answer
	for i := range cur.Answers {
		if cur.Answers[i].ID == body.AnswerID {
			chosen = &cur.Answers[i]
			break
		}
	}
	if chosen == nil {
		writeError(w, http.StatusBadRequest, "Invalid answer_id for this question")
		return
	}

	if chosen.Correct {
		q.score++
	}
	q.answeredBy[cur.ID] = chosen.ID
	q.index++
	q.completed = q.index >= len(q.questions)
	s.answers = append(s.answers, answerRecord{userID: q.userID, categoryID: q.category.ID, correct: chosen.Correct})

	correct := cur.correct()
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"is_correct":          chosen.Correct,
		"correct_answer_id":   correct.ID,
		"correct_answer_text": correct.Text,
		"explanation":         cur.Explanation,
		"score":               q.score,
		"questions_answered":  q.index,
		"total_questions":     len(q.questions),
		"is_complete":         q.completed,
	})
}

func (s *Server) results(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	q, ok := s.ownedQuiz(w, r)
	if !ok {
		return
	}

	review := []map[string]interface{}{}
	for _, question := range q.questions {
		answerID, answered := q.answeredBy[question.ID]
		if !answered {
			continue
		}
		var picked Answer
		for _, a := range question.Answers {
			if a.ID == answerID {
				picked = a
			}
		}
		review = append(review, map[string]interface{}{
			"question_text":  question.Text,
			"user_answer":    picked.Text,
			"correct_answer": question.correct().Text,
			"explanation":    question.Explanation,
			"source":         question.Source,
			"is_correct":     picked.Correct,
		})
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"quiz_id":         q.id,
		"score":           q.score,
		"total_questions": len(q.questions),
		"percentage":      percent(q.score, len(q.questions)),
		"category_name":   q.category.Name,
		"review":          review,
	})
}

type statsBody struct {
	CategoryID    int     `json:"category_id,omitempty"`
	CategoryName  string  `json:"category_name,omitempty"`
	TotalAnswered int     `json:"total_answered"`
	TotalCorrect  int     `json:"total_correct"`
	Accuracy      float64 `json:"accuracy"`
}

func (s *Server) progress(w http.ResponseWriter, r *http.Request) {
	id := callerID(r)

	s.mu.Lock()
	defer s.mu.Unlock()
	var overall statsBody
	perCategory := map[int]*statsBody{}
	for _, rec := range s.answers {
		if rec.userID != id {
			continue
		}
		overall.TotalAnswered++
		stats, ok := perCategory[rec.categoryID]
		if !ok {
			stats = &statsBody{CategoryID: rec.categoryID}
			perCategory[rec.categoryID] = stats
		}
		stats.TotalAnswered++
		if rec.correct {
			overall.TotalCorrect++
			stats.TotalCorrect++
		}
	}
	overall.Accuracy = percent(overall.TotalCorrect, overall.TotalAnswered)

	byCategory := []statsBody{}
	for _, c := range s.catalog {
		stats, ok := perCategory[c.ID]
		if !ok {
			continue
		}
		stats.CategoryName = c.Name
		stats.Accuracy = percent(stats.TotalCorrect, stats.TotalAnswered)
		byCategory = append(byCategory, *stats)
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"overall":     overall,
		"by_category": byCategory,
	})
}

func percent(part, total int) float64 {
	if total == 0 {
		return 0
	}
	return math.Round(float64(part) / float64(total) * 100)
}

func randomToken() string {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		panic(err)
	}
	return base64.RawURLEncoding.EncodeToString(b)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
