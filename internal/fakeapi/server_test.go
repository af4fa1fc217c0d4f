package fakeapi

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func doJSON(t *testing.T, h http.Handler, method, path, token string, body interface{}) (int, map[string]interface{}) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	out := map[string]interface{}{}
	_ = json.Unmarshal(rec.Body.Bytes(), &out)
	return rec.Code, out
}

func register(t *testing.T, h http.Handler, name string) string {
	t.Helper()
	code, body := doJSON(t, h, http.MethodPost, "/api/auth/register", "", map[string]string{"username": name, "password": "secret1"})
	if code != http.StatusCreated {
		t.Fatalf("register status = %d, body %v", code, body)
	}
	return body["token"].(string)
}

func TestRegisterValidation(t *testing.T) {
	h := New().Handler()

	code, _ := doJSON(t, h, http.MethodPost, "/api/auth/register", "", map[string]string{"username": "ann", "password": "123"})
	if code != http.StatusBadRequest {
		t.Fatalf("short password status = %d", code)
	}
	register(t, h, "ann")
	code, body := doJSON(t, h, http.MethodPost, "/api/auth/register", "", map[string]string{"username": " ann ", "password": "secret1"})
	if code != http.StatusConflict || body["error"] != "Username already taken" {
		t.Fatalf("duplicate = %d %v", code, body)
	}
}

func TestProtectedRoutesNeedToken(t *testing.T) {
	h := New().Handler()
	code, body := doJSON(t, h, http.MethodGet, "/api/categories", "", nil)
	if code != http.StatusUnauthorized || body["error"] == nil {
		t.Fatalf("categories without token = %d %v", code, body)
	}
	code, _ = doJSON(t, h, http.MethodGet, "/api/categories", "garbage", nil)
	if code != http.StatusUnauthorized {
		t.Fatalf("categories with bad token = %d", code)
	}
}

func TestQuizRunsToCompletion(t *testing.T) {
	srv := New()
	h := srv.Handler()
	token := register(t, h, "ann")

	code, start := doJSON(t, h, http.MethodPost, "/api/quiz/start", token, map[string]int{"category_id": 2, "question_count": 10})
	if code != http.StatusCreated {
		t.Fatalf("start = %d %v", code, start)
	}
	quizID := start["quiz_id"].(string)
	if start["total_questions"].(float64) != 2 {
		t.Fatalf("total = %v", start["total_questions"])
	}

	for i := 0; i < 2; i++ {
		code, q := doJSON(t, h, http.MethodGet, "/api/quiz/"+quizID, token, nil)
		if code != http.StatusOK || int(q["question_number"].(float64)) != i+1 {
			t.Fatalf("question %d = %d %v", i, code, q)
		}
		correct, _ := srv.CorrectAnswer(quizID)
		code, res := doJSON(t, h, http.MethodPost, "/api/quiz/"+quizID+"/answer", token,
			map[string]int{"answer_id": correct, "question_id": int(q["question_id"].(float64))})
		if code != http.StatusOK || res["is_correct"] != true {
			t.Fatalf("answer %d = %d %v", i, code, res)
		}
		if res["is_complete"] != (i == 1) {
			t.Fatalf("is_complete after %d = %v", i, res["is_complete"])
		}
	}

	code, _ = doJSON(t, h, http.MethodGet, "/api/quiz/"+quizID, token, nil)
	if code != http.StatusGone {
		t.Fatalf("question after completion = %d", code)
	}
	code, results := doJSON(t, h, http.MethodGet, "/api/quiz/"+quizID+"/results", token, nil)
	if code != http.StatusOK || results["percentage"].(float64) != 100 || len(results["review"].([]interface{})) != 2 {
		t.Fatalf("results = %d %v", code, results)
	}

	code, progress := doJSON(t, h, http.MethodGet, "/api/progress", token, nil)
	overall := progress["overall"].(map[string]interface{})
	if code != http.StatusOK || overall["total_answered"].(float64) != 2 || overall["accuracy"].(float64) != 100 {
		t.Fatalf("progress = %d %v", code, progress)
	}
}

func TestQuizOwnership(t *testing.T) {
	h := New().Handler()
	ann := register(t, h, "ann")
	bob := register(t, h, "bob")

	_, start := doJSON(t, h, http.MethodPost, "/api/quiz/start", ann, map[string]int{"category_id": 1})
	code, _ := doJSON(t, h, http.MethodGet, "/api/quiz/"+start["quiz_id"].(string), bob, nil)
	if code != http.StatusForbidden {
		t.Fatalf("foreign quiz = %d", code)
	}
	code, _ = doJSON(t, h, http.MethodGet, "/api/quiz/unknown", ann, nil)
	if code != http.StatusNotFound {
		t.Fatalf("unknown quiz = %d", code)
	}
}

func TestResetTokenExpires(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	srv := New(WithClock(func() time.Time { return now }))
	h := srv.Handler()
	register(t, h, "ann")

	doJSON(t, h, http.MethodPost, "/api/auth/forgot-password", "", map[string]string{"username": "ann"})
	token, ok := srv.ResetToken("ann")
	if !ok {
		t.Fatalf("no reset token issued")
	}

	now = now.Add(2 * time.Hour)
	code, body := doJSON(t, h, http.MethodPost, "/api/auth/reset-password", "", map[string]string{"token": token, "new_password": "newsecret"})
	if code != http.StatusBadRequest || body["error"] != "Reset token has expired" {
		t.Fatalf("expired reset = %d %v", code, body)
	}
}

func TestDeleteAccountRevokesToken(t *testing.T) {
	h := New().Handler()
	token := register(t, h, "ann")

	code, _ := doJSON(t, h, http.MethodDelete, "/api/auth/delete-account", token, nil)
	if code != http.StatusOK {
		t.Fatalf("delete = %d", code)
	}
	code, _ = doJSON(t, h, http.MethodGet, "/api/progress", token, nil)
	if code != http.StatusUnauthorized {
		t.Fatalf("progress after delete = %d", code)
	}
}

func TestResetNotifierOnlyForKnownUsers(t *testing.T) {
	var got []string
	h := New(WithResetNotifier(func(username, token string) {
		got = append(got, username)
	})).Handler()
	register(t, h, "ann")

	for _, name := range []string{"ghost", " ann "} {
		code, _ := doJSON(t, h, http.MethodPost, "/api/auth/forgot-password", "", map[string]string{"username": name})
		if code != http.StatusOK {
			t.Fatalf("forgot %q = %d", name, code)
		}
	}
	if len(got) != 1 || got[0] != "ann" {
		t.Fatalf("notified %v", got)
	}
}
