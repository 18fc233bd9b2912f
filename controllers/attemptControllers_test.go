package controllers

import (
	"database/sql"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/codequizhub/codequiz_backend/models"
	"github.com/codequizhub/codequiz_backend/util"
	"github.com/gofiber/fiber/v2"
)

func setupMockDB(t *testing.T) sqlmock.Sqlmock {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to open sqlmock: %v", err)
	}
	util.DB = db
	t.Cleanup(func() { db.Close() })
	return mock
}

// newTestApp mounts the attempt routes behind a stub auth middleware that
// injects the given user, the way Protected() would after token checks.
func newTestApp(user models.User) *fiber.App {
	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		c.Locals("user", user)
		return c.Next()
	})
	app.Post("/api/quizzes/:id/submit", SubmitQuiz)
	app.Get("/api/quizzes/:id/attempts/:attempt_id", GetQuizAttemptResult)
	return app
}

func doJSON(t *testing.T, app *fiber.App, method, target, body string) (int, map[string]interface{}) {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("failed to read response body: %v", err)
	}
	parsed := map[string]interface{}{}
	if err := json.Unmarshal(raw, &parsed); err != nil {
		t.Fatalf("failed to parse response %q: %v", raw, err)
	}
	return resp.StatusCode, parsed
}

func questionColumns() []string {
	return []string{"id", "quiz_id", "question_text", "option_a", "option_b", "option_c", "option_d", "correct_answer", "explanation", "created_at"}
}

func fiveQuestionRows() *sqlmock.Rows {
	now := time.Now()
	rows := sqlmock.NewRows(questionColumns())
	key := []string{"A", "B", "C", "D", "A"}
	for i, correct := range key {
		rows.AddRow(i+1, 1, "q", "a", "b", "c", "d", correct, nil, now)
	}
	return rows
}

func expectGradingFlow(mock sqlmock.Sqlmock, attemptID string) {
	mock.ExpectQuery("SELECT id FROM quizzes").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1))
	mock.ExpectQuery("SELECT id, quiz_id, question_text").
		WillReturnRows(fiveQuestionRows())
	mock.ExpectBegin()
	mock.ExpectQuery("INSERT INTO quiz_attempts").
		WithArgs(7, 1, 5, 120).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(attemptID))
	prep := mock.ExpectPrepare("INSERT INTO user_answers")
	prep.ExpectExec().WithArgs(attemptID, 1, "A", true).WillReturnResult(sqlmock.NewResult(0, 1))
	prep.ExpectExec().WithArgs(attemptID, 2, "B", true).WillReturnResult(sqlmock.NewResult(0, 1))
	prep.ExpectExec().WithArgs(attemptID, 3, "X", false).WillReturnResult(sqlmock.NewResult(0, 1))
	prep.ExpectExec().WithArgs(attemptID, 4, "D", true).WillReturnResult(sqlmock.NewResult(0, 1))
	prep.ExpectExec().WithArgs(attemptID, 5, "", false).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE quiz_attempts").
		WithArgs(60.0, 3, attemptID).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()
}

const submitBody = `{"answers":{"1":"A","2":"B","3":"X","4":"D","5":""},"time_taken":120}`

func TestSubmitQuizGradesAndPersists(t *testing.T) {
	mock := setupMockDB(t)
	app := newTestApp(models.User{ID: 7, Username: "alice", Role: "user"})

	attemptID := "11111111-1111-1111-1111-111111111111"
	expectGradingFlow(mock, attemptID)

	status, body := doJSON(t, app, http.MethodPost, "/api/quizzes/1/submit", submitBody)
	if status != http.StatusOK {
		t.Fatalf("status = %d, want 200", status)
	}
	if body["success"] != true {
		t.Fatalf("success = %v, want true: %v", body["success"], body)
	}
	if body["attempt_id"] != attemptID {
		t.Errorf("attempt_id = %v, want %s", body["attempt_id"], attemptID)
	}
	if body["score"].(float64) != 60 {
		t.Errorf("score = %v, want 60", body["score"])
	}
	if body["correct_answers"].(float64) != 3 {
		t.Errorf("correct_answers = %v, want 3", body["correct_answers"])
	}
	if body["total_questions"].(float64) != 5 {
		t.Errorf("total_questions = %v, want 5", body["total_questions"])
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestSubmitQuizRepeatedCallsCreateDistinctAttempts(t *testing.T) {
	mock := setupMockDB(t)
	app := newTestApp(models.User{ID: 7, Username: "alice", Role: "user"})

	first := "11111111-1111-1111-1111-111111111111"
	second := "22222222-2222-2222-2222-222222222222"
	expectGradingFlow(mock, first)
	expectGradingFlow(mock, second)

	_, body1 := doJSON(t, app, http.MethodPost, "/api/quizzes/1/submit", submitBody)
	_, body2 := doJSON(t, app, http.MethodPost, "/api/quizzes/1/submit", submitBody)

	if body1["success"] != true || body2["success"] != true {
		t.Fatalf("both submissions should succeed: %v / %v", body1, body2)
	}
	if body1["attempt_id"] == body2["attempt_id"] {
		t.Fatalf("repeated submission must create a new attempt, both got %v", body1["attempt_id"])
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestSubmitQuizEmptyQuiz(t *testing.T) {
	mock := setupMockDB(t)
	app := newTestApp(models.User{ID: 7, Username: "alice", Role: "user"})

	mock.ExpectQuery("SELECT id FROM quizzes").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1))
	mock.ExpectQuery("SELECT id, quiz_id, question_text").
		WillReturnRows(sqlmock.NewRows(questionColumns()))

	status, body := doJSON(t, app, http.MethodPost, "/api/quizzes/1/submit", `{"answers":{},"time_taken":10}`)
	if status != http.StatusOK {
		t.Fatalf("status = %d, want 200", status)
	}
	if body["success"] != false {
		t.Fatalf("success = %v, want false", body["success"])
	}
	if body["message"] != "No questions in this quiz" {
		t.Errorf("message = %v", body["message"])
	}

	// no transaction, no attempt row
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestSubmitQuizInvalidPayload(t *testing.T) {
	mock := setupMockDB(t)
	app := newTestApp(models.User{ID: 7, Username: "alice", Role: "user"})

	mock.ExpectQuery("SELECT id FROM quizzes").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1))

	status, body := doJSON(t, app, http.MethodPost, "/api/quizzes/1/submit", `{"answers": not-json`)
	if status != http.StatusOK {
		t.Fatalf("status = %d, want 200", status)
	}
	if body["success"] != false || body["message"] != "Invalid data format" {
		t.Fatalf("unexpected body: %v", body)
	}

	mock2 := setupMockDB(t)
	mock2.ExpectQuery("SELECT id FROM quizzes").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1))

	status, body = doJSON(t, app, http.MethodPost, "/api/quizzes/1/submit", `{"answers":{},"time_taken":-5}`)
	if status != http.StatusOK || body["message"] != "Invalid data format" {
		t.Fatalf("negative time_taken should be rejected, got %d %v", status, body)
	}
}

func TestSubmitQuizQuizNotFound(t *testing.T) {
	mock := setupMockDB(t)
	app := newTestApp(models.User{ID: 7, Username: "alice", Role: "user"})

	mock.ExpectQuery("SELECT id FROM quizzes").
		WillReturnError(sql.ErrNoRows)

	status, body := doJSON(t, app, http.MethodPost, "/api/quizzes/99/submit", submitBody)
	if status != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", status)
	}
	if body["message"] != "Quiz not found" {
		t.Errorf("message = %v", body["message"])
	}
}

func TestSubmitQuizDuplicateAnswerAbortsTransaction(t *testing.T) {
	mock := setupMockDB(t)
	app := newTestApp(models.User{ID: 7, Username: "alice", Role: "user"})

	attemptID := "11111111-1111-1111-1111-111111111111"
	now := time.Now()

	mock.ExpectQuery("SELECT id FROM quizzes").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1))
	// same question id twice simulates a double-processing bug upstream
	mock.ExpectQuery("SELECT id, quiz_id, question_text").
		WillReturnRows(sqlmock.NewRows(questionColumns()).
			AddRow(1, 1, "q", "a", "b", "c", "d", "A", nil, now).
			AddRow(1, 1, "q", "a", "b", "c", "d", "A", nil, now))
	mock.ExpectBegin()
	mock.ExpectQuery("INSERT INTO quiz_attempts").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(attemptID))
	prep := mock.ExpectPrepare("INSERT INTO user_answers")
	prep.ExpectExec().WillReturnResult(sqlmock.NewResult(0, 1))
	prep.ExpectExec().WillReturnError(errors.New(`pq: duplicate key value violates unique constraint "user_answers_pkey"`))
	mock.ExpectRollback()

	status, body := doJSON(t, app, http.MethodPost, "/api/quizzes/1/submit", `{"answers":{"1":"A"},"time_taken":1}`)
	if status != http.StatusOK {
		t.Fatalf("status = %d, want 200", status)
	}
	if body["success"] != false {
		t.Fatalf("duplicate answer must fail the submission, got %v", body)
	}
	if _, ok := body["attempt_id"]; ok {
		t.Error("failed submission must not expose an attempt id")
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func expectResultQuizAndAttempt(mock sqlmock.Sqlmock, attemptID string, ownerID int) {
	now := time.Now()
	mock.ExpectQuery("SELECT id, title, description").
		WillReturnRows(sqlmock.NewRows([]string{"id", "title", "description", "language", "difficulty", "created_by_id", "is_active", "time_limit", "created_at", "updated_at"}).
			AddRow(1, "Go Basics", nil, "go", "beginner", 1, true, 30, now, now))
	mock.ExpectQuery("SELECT id, user_id, quiz_id, score").
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "quiz_id", "score", "total_questions", "correct_answers", "time_taken_seconds", "completed_at"}).
			AddRow(attemptID, ownerID, 1, 60.0, 5, 3, 120, now))
}

func TestGetQuizAttemptResultOwner(t *testing.T) {
	mock := setupMockDB(t)
	app := newTestApp(models.User{ID: 7, Username: "alice", Role: "user"})

	attemptID := "11111111-1111-1111-1111-111111111111"
	expectResultQuizAndAttempt(mock, attemptID, 7)
	mock.ExpectQuery("FROM user_answers").
		WillReturnRows(sqlmock.NewRows([]string{"question_id", "question_text", "option_a", "option_b", "option_c", "option_d", "correct_answer", "explanation", "selected_answer", "is_correct"}).
			AddRow(1, "what prints", "a", "b", "c", "d", "A", nil, "A", true).
			AddRow(2, "what compiles", "a", "b", "c", "d", "B", "because", "C", false))

	status, body := doJSON(t, app, http.MethodGet, "/api/quizzes/1/attempts/"+attemptID, "")
	if status != http.StatusOK {
		t.Fatalf("status = %d, want 200: %v", status, body)
	}
	answers, ok := body["answers"].([]interface{})
	if !ok || len(answers) != 2 {
		t.Fatalf("expected 2 answers, got %v", body["answers"])
	}
	first := answers[0].(map[string]interface{})
	if first["is_correct"] != true || first["selected_answer"] != "A" {
		t.Errorf("unexpected first answer: %v", first)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestGetQuizAttemptResultForbiddenForStranger(t *testing.T) {
	mock := setupMockDB(t)
	// viewer 8 is not the owner and not staff
	app := newTestApp(models.User{ID: 8, Username: "mallory", Role: "user"})

	attemptID := "11111111-1111-1111-1111-111111111111"
	expectResultQuizAndAttempt(mock, attemptID, 7)

	status, body := doJSON(t, app, http.MethodGet, "/api/quizzes/1/attempts/"+attemptID, "")
	if status != http.StatusForbidden {
		t.Fatalf("status = %d, want 403", status)
	}
	if body["message"] != "You can only view your own quiz results." {
		t.Errorf("message = %v", body["message"])
	}
	for _, leaked := range []string{"answers", "attempt", "quiz"} {
		if _, ok := body[leaked]; ok {
			t.Errorf("forbidden response must not leak %q", leaked)
		}
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestGetQuizAttemptResultStaffCanView(t *testing.T) {
	mock := setupMockDB(t)
	app := newTestApp(models.User{ID: 8, Username: "admin", Role: "admin"})

	attemptID := "11111111-1111-1111-1111-111111111111"
	expectResultQuizAndAttempt(mock, attemptID, 7)
	mock.ExpectQuery("FROM user_answers").
		WillReturnRows(sqlmock.NewRows([]string{"question_id", "question_text", "option_a", "option_b", "option_c", "option_d", "correct_answer", "explanation", "selected_answer", "is_correct"}))

	status, _ := doJSON(t, app, http.MethodGet, "/api/quizzes/1/attempts/"+attemptID, "")
	if status != http.StatusOK {
		t.Fatalf("staff should see any result, status = %d", status)
	}
}
