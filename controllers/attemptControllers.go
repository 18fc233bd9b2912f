package controllers

import (
	"database/sql"
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/codequizhub/codequiz_backend/models"
	"github.com/codequizhub/codequiz_backend/util"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type gradedAnswer struct {
	QuestionID int
	Selected   string
	IsCorrect  bool
}

// gradeAnswers walks the questions in the order given and marks each one
// against the submitted answer map. A question missing from the map is
// graded as an empty selection, which is always incorrect.
func gradeAnswers(questions []models.Question, answers map[string]string) ([]gradedAnswer, int) {
	graded := make([]gradedAnswer, 0, len(questions))
	correctCount := 0
	for _, q := range questions {
		selected := answers[strconv.Itoa(q.ID)]
		isCorrect := selected == q.CorrectAnswer
		if isCorrect {
			correctCount++
		}
		graded = append(graded, gradedAnswer{
			QuestionID: q.ID,
			Selected:   selected,
			IsCorrect:  isCorrect,
		})
	}
	return graded, correctCount
}

// round2 rounds half-up (away from zero) to two decimals.
func round2(x float64) float64 {
	return math.Round(x*100) / 100
}

func scorePercent(correct, total int) float64 {
	return round2(float64(correct) / float64(total) * 100)
}

func SubmitQuiz(c *fiber.Ctx) error {
	type submitQuizInput struct {
		Answers   map[string]string `json:"answers"`
		TimeTaken int               `json:"time_taken"`
	}

	quizID, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"status":  "error",
			"message": "Quiz not found",
		})
	}

	user := c.Locals("user").(models.User)

	// The quiz must exist and be active before the submission protocol
	// starts; after this point all failures are payload-encoded at 200.
	var exists int
	err = util.DB.QueryRow("SELECT id FROM quizzes WHERE id = $1 AND is_active = true", quizID).Scan(&exists)
	if err != nil {
		if err == sql.ErrNoRows {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"status":  "error",
				"message": "Quiz not found",
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch quiz"})
	}

	var input submitQuizInput
	if err := c.BodyParser(&input); err != nil {
		return c.Status(fiber.StatusOK).JSON(fiber.Map{
			"success": false,
			"message": "Invalid data format",
		})
	}
	if input.TimeTaken < 0 {
		return c.Status(fiber.StatusOK).JSON(fiber.Map{
			"success": false,
			"message": "Invalid data format",
		})
	}
	if input.Answers == nil {
		input.Answers = map[string]string{}
	}

	// Question order defines grading order
	questions, err := getOrderedQuestions(quizID)
	if err != nil {
		return c.Status(fiber.StatusOK).JSON(fiber.Map{
			"success": false,
			"message": "Failed to fetch questions",
		})
	}

	if len(questions) == 0 {
		return c.Status(fiber.StatusOK).JSON(fiber.Map{
			"success": false,
			"message": "No questions in this quiz",
		})
	}

	graded, correctCount := gradeAnswers(questions, input.Answers)
	total := len(questions)

	// The attempt row is created with placeholder zeros, per-answer rows
	// are appended in question order and the final score is written last.
	// The whole sequence commits atomically, so a failed grading pass
	// leaves no rows behind.
	tx, err := util.DB.Begin()
	if err != nil {
		return c.Status(fiber.StatusOK).JSON(fiber.Map{
			"success": false,
			"message": "Failed to begin transaction",
		})
	}
	defer tx.Rollback()

	var attemptID string
	err = tx.QueryRow(`
		INSERT INTO quiz_attempts (user_id, quiz_id, score, total_questions, correct_answers, time_taken_seconds)
		VALUES ($1, $2, 0, $3, 0, $4)
		RETURNING id
	`, user.ID, quizID, total, input.TimeTaken).Scan(&attemptID)
	if err != nil {
		return c.Status(fiber.StatusOK).JSON(fiber.Map{
			"success": false,
			"message": "Failed to create attempt: " + err.Error(),
		})
	}

	stmtAnswers, err := tx.Prepare(`
		INSERT INTO user_answers (attempt_id, question_id, selected_answer, is_correct)
		VALUES ($1, $2, $3, $4)
	`)
	if err != nil {
		return c.Status(fiber.StatusOK).JSON(fiber.Map{
			"success": false,
			"message": "Failed to prepare insert for user_answers",
		})
	}
	defer stmtAnswers.Close()

	for _, g := range graded {
		// A duplicate (attempt, question) pair trips the composite
		// primary key and aborts the whole transaction.
		if _, err := stmtAnswers.Exec(attemptID, g.QuestionID, g.Selected, g.IsCorrect); err != nil {
			return c.Status(fiber.StatusOK).JSON(fiber.Map{
				"success": false,
				"message": fmt.Sprintf("Failed to record answer for question %d", g.QuestionID),
			})
		}
	}

	score := scorePercent(correctCount, total)
	_, err = tx.Exec(`
		UPDATE quiz_attempts
		SET score = $1, correct_answers = $2
		WHERE id = $3
	`, score, correctCount, attemptID)
	if err != nil {
		return c.Status(fiber.StatusOK).JSON(fiber.Map{
			"success": false,
			"message": "Failed to finalize attempt",
		})
	}

	if err := tx.Commit(); err != nil {
		return c.Status(fiber.StatusOK).JSON(fiber.Map{
			"success": false,
			"message": "Failed to commit transaction",
		})
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"success":         true,
		"attempt_id":      attemptID,
		"score":           score,
		"correct_answers": correctCount,
		"total_questions": total,
	})
}

func GetQuizAttemptResult(c *fiber.Ctx) error {
	quizID, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"status": "error", "message": "Quiz not found"})
	}
	attemptID, err := uuid.Parse(c.Params("attempt_id"))
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"status": "error", "message": "Attempt not found"})
	}

	user := c.Locals("user").(models.User)

	var quiz models.Quiz
	err = util.DB.QueryRow(`
		SELECT id, title, description, language, difficulty, created_by_id, is_active, time_limit, created_at, updated_at
		FROM quizzes WHERE id = $1
	`, quizID).Scan(&quiz.ID, &quiz.Title, &quiz.Description, &quiz.Language, &quiz.Difficulty,
		&quiz.CreatedByID, &quiz.IsActive, &quiz.TimeLimit, &quiz.CreatedAt, &quiz.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"status": "error", "message": "Quiz not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch quiz"})
	}

	var attempt models.QuizAttempt
	err = util.DB.QueryRow(`
		SELECT id, user_id, quiz_id, score, total_questions, correct_answers, time_taken_seconds, completed_at
		FROM quiz_attempts WHERE id = $1 AND quiz_id = $2
	`, attemptID, quizID).Scan(&attempt.ID, &attempt.UserID, &attempt.QuizID, &attempt.Score,
		&attempt.TotalQuestions, &attempt.CorrectAnswers, &attempt.TimeTakenSeconds, &attempt.CompletedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"status": "error", "message": "Attempt not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch attempt"})
	}

	// Results are visible to their owner and to staff only
	if attempt.UserID != user.ID && !user.IsStaff() {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"status":  "error",
			"message": "You can only view your own quiz results.",
		})
	}

	rows, err := util.DB.Query(`
		SELECT
			ua.question_id,
			q.question_text,
			q.option_a,
			q.option_b,
			q.option_c,
			q.option_d,
			q.correct_answer,
			q.explanation,
			ua.selected_answer,
			ua.is_correct
		FROM user_answers ua
		JOIN questions q ON ua.question_id = q.id
		WHERE ua.attempt_id = $1
		ORDER BY ua.question_id
	`, attemptID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch answers"})
	}
	defer rows.Close()

	answers := []map[string]interface{}{}
	for rows.Next() {
		var (
			questionID     int
			questionText   string
			optionA        string
			optionB        string
			optionC        string
			optionD        string
			correctAnswer  string
			explanation    *string
			selectedAnswer string
			isCorrect      bool
		)
		err := rows.Scan(&questionID, &questionText, &optionA, &optionB, &optionC, &optionD,
			&correctAnswer, &explanation, &selectedAnswer, &isCorrect)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Scan error: " + err.Error()})
		}
		answers = append(answers, map[string]interface{}{
			"question_id":     questionID,
			"question_text":   questionText,
			"option_a":        optionA,
			"option_b":        optionB,
			"option_c":        optionC,
			"option_d":        optionD,
			"correct_answer":  correctAnswer,
			"explanation":     explanation,
			"selected_answer": selectedAnswer,
			"is_correct":      isCorrect,
		})
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"status":  "success",
		"quiz":    quiz,
		"attempt": attempt,
		"answers": answers,
	})
}

func GetAttemptHistory(c *fiber.Ctx) error {
	db := util.DB

	userID := c.Locals("user").(models.User).ID

	// Pagination
	page, _ := strconv.Atoi(c.Query("page", "1"))
	limit, _ := strconv.Atoi(c.Query("limit", "10"))
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 10
	}
	offset := (page - 1) * limit

	query := `
	SELECT a.id, a.quiz_id, q.title, q.language, q.difficulty,
	       a.score, a.total_questions, a.correct_answers, a.time_taken_seconds, a.completed_at
	FROM quiz_attempts a JOIN quizzes q ON a.quiz_id = q.id
	WHERE a.user_id = $1
	`
	args := []interface{}{userID}
	argIdx := 2

	if quizID := c.Query("quiz_id", ""); quizID != "" {
		query += fmt.Sprintf(" AND a.quiz_id = $%d", argIdx)
		args = append(args, quizID)
		argIdx++
	}

	query += fmt.Sprintf(" ORDER BY a.completed_at DESC LIMIT $%d OFFSET $%d", argIdx, argIdx+1)
	args = append(args, limit, offset)

	rows, err := db.Query(query, args...)
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "Failed to fetch attempt history"})
	}
	defer rows.Close()

	type attemptHistory struct {
		ID               uuid.UUID `json:"id"`
		QuizID           int       `json:"quizId"`
		QuizTitle        string    `json:"quizTitle"`
		Language         string    `json:"language"`
		Difficulty       string    `json:"difficulty"`
		Score            float64   `json:"score"`
		TotalQuestions   int       `json:"totalQuestions"`
		CorrectAnswers   int       `json:"correctAnswers"`
		TimeTakenSeconds *int      `json:"timeTakenSeconds"`
		CompletedAt      time.Time `json:"completedAt"`
	}

	history := []attemptHistory{}
	for rows.Next() {
		var h attemptHistory
		if err := rows.Scan(
			&h.ID, &h.QuizID, &h.QuizTitle, &h.Language, &h.Difficulty,
			&h.Score, &h.TotalQuestions, &h.CorrectAnswers, &h.TimeTakenSeconds, &h.CompletedAt,
		); err != nil {
			return c.Status(500).JSON(fiber.Map{"error": "Failed to scan attempt history"})
		}
		history = append(history, h)
	}

	return c.JSON(fiber.Map{
		"page":    page,
		"limit":   limit,
		"history": history,
		"count":   len(history),
		"hasMore": len(history) == limit,
	})
}
