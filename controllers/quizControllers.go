package controllers

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/codequizhub/codequiz_backend/models"
	"github.com/codequizhub/codequiz_backend/util"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

// GetQuizzes lists the active quizzes, newest first, with question and
// attempt counts. Supports an optional language filter.
func GetQuizzes(c *fiber.Ctx) error {
	query := `
	SELECT qz.id, qz.title, qz.description, qz.language, qz.difficulty, qz.created_by_id,
	       qz.is_active, qz.time_limit, qz.created_at, qz.updated_at,
	       (SELECT COUNT(*) FROM questions q WHERE q.quiz_id = qz.id) AS total_questions,
	       (SELECT COUNT(*) FROM quiz_attempts a WHERE a.quiz_id = qz.id) AS total_attempts
	FROM quizzes qz
	WHERE qz.is_active = true
	`
	args := []interface{}{}
	argIdx := 1

	if language := c.Query("language", ""); language != "" {
		query += fmt.Sprintf(" AND qz.language = $%d", argIdx)
		args = append(args, language)
		argIdx++
	}

	query += " ORDER BY qz.created_at DESC"

	rows, err := util.DB.Query(query, args...)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch quizzes"})
	}
	defer rows.Close()

	type quizListing struct {
		models.Quiz
		TotalQuestions int `json:"totalQuestions"`
		TotalAttempts  int `json:"totalAttempts"`
	}

	quizzes := []quizListing{}
	for rows.Next() {
		var q quizListing
		if err := rows.Scan(&q.ID, &q.Title, &q.Description, &q.Language, &q.Difficulty, &q.CreatedByID,
			&q.IsActive, &q.TimeLimit, &q.CreatedAt, &q.UpdatedAt, &q.TotalQuestions, &q.TotalAttempts); err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to scan quiz"})
		}
		quizzes = append(quizzes, q)
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"status":  "success",
		"quizzes": quizzes,
	})
}

func getActiveQuiz(quizID int) (models.Quiz, error) {
	var quiz models.Quiz
	err := util.DB.QueryRow(`
		SELECT id, title, description, language, difficulty, created_by_id, is_active, time_limit, created_at, updated_at
		FROM quizzes WHERE id = $1 AND is_active = true
	`, quizID).Scan(&quiz.ID, &quiz.Title, &quiz.Description, &quiz.Language, &quiz.Difficulty,
		&quiz.CreatedByID, &quiz.IsActive, &quiz.TimeLimit, &quiz.CreatedAt, &quiz.UpdatedAt)
	return quiz, err
}

func getOrderedQuestions(quizID int) ([]models.Question, error) {
	rows, err := util.DB.Query(`
		SELECT id, quiz_id, question_text, option_a, option_b, option_c, option_d, correct_answer, explanation, created_at
		FROM questions WHERE quiz_id = $1 ORDER BY id
	`, quizID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var questions []models.Question
	for rows.Next() {
		var q models.Question
		if err := rows.Scan(&q.ID, &q.QuizID, &q.QuestionText, &q.OptionA, &q.OptionB, &q.OptionC, &q.OptionD,
			&q.CorrectAnswer, &q.Explanation, &q.CreatedAt); err != nil {
			return nil, err
		}
		questions = append(questions, q)
	}
	return questions, rows.Err()
}

func GetQuizByID(c *fiber.Ctx) error {
	quizID, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"status": "error", "message": "Quiz not found"})
	}

	quiz, err := getActiveQuiz(quizID)
	if err != nil {
		if err == sql.ErrNoRows {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"status": "error", "message": "Quiz not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch quiz"})
	}

	var totalQuestions int
	if err := util.DB.QueryRow("SELECT COUNT(*) FROM questions WHERE quiz_id = $1", quizID).Scan(&totalQuestions); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to count questions"})
	}

	// Five most recent attempts for an authenticated caller
	userAttempts := []models.QuizAttempt{}
	if user, ok := c.Locals("user").(models.User); ok {
		rows, err := util.DB.Query(`
			SELECT id, user_id, quiz_id, score, total_questions, correct_answers, time_taken_seconds, completed_at
			FROM quiz_attempts WHERE user_id = $1 AND quiz_id = $2
			ORDER BY completed_at DESC LIMIT 5
		`, user.ID, quizID)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch attempts"})
		}
		defer rows.Close()
		for rows.Next() {
			var a models.QuizAttempt
			if err := rows.Scan(&a.ID, &a.UserID, &a.QuizID, &a.Score, &a.TotalQuestions,
				&a.CorrectAnswers, &a.TimeTakenSeconds, &a.CompletedAt); err != nil {
				return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to scan attempt"})
			}
			userAttempts = append(userAttempts, a)
		}
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"status":          "success",
		"quiz":            quiz,
		"total_questions": totalQuestions,
		"user_attempts":   userAttempts,
	})
}

// TakeQuiz returns the ordered question list for quiz-taking. Correct
// answers and explanations are not included in the payload.
func TakeQuiz(c *fiber.Ctx) error {
	quizID, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"status": "error", "message": "Quiz not found"})
	}

	quiz, err := getActiveQuiz(quizID)
	if err != nil {
		if err == sql.ErrNoRows {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"status": "error", "message": "Quiz not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch quiz"})
	}

	questions, err := getOrderedQuestions(quizID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch questions"})
	}

	if len(questions) == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"status":  "error",
			"message": "This quiz has no questions yet.",
		})
	}

	questionList := make([]map[string]interface{}, 0, len(questions))
	for _, q := range questions {
		questionList = append(questionList, map[string]interface{}{
			"id":            q.ID,
			"question_text": q.QuestionText,
			"option_a":      q.OptionA,
			"option_b":      q.OptionB,
			"option_c":      q.OptionC,
			"option_d":      q.OptionD,
		})
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"status":             "success",
		"quiz":               quiz,
		"questions":          questionList,
		"total_questions":    len(questions),
		"time_limit_seconds": quiz.TimeLimit * 60,
	})
}

type CreateQuizInput struct {
	Title       string `json:"title" validate:"required,max=200"`
	Description string `json:"description"`
	Language    string `json:"language" validate:"oneof=python java cpp javascript c php ruby go"`
	Difficulty  string `json:"difficulty" validate:"oneof=beginner intermediate advanced"`
	TimeLimit   int    `json:"time_limit" validate:"gt=0"`
	IsActive    *bool  `json:"is_active"`
}

// CreateQuiz is the authoring entry point, admin only.
func CreateQuiz(c *fiber.Ctx) error {
	validate := validator.New()

	user := c.Locals("user").(models.User)
	if !user.IsStaff() {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"status":  "error",
			"message": "Only admins can create quizzes",
		})
	}

	var input CreateQuizInput
	if err := c.BodyParser(&input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid input: " + err.Error()})
	}
	if input.TimeLimit == 0 {
		input.TimeLimit = 30
	}
	if input.Difficulty == "" {
		input.Difficulty = "beginner"
	}
	if err := validate.Struct(input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"status":  "error",
			"message": "Validation failed",
			"error":   err.Error(),
		})
	}

	isActive := true
	if input.IsActive != nil {
		isActive = *input.IsActive
	}

	var quizID int
	err := util.DB.QueryRow(`
		INSERT INTO quizzes (title, description, language, difficulty, created_by_id, is_active, time_limit, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $8)
		RETURNING id
	`, input.Title, input.Description, input.Language, input.Difficulty, user.ID, isActive, input.TimeLimit, time.Now()).Scan(&quizID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to insert quiz: " + err.Error(),
		})
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"id":      quizID,
		"message": "Quiz created successfully",
	})
}

type CreateQuestionInput struct {
	QuestionText  string `json:"question_text" validate:"required"`
	OptionA       string `json:"option_a" validate:"required,max=500"`
	OptionB       string `json:"option_b" validate:"required,max=500"`
	OptionC       string `json:"option_c" validate:"required,max=500"`
	OptionD       string `json:"option_d" validate:"required,max=500"`
	CorrectAnswer string `json:"correct_answer" validate:"oneof=A B C D"`
	Explanation   string `json:"explanation"`
}

// CreateQuestions appends one or more questions to a quiz, admin only.
// Accepts either a single question object or an array for bulk import.
func CreateQuestions(c *fiber.Ctx) error {
	validate := validator.New()

	user := c.Locals("user").(models.User)
	if !user.IsStaff() {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"status":  "error",
			"message": "Only admins can add questions",
		})
	}

	quizID, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"status": "error", "message": "Quiz not found"})
	}
	var exists int
	if err := util.DB.QueryRow("SELECT id FROM quizzes WHERE id = $1", quizID).Scan(&exists); err != nil {
		if err == sql.ErrNoRows {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"status": "error", "message": "Quiz not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch quiz"})
	}

	body := c.Body()

	// Try parsing as an array first
	var questions []CreateQuestionInput
	if err := json.Unmarshal(body, &questions); err != nil {
		var single CreateQuestionInput
		if err := json.Unmarshal(body, &single); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"status":  "error",
				"message": "Failed to parse request body",
				"error":   err.Error(),
			})
		}
		questions = append(questions, single)
	}
	if len(questions) == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"status":  "error",
			"message": "No questions provided",
		})
	}

	for _, q := range questions {
		if err := validate.Struct(q); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"status":  "error",
				"message": "Validation failed",
				"error":   err.Error(),
			})
		}
	}

	tx, err := util.DB.Begin()
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "Failed to start transaction"})
	}
	defer tx.Rollback()

	createdQuestions := []int{}
	for _, q := range questions {
		var questionID int
		err := tx.QueryRow(`
			INSERT INTO questions (quiz_id, question_text, option_a, option_b, option_c, option_d, correct_answer, explanation, created_at)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
			RETURNING id
		`, quizID, q.QuestionText, q.OptionA, q.OptionB, q.OptionC, q.OptionD, q.CorrectAnswer, q.Explanation, time.Now()).Scan(&questionID)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Failed to insert question: " + err.Error(),
			})
		}
		createdQuestions = append(createdQuestions, questionID)
	}

	if err := tx.Commit(); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Transaction commit failed"})
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"status":       "success",
		"question_ids": createdQuestions,
	})
}
