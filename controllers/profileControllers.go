package controllers

import (
	"database/sql"
	"strconv"
	"time"

	"github.com/codequizhub/codequiz_backend/models"
	"github.com/codequizhub/codequiz_backend/util"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

func getUserByUsername(username string) (models.User, error) {
	var user models.User
	err := util.DB.QueryRow(`
		SELECT id, username, email, role, first_name, last_name, created_at, updated_at
		FROM users WHERE username = $1 AND deleted = false
	`, username).Scan(&user.ID, &user.Username, &user.Email, &user.Role,
		&user.FirstName, &user.LastName, &user.CreatedAt, &user.UpdatedAt)
	return user, err
}

func getOrCreateProfile(userID int) (models.UserProfile, error) {
	if _, err := util.DB.Exec(`
		INSERT INTO user_profiles (user_id) VALUES ($1) ON CONFLICT (user_id) DO NOTHING
	`, userID); err != nil {
		return models.UserProfile{}, err
	}
	var p models.UserProfile
	err := util.DB.QueryRow(`
		SELECT user_id, bio, location, website, github_url, linkedin_url, total_upvotes, created_at, updated_at
		FROM user_profiles WHERE user_id = $1
	`, userID).Scan(&p.UserID, &p.Bio, &p.Location, &p.Website, &p.GithubURL, &p.LinkedinURL,
		&p.TotalUpvotes, &p.CreatedAt, &p.UpdatedAt)
	return p, err
}

func GetProfile(c *fiber.Ctx) error {
	username := c.Params("username")

	profileUser, err := getUserByUsername(username)
	if err != nil {
		if err == sql.ErrNoRows {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"status": "error", "message": "User not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch user"})
	}

	profile, err := getOrCreateProfile(profileUser.ID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch profile"})
	}

	stats, err := userQuizStats(profileUser.ID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch quiz stats"})
	}

	// Attempts, 10 per page
	attemptsPage, _ := strconv.Atoi(c.Query("attempts_page", "1"))
	if attemptsPage < 1 {
		attemptsPage = 1
	}
	attemptRows, err := util.DB.Query(`
		SELECT a.id, a.quiz_id, q.title, q.language, a.score, a.total_questions, a.correct_answers, a.completed_at
		FROM quiz_attempts a JOIN quizzes q ON a.quiz_id = q.id
		WHERE a.user_id = $1
		ORDER BY a.completed_at DESC
		LIMIT 10 OFFSET $2
	`, profileUser.ID, (attemptsPage-1)*10)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch attempts"})
	}
	defer attemptRows.Close()

	type profileAttempt struct {
		ID             uuid.UUID `json:"id"`
		QuizID         int       `json:"quizId"`
		QuizTitle      string    `json:"quizTitle"`
		Language       string    `json:"language"`
		Score          float64   `json:"score"`
		TotalQuestions int       `json:"totalQuestions"`
		CorrectAnswers int       `json:"correctAnswers"`
		CompletedAt    time.Time `json:"completedAt"`
	}
	attempts := []profileAttempt{}
	for attemptRows.Next() {
		var a profileAttempt
		if err := attemptRows.Scan(&a.ID, &a.QuizID, &a.QuizTitle, &a.Language, &a.Score,
			&a.TotalQuestions, &a.CorrectAnswers, &a.CompletedAt); err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to scan attempt"})
		}
		attempts = append(attempts, a)
	}

	// Comments, 5 per page
	commentsPage, _ := strconv.Atoi(c.Query("comments_page", "1"))
	if commentsPage < 1 {
		commentsPage = 1
	}
	commentRows, err := util.DB.Query(`
		SELECT cm.id, cm.content, cm.is_edited, cm.created_at, u.username
		FROM comments cm JOIN users u ON cm.commenter_id = u.id
		WHERE cm.profile_owner_id = $1
		ORDER BY cm.created_at DESC
		LIMIT 5 OFFSET $2
	`, profileUser.ID, (commentsPage-1)*5)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch comments"})
	}
	defer commentRows.Close()

	type profileComment struct {
		ID                int       `json:"id"`
		Content           string    `json:"content"`
		IsEdited          bool      `json:"isEdited"`
		CreatedAt         time.Time `json:"createdAt"`
		CommenterUsername string    `json:"commenterUsername"`
	}
	comments := []profileComment{}
	for commentRows.Next() {
		var cm profileComment
		if err := commentRows.Scan(&cm.ID, &cm.Content, &cm.IsEdited, &cm.CreatedAt, &cm.CommenterUsername); err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to scan comment"})
		}
		comments = append(comments, cm)
	}

	var followersCount int
	if err := util.DB.QueryRow("SELECT COUNT(*) FROM follows WHERE following_id = $1", profileUser.ID).Scan(&followersCount); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to count followers"})
	}

	hasUpvoted := false
	if viewer, ok := c.Locals("user").(models.User); ok {
		err := util.DB.QueryRow(`
			SELECT 1 FROM upvotes WHERE upvoter_id = $1 AND upvoted_user_id = $2
		`, viewer.ID, profileUser.ID).Scan(new(int))
		if err == nil {
			hasUpvoted = true
		} else if err != sql.ErrNoRows {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to check upvote"})
		}
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"status":          "success",
		"user":            fiber.Map{"id": profileUser.ID, "username": profileUser.Username, "firstName": profileUser.FirstName, "lastName": profileUser.LastName},
		"profile":         profile,
		"quiz_stats":      stats,
		"quiz_attempts":   attempts,
		"comments":        comments,
		"followers_count": followersCount,
		"has_upvoted":     hasUpvoted,
	})
}

type EditProfileInput struct {
	Bio         string `json:"bio" validate:"max=500"`
	Location    string `json:"location" validate:"max=100"`
	Website     string `json:"website" validate:"omitempty,url"`
	GithubURL   string `json:"github_url" validate:"omitempty,url"`
	LinkedinURL string `json:"linkedin_url" validate:"omitempty,url"`
}

func EditProfile(c *fiber.Ctx) error {
	validate := validator.New()

	user := c.Locals("user").(models.User)
	username := c.Params("username")
	if user.Username != username {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"status":  "error",
			"message": "You can only edit your own profile.",
		})
	}

	var input EditProfileInput
	if err := c.BodyParser(&input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"status": "error", "error": err.Error()})
	}
	if err := validate.Struct(input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"status":  "error",
			"message": "Validation failed",
			"error":   err.Error(),
		})
	}

	if _, err := getOrCreateProfile(user.ID); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch profile"})
	}

	_, err := util.DB.Exec(`
		UPDATE user_profiles
		SET bio = $1, location = $2, website = $3, github_url = $4, linkedin_url = $5, updated_at = $6
		WHERE user_id = $7
	`, input.Bio, input.Location, input.Website, input.GithubURL, input.LinkedinURL, time.Now(), user.ID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to update profile"})
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"status":  "success",
		"message": "Profile updated successfully",
	})
}
