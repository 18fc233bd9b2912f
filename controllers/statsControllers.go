package controllers

import (
	"sort"
	"time"

	"github.com/codequizhub/codequiz_backend/util"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

const leaderboardSize = 20

type leaderboardEntry struct {
	UserID        int     `json:"userId"`
	Username      string  `json:"username"`
	TotalAttempts int     `json:"totalAttempts"`
	AvgScore      float64 `json:"avgScore"`
	BestScore     float64 `json:"bestScore"`
}

// sortLeaderboard orders entries by average score descending, best score
// descending, then user id ascending so the ranking is deterministic.
func sortLeaderboard(entries []leaderboardEntry) {
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].AvgScore != entries[j].AvgScore {
			return entries[i].AvgScore > entries[j].AvgScore
		}
		if entries[i].BestScore != entries[j].BestScore {
			return entries[i].BestScore > entries[j].BestScore
		}
		return entries[i].UserID < entries[j].UserID
	})
}

func GetLeaderboard(c *fiber.Ctx) error {
	rows, err := util.DB.Query(`
		SELECT u.id, u.username, COUNT(a.id), AVG(a.score), MAX(a.score)
		FROM users u
		JOIN quiz_attempts a ON a.user_id = u.id
		WHERE u.deleted = false
		GROUP BY u.id, u.username
	`)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch leaderboard"})
	}
	defer rows.Close()

	entries := []leaderboardEntry{}
	for rows.Next() {
		var e leaderboardEntry
		if err := rows.Scan(&e.UserID, &e.Username, &e.TotalAttempts, &e.AvgScore, &e.BestScore); err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to scan leaderboard row"})
		}
		e.AvgScore = round2(e.AvgScore)
		entries = append(entries, e)
	}

	sortLeaderboard(entries)
	if len(entries) > leaderboardSize {
		entries = entries[:leaderboardSize]
	}

	// Most recent attempts scoring 80 or better
	highRows, err := util.DB.Query(`
		SELECT a.id, u.username, q.title, q.language, a.score, a.completed_at
		FROM quiz_attempts a
		JOIN users u ON a.user_id = u.id
		JOIN quizzes q ON a.quiz_id = q.id
		WHERE a.score >= 80
		ORDER BY a.completed_at DESC
		LIMIT 10
	`)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch recent high scores"})
	}
	defer highRows.Close()

	type recentAttempt struct {
		AttemptID   uuid.UUID `json:"attemptId"`
		Username    string    `json:"username"`
		QuizTitle   string    `json:"quizTitle"`
		Language    string    `json:"language"`
		Score       float64   `json:"score"`
		CompletedAt time.Time `json:"completedAt"`
	}

	recent := []recentAttempt{}
	for highRows.Next() {
		var r recentAttempt
		if err := highRows.Scan(&r.AttemptID, &r.Username, &r.QuizTitle, &r.Language, &r.Score, &r.CompletedAt); err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to scan recent attempt"})
		}
		recent = append(recent, r)
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"status":          "success",
		"top_users":       entries,
		"recent_attempts": recent,
	})
}

type quizStats struct {
	TotalAttempts int     `json:"totalAttempts"`
	AverageScore  float64 `json:"averageScore"`
	BestScore     float64 `json:"bestScore"`
}

// userQuizStats aggregates a user's attempts; zeros when none exist.
func userQuizStats(userID int) (quizStats, error) {
	var stats quizStats
	err := util.DB.QueryRow(`
		SELECT COUNT(*), COALESCE(AVG(score), 0), COALESCE(MAX(score), 0)
		FROM quiz_attempts WHERE user_id = $1
	`, userID).Scan(&stats.TotalAttempts, &stats.AverageScore, &stats.BestScore)
	if err != nil {
		return quizStats{}, err
	}
	stats.AverageScore = round2(stats.AverageScore)
	return stats, nil
}
