package controllers

import (
	"database/sql"
	"strconv"
	"strings"

	"github.com/codequizhub/codequiz_backend/models"
	"github.com/codequizhub/codequiz_backend/util"
	"github.com/gofiber/fiber/v2"
)

// ToggleUpvote flips the caller's upvote on the target user. The
// check-insert-or-delete-recount sequence runs inside one transaction so
// concurrent toggles from different upvoters cannot lose updates to the
// profile counter.
func ToggleUpvote(c *fiber.Ctx) error {
	user := c.Locals("user").(models.User)
	username := c.Params("username")

	targetUser, err := getUserByUsername(username)
	if err != nil {
		if err == sql.ErrNoRows {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"status": "error", "message": "User not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch user"})
	}

	if targetUser.ID == user.ID {
		return c.Status(fiber.StatusOK).JSON(fiber.Map{
			"success": false,
			"message": "You cannot upvote yourself",
		})
	}

	tx, err := util.DB.Begin()
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to begin transaction"})
	}
	defer tx.Rollback()

	var one int
	err = tx.QueryRow(`
		SELECT 1 FROM upvotes WHERE upvoter_id = $1 AND upvoted_user_id = $2 FOR UPDATE
	`, user.ID, targetUser.ID).Scan(&one)

	upvoted := false
	switch err {
	case nil:
		if _, err := tx.Exec(`DELETE FROM upvotes WHERE upvoter_id = $1 AND upvoted_user_id = $2`, user.ID, targetUser.ID); err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to remove upvote"})
		}
	case sql.ErrNoRows:
		if _, err := tx.Exec(`INSERT INTO upvotes (upvoter_id, upvoted_user_id) VALUES ($1, $2)`, user.ID, targetUser.ID); err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to add upvote"})
		}
		upvoted = true
	default:
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to check upvote"})
	}

	var totalUpvotes int
	if err := tx.QueryRow(`SELECT COUNT(*) FROM upvotes WHERE upvoted_user_id = $1`, targetUser.ID).Scan(&totalUpvotes); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to count upvotes"})
	}

	if _, err := tx.Exec(`
		INSERT INTO user_profiles (user_id, total_upvotes) VALUES ($1, $2)
		ON CONFLICT (user_id) DO UPDATE SET total_upvotes = $2, updated_at = CURRENT_TIMESTAMP
	`, targetUser.ID, totalUpvotes); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to update profile counter"})
	}

	if err := tx.Commit(); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to commit transaction"})
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"success":       true,
		"upvoted":       upvoted,
		"total_upvotes": totalUpvotes,
	})
}

// ToggleFollow flips the caller's follow on the target user, same
// transaction discipline as ToggleUpvote.
func ToggleFollow(c *fiber.Ctx) error {
	user := c.Locals("user").(models.User)
	username := c.Params("username")

	targetUser, err := getUserByUsername(username)
	if err != nil {
		if err == sql.ErrNoRows {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"status": "error", "message": "User not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch user"})
	}

	if targetUser.ID == user.ID {
		return c.Status(fiber.StatusOK).JSON(fiber.Map{
			"success": false,
			"message": "You cannot follow yourself",
		})
	}

	tx, err := util.DB.Begin()
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to begin transaction"})
	}
	defer tx.Rollback()

	var one int
	err = tx.QueryRow(`
		SELECT 1 FROM follows WHERE follower_id = $1 AND following_id = $2 FOR UPDATE
	`, user.ID, targetUser.ID).Scan(&one)

	following := false
	switch err {
	case nil:
		if _, err := tx.Exec(`DELETE FROM follows WHERE follower_id = $1 AND following_id = $2`, user.ID, targetUser.ID); err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to unfollow"})
		}
	case sql.ErrNoRows:
		if _, err := tx.Exec(`INSERT INTO follows (follower_id, following_id) VALUES ($1, $2)`, user.ID, targetUser.ID); err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to follow"})
		}
		following = true
	default:
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to check follow"})
	}

	var followersCount int
	if err := tx.QueryRow(`SELECT COUNT(*) FROM follows WHERE following_id = $1`, targetUser.ID).Scan(&followersCount); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to count followers"})
	}

	if err := tx.Commit(); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to commit transaction"})
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"success":         true,
		"following":       following,
		"followers_count": followersCount,
	})
}

func AddComment(c *fiber.Ctx) error {
	type addCommentInput struct {
		Content string `json:"content"`
	}

	user := c.Locals("user").(models.User)
	username := c.Params("username")

	targetUser, err := getUserByUsername(username)
	if err != nil {
		if err == sql.ErrNoRows {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"status": "error", "message": "User not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch user"})
	}

	var input addCommentInput
	if err := c.BodyParser(&input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"status": "error", "error": err.Error()})
	}
	input.Content = strings.TrimSpace(input.Content)
	if input.Content == "" {
		return c.Status(fiber.StatusOK).JSON(fiber.Map{
			"success": false,
			"message": "Comment cannot be empty",
		})
	}

	var comment models.Comment
	err = util.DB.QueryRow(`
		INSERT INTO comments (commenter_id, profile_owner_id, content)
		VALUES ($1, $2, $3)
		RETURNING id, content, created_at
	`, user.ID, targetUser.ID, input.Content).Scan(&comment.ID, &comment.Content, &comment.CreatedAt)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to add comment"})
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"comment": fiber.Map{
			"id":                 comment.ID,
			"content":            comment.Content,
			"commenter_username": user.Username,
			"created_at":         comment.CreatedAt,
		},
	})
}

// DeleteComment removes a comment from the caller's own profile.
func DeleteComment(c *fiber.Ctx) error {
	user := c.Locals("user").(models.User)

	commentID, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"status": "error", "message": "Comment not found"})
	}

	var profileOwnerID int
	err = util.DB.QueryRow(`SELECT profile_owner_id FROM comments WHERE id = $1`, commentID).Scan(&profileOwnerID)
	if err != nil {
		if err == sql.ErrNoRows {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"status": "error", "message": "Comment not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch comment"})
	}

	if profileOwnerID != user.ID {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"success": false,
			"message": "You can only delete comments on your own profile.",
		})
	}

	if _, err := util.DB.Exec(`DELETE FROM comments WHERE id = $1`, commentID); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to delete comment"})
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"success": true,
		"message": "Comment deleted",
	})
}
