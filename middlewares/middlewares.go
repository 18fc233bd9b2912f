package middlewares

import (
	"database/sql"
	"strconv"

	"github.com/codequizhub/codequiz_backend/models"
	"github.com/codequizhub/codequiz_backend/util"
	"github.com/gofiber/fiber/v2"
)

func NotFound(c *fiber.Ctx) error {
	return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
		"status":  "error",
		"message": "Not Found",
	})
}

func loadUser(userID int) (models.User, error) {
	var user models.User
	query := `SELECT id, username, email, password, role, password_changed_at, verified, first_name, last_name, created_at, updated_at
	          FROM users WHERE id = $1 AND deleted = false`

	row := util.DB.QueryRow(query, userID)
	err := row.Scan(
		&user.ID, &user.Username, &user.Email, &user.Password, &user.Role,
		&user.PasswordChangedAt, &user.Verified, &user.FirstName, &user.LastName,
		&user.CreatedAt, &user.UpdatedAt,
	)
	return user, err
}

func Protected() fiber.Handler {
	return func(c *fiber.Ctx) error {
		token := c.Cookies("token")
		if token == "" {
			token = c.Get("Authorization")
		}
		if token == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"status":  "error",
				"message": "No token provided",
			})
		}
		claims, err := util.ParseJWT(token)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token " + err.Error()})
		}

		userID, err := strconv.Atoi(claims["id"].(string))
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"status":  "error",
				"message": "Invalid token payload",
			})
		}

		user, err := loadUser(userID)
		if err != nil {
			if err == sql.ErrNoRows {
				return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
					"status":  "error",
					"message": "User not found",
				})
			}
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"status":  "error",
				"message": "Database error",
				"error":   err.Error(),
			})
		}

		if err := util.IsTokenValid(claims, user); err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"status":  "error",
				"message": err.Error(),
			})
		}

		c.Locals("user", user)

		return c.Next()
	}
}

// OptionalUser populates c.Locals("user") when a valid token is present and
// continues anonymously otherwise. Public pages use it to personalise
// (recent attempts on quiz detail, has_upvoted on profiles).
func OptionalUser() fiber.Handler {
	return func(c *fiber.Ctx) error {
		token := c.Cookies("token")
		if token == "" {
			token = c.Get("Authorization")
		}
		if token == "" {
			return c.Next()
		}
		claims, err := util.ParseJWT(token)
		if err != nil {
			return c.Next()
		}
		idStr, ok := claims["id"].(string)
		if !ok {
			return c.Next()
		}
		userID, err := strconv.Atoi(idStr)
		if err != nil {
			return c.Next()
		}
		user, err := loadUser(userID)
		if err != nil {
			return c.Next()
		}
		if err := util.IsTokenValid(claims, user); err != nil {
			return c.Next()
		}
		c.Locals("user", user)
		return c.Next()
	}
}
