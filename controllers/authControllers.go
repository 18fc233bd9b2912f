package controllers

import (
	"database/sql"
	"strconv"
	"time"

	"github.com/codequizhub/codequiz_backend/models"
	"github.com/codequizhub/codequiz_backend/util"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"golang.org/x/crypto/bcrypt"
)

func Index(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{"status": "success", "page": "index page"})
}

func setTokenCookie(c *fiber.Ctx, token string) {
	c.Cookie(&fiber.Cookie{
		Name:     "token",
		Value:    token,
		Expires:  time.Now().Add(time.Hour * 72),
		HTTPOnly: true,
		SameSite: "Lax",
	})
}

type CreateUserInput struct {
	Username  string `json:"username" validate:"required,max=150"`
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required,min=8"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

func CreateUser(c *fiber.Ctx) error {
	validate := validator.New()

	var input CreateUserInput
	if err := c.BodyParser(&input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"status": "error", "error": err.Error()})
	}
	if err := validate.Struct(input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"status":  "error",
			"message": err.Error(),
		})
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"status":  "error",
			"message": err.Error(),
		})
	}

	var user models.User
	err = util.DB.QueryRow(`
		INSERT INTO users (username, email, password, role, first_name, last_name)
		VALUES ($1, $2, $3, 'user', $4, $5)
		RETURNING id, username, email, role
	`, input.Username, input.Email, string(hash), input.FirstName, input.LastName).Scan(
		&user.ID, &user.Username, &user.Email, &user.Role,
	)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"status":  "error",
			"message": "Error inserting user into database",
			"error":   err.Error(),
		})
	}

	token, err := util.JwtGenerate(user, strconv.Itoa(user.ID))
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"status": "error", "message": "internal server error"})
	}
	setTokenCookie(c, token)

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"status":  "success",
		"message": "User Created",
		"token":   token,
		"user_id": user.ID,
	})
}

func LoginUser(c *fiber.Ctx) error {
	type loginModel struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	loginObject := new(loginModel)
	if err := c.BodyParser(&loginObject); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"status": "error", "error": err.Error()})
	}

	var userFromDB models.User
	err := util.DB.QueryRow(`
		SELECT id, username, email, password, role, password_changed_at, created_at, updated_at
		FROM users WHERE username = $1 AND deleted = false
	`, loginObject.Username).Scan(
		&userFromDB.ID, &userFromDB.Username, &userFromDB.Email, &userFromDB.Password,
		&userFromDB.Role, &userFromDB.PasswordChangedAt, &userFromDB.CreatedAt, &userFromDB.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"status": "error", "message": "invalid credentials"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"status": "error", "error": err.Error()})
	}

	if err := bcrypt.CompareHashAndPassword([]byte(userFromDB.Password), []byte(loginObject.Password)); err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"status": "error", "message": "invalid credentials"})
	}

	token, err := util.JwtGenerate(userFromDB, strconv.Itoa(userFromDB.ID))
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"status": "error", "message": "internal server error"})
	}
	setTokenCookie(c, token)

	return c.Status(fiber.StatusOK).JSON(fiber.Map{"status": "success", "token": token})
}

func GetUserDetails(c *fiber.Ctx) error {
	user := c.Locals("user").(models.User)
	user.Password = ""
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"status": "success",
		"user":   user,
	})
}

// SearchUsers matches usernames and names, excluding the caller, cap 10.
func SearchUsers(c *fiber.Ctx) error {
	user := c.Locals("user").(models.User)

	query := c.Query("q", "")
	if query == "" {
		return c.Status(fiber.StatusOK).JSON(fiber.Map{"status": "success", "users": []interface{}{}})
	}

	rows, err := util.DB.Query(`
		SELECT id, username, first_name, last_name
		FROM users
		WHERE deleted = false AND id <> $1
		  AND (username ILIKE $2 OR first_name ILIKE $2 OR last_name ILIKE $2)
		LIMIT 10
	`, user.ID, "%"+query+"%")
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to search users"})
	}
	defer rows.Close()

	type userResult struct {
		ID        int     `json:"id"`
		Username  string  `json:"username"`
		FirstName *string `json:"firstName"`
		LastName  *string `json:"lastName"`
	}

	users := []userResult{}
	for rows.Next() {
		var u userResult
		if err := rows.Scan(&u.ID, &u.Username, &u.FirstName, &u.LastName); err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to scan user"})
		}
		users = append(users, u)
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"status": "success",
		"users":  users,
	})
}
