package routers

import (
	"github.com/codequizhub/codequiz_backend/controllers"
	"github.com/codequizhub/codequiz_backend/middlewares"
	"github.com/gofiber/fiber/v2"
)

func SetupRoutes(app *fiber.App) {

	api := app.Group("/api")
	api.Get("/", controllers.Index)

	//Auth
	auth := api.Group("/auth")
	auth.Post("/users", controllers.CreateUser)
	auth.Get("/users", middlewares.Protected(), controllers.GetUserDetails)
	auth.Post("/login", controllers.LoginUser)
	auth.Get("/search", middlewares.Protected(), controllers.SearchUsers)

	quizzes := api.Group("/quizzes")
	quizzes.Get("/", controllers.GetQuizzes)
	quizzes.Post("/", middlewares.Protected(), controllers.CreateQuiz)
	quizzes.Get("/:id", middlewares.OptionalUser(), controllers.GetQuizByID)
	quizzes.Post("/:id/questions", middlewares.Protected(), controllers.CreateQuestions)
	quizzes.Get("/:id/take", middlewares.Protected(), controllers.TakeQuiz)
	quizzes.Post("/:id/submit", middlewares.Protected(), controllers.SubmitQuiz)
	quizzes.Get("/:id/attempts/:attempt_id", middlewares.Protected(), controllers.GetQuizAttemptResult)

	attempts := api.Group("/attempts")
	attempts.Get("/history", middlewares.Protected(), controllers.GetAttemptHistory)

	api.Get("/leaderboard", controllers.GetLeaderboard)

	profiles := api.Group("/profiles")
	profiles.Get("/:username", middlewares.OptionalUser(), controllers.GetProfile)
	profiles.Put("/:username", middlewares.Protected(), controllers.EditProfile)

	social := api.Group("/social")
	social.Post("/upvote/:username", middlewares.Protected(), controllers.ToggleUpvote)
	social.Post("/follow/:username", middlewares.Protected(), controllers.ToggleFollow)
	social.Post("/comments/:username", middlewares.Protected(), controllers.AddComment)
	social.Delete("/comments/:id", middlewares.Protected(), controllers.DeleteComment)
}
