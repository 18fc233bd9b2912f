package models

import (
	"time"

	"github.com/google/uuid"
)

// User model
type User struct {
	ID                int       `json:"id"`
	Username          string    `json:"username"`
	Email             string    `json:"email"`
	Password          string    `json:"password"`
	Role              string    `json:"role"`
	PasswordChangedAt time.Time `json:"passwordChangedAt"`
	Verified          *bool     `json:"verified"`
	FirstName         *string   `json:"firstName"`
	LastName          *string   `json:"lastName"`
	CreatedAt         time.Time `json:"createdAt"`
	UpdatedAt         time.Time `json:"updatedAt"`
}

// IsStaff reports whether the user may view other users' attempt results.
func (u User) IsStaff() bool {
	return u.Role == "admin"
}

// UserProfile model
type UserProfile struct {
	UserID       int       `json:"userId"`
	Bio          *string   `json:"bio"`
	Location     *string   `json:"location"`
	Website      *string   `json:"website"`
	GithubURL    *string   `json:"githubUrl"`
	LinkedinURL  *string   `json:"linkedinUrl"`
	TotalUpvotes int       `json:"totalUpvotes"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// Quiz model
type Quiz struct {
	ID          int       `json:"id"`
	Title       string    `json:"title"`
	Description *string   `json:"description"`
	Language    string    `json:"language"`
	Difficulty  string    `json:"difficulty"`
	CreatedByID int       `json:"createdById"`
	IsActive    bool      `json:"isActive"`
	TimeLimit   int       `json:"timeLimit"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// Question model
type Question struct {
	ID            int       `json:"id"`
	QuizID        int       `json:"quizId"`
	QuestionText  string    `json:"questionText"`
	OptionA       string    `json:"optionA"`
	OptionB       string    `json:"optionB"`
	OptionC       string    `json:"optionC"`
	OptionD       string    `json:"optionD"`
	CorrectAnswer string    `json:"correctAnswer"`
	Explanation   *string   `json:"explanation"`
	CreatedAt     time.Time `json:"createdAt"`
}

// QuizAttempt model
type QuizAttempt struct {
	ID               uuid.UUID `json:"id"`
	UserID           int       `json:"userId"`
	QuizID           int       `json:"quizId"`
	Score            float64   `json:"score"`
	TotalQuestions   int       `json:"totalQuestions"`
	CorrectAnswers   int       `json:"correctAnswers"`
	TimeTakenSeconds *int      `json:"timeTakenSeconds"`
	CompletedAt      time.Time `json:"completedAt"`
}

// UserAnswer model
type UserAnswer struct {
	AttemptID      uuid.UUID `json:"attemptId"`
	QuestionID     int       `json:"questionId"`
	SelectedAnswer string    `json:"selectedAnswer"`
	IsCorrect      bool      `json:"isCorrect"`
}

// Comment model
type Comment struct {
	ID             int       `json:"id"`
	CommenterID    int       `json:"commenterId"`
	ProfileOwnerID int       `json:"profileOwnerId"`
	Content        string    `json:"content"`
	IsEdited       bool      `json:"isEdited"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

// Social relationships
type Upvote struct {
	UpvoterID     int       `json:"upvoterId"`
	UpvotedUserID int       `json:"upvotedUserId"`
	CreatedAt     time.Time `json:"createdAt"`
}

type Follow struct {
	FollowerID  int       `json:"followerId"`
	FollowingID int       `json:"followingId"`
	CreatedAt   time.Time `json:"createdAt"`
}
