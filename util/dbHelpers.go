package util

import (
	"fmt"
)

func ddlStrings() []string {
	sqlStrings := []string{}
	sqlStrings = append(sqlStrings,
		`CREATE TABLE IF NOT EXISTS users (
    id SERIAL PRIMARY KEY,
    username VARCHAR(150) UNIQUE NOT NULL,
    email VARCHAR(128) UNIQUE NOT NULL,
    password VARCHAR(512),
    role VARCHAR(50) NOT NULL CHECK(role='admin' or role='user') DEFAULT 'user',
    password_changed_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
    first_name VARCHAR(150),
    last_name VARCHAR(150),
    verified BOOLEAN DEFAULT false,
    deleted BOOLEAN DEFAULT false,
    created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
    updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
)`,
		`CREATE TABLE IF NOT EXISTS user_profiles (
    user_id INT PRIMARY KEY REFERENCES users(id) ON DELETE CASCADE,
    bio TEXT,
    location VARCHAR(100),
    website VARCHAR(255),
    github_url VARCHAR(255),
    linkedin_url VARCHAR(255),
    total_upvotes INT NOT NULL DEFAULT 0,
    created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
    updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
)`,
		`CREATE TABLE IF NOT EXISTS quizzes (
    id SERIAL PRIMARY KEY,
    title VARCHAR(200) NOT NULL,
    description TEXT,
    language VARCHAR(20) NOT NULL CHECK (language IN ('python', 'java', 'cpp', 'javascript', 'c', 'php', 'ruby', 'go')),
    difficulty VARCHAR(20) NOT NULL CHECK (difficulty IN ('beginner', 'intermediate', 'advanced')) DEFAULT 'beginner',
    created_by_id INT NOT NULL,
    is_active BOOLEAN DEFAULT true,
    time_limit INT NOT NULL DEFAULT 30 CHECK (time_limit > 0),
    created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
    updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
    FOREIGN KEY (created_by_id) REFERENCES users(id) ON DELETE CASCADE
)`,
		`CREATE TABLE IF NOT EXISTS questions (
    id SERIAL PRIMARY KEY,
    quiz_id INT NOT NULL,
    question_text TEXT NOT NULL,
    option_a VARCHAR(500) NOT NULL,
    option_b VARCHAR(500) NOT NULL,
    option_c VARCHAR(500) NOT NULL,
    option_d VARCHAR(500) NOT NULL,
    correct_answer VARCHAR(1) NOT NULL CHECK (correct_answer IN ('A', 'B', 'C', 'D')),
    explanation TEXT,
    created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
    FOREIGN KEY (quiz_id) REFERENCES quizzes(id) ON DELETE CASCADE
)`,
		`CREATE TABLE IF NOT EXISTS quiz_attempts (
    id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
    user_id INT NOT NULL,
    quiz_id INT NOT NULL,
    score DOUBLE PRECISION NOT NULL DEFAULT 0 CHECK (score >= 0 AND score <= 100),
    total_questions INT NOT NULL,
    correct_answers INT NOT NULL DEFAULT 0,
    time_taken_seconds INT,
    completed_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
    FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE,
    FOREIGN KEY (quiz_id) REFERENCES quizzes(id) ON DELETE CASCADE
)`,
		`CREATE TABLE IF NOT EXISTS user_answers (
  attempt_id UUID REFERENCES quiz_attempts(id) ON DELETE CASCADE,
  question_id INT REFERENCES questions(id) ON DELETE CASCADE,
  selected_answer VARCHAR(1) NOT NULL DEFAULT '',
  is_correct BOOLEAN NOT NULL,
  PRIMARY KEY (attempt_id, question_id)
);`,
		`CREATE TABLE IF NOT EXISTS comments (
    id SERIAL PRIMARY KEY,
    commenter_id INT NOT NULL,
    profile_owner_id INT NOT NULL,
    content TEXT NOT NULL,
    is_edited BOOLEAN DEFAULT false,
    created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
    updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
    FOREIGN KEY (commenter_id) REFERENCES users(id) ON DELETE CASCADE,
    FOREIGN KEY (profile_owner_id) REFERENCES users(id) ON DELETE CASCADE
)`,
		`CREATE TABLE IF NOT EXISTS upvotes (
    upvoter_id INT NOT NULL,
    upvoted_user_id INT NOT NULL,
    created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
    PRIMARY KEY (upvoter_id, upvoted_user_id),
    CHECK (upvoter_id <> upvoted_user_id),
    FOREIGN KEY (upvoter_id) REFERENCES users(id) ON DELETE CASCADE,
    FOREIGN KEY (upvoted_user_id) REFERENCES users(id) ON DELETE CASCADE
)`,
		`CREATE TABLE IF NOT EXISTS follows (
    follower_id INT NOT NULL,
    following_id INT NOT NULL,
    created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
    PRIMARY KEY (follower_id, following_id),
    CHECK (follower_id <> following_id),
    FOREIGN KEY (follower_id) REFERENCES users(id) ON DELETE CASCADE,
    FOREIGN KEY (following_id) REFERENCES users(id) ON DELETE CASCADE
)`)
	return sqlStrings
}

func CreateTableIfNotExists() error {
	sqlStrings := ddlStrings()
	for i, sql := range sqlStrings {
		_, err := DB.Exec(sql)
		if err != nil {
			return fmt.Errorf("error creating table %d: %w", i, err)
		}
	}
	return nil
}

func dropTables() []string {
	return []string{
		"DROP TABLE IF EXISTS follows",
		"DROP TABLE IF EXISTS upvotes",
		"DROP TABLE IF EXISTS comments",
		"DROP TABLE IF EXISTS user_answers",
		"DROP TABLE IF EXISTS quiz_attempts",
		"DROP TABLE IF EXISTS questions",
		"DROP TABLE IF EXISTS quizzes",
		"DROP TABLE IF EXISTS user_profiles",
		"DROP TABLE IF EXISTS users",
	}
}
