package database

import (
	"database/sql"
	"fmt"
	"math/rand"
	"os"
	"strings"
	"time"

	_ "github.com/lib/pq"
)

func Connect() (*sql.DB, error) {
	host := getEnv("DB_HOST", "localhost")
	port := getEnv("DB_PORT", "5432")
	user := getEnv("DB_USER", "groundschool_user")
	password := getEnv("DB_PASSWORD", "groundschool_password")
	dbname := getEnv("DB_NAME", "groundschool")
	sslmode := getEnv("DB_SSLMODE", "disable")

	dsn := fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		host, port, user, password, dbname, sslmode,
	)

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)

	return db, nil
}

func Migrate(db *sql.DB) error {
	query := `
	CREATE TABLE IF NOT EXISTS users (
		id BIGSERIAL PRIMARY KEY,
		email VARCHAR(255) UNIQUE NOT NULL,
		name VARCHAR(255) NOT NULL,
		username VARCHAR(50) UNIQUE,
		password VARCHAR(255) NOT NULL,
		created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
		updated_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
	);

	CREATE INDEX IF NOT EXISTS idx_users_email ON users(email);

	CREATE TABLE IF NOT EXISTS documents (
		id           BIGSERIAL PRIMARY KEY,
		user_id      BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		title        VARCHAR(255) NOT NULL,
		category     VARCHAR(100) NOT NULL,
		file_path    TEXT NOT NULL DEFAULT '',
		file_type    VARCHAR(20) NOT NULL DEFAULT '',
		status       VARCHAR(20) NOT NULL DEFAULT 'uploaded',
		content_text TEXT NOT NULL DEFAULT '',
		created_at   TIMESTAMP WITH TIME ZONE DEFAULT NOW()
	);

	CREATE INDEX IF NOT EXISTS idx_documents_user ON documents(user_id);
	CREATE INDEX IF NOT EXISTS idx_documents_category ON documents(user_id, category);

	CREATE TABLE IF NOT EXISTS questions (
		id                BIGSERIAL PRIMARY KEY,
		document_id       BIGINT NOT NULL REFERENCES documents(id) ON DELETE CASCADE,
		content           TEXT NOT NULL,
		correct_answer    TEXT NOT NULL,
		incorrect_answers TEXT[] NOT NULL,
		explanation       TEXT NOT NULL DEFAULT '',
		difficulty        VARCHAR(20) NOT NULL DEFAULT 'medium',
		category          VARCHAR(100) NOT NULL,
		times_shown       INT NOT NULL DEFAULT 0,
		times_correct     INT NOT NULL DEFAULT 0,
		last_shown        TIMESTAMP WITH TIME ZONE,
		created_at        TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
		CHECK (times_correct >= 0),
		CHECK (times_correct <= times_shown)
	);

	CREATE INDEX IF NOT EXISTS idx_questions_document ON questions(document_id);
	CREATE INDEX IF NOT EXISTS idx_questions_category ON questions(category, difficulty);
	CREATE INDEX IF NOT EXISTS idx_questions_pool ON questions(last_shown ASC NULLS FIRST);

	CREATE TABLE IF NOT EXISTS answer_events (
		id          BIGSERIAL PRIMARY KEY,
		question_id BIGINT NOT NULL REFERENCES questions(id) ON DELETE CASCADE,
		event_id    UUID NOT NULL,
		correct     BOOLEAN NOT NULL,
		created_at  TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
		UNIQUE(question_id, event_id)
	);

	CREATE INDEX IF NOT EXISTS idx_answer_events_question ON answer_events(question_id);
	`

	_, err := db.Exec(query)
	if err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	// Run ALTER TABLE statements to add columns to existing tables
	// These are idempotent for databases created before this migration
	alterStatements := []string{
		`ALTER TABLE users ADD COLUMN IF NOT EXISTS username VARCHAR(50) UNIQUE`,
		`ALTER TABLE documents ADD COLUMN IF NOT EXISTS status VARCHAR(20) NOT NULL DEFAULT 'uploaded'`,
		`ALTER TABLE documents ADD COLUMN IF NOT EXISTS content_text TEXT NOT NULL DEFAULT ''`,
		`ALTER TABLE questions ADD COLUMN IF NOT EXISTS explanation TEXT NOT NULL DEFAULT ''`,
		`ALTER TABLE questions ADD COLUMN IF NOT EXISTS last_shown TIMESTAMP WITH TIME ZONE`,
	}

	for _, stmt := range alterStatements {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("alter table failed: %w", err)
		}
	}

	// Backfill usernames for existing users that don't have one
	var usersWithoutUsername int
	if err := db.QueryRow(`SELECT COUNT(*) FROM users WHERE username IS NULL`).Scan(&usersWithoutUsername); err == nil && usersWithoutUsername > 0 {
		rows, err := db.Query(`SELECT id, name FROM users WHERE username IS NULL`)
		if err == nil {
			defer rows.Close()
			for rows.Next() {
				var id int64
				var name string
				if rows.Scan(&id, &name) == nil {
					base := generateUsernameBase(name)
					// Try up to 10 times with different random suffixes
					for attempt := 0; attempt < 10; attempt++ {
						candidate := fmt.Sprintf("%s%04d", base, randomInt(10000))
						_, err := db.Exec(
							`UPDATE users SET username = $1 WHERE id = $2 AND username IS NULL`,
							candidate, id,
						)
						if err == nil {
							break
						}
					}
				}
			}
		}
	}

	// Set NOT NULL on username (safe after backfill)
	db.Exec(`DO $$ BEGIN ALTER TABLE users ALTER COLUMN username SET NOT NULL; EXCEPTION WHEN others THEN NULL; END $$`)

	newIndexes := []string{
		`CREATE INDEX IF NOT EXISTS idx_users_username ON users(username)`,
		`CREATE INDEX IF NOT EXISTS idx_questions_pool ON questions(last_shown ASC NULLS FIRST)`,
	}
	for _, stmt := range newIndexes {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("create index failed: %w", err)
		}
	}

	return nil
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

// generateUsernameBase creates a lowercase alphanumeric base from a user's name.
func generateUsernameBase(name string) string {
	var result []byte
	for _, c := range strings.ToLower(name) {
		if (c >= 'a' && c <= 'z') || (c >= '0' && c <= '9') {
			result = append(result, byte(c))
		}
	}
	if len(result) == 0 {
		return "user"
	}
	if len(result) > 12 {
		result = result[:12]
	}
	return string(result)
}

// rng is a seeded random source for username generation.
var rng = rand.New(rand.NewSource(time.Now().UnixNano()))

// randomInt returns a random integer in [0, max).
func randomInt(max int) int {
	return rng.Intn(max)
}

// GenerateUsername creates a unique username from a name by appending random digits.
// It tries up to 10 times to find a unique one. Caller should handle the unique constraint.
func GenerateUsername(name string) string {
	base := generateUsernameBase(name)
	return fmt.Sprintf("%s%04d", base, randomInt(10000))
}
