package models

import "time"

type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

var ValidDifficulties = map[Difficulty]bool{
	DifficultyEasy:   true,
	DifficultyMedium: true,
	DifficultyHard:   true,
}

// ── Core Structs ───────────────────────────────────────

// Question is one generated study question plus its exposure statistics.
// TimesShown/TimesCorrect/LastShown drive the review scheduler; they are
// mutated only through the answer-recording path.
type Question struct {
	ID               int64      `json:"id"`
	DocumentID       int64      `json:"document_id"`
	Content          string     `json:"content"`
	CorrectAnswer    string     `json:"correct_answer"`
	IncorrectAnswers []string   `json:"incorrect_answers"`
	Explanation      string     `json:"explanation"`
	Difficulty       Difficulty `json:"difficulty"`
	Category         string     `json:"category"`
	TimesShown       int        `json:"times_shown"`
	TimesCorrect     int        `json:"times_correct"`
	LastShown        *time.Time `json:"last_shown,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
}

// ExposureRecord is the minimal projection of a question used for
// scheduling math and progress stats.
type ExposureRecord struct {
	QuestionID   int64      `json:"question_id"`
	Category     string     `json:"category"`
	TimesShown   int        `json:"times_shown"`
	TimesCorrect int        `json:"times_correct"`
	LastShown    *time.Time `json:"last_shown,omitempty"`
}

// ── Request Types ─────────────────────────────────────

// StudyFilters narrows the question pool query. All fields optional;
// Limit <= 0 means no limit. DueOnly additionally drops questions whose
// next review date is still in the future.
type StudyFilters struct {
	Category   *string
	Difficulty *Difficulty
	Limit      int
	DueOnly    bool
}

type RecordAnswerRequest struct {
	Correct bool `json:"correct"`
	// EventID is an optional client-generated UUID used to de-duplicate
	// retried submissions. A repeated EventID for the same question is
	// acknowledged without applying a second increment.
	EventID *string `json:"event_id,omitempty"`
}

type GenerateQuestionsRequest struct {
	Count int `json:"count"`
}

// ── Response Types ────────────────────────────────────

type RecordAnswerResponse struct {
	QuestionID   int64     `json:"question_id"`
	TimesShown   int       `json:"times_shown"`
	TimesCorrect int       `json:"times_correct"`
	LastShown    time.Time `json:"last_shown"`
	NextReview   time.Time `json:"next_review"`
	Duplicate    bool      `json:"duplicate"`
}

type NextReviewResponse struct {
	QuestionID int64     `json:"question_id"`
	NextReview time.Time `json:"next_review"`
	Due        bool      `json:"due"`
}

type QuestionListResponse struct {
	Questions []Question `json:"questions"`
	Total     int        `json:"total"`
}

type GenerateQuestionsResponse struct {
	DocumentID int64      `json:"document_id"`
	Created    int        `json:"created"`
	Questions  []Question `json:"questions"`
}

// ── Study Stats ───────────────────────────────────────

type StudyStatsResponse struct {
	TotalQuestions int                     `json:"total_questions"`
	TotalShown     int                     `json:"total_shown"`
	TotalCorrect   int                     `json:"total_correct"`
	Accuracy       float64                 `json:"accuracy"`
	DueNow         int                     `json:"due_now"`
	NeverShown     int                     `json:"never_shown"`
	Categories     map[string]CategoryStat `json:"categories"`
}

type CategoryStat struct {
	Questions  int     `json:"questions"`
	Shown      int     `json:"shown"`
	Correct    int     `json:"correct"`
	Accuracy   float64 `json:"accuracy"`
	DueNow     int     `json:"due_now"`
	NeverShown int     `json:"never_shown"`
}
