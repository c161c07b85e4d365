package questions

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/groundschool/backend/internal/generator"
	"github.com/groundschool/backend/internal/models"
	"github.com/lib/pq"
)

type Store struct {
	db *sql.DB
}

func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

const questionCols = `id, document_id, content, correct_answer, incorrect_answers,
	        explanation, difficulty, category, times_shown, times_correct, last_shown, created_at`

func scanQuestion(row interface{ Scan(...interface{}) error }) (*models.Question, error) {
	var q models.Question
	err := row.Scan(&q.ID, &q.DocumentID, &q.Content, &q.CorrectAnswer,
		pq.Array(&q.IncorrectAnswers), &q.Explanation, &q.Difficulty, &q.Category,
		&q.TimesShown, &q.TimesCorrect, &q.LastShown, &q.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &q, nil
}

// ── Question Lookup ─────────────────────────────────────

func (s *Store) GetQuestion(ctx context.Context, questionID int64) (*models.Question, error) {
	row := s.db.QueryRowContext(ctx,
		fmt.Sprintf(`SELECT %s FROM questions WHERE id = $1`, questionCols),
		questionID,
	)
	q, err := scanQuestion(row)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get question: %w", err)
	}
	return q, nil
}

// ── Study Pool Selection ────────────────────────────────

// GetStudyQuestions returns the user's question pool ordered for
// presentation: never-shown questions first, then least-recently-shown.
// User scoping goes through the owning document. Due-date filtering is the
// caller's concern — this query orders by last_shown only.
func (s *Store) GetStudyQuestions(ctx context.Context, userID int64, filters models.StudyFilters) ([]models.Question, error) {
	args := []interface{}{userID}
	clauses := []string{"d.user_id = $1"}
	paramIdx := 2

	if filters.Category != nil {
		clauses = append(clauses, fmt.Sprintf("q.category = $%d", paramIdx))
		args = append(args, *filters.Category)
		paramIdx++
	}
	if filters.Difficulty != nil {
		clauses = append(clauses, fmt.Sprintf("q.difficulty = $%d", paramIdx))
		args = append(args, *filters.Difficulty)
		paramIdx++
	}

	limitClause := ""
	if filters.Limit > 0 && !filters.DueOnly {
		limitClause = fmt.Sprintf(" LIMIT $%d", paramIdx)
		args = append(args, filters.Limit)
	}

	qCols := `q.id, q.document_id, q.content, q.correct_answer, q.incorrect_answers,
	        q.explanation, q.difficulty, q.category, q.times_shown, q.times_correct, q.last_shown, q.created_at`

	rows, err := s.db.QueryContext(ctx,
		fmt.Sprintf(`SELECT %s
		 FROM questions q
		 JOIN documents d ON d.id = q.document_id
		 WHERE %s
		 ORDER BY q.last_shown ASC NULLS FIRST, q.id%s`,
			qCols, strings.Join(clauses, " AND "), limitClause),
		args...,
	)
	if err != nil {
		return nil, fmt.Errorf("get study questions: %w", err)
	}
	defer rows.Close()

	var questions []models.Question
	for rows.Next() {
		q, err := scanQuestion(rows)
		if err != nil {
			return nil, fmt.Errorf("scan study question: %w", err)
		}
		questions = append(questions, *q)
	}
	return questions, rows.Err()
}

// ── Answer Recording ────────────────────────────────────

// The counter update is a single SQL statement so concurrent answer events
// for the same question never lose an increment. Never read-modify-write.
const recordAnswerSQL = `
	UPDATE questions
	SET times_shown = times_shown + 1,
	    times_correct = times_correct + CASE WHEN $2 THEN 1 ELSE 0 END,
	    last_shown = NOW()
	WHERE id = $1
	RETURNING times_shown, times_correct, last_shown`

// RecordAnswer atomically applies one answer event to a question's exposure
// counters. When eventID is set, the event is de-duplicated first: a
// repeated eventID commits nothing and returns the current counters with
// applied=false. The dedup insert and the increment share one transaction,
// so no partial update is ever observable.
func (s *Store) RecordAnswer(ctx context.Context, questionID int64, correct bool, eventID *string) (*models.RecordAnswerResponse, bool, error) {
	resp := &models.RecordAnswerResponse{QuestionID: questionID}

	if eventID == nil {
		err := s.db.QueryRowContext(ctx, recordAnswerSQL, questionID, correct).
			Scan(&resp.TimesShown, &resp.TimesCorrect, &resp.LastShown)
		if err == sql.ErrNoRows {
			return nil, false, ErrNotFound
		}
		if err != nil {
			return nil, false, fmt.Errorf("record answer: %w", err)
		}
		return resp, true, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, false, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`INSERT INTO answer_events (question_id, event_id, correct)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (question_id, event_id) DO NOTHING`,
		questionID, *eventID, correct,
	)
	if err != nil {
		if strings.Contains(err.Error(), "foreign key") {
			return nil, false, ErrNotFound
		}
		return nil, false, fmt.Errorf("insert answer event: %w", err)
	}

	inserted, err := res.RowsAffected()
	if err != nil {
		return nil, false, fmt.Errorf("answer event rows: %w", err)
	}

	if inserted == 0 {
		// Duplicate event — report current counters, apply nothing.
		err := tx.QueryRowContext(ctx,
			`SELECT times_shown, times_correct, last_shown FROM questions WHERE id = $1`,
			questionID,
		).Scan(&resp.TimesShown, &resp.TimesCorrect, &resp.LastShown)
		if err == sql.ErrNoRows {
			return nil, false, ErrNotFound
		}
		if err != nil {
			return nil, false, fmt.Errorf("read counters: %w", err)
		}
		if err := tx.Commit(); err != nil {
			return nil, false, fmt.Errorf("commit: %w", err)
		}
		return resp, false, nil
	}

	err = tx.QueryRowContext(ctx, recordAnswerSQL, questionID, correct).
		Scan(&resp.TimesShown, &resp.TimesCorrect, &resp.LastShown)
	if err == sql.ErrNoRows {
		return nil, false, ErrNotFound
	}
	if err != nil {
		return nil, false, fmt.Errorf("record answer: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, false, fmt.Errorf("commit: %w", err)
	}
	return resp, true, nil
}

// ── Exposure Records ────────────────────────────────────

func (s *Store) GetExposureRecords(ctx context.Context, userID int64) ([]models.ExposureRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT q.id, q.category, q.times_shown, q.times_correct, q.last_shown
		 FROM questions q
		 JOIN documents d ON d.id = q.document_id
		 WHERE d.user_id = $1`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("get exposure records: %w", err)
	}
	defer rows.Close()

	var records []models.ExposureRecord
	for rows.Next() {
		var r models.ExposureRecord
		if err := rows.Scan(&r.QuestionID, &r.Category, &r.TimesShown, &r.TimesCorrect, &r.LastShown); err != nil {
			return nil, fmt.Errorf("scan exposure record: %w", err)
		}
		records = append(records, r)
	}
	return records, rows.Err()
}

// ── Question Creation ───────────────────────────────────

// CreateQuestions inserts a generated batch for a document in one
// transaction. Exposure counters start at zero; last_shown stays NULL until
// the first presentation.
func (s *Store) CreateQuestions(ctx context.Context, documentID int64, category string, generated []generator.GeneratedQuestion) ([]models.Question, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	questions := make([]models.Question, 0, len(generated))
	for _, gq := range generated {
		correct, incorrect := gq.SplitAnswers()

		row := tx.QueryRowContext(ctx,
			fmt.Sprintf(`INSERT INTO questions
			 (document_id, content, correct_answer, incorrect_answers, explanation, difficulty, category)
			 VALUES ($1, $2, $3, $4, $5, $6, $7)
			 RETURNING %s`, questionCols),
			documentID, gq.Question, correct, pq.Array(incorrect),
			gq.Explanation, gq.Difficulty, category,
		)
		q, err := scanQuestion(row)
		if err != nil {
			return nil, fmt.Errorf("insert question: %w", err)
		}
		questions = append(questions, *q)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return questions, nil
}
