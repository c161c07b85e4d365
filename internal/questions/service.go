package questions

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/groundschool/backend/internal/generator"
	"github.com/groundschool/backend/internal/models"
)

// ExposureStore is the persistence contract for question exposure records.
// The Postgres Store implements it; tests substitute an in-memory double.
type ExposureStore interface {
	GetQuestion(ctx context.Context, questionID int64) (*models.Question, error)
	GetStudyQuestions(ctx context.Context, userID int64, filters models.StudyFilters) ([]models.Question, error)
	RecordAnswer(ctx context.Context, questionID int64, correct bool, eventID *string) (*models.RecordAnswerResponse, bool, error)
	GetExposureRecords(ctx context.Context, userID int64) ([]models.ExposureRecord, error)
	CreateQuestions(ctx context.Context, documentID int64, category string, generated []generator.GeneratedQuestion) ([]models.Question, error)
}

// DocumentSource resolves a document owned by a user. Satisfied by the
// documents store.
type DocumentSource interface {
	GetForUser(ctx context.Context, userID, documentID int64) (*models.Document, error)
}

type Service struct {
	store     ExposureStore
	docs      DocumentSource
	generator *generator.Generator
	now       func() time.Time
}

func NewService(store ExposureStore, docs DocumentSource, gen *generator.Generator) *Service {
	return &Service{
		store:     store,
		docs:      docs,
		generator: gen,
		now:       time.Now,
	}
}

// ── Study Pool ──────────────────────────────────────────

func (s *Service) GetStudyQuestions(ctx context.Context, userID int64, filters models.StudyFilters) ([]models.Question, error) {
	if filters.Limit < 0 {
		return nil, fmt.Errorf("%w: limit must not be negative", ErrInvalidInput)
	}
	if filters.Difficulty != nil && !models.ValidDifficulties[*filters.Difficulty] {
		return nil, fmt.Errorf("%w: unknown difficulty %q", ErrInvalidInput, *filters.Difficulty)
	}

	questions, err := s.store.GetStudyQuestions(ctx, userID, filters)
	if err != nil {
		return nil, err
	}

	if filters.DueOnly {
		now := s.now()
		due := questions[:0]
		for _, q := range questions {
			if IsDue(models.ExposureRecord{
				TimesShown:   q.TimesShown,
				TimesCorrect: q.TimesCorrect,
				LastShown:    q.LastShown,
			}, now) {
				due = append(due, q)
			}
		}
		questions = due
		if filters.Limit > 0 && len(questions) > filters.Limit {
			questions = questions[:filters.Limit]
		}
	}

	return questions, nil
}

func (s *Service) GetQuestion(ctx context.Context, questionID int64) (*models.Question, error) {
	return s.store.GetQuestion(ctx, questionID)
}

// ── Answer Recording ────────────────────────────────────

// RecordAnswer applies one answer event and returns the updated counters
// plus the recomputed next review date. A storage failure is returned to
// the caller untouched — the presentation layer must know the answer did
// not count.
func (s *Service) RecordAnswer(ctx context.Context, questionID int64, correct bool, eventID *string) (*models.RecordAnswerResponse, error) {
	if eventID != nil {
		if _, err := uuid.Parse(*eventID); err != nil {
			return nil, fmt.Errorf("%w: event_id must be a UUID", ErrInvalidInput)
		}
	}

	resp, applied, err := s.store.RecordAnswer(ctx, questionID, correct, eventID)
	if err != nil {
		return nil, err
	}

	last := resp.LastShown
	resp.NextReview = NextReviewDate(&last, resp.TimesCorrect, resp.TimesShown, s.now())
	resp.Duplicate = !applied
	return resp, nil
}

// NextReview recomputes a question's review eligibility on demand.
func (s *Service) NextReview(ctx context.Context, questionID int64) (*models.NextReviewResponse, error) {
	q, err := s.store.GetQuestion(ctx, questionID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	next := NextReviewDate(q.LastShown, q.TimesCorrect, q.TimesShown, now)
	return &models.NextReviewResponse{
		QuestionID: q.ID,
		NextReview: next,
		Due:        !next.After(now),
	}, nil
}

// ── Study Stats ─────────────────────────────────────────

func (s *Service) GetStudyStats(ctx context.Context, userID int64) (*models.StudyStatsResponse, error) {
	records, err := s.store.GetExposureRecords(ctx, userID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	resp := &models.StudyStatsResponse{
		Categories: make(map[string]models.CategoryStat),
	}

	for _, r := range records {
		cat := resp.Categories[r.Category]
		cat.Questions++
		cat.Shown += r.TimesShown
		cat.Correct += r.TimesCorrect

		resp.TotalQuestions++
		resp.TotalShown += r.TimesShown
		resp.TotalCorrect += r.TimesCorrect

		if r.TimesShown == 0 {
			cat.NeverShown++
			resp.NeverShown++
		}
		if IsDue(r, now) {
			cat.DueNow++
			resp.DueNow++
		}

		resp.Categories[r.Category] = cat
	}

	if resp.TotalShown > 0 {
		resp.Accuracy = float64(resp.TotalCorrect) / float64(resp.TotalShown)
	}
	for name, cat := range resp.Categories {
		if cat.Shown > 0 {
			cat.Accuracy = float64(cat.Correct) / float64(cat.Shown)
			resp.Categories[name] = cat
		}
	}

	return resp, nil
}

// ── Question Generation ─────────────────────────────────

func (s *Service) GenerateQuestions(ctx context.Context, userID, documentID int64, count int) (*models.GenerateQuestionsResponse, error) {
	if count <= 0 {
		count = 10
	}

	doc, err := s.docs.GetForUser(ctx, userID, documentID)
	if err != nil {
		return nil, err
	}
	if doc.ContentText == "" {
		return nil, fmt.Errorf("%w: document has no extracted text", ErrInvalidInput)
	}

	batch, _, err := s.generator.GenerateBatch(ctx, doc, count)
	if err != nil {
		return nil, fmt.Errorf("generate questions: %w", err)
	}

	questions, err := s.store.CreateQuestions(ctx, documentID, doc.Category, batch.Questions)
	if err != nil {
		return nil, fmt.Errorf("save generated questions: %w", err)
	}

	return &models.GenerateQuestionsResponse{
		DocumentID: documentID,
		Created:    len(questions),
		Questions:  questions,
	}, nil
}
