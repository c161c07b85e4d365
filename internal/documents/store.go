package documents

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/groundschool/backend/internal/models"
)

// ErrNotFound means the document does not exist or is not owned by the
// requesting user.
var ErrNotFound = errors.New("document not found")

type Store struct {
	db *sql.DB
}

func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

const documentCols = `id, user_id, title, category, file_path, file_type, status, content_text, created_at`

func (s *Store) Create(ctx context.Context, userID int64, req models.CreateDocumentRequest) (*models.Document, error) {
	var d models.Document
	err := s.db.QueryRowContext(ctx,
		fmt.Sprintf(`INSERT INTO documents (user_id, title, category, file_path, file_type, status, content_text)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING %s`, documentCols),
		userID, req.Title, req.Category, req.FilePath, req.FileType,
		models.DocumentUploaded, req.ContentText,
	).Scan(&d.ID, &d.UserID, &d.Title, &d.Category, &d.FilePath, &d.FileType,
		&d.Status, &d.ContentText, &d.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("create document: %w", err)
	}
	return &d, nil
}

// GetForUser returns a document only if it belongs to the user. A document
// owned by someone else is indistinguishable from a missing one.
func (s *Store) GetForUser(ctx context.Context, userID, documentID int64) (*models.Document, error) {
	var d models.Document
	err := s.db.QueryRowContext(ctx,
		fmt.Sprintf(`SELECT %s FROM documents WHERE id = $1 AND user_id = $2`, documentCols),
		documentID, userID,
	).Scan(&d.ID, &d.UserID, &d.Title, &d.Category, &d.FilePath, &d.FileType,
		&d.Status, &d.ContentText, &d.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get document: %w", err)
	}
	return &d, nil
}

func (s *Store) ListByUser(ctx context.Context, userID int64) ([]models.Document, error) {
	rows, err := s.db.QueryContext(ctx,
		fmt.Sprintf(`SELECT %s FROM documents WHERE user_id = $1 ORDER BY created_at DESC`, documentCols),
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	defer rows.Close()

	var docs []models.Document
	for rows.Next() {
		var d models.Document
		if err := rows.Scan(&d.ID, &d.UserID, &d.Title, &d.Category, &d.FilePath, &d.FileType,
			&d.Status, &d.ContentText, &d.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan document: %w", err)
		}
		docs = append(docs, d)
	}
	return docs, rows.Err()
}

func (s *Store) UpdateStatus(ctx context.Context, documentID int64, status models.DocumentStatus) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE documents SET status = $1 WHERE id = $2`,
		status, documentID,
	)
	return err
}

// Delete removes a document and, through ON DELETE CASCADE, all of its
// questions and their answer events. The scheduler never deletes questions
// itself — this is the only deletion path.
func (s *Store) Delete(ctx context.Context, userID, documentID int64) error {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM documents WHERE id = $1 AND user_id = $2`,
		documentID, userID,
	)
	if err != nil {
		return fmt.Errorf("delete document: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete document rows: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}
