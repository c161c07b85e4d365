package models

import "time"

type DocumentStatus string

const (
	DocumentUploaded   DocumentStatus = "uploaded"
	DocumentProcessing DocumentStatus = "processing"
	DocumentReady      DocumentStatus = "ready"
	DocumentFailed     DocumentStatus = "failed"
)

// Document is an uploaded aviation study document. The file itself lives in
// external object storage; ContentText holds the extracted text used for
// question generation.
type Document struct {
	ID          int64          `json:"id"`
	UserID      int64          `json:"user_id"`
	Title       string         `json:"title"`
	Category    string         `json:"category"`
	FilePath    string         `json:"file_path"`
	FileType    string         `json:"file_type"`
	Status      DocumentStatus `json:"status"`
	ContentText string         `json:"-"`
	CreatedAt   time.Time      `json:"created_at"`
}

type CreateDocumentRequest struct {
	Title       string `json:"title"`
	Category    string `json:"category"`
	FilePath    string `json:"file_path"`
	FileType    string `json:"file_type"`
	ContentText string `json:"content_text"`
}

type DocumentListResponse struct {
	Documents []Document `json:"documents"`
	Total     int        `json:"total"`
}
