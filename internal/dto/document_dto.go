package dto

import (
	"time"

	"github.com/google/uuid"
)

type UploadDocumentRequest struct {
	Title      string `json:"title" validate:"required"`
	SourceName string `json:"source_name"`
	Cultivar   string `json:"cultivar" validate:"required"`
	Content    string `json:"content" validate:"required"`
}

type UploadDocumentResponse struct {
	Id     uuid.UUID `json:"id"`
	Status string    `json:"status"`
}

type DocumentResponse struct {
	Id         uuid.UUID  `json:"id"`
	Title      string     `json:"title"`
	SourceName string     `json:"source_name,omitempty"`
	Cultivar   string     `json:"cultivar"`
	Status     string     `json:"status"`
	ChunkCount int        `json:"chunk_count"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  *time.Time `json:"updated_at"`
}

// PublishIngestDocumentMessage is the async ingestion job payload. The
// consumer re-reads the document row, so only the id travels.
type PublishIngestDocumentMessage struct {
	DocumentId uuid.UUID `json:"document_id"`
}
