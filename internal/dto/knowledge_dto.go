package dto

import (
	"time"

	"github.com/google/uuid"
)

type CreateKnowledgeEntryRequest struct {
	Category string `json:"category" validate:"required"`
	Cultivar string `json:"cultivar" validate:"required"`
	Question string `json:"question" validate:"required"`
	Answer   string `json:"answer" validate:"required"`
}

type CreateKnowledgeEntryResponse struct {
	Id uuid.UUID `json:"id"`
}

type UpdateKnowledgeEntryRequest struct {
	Id       uuid.UUID
	Category string `json:"category" validate:"required"`
	Cultivar string `json:"cultivar" validate:"required"`
	Question string `json:"question" validate:"required"`
	Answer   string `json:"answer" validate:"required"`
	Active   *bool  `json:"active"`
}

type KnowledgeEntryResponse struct {
	Id        uuid.UUID  `json:"id"`
	Category  string     `json:"category"`
	Cultivar  string     `json:"cultivar"`
	Question  string     `json:"question"`
	Answer    string     `json:"answer"`
	Active    bool       `json:"active"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt *time.Time `json:"updated_at"`
}

type ListCultivarsResponse struct {
	Cultivars []string `json:"cultivars"`
}

// SearchKnowledgeRequest previews retrieval for a question: the same tiered
// search the consultation pipeline runs, without composing an answer.
type SearchKnowledgeRequest struct {
	Question string `json:"question" validate:"required"`
	Category string `json:"category"`
	Cultivar string `json:"cultivar"`
}

type SearchFragmentResponse struct {
	Source     string    `json:"source"`
	Tier       int       `json:"tier"`
	RecordId   uuid.UUID `json:"record_id"`
	DocumentId uuid.UUID `json:"document_id,omitempty"`
	Category   string    `json:"category,omitempty"`
	Cultivar   string    `json:"cultivar,omitempty"`
	Question   string    `json:"question,omitempty"`
	Content    string    `json:"content"`
	Similarity float64   `json:"similarity"`
}

type SearchKnowledgeResponse struct {
	Fragments []SearchFragmentResponse `json:"fragments"`
}
