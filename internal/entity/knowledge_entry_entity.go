package entity

import (
	"time"

	"github.com/google/uuid"
)

// KnowledgeEntry is one curated question/answer pair, vectorized for
// similarity search.
type KnowledgeEntry struct {
	Id        uuid.UUID
	Category  string
	Cultivar  string
	Question  string
	Answer    string
	Embedding []float32
	Active    bool
	CreatedAt time.Time
	UpdatedAt *time.Time
	DeletedAt *time.Time
	IsDeleted bool
}
