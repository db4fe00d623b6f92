package specification

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// OwnedBy filters rows by their owning user
type OwnedBy struct {
	UserID uuid.UUID
}

func (s OwnedBy) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("user_id = ?", s.UserID)
}

// ByExternalChatId looks a user up by their messaging-channel identity
type ByExternalChatId struct {
	ExternalChatId string
}

func (s ByExternalChatId) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("external_chat_id = ?", s.ExternalChatId)
}

// ByStatus filters by a status column
type ByStatus struct {
	Status string
}

func (s ByStatus) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("status = ?", s.Status)
}

// ByTopic filters rows belonging to one consultation topic
type ByTopic struct {
	TopicID uuid.UUID
}

func (s ByTopic) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("topic_id = ?", s.TopicID)
}

// ByCategory filters knowledge rows by advisory category
type ByCategory struct {
	Category string
}

func (s ByCategory) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("category = ?", s.Category)
}

// ByCultivar filters knowledge rows by cultivar label
type ByCultivar struct {
	Cultivar string
}

func (s ByCultivar) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("cultivar = ?", s.Cultivar)
}

// ActiveOnly keeps knowledge entries that retrieval may serve
type ActiveOnly struct{}

func (s ActiveOnly) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("active = ?", true)
}
