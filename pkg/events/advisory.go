package events

import "time"

// Event type codes published by the advisory engine.
const (
	TypeTopicOpened         = "topic.opened"
	TypeTopicClosed         = "topic.closed"
	TypeConsultationAnswer  = "consultation.answered"
	TypeTokensDebited       = "tokens.debited"
	TypeTokensCredited      = "tokens.credited"
	TypeModerationSubmitted = "moderation.submitted"
	TypeKnowledgeUpdated    = "knowledge.updated"
	TypeDocumentIngested    = "document.ingested"
)

func newEvent(eventType string, data map[string]interface{}) Event {
	return BaseEvent{
		Type:       eventType,
		Data:       data,
		OccurredAt: time.Now(),
	}
}

func NewTopicOpenedEvent(userID, topicID, category, cultivar string) Event {
	return newEvent(TypeTopicOpened, map[string]interface{}{
		"user_id":  userID,
		"topic_id": topicID,
		"category": category,
		"cultivar": cultivar,
	})
}

func NewTopicClosedEvent(userID, topicID, reason string) Event {
	return newEvent(TypeTopicClosed, map[string]interface{}{
		"user_id":  userID,
		"topic_id": topicID,
		"reason":   reason,
	})
}

func NewConsultationAnsweredEvent(userID, topicID string, promptTokens, completionTokens int) Event {
	return newEvent(TypeConsultationAnswer, map[string]interface{}{
		"user_id":           userID,
		"topic_id":          topicID,
		"prompt_tokens":     promptTokens,
		"completion_tokens": completionTokens,
	})
}

func NewTokensDebitedEvent(userID string, amount, balance int64) Event {
	return newEvent(TypeTokensDebited, map[string]interface{}{
		"user_id": userID,
		"amount":  amount,
		"balance": balance,
	})
}

func NewTokensCreditedEvent(userID string, amount, balance int64) Event {
	return newEvent(TypeTokensCredited, map[string]interface{}{
		"user_id": userID,
		"amount":  amount,
		"balance": balance,
	})
}

func NewModerationSubmittedEvent(itemID, userID string) Event {
	return newEvent(TypeModerationSubmitted, map[string]interface{}{
		"item_id": itemID,
		"user_id": userID,
	})
}

func NewKnowledgeUpdatedEvent(entryID, category, cultivar string) Event {
	return newEvent(TypeKnowledgeUpdated, map[string]interface{}{
		"entry_id": entryID,
		"category": category,
		"cultivar": cultivar,
	})
}

func NewDocumentIngestedEvent(documentID string, chunks int) Event {
	return newEvent(TypeDocumentIngested, map[string]interface{}{
		"document_id": documentID,
		"chunks":      chunks,
	})
}
