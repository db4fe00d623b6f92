package store

// DialogState is the per-user conversation state kept in memory between
// turns. It is the single source of truth for what the engine expects the
// user's next message to be.
type DialogState struct {
	UserID string `json:"user_id"`
	State  string `json:"state"`

	// Classification of the conversation currently in flight
	Category string `json:"category"`
	Cultivar string `json:"cultivar"`

	// RootQuestion is the first question of the current topic; FullQuestion
	// accumulates clarification answers appended to it
	RootQuestion string `json:"root_question"`
	FullQuestion string `json:"full_question"`

	// Persistence anchors
	TopicID   string `json:"topic_id"`
	SessionID string `json:"session_id"`

	// Growing parameters, replaceable mid-conversation
	Location           string `json:"location"`
	GrowingEnvironment string `json:"growing_environment"`
}

// Conversation states. A user is always in exactly one of these.
const (
	StateIdle                     = "IDLE"
	StateAwaitingRootQuestion     = "AWAITING_ROOT_QUESTION"
	StateAwaitingCultivarType     = "AWAITING_CULTIVAR_TYPE"
	StateAwaitingClarificationAns = "AWAITING_CLARIFICATION_ANSWER"
	StateAwaitingParamReplacement = "AWAITING_PARAM_REPLACEMENT"
)

// Defaults applied when the user never stated their growing parameters.
const (
	DefaultLocation           = "middle band"
	DefaultGrowingEnvironment = "open field"
)

// NewDialogState returns a fresh idle state for a user with default
// growing parameters.
func NewDialogState(userID string) *DialogState {
	return &DialogState{
		UserID:             userID,
		State:              StateIdle,
		Location:           DefaultLocation,
		GrowingEnvironment: DefaultGrowingEnvironment,
	}
}

// ResetTopic clears everything bound to the current topic while keeping the
// user's growing parameters.
func (s *DialogState) ResetTopic() {
	s.State = StateIdle
	s.Category = ""
	s.Cultivar = ""
	s.RootQuestion = ""
	s.FullQuestion = ""
	s.TopicID = ""
}
