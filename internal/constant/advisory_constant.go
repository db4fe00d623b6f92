package constant

const (
	// Consultation log operations. One row per pipeline step, the Details
	// payload carries the step-specific fields.
	OperationClassify         = "classify"
	OperationTopicShift       = "topic_shift"
	OperationRetrieve         = "retrieve"
	OperationCompose          = "compose"
	OperationClarify          = "clarify"
	OperationTopicOpened      = "topic_opened"
	OperationTopicClosed      = "topic_closed"
	OperationModerationSubmit = "moderation_submit"
	OperationBillingRefused   = "billing_refused"

	// Every new topic starts with this many free follow-up questions.
	DefaultFollowUpQuota = 3

	// Token prices. Follow-up packs restore the quota on the open topic.
	TopicCostTokens      = 1
	FollowUpPackCost     = 1
	InitialBalanceTokens = 5

	// Transaction references.
	ReferenceTopicOpen    = "topic_open"
	ReferenceFollowUpPack = "follow_up_pack"
	ReferenceAdminTopUp   = "admin_top_up"

	// User-facing fallback lines. The composer usually produces the reply;
	// these cover the paths where it never runs.
	ReplyInsufficientTokens = "You do not have enough tokens to open a new consultation topic. Please top up your balance."
	ReplyQuotaExhausted     = "You have used all follow-up questions for this topic. You can buy an additional question pack or start a new topic."
	ReplyContextLost        = "I lost the thread of our conversation. Please ask your question again from the beginning."
	ReplyServiceUnavailable = "The advisory service is temporarily unavailable. Please try again in a few minutes."
)
