package topicshift

import (
	"context"
	"log"
	"strings"

	"berry-advisory-be/pkg/advisor/cultivar"
	"berry-advisory-be/pkg/llm"
)

// Outcome is the verdict on whether a new question continues the current
// topic or starts a different one.
type Outcome string

const (
	SameTopic   Outcome = "SAME_TOPIC"
	ClearChange Outcome = "CLEAR_CHANGE"
	Unclear     Outcome = "UNCLEAR"
)

// Detector decides whether a follow-up question stays on the topic the user
// has been discussing. Only a plant change counts as a topic change: asking
// about pests after asking about feeding of the same plant is the same
// topic. When the model cannot be reached or gives an unusable answer the
// verdict is Unclear, never a guess.
type Detector struct {
	llmProvider llm.LLMProvider
	logger      *log.Logger
}

func NewDetector(llmProvider llm.LLMProvider, logger *log.Logger) *Detector {
	return &Detector{
		llmProvider: llmProvider,
		logger:      logger,
	}
}

// Compare judges newQuestion against the topic currently bound to
// currentCultivar. recentContext holds the user's last few messages, newest
// last, and is passed verbatim into the prompt.
func (d *Detector) Compare(ctx context.Context, currentCultivar, newQuestion string, recentContext []string) (Outcome, llm.Usage) {
	prompt := d.buildPrompt(currentCultivar, newQuestion, recentContext)

	outcome := Unclear
	response, usage, err := d.llmProvider.Generate(ctx, prompt, llm.WithTemperature(0.0))
	if err != nil {
		d.logger.Printf("[TOPICSHIFT] model call failed, verdict unclear: %v", err)
	} else {
		outcome = parseOutcome(response)
		if outcome == Unclear {
			d.logger.Printf("[TOPICSHIFT] unusable model answer %q, verdict unclear", truncateLog(response, 60))
		}
	}

	// Neither a SAME verdict nor an unclear one can stand when the question
	// plainly names exactly one family and it differs from the current one.
	if outcome != ClearChange && namesDifferentFamily(currentCultivar, newQuestion) {
		d.logger.Printf("[TOPICSHIFT] keyword override: question names a different plant")
		return ClearChange, usage
	}

	return outcome, usage
}

func namesDifferentFamily(currentCultivar, question string) bool {
	detected := cultivar.DetectKeyword(question)
	if !cultivar.IsSpecific(detected) && !cultivar.NeedsTypeClarification(detected) {
		return false
	}
	current := cultivar.FamilyOf(currentCultivar)
	return current != "" && cultivar.FamilyOf(detected) != current
}

func (d *Detector) buildPrompt(currentCultivar, newQuestion string, recentContext []string) string {
	var prompt strings.Builder

	prompt.WriteString("<system>\n")
	prompt.WriteString("You judge whether a gardener's new message continues their current consultation topic.\n")
	prompt.WriteString("You do NOT answer the message. You only compare topics.\n")
	prompt.WriteString("</system>\n\n")

	prompt.WriteString("<current_topic>\n")
	prompt.WriteString("The consultation so far is about: " + currentCultivar + "\n")
	if len(recentContext) > 0 {
		prompt.WriteString("Recent messages from the user:\n")
		for _, msg := range recentContext {
			prompt.WriteString("  - " + msg + "\n")
		}
	}
	prompt.WriteString("</current_topic>\n\n")

	prompt.WriteString("<new_message>\n")
	prompt.WriteString(newQuestion)
	prompt.WriteString("\n</new_message>\n\n")

	prompt.WriteString("<rules>\n")
	prompt.WriteString("The topic is defined by the PLANT, not by the kind of question.\n")
	prompt.WriteString("  - Asking about a different aspect of the same plant (feeding, then pests, then pruning) is SAME.\n")
	prompt.WriteString("  - Asking about a different plant is CHANGE.\n")
	prompt.WriteString("  - If you cannot tell, answer UNCLEAR.\n")
	prompt.WriteString("</rules>\n\n")

	prompt.WriteString("<output_format>\n")
	prompt.WriteString("Respond with ONLY one word: SAME, CHANGE, or UNCLEAR.\n")
	prompt.WriteString("</output_format>")

	return prompt.String()
}

// parseOutcome is lenient about casing and surrounding prose but refuses
// ambiguous answers that contain more than one verdict word.
func parseOutcome(response string) Outcome {
	text := strings.ToUpper(strings.TrimSpace(response))

	same := strings.Contains(text, "SAME")
	change := strings.Contains(text, "CHANGE")
	unclear := strings.Contains(text, "UNCLEAR")

	switch {
	case unclear:
		return Unclear
	case same && !change:
		return SameTopic
	case change && !same:
		return ClearChange
	default:
		return Unclear
	}
}

func truncateLog(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
