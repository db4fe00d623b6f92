package compose

import (
	"context"
	"fmt"
	"log"
	"strings"

	"berry-advisory-be/pkg/advisor/retrieve"
	"berry-advisory-be/pkg/llm"
)

// Request carries everything the answer needs: the question with its
// accumulated clarifications, the conversation so far, the retrieved
// grounding fragments and the user's growing parameters.
type Request struct {
	Question    string
	History     []llm.Message
	Fragments   []retrieve.Fragment
	Category    string
	Cultivar    string
	Location    string
	Environment string
}

// Composer turns a retrieval-grounded request into the final advisory
// answer. It is the only component allowed to produce user-facing prose.
type Composer struct {
	llmProvider llm.LLMProvider
	logger      *log.Logger
}

func NewComposer(llmProvider llm.LLMProvider, logger *log.Logger) *Composer {
	return &Composer{
		llmProvider: llmProvider,
		logger:      logger,
	}
}

// Compose generates the answer. Unlike classification this propagates
// errors: with no answer text there is nothing sensible to degrade to, the
// caller must tell the user to retry.
func (c *Composer) Compose(ctx context.Context, req Request) (string, llm.Usage, error) {
	messages := make([]llm.Message, 0, len(req.History)+2)
	messages = append(messages, llm.Message{Role: "system", Content: c.systemPrompt(req)})
	messages = append(messages, req.History...)
	messages = append(messages, llm.Message{Role: "user", Content: req.Question})

	reply, usage, err := c.llmProvider.Chat(ctx, messages, llm.WithTemperature(0.3))
	if err != nil {
		c.logger.Printf("[COMPOSE] generation failed: %v", err)
		return "", llm.Usage{}, fmt.Errorf("compose answer: %w", err)
	}
	return strings.TrimSpace(reply), usage, nil
}

func (c *Composer) systemPrompt(req Request) string {
	var prompt strings.Builder

	prompt.WriteString("You are an agronomist advising home gardeners on growing berry plants.\n")
	prompt.WriteString("You answer ONLY questions about berry plants and their cultivation. ")
	prompt.WriteString("If the question is about anything else, politely say you only advise on berry growing.\n\n")

	prompt.WriteString("Consultation context:\n")
	if req.Cultivar != "" {
		prompt.WriteString("  Plant: " + req.Cultivar + "\n")
	}
	if req.Category != "" {
		prompt.WriteString("  Topic: " + req.Category + "\n")
	}
	prompt.WriteString("  Growing location: " + req.Location + "\n")
	prompt.WriteString("  Growing environment: " + req.Environment + "\n")
	prompt.WriteString("Tailor the advice to this location and environment.\n\n")

	if len(req.Fragments) > 0 {
		prompt.WriteString("Use the following reference material. Prefer it over your own knowledge when they disagree:\n\n")
		for i, f := range req.Fragments {
			prompt.WriteString(fmt.Sprintf("--- Reference %d ---\n", i+1))
			if f.Question != "" {
				prompt.WriteString("Q: " + f.Question + "\n")
			}
			prompt.WriteString(f.Content + "\n\n")
		}
	} else {
		prompt.WriteString("No reference material matched this question. Answer from general agronomic knowledge and say so when you are unsure.\n\n")
	}

	prompt.WriteString("If you cannot answer without knowing more about the user's plants, ")
	prompt.WriteString("ask ONE short clarifying question instead of answering.\n")
	prompt.WriteString("Keep the answer practical and concise.")

	return prompt.String()
}

// rejectionMarkers identify a reply that declines to answer because the
// question is off-topic.
var rejectionMarkers = []string{
	"only advise on berry",
	"only answer questions about berry",
	"outside my area",
	"cannot help with that topic",
}

// IsRejectionResponse reports whether the model declined to answer an
// off-topic question. Such replies close the topic without charging a
// follow-up.
func IsRejectionResponse(reply string) bool {
	lower := strings.ToLower(reply)
	for _, marker := range rejectionMarkers {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}
