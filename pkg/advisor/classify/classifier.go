package classify

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"

	"berry-advisory-be/pkg/advisor/cultivar"
	"berry-advisory-be/pkg/llm"
)

// Result is the outcome of classifying a single question. Category is one of
// the Categories() values or "undetermined"; Cultivar is a canonical label,
// "general information", or "undetermined".
type Result struct {
	Category string `json:"category"`
	Cultivar string `json:"cultivar"`
}

// CultivarSource supplies the live cultivar labels known to the knowledge
// base, so the classifier prompt stays in sync with what retrieval can
// actually serve.
type CultivarSource interface {
	ListCultivars(ctx context.Context) ([]string, error)
}

// Classifier assigns a category and a cultivar to a question. The decision
// runs as a chain: model answer first, normalized against the closed
// vocabulary, then a deterministic keyword pass that can override the model
// when it is strictly more informative. Classification never fails: every
// step degrades to the keyword fallback and ultimately to the sentinels.
type Classifier struct {
	llmProvider llm.LLMProvider
	cultivars   CultivarSource
	logger      *log.Logger
}

func NewClassifier(llmProvider llm.LLMProvider, cultivars CultivarSource, logger *log.Logger) *Classifier {
	return &Classifier{
		llmProvider: llmProvider,
		cultivars:   cultivars,
		logger:      logger,
	}
}

// Classify runs the classification chain on a question. The returned usage
// reflects the model call; a zero usage means the model was never reached
// or failed and the keyword fallback decided alone.
func (c *Classifier) Classify(ctx context.Context, question string) (Result, llm.Usage) {
	prompt := c.buildPrompt(ctx, question)

	response, usage, err := c.llmProvider.Generate(ctx, prompt, llm.WithTemperature(0.0))
	if err != nil {
		c.logger.Printf("[CLASSIFY] model call failed, keyword fallback only: %v", err)
		return Result{
			Category: CategoryUndetermined,
			Cultivar: cultivar.DetectKeyword(question),
		}, llm.Usage{}
	}

	parsed, err := parseResult(response)
	if err != nil {
		c.logger.Printf("[CLASSIFY] unparseable model answer, keyword fallback only: %v", err)
		return Result{
			Category: CategoryUndetermined,
			Cultivar: cultivar.DetectKeyword(question),
		}, usage
	}

	result := Result{
		Category: NormalizeCategory(parsed.Category),
		Cultivar: cultivar.Normalize(parsed.Cultivar),
	}

	if keyword := cultivar.DetectKeyword(question); overrides(keyword, result.Cultivar) {
		c.logger.Printf("[CLASSIFY] keyword override: %q -> %q", result.Cultivar, keyword)
		result.Cultivar = keyword
	}

	return result, usage
}

// overrides reports whether the keyword-detected label should replace the
// model's label. The keyword pass wins only when it is strictly more
// informative: a concrete label beats a family-general one, which beats a
// sentinel. Ties keep the model's answer.
func overrides(keyword, model string) bool {
	return labelRank(keyword) > labelRank(model)
}

func labelRank(label string) int {
	switch {
	case label == "" || cultivar.IsSentinel(label):
		return 0
	case cultivar.NeedsTypeClarification(label):
		return 1
	default:
		return 2
	}
}

func (c *Classifier) buildPrompt(ctx context.Context, question string) string {
	labels := c.knownCultivars(ctx)

	var prompt strings.Builder

	prompt.WriteString("<system>\n")
	prompt.WriteString("You are a classifier for a berry-growing advisory service.\n")
	prompt.WriteString("You do NOT answer the question. You only classify it.\n")
	prompt.WriteString("</system>\n\n")

	prompt.WriteString("<question>\n")
	prompt.WriteString(question)
	prompt.WriteString("\n</question>\n\n")

	prompt.WriteString("<categories>\n")
	prompt.WriteString("Pick exactly ONE category:\n")
	for _, cat := range Categories() {
		prompt.WriteString("  - " + cat + "\n")
	}
	prompt.WriteString("Use \"undetermined\" only when the question fits none of them.\n")
	prompt.WriteString("</categories>\n\n")

	prompt.WriteString("<cultivars>\n")
	prompt.WriteString("Pick exactly ONE cultivar label from this list:\n")
	for _, label := range labels {
		prompt.WriteString("  - " + label + "\n")
	}
	prompt.WriteString("Rules:\n")
	prompt.WriteString("  - \"general information\": the question is about berry growing but names no single plant, or names several.\n")
	prompt.WriteString("  - \"undetermined\": the question is not about berry plants at all.\n")
	prompt.WriteString("  - For strawberry and raspberry, use the \", general\" form unless the question states the bearing type.\n")
	prompt.WriteString("</cultivars>\n\n")

	prompt.WriteString("<output_format>\n")
	prompt.WriteString("Respond with ONLY valid JSON:\n")
	prompt.WriteString("{\"category\": \"...\", \"cultivar\": \"...\"}\n")
	prompt.WriteString("</output_format>")

	return prompt.String()
}

// knownCultivars merges the live knowledge-base labels with the built-in
// vocabulary, so the prompt works even against an empty database.
func (c *Classifier) knownCultivars(ctx context.Context) []string {
	labels := cultivar.KnownLabels()
	if c.cultivars == nil {
		return append(labels, cultivar.GeneralInformation, cultivar.Undetermined)
	}

	live, err := c.cultivars.ListCultivars(ctx)
	if err != nil {
		c.logger.Printf("[CLASSIFY] cultivar list unavailable, using built-in vocabulary: %v", err)
		return append(labels, cultivar.GeneralInformation, cultivar.Undetermined)
	}

	seen := make(map[string]bool, len(labels)+len(live))
	for _, l := range labels {
		seen[l] = true
	}
	for _, l := range live {
		if l == "" || seen[l] {
			continue
		}
		seen[l] = true
		labels = append(labels, l)
	}
	return append(labels, cultivar.GeneralInformation, cultivar.Undetermined)
}

func parseResult(response string) (Result, error) {
	jsonContent := extractJSON(response)
	if jsonContent == "" {
		return Result{}, fmt.Errorf("no JSON found in response")
	}

	var result Result
	if err := json.Unmarshal([]byte(jsonContent), &result); err != nil {
		return Result{}, fmt.Errorf("JSON unmarshal failed: %w", err)
	}
	return result, nil
}

// extractJSON strips markdown fences and any prose around the JSON object.
func extractJSON(response string) string {
	startIdx := strings.Index(response, "{")
	endIdx := strings.LastIndex(response, "}")

	if startIdx == -1 || endIdx == -1 || endIdx <= startIdx {
		return ""
	}

	return response[startIdx : endIdx+1]
}
