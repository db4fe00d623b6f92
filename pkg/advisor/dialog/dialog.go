package dialog

import (
	"strings"

	"berry-advisory-be/pkg/advisor/cultivar"
)

// ClarificationHeuristic decides whether a composed answer is really a
// counter-question that the user must answer before the consultation can
// continue. Tuned to prefer false positives: an unnecessary clarification
// turn is cheap, an unanswered vague reply loses the user.
type ClarificationHeuristic struct {
	// MaxLength is the rune cap: real answers run long, counter-questions
	// stay short.
	MaxLength int
	// Markers are matched case-insensitively against the reply.
	Markers []string
}

func DefaultClarificationHeuristic() ClarificationHeuristic {
	return ClarificationHeuristic{
		MaxLength: 300,
		Markers: []string{
			"?",
			"please clarify",
			"could you specify",
			"which cultivar",
			"what kind of",
		},
	}
}

// IsClarifyingQuestion reports whether reply is a counter-question.
func (h ClarificationHeuristic) IsClarifyingQuestion(reply string) bool {
	trimmed := strings.TrimSpace(reply)
	if trimmed == "" {
		return false
	}
	if len([]rune(trimmed)) >= h.MaxLength {
		return false
	}
	lower := strings.ToLower(trimmed)
	for _, marker := range h.Markers {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}

// DisambiguationQuestion is the fixed bearing-type question asked when a
// family-general label needs narrowing before retrieval.
func DisambiguationQuestion(family string) string {
	var plant string
	switch family {
	case cultivar.FamilyStrawberry:
		plant = "strawberries"
	case cultivar.FamilyRaspberry:
		plant = "raspberries"
	default:
		plant = family
	}
	return "To give you accurate advice I need to know what kind of " + plant +
		" you grow. Please reply:\n" +
		"1 - summer-bearing (one harvest per season)\n" +
		"2 - remontant (repeat harvests until frost)"
}

// MapCultivarTypeAnswer resolves the user's reply to the bearing-type
// question into a concrete label. Accepts the numeric options of
// DisambiguationQuestion as well as free-text synonyms. ok is false when the
// answer resolves neither way.
func MapCultivarTypeAnswer(family, answer string) (string, bool) {
	trimmed := strings.TrimSpace(answer)
	switch trimmed {
	case "1":
		return cultivar.Qualified(family, cultivar.QualifierSummerBearing), true
	case "2":
		return cultivar.Qualified(family, cultivar.QualifierRemontant), true
	}
	if q := cultivar.QualifierFromText(trimmed); q != "" {
		return cultivar.Qualified(family, q), true
	}
	return "", false
}
