package classify

import (
	"context"
	"errors"
	"io"
	"log"
	"testing"

	"berry-advisory-be/pkg/advisor/cultivar"
	"berry-advisory-be/pkg/llm"
)

type fakeLLM struct {
	response string
	err      error
}

func (f *fakeLLM) Chat(ctx context.Context, history []llm.Message, options ...llm.Option) (string, llm.Usage, error) {
	if f.err != nil {
		return "", llm.Usage{}, f.err
	}
	return f.response, llm.Usage{PromptTokens: 10, CompletionTokens: 5}, nil
}

func (f *fakeLLM) Generate(ctx context.Context, prompt string, options ...llm.Option) (string, llm.Usage, error) {
	return f.Chat(ctx, nil, options...)
}

type fakeCultivarSource struct {
	labels []string
	err    error
}

func (f *fakeCultivarSource) ListCultivars(ctx context.Context) ([]string, error) {
	return f.labels, f.err
}

func newTestClassifier(provider llm.LLMProvider, src CultivarSource) *Classifier {
	return NewClassifier(provider, src, log.New(io.Discard, "", 0))
}

func TestClassifyParsesModelAnswer(t *testing.T) {
	provider := &fakeLLM{response: `{"category": "nutrition", "cultivar": "strawberry, remontant"}`}
	c := newTestClassifier(provider, nil)

	result, usage := c.Classify(context.Background(), "how do I feed my remontant strawberries?")

	if result.Category != CategoryNutrition {
		t.Errorf("category = %q, want %q", result.Category, CategoryNutrition)
	}
	if result.Cultivar != "strawberry, remontant" {
		t.Errorf("cultivar = %q, want %q", result.Cultivar, "strawberry, remontant")
	}
	if usage.Total() == 0 {
		t.Error("expected usage to be reported from the model call")
	}
}

func TestClassifyStripsMarkdownFences(t *testing.T) {
	provider := &fakeLLM{response: "```json\n{\"category\": \"plant protection\", \"cultivar\": \"currant\"}\n```"}
	c := newTestClassifier(provider, nil)

	result, _ := c.Classify(context.Background(), "aphids on my currants")

	if result.Category != CategoryPlantProtection {
		t.Errorf("category = %q, want %q", result.Category, CategoryPlantProtection)
	}
	if result.Cultivar != cultivar.FamilyCurrant {
		t.Errorf("cultivar = %q, want %q", result.Cultivar, cultivar.FamilyCurrant)
	}
}

func TestClassifyFallsBackOnModelError(t *testing.T) {
	provider := &fakeLLM{err: errors.New("connection refused")}
	c := newTestClassifier(provider, nil)

	result, usage := c.Classify(context.Background(), "pruning remontant raspberry canes")

	if result.Category != CategoryUndetermined {
		t.Errorf("category = %q, want %q", result.Category, CategoryUndetermined)
	}
	if result.Cultivar != "raspberry, remontant" {
		t.Errorf("cultivar = %q, want keyword fallback %q", result.Cultivar, "raspberry, remontant")
	}
	if usage.Total() != 0 {
		t.Error("failed call must not report usage")
	}
}

func TestClassifyFallsBackOnGarbageAnswer(t *testing.T) {
	provider := &fakeLLM{response: "I think this is about blueberries maybe"}
	c := newTestClassifier(provider, nil)

	result, _ := c.Classify(context.Background(), "when to plant blueberry bushes")

	if result.Cultivar != cultivar.FamilyBlueberry {
		t.Errorf("cultivar = %q, want keyword fallback %q", result.Cultivar, cultivar.FamilyBlueberry)
	}
}

func TestKeywordOverridesLessInformativeModelAnswer(t *testing.T) {
	// Model says general information but the text plainly names one family
	// with a bearing type, so the keyword pass is strictly more informative.
	provider := &fakeLLM{response: `{"category": "planting and care", "cultivar": "general information"}`}
	c := newTestClassifier(provider, nil)

	result, _ := c.Classify(context.Background(), "transplanting everbearing strawberry runners")

	if result.Cultivar != "strawberry, remontant" {
		t.Errorf("cultivar = %q, want override %q", result.Cultivar, "strawberry, remontant")
	}
}

func TestKeywordDoesNotOverrideEquallyInformativeModel(t *testing.T) {
	// Model picked a concrete label; keyword pass finds the same concrete
	// label. Equal rank keeps the model's answer.
	provider := &fakeLLM{response: `{"category": "nutrition", "cultivar": "gooseberry"}`}
	c := newTestClassifier(provider, nil)

	result, _ := c.Classify(context.Background(), "feeding gooseberry bushes in autumn")

	if result.Cultivar != cultivar.FamilyGooseberry {
		t.Errorf("cultivar = %q, want model answer kept %q", result.Cultivar, cultivar.FamilyGooseberry)
	}
}

func TestKnownCultivarsMergesLiveLabels(t *testing.T) {
	src := &fakeCultivarSource{labels: []string{"sea buckthorn", cultivar.FamilyBlueberry, ""}}
	c := newTestClassifier(&fakeLLM{}, src)

	labels := c.knownCultivars(context.Background())

	seen := make(map[string]int)
	for _, l := range labels {
		seen[l]++
	}
	if seen["sea buckthorn"] != 1 {
		t.Errorf("live label missing or duplicated: %v", seen["sea buckthorn"])
	}
	if seen[cultivar.FamilyBlueberry] != 1 {
		t.Errorf("built-in label duplicated by live list: %v", seen[cultivar.FamilyBlueberry])
	}
	if seen[""] != 0 {
		t.Error("empty labels must be skipped")
	}
	if seen[cultivar.GeneralInformation] != 1 || seen[cultivar.Undetermined] != 1 {
		t.Error("sentinels must always be present exactly once")
	}
}

func TestKnownCultivarsSurvivesSourceError(t *testing.T) {
	src := &fakeCultivarSource{err: errors.New("db down")}
	c := newTestClassifier(&fakeLLM{}, src)

	labels := c.knownCultivars(context.Background())
	if len(labels) == 0 {
		t.Fatal("expected built-in vocabulary when the source fails")
	}
}

func TestNormalizeCategory(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{"Nutrition", CategoryNutrition},
		{"feeding schedule", CategoryNutrition},
		{"planting and care", CategoryPlantingCare},
		{"Pruning", CategoryPlantingCare},
		{"plant protection", CategoryPlantProtection},
		{"pest control", CategoryPlantProtection},
		{"soil improvement", CategorySoilImprovement},
		{"variety selection", CategoryVarietySelection},
		{"undetermined", CategoryUndetermined},
		{"cooking recipes", CategoryUndetermined},
		{"", CategoryUndetermined},
	}

	for _, tt := range tests {
		if got := NormalizeCategory(tt.raw); got != tt.want {
			t.Errorf("NormalizeCategory(%q) = %q, want %q", tt.raw, got, tt.want)
		}
	}
}
