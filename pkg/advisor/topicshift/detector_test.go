package topicshift

import (
	"context"
	"errors"
	"io"
	"log"
	"testing"

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
	return f.response, llm.Usage{PromptTokens: 20, CompletionTokens: 1}, nil
}

func (f *fakeLLM) Generate(ctx context.Context, prompt string, options ...llm.Option) (string, llm.Usage, error) {
	return f.Chat(ctx, nil, options...)
}

func newTestDetector(provider llm.LLMProvider) *Detector {
	return NewDetector(provider, log.New(io.Discard, "", 0))
}

func TestCompareVerdicts(t *testing.T) {
	tests := []struct {
		name     string
		response string
		cultivar string
		question string
		want     Outcome
	}{
		{
			name:     "same plant different aspect",
			response: "SAME",
			cultivar: "strawberry, remontant",
			question: "and what about gray mold on the berries?",
			want:     SameTopic,
		},
		{
			name:     "clear change",
			response: "CHANGE",
			cultivar: "strawberry, remontant",
			question: "now tell me about gooseberries",
			want:     ClearChange,
		},
		{
			name:     "model admits unclear",
			response: "UNCLEAR",
			cultivar: "currant",
			question: "what about the other one?",
			want:     Unclear,
		},
		{
			name:     "lowercase with prose",
			response: "The verdict is: same.",
			cultivar: "blueberry",
			question: "should I mulch them?",
			want:     SameTopic,
		},
		{
			name:     "ambiguous answer containing both words",
			response: "It could be SAME or a CHANGE",
			cultivar: "blueberry",
			question: "hmm",
			want:     Unclear,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := newTestDetector(&fakeLLM{response: tt.response})
			got, _ := d.Compare(context.Background(), tt.cultivar, tt.question, nil)
			if got != tt.want {
				t.Errorf("Compare() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestCompareModelFailureIsUnclear(t *testing.T) {
	d := newTestDetector(&fakeLLM{err: errors.New("timeout")})

	got, usage := d.Compare(context.Background(), "currant", "what about pests?", nil)

	if got != Unclear {
		t.Errorf("Compare() on model failure = %q, want %q", got, Unclear)
	}
	if usage.Total() != 0 {
		t.Error("failed call must not report usage")
	}
}

func TestCompareKeywordDecidesWithoutModel(t *testing.T) {
	// A message that plainly names a different plant is a topic change even
	// when the model fails or refuses to commit.
	tests := []struct {
		name string
		fake *fakeLLM
	}{
		{name: "model failure", fake: &fakeLLM{err: errors.New("timeout")}},
		{name: "model unclear", fake: &fakeLLM{response: "UNCLEAR"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := newTestDetector(tt.fake)
			got, _ := d.Compare(context.Background(), "raspberry, general", "now tell me about gooseberries", nil)
			if got != ClearChange {
				t.Errorf("Compare() = %q, want keyword verdict %q", got, ClearChange)
			}
		})
	}
}

func TestCompareKeywordOverridesWrongSame(t *testing.T) {
	// Model says SAME but the message plainly names a different plant.
	d := newTestDetector(&fakeLLM{response: "SAME"})

	got, _ := d.Compare(context.Background(), "strawberry, remontant", "now tell me about gooseberries", nil)

	if got != ClearChange {
		t.Errorf("Compare() = %q, want keyword override %q", got, ClearChange)
	}
}

func TestCompareSamePlantKeywordDoesNotOverride(t *testing.T) {
	d := newTestDetector(&fakeLLM{response: "SAME"})

	got, _ := d.Compare(context.Background(), "strawberry, remontant", "how often should I water strawberries?", nil)

	if got != SameTopic {
		t.Errorf("Compare() = %q, want %q", got, SameTopic)
	}
}
