package compose

import (
	"context"
	"errors"
	"io"
	"log"
	"strings"
	"testing"

	"berry-advisory-be/pkg/advisor/retrieve"
	"berry-advisory-be/pkg/llm"
)

type fakeLLM struct {
	response string
	err      error
	messages []llm.Message
}

func (f *fakeLLM) Chat(ctx context.Context, history []llm.Message, options ...llm.Option) (string, llm.Usage, error) {
	f.messages = history
	if f.err != nil {
		return "", llm.Usage{}, f.err
	}
	return f.response, llm.Usage{PromptTokens: 100, CompletionTokens: 50}, nil
}

func (f *fakeLLM) Generate(ctx context.Context, prompt string, options ...llm.Option) (string, llm.Usage, error) {
	return f.Chat(ctx, []llm.Message{{Role: "user", Content: prompt}}, options...)
}

func newTestComposer(provider llm.LLMProvider) *Composer {
	return NewComposer(provider, log.New(io.Discard, "", 0))
}

func TestComposeBuildsGroundedPrompt(t *testing.T) {
	provider := &fakeLLM{response: "Feed with compost in spring."}
	c := newTestComposer(provider)

	req := Request{
		Question: "how do I feed my currants?",
		History: []llm.Message{
			{Role: "user", Content: "earlier question"},
			{Role: "assistant", Content: "earlier answer"},
		},
		Fragments: []retrieve.Fragment{
			{Question: "currant feeding schedule", Content: "Apply compost annually."},
		},
		Category:    "nutrition",
		Cultivar:    "currant",
		Location:    "middle band",
		Environment: "open field",
	}

	reply, usage, err := c.Compose(context.Background(), req)
	if err != nil {
		t.Fatalf("Compose() error = %v", err)
	}
	if reply != "Feed with compost in spring." {
		t.Errorf("reply = %q", reply)
	}
	if usage.Total() != 150 {
		t.Errorf("usage total = %d, want 150", usage.Total())
	}

	if len(provider.messages) != 4 {
		t.Fatalf("got %d messages, want system + 2 history + question", len(provider.messages))
	}
	system := provider.messages[0]
	if system.Role != "system" {
		t.Errorf("first message role = %q, want system", system.Role)
	}
	for _, want := range []string{"currant", "nutrition", "middle band", "open field", "Apply compost annually."} {
		if !strings.Contains(system.Content, want) {
			t.Errorf("system prompt missing %q", want)
		}
	}
	if provider.messages[3].Content != req.Question {
		t.Errorf("last message = %q, want the question", provider.messages[3].Content)
	}
}

func TestComposeWithoutFragmentsSaysSo(t *testing.T) {
	provider := &fakeLLM{response: "General advice."}
	c := newTestComposer(provider)

	_, _, err := c.Compose(context.Background(), Request{
		Question:    "anything",
		Location:    "middle band",
		Environment: "open field",
	})
	if err != nil {
		t.Fatalf("Compose() error = %v", err)
	}
	if !strings.Contains(provider.messages[0].Content, "No reference material") {
		t.Error("ungrounded prompt must state that no references matched")
	}
}

func TestComposePropagatesErrors(t *testing.T) {
	c := newTestComposer(&fakeLLM{err: errors.New("model offline")})

	_, _, err := c.Compose(context.Background(), Request{Question: "q"})
	if err == nil {
		t.Fatal("expected error when the model is unreachable")
	}
}

func TestIsRejectionResponse(t *testing.T) {
	tests := []struct {
		reply string
		want  bool
	}{
		{"I'm sorry, I only advise on berry growing.", true},
		{"That is outside my area of expertise.", true},
		{"Feed raspberries with nitrogen in spring.", false},
		{"", false},
	}

	for _, tt := range tests {
		if got := IsRejectionResponse(tt.reply); got != tt.want {
			t.Errorf("IsRejectionResponse(%q) = %v, want %v", tt.reply, got, tt.want)
		}
	}
}
