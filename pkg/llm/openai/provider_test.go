package openai

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"berry-advisory-be/pkg/llm"
)

// The chat completions wire format requires lowercase role/content keys;
// a backend silently ignores messages with the wrong casing.
func TestChatSendsLowercaseMessageKeys(t *testing.T) {
	var received map[string]interface{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		if err := json.Unmarshal(body, &received); err != nil {
			t.Errorf("request body is not valid json: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"model":"test-model","choices":[{"message":{"content":"ok"}}],"usage":{"prompt_tokens":3,"completion_tokens":1}}`))
	}))
	defer server.Close()

	provider := NewOpenAIProvider("", server.URL, "test-model")
	reply, usage, err := provider.Chat(context.Background(), []llm.Message{
		{Role: "system", Content: "you advise gardeners"},
		{Role: "user", Content: "how do I feed currants?"},
	})
	if err != nil {
		t.Fatalf("Chat returned error: %v", err)
	}
	if reply != "ok" {
		t.Errorf("reply = %q, want %q", reply, "ok")
	}
	if usage.PromptTokens != 3 || usage.CompletionTokens != 1 {
		t.Errorf("usage = %+v, want prompt 3 completion 1", usage)
	}

	messages, ok := received["messages"].([]interface{})
	if !ok || len(messages) != 2 {
		t.Fatalf("request messages = %v, want 2 entries", received["messages"])
	}
	first, ok := messages[0].(map[string]interface{})
	if !ok {
		t.Fatalf("message entry is not an object: %v", messages[0])
	}
	if first["role"] != "system" || first["content"] != "you advise gardeners" {
		t.Errorf("message keys/values = %v, want lowercase role and content", first)
	}
	if _, bad := first["Role"]; bad {
		t.Error("message serialized with uppercase Role key")
	}
}
