package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

// fakeProvider serves /chat/completions with the handler's response.
func fakeProvider(t *testing.T, handler func(w http.ResponseWriter, body map[string]any)) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("unexpected path %s", r.URL.Path)
			http.NotFound(w, r)
			return
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("unexpected Authorization header %q", got)
		}
		var body map[string]any
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decode request: %v", err)
		}
		handler(w, body)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func writeCompletion(w http.ResponseWriter, message map[string]any, finish string) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"id":      "chatcmpl-1",
		"object":  "chat.completion",
		"model":   "llama3-8b-8192",
		"choices": []any{map[string]any{"index": 0, "message": message, "finish_reason": finish}},
		"usage":   map[string]any{"prompt_tokens": 7, "completion_tokens": 3, "total_tokens": 10},
	})
}

func newTestClient(t *testing.T, baseURL string, retry RetryConfig) *OpenAIClient {
	t.Helper()
	client, err := NewOpenAIClient(OpenAIConfig{
		APIKey:  "test-key",
		BaseURL: baseURL,
		Retry:   retry,
	})
	if err != nil {
		t.Fatalf("NewOpenAIClient: %v", err)
	}
	return client
}

func TestNewOpenAIClient_MissingKey(t *testing.T) {
	_, err := NewOpenAIClient(OpenAIConfig{})
	if !errors.Is(err, ErrMissingAPIKey) {
		t.Fatalf("expected ErrMissingAPIKey, got %v", err)
	}
}

func TestNewOpenAIClient_Defaults(t *testing.T) {
	client, err := NewOpenAIClient(OpenAIConfig{APIKey: "k"})
	if err != nil {
		t.Fatalf("NewOpenAIClient: %v", err)
	}
	if client.Model() != "llama3-8b-8192" {
		t.Errorf("expected default model, got %q", client.Model())
	}
	if client.defaultMax != 2048 {
		t.Errorf("expected default max tokens 2048, got %d", client.defaultMax)
	}
}

func TestOpenAIClient_Chat(t *testing.T) {
	srv := fakeProvider(t, func(w http.ResponseWriter, body map[string]any) {
		if body["model"] != "llama3-8b-8192" {
			t.Errorf("unexpected model %v", body["model"])
		}
		writeCompletion(w, map[string]any{"role": "assistant", "content": "1. Add the numbers.\n2. The answer is 4."}, "stop")
	})

	client := newTestClient(t, srv.URL, RetryConfig{})
	resp, err := client.Chat(context.Background(), &ChatRequest{
		Messages: []Message{{Role: RoleUser, Content: "What is 2+2?"}},
	})
	if err != nil {
		t.Fatalf("Chat: %v", err)
	}
	if resp.Content != "1. Add the numbers.\n2. The answer is 4." {
		t.Errorf("unexpected content %q", resp.Content)
	}
	if resp.FinishReason != "stop" {
		t.Errorf("unexpected finish reason %q", resp.FinishReason)
	}
	if resp.Usage.TotalTokens != 10 {
		t.Errorf("expected 10 total tokens, got %d", resp.Usage.TotalTokens)
	}
}

func TestOpenAIClient_ChatWithTools(t *testing.T) {
	srv := fakeProvider(t, func(w http.ResponseWriter, body map[string]any) {
		tools, _ := body["tools"].([]any)
		if len(tools) != 1 {
			t.Errorf("expected 1 tool, got %d", len(tools))
		}

		msgs, _ := body["messages"].([]any)
		last, _ := msgs[len(msgs)-1].(map[string]any)
		if last["role"] != "tool" || last["tool_call_id"] != "call_1" {
			t.Errorf("tool result not linked to its call: %v", last)
		}
		prev, _ := msgs[len(msgs)-2].(map[string]any)
		if calls, _ := prev["tool_calls"].([]any); len(calls) != 1 {
			t.Errorf("assistant message lost its tool calls: %v", prev)
		}

		writeCompletion(w, map[string]any{
			"role": "assistant",
			"tool_calls": []any{map[string]any{
				"id":       "call_2",
				"type":     "function",
				"function": map[string]any{"name": "calculator", "arguments": `{"expression":"6*7"}`},
			}},
		}, "tool_calls")
	})

	client := newTestClient(t, srv.URL, RetryConfig{})
	resp, err := client.ChatWithTools(context.Background(), &ChatWithToolsRequest{
		Messages: []Message{
			{Role: RoleUser, Content: "What is 2+2 and then 6*7?"},
			{Role: RoleAssistant, ToolCalls: []ToolCall{{ID: "call_1", Name: "calculator", Arguments: `{"expression":"2+2"}`}}},
			{Role: RoleTool, ToolCallID: "call_1", Content: "4"},
		},
		Tools: []ToolDefinition{{
			Type: "function",
			Function: FunctionDefinition{
				Name:        "calculator",
				Description: "math",
				Parameters:  map[string]any{"type": "object"},
			},
		}},
	})
	if err != nil {
		t.Fatalf("ChatWithTools: %v", err)
	}
	if !resp.HasToolCalls() {
		t.Fatal("expected tool calls")
	}
	call := resp.ToolCalls[0]
	if call.ID != "call_2" || call.Name != "calculator" || call.Arguments != `{"expression":"6*7"}` {
		t.Errorf("unexpected tool call %+v", call)
	}
}

func TestOpenAIClient_RetriesTransientFailures(t *testing.T) {
	var calls atomic.Int32
	srv := fakeProvider(t, func(w http.ResponseWriter, _ map[string]any) {
		if calls.Add(1) < 3 {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusTooManyRequests)
			_, _ = w.Write([]byte(`{"error":{"message":"rate limit reached","type":"rate_limit"}}`))
			return
		}
		writeCompletion(w, map[string]any{"role": "assistant", "content": "ok"}, "stop")
	})

	client := newTestClient(t, srv.URL, RetryConfig{
		MaxRetries:     3,
		InitialBackoff: time.Millisecond,
		MaxBackoff:     5 * time.Millisecond,
		BackoffFactor:  2,
	})
	resp, err := client.Chat(context.Background(), &ChatRequest{Messages: []Message{{Role: RoleUser, Content: "hi"}}})
	if err != nil {
		t.Fatalf("Chat: %v", err)
	}
	if resp.Content != "ok" {
		t.Errorf("unexpected content %q", resp.Content)
	}
	if calls.Load() != 3 {
		t.Errorf("expected 3 attempts, got %d", calls.Load())
	}
}

func TestOpenAIClient_DoesNotRetryClientErrors(t *testing.T) {
	var calls atomic.Int32
	srv := fakeProvider(t, func(w http.ResponseWriter, _ map[string]any) {
		calls.Add(1)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":{"message":"Invalid API Key","type":"invalid_request_error"}}`))
	})

	client := newTestClient(t, srv.URL, RetryConfig{MaxRetries: 3, InitialBackoff: time.Millisecond, BackoffFactor: 2})
	_, err := client.Chat(context.Background(), &ChatRequest{Messages: []Message{{Role: RoleUser, Content: "hi"}}})
	if err == nil {
		t.Fatal("expected error")
	}
	if calls.Load() != 1 {
		t.Errorf("expected a single attempt, got %d", calls.Load())
	}
}
