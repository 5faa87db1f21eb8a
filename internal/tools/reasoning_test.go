package tools

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/hassan123789/mathbot/internal/llm"
)

type recordingClient struct {
	prompt string
	err    error
}

func (c *recordingClient) Chat(_ context.Context, req *llm.ChatRequest) (*llm.ChatResponse, error) {
	if c.err != nil {
		return nil, c.err
	}
	c.prompt = req.Messages[0].Content
	return &llm.ChatResponse{
		Content: "1. Distance is 60 km.\n2. Time is 1.5 h.\n3. Speed is 40 km/h.",
		Usage:   llm.Usage{TotalTokens: 42},
	}, nil
}

func (c *recordingClient) ChatStream(context.Context, *llm.ChatRequest) (<-chan llm.StreamChunk, error) {
	return nil, errors.New("not implemented")
}

func (c *recordingClient) Close() error { return nil }

func TestReasoning_Execute(t *testing.T) {
	client := &recordingClient{}
	reasoning := NewReasoning(client)

	result, err := reasoning.Execute(context.Background(), `{"question": "A train travels 60 km in 1.5 hours. How fast is it?"}`)
	if err != nil {
		t.Fatalf("Execute returned error: %v", err)
	}

	if !strings.Contains(client.prompt, "Question: A train travels 60 km in 1.5 hours. How fast is it?") {
		t.Errorf("question missing from prompt:\n%s", client.prompt)
	}
	if !strings.Contains(client.prompt, "numbering each step") {
		t.Errorf("prompt should ask for numbered steps:\n%s", client.prompt)
	}
	if !strings.HasSuffix(strings.TrimSpace(client.prompt), "Answer:") {
		t.Errorf("prompt should end with 'Answer:':\n%s", client.prompt)
	}
	if !strings.HasPrefix(result.Output, "1. Distance") {
		t.Errorf("unexpected output %q", result.Output)
	}
	if result.Metadata["total_tokens"] != 42 {
		t.Errorf("expected token metadata, got %v", result.Metadata)
	}
}

func TestReasoning_Failures(t *testing.T) {
	result, err := NewReasoning(&recordingClient{}).Execute(context.Background(), `{"question": ""}`)
	if err != nil || result.IsSuccess() {
		t.Errorf("expected failed result for empty question, got %+v, %v", result, err)
	}

	result, err = NewReasoning(&recordingClient{err: errors.New("rate limited")}).Execute(context.Background(), "2+2?")
	if err != nil {
		t.Fatalf("model errors should become results, got %v", err)
	}
	if result.IsSuccess() || !strings.Contains(result.Error, "rate limited") {
		t.Errorf("unexpected result %+v", result)
	}
}
