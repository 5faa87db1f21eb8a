package llm

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/sashabaranov/go-openai"
)

// ToolCall represents a tool call made by the LLM.
type ToolCall struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

// ToolDefinition defines a tool that can be called by the LLM.
type ToolDefinition struct {
	Function FunctionDefinition `json:"function"`
	Type     string             `json:"type"`
}

// FunctionDefinition defines a function for the LLM.
type FunctionDefinition struct {
	Parameters  any    `json:"parameters"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// ChatWithToolsRequest represents a request with tool definitions.
type ChatWithToolsRequest struct {
	Messages    []Message
	Tools       []ToolDefinition
	MaxTokens   int
	Temperature float32
}

// ChatWithToolsResponse represents a response that may contain tool calls.
type ChatWithToolsResponse struct {
	ToolCalls    []ToolCall
	Content      string
	FinishReason string
	Usage        Usage
}

// ToolClient extends Client with function calling capabilities.
type ToolClient interface {
	Client

	// ChatWithTools sends a chat completion request with tool definitions.
	ChatWithTools(ctx context.Context, req *ChatWithToolsRequest) (*ChatWithToolsResponse, error)
}

var _ ToolClient = (*OpenAIClient)(nil)

// ChatWithTools sends a chat completion request with tool definitions.
func (c *OpenAIClient) ChatWithTools(ctx context.Context, req *ChatWithToolsRequest) (*ChatWithToolsResponse, error) {
	tools, err := convertTools(req.Tools)
	if err != nil {
		return nil, err
	}

	request := c.buildRequest(req.Messages, req.MaxTokens, req.Temperature)
	request.Tools = tools

	resp, err := c.complete(ctx, request)
	if err != nil {
		return nil, fmt.Errorf("chat with tools failed: %w", err)
	}

	choice := resp.Choices[0]
	return &ChatWithToolsResponse{
		Content:      choice.Message.Content,
		ToolCalls:    convertToolCalls(choice.Message.ToolCalls),
		FinishReason: string(choice.FinishReason),
		Usage:        convertUsage(resp.Usage),
	}, nil
}

// convertMessages converts our Message type to OpenAI's format.
func convertMessages(msgs []Message) []openai.ChatCompletionMessage {
	result := make([]openai.ChatCompletionMessage, len(msgs))
	for i, msg := range msgs {
		out := openai.ChatCompletionMessage{
			Role:       string(msg.Role),
			Content:    msg.Content,
			ToolCallID: msg.ToolCallID,
		}
		for _, call := range msg.ToolCalls {
			out.ToolCalls = append(out.ToolCalls, openai.ToolCall{
				ID:   call.ID,
				Type: openai.ToolTypeFunction,
				Function: openai.FunctionCall{
					Name:      call.Name,
					Arguments: call.Arguments,
				},
			})
		}
		result[i] = out
	}
	return result
}

// convertTools converts our ToolDefinition to OpenAI's format.
func convertTools(tools []ToolDefinition) ([]openai.Tool, error) {
	result := make([]openai.Tool, len(tools))
	for i, tool := range tools {
		params, err := json.Marshal(tool.Function.Parameters)
		if err != nil {
			return nil, fmt.Errorf("encode parameters of tool %q: %w", tool.Function.Name, err)
		}

		result[i] = openai.Tool{
			Type: openai.ToolTypeFunction,
			Function: &openai.FunctionDefinition{
				Name:        tool.Function.Name,
				Description: tool.Function.Description,
				Parameters:  json.RawMessage(params),
			},
		}
	}
	return result, nil
}

// convertToolCalls converts OpenAI's ToolCall to our format.
func convertToolCalls(calls []openai.ToolCall) []ToolCall {
	if len(calls) == 0 {
		return nil
	}
	result := make([]ToolCall, len(calls))
	for i, call := range calls {
		result[i] = ToolCall{
			ID:        call.ID,
			Name:      call.Function.Name,
			Arguments: call.Function.Arguments,
		}
	}
	return result
}

// HasToolCalls returns true if the response contains tool calls.
func (r *ChatWithToolsResponse) HasToolCalls() bool {
	return len(r.ToolCalls) > 0
}
