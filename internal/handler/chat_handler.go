package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/hassan123789/mathbot/internal/llm"
)

// ChatHandler talks to the model directly, without tools.
type ChatHandler struct {
	assistant Assistant
}

// NewChatHandler creates a new ChatHandler.
func NewChatHandler(assistant Assistant) *ChatHandler {
	return &ChatHandler{
		assistant: assistant,
	}
}

// ChatRequest represents the request body for chat endpoint.
type ChatRequest struct {
	Messages    []MessageRequest `json:"messages" validate:"required,min=1,dive"`
	MaxTokens   int              `json:"max_tokens,omitempty" validate:"gte=0"`
	Temperature float32          `json:"temperature,omitempty" validate:"gte=0,lte=2"`
	Stream      bool             `json:"stream,omitempty"`
}

// MessageRequest represents a single message in the request.
type MessageRequest struct {
	Role    string `json:"role" validate:"required,oneof=system user assistant"`
	Content string `json:"content" validate:"required"`
}

// ChatResponse represents the response body for chat endpoint.
type ChatResponse struct {
	Content      string    `json:"content"`
	FinishReason string    `json:"finish_reason"`
	Usage        UsageInfo `json:"usage"`
}

// Chat handles POST /api/chat requests.
func (h *ChatHandler) Chat(c echo.Context) error {
	var req ChatRequest
	if ok, err := bindAndValidate(c, &req); !ok {
		return err
	}

	client, err := h.assistant.NewChatClient(c.Request().Header.Get(APIKeyHeader))
	if errors.Is(err, llm.ErrMissingAPIKey) {
		return missingKey(c)
	}
	if err != nil {
		return c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "llm_error",
			Message: err.Error(),
		})
	}

	messages := make([]llm.Message, len(req.Messages))
	for i, msg := range req.Messages {
		messages[i] = llm.Message{
			Role:    llm.Role(msg.Role),
			Content: msg.Content,
		}
	}
	chatReq := &llm.ChatRequest{
		Messages:    messages,
		MaxTokens:   req.MaxTokens,
		Temperature: req.Temperature,
		Stream:      req.Stream,
	}

	if req.Stream {
		return h.handleStreamingChat(c, client, chatReq)
	}

	resp, err := client.Chat(c.Request().Context(), chatReq)
	if err != nil {
		return c.JSON(http.StatusBadGateway, ErrorResponse{
			Error:   "llm_error",
			Message: err.Error(),
		})
	}

	return c.JSON(http.StatusOK, ChatResponse{
		Content:      resp.Content,
		FinishReason: resp.FinishReason,
		Usage: UsageInfo{
			PromptTokens:     resp.Usage.PromptTokens,
			CompletionTokens: resp.Usage.CompletionTokens,
			TotalTokens:      resp.Usage.TotalTokens,
		},
	})
}

// handleStreamingChat relays the model's token stream as SSE.
func (h *ChatHandler) handleStreamingChat(c echo.Context, client llm.Client, req *llm.ChatRequest) error {
	stream, err := client.ChatStream(c.Request().Context(), req)
	if err != nil {
		return c.JSON(http.StatusBadGateway, ErrorResponse{
			Error:   "llm_error",
			Message: err.Error(),
		})
	}

	// The producer keeps sending until the stream ends; drain what we do not read.
	defer func() {
		go func() {
			for range stream {
			}
		}()
	}()

	flusher, err := startEventStream(c)
	if err != nil {
		return err
	}

	for chunk := range stream {
		if chunk.Error != nil {
			return writeEvent(c, flusher, "error", ErrorResponse{Error: "llm_error", Message: chunk.Error.Error()})
		}
		if chunk.Content != "" {
			if err := writeEvent(c, flusher, "delta", map[string]string{"content": chunk.Content}); err != nil {
				return err
			}
		}
		if chunk.Done {
			return writeEvent(c, flusher, "done", map[string]string{"finish_reason": chunk.FinishReason})
		}
	}

	return nil
}

// Health handles GET /health requests.
func (h *ChatHandler) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"status": "healthy",
	})
}
