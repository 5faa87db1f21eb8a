// Package handler exposes the math assistant over HTTP: the chat page, the
// session API the page talks to, and a few direct endpoints.
package handler

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"github.com/hassan123789/mathbot/internal/agent"
	"github.com/hassan123789/mathbot/internal/llm"
)

// Assistant builds model-backed components for a credential. An empty
// credential means "use the server's own key".
type Assistant interface {
	NewAgent(apiKey string) (agent.Agent, error)
	NewChatClient(apiKey string) (llm.ToolClient, error)
}

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// UsageInfo contains token usage information.
type UsageInfo struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// APIKeyHeader carries a user-supplied model credential.
const APIKeyHeader = "X-API-Key"

const missingKeyMessage = "Please enter a valid Groq API key."

// RequestValidator adapts go-playground/validator to echo.Validator.
type RequestValidator struct {
	validate *validator.Validate
}

// NewRequestValidator returns a validator for `validate` struct tags.
func NewRequestValidator() *RequestValidator {
	return &RequestValidator{validate: validator.New(validator.WithRequiredStructEnabled())}
}

// Validate implements echo.Validator.
func (v *RequestValidator) Validate(i any) error {
	return v.validate.Struct(i)
}

// bindAndValidate decodes the body into req and validates it, writing the
// 400 response itself when either fails. ok is false in that case.
func bindAndValidate(c echo.Context, req any) (ok bool, err error) {
	if err := c.Bind(req); err != nil {
		return false, c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_request",
			Message: "Failed to parse request body",
		})
	}
	if err := c.Validate(req); err != nil {
		return false, c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: validationMessage(err),
		})
	}
	return true, nil
}

func validationMessage(err error) string {
	verrs, ok := err.(validator.ValidationErrors)
	if !ok || len(verrs) == 0 {
		return err.Error()
	}
	fe := verrs[0]
	return fmt.Sprintf("%s failed the %q rule", fe.Field(), fe.Tag())
}

func missingKey(c echo.Context) error {
	return c.JSON(http.StatusUnauthorized, ErrorResponse{
		Error:   "missing_api_key",
		Message: missingKeyMessage,
	})
}

// startEventStream switches the response to Server-Sent Events.
func startEventStream(c echo.Context) (http.Flusher, error) {
	flusher, ok := c.Response().Writer.(http.Flusher)
	if !ok {
		return nil, echo.NewHTTPError(http.StatusInternalServerError, "Streaming not supported")
	}
	c.Response().Header().Set(echo.HeaderContentType, "text/event-stream")
	c.Response().Header().Set("Cache-Control", "no-cache")
	c.Response().Header().Set("Connection", "keep-alive")
	c.Response().WriteHeader(http.StatusOK)
	return flusher, nil
}

// writeEvent sends one SSE event whose data is the JSON encoding of payload.
func writeEvent(c echo.Context, flusher http.Flusher, event string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(c.Response(), "event: %s\ndata: %s\n\n", event, data); err != nil {
		return err
	}
	flusher.Flush()
	return nil
}
