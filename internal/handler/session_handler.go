package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/hassan123789/mathbot/internal/agent"
	"github.com/hassan123789/mathbot/internal/llm"
	"github.com/hassan123789/mathbot/internal/memory"
)

// SessionHandler serves the chat sessions used by the web page.
type SessionHandler struct {
	assistant Assistant
	sessions  *memory.SessionStore
	logger    *zap.Logger
}

// NewSessionHandler creates a new SessionHandler.
func NewSessionHandler(assistant Assistant, sessions *memory.SessionStore, logger *zap.Logger) *SessionHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SessionHandler{
		assistant: assistant,
		sessions:  sessions,
		logger:    logger,
	}
}

// CreateSessionRequest is the body of POST /api/sessions.
type CreateSessionRequest struct {
	APIKey string `json:"api_key"`
}

// SessionResponse describes a session and its history.
type SessionResponse struct {
	ID       string           `json:"id"`
	Messages []memory.Message `json:"messages"`
}

// AskRequest is the body of POST /api/sessions/:id/messages.
type AskRequest struct {
	Content string `json:"content" validate:"required"`
	Stream  bool   `json:"stream,omitempty"`
}

// AskResponse carries the assistant's answer to one question.
type AskResponse struct {
	Message memory.Message `json:"message"`
	Steps   []agent.Step   `json:"steps,omitempty"`
	Usage   UsageInfo      `json:"usage"`
}

// Create handles POST /api/sessions.
func (h *SessionHandler) Create(c echo.Context) error {
	var req CreateSessionRequest
	if ok, err := bindAndValidate(c, &req); !ok {
		return err
	}

	// Fail early when neither the user nor the server has a credential.
	if _, err := h.assistant.NewChatClient(req.APIKey); err != nil {
		if errors.Is(err, llm.ErrMissingAPIKey) {
			return missingKey(c)
		}
		return err
	}

	ctx := c.Request().Context()
	session, err := h.sessions.Create(ctx, req.APIKey)
	if err != nil {
		return err
	}
	return h.respondWithHistory(c, http.StatusCreated, session)
}

// Messages handles GET /api/sessions/:id/messages.
func (h *SessionHandler) Messages(c echo.Context) error {
	session, err := h.sessions.Get(c.Param("id"))
	if err != nil {
		return sessionNotFound(c)
	}
	return h.respondWithHistory(c, http.StatusOK, session)
}

// Delete handles DELETE /api/sessions/:id.
func (h *SessionHandler) Delete(c echo.Context) error {
	if err := h.sessions.Delete(c.Param("id")); err != nil {
		return sessionNotFound(c)
	}
	return c.NoContent(http.StatusNoContent)
}

// Ask handles POST /api/sessions/:id/messages: the question is appended to
// the history, the agent answers, and the answer is appended too.
func (h *SessionHandler) Ask(c echo.Context) error {
	session, err := h.sessions.Get(c.Param("id"))
	if err != nil {
		return sessionNotFound(c)
	}

	var req AskRequest
	if ok, err := bindAndValidate(c, &req); !ok {
		return err
	}

	a, err := h.assistant.NewAgent(session.APIKey())
	if errors.Is(err, llm.ErrMissingAPIKey) {
		return missingKey(c)
	}
	if err != nil {
		return err
	}

	end := session.BeginTurn()
	defer end()

	ctx := c.Request().Context()
	history, err := h.historyForAgent(ctx, session)
	if err != nil {
		return err
	}
	if err := session.History.Add(ctx, memory.NewMessage(memory.RoleUser, req.Content)); err != nil {
		return err
	}

	log := h.logger.With(zap.String("session_id", session.ID))
	if req.Stream {
		return h.askStreaming(c, log, session, a, history, req.Content)
	}

	resp, err := a.RunWithHistory(ctx, history, req.Content)
	if err != nil {
		log.Warn("agent failed", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, agentError(err))
	}

	answer, err := h.recordAnswer(ctx, session, resp)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, AskResponse{
		Message: answer,
		Steps:   resp.Steps,
		Usage:   usageInfo(resp.Usage),
	})
}

// askStreaming sends each agent step as a "step" event and finishes with an
// "answer" or "error" event.
func (h *SessionHandler) askStreaming(c echo.Context, log *zap.Logger, session *memory.Session, a agent.Agent, history []agent.Message, question string) error {
	flusher, err := startEventStream(c)
	if err != nil {
		return err
	}

	ctx := c.Request().Context()
	resp, err := a.RunWithHistory(ctx, history, question, agent.WithStepHandler(func(step agent.Step) {
		if werr := writeEvent(c, flusher, "step", step); werr != nil {
			log.Debug("client went away while streaming", zap.Error(werr))
		}
	}))
	if err != nil {
		log.Warn("agent failed", zap.Error(err))
		return writeEvent(c, flusher, "error", agentError(err))
	}

	answer, err := h.recordAnswer(ctx, session, resp)
	if err != nil {
		return writeEvent(c, flusher, "error", ErrorResponse{Error: "internal_error", Message: err.Error()})
	}
	return writeEvent(c, flusher, "answer", AskResponse{
		Message: answer,
		Usage:   usageInfo(resp.Usage),
	})
}

func (h *SessionHandler) recordAnswer(ctx context.Context, session *memory.Session, resp *agent.Response) (memory.Message, error) {
	answer := memory.NewMessageWithMetadata(memory.RoleAssistant, resp.Output, map[string]any{
		"iterations": resp.Iterations,
	})
	if err := session.History.Add(ctx, answer); err != nil {
		return memory.Message{}, err
	}
	return answer, nil
}

func (h *SessionHandler) historyForAgent(ctx context.Context, session *memory.Session) ([]agent.Message, error) {
	msgs, err := session.History.Get(ctx, 0)
	if err != nil {
		return nil, err
	}
	history := make([]agent.Message, len(msgs))
	for i, msg := range msgs {
		history[i] = agent.Message{Role: msg.Role, Content: msg.Content}
	}
	return history, nil
}

func (h *SessionHandler) respondWithHistory(c echo.Context, status int, session *memory.Session) error {
	msgs, err := session.History.Get(c.Request().Context(), 0)
	if err != nil {
		return err
	}
	return c.JSON(status, SessionResponse{ID: session.ID, Messages: msgs})
}

func sessionNotFound(c echo.Context) error {
	return c.JSON(http.StatusNotFound, ErrorResponse{
		Error:   "session_not_found",
		Message: memory.ErrSessionNotFound.Error(),
	})
}

func agentError(err error) ErrorResponse {
	return ErrorResponse{
		Error:   "agent_error",
		Message: "An error occurred: " + err.Error(),
	}
}

func usageInfo(u agent.Usage) UsageInfo {
	return UsageInfo{
		PromptTokens:     u.PromptTokens,
		CompletionTokens: u.CompletionTokens,
		TotalTokens:      u.TotalTokens,
	}
}
