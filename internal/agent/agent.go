// Package agent provides the math assistant's reasoning loop: the model
// thinks, calls tools, reads their output and finally answers.
package agent

import (
	"context"
	"errors"
)

// ErrMaxIterations is returned when the model keeps calling tools without
// ever producing an answer.
var ErrMaxIterations = errors.New("max iterations exceeded without reaching a final answer")

// Agent defines the interface for AI agents.
// An agent can process queries and return responses, potentially using tools.
type Agent interface {
	// Run processes a query and returns the final response.
	Run(ctx context.Context, query string, opts ...RunOption) (*Response, error)

	// RunWithHistory processes a query with conversation history.
	RunWithHistory(ctx context.Context, history []Message, query string, opts ...RunOption) (*Response, error)
}

// Message represents a message in the conversation.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Response represents the result of an agent run.
type Response struct {
	// Output is the final answer from the agent.
	Output string `json:"output"`

	// Steps contains the reasoning and action steps taken.
	Steps []Step `json:"steps,omitempty"`

	// Usage contains token usage information.
	Usage Usage `json:"usage"`

	// Iterations is the number of model round trips the run took.
	Iterations int `json:"iterations"`
}

// Step represents a single step in the agent's reasoning process.
type Step struct {
	// Type is the step type: "thought", "action", or "observation".
	Type string `json:"type"`

	// Content is the content of the step.
	Content string `json:"content,omitempty"`

	// ToolName is the name of the tool called (for action steps).
	ToolName string `json:"tool_name,omitempty"`

	// ToolInput is the input to the tool (for action steps).
	ToolInput string `json:"tool_input,omitempty"`

	// ToolOutput is the output from the tool (for observation steps).
	ToolOutput string `json:"tool_output,omitempty"`
}

// Usage contains token usage information for the agent run.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// StepType constants for the ReAct loop.
const (
	StepTypeThought     = "thought"
	StepTypeAction      = "action"
	StepTypeObservation = "observation"
)

// StepHandler is called for every step as soon as it happens.
type StepHandler func(Step)

// RunOption customises a single run.
type RunOption func(*runOptions)

type runOptions struct {
	onStep StepHandler
}

// WithStepHandler streams the run's steps to h.
func WithStepHandler(h StepHandler) RunOption {
	return func(o *runOptions) {
		o.onStep = h
	}
}

// StepHandlerFor resolves opts to the step handler they configure. The
// result is never nil.
func StepHandlerFor(opts ...RunOption) StepHandler {
	var o runOptions
	for _, opt := range opts {
		opt(&o)
	}
	if o.onStep == nil {
		return func(Step) {}
	}
	return o.onStep
}

// Config contains configuration for agents.
type Config struct {
	// SystemPrompt is the system prompt for the agent.
	// If empty, the math tutor prompt is used.
	SystemPrompt string

	// MaxIterations is the maximum number of reasoning loops.
	// Prevents infinite loops. Default is 10.
	MaxIterations int

	// Verbose logs every step at info level instead of debug.
	Verbose bool
}

// DefaultConfig returns the default agent configuration.
func DefaultConfig() Config {
	return Config{
		MaxIterations: 10,
		Verbose:       false,
	}
}
