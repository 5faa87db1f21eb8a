package tools

import (
	"context"
	"fmt"

	"github.com/tmc/langchaingo/prompts"

	"github.com/hassan123789/mathbot/internal/llm"
)

// ReasoningName is the name the agent uses to ask for a worked solution.
const ReasoningName = "Reasoning"

const reasoningTemplate = `
Your agent is tasked with solving math-related problems and questions. Analyze the question carefully and provide a logical, step-by-step answer. Present the solution clearly, numbering each step.

Question: {{.question}}
Answer:
`

// Reasoning asks the model for a numbered, step-by-step solution.
type Reasoning struct {
	client llm.Client
	prompt prompts.PromptTemplate
}

// NewReasoning creates a Reasoning tool that delegates to client.
func NewReasoning(client llm.Client) *Reasoning {
	return &Reasoning{
		client: client,
		prompt: prompts.NewPromptTemplate(reasoningTemplate, []string{"question"}),
	}
}

// Name returns the tool name.
func (r *Reasoning) Name() string {
	return ReasoningName
}

// Description returns what this tool does.
func (r *Reasoning) Description() string {
	return "A tool for providing detailed, step-by-step solutions to math problems."
}

// Parameters returns the JSON Schema for the tool's input.
func (r *Reasoning) Parameters() ParameterSchema {
	return singleStringSchema("question", "The math problem to solve step by step")
}

// Execute formats the reasoning prompt and returns the model's answer.
func (r *Reasoning) Execute(ctx context.Context, arguments string) (Result, error) {
	question := StringArgument(arguments, "question")
	if question == "" {
		return Failure("question cannot be empty"), nil
	}

	prompt, err := r.prompt.Format(map[string]any{"question": question})
	if err != nil {
		return Result{}, fmt.Errorf("format reasoning prompt: %w", err)
	}

	resp, err := r.client.Chat(ctx, &llm.ChatRequest{
		Messages: []llm.Message{{Role: llm.RoleUser, Content: prompt}},
	})
	if err != nil {
		if ctx.Err() != nil {
			return Result{}, ctx.Err()
		}
		return Failure(fmt.Sprintf("reasoning failed: %v", err)), nil
	}

	return SuccessWithMetadata(resp.Content, map[string]any{
		"total_tokens": resp.Usage.TotalTokens,
	}), nil
}
