package agent

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/hassan123789/mathbot/internal/llm"
	"github.com/hassan123789/mathbot/internal/logging"
	"github.com/hassan123789/mathbot/internal/metrics"
	"github.com/hassan123789/mathbot/internal/tools"
)

// ReActAgent implements the ReAct (Reasoning + Acting) pattern.
// It interleaves reasoning (Thought) and acting (Action/Observation) steps
// to accomplish tasks using available tools.
//
// Reference: Yao et al., 2022 - "ReAct: Synergizing Reasoning and Acting in Language Models"
// https://arxiv.org/abs/2210.03629
type ReActAgent struct {
	llm    llm.ToolClient
	tools  *tools.Registry
	config Config
	logger *zap.Logger
}

// NewReActAgent creates a new ReAct agent with the given LLM client and tools.
func NewReActAgent(llmClient llm.ToolClient, toolRegistry *tools.Registry, config Config, logger *zap.Logger) *ReActAgent {
	if config.MaxIterations <= 0 {
		config.MaxIterations = 10
	}
	if config.SystemPrompt == "" {
		config.SystemPrompt = defaultSystemPrompt
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &ReActAgent{
		llm:    llmClient,
		tools:  toolRegistry,
		config: config,
		logger: logger.Named("agent"),
	}
}

const defaultSystemPrompt = `You are a math assistant tasked with solving math-related problems and questions.

You can call tools:
- calculator for any arithmetic; pass one plain expression such as '2+2' or '37593*67'
- Wikipedia to look up math concepts and definitions
- Reasoning to get a detailed, step-by-step solution of a word problem

Analyze the question carefully and provide a logical, step-by-step answer.
Present the final solution clearly, numbering each step.`

// Run processes a query and returns the final response.
func (a *ReActAgent) Run(ctx context.Context, query string, opts ...RunOption) (*Response, error) {
	return a.RunWithHistory(ctx, nil, query, opts...)
}

// RunWithHistory processes a query with conversation history.
func (a *ReActAgent) RunWithHistory(ctx context.Context, history []Message, query string, opts ...RunOption) (resp *Response, err error) {
	onStep := StepHandlerFor(opts...)

	start := time.Now()
	log := a.logger.With(zap.String("query", logging.Truncate(query, 200)))
	log.Info("agent run started")
	defer func() {
		metrics.AgentRunDuration.WithLabelValues(metrics.Outcome(err)).Observe(time.Since(start).Seconds())
		if err != nil {
			log.Warn("agent run failed", zap.Error(err), zap.Duration("elapsed", time.Since(start)))
			return
		}
		metrics.AgentIterations.Observe(float64(resp.Iterations))
		log.Info("agent run completed",
			zap.Int("iterations", resp.Iterations),
			zap.Int("total_tokens", resp.Usage.TotalTokens),
			zap.Duration("elapsed", time.Since(start)))
	}()

	messages := a.buildMessages(history, query)
	toolDefs := a.buildToolDefinitions()

	var (
		steps []Step
		usage llm.Usage
	)
	record := func(step Step) {
		steps = append(steps, step)
		a.logStep(log, step)
		onStep(step)
	}

	for i := 0; i < a.config.MaxIterations; i++ {
		log.Debug("iteration", zap.Int("n", i+1), zap.Int("max", a.config.MaxIterations))

		out, err := a.llm.ChatWithTools(ctx, &llm.ChatWithToolsRequest{
			Messages: messages,
			Tools:    toolDefs,
		})
		if err != nil {
			return nil, fmt.Errorf("LLM call failed: %w", err)
		}
		usage.Add(out.Usage)

		if !out.HasToolCalls() {
			return &Response{
				Output:     strings.TrimSpace(out.Content),
				Steps:      steps,
				Usage:      convertUsage(usage),
				Iterations: i + 1,
			}, nil
		}

		if thought := strings.TrimSpace(out.Content); thought != "" {
			record(Step{Type: StepTypeThought, Content: thought})
		}

		messages = append(messages, llm.Message{
			Role:      llm.RoleAssistant,
			Content:   out.Content,
			ToolCalls: out.ToolCalls,
		})

		for _, call := range out.ToolCalls {
			record(Step{Type: StepTypeAction, ToolName: call.Name, ToolInput: call.Arguments})

			observation, err := a.executeTool(ctx, call)
			if err != nil {
				return nil, err
			}

			record(Step{Type: StepTypeObservation, ToolName: call.Name, ToolOutput: observation})

			messages = append(messages, llm.Message{
				Role:       llm.RoleTool,
				Content:    observation,
				ToolCallID: call.ID,
			})
		}
	}

	return nil, ErrMaxIterations
}

// buildMessages constructs the initial message list.
func (a *ReActAgent) buildMessages(history []Message, query string) []llm.Message {
	messages := make([]llm.Message, 0, len(history)+2)
	messages = append(messages, llm.Message{Role: llm.RoleSystem, Content: a.config.SystemPrompt})

	for _, msg := range history {
		role := llm.Role(msg.Role)
		if role != llm.RoleUser && role != llm.RoleAssistant {
			continue
		}
		messages = append(messages, llm.Message{Role: role, Content: msg.Content})
	}

	return append(messages, llm.Message{Role: llm.RoleUser, Content: query})
}

// buildToolDefinitions converts the tool registry to LLM tool definitions.
func (a *ReActAgent) buildToolDefinitions() []llm.ToolDefinition {
	defs := a.tools.Definitions()
	result := make([]llm.ToolDefinition, len(defs))
	for i, def := range defs {
		result[i] = llm.ToolDefinition{
			Type: def.Type,
			Function: llm.FunctionDefinition{
				Name:        def.Function.Name,
				Description: def.Function.Description,
				Parameters:  def.Function.Parameters,
			},
		}
	}
	return result
}

// executeTool runs a tool call and returns the observation text for the
// model. Unknown tools and tool failures become observations so the model
// can correct itself; only cancellation aborts the run.
func (a *ReActAgent) executeTool(ctx context.Context, call llm.ToolCall) (string, error) {
	result, err := a.tools.Execute(ctx, call.Name, call.Arguments)
	switch {
	case err == nil:
		return result.String(), nil
	case ctx.Err() != nil:
		return "", ctx.Err()
	case errors.Is(err, tools.ErrToolNotFound):
		return fmt.Sprintf("Error: %s is not a valid tool, try one of [%s].",
			call.Name, strings.Join(a.tools.Names(), ", ")), nil
	default:
		return "Error: " + err.Error(), nil
	}
}

func (a *ReActAgent) logStep(log *zap.Logger, step Step) {
	level := zapcore.DebugLevel
	if a.config.Verbose {
		level = zapcore.InfoLevel
	}
	if ce := log.Check(level, "agent step"); ce != nil {
		ce.Write(
			zap.String("type", step.Type),
			zap.String("tool", step.ToolName),
			zap.String("content", logging.Truncate(step.Content, 300)),
			zap.String("tool_input", logging.Truncate(step.ToolInput, 300)),
			zap.String("tool_output", logging.Truncate(step.ToolOutput, 300)),
		)
	}
}

func convertUsage(u llm.Usage) Usage {
	return Usage{
		PromptTokens:     u.PromptTokens,
		CompletionTokens: u.CompletionTokens,
		TotalTokens:      u.TotalTokens,
	}
}
