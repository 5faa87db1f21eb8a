package tools

import (
	"context"
	"strings"

	"github.com/hassan123789/mathbot/internal/mathexpr"
	"github.com/hassan123789/mathbot/internal/metrics"
)

// CalculatorName is the name the agent uses to call the calculator.
const CalculatorName = "calculator"

// Calculator evaluates a single arithmetic expression. The argument may be
// noisy: markdown fences and surrounding prose are stripped before evaluation.
type Calculator struct{}

// NewCalculator creates a new Calculator tool.
func NewCalculator() *Calculator {
	return &Calculator{}
}

// Name returns the tool name.
func (c *Calculator) Name() string {
	return CalculatorName
}

// Description returns what this tool does.
func (c *Calculator) Description() string {
	return "Useful for performing mathematical calculations. Input should be a plain mathematical expression like '2+2' or '37593*67'."
}

// Parameters returns the JSON Schema for the tool's input.
func (c *Calculator) Parameters() ParameterSchema {
	return singleStringSchema("expression", "The mathematical expression to evaluate, e.g. '37593*67'")
}

// Execute evaluates the expression. Evaluation problems are reported inside
// the output text so the agent can reason about them; Execute itself never
// fails.
func (c *Calculator) Execute(_ context.Context, arguments string) (Result, error) {
	expression := StringArgument(arguments, "expression")
	output := mathexpr.Evaluate(expression)

	if strings.HasPrefix(output, mathexpr.ErrorPrefix) {
		metrics.CalculatorErrors.Inc()
		return SuccessWithMetadata(output, map[string]any{"evaluated": false}), nil
	}
	return SuccessWithMetadata(output, map[string]any{"evaluated": true}), nil
}
