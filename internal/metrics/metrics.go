// Package metrics holds the Prometheus collectors shared by the agent, tools
// and HTTP layers.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "mathbot"

// Outcome label values.
const (
	OutcomeSuccess = "success"
	OutcomeError   = "error"
)

var (
	// ToolInvocations counts tool executions by tool name and outcome.
	ToolInvocations = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "tool_invocations_total",
		Help:      "Number of agent tool invocations.",
	}, []string{"tool", "outcome"})

	// CalculatorErrors counts calculator inputs that could not be evaluated.
	CalculatorErrors = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "calculator_errors_total",
		Help:      "Number of calculator inputs that produced an error result.",
	})

	// AgentRunDuration observes the wall time of complete agent runs.
	AgentRunDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "agent_run_duration_seconds",
		Help:      "Duration of agent runs.",
		Buckets:   []float64{0.5, 1, 2, 5, 10, 20, 40, 80},
	}, []string{"outcome"})

	// AgentIterations observes how many model round trips a run needed.
	AgentIterations = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "agent_iterations",
		Help:      "Model round trips per agent run.",
		Buckets:   prometheus.LinearBuckets(1, 1, 10),
	})

	// ActiveSessions is the number of live chat sessions.
	ActiveSessions = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "active_sessions",
		Help:      "Number of chat sessions currently held in memory.",
	})
)

// Outcome maps an error to an outcome label.
func Outcome(err error) string {
	if err != nil {
		return OutcomeError
	}
	return OutcomeSuccess
}
