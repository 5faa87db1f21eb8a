package tools

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/hassan123789/mathbot/internal/metrics"
)

// ErrToolNotFound is returned by Execute for names that were never registered.
var ErrToolNotFound = errors.New("tool not found")

// Registry holds the tools an agent may call. It is safe for concurrent use.
type Registry struct {
	tools map[string]Tool
	mu    sync.RWMutex
}

// NewRegistry creates a new empty tool registry.
func NewRegistry() *Registry {
	return &Registry{
		tools: make(map[string]Tool),
	}
}

// Register adds a tool to the registry.
// Returns an error if a tool with the same name already exists.
func (r *Registry) Register(tool Tool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	name := tool.Name()
	if name == "" {
		return errors.New("tool name must not be empty")
	}
	if _, exists := r.tools[name]; exists {
		return fmt.Errorf("tool %q already registered", name)
	}

	r.tools[name] = tool
	return nil
}

// MustRegister adds a tool to the registry, panicking if registration fails.
func (r *Registry) MustRegister(tool Tool) {
	if err := r.Register(tool); err != nil {
		panic(err)
	}
}

// Get retrieves a tool by name, or nil if it is not registered.
func (r *Registry) Get(name string) Tool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.tools[name]
}

// List returns all registered tools ordered by name, so prompts built from
// the registry are stable between runs.
func (r *Registry) List() []Tool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]Tool, 0, len(r.tools))
	for _, tool := range r.tools {
		result = append(result, tool)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].Name() < result[j].Name()
	})
	return result
}

// Names returns the sorted names of all registered tools.
func (r *Registry) Names() []string {
	list := r.List()
	names := make([]string, len(list))
	for i, tool := range list {
		names[i] = tool.Name()
	}
	return names
}

// Count returns the number of registered tools.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.tools)
}

// Definitions returns OpenAI-compatible definitions for all registered tools.
func (r *Registry) Definitions() []Definition {
	list := r.List()
	result := make([]Definition, len(list))
	for i, tool := range list {
		result[i] = ToDefinition(tool)
	}
	return result
}

// Execute runs the named tool and records the invocation outcome.
func (r *Registry) Execute(ctx context.Context, name, arguments string) (Result, error) {
	tool := r.Get(name)
	if tool == nil {
		metrics.ToolInvocations.WithLabelValues(name, metrics.OutcomeError).Inc()
		return Result{}, fmt.Errorf("%w: %q", ErrToolNotFound, name)
	}

	result, err := tool.Execute(ctx, arguments)
	outcome := metrics.OutcomeSuccess
	if err != nil || !result.IsSuccess() {
		outcome = metrics.OutcomeError
	}
	metrics.ToolInvocations.WithLabelValues(name, outcome).Inc()

	if err != nil {
		return Result{}, fmt.Errorf("tool %q: %w", name, err)
	}
	return result, nil
}
