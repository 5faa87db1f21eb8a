// Package di wires configuration, logging, the model client, tools and the
// agent together.
package di

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/hassan123789/mathbot/internal/agent"
	"github.com/hassan123789/mathbot/internal/config"
	"github.com/hassan123789/mathbot/internal/llm"
	"github.com/hassan123789/mathbot/internal/memory"
	"github.com/hassan123789/mathbot/internal/tools"
)

// Container holds the long-lived dependencies of the application and builds
// per-credential agents on demand.
type Container struct {
	Config   *config.Config
	Logger   *zap.Logger
	Sessions *memory.SessionStore

	searcher tools.Searcher
}

// NewContainer builds the container from configuration.
func NewContainer(cfg *config.Config, logger *zap.Logger) *Container {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Container{
		Config: cfg,
		Logger: logger,
		Sessions: memory.NewSessionStore(memory.SessionConfig{
			TTL:         cfg.SessionTTL,
			HistorySize: cfg.SessionHistory,
		}, logger.Named("sessions")),
	}
}

// WithSearcher replaces the Wikipedia backend, mostly for tests.
func (c *Container) WithSearcher(s tools.Searcher) *Container {
	c.searcher = s
	return c
}

// NewChatClient returns a model client for apiKey, falling back to the
// server-wide key when apiKey is empty.
func (c *Container) NewChatClient(apiKey string) (llm.ToolClient, error) {
	if apiKey == "" {
		apiKey = c.Config.APIKey
	}
	client, err := llm.NewOpenAIClient(llm.OpenAIConfig{
		APIKey:            apiKey,
		BaseURL:           c.Config.BaseURL,
		Model:             c.Config.Model,
		MaxTokens:         c.Config.MaxTokens,
		Temperature:       c.Config.Temperature,
		RequestsPerSecond: c.Config.RateLimit,
		Retry:             c.retryConfig(),
		HTTPClient:        llm.NewHTTPClient(),
	})
	if err != nil {
		return nil, fmt.Errorf("create model client: %w", err)
	}
	return client, nil
}

// NewAgent returns a math agent with the calculator, Wikipedia and Reasoning
// tools, talking to the model with apiKey.
func (c *Container) NewAgent(apiKey string) (agent.Agent, error) {
	client, err := c.NewChatClient(apiKey)
	if err != nil {
		return nil, err
	}

	registry, err := c.NewRegistry(client)
	if err != nil {
		return nil, err
	}

	return agent.NewReActAgent(client, registry, agent.Config{
		MaxIterations: c.Config.AgentMaxSteps,
		Verbose:       c.Config.IsDevelopment(),
	}, c.Logger), nil
}

// NewRegistry registers the agent's tools. The Reasoning tool delegates to
// client.
func (c *Container) NewRegistry(client llm.Client) (*tools.Registry, error) {
	var wikiTool *tools.Wikipedia
	if c.searcher != nil {
		wikiTool = tools.NewWikipediaWithSearcher(c.searcher)
	} else {
		wikiTool = tools.NewWikipedia(tools.WikipediaConfig{
			UserAgent:    c.Config.WikipediaUserAgent,
			LanguageCode: c.Config.WikipediaLanguage,
		})
	}

	registry := tools.NewRegistry()
	for _, tool := range []tools.Tool{
		wikiTool,
		tools.NewCalculator(),
		tools.NewReasoning(client),
	} {
		if err := registry.Register(tool); err != nil {
			return nil, err
		}
	}
	return registry, nil
}

func (c *Container) retryConfig() llm.RetryConfig {
	retry := llm.DefaultRetryConfig()
	retry.MaxRetries = c.Config.MaxRetries
	return retry
}
