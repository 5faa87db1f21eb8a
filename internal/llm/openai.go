package llm

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sashabaranov/go-openai"
	"golang.org/x/time/rate"
)

// GroqBaseURL is the OpenAI-compatible endpoint of Groq.
const GroqBaseURL = "https://api.groq.com/openai/v1"

// ErrMissingAPIKey is returned when a client is created without a credential.
var ErrMissingAPIKey = errors.New("API key is required")

// OpenAIClient implements Client against any OpenAI-compatible chat API.
type OpenAIClient struct {
	client      *openai.Client
	model       string
	defaultMax  int
	temperature float32
	limiter     *rate.Limiter
	retry       RetryConfig
}

// OpenAIConfig contains configuration for the OpenAI-compatible client.
type OpenAIConfig struct {
	APIKey string

	// BaseURL selects the provider. Default is Groq.
	BaseURL string

	Model       string
	MaxTokens   int
	Temperature float32

	// RequestsPerSecond throttles calls made through this client.
	// Zero disables throttling.
	RequestsPerSecond float64

	// Retry controls retries of transient failures. The zero value disables
	// retries.
	Retry RetryConfig

	// HTTPClient overrides the transport, mostly for tests.
	HTTPClient *http.Client
}

// NewOpenAIClient creates a new OpenAI-compatible client.
func NewOpenAIClient(cfg OpenAIConfig) (*OpenAIClient, error) {
	if cfg.APIKey == "" {
		return nil, ErrMissingAPIKey
	}

	clientCfg := openai.DefaultConfig(cfg.APIKey)
	clientCfg.BaseURL = GroqBaseURL
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	if cfg.HTTPClient != nil {
		clientCfg.HTTPClient = cfg.HTTPClient
	}

	model := cfg.Model
	if model == "" {
		model = "llama3-8b-8192"
	}

	maxTokens := cfg.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 2048
	}

	temperature := cfg.Temperature
	if temperature <= 0 {
		temperature = 0.7
	}

	limit := rate.Inf
	if cfg.RequestsPerSecond > 0 {
		limit = rate.Limit(cfg.RequestsPerSecond)
	}

	return &OpenAIClient{
		client:      openai.NewClientWithConfig(clientCfg),
		model:       model,
		defaultMax:  maxTokens,
		temperature: temperature,
		limiter:     rate.NewLimiter(limit, 1),
		retry:       cfg.Retry,
	}, nil
}

// Model returns the model name requests are sent to.
func (c *OpenAIClient) Model() string {
	return c.model
}

// Chat sends a chat completion request and returns the response.
func (c *OpenAIClient) Chat(ctx context.Context, req *ChatRequest) (*ChatResponse, error) {
	resp, err := c.complete(ctx, c.buildRequest(req.Messages, req.MaxTokens, req.Temperature))
	if err != nil {
		return nil, fmt.Errorf("chat completion failed: %w", err)
	}

	choice := resp.Choices[0]
	return &ChatResponse{
		Content:      choice.Message.Content,
		FinishReason: string(choice.FinishReason),
		Usage:        convertUsage(resp.Usage),
	}, nil
}

// ChatStream sends a streaming chat completion request.
func (c *OpenAIClient) ChatStream(ctx context.Context, req *ChatRequest) (<-chan StreamChunk, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	request := c.buildRequest(req.Messages, req.MaxTokens, req.Temperature)
	request.Stream = true

	stream, err := c.client.CreateChatCompletionStream(ctx, request)
	if err != nil {
		return nil, fmt.Errorf("failed to create stream: %w", err)
	}

	ch := make(chan StreamChunk)

	go func() {
		defer close(ch)
		defer func() { _ = stream.Close() }()

		for {
			response, err := stream.Recv()
			if errors.Is(err, io.EOF) {
				ch <- StreamChunk{Done: true}
				return
			}
			if err != nil {
				ch <- StreamChunk{Error: err, Done: true}
				return
			}

			if len(response.Choices) > 0 {
				choice := response.Choices[0]
				ch <- StreamChunk{
					Content:      choice.Delta.Content,
					FinishReason: string(choice.FinishReason),
					Done:         choice.FinishReason != "",
				}
			}
		}
	}()

	return ch, nil
}

// Close releases any resources held by the client.
func (c *OpenAIClient) Close() error {
	return nil
}

func (c *OpenAIClient) buildRequest(msgs []Message, maxTokens int, temperature float32) openai.ChatCompletionRequest {
	if maxTokens <= 0 {
		maxTokens = c.defaultMax
	}
	if temperature <= 0 {
		temperature = c.temperature
	}
	return openai.ChatCompletionRequest{
		Model:       c.model,
		Messages:    convertMessages(msgs),
		MaxTokens:   maxTokens,
		Temperature: temperature,
	}
}

// complete waits for the limiter and sends the request, retrying transient
// failures with exponential backoff.
func (c *OpenAIClient) complete(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
	var resp openai.ChatCompletionResponse
	err := withRetry(ctx, c.retry, func() error {
		if err := c.limiter.Wait(ctx); err != nil {
			return err
		}
		var err error
		resp, err = c.client.CreateChatCompletion(ctx, req)
		return err
	})
	if err != nil {
		return resp, err
	}
	if len(resp.Choices) == 0 {
		return resp, errors.New("no choices in response")
	}
	return resp, nil
}

func convertUsage(u openai.Usage) Usage {
	return Usage{
		PromptTokens:     u.PromptTokens,
		CompletionTokens: u.CompletionTokens,
		TotalTokens:      u.TotalTokens,
	}
}

// requestTimeout bounds a single HTTP exchange with the provider.
const requestTimeout = 60 * time.Second

// NewHTTPClient returns the HTTP client used for provider calls.
func NewHTTPClient() *http.Client {
	return &http.Client{Timeout: requestTimeout}
}
