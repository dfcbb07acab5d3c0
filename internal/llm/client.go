package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/ivlev/scenecomposer/internal/assets"
	"github.com/ivlev/scenecomposer/internal/director"
	"github.com/ivlev/scenecomposer/internal/prompt"
	"github.com/ivlev/scenecomposer/internal/scene"
)

const (
	DefaultModel     = "gpt-4o"
	DefaultTimeout   = 120 * time.Second
	DefaultMaxTokens = 2048
)

var (
	ErrMissingAPIKey  = errors.New("llm: api key is not set")
	ErrNoToolCall     = errors.New("llm: response has no compose_scene tool call")
	ErrMalformedScene = errors.New("llm: malformed scene arguments")
)

var _ director.SceneComposer = (*Client)(nil)

// Client asks a chat completion model to compose one scene at a time
type Client struct {
	api       *openai.Client
	model     string
	maxTokens int
	timeout   time.Duration
	limiter   *rate.Limiter
	registry  *assets.Registry
	logger    *zap.Logger

	baseURL    string
	httpClient *http.Client
}

type Option func(*Client)

func WithModel(model string) Option {
	return func(c *Client) {
		if model != "" {
			c.model = model
		}
	}
}

// WithBaseURL points the client at any OpenAI compatible endpoint
func WithBaseURL(url string) Option {
	return func(c *Client) {
		c.baseURL = url
	}
}

func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

func WithMaxTokens(n int) Option {
	return func(c *Client) {
		if n > 0 {
			c.maxTokens = n
		}
	}
}

// WithRateLimit spaces requests to at most perSecond with the given burst. Zero disables the limit.
func WithRateLimit(perSecond float64, burst int) Option {
	return func(c *Client) {
		if perSecond <= 0 {
			c.limiter = nil
			return
		}
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(perSecond), burst)
	}
}

func WithRegistry(r *assets.Registry) Option {
	return func(c *Client) {
		if r != nil {
			c.registry = r
		}
	}
}

func WithLogger(l *zap.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// New creates a Client for apiKey
func New(apiKey string, opts ...Option) (*Client, error) {
	if apiKey == "" {
		return nil, ErrMissingAPIKey
	}

	c := &Client{
		model:     DefaultModel,
		maxTokens: DefaultMaxTokens,
		timeout:   DefaultTimeout,
		registry:  assets.Default(),
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}

	config := openai.DefaultConfig(apiKey)
	if c.baseURL != "" {
		config.BaseURL = c.baseURL
	}
	if c.httpClient != nil {
		config.HTTPClient = c.httpClient
	}
	c.api = openai.NewClientWithConfig(config)

	return c, nil
}

// ComposeScene sends one section to the model and decodes the forced tool call into a scene.
// There are no retries; the caller decides what to do on failure.
func (c *Client) ComposeScene(ctx context.Context, pc prompt.Context) (*scene.Composed, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limit wait: %w", err)
		}
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	p := prompt.BuildFull(pc, c.registry)
	req := openai.ChatCompletionRequest{
		Model:     c.model,
		MaxTokens: c.maxTokens,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: p.System},
			{Role: openai.ChatMessageRoleUser, Content: p.User},
		},
		Tools: []openai.Tool{composeSceneTool()},
		ToolChoice: openai.ToolChoice{
			Type:     openai.ToolTypeFunction,
			Function: openai.ToolFunction{Name: ToolName},
		},
	}

	start := time.Now()
	resp, err := c.api.CreateChatCompletion(ctx, req)
	requestDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		requestsTotal.WithLabelValues(statusError).Inc()
		return nil, fmt.Errorf("chat completion for scene %d: %w", pc.SceneIndex+1, err)
	}

	args, ok := toolArguments(resp)
	if !ok {
		requestsTotal.WithLabelValues(statusNoTool).Inc()
		return nil, ErrNoToolCall
	}

	var composed scene.Composed
	if err := json.Unmarshal([]byte(args), &composed); err != nil {
		requestsTotal.WithLabelValues(statusMalformed).Inc()
		return nil, fmt.Errorf("%w: %v", ErrMalformedScene, err)
	}

	requestsTotal.WithLabelValues(statusOK).Inc()
	c.logger.Debug("scene composed by model",
		zap.Int("scene", pc.SceneIndex+1),
		zap.String("model", c.model),
		zap.Int("prompt_tokens", resp.Usage.PromptTokens),
		zap.Int("completion_tokens", resp.Usage.CompletionTokens),
		zap.Duration("elapsed", time.Since(start)),
	)
	return &composed, nil
}

func toolArguments(resp openai.ChatCompletionResponse) (string, bool) {
	for _, choice := range resp.Choices {
		for _, call := range choice.Message.ToolCalls {
			if call.Function.Name == ToolName {
				return call.Function.Arguments, true
			}
		}
	}
	return "", false
}
