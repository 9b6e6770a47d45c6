package inference

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/Montasar-Dridi/job-recommender-system/pkg/llm"
)

// ErrMissingAPIKey is returned when a hosted provider has no API key.
var ErrMissingAPIKey = errors.New("missing API key")

// Remote wraps a pkg/llm Provider as an Inferencer.
type Remote struct {
	provider llm.Provider
	name     string
}

// RemoteOption configures a Remote inferencer.
type RemoteOption func(*remoteConfig)

type remoteConfig struct {
	apiKey     string
	model      string
	baseURL    string
	maxRetries int
	timeout    time.Duration
}

// WithAPIKey sets the API key for the remote provider.
func WithAPIKey(key string) RemoteOption {
	return func(c *remoteConfig) { c.apiKey = key }
}

// WithModel sets the model name.
func WithModel(model string) RemoteOption {
	return func(c *remoteConfig) { c.model = model }
}

// WithBaseURL sets a custom base URL.
func WithBaseURL(url string) RemoteOption {
	return func(c *remoteConfig) { c.baseURL = url }
}

// WithMaxRetries sets the transport-level retry count of the provider SDK.
func WithMaxRetries(n int) RemoteOption {
	return func(c *remoteConfig) { c.maxRetries = n }
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) RemoteOption {
	return func(c *remoteConfig) { c.timeout = d }
}

// NewRemote creates a Remote inferencer for a registered pkg/llm provider.
// Hosted providers fall back to their API key environment variable when no
// key is given; a provider that needs a key and has none is an error.
func NewRemote(providerName string, opts ...RemoteOption) (*Remote, error) {
	cfg := &remoteConfig{}
	for _, opt := range opts {
		opt(cfg)
	}

	if !llm.IsRegistered(providerName) {
		return nil, fmt.Errorf("unknown provider: %s", providerName)
	}

	pcfg := llm.DefaultProviderConfig()
	pcfg.APIKey = cfg.apiKey
	if pcfg.APIKey == "" {
		if env := llm.APIKeyEnv(providerName); env != "" {
			pcfg.APIKey = os.Getenv(env)
		}
	}
	if pcfg.APIKey == "" && llm.RequiresAPIKey(providerName) {
		return nil, fmt.Errorf("%s: %w (set %s or pass an API key)", providerName, ErrMissingAPIKey, llm.APIKeyEnv(providerName))
	}
	if cfg.model != "" {
		pcfg.Model = cfg.model
	}
	if cfg.baseURL != "" {
		pcfg.BaseURL = cfg.baseURL
	}
	if cfg.maxRetries > 0 {
		pcfg.MaxRetries = cfg.maxRetries
	}
	if cfg.timeout > 0 {
		pcfg.Timeout = cfg.timeout
	}

	provider, err := llm.NewProvider(providerName, pcfg)
	if err != nil {
		return nil, fmt.Errorf("create %s provider: %w", providerName, err)
	}

	return &Remote{
		provider: provider,
		name:     providerName,
	}, nil
}

// NewRemoteFromProvider wraps an existing pkg/llm.Provider directly.
func NewRemoteFromProvider(p llm.Provider) *Remote {
	return &Remote{
		provider: p,
		name:     p.Name(),
	}
}

// Infer sends a request to the remote provider.
func (r *Remote) Infer(ctx context.Context, req Request) (*Response, error) {
	llmReq := llm.Request{
		MaxTokens:   req.MaxTokens,
		Temperature: req.Temperature,
		JSONSchema:  req.JSONSchema,
		SchemaName:  req.SchemaName,
	}
	for _, msg := range req.Messages {
		llmReq.Messages = append(llmReq.Messages, llm.Message{
			Role:    llm.Role(msg.Role),
			Content: msg.Content,
		})
	}

	llmResp, err := r.provider.Execute(ctx, llmReq)
	if err != nil {
		return nil, err
	}

	model := llmResp.Model
	if model == "" {
		model = r.provider.Model()
	}

	return &Response{
		Content:      llmResp.Content,
		Usage:        Usage{InputTokens: llmResp.Usage.InputTokens, OutputTokens: llmResp.Usage.OutputTokens},
		Model:        model,
		Provider:     r.name,
		Duration:     llmResp.Duration,
		FinishReason: llmResp.FinishReason,
	}, nil
}

// Check verifies the backend when the provider supports it (Ollama lists
// its pulled models). Hosted providers are checked lazily by the first call.
func (r *Remote) Check(ctx context.Context) error {
	pinger, ok := r.provider.(interface{ Ping(context.Context) error })
	if !ok {
		return nil
	}
	return pinger.Ping(ctx)
}

// Name returns the provider name.
func (r *Remote) Name() string { return r.name }

// Model returns the model the provider is configured with.
func (r *Remote) Model() string { return r.provider.Model() }

// Available returns true: remote providers are stateless.
func (r *Remote) Available() bool { return true }

// Close is a no-op for remote providers.
func (r *Remote) Close() error { return nil }

var (
	_ Inferencer = (*Remote)(nil)
	_ Checker    = (*Remote)(nil)
)
