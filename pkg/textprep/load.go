package textprep

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Montasar-Dridi/job-recommender-system/internal/logger"
	"github.com/Montasar-Dridi/job-recommender-system/pkg/annotator"
	"github.com/Montasar-Dridi/job-recommender-system/pkg/cleaner"
	"github.com/Montasar-Dridi/job-recommender-system/pkg/llm"
	"github.com/Montasar-Dridi/job-recommender-system/pkg/model/inference"
	"github.com/Montasar-Dridi/job-recommender-system/pkg/model/registry"
)

// ErrModelUnavailable is returned by Load when the model's backend cannot
// serve it (unreachable server, model not pulled).
var ErrModelUnavailable = errors.New("model unavailable")

// LoadConfig holds the settings Load resolves a model with.
type LoadConfig struct {
	// Registry resolves model names (default: built-in models).
	Registry registry.Registry

	// Provider overrides the provider from the registry entry.
	Provider string

	// Model overrides the provider-side model name.
	Model string

	// APIKey for the primary provider. If empty, the provider's env var is used.
	APIKey string

	// BaseURL overrides the provider endpoint.
	BaseURL string

	// Fallback lists providers tried, in order, when the primary fails.
	// Providers that cannot be configured (e.g. no API key) are skipped.
	Fallback []string

	// Language picks the model when Load is called without a name
	// (default: "en").
	Language string

	Temperature    float64
	MaxTokens      int
	MaxRetries     int
	MaxContentSize int
	MaxChunkSize   int
	Timeout        time.Duration

	// TransportRetries is the provider SDK's retry count for failed HTTP
	// calls (0 keeps the provider default).
	TransportRetries int

	// Observer receives a notification after every model call.
	Observer llm.LLMObserver

	// Cleaner replaces the boilerplate cleaner.
	Cleaner cleaner.Cleaner

	// SkipCheck skips the startup availability check.
	SkipCheck bool
}

// DefaultLoadConfig returns the defaults used by Load.
func DefaultLoadConfig() LoadConfig {
	ac := annotator.DefaultConfig()
	return LoadConfig{
		Temperature:    ac.Temperature,
		MaxTokens:      ac.MaxTokens,
		MaxRetries:     ac.MaxRetries,
		MaxContentSize: ac.MaxContentSize,
		MaxChunkSize:   ac.MaxChunkSize,
		Language:       "en",
		Timeout:        120 * time.Second,
	}
}

// LoadOption configures Load.
type LoadOption func(*LoadConfig)

// WithRegistry sets the registry model names are resolved in.
func WithRegistry(r registry.Registry) LoadOption {
	return func(c *LoadConfig) { c.Registry = r }
}

// WithProvider overrides the provider serving the model.
func WithProvider(provider string) LoadOption {
	return func(c *LoadConfig) { c.Provider = provider }
}

// WithModel overrides the provider-side model name.
func WithModel(model string) LoadOption {
	return func(c *LoadConfig) { c.Model = model }
}

// WithAPIKey sets the API key of the primary provider.
func WithAPIKey(key string) LoadOption {
	return func(c *LoadConfig) { c.APIKey = key }
}

// WithBaseURL sets a custom provider endpoint.
func WithBaseURL(url string) LoadOption {
	return func(c *LoadConfig) { c.BaseURL = url }
}

// WithFallback sets providers tried after the primary one fails.
func WithFallback(providers ...string) LoadOption {
	return func(c *LoadConfig) { c.Fallback = providers }
}

// WithTemperature sets the sampling temperature.
func WithTemperature(t float64) LoadOption {
	return func(c *LoadConfig) { c.Temperature = t }
}

// WithMaxTokens sets the maximum output tokens per call.
func WithMaxTokens(n int) LoadOption {
	return func(c *LoadConfig) { c.MaxTokens = n }
}

// WithMaxRetries sets the maximum annotation retries.
func WithMaxRetries(n int) LoadOption {
	return func(c *LoadConfig) { c.MaxRetries = n }
}

// WithMaxContentSize limits the text sent to the model, in bytes.
func WithMaxContentSize(n int) LoadOption {
	return func(c *LoadConfig) { c.MaxContentSize = n }
}

// WithMaxChunkSize bounds the text sent in one model call, in bytes.
func WithMaxChunkSize(n int) LoadOption {
	return func(c *LoadConfig) { c.MaxChunkSize = n }
}

// WithLanguage sets the language used to pick a model when none is named.
func WithLanguage(lang string) LoadOption {
	return func(c *LoadConfig) { c.Language = lang }
}

// WithTransportRetries sets the provider SDK's HTTP retry count.
func WithTransportRetries(n int) LoadOption {
	return func(c *LoadConfig) { c.TransportRetries = n }
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) LoadOption {
	return func(c *LoadConfig) { c.Timeout = d }
}

// WithObserver sets the LLM call observer.
func WithObserver(obs llm.LLMObserver) LoadOption {
	return func(c *LoadConfig) { c.Observer = obs }
}

// WithTextCleaner replaces the boilerplate cleaner of the loaded Preprocessor.
func WithTextCleaner(cl cleaner.Cleaner) LoadOption {
	return func(c *LoadConfig) { c.Cleaner = cl }
}

// WithSkipCheck disables the startup availability check.
func WithSkipCheck(skip bool) LoadOption {
	return func(c *LoadConfig) { c.SkipCheck = skip }
}

// Load resolves name in the registry, connects to the backend serving it,
// and checks that the model is available. An empty name picks a model for
// the configured language and provider (see WithLanguage, WithProvider). Errors wrap
// registry.ErrModelNotFound, inference.ErrMissingAPIKey or
// ErrModelUnavailable.
func Load(ctx context.Context, name string, opts ...LoadOption) (*Preprocessor, error) {
	cfg := DefaultLoadConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	log := logger.Component("textprep")

	reg := cfg.Registry
	if reg == nil {
		reg = registry.NewBuiltin()
	}

	info, err := lookup(ctx, reg, name, cfg)
	if err != nil {
		return nil, err
	}
	name = info.Name

	primary, err := buildAnnotator(primaryTarget(cfg, info), cfg)
	if err != nil {
		return nil, fmt.Errorf("load model %q: %w", name, err)
	}

	annotators := []annotator.Annotator{primary}
	used := map[string]bool{primary.Name(): true}
	for _, provider := range cfg.Fallback {
		if used[provider] {
			continue
		}
		used[provider] = true

		a, err := buildAnnotator(target{provider: provider}, cfg)
		if err != nil {
			log.Warn("skipping fallback provider", "provider", provider, "error", err)
			continue
		}
		annotators = append(annotators, a)
	}

	var ann annotator.Annotator = primary
	if len(annotators) > 1 {
		ann = annotator.NewFallback(annotators...)
	}

	if !cfg.SkipCheck {
		if err := check(ctx, ann); err != nil {
			closeAnnotator(ann)
			return nil, fmt.Errorf("load model %q: %w", name, err)
		}
	}

	log.Debug("model loaded",
		"model", name,
		"annotator", ann.Name(),
		"language", info.Language)

	popts := []Option{WithModelName(name)}
	if cfg.Cleaner != nil {
		popts = append(popts, WithCleaner(cfg.Cleaner))
	}
	return New(ann, popts...)
}

// lookup finds the registry entry for name. Without a name the registry
// resolves one for the configured language, preferring a model served by
// the configured provider, and falls back to DefaultModelName.
func lookup(ctx context.Context, reg registry.Registry, name string, cfg LoadConfig) (*registry.ModelInfo, error) {
	if name != "" {
		info, err := reg.Get(ctx, name)
		if err != nil {
			return nil, fmt.Errorf("load model %q: %w", name, err)
		}
		return info, nil
	}

	if cfg.Provider != "" {
		info, err := reg.Resolve(ctx,
			registry.WithResolveLanguage(cfg.Language),
			registry.WithPreferredProvider(cfg.Provider))
		if err == nil && info.Provider == cfg.Provider {
			return info, nil
		}
	}

	info, err := reg.Get(ctx, registry.DefaultModelName)
	if err != nil {
		return nil, fmt.Errorf("load model %q: %w", registry.DefaultModelName, err)
	}
	return info, nil
}

// target is one provider/model pair an annotator is built for.
type target struct {
	provider string
	model    string
	baseURL  string
	apiKey   string
}

// primaryTarget merges explicit overrides, the registry entry, and the
// provider detected from the environment.
func primaryTarget(cfg LoadConfig, info *registry.ModelInfo) target {
	t := target{
		provider: info.Provider,
		model:    info.Model,
		baseURL:  info.BaseURL,
		apiKey:   cfg.APIKey,
	}

	if cfg.Provider != "" && cfg.Provider != info.Provider {
		// The entry's model and endpoint belong to another provider.
		t = target{provider: cfg.Provider, apiKey: cfg.APIKey}
	}
	if t.provider == "" {
		detected, key := llm.DetectProvider()
		t.provider = detected
		if t.apiKey == "" {
			t.apiKey = key
		}
	}
	if cfg.Model != "" {
		t.model = cfg.Model
	}
	if cfg.BaseURL != "" {
		t.baseURL = cfg.BaseURL
	}
	return t
}

func buildAnnotator(t target, cfg LoadConfig) (*annotator.LLMAnnotator, error) {
	inf, err := inference.New(t.provider,
		inference.WithAPIKey(t.apiKey),
		inference.WithModel(t.model),
		inference.WithBaseURL(t.baseURL),
		inference.WithTimeout(cfg.Timeout),
		inference.WithMaxRetries(cfg.TransportRetries),
	)
	if err != nil {
		return nil, err
	}

	opts := []annotator.Option{
		annotator.WithTemperature(cfg.Temperature),
		annotator.WithMaxTokens(cfg.MaxTokens),
		annotator.WithMaxRetries(cfg.MaxRetries),
		annotator.WithMaxContentSize(cfg.MaxContentSize),
		annotator.WithMaxChunkSize(cfg.MaxChunkSize),
	}
	if cfg.Observer != nil {
		opts = append(opts, annotator.WithObserver(cfg.Observer))
	}
	return annotator.NewLLM(inf, opts...), nil
}

func check(ctx context.Context, a annotator.Annotator) error {
	if !a.Available() {
		return fmt.Errorf("%w: %s is not available", ErrModelUnavailable, a.Name())
	}
	c, ok := a.(interface{ Check(context.Context) error })
	if !ok {
		return nil
	}
	if err := c.Check(ctx); err != nil {
		return fmt.Errorf("%w: %w", ErrModelUnavailable, err)
	}
	return nil
}

func closeAnnotator(a annotator.Annotator) {
	if c, ok := a.(interface{ Close() error }); ok {
		_ = c.Close()
	}
}
