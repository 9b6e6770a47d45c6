// Package registry resolves annotation model names (e.g. "en_core_web_sm")
// to the language model backend that serves them.
//
// The registry only describes models. Nothing is downloaded: hosted models
// are reached over their provider API and local ones through Ollama.
package registry

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
)

// DefaultModelName is the model loaded when none is configured.
const DefaultModelName = "en_core_web_sm"

// Registry provides model discovery.
type Registry interface {
	// List returns all models matching the given options.
	List(ctx context.Context, opts ...ListOption) ([]ModelInfo, error)

	// Get returns metadata for a specific model by name.
	Get(ctx context.Context, name string) (*ModelInfo, error)

	// Resolve finds the best model matching the given constraints.
	Resolve(ctx context.Context, opts ...ResolveOption) (*ModelInfo, error)
}

// ModelInfo contains metadata about an annotation model.
type ModelInfo struct {
	Name        string `json:"name" yaml:"name" validate:"required,excludesall= /"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
	Language    string `json:"language" yaml:"language" validate:"required,alpha,len=2,lowercase"`

	// Provider is the pkg/llm provider serving the model. Empty means the
	// provider is detected from the environment at load time.
	Provider string `json:"provider,omitempty" yaml:"provider,omitempty" validate:"omitempty,provider"`

	// Model is the provider-side model name. Empty means the provider default.
	Model   string   `json:"model,omitempty" yaml:"model,omitempty"`
	BaseURL string   `json:"base_url,omitempty" yaml:"base_url,omitempty" validate:"omitempty,url"`
	Tags    []string `json:"tags,omitempty" yaml:"tags,omitempty"`
}

// ListOption configures a List call.
type ListOption func(*listConfig)

type listConfig struct {
	language string
	provider string
	tags     []string
}

// WithLanguage filters models by language code (e.g., "en").
func WithLanguage(lang string) ListOption {
	return func(c *listConfig) { c.language = lang }
}

// WithProvider filters models by provider name.
func WithProvider(provider string) ListOption {
	return func(c *listConfig) { c.provider = provider }
}

// WithTags filters models that have all specified tags.
func WithTags(tags ...string) ListOption {
	return func(c *listConfig) { c.tags = tags }
}

func (c *listConfig) matches(m ModelInfo) bool {
	if c.language != "" && !strings.EqualFold(m.Language, c.language) {
		return false
	}
	if c.provider != "" && m.Provider != c.provider {
		return false
	}
	if len(c.tags) > 0 && !hasAllTags(m.Tags, c.tags) {
		return false
	}
	return true
}

// ResolveOption configures a Resolve call.
type ResolveOption func(*resolveConfig)

type resolveConfig struct {
	language          string
	preferredProvider string
}

// WithResolveLanguage constrains the resolved model to a language.
func WithResolveLanguage(lang string) ResolveOption {
	return func(c *resolveConfig) { c.language = lang }
}

// WithPreferredProvider prefers models served by the given provider.
func WithPreferredProvider(provider string) ResolveOption {
	return func(c *resolveConfig) { c.preferredProvider = provider }
}

// resolve picks from models: the first entry served by the preferred
// provider, otherwise the first entry in the requested language.
func resolve(models []ModelInfo, opts ...ResolveOption) (*ModelInfo, error) {
	cfg := &resolveConfig{}
	for _, opt := range opts {
		opt(cfg)
	}

	var best *ModelInfo
	for i := range models {
		m := &models[i]
		if cfg.language != "" && !strings.EqualFold(m.Language, cfg.language) {
			continue
		}
		if cfg.preferredProvider != "" && m.Provider == cfg.preferredProvider {
			return m, nil
		}
		if best == nil {
			best = m
		}
	}
	if best == nil {
		return nil, ErrModelNotFound
	}
	return best, nil
}

// DefaultIndexPath returns the default model index location.
// Respects TEXTPREP_MODEL_INDEX, otherwise ~/.config/textprep/models.yaml.
func DefaultIndexPath() string {
	if p := os.Getenv("TEXTPREP_MODEL_INDEX"); p != "" {
		return p
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		return filepath.Join(os.TempDir(), "textprep", "models.yaml")
	}
	return filepath.Join(dir, "textprep", "models.yaml")
}

// ErrModelNotFound is returned when a requested model is not in the registry.
var ErrModelNotFound = errors.New("model not found")

func hasAllTags(modelTags, required []string) bool {
	tagSet := make(map[string]bool, len(modelTags))
	for _, t := range modelTags {
		tagSet[strings.ToLower(t)] = true
	}
	for _, r := range required {
		if !tagSet[strings.ToLower(r)] {
			return false
		}
	}
	return true
}
