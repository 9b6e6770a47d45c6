package registry

import (
	"context"
)

// builtinModels are always available. The names follow the pipeline naming
// the recommender has always used so existing configuration keeps working.
var builtinModels = []ModelInfo{
	{
		Name:        DefaultModelName,
		Description: "English pipeline served by the detected provider's default model",
		Language:    "en",
		Tags:        []string{"default", "small"},
	},
	{
		Name:        "en_core_web_md",
		Description: "English pipeline on OpenAI",
		Language:    "en",
		Provider:    "openai",
		Model:       "gpt-4o-mini",
		Tags:        []string{"hosted"},
	},
	{
		Name:        "en_core_web_lg",
		Description: "English pipeline on Anthropic",
		Language:    "en",
		Provider:    "anthropic",
		Model:       "claude-sonnet-4-20250514",
		Tags:        []string{"hosted", "accurate"},
	},
	{
		Name:        "en_core_web_local",
		Description: "English pipeline on a local Ollama instance",
		Language:    "en",
		Provider:    "ollama",
		Model:       "llama3.2",
		Tags:        []string{"local"},
	},
}

// Builtin is the registry of models compiled into the binary.
type Builtin struct{}

// NewBuiltin returns the built-in registry.
func NewBuiltin() *Builtin { return &Builtin{} }

// List returns built-in models matching the given options.
func (Builtin) List(_ context.Context, opts ...ListOption) ([]ModelInfo, error) {
	return filter(builtinModels, opts...), nil
}

// Get returns a built-in model by name.
func (Builtin) Get(_ context.Context, name string) (*ModelInfo, error) {
	return find(builtinModels, name)
}

// Resolve finds the best built-in model matching constraints.
func (Builtin) Resolve(_ context.Context, opts ...ResolveOption) (*ModelInfo, error) {
	return resolve(builtinModels, opts...)
}

func filter(models []ModelInfo, opts ...ListOption) []ModelInfo {
	cfg := &listConfig{}
	for _, opt := range opts {
		opt(cfg)
	}

	var result []ModelInfo
	for _, m := range models {
		if cfg.matches(m) {
			result = append(result, m)
		}
	}
	return result
}

func find(models []ModelInfo, name string) (*ModelInfo, error) {
	for i := range models {
		if models[i].Name == name {
			m := models[i]
			return &m, nil
		}
	}
	return nil, ErrModelNotFound
}

var _ Registry = Builtin{}
