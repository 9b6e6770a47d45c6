package textprep

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Montasar-Dridi/job-recommender-system/pkg/annotator"
	"github.com/Montasar-Dridi/job-recommender-system/pkg/model/inference"
	"github.com/Montasar-Dridi/job-recommender-system/pkg/model/registry"
)

// fakeOllama serves /api/tags with the given models and answers /api/chat
// with a fixed annotation.
func fakeOllama(t *testing.T, models ...string) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	var chats atomic.Int32

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/tags":
			body := `{"models":[`
			for i, m := range models {
				if i > 0 {
					body += ","
				}
				body += `{"name":"` + m + `","model":"` + m + `"}`
			}
			_, _ = w.Write([]byte(body + `]}`))
		case "/api/chat":
			chats.Add(1)
			_, _ = w.Write([]byte(`{
				"model": "llama3.2",
				"message": {"role": "assistant", "content": "{\"tokens\":[{\"text\":\"Led\",\"lemma\":\"lead\",\"is_stop\":false,\"is_punct\":false},{\"text\":\"at\",\"lemma\":\"at\",\"is_stop\":true,\"is_punct\":false},{\"text\":\"Acme\",\"lemma\":\"Acme\",\"is_stop\":false,\"is_punct\":false}],\"entities\":[{\"text\":\"Acme\",\"label\":\"ORG\"}]}"},
				"done": true,
				"prompt_eval_count": 40,
				"eval_count": 20
			}`))
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)
	return srv, &chats
}

func indexFor(t *testing.T, baseURL string) registry.Registry {
	t.Helper()
	path := filepath.Join(t.TempDir(), "models.yaml")
	index := "models:\n  - name: en_test\n    language: en\n    provider: ollama\n    model: llama3.2\n    base_url: " + baseURL + "\n"
	require.NoError(t, os.WriteFile(path, []byte(index), 0o644))

	reg, err := registry.Default(path)
	require.NoError(t, err)
	return reg
}

func TestLoad_EndToEnd(t *testing.T) {
	srv, chats := fakeOllama(t, "llama3.2:latest")

	p, err := Load(context.Background(), "en_test", WithRegistry(indexFor(t, srv.URL)))
	require.NoError(t, err)
	defer func() { _ = p.Close() }()

	assert.Equal(t, "en_test", p.Model())

	res, err := p.PreprocessText(context.Background(), "Led teams\nPage 4\nat Acme")
	require.NoError(t, err)
	assert.Equal(t, "lead Acme", res.Normalized)
	assert.Equal(t, []annotator.Entity{{Text: "Acme", Label: "ORG"}}, res.Entities)
	assert.Equal(t, int32(1), chats.Load())

	// Empty input never reaches the model.
	_, err = p.PreprocessText(context.Background(), "Page 7\n-----")
	require.NoError(t, err)
	assert.Equal(t, int32(1), chats.Load())
}

func TestLoad_UnknownModel(t *testing.T) {
	_, err := Load(context.Background(), "en_core_web_xl")
	assert.ErrorIs(t, err, registry.ErrModelNotFound)
}

func TestLoad_ModelNotPulled(t *testing.T) {
	srv, _ := fakeOllama(t, "mistral:latest")

	_, err := Load(context.Background(), "en_test", WithRegistry(indexFor(t, srv.URL)))
	assert.ErrorIs(t, err, ErrModelUnavailable)
}

func TestLoad_MissingAPIKey(t *testing.T) {
	t.Setenv("ANTHROPIC_API_KEY", "")

	_, err := Load(context.Background(), "en_core_web_lg")
	assert.ErrorIs(t, err, inference.ErrMissingAPIKey)
}

func TestLoad_ProviderOverrideDropsEntryModel(t *testing.T) {
	srv, _ := fakeOllama(t, "llama3.2:latest")

	p, err := Load(context.Background(), "en_core_web_lg",
		WithProvider("ollama"),
		WithBaseURL(srv.URL))
	require.NoError(t, err)
	assert.Equal(t, "ollama", p.Annotator().Name())
}

func TestLoad_FallbackChain(t *testing.T) {
	srv, _ := fakeOllama(t, "llama3.2:latest")
	t.Setenv("OPENAI_API_KEY", "")
	t.Setenv("ANTHROPIC_API_KEY", "sk-ant-test")

	p, err := Load(context.Background(), "en_test",
		WithRegistry(indexFor(t, srv.URL)),
		WithFallback("ollama", "openai", "anthropic"))
	require.NoError(t, err)

	// ollama is the primary, openai has no key and is skipped.
	assert.Equal(t, "fallback(ollama->anthropic)", p.Annotator().Name())
}

func TestDefaultLoadConfig(t *testing.T) {
	cfg := DefaultLoadConfig()
	assert.Equal(t, float64(0), cfg.Temperature)
	assert.Positive(t, cfg.MaxTokens)
	assert.Positive(t, cfg.Timeout)
	assert.Positive(t, cfg.MaxChunkSize)
	assert.Zero(t, cfg.MaxContentSize, "input size is unlimited unless configured")
	assert.Equal(t, "en", cfg.Language)
}

func TestLoad_NoNameResolvesForProvider(t *testing.T) {
	srv, chats := fakeOllama(t, "llama3.2:latest")

	p, err := Load(context.Background(), "",
		WithRegistry(indexFor(t, srv.URL)),
		WithProvider("ollama"),
		WithTransportRetries(1))
	require.NoError(t, err)
	defer func() { _ = p.Close() }()

	// The index entry is listed ahead of the built-in ollama model.
	assert.Equal(t, "en_test", p.Model())

	res, err := p.PreprocessText(context.Background(), "Led teams at Acme")
	require.NoError(t, err)
	assert.Equal(t, "lead Acme", res.Normalized)
	assert.Equal(t, int32(1), chats.Load())
}

func TestLoad_NoNameBuiltinChoice(t *testing.T) {
	t.Setenv("ANTHROPIC_API_KEY", "sk-ant-test")
	t.Setenv("OPENAI_API_KEY", "")

	tests := []struct {
		provider string
		want     string
	}{
		{"", registry.DefaultModelName},
		{"anthropic", "en_core_web_lg"},
		{"ollama", "en_core_web_local"},
	}
	for _, tt := range tests {
		t.Run(tt.provider, func(t *testing.T) {
			p, err := Load(context.Background(), "", WithProvider(tt.provider), WithSkipCheck(true))
			require.NoError(t, err)
			assert.Equal(t, tt.want, p.Model())
		})
	}
}

func TestLoad_NoNameUnknownLanguageFallsBackToDefault(t *testing.T) {
	p, err := Load(context.Background(), "",
		WithProvider("ollama"),
		WithLanguage("fr"),
		WithSkipCheck(true))
	require.NoError(t, err)
	assert.Equal(t, registry.DefaultModelName, p.Model())
}
