package commands

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Montasar-Dridi/job-recommender-system/pkg/annotator"
	"github.com/Montasar-Dridi/job-recommender-system/pkg/model/registry"
)

// runCLI executes the root command with args and returns stdout and stderr.
func runCLI(t *testing.T, stdin io.Reader, args ...string) (string, string, error) {
	t.Helper()
	isolateEnv(t)
	t.Cleanup(resetFlags)

	var stdout, stderr bytes.Buffer
	if stdin == nil {
		stdin = strings.NewReader("")
	}
	rootCmd.SetIn(stdin)
	rootCmd.SetOut(&stdout)
	rootCmd.SetErr(&stderr)
	rootCmd.SetArgs(args)

	err := Execute()
	return stdout.String(), stderr.String(), err
}

// isolateEnv keeps user config files and API keys out of the tests.
func isolateEnv(t *testing.T) {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(home, ".config"))
	t.Setenv("TEXTPREP_MODEL_INDEX", "")
	t.Setenv("ANTHROPIC_API_KEY", "")
	t.Setenv("OPENAI_API_KEY", "")
}

// resetFlags restores every flag to its default so runs don't leak state.
func resetFlags() {
	reset := func(f *pflag.Flag) {
		if sv, ok := f.Value.(pflag.SliceValue); ok {
			_ = sv.Replace(nil)
		} else {
			_ = f.Value.Set(f.DefValue)
		}
		f.Changed = false
	}

	var walk func(c *cobra.Command)
	walk = func(c *cobra.Command) {
		c.Flags().VisitAll(reset)
		c.PersistentFlags().VisitAll(reset)
		for _, sub := range c.Commands() {
			walk(sub)
		}
	}
	walk(rootCmd)
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

// fakeOllama serves a local model that annotates every request the same way.
func fakeOllama(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/tags":
			_, _ = w.Write([]byte(`{"models":[{"name":"llama3.2:latest","model":"llama3.2:latest"}]}`))
		case "/api/chat":
			_, _ = w.Write([]byte(`{
				"model": "llama3.2",
				"message": {"role": "assistant", "content": "{\"tokens\":[{\"text\":\"Managed\",\"lemma\":\"manage\",\"is_stop\":false,\"is_punct\":false},{\"text\":\"the\",\"lemma\":\"the\",\"is_stop\":true,\"is_punct\":false},{\"text\":\"Berlin\",\"lemma\":\"Berlin\",\"is_stop\":false,\"is_punct\":false},{\"text\":\"office\",\"lemma\":\"office\",\"is_stop\":false,\"is_punct\":false},{\"text\":\".\",\"lemma\":\".\",\"is_stop\":false,\"is_punct\":true}],\"entities\":[{\"text\":\"Berlin\",\"label\":\"GPE\"}]}"},
				"done": true,
				"prompt_eval_count": 30,
				"eval_count": 12
			}`))
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func modelIndex(t *testing.T, baseURL string) string {
	t.Helper()
	return writeFile(t, "models.yaml",
		"models:\n"+
			"  - name: en_test\n"+
			"    description: local test model\n"+
			"    language: en\n"+
			"    provider: ollama\n"+
			"    model: llama3.2\n"+
			"    base_url: "+baseURL+"\n")
}

// failingReader fails the test if the command reads its input.
type failingReader struct{ t *testing.T }

func (r failingReader) Read([]byte) (int, error) {
	r.t.Error("input read before the model was loaded")
	return 0, io.EOF
}

func TestClean_Stdin(t *testing.T) {
	stdout, _, err := runCLI(t, strings.NewReader("Page 1\nSenior   Engineer\n-----\nGo, Kubernetes\n"), "clean")
	require.NoError(t, err)
	assert.Equal(t, "Senior Engineer Go, Kubernetes\n", stdout)
}

func TestClean_FilesAsJSON(t *testing.T) {
	a := writeFile(t, "a.txt", "Experience\n2\nLead ____ Developer")
	b := writeFile(t, "b.txt", "page 12\nSkills: SQL")

	stdout, _, err := runCLI(t, nil, "clean", "--format", "json", a, b)
	require.NoError(t, err)

	var records []cleanRecord
	require.NoError(t, json.Unmarshal([]byte(stdout), &records))
	assert.Equal(t, []cleanRecord{
		{Source: a, Cleaned: "Experience Lead Developer"},
		{Source: b, Cleaned: "Skills: SQL"},
	}, records)
}

func TestClean_OutputFile(t *testing.T) {
	out := filepath.Join(t.TempDir(), "out.jsonl")

	stdout, _, err := runCLI(t, strings.NewReader("Page 3\nData Analyst"), "clean", "--format", "jsonl", "-o", out)
	require.NoError(t, err)
	assert.Empty(t, stdout)

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, `{"source":"-","cleaned":"Data Analyst"}`+"\n", string(data))
}

func TestClean_InvalidFormat(t *testing.T) {
	_, _, err := runCLI(t, nil, "clean", "--format", "xml")
	assert.Error(t, err)
}

func TestClean_MissingFile(t *testing.T) {
	_, _, err := runCLI(t, nil, "clean", filepath.Join(t.TempDir(), "missing.txt"))
	assert.Error(t, err)
}

func TestModels_Text(t *testing.T) {
	stdout, _, err := runCLI(t, nil, "models")
	require.NoError(t, err)
	assert.Contains(t, stdout, "NAME")
	assert.Contains(t, stdout, registry.DefaultModelName)
	assert.Contains(t, stdout, "en_core_web_local")
}

func TestModels_IndexAsJSON(t *testing.T) {
	index := modelIndex(t, "http://localhost:11434")

	stdout, _, err := runCLI(t, nil, "models", "--index", index, "--format", "json")
	require.NoError(t, err)

	var models []registry.ModelInfo
	require.NoError(t, json.Unmarshal([]byte(stdout), &models))

	names := make([]string, 0, len(models))
	for _, m := range models {
		names = append(names, m.Name)
	}
	assert.Contains(t, names, "en_test")
	assert.Contains(t, names, registry.DefaultModelName)
}

func TestVersion(t *testing.T) {
	stdout, _, err := runCLI(t, nil, "version")
	require.NoError(t, err)
	assert.Contains(t, stdout, "textprep")
}

func TestVersion_JSON(t *testing.T) {
	stdout, _, err := runCLI(t, nil, "version", "--json")
	require.NoError(t, err)

	var info map[string]any
	require.NoError(t, json.Unmarshal([]byte(stdout), &info))
	assert.Contains(t, info, "version")
	assert.Contains(t, info, "go_version")
}

func TestPreprocess_UnknownModelFailsBeforeReadingInput(t *testing.T) {
	_, _, err := runCLI(t, failingReader{t}, "preprocess", "--model", "en_core_web_xl")
	require.Error(t, err)
	assert.True(t, errors.Is(err, registry.ErrModelNotFound))
}

func TestPreprocess_UnknownProvider(t *testing.T) {
	_, _, err := runCLI(t, failingReader{t}, "preprocess", "--provider", "bogus")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown provider")
}

func TestPreprocess_UnreachableModel(t *testing.T) {
	srv := fakeOllama(t)
	index := modelIndex(t, srv.URL)
	srv.Close()

	_, _, err := runCLI(t, failingReader{t}, "preprocess", "--index", index, "--model", "en_test")
	assert.Error(t, err)
}

func TestPreprocess_JSONL(t *testing.T) {
	srv := fakeOllama(t)
	index := modelIndex(t, srv.URL)
	a := writeFile(t, "a.txt", "Page 1\nManaged the Berlin office.")
	b := writeFile(t, "b.txt", "Managed the Berlin office.\n2")

	stdout, _, err := runCLI(t, nil,
		"preprocess", "--index", index, "--model", "en_test",
		"--format", "jsonl", "--concurrency", "2", a, b)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(stdout), "\n")
	require.Len(t, lines, 2)

	for i, src := range []string{a, b} {
		var rec preprocessRecord
		require.NoError(t, json.Unmarshal([]byte(lines[i]), &rec))
		assert.Equal(t, src, rec.Source)
		assert.Equal(t, "manage Berlin office", rec.Normalized)
		require.Len(t, rec.Entities, 1)
		assert.Equal(t, "Berlin", rec.Entities[0].Text)
		assert.Equal(t, "GPE", rec.Entities[0].Label)
	}
}

func TestPreprocess_TextFromStdinTwice(t *testing.T) {
	srv := fakeOllama(t)
	index := modelIndex(t, srv.URL)

	// The default instance is released after each run, so a second run in
	// the same process loads again.
	for range 2 {
		stdout, _, err := runCLI(t, strings.NewReader("Managed the Berlin office."),
			"preprocess", "--index", index, "--model", "en_test", "--format", "text")
		require.NoError(t, err)
		assert.Equal(t, "manage Berlin office\n", stdout)
	}
}

func TestPreprocess_ProviderOverride(t *testing.T) {
	srv := fakeOllama(t)

	stdout, _, err := runCLI(t, strings.NewReader("Managed the Berlin office."),
		"preprocess", "--provider", "ollama", "--base-url", srv.URL, "--llm-model", "llama3.2", "--format", "text")
	require.NoError(t, err)
	assert.Equal(t, "manage Berlin office\n", stdout)
}

func TestPreprocess_InvalidMaxInputSize(t *testing.T) {
	_, _, err := runCLI(t, failingReader{t}, "preprocess", "--max-input-size", "lots")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "max-input-size")
}

func TestParseSize(t *testing.T) {
	tests := []struct {
		in      string
		want    int
		wantErr bool
	}{
		{"", 0, false},
		{"0", 0, false},
		{"100KB", 100000, false},
		{"1MiB", 1 << 20, false},
		{"abc", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := parseSize(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestClean_DropLine(t *testing.T) {
	stdout, _, err := runCLI(t, strings.NewReader("CONFIDENTIAL\nProduct Manager\nPage 2\nRoadmaps"),
		"clean", "--drop-line", `^confidential$`)
	require.NoError(t, err)
	assert.Equal(t, "Product Manager Roadmaps\n", stdout)
}

func TestClean_InvalidDropLine(t *testing.T) {
	_, _, err := runCLI(t, nil, "clean", "--drop-line", "(")
	assert.Error(t, err)
}

func TestPreprocess_NoClean(t *testing.T) {
	srv := fakeOllama(t)
	index := modelIndex(t, srv.URL)

	stdout, _, err := runCLI(t, strings.NewReader("Managed the Berlin office."),
		"preprocess", "--index", index, "--model", "en_test", "--no-clean", "--format", "yaml")
	require.NoError(t, err)
	assert.Contains(t, stdout, "normalized: manage Berlin office")
	assert.Contains(t, stdout, "label: GPE")
}

func TestPreprocess_LoadErrorReportedOnce(t *testing.T) {
	_, stderr, err := runCLI(t, failingReader{t}, "preprocess", "--model", "en_core_web_xl")
	require.Error(t, err)
	assert.Equal(t, 1, strings.Count(stderr, "model not found"), "stderr: %s", stderr)
}

func TestPreprocess_ProviderPicksIndexModel(t *testing.T) {
	srv := fakeOllama(t)
	index := modelIndex(t, srv.URL)

	stdout, _, err := runCLI(t, strings.NewReader("Managed the Berlin office."),
		"preprocess", "--index", index, "--provider", "ollama", "--format", "json", "--compact")
	require.NoError(t, err)
	assert.Equal(t,
		`{"source":"-","normalized":"manage Berlin office","entities":[{"text":"Berlin","label":"GPE"}]}`+"\n",
		stdout)
}

func TestPreprocess_OversizeInputFails(t *testing.T) {
	srv := fakeOllama(t)
	index := modelIndex(t, srv.URL)

	_, _, err := runCLI(t, strings.NewReader("Managed the Berlin office."),
		"preprocess", "--index", index, "--model", "en_test", "--max-input-size", "10B")
	require.Error(t, err)
	assert.ErrorIs(t, err, annotator.ErrContentTooLarge)
}

func TestPreprocess_InvalidChunkSize(t *testing.T) {
	_, _, err := runCLI(t, failingReader{t}, "preprocess", "--chunk-size", "huge")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "chunk-size")
}

func TestClean_Compact(t *testing.T) {
	stdout, _, err := runCLI(t, strings.NewReader("Page 1\nData Analyst"), "clean", "--format", "json", "--compact")
	require.NoError(t, err)
	assert.Equal(t, `{"source":"-","cleaned":"Data Analyst"}`+"\n", stdout)
}
