package annotator

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/Montasar-Dridi/job-recommender-system/pkg/llm"
)

// Config holds configuration for LLM-backed annotators.
type Config struct {
	// Temperature for model responses (default: 0 for reproducible output).
	Temperature float64

	// MaxTokens for model responses (default: 8192).
	MaxTokens int

	// MaxRetries bounds retries of rate-limited calls and of responses that
	// fail validation (default: 1). Parse errors are not retried.
	MaxRetries int

	// MaxContentSize rejects input text longer than this many bytes with
	// ErrContentTooLarge (default: 0 = unlimited).
	MaxContentSize int

	// MaxChunkSize bounds the text sent in one model call, in bytes
	// (default: 1000, 0 = whole text in one call). Longer text is split at
	// sentence or word boundaries and the chunk annotations concatenated.
	MaxChunkSize int

	// Observer receives a notification after every model call.
	Observer llm.LLMObserver
}

// DefaultConfig returns the defaults used by NewLLM.
func DefaultConfig() Config {
	return Config{
		Temperature:    0,
		MaxTokens:      8192,
		MaxRetries:     1,
		MaxContentSize: 0,
		MaxChunkSize:   1000,
	}
}

// Option configures an LLMAnnotator.
type Option func(*Config)

// WithMaxRetries sets the maximum number of retries.
func WithMaxRetries(n int) Option {
	return func(c *Config) { c.MaxRetries = n }
}

// WithTemperature sets the sampling temperature.
func WithTemperature(t float64) Option {
	return func(c *Config) { c.Temperature = t }
}

// WithMaxTokens sets the maximum output tokens.
func WithMaxTokens(n int) Option {
	return func(c *Config) { c.MaxTokens = n }
}

// WithMaxContentSize sets the input size limit in bytes.
func WithMaxContentSize(n int) Option {
	return func(c *Config) { c.MaxContentSize = n }
}

// WithMaxChunkSize sets the per-call text budget in bytes.
func WithMaxChunkSize(n int) Option {
	return func(c *Config) { c.MaxChunkSize = n }
}

// WithObserver sets the LLM observer.
func WithObserver(obs llm.LLMObserver) Option {
	return func(c *Config) { c.Observer = obs }
}

// SystemPrompt instructs the model to act as a linguistic pipeline.
var SystemPrompt = `You are an English linguistic annotation pipeline. You tokenize text, lemmatize tokens, flag stop words and punctuation, and recognize named entities.

Respond with ONLY valid JSON matching the schema. No explanations.

Rules:
1. tokens: every token of the text in order, punctuation included. Do not skip or merge tokens.
2. lemma: the dictionary base form ("managed" -> "manage", "engineers" -> "engineer", "better" -> "well" or "good" by context). Keep the original casing of proper nouns.
3. is_stop: true for common English function words (articles, pronouns, auxiliaries, prepositions, conjunctions such as "the", "and", "of", "is", "with").
4. is_punct: true for punctuation tokens.
5. entities: named entity spans in order of appearance, text copied verbatim, label one of: ` + strings.Join(EntityLabels, ", ") + `.`

// BuildPrompt creates the user prompt for text. previousErr, when set, is
// fed back so the model can correct its last response.
func BuildPrompt(text string, previousErr error) string {
	var prompt strings.Builder

	prompt.WriteString("Annotate the following text.\n")

	if previousErr != nil {
		prompt.WriteString("\n## Previous Attempt Errors\n")
		prompt.WriteString("The previous annotation had these errors that need to be fixed:\n")
		prompt.WriteString(previousErr.Error())
		prompt.WriteString("\n")
	}

	prompt.WriteString("\n## Text\n")
	prompt.WriteString("```\n")
	prompt.WriteString(text)
	prompt.WriteString("\n```\n")

	return prompt.String()
}

// AnnotationSchema returns the JSON schema the model's response must follow.
func AnnotationSchema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"tokens": map[string]any{
				"type": "array",
				"items": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"text":     map[string]any{"type": "string"},
						"lemma":    map[string]any{"type": "string"},
						"is_stop":  map[string]any{"type": "boolean"},
						"is_punct": map[string]any{"type": "boolean"},
					},
					"required":             []string{"text", "lemma", "is_stop", "is_punct"},
					"additionalProperties": false,
				},
			},
			"entities": map[string]any{
				"type": "array",
				"items": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"text":  map[string]any{"type": "string"},
						"label": map[string]any{"type": "string", "enum": EntityLabels},
					},
					"required":             []string{"text", "label"},
					"additionalProperties": false,
				},
			},
		},
		"required":             []string{"tokens", "entities"},
		"additionalProperties": false,
	}
}

// TruncateContent limits content to maxLen bytes without splitting a UTF-8
// sequence. maxLen of 0 means no limit.
func TruncateContent(content string, maxLen int) string {
	if maxLen <= 0 || len(content) <= maxLen {
		return content
	}
	cut := maxLen
	for cut > 0 && !utf8.RuneStart(content[cut]) {
		cut--
	}
	return content[:cut]
}

// minChunkSize is the smallest chunk that is split again after a truncated
// response.
const minChunkSize = 64

// splitChunks splits text into pieces of at most size bytes, cutting after
// a sentence end when one falls in the second half of the budget, otherwise
// at the last white space, otherwise on a rune boundary. White space at
// the cuts is dropped. size <= 0 means one chunk.
func splitChunks(text string, size int) []string {
	var chunks []string
	for {
		text = strings.TrimLeftFunc(text, unicode.IsSpace)
		if text == "" {
			return chunks
		}
		if size <= 0 || len(text) <= size {
			return append(chunks, text)
		}
		cut := chunkBoundary(text, size)
		chunks = append(chunks, strings.TrimRightFunc(text[:cut], unicode.IsSpace))
		text = text[cut:]
	}
}

// chunkBoundary returns a cut index in (0, size] for len(text) > size.
func chunkBoundary(text string, size int) int {
	// One byte past the budget, so a space right after a full window counts.
	window := text[:size+1]

	for i := len(window) - 1; i > size/2; i-- {
		if window[i] != ' ' && window[i] != '\n' {
			continue
		}
		switch window[i-1] {
		case '.', '!', '?', ';':
			return i
		}
	}
	if i := strings.LastIndexFunc(window, unicode.IsSpace); i > 0 {
		return i
	}
	if cut := len(TruncateContent(text, size)); cut > 0 {
		return cut
	}
	_, n := utf8.DecodeRuneInString(text)
	return n
}

// StripMarkdownCodeBlock removes markdown code block wrappers from JSON responses.
// Some models wrap their JSON output in ```json ... ``` blocks.
func StripMarkdownCodeBlock(s string) string {
	s = strings.TrimSpace(s)

	if strings.HasPrefix(s, "```json") {
		s = strings.TrimPrefix(s, "```json")
	} else if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```")
	} else {
		return s
	}

	s = strings.TrimSuffix(s, "```")

	return strings.TrimSpace(s)
}

// truncateForError truncates content for error messages.
func truncateForError(s string) string {
	if len(s) <= 200 {
		return s
	}
	return fmt.Sprintf("%s...", s[:200])
}
