package annotator

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Montasar-Dridi/job-recommender-system/internal/logger"
	"github.com/Montasar-Dridi/job-recommender-system/pkg/llm"
	"github.com/Montasar-Dridi/job-recommender-system/pkg/model/inference"
)

// LLMAnnotator annotates text with a pretrained language model reached
// through an inference.Inferencer. It is safe for concurrent use when the
// inferencer is.
type LLMAnnotator struct {
	inferencer inference.Inferencer
	config     Config
	name       string
}

// NewLLM creates an annotator backed by inf.
func NewLLM(inf inference.Inferencer, opts ...Option) *LLMAnnotator {
	config := DefaultConfig()
	for _, opt := range opts {
		opt(&config)
	}

	return &LLMAnnotator{
		inferencer: inf,
		config:     config,
		name:       inf.Name(),
	}
}

// Annotate tokenizes text and recognizes its entities. Empty text yields an
// empty annotation without calling the model. Text longer than
// MaxChunkSize is annotated chunk by chunk; tokens and entities keep text
// order.
func (a *LLMAnnotator) Annotate(ctx context.Context, text string) (*Annotation, error) {
	if strings.TrimSpace(text) == "" {
		return &Annotation{Provider: a.name, Model: a.model()}, nil
	}

	if a.config.MaxContentSize > 0 && len(text) > a.config.MaxContentSize {
		return nil, fmt.Errorf("%w: %d bytes exceeds the %d byte limit",
			ErrContentTooLarge, len(text), a.config.MaxContentSize)
	}

	chunks := splitChunks(text, a.config.MaxChunkSize)
	logger.Debug("annotator starting",
		"annotator", a.name,
		"content_size", len(text),
		"chunks", len(chunks),
		"max_retries", a.config.MaxRetries)

	total := &Annotation{Provider: a.name, Model: a.model()}
	for i, chunk := range chunks {
		if err := a.annotateChunk(ctx, chunk, total); err != nil {
			if len(chunks) > 1 {
				err = fmt.Errorf("chunk %d of %d: %w", i+1, len(chunks), err)
			}
			logger.Debug("annotator failed", "error", err)
			return nil, fmt.Errorf("annotation failed: %w", err)
		}
	}

	logger.Debug("annotator success",
		"tokens", len(total.Tokens),
		"entities", len(total.Entities),
		"retries", total.RetryCount,
		"total_input_tokens", total.Usage.InputTokens,
		"total_output_tokens", total.Usage.OutputTokens,
		"duration", total.Duration,
		"model", total.Model)
	return total, nil
}

// annotateChunk appends the annotation of chunk to total. A chunk whose
// response hit the output token limit is split in two and retried.
func (a *LLMAnnotator) annotateChunk(ctx context.Context, chunk string, total *Annotation) error {
	ann, err := a.annotateWithRetry(ctx, chunk)
	total.Usage.InputTokens += ann.Usage.InputTokens
	total.Usage.OutputTokens += ann.Usage.OutputTokens
	total.Duration += ann.Duration
	total.RetryCount += ann.RetryCount
	if ann.Model != "" {
		total.Model = ann.Model
	}

	if err == nil {
		total.Tokens = append(total.Tokens, ann.Tokens...)
		total.Entities = append(total.Entities, ann.Entities...)
		return nil
	}
	if !errors.Is(err, ErrResponseTruncated) || len(chunk) < 2*minChunkSize || ctx.Err() != nil {
		return err
	}

	parts := splitChunks(chunk, (len(chunk)+1)/2)
	logger.Debug("annotator response truncated, splitting chunk",
		"chunk_size", len(chunk),
		"parts", len(parts))
	for _, part := range parts {
		if err := a.annotateChunk(ctx, part, total); err != nil {
			return err
		}
	}
	return nil
}

// annotateWithRetry annotates one chunk, retrying rate limits and invalid
// responses. The returned annotation carries usage even on error.
func (a *LLMAnnotator) annotateWithRetry(ctx context.Context, text string) (*Annotation, error) {
	var lastErr error
	total := &Annotation{}

	for attempt := 0; attempt <= a.config.MaxRetries; attempt++ {
		ann, err := a.annotateOnce(ctx, text, lastErr, attempt)
		total.Usage.InputTokens += ann.Usage.InputTokens
		total.Usage.OutputTokens += ann.Usage.OutputTokens
		total.Duration += ann.Duration
		if ann.Model != "" {
			total.Model = ann.Model
		}

		if err == nil {
			total.Tokens = ann.Tokens
			total.Entities = ann.Entities
			total.RetryCount = attempt
			return total, nil
		}
		lastErr = err
		total.RetryCount = attempt

		if attempt >= a.config.MaxRetries {
			logger.Debug("annotator max retries reached", "max_retries", a.config.MaxRetries)
			break
		}

		var verr *validationError
		if !errors.As(err, &verr) && !isRetryable(err) {
			logger.Debug("annotator error not retryable", "error", err)
			break
		}
		if ctx.Err() != nil {
			break
		}
	}

	return total, lastErr
}

func (a *LLMAnnotator) annotateOnce(ctx context.Context, text string, previousErr error, attempt int) (*Annotation, error) {
	prompt := BuildPrompt(text, previousErr)
	req := inference.Request{
		Messages: []inference.Message{
			{Role: inference.RoleSystem, Content: SystemPrompt},
			{Role: inference.RoleUser, Content: prompt},
		},
		MaxTokens:   a.config.MaxTokens,
		Temperature: a.config.Temperature,
		JSONSchema:  AnnotationSchema(),
		SchemaName:  "annotation",
	}

	logger.Debug("annotator calling model",
		"provider", a.name,
		"model", a.model(),
		"attempt", attempt+1,
		"prompt_size", len(prompt))

	startedAt := time.Now()
	resp, err := a.inferencer.Infer(ctx, req)
	duration := time.Since(startedAt)

	a.notify(ctx, llm.LLMCallEvent{
		Provider:  a.name,
		Model:     a.model(),
		InputSize: len(text),
		Error:     err,
		Duration:  duration,
		Attempt:   attempt,
		StartedAt: startedAt,
	}, resp)

	if err != nil {
		logger.Debug("annotator model call failed", "error", err)
		return &Annotation{Duration: duration}, fmt.Errorf("model call failed: %w", err)
	}

	ann := &Annotation{
		Model:    resp.Model,
		Provider: a.name,
		Usage:    Usage{InputTokens: resp.Usage.InputTokens, OutputTokens: resp.Usage.OutputTokens},
		Duration: duration,
	}

	logger.Debug("annotator response received",
		"response_size", len(resp.Content),
		"input_tokens", resp.Usage.InputTokens,
		"output_tokens", resp.Usage.OutputTokens,
		"finish_reason", resp.FinishReason)

	if isLengthFinish(resp.FinishReason) {
		return ann, fmt.Errorf("%w (finish reason %q, max tokens %d)",
			ErrResponseTruncated, resp.FinishReason, a.config.MaxTokens)
	}

	decoded, err := decodeResponse(resp.Content)
	if err != nil {
		var verr *validationError
		if errors.As(err, &verr) {
			logger.Debug("annotator validation failed, will retry", "errors", len(verr.errors))
			return ann, fmt.Errorf("invalid annotation: %w", err)
		}
		return ann, fmt.Errorf("failed to parse response as JSON: %w (response: %s)", err, truncateForError(resp.Content))
	}

	ann.Tokens = decoded.Tokens
	ann.Entities = decoded.Entities
	return ann, nil
}

func (a *LLMAnnotator) notify(ctx context.Context, event llm.LLMCallEvent, resp *inference.Response) {
	if a.config.Observer == nil {
		return
	}
	if resp != nil {
		if resp.Model != "" {
			event.Model = resp.Model
		}
		event.Response = &llm.LLMCallResponse{
			ContentSize:  len(resp.Content),
			InputTokens:  resp.Usage.InputTokens,
			OutputTokens: resp.Usage.OutputTokens,
			FinishReason: resp.FinishReason,
		}
	}
	a.config.Observer.OnLLMCall(ctx, event)
}

func (a *LLMAnnotator) model() string {
	if m, ok := a.inferencer.(interface{ Model() string }); ok {
		return m.Model()
	}
	return a.name
}

// Name returns the annotator name.
func (a *LLMAnnotator) Name() string {
	return a.name
}

// Available reports whether the underlying inferencer is ready.
func (a *LLMAnnotator) Available() bool {
	return a.inferencer.Available()
}

// Check verifies the backend serves the model, for inferencers that can tell.
func (a *LLMAnnotator) Check(ctx context.Context) error {
	if c, ok := a.inferencer.(inference.Checker); ok {
		return c.Check(ctx)
	}
	return nil
}

// Close releases the inferencer.
func (a *LLMAnnotator) Close() error {
	return a.inferencer.Close()
}

// isLengthFinish reports a response cut off at the output token limit
// ("length" for OpenAI and Ollama, "max_tokens" for Anthropic).
func isLengthFinish(reason string) bool {
	return reason == "length" || reason == "max_tokens"
}

// isRetryable determines if an error should trigger a retry.
// Only rate limits are transient; parse failures and other errors are
// returned so a fallback chain can take over.
func isRetryable(err error) bool {
	if err == nil {
		return false
	}
	errStr := strings.ToLower(err.Error())
	return strings.Contains(errStr, "rate limit") || strings.Contains(errStr, "429")
}

var _ Annotator = (*LLMAnnotator)(nil)
