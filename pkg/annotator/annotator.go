// Package annotator defines the linguistic annotation interface used by the
// preprocessor and its implementations.
//
// An annotator tokenizes text, lemmatizes each token, classifies stop words
// and punctuation, and recognizes named entities, all in one call. The
// annotation work is done by an external pretrained model; this package
// only talks to it.
package annotator

import (
	"context"
	"errors"
	"strings"
	"time"
)

var (
	// ErrResponseTruncated is returned when the model stopped at its output
	// token limit before finishing the annotation.
	ErrResponseTruncated = errors.New("model response truncated at the output token limit")

	// ErrContentTooLarge is returned for input above Config.MaxContentSize.
	ErrContentTooLarge = errors.New("content too large")
)

// Annotator produces a linguistic annotation for a piece of text.
// Implementations used with textprep.PreprocessMany must be safe for
// concurrent use.
type Annotator interface {
	// Annotate tokenizes text and recognizes its named entities.
	Annotate(ctx context.Context, text string) (*Annotation, error)

	// Name returns the annotator identifier.
	Name() string

	// Available returns true if the annotator is ready to use.
	Available() bool
}

// Token is one token of the annotated text.
type Token struct {
	Text    string `json:"text" yaml:"text" validate:"required"`
	Lemma   string `json:"lemma" yaml:"lemma"`
	IsStop  bool   `json:"is_stop" yaml:"is_stop"`
	IsPunct bool   `json:"is_punct" yaml:"is_punct"`
}

// Entity is a named entity span recognized in the text.
type Entity struct {
	Text  string `json:"text" yaml:"text" validate:"required"`
	Label string `json:"label" yaml:"label" validate:"required,entitylabel"`
}

// Annotation is the result of annotating one text.
type Annotation struct {
	// Tokens in text order.
	Tokens []Token

	// Entities in the order the model returned them.
	Entities []Entity

	// Model is the model that produced the annotation.
	Model string

	// Provider is the backend that served the model.
	Provider string

	// Usage is the token consumption summed over all attempts.
	Usage Usage

	// RetryCount is the number of retries performed (0 = first attempt succeeded).
	RetryCount int

	// Duration is the total time spent on model calls.
	Duration time.Duration
}

// Usage tracks token consumption.
type Usage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
}

// EntityLabels is the recognized entity label set (OntoNotes 5).
var EntityLabels = []string{
	"PERSON", "NORP", "FAC", "ORG", "GPE", "LOC", "PRODUCT", "EVENT",
	"WORK_OF_ART", "LAW", "LANGUAGE", "DATE", "TIME", "PERCENT", "MONEY",
	"QUANTITY", "ORDINAL", "CARDINAL",
}

var entityLabelSet = func() map[string]bool {
	m := make(map[string]bool, len(EntityLabels))
	for _, l := range EntityLabels {
		m[l] = true
	}
	return m
}()

// IsEntityLabel reports whether label belongs to EntityLabels.
func IsEntityLabel(label string) bool {
	return entityLabelSet[label]
}

// normalizeLabel maps a model-provided label onto the label set spelling.
func normalizeLabel(label string) string {
	label = strings.ToUpper(strings.TrimSpace(label))
	return strings.ReplaceAll(label, " ", "_")
}
