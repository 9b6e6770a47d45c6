// Package textprep is the public API of the job recommender's text
// preprocessing: it cleans extracted document text and reduces it to a
// normalized lemma string plus the named entities it mentions.
//
// A Preprocessor combines a cleaner.Cleaner with an annotator.Annotator.
// Programs normally load one at startup with Init and call PreprocessText;
// Load and New build independent instances.
package textprep

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Montasar-Dridi/job-recommender-system/internal/logger"
	"github.com/Montasar-Dridi/job-recommender-system/pkg/annotator"
	"github.com/Montasar-Dridi/job-recommender-system/pkg/cleaner"
)

// Result is the outcome of preprocessing one text.
type Result struct {
	// Normalized is the space-joined lemmas of the tokens that are neither
	// stop words nor punctuation, in text order.
	Normalized string `json:"normalized" yaml:"normalized"`

	// Entities are the named entities in the order the annotator returned them.
	Entities []annotator.Entity `json:"entities" yaml:"entities"`
}

// Preprocessor cleans and annotates text. It is read-only after
// construction and safe for concurrent use when its annotator is.
type Preprocessor struct {
	cleaner   cleaner.Cleaner
	annotator annotator.Annotator
	model     string
}

// Option configures a Preprocessor.
type Option func(*Preprocessor)

// WithCleaner replaces the default boilerplate cleaner.
func WithCleaner(c cleaner.Cleaner) Option {
	return func(p *Preprocessor) { p.cleaner = c }
}

// WithModelName records the registry name of the model behind the annotator.
func WithModelName(name string) Option {
	return func(p *Preprocessor) { p.model = name }
}

// New creates a Preprocessor around an annotator.
func New(a annotator.Annotator, opts ...Option) (*Preprocessor, error) {
	if a == nil {
		return nil, errors.New("textprep: nil annotator")
	}

	p := &Preprocessor{
		cleaner:   cleaner.NewBoilerplate(),
		annotator: a,
		model:     a.Name(),
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.cleaner == nil {
		p.cleaner = cleaner.NewBoilerplate()
	}
	return p, nil
}

// CleanText removes page-number lines and separator runs from text and
// collapses it to a single line. It needs no model.
func CleanText(text string) string {
	return cleaner.CleanText(text)
}

// CleanText runs the configured cleaner. A failing custom cleaner falls
// back to the boilerplate cleaner.
func (p *Preprocessor) CleanText(text string) string {
	cleaned, err := p.cleaner.Clean(text)
	if err != nil {
		logger.Debug("cleaner failed, using boilerplate cleaner",
			"cleaner", p.cleaner.Name(),
			"error", err)
		return cleaner.CleanText(text)
	}
	return cleaned
}

// PreprocessText cleans text, annotates it, and returns the normalized
// lemma string with the recognized entities.
func (p *Preprocessor) PreprocessText(ctx context.Context, text string) (Result, error) {
	start := time.Now()
	cleaned := p.CleanText(text)

	ann, err := p.annotator.Annotate(ctx, cleaned)
	if err != nil {
		return Result{}, fmt.Errorf("annotate: %w", err)
	}

	res := Result{
		Normalized: normalize(ann.Tokens),
		Entities:   make([]annotator.Entity, len(ann.Entities)),
	}
	copy(res.Entities, ann.Entities)

	logger.Debug("text preprocessed",
		"model", p.model,
		"input_size", len(text),
		"cleaned_size", len(cleaned),
		"tokens", len(ann.Tokens),
		"entities", len(res.Entities),
		"duration", time.Since(start))

	return res, nil
}

// normalize joins the lemmas of content tokens with single spaces.
func normalize(tokens []annotator.Token) string {
	lemmas := make([]string, 0, len(tokens))
	for _, t := range tokens {
		if t.IsStop || t.IsPunct {
			continue
		}
		lemmas = append(lemmas, t.Lemma)
	}
	return strings.Join(lemmas, " ")
}

// Model returns the name of the loaded model.
func (p *Preprocessor) Model() string { return p.model }

// Annotator returns the annotator in use.
func (p *Preprocessor) Annotator() annotator.Annotator { return p.annotator }

// Cleaner returns the cleaner in use.
func (p *Preprocessor) Cleaner() cleaner.Cleaner { return p.cleaner }

// Close releases the annotator's resources.
func (p *Preprocessor) Close() error {
	if c, ok := p.annotator.(interface{ Close() error }); ok {
		return c.Close()
	}
	return nil
}
