package annotator

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// ErrNoAnnotatorAvailable is returned when no annotator in a fallback chain
// is available.
var ErrNoAnnotatorAvailable = errors.New("no annotator available")

// FallbackAnnotator tries each annotator in order until one succeeds
// (e.g., try Anthropic, fall back to a local Ollama model).
type FallbackAnnotator struct {
	annotators []Annotator
}

// NewFallback creates a fallback chain. Unavailable annotators are skipped.
func NewFallback(annotators ...Annotator) *FallbackAnnotator {
	return &FallbackAnnotator{annotators: annotators}
}

// Annotate tries each available annotator in order until one succeeds.
func (f *FallbackAnnotator) Annotate(ctx context.Context, text string) (*Annotation, error) {
	var lastErr error
	var tried []string

	for _, a := range f.annotators {
		if !a.Available() {
			continue
		}

		tried = append(tried, a.Name())
		ann, err := a.Annotate(ctx, text)
		if err == nil {
			return ann, nil
		}
		lastErr = err

		if ctx.Err() != nil {
			break
		}
	}

	if len(tried) == 0 {
		return nil, ErrNoAnnotatorAvailable
	}

	return nil, fmt.Errorf("all annotators failed (tried: %s): %w", strings.Join(tried, ", "), lastErr)
}

// Name returns the fallback chain name.
func (f *FallbackAnnotator) Name() string {
	names := make([]string, 0, len(f.annotators))
	for _, a := range f.annotators {
		names = append(names, a.Name())
	}
	return "fallback(" + strings.Join(names, "->") + ")"
}

// Available returns true if at least one annotator is available.
func (f *FallbackAnnotator) Available() bool {
	return f.First() != nil
}

// First returns the first available annotator, or nil if none is.
func (f *FallbackAnnotator) First() Annotator {
	for _, a := range f.annotators {
		if a.Available() {
			return a
		}
	}
	return nil
}

// Close closes every annotator in the chain that can be closed.
func (f *FallbackAnnotator) Close() error {
	var errs []error
	for _, a := range f.annotators {
		if c, ok := a.(interface{ Close() error }); ok {
			if err := c.Close(); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}

// Check succeeds as soon as one available annotator passes its check.
func (f *FallbackAnnotator) Check(ctx context.Context) error {
	var errs []error
	for _, a := range f.annotators {
		if !a.Available() {
			continue
		}
		c, ok := a.(interface{ Check(context.Context) error })
		if !ok {
			return nil
		}
		err := c.Check(ctx)
		if err == nil {
			return nil
		}
		errs = append(errs, fmt.Errorf("%s: %w", a.Name(), err))
	}
	if len(errs) == 0 {
		return ErrNoAnnotatorAvailable
	}
	return errors.Join(errs...)
}

var _ Annotator = (*FallbackAnnotator)(nil)
