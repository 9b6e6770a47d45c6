package textprep

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"
)

// PreprocessMany preprocesses texts with at most concurrency calls in
// flight. Results are in input order. The first error cancels the
// remaining work and is returned with the index of the failing input.
func (p *Preprocessor) PreprocessMany(ctx context.Context, texts []string, concurrency int) ([]Result, error) {
	if concurrency < 1 {
		concurrency = 1
	}

	results := make([]Result, len(texts))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	for i, text := range texts {
		g.Go(func() error {
			res, err := p.PreprocessText(ctx, text)
			if err != nil {
				return fmt.Errorf("input %d: %w", i, err)
			}
			results[i] = res
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
