package cleaner

import (
	"fmt"
	"strings"

	"github.com/Montasar-Dridi/job-recommender-system/internal/logger"
)

// ChainCleaner runs cleaners one after another, each on the previous
// output.
type ChainCleaner struct {
	cleaners []Cleaner
}

// NewChain builds a chain; nil cleaners are skipped.
//
// Example:
//
//	filter, _ := cleaner.NewLineFilter(`^\s*confidential\s*$`)
//	chain := cleaner.NewChain(filter, cleaner.NewBoilerplate())
func NewChain(cleaners ...Cleaner) *ChainCleaner {
	c := &ChainCleaner{cleaners: make([]Cleaner, 0, len(cleaners))}
	for _, cl := range cleaners {
		if cl != nil {
			c.cleaners = append(c.cleaners, cl)
		}
	}
	return c
}

// Clean runs every stage in order. The first failing stage stops the chain
// and its name prefixes the error.
func (c *ChainCleaner) Clean(text string) (string, error) {
	for _, stage := range c.cleaners {
		before := len(text)
		out, err := stage.Clean(text)
		if err != nil {
			return "", fmt.Errorf("%s: %w", stage.Name(), err)
		}
		logger.Debug("cleaner stage",
			"stage", stage.Name(),
			"input_size", before,
			"output_size", len(out))
		text = out
	}
	return text, nil
}

// Name lists the stages, e.g. "chain(linefilter->boilerplate)".
func (c *ChainCleaner) Name() string {
	names := make([]string, len(c.cleaners))
	for i, cl := range c.cleaners {
		names[i] = cl.Name()
	}
	return "chain(" + strings.Join(names, "->") + ")"
}
