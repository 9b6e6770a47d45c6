package cleaner

import (
	"fmt"
	"regexp"
	"strings"
)

// LineFilterCleaner drops every line matching one of its patterns, such as
// recurring headers or footers ("Confidential", "Curriculum Vitae of ...").
// Patterns are matched case-insensitively against the whole line. The
// remaining lines are rejoined with "\n", so it chains ahead of
// BoilerplateCleaner.
type LineFilterCleaner struct {
	patterns []*regexp.Regexp
}

// NewLineFilter compiles patterns into a line filter.
func NewLineFilter(patterns ...string) (*LineFilterCleaner, error) {
	c := &LineFilterCleaner{patterns: make([]*regexp.Regexp, 0, len(patterns))}
	for _, p := range patterns {
		re, err := regexp.Compile("(?i)" + p)
		if err != nil {
			return nil, fmt.Errorf("invalid line pattern %q: %w", p, err)
		}
		c.patterns = append(c.patterns, re)
	}
	return c, nil
}

// Clean removes the matching lines.
func (c *LineFilterCleaner) Clean(text string) (string, error) {
	if len(c.patterns) == 0 {
		return text, nil
	}

	lines := splitLines(text)
	kept := lines[:0]
	for _, line := range lines {
		if !c.matches(line) {
			kept = append(kept, line)
		}
	}
	return strings.Join(kept, "\n"), nil
}

func (c *LineFilterCleaner) matches(line string) bool {
	for _, re := range c.patterns {
		if re.MatchString(line) {
			return true
		}
	}
	return false
}

// Name returns the cleaner type.
func (c *LineFilterCleaner) Name() string {
	return "linefilter"
}
