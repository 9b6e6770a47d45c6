package cleaner

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

// spaceClass matches the same runes as isSpace: Unicode white space plus the
// ASCII file/group/record/unit separators.
const spaceClass = `[\t\n\v\f\r \x{1c}-\x{1f}\x{85}\p{Z}]`

var (
	// pageNumberLine matches a lowercased line that is only "page N" or only
	// digits. Bare numeric lines are dropped too, even when they carry real
	// content such as a year or a quantity.
	pageNumberLine = regexp.MustCompile(`^` + spaceClass + `*(?:page` + spaceClass + `*\p{Nd}+|\p{Nd}+)` + spaceClass + `*$`)

	// separatorRun matches decorative rules such as "-----" or "___".
	// A single hyphen or underscore is left alone.
	separatorRun = regexp.MustCompile(`[-_]{2,}`)

	whitespaceRun = regexp.MustCompile(spaceClass + `+`)
)

// BoilerplateCleaner removes page-number lines and separator runs from
// extracted text and collapses whitespace into single spaces.
// It never returns an error.
type BoilerplateCleaner struct{}

// NewBoilerplate creates a new boilerplate cleaner.
func NewBoilerplate() *BoilerplateCleaner {
	return &BoilerplateCleaner{}
}

// Clean strips boilerplate from text. See CleanText.
func (c *BoilerplateCleaner) Clean(text string) (string, error) {
	return CleanText(text), nil
}

// Name returns the cleaner type.
func (c *BoilerplateCleaner) Name() string {
	return "boilerplate"
}

// CleanText removes structural noise from raw extracted text.
//
// The text is split into lines. A line that is only "page N" (any case,
// optional whitespace) or only digits is dropped. Every other line loses its
// runs of two or more '-' or '_' characters and is trimmed. The surviving
// lines are joined with newlines and every whitespace run, newlines included,
// is collapsed into a single space. The result is never trimmed as a whole,
// so an empty first line yields a leading space.
func CleanText(text string) string {
	lines := splitLines(text)
	kept := make([]string, 0, len(lines))
	for _, line := range lines {
		if pageNumberLine.MatchString(strings.ToLower(line)) {
			continue
		}
		line = separatorRun.ReplaceAllString(line, "")
		kept = append(kept, strings.TrimFunc(line, isSpace))
	}
	return whitespaceRun.ReplaceAllString(strings.Join(kept, "\n"), " ")
}

// splitLines splits s on line boundaries. "\r\n" counts as one boundary and
// a trailing boundary does not produce a final empty line.
func splitLines(s string) []string {
	var lines []string
	start := 0
	for i := 0; i < len(s); {
		r, size := utf8.DecodeRuneInString(s[i:])
		if !isLineBreak(r) {
			i += size
			continue
		}
		lines = append(lines, s[start:i])
		i += size
		if r == '\r' && i < len(s) && s[i] == '\n' {
			i++
		}
		start = i
	}
	if start < len(s) {
		lines = append(lines, s[start:])
	}
	return lines
}

func isLineBreak(r rune) bool {
	switch r {
	case '\n', '\r', '\v', '\f', 0x1c, 0x1d, 0x1e, 0x85, 0x2028, 0x2029:
		return true
	}
	return false
}

func isSpace(r rune) bool {
	return unicode.IsSpace(r) || (r >= 0x1c && r <= 0x1f)
}
