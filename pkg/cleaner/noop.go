package cleaner

// NoopCleaner hands text to the annotator untouched, for input that was
// already cleaned upstream (textprep preprocess --no-clean).
type NoopCleaner struct{}

// NewNoop creates a pass-through cleaner.
func NewNoop() *NoopCleaner {
	return &NoopCleaner{}
}

// Clean returns text unchanged.
func (c *NoopCleaner) Clean(text string) (string, error) {
	return text, nil
}

// Name returns the cleaner type.
func (c *NoopCleaner) Name() string {
	return "noop"
}
