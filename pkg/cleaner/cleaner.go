// Package cleaner provides interfaces and implementations for cleaning
// extracted document text before linguistic analysis.
package cleaner

// Cleaner transforms raw extracted text into a cleaner form for annotation.
// The default implementation strips page-number lines and separator runs
// and collapses whitespace (see BoilerplateCleaner).
type Cleaner interface {
	// Clean transforms the input text into its cleaned form.
	Clean(text string) (string, error)

	// Name returns the cleaner type for logging/debugging.
	Name() string
}
