package textprep

import (
	"context"
	"errors"
	"sync"
)

// ErrNotInitialized is returned by the package-level PreprocessText before
// Init has loaded a model.
var ErrNotInitialized = errors.New("textprep: not initialized")

var (
	defaultMu   sync.Mutex
	defaultDone bool
	defaultPre  *Preprocessor
	defaultErr  error
)

// Init loads the process-wide Preprocessor. The model is loaded once:
// later calls, concurrent or not, return the outcome of the first.
func Init(ctx context.Context, name string, opts ...LoadOption) error {
	defaultMu.Lock()
	defer defaultMu.Unlock()

	if defaultDone {
		return defaultErr
	}
	defaultPre, defaultErr = Load(ctx, name, opts...)
	defaultDone = true
	return defaultErr
}

// SetDefault installs p as the process-wide Preprocessor, for programs
// that build their own annotator. It fails if a default is already set.
func SetDefault(p *Preprocessor) error {
	if p == nil {
		return errors.New("textprep: nil preprocessor")
	}

	defaultMu.Lock()
	defer defaultMu.Unlock()

	if defaultDone {
		return errors.New("textprep: already initialized")
	}
	defaultPre, defaultErr, defaultDone = p, nil, true
	return nil
}

// Default returns the process-wide Preprocessor, or nil before a
// successful Init.
func Default() *Preprocessor {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	return defaultPre
}

// PreprocessText preprocesses text with the process-wide Preprocessor.
func PreprocessText(ctx context.Context, text string) (Result, error) {
	p := Default()
	if p == nil {
		return Result{}, ErrNotInitialized
	}
	return p.PreprocessText(ctx, text)
}

// Close releases the process-wide Preprocessor and allows Init to run again.
func Close() error {
	defaultMu.Lock()
	p := defaultPre
	defaultPre, defaultErr, defaultDone = nil, nil, false
	defaultMu.Unlock()

	if p == nil {
		return nil
	}
	return p.Close()
}
