package registry

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// FlatFile is a Registry backed by a JSON or YAML index file.
type FlatFile struct {
	indexPath string
	models    []ModelInfo
}

// flatFileIndex is the structure of the index file.
type flatFileIndex struct {
	Models []ModelInfo `json:"models" yaml:"models"`
}

// NewFlatFile creates a FlatFile registry from an index file. Files ending
// in .yaml or .yml are parsed as YAML, anything else as JSON. Every entry is
// validated and names must be unique.
func NewFlatFile(indexPath string) (*FlatFile, error) {
	ff := &FlatFile{indexPath: indexPath}
	if err := ff.load(); err != nil {
		return nil, err
	}
	return ff, nil
}

func (f *FlatFile) load() error {
	data, err := os.ReadFile(f.indexPath) //#nosec G304
	if err != nil {
		return fmt.Errorf("read index: %w", err)
	}

	var idx flatFileIndex
	switch strings.ToLower(filepath.Ext(f.indexPath)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &idx)
	default:
		err = json.Unmarshal(data, &idx)
	}
	if err != nil {
		return fmt.Errorf("parse index: %w", err)
	}

	seen := make(map[string]bool, len(idx.Models))
	for _, m := range idx.Models {
		if err := Validate(m); err != nil {
			return fmt.Errorf("index %s: %w", f.indexPath, err)
		}
		if seen[m.Name] {
			return fmt.Errorf("index %s: duplicate model %q", f.indexPath, m.Name)
		}
		seen[m.Name] = true
	}

	f.models = idx.Models
	return nil
}

// Path returns the index file path.
func (f *FlatFile) Path() string { return f.indexPath }

// List returns models matching the given options.
func (f *FlatFile) List(_ context.Context, opts ...ListOption) ([]ModelInfo, error) {
	return filter(f.models, opts...), nil
}

// Get returns a specific model by name.
func (f *FlatFile) Get(_ context.Context, name string) (*ModelInfo, error) {
	return find(f.models, name)
}

// Resolve finds the best model matching constraints.
func (f *FlatFile) Resolve(_ context.Context, opts ...ResolveOption) (*ModelInfo, error) {
	return resolve(f.models, opts...)
}

var _ Registry = (*FlatFile)(nil)
