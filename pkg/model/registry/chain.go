package registry

import (
	"context"
	"errors"
)

// Chain layers registries. Earlier registries shadow later ones, so an
// index file listed before the built-ins can redefine a built-in name.
type Chain struct {
	registries []Registry
}

// NewChain creates a layered registry.
func NewChain(registries ...Registry) *Chain {
	return &Chain{registries: registries}
}

// Default returns the registry the CLI uses: the index at indexPath (when
// non-empty) layered over the built-in models.
func Default(indexPath string) (*Chain, error) {
	if indexPath == "" {
		return NewChain(NewBuiltin()), nil
	}
	ff, err := NewFlatFile(indexPath)
	if err != nil {
		return nil, err
	}
	return NewChain(ff, NewBuiltin()), nil
}

// List returns the union of all registries, first definition of a name wins.
func (c *Chain) List(ctx context.Context, opts ...ListOption) ([]ModelInfo, error) {
	seen := make(map[string]bool)
	var result []ModelInfo
	for _, r := range c.registries {
		models, err := r.List(ctx)
		if err != nil {
			return nil, err
		}
		for _, m := range models {
			if seen[m.Name] {
				continue
			}
			seen[m.Name] = true
			result = append(result, m)
		}
	}
	return filter(result, opts...), nil
}

// Get returns the first definition of name.
func (c *Chain) Get(ctx context.Context, name string) (*ModelInfo, error) {
	for _, r := range c.registries {
		m, err := r.Get(ctx, name)
		if err == nil {
			return m, nil
		}
		if !errors.Is(err, ErrModelNotFound) {
			return nil, err
		}
	}
	return nil, ErrModelNotFound
}

// Resolve finds the best model across all registries.
func (c *Chain) Resolve(ctx context.Context, opts ...ResolveOption) (*ModelInfo, error) {
	models, err := c.List(ctx)
	if err != nil {
		return nil, err
	}
	return resolve(models, opts...)
}

var _ Registry = (*Chain)(nil)
