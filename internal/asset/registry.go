package asset

import (
	"context"
	"errors"
	"strings"

	"github.com/jmoiron/sqlx"
)

var ErrAssetNotFound = errors.New("asset not found")

// Registry is the in-memory asset catalog. It is loaded once at startup
// and treated as immutable afterwards; asset_types rows are never changed
// while the process is running.
type Registry struct {
	byName map[string]int
	byID   map[int]string
}

func LoadRegistry(ctx context.Context, db *sqlx.DB) (*Registry, error) {
	var assets []Asset
	if err := db.SelectContext(ctx, &assets, `SELECT id, name, created_at FROM asset_types ORDER BY id`); err != nil {
		return nil, err
	}
	if len(assets) == 0 {
		return nil, errors.New("no asset types configured")
	}

	r := &Registry{
		byName: make(map[string]int, len(assets)),
		byID:   make(map[int]string, len(assets)),
	}
	for _, a := range assets {
		r.byName[strings.ToLower(a.Name)] = a.ID
		r.byID[a.ID] = a.Name
	}
	return r, nil
}

// NewRegistry builds a registry from a fixed name->id mapping. Used by tests.
func NewRegistry(assets map[string]int) *Registry {
	r := &Registry{
		byName: make(map[string]int, len(assets)),
		byID:   make(map[int]string, len(assets)),
	}
	for name, id := range assets {
		r.byName[strings.ToLower(name)] = id
		r.byID[id] = name
	}
	return r
}

// ID resolves an asset name (case-insensitive) to its storage id.
func (r *Registry) ID(name string) (int, error) {
	id, ok := r.byName[strings.ToLower(name)]
	if !ok {
		return 0, ErrAssetNotFound
	}
	return id, nil
}

// Name resolves an asset id back to its display name.
func (r *Registry) Name(id int) (string, error) {
	name, ok := r.byID[id]
	if !ok {
		return "", ErrAssetNotFound
	}
	return name, nil
}

// Names returns every registered asset name, useful for zero-filling
// balance responses.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.byID))
	for _, name := range r.byID {
		names = append(names, name)
	}
	return names
}
